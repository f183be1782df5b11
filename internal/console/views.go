package console

import (
	"net/url"
	"time"

	"github.com/moolen/hac-console/internal/form"
	"github.com/moolen/hac-console/internal/kube"
	"github.com/moolen/hac-console/internal/snapshot"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Navigation keys, rendered as data-test="nav-item-<key>".
const (
	NavApplications = "applications"
	NavSnapshots    = "snapshots"
)

type navItem struct {
	Key    string
	Label  string
	Href   string
	Active bool
}

type page struct {
	Workspace string
	Nav       []navItem
}

func newPage(workspace, active string) page {
	return page{
		Workspace: workspace,
		Nav: []navItem{
			{Key: NavApplications, Label: "Applications", Href: workspacePath(workspace, "applications"), Active: active == NavApplications},
			{Key: NavSnapshots, Label: "Snapshots", Href: workspacePath(workspace, "snapshots"), Active: active == NavSnapshots},
		},
	}
}

type applicationRow struct {
	Name        string
	DisplayName string
	Created     string
	Href        string
}

type snapshotRow struct {
	Name        string
	Application string
	Created     string
	ErrorCount  int
	Href        string
}

type applicationsView struct {
	page
	Applications []applicationRow
}

type applicationView struct {
	page
	Application applicationRow
	Snapshots   []snapshotRow
}

type snapshotsView struct {
	page
	Snapshots []snapshotRow
}

type snapshotView struct {
	page
	Snapshot    snapshotRow
	HasStatus   bool
	Errors      []snapshot.ErrorStatus
	Field       form.FieldView
	RerunAction string
	Rerun       string
}

type errorView struct {
	page
	Title   string
	Message string
}

func workspacePath(workspace string, segments ...string) string {
	p := "/workspaces/" + url.PathEscape(workspace)
	for _, s := range segments {
		p += "/" + url.PathEscape(s)
	}
	return p
}

func formatCreated(obj *unstructured.Unstructured) string {
	ts := obj.GetCreationTimestamp()
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

func toApplicationRow(workspace string, obj *unstructured.Unstructured) applicationRow {
	display, _, _ := unstructured.NestedString(obj.Object, "spec", "displayName")
	return applicationRow{
		Name:        obj.GetName(),
		DisplayName: display,
		Created:     formatCreated(obj),
		Href:        workspacePath(workspace, "applications", obj.GetName()),
	}
}

func (s *Server) toSnapshotRow(workspace string, obj *unstructured.Unstructured) snapshotRow {
	errs, _ := s.statuses.EnvironmentProvisionErrors(obj)
	app, _, _ := unstructured.NestedString(obj.Object, "spec", "application")
	if app == "" {
		app = obj.GetLabels()[kube.ApplicationLabel]
	}
	return snapshotRow{
		Name:        obj.GetName(),
		Application: app,
		Created:     formatCreated(obj),
		ErrorCount:  len(errs),
		Href:        workspacePath(workspace, "snapshots", obj.GetName()),
	}
}

func (s *Server) toSnapshotRows(workspace string, items []unstructured.Unstructured) []snapshotRow {
	rows := make([]snapshotRow, 0, len(items))
	for i := range items {
		rows = append(rows, s.toSnapshotRow(workspace, &items[i]))
	}
	return rows
}

package console

import (
	"net/http"
	"net/url"

	"github.com/moolen/hac-console/internal/form"
	"github.com/moolen/hac-console/internal/snapshot"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const scenarioField = "scenario"

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, workspacePath(s.DefaultWorkspace(), "applications"), http.StatusFound)
}

func (s *Server) handleApplications(w http.ResponseWriter, r *http.Request) {
	ws := r.PathValue("ws")
	items, err := s.lister.Applications(r.Context(), ws)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	view := applicationsView{page: newPage(ws, NavApplications)}
	for i := range items {
		view.Applications = append(view.Applications, toApplicationRow(ws, &items[i]))
	}
	s.renderPage(w, r, http.StatusOK, "applications", view)
}

func (s *Server) handleApplication(w http.ResponseWriter, r *http.Request) {
	ws, name := r.PathValue("ws"), r.PathValue("app")
	app, err := s.lister.Application(r.Context(), ws, name)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	items, err := s.lister.List(r.Context(), ws, name)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.renderPage(w, r, http.StatusOK, "application", applicationView{
		page:        newPage(ws, NavApplications),
		Application: toApplicationRow(ws, app),
		Snapshots:   s.toSnapshotRows(ws, items),
	})
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	ws := r.PathValue("ws")
	items, err := s.lister.List(r.Context(), ws, "")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.renderPage(w, r, http.StatusOK, "snapshots", snapshotsView{
		page:      newPage(ws, NavSnapshots),
		Snapshots: s.toSnapshotRows(ws, items),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	ws, name := r.PathValue("ws"), r.PathValue("name")
	obj, err := s.lister.Get(r.Context(), ws, name)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	f := form.New(nil, form.Required(scenarioField))
	view := s.snapshotView(r, ws, obj, f)
	view.Rerun = r.URL.Query().Get("rerun")
	s.renderPage(w, r, http.StatusOK, "snapshot", view)
}

// handleRerun binds the scenario through the dropdown field, re-renders the
// page with the field in its error state when it is blank or not one of the
// offered scenarios, and otherwise labels the snapshot and redirects back.
func (s *Server) handleRerun(w http.ResponseWriter, r *http.Request) {
	ws, name := r.PathValue("ws"), r.PathValue("name")
	if err := r.ParseForm(); err != nil {
		s.handleError(w, r, badRequest("invalid form: %v", err))
		return
	}
	obj, err := s.lister.Get(r.Context(), ws, name)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	field := s.scenarioDropdown(r, ws, obj)
	f := form.New(nil, form.Combine(form.Required(scenarioField), field.ValidateSelection))
	field.Select(f, r.PostForm.Get(scenarioField))

	if !f.Submit(scenarioField) {
		s.renderPage(w, r, http.StatusUnprocessableEntity, "snapshot", s.snapshotView(r, ws, obj, f))
		return
	}

	scenario := f.Value(scenarioField)
	if _, err := s.rerunner.Rerun(r.Context(), obj, scenario); err != nil {
		s.handleError(w, r, err)
		return
	}

	target := workspacePath(ws, "snapshots", name) + "?" + url.Values{"rerun": {scenario}}.Encode()
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleSnapshotErrors(w http.ResponseWriter, r *http.Request) {
	ws, name := r.PathValue("ws"), r.PathValue("name")
	obj, err := s.lister.Get(r.Context(), ws, name)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	errs, ok := s.statuses.EnvironmentProvisionErrors(obj)
	if !ok {
		s.handleError(w, r, notFound("snapshot %s/%s has no integration test status", ws, name))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"errors": errs})
}

func (s *Server) snapshotView(r *http.Request, ws string, obj *unstructured.Unstructured, f *form.Form) snapshotView {
	errs, present := s.statuses.EnvironmentProvisionErrors(obj)
	field := s.scenarioDropdown(r, ws, obj)
	return snapshotView{
		page:        newPage(ws, NavSnapshots),
		Snapshot:    s.toSnapshotRow(ws, obj),
		HasStatus:   present,
		Errors:      errs,
		Field:       field.View(f),
		RerunAction: workspacePath(ws, "snapshots", obj.GetName(), "rerun"),
	}
}

// scenarioDropdown offers the failed scenarios first, then every other
// scenario known from the annotation or the application's scenarios.
func (s *Server) scenarioDropdown(r *http.Request, ws string, obj *unstructured.Unstructured) *form.DropdownField {
	var names []string
	seen := map[string]bool{}
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	errs, _ := s.statuses.EnvironmentProvisionErrors(obj)
	for _, e := range errs {
		add(e.Scenario)
	}
	for _, name := range snapshot.Scenarios(obj) {
		add(name)
	}
	app := s.toSnapshotRow(ws, obj).Application
	if app != "" {
		scenarios, err := s.lister.Scenarios(r.Context(), ws, app)
		if err != nil {
			s.logger.WithContext(r.Context()).Debug("Failed to list scenarios of %s: %v", app, err)
		}
		for _, name := range scenarios {
			add(name)
		}
	}

	items := make([]form.DropdownItem, len(names))
	for i, name := range names {
		items[i] = form.DropdownItem{Key: name, Value: name}
	}
	return &form.DropdownField{
		Name:        scenarioField,
		Label:       "Integration test scenario",
		HelpText:    "The scenario to run again for this snapshot",
		Required:    true,
		Items:       items,
		Placeholder: "Select a scenario",
	}
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := s.pages.render(w, status, name, data); err != nil {
		s.logger.WithContext(r.Context()).Error("Failed to render %s: %v", name, err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

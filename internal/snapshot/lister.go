package snapshot

import (
	"context"
	"fmt"
	"sort"

	"github.com/moolen/hac-console/internal/kube"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
)

// Lister reads console resources through a dynamic client.
type Lister struct {
	client dynamic.Interface
}

// NewLister creates a Lister.
func NewLister(client dynamic.Interface) *Lister {
	return &Lister{client: client}
}

// Get returns a single snapshot.
func (l *Lister) Get(ctx context.Context, namespace, name string) (*unstructured.Unstructured, error) {
	obj, err := l.client.Resource(kube.SnapshotGVR).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s/%s: %w", namespace, name, err)
	}
	return obj, nil
}

// List returns the snapshots in namespace, newest first. A non-empty
// application restricts the result to that application's snapshots.
func (l *Lister) List(ctx context.Context, namespace, application string) ([]unstructured.Unstructured, error) {
	opts := metav1.ListOptions{}
	if application != "" {
		opts.LabelSelector = labels.SelectorFromSet(labels.Set{kube.ApplicationLabel: application}).String()
	}
	return l.list(ctx, kube.SnapshotGVR, namespace, opts)
}

// Applications returns the applications in namespace, newest first.
func (l *Lister) Applications(ctx context.Context, namespace string) ([]unstructured.Unstructured, error) {
	return l.list(ctx, kube.ApplicationGVR, namespace, metav1.ListOptions{})
}

// Application returns a single application.
func (l *Lister) Application(ctx context.Context, namespace, name string) (*unstructured.Unstructured, error) {
	obj, err := l.client.Resource(kube.ApplicationGVR).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get application %s/%s: %w", namespace, name, err)
	}
	return obj, nil
}

// Scenarios returns the names of the integration test scenarios of
// application, sorted.
func (l *Lister) Scenarios(ctx context.Context, namespace, application string) ([]string, error) {
	items, err := l.list(ctx, kube.ScenarioGVR, namespace, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	var names []string
	for _, item := range items {
		app, _, _ := unstructured.NestedString(item.Object, "spec", "application")
		if application == "" || app == application {
			names = append(names, item.GetName())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (l *Lister) list(ctx context.Context, gvr schema.GroupVersionResource, namespace string, opts metav1.ListOptions) ([]unstructured.Unstructured, error) {
	list, err := l.client.Resource(gvr).Namespace(namespace).List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s in %s: %w", gvr.Resource, namespace, err)
	}
	items := list.Items
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := items[i].GetCreationTimestamp(), items[j].GetCreationTimestamp()
		if ti.Equal(&tj) {
			return items[i].GetName() < items[j].GetName()
		}
		return tj.Before(&ti)
	})
	return items, nil
}

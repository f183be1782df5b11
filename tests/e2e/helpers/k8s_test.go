package helpers

import (
	"context"
	"testing"

	"github.com/moolen/hac-console/internal/kube"
	"github.com/moolen/hac-console/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	kubefake "k8s.io/client-go/kubernetes/fake"
)

func newFakeK8sClient(t *testing.T) *K8sClient {
	dyn := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), kube.ConsoleResources)
	return NewK8sClientFrom(t, kubefake.NewSimpleClientset(), dyn)
}

func TestK8sClient_Namespaces(t *testing.T) {
	ctx := context.Background()
	k := newFakeK8sClient(t)

	require.NoError(t, k.CreateNamespace(ctx, "e2e"))
	require.NoError(t, k.CreateNamespace(ctx, "e2e"), "existing namespace is not an error")

	_, err := k.Clientset.CoreV1().Namespaces().Get(ctx, "e2e", metav1.GetOptions{})
	require.NoError(t, err)

	require.NoError(t, k.DeleteNamespace(ctx, "e2e"))
	require.NoError(t, k.DeleteNamespace(ctx, "e2e"), "missing namespace is not an error")
}

func TestK8sClient_Snapshots(t *testing.T) {
	ctx := context.Background()
	k := newFakeK8sClient(t)

	obj := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": kube.Group + "/v1alpha1",
		"kind":       "Snapshot",
		"metadata":   map[string]any{"name": "snap", "namespace": "e2e"},
	}}
	_, err := k.CreateSnapshot(ctx, obj)
	require.NoError(t, err)

	rerunner := snapshot.NewRerunner(k.Dynamic, nil)
	got, err := k.GetSnapshot(ctx, "e2e", "snap")
	require.NoError(t, err)
	_, err = rerunner.Rerun(ctx, got, "its-smoke")
	require.NoError(t, err)

	EventuallySnapshotRerunRequested(t, k, "e2e", "snap", "its-smoke", FastEventuallyOption)

	_, err = k.GetSnapshot(ctx, "e2e", "missing")
	assert.Error(t, err)
}

package helpers

import (
	"context"
	"fmt"
	"testing"

	"github.com/moolen/hac-console/internal/kube"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
)

// K8sClient provides methods to interact with a Kubernetes cluster.
type K8sClient struct {
	Clientset kubernetes.Interface
	Dynamic   dynamic.Interface
	t         *testing.T
}

// NewK8sClient creates typed and dynamic clients from kubeconfig. An empty
// path falls back to in-cluster configuration.
func NewK8sClient(t *testing.T, kubeConfigPath string) (*K8sClient, error) {
	t.Logf("Creating Kubernetes client from kubeconfig: %q", kubeConfigPath)

	config, err := kube.BuildConfig(kubeConfigPath)
	if err != nil {
		return nil, err
	}
	config.QPS = -1
	config.Burst = 200

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}
	dyn, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	t.Logf("✓ Kubernetes client created")
	return &K8sClient{Clientset: clientset, Dynamic: dyn, t: t}, nil
}

// NewK8sClientFrom wraps existing clients, e.g. fakes.
func NewK8sClientFrom(t *testing.T, clientset kubernetes.Interface, dyn dynamic.Interface) *K8sClient {
	return &K8sClient{Clientset: clientset, Dynamic: dyn, t: t}
}

// CreateNamespace creates a namespace. An existing namespace is not an error.
func (k *K8sClient) CreateNamespace(ctx context.Context, name string) error {
	k.t.Logf("Creating namespace: %s", name)

	ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
	_, err := k.Clientset.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create namespace: %w", err)
	}

	k.t.Logf("✓ Namespace created: %s", name)
	return nil
}

// DeleteNamespace deletes a namespace. A missing namespace is not an error.
func (k *K8sClient) DeleteNamespace(ctx context.Context, name string) error {
	k.t.Logf("Deleting namespace: %s", name)

	err := k.Clientset.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete namespace: %w", err)
	}

	k.t.Logf("✓ Namespace deleted: %s", name)
	return nil
}

// CreateSnapshot creates a snapshot object.
func (k *K8sClient) CreateSnapshot(ctx context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	created, err := k.Dynamic.Resource(kube.SnapshotGVR).Namespace(obj.GetNamespace()).Create(ctx, obj, metav1.CreateOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}
	k.t.Logf("✓ Snapshot created: %s/%s", created.GetNamespace(), created.GetName())
	return created, nil
}

// GetSnapshot fetches a snapshot by name.
func (k *K8sClient) GetSnapshot(ctx context.Context, namespace, name string) (*unstructured.Unstructured, error) {
	return k.Dynamic.Resource(kube.SnapshotGVR).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
}

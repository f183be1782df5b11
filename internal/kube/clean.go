package kube

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/moolen/hac-console/internal/logging"
	"golang.org/x/sync/errgroup"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
)

// CleanNamespace deletes every console resource in namespace, one goroutine
// per resource kind, and returns how many objects were deleted. Objects that
// vanish concurrently are ignored. Finalizers are not awaited.
func CleanNamespace(ctx context.Context, client dynamic.Interface, namespace string) (int, error) {
	logger := logging.GetLogger("kube").WithField("namespace", namespace)
	var deleted atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for gvr := range ConsoleResources {
		g.Go(func() error {
			n, err := deleteAll(ctx, client, gvr, namespace)
			deleted.Add(int64(n))
			return err
		})
	}
	err := g.Wait()

	total := int(deleted.Load())
	if err != nil {
		return total, err
	}
	logger.Info("Cleaned namespace, deleted %d resources", total)
	return total, nil
}

func deleteAll(ctx context.Context, client dynamic.Interface, gvr schema.GroupVersionResource, namespace string) (int, error) {
	ri := client.Resource(gvr).Namespace(namespace)
	list, err := ri.List(ctx, metav1.ListOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list %s: %w", gvr.Resource, err)
	}

	deleted := 0
	for _, item := range list.Items {
		err := ri.Delete(ctx, item.GetName(), metav1.DeleteOptions{})
		if apierrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return deleted, fmt.Errorf("failed to delete %s %s: %w", gvr.Resource, item.GetName(), err)
		}
		deleted++
	}
	return deleted, nil
}

// Package kube builds Kubernetes clients and knows the console resource kinds.
package kube

import (
	"fmt"

	"github.com/moolen/hac-console/internal/logging"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// BuildConfig returns a REST config. An explicit kubeconfig path wins;
// otherwise in-cluster config is tried before the default loading rules.
func BuildConfig(kubeconfig string) (*rest.Config, error) {
	logger := logging.GetLogger("kube")

	if kubeconfig == "" {
		if cfg, err := rest.InClusterConfig(); err == nil {
			logger.Debug("Using in-cluster config")
			return cfg, nil
		}
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to build client config: %w", err)
	}
	logger.Debug("Using kubeconfig %s", kubeconfig)
	return cfg, nil
}

// NewDynamicClient creates a dynamic client from kubeconfig.
func NewDynamicClient(kubeconfig string) (dynamic.Interface, error) {
	cfg, err := BuildConfig(kubeconfig)
	if err != nil {
		return nil, err
	}
	client, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}
	return client, nil
}

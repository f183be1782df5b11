package e2e

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/moolen/hac-console/internal/config"
	"github.com/moolen/hac-console/internal/console"
	"github.com/moolen/hac-console/internal/kube"
	"github.com/moolen/hac-console/internal/snapshot"
	"github.com/moolen/hac-console/tests/e2e/helpers"
	"github.com/playwright-community/playwright-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	kubefake "k8s.io/client-go/kubernetes/fake"
)

const workspace = "e2e-ws"

type UIStage struct {
	t       *testing.T
	require *require.Assertions
	assert  *assert.Assertions

	objects   []runtime.Object
	k8sClient *helpers.K8sClient
	server    *httptest.Server
	cfg       config.Config
	console   *helpers.Console
}

func NewUIStage(t *testing.T) (*UIStage, *UIStage, *UIStage) {
	s := &UIStage{
		t:       t,
		require: require.New(t),
		assert:  assert.New(t),
	}
	return s, s, s
}

func (s *UIStage) and() *UIStage {
	return s
}

func (s *UIStage) an_application(name, displayName string) *UIStage {
	s.objects = append(s.objects, &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": kube.Group + "/v1alpha1",
		"kind":       "Application",
		"metadata": map[string]any{
			"name":              name,
			"namespace":         workspace,
			"creationTimestamp": "2024-01-01T00:00:00Z",
		},
		"spec": map[string]any{"displayName": displayName},
	}})
	return s
}

func (s *UIStage) a_scenario(name, app string) *UIStage {
	s.objects = append(s.objects, &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": kube.Group + "/v1beta1",
		"kind":       "IntegrationTestScenario",
		"metadata":   map[string]any{"name": name, "namespace": workspace},
		"spec":       map[string]any{"application": app},
	}})
	return s
}

func (s *UIStage) a_snapshot(name, app, testStatus string) *UIStage {
	obj := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": kube.Group + "/v1alpha1",
		"kind":       "Snapshot",
		"metadata":   map[string]any{"name": name, "namespace": workspace},
		"spec":       map[string]any{"application": app},
	}}
	obj.SetLabels(map[string]string{kube.ApplicationLabel: app})
	obj.SetUID(types.UID("uid-" + name))
	obj.SetResourceVersion("1")
	obj.SetCreationTimestamp(metav1.NewTime(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	if testStatus != "" {
		obj.SetAnnotations(map[string]string{snapshot.ITSStatusAnnotation: testStatus})
	}
	s.objects = append(s.objects, obj)
	return s
}

func (s *UIStage) the_console_is_running() *UIStage {
	dyn := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), kube.ConsoleResources, s.objects...)
	s.k8sClient = helpers.NewK8sClientFrom(s.t, kubefake.NewSimpleClientset(), dyn)

	s.cfg = config.Default()
	s.cfg.Namespace = workspace
	s.cfg.CleanNamespace = true

	srv, err := console.NewServer(s.cfg, dyn, console.WithRegistry(prometheus.NewRegistry()))
	s.require.NoError(err, "failed to create console server")
	s.server = httptest.NewServer(srv.Handler())
	s.t.Cleanup(s.server.Close)

	s.cfg.BaseURL = s.server.URL
	s.t.Logf("✓ Console listening on %s", s.server.URL)
	return s
}

func (s *UIStage) browser_is_initialized() *UIStage {
	helpers.EnsurePlaywrightInstalled(s.t)
	bt, err := helpers.NewBrowserTest(s.t)
	s.require.NoError(err, "failed to create browser test")
	s.t.Cleanup(func() {
		if s.t.Failed() && bt.Page != nil {
			bt.CaptureDebugInfo(filepath.Join(".tests", "ui-debug"), "test_failed")
		}
		if err := bt.Close(); err != nil {
			s.t.Logf("Warning: failed to close browser: %v", err)
		}
	})
	s.console = helpers.NewConsole(bt, s.cfg, s.k8sClient.Dynamic)
	return s
}

func (s *UIStage) the_base_url_is_opened() *UIStage {
	s.console.OpenBaseURL()
	s.console.ClickOnConsentButton()
	s.console.WaitForLoad(30 * time.Second)
	return s
}

func (s *UIStage) navigated_to(item helpers.NavItem) *UIStage {
	s.console.NavigateTo(item)
	return s
}

func (s *UIStage) the_application_page_is_opened(app string) *UIStage {
	s.console.OpenApplicationURL(app)
	return s
}

func (s *UIStage) the_snapshot_page_is_opened(name string) *UIStage {
	s.console.OpenURL(s.cfg.BaseURL + "/workspaces/" + workspace + "/snapshots/" + name)
	s.console.WaitForLoad(30 * time.Second)
	return s
}

func (s *UIStage) scenario_is_rerun(scenario string) *UIStage {
	page := s.console.Page
	_, err := page.Locator(`select[name="scenario"]`).SelectOption(playwright.SelectOptionValues{
		Values: &[]string{scenario},
	})
	s.require.NoError(err, "failed to select scenario %s", scenario)
	s.require.NoError(page.Locator(`[data-test="rerun-submit"]`).Click(), "failed to submit re-run")
	s.console.WaitForLoad(30 * time.Second)
	return s
}

func (s *UIStage) rerun_is_submitted_without_scenario() *UIStage {
	s.require.NoError(s.console.Page.Locator(`[data-test="rerun-submit"]`).Click(), "failed to submit re-run")
	return s
}

func (s *UIStage) the_namespace_is_cleaned() *UIStage {
	s.console.CleanNamespace()
	return s
}

func (s *UIStage) page_title_is(title string) *UIStage {
	s.console.VerifyPageTitle(title)
	return s
}

func (s *UIStage) url_contains(fragment string) *UIStage {
	s.assert.Contains(s.console.Page.URL(), fragment)
	return s
}

func (s *UIStage) row_contains(id string, values ...string) *UIStage {
	s.console.CheckRowValues(id, values)
	return s
}

func (s *UIStage) marker_is_visible(testID string) *UIStage {
	err := s.console.Page.Locator(`[data-test="` + testID + `"]`).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(10000),
	})
	s.require.NoError(err, "marker %s not visible", testID)
	return s
}

func (s *UIStage) snapshot_rerun_was_requested(name, scenario string) *UIStage {
	helpers.EventuallySnapshotRerunRequested(s.t, s.k8sClient, workspace, name, scenario, helpers.FastEventuallyOption)
	return s
}

func (s *UIStage) snapshot_is_gone(name string) *UIStage {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.k8sClient.GetSnapshot(ctx, workspace, name)
	s.require.Error(err, "snapshot %s still exists", name)
	return s
}

func (s *UIStage) origin_is_the_console_server() *UIStage {
	s.assert.Equal(s.server.URL, s.console.GetOrigin())
	return s
}

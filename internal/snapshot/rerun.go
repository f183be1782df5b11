package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/moolen/hac-console/internal/kube"
	"github.com/moolen/hac-console/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
)

// BuildRequestLabel asks the integration service to re-run the named scenario.
const BuildRequestLabel = "test.appstudio.openshift.io/run"

// PatchOperation is a single RFC 6902 operation.
type PatchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// EscapeJSONPointer escapes a reference token per RFC 6901.
func EscapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

// RerunPatch builds the JSON patch that sets BuildRequestLabel to scenario.
// Objects without any labels get the whole labels map added, since an add
// cannot create intermediate members.
func RerunPatch(obj metav1.Object, scenario string) ([]byte, error) {
	if scenario == "" {
		return nil, errors.New("scenario must not be empty")
	}

	var op PatchOperation
	if obj.GetLabels() == nil {
		op = PatchOperation{
			Op:    "add",
			Path:  "/metadata/labels",
			Value: map[string]string{BuildRequestLabel: scenario},
		}
	} else {
		op = PatchOperation{
			Op:    "add",
			Path:  "/metadata/labels/" + EscapeJSONPointer(BuildRequestLabel),
			Value: scenario,
		}
	}
	return json.Marshal([]PatchOperation{op})
}

// Rerunner triggers scenario re-runs on snapshots.
type Rerunner struct {
	client dynamic.Interface
	reruns prometheus.Counter
	logger *logging.Logger
}

// NewRerunner creates a Rerunner. reg may be nil to skip metrics.
func NewRerunner(client dynamic.Interface, reg prometheus.Registerer) *Rerunner {
	r := &Rerunner{
		client: client,
		logger: logging.GetLogger("snapshot"),
	}
	if reg != nil {
		r.reruns = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hac_snapshot_reruns_total",
			Help: "Total number of integration test re-runs requested",
		})
		reg.MustRegister(r.reruns)
	}
	return r
}

// Rerun labels the snapshot so that scenario runs again and returns the
// patched object.
func (r *Rerunner) Rerun(ctx context.Context, obj metav1.Object, scenario string) (*unstructured.Unstructured, error) {
	patch, err := RerunPatch(obj, scenario)
	if err != nil {
		return nil, err
	}

	patched, err := r.client.Resource(kube.SnapshotGVR).Namespace(obj.GetNamespace()).
		Patch(ctx, obj.GetName(), types.JSONPatchType, patch, metav1.PatchOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to patch snapshot %s/%s: %w", obj.GetNamespace(), obj.GetName(), err)
	}

	if r.reruns != nil {
		r.reruns.Inc()
	}
	r.logger.InfoWithFields("Requested scenario re-run",
		logging.Field("namespace", obj.GetNamespace()),
		logging.Field("snapshot", obj.GetName()),
		logging.Field("scenario", scenario),
	)
	return patched, nil
}

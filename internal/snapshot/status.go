// Package snapshot reads integration test status from Snapshot resources and
// triggers scenario re-runs through label patches.
package snapshot

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
	"github.com/moolen/hac-console/internal/logging"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// ITSStatusAnnotation holds the JSON encoded integration test status.
	ITSStatusAnnotation = "test.appstudio.openshift.io/status"

	// EnvironmentProvisionError is the status of scenarios whose environment
	// could not be provisioned.
	EnvironmentProvisionError = "EnvironmentProvisionError"
)

// ErrorStatus is a single scenario status entry of the annotation.
type ErrorStatus struct {
	Scenario       string `json:"scenario" yaml:"scenario"`
	Status         string `json:"status" yaml:"status"`
	Details        string `json:"details" yaml:"details"`
	LastUpdateTime string `json:"lastUpdateTime" yaml:"lastUpdateTime"`
}

// EnvironmentProvisionErrors returns the environment provision errors recorded
// on obj, most recent first.
//
// The boolean is false when the annotation is missing, empty, malformed or of
// an unexpected shape. A non-empty array without matching entries yields an
// empty list and true.
func EnvironmentProvisionErrors(obj metav1.Object) ([]ErrorStatus, bool) {
	raw := obj.GetAnnotations()[ITSStatusAnnotation]
	if raw == "" {
		return nil, false
	}
	logger := logging.GetLogger("snapshot").WithFields(
		logging.Field("namespace", obj.GetNamespace()),
		logging.Field("name", obj.GetName()),
	)

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		logger.Debug("Ignoring malformed %s annotation: %v", ITSStatusAnnotation, err)
		return nil, false
	}

	var out []ErrorStatus
	switch v := parsed.(type) {
	case []any:
		if len(v) == 0 {
			return nil, false
		}
		out = []ErrorStatus{}
		for _, item := range v {
			if item == nil {
				logger.Debug("Ignoring %s annotation with a null entry", ITSStatusAnnotation)
				return nil, false
			}
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if status, _ := entry["status"].(string); status == EnvironmentProvisionError {
				out = append(out, toErrorStatus(entry))
			}
		}
	case map[string]any:
		if status, _ := v["Status"].(string); status != EnvironmentProvisionError {
			return nil, false
		}
		out = []ErrorStatus{toErrorStatus(v)}
	default:
		return nil, false
	}

	SortByLastUpdate(out)
	return out, true
}

// Scenarios returns the names of every scenario listed in the annotation,
// whatever their status, in annotation order.
func Scenarios(obj metav1.Object) []string {
	raw := obj.GetAnnotations()[ITSStatusAnnotation]
	if raw == "" {
		return nil
	}
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil
	}

	var entries []any
	switch v := parsed.(type) {
	case []any:
		entries = v
	case map[string]any:
		entries = []any{v}
	}

	var names []string
	seen := map[string]bool{}
	for _, item := range entries {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := field(entry, "scenario")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// SortByLastUpdate sorts statuses descending by LastUpdateTime. Entries whose
// time cannot be parsed compare as the zero time and therefore come last.
// The sort is stable.
func SortByLastUpdate(statuses []ErrorStatus) {
	times := make(map[string]time.Time, len(statuses))
	for _, s := range statuses {
		if _, ok := times[s.LastUpdateTime]; !ok {
			times[s.LastUpdateTime] = ParseUpdateTime(s.LastUpdateTime)
		}
	}
	sort.SliceStable(statuses, func(i, j int) bool {
		return times[statuses[i].LastUpdateTime].After(times[statuses[j].LastUpdateTime])
	})
}

// ParseUpdateTime parses an RFC 3339 timestamp, falling back to lenient
// date parsing. It returns the zero time when both fail.
func ParseUpdateTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}

	parser := dps.Parser{}
	cfg := &dps.Configuration{
		PreferredDateSource: dps.CurrentPeriod,
	}
	parsed, err := parser.Parse(cfg, s)
	if err != nil || parsed.IsZero() {
		return time.Time{}
	}
	return parsed.Time
}

func toErrorStatus(entry map[string]any) ErrorStatus {
	return ErrorStatus{
		Scenario:       field(entry, "scenario"),
		Status:         field(entry, "status"),
		Details:        field(entry, "details"),
		LastUpdateTime: field(entry, "lastUpdateTime"),
	}
}

// field reads key, falling back to its capitalised form.
func field(entry map[string]any, key string) string {
	if v, ok := entry[key].(string); ok {
		return v
	}
	v, _ := entry[strings.ToUpper(key[:1])+key[1:]].(string)
	return v
}

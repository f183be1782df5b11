package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/moolen/hac-console/internal/snapshot"
	"github.com/stretchr/testify/assert"
)

// EventuallyOption configures Eventually assertion behavior.
type EventuallyOption struct {
	Timeout  time.Duration
	Interval time.Duration
}

// DefaultEventuallyOption provides sensible defaults for async operations.
var DefaultEventuallyOption = EventuallyOption{
	Timeout:  30 * time.Second,
	Interval: 3 * time.Second,
}

// FastEventuallyOption is used against in-process fakes.
var FastEventuallyOption = EventuallyOption{
	Timeout:  5 * time.Second,
	Interval: 100 * time.Millisecond,
}

// EventuallySnapshotRerunRequested waits until the snapshot carries the
// re-run label for scenario.
func EventuallySnapshotRerunRequested(t *testing.T, client *K8sClient, namespace, name, scenario string, opts EventuallyOption) {
	t.Helper()
	if opts.Timeout == 0 {
		opts = DefaultEventuallyOption
	}

	assert.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), opts.Interval)
		defer cancel()

		obj, err := client.GetSnapshot(ctx, namespace, name)
		if err != nil {
			t.Logf("Snapshot %s/%s not readable yet: %v", namespace, name, err)
			return false
		}
		return obj.GetLabels()[snapshot.BuildRequestLabel] == scenario
	}, opts.Timeout, opts.Interval, "snapshot %s/%s was not labelled for re-run of %q", namespace, name, scenario)
}

package snapshot

import (
	lru "github.com/hashicorp/golang-lru/v2"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const defaultCacheSize = 512

type cachedStatus struct {
	errors  []ErrorStatus
	present bool
}

// StatusCache memoises EnvironmentProvisionErrors per object revision. A
// changed resourceVersion is a new key, so entries never go stale.
type StatusCache struct {
	cache *lru.Cache[string, cachedStatus]
}

// NewStatusCache creates a cache holding up to size revisions. A
// non-positive size uses the default.
func NewStatusCache(size int) (*StatusCache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	c, err := lru.New[string, cachedStatus](size)
	if err != nil {
		return nil, err
	}
	return &StatusCache{cache: c}, nil
}

// EnvironmentProvisionErrors returns the cached extraction for obj, computing
// it on a miss. Objects without a UID are never cached.
func (c *StatusCache) EnvironmentProvisionErrors(obj metav1.Object) ([]ErrorStatus, bool) {
	if obj.GetUID() == "" {
		return EnvironmentProvisionErrors(obj)
	}
	key := string(obj.GetUID()) + "/" + obj.GetResourceVersion()
	if hit, ok := c.cache.Get(key); ok {
		return copyStatuses(hit.errors), hit.present
	}

	errs, present := EnvironmentProvisionErrors(obj)
	c.cache.Add(key, cachedStatus{errors: copyStatuses(errs), present: present})
	return errs, present
}

// Len returns the number of cached revisions.
func (c *StatusCache) Len() int {
	return c.cache.Len()
}

func copyStatuses(in []ErrorStatus) []ErrorStatus {
	if in == nil {
		return nil
	}
	out := make([]ErrorStatus, len(in))
	copy(out, in)
	return out
}

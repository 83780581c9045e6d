package resolve

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// cachedOfflineController wraps a caller-supplied OfflineController with
// a short-TTL expirable LRU cache and singleflight de-duplication. Within
// one resolve batch the same handful of repository ids get re-checked
// once per candidate artifact, and the offline decision for a repository
// is stable for the batch's lifetime — the same shape as the teacher's
// InMemoryCache TTL pattern (kubernetes/controller/internal/resolution/cache.go),
// generalized with singleflight so concurrent first-checks for the same
// repository collapse into a single delegate call rather than racing it.
type cachedOfflineController struct {
	delegate OfflineController
	cache    *lru.LRU[string, bool]
	sf       singleflight.Group
}

const defaultOfflineCheckTTL = 30 * time.Second

func newCachedOfflineController(delegate OfflineController, ttl time.Duration) *cachedOfflineController {
	if ttl <= 0 {
		ttl = defaultOfflineCheckTTL
	}
	return &cachedOfflineController{
		delegate: delegate,
		cache:    lru.NewLRU[string, bool](256, nil, ttl),
	}
}

func (c *cachedOfflineController) CheckOffline(ctx context.Context, session *Session, repo Repository) (bool, error) {
	if offline, ok := c.cache.Get(repo.ID); ok {
		return offline, nil
	}

	v, err, _ := c.sf.Do(repo.ID, func() (any, error) {
		offline, err := c.delegate.CheckOffline(ctx, session, repo)
		if err != nil {
			return false, err
		}
		c.cache.Add(repo.ID, offline)
		return offline, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// OfflineGate wraps an OfflineController for consultation during download
// planning (spec.md §4.2 step 7). A nil controller means offline gating
// is not configured, so nothing is ever reported offline.
type OfflineGate struct {
	controller *cachedOfflineController
}

// NewOfflineGate constructs an OfflineGate, applying the default TTL
// cache in front of controller. A nil controller is valid and means
// "never offline".
func NewOfflineGate(controller OfflineController, ttl time.Duration) *OfflineGate {
	if controller == nil {
		return &OfflineGate{}
	}
	return &OfflineGate{controller: newCachedOfflineController(controller, ttl)}
}

// IsOffline reports whether repo may not be contacted for this session.
func (g *OfflineGate) IsOffline(ctx context.Context, session *Session, repo Repository) (bool, error) {
	if g.controller == nil {
		return false, nil
	}
	return g.controller.CheckOffline(ctx, session, repo)
}

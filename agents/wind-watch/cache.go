package windwatch

import (
	"context"
	"sync"
	"time"

	"neurowind/internal/models"
	"neurowind/shared/monitoring"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// sharedFetchTimeout bounds an upstream request that outlives the caller who
// started it.
const sharedFetchTimeout = time.Minute

// CachedSource keeps successful forecasts per city for a fixed TTL. Concurrent
// misses for the same city share one upstream request. Errors are never cached.
type CachedSource struct {
	source  ForecastSource
	ttl     time.Duration
	size    int
	clock   clockwork.Clock
	metrics *monitoring.Metrics

	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

type cacheEntry struct {
	wind    *models.HourlyWind
	expires time.Time
}

// NewCachedSource wraps source. A size below one keeps a single entry.
func NewCachedSource(source ForecastSource, ttl time.Duration, size int, clock clockwork.Clock, metrics *monitoring.Metrics) *CachedSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if size < 1 {
		size = 1
	}
	return &CachedSource{
		source:  source,
		ttl:     ttl,
		size:    size,
		clock:   clock,
		metrics: metrics,
		entries: make(map[string]cacheEntry),
	}
}

// GetHourlyWind returns the cached forecast for city when still fresh.
// Callers must treat the result as read-only.
func (c *CachedSource) GetHourlyWind(ctx context.Context, city models.City) (*models.HourlyWind, error) {
	if wind, ok := c.lookup(city.Name); ok {
		c.metrics.FetchCache.WithLabelValues("hit").Inc()
		return wind, nil
	}
	c.metrics.FetchCache.WithLabelValues("miss").Inc()

	// The shared fetch is detached from the first caller so that a cancelled
	// request does not fail the others waiting on it.
	ch := c.group.DoChan(city.Name, func() (interface{}, error) {
		if wind, ok := c.lookup(city.Name); ok {
			return wind, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()

		wind, err := c.source.GetHourlyWind(fetchCtx, city)
		if err != nil {
			return nil, err
		}
		c.store(city.Name, wind)
		return wind, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.HourlyWind), nil
	}
}

// Invalidate drops the entry for city.
func (c *CachedSource) Invalidate(city string) {
	c.mu.Lock()
	delete(c.entries, city)
	c.mu.Unlock()
}

func (c *CachedSource) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *CachedSource) lookup(city string) (*models.HourlyWind, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[city]
	if !ok {
		return nil, false
	}
	if !c.clock.Now().Before(e.expires) {
		delete(c.entries, city)
		return nil, false
	}
	return e.wind, true
}

func (c *CachedSource) store(city string, wind *models.HourlyWind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for name, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, name)
		}
	}

	if _, exists := c.entries[city]; !exists && len(c.entries) >= c.size {
		var oldest string
		var oldestExpiry time.Time
		for name, e := range c.entries {
			if oldest == "" || e.expires.Before(oldestExpiry) {
				oldest, oldestExpiry = name, e.expires
			}
		}
		delete(c.entries, oldest)
	}

	c.entries[city] = cacheEntry{wind: wind, expires: now.Add(c.ttl)}
}

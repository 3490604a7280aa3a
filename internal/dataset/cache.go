package dataset

import (
	"context"
	"strconv"
	"sync"
	"time"

	"ctox-dashboard/pkg/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// defaultLoadTimeout bounds one shared load, independent of the request that
// started it
const defaultLoadTimeout = 2 * time.Minute

// Cache holds one classified dataset per identity until it is invalidated.
// Anonymous callers share the app-only dataset; a signed-in caller gets the
// dataset read with their delegated token. Concurrent first requests for the
// same identity share one load.
type Cache struct {
	loader  DatasetLoader
	clock   clockwork.Clock
	log     *zap.Logger
	group   singleflight.Group
	timeout time.Duration

	mu         sync.RWMutex // protects the below fields
	current    map[string]*Dataset
	generation uint64
}

// NewCache creates an empty cache over loader
func NewCache(loader DatasetLoader, clock clockwork.Clock, log *zap.Logger) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		loader:  loader,
		clock:   clock,
		log:     log,
		timeout: defaultLoadTimeout,
		current: make(map[string]*Dataset),
	}
}

// Get returns the cached dataset of the identity attached to ctx, loading it
// on first use. The returned tables are shared and must not be modified.
//
// The load outlives the caller: cancelling ctx does not abort it, and a load
// that hits its own timeout is returned but not cached.
func (c *Cache) Get(ctx context.Context) *Dataset {
	key := models.DelegatedFrom(ctx).Key()

	c.mu.RLock()
	ds, gen := c.current[key], c.generation
	c.mu.RUnlock()
	if ds != nil {
		return ds
	}

	flightKey := strconv.FormatUint(gen, 10) + "/" + key
	v, _, _ := c.group.Do(flightKey, func() (any, error) {
		c.mu.RLock()
		cached := c.current[key]
		c.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		start := c.clock.Now()
		res := c.loader.Load(loadCtx)
		ds := &Dataset{
			Companies: ProcessCompanies(res.Companies),
			Labs:      ProcessLabs(res.Labs),
			Warnings:  res.Warnings,
			Sources:   res.Sources,
			LoadedAt:  c.clock.Now(),
		}

		if loadCtx.Err() != nil {
			c.log.Warn("dataset load timed out, not cached", zap.Error(loadCtx.Err()))
			return ds, nil
		}

		c.mu.Lock()
		if c.generation == gen {
			c.current[key] = ds
		}
		c.mu.Unlock()

		c.log.Info("dataset cached",
			zap.Bool("delegated", key != ""),
			zap.Duration("took", ds.LoadedAt.Sub(start)),
			zap.Int("warnings", len(ds.Warnings)))
		return ds, nil
	})
	return v.(*Dataset)
}

// Invalidate drops every cached dataset; the next Get reloads
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = make(map[string]*Dataset)
	c.generation++
	c.mu.Unlock()
	c.log.Info("dataset cache invalidated")
}

package operations

import (
	"context"
	"strconv"
	"time"

	"github.com/appetiteclub/apt"
	"golang.org/x/sync/singleflight"
)

const defaultBuildTimeout = 30 * time.Second

// Dashboard serves booth boards from the cache, loading through the
// aggregator on a miss. Concurrent loads of one booth share a single
// aggregation, which runs detached from any one caller's context.
type Dashboard struct {
	aggregator   *Aggregator
	cache        *BoardCache
	flight       singleflight.Group
	buildTimeout time.Duration
	logger       apt.Logger
}

func NewDashboard(aggregator *Aggregator, cache *BoardCache, logger apt.Logger) *Dashboard {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Dashboard{
		aggregator:   aggregator,
		cache:        cache,
		buildTimeout: defaultBuildTimeout,
		logger:       logger,
	}
}

// Board returns the booth cards. refresh skips the cache. A caller whose ctx
// ends stops waiting; the shared load keeps going for the others.
func (d *Dashboard) Board(ctx context.Context, boothID int64, refresh bool) ([]Card, error) {
	if !refresh {
		if cards, ok := d.cache.Get(boothID); ok {
			return cards, nil
		}
	}

	key := strconv.FormatInt(boothID, 10)
	ch := d.flight.DoChan(key, func() (interface{}, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.buildTimeout)
		defer cancel()

		gen := d.cache.Generation(boothID)
		board, err := d.aggregator.Build(buildCtx, boothID)
		if err != nil {
			return nil, err
		}
		cards := copyCards(board.Cards)
		if !d.cache.Put(board, gen) {
			d.logger.Debug("board invalidated while loading", "booth_id", boothID)
		}
		return cards, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			d.logger.Debug("board load shared", "booth_id", boothID)
		}
		return copyCards(res.Val.([]Card)), nil
	}
}

func (d *Dashboard) Cache() *BoardCache {
	return d.cache
}

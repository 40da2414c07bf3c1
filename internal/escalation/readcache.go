// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package escalation

import (
	"context"
	"strconv"

	"github.com/tomtom215/dealwatch/internal/cache"
	"github.com/tomtom215/dealwatch/internal/config"
	"github.com/tomtom215/dealwatch/internal/metrics"
	"github.com/tomtom215/dealwatch/internal/pipedrive"
)

// ReadCache holds short-lived copies of deals and their activity titles for
// read paths (dispatch, validation, sweeps). The creation path never
// consults it: existence checks always hit Pipedrive.
type ReadCache struct {
	api    pipedrive.API
	deals  *cache.Cache
	titles *cache.Cache
}

// NewReadCache builds the deal (DealCacheTTL) and activity title
// (ActivityCacheTTL) caches.
func NewReadCache(api pipedrive.API, cfg config.ActivityConfig, clock cache.Clock) *ReadCache {
	return &ReadCache{
		api:    api,
		deals:  cache.New(cfg.DealCacheTTL, cache.WithClock(clock)),
		titles: cache.New(cfg.ActivityCacheTTL, cache.WithClock(clock)),
	}
}

func cacheKey(dealID int64) string {
	return strconv.FormatInt(dealID, 10)
}

// Deal returns the deal, from cache when fresh.
func (r *ReadCache) Deal(ctx context.Context, dealID int64) (*pipedrive.Deal, error) {
	key := cacheKey(dealID)
	if v, ok := r.deals.Get(key); ok {
		metrics.RecordCacheLookup("deal", true)
		return v.(*pipedrive.Deal), nil
	}
	metrics.RecordCacheLookup("deal", false)

	deal, err := r.api.GetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	r.deals.Set(key, deal)
	return deal, nil
}

// Titles returns the subjects of the deal's activities, from cache when fresh.
func (r *ReadCache) Titles(ctx context.Context, dealID int64) ([]string, error) {
	key := cacheKey(dealID)
	if v, ok := r.titles.Get(key); ok {
		metrics.RecordCacheLookup("activity_titles", true)
		return v.([]string), nil
	}
	metrics.RecordCacheLookup("activity_titles", false)

	activities, err := r.api.ListActivities(ctx, dealID)
	if err != nil {
		return nil, err
	}
	titles := subjects(activities)
	r.titles.Set(key, titles)
	return titles, nil
}

// Invalidate drops both cached views of a deal.
func (r *ReadCache) Invalidate(dealID int64) {
	key := cacheKey(dealID)
	r.deals.Delete(key)
	r.titles.Delete(key)
}

// Stores exposes the caches to the periodic sweeper.
func (r *ReadCache) Stores() []cache.Sweepable {
	return []cache.Sweepable{r.deals, r.titles}
}

func subjects(activities []pipedrive.Activity) []string {
	out := make([]string, 0, len(activities))
	for _, a := range activities {
		if a.Subject != "" {
			out = append(out, a.Subject)
		}
	}
	return out
}

func titleSet(titles []string) map[string]struct{} {
	set := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		set[t] = struct{}{}
	}
	return set
}

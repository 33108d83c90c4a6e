// Package advisor implements the gap-day reuse advisory: before an
// outfit is scheduled, it checks each member item's recent wear history
// and produces a warning the user can override.
//
// The advisory is strictly best-effort. A wear-history lookup failure
// is logged and treated as no conflict, because blocking a scheduling
// action on an unavailable advisory would invert the feature's
// priority. Evaluate never returns an error.
package advisor

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wardrobeapp/wearcal/internal/closet"
	"github.com/wardrobeapp/wearcal/internal/models"
)

// AffectedItem describes one wardrobe item flagged by the advisory.
type AffectedItem struct {
	Item      models.WardrobeItem `json:"item"`
	LastWorn  time.Time           `json:"last_worn"`
	WornDates []time.Time         `json:"worn_dates"`
	TimesWorn int                 `json:"times_worn"`
}

// Verdict is the advisory outcome. Warn=false means the schedule can
// proceed; Warn=true means the caller must ask the user to confirm.
type Verdict struct {
	Warn          bool           `json:"warn"`
	WindowDays    int            `json:"window_days"`
	AffectedItems []AffectedItem `json:"affected_items,omitempty"`
}

// Clear is the pass verdict for the given window.
func Clear(windowDays int) Verdict {
	return Verdict{WindowDays: windowDays}
}

// Advisor evaluates outfits against per-item wear history.
type Advisor struct {
	store  closet.Store
	logger *slog.Logger
}

// New creates an Advisor reading wear history from the given store.
func New(store closet.Store, logger *slog.Logger) *Advisor {
	return &Advisor{store: store, logger: logger}
}

// Evaluate checks every item of every outfit against the candidate
// date. Outfits are checked concurrently; the verdict unions the
// flagged items across outfits, de-duplicated by item ID. An item
// appears once no matter how many selected outfits contain it.
func (a *Advisor) Evaluate(ctx context.Context, userID string, outfits []models.Outfit, date time.Time, windowDays int) Verdict {
	if len(outfits) == 0 || windowDays <= 0 {
		return Clear(windowDays)
	}

	var (
		mu      sync.Mutex
		flagged []AffectedItem
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, outfit := range outfits {
		g.Go(func() error {
			items, err := a.checkOutfit(gctx, userID, outfit, date, windowDays)
			if err != nil {
				// Fail open: the advisory must never block scheduling.
				a.logger.Warn("gap-day check failed, skipping outfit",
					"outfit_id", outfit.ID, "date", models.DateOnly(date), "error", err)
				return nil
			}
			mu.Lock()
			flagged = append(flagged, items...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // branches never return errors

	return buildVerdict(flagged, windowDays)
}

// checkOutfit runs the wear-history query for each item of one outfit.
// The first failing lookup aborts the outfit; partial results from a
// half-checked outfit would under-report conflicts inconsistently.
func (a *Advisor) checkOutfit(ctx context.Context, userID string, outfit models.Outfit, date time.Time, windowDays int) ([]AffectedItem, error) {
	var flagged []AffectedItem
	for _, item := range outfit.Items {
		recency, err := a.store.WearHistory(ctx, userID, item.ID, date, windowDays)
		if err != nil {
			return nil, err
		}
		if recency.WithinWindow && recency.TimesWorn > 0 {
			flagged = append(flagged, AffectedItem{
				Item:      item,
				LastWorn:  recency.LastWorn(),
				WornDates: recency.WornDates,
				TimesWorn: recency.TimesWorn,
			})
		}
	}
	return flagged, nil
}

// buildVerdict de-duplicates flagged items by item ID and orders them
// deterministically so the same conflicts always render the same way.
func buildVerdict(flagged []AffectedItem, windowDays int) Verdict {
	if len(flagged) == 0 {
		return Clear(windowDays)
	}

	byID := make(map[string]AffectedItem, len(flagged))
	for _, f := range flagged {
		if _, ok := byID[f.Item.ID]; !ok {
			byID[f.Item.ID] = f
		}
	}

	items := make([]AffectedItem, 0, len(byID))
	for _, f := range byID {
		items = append(items, f)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Item.ID < items[j].Item.ID })

	return Verdict{Warn: true, WindowDays: windowDays, AffectedItems: items}
}

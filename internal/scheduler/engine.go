// Package scheduler is the calendar scheduling engine: it validates
// add/edit/delete requests against the calendar invariants, runs the
// gap-day advisory gate, and commits through the closet facade. All
// validation happens locally before any remote call, and nothing is
// mutated locally until the commit succeeds.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/wardrobeapp/wearcal/internal/advisor"
	"github.com/wardrobeapp/wearcal/internal/closet"
	"github.com/wardrobeapp/wearcal/internal/models"
)

// Engine orchestrates calendar writes.
type Engine struct {
	store   closet.Store
	advisor *advisor.Advisor
	logger  *slog.Logger

	// now is read at request time, never cached from an earlier render:
	// a plan opened before midnight and submitted after must re-validate.
	now func() time.Time
}

// New creates an Engine on top of the given store and advisor.
func New(store closet.Store, adv *advisor.Advisor, logger *slog.Logger) *Engine {
	return &Engine{store: store, advisor: adv, logger: logger, now: time.Now}
}

// AddRequest asks for one or more outfits to be bound to a date.
// Exactly one of OccasionID or Daily must be set; Date is required in
// daily mode. Confirmed skips the advisory gate and is set by the
// caller after the user overrides a warning.
type AddRequest struct {
	OutfitIDs  []string
	OccasionID string
	Daily      bool
	Date       time.Time
	WindowDays int
	Confirmed  bool
}

// AddResult is the outcome of AddOutfits. When Advisory is non-nil the
// operation was suspended awaiting user confirmation and no entry was
// created; the caller re-issues the request with Confirmed=true to
// proceed, or drops it to cancel. Nothing is pending inside the engine
// between the two calls.
type AddResult struct {
	Entry    *models.CalendarEntry
	Advisory *advisor.Verdict
}

// AddOutfits runs the add-outfit state machine: validate, guard against
// past dates, consult the gap-day advisor, then commit a single entry
// covering every requested outfit.
func (e *Engine) AddOutfits(ctx context.Context, userID string, req AddRequest) (AddResult, error) {
	if len(req.OutfitIDs) == 0 {
		return AddResult{}, &ValidationError{Field: "outfit_ids", Reason: "at least one outfit is required"}
	}
	if req.Daily == (req.OccasionID != "") {
		return AddResult{}, &ValidationError{Field: "binding", Reason: "exactly one of occasion_id or daily must be set"}
	}

	date := models.DateOnly(req.Date)
	if req.Daily {
		if req.Date.IsZero() {
			return AddResult{}, &ValidationError{Field: "date", Reason: "daily mode requires a date"}
		}
	} else {
		occ, err := e.store.GetOccasion(ctx, userID, req.OccasionID)
		if err != nil {
			return AddResult{}, fmt.Errorf("resolving occasion: %w", err)
		}
		date = models.DateOnly(occ.Date)
	}

	if err := e.guardDate(date); err != nil {
		return AddResult{}, err
	}

	if !req.Confirmed {
		verdict := e.advise(ctx, userID, req.OutfitIDs, date, req.WindowDays)
		if verdict.Warn {
			return AddResult{Advisory: &verdict}, nil
		}
	}

	entry, err := e.store.CreateEntry(ctx, userID, closet.CreateEntryRequest{
		OutfitIDs:  req.OutfitIDs,
		OccasionID: req.OccasionID,
		Daily:      req.Daily,
		Date:       date,
	})
	if err != nil {
		return AddResult{}, fmt.Errorf("creating entry: %w", err)
	}

	e.logger.Info("scheduled outfits",
		"entry_id", entry.ID, "daily", req.Daily, "date", date.Format(time.DateOnly), "outfits", len(req.OutfitIDs))
	return AddResult{Entry: &entry}, nil
}

// Advise runs a gap-day check without scheduling anything. It carries
// the advisor's fail-open policy: lookup failures yield a clear verdict.
func (e *Engine) Advise(ctx context.Context, userID string, outfitIDs []string, date time.Time, windowDays int) advisor.Verdict {
	return e.advise(ctx, userID, outfitIDs, date, windowDays)
}

func (e *Engine) advise(ctx context.Context, userID string, outfitIDs []string, date time.Time, windowDays int) advisor.Verdict {
	outfits, err := e.store.ListOutfits(ctx, userID, closet.OutfitFilter{IDs: outfitIDs})
	if err != nil {
		// Fail open, same as a wear-history failure inside the advisor.
		e.logger.Warn("outfit lookup for advisory failed, proceeding without check", "error", err)
		return advisor.Clear(windowDays)
	}
	return e.advisor.Evaluate(ctx, userID, outfits, date, windowDays)
}

// EntryEdit is a partial edit of an existing entry. Nil means "leave
// unchanged"; a non-nil OutfitIDs replaces the outfit binding.
type EntryEdit struct {
	OccasionID *string
	Daily      *bool
	OutfitIDs  []string
	UsedAt     *time.Time
}

// UpdateEntry diffs the edit against the stored entry and transmits
// only the fields that actually changed. An edit that changes nothing
// is a successful no-op and makes no write call. A date change is
// re-validated against today's date.
func (e *Engine) UpdateEntry(ctx context.Context, userID, id string, edit EntryEdit) error {
	current, err := e.store.GetEntry(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("loading entry: %w", err)
	}

	daily := current.Daily
	if edit.Daily != nil {
		daily = *edit.Daily
	}
	occasionID := current.OccasionID
	if edit.OccasionID != nil {
		occasionID = *edit.OccasionID
	}
	// Rebinding must land in a valid state. Daily entries keep their
	// store-resolved placeholder occasion, so both set is only invalid
	// when the caller supplied the occasion explicitly.
	if daily && edit.OccasionID != nil && occasionID != "" {
		return &ValidationError{Field: "binding", Reason: "a daily entry cannot be bound to an occasion"}
	}
	if !daily && occasionID == "" {
		return &ValidationError{Field: "binding", Reason: "a non-daily entry requires an occasion"}
	}

	var patch closet.EntryPatch
	if edit.Daily != nil && *edit.Daily != current.Daily {
		patch.Daily = edit.Daily
	}
	if edit.OccasionID != nil && *edit.OccasionID != current.OccasionID {
		patch.OccasionID = edit.OccasionID
	}
	if edit.OutfitIDs != nil && !slices.Equal(edit.OutfitIDs, current.OutfitIDs) {
		ids := append([]string(nil), edit.OutfitIDs...)
		patch.OutfitIDs = &ids
	}
	if edit.UsedAt != nil {
		newDate := models.DateOnly(*edit.UsedAt)
		if !models.SameDay(newDate, current.UsedAt) {
			if err := e.guardDate(newDate); err != nil {
				return err
			}
			patch.UsedAt = &newDate
		}
	}

	if patch.Empty() {
		return nil
	}
	if err := e.store.UpdateEntry(ctx, userID, id, patch); err != nil {
		return fmt.Errorf("updating entry: %w", err)
	}
	return nil
}

// DeleteEntry unlinks one entry. Sibling entries and the owning
// occasion are untouched, as are the outfits themselves.
func (e *Engine) DeleteEntry(ctx context.Context, userID, id string) error {
	if err := e.store.DeleteEntry(ctx, userID, id); err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	return nil
}

// CreateOccasion creates a user-defined occasion. The reserved Daily
// name is rejected before any remote call, as is a past date.
func (e *Engine) CreateOccasion(ctx context.Context, userID string, fields closet.OccasionFields) (models.Occasion, error) {
	if err := validateOccasionName(fields.Name); err != nil {
		return models.Occasion{}, err
	}
	if err := e.guardDate(fields.Date); err != nil {
		return models.Occasion{}, err
	}
	occ, err := e.store.CreateOccasion(ctx, userID, fields)
	if err != nil {
		return models.Occasion{}, fmt.Errorf("creating occasion: %w", err)
	}
	return occ, nil
}

// UpdateOccasion edits an occasion. The reserved-name rule applies to
// edits too; the past-date guard does not, so existing occasions can be
// corrected after the fact.
func (e *Engine) UpdateOccasion(ctx context.Context, userID, id string, fields closet.OccasionFields) error {
	if err := validateOccasionName(fields.Name); err != nil {
		return err
	}
	if err := e.store.UpdateOccasion(ctx, userID, id, fields); err != nil {
		return fmt.Errorf("updating occasion: %w", err)
	}
	return nil
}

// DeleteOccasion removes an occasion; the store cascades the delete to
// every entry bound to it.
func (e *Engine) DeleteOccasion(ctx context.Context, userID, id string) error {
	if err := e.store.DeleteOccasion(ctx, userID, id); err != nil {
		return fmt.Errorf("deleting occasion: %w", err)
	}
	return nil
}

// guardDate rejects dates strictly before today. The comparison is
// date-only: scheduling for today is fine at 23:59.
func (e *Engine) guardDate(date time.Time) error {
	today := models.DateOnly(e.now())
	if models.DateOnly(date).Before(today) {
		return fmt.Errorf("%w: %s", ErrPastDate, models.DateOnly(date).Format(time.DateOnly))
	}
	return nil
}

func validateOccasionName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Reason: "name is required"}
	}
	if models.IsReservedOccasionName(name) {
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("%q is reserved for the system daily occasion", models.DailyOccasionName)}
	}
	return nil
}

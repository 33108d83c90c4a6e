// Package closet is the facade over the remote wardrobe service. The
// scheduling core only ever talks to the Store interface; the concrete
// transport lives in RESTStore and the test double in MockStore.
package closet

import (
	"context"
	"errors"
	"time"

	"github.com/wardrobeapp/wearcal/internal/models"
)

// ErrNotFound is returned when the requested occasion, entry, or outfit
// does not exist for the given user.
var ErrNotFound = errors.New("not found")

// CreateEntryRequest carries everything needed to bind outfits to a
// date. Exactly one of OccasionID or Daily must be set; the scheduler
// validates this before the request reaches a Store.
//
// In daily mode the store resolves the Daily placeholder occasion by
// find-or-create, keyed by (user, date, reserved name, no type), so a
// day never ends up with two placeholders.
type CreateEntryRequest struct {
	OutfitIDs  []string  `json:"outfit_ids"`
	OccasionID string    `json:"occasion_id,omitempty"`
	Daily      bool      `json:"daily,omitempty"`
	Date       time.Time `json:"date,omitempty"` // required in daily mode
}

// EntryPatch is a partial update to a calendar entry. Nil fields are
// left untouched; the scheduler only populates fields that differ from
// the current entry.
type EntryPatch struct {
	OccasionID *string    `json:"occasion_id,omitempty"`
	Daily      *bool      `json:"daily,omitempty"`
	OutfitIDs  *[]string  `json:"outfit_ids,omitempty"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p EntryPatch) Empty() bool {
	return p.OccasionID == nil && p.Daily == nil && p.OutfitIDs == nil && p.UsedAt == nil
}

// OccasionFields is the writable subset of an occasion.
type OccasionFields struct {
	OccasionTypeID string    `json:"occasion_type_id,omitempty"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Date           time.Time `json:"date"`
	StartTime      time.Time `json:"start_time,omitempty"`
	EndTime        time.Time `json:"end_time,omitempty"`
}

// OutfitFilter narrows ListOutfits results.
type OutfitFilter struct {
	IDs          []string `json:"ids,omitempty"`
	FavoriteOnly bool     `json:"favorite_only,omitempty"`
}

// Store defines the wardrobe-service operations the scheduling core
// depends on. Every call is scoped to a user so reserved-occasion
// lookups never cross account boundaries.
type Store interface {
	// ListOccasions returns the user's occasions whose date falls in the period.
	ListOccasions(ctx context.Context, userID string, period models.Period) ([]models.Occasion, error)

	// GetOccasion retrieves a single occasion by ID.
	GetOccasion(ctx context.Context, userID, id string) (models.Occasion, error)

	// ListEntries returns the user's calendar entries whose effective
	// date falls in the period.
	ListEntries(ctx context.Context, userID string, period models.Period) ([]models.CalendarEntry, error)

	// GetEntry retrieves a single calendar entry by ID.
	GetEntry(ctx context.Context, userID, id string) (models.CalendarEntry, error)

	// CreateEntry creates one entry covering all outfit IDs in the
	// request. Deletion of its parent occasion cascades to it.
	CreateEntry(ctx context.Context, userID string, req CreateEntryRequest) (models.CalendarEntry, error)

	// UpdateEntry applies a partial update to an entry.
	UpdateEntry(ctx context.Context, userID, id string, patch EntryPatch) error

	// DeleteEntry removes a single entry. The outfits it referenced are
	// untouched.
	DeleteEntry(ctx context.Context, userID, id string) error

	// CreateOccasion creates a user-defined occasion.
	CreateOccasion(ctx context.Context, userID string, fields OccasionFields) (models.Occasion, error)

	// UpdateOccasion applies new field values to an occasion.
	UpdateOccasion(ctx context.Context, userID, id string, fields OccasionFields) error

	// DeleteOccasion removes an occasion and cascades to every entry
	// bound to it.
	DeleteOccasion(ctx context.Context, userID, id string) error

	// WearHistory reports when the item was worn within windowDays
	// before the given date, inclusive.
	WearHistory(ctx context.Context, userID, itemID string, date time.Time, windowDays int) (models.WearRecency, error)

	// ListOutfits returns outfit and item metadata. Read-only.
	ListOutfits(ctx context.Context, userID string, filter OutfitFilter) ([]models.Outfit, error)

	// Close cleans up resources.
	Close() error
}

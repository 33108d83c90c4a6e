package closet

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wardrobeapp/wearcal/internal/models"
	"github.com/wardrobeapp/wearcal/internal/wearhist"
)

// MockStore is an in-memory implementation of Store for testing. It
// reproduces the wardrobe backend's server-side behavior the core
// relies on: occasion deletion cascades to entries, daily entries
// find-or-create the Daily placeholder, and wear history is derived
// from entries through outfit membership.
type MockStore struct {
	mu        sync.RWMutex
	occasions map[string]models.Occasion      // id -> occasion
	entries   map[string]models.CalendarEntry // id -> entry
	outfits   map[string]models.Outfit        // id -> outfit
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		occasions: make(map[string]models.Occasion),
		entries:   make(map[string]models.CalendarEntry),
		outfits:   make(map[string]models.Outfit),
	}
}

// SeedOutfit adds an outfit to the store. Test setup helper.
func (m *MockStore) SeedOutfit(o models.Outfit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outfits[o.ID] = o
}

func (m *MockStore) ListOccasions(_ context.Context, userID string, period models.Period) ([]models.Occasion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Occasion
	for _, o := range m.occasions {
		if o.UserID == userID && period.Contains(o.Date) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockStore) GetOccasion(_ context.Context, userID, id string) (models.Occasion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	occ, ok := m.occasions[id]
	if !ok || occ.UserID != userID {
		return models.Occasion{}, fmt.Errorf("%w: occasion %s", ErrNotFound, id)
	}
	return occ, nil
}

func (m *MockStore) GetEntry(_ context.Context, userID, id string) (models.CalendarEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok || e.UserID != userID {
		return models.CalendarEntry{}, fmt.Errorf("%w: entry %s", ErrNotFound, id)
	}
	return copyEntry(e), nil
}

func (m *MockStore) ListEntries(_ context.Context, userID string, period models.Period) ([]models.CalendarEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.CalendarEntry
	for _, e := range m.entries {
		if e.UserID == userID && period.Contains(e.UsedAt) {
			out = append(out, copyEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockStore) CreateEntry(_ context.Context, userID string, req CreateEntryRequest) (models.CalendarEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	entry := models.CalendarEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Daily:     req.Daily,
		OutfitIDs: append([]string(nil), req.OutfitIDs...),
		CreatedAt: now,
	}

	switch {
	case req.Daily:
		// Find-or-create the Daily placeholder for (user, date).
		placeholder, ok := m.findDailyLocked(userID, req.Date)
		if !ok {
			placeholder = models.Occasion{
				ID:        uuid.NewString(),
				UserID:    userID,
				Name:      models.DailyOccasionName,
				Date:      models.DateOnly(req.Date),
				CreatedAt: now,
				UpdatedAt: now,
			}
			m.occasions[placeholder.ID] = placeholder
		}
		entry.OccasionID = placeholder.ID
		entry.UsedAt = models.DateOnly(req.Date)
	default:
		occ, ok := m.occasions[req.OccasionID]
		if !ok || occ.UserID != userID {
			return models.CalendarEntry{}, fmt.Errorf("%w: occasion %s", ErrNotFound, req.OccasionID)
		}
		entry.OccasionID = occ.ID
		entry.UsedAt = models.DateOnly(occ.Date)
	}

	m.entries[entry.ID] = copyEntry(entry)
	return entry, nil
}

func (m *MockStore) UpdateEntry(_ context.Context, userID, id string, patch EntryPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok || e.UserID != userID {
		return fmt.Errorf("%w: entry %s", ErrNotFound, id)
	}
	if patch.OccasionID != nil {
		e.OccasionID = *patch.OccasionID
	}
	if patch.Daily != nil {
		e.Daily = *patch.Daily
	}
	if patch.OutfitIDs != nil {
		e.OutfitIDs = append([]string(nil), (*patch.OutfitIDs)...)
	}
	if patch.UsedAt != nil {
		e.UsedAt = models.DateOnly(*patch.UsedAt)
	}
	m.entries[id] = e
	return nil
}

func (m *MockStore) DeleteEntry(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok || e.UserID != userID {
		return fmt.Errorf("%w: entry %s", ErrNotFound, id)
	}
	delete(m.entries, id)
	return nil
}

func (m *MockStore) CreateOccasion(_ context.Context, userID string, fields OccasionFields) (models.Occasion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	occ := models.Occasion{
		ID:             uuid.NewString(),
		UserID:         userID,
		OccasionTypeID: fields.OccasionTypeID,
		Name:           fields.Name,
		Description:    fields.Description,
		Date:           models.DateOnly(fields.Date),
		StartTime:      fields.StartTime,
		EndTime:        fields.EndTime,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.occasions[occ.ID] = occ
	return occ, nil
}

func (m *MockStore) UpdateOccasion(_ context.Context, userID, id string, fields OccasionFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	occ, ok := m.occasions[id]
	if !ok || occ.UserID != userID {
		return fmt.Errorf("%w: occasion %s", ErrNotFound, id)
	}
	occ.OccasionTypeID = fields.OccasionTypeID
	occ.Name = fields.Name
	occ.Description = fields.Description
	occ.Date = models.DateOnly(fields.Date)
	occ.StartTime = fields.StartTime
	occ.EndTime = fields.EndTime
	occ.UpdatedAt = time.Now().UTC()
	m.occasions[id] = occ
	return nil
}

// DeleteOccasion removes the occasion and cascades to every entry bound
// to it, matching the remote service's behavior.
func (m *MockStore) DeleteOccasion(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	occ, ok := m.occasions[id]
	if !ok || occ.UserID != userID {
		return fmt.Errorf("%w: occasion %s", ErrNotFound, id)
	}
	delete(m.occasions, id)
	for eid, e := range m.entries {
		if e.OccasionID == id {
			delete(m.entries, eid)
		}
	}
	return nil
}

// WearHistory derives the item's worn dates from calendar entries whose
// outfits contain the item, then runs the recent-wear scan.
func (m *MockStore) WearHistory(_ context.Context, userID, itemID string, date time.Time, windowDays int) (models.WearRecency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var worn []time.Time
	for _, e := range m.entries {
		if e.UserID != userID {
			continue
		}
		for _, outfitID := range e.OutfitIDs {
			if outfit, ok := m.outfits[outfitID]; ok && outfitContains(outfit, itemID) {
				worn = append(worn, e.UsedAt)
				break
			}
		}
	}
	return wearhist.FindRecentWear(worn, date, windowDays), nil
}

func (m *MockStore) ListOutfits(_ context.Context, userID string, filter OutfitFilter) ([]models.Outfit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[string]struct{}, len(filter.IDs))
	for _, id := range filter.IDs {
		wanted[id] = struct{}{}
	}

	var out []models.Outfit
	for _, o := range m.outfits {
		if o.UserID != userID {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[o.ID]; !ok {
				continue
			}
		}
		if filter.FavoriteOnly && !o.Favorite {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}

// --- helpers ---

func (m *MockStore) findDailyLocked(userID string, date time.Time) (models.Occasion, bool) {
	for _, o := range m.occasions {
		if o.UserID == userID && o.IsDailyPlaceholder() && models.SameDay(o.Date, date) {
			return o, true
		}
	}
	return models.Occasion{}, false
}

func outfitContains(o models.Outfit, itemID string) bool {
	for _, item := range o.Items {
		if item.ID == itemID {
			return true
		}
	}
	return false
}

// copyEntry deep-copies the outfit ID slice so callers cannot mutate
// stored data.
func copyEntry(e models.CalendarEntry) models.CalendarEntry {
	e.OutfitIDs = append([]string(nil), e.OutfitIDs...)
	return e
}

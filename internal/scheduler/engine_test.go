package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardrobeapp/wearcal/internal/advisor"
	"github.com/wardrobeapp/wearcal/internal/closet"
	"github.com/wardrobeapp/wearcal/internal/models"
)

const testUser = "user-1"

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// newTestEngine builds an engine over a mock store with the clock
// pinned to 2024-06-15 23:50 — late enough to prove same-day adds are
// accepted regardless of time-of-day.
func newTestEngine(st closet.Store) *Engine {
	logger := slog.Default()
	e := New(st, advisor.New(st, logger), logger)
	e.now = func() time.Time {
		return time.Date(2024, 6, 15, 23, 50, 0, 0, time.UTC)
	}
	return e
}

func seedOutfit(st *closet.MockStore, id string, itemIDs ...string) models.Outfit {
	o := models.Outfit{ID: id, UserID: testUser, Name: "outfit " + id}
	for _, itemID := range itemIDs {
		o.Items = append(o.Items, models.WardrobeItem{ID: itemID, Name: "item " + itemID})
	}
	st.SeedOutfit(o)
	return o
}

// TestAddOutfits_RejectsPastDate verifies the temporal guard: any date
// strictly before today fails with ErrPastDate, while today passes even
// minutes before midnight.
func TestAddOutfits_RejectsPastDate(t *testing.T) {
	st := closet.NewMockStore()
	seedOutfit(st, "o1", "A")
	engine := newTestEngine(st)

	_, err := engine.AddOutfits(context.Background(), testUser, AddRequest{
		OutfitIDs: []string{"o1"}, Daily: true, Date: day("2024-06-14"),
	})
	require.ErrorIs(t, err, ErrPastDate)

	result, err := engine.AddOutfits(context.Background(), testUser, AddRequest{
		OutfitIDs: []string{"o1"}, Daily: true, Date: day("2024-06-15"),
	})
	require.NoError(t, err)
	require.NotNil(t, result.Entry)
	assert.True(t, models.SameDay(result.Entry.UsedAt, day("2024-06-15")))
}

// TestAddOutfits_BindingExclusivity verifies that supplying both an
// occasion and the daily flag, or neither, is a validation error.
func TestAddOutfits_BindingExclusivity(t *testing.T) {
	st := closet.NewMockStore()
	engine := newTestEngine(st)

	_, err := engine.AddOutfits(context.Background(), testUser, AddRequest{
		OutfitIDs: []string{"o1"}, Daily: true, OccasionID: "occ-1", Date: day("2024-06-16"),
	})
	assert.True(t, IsValidation(err), "both bindings must be rejected")

	_, err = engine.AddOutfits(context.Background(), testUser, AddRequest{
		OutfitIDs: []string{"o1"}, Date: day("2024-06-16"),
	})
	assert.True(t, IsValidation(err), "neither binding must be rejected")

	_, err = engine.AddOutfits(context.Background(), testUser, AddRequest{
		Daily: true, Date: day("2024-06-16"),
	})
	assert.True(t, IsValidation(err), "an empty outfit selection must be rejected")
}

// TestAddOutfits_DailyFindOrCreate verifies that two daily adds on the
// same date share one Daily placeholder occasion.
func TestAddOutfits_DailyFindOrCreate(t *testing.T) {
	st := closet.NewMockStore()
	seedOutfit(st, "o1", "A")
	seedOutfit(st, "o2", "B")
	engine := newTestEngine(st)
	ctx := context.Background()

	first, err := engine.AddOutfits(ctx, testUser, AddRequest{
		OutfitIDs: []string{"o1"}, Daily: true, Date: day("2024-06-16"), Confirmed: true,
	})
	require.NoError(t, err)
	second, err := engine.AddOutfits(ctx, testUser, AddRequest{
		OutfitIDs: []string{"o2"}, Daily: true, Date: day("2024-06-16"), Confirmed: true,
	})
	require.NoError(t, err)

	assert.Equal(t, first.Entry.OccasionID, second.Entry.OccasionID, "same day must reuse the placeholder")

	period := models.Period{Start: day("2024-06-16"), End: day("2024-06-16")}
	occasions, err := st.ListOccasions(ctx, testUser, period)
	require.NoError(t, err)
	require.Len(t, occasions, 1)
	assert.True(t, occasions[0].IsDailyPlaceholder())
}

// TestAddOutfits_AdvisorySuspendsUntilConfirmed verifies the advisory
// gate: a flagged add returns the verdict without creating anything,
// and the same request with Confirmed=true commits.
func TestAddOutfits_AdvisorySuspendsUntilConfirmed(t *testing.T) {
	st := closet.NewMockStore()
	seedOutfit(st, "o1", "A", "B")
	ctx := context.Background()

	// Worn yesterday, directly through the store (the engine would
	// refuse the past date).
	_, err := st.CreateEntry(ctx, testUser, closet.CreateEntryRequest{
		OutfitIDs: []string{"o1"}, Daily: true, Date: day("2024-06-14"),
	})
	require.NoError(t, err)

	engine := newTestEngine(st)
	req := AddRequest{OutfitIDs: []string{"o1"}, Daily: true, Date: day("2024-06-16"), WindowDays: 2}

	result, err := engine.AddOutfits(ctx, testUser, req)
	require.NoError(t, err)
	require.NotNil(t, result.Advisory, "recent wear must suspend the add")
	assert.Nil(t, result.Entry)
	assert.True(t, result.Advisory.Warn)
	assert.Len(t, result.Advisory.AffectedItems, 2)

	// Nothing was committed while suspended.
	period := models.Period{Start: day("2024-06-16"), End: day("2024-06-16")}
	entries, err := st.ListEntries(ctx, testUser, period)
	require.NoError(t, err)
	assert.Empty(t, entries)

	req.Confirmed = true
	result, err = engine.AddOutfits(ctx, testUser, req)
	require.NoError(t, err)
	require.NotNil(t, result.Entry)
	assert.Nil(t, result.Advisory)
}

// TestAddOutfits_OccasionDateDrivesGuard verifies that an occasion-bound
// add takes its candidate date from the occasion itself.
func TestAddOutfits_OccasionDateDrivesGuard(t *testing.T) {
	st := closet.NewMockStore()
	seedOutfit(st, "o1", "A")
	ctx := context.Background()

	past, err := st.CreateOccasion(ctx, testUser, closet.OccasionFields{Name: "Gallery opening", Date: day("2024-06-01")})
	require.NoError(t, err)
	future, err := st.CreateOccasion(ctx, testUser, closet.OccasionFields{Name: "Dinner", Date: day("2024-06-20")})
	require.NoError(t, err)

	engine := newTestEngine(st)

	_, err = engine.AddOutfits(ctx, testUser, AddRequest{OutfitIDs: []string{"o1"}, OccasionID: past.ID, Confirmed: true})
	require.ErrorIs(t, err, ErrPastDate)

	result, err := engine.AddOutfits(ctx, testUser, AddRequest{OutfitIDs: []string{"o1"}, OccasionID: future.ID, Confirmed: true})
	require.NoError(t, err)
	assert.True(t, models.SameDay(result.Entry.UsedAt, day("2024-06-20")))
}

// spyStore counts write calls so tests can prove local validation fires
// before any remote call is made.
type spyStore struct {
	*closet.MockStore
	createOccasionCalls int
	updateEntryCalls    int
}

func (s *spyStore) CreateOccasion(ctx context.Context, userID string, fields closet.OccasionFields) (models.Occasion, error) {
	s.createOccasionCalls++
	return s.MockStore.CreateOccasion(ctx, userID, fields)
}

func (s *spyStore) UpdateEntry(ctx context.Context, userID, id string, patch closet.EntryPatch) error {
	s.updateEntryCalls++
	return s.MockStore.UpdateEntry(ctx, userID, id, patch)
}

// TestCreateOccasion_RejectsReservedName verifies every casing of the
// reserved name fails validation without reaching the store.
func TestCreateOccasion_RejectsReservedName(t *testing.T) {
	spy := &spyStore{MockStore: closet.NewMockStore()}
	engine := newTestEngine(spy)

	for _, name := range []string{"daily", "Daily", "DAILY", "  Daily  "} {
		_, err := engine.CreateOccasion(context.Background(), testUser, closet.OccasionFields{
			Name: name, Date: day("2024-06-16"),
		})
		assert.True(t, IsValidation(err), "name %q must be rejected", name)
	}
	assert.Zero(t, spy.createOccasionCalls, "validation must fire before any remote call")
}

// TestCreateOccasion_PastDate verifies new occasions cannot target a
// prior date.
func TestCreateOccasion_PastDate(t *testing.T) {
	engine := newTestEngine(closet.NewMockStore())
	_, err := engine.CreateOccasion(context.Background(), testUser, closet.OccasionFields{
		Name: "Vernissage", Date: day("2024-06-10"),
	})
	require.ErrorIs(t, err, ErrPastDate)
}

// TestUpdateEntry_NoopEdit verifies an edit that changes nothing closes
// successfully without a write call.
func TestUpdateEntry_NoopEdit(t *testing.T) {
	spy := &spyStore{MockStore: closet.NewMockStore()}
	ctx := context.Background()

	entry, err := spy.CreateEntry(ctx, testUser, closet.CreateEntryRequest{
		OutfitIDs: []string{"o1"}, Daily: true, Date: day("2024-06-16"),
	})
	require.NoError(t, err)

	engine := newTestEngine(spy)
	sameIDs := []string{"o1"}
	sameDate := entry.UsedAt
	err = engine.UpdateEntry(ctx, testUser, entry.ID, EntryEdit{OutfitIDs: sameIDs, UsedAt: &sameDate})
	require.NoError(t, err)
	assert.Zero(t, spy.updateEntryCalls, "an unchanged edit must not hit the store")
}

// TestUpdateEntry_DiffsChangedFields verifies only differing fields are
// transmitted and a date change re-runs the temporal guard.
func TestUpdateEntry_DiffsChangedFields(t *testing.T) {
	st := closet.NewMockStore()
	ctx := context.Background()

	entry, err := st.CreateEntry(ctx, testUser, closet.CreateEntryRequest{
		OutfitIDs: []string{"o1"}, Daily: true, Date: day("2024-06-16"),
	})
	require.NoError(t, err)

	engine := newTestEngine(st)

	past := day("2024-06-01")
	err = engine.UpdateEntry(ctx, testUser, entry.ID, EntryEdit{UsedAt: &past})
	require.ErrorIs(t, err, ErrPastDate)

	moved := day("2024-06-18")
	err = engine.UpdateEntry(ctx, testUser, entry.ID, EntryEdit{OutfitIDs: []string{"o2"}, UsedAt: &moved})
	require.NoError(t, err)

	got, err := st.GetEntry(ctx, testUser, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"o2"}, got.OutfitIDs)
	assert.True(t, models.SameDay(got.UsedAt, moved))
}

// TestUpdateEntry_MissingEntry verifies edits to unknown entries surface
// the store's not-found error.
func TestUpdateEntry_MissingEntry(t *testing.T) {
	engine := newTestEngine(closet.NewMockStore())
	err := engine.UpdateEntry(context.Background(), testUser, "nope", EntryEdit{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, closet.ErrNotFound))
}

// TestDeleteOccasion_CascadesEntries verifies deleting an occasion with
// two entries removes both, while deleting one entry directly leaves
// its sibling and the occasion intact.
func TestDeleteOccasion_CascadesEntries(t *testing.T) {
	st := closet.NewMockStore()
	ctx := context.Background()

	occ, err := st.CreateOccasion(ctx, testUser, closet.OccasionFields{Name: "Wedding", Date: day("2024-06-20")})
	require.NoError(t, err)
	e1, err := st.CreateEntry(ctx, testUser, closet.CreateEntryRequest{OutfitIDs: []string{"o1"}, OccasionID: occ.ID})
	require.NoError(t, err)
	_, err = st.CreateEntry(ctx, testUser, closet.CreateEntryRequest{OutfitIDs: []string{"o2"}, OccasionID: occ.ID})
	require.NoError(t, err)

	engine := newTestEngine(st)
	period := models.Period{Start: day("2024-06-20"), End: day("2024-06-20")}

	// Deleting one entry keeps the sibling and the occasion.
	require.NoError(t, engine.DeleteEntry(ctx, testUser, e1.ID))
	entries, err := st.ListEntries(ctx, testUser, period)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	_, err = st.GetOccasion(ctx, testUser, occ.ID)
	require.NoError(t, err)

	// Deleting the occasion removes the remaining entry too.
	require.NoError(t, engine.DeleteOccasion(ctx, testUser, occ.ID))
	entries, err = st.ListEntries(ctx, testUser, period)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestAdvise_FailsOpenOnOutfitLookup verifies the dry-run advisory
// degrades to clear when outfit metadata cannot be fetched.
func TestAdvise_FailsOpenOnOutfitLookup(t *testing.T) {
	st := &failingOutfitStore{MockStore: closet.NewMockStore()}
	engine := newTestEngine(st)

	verdict := engine.Advise(context.Background(), testUser, []string{"o1"}, day("2024-06-16"), 2)
	assert.False(t, verdict.Warn)
}

type failingOutfitStore struct {
	*closet.MockStore
}

func (f *failingOutfitStore) ListOutfits(context.Context, string, closet.OutfitFilter) ([]models.Outfit, error) {
	return nil, errors.New("wardrobe service unavailable")
}

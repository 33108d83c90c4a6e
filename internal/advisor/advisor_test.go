package advisor

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

// seedWorn records that the outfit was worn on the given date by
// creating a daily entry directly in the store.
func seedWorn(t *testing.T, st *closet.MockStore, outfitID string, date time.Time) {
	t.Helper()
	_, err := st.CreateEntry(context.Background(), testUser, closet.CreateEntryRequest{
		OutfitIDs: []string{outfitID},
		Daily:     true,
		Date:      date,
	})
	require.NoError(t, err)
}

func outfitWithItems(id string, itemIDs ...string) models.Outfit {
	o := models.Outfit{ID: id, UserID: testUser, Name: "outfit " + id}
	for _, itemID := range itemIDs {
		o.Items = append(o.Items, models.WardrobeItem{ID: itemID, Name: "item " + itemID})
	}
	return o
}

// TestEvaluate_WarnsOnRecentWear covers the canonical case: an outfit
// with items A and B worn on 2024-01-10 is flagged for candidate date
// 2024-01-11 with a 2-day window, and both items carry the worn date.
func TestEvaluate_WarnsOnRecentWear(t *testing.T) {
	st := closet.NewMockStore()
	outfit := outfitWithItems("o1", "A", "B")
	st.SeedOutfit(outfit)
	seedWorn(t, st, "o1", day("2024-01-10"))

	adv := New(st, slog.Default())
	verdict := adv.Evaluate(context.Background(), testUser, []models.Outfit{outfit}, day("2024-01-11"), 2)

	require.True(t, verdict.Warn)
	require.Len(t, verdict.AffectedItems, 2)
	assert.Equal(t, "A", verdict.AffectedItems[0].Item.ID)
	assert.Equal(t, "B", verdict.AffectedItems[1].Item.ID)
	for _, item := range verdict.AffectedItems {
		assert.Equal(t, []time.Time{day("2024-01-10")}, item.WornDates)
		assert.Equal(t, day("2024-01-10"), item.LastWorn)
		assert.Equal(t, 1, item.TimesWorn)
	}
}

// TestEvaluate_ClearOutsideWindow verifies the same wear history is
// clear once the candidate date moves past the window.
func TestEvaluate_ClearOutsideWindow(t *testing.T) {
	st := closet.NewMockStore()
	outfit := outfitWithItems("o1", "A", "B")
	st.SeedOutfit(outfit)
	seedWorn(t, st, "o1", day("2024-01-10"))

	adv := New(st, slog.Default())
	verdict := adv.Evaluate(context.Background(), testUser, []models.Outfit{outfit}, day("2024-01-14"), 2)

	assert.False(t, verdict.Warn)
	assert.Empty(t, verdict.AffectedItems)
}

// TestEvaluate_BatchDeduplicatesSharedItems verifies that an item
// belonging to two selected outfits appears once in the batch verdict.
func TestEvaluate_BatchDeduplicatesSharedItems(t *testing.T) {
	st := closet.NewMockStore()
	o1 := outfitWithItems("o1", "shared", "x")
	o2 := outfitWithItems("o2", "shared", "y")
	st.SeedOutfit(o1)
	st.SeedOutfit(o2)
	seedWorn(t, st, "o1", day("2024-03-01"))
	seedWorn(t, st, "o2", day("2024-03-01"))

	adv := New(st, slog.Default())
	verdict := adv.Evaluate(context.Background(), testUser, []models.Outfit{o1, o2}, day("2024-03-02"), 2)

	require.True(t, verdict.Warn)
	ids := make(map[string]int)
	for _, item := range verdict.AffectedItems {
		ids[item.Item.ID]++
	}
	assert.Equal(t, 1, ids["shared"], "shared item must appear exactly once")
	assert.Equal(t, 1, ids["x"])
	assert.Equal(t, 1, ids["y"])
}

// failingWearStore wraps the mock store and fails every wear-history
// lookup, simulating a broken remote collaborator.
type failingWearStore struct {
	*closet.MockStore
}

func (f *failingWearStore) WearHistory(context.Context, string, string, time.Time, int) (models.WearRecency, error) {
	return models.WearRecency{}, errors.New("wardrobe service unavailable")
}

// TestEvaluate_FailsOpenOnLookupError verifies the fail-open policy:
// when wear-history lookups fail, the verdict is Clear and no error
// escapes, so the scheduling action is never blocked.
func TestEvaluate_FailsOpenOnLookupError(t *testing.T) {
	st := &failingWearStore{MockStore: closet.NewMockStore()}
	outfit := outfitWithItems("o1", "A")

	adv := New(st, slog.Default())
	verdict := adv.Evaluate(context.Background(), testUser, []models.Outfit{outfit}, day("2024-01-11"), 2)

	assert.False(t, verdict.Warn)
	assert.Empty(t, verdict.AffectedItems)
}

// partialFailStore fails lookups for one outfit's items only, so the
// batch join must still report conflicts from the healthy branch.
type partialFailStore struct {
	*closet.MockStore
	failItem string
}

func (p *partialFailStore) WearHistory(ctx context.Context, userID, itemID string, date time.Time, windowDays int) (models.WearRecency, error) {
	if itemID == p.failItem {
		return models.WearRecency{}, errors.New("wardrobe service unavailable")
	}
	return p.MockStore.WearHistory(ctx, userID, itemID, date, windowDays)
}

// TestEvaluate_PartialBranchFailureKeepsOtherResults verifies that one
// failing branch of a batch check does not discard the union built from
// the branches that succeeded.
func TestEvaluate_PartialBranchFailureKeepsOtherResults(t *testing.T) {
	mock := closet.NewMockStore()
	healthy := outfitWithItems("o1", "A")
	broken := outfitWithItems("o2", "Z")
	mock.SeedOutfit(healthy)
	mock.SeedOutfit(broken)
	st := &partialFailStore{MockStore: mock, failItem: "Z"}

	ctx := context.Background()
	seedWorn(t, mock, "o1", day("2024-05-01"))

	adv := New(st, slog.Default())
	verdict := adv.Evaluate(ctx, testUser, []models.Outfit{healthy, broken}, day("2024-05-02"), 2)

	require.True(t, verdict.Warn)
	require.Len(t, verdict.AffectedItems, 1)
	assert.Equal(t, "A", verdict.AffectedItems[0].Item.ID)
}

// TestEvaluate_NoOutfits verifies an empty selection is trivially clear.
func TestEvaluate_NoOutfits(t *testing.T) {
	adv := New(closet.NewMockStore(), slog.Default())
	verdict := adv.Evaluate(context.Background(), testUser, nil, day("2024-01-11"), 2)
	assert.False(t, verdict.Warn)
	assert.Equal(t, 2, verdict.WindowDays)
}

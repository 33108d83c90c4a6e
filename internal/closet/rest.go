package closet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wardrobeapp/wearcal/internal/models"
)

// RESTStore implements Store against the wardrobe backend's HTTP API.
type RESTStore struct {
	baseURL   string
	authToken string
	client    *http.Client
	logger    *slog.Logger
}

// NewRESTStore creates a Store backed by the wardrobe service at baseURL.
func NewRESTStore(baseURL, authToken string, logger *slog.Logger) *RESTStore {
	return &RESTStore{
		baseURL:   baseURL,
		authToken: authToken,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

// doJSON issues a request with a JSON body (may be nil) and decodes the
// JSON response into out (may be nil). A 404 maps to ErrNotFound so
// callers can use errors.Is across transports.
func (r *RESTStore) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	u := r.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.authToken)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling wardrobe API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("wardrobe API returned %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func periodQuery(period models.Period) url.Values {
	q := url.Values{}
	q.Set("from", models.DateOnly(period.Start).Format(time.DateOnly))
	q.Set("to", models.DateOnly(period.End).Format(time.DateOnly))
	return q
}

func (r *RESTStore) ListOccasions(ctx context.Context, userID string, period models.Period) ([]models.Occasion, error) {
	var out struct {
		Occasions []models.Occasion `json:"occasions"`
	}
	path := "/v1/users/" + url.PathEscape(userID) + "/occasions"
	if err := r.doJSON(ctx, http.MethodGet, path, periodQuery(period), nil, &out); err != nil {
		return nil, fmt.Errorf("listing occasions: %w", err)
	}
	return out.Occasions, nil
}

func (r *RESTStore) GetOccasion(ctx context.Context, userID, id string) (models.Occasion, error) {
	var out models.Occasion
	path := "/v1/users/" + url.PathEscape(userID) + "/occasions/" + url.PathEscape(id)
	if err := r.doJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return models.Occasion{}, fmt.Errorf("getting occasion %s: %w", id, err)
	}
	return out, nil
}

func (r *RESTStore) GetEntry(ctx context.Context, userID, id string) (models.CalendarEntry, error) {
	var out models.CalendarEntry
	path := "/v1/users/" + url.PathEscape(userID) + "/calendar-entries/" + url.PathEscape(id)
	if err := r.doJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return models.CalendarEntry{}, fmt.Errorf("getting entry %s: %w", id, err)
	}
	return out, nil
}

func (r *RESTStore) ListEntries(ctx context.Context, userID string, period models.Period) ([]models.CalendarEntry, error) {
	var out struct {
		Entries []models.CalendarEntry `json:"entries"`
	}
	path := "/v1/users/" + url.PathEscape(userID) + "/calendar-entries"
	if err := r.doJSON(ctx, http.MethodGet, path, periodQuery(period), nil, &out); err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return out.Entries, nil
}

func (r *RESTStore) CreateEntry(ctx context.Context, userID string, req CreateEntryRequest) (models.CalendarEntry, error) {
	var out models.CalendarEntry
	path := "/v1/users/" + url.PathEscape(userID) + "/calendar-entries"
	if err := r.doJSON(ctx, http.MethodPost, path, nil, req, &out); err != nil {
		return models.CalendarEntry{}, fmt.Errorf("creating entry: %w", err)
	}
	r.logger.Debug("created calendar entry", "entry_id", out.ID, "daily", req.Daily, "outfits", len(req.OutfitIDs))
	return out, nil
}

func (r *RESTStore) UpdateEntry(ctx context.Context, userID, id string, patch EntryPatch) error {
	path := "/v1/users/" + url.PathEscape(userID) + "/calendar-entries/" + url.PathEscape(id)
	if err := r.doJSON(ctx, http.MethodPatch, path, nil, patch, nil); err != nil {
		return fmt.Errorf("updating entry %s: %w", id, err)
	}
	return nil
}

func (r *RESTStore) DeleteEntry(ctx context.Context, userID, id string) error {
	path := "/v1/users/" + url.PathEscape(userID) + "/calendar-entries/" + url.PathEscape(id)
	if err := r.doJSON(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("deleting entry %s: %w", id, err)
	}
	return nil
}

func (r *RESTStore) CreateOccasion(ctx context.Context, userID string, fields OccasionFields) (models.Occasion, error) {
	var out models.Occasion
	path := "/v1/users/" + url.PathEscape(userID) + "/occasions"
	if err := r.doJSON(ctx, http.MethodPost, path, nil, fields, &out); err != nil {
		return models.Occasion{}, fmt.Errorf("creating occasion: %w", err)
	}
	return out, nil
}

func (r *RESTStore) UpdateOccasion(ctx context.Context, userID, id string, fields OccasionFields) error {
	path := "/v1/users/" + url.PathEscape(userID) + "/occasions/" + url.PathEscape(id)
	if err := r.doJSON(ctx, http.MethodPatch, path, nil, fields, nil); err != nil {
		return fmt.Errorf("updating occasion %s: %w", id, err)
	}
	return nil
}

func (r *RESTStore) DeleteOccasion(ctx context.Context, userID, id string) error {
	path := "/v1/users/" + url.PathEscape(userID) + "/occasions/" + url.PathEscape(id)
	if err := r.doJSON(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("deleting occasion %s: %w", id, err)
	}
	return nil
}

func (r *RESTStore) WearHistory(ctx context.Context, userID, itemID string, date time.Time, windowDays int) (models.WearRecency, error) {
	q := url.Values{}
	q.Set("date", models.DateOnly(date).Format(time.DateOnly))
	q.Set("window_days", strconv.Itoa(windowDays))
	var out models.WearRecency
	path := "/v1/users/" + url.PathEscape(userID) + "/items/" + url.PathEscape(itemID) + "/wear-history"
	if err := r.doJSON(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return models.WearRecency{}, fmt.Errorf("checking wear history for item %s: %w", itemID, err)
	}
	return out, nil
}

func (r *RESTStore) ListOutfits(ctx context.Context, userID string, filter OutfitFilter) ([]models.Outfit, error) {
	q := url.Values{}
	for _, id := range filter.IDs {
		q.Add("id", id)
	}
	if filter.FavoriteOnly {
		q.Set("favorite", "true")
	}
	var out struct {
		Outfits []models.Outfit `json:"outfits"`
	}
	path := "/v1/users/" + url.PathEscape(userID) + "/outfits"
	if err := r.doJSON(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return nil, fmt.Errorf("listing outfits: %w", err)
	}
	return out.Outfits, nil
}

// Close is a no-op; the HTTP client holds no persistent resources.
func (r *RESTStore) Close() error {
	return nil
}

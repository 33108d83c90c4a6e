package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/wardrobeapp/wearcal/internal/advisor"
	"github.com/wardrobeapp/wearcal/internal/calendar"
	"github.com/wardrobeapp/wearcal/internal/closet"
	"github.com/wardrobeapp/wearcal/internal/ics"
	"github.com/wardrobeapp/wearcal/internal/models"
	"github.com/wardrobeapp/wearcal/internal/scheduler"
)

// Server is the HTTP surface the presentation layer talks to. It wraps
// the scheduling engine and period aggregator; it never reaches around
// them to the wardrobe store except for the read-only listings the
// calendar views need.
type Server struct {
	engine       *scheduler.Engine
	store        closet.Store
	logger       *slog.Logger
	authToken    string // empty = no auth required
	gapWindow    int
	visibleLimit int
}

// NewServer creates a Server with the given dependencies.
func NewServer(engine *scheduler.Engine, store closet.Store, logger *slog.Logger, authToken string, gapWindow, visibleLimit int) *Server {
	return &Server{
		engine:       engine,
		store:        store,
		logger:       logger,
		authToken:    authToken,
		gapWindow:    gapWindow,
		visibleLimit: visibleLimit,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check — no auth required.
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("POST /v1/entries", s.auth(s.handleAddEntry))
	mux.HandleFunc("PATCH /v1/entries/{id}", s.auth(s.handleUpdateEntry))
	mux.HandleFunc("DELETE /v1/entries/{id}", s.auth(s.handleDeleteEntry))

	mux.HandleFunc("POST /v1/occasions", s.auth(s.handleCreateOccasion))
	mux.HandleFunc("PATCH /v1/occasions/{id}", s.auth(s.handleUpdateOccasion))
	mux.HandleFunc("DELETE /v1/occasions/{id}", s.auth(s.handleDeleteOccasion))

	mux.HandleFunc("GET /v1/calendar", s.auth(s.handleCalendar))
	mux.HandleFunc("GET /v1/calendar.ics", s.auth(s.handleCalendarICS))
	mux.HandleFunc("POST /v1/advisor/check", s.auth(s.handleAdvisorCheck))

	return mux
}

// --- middleware ---

// auth wraps a handler with Bearer token authentication when authToken is set.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// userID resolves the acting user from the X-User-ID header. Every
// wardrobe call is user-scoped, so this is mandatory.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// --- handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// addEntryRequest is the body accepted by POST /v1/entries.
type addEntryRequest struct {
	OutfitIDs  []string `json:"outfit_ids"`
	OccasionID string   `json:"occasion_id"`
	Daily      bool     `json:"daily"`
	Date       string   `json:"date"` // YYYY-MM-DD, daily mode only
	WindowDays int      `json:"window_days"`
	Confirmed  bool     `json:"confirmed"`
}

// addEntryResponse is returned by POST /v1/entries. Exactly one of
// Entry or Advisory is set: Advisory means the add was suspended and
// must be re-issued with confirmed=true to proceed.
type addEntryResponse struct {
	Entry    *models.CalendarEntry `json:"entry,omitempty"`
	Advisory *advisor.Verdict      `json:"advisory,omitempty"`
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		s.writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req addEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	window := req.WindowDays
	if window <= 0 {
		window = s.gapWindow
	}

	result, err := s.engine.AddOutfits(r.Context(), user, scheduler.AddRequest{
		OutfitIDs:  req.OutfitIDs,
		OccasionID: req.OccasionID,
		Daily:      req.Daily,
		Date:       date,
		WindowDays: window,
		Confirmed:  req.Confirmed,
	})
	if err != nil {
		s.writeEngineError(w, err, "failed to schedule outfits")
		return
	}

	if result.Advisory != nil {
		// Suspended awaiting user confirmation; nothing was created.
		s.writeJSON(w, http.StatusConflict, addEntryResponse{Advisory: result.Advisory})
		return
	}
	s.writeJSON(w, http.StatusCreated, addEntryResponse{Entry: result.Entry})
}

// updateEntryRequest is the body accepted by PATCH /v1/entries/{id}.
type updateEntryRequest struct {
	OccasionID *string  `json:"occasion_id"`
	Daily      *bool    `json:"daily"`
	OutfitIDs  []string `json:"outfit_ids"`
	Date       *string  `json:"date"` // YYYY-MM-DD
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		s.writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}
	id := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	edit := scheduler.EntryEdit{
		OccasionID: req.OccasionID,
		Daily:      req.Daily,
		OutfitIDs:  req.OutfitIDs,
	}
	if req.Date != nil {
		parsed, err := time.Parse(time.DateOnly, *req.Date)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		edit.UsedAt = &parsed
	}

	if err := s.engine.UpdateEntry(r.Context(), user, id, edit); err != nil {
		s.writeEngineError(w, err, "failed to update entry")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		s.writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}
	if err := s.engine.DeleteEntry(r.Context(), user, r.PathValue("id")); err != nil {
		s.writeEngineError(w, err, "failed to delete entry")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// occasionRequest is the body for occasion create and update.
type occasionRequest struct {
	OccasionTypeID string `json:"occasion_type_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Date           string `json:"date"` // YYYY-MM-DD
	StartTime      string `json:"start_time,omitempty"`
	EndTime        string `json:"end_time,omitempty"`
}

func (req occasionRequest) fields() (closet.OccasionFields, error) {
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		return closet.OccasionFields{}, errors.New("date must be YYYY-MM-DD")
	}
	f := closet.OccasionFields{
		OccasionTypeID: req.OccasionTypeID,
		Name:           req.Name,
		Description:    req.Description,
		Date:           date,
	}
	if req.StartTime != "" {
		t, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			return closet.OccasionFields{}, errors.New("start_time must be RFC 3339")
		}
		f.StartTime = t
	}
	if req.EndTime != "" {
		t, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			return closet.OccasionFields{}, errors.New("end_time must be RFC 3339")
		}
		f.EndTime = t
	}
	return f, nil
}

func (s *Server) handleCreateOccasion(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		s.writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req occasionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fields, err := req.fields()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	occ, err := s.engine.CreateOccasion(r.Context(), user, fields)
	if err != nil {
		s.writeEngineError(w, err, "failed to create occasion")
		return
	}
	s.writeJSON(w, http.StatusCreated, occ)
}

func (s *Server) handleUpdateOccasion(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		s.writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req occasionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fields, err := req.fields()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.engine.UpdateOccasion(r.Context(), user, r.PathValue("id"), fields); err != nil {
		s.writeEngineError(w, err, "failed to update occasion")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (s *Server) handleDeleteOccasion(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		s.writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}
	if err := s.engine.DeleteOccasion(r.Context(), user, r.PathValue("id")); err != nil {
		s.writeEngineError(w, err, "failed to delete occasion")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// calendarResponse is returned by GET /v1/calendar: day summaries
// sorted by date ascending.
type calendarResponse struct {
	Days []*calendar.DaySummary `json:"days"`
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		s.writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}

	days, ok := s.aggregate(w, r, user)
	if !ok {
		return
	}

	sorted := make([]*calendar.DaySummary, 0, len(days))
	for _, d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	s.writeJSON(w, http.StatusOK, calendarResponse{Days: sorted})
}

func (s *Server) handleCalendarICS(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		s.writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}

	days, ok := s.aggregate(w, r, user)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	if _, err := w.Write([]byte(ics.Export(days))); err != nil {
		s.logger.Error("failed to write ics response", "error", err)
	}
}

// aggregate parses the from/to query range, fetches the period's data,
// and buckets it. Writes the error response itself on failure.
func (s *Server) aggregate(w http.ResponseWriter, r *http.Request, user string) (map[time.Time]*calendar.DaySummary, bool) {
	period, err := parsePeriod(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	occasions, err := s.store.ListOccasions(r.Context(), user, period)
	if err != nil {
		s.logger.Error("failed to list occasions", "error", err)
		s.writeError(w, http.StatusBadGateway, "failed to load occasions")
		return nil, false
	}
	entries, err := s.store.ListEntries(r.Context(), user, period)
	if err != nil {
		s.logger.Error("failed to list entries", "error", err)
		s.writeError(w, http.StatusBadGateway, "failed to load entries")
		return nil, false
	}

	return calendar.BucketByDay(entries, occasions, period, s.visibleLimit), true
}

func parsePeriod(r *http.Request) (models.Period, error) {
	from, err := time.Parse(time.DateOnly, r.URL.Query().Get("from"))
	if err != nil {
		return models.Period{}, errors.New("from must be YYYY-MM-DD")
	}
	to, err := time.Parse(time.DateOnly, r.URL.Query().Get("to"))
	if err != nil {
		return models.Period{}, errors.New("to must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return models.Period{}, errors.New("to must not precede from")
	}
	return models.Period{Start: from, End: to}, nil
}

// checkRequest is the body accepted by POST /v1/advisor/check.
type checkRequest struct {
	OutfitIDs  []string `json:"outfit_ids"`
	Date       string   `json:"date"` // YYYY-MM-DD
	WindowDays int      `json:"window_days"`
}

func (s *Server) handleAdvisorCheck(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		s.writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.OutfitIDs) == 0 {
		s.writeError(w, http.StatusBadRequest, "outfit_ids is required")
		return
	}
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	window := req.WindowDays
	if window <= 0 {
		window = s.gapWindow
	}

	verdict := s.engine.Advise(r.Context(), user, req.OutfitIDs, date, window)
	s.writeJSON(w, http.StatusOK, verdict)
}

// --- helpers ---

// writeEngineError maps the scheduler's error taxonomy onto HTTP
// status codes. Commit failures surface as 502 so the caller can show
// a retryable failure; the engine itself never retries.
func (s *Server) writeEngineError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, scheduler.ErrPastDate):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case scheduler.IsValidation(err):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, closet.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error(msg, "error", err)
		s.writeError(w, http.StatusBadGateway, msg)
	}
}

// writeJSON encodes v as JSON and writes it to w with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		s.logger.Error("failed to encode response", "error", encErr)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Shutdown gracefully shuts down an http.Server with the given timeout.
// This is a convenience helper used by the serve command.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mealsnap/mealsnap/backend"
	"github.com/mealsnap/mealsnap/nutrition"
	"github.com/mealsnap/mealsnap/thumbnail"
)

const maxPhotoBytes = 10 << 20

func readPhoto(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		return nil, fmt.Errorf("parsing form: %w", err)
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		return nil, fmt.Errorf("no photo in request: %w", err)
	}
	defer file.Close()

	return io.ReadAll(io.LimitReader(file, maxPhotoBytes))
}

// formEstimate picks up user-corrected values from the form. Returns nil
// when the form carries no correction and the photo should go through the
// vision model instead.
func formEstimate(r *http.Request) (*nutrition.Estimate, error) {
	if r.FormValue("calories") == "" {
		return nil, nil
	}

	e := nutrition.Estimate{
		Label: r.FormValue("label"),
		// the user said so
		Confidence: 1,
	}

	fields := []struct {
		name string
		dst  *float64
	}{
		{"calories", &e.Calories},
		{"protein_g", &e.ProteinG},
		{"carbs_g", &e.CarbsG},
		{"fat_g", &e.FatG},
	}
	for _, f := range fields {
		v := r.FormValue(f.name)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("bad %s value %q", f.name, v)
		}
		*f.dst = parsed
	}

	e.Clamp()
	return &e, nil
}

func (s *Server) estimateFor(ctx context.Context, r *http.Request, thumb []byte) (nutrition.Estimate, error) {
	override, err := formEstimate(r)
	if err != nil {
		return nutrition.Estimate{}, err
	}
	if override != nil {
		return *override, nil
	}
	return s.vision.Analyze(ctx, thumb)
}

// persistMeal runs the write half of the pipeline: remote save with its
// rpc/table fallback, the outbox when even that fails, and the event feed
// on success.
func (s *Server) persistMeal(w http.ResponseWriter, r *http.Request, store *backend.Store, meal nutrition.Meal) {
	path, err := store.SaveMeal(r.Context(), meal)
	if err != nil {
		s.l.Error("remote save failed, queueing meal", "user", meal.UserID, "error", err)
		if qerr := s.outbox.Enqueue(meal); qerr != nil {
			s.l.Error("failed to queue meal", "error", qerr)
			writeError(w, "failed to save meal", http.StatusInternalServerError)
			return
		}
		writeStatusJSON(w, http.StatusAccepted, map[string]any{"status": "queued", "meal": meal})
		return
	}

	s.events.Broadcast(MealEvent{Type: "meal.saved", Path: string(path), Meal: meal})
	writeJSON(w, map[string]any{"status": "saved", "path": path, "meal": meal})
}

// AnalyzeMeal is the preview step: estimate only, nothing persisted.
func (s *Server) AnalyzeMeal(w http.ResponseWriter, r *http.Request) {
	photo, err := readPhoto(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	thumb, err := thumbnail.Make(photo)
	if err != nil {
		writeError(w, "not a readable image", http.StatusUnprocessableEntity)
		return
	}

	estimate, err := s.vision.Analyze(r.Context(), thumb)
	if err != nil {
		s.l.Error("vision analysis failed", "error", err)
		writeError(w, "analysis failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, estimate)
}

func (s *Server) SaveMeal(w http.ResponseWriter, r *http.Request) {
	userID := s.auth.GetUserID(r)

	client, err := s.auth.AuthorizedClient(r)
	if err != nil {
		writeError(w, "not logged in", http.StatusUnauthorized)
		return
	}
	store := backend.NewStore(client)

	photo, err := readPhoto(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	thumb, err := thumbnail.Make(photo)
	if err != nil {
		writeError(w, "not a readable image", http.StatusUnprocessableEntity)
		return
	}

	estimate, err := s.estimateFor(r.Context(), r, thumb)
	if err != nil {
		s.l.Error("vision analysis failed", "error", err)
		writeError(w, "analysis failed", http.StatusBadGateway)
		return
	}

	thumbURL, err := store.UploadThumbnail(r.Context(), userID, thumb)
	if err != nil {
		// a meal without its picture is still worth logging
		s.l.Error("thumbnail upload failed", "user", userID, "error", err)
	}

	meal := nutrition.FromEstimate(userID, estimate)
	meal.ThumbURL = thumbURL
	meal.CreatedAt = time.Now().UTC()

	s.persistMeal(w, r, store, meal)
}

func (s *Server) ListMeals(w http.ResponseWriter, r *http.Request) {
	userID := s.auth.GetUserID(r)

	client, err := s.auth.AuthorizedClient(r)
	if err != nil {
		writeError(w, "not logged in", http.StatusUnauthorized)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 100 {
			writeError(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	meals, err := backend.NewStore(client).RecentMeals(r.Context(), userID, limit)
	if err != nil {
		s.l.Error("listing meals", "user", userID, "error", err)
		writeError(w, "failed to list meals", http.StatusBadGateway)
		return
	}

	writeJSON(w, meals)
}

func (s *Server) TodayTotals(w http.ResponseWriter, r *http.Request) {
	userID := s.auth.GetUserID(r)

	client, err := s.auth.AuthorizedClient(r)
	if err != nil {
		writeError(w, "not logged in", http.StatusUnauthorized)
		return
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	meals, err := backend.NewStore(client).MealsSince(r.Context(), userID, startOfDay)
	if err != nil {
		s.l.Error("listing meals for totals", "user", userID, "error", err)
		writeError(w, "failed to compute totals", http.StatusBadGateway)
		return
	}

	writeJSON(w, nutrition.DailyTotals(meals, now))
}

func (s *Server) DeleteMeal(w http.ResponseWriter, r *http.Request) {
	userID := s.auth.GetUserID(r)
	mealID := chi.URLParam(r, "id")

	client, err := s.auth.AuthorizedClient(r)
	if err != nil {
		writeError(w, "not logged in", http.StatusUnauthorized)
		return
	}

	if err := backend.NewStore(client).DeleteMeal(r.Context(), userID, mealID); err != nil {
		s.l.Error("deleting meal", "meal", mealID, "error", err)
		writeError(w, "failed to delete meal", http.StatusBadGateway)
		return
	}

	writeMsg(w, "deleted")
}

// FlushOutbox retries queued meals in order, stopping at the first one
// that still fails.
func (s *Server) FlushOutbox(w http.ResponseWriter, r *http.Request) {
	userID := s.auth.GetUserID(r)

	client, err := s.auth.AuthorizedClient(r)
	if err != nil {
		writeError(w, "not logged in", http.StatusUnauthorized)
		return
	}
	store := backend.NewStore(client)

	pending, err := s.outbox.PendingFor(userID)
	if err != nil {
		s.l.Error("reading outbox", "error", err)
		writeError(w, "failed to read outbox", http.StatusInternalServerError)
		return
	}

	flushed := 0
	for _, p := range pending {
		if _, err := store.SaveMeal(r.Context(), p.Meal); err != nil {
			s.l.Error("flushing queued meal", "id", p.ID, "error", err)
			break
		}
		if err := s.outbox.Remove(p.ID); err != nil {
			s.l.Error("removing flushed meal", "id", p.ID, "error", err)
			break
		}
		flushed++
	}

	writeJSON(w, map[string]int{"flushed": flushed, "remaining": len(pending) - flushed})
}

// Ingest is the device upload path: no cookie session, the token pair
// rides in headers and the request is HMAC-signed.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	accessToken := r.Header.Get("X-Access-Token")
	refreshToken := r.Header.Get("X-Refresh-Token")
	userID := r.Header.Get("X-User-Id")
	if accessToken == "" || userID == "" {
		writeError(w, "missing device credentials", http.StatusUnauthorized)
		return
	}

	client, err := backend.New(s.cfg.Supabase.URL, s.cfg.Supabase.AnonKey)
	if err != nil {
		s.l.Error("creating backend client", "error", err)
		writeError(w, "backend unavailable", http.StatusBadGateway)
		return
	}
	backend.SyncSession(backend.SessionFromTokens(accessToken, refreshToken), client)
	store := backend.NewStore(client)

	photo, err := readPhoto(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	thumb, err := thumbnail.Make(photo)
	if err != nil {
		writeError(w, "not a readable image", http.StatusUnprocessableEntity)
		return
	}

	estimate, err := s.estimateFor(r.Context(), r, thumb)
	if err != nil {
		s.l.Error("vision analysis failed", "error", err)
		writeError(w, "analysis failed", http.StatusBadGateway)
		return
	}

	thumbURL, err := store.UploadThumbnail(r.Context(), userID, thumb)
	if err != nil {
		s.l.Error("thumbnail upload failed", "user", userID, "error", err)
	}

	meal := nutrition.FromEstimate(userID, estimate)
	meal.ThumbURL = thumbURL
	meal.CreatedAt = time.Now().UTC()

	s.persistMeal(w, r, store, meal)
}

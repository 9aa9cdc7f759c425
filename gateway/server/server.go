package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mealsnap/mealsnap/gateway"
	"github.com/mealsnap/mealsnap/gateway/auth"
	"github.com/mealsnap/mealsnap/gateway/db"
	"github.com/mealsnap/mealsnap/vision"
)

type Server struct {
	cfg    *gateway.Config
	auth   *auth.Auth
	outbox *db.DB
	vision *vision.Analyzer
	events *EventHub
	l      *slog.Logger
}

func Make(cfg *gateway.Config, l *slog.Logger) (*Server, error) {
	outbox, err := db.Make(cfg.OutboxPath)
	if err != nil {
		return nil, err
	}

	a, err := auth.Make(cfg)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:    cfg,
		auth:   a,
		outbox: outbox,
		vision: vision.New(cfg.Vision.APIKey, cfg.Vision.Model, cfg.Vision.BaseURL),
		events: NewEventHub(),
		l:      l,
	}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeMsg(w, "ok")
	})

	r.Post("/login", s.Login)
	r.Post("/logout", s.Logout)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s))
		r.Post("/api/meals/analyze", s.AnalyzeMeal)
		r.Post("/api/meals", s.SaveMeal)
		r.Get("/api/meals", s.ListMeals)
		r.Get("/api/meals/today", s.TodayTotals)
		r.Delete("/api/meals/{id}", s.DeleteMeal)
		r.Post("/api/outbox/flush", s.FlushOutbox)
		r.Get("/events", s.events.Handle)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.VerifySignature)
		r.Post("/ingest", s.Ingest)
	})

	return r
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email := r.FormValue("email")
	password := r.FormValue("password")
	if email == "" || password == "" {
		writeError(w, "email and password required", http.StatusBadRequest)
		return
	}

	session, err := s.auth.CreateInitialSession(ctx, email, password)
	if err != nil {
		s.l.Error("creating initial session", "error", err)
		writeError(w, "invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := s.auth.StoreSession(r, w, session); err != nil {
		s.l.Error("storing session", "error", err)
		writeError(w, "failed to store session", http.StatusInternalServerError)
		return
	}

	s.l.Info("successfully saved session", "user", session.User.ID, "email", session.User.Email)
	writeJSON(w, map[string]string{
		"user_id": session.User.ID.String(),
		"email":   session.User.Email,
	})
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.ClearSession(r, w); err != nil {
		s.l.Error("clearing session", "error", err)
		writeError(w, "failed to clear session", http.StatusInternalServerError)
		return
	}
	writeMsg(w, "logged out")
}

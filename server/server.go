// Package server exposes the scheduling domain over REST for the companion
// display client: caller lookup, slot browsing, appointment management,
// summary history, and room join tokens.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/wrenvoice/voice-scheduler/pkg/livekit"
	"github.com/wrenvoice/voice-scheduler/scheduler"
)

type Config struct {
	Addr            string        `split_words:"true" default:":8080"`
	ReadTimeout     time.Duration `split_words:"true" default:"10s"`
	WriteTimeout    time.Duration `split_words:"true" default:"20s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

// Server is the REST surface. The LiveKit client and call factory are
// optional; without them the token and call endpoints report the feature
// unavailable.
type Server struct {
	sched        *scheduler.Service
	lk           *livekit.Client
	callFactory  CallFactory
	callRegistry *callRegistry
}

func New(sched *scheduler.Service, lk *livekit.Client, factory CallFactory) (*Server, error) {
	if sched == nil {
		return nil, errors.New("scheduler service is required")
	}
	return &Server{
		sched:        sched,
		lk:           lk,
		callFactory:  factory,
		callRegistry: newCallRegistry(),
	}, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsHeaders)

	r.Get("/", s.handleHealth)
	r.Get("/health", s.handleHealth)

	r.Post("/users/identify", s.handleIdentify)
	r.Get("/users/{phone}", s.handleGetUser)

	r.Get("/slots", s.handleSlots)

	r.Get("/appointments/{phone}", s.handleAppointments)
	r.Post("/appointments/book", s.handleBook)
	r.Put("/appointments/modify", s.handleModify)
	r.Delete("/appointments/cancel", s.handleCancel)

	r.Get("/summaries/{phone}", s.handleSummaries)
	r.Post("/summaries", s.handleSaveSummary)

	r.Post("/token", s.handleToken)

	r.Post("/calls/start", s.handleStartCall)
	r.Post("/calls/{room}/turn", s.handleCallTurn)
	r.Delete("/calls/{room}", s.handleEndCall)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

// corsHeaders is permissive: the display client is served from a separate
// origin during calls.
func corsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, scheduler.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, scheduler.ErrNotFound), errors.Is(err, scheduler.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, scheduler.ErrSlotUnavailable), errors.Is(err, scheduler.ErrSlotAlreadyBooked):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		respondJSON(w, status, map[string]string{"error": "internal server error"})
		return
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return scheduler.ErrInvalidInput
	}
	return nil
}

package server

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wrenvoice/voice-scheduler/agent/assistant"
	"github.com/wrenvoice/voice-scheduler/scheduler"
)

// CallFactory assembles the per-call assistant bound to a room name. main
// wires it; without one the call endpoints report the feature unavailable.
type CallFactory func(ctx context.Context, roomName string) (*assistant.Assistant, error)

// callEntry serializes turns per call; the assistant itself is not safe
// for concurrent use.
type callEntry struct {
	mu   sync.Mutex
	asst *assistant.Assistant
}

type callRegistry struct {
	mu    sync.Mutex
	calls map[string]*callEntry
}

func newCallRegistry() *callRegistry {
	return &callRegistry{calls: make(map[string]*callEntry)}
}

func (r *callRegistry) add(room string, asst *assistant.Assistant) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.calls[room]; exists {
		return false
	}
	r.calls[room] = &callEntry{asst: asst}
	return true
}

func (r *callRegistry) get(room string) (*callEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.calls[room]
	return entry, ok
}

func (r *callRegistry) remove(room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.calls, room)
}

type startCallRequest struct {
	Room     string `json:"room"`
	Identity string `json:"identity"`
	Name     string `json:"name"`
}

// handleStartCall creates a call: a room, its assistant, and (when rooms
// are configured) a join token for the display client.
func (s *Server) handleStartCall(w http.ResponseWriter, r *http.Request) {
	if s.callFactory == nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "voice calls are not configured",
		})
		return
	}

	var req startCallRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	room := strings.TrimSpace(req.Room)
	if room == "" {
		room = "call-" + uuid.NewString()
	}

	asst, err := s.callFactory(r.Context(), room)
	if err != nil {
		respondError(w, err)
		return
	}
	if !s.callRegistry.add(room, asst) {
		respondJSON(w, http.StatusConflict, map[string]string{
			"error": "a call is already active in this room",
		})
		return
	}
	log.Info().Str("room", room).Msg("call started")

	payload := map[string]string{
		"room":     room,
		"greeting": asst.Greeting(),
	}
	if s.lk != nil {
		identity := strings.TrimSpace(req.Identity)
		if identity == "" {
			identity = "caller-" + uuid.NewString()
		}
		token, err := s.lk.JoinToken(room, identity, strings.TrimSpace(req.Name))
		if err != nil {
			s.callRegistry.remove(room)
			respondError(w, err)
			return
		}
		payload["token"] = token
		payload["identity"] = identity
	}
	respondJSON(w, http.StatusCreated, payload)
}

type turnRequest struct {
	Utterance string `json:"utterance"`
}

// handleCallTurn feeds one caller utterance to the call's assistant and
// returns the reply. When the assistant ends the call, the entry is dropped.
func (s *Server) handleCallTurn(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	entry, ok := s.callRegistry.get(room)
	if !ok {
		respondJSON(w, http.StatusNotFound, map[string]string{
			"error": "no active call in this room",
		})
		return
	}

	var req turnRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if strings.TrimSpace(req.Utterance) == "" {
		respondError(w, scheduler.ErrInvalidInput)
		return
	}

	entry.mu.Lock()
	out, err := entry.asst.Respond(r.Context(), req.Utterance)
	entry.mu.Unlock()
	if err != nil {
		respondError(w, err)
		return
	}

	if out.Ended {
		s.callRegistry.remove(room)
		log.Info().Str("room", room).Msg("call ended")
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"reply": out.Reply,
		"ended": out.Ended,
	})
}

func (s *Server) handleEndCall(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	if _, ok := s.callRegistry.get(room); !ok {
		respondJSON(w, http.StatusNotFound, map[string]string{
			"error": "no active call in this room",
		})
		return
	}
	s.callRegistry.remove(room)
	log.Info().Str("room", room).Msg("call dropped")
	respondJSON(w, http.StatusOK, map[string]string{"room": room, "status": "ended"})
}

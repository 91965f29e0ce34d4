package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wrenvoice/voice-scheduler/scheduler"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "voice-scheduler",
	})
}

type identifyRequest struct {
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name"`
}

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	var req identifyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	user, isNew, err := s.sched.Identify(r.Context(), req.PhoneNumber, req.Name)
	if err != nil {
		respondError(w, err)
		return
	}

	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	respondJSON(w, status, map[string]any{
		"user":   user,
		"is_new": isNew,
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.sched.User(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))

	slots, err := s.sched.AvailableSlots(r.Context(), date)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"slots": scheduler.GroupSlots(slots),
		"total": len(slots),
	})
}

func (s *Server) handleAppointments(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	status := strings.TrimSpace(r.URL.Query().Get("status"))

	appts, err := s.sched.Appointments(r.Context(), phone, status)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"appointments": appts,
		"total":        len(appts),
	})
}

type bookRequest struct {
	PhoneNumber string `json:"phone_number"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Reason      string `json:"reason"`
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	appt, err := s.sched.Book(r.Context(), req.PhoneNumber, req.Date, req.Time, req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"appointment": appt,
		"message":     fmt.Sprintf("Appointment booked on %s at %s", appt.Date, appt.Time),
	})
}

type modifyRequest struct {
	PhoneNumber string `json:"phone_number"`
	OldDate     string `json:"old_date"`
	OldTime     string `json:"old_time"`
	NewDate     string `json:"new_date"`
	NewTime     string `json:"new_time"`
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	var req modifyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	appt, err := s.sched.Modify(r.Context(), req.PhoneNumber, req.OldDate, req.OldTime, req.NewDate, req.NewTime)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"appointment": appt,
		"message":     fmt.Sprintf("Appointment moved to %s at %s", appt.Date, appt.Time),
	})
}

type cancelRequest struct {
	PhoneNumber string `json:"phone_number"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	appt, err := s.sched.Cancel(r.Context(), req.PhoneNumber, req.Date, req.Time)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"appointment": appt,
		"message":     fmt.Sprintf("Appointment on %s at %s cancelled", appt.Date, appt.Time),
	})
}

func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.sched.Summaries(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"summaries": summaries,
		"total":     len(summaries),
	})
}

type saveSummaryRequest struct {
	PhoneNumber string `json:"phone_number"`
	Summary     string `json:"summary"`
}

func (s *Server) handleSaveSummary(w http.ResponseWriter, r *http.Request) {
	var req saveSummaryRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	record, err := s.sched.SaveSummary(r.Context(), req.PhoneNumber, req.Summary)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"summary": record})
}

type tokenRequest struct {
	RoomName        string `json:"room_name"`
	ParticipantName string `json:"participant_name"`
}

// handleToken mints a LiveKit join token for the display client. The room
// and participant identity default to fresh UUIDs so anonymous callers get
// their own room.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if s.lk == nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "realtime rooms are not configured",
		})
		return
	}

	var req tokenRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	name := strings.TrimSpace(req.ParticipantName)
	identity := name
	if identity == "" {
		identity = "caller-" + uuid.NewString()
	}
	room := strings.TrimSpace(req.RoomName)
	if room == "" {
		room = "call-" + uuid.NewString()
	}

	token, err := s.lk.JoinToken(room, identity, name)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"token":    token,
		"room":     room,
		"identity": identity,
	})
}

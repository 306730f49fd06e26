// Package api exposes the CRUD surface whose side effects drive the
// real-time core: session records, lifecycle transitions, attendance and
// the unidirectional push stream.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"classhub/internal/attendance"
	"classhub/internal/bridge"
	"classhub/internal/session"
	"classhub/pkg/types"
)

// Stats is the subset of hub state the health endpoint reports.
type Stats interface {
	Stats() map[string]int
}

// Server is a thin HTTP layer: request parsing, error mapping and JSON
// serialization only, no business logic.
type Server struct {
	log        *slog.Logger
	sessions   *session.Manager
	attendance *attendance.Synchronizer
	bridge     *bridge.Bridge
	stats      Stats
	mux        *http.ServeMux
}

// NewServer wires the API routes.
func NewServer(log *slog.Logger, sessions *session.Manager, att *attendance.Synchronizer, b *bridge.Bridge, stats Stats) *Server {
	s := &Server{
		log:        log,
		sessions:   sessions,
		attendance: att,
		bridge:     b,
		stats:      stats,
		mux:        http.NewServeMux(),
	}

	s.mux.Handle("/api/sessions", s.cors(http.HandlerFunc(s.handleSessions)))
	s.mux.Handle("/api/sessions/", s.cors(http.HandlerFunc(s.handleSessionByID)))
	s.mux.Handle("/api/events", s.cors(http.HandlerFunc(s.handleEvents)))
	s.mux.Handle("/health", s.cors(http.HandlerFunc(s.handleHealth)))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createSession(w, r)
	case http.MethodGet:
		s.listSessions(w, r)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		s.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleSessionByID routes /api/sessions/{id}[/{action}].
func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	sessionID := parts[0]
	if sessionID == "" {
		s.sendError(w, http.StatusBadRequest, "session id required")
		return
	}

	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.getSession(w, r, sessionID)
	case action == "" && r.Method == http.MethodPut:
		s.updateSession(w, r, sessionID)
	case action == "" && r.Method == http.MethodDelete:
		s.deleteSession(w, r, sessionID)
	case action == "start" && r.Method == http.MethodPost:
		s.transitionSession(w, r, sessionID, s.sessions.Start)
	case action == "end" && r.Method == http.MethodPost:
		s.transitionSession(w, r, sessionID, s.sessions.End)
	case action == "attendance" && r.Method == http.MethodPost:
		s.recordAttendance(w, r, sessionID)
	case action == "attendance" && r.Method == http.MethodGet:
		s.getAttendance(w, sessionID)
	case r.Method == http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		s.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type createSessionRequest struct {
	Name      string `json:"name"`
	CreatedBy string `json:"created_by"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess, err := s.sessions.Create(r.Context(), req.Name, req.CreatedBy)
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.sendJSON(w, http.StatusCreated, sess)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.List(r.Context())
	if err != nil {
		s.mapError(w, err)
		return
	}
	if sessions == nil {
		sessions = []*types.Session{}
	}
	s.sendJSON(w, http.StatusOK, sessions)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := s.sessions.Get(r.Context(), sessionID)
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, sess)
}

type updateSessionRequest struct {
	Name string `json:"name"`
}

func (s *Server) updateSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req updateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess, err := s.sessions.Update(r.Context(), sessionID, req.Name)
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, sess)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.sessions.Delete(r.Context(), sessionID); err != nil {
		s.mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) transitionSession(w http.ResponseWriter, r *http.Request, sessionID string,
	transition func(ctx context.Context, sessionID string) (*types.Session, error)) {
	sess, err := transition(r.Context(), sessionID)
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, sess)
}

type attendanceRequest struct {
	ParticipantID string                 `json:"participant_id"`
	Status        types.AttendanceStatus `json:"status"`
}

func (s *Server) recordAttendance(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	record, err := s.attendance.Record(sessionID, req.ParticipantID, req.Status)
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, record)
}

func (s *Server) getAttendance(w http.ResponseWriter, sessionID string) {
	s.sendJSON(w, http.StatusOK, s.attendance.Snapshot(sessionID))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"stats":  s.stats.Stats(),
	})
}

// mapError translates component errors into HTTP status codes.
func (s *Server) mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrSessionNotFound):
		s.sendError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrIllegalTransition):
		s.sendError(w, http.StatusConflict, err.Error())
	case errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidSessionName),
		errors.Is(err, types.ErrInvalidStatus):
		s.sendError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("request failed", slog.Any("error", err))
		s.sendError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("response encoding failed", slog.Any("error", err))
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, map[string]string{"error": message})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

// Package api exposes the controller's command set and state snapshot
// over HTTP. It is a thin presentation adapter: every route maps onto
// exactly one controller command, and every response carries the fresh
// snapshot the client should render next.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"taleloom/internal/tale"
)

// NotificationBuffer is a tale.Notifier that keeps the most recent
// notification so it can be returned with the next HTTP response.
type NotificationBuffer struct {
	mu   sync.Mutex
	last *tale.Notification
}

func NewNotificationBuffer() *NotificationBuffer { return &NotificationBuffer{} }

var _ tale.Notifier = (*NotificationBuffer)(nil)

func (b *NotificationBuffer) Notify(n tale.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = &n
}

// take returns and clears the buffered notification.
func (b *NotificationBuffer) take() *tale.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.last
	b.last = nil
	return n
}

// Server serves the command API for a single controller instance.
type Server struct {
	ctrl   *tale.Controller
	notes  *NotificationBuffer
	logger tale.Logger
}

// NewServer creates a Server. notes must be the same buffer the
// controller was constructed with, otherwise responses will never carry
// notifications.
func NewServer(ctrl *tale.Controller, notes *NotificationBuffer, logger tale.Logger) *Server {
	return &Server{ctrl: ctrl, notes: notes, logger: logger}
}

// Router builds the chi router for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/state", s.handleState)
	r.Post("/v1/commands/{name}", s.handleCommand)
	return r
}

// response is the envelope every endpoint returns.
type response struct {
	Snapshot     *tale.Snapshot     `json:"snapshot"`
	Notification *tale.Notification `json:"notification,omitempty"`
	Error        string             `json:"error,omitempty"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ctrl.Snapshot()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Snapshot: snap})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	cmd, ok := commands[name]
	if !ok {
		http.Error(w, "unknown command: "+name, http.StatusNotFound)
		return
	}

	if err := cmd(s, r); err != nil {
		s.writeError(w, err)
		return
	}

	snap, err := s.ctrl.Snapshot()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Snapshot: snap, Notification: s.notes.take()})
}

// writeError maps the error taxonomy to HTTP status codes. The snapshot
// is included when available: a failed command leaves state unchanged,
// but the client may still want to re-render (e.g. after a forced
// redirect).
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	s.logger.Debug("command failed", "status", status, "error", err)

	resp := response{Error: err.Error(), Notification: s.notes.take()}
	if snap, snapErr := s.ctrl.Snapshot(); snapErr == nil {
		resp.Snapshot = snap
	}
	writeJSON(w, status, resp)
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	var verr *tale.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, tale.ErrCodeMismatch):
		return http.StatusBadRequest
	case errors.Is(err, tale.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tale.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, tale.ErrRateLimited), errors.Is(err, tale.ErrDailyLimit), errors.Is(err, tale.ErrMonthlyLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, tale.ErrDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, tale.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return &tale.ValidationError{Field: "body", Reason: "missing request body"}
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &tale.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"classhub/internal/bridge"
	"classhub/pkg/types"
)

// handleEvents serves the unidirectional push stream as Server-Sent
// Events. Each connected client gets its own bridge subscription; the
// stream opens with a connection-established marker, then relays every
// event published on the session-updates topic until the client goes
// away, at which point the subscription is torn down.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.sendError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := s.bridge.Subscribe(bridge.TopicSessionUpdates)
	defer sub.Cancel()

	if err := writeSSE(w, types.NewEvent(types.EventConnected, nil)); err != nil {
		return
	}
	flusher.Flush()

	s.log.Info("push stream opened", slog.String("remote", r.RemoteAddr))
	defer s.log.Info("push stream closed", slog.String("remote", r.RemoteAddr))

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if err := writeSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, ev types.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data)
	return err
}

package realtime

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/civlobby/internal/model"
)

// ServeSSE streams events to the client until it disconnects or the
// connection is dropped by the fanout. A non-empty roomID subscribes the
// stream to that room channel; the caller is expected to have authorized it.
func (s *Server) ServeSSE(w http.ResponseWriter, r *http.Request, userID model.UserID, roomID model.RoomID) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	conn := newConnection(s.ids.NewID(), userID, s.cfg.SendBufferSize, s.clock.Now())
	s.registry.Register(conn)
	if roomID != "" {
		// Just registered, so this cannot fail
		_ = s.registry.Subscribe(conn.ID(), roomID)
	}
	defer func() {
		s.registry.Unregister(conn.ID())
		conn.Close()
		s.logger.Debug("sse stream closed",
			slog.String("conn_id", conn.ID()),
			slog.Duration("duration", s.clock.Now().Sub(conn.connectedAt)))
	}()

	hello := fmt.Sprintf(`{"status":"connected","connection_id":%q}`, conn.ID())
	if _, err := w.Write(formatSSEMessage("connected", hello)); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(s.cfg.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case msg := <-conn.send:
			if _, err := w.Write(formatSSEMessage(msg.Event, string(msg.Data))); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-conn.done:
			return

		case <-r.Context().Done():
			return
		}
	}
}

// formatSSEMessage formats a message for SSE transmission
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(eventName)
	b.WriteByte('\n')
	// SSE requires each line of data to be prefixed with "data: "
	for _, line := range splitLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// splitLines splits a string into lines, dropping carriage returns
func splitLines(s string) []string {
	lines := strings.Split(strings.ReplaceAll(s, "\r", ""), "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

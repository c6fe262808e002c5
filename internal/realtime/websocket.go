package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/civlobby/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Same-origin checks are left to the reverse proxy; the session token
	// already authenticates the upgrade
	CheckOrigin: func(r *http.Request) bool { return true },
}

const maxFrameSize = 4096

// clientFrame is a control frame sent by a WebSocket client
type clientFrame struct {
	Type   string       `json:"type"`
	RoomID model.RoomID `json:"room_id,omitempty"`
}

// serverFrame answers a client frame
type serverFrame struct {
	Type    string       `json:"type"`
	RoomID  model.RoomID `json:"room_id,omitempty"`
	Message string       `json:"message,omitempty"`
}

// wsConn is a registered WebSocket connection
type wsConn struct {
	*connection
	ws *websocket.Conn
}

// ServeWS upgrades the request and serves a WebSocket client. Clients
// switch room channels with subscribe and unsubscribe frames.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request, userID model.UserID) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied
		s.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	conn := &wsConn{
		connection: newConnection(s.ids.NewID(), userID, s.cfg.SendBufferSize, s.clock.Now()),
		ws:         ws,
	}
	s.registry.Register(conn)

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	go func() {
		defer cancel()
		s.writePump(conn)
	}()
	s.readPump(ctx, conn)
}

func (s *Server) writePump(c *wsConn) {
	ticker := time.NewTicker(s.cfg.KeepAlive)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg.Data); err != nil {
				s.logger.Debug("websocket write failed",
					slog.String("conn_id", c.ID()),
					slog.String("error", err.Error()))
				return
			}

		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			deadline := time.Now().Add(s.cfg.WriteWait)
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		}
	}
}

// readPump handles client frames until the socket fails. Disconnecting only
// removes the connection from the registry; room membership is untouched.
func (s *Server) readPump(ctx context.Context, c *wsConn) {
	defer func() {
		s.registry.Unregister(c.ID())
		c.Close()
	}()

	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket closed unexpectedly",
					slog.String("conn_id", c.ID()),
					slog.String("error", err.Error()))
			}
			return
		}
		s.handleFrame(ctx, c, data)
	}
}

func (s *Server) handleFrame(ctx context.Context, c *wsConn, data []byte) {
	var frame clientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.reply(c, serverFrame{Type: "error", Message: "malformed frame"})
		return
	}

	switch frame.Type {
	case "subscribe":
		if frame.RoomID == "" {
			s.reply(c, serverFrame{Type: "error", Message: "room_id is required"})
			return
		}
		if err := s.authorize(ctx, c.UserID(), frame.RoomID); err != nil {
			s.reply(c, serverFrame{Type: "error", RoomID: frame.RoomID, Message: err.Error()})
			return
		}
		if err := s.registry.SwitchRoom(c.ID(), frame.RoomID); err != nil {
			return
		}
		s.reply(c, serverFrame{Type: "subscribed", RoomID: frame.RoomID})
	case "unsubscribe":
		s.registry.Unsubscribe(c.ID(), frame.RoomID)
		s.reply(c, serverFrame{Type: "unsubscribed", RoomID: frame.RoomID})
	case "ping":
		s.reply(c, serverFrame{Type: "pong"})
	default:
		s.logger.Debug("unknown frame type",
			slog.String("conn_id", c.ID()),
			slog.String("type", frame.Type))
		s.reply(c, serverFrame{Type: "error", Message: "unknown frame type"})
	}
}

func (s *Server) reply(c *wsConn, frame serverFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	if err := c.Send(Message{Event: frame.Type, Data: data}); err != nil {
		s.logger.Debug("dropping reply", slog.String("conn_id", c.ID()), slog.String("error", err.Error()))
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"scrumkit/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // tighten in production
	},
}

// WebSocketHandler bridges the two session namespaces onto the engine.
// Each connection gets a read loop (this goroutine) and a write pump;
// the engine never blocks on either.
type WebSocketHandler struct {
	engine *session.Engine
	log    *logrus.Entry
}

func NewWebSocketHandler(engine *session.Engine) *WebSocketHandler {
	return &WebSocketHandler{
		engine: engine,
		log:    logrus.WithField("component", "ws"),
	}
}

// envelope is the inbound frame: a command name plus its payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type dispatchFunc func(ctx context.Context, conn *session.Conn, auth *session.AuthContext, env envelope) error

// HandlePoker serves the planning poker namespace.
func (h *WebSocketHandler) HandlePoker(c *gin.Context) {
	h.serve(c, h.dispatchPoker)
}

// HandleRetro serves the retrospective board namespace.
func (h *WebSocketHandler) HandleRetro(c *gin.Context) {
	h.serve(c, h.dispatchRetro)
}

func (h *WebSocketHandler) serve(c *gin.Context, dispatch dispatchFunc) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	conn := session.NewConn()
	auth := authContext(c)

	go h.writePump(ws, conn)
	h.readPump(c.Request.Context(), ws, conn, auth, dispatch)
}

// readPump drives the connection: decode the envelope, dispatch, and
// turn any typed failure into an error event scoped to this connection
// alone. Disconnect cleanup runs exactly once on the way out and is a
// no-op for connections that never joined.
func (h *WebSocketHandler) readPump(ctx context.Context, ws *websocket.Conn, conn *session.Conn, auth *session.AuthContext, dispatch dispatchFunc) {
	defer func() {
		h.engine.Disconnect(conn.ID())
		conn.Close()
		ws.Close()
	}()

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.WithError(err).Debug("websocket unexpected close")
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			conn.Send(session.ErrorEvent(&session.Error{
				Code:    session.CodeInvalidPayload,
				Message: "malformed message",
			}))
			continue
		}

		if err := dispatch(ctx, conn, auth, env); err != nil {
			conn.Send(session.ErrorEvent(err))
		}
	}
}

// writePump drains the connection's event queue into the socket and
// keeps the peer alive with pings.
func (h *WebSocketHandler) writePump(ws *websocket.Conn, conn *session.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case ev := <-conn.Events():
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(ev); err != nil {
				return
			}
		case <-conn.Closed():
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Inbound payloads, one struct per command.

type joinPayload struct {
	SessionID       string `json:"sessionId"`
	ParticipantName string `json:"participantName"`
	Password        string `json:"password"`
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
}

type votePayload struct {
	SessionID string  `json:"sessionId"`
	Vote      *string `json:"vote"`
}

type addCardPayload struct {
	SessionID  string `json:"sessionId"`
	CardID     string `json:"cardId"`
	ColumnID   string `json:"columnId"`
	Text       string `json:"text"`
	AuthorName string `json:"authorName"`
}

type editCardPayload struct {
	SessionID string `json:"sessionId"`
	CardID    string `json:"cardId"`
	Text      string `json:"text"`
}

type cardPayload struct {
	SessionID string `json:"sessionId"`
	CardID    string `json:"cardId"`
}

type namePayload struct {
	SessionID string `json:"sessionId"`
	NewName   string `json:"newName"`
}

type roomSettingsPayload struct {
	SessionID string               `json:"sessionId"`
	Settings  session.RoomSettings `json:"settings"`
}

type boardSettingsPayload struct {
	SessionID string                      `json:"sessionId"`
	Settings  session.BoardSettingsUpdate `json:"settings"`
}

func decode(env envelope, into interface{}) error {
	if len(env.Data) == 0 {
		return &session.Error{Code: session.CodeInvalidPayload, Message: "missing payload"}
	}
	if err := json.Unmarshal(env.Data, into); err != nil {
		return &session.Error{Code: session.CodeInvalidPayload, Message: "malformed payload"}
	}
	return nil
}

func unknownEvent(name string) error {
	return &session.Error{Code: session.CodeInvalidPayload, Message: "unknown event: " + name}
}

// checkSession rejects a command whose sessionId does not name the
// session this connection joined; applying it to the bound session
// anyway would silently mutate a session the client did not address.
// Unbound connections pass through so the engine can answer with its
// identity-required failure.
func (h *WebSocketHandler) checkSession(conn *session.Conn, sessionID string) error {
	if sessionID == "" {
		return &session.Error{Code: session.CodeInvalidPayload, Message: "session id is required"}
	}
	if sid, ok := h.engine.Connections().SessionOf(conn.ID()); ok && sid != sessionID {
		return &session.Error{Code: session.CodeInvalidPayload, Message: "session id does not match the joined session"}
	}
	return nil
}

func (h *WebSocketHandler) dispatchPoker(ctx context.Context, conn *session.Conn, auth *session.AuthContext, env envelope) error {
	switch env.Event {
	case "joinRoom":
		var p joinPayload
		if err := decode(env, &p); err != nil {
			return err
		}
		return h.engine.JoinRoom(ctx, conn, session.JoinRequest{
			SessionID:       p.SessionID,
			ParticipantName: p.ParticipantName,
			Password:        p.Password,
			Auth:            auth,
		})

	case "vote":
		var p votePayload
		if err := decode(env, &p); err != nil {
			return err
		}
		if err := h.checkSession(conn, p.SessionID); err != nil {
			return err
		}
		return h.engine.Vote(ctx, conn.ID(), p.Vote)

	case "revealVotes", "resetVotes":
		var p sessionPayload
		if err := decode(env, &p); err != nil {
			return err
		}
		if err := h.checkSession(conn, p.SessionID); err != nil {
			return err
		}
		if env.Event == "revealVotes" {
			return h.engine.RevealVotes(ctx, conn.ID())
		}
		return h.engine.ResetVotes(ctx, conn.ID())

	case "changeName":
		var p namePayload
		if err := decode(env, &p); err != nil {
			return err
		}
		if err := h.checkSession(conn, p.SessionID); err != nil {
			return err
		}
		return h.engine.ChangeName(ctx, conn.ID(), p.NewName)

	case "updateSettings":
		var p roomSettingsPayload
		if err := decode(env, &p); err != nil {
			return err
		}
		if err := h.checkSession(conn, p.SessionID); err != nil {
			return err
		}
		return h.engine.UpdateRoomSettings(ctx, conn.ID(), p.Settings)
	}
	return unknownEvent(env.Event)
}

func (h *WebSocketHandler) dispatchRetro(ctx context.Context, conn *session.Conn, auth *session.AuthContext, env envelope) error {
	switch env.Event {
	case "joinRetroBoard":
		var p joinPayload
		if err := decode(env, &p); err != nil {
			return err
		}
		return h.engine.JoinBoard(ctx, conn, session.JoinRequest{
			SessionID:       p.SessionID,
			ParticipantName: p.ParticipantName,
			Password:        p.Password,
			Auth:            auth,
		})

	case "addRetroCard":
		var p addCardPayload
		if err := decode(env, &p); err != nil {
			return err
		}
		if err := h.checkSession(conn, p.SessionID); err != nil {
			return err
		}
		return h.engine.AddCard(ctx, conn.ID(), session.CardInput{
			CardID:     p.CardID,
			ColumnID:   p.ColumnID,
			Text:       p.Text,
			AuthorName: p.AuthorName,
		})

	case "editRetroCard":
		var p editCardPayload
		if err := decode(env, &p); err != nil {
			return err
		}
		if err := h.checkSession(conn, p.SessionID); err != nil {
			return err
		}
		return h.engine.EditCard(ctx, conn.ID(), p.CardID, p.Text)

	case "deleteRetroCard":
		var p cardPayload
		if err := decode(env, &p); err != nil {
			return err
		}
		if err := h.checkSession(conn, p.SessionID); err != nil {
			return err
		}
		return h.engine.DeleteCard(ctx, conn.ID(), p.CardID)

	case "toggleVote":
		var p cardPayload
		if err := decode(env, &p); err != nil {
			return err
		}
		if err := h.checkSession(conn, p.SessionID); err != nil {
			return err
		}
		return h.engine.ToggleCardVote(ctx, conn.ID(), p.CardID)

	case "changeRetroName":
		var p namePayload
		if err := decode(env, &p); err != nil {
			return err
		}
		if err := h.checkSession(conn, p.SessionID); err != nil {
			return err
		}
		return h.engine.ChangeName(ctx, conn.ID(), p.NewName)

	case "updateSettings":
		var p boardSettingsPayload
		if err := decode(env, &p); err != nil {
			return err
		}
		if err := h.checkSession(conn, p.SessionID); err != nil {
			return err
		}
		return h.engine.UpdateBoardSettings(ctx, conn.ID(), p.Settings)

	case "startTimer", "stopTimer":
		var p sessionPayload
		if err := decode(env, &p); err != nil {
			return err
		}
		if err := h.checkSession(conn, p.SessionID); err != nil {
			return err
		}
		if env.Event == "startTimer" {
			return h.engine.StartTimer(ctx, conn.ID())
		}
		return h.engine.StopTimer(ctx, conn.ID())
	}
	return unknownEvent(env.Event)
}

// authContext lifts the optionally-authenticated user into the
// engine's join-time auth context.
func authContext(c *gin.Context) *session.AuthContext {
	if id := actorID(c); id != nil {
		return &session.AuthContext{UserID: *id}
	}
	return nil
}

// internal/httpserver/routes_ws.go
//
// Live session stream: GET /sessions/{id}/ws
//
// The server pushes {"type":"snapshot","session":...} after every change
// (timer ticks included). Clients may also drive the session over the same
// socket by sending commands:
//
//	{"action":"round","topic":"animals","difficulty":"easy"}
//	{"action":"guess","guess":"dog"}
//	{"action":"replay"} | {"action":"dismiss"}
//
// Failed commands are answered privately with {"type":"error","error":...}.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mdonmez/taibu/internal/game"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// checkOrigin admits browsers on the configured client origin. Requests
// without an Origin header come from non-browser clients and rely on the
// session token alone.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || strings.EqualFold(origin, s.cfg.ClientOrigin)
}

// wsMessage is sent server → client.
type wsMessage struct {
	Type    string         `json:"type"` // "snapshot" | "error"
	Session *game.Snapshot `json:"session,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// wsCommand is sent client → server.
type wsCommand struct {
	Action     string `json:"action"`
	Topic      string `json:"topic,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Guess      string `json:"guess,omitempty"`
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	// Keep only the newest snapshots when the client falls behind.
	updates := make(chan game.Snapshot, 8)
	first, unsubscribe, err := sess.Subscribe(func(snap game.Snapshot) {
		select {
		case updates <- snap:
		default:
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- snap:
			default:
			}
		}
	})
	if err != nil {
		writeError(w, err)
		return
	}
	defer unsubscribe()

	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session", sess.ID()).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	replies := make(chan wsMessage, 4)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		s.readCommands(ctx, conn, sess, replies)
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	write := func(m wsMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(m); err != nil {
			log.Debug().Err(err).Str("session", sess.ID()).Msg("websocket write")
			return false
		}
		return true
	}

	if !write(wsMessage{Type: "snapshot", Session: &first}) {
		return
	}
	for {
		select {
		case snap := <-updates:
			if !write(wsMessage{Type: "snapshot", Session: &snap}) {
				return
			}
		case m := <-replies:
			if !write(m) {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sess.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
				time.Now().Add(writeWait))
			return
		case <-readerDone:
			return
		}
	}
}

// readCommands applies client commands until the connection fails.
// Each command blocks until the session has answered it.
func (s *Server) readCommands(ctx context.Context, conn *websocket.Conn, sess *game.Session, replies chan<- wsMessage) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				log.Debug().Err(err).Str("session", sess.ID()).Msg("websocket read")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var err error
		switch strings.ToLower(strings.TrimSpace(cmd.Action)) {
		case "round":
			_, err = sess.StartRound(ctx, cmd.Topic, cmd.Difficulty)
		case "guess":
			_, err = sess.SubmitGuess(ctx, cmd.Guess)
		case "replay":
			_, err = sess.Replay(ctx)
		case "dismiss":
			_, err = sess.DismissNotice(ctx)
		default:
			err = &game.ValidationError{Field: "action", Reason: "must be round, guess, replay or dismiss"}
		}
		if err == nil || errors.Is(err, game.ErrStaleResponse) {
			continue
		}
		select {
		case replies <- wsMessage{Type: "error", Error: err.Error()}:
		case <-ctx.Done():
			return
		}
	}
}

// internal/httpserver/routes_sessions.go
//
// HTTP routes driving one game session:
//   - POST   /sessions                      → create a session, returns its token
//   - GET    /sessions/{id}                 → current snapshot
//   - POST   /sessions/{id}/round           → start a round {topic, difficulty}
//   - POST   /sessions/{id}/guess           → submit a guess {guess}
//   - POST   /sessions/{id}/replay          → result screen back to setup
//   - POST   /sessions/{id}/notice/dismiss  → clear the error notice
//   - DELETE /sessions/{id}                 → close the session
//
// Every action responds with the session snapshot. Failed actions carry
// {"error", "session"} with a status mapped by statusFor.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mdonmez/taibu/internal/game"
)

type createRes struct {
	SessionID string        `json:"sessionId"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Session   game.Snapshot `json:"session"`
}

// handleCreateSession registers a fresh session on the setup screen and
// returns a token bound to it (also set as a cookie).
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	sess := game.NewSession(id, s.gen, s.gen, game.Options{
		MaxAttempts:  s.cfg.MaxAttempts,
		RoundSeconds: s.cfg.RoundSeconds,
		Clock:        s.clock,
		Recorder:     s.hist,
		Logger:       &log.Logger,
	})
	if err := s.store.Save(r.Context(), sess); err != nil {
		sess.Close()
		log.Error().Err(err).Msg("save session")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "save_failed"})
		return
	}

	tok, exp, err := s.signToken(id)
	if err != nil {
		_ = s.store.Delete(r.Context(), id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "sign_failed"})
		return
	}
	s.setSessionCookie(w, tok, exp)

	snap, err := sess.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	log.Info().Str("session", id).Msg("session created")
	writeJSON(w, http.StatusCreated, createRes{SessionID: id, Token: tok, ExpiresAt: exp, Session: snap})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := sessionFrom(r).Snapshot(r.Context())
	respond(w, snap, err)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), sessionFrom(r).ID()); err != nil {
		writeError(w, err)
		return
	}
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type roundReq struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}

// handleStartRound blocks until the round and its first hint have arrived
// (or the request fails).
func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	var req roundReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_json"})
		return
	}
	snap, err := sessionFrom(r).StartRound(r.Context(), req.Topic, req.Difficulty)
	respond(w, snap, err)
}

type guessReq struct {
	Guess string `json:"guess"`
}

// handleGuess blocks until the guess is evaluated and, after a miss, the next
// hint has arrived.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_json"})
		return
	}
	snap, err := sessionFrom(r).SubmitGuess(r.Context(), req.Guess)
	respond(w, snap, err)
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	snap, err := sessionFrom(r).Replay(r.Context())
	respond(w, snap, err)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	snap, err := sessionFrom(r).DismissNotice(r.Context())
	respond(w, snap, err)
}

type errorRes struct {
	Error   string         `json:"error"`
	Session *game.Snapshot `json:"session,omitempty"`
}

// respond writes the snapshot, or the mapped error with the snapshot the
// session reported alongside it. A stale response is not an error for the
// caller: the round moved on and the snapshot shows where it went.
func respond(w http.ResponseWriter, snap game.Snapshot, err error) {
	if err == nil || errors.Is(err, game.ErrStaleResponse) {
		writeJSON(w, http.StatusOK, snap)
		return
	}
	res := errorRes{Error: err.Error()}
	if snap.SessionID != "" {
		res.Session = &snap
	}
	writeJSON(w, statusFor(err), res)
}

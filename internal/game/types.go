// internal/game/types.go
//
// Core type definitions for the Taboo game engine.
// Defines:
//   - Difficulty: easy/medium/hard round setting.
//   - Round: secret word + banned words, immutable for one playthrough.
//   - Guess: a non-winning submission and the hint that was on screen.
//   - Screen / Outcome / Reason: where a session is and how a round ended.
//   - Snapshot: the read-only view handed to transports.
//   - Result: a finished round, as handed to a Recorder.

package game

import (
	"context"
	"strings"
	"time"
)

// Difficulty of a round, as understood by the generator service.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty accepts the three allowed values, case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	case "":
		return "", &ValidationError{Field: "difficulty", Reason: "must be set"}
	default:
		return "", &ValidationError{Field: "difficulty", Reason: "must be easy, medium or hard"}
	}
}

// BannedCount is the number of banned words every round carries.
const BannedCount = 5

// Round is one secret word and its banned list.
type Round struct {
	Word       string     `json:"word"`
	Banned     []string   `json:"banned"`
	Topic      string     `json:"topic"`
	Difficulty Difficulty `json:"difficulty"`
}

// Guess is a wrong answer together with the hint shown when it was made.
type Guess struct {
	Text       string `json:"text"`
	HintAtTime string `json:"hintAtTime"`
}

// Screen is the session's current state.
type Screen string

const (
	ScreenSetup  Screen = "setup"
	ScreenPlay   Screen = "play"
	ScreenResult Screen = "result"
)

// Outcome of a finished round.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// Reason a round ended.
type Reason string

const (
	ReasonGuessed   Reason = "guessed"
	ReasonExhausted Reason = "attempts_exhausted"
	ReasonTimeout   Reason = "timeout"
)

// RoundSource produces new rounds. It may block on the network.
type RoundSource interface {
	RequestRound(ctx context.Context, topic string, difficulty Difficulty) (Round, error)
}

// HintSource produces the next hint for a round given every wrong guess so far.
type HintSource interface {
	RequestHint(ctx context.Context, round Round, history []Guess) (string, error)
}

// Recorder receives finished rounds (e.g. for persistence).
type Recorder interface {
	Record(ctx context.Context, r Result) error
}

// Result describes a finished round.
type Result struct {
	SessionID  string
	Topic      string
	Difficulty Difficulty
	Word       string
	Outcome    Outcome
	Reason     Reason
	Attempts   int
	Elapsed    time.Duration
	FinishedAt time.Time
}

// Snapshot is a copy of a session's visible state.
// Word and Banned are only filled in on the result screen.
type Snapshot struct {
	SessionID      string     `json:"sessionId"`
	Screen         Screen     `json:"screen"`
	Topic          string     `json:"topic,omitempty"`
	Difficulty     Difficulty `json:"difficulty,omitempty"`
	Hint           string     `json:"hint,omitempty"`
	AttemptCount   int        `json:"attemptCount"`
	MaxAttempts    int        `json:"maxAttempts"`
	Guesses        []Guess    `json:"guesses"`
	TimerRemaining int        `json:"timerRemaining"`
	Busy           bool       `json:"busy"`
	Outcome        Outcome    `json:"outcome,omitempty"`
	Reason         Reason     `json:"reason,omitempty"`
	Word           string     `json:"word,omitempty"`
	Banned         []string   `json:"banned,omitempty"`
	Notice         string     `json:"notice,omitempty"`
}

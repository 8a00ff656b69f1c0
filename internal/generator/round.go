package generator

import (
	"context"
	"net/http"
	"strings"

	"github.com/samber/lo"

	"github.com/mdonmez/taibu/internal/game"
)

type roundRequest struct {
	Topic      string          `json:"topic"`
	Difficulty game.Difficulty `json:"difficulty"`
	Language   string          `json:"language,omitempty"`
}

type roundResponse struct {
	Word   string   `json:"word"`
	Banned []string `json:"banned"`
}

// RequestRound asks the generator for a secret word and its banned list.
// Callers validate topic and difficulty first.
func (c *Client) RequestRound(ctx context.Context, topic string, difficulty game.Difficulty) (game.Round, error) {
	var res roundResponse
	req := roundRequest{Topic: topic, Difficulty: difficulty, Language: c.language}
	if err := c.postJSON(ctx, "round", roundPath, req, &res); err != nil {
		return game.Round{}, err
	}

	word := strings.ToLower(strings.TrimSpace(res.Word))
	if word == "" {
		return game.Round{}, malformed("round", http.StatusOK, "missing word")
	}
	banned := lo.Filter(
		lo.Map(res.Banned, func(b string, _ int) string { return strings.TrimSpace(b) }),
		func(b string, _ int) bool { return b != "" },
	)
	if len(banned) != game.BannedCount {
		return game.Round{}, malformed("round", http.StatusOK, "want %d banned words, got %d", game.BannedCount, len(banned))
	}

	c.log.Debug().Str("topic", topic).Str("difficulty", string(difficulty)).Msg("round generated")
	return game.Round{
		Word:       word,
		Banned:     banned,
		Topic:      topic,
		Difficulty: difficulty,
	}, nil
}

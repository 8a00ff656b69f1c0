package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/samber/lo"

	"github.com/mdonmez/taibu/internal/game"
)

// roundProps is the round as echoed back to the hint endpoint.
type roundProps struct {
	Word       string          `json:"word"`
	Banned     []string        `json:"banned"`
	Topic      string          `json:"topic"`
	Difficulty game.Difficulty `json:"difficulty"`
}

// wrongGuess pairs a guess with the hint that was on screen.
type wrongGuess struct {
	Predict  string `json:"predict"`
	Sentence string `json:"sentence"`
}

type hintRequest struct {
	Props           roundProps   `json:"props"`
	PreviousGuesses []wrongGuess `json:"previous_guesses"`
}

// hintResponse accepts the documented "hint" key as well as the
// "hints"/"sentence" keys some generator prompts produce. A single-key
// object under any other name is taken as the hint too.
type hintResponse struct {
	Hint     json.RawMessage
	Hints    json.RawMessage
	Sentence json.RawMessage
	only     json.RawMessage
}

func (h *hintResponse) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	h.Hint, h.Hints, h.Sentence = fields["hint"], fields["hints"], fields["sentence"]
	if len(fields) == 1 {
		for _, v := range fields {
			h.only = v
		}
	}
	return nil
}

// RequestHint asks for the next hint given the full ordered guess history.
func (c *Client) RequestHint(ctx context.Context, round game.Round, history []game.Guess) (string, error) {
	req := hintRequest{
		Props: roundProps{
			Word:       round.Word,
			Banned:     round.Banned,
			Topic:      round.Topic,
			Difficulty: round.Difficulty,
		},
		PreviousGuesses: lo.Map(history, func(g game.Guess, _ int) wrongGuess {
			return wrongGuess{Predict: g.Text, Sentence: g.HintAtTime}
		}),
	}

	var res hintResponse
	if err := c.postJSON(ctx, "hint", hintPath, req, &res); err != nil {
		return "", err
	}
	for _, raw := range []json.RawMessage{res.Hint, res.Hints, res.Sentence, res.only} {
		if hint := text(raw); hint != "" {
			return hint, nil
		}
	}
	return "", malformed("hint", http.StatusOK, "no hint in response")
}

// text reads a JSON string, or joins a JSON array of strings.
func text(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var parts []string
	if json.Unmarshal(raw, &parts) == nil {
		parts = lo.Filter(
			lo.Map(parts, func(p string, _ int) string { return strings.TrimSpace(p) }),
			func(p string, _ int) bool { return p != "" },
		)
		return strings.Join(parts, " ")
	}
	return ""
}

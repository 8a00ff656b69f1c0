package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mdonmez/taibu/internal/game"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", WithTimeout(2*time.Second))
}

func TestRequestRound(t *testing.T) {
	var got map[string]any
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/game" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"word":" Dog ","banned":["pet","bark","puppy","canine","leash"]}`))
	})

	round, err := c.RequestRound(context.Background(), "animals", game.DifficultyEasy)
	if err != nil {
		t.Fatalf("RequestRound: %v", err)
	}
	if round.Word != "dog" || len(round.Banned) != 5 || round.Topic != "animals" || round.Difficulty != game.DifficultyEasy {
		t.Fatalf("round = %+v", round)
	}
	if got["topic"] != "animals" || got["difficulty"] != "easy" || got["language"] != "english" {
		t.Fatalf("request body = %v", got)
	}
}

func TestRequestRoundErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"error body with 400", http.StatusBadRequest, `{"error":"Failed to generate taboo word"}`, "Failed to generate taboo word"},
		{"error body with 200", http.StatusOK, `{"error":"quota exceeded"}`, "quota exceeded"},
		{"bare 503", http.StatusServiceUnavailable, ``, "Service Unavailable"},
		{"too few banned", http.StatusOK, `{"word":"dog","banned":["pet","bark"]}`, ""},
		{"blank banned entries", http.StatusOK, `{"word":"dog","banned":["pet","","bark","puppy","canine"]}`, ""},
		{"missing word", http.StatusOK, `{"banned":["a","b","c","d","e"]}`, ""},
		{"not json", http.StatusOK, `<html>`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.RequestRound(context.Background(), "animals", game.DifficultyHard)
			var ext *game.ExternalServiceError
			if !errors.As(err, &ext) {
				t.Fatalf("err = %v, want ExternalServiceError", err)
			}
			if ext.Op != "round" {
				t.Fatalf("op = %q", ext.Op)
			}
			if tc.message != "" && ext.Message != tc.message {
				t.Fatalf("message = %q, want %q", ext.Message, tc.message)
			}
		})
	}
}

func TestRequestRoundUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).RequestRound(context.Background(), "animals", game.DifficultyEasy)
	var ext *game.ExternalServiceError
	if !errors.As(err, &ext) || ext.Status != 0 || ext.Err == nil {
		t.Fatalf("err = %#v, want transport ExternalServiceError", err)
	}
}

func TestRequestHintSendsHistory(t *testing.T) {
	var got hintRequest
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hints" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"hint":"A domestic animal. It guards the house. People walk it daily."}`))
	})

	round := game.Round{Word: "dog", Banned: []string{"pet", "bark", "puppy", "canine", "leash"}, Topic: "animals", Difficulty: game.DifficultyMedium}
	history := []game.Guess{{Text: "cat", HintAtTime: "first"}, {Text: "wolf", HintAtTime: "second"}}

	hint, err := c.RequestHint(context.Background(), round, history)
	if err != nil {
		t.Fatalf("RequestHint: %v", err)
	}
	if hint != "A domestic animal. It guards the house. People walk it daily." {
		t.Fatalf("hint = %q", hint)
	}
	if got.Props.Word != "dog" || got.Props.Topic != "animals" || got.Props.Difficulty != game.DifficultyMedium || len(got.Props.Banned) != 5 {
		t.Fatalf("props = %+v", got.Props)
	}
	if len(got.PreviousGuesses) != 2 || got.PreviousGuesses[1] != (wrongGuess{Predict: "wolf", Sentence: "second"}) {
		t.Fatalf("previous_guesses = %+v", got.PreviousGuesses)
	}
}

func TestRequestHintEmptyHistoryIsArray(t *testing.T) {
	var raw map[string]json.RawMessage
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = w.Write([]byte(`{"hint":"x"}`))
	})
	if _, err := c.RequestHint(context.Background(), game.Round{Word: "dog"}, nil); err != nil {
		t.Fatalf("RequestHint: %v", err)
	}
	if string(raw["previous_guesses"]) != "[]" {
		t.Fatalf("previous_guesses = %s, want []", raw["previous_guesses"])
	}
}

func TestRequestHintAlternateKeys(t *testing.T) {
	cases := map[string]string{
		`{"hints":"from hints"}`:            "from hints",
		`{"sentence":"from sentence"}`:      "from sentence",
		`{"hints":["one.","two."]}`:         "one. two.",
		`{"hint":"  padded  ","hints":"x"}`: "padded",
		`{"clue":"from clue"}`:              "from clue",
		`{"tips":["a","b"]}`:                "a b",
	}
	for body, want := range cases {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(body)) })
		got, err := c.RequestHint(context.Background(), game.Round{Word: "dog"}, nil)
		if err != nil || got != want {
			t.Errorf("body %s: got %q, %v; want %q", body, got, err, want)
		}
	}
}

func TestRequestHintFailures(t *testing.T) {
	for _, body := range []string{`{}`, `{"hint":""}`, `{"error":"Failed to generate hint"}`, `{"clue":"x","tip":"y"}`, `{"clue":42}`} {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(body)) })
		_, err := c.RequestHint(context.Background(), game.Round{Word: "dog"}, nil)
		if !game.IsExternal(err) {
			t.Errorf("body %s: err = %v, want ExternalServiceError", body, err)
		}
	}
}

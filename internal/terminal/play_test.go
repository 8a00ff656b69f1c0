package terminal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mdonmez/taibu/internal/game"
)

type fakeGen struct{ failRound bool }

func (f fakeGen) RequestRound(ctx context.Context, topic string, d game.Difficulty) (game.Round, error) {
	if f.failRound {
		return game.Round{}, errors.New("offline")
	}
	return game.Round{Word: "dog", Banned: []string{"pet", "bark", "puppy", "canine", "leash"}}, nil
}

func (fakeGen) RequestHint(ctx context.Context, r game.Round, history []game.Guess) (string, error) {
	return fmt.Sprintf(`"a loyal friend, clue %d"`, len(history)+1), nil
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

var noColor = false

func newSession(t *testing.T, gen fakeGen, clock clockwork.Clock) *game.Session {
	t.Helper()
	s := game.NewSession("term", gen, gen, game.Options{Clock: clock})
	t.Cleanup(s.Close)
	return s
}

func TestPlayWin(t *testing.T) {
	sess := newSession(t, fakeGen{}, clockwork.NewFakeClock())
	out := &syncBuffer{}
	in := strings.NewReader("cat\n\ndog\nn\n")

	err := Play(context.Background(), sess, in, out, Options{Topic: "animals", Difficulty: "easy", Color: &noColor})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Welcome to Taboo Game!",
		"You have 5 attempts and 20 seconds",
		"Hint #1/5 (20s left):\nA loyal friend, clue 1.",
		"Hint #2/5 (20s left):\nA loyal friend, clue 2.",
		"Congratulations! You guessed the word 'dog' in 2 attempts!",
		"Banned words: pet, bark, puppy, canine, leash",
		"Play again? [y/N]:",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "\033[") {
		t.Error("colour escapes written with colours off")
	}
}

func TestPlayLossThenReplay(t *testing.T) {
	sess := newSession(t, fakeGen{}, clockwork.NewFakeClock())
	out := &syncBuffer{}
	in := strings.NewReader("a\nb\nc\nd\ne\ny\ndog\nno\n")

	if err := Play(context.Background(), sess, in, out, Options{Topic: "animals", Difficulty: "hard", Color: &noColor}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Game Over! The word was 'dog'") {
		t.Errorf("no loss message:\n%s", got)
	}
	if !strings.Contains(got, "in 1 attempts!") {
		t.Errorf("replayed round not won:\n%s", got)
	}
	if strings.Count(got, "Hint #1/5") != 2 {
		t.Errorf("expected two rounds:\n%s", got)
	}
}

func TestPlayTimeout(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sess := newSession(t, fakeGen{}, clock)
	out := &syncBuffer{}
	pr, pw := io.Pipe()

	errc := make(chan error, 1)
	go func() {
		errc <- Play(context.Background(), sess, pr, out, Options{Topic: "animals", Difficulty: "easy", Color: &noColor})
	}()

	blocked := make(chan struct{})
	go func() {
		clock.BlockUntil(1)
		close(blocked)
	}()
	select {
	case <-blocked:
	case <-time.After(2 * time.Second):
		t.Fatal("round clock never started")
	}
	waitUntil(t, func() bool { return strings.Contains(out.String(), "Enter your guess:") })
	clock.Advance(21 * time.Second)
	waitUntil(t, func() bool { return strings.Contains(out.String(), "Play again?") })
	_ = pw.Close()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Play: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Play did not return after EOF")
	}
	got := out.String()
	if !strings.Contains(got, "Time's up!") || !strings.Contains(got, "Game Over! The word was 'dog'") {
		t.Fatalf("output:\n%s", got)
	}
}

func TestPlayStartFailure(t *testing.T) {
	sess := newSession(t, fakeGen{failRound: true}, clockwork.NewFakeClock())
	out := &syncBuffer{}
	err := Play(context.Background(), sess, strings.NewReader(""), out, Options{Topic: "animals", Difficulty: "easy", Color: &noColor})
	if !game.IsExternal(err) {
		t.Fatalf("err = %v, want external service error", err)
	}
	if !strings.Contains(out.String(), "Game Error: round request failed: offline") {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestEOFTerminates(t *testing.T) {
	sess := newSession(t, fakeGen{}, clockwork.NewFakeClock())
	out := &syncBuffer{}
	if err := Play(context.Background(), sess, strings.NewReader("cat\n"), out, Options{Topic: "animals", Difficulty: "easy", Color: &noColor}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !strings.Contains(out.String(), "Game terminated by user.") {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestCleanHint(t *testing.T) {
	cases := map[string]string{
		`"it barks at strangers"`: "It barks at strangers.",
		"  it purrs!  ":           "It purrs!",
		"Is it loyal?":            "Is it loyal?",
		"éclair-like":             "Éclair-like.",
		`""`:                      "",
		"":                        "",
	}
	for in, want := range cases {
		if got := CleanHint(in); got != want {
			t.Errorf("CleanHint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWrap(t *testing.T) {
	got := wrap("one two three four", 9)
	if got != "one two\nthree\nfour" {
		t.Fatalf("wrap = %q", got)
	}
	if wrap("averyveryverylongword x", 5) != "averyveryverylongword\nx" {
		t.Fatal("long word not kept whole")
	}
}

func TestPainter(t *testing.T) {
	if painter(false).paint(Red, "x") != "x" {
		t.Fatal("disabled painter changed text")
	}
	if painter(true).paint(Red, "x") != "\033[31mx\033[0m" {
		t.Fatal("enabled painter did not colour text")
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

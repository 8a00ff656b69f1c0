// Package terminal plays Taboo rounds on a line-oriented terminal.
//
// The round clock keeps running while the player types: a round that times
// out ends at once, even with a half-typed guess on the line.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mdonmez/taibu/internal/game"
)

const hintWidth = 70

// errQuit ends the game without an error (EOF or cancelled context).
var errQuit = errors.New("quit")

// Options configure a terminal game.
type Options struct {
	Topic      string
	Difficulty string
	// Color forces colours on or off. Nil enables them on a TTY.
	Color *bool
}

type player struct {
	sess    *game.Session
	out     io.Writer
	lines   <-chan string
	updates <-chan game.Snapshot
	p       painter
	opts    Options
}

// Play runs rounds on sess until the player declines a replay, input ends, or
// ctx is cancelled. It returns an error only when a round cannot be started.
func Play(ctx context.Context, sess *game.Session, in io.Reader, out io.Writer, opts Options) error {
	color := isTTY(out)
	if opts.Color != nil {
		color = *opts.Color
	}

	done := make(chan struct{})
	defer close(done)

	updates := make(chan game.Snapshot, 1)
	_, unsubscribe, err := sess.Subscribe(func(s game.Snapshot) {
		if s.Screen != game.ScreenResult {
			return
		}
		select {
		case updates <- s:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer unsubscribe()

	pl := &player{
		sess:    sess,
		out:     out,
		lines:   readLines(in, done),
		updates: updates,
		p:       painter(color),
		opts:    opts,
	}
	return pl.run(ctx)
}

func (pl *player) run(ctx context.Context) error {
	pl.welcome()
	for {
		snap, err := pl.sess.StartRound(ctx, pl.opts.Topic, pl.opts.Difficulty)
		if err != nil {
			pl.printf(Red, "\nGame Error: %s\n", err)
			return err
		}
		log.Debug().Str("topic", snap.Topic).Msg("terminal round started")
		pl.hint(snap)

		final, err := pl.round(ctx)
		if errors.Is(err, errQuit) {
			pl.printf(Yellow, "\nGame terminated by user.\n")
			return nil
		}
		pl.gameOver(final)

		if !pl.again(ctx) {
			return nil
		}
		if _, err := pl.sess.Replay(ctx); err != nil {
			return err
		}
	}
}

// round reads guesses until the round reaches the result screen.
func (pl *player) round(ctx context.Context) (game.Snapshot, error) {
	select {
	case <-pl.updates:
	default:
	}
	for {
		pl.printf(Green, "\nEnter your guess: ")
		select {
		case <-ctx.Done():
			return game.Snapshot{}, errQuit

		case <-pl.updates:
			if snap, ok := pl.finished(ctx); ok {
				pl.printf(Red, "\n\nTime's up!\n")
				return snap, nil
			}

		case line, ok := <-pl.lines:
			if !ok {
				if snap, ok := pl.finished(ctx); ok {
					return snap, nil
				}
				return game.Snapshot{}, errQuit
			}
			snap, err := pl.sess.SubmitGuess(ctx, line)
			switch {
			case err == nil:
			case game.IsValidation(err):
				continue
			case errors.Is(err, game.ErrWrongScreen), errors.Is(err, game.ErrStaleResponse):
				// the clock ran out first
				if snap, ok := pl.finished(ctx); ok {
					pl.printf(Red, "\nTime's up!\n")
					return snap, nil
				}
				continue
			case errors.Is(err, game.ErrClosed):
				return game.Snapshot{}, errQuit
			default:
				pl.printf(Red, "\nGame Error: %s\n", err)
				continue
			}
			if snap.Screen == game.ScreenResult {
				return snap, nil
			}
			pl.hint(snap)
		}
	}
}

func (pl *player) finished(ctx context.Context) (game.Snapshot, bool) {
	snap, err := pl.sess.Snapshot(ctx)
	return snap, err == nil && snap.Screen == game.ScreenResult
}

func (pl *player) again(ctx context.Context) bool {
	pl.printf(Cyan, "\nPlay again? [y/N]: ")
	select {
	case line, ok := <-pl.lines:
		if !ok {
			return false
		}
		a := strings.ToLower(strings.TrimSpace(line))
		return a == "y" || a == "yes"
	case <-ctx.Done():
		return false
	}
}

func (pl *player) welcome() {
	pl.printf(Cyan, "\nWelcome to Taboo Game!\n")
	fmt.Fprintln(pl.out)
	fmt.Fprintln(pl.out, "Try to guess the secret word based on the hints provided.")
	fmt.Fprintln(pl.out, "The hints will try to describe the word without using certain taboo terms.")
	fmt.Fprintf(pl.out, "You have %d attempts and %d seconds to guess correctly!\n", pl.sess.MaxAttempts(), pl.sess.RoundSeconds())
}

func (pl *player) hint(s game.Snapshot) {
	pl.printf(Yellow, "\nHint #%d/%d (%ds left):\n", s.AttemptCount+1, s.MaxAttempts, s.TimerRemaining)
	fmt.Fprintln(pl.out, wrap(CleanHint(s.Hint), hintWidth))
}

func (pl *player) gameOver(s game.Snapshot) {
	if s.Outcome == game.OutcomeWin {
		pl.printf(Green, "\nCongratulations! You guessed the word '%s' in %d attempts!\n", s.Word, s.AttemptCount)
	} else {
		pl.printf(Red, "\nGame Over! The word was '%s'\n", s.Word)
	}
	if len(s.Banned) > 0 {
		fmt.Fprintf(pl.out, "Banned words: %s\n", strings.Join(s.Banned, ", "))
	}
}

func (pl *player) printf(c Color, format string, args ...any) {
	// keep leading newlines outside the colour escape
	msg := fmt.Sprintf(format, args...)
	trimmed := strings.TrimLeft(msg, "\n")
	lead := msg[:len(msg)-len(trimmed)]
	body := strings.TrimRight(trimmed, "\n")
	tail := trimmed[len(body):]
	fmt.Fprint(pl.out, lead+pl.p.paint(c, body)+tail)
}

// readLines feeds trimmed input lines to the returned channel, closing it at EOF.
func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-done:
				return
			}
		}
	}()
	return lines
}

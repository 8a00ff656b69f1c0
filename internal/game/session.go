// internal/game/session.go
//
// Session state machine for a single Taboo player.
// Responsibilities:
//   - setup → play → result screens (looplab/fsm), replay back to setup.
//   - Start rounds: request a round, then the first hint, then start the clock.
//   - Evaluate guesses with the similarity matcher; request a fresh hint after a miss.
//   - End rounds on a win, on attempt exhaustion, or when the clock runs out.
//
// Concurrency:
//   - All session state is owned by one loop goroutine. User actions, timer
//     ticks and network completions are closures posted to that loop.
//   - Network calls run on worker goroutines. While one is outstanding the
//     session is busy and rejects new rounds/guesses with ErrBusy.
//   - Every request carries a token. A completion whose token is no longer the
//     in-flight one is stale and discarded (ErrStaleResponse to its caller).
//   - Events are applied in arrival order: a guess that reaches the loop before
//     the expiring tick is evaluated; one that arrives after finds the result screen.

package game

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog"

	"github.com/mdonmez/taibu/internal/countdown"
	"github.com/mdonmez/taibu/internal/similarity"
)

const (
	DefaultMaxAttempts  = 5
	DefaultRoundSeconds = 20
)

// Screen transition events.
const (
	evStart  = "start"
	evFinish = "finish"
	evReplay = "replay"
)

const recordTimeout = 5 * time.Second

// Options tune a Session. Zero values fall back to the defaults above.
type Options struct {
	MaxAttempts  int
	RoundSeconds int
	Clock        clockwork.Clock
	Recorder     Recorder
	Logger       *zerolog.Logger
	Now          func() time.Time
}

// Session owns one player's round, guess history and clock.
type Session struct {
	id     string
	rounds RoundSource
	hints  HintSource
	rec    Recorder
	log    zerolog.Logger
	now    func() time.Time

	maxAttempts  int
	roundSeconds int

	ctx       context.Context
	cancel    context.CancelFunc
	events    chan func()
	exited    chan struct{}
	closeOnce sync.Once
	recording sync.WaitGroup // in-flight Recorder calls

	lastActive atomic.Int64

	// Everything below is owned by the loop goroutine.
	screens   *fsm.FSM
	timer     *countdown.Timer
	round     *Round
	hint      string
	attempts  int
	history   []Guess
	remaining int
	outcome   Outcome
	reason    Reason
	notice    string
	startedAt time.Time

	token    uint64 // last issued token
	inflight uint64 // 0 when idle
	timerTok uint64

	listeners    map[int]func(Snapshot)
	nextListener int
}

// NewSession creates a session on the setup screen and starts its loop.
// Call Close to release it.
func NewSession(id string, rounds RoundSource, hints HintSource, opts Options) *Session {
	s := &Session{
		id:           id,
		rounds:       rounds,
		hints:        hints,
		rec:          opts.Recorder,
		now:          opts.Now,
		maxAttempts:  opts.MaxAttempts,
		roundSeconds: opts.RoundSeconds,
		events:       make(chan func()),
		exited:       make(chan struct{}),
		timer:        countdown.New(opts.Clock),
		listeners:    make(map[int]func(Snapshot)),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = DefaultMaxAttempts
	}
	if s.roundSeconds <= 0 {
		s.roundSeconds = DefaultRoundSeconds
	}
	if opts.Logger != nil {
		s.log = opts.Logger.With().Str("session", id).Logger()
	} else {
		s.log = zerolog.Nop()
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.screens = fsm.NewFSM(
		string(ScreenSetup),
		fsm.Events{
			{Name: evStart, Src: []string{string(ScreenSetup)}, Dst: string(ScreenPlay)},
			{Name: evFinish, Src: []string{string(ScreenPlay)}, Dst: string(ScreenResult)},
			{Name: evReplay, Src: []string{string(ScreenResult)}, Dst: string(ScreenSetup)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.log.Debug().Str("event", e.Event).Str("from", e.Src).Str("to", e.Dst).Msg("screen")
			},
			"leave_" + string(ScreenPlay): func(_ context.Context, _ *fsm.Event) {
				s.timer.Cancel()
				s.timerTok = 0
			},
			"enter_" + string(ScreenSetup): func(_ context.Context, _ *fsm.Event) {
				s.reset()
			},
		},
	)
	s.touch()
	go s.loop()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// LastActive is the time of the last player action.
func (s *Session) LastActive() time.Time { return time.Unix(0, s.lastActive.Load()) }

// MaxAttempts is the number of guesses allowed per round.
func (s *Session) MaxAttempts() int { return s.maxAttempts }

// RoundSeconds is the length of a round.
func (s *Session) RoundSeconds() int { return s.roundSeconds }

// Done is closed once the session loop has exited.
func (s *Session) Done() <-chan struct{} { return s.exited }

// Close stops the loop and the clock. Outstanding requests are abandoned;
// round results still being recorded are waited for.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.exited
		s.recording.Wait()
		s.log.Debug().Msg("session closed")
	})
}

// StartRound moves setup → play once a round and its first hint have arrived.
// On any failure the session stays on setup and nothing is committed.
func (s *Session) StartRound(ctx context.Context, topic, difficulty string) (Snapshot, error) {
	s.touch()
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Snapshot{}, &ValidationError{Field: "topic", Reason: "must not be blank"}
	}
	d, err := ParseDifficulty(difficulty)
	if err != nil {
		return Snapshot{}, err
	}

	return s.call(ctx, func(done func(error)) {
		if s.screen() != ScreenSetup {
			done(ErrWrongScreen)
			return
		}
		if s.inflight != 0 {
			done(ErrBusy)
			return
		}
		tok := s.issue()
		s.notice = ""
		s.notify()

		go func() {
			round, hint, err := s.fetchRound(topic, d)
			s.post(func() { s.applyRound(tok, round, hint, err, done) })
		}()
	})
}

// SubmitGuess evaluates a guess on the play screen.
// Blank guesses are rejected without touching the attempt counter.
func (s *Session) SubmitGuess(ctx context.Context, text string) (Snapshot, error) {
	s.touch()
	text = strings.TrimSpace(text)
	if text == "" {
		return Snapshot{}, &ValidationError{Field: "guess", Reason: "must not be blank"}
	}

	return s.call(ctx, func(done func(error)) {
		if s.screen() != ScreenPlay {
			done(ErrWrongScreen)
			return
		}
		if s.inflight != 0 {
			done(ErrBusy)
			return
		}

		s.attempts++
		// Win is checked before exhaustion: a correct last guess still wins.
		if similarity.IsMatch(text, s.round.Word) {
			s.finish(OutcomeWin, ReasonGuessed)
			done(nil)
			return
		}
		s.history = append(s.history, Guess{Text: text, HintAtTime: s.hint})
		if s.attempts >= s.maxAttempts {
			s.finish(OutcomeLoss, ReasonExhausted)
			done(nil)
			return
		}

		tok := s.issue()
		s.notice = ""
		round, history := *s.round, slices.Clone(s.history)
		s.notify()

		go func() {
			hint, err := s.hints.RequestHint(s.ctx, round, history)
			if err != nil {
				err = asExternal("hint", err)
			}
			s.post(func() { s.applyHint(tok, hint, err, done) })
		}()
	})
}

// Replay returns from the result screen to setup, discarding the round.
func (s *Session) Replay(ctx context.Context) (Snapshot, error) {
	s.touch()
	return s.call(ctx, func(done func(error)) {
		if s.screen() != ScreenResult {
			done(ErrWrongScreen)
			return
		}
		s.transition(evReplay)
		s.notify()
		done(nil)
	})
}

// DismissNotice clears the transient error notice.
func (s *Session) DismissNotice(ctx context.Context) (Snapshot, error) {
	s.touch()
	return s.call(ctx, func(done func(error)) {
		if s.notice != "" {
			s.notice = ""
			s.notify()
		}
		done(nil)
	})
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	return s.call(ctx, func(done func(error)) { done(nil) })
}

// Subscribe registers fn to receive a snapshot after every change. fn runs on
// the session loop and must not block. The returned snapshot is the state at
// registration time; the returned func unregisters fn.
func (s *Session) Subscribe(fn func(Snapshot)) (Snapshot, func(), error) {
	var id int
	snap, err := s.call(context.Background(), func(done func(error)) {
		s.nextListener++
		id = s.nextListener
		s.listeners[id] = fn
		done(nil)
	})
	if err != nil {
		return Snapshot{}, nil, err
	}
	return snap, func() { s.post(func() { delete(s.listeners, id) }) }, nil
}

// ----------------------------- loop plumbing -------------------------------

type reply struct {
	snap Snapshot
	err  error
}

func (s *Session) loop() {
	defer close(s.exited)
	for {
		select {
		case fn := <-s.events:
			fn()
		case <-s.ctx.Done():
			s.timer.Cancel()
			return
		}
	}
}

// post hands fn to the loop. It reports false once the session is closed.
func (s *Session) post(fn func()) bool {
	select {
	case s.events <- fn:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// call runs fn on the loop and waits until fn (or a continuation it scheduled)
// reports completion through done.
func (s *Session) call(ctx context.Context, fn func(done func(error))) (Snapshot, error) {
	ch := make(chan reply, 1)
	done := func(err error) { ch <- reply{snap: s.snapshot(), err: err} }
	if !s.post(func() { fn(done) }) {
		return Snapshot{}, ErrClosed
	}
	select {
	case r := <-ch:
		return r.snap, r.err
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-s.ctx.Done():
		return Snapshot{}, ErrClosed
	}
}

func (s *Session) touch() { s.lastActive.Store(s.now().UnixNano()) }

func (s *Session) issue() uint64 {
	s.token++
	s.inflight = s.token
	return s.token
}

func (s *Session) screen() Screen { return Screen(s.screens.Current()) }

func (s *Session) transition(event string) {
	if err := s.screens.Event(context.Background(), event); err != nil {
		s.log.Error().Err(err).Str("event", event).Msg("screen transition rejected")
	}
}

// ------------------------------ transitions --------------------------------

// fetchRound runs off-loop: round first, then the opening hint.
func (s *Session) fetchRound(topic string, d Difficulty) (Round, string, error) {
	round, err := s.rounds.RequestRound(s.ctx, topic, d)
	if err != nil {
		return Round{}, "", asExternal("round", err)
	}
	round.Topic, round.Difficulty = topic, d
	hint, err := s.hints.RequestHint(s.ctx, round, nil)
	if err != nil {
		return Round{}, "", asExternal("hint", err)
	}
	return round, hint, nil
}

func (s *Session) applyRound(tok uint64, round Round, hint string, err error, done func(error)) {
	if tok != s.inflight {
		s.log.Debug().Uint64("token", tok).Msg("discarding stale round response")
		done(ErrStaleResponse)
		return
	}
	s.inflight = 0
	if err != nil {
		s.log.Warn().Err(err).Msg("start round failed")
		s.notice = err.Error()
		s.notify()
		done(err)
		return
	}

	s.round = &round
	s.attempts = 0
	s.history = nil
	s.hint = hint
	s.outcome, s.reason = "", ""
	s.startedAt = s.now()
	s.transition(evStart)
	s.startTimer()

	s.log.Info().
		Str("topic", round.Topic).
		Str("difficulty", string(round.Difficulty)).
		Msg("round started")
	s.notify()
	done(nil)
}

func (s *Session) applyHint(tok uint64, hint string, err error, done func(error)) {
	if tok != s.inflight {
		s.log.Debug().Uint64("token", tok).Msg("discarding stale hint response")
		done(ErrStaleResponse)
		return
	}
	s.inflight = 0
	if err != nil {
		// Keep the previous hint on screen.
		s.log.Warn().Err(err).Msg("hint request failed")
		s.notice = err.Error()
		s.notify()
		done(err)
		return
	}
	s.hint = hint
	s.notify()
	done(nil)
}

func (s *Session) startTimer() {
	s.token++
	tok := s.token
	s.timerTok = tok
	s.remaining = s.roundSeconds
	s.timer.Start(s.roundSeconds,
		func(remaining int) { s.post(func() { s.applyTick(tok, remaining) }) },
		func() { s.post(func() { s.applyExpire(tok) }) },
	)
}

func (s *Session) applyTick(tok uint64, remaining int) {
	if tok != s.timerTok || s.screen() != ScreenPlay {
		return
	}
	s.remaining = remaining
	s.notify()
}

func (s *Session) applyExpire(tok uint64) {
	if tok != s.timerTok || s.screen() != ScreenPlay {
		return
	}
	s.remaining = 0
	s.finish(OutcomeLoss, ReasonTimeout)
}

// finish moves play → result. Any outstanding hint request becomes stale.
func (s *Session) finish(outcome Outcome, reason Reason) {
	s.outcome, s.reason = outcome, reason
	s.inflight = 0
	s.transition(evFinish)

	res := Result{
		SessionID:  s.id,
		Topic:      s.round.Topic,
		Difficulty: s.round.Difficulty,
		Word:       s.round.Word,
		Outcome:    outcome,
		Reason:     reason,
		Attempts:   s.attempts,
		Elapsed:    s.now().Sub(s.startedAt),
		FinishedAt: s.now().UTC(),
	}
	s.log.Info().
		Str("outcome", string(outcome)).
		Str("reason", string(reason)).
		Int("attempts", s.attempts).
		Msg("round finished")
	s.notify()

	if s.rec != nil {
		s.recording.Add(1)
		go func() {
			defer s.recording.Done()
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()
			if err := s.rec.Record(ctx, res); err != nil {
				s.log.Warn().Err(err).Msg("record round result")
			}
		}()
	}
}

// reset runs on entering setup.
func (s *Session) reset() {
	s.timer.Cancel()
	s.timerTok = 0
	s.inflight = 0
	s.round = nil
	s.hint = ""
	s.attempts = 0
	s.history = nil
	s.remaining = 0
	s.outcome, s.reason = "", ""
	s.notice = ""
}

func (s *Session) notify() {
	if len(s.listeners) == 0 {
		return
	}
	snap := s.snapshot()
	for _, fn := range s.listeners {
		fn(snap)
	}
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		SessionID:      s.id,
		Screen:         s.screen(),
		Hint:           s.hint,
		AttemptCount:   s.attempts,
		MaxAttempts:    s.maxAttempts,
		Guesses:        slices.Clone(s.history),
		TimerRemaining: s.remaining,
		Busy:           s.inflight != 0,
		Outcome:        s.outcome,
		Reason:         s.reason,
		Notice:         s.notice,
	}
	if snap.Guesses == nil {
		snap.Guesses = []Guess{}
	}
	if s.round != nil {
		snap.Topic = s.round.Topic
		snap.Difficulty = s.round.Difficulty
		if snap.Screen == ScreenResult {
			snap.Word = s.round.Word
			snap.Banned = slices.Clone(s.round.Banned)
		}
	}
	return snap
}

func asExternal(op string, err error) error {
	if IsExternal(err) {
		return err
	}
	return &ExternalServiceError{Op: op, Err: err}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mdonmez/taibu/internal/config"
	"github.com/mdonmez/taibu/internal/daily"
	"github.com/mdonmez/taibu/internal/game"
	"github.com/mdonmez/taibu/internal/generator"
	"github.com/mdonmez/taibu/internal/history"
	"github.com/mdonmez/taibu/internal/httpserver"
	"github.com/mdonmez/taibu/internal/store"
	"github.com/mdonmez/taibu/internal/terminal"
	"github.com/mdonmez/taibu/internal/topics"
)

const usage = `usage: taibu [serve | play [flags]]

  serve   run the HTTP/websocket server (default)
  play    play in this terminal
`

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	setupLogging(cfg, cmd == "play")

	if err := topics.Init(cfg.TopicsFile); err != nil {
		log.Fatal().Err(err).Msg("failed to load topics")
	}

	gen := generator.New(cfg.GeneratorURL,
		generator.WithTimeout(cfg.GeneratorTimeout),
		generator.WithLanguage(cfg.Language),
		generator.WithLogger(log.Logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "serve":
		err = serve(ctx, cfg, gen)
	case "play":
		err = play(ctx, cfg, gen, args)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stderr, usage)
		return
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("cmd", cmd).Msg("exited")
	}
}

// setupLogging applies LOG_LEVEL and LOG_FORMAT. The terminal game always
// logs human-readable lines to stderr, warnings and above by default.
func setupLogging(cfg config.Config, interactive bool) {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if interactive && os.Getenv("LOG_LEVEL") == "" {
		lvl = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if interactive || cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func serve(ctx context.Context, cfg config.Config, gen *generator.Client) error {
	hist, err := history.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer hist.Close()

	mem := store.NewMemoryStore()
	defer mem.Close()
	go sweep(ctx, mem, cfg.SessionIdleTTL)

	srv := httpserver.New(cfg, mem, hist, gen)
	log.Info().Str("port", cfg.Port).Str("generator", cfg.GeneratorURL).Msg("starting taibu server")
	return srv.Start(ctx, ":"+cfg.Port)
}

// sweep evicts idle sessions until ctx is done.
func sweep(ctx context.Context, st store.Store, idle time.Duration) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := st.Sweep(ctx, idle); n > 0 {
				log.Info().Int("evicted", n).Int("live", st.Len()).Msg("idle sessions swept")
			}
		}
	}
}

func play(ctx context.Context, cfg config.Config, gen *generator.Client, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	topic := fs.String("topic", "sports", "round topic")
	difficulty := fs.String("difficulty", "easy", "easy, medium or hard")
	random := fs.Bool("random", false, "pick a random topic from the catalog")
	today := fs.Bool("daily", false, "play the topic of the day")
	noColor := fs.Bool("no-color", false, "disable coloured output")
	record := fs.Bool("record", true, "save finished rounds to the history database")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	switch {
	case *today:
		*topic = daily.Pick(time.Now(), cfg.DailySalt, topics.List()).Topic
	case *random:
		*topic = topics.Random()
	}

	opts := game.Options{MaxAttempts: cfg.MaxAttempts, RoundSeconds: cfg.RoundSeconds, Logger: &log.Logger}
	if *record {
		hist, err := history.Open(cfg.DBPath)
		if err != nil {
			log.Warn().Err(err).Msg("history disabled")
		} else {
			defer hist.Close()
			opts.Recorder = hist
		}
	}

	sess := game.NewSession("terminal", gen, gen, opts)
	defer sess.Close()

	popts := terminal.Options{Topic: *topic, Difficulty: *difficulty}
	if *noColor {
		off := false
		popts.Color = &off
	}
	return terminal.Play(ctx, sess, os.Stdin, os.Stdout, popts)
}

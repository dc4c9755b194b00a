package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/scythe504/skribblr-teams/internal/config"
	"github.com/scythe504/skribblr-teams/internal/flashcard"
	"github.com/scythe504/skribblr-teams/internal/game"
	"github.com/scythe504/skribblr-teams/internal/gateway"
	"github.com/scythe504/skribblr-teams/internal/logger"
	"github.com/scythe504/skribblr-teams/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.Setup(cfg.LogLevel, cfg.LogPretty)

	// --- Flashcards ---
	cards, checks, closeCards, err := openFlashcards(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCards()

	// --- Engine and gateway ---
	hub := gateway.NewHub()
	engine := game.NewEngine(game.NewSessionStore(), game.NewTimerRegistry(game.WallClock), cards, hub, game.Options{
		PointsPerCorrect:    cfg.Game.PointsPerCorrect,
		DefaultRounds:       cfg.Game.DefaultRounds,
		MaxRounds:           cfg.Game.MaxRounds,
		DefaultRoundSeconds: cfg.Game.DefaultRoundSeconds,
		MaxRoundSeconds:     cfg.Game.MaxRoundSeconds,
		Presence:            hub,
	})
	ws := gateway.NewHandler(hub, engine, gateway.HandlerOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		MessageRate:    cfg.MessageRate,
		MessageBurst:   cfg.MessageBurst,
	})

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, server.Deps{
		Engine:         engine,
		Hub:            hub,
		WS:             ws,
		Checks:         checks,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("[Main] starting http server")
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("[Main] shutting down")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

// openFlashcards prefers Postgres when DATABASE_URL is set and falls back to
// the CSV deck otherwise.
func openFlashcards(ctx context.Context, cfg *config.Config) (flashcard.Supplier, map[string]server.Checker, func(), error) {
	if cfg.DatabaseURL == "" {
		deck, err := flashcard.LoadCSV(cfg.WordsCSV)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("loading flashcard deck: %w", err)
		}
		log.Info().Int("cards", deck.Len()).Str("path", cfg.WordsCSV).Msg("[Main] using csv flashcards")
		checks := map[string]server.Checker{
			"flashcards": server.CheckerFunc(func(context.Context) error {
				if deck.Len() == 0 {
					return flashcard.ErrNoFlashcards
				}
				return nil
			}),
		}
		return deck, checks, func() {}, nil
	}

	if cfg.RunMigrations {
		if err := flashcard.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
		}
	}
	pg, err := flashcard.NewPostgresSupplier(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	log.Info().Msg("[Main] using postgres flashcards")
	return pg, map[string]server.Checker{"postgres": pg}, pg.Close, nil
}

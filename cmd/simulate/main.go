// Command simulate plays bot-only cribbage games outside Nakama. It is used
// to compare bot levels and to produce session documents for debugging.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"cribbage/internal/app"
	"cribbage/internal/bot"
	"cribbage/internal/config"
	"cribbage/internal/domain"
	"cribbage/internal/logging"
	"cribbage/internal/ports"
)

// options are read from CRIBBAGE_SIM_* variables and may be overridden by flags.
type options struct {
	Games    int    `env:"SIM_GAMES" envDefault:"10"`
	Parallel int    `env:"SIM_PARALLEL" envDefault:"4"`
	Levels   string `env:"SIM_LEVELS" envDefault:"greedy,smart"`
	Seed     uint64 `env:"SIM_SEED" envDefault:"1"`
	OutDir   string `env:"SIM_OUT_DIR"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON"`
}

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	var opts options
	if err := env.ParseWithOptions(&opts, env.Options{Prefix: config.EnvPrefix}); err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(2)
	}
	cfg := config.Default()
	if err := config.ApplyEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(2)
	}

	flag.IntVar(&opts.Games, "games", opts.Games, "number of games to play")
	flag.IntVar(&opts.Parallel, "parallel", opts.Parallel, "games played at once")
	flag.StringVar(&opts.Levels, "levels", opts.Levels, "comma separated bot level per seat")
	flag.Uint64Var(&opts.Seed, "seed", opts.Seed, "base shuffle seed")
	flag.StringVar(&opts.OutDir, "out", opts.OutDir, "directory for session documents")
	flag.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "debug, info, warn or error")
	flag.BoolVar(&opts.LogJSON, "log-json", opts.LogJSON, "log as JSON")
	flag.Parse()

	logger := logging.New(os.Stderr, opts.LogLevel, opts.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, opts, cfg); err != nil {
		logger.Error("simulate: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger runtime.Logger, opts options, cfg config.GameConfig) error {
	levels, err := parseLevels(opts.Levels)
	if err != nil {
		return err
	}
	if _, err := domain.RulesFor(len(levels)); err != nil {
		return fmt.Errorf("%d seats: %w", len(levels), err)
	}
	var store ports.SessionStore
	if opts.OutDir != "" {
		if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		store = fileStore{dir: opts.OutDir}
	}

	tally := newTally()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Parallel, 1))
	for i := 0; i < opts.Games; i++ {
		seed := opts.Seed + uint64(i)
		g.Go(func() error {
			winner, err := playOne(ctx, logger, cfg, levels, seed, store)
			if err != nil {
				return fmt.Errorf("game %d: %w", seed, err)
			}
			tally.add(winner)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for seat, level := range levels {
		id := seatID(seat)
		logger.WithField("seat", seat).Info("%s (%s) won %d of %d", id, level, tally.wins(id), opts.Games)
	}
	return nil
}

func parseLevels(s string) ([]bot.BotLevel, error) {
	var levels []bot.BotLevel
	for _, part := range strings.Split(s, ",") {
		level, err := bot.ParseBotLevel(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, nil
}

func seatID(seat int) string { return fmt.Sprintf("seat-%d", seat) }

func playOne(ctx context.Context, logger runtime.Logger, cfg config.GameConfig, levels []bot.BotLevel, seed uint64, store ports.SessionStore) (string, error) {
	seats := make([]app.Seat, len(levels))
	for i, level := range levels {
		seats[i] = app.Seat{UserID: seatID(i), Name: fmt.Sprintf("%s bot %d", level, i)}
	}
	gameID := fmt.Sprintf("sim-%d", seed)
	game, err := app.NewService(store, domain.WithSeed(seed, seed^0x9e3779b97f4a7c15)).StartGame(gameID, seats)
	if err != nil {
		return "", err
	}

	agents := make(map[string]app.Agent, len(levels))
	sinks := make([]ports.SnapshotSink, 0, len(levels))
	for i, level := range levels {
		brain, err := bot.NewBrain(level)
		if err != nil {
			return "", err
		}
		agent := bot.NewAgent(seatID(i), seats[i].Name, brain, bot.WithSeed(seed, uint64(i)))
		agents[agent.ID] = agent
		sinks = append(sinks, agent)
	}

	gameLogger := logger.WithField("game_id", gameID)
	opts := []app.OrchestratorOption{
		app.WithLogger(gameLogger),
		app.WithSinks(sinks...),
		app.WithMaxInvalidAttempts(cfg.MaxInvalidAttempts),
		app.WithFallback(bot.NewAgent("", "fallback", &bot.GreedyBot{})),
	}
	if store != nil {
		opts = append(opts, app.WithCheckpoint(store))
	}
	o, err := app.NewOrchestrator(game, agents, opts...)
	if err != nil {
		return "", err
	}

	start := time.Now()
	winner, err := o.Run(ctx)
	if err != nil {
		return "", err
	}
	gameLogger.Debug("won by %s after %d rounds in %s", winner, game.RoundNumber(), time.Since(start))
	return winner, nil
}

// fileStore keeps one session document per game in a directory.
type fileStore struct {
	dir string
}

func (s fileStore) Save(_ context.Context, gameID string, doc []byte) error {
	return os.WriteFile(filepath.Join(s.dir, gameID+".json"), doc, 0o644)
}

func (s fileStore) Load(_ context.Context, gameID string) ([]byte, error) {
	doc, err := os.ReadFile(filepath.Join(s.dir, gameID+".json"))
	if os.IsNotExist(err) {
		return nil, ports.ErrSessionNotFound
	}
	return doc, err
}

type tally struct {
	mu    sync.Mutex
	count map[string]int
}

func newTally() *tally { return &tally{count: make(map[string]int)} }

func (t *tally) add(winner string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count[winner]++
}

func (t *tally) wins(id string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count[id]
}

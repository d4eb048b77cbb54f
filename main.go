package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"railway/engine"
	"railway/game"
	"railway/history"
	"railway/protocol"
	"railway/step"
	"railway/store"
	"railway/title"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type config struct {
	Title   string   `env:"RAILWAY_TITLE" envDefault:"steam_over_holland"`
	Variant string   `env:"RAILWAY_VARIANT"`
	Players []string `env:"RAILWAY_PLAYERS" envSeparator:"," envDefault:"alice,bob,carol"`
	Seed    uint64   `env:"RAILWAY_SEED" envDefault:"1"`
	// Floats are corp:president:par triples standing in for the stock round.
	Floats []string `env:"RAILWAY_FLOATS" envSeparator:","`
	// Owners hands private companies to players.
	Owners map[string]string `env:"RAILWAY_OWNERS" envSeparator:"," envKeyValSeparator:":"`

	Actions    string `env:"RAILWAY_ACTIONS"`
	History    string `env:"RAILWAY_HISTORY"`
	Snapshot   string `env:"RAILWAY_SNAPSHOT"`
	DB         string `env:"RAILWAY_DB"`
	Resume     string `env:"RAILWAY_RESUME"`
	Goroutines int    `env:"RAILWAY_ROUTE_GOROUTINES" envDefault:"4"`
	LogLevel   string `env:"RAILWAY_LOG_LEVEL" envDefault:"info"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if err := run(context.Background(), cfg); err != nil {
		log.Error().Err(err).Msg("game stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config) error {
	t, err := title.Lookup(cfg.Title)
	if err != nil {
		return err
	}
	if cfg.Goroutines > 0 {
		t.Auto = step.NewAutoRouter(step.WithGoroutines(cfg.Goroutines))
	}

	var db *store.SQLite
	if cfg.DB != "" {
		if db, err = store.OpenSQLite(cfg.DB); err != nil {
			return err
		}
		defer db.Close()
	}

	var opts []engine.Option
	if cfg.History != "" {
		w, err := history.Create(cfg.History)
		if err != nil {
			return err
		}
		defer w.Close()
		opts = append(opts, engine.WithRecorder(w))
	}

	e, err := start(ctx, cfg, t, db, opts)
	if err != nil {
		return err
	}

	if cfg.Actions != "" {
		f, err := os.Open(cfg.Actions)
		if err != nil {
			return err
		}
		actions, err := protocol.ReadAll(f)
		f.Close()
		if err != nil {
			return err
		}
		for i, a := range actions {
			res, err := e.Process(a)
			if err != nil {
				return fmt.Errorf("action %d (%s): %w", i+1, a, err)
			}
			log.Debug().Msgf("next %s may %v", res.Next, res.Actions)
			if res.Over {
				break
			}
		}
	}

	snap := e.Snapshot()
	if db != nil {
		if err := db.Save(ctx, snap); err != nil {
			return err
		}
	}
	if cfg.Snapshot != "" {
		if err := store.WriteFile(cfg.Snapshot, snap); err != nil {
			return err
		}
	}

	gs := e.State()
	if gs.Finished {
		log.Info().Msgf("game %s is over", e.ID())
	} else {
		log.Info().Msgf("game %s waits on %s: %v", e.ID(), e.Entity(), e.Actions(e.Entity()))
	}
	for i, s := range gs.Standings() {
		log.Info().Msgf("%d. %s %s", i+1, s.Player, gs.Rules.Format(s.Worth))
	}
	return nil
}

func start(ctx context.Context, cfg config, t *title.Title, db *store.SQLite, opts []engine.Option) (*engine.Engine, error) {
	if cfg.Resume != "" {
		var (
			snap engine.Snapshot
			err  error
		)
		if db != nil {
			snap, err = db.Latest(ctx, cfg.Resume)
		} else {
			snap, err = store.ReadFile(cfg.Resume)
		}
		if err != nil {
			return nil, err
		}
		return engine.Resume(t, snap, opts...)
	}

	floats, err := parseFloats(cfg.Floats)
	if err != nil {
		return nil, err
	}
	gs, err := t.NewGame(title.Options{
		Players: cfg.Players,
		Seed:    cfg.Seed,
		Variant: cfg.Variant,
		Floats:  floats,
		Owners:  cfg.Owners,
	})
	if err != nil {
		return nil, err
	}
	return engine.New(t, gs, opts...)
}

func parseFloats(specs []string) ([]title.Float, error) {
	out := make([]title.Float, 0, len(specs))
	for _, s := range specs {
		parts := strings.Split(s, ":")
		if len(parts) != 3 {
			return nil, game.Misconfigured("float %q is not corp:president:par", s)
		}
		par, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, game.Misconfigured("float %q has a bad par", s)
		}
		out = append(out, title.Float{Corporation: parts[0], President: parts[1], Par: par})
	}
	return out, nil
}

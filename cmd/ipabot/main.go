// Command ipabot is the main entry point for the ipabot Discord assistant.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/ipabot/internal/config"
	discordbot "github.com/MrWong99/ipabot/internal/discord"
	"github.com/MrWong99/ipabot/internal/discord/commands"
	"github.com/MrWong99/ipabot/internal/health"
	"github.com/MrWong99/ipabot/internal/observe"
	"github.com/MrWong99/ipabot/internal/store"
	"github.com/MrWong99/ipabot/internal/xlit"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// Reply records older than replyRetention are pruned; edits and deletes of
// messages that old no longer propagate.
const (
	replyRetention = 30 * 24 * time.Hour
	pruneInterval  = time.Hour
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "ipabot: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "ipabot: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Server.LogLevel.Level(),
	}))
	slog.SetDefault(logger)

	slog.Info("ipabot starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"rules_dir", cfg.Rules.Dir,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Storage ───────────────────────────────────────────────────────────────
	var st store.Store
	checks := health.New()
	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			slog.Error("failed to create postgres pool", "err", err)
			return 1
		}
		defer pool.Close()

		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			slog.Error("failed to migrate schema", "err", err)
			return 1
		}
		st = pg
		checks.AddCheck("postgres", pool.Ping)
		slog.Info("using postgres store")
	} else {
		st = store.NewMemStore()
		slog.Info("using in-memory store; reply bookkeeping will not survive restarts")
	}

	// ── Rule engine ───────────────────────────────────────────────────────────
	engine, err := xlit.LoadDir(cfg.Rules.Dir)
	if err != nil {
		slog.Error("failed to load rule library", "dir", cfg.Rules.Dir, "err", err)
		return 1
	}
	slog.Info("rule library loaded", "rule_sets", len(engine.RuleSets()))

	// ── Discord bot ───────────────────────────────────────────────────────────
	bot, err := discordbot.New(discordbot.Config{
		Token:       cfg.Discord.Token,
		OwnerID:     cfg.Discord.OwnerID,
		ReplyBudget: cfg.Discord.ReplyBudget,
	}, engine, st, metrics)
	if err != nil {
		slog.Error("failed to connect to Discord", "err", err)
		return 1
	}

	checks.AddCheck("engine", func(context.Context) error {
		if len(bot.Engine().RuleSets()) == 0 {
			return errors.New("no rule sets loaded")
		}
		return nil
	})

	commands.NewAlphabetCommands(commands.AlphabetConfig{Bot: bot})
	commands.NewReloadCommands(commands.ReloadConfig{
		Bot:  bot,
		Load: func() (*xlit.Engine, error) { return xlit.LoadDir(cfg.Rules.Dir) },
	})
	commands.NewNotifyCommands(commands.NotifyConfig{Bot: bot, Store: st})

	// ── HTTP server (health + metrics) ────────────────────────────────────────
	mux := http.NewServeMux()
	checks.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// ── Run ───────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := bot.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("discord bot: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				cutoff := time.Now().Add(-replyRetention)
				n, err := st.PruneReplies(gctx, cutoff)
				if err != nil {
					slog.Warn("reply prune failed", "err", err)
					continue
				}
				if n > 0 {
					slog.Info("pruned stale reply records", "count", n)
				}
			}
		}
	})

	slog.Info("ipabot ready — press Ctrl+C to shut down")

	err = g.Wait()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutting down…")
	if closeErr := bot.Close(); closeErr != nil {
		slog.Warn("discord bot close error", "err", closeErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	api "github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/api/http"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/auth"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/config"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/db"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/essay"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/grading/llm"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/logger"
	"github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/metrics"
	syncx "github.com/s2114604/EssayAI-Assessment-Tool-For-Learning-sub000/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	store, users, events, closeDB, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal("db open failed", "driver", cfg.DBDriver, "error", err)
	}
	defer closeDB()

	if err := auth.EnsureAdmin(ctx, users, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		log.Fatal("seed admin failed", "error", err)
	}

	// --- Grading ---
	opts := append(cfg.GradingOptions(), grading.WithLogger(log.With("component", "grading")))
	if cfg.ExternalGraderEnabled() {
		client, err := llm.New(cfg.LLM(), log.With("component", "llm"))
		if err != nil {
			log.Fatal("external grader config", "error", err)
		}
		opts = append(opts, grading.WithExternal(client))
	}
	engine := grading.NewEngine(opts...)

	m := metrics.New()
	svc := essay.NewService(store, engine,
		essay.WithLogger(log.With("component", "essay")),
		essay.WithMetrics(m),
		essay.WithEvents(events),
		essay.WithGradingTimeout(cfg.GradingTimeout),
		essay.WithStaleAfter(cfg.StaleGradingAfter),
	)

	sweeper, err := essay.NewSweeper(svc, cfg.SweepSchedule)
	if err != nil {
		log.Fatal("sweep schedule", "schedule", cfg.SweepSchedule, "error", err)
	}

	// --- HTTP ---
	router := api.NewRouter(api.Deps{
		Service:        svc,
		Auth:           auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL),
		Users:          users,
		Metrics:        m,
		Log:            log.With("component", "http"),
		CORSOrigins:    cfg.CORSOriginList(),
		RequestTimeout: cfg.GradingTimeout + 30*time.Second,
		AccessLog:      true,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.GradingTimeout + 45*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening",
			"addr", cfg.HTTPAddr,
			"mode", cfg.Mode,
			"db", cfg.DBDriver,
			"external_grader", cfg.ExternalGraderEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sweeper.Start()
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		sweeper.Stop(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		return
	}
	log.Info("shutdown complete")
}

// openStores returns the essay, user and event stores for the configured driver.
func openStores(ctx context.Context, cfg *config.Config) (essay.Store, auth.UserStore, syncx.Log, func(), error) {
	if db.Driver(cfg.DBDriver) == db.DriverMemory {
		return essay.NewMemoryStore(), auth.NewMemoryUserStore(), syncx.NewMemoryLog(), func() {}, nil
	}
	octx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(octx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return essay.NewSQLStore(dbh), auth.NewSQLUserStore(dbh), syncx.NewEventRepo(dbh), func() { closeQuietly(dbh) }, nil
}

func closeQuietly(dbh *sql.DB) { _ = dbh.Close() }

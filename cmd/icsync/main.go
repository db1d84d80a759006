package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"icsync/internal/calendar"
	"icsync/internal/config"
	"icsync/internal/ledger"
	appLog "icsync/internal/log"
	"icsync/internal/metrics"
	"icsync/internal/run"
	"icsync/internal/source"
)

type flagConfig struct {
	configPath string
	once       bool
	dryRun     bool
}

func main() {
	flags := parseFlags()

	// A .env next to the binary may provide ICSYNC_* overrides; absence
	// is not an error.
	_ = godotenv.Load()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	conf.ApplyEnv()
	appLog.SetLevel(conf.LogLevel)

	appLog.Info("icsync starting",
		"source_url", conf.Source.URL != "",
		"source_path", conf.Source.Path,
		"calendar", conf.Calendar,
		"ledger", conf.Ledger,
		"once", flags.once,
		"dry_run", flags.dryRun,
	)

	src, err := buildSource(conf)
	if err != nil {
		appLog.Error("invalid source configuration", err)
		os.Exit(1)
	}

	m := metrics.New()
	runner := &run.Runner{
		Source:     src,
		Store:      calendar.NewFileStore(conf.Calendar),
		Ledger:     ledger.New(conf.Ledger),
		Metrics:    m,
		BatchSize:  conf.BatchSize,
		BatchPause: conf.BatchPause(),
		DryRun:     flags.dryRun,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.once {
		if _, err := runner.Run(ctx); err != nil {
			appLog.Error("run failed", err)
			os.Exit(1)
		}
		return
	}

	runDaemon(ctx, conf, runner, m)
}

func buildSource(conf *config.Config) (source.Source, error) {
	switch {
	case conf.Source.URL != "":
		return source.NewHTTP(conf.Source.URL, conf.CacheDir), nil
	case conf.Source.Path != "":
		return source.File{Path: conf.Source.Path}, nil
	default:
		return nil, errors.New("neither source.url nor source.path is set")
	}
}

func runDaemon(ctx context.Context, conf *config.Config, runner *run.Runner, m *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: conf.Listen, Handler: mux}
	go func() {
		appLog.Info("metrics listening", "addr", conf.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("metrics server failed", err)
		}
	}()

	c := cron.New()
	if _, err := c.AddFunc(conf.Refresh, func() {
		if _, err := runner.Run(ctx); err != nil {
			appLog.Error("scheduled run failed", err)
		}
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.Refresh)
		os.Exit(1)
	}
	c.Start()

	// One immediate pass so a fresh daemon is useful before the first tick.
	if _, err := runner.Run(ctx); err != nil {
		appLog.Error("initial run failed", err)
	}

	<-ctx.Done()

	cronCtx := c.Stop()
	<-cronCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	appLog.Info("icsync exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/icsync/config.yaml", "Path to config file")
	flag.BoolVar(&cfg.once, "once", false, "Run one sync pass and exit")
	flag.BoolVar(&cfg.dryRun, "dry-run", false, "Parse and reconcile but do not create events or touch the ledger")

	flag.Parse()

	return cfg
}

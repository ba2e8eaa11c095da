package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/term"

	"PocketCalc/internal/config"
	"PocketCalc/internal/console"
	"PocketCalc/internal/history"
	"PocketCalc/internal/logger"
	"PocketCalc/internal/metrics"
	"PocketCalc/internal/model"
	"PocketCalc/internal/notifier"
	"PocketCalc/internal/rates"
	"PocketCalc/internal/recorder"
	"PocketCalc/internal/scheduler"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New("pocketcalc", cfg.Log.File, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("PocketCalc starting", zap.String("config", cfgPath))

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.Metrics.ListenAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.ListenAddr, reg, log); err != nil {
				log.Error("metrics endpoint failed", zap.Error(err))
			}
		}()
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		log.Info("sqlite recorder disabled")
		rec = recorder.NewNoopRecorder()
	}

	// Rate table: defaults, then the last saved snapshot
	table := rates.NewTable()
	if ok, err := rates.Restore(table, cfg.Rates.CacheFile); err != nil {
		log.Warn("restore rate cache failed", zap.String("path", cfg.Rates.CacheFile), zap.Error(err))
	} else if ok {
		log.Info("rates restored from cache", zap.Time("updated_at", table.Snapshot().UpdatedAt))
	}

	fetcher := rates.NewExchangeRateAPIFetcher(cfg.Rates.SourceURL, cfg.Proxy, cfg.Rates.Timeout)
	log.Info("rate source", zap.String("name", fetcher.Name()), zap.String("url", fetcher.URL))
	updater := rates.NewUpdater(table, fetcher, log,
		rates.WithCache(cfg.Rates.CacheFile),
		rates.WithRecorder(rec),
		rates.WithMetrics(m),
	)

	// History
	hist, err := history.Load(cfg.History.File)
	if err != nil {
		log.Warn("load history failed, starting empty", zap.String("path", cfg.History.File), zap.Error(err))
		hist = history.NewLog()
	}

	from, _ := model.ParseCurrency(cfg.Display.From)
	to, _ := model.ParseCurrency(cfg.Display.To)
	con := console.New(ctx, console.Deps{
		History:         hist,
		HistoryFile:     cfg.History.File,
		Updater:         updater,
		Recorder:        rec,
		Metrics:         m,
		Logger:          log,
		From:            from,
		To:              to,
		RefreshCooldown: cfg.Rates.RefreshCooldown,
	})

	out := notifier.NewConsoleNotifier(os.Stdout, log, false)
	raw := term.IsTerminal(int(os.Stdin.Fd()))
	if !raw {
		// status lines for every refresh, then re-run the last conversion;
		// raw mode prints them from its own loop
		go out.Listen(ctx, updater.Notifications(), con.OnRatesUpdated)
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, updater, log)
	if err := sched.RegisterAll(cfg.Rates.RefreshCron); err != nil {
		log.Fatal("register cron tasks", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	// Fetch live rates on start
	go sched.RunNow()

	out.Send(notifier.FormatRatesSummary(table))
	out.Send("Type :help for commands, q or Ctrl+C to quit")

	if raw {
		err = con.RunRaw(ctx, os.Stdin, os.Stdout, out, updater.Notifications())
	} else {
		err = con.RunLines(ctx, os.Stdin, out)
	}
	if err != nil {
		log.Error("input loop failed", zap.Error(err))
	}

	log.Info("PocketCalc stopped")
}

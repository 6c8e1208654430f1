package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rahul/synthetics/internal/agent"
	"github.com/rahul/synthetics/internal/gateway"
	"github.com/rahul/synthetics/internal/journey"
	"github.com/rahul/synthetics/internal/journeys"
	"github.com/rahul/synthetics/internal/observability"
	"github.com/rahul/synthetics/internal/simulator"
	"github.com/rahul/synthetics/internal/store"
	"github.com/rahul/synthetics/pkg/config"
)

func main() {
	os.Exit(runMain())
}

// runMain returns the process exit code.
func runMain() int {
	configPath := flag.String("config", "", "path to a JSON or YAML config file")
	journeyName := flag.String("journey", "", "registered journey to run")
	startURL := flag.String("url", "", "override the journey start URL")
	list := flag.Bool("list", false, "list registered journeys and exit")
	interval := flag.Duration("interval", 0, "re-run the journey on this interval until interrupted")
	history := flag.String("history", "", "print the stored runs of a journey and exit")
	historyLimit := flag.Int("history-limit", 10, "number of runs printed by -history")
	flag.Parse()

	registry := journeys.Default()
	if *list {
		for _, name := range registry.Names() {
			fmt.Println(name)
		}
		return 0
	}

	observability.PrintBanner(os.Stderr, "synthetic journey runner")
	log.SetOutput(os.Stderr)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Print(err)
			return 1
		}
	}
	if *journeyName != "" {
		cfg.App.Journey = *journeyName
	}
	if *startURL != "" {
		cfg.App.StartURL = *startURL
	}
	if *interval > 0 {
		cfg.Schedule.Interval = interval.String()
	}

	timeout, err := cfg.Timeout()
	if err != nil {
		log.Print(err)
		return 1
	}
	if *history != "" {
		if err := printHistory(cfg, *history, *historyLimit); err != nil {
			log.Print(err)
			return 1
		}
		return 0
	}

	every, err := cfg.Interval()
	if err != nil {
		log.Print(err)
		return 1
	}

	j, err := registry.Get(cfg.App.Journey, journeys.Options{StartURL: cfg.App.StartURL, Timeout: timeout})
	if err != nil {
		log.Print(err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := startTracing(cfg)
		if err != nil {
			log.Print(err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Printf("Failed to flush traces: %v", err)
			}
		}()
	}

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr)
	}

	var runs *store.RunStore
	if cfg.Store.Enabled {
		runs, err = store.NewRunStore(cfg.Store.Path)
		if err != nil {
			log.Print(err)
			return 1
		}
		defer runs.Close()
	}

	messengers := buildMessengers(cfg)
	logger := observability.NewLogger(os.Stdout, cfg.App.EventLog)

	sim, err := simulator.New(cfg, logger)
	if err != nil {
		log.Print(err)
		return 1
	}
	env, err := sim.Start(ctx)
	if err != nil {
		log.Printf("Failed to start browser: %v", err)
		return 1
	}
	defer sim.Close()

	run := func(ctx context.Context) (*journey.Result, error) {
		res, err := j.Run(ctx, env, logger)
		if err != nil {
			return nil, err
		}
		if runs != nil {
			if err := runs.SaveRun(res); err != nil {
				log.Printf("Failed to save run %s: %v", res.RunID, err)
			}
		}
		if err := gateway.Notify(messengers, res, env.Descriptor); err != nil {
			log.Printf("Failed to deliver alert: %v", err)
		}
		return res, nil
	}

	if every > 0 {
		agent.NewScheduler(j.Name, every, run, logger).Start(ctx)
		return 0
	}

	res, err := run(ctx)
	if err != nil {
		log.Print(err)
		return 1
	}
	if !res.Passed() {
		log.Print(res.Err())
		return 1
	}
	return 0
}

func startTracing(cfg *config.Config) (*observability.TracerProvider, error) {
	var w io.Writer = os.Stderr
	if cfg.Tracing.Output != "" {
		f, err := os.OpenFile(cfg.Tracing.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace output: %w", err)
		}
		w = f
	}
	return observability.NewTracerProvider(cfg.App.Name, w)
}

func printHistory(cfg *config.Config, journeyName string, limit int) error {
	runs, err := store.NewRunStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer runs.Close()
	return runs.WriteHistory(os.Stdout, journeyName, limit)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())
	mux.Handle("/status", observability.StatusHandler())
	log.Printf("Serving metrics on %s/metrics and status on %s/status", addr, addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("Metrics server stopped: %v", err)
	}
}

func buildMessengers(cfg *config.Config) []gateway.Messenger {
	var messengers []gateway.Messenger
	if tgCfg, ok := cfg.GetGateway("telegram"); ok {
		tg, err := gateway.NewTelegramGateway(tgCfg.Token, tgCfg.ChatID)
		if err != nil {
			log.Printf("Warning: Telegram alerts disabled: %v", err)
		} else {
			messengers = append(messengers, tg)
		}
	}
	if dcCfg, ok := cfg.GetGateway("discord"); ok {
		dg, err := gateway.NewDiscordGateway(dcCfg.Token, dcCfg.ChatID)
		if err != nil {
			log.Printf("Warning: Discord alerts disabled: %v", err)
		} else {
			messengers = append(messengers, dg)
		}
	}
	return messengers
}

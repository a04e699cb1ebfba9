// Command emitter-demo runs an event bus with a few demo subscribers,
// emitting synthetic events until interrupted. It exposes the bus
// Prometheus metrics and a health endpoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"emitter"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := loadConfig(os.Getenv("EMITTER_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	var metrics *emitter.Metrics
	if cfg.Monitoring.PrometheusEnabled {
		metrics = emitter.NewMetrics("emitter")
	}

	bus := emitter.New(&emitter.Config{
		Logger:  &logger,
		Metrics: metrics,
	})

	if _, err := bus.SubscribeOnce("demo.started", func(args ...any) error {
		logger.Info().Interface("at", args[0]).Msg("demo started")
		return nil
	}); err != nil {
		logger.Fatal().Err(err).Msg("subscribe error")
	}

	if _, err := bus.Subscribe("demo.tick", func(args ...any) error {
		logger.Info().Interface("seq", args[0]).Msg("tick")
		return nil
	}); err != nil {
		logger.Fatal().Err(err).Msg("subscribe error")
	}

	var ticks atomic.Int64
	if _, err := bus.Subscribe("demo.tick", func(args ...any) error {
		ticks.Add(1)
		return nil
	}); err != nil {
		logger.Fatal().Err(err).Msg("subscribe error")
	}

	// A deliberately flaky subscriber to show failure isolation on the
	// failure counter: it errors without disturbing the others.
	if cfg.Demo.FailEvery > 0 {
		failEvery := int64(cfg.Demo.FailEvery)
		if _, err := bus.Subscribe("demo.tick", func(args ...any) error {
			if seq, ok := args[0].(int64); ok && seq%failEvery == 0 {
				return fmt.Errorf("flaky subscriber rejected tick %d", seq)
			}
			return nil
		}); err != nil {
			logger.Fatal().Err(err).Msg("subscribe error")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, &logger)
	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	logger.Info().
		Strs("events", bus.EventNames()).
		Int("tick_subscribers", bus.SubscriberCount("demo.tick")).
		Msg("emitter demo started")

	bus.Emit("demo.started", time.Now())

	ticker := time.NewTicker(cfg.tickInterval())
	defer ticker.Stop()

	var seq int64
	for {
		select {
		case <-ctx.Done():
			logger.Info().Int64("ticks_counted", ticks.Load()).Msg("emitter demo stopped")
			return
		case <-ticker.C:
			seq++
			bus.Emit("demo.tick", seq)
		}
	}
}

func startHealthServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

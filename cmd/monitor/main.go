package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Cedriik/CCTVBoardDraft/internal/core/services"
	"github.com/Cedriik/CCTVBoardDraft/internal/infrastructure/capture"
	"github.com/Cedriik/CCTVBoardDraft/internal/infrastructure/monitoring"
	"github.com/Cedriik/CCTVBoardDraft/internal/infrastructure/publish"
	"github.com/Cedriik/CCTVBoardDraft/internal/infrastructure/web"
	"github.com/Cedriik/CCTVBoardDraft/pkg/config"
	"github.com/Cedriik/CCTVBoardDraft/pkg/logger"
	"github.com/Cedriik/CCTVBoardDraft/pkg/tracing"
)

func main() {
	configPath := os.Getenv("CCTV_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startCtx, startSpan := tracing.StartSpan(ctx, "monitor.startup")

	// Capture pipeline: raw socket -> classifier -> adapter.
	source, err := capture.NewRawSocketSource(cfg.Capture.BindAddress, cfg.Capture.ReadTimeout)
	if err != nil {
		tracing.RecordError(startCtx, err)
		startSpan.End()
		log.Fatalw("failed to open capture source", "error", err,
			"hint", "raw sockets require CAP_NET_RAW")
	}

	classifier := capture.NewPacketClassifier(capture.ClassifierConfig{
		RTPPortMin: cfg.Analysis.RTPPortMin,
		RTPPortMax: cfg.Analysis.RTPPortMax,
		RTSPPort:   cfg.Analysis.RTSPPort,
		StreamPort: cfg.Analysis.StreamPort,
	})
	adapter := capture.NewAdapter(source, classifier, cfg.Capture.BufferSize, log)

	// Analysis engine and quality grading.
	analyzer := services.NewAnalyzerService(services.AnalyzerConfig{
		HistorySize:         cfg.Analysis.PacketHistory,
		VideoClockRate:      cfg.Analysis.VideoClockRate,
		AudioClockRate:      cfg.Analysis.AudioClockRate,
		CapturePathOffsetMs: cfg.Analysis.CapturePathOffsetMs,
	}, log)
	quality := services.NewQualityService(
		cfg.Thresholds.JitterMs,
		cfg.Thresholds.DelayMs,
		cfg.Thresholds.LatencyMs,
		cfg.Thresholds.PacketLossPct,
	)

	monitor := services.NewMonitorService(adapter, analyzer, quality, cfg.Analysis.MetricsInterval, log)

	// Presentation and export surfaces.
	hub := web.NewHub(cfg.Web.PushPerSecond, cfg.Web.PushBurst, cfg.Web.PingInterval, cfg.Web.PongTimeout, log)
	monitor.AddPublisher(hub)

	if cfg.Monitoring.PrometheusEnabled {
		collector := monitoring.NewPrometheusCollector()
		monitor.AddPublisher(monitoring.NewCaptureAwareCollector(collector, adapter))
	}

	var redisPublisher *publish.RedisPublisher
	if cfg.Redis.Enabled {
		redisPublisher, err = publish.NewRedisPublisher(startCtx,
			cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize,
			cfg.Redis.Channel, log)
		if err != nil {
			log.Fatalw("failed to connect Redis publisher", "error", err)
		}
		monitor.AddPublisher(redisPublisher)
	}

	server := web.NewServer(cfg, analyzer, adapter, quality, hub, log)
	startSpan.End()

	if err := monitor.Start(ctx); err != nil {
		log.Fatalw("failed to start monitor", "error", err)
	}
	log.Infow("stream monitor running",
		"session_id", analyzer.SessionID(),
		"bind", cfg.Capture.BindAddress,
		"web", cfg.Web.Address,
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Errorw("web server failed", "error", err)
	case sig := <-quit:
		log.Infow("shutting down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("web server shutdown failed", "error", err)
	}
	if err := monitor.Stop(); err != nil {
		log.Errorw("monitor stop failed", "error", err)
	}
	if redisPublisher != nil {
		redisPublisher.Close()
	}
	source.Close()
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("tracer shutdown failed", "error", err)
	}
}

package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Cedriik/CCTVBoardDraft/internal/core/ports"
	"github.com/Cedriik/CCTVBoardDraft/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the presentation layer: a REST API over the analyzer and
// capture adapter, a websocket feed of live snapshots and the
// Prometheus scrape endpoint.
type Server struct {
	engine   *gin.Engine
	httpSrv  *http.Server
	analyzer ports.Analyzer
	capture  ports.CaptureService
	quality  ports.QualityAssessor
	hub      *Hub
	logger   *zap.SugaredLogger
}

// NewServer assembles the router. The hub must be registered with the
// monitor's publishers separately for the websocket feed to carry data.
func NewServer(
	cfg *config.Config,
	analyzer ports.Analyzer,
	capture ports.CaptureService,
	quality ports.QualityAssessor,
	hub *Hub,
	logger *zap.SugaredLogger,
) *Server {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine:   gin.New(),
		analyzer: analyzer,
		capture:  capture,
		quality:  quality,
		hub:      hub,
		logger:   logger,
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(ErrorHandlerMiddleware(logger))
	if cfg.Tracing.Enabled {
		s.engine.Use(TracingMiddleware())
	}

	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/ws", hub.HandleWebSocket)
	if cfg.Monitoring.PrometheusEnabled {
		s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := s.engine.Group("/api/v1")
	{
		api.GET("/metrics", s.handleMetrics)
		api.GET("/capture", s.handleCapture)
		api.GET("/quality", s.handleQuality)
		api.GET("/report", s.handleReport)
		api.GET("/rtcp", s.handleRTCP)
	}

	control := api.Group("/control", JWTAuthMiddleware(cfg.Web.JWTSecret))
	{
		control.POST("/reset", s.handleReset)
		control.POST("/enable", s.handleEnable)
		control.POST("/disable", s.handleDisable)
	}

	s.httpSrv = &http.Server{
		Addr:         cfg.Web.Address,
		Handler:      s.engine,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
	}
	return s
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Infow("web server listening", "address", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"enabled":     s.analyzer.Enabled(),
		"subscribers": s.hub.ClientCount(),
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.analyzer.Snapshot())
}

func (s *Server) handleCapture(c *gin.Context) {
	c.JSON(http.StatusOK, s.capture.Stats())
}

func (s *Server) handleQuality(c *gin.Context) {
	snapshot := s.analyzer.Snapshot()
	c.JSON(http.StatusOK, s.quality.Assess(snapshot, time.Now()))
}

func (s *Server) handleReport(c *gin.Context) {
	c.JSON(http.StatusOK, s.analyzer.Report())
}

// handleRTCP serves a freshly built receiver report as raw RTCP bytes.
func (s *Server) handleRTCP(c *gin.Context) {
	ssrc := parseSSRC(c.Query("ssrc"), 0x43435456) // "CCTV"
	mediaSSRC := parseSSRC(c.Query("media_ssrc"), 0)

	report := s.analyzer.ReceiverReport(ssrc, mediaSSRC)
	data, err := report.Marshal()
	if err != nil {
		c.Error(err)
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func (s *Server) handleReset(c *gin.Context) {
	s.analyzer.Reset()
	s.capture.ResetStats()
	s.logger.Infow("analysis reset via API", "subject", c.GetString("subject"))
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (s *Server) handleEnable(c *gin.Context) {
	s.analyzer.SetEnabled(true)
	c.JSON(http.StatusOK, gin.H{"status": "enabled"})
}

func (s *Server) handleDisable(c *gin.Context) {
	s.analyzer.SetEnabled(false)
	c.JSON(http.StatusOK, gin.H{"status": "disabled"})
}

func parseSSRC(raw string, fallback uint32) uint32 {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return uint32(v)
}

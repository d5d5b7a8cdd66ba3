package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Cedriik/CCTVBoardDraft/internal/core/domain"
	"github.com/Cedriik/CCTVBoardDraft/internal/core/services"
	"github.com/Cedriik/CCTVBoardDraft/internal/infrastructure/capture"
	"github.com/Cedriik/CCTVBoardDraft/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pion/rtcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type idleSource struct{}

func (idleSource) Read(buf []byte) (int, error) { return 0, nil }
func (idleSource) Close() error                 { return nil }

func newTestServer(t *testing.T) (*Server, *services.AnalyzerService) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Monitoring.PrometheusEnabled = false
	cfg.Web.JWTSecret = "test-secret"

	logger := zap.NewNop().Sugar()
	analyzer := services.NewAnalyzerService(services.AnalyzerConfig{HistorySize: 16}, logger)
	quality := services.NewQualityService(50, 200, 100, 1.0)
	classifier := capture.NewPacketClassifier(capture.ClassifierConfig{RTPPortMin: 16384, RTPPortMax: 32767})
	adapter := capture.NewAdapter(idleSource{}, classifier, 4096, logger)
	hub := NewHub(4, 8, time.Minute, time.Minute, logger)

	return NewServer(cfg, analyzer, adapter, quality, hub, logger), analyzer
}

func signToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "operator",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	w := httptest.NewRecorder()
	server.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["enabled"])
}

func TestMetricsEndpointServesSnapshot(t *testing.T) {
	server, analyzer := newTestServer(t)

	analyzer.Ingest(domain.PacketRecord{
		CaptureTimestamp: 1000,
		SequenceNumber:   1,
		RTPTimestamp:     3600,
		LengthBytes:      1200,
		IsRTP:            true,
		PayloadType:      domain.PayloadTypeH264,
	})
	analyzer.Tick(2000)

	w := httptest.NewRecorder()
	server.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var snapshot domain.MetricsSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Equal(t, uint64(1), snapshot.TotalPackets)
	assert.Equal(t, analyzer.SessionID(), snapshot.SessionID)
}

func TestQualityEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	w := httptest.NewRecorder()
	server.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/quality", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var report domain.QualityReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, domain.QualityGood, report.Level)
}

func TestRTCPEndpointServesParsableReport(t *testing.T) {
	server, _ := newTestServer(t)

	w := httptest.NewRecorder()
	server.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rtcp?ssrc=7", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))

	var report rtcp.ReceiverReport
	require.NoError(t, report.Unmarshal(w.Body.Bytes()))
	assert.Equal(t, uint32(7), report.SSRC)
}

func TestControlRequiresToken(t *testing.T) {
	server, analyzer := newTestServer(t)

	w := httptest.NewRecorder()
	server.engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/control/disable", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, analyzer.Enabled(), "unauthorized request must not change state")

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/control/disable", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	server.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestControlDisableEnable(t *testing.T) {
	server, analyzer := newTestServer(t)
	token := signToken(t, "test-secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/control/disable", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	server.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, analyzer.Enabled())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/control/enable", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	server.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, analyzer.Enabled())
}

func TestControlResetStartsNewSession(t *testing.T) {
	server, analyzer := newTestServer(t)
	before := analyzer.SessionID()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/control/reset", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret"))
	server.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, before, analyzer.SessionID())
}

package domain

import "time"

// MetricsSnapshot is the set of stream quality metrics derived over the
// current analysis window. A fresh snapshot replaces the previous one
// wholesale on every analyzer tick, so a copy handed to a consumer is
// never mutated underneath it.
//
// LatencyMs is an estimate derived from the delay estimator plus a fixed
// capture-path offset; there is no round-trip probe behind it.
type MetricsSnapshot struct {
	SessionID     string    `json:"session_id"`
	JitterMs      float64   `json:"jitter_ms"`
	DelayMs       float64   `json:"delay_ms"`
	LatencyMs     float64   `json:"latency_ms"`
	BitrateMbps   float64   `json:"bitrate_mbps"`
	PacketLossPct float64   `json:"packet_loss_pct"`
	TotalPackets  uint64    `json:"total_packets"`
	LostPackets   uint64    `json:"lost_packets"`
	Reordered     uint64    `json:"reordered"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// CaptureStats counts all traffic seen by the capture adapter,
// independent of the analyzer's RTP-stream accounting. The two sets of
// counters answer different questions (link load vs. stream health) and
// are kept separate.
type CaptureStats struct {
	TotalPackets   uint64    `json:"total_packets"`
	DroppedPackets uint64    `json:"dropped_packets"`
	TotalBytes     uint64    `json:"total_bytes"`
	BandwidthMbps  float64   `json:"bandwidth_mbps"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AnalysisReport is a point-in-time diagnostic view over the analysis
// window, for operators rather than dashboards.
type AnalysisReport struct {
	SessionID      string  `json:"session_id"`
	Enabled        bool    `json:"enabled"`
	WindowSize     int     `json:"window_size"`
	WindowCapacity int     `json:"window_capacity"`
	WindowSpanMs   int64   `json:"window_span_ms"`
	HighestSeq     uint32  `json:"highest_seq"`
	SeqCycles      uint32  `json:"seq_cycles"`
	JitterMs       float64 `json:"jitter_ms"`
	DelayMs        float64 `json:"delay_ms"`
	TotalPackets   uint64  `json:"total_packets"`
	LostPackets    uint64  `json:"lost_packets"`
	Reordered      uint64  `json:"reordered"`
}

// QualityLevel grades a snapshot against the configured thresholds.
type QualityLevel string

const (
	QualityGood     QualityLevel = "good"
	QualityDegraded QualityLevel = "degraded"
	QualityPoor     QualityLevel = "poor"
)

// QualityReport is the per-metric threshold verdict for one snapshot.
type QualityReport struct {
	Level          QualityLevel `json:"level"`
	JitterOK       bool         `json:"jitter_ok"`
	DelayOK        bool         `json:"delay_ok"`
	LatencyOK      bool         `json:"latency_ok"`
	PacketLossOK   bool         `json:"packet_loss_ok"`
	FailingMetrics []string     `json:"failing_metrics,omitempty"`
	GeneratedAt    time.Time    `json:"generated_at"`
}

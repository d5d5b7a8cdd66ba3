package ports

import (
	"context"
	"time"

	"github.com/Cedriik/CCTVBoardDraft/internal/core/domain"

	"github.com/pion/rtcp"
)

// Analyzer is the packet analysis engine. Ingest is called from the
// capture loop, Tick from the metrics loop; implementations must make
// both safe to call concurrently.
type Analyzer interface {
	Ingest(record domain.PacketRecord)
	Tick(nowMs int64)
	Reset()
	SetEnabled(enabled bool)
	Enabled() bool

	Snapshot() domain.MetricsSnapshot
	HasNewData() bool
	ClearNewData()

	Report() domain.AnalysisReport
	ReceiverReport(ssrc, mediaSSRC uint32) *rtcp.ReceiverReport
}

// CaptureSource hands out one raw IPv4 frame per call. Read blocks at
// most for the configured deadline and returns the number of bytes
// written into buf; a zero count with nil error means the deadline
// expired with no traffic.
type CaptureSource interface {
	Read(buf []byte) (int, error)
	Close() error
}

// Classifier turns a raw captured frame into a PacketRecord. It never
// fails: malformed input degrades to a non-RTP record.
type Classifier interface {
	Classify(raw []byte, captureTS int64) domain.PacketRecord
}

// CaptureService drives the capture source and tracks link-level
// counters across all traffic, RTP or not.
type CaptureService interface {
	CaptureOne(ctx context.Context) (domain.PacketRecord, bool, error)
	Stats() domain.CaptureStats
	ResetStats()
}

// SnapshotPublisher delivers a freshly produced snapshot to one
// external consumer (websocket clients, Redis channel, Prometheus).
type SnapshotPublisher interface {
	Publish(ctx context.Context, snapshot domain.MetricsSnapshot, quality domain.QualityReport) error
}

// QualityAssessor grades a snapshot against configured thresholds.
type QualityAssessor interface {
	Assess(snapshot domain.MetricsSnapshot, at time.Time) domain.QualityReport
}

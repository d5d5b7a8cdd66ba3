package services

import (
	"time"

	"github.com/Cedriik/CCTVBoardDraft/internal/core/domain"
)

// QualityService grades snapshots against the configured thresholds
// used on the embedded board: jitter 50ms, delay 200ms, latency 100ms
// and loss 1% by default.
type QualityService struct {
	jitterMs      float64
	delayMs       float64
	latencyMs     float64
	packetLossPct float64
}

// NewQualityService builds an assessor from threshold values.
func NewQualityService(jitterMs, delayMs, latencyMs, packetLossPct float64) *QualityService {
	return &QualityService{
		jitterMs:      jitterMs,
		delayMs:       delayMs,
		latencyMs:     latencyMs,
		packetLossPct: packetLossPct,
	}
}

// Assess grades one snapshot. One failing metric degrades the stream,
// two or more mark it poor.
func (q *QualityService) Assess(s domain.MetricsSnapshot, at time.Time) domain.QualityReport {
	report := domain.QualityReport{
		JitterOK:     s.JitterMs <= q.jitterMs,
		DelayOK:      s.DelayMs <= q.delayMs,
		LatencyOK:    s.LatencyMs <= q.latencyMs,
		PacketLossOK: s.PacketLossPct <= q.packetLossPct,
		GeneratedAt:  at,
	}

	if !report.JitterOK {
		report.FailingMetrics = append(report.FailingMetrics, "jitter")
	}
	if !report.DelayOK {
		report.FailingMetrics = append(report.FailingMetrics, "delay")
	}
	if !report.LatencyOK {
		report.FailingMetrics = append(report.FailingMetrics, "latency")
	}
	if !report.PacketLossOK {
		report.FailingMetrics = append(report.FailingMetrics, "packet_loss")
	}

	switch len(report.FailingMetrics) {
	case 0:
		report.Level = domain.QualityGood
	case 1:
		report.Level = domain.QualityDegraded
	default:
		report.Level = domain.QualityPoor
	}
	return report
}

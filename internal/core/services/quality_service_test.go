package services

import (
	"testing"
	"time"

	"github.com/Cedriik/CCTVBoardDraft/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestQualityAssess(t *testing.T) {
	q := NewQualityService(50, 200, 100, 1.0)
	now := time.Now()

	tests := []struct {
		name      string
		snapshot  domain.MetricsSnapshot
		wantLevel domain.QualityLevel
		failing   []string
	}{
		{
			name:      "all within thresholds",
			snapshot:  domain.MetricsSnapshot{JitterMs: 10, DelayMs: 50, LatencyMs: 60, PacketLossPct: 0.2},
			wantLevel: domain.QualityGood,
		},
		{
			name:      "thresholds are inclusive",
			snapshot:  domain.MetricsSnapshot{JitterMs: 50, DelayMs: 200, LatencyMs: 100, PacketLossPct: 1.0},
			wantLevel: domain.QualityGood,
		},
		{
			name:      "one failing metric degrades",
			snapshot:  domain.MetricsSnapshot{JitterMs: 80, DelayMs: 50, LatencyMs: 60, PacketLossPct: 0.2},
			wantLevel: domain.QualityDegraded,
			failing:   []string{"jitter"},
		},
		{
			name:      "loss alone degrades",
			snapshot:  domain.MetricsSnapshot{JitterMs: 10, DelayMs: 50, LatencyMs: 60, PacketLossPct: 4.5},
			wantLevel: domain.QualityDegraded,
			failing:   []string{"packet_loss"},
		},
		{
			name:      "two failing metrics are poor",
			snapshot:  domain.MetricsSnapshot{JitterMs: 80, DelayMs: 50, LatencyMs: 150, PacketLossPct: 0.2},
			wantLevel: domain.QualityPoor,
			failing:   []string{"jitter", "latency"},
		},
		{
			name:      "everything failing",
			snapshot:  domain.MetricsSnapshot{JitterMs: 500, DelayMs: 500, LatencyMs: 500, PacketLossPct: 50},
			wantLevel: domain.QualityPoor,
			failing:   []string{"jitter", "delay", "latency", "packet_loss"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := q.Assess(tt.snapshot, now)
			assert.Equal(t, tt.wantLevel, report.Level)
			assert.Equal(t, tt.failing, report.FailingMetrics)
			assert.Equal(t, now, report.GeneratedAt)
		})
	}
}

func TestQualityZeroSnapshotIsGood(t *testing.T) {
	q := NewQualityService(50, 200, 100, 1.0)
	report := q.Assess(domain.MetricsSnapshot{}, time.Now())
	assert.Equal(t, domain.QualityGood, report.Level)
	assert.Empty(t, report.FailingMetrics)
}

package monitoring

import (
	"context"

	"github.com/Cedriik/CCTVBoardDraft/internal/core/domain"
	"github.com/Cedriik/CCTVBoardDraft/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector exports stream and link metrics. It doubles as a
// snapshot publisher so the publish loop can push into it like any
// other consumer.
type PrometheusCollector struct {
	jitterMs      prometheus.Gauge
	delayMs       prometheus.Gauge
	latencyMs     prometheus.Gauge
	bitrateMbps   prometheus.Gauge
	packetLossPct prometheus.Gauge
	qualityLevel  *prometheus.GaugeVec

	streamPackets prometheus.Gauge
	lostPackets   prometheus.Gauge

	capturedPackets prometheus.Gauge
	droppedPackets  prometheus.Gauge
	capturedBytes   prometheus.Gauge
	bandwidthMbps   prometheus.Gauge
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		jitterMs: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cctv_stream_jitter_ms",
			Help: "RFC 3550 interarrival jitter estimate in milliseconds",
		}),
		delayMs: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cctv_stream_delay_ms",
			Help: "Smoothed inter-packet delay in milliseconds",
		}),
		latencyMs: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cctv_stream_latency_ms",
			Help: "Estimated one-way latency in milliseconds (not a round-trip measurement)",
		}),
		bitrateMbps: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cctv_stream_bitrate_mbps",
			Help: "Stream bitrate over the last tick interval in Mbps",
		}),
		packetLossPct: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cctv_stream_packet_loss_pct",
			Help: "Packet loss percentage for the session",
		}),
		qualityLevel: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cctv_stream_quality_level",
			Help: "Current quality verdict, 1 for the active level",
		}, []string{"level"}),
		streamPackets: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cctv_stream_packets_total",
			Help: "Total packets ingested by the analyzer this session",
		}),
		lostPackets: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cctv_stream_lost_packets_total",
			Help: "Total packets marked lost by sequence accounting this session",
		}),
		capturedPackets: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cctv_capture_packets_total",
			Help: "Total frames seen by the capture adapter this session",
		}),
		droppedPackets: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cctv_capture_dropped_total",
			Help: "Capture reads that failed this session",
		}),
		capturedBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cctv_capture_bytes_total",
			Help: "Total bytes seen by the capture adapter this session",
		}),
		bandwidthMbps: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cctv_capture_bandwidth_mbps",
			Help: "Link bandwidth over the last window in Mbps",
		}),
	}
}

// Publish implements ports.SnapshotPublisher.
func (p *PrometheusCollector) Publish(_ context.Context, s domain.MetricsSnapshot, q domain.QualityReport) error {
	p.jitterMs.Set(s.JitterMs)
	p.delayMs.Set(s.DelayMs)
	p.latencyMs.Set(s.LatencyMs)
	p.bitrateMbps.Set(s.BitrateMbps)
	p.packetLossPct.Set(s.PacketLossPct)
	p.streamPackets.Set(float64(s.TotalPackets))
	p.lostPackets.Set(float64(s.LostPackets))

	for _, level := range []domain.QualityLevel{domain.QualityGood, domain.QualityDegraded, domain.QualityPoor} {
		v := 0.0
		if level == q.Level {
			v = 1.0
		}
		p.qualityLevel.WithLabelValues(string(level)).Set(v)
	}
	return nil
}

// RecordCaptureStats mirrors the link counters into the exporter.
func (p *PrometheusCollector) RecordCaptureStats(stats domain.CaptureStats) {
	p.capturedPackets.Set(float64(stats.TotalPackets))
	p.droppedPackets.Set(float64(stats.DroppedPackets))
	p.capturedBytes.Set(float64(stats.TotalBytes))
	p.bandwidthMbps.Set(stats.BandwidthMbps)
}

// CaptureAwareCollector refreshes the link counters alongside each
// stream snapshot so both gauge families move on the same cadence.
type CaptureAwareCollector struct {
	collector *PrometheusCollector
	capture   ports.CaptureService
}

func NewCaptureAwareCollector(collector *PrometheusCollector, capture ports.CaptureService) *CaptureAwareCollector {
	return &CaptureAwareCollector{collector: collector, capture: capture}
}

// Publish implements ports.SnapshotPublisher.
func (c *CaptureAwareCollector) Publish(ctx context.Context, s domain.MetricsSnapshot, q domain.QualityReport) error {
	c.collector.RecordCaptureStats(c.capture.Stats())
	return c.collector.Publish(ctx, s, q)
}

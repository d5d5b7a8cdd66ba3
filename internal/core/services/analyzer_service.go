package services

import (
	"math"
	"sync"
	"time"

	"github.com/Cedriik/CCTVBoardDraft/internal/core/domain"
	"github.com/Cedriik/CCTVBoardDraft/pkg/history"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalyzerConfig carries the immutable analysis parameters for one
// session. Passing them at construction keeps the engine testable with
// varied window sizes and clock rates.
type AnalyzerConfig struct {
	HistorySize         int
	VideoClockRate      uint32
	AudioClockRate      uint32
	CapturePathOffsetMs float64
}

// jitterGain is the RFC 3550 interarrival jitter decay constant (1/16),
// shared by the delay estimator.
const jitterGain = 16.0

// AnalyzerService derives stream quality metrics from classified
// packet records. Ingest runs on the capture loop and Tick on the
// metrics loop; one mutex covers all mutable state, held briefly and
// never across I/O.
//
// The engine never fails on input: malformed or anomalous records
// degrade to "no contribution" and anomalous tick intervals retain the
// previous metric values.
type AnalyzerService struct {
	mu  sync.Mutex
	cfg AnalyzerConfig

	enabled bool

	// Windowed series, paired by insertion order. Arrival times are
	// millisecond readings of the local monotonic clock truncated to
	// 32 bits; sequence numbers are widened to detect wraparound.
	rtpTimestamps *history.Bounded[uint32]
	arrivalTimes  *history.Bounded[uint32]
	sequences     *history.Bounded[uint32]

	haveFirstRTP bool
	lastSequence uint16
	seqCycles    uint32
	lastArrival  int64
	lastRTP      uint32

	jitterMs float64
	delayMs  float64

	totalPackets uint64
	lostPackets  uint64
	reordered    uint64

	bytesSinceTick uint64
	lastTickMs     int64
	bitrateMbps    float64

	// RTCP report baseline: expected/lost at the previous report.
	expectedPrior uint64
	lostPrior     uint64

	sessionID string
	snapshot  domain.MetricsSnapshot
	newData   bool

	logger *zap.SugaredLogger
}

// NewAnalyzerService creates an enabled engine with empty histories.
func NewAnalyzerService(cfg AnalyzerConfig, logger *zap.SugaredLogger) *AnalyzerService {
	if cfg.HistorySize < 2 {
		cfg.HistorySize = 2
	}
	if cfg.VideoClockRate == 0 {
		cfg.VideoClockRate = 90000
	}
	if cfg.AudioClockRate == 0 {
		cfg.AudioClockRate = 8000
	}

	a := &AnalyzerService{
		cfg:           cfg,
		enabled:       true,
		rtpTimestamps: history.NewBounded[uint32](cfg.HistorySize),
		arrivalTimes:  history.NewBounded[uint32](cfg.HistorySize),
		sequences:     history.NewBounded[uint32](cfg.HistorySize),
		sessionID:     uuid.NewString(),
		logger:        logger,
	}
	a.snapshot = domain.MetricsSnapshot{SessionID: a.sessionID}
	return a
}

// SessionID returns the identifier of the current analysis session.
func (a *AnalyzerService) SessionID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionID
}

// Ingest consumes one packet record. Non-RTP records only move the
// byte and packet totals; RTP records additionally feed the windowed
// series, the jitter/delay estimators and the loss accounting.
func (a *AnalyzerService) Ingest(record domain.PacketRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.enabled {
		return
	}

	a.totalPackets++
	a.bytesSinceTick += uint64(record.LengthBytes)

	if !record.IsRTP {
		return
	}

	a.rtpTimestamps.Push(record.RTPTimestamp)
	a.arrivalTimes.Push(uint32(record.CaptureTimestamp))
	a.sequences.Push(uint32(record.SequenceNumber))

	if !a.haveFirstRTP {
		a.haveFirstRTP = true
		a.lastSequence = record.SequenceNumber
		a.lastArrival = record.CaptureTimestamp
		a.lastRTP = record.RTPTimestamp
		return
	}

	a.accountSequence(record.SequenceNumber)
	a.updateTiming(record)
}

// accountSequence applies the loss policy: a positive 16-bit delta
// greater than one marks the gap as lost; a non-positive delta is a
// reorder or duplicate and counted separately. lastSequence only moves
// forward, so a late arrival from an out-of-order burst does not make
// the following in-order packet look like another gap.
func (a *AnalyzerService) accountSequence(seq uint16) {
	delta := int(int16(seq - a.lastSequence))
	switch {
	case delta == 1:
		if seq < a.lastSequence {
			a.seqCycles++
		}
		a.lastSequence = seq
	case delta > 1:
		a.lostPackets += uint64(delta - 1)
		if seq < a.lastSequence {
			a.seqCycles++
		}
		a.lastSequence = seq
	default:
		a.reordered++
	}
}

// updateTiming advances the RFC 3550 jitter estimator and the smoothed
// inter-arrival delay for one record.
func (a *AnalyzerService) updateTiming(record domain.PacketRecord) {
	arrivalDiff := record.CaptureTimestamp - a.lastArrival
	rtpDiff := int64(int32(record.RTPTimestamp - a.lastRTP))
	clockRate := a.clockRateFor(record.PayloadType)

	d := float64(arrivalDiff) - float64(rtpDiff)/float64(clockRate)*1000.0
	a.jitterMs += (math.Abs(d) - a.jitterMs) / jitterGain

	gap := float64(arrivalDiff)
	if gap < 0 {
		gap = 0
	}
	a.delayMs += (gap - a.delayMs) / jitterGain
	if a.delayMs < 0 {
		a.delayMs = 0
	}

	a.lastArrival = record.CaptureTimestamp
	a.lastRTP = record.RTPTimestamp
}

func (a *AnalyzerService) clockRateFor(payloadType uint8) uint32 {
	if domain.ClockRate(payloadType) == 8000 {
		return a.cfg.AudioClockRate
	}
	return a.cfg.VideoClockRate
}

// Tick recomputes the interval metrics and publishes a new snapshot.
// The first call only establishes the interval baseline. A zero or
// negative elapsed interval retains the previous bitrate instead of
// dividing by it.
func (a *AnalyzerService) Tick(nowMs int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	elapsed := nowMs - a.lastTickMs
	switch {
	case a.lastTickMs == 0:
		a.lastTickMs = nowMs
		a.bytesSinceTick = 0
	case elapsed <= 0:
		if a.logger != nil {
			a.logger.Warnw("clock anomaly on metrics tick, retaining bitrate",
				"now_ms", nowMs, "last_tick_ms", a.lastTickMs, "error", domain.ErrClockAnomaly)
		}
	default:
		a.bitrateMbps = float64(a.bytesSinceTick*8) / (float64(elapsed) / 1000.0) / 1_000_000.0
		a.bytesSinceTick = 0
		a.lastTickMs = nowMs
	}

	lossPct := 0.0
	if a.totalPackets+a.lostPackets > 0 {
		lossPct = float64(a.lostPackets) / float64(a.totalPackets+a.lostPackets) * 100.0
	}

	a.snapshot = domain.MetricsSnapshot{
		SessionID:     a.sessionID,
		JitterMs:      a.jitterMs,
		DelayMs:       a.delayMs,
		LatencyMs:     a.delayMs + a.cfg.CapturePathOffsetMs,
		BitrateMbps:   a.bitrateMbps,
		PacketLossPct: lossPct,
		TotalPackets:  a.totalPackets,
		LostPackets:   a.lostPackets,
		Reordered:     a.reordered,
		GeneratedAt:   time.Now(),
	}
	a.newData = true
}

// Snapshot returns a copy of the metrics published at the last tick.
func (a *AnalyzerService) Snapshot() domain.MetricsSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot
}

// HasNewData reports whether a tick has produced a snapshot since the
// flag was last cleared. Notification is at-least-once: a consumer may
// read a snapshot that is already stale relative to a later tick.
func (a *AnalyzerService) HasNewData() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.newData
}

// ClearNewData acknowledges the current snapshot.
func (a *AnalyzerService) ClearNewData() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.newData = false
}

// SetEnabled pauses or resumes ingestion. Disabling keeps all state so
// a resumed stream continues from where it left off.
func (a *AnalyzerService) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// Enabled reports whether ingestion is active.
func (a *AnalyzerService) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Reset clears all histories, counters and estimators, starting a new
// session. Used on stream restart, where the source clock may jump.
func (a *AnalyzerService) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.rtpTimestamps.Clear()
	a.arrivalTimes.Clear()
	a.sequences.Clear()

	a.haveFirstRTP = false
	a.lastSequence = 0
	a.seqCycles = 0
	a.lastArrival = 0
	a.lastRTP = 0

	a.jitterMs = 0
	a.delayMs = 0
	a.totalPackets = 0
	a.lostPackets = 0
	a.reordered = 0
	a.bytesSinceTick = 0
	a.lastTickMs = 0
	a.bitrateMbps = 0
	a.expectedPrior = 0
	a.lostPrior = 0

	a.sessionID = uuid.NewString()
	a.snapshot = domain.MetricsSnapshot{SessionID: a.sessionID}
	a.newData = false

	if a.logger != nil {
		a.logger.Infow("analyzer reset", "session_id", a.sessionID)
	}
}

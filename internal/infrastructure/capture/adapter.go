package capture

import (
	"context"
	"sync"
	"time"

	"github.com/Cedriik/CCTVBoardDraft/internal/core/domain"
	"github.com/Cedriik/CCTVBoardDraft/internal/core/ports"

	"go.uber.org/zap"
)

// bandwidthWindow is how often the link bandwidth figure is refreshed.
const bandwidthWindow = time.Second

// Adapter pulls one frame at a time from the capture source and keeps
// link-level counters across all traffic. These counters are
// deliberately separate from the analyzer's RTP accounting: one
// describes the link, the other the stream.
type Adapter struct {
	source     ports.CaptureSource
	classifier ports.Classifier
	buf        []byte

	mu             sync.Mutex
	totalPackets   uint64
	droppedPackets uint64
	totalBytes     uint64
	bandwidthMbps  float64
	windowBytes    uint64
	windowStart    time.Time

	logger *zap.SugaredLogger
}

// NewAdapter creates a capture adapter with a reusable read buffer of
// bufferSize bytes.
func NewAdapter(source ports.CaptureSource, classifier ports.Classifier, bufferSize int, logger *zap.SugaredLogger) *Adapter {
	if bufferSize <= 0 {
		bufferSize = 4096
	}
	return &Adapter{
		source:      source,
		classifier:  classifier,
		buf:         make([]byte, bufferSize),
		windowStart: time.Now(),
		logger:      logger,
	}
}

// CaptureOne reads a single frame with a bounded wait, classifies it
// and updates the link counters. The second return value is false when
// the read deadline expired with no traffic. CaptureOne is meant to be
// driven by a single capture loop.
func (a *Adapter) CaptureOne(ctx context.Context) (domain.PacketRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.PacketRecord{}, false, err
	}

	n, err := a.source.Read(a.buf)
	if err != nil {
		a.mu.Lock()
		a.droppedPackets++
		a.mu.Unlock()
		return domain.PacketRecord{}, false, err
	}
	if n == 0 {
		return domain.PacketRecord{}, false, nil
	}

	now := time.Now()
	a.mu.Lock()
	a.totalPackets++
	a.totalBytes += uint64(n)
	a.windowBytes += uint64(n)
	if elapsed := now.Sub(a.windowStart); elapsed >= bandwidthWindow {
		a.bandwidthMbps = float64(a.windowBytes*8) / elapsed.Seconds() / 1_000_000.0
		a.windowBytes = 0
		a.windowStart = now
	}
	a.mu.Unlock()

	record := a.classifier.Classify(a.buf[:n], now.UnixMilli())
	return record, true, nil
}

// Stats returns a copy of the link counters.
func (a *Adapter) Stats() domain.CaptureStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return domain.CaptureStats{
		TotalPackets:   a.totalPackets,
		DroppedPackets: a.droppedPackets,
		TotalBytes:     a.totalBytes,
		BandwidthMbps:  a.bandwidthMbps,
		UpdatedAt:      time.Now(),
	}
}

// ResetStats zeroes the link counters, used on stream restart.
func (a *Adapter) ResetStats() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalPackets = 0
	a.droppedPackets = 0
	a.totalBytes = 0
	a.bandwidthMbps = 0
	a.windowBytes = 0
	a.windowStart = time.Now()
	if a.logger != nil {
		a.logger.Infow("capture stats reset")
	}
}

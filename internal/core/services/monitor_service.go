package services

import (
	"context"
	"sync"
	"time"

	"github.com/Cedriik/CCTVBoardDraft/internal/core/domain"
	"github.com/Cedriik/CCTVBoardDraft/internal/core/ports"

	"go.uber.org/zap"
)

// MonitorService is the scheduling shell: it runs the capture loop, the
// metrics tick loop and the publish loop as independent goroutines and
// fans freshly produced snapshots out to the registered publishers.
//
// Each loop observes cancellation within one iteration; the capture
// loop relies on the source's bounded read deadline for that.
type MonitorService struct {
	capture  ports.CaptureService
	analyzer ports.Analyzer
	quality  ports.QualityAssessor

	tickInterval    time.Duration
	publishInterval time.Duration

	mu         sync.Mutex
	publishers []ports.SnapshotPublisher
	cancel     context.CancelFunc
	done       chan struct{}

	startedAt time.Time
	logger    *zap.SugaredLogger
}

// NewMonitorService wires the capture adapter, engine and quality
// assessor together. tickInterval defaults to one second.
func NewMonitorService(
	capture ports.CaptureService,
	analyzer ports.Analyzer,
	quality ports.QualityAssessor,
	tickInterval time.Duration,
	logger *zap.SugaredLogger,
) *MonitorService {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &MonitorService{
		capture:         capture,
		analyzer:        analyzer,
		quality:         quality,
		tickInterval:    tickInterval,
		publishInterval: tickInterval / 4,
		logger:          logger,
	}
}

// AddPublisher registers a snapshot consumer. Safe before Start only.
func (m *MonitorService) AddPublisher(p ports.SnapshotPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishers = append(m.publishers, p)
}

// Start launches the three loops. It returns immediately.
func (m *MonitorService) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return domain.ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.startedAt = time.Now()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); m.captureLoop(ctx) }()
	go func() { defer wg.Done(); m.tickLoop(ctx) }()
	go func() { defer wg.Done(); m.publishLoop(ctx) }()

	done := m.done
	go func() {
		wg.Wait()
		close(done)
	}()

	m.logger.Infow("monitor started", "tick_interval", m.tickInterval)
	return nil
}

// Stop cancels the loops and waits for them to drain.
func (m *MonitorService) Stop() error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return domain.ErrNotRunning
	}
	cancel()
	<-done
	m.logger.Infow("monitor stopped", "uptime", time.Since(m.startedAt).String())
	return nil
}

// Uptime returns how long the monitor has been running.
func (m *MonitorService) Uptime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return 0
	}
	return time.Since(m.startedAt)
}

func (m *MonitorService) captureLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		record, ok, err := m.capture.CaptureOne(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Debugw("capture read failed", "error", err)
			continue
		}
		if !ok {
			// Deadline expired with no traffic; loop to recheck ctx.
			continue
		}
		m.analyzer.Ingest(record)
	}
}

func (m *MonitorService) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.analyzer.Tick(now.UnixMilli())
		}
	}
}

func (m *MonitorService) publishLoop(ctx context.Context) {
	interval := m.publishInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastLevel := domain.QualityLevel("")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.analyzer.HasNewData() {
				continue
			}
			snapshot := m.analyzer.Snapshot()
			m.analyzer.ClearNewData()

			quality := m.quality.Assess(snapshot, time.Now())
			if quality.Level != lastLevel {
				m.logger.Infow("stream quality level changed",
					"from", string(lastLevel), "to", string(quality.Level),
					"failing", quality.FailingMetrics,
					"session_id", snapshot.SessionID)
				lastLevel = quality.Level
			}
			m.mu.Lock()
			publishers := m.publishers
			m.mu.Unlock()

			for _, p := range publishers {
				if err := p.Publish(ctx, snapshot, quality); err != nil {
					m.logger.Warnw("snapshot publish failed", "error", err)
				}
			}
		}
	}
}

package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Cedriik/CCTVBoardDraft/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCaptureSvc replays a fixed set of records, then reports idle
// reads the way the adapter does on deadline expiry.
type fakeCaptureSvc struct {
	mu      sync.Mutex
	records []domain.PacketRecord
	next    int
}

func (f *fakeCaptureSvc) CaptureOne(ctx context.Context) (domain.PacketRecord, bool, error) {
	if ctx.Err() != nil {
		return domain.PacketRecord{}, false, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next >= len(f.records) {
		// Simulate the read deadline so the loop can recheck ctx.
		time.Sleep(time.Millisecond)
		return domain.PacketRecord{}, false, nil
	}
	record := f.records[f.next]
	f.next++
	return record, true, nil
}

func (f *fakeCaptureSvc) Stats() domain.CaptureStats { return domain.CaptureStats{} }
func (f *fakeCaptureSvc) ResetStats()                {}

type recordingPublisher struct {
	mu        sync.Mutex
	snapshots []domain.MetricsSnapshot
	qualities []domain.QualityReport
}

func (r *recordingPublisher) Publish(_ context.Context, s domain.MetricsSnapshot, q domain.QualityReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
	r.qualities = append(r.qualities, q)
	return nil
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func (r *recordingPublisher) last() (domain.MetricsSnapshot, domain.QualityReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshots[len(r.snapshots)-1], r.qualities[len(r.qualities)-1]
}

func newTestMonitor(capture *fakeCaptureSvc) (*MonitorService, *AnalyzerService, *recordingPublisher) {
	logger := zap.NewNop().Sugar()
	analyzer := NewAnalyzerService(AnalyzerConfig{HistorySize: 32}, logger)
	quality := NewQualityService(50, 200, 100, 1.0)
	monitor := NewMonitorService(capture, analyzer, quality, 20*time.Millisecond, logger)

	publisher := &recordingPublisher{}
	monitor.AddPublisher(publisher)
	return monitor, analyzer, publisher
}

func TestMonitorPublishesSnapshots(t *testing.T) {
	records := make([]domain.PacketRecord, 0, 10)
	arrival := int64(1000)
	for i := 0; i < 10; i++ {
		records = append(records, rtpRecord(uint16(i), uint32(i)*3600, arrival, 1200))
		arrival += 40
	}
	capture := &fakeCaptureSvc{records: records}
	monitor, _, publisher := newTestMonitor(capture)

	require.NoError(t, monitor.Start(context.Background()))
	defer monitor.Stop()

	require.Eventually(t, func() bool {
		if publisher.count() == 0 {
			return false
		}
		snapshot, _ := publisher.last()
		return snapshot.TotalPackets == 10
	}, time.Second, 5*time.Millisecond)

	_, quality := publisher.last()
	assert.Equal(t, domain.QualityGood, quality.Level)
}

func TestMonitorStartStopLifecycle(t *testing.T) {
	monitor, _, _ := newTestMonitor(&fakeCaptureSvc{})

	assert.ErrorIs(t, monitor.Stop(), domain.ErrNotRunning)
	assert.Equal(t, time.Duration(0), monitor.Uptime())

	require.NoError(t, monitor.Start(context.Background()))
	assert.ErrorIs(t, monitor.Start(context.Background()), domain.ErrAlreadyRunning)
	assert.Greater(t, monitor.Uptime(), time.Duration(0))

	require.NoError(t, monitor.Stop())
	assert.ErrorIs(t, monitor.Stop(), domain.ErrNotRunning)
}

func TestMonitorRestartsAfterStop(t *testing.T) {
	monitor, _, _ := newTestMonitor(&fakeCaptureSvc{})

	require.NoError(t, monitor.Start(context.Background()))
	require.NoError(t, monitor.Stop())
	require.NoError(t, monitor.Start(context.Background()))
	require.NoError(t, monitor.Stop())
}

func TestMonitorStopsOnContextCancel(t *testing.T) {
	monitor, _, _ := newTestMonitor(&fakeCaptureSvc{})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, monitor.Start(ctx))
	cancel()

	// The loops drain on their own; Stop still reclaims the handle.
	require.NoError(t, monitor.Stop())
}

func TestMonitorAcknowledgesSnapshots(t *testing.T) {
	capture := &fakeCaptureSvc{records: []domain.PacketRecord{
		rtpRecord(1, 3600, 1000, 1200),
	}}
	monitor, analyzer, publisher := newTestMonitor(capture)

	require.NoError(t, monitor.Start(context.Background()))
	defer monitor.Stop()

	require.Eventually(t, func() bool { return publisher.count() > 0 },
		time.Second, 5*time.Millisecond)

	// The publish loop clears the flag after delivery; it only comes
	// back when the next tick produces a fresh snapshot.
	require.Eventually(t, func() bool { return analyzer.HasNewData() },
		time.Second, 5*time.Millisecond)
}

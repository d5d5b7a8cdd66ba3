package capture

import (
	"context"
	"errors"
	"testing"

	"github.com/Cedriik/CCTVBoardDraft/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedSource returns one scripted read result per call. A nil frame
// with nil error models an expired read deadline.
type scriptedSource struct {
	frames [][]byte
	errs   []error
	calls  int
	closed bool
}

func (s *scriptedSource) Read(buf []byte) (int, error) {
	i := s.calls
	s.calls++
	if i >= len(s.frames) {
		return 0, nil
	}
	if s.errs[i] != nil {
		return 0, s.errs[i]
	}
	return copy(buf, s.frames[i]), nil
}

func (s *scriptedSource) Close() error {
	s.closed = true
	return nil
}

func udpFrame(t *testing.T, srcPort, dstPort uint16) []byte {
	t.Helper()
	return ipv4Frame(domain.TransportUDP,
		[4]byte{10, 0, 0, 1}, [4]byte{10, 0, 0, 2},
		udpSegment(srcPort, dstPort, rtpPayload(t, 1, 1000, domain.PayloadTypeH264)))
}

func TestAdapterCountsTraffic(t *testing.T) {
	frameA := udpFrame(t, 20000, 20001)
	frameB := udpFrame(t, 20000, 20001)
	source := &scriptedSource{
		frames: [][]byte{frameA, nil, frameB},
		errs:   []error{nil, errors.New("read failed"), nil},
	}
	adapter := NewAdapter(source, testClassifier(), 4096, zap.NewNop().Sugar())
	ctx := context.Background()

	record, ok, err := adapter.CaptureOne(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, record.IsRTP)

	_, ok, err = adapter.CaptureOne(ctx)
	require.Error(t, err)
	assert.False(t, ok)

	_, ok, err = adapter.CaptureOne(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	stats := adapter.Stats()
	assert.Equal(t, uint64(2), stats.TotalPackets)
	assert.Equal(t, uint64(1), stats.DroppedPackets)
	assert.Equal(t, uint64(len(frameA)+len(frameB)), stats.TotalBytes)
}

func TestAdapterIdleRead(t *testing.T) {
	source := &scriptedSource{} // every read reports no traffic
	adapter := NewAdapter(source, testClassifier(), 4096, zap.NewNop().Sugar())

	_, ok, err := adapter.CaptureOne(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	stats := adapter.Stats()
	assert.Zero(t, stats.TotalPackets)
	assert.Zero(t, stats.DroppedPackets)
}

func TestAdapterHonorsContext(t *testing.T) {
	source := &scriptedSource{}
	adapter := NewAdapter(source, testClassifier(), 4096, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := adapter.CaptureOne(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

func TestAdapterResetStats(t *testing.T) {
	frame := udpFrame(t, 20000, 20001)
	source := &scriptedSource{frames: [][]byte{frame}, errs: []error{nil}}
	adapter := NewAdapter(source, testClassifier(), 4096, zap.NewNop().Sugar())

	_, _, err := adapter.CaptureOne(context.Background())
	require.NoError(t, err)
	require.NotZero(t, adapter.Stats().TotalPackets)

	adapter.ResetStats()

	stats := adapter.Stats()
	assert.Zero(t, stats.TotalPackets)
	assert.Zero(t, stats.TotalBytes)
	assert.Zero(t, stats.BandwidthMbps)
}

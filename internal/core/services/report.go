package services

import (
	"github.com/Cedriik/CCTVBoardDraft/internal/core/domain"

	"github.com/pion/rtcp"
)

// Report assembles the diagnostic view. The window span walks the
// arrival history oldest to newest; 32-bit arrival wraparound inside
// one window is ignored since a window covers seconds, not weeks.
func (a *AnalyzerService) Report() domain.AnalysisReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	var spanMs int64
	if n := a.arrivalTimes.Len(); n >= 2 {
		oldest, err1 := a.arrivalTimes.At(0)
		newest, err2 := a.arrivalTimes.At(n - 1)
		if err1 == nil && err2 == nil {
			spanMs = int64(newest - oldest)
		}
	}

	return domain.AnalysisReport{
		SessionID:      a.sessionID,
		Enabled:        a.enabled,
		WindowSize:     a.arrivalTimes.Len(),
		WindowCapacity: a.arrivalTimes.Cap(),
		WindowSpanMs:   spanMs,
		HighestSeq:     a.seqCycles<<16 | uint32(a.lastSequence),
		SeqCycles:      a.seqCycles,
		JitterMs:       a.jitterMs,
		DelayMs:        a.delayMs,
		TotalPackets:   a.totalPackets,
		LostPackets:    a.lostPackets,
		Reordered:      a.reordered,
	}
}

// ReceiverReport renders the engine state as an RFC 3550 receiver
// report for downstream RTCP tooling. Fraction lost covers the window
// since the previous report; calling it advances that baseline.
func (a *AnalyzerService) ReceiverReport(ssrc, mediaSSRC uint32) *rtcp.ReceiverReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	extendedHighest := a.seqCycles<<16 | uint32(a.lastSequence)

	expected := a.totalPackets + a.lostPackets
	expectedInterval := expected - a.expectedPrior
	lostInterval := a.lostPackets - a.lostPrior
	a.expectedPrior = expected
	a.lostPrior = a.lostPackets

	var fractionLost uint8
	if expectedInterval > 0 {
		fractionLost = uint8(lostInterval * 256 / expectedInterval)
	}

	cumulative := a.lostPackets
	if cumulative > 0xFFFFFF {
		cumulative = 0xFFFFFF
	}

	// Interarrival jitter is reported in clock-rate units per RFC 3550.
	jitterUnits := uint32(a.jitterMs / 1000.0 * float64(a.cfg.VideoClockRate))

	return &rtcp.ReceiverReport{
		SSRC: ssrc,
		Reports: []rtcp.ReceptionReport{{
			SSRC:               mediaSSRC,
			FractionLost:       fractionLost,
			TotalLost:          uint32(cumulative),
			LastSequenceNumber: extendedHighest,
			Jitter:             jitterUnits,
			Delay:              uint32(a.delayMs / 1000.0 * 65536.0),
		}},
	}
}

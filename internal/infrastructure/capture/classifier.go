package capture

import (
	"encoding/binary"
	"net"

	"github.com/Cedriik/CCTVBoardDraft/internal/core/domain"

	"github.com/pion/rtp"
)

const (
	ipv4HeaderMin = 20
	udpHeaderLen  = 8
)

// ClassifierConfig is the port filter deciding which UDP flows are
// candidates for RTP parsing.
type ClassifierConfig struct {
	RTPPortMin uint16
	RTPPortMax uint16
	RTSPPort   uint16
	StreamPort uint16
}

// PacketClassifier turns raw IPv4 frames into normalized packet
// records. It never returns an error: anything it cannot parse far
// enough becomes a non-RTP record so the capture path keeps moving.
type PacketClassifier struct {
	cfg ClassifierConfig
}

// NewPacketClassifier builds a classifier with the given port filter.
func NewPacketClassifier(cfg ClassifierConfig) *PacketClassifier {
	return &PacketClassifier{cfg: cfg}
}

// Classify parses an IPv4 frame: IP header for protocol and addresses,
// transport header for ports, and for UDP flows on filtered ports the
// RTP header for sequence number, timestamp and payload type.
func (c *PacketClassifier) Classify(raw []byte, captureTS int64) domain.PacketRecord {
	record := domain.PacketRecord{
		CaptureTimestamp: captureTS,
		LengthBytes:      len(raw),
	}

	if len(raw) < ipv4HeaderMin {
		return record
	}
	if raw[0]>>4 != 4 {
		return record
	}
	ihl := int(raw[0]&0x0f) * 4
	if ihl < ipv4HeaderMin || len(raw) < ihl {
		return record
	}

	record.Protocol = domain.TransportProtocol(raw[9])
	record.SourceAddr = net.IP(raw[12:16]).String()
	record.DestAddr = net.IP(raw[16:20]).String()

	switch record.Protocol {
	case domain.TransportTCP, domain.TransportUDP:
		if len(raw) < ihl+4 {
			return record
		}
		record.SourcePort = binary.BigEndian.Uint16(raw[ihl : ihl+2])
		record.DestPort = binary.BigEndian.Uint16(raw[ihl+2 : ihl+4])
	default:
		return record
	}

	if record.Protocol != domain.TransportUDP {
		return record
	}
	if !c.rtpCandidate(record.SourcePort, record.DestPort) {
		return record
	}
	if len(raw) < ihl+udpHeaderLen {
		return record
	}

	payload := raw[ihl+udpHeaderLen:]
	packet := &rtp.Packet{}
	if err := packet.Unmarshal(payload); err != nil {
		return record
	}
	if packet.Version != 2 {
		return record
	}

	record.IsRTP = true
	record.SequenceNumber = packet.SequenceNumber
	record.RTPTimestamp = packet.Timestamp
	record.PayloadType = packet.PayloadType
	return record
}

// rtpCandidate reports whether either port falls inside the configured
// RTP range or matches the DVR's RTSP/stream ports.
func (c *PacketClassifier) rtpCandidate(src, dst uint16) bool {
	for _, p := range [2]uint16{src, dst} {
		if p >= c.cfg.RTPPortMin && p <= c.cfg.RTPPortMax {
			return true
		}
		if p != 0 && (p == c.cfg.RTSPPort || p == c.cfg.StreamPort) {
			return true
		}
	}
	return false
}

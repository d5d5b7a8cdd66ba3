package domain

// TransportProtocol is the IP protocol number of a captured frame.
type TransportProtocol uint8

const (
	TransportICMP TransportProtocol = 1
	TransportTCP  TransportProtocol = 6
	TransportUDP  TransportProtocol = 17
)

// String returns the string representation of TransportProtocol
func (p TransportProtocol) String() string {
	switch p {
	case TransportICMP:
		return "icmp"
	case TransportTCP:
		return "tcp"
	case TransportUDP:
		return "udp"
	default:
		return "other"
	}
}

// Well-known RTP payload types seen on CCTV/DVR streams.
const (
	PayloadTypePCMU  uint8 = 0
	PayloadTypePCMA  uint8 = 8
	PayloadTypeMJPEG uint8 = 26
	PayloadTypeH264  uint8 = 96
	PayloadTypeH265  uint8 = 98
)

// PacketRecord is the normalized view of one captured frame. It is
// produced by the classifier, consumed by the analyzer and then
// discarded; nothing mutates it after construction.
//
// SequenceNumber, RTPTimestamp and PayloadType carry no meaning unless
// IsRTP is true. A non-RTP record only contributes to byte and packet
// totals.
type PacketRecord struct {
	CaptureTimestamp int64 // monotonic arrival time, milliseconds
	SequenceNumber   uint16
	RTPTimestamp     uint32
	SourceAddr       string
	DestAddr         string
	SourcePort       uint16
	DestPort         uint16
	LengthBytes      int
	Protocol         TransportProtocol
	IsRTP            bool
	PayloadType      uint8
}

// ClockRate returns the codec clock rate in Hz for an RTP payload type.
// Audio payload types run at 8 kHz, everything else (including unknown
// dynamic types) is treated as 90 kHz video.
func ClockRate(payloadType uint8) uint32 {
	switch payloadType {
	case PayloadTypePCMU, PayloadTypePCMA:
		return 8000
	default:
		return 90000
	}
}

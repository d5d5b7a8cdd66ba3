package capture

import (
	"fmt"
	"net"
	"os"
	"time"
)

// RawSocketSource reads full IPv4/UDP frames from a raw socket bound to
// the monitored interface address. Raw sockets deliver the IP header
// along with the payload, which is what the classifier expects.
// Opening one requires CAP_NET_RAW.
type RawSocketSource struct {
	conn        *net.IPConn
	readTimeout time.Duration
}

// NewRawSocketSource opens the raw UDP socket on bindAddr (an IP,
// typically "0.0.0.0"). readTimeout bounds every Read so the capture
// loop stays responsive to a stop request.
func NewRawSocketSource(bindAddr string, readTimeout time.Duration) (*RawSocketSource, error) {
	ip := net.ParseIP(bindAddr)
	if ip == nil {
		return nil, fmt.Errorf("invalid capture bind address %q", bindAddr)
	}
	conn, err := net.ListenIP("ip4:udp", &net.IPAddr{IP: ip})
	if err != nil {
		return nil, fmt.Errorf("failed to open raw capture socket: %w", err)
	}
	if readTimeout <= 0 {
		readTimeout = 200 * time.Millisecond
	}
	return &RawSocketSource{conn: conn, readTimeout: readTimeout}, nil
}

// Read fills buf with one frame. A deadline expiry is reported as
// (0, nil) so the caller can recheck cancellation and try again.
func (s *RawSocketSource) Read(buf []byte) (int, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
		return 0, err
	}
	n, _, err := s.conn.ReadFromIP(buf)
	if err != nil {
		if os.IsTimeout(err) {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// Close releases the socket.
func (s *RawSocketSource) Close() error {
	return s.conn.Close()
}

// Package transport wraps the single bound UDP socket shared by the
// Sender and Receiver loops: send-to-address and blocking receive, with
// no framing beyond one advertisement per datagram.
package transport

import (
	"fmt"
	"net"

	"github.com/jmp1617/pyrip/internal/protocol"
)

// Socket is the UDP transport primitive described by spec §1 as an
// external collaborator: a bound datagram socket exposing send-to-address
// and blocking receive.
type Socket struct {
	conn *net.UDPConn
}

// Listen binds a UDP socket on the given port across all local
// interfaces, per bootstrap's responsibility in spec §4.5.
func Listen(port int) (*Socket, error) {
	addr := &net.UDPAddr{IP: net.IPv4zero, Port: port}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen on port %d: %w", port, err)
	}
	return &Socket{conn: conn}, nil
}

// SendTo transmits payload as a single UDP datagram to addr ("host:port").
func (s *Socket) SendTo(payload []byte, addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return fmt.Errorf("transport: resolve %s: %w", addr, err)
	}
	_, err = s.conn.WriteToUDP(payload, udpAddr)
	if err != nil {
		return fmt.Errorf("transport: send to %s: %w", addr, err)
	}
	return nil
}

// Receive blocks until one datagram arrives, returning its payload and the
// sender's bare IP address (no port) — the form route entries and
// neighbor identities use throughout the protocol.
func (s *Socket) Receive() ([]byte, string, error) {
	buf := make([]byte, protocol.MaxDatagramBytes)
	n, from, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, "", fmt.Errorf("transport: receive: %w", err)
	}
	return buf[:n], from.IP.String(), nil
}

// Close releases the underlying socket.
func (s *Socket) Close() error {
	return s.conn.Close()
}

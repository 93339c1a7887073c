package transport

import (
	"errors"
	"net"
)

var ErrClosed = errors.New("transport: socket closed")

// Packet is one datagram and the address it came from.
type Packet struct {
	Addr string
	Data []byte
}

// Socket is a non-blocking datagram socket. TryReceive returns false when no
// packet is waiting.
type Socket interface {
	SendTo(data []byte, addr string) error
	TryReceive() (Packet, bool)
	LocalAddr() string
	Close() error
}

// NormalizeAddr resolves a host:port into the form packets are reported with.
func NormalizeAddr(addr string) (string, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return "", err
	}
	return udpAddr.String(), nil
}

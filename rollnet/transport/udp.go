package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	MAX_PACKET_SIZE     = 8192
	RECV_BUFFER_PACKETS = 256
)

// UDPSocket reads on its own goroutine into a buffered channel so that
// TryReceive never blocks. Packets arriving while the channel is full are
// dropped like any other lost datagram.
type UDPSocket struct {
	Conn      *net.UDPConn
	Received  chan Packet
	Log       *logrus.Entry
	addrs     map[string]*net.UDPAddr
	closeOnce sync.Once
	done      chan struct{}
}

func BindUDP(port uint16, log *logrus.Entry) (*UDPSocket, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(port)})
	if err != nil {
		return nil, fmt.Errorf("binding udp port %d: %w", port, err)
	}
	s := &UDPSocket{
		Conn:     conn,
		Received: make(chan Packet, RECV_BUFFER_PACKETS),
		Log:      log.WithField("local", conn.LocalAddr().String()),
		addrs:    make(map[string]*net.UDPAddr),
		done:     make(chan struct{}),
	}
	s.Log.Infof("binding udp socket to port %d", port)
	go s.read()
	return s, nil
}

func (s *UDPSocket) read() {
	for {
		buf := make([]byte, MAX_PACKET_SIZE)
		length, addr, err := s.Conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.Log.WithError(err).Warn("udp read error")
			continue
		}
		select {
		case s.Received <- Packet{Addr: addr.String(), Data: buf[:length]}:
		default:
			s.Log.Debugf("receive buffer full, dropping packet from %s", addr)
		}
	}
}

func (s *UDPSocket) SendTo(data []byte, addr string) error {
	udpAddr, ok := s.addrs[addr]
	if !ok {
		var err error
		udpAddr, err = net.ResolveUDPAddr("udp", addr)
		if err != nil {
			return err
		}
		s.addrs[addr] = udpAddr
	}
	_, err := s.Conn.WriteToUDP(data, udpAddr)
	return err
}

func (s *UDPSocket) TryReceive() (Packet, bool) {
	select {
	case p := <-s.Received:
		return p, true
	default:
		return Packet{}, false
	}
}

func (s *UDPSocket) LocalAddr() string {
	return s.Conn.LocalAddr().String()
}

func (s *UDPSocket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.Conn.Close()
		s.Log.Info("shutting down udp connection")
	})
	return err
}

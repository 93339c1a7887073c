package transport

import "sync"

// MemoryNetwork connects MemorySockets by address inside one process.
// Packets to unknown addresses or over a link that is down are lost.
type MemoryNetwork struct {
	mu      sync.Mutex
	sockets map[string]*MemorySocket
	down    map[[2]string]bool
}

func NewMemoryNetwork() *MemoryNetwork {
	return &MemoryNetwork{
		sockets: make(map[string]*MemorySocket),
		down:    make(map[[2]string]bool),
	}
}

// Listen registers a socket at addr, replacing any previous one.
func (m *MemoryNetwork) Listen(addr string) *MemorySocket {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &MemorySocket{network: m, addr: addr}
	m.sockets[addr] = s
	return s
}

// SetLinkDown drops traffic between a and b in both directions.
func (m *MemoryNetwork) SetLinkDown(a, b string, down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down[[2]string{a, b}] = down
	m.down[[2]string{b, a}] = down
}

type MemorySocket struct {
	network *MemoryNetwork
	addr    string
	inbox   []Packet
	closed  bool
}

func (s *MemorySocket) SendTo(data []byte, addr string) error {
	m := s.network
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	target, ok := m.sockets[addr]
	if !ok || target.closed || m.down[[2]string{s.addr, addr}] {
		return nil
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	target.inbox = append(target.inbox, Packet{Addr: s.addr, Data: buf})
	return nil
}

func (s *MemorySocket) TryReceive() (Packet, bool) {
	m := s.network
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(s.inbox) == 0 {
		return Packet{}, false
	}
	p := s.inbox[0]
	s.inbox = s.inbox[1:]
	return p, true
}

// Pending is the number of packets waiting to be received.
func (s *MemorySocket) Pending() int {
	s.network.mu.Lock()
	defer s.network.mu.Unlock()
	return len(s.inbox)
}

func (s *MemorySocket) LocalAddr() string {
	return s.addr
}

func (s *MemorySocket) Close() error {
	m := s.network
	m.mu.Lock()
	defer m.mu.Unlock()
	s.closed = true
	if m.sockets[s.addr] == s {
		delete(m.sockets, s.addr)
	}
	return nil
}

package transport

import "testing"

func TestMemoryNetworkDelivery(t *testing.T) {
	n := NewMemoryNetwork()
	a := n.Listen("10.0.0.1:7000")
	b := n.Listen("10.0.0.2:7000")

	if err := a.SendTo([]byte("hello"), b.LocalAddr()); err != nil {
		t.Fatalf("SendTo() error = %v", err)
	}
	p, ok := b.TryReceive()
	if !ok {
		t.Fatalf("TryReceive() found nothing")
	}
	if string(p.Data) != "hello" || p.Addr != a.LocalAddr() {
		t.Errorf("got %q from %s", p.Data, p.Addr)
	}
	if _, ok := b.TryReceive(); ok {
		t.Errorf("TryReceive() returned a second packet")
	}
}

func TestMemoryNetworkLosses(t *testing.T) {
	tests := []struct {
		name  string
		setup func(n *MemoryNetwork, a, b *MemorySocket)
	}{
		{name: "link down", setup: func(n *MemoryNetwork, a, b *MemorySocket) {
			n.SetLinkDown(a.LocalAddr(), b.LocalAddr(), true)
		}},
		{name: "receiver closed", setup: func(n *MemoryNetwork, a, b *MemorySocket) {
			b.Close()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewMemoryNetwork()
			a := n.Listen("10.0.0.1:7000")
			b := n.Listen("10.0.0.2:7000")
			tt.setup(n, a, b)
			if err := a.SendTo([]byte("x"), b.LocalAddr()); err != nil {
				t.Fatalf("SendTo() error = %v", err)
			}
			if b.Pending() != 0 {
				t.Errorf("packet delivered")
			}
		})
	}
}

func TestNormalizeAddr(t *testing.T) {
	got, err := NormalizeAddr("127.0.0.1:7000")
	if err != nil || got != "127.0.0.1:7000" {
		t.Errorf("NormalizeAddr() = %q, %v", got, err)
	}
	if _, err := NormalizeAddr("not an address"); err == nil {
		t.Errorf("NormalizeAddr() accepted garbage")
	}
}

package backend

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/HeatXD/rollnet/rollnet/lib"
	"github.com/HeatXD/rollnet/rollnet/platform"
	"github.com/HeatXD/rollnet/rollnet/rollapi"
	"github.com/HeatXD/rollnet/rollnet/transport"
)

var _ rollapi.Session = (*P2PBackend)(nil)

type testPeer struct {
	session *P2PBackend
	game    *testGame
	local   rollapi.PlayerHandle
}

func newTestPeer(t *testing.T, net *transport.MemoryNetwork, clock platform.Clock, addr string, local rollapi.PlayerHandle, players []rollapi.Player, tweak func(*P2PConfig)) *testPeer {
	cfg := P2PConfig{
		ID:                  addr,
		NumPlayers:          2,
		Fps:                 60,
		MaxPredictionFrames: 8,
		Players:             players,
		Socket:              net.Listen(addr),
		Clock:               clock,
	}
	if tweak != nil {
		tweak(&cfg)
	}
	return &testPeer{
		session: NewP2PBackend(cfg),
		game:    newTestGame(t, int(cfg.NumPlayers)),
		local:   local,
	}
}

// newTestPair builds two peers, A playing handle 0 and B playing handle 1.
// spectators are only added to A.
func newTestPair(t *testing.T, tweak func(*P2PConfig), spectators ...rollapi.Player) (*platform.ManualClock, *transport.MemoryNetwork, *testPeer, *testPeer) {
	clock := platform.NewManualClock(1000)
	net := transport.NewMemoryNetwork()
	playersA := append([]rollapi.Player{
		{Handle: 0, Type: rollapi.PLAYERTYPE_LOCAL},
		{Handle: 1, Type: rollapi.PLAYERTYPE_REMOTE, Address: addrB},
	}, spectators...)
	a := newTestPeer(t, net, clock, addrA, 0, playersA, tweak)
	b := newTestPeer(t, net, clock, addrB, 1, []rollapi.Player{
		{Handle: 0, Type: rollapi.PLAYERTYPE_REMOTE, Address: addrA},
		{Handle: 1, Type: rollapi.PLAYERTYPE_LOCAL},
	}, tweak)
	return clock, net, a, b
}

func (p *testPeer) tick(t *testing.T, bits uint32) rollapi.FrameResult {
	t.Helper()
	if err := p.session.AddLocalInput(p.local, bits); err != nil {
		t.Fatalf("AddLocalInput() error = %v", err)
	}
	result, err := p.session.AdvanceFrame()
	if err != nil {
		t.Fatalf("AdvanceFrame() error = %v", err)
	}
	p.game.apply(result.Actions)
	return result
}

func (p *testPeer) poll(t *testing.T) {
	t.Helper()
	if err := p.session.PollRemoteClients(); err != nil {
		t.Fatalf("PollRemoteClients() error = %v", err)
	}
}

func TestP2PRollbackAfterLateInput(t *testing.T) {
	clock, _, a, b := newTestPair(t, func(cfg *P2PConfig) { cfg.MaxPredictionFrames = 7 })
	synchronize(t, clock, a.session, b.session)

	for i := 0; i < 7; i++ {
		result := a.tick(t, 2)
		want := []string{fmt.Sprintf("save(%d)", i), fmt.Sprintf("advance(%d)", i)}
		if got := describe(result.Actions); result.SkipFrame || !reflect.DeepEqual(got, want) {
			t.Fatalf("tick %d: got %v (skip %v), want %v", i, got, result.SkipFrame, want)
		}
	}
	result := a.tick(t, 2)
	if !result.SkipFrame || len(result.Actions) != 0 {
		t.Fatalf("8th tick: got %v (skip %v), want skip", describe(result.Actions), result.SkipFrame)
	}
	if got := a.session.Sync.FrameCount; got != 7 {
		t.Fatalf("FrameCount after skip = %d, want 7", got)
	}

	b.poll(t)
	for i := 0; i < 10; i++ {
		if result := b.tick(t, 1); result.SkipFrame {
			t.Fatalf("peer B skipped frame %d", i)
		}
	}

	a.poll(t)
	result = a.tick(t, 2)
	want := []string{"load(0)", "advance(0)"}
	for f := 1; f <= 7; f++ {
		want = append(want, fmt.Sprintf("save(%d)", f), fmt.Sprintf("advance(%d)", f))
	}
	if got := describe(result.Actions); !reflect.DeepEqual(got, want) {
		t.Fatalf("rollback actions = %v, want %v", got, want)
	}
	for _, action := range result.Actions {
		if action.Type != rollapi.ACTION_ADVANCE_FRAME {
			continue
		}
		wantInputs := []rollapi.Input{{Bits: 2, Status: rollapi.INPUTSTATUS_CONFIRMED}, {Bits: 1, Status: rollapi.INPUTSTATUS_CONFIRMED}}
		if !reflect.DeepEqual(action.Inputs, wantInputs) {
			t.Errorf("%s inputs = %v, want %v", action, action.Inputs, wantInputs)
		}
	}
}

func TestP2PDeterminismUnderLag(t *testing.T) {
	const frames = 120
	tests := []struct {
		name    string
		delay   int64
		sparse  bool
		maxPred int64
	}{
		{"predicting", 0, false, 8},
		{"sparse saving", 0, true, 8},
		{"input delay", 2, false, 8},
		{"sparse saving with input delay", 2, true, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock, net, a, b := newTestPair(t, func(cfg *P2PConfig) {
				cfg.InputDelay = tt.delay
				cfg.SparseSaving = tt.sparse
				cfg.MaxPredictionFrames = tt.maxPred
			})
			synchronize(t, clock, a.session, b.session)

			rng := rand.New(rand.NewSource(1))
			peers := []*testPeer{a, b}
			for tick := 0; tick < 5000 && (a.game.frame < frames || b.game.frame < frames); tick++ {
				clock.Advance(16)
				switch tick % 25 {
				case 10:
					net.SetLinkDown(addrA, addrB, true)
				case 14:
					net.SetLinkDown(addrA, addrB, false)
				}
				for _, p := range peers {
					if rng.Intn(10) < 7 {
						p.poll(t)
					}
					p.tick(t, inputFor(p.local, p.session.Sync.FrameCount))
				}
			}

			reference := referenceStates(2, tt.delay, frames+tt.maxPred+tt.delay+1)
			for _, p := range peers {
				if p.game.frame < frames {
					t.Fatalf("peer %d only reached frame %d", p.local, p.game.frame)
				}
				confirmed := p.session.Sync.LastConfirmedFrame
				if confirmed < frames/2 {
					t.Fatalf("peer %d only confirmed frame %d", p.local, confirmed)
				}
				for f := int64(0); f <= confirmed && f < p.game.frame; f++ {
					if got, want := p.game.states[f+1], reference[f+1]; got != want {
						t.Fatalf("peer %d: state after frame %d = %x, want %x", p.local, f, got, want)
					}
				}
			}
		})
	}
}

func TestP2POneFramePredictionWindow(t *testing.T) {
	const frames = 200
	clock, _, a, b := newTestPair(t, func(cfg *P2PConfig) { cfg.MaxPredictionFrames = 1 })
	synchronize(t, clock, a.session, b.session)

	for round := 0; round < frames; round++ {
		clock.Advance(16)
		for _, p := range []*testPeer{a, b} {
			p.poll(t)
			if result := p.tick(t, inputFor(p.local, p.session.Sync.FrameCount)); result.SkipFrame {
				t.Fatalf("round %d: peer %d skipped at frame %d, confirmed %d",
					round, p.local, p.session.Sync.FrameCount, p.session.ConfirmedFrame())
			}
		}
	}

	reference := referenceStates(2, 0, frames+2)
	for _, p := range []*testPeer{a, b} {
		if p.game.frame != frames {
			t.Fatalf("peer %d reached frame %d, want %d", p.local, p.game.frame, frames)
		}
		confirmed := p.session.Sync.LastConfirmedFrame
		if confirmed < frames-2 {
			t.Fatalf("peer %d only confirmed frame %d", p.local, confirmed)
		}
		for f := int64(0); f <= confirmed; f++ {
			if got, want := p.game.states[f+1], reference[f+1]; got != want {
				t.Fatalf("peer %d: state after frame %d = %x, want %x", p.local, f, got, want)
			}
		}
	}
}

func TestP2PWaitRecommendation(t *testing.T) {
	const maxPred = 8
	clock, _, a, b := newTestPair(t, nil)
	synchronize(t, clock, a.session, b.session)

	// B runs at half speed, so A ends up ahead and is asked to wait
	var recommendedAt []int64
	for round := 0; round < 1500; round++ {
		clock.Advance(16)
		a.poll(t)
		a.tick(t, inputFor(a.local, a.session.Sync.FrameCount))
		b.poll(t)
		if round%2 == 0 {
			b.tick(t, inputFor(b.local, b.session.Sync.FrameCount))
		}
		if _, err := b.session.GetEvents(); err != nil {
			t.Fatalf("GetEvents() error = %v", err)
		}

		events, err := a.session.GetEvents()
		if err != nil {
			t.Fatalf("GetEvents() error = %v", err)
		}
		for _, e := range events {
			if e.Type != rollapi.EVENT_WAIT_RECOMMENDATION {
				continue
			}
			if e.SkipFrames < 1 || int64(e.SkipFrames) > lib.MIN(lib.MAX_FRAME_ADVANTAGE, maxPred) {
				t.Errorf("round %d: %v, want 1 to %d frames", round, e, lib.MIN(lib.MAX_FRAME_ADVANTAGE, maxPred))
			}
			recommendedAt = append(recommendedAt, a.session.Sync.FrameCount)
		}
	}

	if len(recommendedAt) == 0 {
		t.Fatalf("peer A never got a wait recommendation")
	}
	for i := 1; i < len(recommendedAt); i++ {
		if gap := recommendedAt[i] - recommendedAt[i-1]; gap <= RECOMMENDATION_INTERVAL {
			t.Errorf("wait recommendations at frames %d and %d are %d frames apart, want more than %d",
				recommendedAt[i-1], recommendedAt[i], gap, RECOMMENDATION_INTERVAL)
		}
	}
}

func TestP2PGating(t *testing.T) {
	clock, _, a, b := newTestPair(t, nil, rollapi.Player{Handle: 2, Type: rollapi.PLAYERTYPE_SPECTATOR, Address: addrS})

	if err := a.session.AddLocalInput(0, 1); !errors.Is(err, rollapi.ErrNotSynchronized) {
		t.Errorf("AddLocalInput() while synchronizing error = %v, want %v", err, rollapi.ErrNotSynchronized)
	}
	if _, err := a.session.AdvanceFrame(); !errors.Is(err, rollapi.ErrAdvanceFrame) {
		t.Errorf("AdvanceFrame() while synchronizing error = %v, want %v", err, rollapi.ErrAdvanceFrame)
	}
	if _, err := a.session.GetFramesAhead(); !errors.Is(err, rollapi.ErrNotSynchronized) {
		t.Errorf("GetFramesAhead() while synchronizing error = %v, want %v", err, rollapi.ErrNotSynchronized)
	}

	// the spectator never shows up, so only B has to be synchronized
	a.session.DisconnectPlayer(2)
	synchronize(t, clock, a.session, b.session)

	if _, err := a.session.AdvanceFrame(); !errors.Is(err, rollapi.ErrAdvanceFrame) {
		t.Errorf("AdvanceFrame() without local input error = %v, want %v", err, rollapi.ErrAdvanceFrame)
	}

	tests := []struct {
		name   string
		handle rollapi.PlayerHandle
		want   error
	}{
		{"remote player", 1, rollapi.ErrNotLocalPlayer},
		{"spectator", 2, rollapi.ErrNotLocalPlayer},
		{"negative handle", -1, rollapi.ErrInvalidPlayerHandle},
		{"unknown handle", 9, rollapi.ErrInvalidPlayerHandle},
		{"local player", 0, nil},
	}
	for _, tt := range tests {
		t.Run("AddLocalInput/"+tt.name, func(t *testing.T) {
			if err := a.session.AddLocalInput(tt.handle, 1); !errors.Is(err, tt.want) {
				t.Errorf("AddLocalInput(%d) error = %v, want %v", tt.handle, err, tt.want)
			}
		})
	}

	disconnects := []struct {
		name   string
		handle rollapi.PlayerHandle
		want   error
	}{
		{"local player", 0, rollapi.ErrInvalidPlayerHandle},
		{"unknown handle", 7, rollapi.ErrInvalidPlayerHandle},
		{"spectator twice", 2, rollapi.ErrPlayerDisconnected},
		{"remote player", 1, nil},
		{"remote player twice", 1, rollapi.ErrPlayerDisconnected},
	}
	for _, tt := range disconnects {
		t.Run("DisconnectPlayer/"+tt.name, func(t *testing.T) {
			if err := a.session.DisconnectPlayer(tt.handle); !errors.Is(err, tt.want) {
				t.Errorf("DisconnectPlayer(%d) error = %v, want %v", tt.handle, err, tt.want)
			}
		})
	}

	if _, err := a.session.GetNetworkStats(0); !errors.Is(err, rollapi.ErrInvalidPlayerHandle) {
		t.Errorf("GetNetworkStats(local) error = %v, want %v", err, rollapi.ErrInvalidPlayerHandle)
	}
}

func TestP2PRemoteTimeoutReplaysAsDisconnected(t *testing.T) {
	clock, net, a, b := newTestPair(t, func(cfg *P2PConfig) {
		cfg.DisconnectTimeout = 1000
		cfg.DisconnectNotifyStart = 300
	})
	synchronize(t, clock, a.session, b.session)

	for i := 0; i < 3; i++ {
		a.tick(t, 2)
		b.tick(t, 1)
		a.poll(t)
		b.poll(t)
	}
	if got := a.session.LocalConnectStatus[1].LastFrame; got != 2 {
		t.Fatalf("last frame received from B = %d, want 2", got)
	}

	net.SetLinkDown(addrA, addrB, true)
	a.tick(t, 2)
	a.tick(t, 2)
	a.session.GetEvents()

	var events []rollapi.Event
	for i := 0; i < 20 && !a.session.LocalConnectStatus[1].Disconnected; i++ {
		clock.Advance(100)
		a.poll(t)
		evts, _ := a.session.GetEvents()
		events = append(events, evts...)
	}
	want := []rollapi.EventType{rollapi.EVENT_NETWORK_INTERRUPTED, rollapi.EVENT_DISCONNECTED}
	if got := eventTypes(events); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	if events[0].DisconnectTimeout != 700 || events[0].Player != 1 {
		t.Errorf("interrupted event = %+v, want player 1 with 700ms left", events[0])
	}

	result := a.tick(t, 2)
	wantActions := []string{"load(3)", "advance(3)", "save(4)", "advance(4)", "save(5)", "advance(5)"}
	if got := describe(result.Actions); !reflect.DeepEqual(got, wantActions) {
		t.Fatalf("actions = %v, want %v", got, wantActions)
	}
	for _, action := range result.Actions {
		if action.Type == rollapi.ACTION_ADVANCE_FRAME && action.Inputs[1].Status != rollapi.INPUTSTATUS_DISCONNECTED {
			t.Errorf("%s input for player 1 = %v, want disconnected", action, action.Inputs[1])
		}
	}

	// with every remote player gone the session keeps running on its own
	for i := 0; i < 20; i++ {
		if result := a.tick(t, 2); result.SkipFrame {
			t.Fatalf("skipped frame %d with no connected remote players", a.session.Sync.FrameCount)
		}
	}
}

func TestP2PSyncTimeoutAndResync(t *testing.T) {
	clock := platform.NewManualClock(1000)
	net := transport.NewMemoryNetwork()
	a := newTestPeer(t, net, clock, addrA, 0, []rollapi.Player{
		{Handle: 0, Type: rollapi.PLAYERTYPE_LOCAL},
		{Handle: 1, Type: rollapi.PLAYERTYPE_REMOTE, Address: addrB},
	}, func(cfg *P2PConfig) { cfg.MaxSyncRetries = 3 })

	var events []rollapi.Event
	for i := 0; i < 20; i++ {
		clock.Advance(250)
		a.poll(t)
		evts, _ := a.session.GetEvents()
		events = append(events, evts...)
	}
	if got := eventTypes(events); !reflect.DeepEqual(got, []rollapi.EventType{rollapi.EVENT_DISCONNECTED}) {
		t.Fatalf("events = %v, want a single disconnect", events)
	}
	if state, _ := a.session.GetCurrentState(); state != rollapi.SESSIONSTATE_RUNNING {
		t.Fatalf("state after peer timed out = %s, want running", state)
	}

	b := newTestPeer(t, net, clock, addrB, 1, []rollapi.Player{
		{Handle: 0, Type: rollapi.PLAYERTYPE_REMOTE, Address: addrA},
		{Handle: 1, Type: rollapi.PLAYERTYPE_LOCAL},
	}, nil)
	synchronize(t, clock, b.session, a.session)

	if status := a.session.LocalConnectStatus[1]; status.Disconnected {
		t.Fatalf("player 1 still disconnected after resync: %+v", status)
	}
	for i := 0; i < 5; i++ {
		a.tick(t, 2)
		b.tick(t, 1)
		a.poll(t)
		b.poll(t)
	}
	if got := a.session.LocalConnectStatus[1].LastFrame; got != 4 {
		t.Errorf("last frame received from B = %d, want 4", got)
	}
}

func TestP2PNetworkStats(t *testing.T) {
	clock, _, a, b := newTestPair(t, nil)
	synchronize(t, clock, a.session, b.session)
	for i := 0; i < 4; i++ {
		b.tick(t, 1)
	}
	a.poll(t)

	stats, err := a.session.GetNetworkStats(1)
	if err != nil {
		t.Fatalf("GetNetworkStats() error = %v", err)
	}
	if stats.RecvQueueLen != 4 {
		t.Errorf("RecvQueueLen = %d, want 4", stats.RecvQueueLen)
	}
	if _, err := a.session.GetFramesAhead(); err != nil {
		t.Errorf("GetFramesAhead() error = %v", err)
	}
}

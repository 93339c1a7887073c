package backend

import (
	"testing"

	"github.com/HeatXD/rollnet/rollnet/platform"
	"github.com/HeatXD/rollnet/rollnet/rollapi"
)

const (
	addrA = "10.0.0.1:7000"
	addrB = "10.0.0.2:7000"
	addrS = "10.0.0.3:7000"
)

// testGame is a deterministic toy simulation that executes frame actions
// and fails the test on any action a real host could not perform.
type testGame struct {
	t                *testing.T
	numPlayers       int
	frame            int64
	state            uint64
	saved            map[int64]uint64
	states           map[int64]uint64
	nondeterministic bool
	calls            uint64
}

func newTestGame(t *testing.T, numPlayers int) *testGame {
	return &testGame{
		t:          t,
		numPlayers: numPlayers,
		state:      1,
		saved:      make(map[int64]uint64),
		states:     map[int64]uint64{0: 1},
	}
}

func step(state uint64, inputs []rollapi.Input) uint64 {
	for i, input := range inputs {
		state = state*1099511628211 ^ uint64(input.Bits)<<uint(i)
	}
	return state
}

func (g *testGame) apply(actions []rollapi.FrameAction) {
	g.t.Helper()
	for _, a := range actions {
		switch a.Type {
		case rollapi.ACTION_SAVE_GAME_STATE:
			if a.Frame != g.frame {
				g.t.Fatalf("save(%d) while at frame %d", a.Frame, g.frame)
			}
			g.saved[a.Frame] = g.state
			a.Cell.SetChecksum(g.state)
		case rollapi.ACTION_LOAD_GAME_STATE:
			state, ok := g.saved[a.Frame]
			if !ok {
				g.t.Fatalf("load(%d) of a frame that was never saved", a.Frame)
			}
			g.frame = a.Frame
			g.state = state
		case rollapi.ACTION_ADVANCE_FRAME:
			if a.Frame != g.frame {
				g.t.Fatalf("advance(%d) while at frame %d", a.Frame, g.frame)
			}
			if len(a.Inputs) != g.numPlayers {
				g.t.Fatalf("advance(%d) with %d inputs", a.Frame, len(a.Inputs))
			}
			g.state = step(g.state, a.Inputs)
			if g.nondeterministic {
				g.calls++
				g.state ^= g.calls
			}
			g.frame++
			g.states[g.frame] = g.state
		}
	}
}

func inputFor(handle rollapi.PlayerHandle, frame int64) uint32 {
	return uint32(((frame/3)*31 + int64(handle)*7) % 11)
}

// referenceStates simulates frames straight from inputFor, shifted by the
// input delay.
func referenceStates(numPlayers int, delay int64, frames int64) []uint64 {
	states := make([]uint64, frames+1)
	states[0] = 1
	for f := int64(0); f < frames; f++ {
		inputs := make([]rollapi.Input, numPlayers)
		for h := range inputs {
			if f >= delay {
				inputs[h].Bits = inputFor(rollapi.PlayerHandle(h), f-delay)
			}
		}
		states[f+1] = step(states[f], inputs)
	}
	return states
}

func synchronize(t *testing.T, clock *platform.ManualClock, sessions ...rollapi.Session) {
	t.Helper()
	for i := 0; i < 100; i++ {
		clock.Advance(10)
		running := true
		for _, s := range sessions {
			if err := s.PollRemoteClients(); err != nil {
				t.Fatalf("PollRemoteClients() error = %v", err)
			}
			state, _ := s.GetCurrentState()
			running = running && state == rollapi.SESSIONSTATE_RUNNING
		}
		if running {
			for _, s := range sessions {
				s.GetEvents()
			}
			return
		}
	}
	t.Fatalf("sessions did not synchronize")
}

func describe(actions []rollapi.FrameAction) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.String()
	}
	return out
}

func eventTypes(events []rollapi.Event) []rollapi.EventType {
	out := make([]rollapi.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

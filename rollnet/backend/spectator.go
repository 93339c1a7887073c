package backend

import (
	"fmt"

	"github.com/HeatXD/rollnet/rollnet/lib"
	"github.com/HeatXD/rollnet/rollnet/network"
	"github.com/HeatXD/rollnet/rollnet/platform"
	"github.com/HeatXD/rollnet/rollnet/rollapi"
	"github.com/HeatXD/rollnet/rollnet/transport"
	"github.com/sirupsen/logrus"
)

type SpectatorConfig struct {
	ID                    string
	NumPlayers            int64
	Fps                   int64
	HostAddr              string
	MaxFramesBehind       int64
	CatchupSpeed          int64
	DisconnectTimeout     uint64
	DisconnectNotifyStart uint64
	MaxSyncRetries        int64
	Socket                transport.Socket
	Clock                 platform.Clock
	Log                   *logrus.Entry
}

// SpectatorBackend follows a peer to peer session from its host. It only
// ever advances with the confirmed inputs the host streams.
type SpectatorBackend struct {
	SessionID       string
	Log             *logrus.Entry
	Socket          transport.Socket
	Poll            lib.Poll
	Host            *network.Netplay
	NumPlayers      int64
	MaxFramesBehind int64
	CatchupSpeed    int64
	Inputs          [SPECTATOR_BUFFER_SIZE]lib.GameInput
	LastRecvFrame   int64
	CurrentFrame    int64
	Synchronizing   bool
	EventQueue      EventQueue
}

func NewSpectatorBackend(cfg SpectatorConfig) *SpectatorBackend {
	s := new(SpectatorBackend)
	s.SessionID = cfg.ID
	s.Log = cfg.Log
	if s.Log == nil {
		s.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	s.Socket = cfg.Socket
	s.NumPlayers = cfg.NumPlayers
	s.MaxFramesBehind = cfg.MaxFramesBehind
	s.CatchupSpeed = lib.MAX(cfg.CatchupSpeed, 1)
	s.LastRecvFrame = lib.NULL_FRAME
	s.CurrentFrame = 0
	s.Synchronizing = true
	for i := range s.Inputs {
		s.Inputs[i].Frame = lib.NULL_FRAME
	}
	s.EventQueue.Init(s.Log)
	s.Poll.Init()

	s.Host = new(network.Netplay)
	s.Host.Init(network.Config{
		Socket:     cfg.Socket,
		RemoteAddr: cfg.HostAddr,
		Queue:      0,
		InputWidth: cfg.NumPlayers,
		Fps:        cfg.Fps,
		Clock:      cfg.Clock,
		Log:        s.Log,
	}, &s.Poll)
	s.Host.SetDisconnectTimeout(cfg.DisconnectTimeout)
	s.Host.SetDisconnectNotifyStart(cfg.DisconnectNotifyStart)
	s.Host.MaxSyncRetries = cfg.MaxSyncRetries
	s.Host.AckOnly = true
	s.Host.Synchronize()
	s.Log.Infof("spectating %d players hosted at %s", s.NumPlayers, cfg.HostAddr)
	return s
}

func (s *SpectatorBackend) ID() string {
	return s.SessionID
}

func (s *SpectatorBackend) PollRemoteClients() error {
	for packet, ok := s.Socket.TryReceive(); ok; packet, ok = s.Socket.TryReceive() {
		if packet.Addr != s.Host.RemoteAddr {
			s.Log.Debugf("dropping packet from unknown address %s", packet.Addr)
			continue
		}
		msg, err := network.Decode(packet.Data)
		if err != nil {
			s.Log.WithError(err).Debug("dropping packet from host")
			continue
		}
		s.Host.OnMsg(msg)
	}
	s.Poll.Pump()

	for evt, ok := s.Host.GetEvent(); ok; evt, ok = s.Host.GetEvent() {
		s.OnNetplayEvent(evt)
	}
	return nil
}

func (s *SpectatorBackend) OnNetplayEvent(evt network.Event) {
	addr := s.Host.RemoteAddr
	switch evt.Type {
	case network.EventSynchronizing:
		s.EventQueue.Push(rollapi.Event{Type: rollapi.EVENT_SYNCHRONIZING, Addr: addr, Count: evt.Synchronizing.Count, Total: evt.Synchronizing.Total})
	case network.EventSynchronized:
		s.EventQueue.Push(rollapi.Event{Type: rollapi.EVENT_SYNCHRONIZED, Addr: addr})
		s.Synchronizing = false
	case network.EventInput:
		if evt.Input.Width() != s.NumPlayers {
			s.Log.Warnf("host input has %d words for %d players, ignoring", evt.Input.Width(), s.NumPlayers)
			return
		}
		s.Inputs[evt.Input.Frame%SPECTATOR_BUFFER_SIZE] = evt.Input
		s.LastRecvFrame = evt.Input.Frame
	case network.EventDisconnected:
		s.Host.Disconnect()
		s.EventQueue.Push(rollapi.Event{Type: rollapi.EVENT_DISCONNECTED, Addr: addr})
		// a spectator that never synchronized would otherwise wait forever
		s.Synchronizing = false
	case network.EventNetworkInterrupted:
		s.EventQueue.Push(rollapi.Event{Type: rollapi.EVENT_NETWORK_INTERRUPTED, Addr: addr, DisconnectTimeout: evt.DisconnectTimeout})
	case network.EventNetworkResumed:
		s.EventQueue.Push(rollapi.Event{Type: rollapi.EVENT_NETWORK_RESUMED, Addr: addr})
	}
}

func (s *SpectatorBackend) GetEvents() ([]rollapi.Event, error) {
	return s.EventQueue.Drain(), nil
}

func (s *SpectatorBackend) GetCurrentState() (rollapi.SessionState, error) {
	if s.Synchronizing {
		return rollapi.SESSIONSTATE_SYNCHRONIZING, nil
	}
	return rollapi.SESSIONSTATE_RUNNING, nil
}

func (s *SpectatorBackend) AddLocalInput(handle rollapi.PlayerHandle, bits uint32) error {
	return fmt.Errorf("%w: spectators have no local players", rollapi.ErrNotLocalPlayer)
}

// AdvanceFrame advances one frame, or CatchupSpeed frames when more than
// MaxFramesBehind frames behind the host.
func (s *SpectatorBackend) AdvanceFrame() (rollapi.FrameResult, error) {
	if s.Synchronizing {
		return rollapi.FrameResult{}, fmt.Errorf("%w: session is synchronizing", rollapi.ErrAdvanceFrame)
	}
	behind := s.LastRecvFrame - s.CurrentFrame
	if behind >= SPECTATOR_BUFFER_SIZE {
		return rollapi.FrameResult{}, fmt.Errorf("%w: %d frames behind the host", rollapi.ErrAdvanceFrame, behind)
	}
	framesToAdvance := int64(1)
	if behind > s.MaxFramesBehind {
		framesToAdvance = s.CatchupSpeed
	}

	var actions []rollapi.FrameAction
	for i := int64(0); i < framesToAdvance; i++ {
		input := s.Inputs[s.CurrentFrame%SPECTATOR_BUFFER_SIZE]
		if input.Frame != s.CurrentFrame {
			break
		}
		actions = append(actions, rollapi.FrameAction{
			Type:   rollapi.ACTION_ADVANCE_FRAME,
			Frame:  s.CurrentFrame,
			Inputs: s.inputsFor(input),
		})
		s.CurrentFrame++
	}
	if len(actions) == 0 {
		return rollapi.FrameResult{SkipFrame: true}, nil
	}
	return rollapi.FrameResult{Actions: actions}, nil
}

func (s *SpectatorBackend) inputsFor(input lib.GameInput) []rollapi.Input {
	inputs := make([]rollapi.Input, s.NumPlayers)
	for i := range inputs {
		connected, lastFrame := s.Host.GetPeerConnectStatus(int64(i))
		if !connected && input.Frame > lastFrame {
			inputs[i] = rollapi.Input{Status: rollapi.INPUTSTATUS_DISCONNECTED}
			continue
		}
		inputs[i] = rollapi.Input{Bits: input.Bits[i], Status: rollapi.INPUTSTATUS_CONFIRMED}
	}
	return inputs
}

// GetFramesAhead is negative while inputs from the host are waiting to be
// simulated.
func (s *SpectatorBackend) GetFramesAhead() (int64, error) {
	return s.CurrentFrame - (s.LastRecvFrame + 1), nil
}

func (s *SpectatorBackend) GetNetworkStats(handle rollapi.PlayerHandle) (rollapi.NetworkStats, error) {
	if !s.Host.IsRunning() {
		return rollapi.NetworkStats{}, rollapi.ErrNotSynchronized
	}
	stats := s.Host.GetNetworkStats()
	stats.RecvQueueLen = lib.MAX(0, s.LastRecvFrame-s.CurrentFrame+1)
	return stats, nil
}

func (s *SpectatorBackend) DisconnectPlayer(handle rollapi.PlayerHandle) error {
	return fmt.Errorf("%w: spectators cannot disconnect players", rollapi.ErrInvalidPlayerHandle)
}

func (s *SpectatorBackend) Close() error {
	s.Host.Disconnect()
	s.Log.Info("closing spectator session")
	return s.Socket.Close()
}

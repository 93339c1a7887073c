// Package rollnet creates and drives rollback sessions. A host builds a
// SessionInfo, creates a Session from it and then, once per tick, polls the
// network, reads events, adds its local inputs and performs the actions
// AdvanceFrame returns.
package rollnet

import (
	"fmt"

	"github.com/HeatXD/rollnet/rollnet/backend"
	"github.com/HeatXD/rollnet/rollnet/platform"
	"github.com/HeatXD/rollnet/rollnet/rollapi"
	"github.com/HeatXD/rollnet/rollnet/transport"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session is a running session. It is only valid until CleanSession.
type Session struct {
	info    *SessionInfo
	backend rollapi.Session
	Log     *logrus.Entry
}

type options struct {
	socket transport.Socket
	clock  platform.Clock
	log    *logrus.Entry
}

type Option func(*options)

// WithSocket makes the session use socket instead of binding the local port.
func WithSocket(socket transport.Socket) Option {
	return func(o *options) { o.socket = socket }
}

func WithClock(clock platform.Clock) Option {
	return func(o *options) { o.clock = clock }
}

func WithLogger(log *logrus.Entry) Option {
	return func(o *options) { o.log = log }
}

// CreateSession starts a session from info. Nothing is created when it fails.
func CreateSession(info *SessionInfo, opts ...Option) (*Session, error) {
	if info == nil {
		return nil, fmt.Errorf("%w: no session info", rollapi.ErrFailedSessionAlloc)
	}
	if info.sessionStarted {
		return nil, rollapi.ErrSessionStarted
	}
	if err := info.validate(); err != nil {
		return nil, err
	}

	o := options{clock: platform.SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logrus.NewEntry(logrus.StandardLogger())
	}
	id := uuid.NewString()
	log := o.log.WithField("session", id)

	if o.socket == nil && info.sessionType != rollapi.SESSIONTYPE_SYNC_TEST {
		socket, err := transport.BindUDP(info.localPort, log)
		if err != nil {
			log.WithError(err).Error("cannot create session")
			return nil, fmt.Errorf("%w: %v", rollapi.ErrSocketBindToPort, err)
		}
		o.socket = socket
	}

	s := &Session{info: info, Log: log}
	switch info.sessionType {
	case rollapi.SESSIONTYPE_PEER_TO_PEER:
		s.backend = backend.NewP2PBackend(backend.P2PConfig{
			ID:                    id,
			NumPlayers:            info.numPlayers,
			Fps:                   info.fps,
			InputDelay:            info.inputDelay,
			MaxPredictionFrames:   info.maxPredictionFrames,
			SparseSaving:          info.sparseSaving,
			DisconnectTimeout:     info.disconnectTimeout,
			DisconnectNotifyStart: info.disconnectNotifyStart,
			MaxSyncRetries:        info.maxSyncRetries,
			Players:               info.Players(),
			Socket:                o.socket,
			Clock:                 o.clock,
			Log:                   log,
		})
	case rollapi.SESSIONTYPE_SPECTATOR:
		s.backend = backend.NewSpectatorBackend(backend.SpectatorConfig{
			ID:                    id,
			NumPlayers:            info.numPlayers,
			Fps:                   info.fps,
			HostAddr:              info.host,
			MaxFramesBehind:       info.maxFramesBehind,
			CatchupSpeed:          info.catchupSpeed,
			DisconnectTimeout:     info.disconnectTimeout,
			DisconnectNotifyStart: info.disconnectNotifyStart,
			MaxSyncRetries:        info.maxSyncRetries,
			Socket:                o.socket,
			Clock:                 o.clock,
			Log:                   log,
		})
	case rollapi.SESSIONTYPE_SYNC_TEST:
		s.backend = backend.NewSyncTestBackend(backend.SyncTestConfig{
			ID:            id,
			NumPlayers:    info.numPlayers,
			CheckDistance: info.checkDistance,
			InputDelay:    info.inputDelay,
			Log:           log,
		})
	}

	info.sessionStarted = true
	log.Infof("created %s session", info.sessionType)
	return s, nil
}

func (s *Session) valid() bool {
	return s != nil && s.backend != nil
}

func ID(s *Session) (string, error) {
	if !s.valid() {
		return "", rollapi.ErrInvalidSessionPointer
	}
	return s.backend.ID(), nil
}

// PollRemoteClients reads the network and runs the protocol timers. Call it
// once per tick, even while synchronizing.
func PollRemoteClients(s *Session) error {
	if !s.valid() {
		return rollapi.ErrInvalidSessionPointer
	}
	return s.backend.PollRemoteClients()
}

// GetEvents returns the events queued since the last call, oldest first.
func GetEvents(s *Session) ([]rollapi.Event, error) {
	if !s.valid() {
		return nil, rollapi.ErrInvalidSessionPointer
	}
	return s.backend.GetEvents()
}

func AddLocalInput(s *Session, handle rollapi.PlayerHandle, bits uint32) error {
	if !s.valid() {
		return rollapi.ErrInvalidSessionPointer
	}
	return s.backend.AddLocalInput(handle, bits)
}

func GetCurrentState(s *Session) (rollapi.SessionState, error) {
	if !s.valid() {
		return rollapi.SESSIONSTATE_SYNCHRONIZING, rollapi.ErrInvalidSessionPointer
	}
	return s.backend.GetCurrentState()
}

// AdvanceFrame returns the actions to perform, in order, for this tick.
func AdvanceFrame(s *Session) (rollapi.FrameResult, error) {
	if !s.valid() {
		return rollapi.FrameResult{}, rollapi.ErrInvalidSessionPointer
	}
	return s.backend.AdvanceFrame()
}

func GetFramesAhead(s *Session) (int64, error) {
	if !s.valid() {
		return 0, rollapi.ErrInvalidSessionPointer
	}
	return s.backend.GetFramesAhead()
}

func GetNetworkStats(s *Session, handle rollapi.PlayerHandle) (rollapi.NetworkStats, error) {
	if !s.valid() {
		return rollapi.NetworkStats{}, rollapi.ErrInvalidSessionPointer
	}
	return s.backend.GetNetworkStats(handle)
}

func DisconnectPlayer(s *Session, handle rollapi.PlayerHandle) error {
	if !s.valid() {
		return rollapi.ErrInvalidSessionPointer
	}
	return s.backend.DisconnectPlayer(handle)
}

// CleanSession tears the session down. The session is unusable afterwards
// and its SessionInfo can create a new one.
func CleanSession(s *Session) error {
	if !s.valid() {
		return rollapi.ErrInvalidSessionPointer
	}
	err := s.backend.Close()
	s.backend = nil
	s.info.sessionStarted = false
	s.Log.Info("session cleaned")
	if err != nil {
		return fmt.Errorf("closing session: %w", err)
	}
	return nil
}

package rollnet

import (
	"fmt"

	"github.com/HeatXD/rollnet/rollnet/backend"
	"github.com/HeatXD/rollnet/rollnet/rollapi"
	"github.com/HeatXD/rollnet/rollnet/transport"
)

// SessionInfo is the configuration a session is created from. It is built
// with the setters below; a setter that fails leaves it unchanged, and every
// setter fails with ErrSessionStarted while a session created from it is
// alive.
type SessionInfo struct {
	sessionStarted        bool
	sessionType           rollapi.SessionType
	numPlayers            int64
	fps                   int64
	inputDelay            int64
	maxPredictionFrames   int64
	maxFramesBehind       int64
	catchupSpeed          int64
	checkDistance         int64
	localPort             uint16
	host                  string
	sparseSaving          bool
	disconnectTimeout     uint64
	disconnectNotifyStart uint64
	maxSyncRetries        int64
	players               []rollapi.Player
}

func NewSessionInfo() *SessionInfo {
	return &SessionInfo{
		sessionType:           rollapi.SESSIONTYPE_NOT_SET,
		numPlayers:            rollapi.DEFAULT_NUM_PLAYERS,
		fps:                   rollapi.DEFAULT_FPS,
		inputDelay:            rollapi.DEFAULT_INPUT_DELAY,
		maxPredictionFrames:   rollapi.DEFAULT_MAX_PREDICTION_FRAMES,
		maxFramesBehind:       rollapi.DEFAULT_MAX_FRAMES_BEHIND,
		catchupSpeed:          rollapi.DEFAULT_CATCHUP_SPEED,
		checkDistance:         rollapi.DEFAULT_CHECK_DISTANCE,
		localPort:             rollapi.DEFAULT_LOCAL_PORT,
		disconnectTimeout:     rollapi.DEFAULT_DISCONNECT_TIMEOUT,
		disconnectNotifyStart: rollapi.DEFAULT_DISCONNECT_NOTIFY_START,
		maxSyncRetries:        rollapi.DEFAULT_MAX_SYNC_RETRIES,
	}
}

func (i *SessionInfo) SessionStarted() bool { return i.sessionStarted }
func (i *SessionInfo) SessionType() rollapi.SessionType { return i.sessionType }
func (i *SessionInfo) NumPlayers() int64 { return i.numPlayers }
func (i *SessionInfo) Fps() int64 { return i.fps }
func (i *SessionInfo) InputDelay() int64 { return i.inputDelay }
func (i *SessionInfo) MaxPredictionFrames() int64 { return i.maxPredictionFrames }
func (i *SessionInfo) MaxFramesBehind() int64 { return i.maxFramesBehind }
func (i *SessionInfo) CatchupSpeed() int64 { return i.catchupSpeed }
func (i *SessionInfo) CheckDistance() int64 { return i.checkDistance }
func (i *SessionInfo) LocalPort() uint16 { return i.localPort }
func (i *SessionInfo) Host() string { return i.host }
func (i *SessionInfo) SparseSaving() bool { return i.sparseSaving }
func (i *SessionInfo) DisconnectTimeout() uint64 { return i.disconnectTimeout }
func (i *SessionInfo) DisconnectNotifyStart() uint64 { return i.disconnectNotifyStart }
func (i *SessionInfo) MaxSyncRetries() int64 { return i.maxSyncRetries }
func (i *SessionInfo) Players() []rollapi.Player { return append([]rollapi.Player(nil), i.players...) }

func (i *SessionInfo) checkNotStarted() error {
	if i.sessionStarted {
		return rollapi.ErrSessionStarted
	}
	return nil
}

// checkBeforeSetup guards the settings every session type is built with.
func (i *SessionInfo) checkBeforeSetup() error {
	if err := i.checkNotStarted(); err != nil {
		return err
	}
	if i.sessionType != rollapi.SESSIONTYPE_NOT_SET {
		return fmt.Errorf("%w: session type already set to %s", rollapi.ErrInvalidSessionType, i.sessionType)
	}
	return nil
}

func (i *SessionInfo) SetNumPlayers(numPlayers int64) error {
	if err := i.checkBeforeSetup(); err != nil {
		return err
	}
	if numPlayers < 1 || numPlayers > rollapi.MAX_PLAYERS {
		return fmt.Errorf("%w: %d players, want 1 to %d", rollapi.ErrSessionCreation, numPlayers, rollapi.MAX_PLAYERS)
	}
	i.numPlayers = numPlayers
	return nil
}

func (i *SessionInfo) SetSparseSaving(sparse bool) error {
	if err := i.checkBeforeSetup(); err != nil {
		return err
	}
	i.sparseSaving = sparse
	return nil
}

func checkRange(name string, value, min, max int64) error {
	if value < min || value > max {
		return fmt.Errorf("%w: %s %d out of range [%d, %d]", rollapi.ErrSessionCreation, name, value, min, max)
	}
	return nil
}

func (i *SessionInfo) SetupP2PSession(localPort uint16, fps, inputDelay, maxPredictionFrames int64) error {
	if err := i.checkBeforeSetup(); err != nil {
		return err
	}
	if err := checkRange("fps", fps, 1, 1000); err != nil {
		return err
	}
	if err := checkRange("input delay", inputDelay, 0, rollapi.MAX_INPUT_DELAY); err != nil {
		return err
	}
	if err := checkRange("max prediction frames", maxPredictionFrames, 1, rollapi.MAX_PREDICTION_FRAMES); err != nil {
		return err
	}
	i.sessionType = rollapi.SESSIONTYPE_PEER_TO_PEER
	i.localPort = localPort
	i.fps = fps
	i.inputDelay = inputDelay
	i.maxPredictionFrames = maxPredictionFrames
	return nil
}

func (i *SessionInfo) SetupSpectatorSession(localPort uint16, host string, maxFramesBehind, catchupSpeed int64) error {
	if err := i.checkBeforeSetup(); err != nil {
		return err
	}
	addr, err := transport.NormalizeAddr(host)
	if err != nil {
		return fmt.Errorf("%w: host %q: %v", rollapi.ErrSocketParse, host, err)
	}
	if err := checkRange("max frames behind", maxFramesBehind, 1, backend.SPECTATOR_BUFFER_SIZE-1); err != nil {
		return err
	}
	if err := checkRange("catchup speed", catchupSpeed, 1, maxFramesBehind); err != nil {
		return err
	}
	i.sessionType = rollapi.SESSIONTYPE_SPECTATOR
	i.localPort = localPort
	i.host = addr
	i.maxFramesBehind = maxFramesBehind
	i.catchupSpeed = catchupSpeed
	return nil
}

func (i *SessionInfo) SetupSyncTestSession(checkDistance, inputDelay int64) error {
	if err := i.checkBeforeSetup(); err != nil {
		return err
	}
	if err := checkRange("check distance", checkDistance, 0, rollapi.MAX_PREDICTION_FRAMES); err != nil {
		return err
	}
	if err := checkRange("input delay", inputDelay, 0, rollapi.MAX_INPUT_DELAY); err != nil {
		return err
	}
	i.sessionType = rollapi.SESSIONTYPE_SYNC_TEST
	i.checkDistance = checkDistance
	i.inputDelay = inputDelay
	return nil
}

func (i *SessionInfo) SetDisconnectTimeout(timeout uint64) error {
	if err := i.checkNotStarted(); err != nil {
		return err
	}
	i.disconnectTimeout = timeout
	return nil
}

func (i *SessionInfo) SetDisconnectNotifyStart(timeout uint64) error {
	if err := i.checkNotStarted(); err != nil {
		return err
	}
	i.disconnectNotifyStart = timeout
	return nil
}

func (i *SessionInfo) SetMaxSyncRetries(retries int64) error {
	if err := i.checkNotStarted(); err != nil {
		return err
	}
	if retries < 0 {
		return fmt.Errorf("%w: negative sync retries %d", rollapi.ErrSessionCreation, retries)
	}
	i.maxSyncRetries = retries
	return nil
}

// AddPlayer registers a player once the session type is set. Remote and
// spectator addresses are resolved and stored normalized.
func (i *SessionInfo) AddPlayer(player rollapi.Player) error {
	if err := i.checkNotStarted(); err != nil {
		return err
	}
	switch i.sessionType {
	case rollapi.SESSIONTYPE_NOT_SET:
		return fmt.Errorf("%w: set up the session before adding players", rollapi.ErrInvalidSessionType)
	case rollapi.SESSIONTYPE_SPECTATOR:
		return fmt.Errorf("%w: spectator sessions have no players", rollapi.ErrInvalidSessionType)
	case rollapi.SESSIONTYPE_SYNC_TEST:
		if player.Type != rollapi.PLAYERTYPE_LOCAL {
			return fmt.Errorf("%w: sync test players are all local", rollapi.ErrInvalidSessionType)
		}
	}

	var code error
	switch player.Type {
	case rollapi.PLAYERTYPE_LOCAL:
		code = rollapi.ErrAddLocalPlayer
		player.Address = ""
		if err := i.checkPlayerHandle(player.Handle, code); err != nil {
			return err
		}
	case rollapi.PLAYERTYPE_REMOTE:
		code = rollapi.ErrAddRemotePlayer
		if err := i.checkPlayerHandle(player.Handle, code); err != nil {
			return err
		}
	case rollapi.PLAYERTYPE_SPECTATOR:
		code = rollapi.ErrAddSpectator
		if player.Handle < rollapi.PlayerHandle(i.numPlayers) || player.Handle >= rollapi.PlayerHandle(i.numPlayers+rollapi.MAX_SPECTATORS) {
			return fmt.Errorf("%w: spectator handle %d outside [%d, %d)", code, player.Handle, i.numPlayers, i.numPlayers+rollapi.MAX_SPECTATORS)
		}
	default:
		return fmt.Errorf("%w: %s", rollapi.ErrPlayerTypeNotFound, player.Type)
	}

	for _, p := range i.players {
		if p.Handle == player.Handle {
			return fmt.Errorf("%w: handle %d already taken by a %s player", code, player.Handle, p.Type)
		}
	}

	if player.Type != rollapi.PLAYERTYPE_LOCAL {
		addr, err := transport.NormalizeAddr(player.Address)
		if err != nil {
			return fmt.Errorf("%w: %s player %d address %q: %v", rollapi.ErrSocketParse, player.Type, player.Handle, player.Address, err)
		}
		player.Address = addr
		for _, p := range i.players {
			if p.Address != addr {
				continue
			}
			// several remote players may share one peer, a spectator may not
			if p.Type == rollapi.PLAYERTYPE_SPECTATOR || player.Type == rollapi.PLAYERTYPE_SPECTATOR {
				return fmt.Errorf("%w: address %s already used by player %d", code, addr, p.Handle)
			}
		}
	}

	i.players = append(i.players, player)
	return nil
}

func (i *SessionInfo) checkPlayerHandle(handle rollapi.PlayerHandle, code error) error {
	if handle < 0 || int64(handle) >= i.numPlayers {
		return fmt.Errorf("%w: handle %d outside [0, %d)", code, handle, i.numPlayers)
	}
	return nil
}

// validate checks what only makes sense once every player is known.
func (i *SessionInfo) validate() error {
	switch i.sessionType {
	case rollapi.SESSIONTYPE_NOT_SET:
		return fmt.Errorf("%w: no session type set", rollapi.ErrInvalidSessionType)
	case rollapi.SESSIONTYPE_PEER_TO_PEER:
		seen := make([]bool, i.numPlayers)
		for _, p := range i.players {
			if p.Type != rollapi.PLAYERTYPE_SPECTATOR {
				seen[p.Handle] = true
			}
		}
		for handle, ok := range seen {
			if !ok {
				return fmt.Errorf("%w: player %d was never added", rollapi.ErrSessionCreation, handle)
			}
		}
	}
	return nil
}

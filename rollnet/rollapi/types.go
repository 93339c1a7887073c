package rollapi

import "fmt"

const (
	MAX_PLAYERS           = 16
	MAX_SPECTATORS        = 32
	MAX_PREDICTION_FRAMES = 32
	MAX_INPUT_DELAY       = 16
	NULL_FRAME            = -1
)

// Defaults of a freshly created SessionInfo.
const (
	DEFAULT_NUM_PLAYERS             = 2
	DEFAULT_FPS                     = 60
	DEFAULT_INPUT_DELAY             = 0
	DEFAULT_MAX_PREDICTION_FRAMES   = 8
	DEFAULT_MAX_FRAMES_BEHIND       = 10
	DEFAULT_CATCHUP_SPEED           = 1
	DEFAULT_CHECK_DISTANCE          = 2
	DEFAULT_LOCAL_PORT              = 1234
	DEFAULT_DISCONNECT_TIMEOUT      = 2000
	DEFAULT_DISCONNECT_NOTIFY_START = 500
	DEFAULT_MAX_SYNC_RETRIES        = 25
)

// Session is the opaque handle a host drives once per tick.
type Session interface {
	ID() string
	PollRemoteClients() error
	GetEvents() ([]Event, error)
	AddLocalInput(handle PlayerHandle, bits uint32) error
	GetCurrentState() (SessionState, error)
	AdvanceFrame() (FrameResult, error)
	GetFramesAhead() (int64, error)
	GetNetworkStats(handle PlayerHandle) (NetworkStats, error)
	DisconnectPlayer(handle PlayerHandle) error
	Close() error
}

type PlayerHandle int64

type PlayerType int64

const (
	PLAYERTYPE_LOCAL PlayerType = iota
	PLAYERTYPE_REMOTE
	PLAYERTYPE_SPECTATOR
)

func (t PlayerType) String() string {
	switch t {
	case PLAYERTYPE_LOCAL:
		return "local"
	case PLAYERTYPE_REMOTE:
		return "remote"
	case PLAYERTYPE_SPECTATOR:
		return "spectator"
	}
	return fmt.Sprintf("PlayerType(%d)", int64(t))
}

// Player assigns a role to a handle. Address is only read for remote
// players and spectators.
type Player struct {
	Handle  PlayerHandle
	Type    PlayerType
	Address string
}

type SessionType int64

const (
	SESSIONTYPE_NOT_SET SessionType = iota
	SESSIONTYPE_PEER_TO_PEER
	SESSIONTYPE_SPECTATOR
	SESSIONTYPE_SYNC_TEST
)

func (t SessionType) String() string {
	switch t {
	case SESSIONTYPE_NOT_SET:
		return "not-set"
	case SESSIONTYPE_PEER_TO_PEER:
		return "p2p"
	case SESSIONTYPE_SPECTATOR:
		return "spectator"
	case SESSIONTYPE_SYNC_TEST:
		return "synctest"
	}
	return fmt.Sprintf("SessionType(%d)", int64(t))
}

type SessionState int64

const (
	SESSIONSTATE_SYNCHRONIZING SessionState = iota
	SESSIONSTATE_RUNNING
)

func (s SessionState) String() string {
	if s == SESSIONSTATE_RUNNING {
		return "running"
	}
	return "synchronizing"
}

type InputStatus int64

const (
	INPUTSTATUS_CONFIRMED InputStatus = iota
	INPUTSTATUS_PREDICTED
	INPUTSTATUS_DISCONNECTED
)

func (s InputStatus) String() string {
	switch s {
	case INPUTSTATUS_CONFIRMED:
		return "confirmed"
	case INPUTSTATUS_PREDICTED:
		return "predicted"
	case INPUTSTATUS_DISCONNECTED:
		return "disconnected"
	}
	return fmt.Sprintf("InputStatus(%d)", int64(s))
}

// Input is the value a player contributed to one frame.
type Input struct {
	Bits   uint32
	Status InputStatus
}

type FrameActionType int64

const (
	ACTION_SAVE_GAME_STATE FrameActionType = iota
	ACTION_LOAD_GAME_STATE
	ACTION_ADVANCE_FRAME
)

func (t FrameActionType) String() string {
	switch t {
	case ACTION_SAVE_GAME_STATE:
		return "save"
	case ACTION_LOAD_GAME_STATE:
		return "load"
	case ACTION_ADVANCE_FRAME:
		return "advance"
	}
	return fmt.Sprintf("FrameActionType(%d)", int64(t))
}

// FrameAction is one step the host has to perform, in order.
//
// Save and load name the state at the start of Frame, i.e. after Frame frames
// have been simulated. Advance simulates Frame using Inputs (one per player,
// indexed by handle). Cell is set on saves; the host may store a checksum in
// it.
type FrameAction struct {
	Type   FrameActionType
	Frame  int64
	Inputs []Input
	Cell   *GameStateCell
}

func (a FrameAction) String() string {
	return fmt.Sprintf("%s(%d)", a.Type, a.Frame)
}

// FrameResult is the outcome of one AdvanceFrame call. When SkipFrame is set
// the host must not advance its simulation this tick.
type FrameResult struct {
	SkipFrame bool
	Actions   []FrameAction
}

// GameStateCell carries optional metadata for one saved state.
type GameStateCell struct {
	frame       int64
	checksum    uint64
	hasChecksum bool
}

func NewGameStateCell(frame int64) *GameStateCell {
	return &GameStateCell{frame: frame}
}

func (c *GameStateCell) Frame() int64 {
	return c.frame
}

func (c *GameStateCell) SetChecksum(checksum uint64) {
	c.checksum = checksum
	c.hasChecksum = true
}

func (c *GameStateCell) Checksum() (uint64, bool) {
	return c.checksum, c.hasChecksum
}

type EventType int64

const (
	EVENT_EMPTY EventType = iota
	EVENT_SYNCHRONIZING
	EVENT_SYNCHRONIZED
	EVENT_DISCONNECTED
	EVENT_NETWORK_INTERRUPTED
	EVENT_NETWORK_RESUMED
	EVENT_WAIT_RECOMMENDATION
)

func (t EventType) String() string {
	switch t {
	case EVENT_EMPTY:
		return "empty"
	case EVENT_SYNCHRONIZING:
		return "synchronizing"
	case EVENT_SYNCHRONIZED:
		return "synchronized"
	case EVENT_DISCONNECTED:
		return "disconnected"
	case EVENT_NETWORK_INTERRUPTED:
		return "network-interrupted"
	case EVENT_NETWORK_RESUMED:
		return "network-resumed"
	case EVENT_WAIT_RECOMMENDATION:
		return "wait-recommendation"
	}
	return fmt.Sprintf("EventType(%d)", int64(t))
}

// Event is a session notification. Which fields are meaningful depends on
// Type: Count/Total for Synchronizing, DisconnectTimeout (ms) for
// NetworkInterrupted, SkipFrames for WaitRecommendation. Player and Addr
// identify the peer for every peer-related event.
type Event struct {
	Type              EventType
	Player            PlayerHandle
	Addr              string
	Count             uint32
	Total             uint32
	DisconnectTimeout uint64
	SkipFrames        uint32
}

func (e Event) String() string {
	switch e.Type {
	case EVENT_SYNCHRONIZING:
		return fmt.Sprintf("%s %s (%d/%d)", e.Type, e.Addr, e.Count, e.Total)
	case EVENT_NETWORK_INTERRUPTED:
		return fmt.Sprintf("%s %s (timeout %dms)", e.Type, e.Addr, e.DisconnectTimeout)
	case EVENT_WAIT_RECOMMENDATION:
		return fmt.Sprintf("%s (skip %d)", e.Type, e.SkipFrames)
	}
	return fmt.Sprintf("%s %s", e.Type, e.Addr)
}

type NetworkStats struct {
	SendQueueLen       int64
	RecvQueueLen       int64
	Ping               int64
	KbpsSent           int64
	LocalFramesBehind  int64
	RemoteFramesBehind int64
}

// ConnectStatus is what a peer knows about one player: whether it dropped
// out and the last frame of input received from it.
type ConnectStatus struct {
	Disconnected bool
	LastFrame    int64
}

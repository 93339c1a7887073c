package netplay

import (
	"github.com/HeatXD/rollnet/rollnet/rollapi"
)

type PlayerConnectState int64

const (
	Connecting    PlayerConnectState = 0
	Synchronizing PlayerConnectState = 1
	Running       PlayerConnectState = 2
	Disconnected  PlayerConnectState = 3
	Disconnecting PlayerConnectState = 4
)

func (s PlayerConnectState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Synchronizing:
		return "synchronizing"
	case Running:
		return "running"
	case Disconnected:
		return "disconnected"
	case Disconnecting:
		return "disconnecting"
	}
	return "unknown"
}

func (s PlayerConnectState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type PlayerConnectionInfo struct {
	Type              rollapi.PlayerType   `json:"-"`
	TypeName          string               `json:"type"`
	Handle            rollapi.PlayerHandle `json:"handle"`
	Address           string               `json:"address,omitempty"`
	State             PlayerConnectState   `json:"state"`
	ConnectProgress   int64                `json:"connectProgress"`
	DisconnectTimeout int64                `json:"disconnectTimeout,omitempty"`
	DisconnectStart   int64                `json:"disconnectStart,omitempty"`
}

type ChecksumInfo struct {
	FrameNumber int64  `json:"frame"`
	Checksum    uint64 `json:"checksum"`
}

// NonGameState is what the host knows besides the game itself: who is
// playing and how the connection to them is going.
type NonGameState struct {
	LocalPlayerHandles []rollapi.PlayerHandle
	Players            []PlayerConnectionInfo
	NumPlayers         int64
	Now                ChecksumInfo
	Periodic           ChecksumInfo
}

func (n *NonGameState) Init(numPlayers int64, players []rollapi.Player) {
	n.NumPlayers = numPlayers
	n.Players = n.Players[:0]
	n.LocalPlayerHandles = n.LocalPlayerHandles[:0]
	for _, p := range players {
		info := PlayerConnectionInfo{Type: p.Type, TypeName: p.Type.String(), Handle: p.Handle, Address: p.Address}
		if p.Type == rollapi.PLAYERTYPE_LOCAL {
			info.ConnectProgress = 100
			n.LocalPlayerHandles = append(n.LocalPlayerHandles, p.Handle)
		}
		n.Players = append(n.Players, info)
	}
}

func (n *NonGameState) find(handle rollapi.PlayerHandle) *PlayerConnectionInfo {
	for i := range n.Players {
		if n.Players[i].Handle == handle {
			return &n.Players[i]
		}
	}
	return nil
}

func (n *NonGameState) SetConnectState(handle rollapi.PlayerHandle, state PlayerConnectState) {
	if p := n.find(handle); p != nil {
		p.ConnectProgress = 0
		p.State = state
	}
}

func (n *NonGameState) SetDisconnectTimeout(handle rollapi.PlayerHandle, when int64, timeout int64) {
	if p := n.find(handle); p != nil {
		p.DisconnectStart = when
		p.DisconnectTimeout = timeout
		p.State = Disconnecting
	}
}

// SetAllConnectState moves every player that is still connected to state.
func (n *NonGameState) SetAllConnectState(state PlayerConnectState) {
	for i := range n.Players {
		if n.Players[i].State != Disconnected {
			n.Players[i].State = state
		}
	}
}

func (n *NonGameState) UpdateConnectProgress(handle rollapi.PlayerHandle, progress int64) {
	if p := n.find(handle); p != nil {
		p.ConnectProgress = progress
	}
}

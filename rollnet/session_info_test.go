package rollnet

import (
	"errors"
	"reflect"
	"testing"

	"github.com/HeatXD/rollnet/rollnet/rollapi"
)

func TestSessionInfoDefaults(t *testing.T) {
	info := NewSessionInfo()
	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"session type", info.SessionType(), rollapi.SESSIONTYPE_NOT_SET},
		{"num players", info.NumPlayers(), int64(2)},
		{"fps", info.Fps(), int64(60)},
		{"input delay", info.InputDelay(), int64(0)},
		{"max prediction frames", info.MaxPredictionFrames(), int64(8)},
		{"max frames behind", info.MaxFramesBehind(), int64(10)},
		{"catchup speed", info.CatchupSpeed(), int64(1)},
		{"check distance", info.CheckDistance(), int64(2)},
		{"local port", info.LocalPort(), uint16(1234)},
		{"sparse saving", info.SparseSaving(), false},
		{"session started", info.SessionStarted(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestSessionInfoOrdering(t *testing.T) {
	tests := []struct {
		name  string
		steps func(*SessionInfo) error
		want  error
	}{
		{
			name:  "add player before setup",
			steps: func(i *SessionInfo) error { return i.AddPlayer(rollapi.Player{Handle: 0, Type: rollapi.PLAYERTYPE_LOCAL}) },
			want:  rollapi.ErrInvalidSessionType,
		},
		{
			name: "setup twice",
			steps: func(i *SessionInfo) error {
				i.SetupSyncTestSession(2, 0)
				return i.SetupP2PSession(7000, 60, 0, 8)
			},
			want: rollapi.ErrInvalidSessionType,
		},
		{
			name: "num players after setup",
			steps: func(i *SessionInfo) error {
				i.SetupP2PSession(7000, 60, 0, 8)
				return i.SetNumPlayers(3)
			},
			want: rollapi.ErrInvalidSessionType,
		},
		{
			name: "sparse saving after setup",
			steps: func(i *SessionInfo) error {
				i.SetupP2PSession(7000, 60, 0, 8)
				return i.SetSparseSaving(true)
			},
			want: rollapi.ErrInvalidSessionType,
		},
		{
			name:  "too many players",
			steps: func(i *SessionInfo) error { return i.SetNumPlayers(rollapi.MAX_PLAYERS + 1) },
			want:  rollapi.ErrSessionCreation,
		},
		{
			name:  "prediction window too large",
			steps: func(i *SessionInfo) error { return i.SetupP2PSession(7000, 60, 0, rollapi.MAX_PREDICTION_FRAMES+1) },
			want:  rollapi.ErrSessionCreation,
		},
		{
			name:  "unresolvable spectator host",
			steps: func(i *SessionInfo) error { return i.SetupSpectatorSession(7000, "not an address", 10, 1) },
			want:  rollapi.ErrSocketParse,
		},
		{
			name:  "catchup faster than the window",
			steps: func(i *SessionInfo) error { return i.SetupSpectatorSession(7000, "127.0.0.1:7001", 4, 5) },
			want:  rollapi.ErrSessionCreation,
		},
		{
			name: "players on a spectator session",
			steps: func(i *SessionInfo) error {
				i.SetupSpectatorSession(7000, "127.0.0.1:7001", 10, 1)
				return i.AddPlayer(rollapi.Player{Handle: 0, Type: rollapi.PLAYERTYPE_LOCAL})
			},
			want: rollapi.ErrInvalidSessionType,
		},
		{
			name: "remote player in a sync test",
			steps: func(i *SessionInfo) error {
				i.SetupSyncTestSession(2, 0)
				return i.AddPlayer(rollapi.Player{Handle: 1, Type: rollapi.PLAYERTYPE_REMOTE, Address: "127.0.0.1:7001"})
			},
			want: rollapi.ErrInvalidSessionType,
		},
		{
			name: "valid p2p setup",
			steps: func(i *SessionInfo) error {
				if err := i.SetNumPlayers(3); err != nil {
					return err
				}
				if err := i.SetSparseSaving(true); err != nil {
					return err
				}
				return i.SetupP2PSession(7000, 60, 2, 8)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.steps(NewSessionInfo()); !errors.Is(err, tt.want) {
				t.Errorf("got error %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSessionInfoAddPlayer(t *testing.T) {
	tests := []struct {
		name   string
		player rollapi.Player
		want   error
	}{
		{"local", rollapi.Player{Handle: 0, Type: rollapi.PLAYERTYPE_LOCAL}, nil},
		{"duplicate handle", rollapi.Player{Handle: 1, Type: rollapi.PLAYERTYPE_LOCAL}, rollapi.ErrAddLocalPlayer},
		{"local handle out of range", rollapi.Player{Handle: 3, Type: rollapi.PLAYERTYPE_LOCAL}, rollapi.ErrAddLocalPlayer},
		{"remote handle out of range", rollapi.Player{Handle: -1, Type: rollapi.PLAYERTYPE_REMOTE, Address: "127.0.0.1:7001"}, rollapi.ErrAddRemotePlayer},
		{"remote bad address", rollapi.Player{Handle: 2, Type: rollapi.PLAYERTYPE_REMOTE, Address: "127.0.0.1"}, rollapi.ErrSocketParse},
		{"second remote on the same peer", rollapi.Player{Handle: 2, Type: rollapi.PLAYERTYPE_REMOTE, Address: "127.0.0.1:7001"}, nil},
		{"spectator with a player handle", rollapi.Player{Handle: 2, Type: rollapi.PLAYERTYPE_SPECTATOR, Address: "127.0.0.1:7002"}, rollapi.ErrAddSpectator},
		{"spectator on a player address", rollapi.Player{Handle: 3, Type: rollapi.PLAYERTYPE_SPECTATOR, Address: "127.0.0.1:7001"}, rollapi.ErrAddSpectator},
		{"spectator", rollapi.Player{Handle: 3, Type: rollapi.PLAYERTYPE_SPECTATOR, Address: "127.0.0.1:7002"}, nil},
		{"unknown type", rollapi.Player{Handle: 4, Type: rollapi.PlayerType(9)}, rollapi.ErrPlayerTypeNotFound},
	}

	info := NewSessionInfo()
	info.SetNumPlayers(3)
	if err := info.SetupP2PSession(7000, 60, 0, 8); err != nil {
		t.Fatalf("SetupP2PSession() error = %v", err)
	}
	if err := info.AddPlayer(rollapi.Player{Handle: 1, Type: rollapi.PLAYERTYPE_REMOTE, Address: "127.0.0.1:7001"}); err != nil {
		t.Fatalf("AddPlayer() error = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := info.Players()
			err := info.AddPlayer(tt.player)
			if !errors.Is(err, tt.want) {
				t.Fatalf("AddPlayer(%+v) error = %v, want %v", tt.player, err, tt.want)
			}
			if err != nil && !reflect.DeepEqual(info.Players(), before) {
				t.Errorf("failed AddPlayer changed players to %v", info.Players())
			}
		})
	}
	if got := len(info.Players()); got != 4 {
		t.Errorf("%d players registered, want 4", got)
	}
}

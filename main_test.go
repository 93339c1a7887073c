package main

import (
	"errors"
	"testing"

	"github.com/HeatXD/rollnet/rollnet/rollapi"
	"github.com/HeatXD/rollnet/settings"
)

func TestBuildSessionInfo(t *testing.T) {
	tests := []struct {
		name        string
		edit        func(s *settings.Settings)
		wantErr     error
		wantType    rollapi.SessionType
		wantPlayers int
	}{
		{
			name:        "defaults",
			edit:        func(s *settings.Settings) { s.InputDelay = 2 },
			wantType:    rollapi.SESSIONTYPE_PEER_TO_PEER,
			wantPlayers: 2,
		},
		{
			name: "p2p with spectators",
			edit: func(s *settings.Settings) {
				s.InputDelay = 0
				s.Spectators = []string{"127.0.0.1:2000", "127.0.0.1:2001"}
			},
			wantType:    rollapi.SESSIONTYPE_PEER_TO_PEER,
			wantPlayers: 4,
		},
		{
			name: "spectator",
			edit: func(s *settings.Settings) {
				s.Mode = "spectator"
				s.Host = "127.0.0.1:1234"
			},
			wantType: rollapi.SESSIONTYPE_SPECTATOR,
		},
		{
			name: "sync test with auto delay",
			edit: func(s *settings.Settings) {
				s.Mode = "synctest"
				s.Players = []string{"local", "local", "local"}
			},
			wantType:    rollapi.SESSIONTYPE_SYNC_TEST,
			wantPlayers: 3,
		},
		{
			name:    "unknown mode",
			edit:    func(s *settings.Settings) { s.Mode = "lan" },
			wantErr: rollapi.ErrInvalidSessionType,
		},
		{
			name: "no players",
			edit: func(s *settings.Settings) {
				s.InputDelay = 0
				s.Players = nil
			},
			wantErr: rollapi.ErrSessionCreation,
		},
		{
			name: "bad peer address",
			edit: func(s *settings.Settings) {
				s.InputDelay = 0
				s.Players = []string{"local", "nowhere"}
			},
			wantErr: rollapi.ErrSocketParse,
		},
		{
			name: "spectator host without port",
			edit: func(s *settings.Settings) {
				s.Mode = "spectator"
				s.Host = "nowhere"
			},
			wantErr: rollapi.ErrSocketParse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings.Defaults()
			tt.edit(&s)
			info, err := buildSessionInfo(s)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("buildSessionInfo() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildSessionInfo() error = %v", err)
			}
			if info.SessionType() != tt.wantType {
				t.Errorf("session type = %s, want %s", info.SessionType(), tt.wantType)
			}
			if got := len(info.Players()); got != tt.wantPlayers {
				t.Errorf("%d players added, want %d", got, tt.wantPlayers)
			}
		})
	}
}

func TestDemoInputs(t *testing.T) {
	seen := map[uint32]bool{}
	for frame := int64(0); frame < 240; frame++ {
		seen[demoInputs(0, frame)] = true
	}
	if len(seen) != 4 {
		t.Errorf("demo inputs used %d directions over 240 frames, want 4", len(seen))
	}
	if demoInputs(0, 0) == demoInputs(4, 0) {
		t.Errorf("players 0 and 4 start in the same direction")
	}
}

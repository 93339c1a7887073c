package backend

import (
	"fmt"

	"github.com/HeatXD/rollnet/rollnet/lib"
	"github.com/HeatXD/rollnet/rollnet/rollapi"
	"github.com/sirupsen/logrus"
)

type SyncTestConfig struct {
	ID            string
	NumPlayers    int64
	CheckDistance int64
	InputDelay    int64
	Log           *logrus.Entry
}

// SyncTestBackend runs every player locally and rolls back CheckDistance
// frames on every tick, so that a non deterministic save, load or advance
// shows up as a checksum mismatch.
type SyncTestBackend struct {
	SessionID          string
	Log                *logrus.Entry
	NumPlayers         int64
	CheckDistance      int64
	Sync               lib.Sync
	LocalConnectStatus []rollapi.ConnectStatus
	Staged             []stagedInput
	Checksums          map[int64]uint64
	PendingCells       []*rollapi.GameStateCell
}

func NewSyncTestBackend(cfg SyncTestConfig) *SyncTestBackend {
	s := new(SyncTestBackend)
	s.SessionID = cfg.ID
	s.Log = cfg.Log
	if s.Log == nil {
		s.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	s.NumPlayers = cfg.NumPlayers
	s.CheckDistance = cfg.CheckDistance
	s.Sync.Init(lib.Config{
		NumPlayers:          s.NumPlayers,
		NumPredictionFrames: lib.MAX(s.CheckDistance, 1),
		Log:                 s.Log,
	})
	s.LocalConnectStatus = make([]rollapi.ConnectStatus, s.NumPlayers)
	for i := range s.LocalConnectStatus {
		s.LocalConnectStatus[i].LastFrame = lib.NULL_FRAME
		s.Sync.SetFrameDelay(int64(i), cfg.InputDelay)
	}
	s.Staged = make([]stagedInput, s.NumPlayers)
	s.Checksums = make(map[int64]uint64)
	s.Log.Infof("sync test with %d players, check distance %d", s.NumPlayers, s.CheckDistance)
	return s
}

func (s *SyncTestBackend) ID() string {
	return s.SessionID
}

func (s *SyncTestBackend) PollRemoteClients() error {
	return nil
}

func (s *SyncTestBackend) GetEvents() ([]rollapi.Event, error) {
	return nil, nil
}

func (s *SyncTestBackend) GetCurrentState() (rollapi.SessionState, error) {
	return rollapi.SESSIONSTATE_RUNNING, nil
}

func (s *SyncTestBackend) AddLocalInput(handle rollapi.PlayerHandle, bits uint32) error {
	if handle < 0 || int64(handle) >= s.NumPlayers {
		return fmt.Errorf("%w: %d", rollapi.ErrInvalidPlayerHandle, handle)
	}
	s.Staged[handle] = stagedInput{Bits: bits, Set: true}
	return nil
}

// verifyChecksums compares the checksums the host stored for the previous
// tick's saves with the first checksum seen for the same frame.
func (s *SyncTestBackend) verifyChecksums() error {
	cells := s.PendingCells
	s.PendingCells = nil
	for _, cell := range cells {
		checksum, ok := cell.Checksum()
		if !ok {
			continue
		}
		previous, seen := s.Checksums[cell.Frame()]
		if !seen {
			s.Checksums[cell.Frame()] = checksum
			continue
		}
		if previous != checksum {
			s.Log.Errorf("checksum for frame %d does not match saved (%016x != %016x)", cell.Frame(), checksum, previous)
			return fmt.Errorf("%w: frame %d: %016x != %016x", rollapi.ErrMismatchedChecksum, cell.Frame(), checksum, previous)
		}
	}
	return nil
}

func (s *SyncTestBackend) AdvanceFrame() (rollapi.FrameResult, error) {
	for i := range s.Staged {
		if !s.Staged[i].Set {
			return rollapi.FrameResult{}, fmt.Errorf("%w: no input for local player %d", rollapi.ErrAdvanceFrame, i)
		}
	}
	if err := s.verifyChecksums(); err != nil {
		return rollapi.FrameResult{}, err
	}

	var actions []rollapi.FrameAction
	frameCount := s.Sync.FrameCount
	if s.CheckDistance > 0 && frameCount > s.CheckDistance {
		actions = s.Sync.AdjustSimulation(frameCount-s.CheckDistance, frameCount-1, s.LocalConnectStatus, actions)
	}
	actions = append(actions, s.Sync.SaveCurrentFrame())

	for i := range s.Staged {
		added := s.Sync.AddLocalInput(int64(i), s.Staged[i].Bits)
		s.Staged[i] = stagedInput{}
		if added.Frame != lib.NULL_FRAME {
			s.LocalConnectStatus[i].LastFrame = added.Frame
		}
	}
	actions = append(actions, s.Sync.AdvanceFrame(s.LocalConnectStatus))

	oldest := s.Sync.FrameCount - s.CheckDistance - 1
	s.Sync.SetLastConfirmedFrame(oldest)
	for frame := range s.Checksums {
		if frame < oldest {
			delete(s.Checksums, frame)
		}
	}
	for _, action := range actions {
		if action.Type == rollapi.ACTION_SAVE_GAME_STATE {
			s.PendingCells = append(s.PendingCells, action.Cell)
		}
	}
	return rollapi.FrameResult{Actions: actions}, nil
}

func (s *SyncTestBackend) GetFramesAhead() (int64, error) {
	return 0, nil
}

func (s *SyncTestBackend) GetNetworkStats(handle rollapi.PlayerHandle) (rollapi.NetworkStats, error) {
	return rollapi.NetworkStats{}, fmt.Errorf("%w: sync test sessions have no network", rollapi.ErrInvalidPlayerHandle)
}

func (s *SyncTestBackend) DisconnectPlayer(handle rollapi.PlayerHandle) error {
	return fmt.Errorf("%w: sync test players are all local", rollapi.ErrInvalidPlayerHandle)
}

func (s *SyncTestBackend) Close() error {
	s.Log.Info("closing sync test session")
	return nil
}

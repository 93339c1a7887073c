package netplay

import (
	"fmt"

	"github.com/HeatXD/rollnet/rollnet/rollapi"
)

const PERIODIC_CHECKSUM_INTERVAL = 90

// StateStore keeps the serialized snapshots the session may load again.
type StateStore struct {
	Frames map[int64][]byte
}

func (s *StateStore) Init() {
	s.Frames = make(map[int64][]byte)
}

func (s *StateStore) Save(frame int64, data []byte) {
	s.Frames[frame] = data
	for f := range s.Frames {
		if f < frame-2*rollapi.MAX_PREDICTION_FRAMES {
			delete(s.Frames, f)
		}
	}
}

func (s *StateStore) Load(frame int64) ([]byte, bool) {
	data, ok := s.Frames[frame]
	return data, ok
}

// Perform executes the actions of one AdvanceFrame result in order.
func (h *Host) Perform(actions []rollapi.FrameAction) error {
	for _, a := range actions {
		switch a.Type {
		case rollapi.ACTION_SAVE_GAME_STATE:
			h.SaveGameState(a)
		case rollapi.ACTION_LOAD_GAME_STATE:
			if err := h.LoadGameState(a.Frame); err != nil {
				return err
			}
		case rollapi.ACTION_ADVANCE_FRAME:
			if a.Frame != h.Game.Frame {
				return fmt.Errorf("asked to advance frame %d while at frame %d", a.Frame, h.Game.Frame)
			}
			h.Game.Advance(a.Inputs)
		}
	}
	return nil
}

func (h *Host) SaveGameState(a rollapi.FrameAction) {
	data := h.Game.Save()
	checksum := Checksum(data)
	h.States.Save(a.Frame, data)
	if a.Cell != nil {
		a.Cell.SetChecksum(checksum)
	}
	h.NGS.Now = ChecksumInfo{FrameNumber: a.Frame, Checksum: checksum}
	if a.Frame%PERIODIC_CHECKSUM_INTERVAL == 0 {
		h.NGS.Periodic = h.NGS.Now
	}
	h.Log.Debugf("saved frame %d (checksum %08x)", a.Frame, checksum)
}

func (h *Host) LoadGameState(frame int64) error {
	data, ok := h.States.Load(frame)
	if !ok {
		return fmt.Errorf("no snapshot for frame %d", frame)
	}
	h.Log.Debugf("loading frame %d", frame)
	return h.Game.Load(data)
}

func (h *Host) OnEvent(e rollapi.Event) {
	switch e.Type {
	case rollapi.EVENT_SYNCHRONIZING:
		progress := int64(0)
		if e.Total > 0 {
			progress = 100 * int64(e.Count) / int64(e.Total)
		}
		h.NGS.SetConnectState(e.Player, Synchronizing)
		h.NGS.UpdateConnectProgress(e.Player, progress)
	case rollapi.EVENT_SYNCHRONIZED:
		h.NGS.UpdateConnectProgress(e.Player, 100)
	case rollapi.EVENT_NETWORK_INTERRUPTED:
		h.NGS.SetDisconnectTimeout(e.Player, int64(h.Clock.NowMS()), int64(e.DisconnectTimeout))
	case rollapi.EVENT_NETWORK_RESUMED:
		h.NGS.SetConnectState(e.Player, Running)
	case rollapi.EVENT_DISCONNECTED:
		h.NGS.SetConnectState(e.Player, Disconnected)
	case rollapi.EVENT_WAIT_RECOMMENDATION:
		h.SkipFrames += int64(e.SkipFrames)
	}
}

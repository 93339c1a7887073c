package lib

import (
	"fmt"

	"github.com/HeatXD/rollnet/rollnet/rollapi"
	"github.com/sirupsen/logrus"
)

type Config struct {
	NumPlayers          int64
	NumPredictionFrames int64
	SparseSaving        bool
	Log                 *logrus.Entry
}

type SavedFrame struct {
	Frame int64
	Cell  *rollapi.GameStateCell
}

// SavedState remembers which frames the host was asked to save. The host owns
// the snapshots; a frame is only ever loaded if it is still listed here.
type SavedState struct {
	Frames    []SavedFrame
	Head      int64
	LastSaved int64
}

func (s *SavedState) Init(n int64) {
	s.Frames = make([]SavedFrame, n)
	for i := range s.Frames {
		s.Frames[i].Frame = NULL_FRAME
	}
	s.Head = 0
	s.LastSaved = NULL_FRAME
}

func (s *SavedState) Find(frame int64) int64 {
	for i := range s.Frames {
		if s.Frames[i].Frame == frame {
			return int64(i)
		}
	}
	return -1
}

func (s *SavedState) Save(frame int64, cell *rollapi.GameStateCell) {
	idx := s.Find(frame)
	if idx < 0 {
		idx = s.Head
		s.Head = (s.Head + 1) % int64(len(s.Frames))
	}
	s.Frames[idx] = SavedFrame{Frame: frame, Cell: cell}
	s.LastSaved = frame
}

// Sync is the frame bookkeeping shared by every session type: the current
// frame, the input queues, the saved frames, and the rollback sequence.
type Sync struct {
	LastConfirmedFrame  int64
	FrameCount          int64
	MaxPredictionFrames int64
	SparseSaving        bool
	SavedState          SavedState
	InputQueues         []InputQueue
	Config              Config
	Log                 *logrus.Entry
}

func (s *Sync) Init(config Config) {
	s.Config = config
	s.FrameCount = 0
	s.LastConfirmedFrame = NULL_FRAME
	s.MaxPredictionFrames = config.NumPredictionFrames
	s.SparseSaving = config.SparseSaving
	s.Log = config.Log
	if s.Log == nil {
		s.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	s.SavedState.Init(2*s.MaxPredictionFrames + 2)
	s.CreateQueues(config)
}

func (s *Sync) CreateQueues(config Config) {
	s.InputQueues = make([]InputQueue, config.NumPlayers)
	for i := range s.InputQueues {
		s.InputQueues[i].Init(int64(i), s.Log)
	}
}

func (s *Sync) SetFrameDelay(queue int64, delay int64) {
	s.InputQueues[queue].SetFrameDelay(delay)
}

// SetLastConfirmedFrame drops the inputs no rollback can reach anymore.
func (s *Sync) SetLastConfirmedFrame(frame int64) {
	s.LastConfirmedFrame = frame
	discard := frame
	if s.SparseSaving {
		discard = MIN(discard, s.SavedState.LastSaved)
	}
	if discard > 0 {
		for i := range s.InputQueues {
			s.InputQueues[i].DiscardConfirmedFrames(discard - 1)
		}
	}
}

// AddLocalInput stores the input for the current frame and returns the frame
// it landed on after the queue's frame delay.
func (s *Sync) AddLocalInput(queue int64, bits uint32) GameInput {
	var input GameInput
	input.SimpleInit(s.FrameCount, bits)
	input.Frame = s.InputQueues[queue].AddInput(input)
	return input
}

func (s *Sync) AddRemoteInput(queue int64, input GameInput) {
	s.InputQueues[queue].AddInput(input)
}

// SynchronizedInputs returns the input of every player for the current
// frame, predicting where nothing was received yet.
func (s *Sync) SynchronizedInputs(status []rollapi.ConnectStatus) []rollapi.Input {
	inputs := make([]rollapi.Input, len(s.InputQueues))
	for i := range s.InputQueues {
		if status[i].Disconnected && s.FrameCount > status[i].LastFrame {
			inputs[i] = rollapi.Input{Bits: 0, Status: rollapi.INPUTSTATUS_DISCONNECTED}
			continue
		}
		input, confirmed := s.InputQueues[i].GetInput(s.FrameCount)
		inputs[i] = rollapi.Input{Bits: input.Word(), Status: rollapi.INPUTSTATUS_PREDICTED}
		if confirmed {
			inputs[i].Status = rollapi.INPUTSTATUS_CONFIRMED
		}
	}
	return inputs
}

// GetConfirmedInputs packs the confirmed input of every player for frame,
// zero for players that were disconnected by then.
func (s *Sync) GetConfirmedInputs(frame int64, status []rollapi.ConnectStatus) GameInput {
	var output GameInput
	output.Init(frame, nil, int64(len(s.InputQueues)))
	for i := range s.InputQueues {
		if status[i].Disconnected && frame > status[i].LastFrame {
			continue
		}
		input, ok := s.InputQueues[i].GetConfirmedInput(frame)
		if !ok {
			logrus.Panic(fmt.Sprintf("queue %d: no confirmed input for frame %d", i, frame))
		}
		output.Bits[i] = input.Word()
	}
	return output
}

func (s *Sync) SaveCurrentFrame() rollapi.FrameAction {
	cell := rollapi.NewGameStateCell(s.FrameCount)
	s.SavedState.Save(s.FrameCount, cell)
	s.Log.Debugf("saving frame %d", s.FrameCount)
	return rollapi.FrameAction{Type: rollapi.ACTION_SAVE_GAME_STATE, Frame: s.FrameCount, Cell: cell}
}

func (s *Sync) LoadFrame(frame int64) rollapi.FrameAction {
	if frame >= s.FrameCount {
		logrus.Panic(fmt.Sprintf("cannot load frame %d from frame %d", frame, s.FrameCount))
	}
	idx := s.SavedState.Find(frame)
	if idx < 0 {
		logrus.Panic(fmt.Sprintf("frame %d was never saved", frame))
	}
	s.Log.Debugf("loading frame %d (was at %d)", frame, s.FrameCount)
	s.FrameCount = frame
	return rollapi.FrameAction{Type: rollapi.ACTION_LOAD_GAME_STATE, Frame: frame, Cell: s.SavedState.Frames[idx].Cell}
}

// AdvanceFrame returns the advance action for the current frame and moves on.
func (s *Sync) AdvanceFrame(status []rollapi.ConnectStatus) rollapi.FrameAction {
	action := rollapi.FrameAction{
		Type:   rollapi.ACTION_ADVANCE_FRAME,
		Frame:  s.FrameCount,
		Inputs: s.SynchronizedInputs(status),
	}
	s.FrameCount++
	return action
}

func (s *Sync) GetLastSavedFrame() int64 {
	return s.SavedState.LastSaved
}

// ReachedPredictionThreshold tells whether simulating the current frame would
// run further ahead of confirmedFrame than the prediction window allows:
// frames confirmedFrame+1 to FrameCount are predicted.
func (s *Sync) ReachedPredictionThreshold(confirmedFrame int64) bool {
	return s.FrameCount-confirmedFrame > s.MaxPredictionFrames
}

// CheckSimulationConsistency returns the earliest frame that was simulated
// with a wrong prediction, taking seekTo into account, or NULL_FRAME.
func (s *Sync) CheckSimulationConsistency(seekTo int64) int64 {
	firstIncorrect := seekTo
	for i := range s.InputQueues {
		incorrect := s.InputQueues[i].GetFirstIncorrectFrame()
		if incorrect != NULL_FRAME && (firstIncorrect == NULL_FRAME || incorrect < firstIncorrect) {
			firstIncorrect = incorrect
		}
	}
	return firstIncorrect
}

func (s *Sync) ResetPrediction(frameNumber int64) {
	for i := range s.InputQueues {
		s.InputQueues[i].ResetPrediction(frameNumber)
	}
}

// AdjustSimulation loads seekTo, or the last saved frame when saving sparsely,
// and replays up to the current frame. Replayed frames are saved again,
// except the loaded one; sparse saving only keeps the first frame not fully
// confirmed.
func (s *Sync) AdjustSimulation(seekTo int64, confirmedFrame int64, status []rollapi.ConnectStatus, actions []rollapi.FrameAction) []rollapi.FrameAction {
	frameCount := s.FrameCount
	loadFrame := seekTo
	if s.SparseSaving {
		loadFrame = s.SavedState.LastSaved
	}
	if loadFrame == NULL_FRAME || loadFrame > seekTo {
		logrus.Panic(fmt.Sprintf("no saved frame to roll back to frame %d (last saved %d)", seekTo, s.SavedState.LastSaved))
	}

	s.Log.Debugf("catching up from frame %d to frame %d", loadFrame, frameCount)

	actions = append(actions, s.LoadFrame(loadFrame))
	s.ResetPrediction(loadFrame)

	for s.FrameCount < frameCount {
		if s.FrameCount != loadFrame && (!s.SparseSaving || s.FrameCount == confirmedFrame+1) {
			actions = append(actions, s.SaveCurrentFrame())
		}
		actions = append(actions, s.AdvanceFrame(status))
	}

	if s.FrameCount != frameCount {
		logrus.Panic(fmt.Sprintf("replay ended at frame %d instead of %d", s.FrameCount, frameCount))
	}
	return actions
}

// CheckLastSavedState keeps the last sparse save within the prediction
// window, at the first frame that is not fully confirmed.
func (s *Sync) CheckLastSavedState(confirmedFrame int64, status []rollapi.ConnectStatus, actions []rollapi.FrameAction) []rollapi.FrameAction {
	lastSaved := s.SavedState.LastSaved
	if lastSaved != NULL_FRAME && s.FrameCount-lastSaved < s.MaxPredictionFrames {
		return actions
	}
	if confirmedFrame+1 >= s.FrameCount {
		return append(actions, s.SaveCurrentFrame())
	}
	return s.AdjustSimulation(lastSaved, confirmedFrame, status, actions)
}

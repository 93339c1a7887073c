package lib

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

const INPUT_QUEUE_LENGTH = 128

// InputQueue stores the inputs of one player, slot frame%INPUT_QUEUE_LENGTH.
// Frames after the last stored one are served as predictions repeating the
// most recent input; a later input that disagrees with what was predicted
// marks FirstIncorrectFrame until the prediction is reset.
type InputQueue struct {
	ID                  int64
	FrameDelay          int64
	FirstKeptFrame      int64
	LastUserAddedFrame  int64
	LastAddedFrame      int64
	FirstIncorrectFrame int64
	LastFrameRequested  int64
	LastInput           GameInput
	Prediction          GameInput
	Inputs              [INPUT_QUEUE_LENGTH]GameInput
	Log                 *logrus.Entry
}

func (i *InputQueue) Init(id int64, log *logrus.Entry) {
	i.ID = id
	i.FrameDelay = 0
	i.FirstKeptFrame = 0
	i.LastUserAddedFrame = NULL_FRAME
	i.LastAddedFrame = NULL_FRAME
	i.FirstIncorrectFrame = NULL_FRAME
	i.LastFrameRequested = NULL_FRAME
	i.LastInput.SimpleInit(NULL_FRAME, 0)
	i.Prediction.SimpleInit(NULL_FRAME, 0)
	for j := range i.Inputs {
		i.Inputs[j].SimpleInit(NULL_FRAME, 0)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	i.Log = log.WithField("queue", id)
}

func (i *InputQueue) GetLastConfirmedFrame() int64 {
	return i.LastAddedFrame
}

func (i *InputQueue) GetFirstIncorrectFrame() int64 {
	return i.FirstIncorrectFrame
}

func (i *InputQueue) SetFrameDelay(delay int64) {
	i.FrameDelay = delay
}

// DiscardConfirmedFrames forgets every input up to and including frame, but
// never one that was not requested yet.
func (i *InputQueue) DiscardConfirmedFrames(frame int64) {
	if frame < 0 {
		return
	}
	if i.LastFrameRequested != NULL_FRAME {
		frame = MIN(frame, i.LastFrameRequested)
	}
	frame = MIN(frame, i.LastAddedFrame)
	if frame+1 > i.FirstKeptFrame {
		i.Log.Debugf("discarding confirmed frames up to %d", frame)
		i.FirstKeptFrame = frame + 1
	}
}

// ResetPrediction leaves prediction mode before the frames from frame on are
// simulated again.
func (i *InputQueue) ResetPrediction(frame int64) {
	if i.FirstIncorrectFrame != NULL_FRAME && frame > i.FirstIncorrectFrame {
		logrus.Panic(fmt.Sprintf("queue %d: reset to frame %d past first incorrect frame %d", i.ID, frame, i.FirstIncorrectFrame))
	}
	i.Prediction.Frame = NULL_FRAME
	i.FirstIncorrectFrame = NULL_FRAME
	i.LastFrameRequested = NULL_FRAME
}

func (i *InputQueue) stored(frame int64) bool {
	return frame >= i.FirstKeptFrame && frame <= i.LastAddedFrame &&
		i.Inputs[frame%INPUT_QUEUE_LENGTH].Frame == frame
}

func (i *InputQueue) GetConfirmedInput(requestedFrame int64) (GameInput, bool) {
	if !i.stored(requestedFrame) {
		return GameInput{}, false
	}
	return i.Inputs[requestedFrame%INPUT_QUEUE_LENGTH].Clone(), true
}

// GetInput returns the input for requestedFrame and whether it is confirmed.
func (i *InputQueue) GetInput(requestedFrame int64) (GameInput, bool) {
	// Requesting input while in an error state means we forgot to roll back.
	if i.FirstIncorrectFrame != NULL_FRAME {
		logrus.Panic(fmt.Sprintf("queue %d: input requested for frame %d with pending misprediction at %d", i.ID, requestedFrame, i.FirstIncorrectFrame))
	}
	if requestedFrame < i.FirstKeptFrame {
		logrus.Panic(fmt.Sprintf("queue %d: frame %d already discarded (first kept %d)", i.ID, requestedFrame, i.FirstKeptFrame))
	}

	i.LastFrameRequested = requestedFrame

	if i.Prediction.Frame == NULL_FRAME {
		if i.stored(requestedFrame) {
			return i.Inputs[requestedFrame%INPUT_QUEUE_LENGTH].Clone(), true
		}

		if i.LastAddedFrame == NULL_FRAME {
			i.Log.Debugf("basing new prediction frame on empty input")
			i.Prediction.SimpleInit(NULL_FRAME, 0)
		} else {
			i.Log.Debugf("basing new prediction frame on previously added frame %d", i.LastInput.Frame)
			i.Prediction = i.LastInput.Clone()
		}
		i.Prediction.Frame++
	}

	if i.Prediction.Frame < 0 {
		logrus.Panic(fmt.Sprintf("queue %d: bad prediction frame %d", i.ID, i.Prediction.Frame))
	}
	result := i.Prediction.Clone()
	result.Frame = requestedFrame
	return result, false
}

// AddInput appends the next input of the player and returns the frame it was
// stored at once shifted by the frame delay, or NULL_FRAME if it was dropped.
func (i *InputQueue) AddInput(input GameInput) int64 {
	if i.LastUserAddedFrame != NULL_FRAME && input.Frame != i.LastUserAddedFrame+1 {
		logrus.Panic(fmt.Sprintf("queue %d: input for frame %d added after frame %d", i.ID, input.Frame, i.LastUserAddedFrame))
	}
	i.LastUserAddedFrame = input.Frame

	newFrame := i.AdvanceQueueHead(input.Frame)
	if newFrame != NULL_FRAME {
		i.AddDelayedInputToQueue(input, newFrame)
	}
	return newFrame
}

func (i *InputQueue) AddDelayedInputToQueue(input GameInput, frameNumber int64) {
	if i.LastAddedFrame != NULL_FRAME && frameNumber != i.LastAddedFrame+1 {
		logrus.Panic(fmt.Sprintf("queue %d: delayed input for frame %d after frame %d", i.ID, frameNumber, i.LastAddedFrame))
	}
	if frameNumber-i.FirstKeptFrame >= INPUT_QUEUE_LENGTH {
		logrus.Panic(fmt.Sprintf("queue %d: overflow adding frame %d, oldest kept frame %d", i.ID, frameNumber, i.FirstKeptFrame))
	}

	stored := input.Clone()
	stored.Frame = frameNumber
	i.Inputs[frameNumber%INPUT_QUEUE_LENGTH] = stored
	i.LastAddedFrame = frameNumber
	i.LastInput = stored.Clone()

	if i.Prediction.Frame != NULL_FRAME {
		if frameNumber != i.Prediction.Frame {
			logrus.Panic(fmt.Sprintf("queue %d: input for frame %d while predicting frame %d", i.ID, frameNumber, i.Prediction.Frame))
		}

		// Remember the first input which differs from the prediction.
		if i.FirstIncorrectFrame == NULL_FRAME && !i.Prediction.Equal(stored, true) {
			i.Log.Debugf("frame %d does not match prediction, marking error", frameNumber)
			i.FirstIncorrectFrame = frameNumber
		}

		// Every requested frame has been confirmed correct, stop predicting.
		if i.Prediction.Frame == i.LastFrameRequested && i.FirstIncorrectFrame == NULL_FRAME {
			i.Log.Debugf("prediction is correct, leaving prediction mode")
			i.Prediction.Frame = NULL_FRAME
		} else {
			i.Prediction.Frame++
		}
	}
}

// AdvanceQueueHead fills the gap a frame delay leaves in front of frame with
// copies of the last input and returns the frame the input belongs to.
func (i *InputQueue) AdvanceQueueHead(frame int64) int64 {
	expectedFrame := i.LastAddedFrame + 1
	frame += i.FrameDelay

	if expectedFrame > frame {
		// The frame delay was reduced, drop this input.
		i.Log.Debugf("dropping input frame %d (expected next frame to be %d)", frame, expectedFrame)
		return NULL_FRAME
	}

	for expectedFrame < frame {
		i.Log.Debugf("adding padding frame %d to account for change in frame delay", expectedFrame)
		i.AddDelayedInputToQueue(i.LastInput, expectedFrame)
		expectedFrame++
	}
	return frame
}

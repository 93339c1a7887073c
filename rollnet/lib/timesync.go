package lib

import (
	"github.com/sirupsen/logrus"
)

const (
	FRAME_WINDOW_SIZE   = 40
	MIN_UNIQUE_FRAMES   = 10
	MIN_FRAME_ADVANTAGE = 3
	MAX_FRAME_ADVANTAGE = 9
)

// TimeSync keeps a window of how far ahead each side believes the other is.
// Local samples are remote frame minus local frame as measured here, remote
// samples the same value as measured by the peer.
type TimeSync struct {
	Local      [FRAME_WINDOW_SIZE]int64
	Remote     [FRAME_WINDOW_SIZE]int64
	LastInputs [MIN_UNIQUE_FRAMES]GameInput
	Count      int64
	Log        *logrus.Entry
}

func (t *TimeSync) Init(log *logrus.Entry) {
	t.Count = 0
	t.Local = [FRAME_WINDOW_SIZE]int64{}
	t.Remote = [FRAME_WINDOW_SIZE]int64{}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	t.Log = log
}

func (t *TimeSync) AdvanceFrame(input GameInput, advantage int64, radvantage int64) {
	// Remember the last frame and frame advantage
	t.LastInputs[input.Frame%MIN_UNIQUE_FRAMES] = input.Clone()
	t.Local[input.Frame%FRAME_WINDOW_SIZE] = advantage
	t.Remote[input.Frame%FRAME_WINDOW_SIZE] = radvantage
}

func (t *TimeSync) averages() (float64, float64) {
	sum := int64(0)
	for i := 0; i < len(t.Local); i++ {
		sum += t.Local[i]
	}
	advantage := float64(sum) / float64(len(t.Local))

	sum = 0
	for i := 0; i < len(t.Remote); i++ {
		sum += t.Remote[i]
	}
	radvantage := float64(sum) / float64(len(t.Remote))
	return advantage, radvantage
}

// AverageFrameAdvantage is how many frames this side runs ahead of the
// peer, negative when behind. Both sides meet in the middle.
func (t *TimeSync) AverageFrameAdvantage() int64 {
	advantage, radvantage := t.averages()
	return int64((radvantage - advantage) / 2)
}

// RecommendFrameWaitDuration returns how many frames this side should wait
// to let the peer catch up, never more than maxWait.
func (t *TimeSync) RecommendFrameWaitDuration(requireIdleInput bool, maxWait int64) int64 {
	advantage, radvantage := t.averages()

	t.Count++

	// See if someone should take action. The person furthest ahead
	// needs to slow down so the other user can catch up.
	// Only do this if both clients agree on who's ahead.
	if advantage >= radvantage {
		return 0
	}

	// Both clients agree that we're the one ahead. Split
	// the difference between the two to figure out how long to
	// sleep for.
	sleepFrames := int64(((radvantage - advantage) / 2) + 0.5)

	t.Log.Debugf("iteration %d: sleep frames is %d", t.Count, sleepFrames)

	// Some things just aren't worth correcting for.
	if sleepFrames < MIN_FRAME_ADVANTAGE {
		return 0
	}

	// Wait for the input to go idle before recommending a sleep so a
	// held motion doesn't get cut in half.
	if requireIdleInput {
		for i := 1; i < len(t.LastInputs); i++ {
			if !t.LastInputs[i].Equal(t.LastInputs[0], true) {
				t.Log.Debugf("iteration %d: rejecting due to input change at position %d", t.Count, i)
				return 0
			}
		}
	}

	return MIN(MIN(sleepFrames, MAX_FRAME_ADVANTAGE), maxWait)
}

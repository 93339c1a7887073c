// Package delay picks a local input delay from the network latency.
package delay

import (
	"math"
	"time"

	"github.com/HeatXD/rollnet/rollnet/rollapi"
)

const MAX_FRAME_DELAY = 8

// FromPing covers half the round trip with input delay: frames of one way
// latency at fps, rounded, clamped to [0, MAX_FRAME_DELAY].
func FromPing(rtt time.Duration, fps int64) int64 {
	if fps <= 0 {
		fps = rollapi.DEFAULT_FPS
	}
	frameTime := float64(time.Second) / float64(fps)
	delay := int64(math.Round(float64(rtt) / 2 / frameTime))
	if delay < 0 {
		return 0
	}
	if delay > MAX_FRAME_DELAY {
		return MAX_FRAME_DELAY
	}
	return delay
}

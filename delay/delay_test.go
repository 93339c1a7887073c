package delay

import (
	"testing"
	"time"
)

func TestFromPing(t *testing.T) {
	tests := []struct {
		name string
		rtt  time.Duration
		fps  int64
		want int64
	}{
		{"lan", 2 * time.Millisecond, 60, 0},
		{"one frame each way", 33 * time.Millisecond, 60, 1},
		{"rounds up", 60 * time.Millisecond, 60, 2},
		{"slower game", 120 * time.Millisecond, 30, 2},
		{"clamped", 2 * time.Second, 60, MAX_FRAME_DELAY},
		{"default fps", 33 * time.Millisecond, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromPing(tt.rtt, tt.fps); got != tt.want {
				t.Errorf("FromPing(%s, %d) = %d, want %d", tt.rtt, tt.fps, got, tt.want)
			}
		})
	}
}

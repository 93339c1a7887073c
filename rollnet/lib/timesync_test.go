package lib

import "testing"

func fillTimeSync(t *TimeSync, local, remote int64, varyInput bool) {
	for frame := int64(0); frame < FRAME_WINDOW_SIZE; frame++ {
		var in GameInput
		bits := uint32(0)
		if varyInput {
			bits = uint32(frame)
		}
		in.SimpleInit(frame, bits)
		t.AdvanceFrame(in, local, remote)
	}
}

func TestTimeSyncRecommendation(t *testing.T) {
	tests := []struct {
		name      string
		local     int64
		remote    int64
		vary      bool
		idle      bool
		maxWait   int64
		wantWait  int64
		wantAhead int64
	}{
		{name: "ahead", local: -6, remote: 6, maxWait: 8, wantWait: 6, wantAhead: 6},
		{name: "behind", local: 6, remote: -6, maxWait: 8, wantWait: 0, wantAhead: -6},
		{name: "too small to matter", local: -2, remote: 2, maxWait: 8, wantWait: 0, wantAhead: 2},
		{name: "clamped to max advantage", local: -20, remote: 20, maxWait: 100, wantWait: MAX_FRAME_ADVANTAGE, wantAhead: 20},
		{name: "clamped to prediction window", local: -20, remote: 20, maxWait: 4, wantWait: 4, wantAhead: 20},
		{name: "busy input", local: -6, remote: 6, vary: true, idle: true, maxWait: 8, wantWait: 0, wantAhead: 6},
		{name: "busy input ignored", local: -6, remote: 6, vary: true, maxWait: 8, wantWait: 6, wantAhead: 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts TimeSync
			ts.Init(nil)
			fillTimeSync(&ts, tt.local, tt.remote, tt.vary)

			if got := ts.RecommendFrameWaitDuration(tt.idle, tt.maxWait); got != tt.wantWait {
				t.Errorf("RecommendFrameWaitDuration() = %d, want %d", got, tt.wantWait)
			}
			if got := ts.AverageFrameAdvantage(); got != tt.wantAhead {
				t.Errorf("AverageFrameAdvantage() = %d, want %d", got, tt.wantAhead)
			}
		})
	}
}

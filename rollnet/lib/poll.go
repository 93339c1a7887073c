package lib

const MAX_POLL_SINKS = 48

// Poll runs the periodic work of every registered endpoint once per pump.
type Poll struct {
	LoopSinks StaticBuffer[IPollSink]
}

type IPollSink interface {
	OnLoopPoll() bool
}

func (p *Poll) Init() {
	p.LoopSinks.Init(MAX_POLL_SINKS)
}

func (p *Poll) RegisterLoop(sink IPollSink) {
	p.LoopSinks.PushBack(sink)
}

// Pump reports false when a sink asked to stop.
func (p *Poll) Pump() bool {
	finished := false
	var i int64
	for i = 0; i < p.LoopSinks.Size; i++ {
		finished = !p.LoopSinks.Get(i).OnLoopPoll() || finished
	}
	return !finished
}

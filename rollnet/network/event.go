package network

import "github.com/HeatXD/rollnet/rollnet/lib"

type TypeEvent int64

const (
	EventUnknown TypeEvent = iota - 1
	EventSynchronizing
	EventSynchronized
	EventInput
	EventDisconnected
	EventNetworkInterrupted
	EventNetworkResumed
)

type Synchronizing struct {
	Total uint32
	Count uint32
}

type Event struct {
	Type              TypeEvent
	Input             lib.GameInput
	Synchronizing     Synchronizing
	DisconnectTimeout uint64
}

func (e *Event) Init(t TypeEvent) {
	e.Type = t
}

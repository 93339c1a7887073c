package backend

import (
	"github.com/HeatXD/rollnet/rollnet/lib"
	"github.com/HeatXD/rollnet/rollnet/rollapi"
	"github.com/sirupsen/logrus"
)

const (
	MAX_EVENT_QUEUE_SIZE    = 100
	RECOMMENDATION_INTERVAL = 240
	SPECTATOR_BUFFER_SIZE   = lib.INPUT_QUEUE_LENGTH
)

// EventQueue holds the events the host has not read yet. When full the
// oldest event is dropped.
type EventQueue struct {
	Events lib.RingBuffer[rollapi.Event]
	Log    *logrus.Entry
}

func (q *EventQueue) Init(log *logrus.Entry) {
	q.Events.Init(MAX_EVENT_QUEUE_SIZE)
	q.Log = log
}

func (q *EventQueue) Push(e rollapi.Event) {
	q.Log.Infof("event: %s", e)
	if q.Events.PushEvict(e) {
		q.Log.Warn("event queue full, dropped oldest event")
	}
}

func (q *EventQueue) Drain() []rollapi.Event {
	return q.Events.Drain()
}

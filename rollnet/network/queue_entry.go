package network

type QueueEntry struct {
	QueueTime uint64
	DestAddr  string
	Data      []byte
}

func (q *QueueEntry) Init(time uint64, dst string, data []byte) {
	q.QueueTime = time
	q.DestAddr = dst
	q.Data = data
}

package lib

import "github.com/sirupsen/logrus"

// RingBuffer is a fixed capacity FIFO.
type RingBuffer[T any] struct {
	Elements []T
	Head     int64
	Tail     int64
	Size     int64
	N        int64
}

func (r *RingBuffer[T]) Init(n int64) {
	r.Head = 0
	r.Tail = 0
	r.Size = 0
	r.N = n
	r.Elements = make([]T, r.N)
}

func (r *RingBuffer[T]) Front() T {
	if r.Size == 0 {
		logrus.Panic("Assert error ringbuffer front on empty buffer")
	}
	return r.Elements[r.Tail]
}

func (r *RingBuffer[T]) Item(i int64) T {
	if i >= r.Size {
		logrus.Panic("Assert error ringbuffer item out of range")
	}
	return r.Elements[(r.Tail+i)%r.N]
}

func (r *RingBuffer[T]) Pop() T {
	if r.Size == 0 {
		logrus.Panic("Assert error ringbuffer pop on empty buffer")
	}
	t := r.Elements[r.Tail]
	var zero T
	r.Elements[r.Tail] = zero
	r.Tail = (r.Tail + 1) % r.N
	r.Size--
	return t
}

func (r *RingBuffer[T]) Push(t T) {
	if r.Size == r.N {
		logrus.Panic("Assert error ringbuffer push on full buffer")
	}
	r.Elements[r.Head] = t
	r.Head = (r.Head + 1) % r.N
	r.Size++
}

// PushEvict pushes t, dropping the oldest element when the buffer is full.
// It reports whether an element was dropped.
func (r *RingBuffer[T]) PushEvict(t T) bool {
	dropped := false
	if r.Full() {
		r.Pop()
		dropped = true
	}
	r.Push(t)
	return dropped
}

func (r *RingBuffer[T]) Empty() bool {
	return r.Size == 0
}

func (r *RingBuffer[T]) Full() bool {
	return r.Size == r.N
}

// Drain pops every element in FIFO order.
func (r *RingBuffer[T]) Drain() []T {
	out := make([]T, 0, r.Size)
	for !r.Empty() {
		out = append(out, r.Pop())
	}
	return out
}

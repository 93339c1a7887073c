package platform

import (
	"os"
	"strconv"
	"sync"
	"time"
)

// Clock is the millisecond time source used by the protocol timers.
type Clock interface {
	NowMS() uint64
}

type SystemClock struct{}

func (SystemClock) NowMS() uint64 {
	return GetCurrentTimeMS()
}

func GetCurrentTimeMS() uint64 {
	return uint64(time.Now().UnixNano() / int64(time.Millisecond))
}

// ManualClock only moves when told to.
type ManualClock struct {
	mu sync.Mutex
	ms uint64
}

func NewManualClock(start uint64) *ManualClock {
	return &ManualClock{ms: start}
}

func (c *ManualClock) NowMS() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ms
}

func (c *ManualClock) Advance(ms uint64) {
	c.mu.Lock()
	c.ms += ms
	c.mu.Unlock()
}

// GetConfigInt reads an integer from the environment, 0 when unset or invalid.
func GetConfigInt(key string) int64 {
	val, ok := os.LookupEnv(key)
	if !ok {
		return 0
	}
	result, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

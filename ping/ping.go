// Package ping measures the round trip time to a peer.
package ping

import (
	"fmt"
	"time"

	"github.com/sparrc/go-ping"
)

// GetAvgPing pings addr count times and returns the average round trip time.
func GetAvgPing(addr string, count int, timeout time.Duration) (time.Duration, error) {
	pinger, err := ping.NewPinger(addr)
	if err != nil {
		return 0, fmt.Errorf("creating pinger for %s: %w", addr, err)
	}
	pinger.Count = count
	pinger.Timeout = timeout
	pinger.SetPrivileged(true) //For Windows, otherwise we get an error
	pinger.Run()
	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, fmt.Errorf("no reply from %s after %d pings", addr, stats.PacketsSent)
	}
	return stats.AvgRtt, nil
}

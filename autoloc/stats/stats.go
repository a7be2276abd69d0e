// Package stats exposes autoloc's counters over JSON HTTP and
// Prometheus, grounded on ptp/sptp/stats.
package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Counters is a thread-safe set of monotonically increasing named
// counters, following the shape of ptp/sptp/stats.Counters but with
// atomic increments added since autoloc's core loop and stats server
// run in different goroutines.
type Counters struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewCounters returns an empty Counters.
func NewCounters() *Counters {
	return &Counters{values: make(map[string]int64)}
}

// Inc increments name by one. It satisfies autoloc.Counters.
func (c *Counters) Inc(name string) {
	c.Add(name, 1)
}

// Add increments name by delta.
func (c *Counters) Add(name string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name] += delta
}

// Snapshot returns a point-in-time copy of every counter.
func (c *Counters) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// FetchCounters fetches the /counters endpoint at url, grounded on
// ptp/sptp/stats.FetchCounters.
func FetchCounters(url string) (map[string]int64, error) {
	counters := make(map[string]int64)
	httpClient := http.Client{Timeout: 2 * time.Second}

	resp, err := httpClient.Get(fmt.Sprintf("%s/counters", url))
	if err != nil {
		return counters, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return counters, err
	}
	err = json.Unmarshal(b, &counters)
	return counters, err
}

package publish

import (
	"sort"
	"sync"
	"time"
)

type call struct {
	at       time.Time
	duration time.Duration
	failed   bool
}

// CallStats aggregates one kind of content store call (put, get, delete,
// list) over the rolling window.
type CallStats struct {
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
}

// Stats records the latency of every attempt made against the content store,
// retries included, and forgets attempts older than its window.
type Stats struct {
	mu     sync.Mutex
	calls  map[string][]call
	window time.Duration
	now    func() time.Time
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{
		calls:  make(map[string][]call),
		window: window,
		now:    time.Now,
	}
}

// Record adds one attempt of the given kind.
func (s *Stats) Record(kind string, d time.Duration, err error) {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.pruneLocked(now)
	s.calls[kind] = append(s.calls[kind], call{at: now, duration: d, failed: err != nil})
}

// Snapshot aggregates the attempts still inside the window, keyed by kind.
func (s *Stats) Snapshot() map[string]CallStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())

	out := make(map[string]CallStats, len(s.calls))
	for kind, calls := range s.calls {
		values := make([]int64, len(calls))
		var sum int64
		failures := 0
		for i, c := range calls {
			values[i] = c.duration.Milliseconds()
			sum += values[i]
			if c.failed {
				failures++
			}
		}
		sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
		out[kind] = CallStats{
			Count:    len(values),
			Failures: failures,
			MinMs:    values[0],
			MaxMs:    values[len(values)-1],
			AvgMs:    float64(sum) / float64(len(values)),
			P50Ms:    percentile(values, 50),
			P95Ms:    percentile(values, 95),
		}
	}
	return out
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	for kind, calls := range s.calls {
		kept := calls[:0]
		for _, c := range calls {
			if !c.at.Before(cutoff) {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			delete(s.calls, kind)
			continue
		}
		s.calls[kind] = kept
	}
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}
	index := float64(len(sorted)-1) * pct / 100
	lower := int(index)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := index - float64(lower)
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*weight
}

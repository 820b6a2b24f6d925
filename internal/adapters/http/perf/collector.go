// Package perf keeps a bounded in-memory record of portal request, backend
// call and storage query timings for the admin system page.
package perf

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 10000

// EntryKind distinguishes what was timed.
type EntryKind uint8

const (
	KindRequest  EntryKind = iota // a portal HTTP request
	KindUpstream                  // a call to the loyalty backend
	KindQuery                     // a session or audit store query
)

// Entry is a single timing record.
type Entry struct {
	Kind       EntryKind
	Name       string // "GET /admin/members", "admin.members.list" or "ExecContext"
	StatusCode int    // HTTP status; 0 when no response was received
	Failed     bool
	DurationMs float64
	Timestamp  time.Time
}

// Collector is a fixed-size ring buffer. When full, the oldest entries are
// overwritten. Aggregation happens only in Snapshot.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	pos     int
	count   atomic.Int64
	failed  atomic.Int64
}

// NewCollector creates a collector with the given capacity.
// PRE: none
// POST: size <= 0 falls back to DefaultRingSize
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record stores e, overwriting the oldest entry when full.
// PRE: e.Timestamp is set
// POST: TotalRecorded increases by one
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % len(c.entries)
	c.mu.Unlock()
	c.count.Add(1)
	if e.Failed {
		c.failed.Add(1)
	}
}

// TotalRecorded returns the number of entries ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return c.count.Load()
}

// TotalFailed returns the number of failed entries ever recorded.
func (c *Collector) TotalFailed() int64 {
	return c.failed.Load()
}

// Stat aggregates the timings of one name.
type Stat struct {
	Name     string
	Count    int
	Failures int
	AvgMs    float64
	MaxMs    float64
	TotalMs  float64
}

// Latency holds percentiles for one entry kind.
type Latency struct {
	Count int
	P50Ms float64
	P95Ms float64
	P99Ms float64
}

// Snapshot is the aggregated view shown on the system page.
type Snapshot struct {
	TotalRecorded   int64
	TotalFailed     int64
	Requests        Latency
	Upstream        Latency
	SlowestRequests []Stat
	SlowestUpstream []Stat
	FailingUpstream []Stat
	SlowestQueries  []Stat
}

// Snapshot aggregates entries newer than since.
// PRE: topN > 0
// POST: every list holds at most topN entries
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := slices.Clone(c.entries)
	c.mu.Unlock()

	durations := map[EntryKind][]float64{}
	stats := map[EntryKind]map[string]*Stat{
		KindRequest:  {},
		KindUpstream: {},
		KindQuery:    {},
	}
	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		durations[e.Kind] = append(durations[e.Kind], e.DurationMs)
		byName, ok := stats[e.Kind]
		if !ok {
			continue
		}
		s := byName[e.Name]
		if s == nil {
			s = &Stat{Name: e.Name}
			byName[e.Name] = s
		}
		s.Count++
		s.TotalMs += e.DurationMs
		s.MaxMs = max(s.MaxMs, e.DurationMs)
		if e.Failed {
			s.Failures++
		}
	}

	upstream := flatten(stats[KindUpstream])
	failing := slices.DeleteFunc(slices.Clone(upstream), func(s Stat) bool { return s.Failures == 0 })
	slices.SortFunc(failing, func(a, b Stat) int { return cmp.Compare(b.Failures, a.Failures) })

	return Snapshot{
		TotalRecorded:   c.TotalRecorded(),
		TotalFailed:     c.TotalFailed(),
		Requests:        latency(durations[KindRequest]),
		Upstream:        latency(durations[KindUpstream]),
		SlowestRequests: slowest(flatten(stats[KindRequest]), topN),
		SlowestUpstream: slowest(upstream, topN),
		FailingUpstream: failing[:min(len(failing), topN)],
		SlowestQueries:  slowest(flatten(stats[KindQuery]), topN),
	}
}

func flatten(m map[string]*Stat) []Stat {
	out := make([]Stat, 0, len(m))
	for _, s := range m {
		s.AvgMs = s.TotalMs / float64(s.Count)
		out = append(out, *s)
	}
	return out
}

func slowest(list []Stat, n int) []Stat {
	slices.SortFunc(list, func(a, b Stat) int {
		if c := cmp.Compare(b.AvgMs, a.AvgMs); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return list[:min(len(list), n)]
}

func latency(d []float64) Latency {
	if len(d) == 0 {
		return Latency{}
	}
	slices.Sort(d)
	return Latency{
		Count: len(d),
		P50Ms: percentile(d, 50),
		P95Ms: percentile(d, 95),
		P99Ms: percentile(d, 99),
	}
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

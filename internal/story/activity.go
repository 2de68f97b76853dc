package story

import (
	"context"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/promise-core/pkg/utils"
)

// Activity is one line of the operations feed
type Activity struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

var defaultActivityLines = []string{
	"DFW-MFC-01 wave 3 released to pick",
	"UPS trailer 14 departed Fort Worth RDC",
	"Roadie driver pool refreshed for Plano",
	"FedEx pickup confirmed at DAL-STR-22",
	"Member order queue drained at DFW-MFC-01",
	"Carrier scan compliance at 98.7% this hour",
	"Spark batch of 40 orders accepted in Irving",
	"Weather advisory feed refreshed",
	"Same-day cutoff moved to 2:00 PM at DAL-STR-14",
	"Cycle count completed in zone B at DFW-RDC-02",
}

// Feed rotates canned activity lines. Lines are picked at random and never
// touch the scenario or the KPI engine.
type Feed struct {
	lines    []string
	rnd      *utils.RandSource
	interval time.Duration
	history  int
	now      func() time.Time

	mu      sync.RWMutex
	entries []Activity
	last    int
}

// NewFeed creates a feed. A zero seed is time-seeded; history caps the
// number of retained entries.
func NewFeed(interval time.Duration, seed int64, history int) *Feed {
	if history <= 0 {
		history = 50
	}
	return &Feed{
		lines:    defaultActivityLines,
		rnd:      utils.NewRandSource(seed),
		interval: interval,
		history:  history,
		now:      time.Now,
		last:     -1,
	}
}

// Tick appends one activity line and returns it. The same line never
// appears twice in a row.
func (f *Feed) Tick() Activity {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.rnd.Intn(len(f.lines))
	if i == f.last && len(f.lines) > 1 {
		i = (i + 1) % len(f.lines)
	}
	f.last = i

	a := Activity{Time: f.now(), Message: f.lines[i]}
	f.entries = append(f.entries, a)
	if len(f.entries) > f.history {
		f.entries = append([]Activity(nil), f.entries[len(f.entries)-f.history:]...)
	}
	return a
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (f *Feed) Recent(n int) []Activity {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if n <= 0 || n > len(f.entries) {
		n = len(f.entries)
	}
	out := make([]Activity, 0, n)
	for i := len(f.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, f.entries[i])
	}
	return out
}

// Run ticks with jitter around the interval until ctx is cancelled
func (f *Feed) Run(ctx context.Context) {
	if f.interval <= 0 {
		return
	}
	for {
		wait := f.rnd.UniformDuration(f.interval/2, f.interval*3/2)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			f.Tick()
		}
	}
}

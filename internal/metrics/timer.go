package metrics

import (
	"sort"
	"sync"
	"time"
)

// Timer measures labelled pipeline stages. It is a side channel: every method is nil-safe
// and a Stop without a matching Start is ignored.
type Timer struct {
	metrics *Metrics
	now     func() time.Time

	mu      sync.Mutex
	started map[string]time.Time
	totals  map[string]StageTotal
}

// StageTotal accumulates the time spent in one stage.
type StageTotal struct {
	Count int
	Total time.Duration
}

func NewTimer(m *Metrics) *Timer {
	return &Timer{
		metrics: m,
		now:     time.Now,
		started: make(map[string]time.Time),
		totals:  make(map[string]StageTotal),
	}
}

// Start marks the beginning of a stage.
func (t *Timer) Start(label string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.started[label] = t.now()
	t.mu.Unlock()
}

// Stop records the time since the matching Start.
func (t *Timer) Stop(label string) {
	if t == nil {
		return
	}
	defer func() { _ = recover() }()

	t.mu.Lock()
	start, ok := t.started[label]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.started, label)
	elapsed := t.now().Sub(start)
	total := t.totals[label]
	total.Count++
	total.Total += elapsed
	t.totals[label] = total
	t.mu.Unlock()

	t.metrics.observeStage(label, elapsed)
}

// Time runs fn as stage label.
func (t *Timer) Time(label string, fn func() error) error {
	t.Start(label)
	defer t.Stop(label)
	return fn()
}

// Totals returns a snapshot of the accumulated stage totals sorted by label.
func (t *Timer) Totals() []NamedStageTotal {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]NamedStageTotal, 0, len(t.totals))
	for label, total := range t.totals {
		out = append(out, NamedStageTotal{Label: label, StageTotal: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// NamedStageTotal is a StageTotal with its label.
type NamedStageTotal struct {
	Label string
	StageTotal
}

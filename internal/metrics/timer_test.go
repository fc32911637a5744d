package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTimerAccumulatesStages(t *testing.T) {
	m := New(prometheus.NewRegistry())
	timer := NewTimer(m)

	clock := time.Unix(1700000000, 0)
	timer.now = func() time.Time { return clock }

	timer.Start("processing:txs:tx")
	clock = clock.Add(2 * time.Millisecond)
	timer.Stop("processing:txs:tx")

	timer.Start("processing:txs:tx")
	clock = clock.Add(3 * time.Millisecond)
	timer.Stop("processing:txs:tx")

	totals := timer.Totals()
	if len(totals) != 1 {
		t.Fatalf("expected 1 stage, got %d", len(totals))
	}
	if totals[0].Count != 2 || totals[0].Total != 5*time.Millisecond {
		t.Fatalf("unexpected total: %+v", totals[0])
	}
	if n := testutil.CollectAndCount(m.stageDuration); n != 1 {
		t.Fatalf("expected 1 histogram series, got %d", n)
	}
}

func TestTimerIgnoresMisuse(t *testing.T) {
	timer := NewTimer(nil)
	timer.Stop("never-started")
	if len(timer.Totals()) != 0 {
		t.Fatalf("stop without start should not record")
	}

	var nilTimer *Timer
	nilTimer.Start("x")
	nilTimer.Stop("x")
	if nilTimer.Totals() != nil {
		t.Fatalf("nil timer should report nothing")
	}
}

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := New(reg)
	second := New(reg)

	first.TxIngested("ok")
	second.TxIngested("ok")

	if got := testutil.ToFloat64(first.txs.WithLabelValues("ok")); got != 2 {
		t.Fatalf("expected shared counter value 2, got %v", got)
	}
}

package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the ingestion Prometheus collectors.
type Metrics struct {
	stageDuration *prometheus.HistogramVec
	txs           *prometheus.CounterVec
	anomalies     prometheus.Counter
	tickUpdates   *prometheus.CounterVec
}

// New builds a Metrics set and registers it with reg. Collectors already registered by an
// earlier call are reused.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tickscope_stage_duration_seconds",
			Help:    "Time spent per ingestion stage",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"stage"}),
		txs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickscope_txs_total",
			Help: "Transactions seen by the ingestor",
		}, []string{"status"}),
		anomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tickscope_decode_anomalies_total",
			Help: "Event attributes passed through undecoded",
		}),
		tickUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickscope_tick_updates_total",
			Help: "Tick updates seen by the materializer",
		}, []string{"result"}),
	}
	if reg == nil {
		return m
	}

	m.stageDuration = register(reg, m.stageDuration)
	m.txs = register(reg, m.txs)
	m.anomalies = register(reg, m.anomalies)
	m.tickUpdates = register(reg, m.tickUpdates)
	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

// TxIngested counts a transaction by outcome ("ok", "skipped", "replayed").
func (m *Metrics) TxIngested(status string) {
	if m != nil {
		m.txs.WithLabelValues(status).Inc()
	}
}

// DecodeAnomalies adds n pass-through attributes.
func (m *Metrics) DecodeAnomalies(n int) {
	if m != nil && n > 0 {
		m.anomalies.Add(float64(n))
	}
}

// TickUpdate counts a materializer outcome ("applied", "stale").
func (m *Metrics) TickUpdate(result string) {
	if m != nil {
		m.tickUpdates.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) observeStage(stage string, d time.Duration) {
	if m != nil {
		m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// Checker reports dependency health for /healthz.
type Checker struct {
	StorePing func(ctx context.Context) error
	RPCPing   func(ctx context.Context) error
}

// Serve starts an HTTP server exposing /metrics and /healthz.
func Serve(addr string, checker Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		check := func(name string, ping func(context.Context) error) {
			if ping == nil {
				return
			}
			if err := ping(ctx); err != nil {
				status[name] = "fail"
				code = http.StatusServiceUnavailable
				return
			}
			status[name] = "ok"
		}
		check("store", checker.StorePing)
		check("rpc", checker.RPCPing)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

var (
	defaultOnce sync.Once
	defaultSet  *Metrics
)

// Default returns the process-wide metrics registered with the default registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultSet = New(prometheus.DefaultRegisterer)
	})
	return defaultSet
}

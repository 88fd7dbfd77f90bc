package node

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/claw-network/clawnet/internal/eventlog"
	"github.com/claw-network/clawnet/internal/gossip"
)

// Status is the snapshot returned by node.status() (spec §6.1).
type Status struct {
	DID       string `json:"did"`
	Peers     int    `json:"peers"`
	Cursor    string `json:"cursor"`
	Version   int    `json:"version"`
	UptimeSec int64  `json:"uptimeSec"`
}

// PeerCounter is the narrow slice of *gossip.Node health needs.
type PeerCounter interface {
	Peers() int
}

// gossipPeerCounter adapts *gossip.Node's []PeerInfo-returning Peers to
// the PeerCounter interface.
type gossipPeerCounter struct{ n *gossip.Node }

func (g gossipPeerCounter) Peers() int { return len(g.n.Peers()) }

// NewGossipPeerCounter wraps a live gossip node as a PeerCounter.
func NewGossipPeerCounter(n *gossip.Node) PeerCounter { return gossipPeerCounter{n: n} }

// HealthMonitor periodically samples the committer and gossip layer and
// exposes the result both as a Prometheus scrape target and as
// structured log lines, adapted from the teacher's health-logging
// pattern for clawnet's own domain gauges.
type HealthMonitor struct {
	committer *Committer
	peers     PeerCounter
	startedAt time.Time
	did       string

	log *logrus.Logger

	registry        *prometheus.Registry
	queueDepthGauge prometheus.Gauge
	peerCountGauge  prometheus.Gauge
	cursorGauge     prometheus.Gauge
	futureBufGauge  prometheus.Gauge
	goroutineGauge  prometheus.Gauge
	memAllocGauge   prometheus.Gauge
	errorCounter    prometheus.Counter
}

// NewHealthMonitor builds a monitor for committer, optionally reporting
// peer counts from peers (nil for a gossip-less node).
func NewHealthMonitor(did string, committer *Committer, peers PeerCounter) *HealthMonitor {
	lg := logrus.New()
	lg.SetFormatter(&logrus.JSONFormatter{})
	reg := prometheus.NewRegistry()

	h := &HealthMonitor{
		committer: committer,
		peers:     peers,
		startedAt: time.Now(),
		did:       did,
		log:       lg,
		registry:  reg,
	}

	h.queueDepthGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "clawnet_committer_queue_depth",
		Help: "Number of commands waiting in the committer's inbox",
	})
	h.peerCountGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "clawnet_peer_count",
		Help: "Number of connected gossip peers",
	})
	h.cursorGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "clawnet_log_sequence",
		Help: "Next log sequence number to be assigned locally (count of committed events)",
	})
	h.futureBufGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "clawnet_future_nonce_buffer_size",
		Help: "Total buffered out-of-order events across all issuers",
	})
	h.goroutineGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "clawnet_goroutines",
		Help: "Number of running goroutines",
	})
	h.memAllocGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "clawnet_mem_alloc_bytes",
		Help: "Current heap allocation in bytes",
	})
	h.errorCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clawnet_log_errors_total",
		Help: "Total number of error-level events logged",
	})

	reg.MustRegister(
		h.queueDepthGauge,
		h.peerCountGauge,
		h.cursorGauge,
		h.futureBufGauge,
		h.goroutineGauge,
		h.memAllocGauge,
		h.errorCounter,
	)
	return h
}

// LogEvent records a message at the given level, counting errors.
func (h *HealthMonitor) LogEvent(level logrus.Level, msg string) {
	if level >= logrus.ErrorLevel {
		h.errorCounter.Inc()
	}
	h.log.Log(level, msg)
}

// Status reports the point-in-time node status surface of spec §6.1.
func (h *HealthMonitor) Status() Status {
	peerCount := 0
	if h.peers != nil {
		peerCount = h.peers.Peers()
	}
	var cursor string
	if h.committer != nil {
		cursor = eventlog.EncodeCursor(h.committer.log.HeadCursor())
	}
	return Status{
		DID:       h.did,
		Peers:     peerCount,
		Cursor:    cursor,
		Version:   1,
		UptimeSec: int64(time.Since(h.startedAt).Seconds()),
	}
}

// RecordMetrics samples the committer/gossip/runtime and updates the
// Prometheus gauges.
func (h *HealthMonitor) RecordMetrics() {
	h.queueDepthGauge.Set(float64(len(h.committer.cmdCh)))
	h.cursorGauge.Set(float64(h.committer.log.SeqHead()))

	h.committer.futureMu.Lock()
	var buffered int
	for _, byIssuer := range h.committer.future {
		buffered += len(byIssuer)
	}
	h.committer.futureMu.Unlock()
	h.futureBufGauge.Set(float64(buffered))

	if h.peers != nil {
		h.peerCountGauge.Set(float64(h.peers.Peers()))
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	h.memAllocGauge.Set(float64(mem.Alloc))
	h.goroutineGauge.Set(float64(runtime.NumGoroutine()))

	h.LogEvent(logrus.InfoLevel, "metrics recorded")
}

// RunMetricsCollector samples metrics every interval until ctx is done.
func (h *HealthMonitor) RunMetricsCollector(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.RecordMetrics()
		case <-ctx.Done():
			return
		}
	}
}

// StartMetricsServer exposes a Prometheus scrape endpoint on addr.
func (h *HealthMonitor) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.LogEvent(logrus.ErrorLevel, err.Error())
		}
	}()
	return srv
}

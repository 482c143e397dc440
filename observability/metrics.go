package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type kernelMetrics struct {
	ticks    *prometheus.CounterVec
	tickTime *prometheus.HistogramVec
	journal  *prometheus.CounterVec
}

var (
	kernelMetricsOnce sync.Once
	kernelRegistry    *kernelMetrics

	sandboxMetricsOnce sync.Once
	sandboxRegistry    *SandboxMetrics

	gossipMetricsOnce sync.Once
	gossipRegistry    *GossipMetrics

	consensusMetricsOnce sync.Once
	consensusRegistry    *consensusMetrics

	membershipMetricsOnce sync.Once
	membershipRegistry    *MembershipMetrics
)

// Kernel returns the lazily-initialised metrics registry tracking the world
// tick loop (§4.8).
func Kernel() *kernelMetrics {
	kernelMetricsOnce.Do(func() {
		kernelRegistry = &kernelMetrics{
			ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "agentworld",
				Subsystem: "kernel",
				Name:      "ticks_total",
				Help:      "Total kernel ticks segmented by outcome.",
			}, []string{"outcome"}),
			tickTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "agentworld",
				Subsystem: "kernel",
				Name:      "tick_duration_seconds",
				Help:      "Latency distribution of a single kernel tick.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"world_id"}),
			journal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "agentworld",
				Subsystem: "kernel",
				Name:      "journal_events_total",
				Help:      "Count of journal-appended events segmented by event kind.",
			}, []string{"world_id", "kind"}),
		}
		prometheus.MustRegister(kernelRegistry.ticks, kernelRegistry.tickTime, kernelRegistry.journal)
	})
	return kernelRegistry
}

// ObserveTick records one kernel tick's outcome and latency.
func (m *kernelMetrics) ObserveTick(worldID string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	m.ticks.WithLabelValues(outcome).Inc()
	m.tickTime.WithLabelValues(labelOrUnknown(worldID)).Observe(d.Seconds())
}

// RecordJournalEvent increments the per-kind journal append counter.
func (m *kernelMetrics) RecordJournalEvent(worldID, kind string) {
	if m == nil {
		return
	}
	m.journal.WithLabelValues(labelOrUnknown(worldID), labelOrUnknown(kind)).Inc()
}

// SandboxMetrics tracks wasm module invocation outcomes and resource use
// (§4.6).
type SandboxMetrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	fuelUsed    *prometheus.HistogramVec
	traps       *prometheus.CounterVec
}

// Sandbox returns the singleton sandbox metrics registry.
func Sandbox() *SandboxMetrics {
	sandboxMetricsOnce.Do(func() {
		sandboxRegistry = &SandboxMetrics{
			invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "agentworld",
				Subsystem: "sandbox",
				Name:      "invocations_total",
				Help:      "Count of module invocations segmented by module id and outcome.",
			}, []string{"module_id", "outcome"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "agentworld",
				Subsystem: "sandbox",
				Name:      "invocation_duration_seconds",
				Help:      "Latency distribution for module invocations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module_id"}),
			fuelUsed: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "agentworld",
				Subsystem: "sandbox",
				Name:      "fuel_used",
				Help:      "Distribution of fuel (gas) consumed per invocation.",
				Buckets:   prometheus.ExponentialBuckets(100, 4, 10),
			}, []string{"module_id"}),
			traps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "agentworld",
				Subsystem: "sandbox",
				Name:      "traps_total",
				Help:      "Count of module traps segmented by module id and trap reason.",
			}, []string{"module_id", "reason"}),
		}
		prometheus.MustRegister(
			sandboxRegistry.invocations,
			sandboxRegistry.duration,
			sandboxRegistry.fuelUsed,
			sandboxRegistry.traps,
		)
	})
	return sandboxRegistry
}

// Observe records one module invocation's outcome, latency, and fuel use.
func (m *SandboxMetrics) Observe(moduleID string, ok bool, d time.Duration, fuelUsed uint64) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	id := labelOrUnknown(moduleID)
	m.invocations.WithLabelValues(id, outcome).Inc()
	m.duration.WithLabelValues(id).Observe(d.Seconds())
	m.fuelUsed.WithLabelValues(id).Observe(float64(fuelUsed))
}

// RecordTrap increments the trap counter for a module/reason pair.
func (m *SandboxMetrics) RecordTrap(moduleID, reason string) {
	if m == nil {
		return
	}
	m.traps.WithLabelValues(labelOrUnknown(moduleID), labelOrUnknown(reason)).Inc()
}

// GossipMetrics tracks router publish/dispatch activity (§6.2/§6.3).
type GossipMetrics struct {
	published     *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
	dispatched    *prometheus.CounterVec
	providerCount *prometheus.GaugeVec
}

// Gossip returns the singleton gossip metrics registry.
func Gossip() *GossipMetrics {
	gossipMetricsOnce.Do(func() {
		gossipRegistry = &GossipMetrics{
			published: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "agentworld",
				Subsystem: "gossip",
				Name:      "published_total",
				Help:      "Count of envelopes published segmented by topic.",
			}, []string{"topic"}),
			rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "agentworld",
				Subsystem: "gossip",
				Name:      "rate_limited_total",
				Help:      "Count of publishes rejected by the per-peer rate limiter.",
			}, []string{"peer_id"}),
			dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "agentworld",
				Subsystem: "gossip",
				Name:      "dispatched_total",
				Help:      "Count of request/response dispatches segmented by kind and outcome.",
			}, []string{"kind", "outcome"}),
			providerCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "agentworld",
				Subsystem: "gossip",
				Name:      "providers",
				Help:      "Number of known providers for a content hash.",
			}, []string{"content_hash"}),
		}
		prometheus.MustRegister(
			gossipRegistry.published,
			gossipRegistry.rateLimited,
			gossipRegistry.dispatched,
			gossipRegistry.providerCount,
		)
	})
	return gossipRegistry
}

// RecordPublish increments the publish counter for a topic.
func (m *GossipMetrics) RecordPublish(topic string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(labelOrUnknown(topic)).Inc()
}

// RecordRateLimited increments the rate-limit-rejection counter for a peer.
func (m *GossipMetrics) RecordRateLimited(peerID string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(labelOrUnknown(peerID)).Inc()
}

// RecordDispatch increments the request/response dispatch counter.
func (m *GossipMetrics) RecordDispatch(kind string, ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	m.dispatched.WithLabelValues(labelOrUnknown(kind), outcome).Inc()
}

// SetProviderCount records the current provider count for a content hash.
func (m *GossipMetrics) SetProviderCount(contentHash string, count int) {
	if m == nil {
		return
	}
	m.providerCount.WithLabelValues(labelOrUnknown(contentHash)).Set(float64(count))
}

type consensusMetrics struct {
	blockInterval    prometheus.Gauge
	decisionsTotal   *prometheus.CounterVec
	attestationStake *prometheus.GaugeVec
}

// Consensus exposes the metrics registry for consensus-level instrumentation
// (§4.11).
func Consensus() *consensusMetrics {
	consensusMetricsOnce.Do(func() {
		consensusRegistry = &consensusMetrics{
			blockInterval: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "agentworld",
				Subsystem: "consensus",
				Name:      "block_interval_seconds",
				Help:      "Interval in seconds between the timestamps of consecutive committed blocks.",
			}),
			decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "agentworld",
				Subsystem: "consensus",
				Name:      "decisions_total",
				Help:      "Count of proposal decisions segmented by outcome.",
			}, []string{"decision"}),
			attestationStake: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "agentworld",
				Subsystem: "consensus",
				Name:      "attesting_stake_ratio",
				Help:      "Fraction of total stake that has attested to the current proposal at a height.",
			}, []string{"height"}),
		}
		prometheus.MustRegister(
			consensusRegistry.blockInterval,
			consensusRegistry.decisionsTotal,
			consensusRegistry.attestationStake,
		)
	})
	return consensusRegistry
}

// RecordBlockInterval updates the block interval gauge with the supplied duration.
func (m *consensusMetrics) RecordBlockInterval(interval time.Duration) {
	if m == nil {
		return
	}
	seconds := interval.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.blockInterval.Set(seconds)
}

// RecordDecision increments the decision counter for the supplied outcome
// (e.g. "committed", "rejected").
func (m *consensusMetrics) RecordDecision(decision string) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(labelOrUnknown(decision)).Inc()
}

// SetAttestingStakeRatio records the attesting-stake fraction for a height.
func (m *consensusMetrics) SetAttestingStakeRatio(height string, ratio float64) {
	if m == nil {
		return
	}
	m.attestationStake.WithLabelValues(labelOrUnknown(height)).Set(ratio)
}

// MembershipMetrics tracks revocation-reconcile outcomes and alerts (§4.12).
type MembershipMetrics struct {
	reconciled *prometheus.CounterVec
	alerts     *prometheus.CounterVec
	deadLetter *prometheus.GaugeVec
}

// Membership returns the singleton membership metrics registry.
func Membership() *MembershipMetrics {
	membershipMetricsOnce.Do(func() {
		membershipRegistry = &MembershipMetrics{
			reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "agentworld",
				Subsystem: "membership",
				Name:      "reconciled_total",
				Help:      "Count of drained revocation checkpoints segmented by outcome.",
			}, []string{"outcome"}),
			alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "agentworld",
				Subsystem: "membership",
				Name:      "alerts_total",
				Help:      "Count of anomaly alerts segmented by severity and code.",
			}, []string{"severity", "code"}),
			deadLetter: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "agentworld",
				Subsystem: "membership",
				Name:      "dead_letter_depth",
				Help:      "Number of pending dead-lettered alerts for a world.",
			}, []string{"world_id"}),
		}
		prometheus.MustRegister(
			membershipRegistry.reconciled,
			membershipRegistry.alerts,
			membershipRegistry.deadLetter,
		)
	})
	return membershipRegistry
}

// RecordReconcile increments the reconcile outcome counter ("in_sync",
// "diverged", "merged", or "rejected").
func (m *MembershipMetrics) RecordReconcile(outcome string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.reconciled.WithLabelValues(labelOrUnknown(outcome)).Add(float64(count))
}

// RecordAlert increments the alert counter for a severity/code pair.
func (m *MembershipMetrics) RecordAlert(severity, code string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(labelOrUnknown(severity), labelOrUnknown(code)).Inc()
}

// SetDeadLetterDepth records the current dead-letter queue depth for a world.
func (m *MembershipMetrics) SetDeadLetterDepth(worldID string, depth int) {
	if m == nil {
		return
	}
	m.deadLetter.WithLabelValues(labelOrUnknown(worldID)).Set(float64(depth))
}

func labelOrUnknown(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}

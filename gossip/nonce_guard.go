package gossip

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultNonceGuardMaxEntries = 100_000
	defaultNonceGuardTTL        = 15 * time.Minute
	nonceGuardJanitorInterval   = time.Minute
)

// NonceGuard rejects a replayed (node_id, nonce) pair on an action topic,
// within a bounded TTL+capacity window. Grounded on the teacher's
// p2p/nonce_guard.go LRU-plus-janitor shape, trimmed to this package's
// single purpose (action envelope replay, not handshake nonces).
type NonceGuard struct {
	ttl        time.Duration
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	now        func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	size    prometheus.Gauge
	evicted prometheus.Counter
}

type nonceRecord struct {
	key    string
	expiry time.Time
}

// NewNonceGuard constructs a guard with the given retention window,
// starting a background janitor goroutine that sweeps expired entries.
func NewNonceGuard(ttl time.Duration) *NonceGuard {
	if ttl <= 0 {
		ttl = defaultNonceGuardTTL
	}
	g := &NonceGuard{
		ttl:        ttl,
		maxEntries: defaultNonceGuardMaxEntries,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		now:        time.Now,
		stop:       make(chan struct{}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agentworld_gossip_nonce_guard_size",
			Help: "Number of entries tracked by the action nonce guard.",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentworld_gossip_nonce_guard_evicted_total",
			Help: "Number of nonce guard entries evicted due to TTL or capacity.",
		}),
	}
	g.wg.Add(1)
	go g.runJanitor()
	return g
}

func (g *NonceGuard) fingerprint(nodeID, nonce string) string {
	nonce = strings.TrimSpace(nonce)
	nodeID = strings.TrimSpace(nodeID)
	if nonce == "" || nodeID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(nodeID + ":" + nonce))
	return hex.EncodeToString(sum[:])
}

// Remember reports whether (nodeID, nonce) has not been seen before within
// the retention window, recording it as seen either way a fresh fingerprint
// is produced.
func (g *NonceGuard) Remember(nodeID, nonce string, observedAt time.Time) bool {
	fingerprint := g.fingerprint(nodeID, nonce)
	if fingerprint == "" {
		return false
	}
	if observedAt.IsZero() {
		observedAt = g.now()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.entries[fingerprint]; exists {
		return false
	}
	elem := g.order.PushFront(&nonceRecord{key: fingerprint, expiry: observedAt.Add(g.ttl)})
	g.entries[fingerprint] = elem
	g.evictOverflowLocked()
	g.size.Set(float64(len(g.entries)))
	return true
}

func (g *NonceGuard) evictOverflowLocked() {
	for len(g.entries) > g.maxEntries {
		elem := g.order.Back()
		if elem == nil {
			return
		}
		g.removeLocked(elem)
	}
}

func (g *NonceGuard) removeExpiredLocked(now time.Time) {
	for {
		elem := g.order.Back()
		if elem == nil {
			return
		}
		record := elem.Value.(*nonceRecord)
		if now.Before(record.expiry) {
			return
		}
		g.removeLocked(elem)
	}
}

func (g *NonceGuard) removeLocked(elem *list.Element) {
	record := elem.Value.(*nonceRecord)
	g.order.Remove(elem)
	delete(g.entries, record.key)
	g.evicted.Inc()
}

func (g *NonceGuard) runJanitor() {
	defer g.wg.Done()
	ticker := time.NewTicker(nonceGuardJanitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			g.mu.Lock()
			g.removeExpiredLocked(g.now())
			g.size.Set(float64(len(g.entries)))
			g.mu.Unlock()
		case <-g.stop:
			return
		}
	}
}

// Close stops the janitor goroutine.
func (g *NonceGuard) Close() {
	g.stopOnce.Do(func() { close(g.stop) })
	g.wg.Wait()
}

// Size reports the current number of tracked entries.
func (g *NonceGuard) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

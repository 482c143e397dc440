package gossip

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Envelope is one message published to a topic.
type Envelope struct {
	Topic   string
	Payload []byte
}

// Subscriber receives every envelope published to a topic it subscribed to.
type Subscriber func(Envelope)

// Request is one content-addressed request/response call (§6.3), tagged
// with a correlation id so a response can be matched to its request over
// an async transport.
type Request struct {
	ID      string
	Kind    RequestKind
	Payload []byte
}

// Response answers a Request by ID.
type Response struct {
	RequestID string
	Payload   []byte
	Err       string
}

// RequestHandler serves one RequestKind, returning the response payload or
// an error.
type RequestHandler func(req Request) ([]byte, error)

// Router is the node's local pub/sub and request/response dispatcher: a
// topic fan-out plus a per-peer publish rate limiter, grounded on the
// teacher's token-bucket-per-peer shape (gateway/middleware/ratelimit.go)
// but using golang.org/x/time/rate directly rather than a hand-rolled
// bucket.
type Router struct {
	mu          sync.Mutex
	subscribers map[string][]Subscriber
	handlers    map[RequestKind]RequestHandler
	limiters    map[string]*rate.Limiter
	perSecond   float64
	burst       int
}

// NewRouter constructs a router whose per-peer publish rate is capped at
// perSecond messages/sec with the given burst allowance.
func NewRouter(perSecond float64, burst int) *Router {
	return &Router{
		subscribers: make(map[string][]Subscriber),
		handlers:    make(map[RequestKind]RequestHandler),
		limiters:    make(map[string]*rate.Limiter),
		perSecond:   perSecond,
		burst:       burst,
	}
}

// Subscribe registers fn to receive every envelope published on topic.
func (r *Router) Subscribe(topic string, fn Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers[topic] = append(r.subscribers[topic], fn)
}

func (r *Router) limiterFor(peerID string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	lim, ok := r.limiters[peerID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(r.perSecond), r.burst)
		r.limiters[peerID] = lim
	}
	return lim
}

// ErrPublishRateExceeded is returned by Publish when peerID has exceeded
// its publish budget.
var ErrPublishRateExceeded = fmt.Errorf("gossip: publish rate exceeded")

// Publish fans out env to every subscriber of its topic, subject to
// peerID's publish rate limit.
func (r *Router) Publish(peerID string, env Envelope) error {
	if !r.limiterFor(peerID).AllowN(time.Now(), 1) {
		return ErrPublishRateExceeded
	}
	r.mu.Lock()
	subs := append([]Subscriber(nil), r.subscribers[env.Topic]...)
	r.mu.Unlock()
	for _, sub := range subs {
		sub(env)
	}
	return nil
}

// HandleRequests registers fn as the handler for kind, replacing any
// previous handler.
func (r *Router) HandleRequests(kind RequestKind, fn RequestHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = fn
}

// NewRequest builds a Request for kind carrying a fresh correlation id.
func NewRequest(kind RequestKind, payload []byte) Request {
	return Request{ID: uuid.NewString(), Kind: kind, Payload: payload}
}

// Dispatch routes req to its registered handler and wraps the result as a
// Response carrying the same correlation id.
func (r *Router) Dispatch(req Request) Response {
	r.mu.Lock()
	handler, ok := r.handlers[req.Kind]
	r.mu.Unlock()
	if !ok {
		return Response{RequestID: req.ID, Err: fmt.Sprintf("gossip: no handler registered for %s", req.Kind)}
	}
	payload, err := handler(req)
	if err != nil {
		return Response{RequestID: req.ID, Err: err.Error()}
	}
	return Response{RequestID: req.ID, Payload: payload}
}

package client

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// outcome is the single result delivered to a waiting caller.
type outcome struct {
	resp *Response
	err  error
}

// pendingRequest is an in-flight request awaiting exactly one outcome.
type pendingRequest struct {
	id       string
	method   string
	issuedAt time.Time
	done     chan outcome
	settled  atomic.Bool
}

// settle delivers o unless the request was already settled. It reports
// whether this call won.
func (p *pendingRequest) settle(o outcome) bool {
	if !p.settled.CompareAndSwap(false, true) {
		return false
	}
	p.done <- o
	return true
}

// correlator tracks in-flight requests by id. Ids come from a monotonic
// counter and are never reused for the lifetime of the correlator.
type correlator struct {
	nextID  atomic.Uint64
	mu      sync.Mutex
	pending map[string]*pendingRequest
}

func newCorrelator() *correlator {
	return &correlator{pending: make(map[string]*pendingRequest)}
}

// register allocates an id and records the request before anything is sent.
func (c *correlator) register(method string) *pendingRequest {
	p := &pendingRequest{
		id:       strconv.FormatUint(c.nextID.Add(1), 10),
		method:   method,
		issuedAt: time.Now(),
		done:     make(chan outcome, 1),
	}
	c.mu.Lock()
	c.pending[p.id] = p
	c.mu.Unlock()
	return p
}

// take removes the request for id. The caller that gets ok == true owns
// settling it.
func (c *correlator) take(id string) (*pendingRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	return p, ok
}

// has reports whether id is still pending.
func (c *correlator) has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[id]
	return ok
}

// reject settles the request for id with err, if it is still pending.
func (c *correlator) reject(id string, err error) bool {
	p, ok := c.take(id)
	if !ok {
		return false
	}
	return p.settle(outcome{err: err})
}

// rejectAll settles every pending request with err and returns how many
// were rejected.
func (c *correlator) rejectAll(err error) int {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[string]*pendingRequest)
	c.mu.Unlock()

	n := 0
	for _, p := range pending {
		if p.settle(outcome{err: err}) {
			n++
		}
	}
	return n
}

// inFlight returns the number of pending requests.
func (c *correlator) inFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Package node wires the core components into the single-writer event
// loop of spec §4.10, §5: one committer goroutine owns exclusive write
// access to the log and the derived state; every other task — the REST
// adapter, the gossip subscriber, range-backfill — talks to it through
// a bounded command channel.
package node

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/claw-network/clawnet/internal/clawerr"
	"github.com/claw-network/clawnet/internal/envelope"
	"github.com/claw-network/clawnet/internal/eventlog"
	"github.com/claw-network/clawnet/internal/gossip"
	"github.com/claw-network/clawnet/internal/reducers"
	"github.com/claw-network/clawnet/internal/validation"
)

// commandQueueSize bounds the committer's inbox; a full queue applies
// backpressure to REST callers and causes gossip deliveries to be
// dropped (the sending peer is penalized) rather than blocking the
// network reader.
const commandQueueSize = 1024

// MaxFutureNonces bounds, per issuer, how many not-yet-applicable
// events the out-of-order buffer will hold (spec §5 default: 64).
const MaxFutureNonces = 64

// FutureNonceTTL is how long a buffered future event may sit before it
// is evicted and counted against the delivering peer's score (spec §5).
const FutureNonceTTL = 2 * time.Minute

// Broadcaster is the narrow slice of *gossip.Node the committer needs:
// publish what it commits. Kept as an interface so the committer is
// testable without a real libp2p host.
type Broadcaster interface {
	PublishEvent(envelopeBytes []byte) error
}

type command struct {
	env        *envelope.Envelope
	fromPeer   gossip.PeerID
	fromGossip bool
	result     chan commandResult
}

type commandResult struct {
	res validation.Result
	err error
}

type bufferedEvent struct {
	env       *envelope.Envelope
	fromPeer  gossip.PeerID
	queuedAt  time.Time
}

// Committer runs the single-writer loop: it is the only goroutine that
// ever calls validation.Pipeline.Process, mutates the live state
// pointer, or appends to the log.
type Committer struct {
	log      *eventlog.Log
	pipeline *validation.Pipeline
	gossip   Broadcaster
	scores   *gossip.ScoreBoard

	state atomic.Pointer[reducers.State]

	cmdCh chan command

	futureMu sync.Mutex
	future   map[string]map[uint64]*bufferedEvent // issuer -> nonce -> event

	nowFn func() int64
}

// New builds a Committer seeded with the given initial state (reducers.New()
// for a fresh node, or a state recovered from a snapshot/replay). gossip and
// scores may be nil for a pure single-node / test setup.
func New(log *eventlog.Log, pipeline *validation.Pipeline, initial *reducers.State, gsp Broadcaster, scores *gossip.ScoreBoard) *Committer {
	c := &Committer{
		log:      log,
		pipeline: pipeline,
		gossip:   gsp,
		scores:   scores,
		cmdCh:    make(chan command, commandQueueSize),
		future:   make(map[string]map[uint64]*bufferedEvent),
		nowFn:    func() int64 { return time.Now().UnixMilli() },
	}
	c.state.Store(initial)
	return c
}

// State returns the current derived state for read-only queries. The
// returned pointer is never mutated in place (copy-on-write, spec §5);
// callers may hold onto it across multiple reads for a consistent view.
func (c *Committer) State() *reducers.State {
	return c.state.Load()
}

// Run drives the committer loop until ctx is cancelled. It must be
// started exactly once, in its own goroutine.
func (c *Committer) Run(ctx context.Context) {
	evictTicker := time.NewTicker(FutureNonceTTL / 2)
	defer evictTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.cmdCh:
			c.handle(cmd)
		case <-evictTicker.C:
			c.evictExpiredFuture()
		}
	}
}

// Submit is the REST-originated path: it enqueues env and suspends
// until the committer reports commit or rejection (spec §5's
// "suspension point").
func (c *Committer) Submit(ctx context.Context, env *envelope.Envelope) (validation.Result, error) {
	resultCh := make(chan commandResult, 1)
	select {
	case c.cmdCh <- command{env: env, result: resultCh}:
	case <-ctx.Done():
		return validation.Result{}, clawerr.Wrap(clawerr.Transient, "node.Submit", "enqueue", ctx.Err())
	}
	select {
	case r := <-resultCh:
		return r.res, r.err
	case <-ctx.Done():
		// The completion handle is now orphaned; the committer still
		// drains and, if the event commits, it becomes durable
		// regardless (spec §5 cancellation semantics).
		return validation.Result{}, clawerr.Wrap(clawerr.Transient, "node.Submit", "wait for commit", ctx.Err())
	}
}

// SubmitGossip is the gossip-originated path: fire-and-acknowledge, the
// sender never waits for the outcome. A full queue drops the event
// rather than blocking the network reader goroutine.
func (c *Committer) SubmitGossip(env *envelope.Envelope, from gossip.PeerID) {
	select {
	case c.cmdCh <- command{env: env, fromPeer: from, fromGossip: true}:
	default:
		if c.scores != nil {
			c.scores.Penalize(from, -1)
		}
	}
}

func (c *Committer) handle(cmd command) {
	res, err := c.pipeline.Process(cmd.env, c.state.Load(), c.nowFn())
	if err != nil {
		if clawerr.Is(err, clawerr.OutOfOrder) && cmd.fromGossip {
			c.bufferFuture(cmd.env, cmd.fromPeer)
		}
		c.reply(cmd, commandResult{err: err})
		return
	}
	if res.Committed {
		c.state.Store(res.State)
		c.republish(cmd.env)
		c.drainFuture(cmd.env.Issuer)
	}
	c.reply(cmd, commandResult{res: res})
}

func (c *Committer) reply(cmd command, r commandResult) {
	if cmd.result == nil {
		return // gossip-originated, nobody is waiting
	}
	select {
	case cmd.result <- r:
	default:
	}
}

func (c *Committer) republish(env *envelope.Envelope) {
	if c.gossip == nil {
		return
	}
	bytes, err := envelope.CanonicalBytes(env)
	if err != nil {
		return
	}
	_ = c.gossip.PublishEvent(bytes)
}

func (c *Committer) bufferFuture(env *envelope.Envelope, from gossip.PeerID) {
	c.futureMu.Lock()
	defer c.futureMu.Unlock()
	byIssuer, ok := c.future[env.Issuer]
	if !ok {
		byIssuer = make(map[uint64]*bufferedEvent)
		c.future[env.Issuer] = byIssuer
	}
	if len(byIssuer) >= MaxFutureNonces {
		return // bounded buffer full; the event is simply not retained
	}
	byIssuer[env.Nonce] = &bufferedEvent{env: env, fromPeer: from, queuedAt: time.Now()}
}

// drainFuture re-submits any buffered events for issuer that may now be
// applicable, greedily, in nonce order, after a successful commit
// advances that issuer's head.
func (c *Committer) drainFuture(issuer string) {
	for {
		c.futureMu.Lock()
		byIssuer, ok := c.future[issuer]
		if !ok || len(byIssuer) == 0 {
			c.futureMu.Unlock()
			return
		}
		head, hasHead, err := c.log.IssuerHead(issuer)
		if err != nil {
			c.futureMu.Unlock()
			return
		}
		expected := uint64(1)
		if hasHead {
			expected = head + 1
		}
		next, found := byIssuer[expected]
		if !found {
			c.futureMu.Unlock()
			return
		}
		delete(byIssuer, expected)
		c.futureMu.Unlock()

		res, err := c.pipeline.Process(next.env, c.state.Load(), c.nowFn())
		if err != nil {
			continue // stale or now-invalid; drop and keep draining
		}
		if res.Committed {
			c.state.Store(res.State)
			c.republish(next.env)
		}
	}
}

// evictExpiredFuture removes buffered events older than FutureNonceTTL,
// penalizing the peer that delivered each one (spec §5).
func (c *Committer) evictExpiredFuture() {
	cutoff := time.Now().Add(-FutureNonceTTL)
	c.futureMu.Lock()
	defer c.futureMu.Unlock()
	for issuer, byIssuer := range c.future {
		for nonce, b := range byIssuer {
			if b.queuedAt.Before(cutoff) {
				delete(byIssuer, nonce)
				if c.scores != nil && b.fromPeer != "" {
					c.scores.Penalize(b.fromPeer, -2)
				}
			}
		}
		if len(byIssuer) == 0 {
			delete(c.future, issuer)
		}
	}
}

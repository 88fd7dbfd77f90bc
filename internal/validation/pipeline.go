package validation

import (
	"github.com/claw-network/clawnet/internal/clawerr"
	"github.com/claw-network/clawnet/internal/envelope"
	"github.com/claw-network/clawnet/internal/eventlog"
	"github.com/claw-network/clawnet/internal/reducers"
)

// Pipeline runs the six-step validation sequence of spec §4.7 against a
// single envelope: envelope integrity, type schema, nonce rule, resource
// chain, domain precondition, commit. It is pure with respect to the
// in-memory domain state it is handed — the caller (the single-writer
// committer, internal/node) owns swapping the returned state into the
// live pointer and publishing the committed envelope to gossip.
type Pipeline struct {
	registry Registry
	log      *eventlog.Log
}

// NewPipeline builds a Pipeline backed by the given event log and the
// full type registry.
func NewPipeline(log *eventlog.Log) *Pipeline {
	return &Pipeline{registry: NewRegistry(), log: log}
}

// Result is what a successful Process call produces: the advanced
// domain state and whether the event was newly committed (false means
// this exact envelope hash was already in the log — a harmless replay,
// spec §4.7 step 1).
type Result struct {
	State     *reducers.State
	Committed bool
}

// Process validates env against the current state and, on success,
// commits it to the log and returns the resulting state. nowMs is the
// caller's notion of current time, threaded through for deadline/expiry
// checks (contract.terminate, wallet.escrow.expire, dao.timelock.execute)
// so the pipeline itself never reads the wall clock.
func (p *Pipeline) Process(env *envelope.Envelope, state *reducers.State, nowMs int64) (Result, error) {
	// Step 1: envelope integrity.
	if err := envelope.Verify(env); err != nil {
		return Result{}, clawerr.Wrap(clawerr.Invalid, "validation.Process", "envelope integrity", err)
	}
	already, err := p.log.Has(env.Hash)
	if err != nil {
		return Result{}, err
	}
	if already {
		return Result{State: state, Committed: false}, nil
	}

	// Step 2: type schema (dispatch; payload decoding happens inside each
	// handler and surfaces as an Invalid error on malformed JSON).
	handler, err := p.registry.Lookup(env.Type)
	if err != nil {
		return Result{}, err
	}

	// Step 3: nonce rule.
	head, hasHead, err := p.log.IssuerHead(env.Issuer)
	if err != nil {
		return Result{}, err
	}
	expected := uint64(1)
	if hasHead {
		expected = head + 1
	}
	switch {
	case env.Nonce < expected:
		return Result{}, clawerr.New(clawerr.Duplicate, "validation.Process",
			"nonce already committed for issuer "+env.Issuer)
	case env.Nonce > expected:
		return Result{}, clawerr.New(clawerr.OutOfOrder, "validation.Process",
			"nonce ahead of issuer head, buffer for later delivery")
	}

	// Step 4: resource chain.
	ref, hasRef, err := handler.Resource(env.Payload)
	if err != nil {
		return Result{}, err
	}
	if hasRef {
		resHead, resExists, err := p.log.ResourceHead(ref.Kind, ref.ID)
		if err != nil {
			return Result{}, err
		}
		if handler.IsCreate && resExists {
			return Result{}, clawerr.New(clawerr.Duplicate, "validation.Process",
				"resource "+ref.Kind+":"+ref.ID+" already created")
		}
		if !resExists {
			if env.Prev != nil {
				return Result{}, clawerr.New(clawerr.StaleResource, "validation.Process",
					"prev set but resource "+ref.Kind+":"+ref.ID+" has no history")
			}
		} else {
			if env.Prev == nil || *env.Prev != resHead {
				return Result{}, clawerr.New(clawerr.StaleResource, "validation.Process",
					"prev does not match current head for "+ref.Kind+":"+ref.ID)
			}
		}
	}

	// Step 5: domain precondition, delegated to the reducer via Handle.
	next, err := handler.Handle(state, env.Issuer, env.Hash, env.Payload, nowMs)
	if err != nil {
		return Result{}, err
	}

	// Step 6: commit.
	bytes, err := envelope.CanonicalBytes(env)
	if err != nil {
		return Result{}, clawerr.Wrap(clawerr.Invalid, "validation.Process", "canonicalize for commit", err)
	}
	params := eventlog.CommitParams{
		Hash:   env.Hash,
		Bytes:  bytes,
		Issuer: env.Issuer,
		Nonce:  env.Nonce,
	}
	if hasRef {
		params.ResourceKind, params.ResourceID = ref.Kind, ref.ID
	}
	committed, err := p.log.CommitEvent(params)
	if err != nil {
		return Result{}, err
	}
	return Result{State: next, Committed: committed}, nil
}

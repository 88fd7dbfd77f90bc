// Package validation implements the six-step pipeline every envelope
// travels through before it is committed (spec §4.7): envelope
// integrity, type schema, nonce rule, resource chain, domain
// precondition, commit.
package validation

import (
	"encoding/json"

	"github.com/claw-network/clawnet/internal/clawerr"
	"github.com/claw-network/clawnet/internal/reducers"
)

// ResourceRef identifies the (kind, id) pair an event mutates, if any.
// Zero value means the event is issuer-scoped only and does not
// participate in a resource hash chain (spec §4.5).
type ResourceRef struct {
	Kind string
	ID   string
}

// TypeHandler is everything the pipeline needs to know about one event
// type: how to find the resource it mutates (if any), whether it is
// expected to be that resource's creation event, and a combined
// precondition-check-then-apply function. Checking and applying are
// collapsed into one call because the pipeline never needs a dry-run
// result independent of the mutation (spec §4.7 steps 5 and 6 always
// run back to back under the same single-writer lock).
type TypeHandler struct {
	// Resource extracts the (kind,id) this event mutates. ok=false means
	// the event is issuer-scoped and skips resource-chain validation.
	Resource func(payload json.RawMessage) (ref ResourceRef, ok bool, err error)
	// IsCreate marks this type as the resource's creation event: no
	// prior resourceHead is expected, and the event's prev must be nil.
	IsCreate bool
	// Handle validates the domain precondition against s and, if it
	// holds, returns the next state. On precondition failure it returns
	// a clawerr with a Kind describing the rejection reason.
	Handle func(s *reducers.State, issuer, eventHash string, payload json.RawMessage, nowMs int64) (*reducers.State, error)
}

func idRef(kind, id string, op string) (ResourceRef, bool, error) {
	if id == "" {
		return ResourceRef{}, false, clawerr.Invalidf(op, "%s payload missing id", kind)
	}
	return ResourceRef{Kind: kind, ID: id}, true, nil
}

func decodePayload[T any](payload json.RawMessage, op string) (T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		var zero T
		return zero, clawerr.Wrap(clawerr.Invalid, op, "decode payload", err)
	}
	return v, nil
}

// Registry maps event type strings to their handlers. Built once at
// startup by NewRegistry.
type Registry map[string]TypeHandler

// NewRegistry builds the full dispatch table for every event type named
// in spec §4.8.
func NewRegistry() Registry {
	r := Registry{}
	registerIdentity(r)
	registerWallet(r)
	registerEscrow(r)
	registerMarket(r)
	registerContract(r)
	registerReputation(r)
	registerDAO(r)
	return r
}

// Lookup returns the handler for typ, or an Invalid error if the type is
// unrecognized.
func (r Registry) Lookup(typ string) (TypeHandler, error) {
	h, ok := r[typ]
	if !ok {
		return TypeHandler{}, clawerr.Invalidf("validation.Lookup", "unrecognized event type %q", typ)
	}
	return h, nil
}

// Package tests holds the end-to-end seed scenarios of spec §8, one
// file per scenario, exercising the validation pipeline, event log, and
// reducers together through node.Committer exactly as a real node would.
package tests

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/claw-network/clawnet/internal/envelope"
	"github.com/claw-network/clawnet/internal/eventlog"
	"github.com/claw-network/clawnet/internal/gossip"
	"github.com/claw-network/clawnet/internal/identity"
	"github.com/claw-network/clawnet/internal/node"
	"github.com/claw-network/clawnet/internal/reducers"
	"github.com/claw-network/clawnet/internal/validation"
)

type actor struct {
	did  string
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

func newActor(t *testing.T) *actor {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	did, err := identity.DIDFromPublicKey(pub)
	if err != nil {
		t.Fatalf("did: %v", err)
	}
	return &actor{did: did, pub: pub, priv: priv}
}

func (a *actor) env(t *testing.T, typ string, nonce uint64, prev *string, payload any) *envelope.Envelope {
	t.Helper()
	env, err := envelope.Build(typ, a.did, a.pub, nonce, prev, payload, time.Now().UnixMilli(),
		func(signingBytes []byte) ([]byte, error) { return ed25519.Sign(a.priv, signingBytes), nil })
	if err != nil {
		t.Fatalf("build %s: %v", typ, err)
	}
	return env
}

// harness wires one node's log, pipeline, and committer, the same
// components cmd/clawnode/serve.go assembles for a real process.
type harness struct {
	t         *testing.T
	committer *node.Committer
	cancel    context.CancelFunc
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log, err := eventlog.Open(eventlog.NewMemStore())
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	c := node.New(log, validation.NewPipeline(log), reducers.New(), nil, gossip.NewScoreBoard())
	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	h := &harness{t: t, committer: c, cancel: cancel}
	t.Cleanup(cancel)
	return h
}

// submit commits env and fails the test unless it is accepted.
func (h *harness) submit(env *envelope.Envelope) validation.Result {
	h.t.Helper()
	res, err := h.committer.Submit(context.Background(), env)
	if err != nil {
		h.t.Fatalf("submit %s: %v", env.Type, err)
	}
	if !res.Committed {
		h.t.Fatalf("submit %s: expected commit", env.Type)
	}
	return res
}

func (h *harness) state() *reducers.State { return h.committer.State() }

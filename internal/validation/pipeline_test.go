package validation

import (
	"crypto/ed25519"
	"testing"

	"github.com/claw-network/clawnet/internal/clawerr"
	"github.com/claw-network/clawnet/internal/envelope"
	"github.com/claw-network/clawnet/internal/eventlog"
	"github.com/claw-network/clawnet/internal/identity"
	"github.com/claw-network/clawnet/internal/reducers"
)

type actor struct {
	did   string
	pub   ed25519.PublicKey
	priv  ed25519.PrivateKey
	nonce uint64
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

func (a *actor) build(t *testing.T, typ string, prev *string, payload any) *envelope.Envelope {
	t.Helper()
	a.nonce++
	env, err := envelope.Build(typ, a.did, a.pub, a.nonce, prev, payload, 1000,
		func(signingBytes []byte) ([]byte, error) {
			return ed25519.Sign(a.priv, signingBytes), nil
		})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	return env
}

func newTestPipeline(t *testing.T) (*Pipeline, *eventlog.Log) {
	t.Helper()
	log, err := eventlog.Open(eventlog.NewMemStore())
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	return NewPipeline(log), log
}

func TestTransferRoundTripThroughPipeline(t *testing.T) {
	p, _ := newTestPipeline(t)
	state := reducers.New()
	alice := newActor(t)
	bob := newActor(t)

	mintEnv := alice.build(t, "wallet.mint", nil, reducers.WalletMintPayload{To: alice.did, Amount: "1000"})
	res, err := p.Process(mintEnv, state, 1000)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	state = res.State
	if !res.Committed {
		t.Fatalf("expected mint to be newly committed")
	}

	xferEnv := alice.build(t, "wallet.transfer", nil, reducers.WalletTransferPayload{From: alice.did, To: bob.did, Amount: "300", Fee: "0"})
	res, err = p.Process(xferEnv, state, 1000)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	state = res.State
	if state.Wallets[bob.did].Available != "300" {
		t.Fatalf("expected bob available 300, got %s", state.Wallets[bob.did].Available)
	}
	if state.Wallets[alice.did].Available != "700" {
		t.Fatalf("expected alice available 700, got %s", state.Wallets[alice.did].Available)
	}
}

func TestReplayedEnvelopeIsIdempotentNoOp(t *testing.T) {
	p, _ := newTestPipeline(t)
	state := reducers.New()
	alice := newActor(t)

	mintEnv := alice.build(t, "wallet.mint", nil, reducers.WalletMintPayload{To: alice.did, Amount: "1000"})
	res, err := p.Process(mintEnv, state, 1000)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	state = res.State

	res2, err := p.Process(mintEnv, state, 1000)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res2.Committed {
		t.Fatalf("expected replay to be a no-op, not newly committed")
	}
	if res2.State.Wallets[alice.did].Available != "1000" {
		t.Fatalf("expected balance unchanged by replay, got %s", res2.State.Wallets[alice.did].Available)
	}
}

func TestOutOfOrderDetectsFutureNonce(t *testing.T) {
	p, _ := newTestPipeline(t)
	state := reducers.New()
	alice := newActor(t)

	alice.nonce = 1 // next build() call uses nonce 2, skipping nonce 1
	env := alice.build(t, "wallet.mint", nil, reducers.WalletMintPayload{To: alice.did, Amount: "1000"})
	_, err := p.Process(env, state, 1000)
	if !clawerr.Is(err, clawerr.OutOfOrder) {
		t.Fatalf("expected OutOfOrder, got %v", err)
	}
}

func TestDuplicateNonceIsRejected(t *testing.T) {
	p, _ := newTestPipeline(t)
	state := reducers.New()
	alice := newActor(t)

	env1 := alice.build(t, "wallet.mint", nil, reducers.WalletMintPayload{To: alice.did, Amount: "1000"})
	res, err := p.Process(env1, state, 1000)
	if err != nil {
		t.Fatalf("first mint: %v", err)
	}
	state = res.State

	alice.nonce = 1 // rebuild at the already-committed nonce with different content
	env2 := alice.build(t, "wallet.mint", nil, reducers.WalletMintPayload{To: alice.did, Amount: "1"})
	_, err = p.Process(env2, state, 1000)
	if !clawerr.Is(err, clawerr.Duplicate) {
		t.Fatalf("expected Duplicate, got %v", err)
	}
}

func TestStaleResourcePrevIsRejected(t *testing.T) {
	p, _ := newTestPipeline(t)
	state := reducers.New()
	alice := newActor(t)

	publish := reducers.ListingPublishPayload{ID: "lst-1", Kind: reducers.ListingInfo}
	env1 := alice.build(t, "listing.publish", nil, publish)
	res, err := p.Process(env1, state, 1000)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	state = res.State

	// listing.remove with a nil prev, even though the listing already has
	// history, must be rejected as stale rather than silently accepted.
	remove := reducers.ListingRemovePayload{ID: "lst-1"}
	env2 := alice.build(t, "listing.remove", nil, remove)
	_, err = p.Process(env2, state, 1000)
	if !clawerr.Is(err, clawerr.StaleResource) {
		t.Fatalf("expected StaleResource, got %v", err)
	}

	correctPrev := env1.Hash
	alice.nonce = 1 // env2 was rejected, so its nonce 2 is still free
	env3 := alice.build(t, "listing.remove", &correctPrev, remove)
	res, err = p.Process(env3, state, 1000)
	if err != nil {
		t.Fatalf("remove with correct prev: %v", err)
	}
	if res.State.Listings["lst-1"].Status != reducers.ListingWithdrawn {
		t.Fatalf("expected listing withdrawn")
	}
}

func TestDuplicateCreateOnSameResourceIsRejected(t *testing.T) {
	p, _ := newTestPipeline(t)
	state := reducers.New()
	alice := newActor(t)

	publish := reducers.ListingPublishPayload{ID: "lst-1", Kind: reducers.ListingInfo}
	env1 := alice.build(t, "listing.publish", nil, publish)
	res, err := p.Process(env1, state, 1000)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	state = res.State

	env2 := alice.build(t, "listing.publish", nil, publish)
	_, err = p.Process(env2, state, 1000)
	if !clawerr.Is(err, clawerr.Duplicate) {
		t.Fatalf("expected Duplicate on re-create, got %v", err)
	}
}

func TestUnrecognizedTypeIsInvalid(t *testing.T) {
	p, _ := newTestPipeline(t)
	state := reducers.New()
	alice := newActor(t)
	env := alice.build(t, "not.a.real.type", nil, map[string]string{})
	_, err := p.Process(env, state, 1000)
	if !clawerr.Is(err, clawerr.Invalid) {
		t.Fatalf("expected Invalid, got %v", err)
	}
}

package tests

import (
	"context"
	"testing"

	"github.com/claw-network/clawnet/internal/clawerr"
	"github.com/claw-network/clawnet/internal/reducers"
)

// TestScenarioEscrowRelease is spec §8 seed case 2: create, fully
// release, then verify a second release against the same escrow is
// rejected Conflict once it is already Released.
func TestScenarioEscrowRelease(t *testing.T) {
	h := newHarness(t)
	alice, bob := newActor(t), newActor(t)

	h.submit(alice.env(t, "wallet.mint", 1, nil, reducers.WalletMintPayload{To: alice.did, Amount: "1000"}))

	h.submit(alice.env(t, "wallet.escrow.create", 2, nil, reducers.EscrowCreatePayload{
		ID: "escrow-1", Depositor: alice.did, Beneficiary: bob.did, Amount: "200", ReleaseRules: "manual",
	}))

	st := h.state()
	if got := st.Wallets[alice.did].Available; got != "800" {
		t.Fatalf("alice.available after lock = %s, want 800", got)
	}
	if got := st.Wallets[alice.did].Locked; got != "200" {
		t.Fatalf("alice.locked = %s, want 200", got)
	}

	prev := st.Escrows["escrow-1"].LastEventHash
	h.submit(alice.env(t, "wallet.escrow.release", 3, &prev, reducers.EscrowReleasePayload{ID: "escrow-1", Amount: "200"}))

	st = h.state()
	if got := st.Wallets[alice.did].Available; got != "800" {
		t.Fatalf("alice.available after release = %s, want unchanged 800", got)
	}
	if got := st.Wallets[alice.did].Locked; got != "0" {
		t.Fatalf("alice.locked after release = %s, want 0", got)
	}
	if got := st.Wallets[bob.did].Available; got != "200" {
		t.Fatalf("bob.available = %s, want 200", got)
	}
	e := st.Escrows["escrow-1"]
	if e.State != reducers.EscrowReleased {
		t.Fatalf("escrow.state = %s, want Released", e.State)
	}

	prev = e.LastEventHash
	_, err := h.committer.Submit(context.Background(), alice.env(t, "wallet.escrow.release", 4, &prev, reducers.EscrowReleasePayload{ID: "escrow-1", Amount: "1"}))
	if !clawerr.Is(err, clawerr.Conflict) {
		t.Fatalf("expected Conflict re-releasing a settled escrow, got %v", err)
	}
}

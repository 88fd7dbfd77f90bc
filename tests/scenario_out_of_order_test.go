package tests

import (
	"testing"
	"time"

	"github.com/claw-network/clawnet/internal/gossip"
	"github.com/claw-network/clawnet/internal/reducers"
)

// TestScenarioOutOfOrderArrival is spec §8 seed case 4: nonce 3 arrives
// over gossip before nonce 2; the pipeline must buffer it and commit
// both, in order, once nonce 2 lands — ending in the same state an
// ordered delivery would have produced.
func TestScenarioOutOfOrderArrival(t *testing.T) {
	h := newHarness(t)
	alice := newActor(t)

	h.submit(alice.env(t, "wallet.mint", 1, nil, reducers.WalletMintPayload{To: alice.did, Amount: "1000"}))

	nonce2 := alice.env(t, "wallet.mint", 2, nil, reducers.WalletMintPayload{To: alice.did, Amount: "50"})
	nonce3 := alice.env(t, "wallet.mint", 3, nil, reducers.WalletMintPayload{To: alice.did, Amount: "25"})

	h.committer.SubmitGossip(nonce3, gossip.PeerID("peer-out-of-order"))
	h.committer.SubmitGossip(nonce2, gossip.PeerID("peer-in-order"))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if h.state().Wallets[alice.did].Available == "1075" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	st := h.state()
	if got := st.Wallets[alice.did].Available; got != "1075" {
		t.Fatalf("alice.available = %s, want 1075 (both nonces applied in order)", got)
	}

	// Ordered delivery of the same three events reaches the identical
	// final balance.
	ordered := newHarness(t)
	ordered.submit(alice.env(t, "wallet.mint", 1, nil, reducers.WalletMintPayload{To: alice.did, Amount: "1000"}))
	ordered.submit(alice.env(t, "wallet.mint", 2, nil, reducers.WalletMintPayload{To: alice.did, Amount: "50"}))
	ordered.submit(alice.env(t, "wallet.mint", 3, nil, reducers.WalletMintPayload{To: alice.did, Amount: "25"}))
	if got := ordered.state().Wallets[alice.did].Available; got != st.Wallets[alice.did].Available {
		t.Fatalf("ordered delivery diverged: %s vs %s", got, st.Wallets[alice.did].Available)
	}
}

package tests

import (
	"context"
	"testing"

	"github.com/claw-network/clawnet/internal/clawerr"
	"github.com/claw-network/clawnet/internal/reducers"
)

// TestScenarioNonceReplay is spec §8 seed case 3: resubmitting an
// already-committed event is rejected Duplicate and changes nothing.
func TestScenarioNonceReplay(t *testing.T) {
	h := newHarness(t)
	alice, bob := newActor(t), newActor(t)

	h.submit(alice.env(t, "wallet.mint", 1, nil, reducers.WalletMintPayload{To: alice.did, Amount: "1000"}))
	transfer := alice.env(t, "wallet.transfer", 2, nil, reducers.WalletTransferPayload{
		From: alice.did, To: bob.did, Amount: "500", Fee: "1",
	})
	h.submit(transfer)

	before := h.state()
	aliceBefore, bobBefore := before.Wallets[alice.did].Available, before.Wallets[bob.did].Available

	replay := alice.env(t, "wallet.transfer", 2, nil, reducers.WalletTransferPayload{
		From: alice.did, To: bob.did, Amount: "500", Fee: "1",
	})
	_, err := h.committer.Submit(context.Background(), replay)
	if !clawerr.Is(err, clawerr.Duplicate) {
		t.Fatalf("expected Duplicate on nonce replay, got %v", err)
	}

	after := h.state()
	if after.Wallets[alice.did].Available != aliceBefore || after.Wallets[bob.did].Available != bobBefore {
		t.Fatalf("state changed on a duplicate submission")
	}
}

package tests

import (
	"testing"

	"github.com/claw-network/clawnet/internal/reducers"
)

// TestScenarioContractHappyPath is spec §8 seed case 5: a two-milestone
// contract signed by both parties, funded, and completed milestone by
// milestone, with the provider's balance credited as each is approved.
func TestScenarioContractHappyPath(t *testing.T) {
	h := newHarness(t)
	alice, bob := newActor(t), newActor(t)

	h.submit(alice.env(t, "wallet.mint", 1, nil, reducers.WalletMintPayload{To: alice.did, Amount: "1000"}))

	h.submit(alice.env(t, "contract.create", 2, nil, reducers.ContractCreatePayload{
		ID: "contract-1", Client: alice.did, Provider: bob.did, TotalAmount: "1000",
		Milestones: []reducers.ContractMilestone{{ID: "m1", Amount: "400"}, {ID: "m2", Amount: "600"}},
	}))

	prev := h.state().Contracts["contract-1"].LastEventHash
	h.submit(alice.env(t, "contract.sign", 3, &prev, reducers.ContractSignPayload{ID: "contract-1"}))
	prev = h.state().Contracts["contract-1"].LastEventHash
	h.submit(bob.env(t, "contract.sign", 1, &prev, reducers.ContractSignPayload{ID: "contract-1"}))

	if got := h.state().Contracts["contract-1"].State; got != reducers.ContractSigned {
		t.Fatalf("contract.state after both signatures = %s, want Signed", got)
	}

	prev = h.state().Contracts["contract-1"].LastEventHash
	h.submit(alice.env(t, "contract.fund", 4, &prev, reducers.ContractFundPayload{ID: "contract-1", EscrowID: "escrow-1"}))

	prev = h.state().Contracts["contract-1"].LastEventHash
	h.submit(bob.env(t, "contract.milestone.submit", 2, &prev, reducers.ContractMilestonePayload{ID: "contract-1", MilestoneID: "m1"}))

	prev = h.state().Contracts["contract-1"].LastEventHash
	h.submit(alice.env(t, "contract.milestone.approve", 5, &prev, reducers.ContractMilestonePayload{ID: "contract-1", MilestoneID: "m1"}))

	if got := h.state().Wallets[bob.did].Available; got != "400" {
		t.Fatalf("bob.available after milestone 1 = %s, want 400", got)
	}

	prev = h.state().Contracts["contract-1"].LastEventHash
	h.submit(bob.env(t, "contract.milestone.submit", 3, &prev, reducers.ContractMilestonePayload{ID: "contract-1", MilestoneID: "m2"}))

	prev = h.state().Contracts["contract-1"].LastEventHash
	h.submit(alice.env(t, "contract.milestone.approve", 6, &prev, reducers.ContractMilestonePayload{ID: "contract-1", MilestoneID: "m2"}))

	st := h.state()
	if got := st.Wallets[bob.did].Available; got != "1000" {
		t.Fatalf("bob.available after milestone 2 = %s, want 1000", got)
	}
	c := st.Contracts["contract-1"]
	if c.State != reducers.ContractCompleted {
		t.Fatalf("contract.state = %s, want Completed", c.State)
	}
	e := st.Escrows[c.EscrowID]
	if e.ReleasedToBeneficiary != "1000" {
		t.Fatalf("escrow.releasedToBeneficiary = %s, want 1000", e.ReleasedToBeneficiary)
	}
}

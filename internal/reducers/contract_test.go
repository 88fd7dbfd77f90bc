package reducers

import "testing"

func fundedContract(t *testing.T, totalAmount string, milestones []ContractMilestone) *State {
	t.Helper()
	s := New()
	s, _ = ApplyWalletMint(s, mustMarshal(t, WalletMintPayload{To: "claw-alice", Amount: totalAmount}))

	create := ContractCreatePayload{ID: "ctr-1", Client: "claw-alice", Provider: "claw-bob", Arbiter: "claw-judge", TotalAmount: totalAmount, Milestones: milestones}
	if err := CanApplyContractCreate(s, create); err != nil {
		t.Fatalf("can create: %v", err)
	}
	s, err := ApplyContractCreate(s, "h1", mustMarshal(t, create))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sign := ContractSignPayload{ID: "ctr-1"}
	s, _ = ApplyContractSign(s, "claw-alice", "h2", mustMarshal(t, sign))
	s, _ = ApplyContractSign(s, "claw-bob", "h3", mustMarshal(t, sign))
	if s.Contracts["ctr-1"].State != ContractSigned {
		t.Fatalf("expected Signed, got %s", s.Contracts["ctr-1"].State)
	}

	fund := ContractFundPayload{ID: "ctr-1", EscrowID: "esc-ctr-1"}
	if err := CanApplyContractFund(s, "claw-alice", fund); err != nil {
		t.Fatalf("can fund: %v", err)
	}
	s, err = ApplyContractFund(s, "h4", mustMarshal(t, fund))
	if err != nil {
		t.Fatalf("fund: %v", err)
	}
	if s.Contracts["ctr-1"].State != ContractActive {
		t.Fatalf("expected Active, got %s", s.Contracts["ctr-1"].State)
	}
	return s
}

func TestContractHappyPath(t *testing.T) {
	s := fundedContract(t, "1000", []ContractMilestone{{ID: "m1", Amount: "400"}, {ID: "m2", Amount: "600"}})

	submit1 := ContractMilestonePayload{ID: "ctr-1", MilestoneID: "m1"}
	if err := CanApplyMilestoneSubmit(s, "claw-bob", submit1); err != nil {
		t.Fatalf("can submit m1: %v", err)
	}
	s, _ = ApplyMilestoneSubmit(s, "h5", mustMarshal(t, submit1))

	approve1 := ContractMilestonePayload{ID: "ctr-1", MilestoneID: "m1"}
	if err := CanApplyMilestoneApprove(s, "claw-alice", approve1); err != nil {
		t.Fatalf("can approve m1: %v", err)
	}
	s, err := ApplyMilestoneApprove(s, "h6", mustMarshal(t, approve1))
	if err != nil {
		t.Fatalf("approve m1: %v", err)
	}
	if s.Wallets["claw-bob"].Available != "400" {
		t.Fatalf("expected bob available 400 after m1, got %s", s.Wallets["claw-bob"].Available)
	}
	if s.Contracts["ctr-1"].State != ContractActive {
		t.Fatalf("expected Active after m1, got %s", s.Contracts["ctr-1"].State)
	}

	submit2 := ContractMilestonePayload{ID: "ctr-1", MilestoneID: "m2"}
	s, _ = ApplyMilestoneSubmit(s, "h7", mustMarshal(t, submit2))
	approve2 := ContractMilestonePayload{ID: "ctr-1", MilestoneID: "m2"}
	s, err = ApplyMilestoneApprove(s, "h8", mustMarshal(t, approve2))
	if err != nil {
		t.Fatalf("approve m2: %v", err)
	}
	if s.Wallets["claw-bob"].Available != "1000" {
		t.Fatalf("expected bob available 1000 after m2, got %s", s.Wallets["claw-bob"].Available)
	}
	if s.Contracts["ctr-1"].State != ContractCompleted {
		t.Fatalf("expected Completed, got %s", s.Contracts["ctr-1"].State)
	}
	if s.Escrows["esc-ctr-1"].ReleasedToBeneficiary != "1000" {
		t.Fatalf("expected escrow released 1000, got %s", s.Escrows["esc-ctr-1"].ReleasedToBeneficiary)
	}
}

func TestContractDisputePartial(t *testing.T) {
	s := fundedContract(t, "1000", []ContractMilestone{{ID: "m1", Amount: "400"}, {ID: "m2", Amount: "600"}})

	submit1 := ContractMilestonePayload{ID: "ctr-1", MilestoneID: "m1"}
	s, _ = ApplyMilestoneSubmit(s, "h5", mustMarshal(t, submit1))
	approve1 := ContractMilestonePayload{ID: "ctr-1", MilestoneID: "m1"}
	s, _ = ApplyMilestoneApprove(s, "h6", mustMarshal(t, approve1))

	dispute := ContractDisputePayload{ID: "ctr-1"}
	if err := CanApplyContractDispute(s, "claw-alice", dispute); err != nil {
		t.Fatalf("can dispute: %v", err)
	}
	s, _ = ApplyContractDispute(s, "h7", mustMarshal(t, dispute))
	if s.Contracts["ctr-1"].State != ContractDisputed {
		t.Fatalf("expected Disputed, got %s", s.Contracts["ctr-1"].State)
	}

	resolve := ContractDisputeResolvePayload{ID: "ctr-1", ToProvider: "300", ToClient: "300", FinalState: string(ContractCancelled)}
	if err := CanApplyContractDisputeResolve(s, "claw-judge", resolve); err != nil {
		t.Fatalf("can resolve: %v", err)
	}
	s, err := ApplyContractDisputeResolve(s, "h8", mustMarshal(t, resolve))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.Contracts["ctr-1"].State != ContractCancelled {
		t.Fatalf("expected Cancelled, got %s", s.Contracts["ctr-1"].State)
	}
	if s.Escrows["esc-ctr-1"].ReleasedToBeneficiary != "700" {
		t.Fatalf("expected escrow released 700 (400 milestone + 300 resolve), got %s", s.Escrows["esc-ctr-1"].ReleasedToBeneficiary)
	}
	if s.Escrows["esc-ctr-1"].RefundedToDepositor != "300" {
		t.Fatalf("expected escrow refunded 300, got %s", s.Escrows["esc-ctr-1"].RefundedToDepositor)
	}
}

package reducers

import "testing"

func TestProposalLifecyclePasses(t *testing.T) {
	s := New()
	create := ProposalCreatePayload{ID: "prop-1", Kind: "param-change", Quorum: 0.5, PassThreshold: 0.5}
	if err := CanApplyProposalCreate(s, create); err != nil {
		t.Fatalf("can create: %v", err)
	}
	s, _ = ApplyProposalCreate(s, "claw-alice", "h1", mustMarshal(t, create))

	advance := ProposalAdvancePayload{ID: "prop-1"}
	s, _ = ApplyProposalAdvance(s, "h2", mustMarshal(t, advance))
	if s.Proposals["prop-1"].State != ProposalVoting {
		t.Fatalf("expected Voting, got %s", s.Proposals["prop-1"].State)
	}

	vote := VoteCastPayload{ProposalID: "prop-1", Support: true, Tokens: "100", ReputationMultiplier: 1}
	if err := CanApplyVoteCast(s, "claw-bob", vote); err != nil {
		t.Fatalf("can vote: %v", err)
	}
	power := VotingPower(vote.Tokens, vote.ReputationMultiplier, 0)
	s, err := ApplyVoteCast(s, "h3", mustMarshal(t, vote), power)
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if s.Proposals["prop-1"].VotesFor != power {
		t.Fatalf("expected votesFor %v, got %v", power, s.Proposals["prop-1"].VotesFor)
	}

	tally := ProposalAdvancePayload{ID: "prop-1", TotalVotingPower: power}
	s, err = ApplyProposalAdvance(s, "h4", mustMarshal(t, tally))
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if s.Proposals["prop-1"].State != ProposalPassed {
		t.Fatalf("expected Passed, got %s", s.Proposals["prop-1"].State)
	}
}

func TestTreasuryDepositAndTimelockSpend(t *testing.T) {
	s := New()
	s, _ = ApplyWalletMint(s, mustMarshal(t, WalletMintPayload{To: "claw-alice", Amount: "1000"}))

	deposit := TreasuryDepositPayload{From: "claw-alice", Amount: "300"}
	if err := CanApplyTreasuryDeposit(s, "claw-alice", deposit); err != nil {
		t.Fatalf("can deposit: %v", err)
	}
	s, _ = ApplyTreasuryDeposit(s, mustMarshal(t, deposit))
	if s.Treasury.Balance != "300" {
		t.Fatalf("expected treasury 300, got %s", s.Treasury.Balance)
	}

	create := ProposalCreatePayload{ID: "prop-2", Kind: "treasury-spend", Quorum: 0, PassThreshold: 0, TimelockDelay: 1000}
	s, _ = ApplyProposalCreate(s, "claw-bob", "h1", mustMarshal(t, create))
	s, _ = ApplyProposalAdvance(s, "h2", mustMarshal(t, ProposalAdvancePayload{ID: "prop-2"}))

	vote := VoteCastPayload{ProposalID: "prop-2", Support: true, Tokens: "100", ReputationMultiplier: 1}
	power := VotingPower(vote.Tokens, vote.ReputationMultiplier, 0)
	s, _ = ApplyVoteCast(s, "h2b", mustMarshal(t, vote), power)

	s, _ = ApplyProposalAdvance(s, "h3", mustMarshal(t, ProposalAdvancePayload{ID: "prop-2", TotalVotingPower: power}))
	if s.Proposals["prop-2"].State != ProposalPassed {
		t.Fatalf("expected Passed with zero quorum/threshold, got %s", s.Proposals["prop-2"].State)
	}

	queue := TimelockPayload{ProposalID: "prop-2"}
	if err := CanApplyTimelockQueue(s, queue); err != nil {
		t.Fatalf("can queue: %v", err)
	}
	s, _ = ApplyTimelockQueue(s, "h4", mustMarshal(t, queue), 1000)

	if err := CanApplyTimelockExecute(s, queue, 1500); err == nil {
		t.Fatalf("expected execute before delay elapsed to be rejected")
	}
	if err := CanApplyTimelockExecute(s, queue, 2000); err != nil {
		t.Fatalf("can execute: %v", err)
	}
	s, _ = ApplyTimelockExecute(s, "h5", mustMarshal(t, queue))
	if s.Proposals["prop-2"].State != ProposalExecuted {
		t.Fatalf("expected Executed, got %s", s.Proposals["prop-2"].State)
	}

	spend := TreasurySpendPayload{To: "claw-bob", Amount: "300"}
	if err := CanApplyTreasurySpend(s, spend); err != nil {
		t.Fatalf("can spend: %v", err)
	}
	s, err := ApplyTreasurySpend(s, mustMarshal(t, spend))
	if err != nil {
		t.Fatalf("spend: %v", err)
	}
	if s.Treasury.Balance != "0" {
		t.Fatalf("expected treasury 0, got %s", s.Treasury.Balance)
	}
	if s.Wallets["claw-bob"].Available != "300" {
		t.Fatalf("expected bob available 300, got %s", s.Wallets["claw-bob"].Available)
	}
}

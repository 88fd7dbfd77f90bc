package reducers

import "testing"

func TestEscrowReleaseRoundTrip(t *testing.T) {
	s := New()
	s, _ = ApplyWalletMint(s, mustMarshal(t, WalletMintPayload{To: "claw-alice", Amount: "1000"}))

	create := EscrowCreatePayload{ID: "esc-1", Depositor: "claw-alice", Beneficiary: "claw-bob", Amount: "200", ReleaseRules: "manual"}
	if err := CanApplyEscrowCreate(s, "claw-alice", create); err != nil {
		t.Fatalf("can create: %v", err)
	}
	s, err := ApplyEscrowCreate(s, "h1", mustMarshal(t, create))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.Wallets["claw-alice"].Available != "800" || s.Wallets["claw-alice"].Locked != "200" {
		t.Fatalf("unexpected alice wallet after create: %+v", s.Wallets["claw-alice"])
	}

	release := EscrowReleasePayload{ID: "esc-1", Amount: "200"}
	if err := CanApplyEscrowRelease(s, "claw-alice", release); err != nil {
		t.Fatalf("can release: %v", err)
	}
	s, err = ApplyEscrowRelease(s, "h2", mustMarshal(t, release))
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if s.Wallets["claw-alice"].Locked != "0" {
		t.Fatalf("expected alice locked 0, got %s", s.Wallets["claw-alice"].Locked)
	}
	if s.Wallets["claw-bob"].Available != "200" {
		t.Fatalf("expected bob available 200, got %s", s.Wallets["claw-bob"].Available)
	}
	if s.Escrows["esc-1"].State != EscrowReleased {
		t.Fatalf("expected escrow Released, got %s", s.Escrows["esc-1"].State)
	}

	if err := CanApplyEscrowRelease(s, "claw-alice", release); err == nil {
		t.Fatalf("expected further release to be rejected as Conflict")
	}
}

func TestEscrowDisputeResolvePartial(t *testing.T) {
	s := New()
	s, _ = ApplyWalletMint(s, mustMarshal(t, WalletMintPayload{To: "claw-alice", Amount: "1000"}))

	create := EscrowCreatePayload{ID: "esc-2", Depositor: "claw-alice", Beneficiary: "claw-bob", Arbiter: "claw-judge", Amount: "1000", ReleaseRules: "manual"}
	s, _ = ApplyEscrowCreate(s, "h1", mustMarshal(t, create))

	dispute := EscrowDisputePayload{ID: "esc-2"}
	if err := CanApplyEscrowDispute(s, "claw-alice", dispute); err != nil {
		t.Fatalf("can dispute: %v", err)
	}
	s, _ = ApplyEscrowDispute(s, "h2", mustMarshal(t, dispute))

	resolve := EscrowResolvePayload{ID: "esc-2", ToBeneficiary: "300", ToDepositor: "700"}
	if err := CanApplyEscrowResolve(s, "claw-judge", resolve); err != nil {
		t.Fatalf("can resolve: %v", err)
	}
	s, err := ApplyEscrowResolve(s, "h3", mustMarshal(t, resolve))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.Escrows["esc-2"].ReleasedToBeneficiary != "300" || s.Escrows["esc-2"].RefundedToDepositor != "700" {
		t.Fatalf("unexpected escrow split: %+v", s.Escrows["esc-2"])
	}
	if s.Wallets["claw-bob"].Available != "300" {
		t.Fatalf("expected bob available 300, got %s", s.Wallets["claw-bob"].Available)
	}
	if s.Wallets["claw-alice"].Available != "700" {
		t.Fatalf("expected alice available 700, got %s", s.Wallets["claw-alice"].Available)
	}
}

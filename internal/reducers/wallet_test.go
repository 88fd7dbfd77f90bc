package reducers

import (
	"encoding/json"
	"testing"
)

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestTransferRoundTrip(t *testing.T) {
	s := New()
	s, err := ApplyWalletMint(s, mustMarshal(t, WalletMintPayload{To: "claw-alice", Amount: "1000"}))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	transfer := WalletTransferPayload{From: "claw-alice", To: "claw-bob", Amount: "500", Fee: "1"}
	if err := CanApplyWalletTransfer(s, "claw-alice", transfer); err != nil {
		t.Fatalf("can apply: %v", err)
	}
	s, err = ApplyWalletTransfer(s, mustMarshal(t, transfer))
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if s.Wallets["claw-alice"].Available != "499" {
		t.Fatalf("expected alice available 499, got %s", s.Wallets["claw-alice"].Available)
	}
	if s.Wallets["claw-bob"].Available != "500" {
		t.Fatalf("expected bob available 500, got %s", s.Wallets["claw-bob"].Available)
	}
	if s.Treasury.Balance != "1" {
		t.Fatalf("expected treasury 1, got %s", s.Treasury.Balance)
	}
}

func TestTransferInsufficientBalanceRejected(t *testing.T) {
	s := New()
	transfer := WalletTransferPayload{From: "claw-alice", To: "claw-bob", Amount: "10", Fee: "0"}
	if err := CanApplyWalletTransfer(s, "claw-alice", transfer); err == nil {
		t.Fatalf("expected insufficient balance error")
	}
}

func TestTransferWrongIssuerRejected(t *testing.T) {
	s := New()
	s, _ = ApplyWalletMint(s, mustMarshal(t, WalletMintPayload{To: "claw-alice", Amount: "1000"}))
	transfer := WalletTransferPayload{From: "claw-alice", To: "claw-bob", Amount: "10", Fee: "0"}
	if err := CanApplyWalletTransfer(s, "claw-mallory", transfer); err == nil {
		t.Fatalf("expected unauthorized error")
	}
}

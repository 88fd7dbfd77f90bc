package reducers

import "testing"

func TestIdentityRegisterRotateRevoke(t *testing.T) {
	s := New()
	reg := IdentityRegisterPayload{DID: "did:claw:abc", PublicKey: "z123"}
	if err := CanApplyIdentityRegister(s, reg.DID); err != nil {
		t.Fatalf("can register: %v", err)
	}
	s, err := ApplyIdentityRegister(s, "h1", mustMarshal(t, reg))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := CanApplyIdentityRegister(s, reg.DID); err == nil {
		t.Fatalf("expected duplicate register to be rejected")
	}

	rotate := IdentityRotateKeyPayload{NewPublicKey: "z456", OldKeySig: "deadbeef"}
	if err := CanApplyIdentityRotateKey(s, reg.DID); err != nil {
		t.Fatalf("can rotate: %v", err)
	}
	s, err = ApplyIdentityRotateKey(s, reg.DID, "h2", mustMarshal(t, rotate))
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if s.Identities[reg.DID].PublicKey != "z456" {
		t.Fatalf("expected rotated key z456, got %s", s.Identities[reg.DID].PublicKey)
	}

	if err := CanApplyIdentityRevoke(s, reg.DID); err != nil {
		t.Fatalf("can revoke: %v", err)
	}
	s, err = ApplyIdentityRevoke(s, reg.DID, "h3")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if !s.Identities[reg.DID].Revoked {
		t.Fatalf("expected revoked identity")
	}
	if err := CanApplyIdentityRotateKey(s, reg.DID); err == nil {
		t.Fatalf("expected rotate on revoked identity to be rejected")
	}
}

func TestIdentityCapabilityAddDeduplicates(t *testing.T) {
	s := New()
	reg := IdentityRegisterPayload{DID: "did:claw:abc", PublicKey: "z123"}
	s, _ = ApplyIdentityRegister(s, "h1", mustMarshal(t, reg))

	cap := IdentityCapabilityAddPayload{Capability: "summarize"}
	s, err := ApplyIdentityCapabilityAdd(s, reg.DID, "h2", mustMarshal(t, cap))
	if err != nil {
		t.Fatalf("add capability: %v", err)
	}
	s, err = ApplyIdentityCapabilityAdd(s, reg.DID, "h3", mustMarshal(t, cap))
	if err != nil {
		t.Fatalf("re-add capability: %v", err)
	}
	if len(s.Identities[reg.DID].Capabilities) != 1 {
		t.Fatalf("expected deduplicated capability list, got %v", s.Identities[reg.DID].Capabilities)
	}
}

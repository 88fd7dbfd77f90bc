package snapshot

import (
	"crypto/ed25519"
	"testing"

	"github.com/claw-network/clawnet/internal/crypto"
)

func genSigner(t *testing.T) (string, ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := crypto.GenerateEd25519()
	if err != nil {
		t.Fatalf("gen: %v", err)
	}
	return "peer-1", pub, priv
}

func TestBuildSignVerifyRoundTrip(t *testing.T) {
	peerID, pub, priv := genSigner(t)
	snap, err := Build("cursor-100", nil, map[string]any{"wallets": map[string]any{"claw1": "500"}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	sig, err := Sign(snap, peerID, priv)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	signed := AddSignature(snap, sig)

	resolve := func(id string) (ed25519.PublicKey, bool) {
		if id == peerID {
			return pub, true
		}
		return nil, false
	}
	if err := Verify(signed, resolve, 1); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyFailsBelowThreshold(t *testing.T) {
	peerID, pub, priv := genSigner(t)
	snap, _ := Build("cursor-1", nil, map[string]any{"x": 1})
	sig, _ := Sign(snap, peerID, priv)
	signed := AddSignature(snap, sig)

	resolve := func(id string) (ed25519.PublicKey, bool) {
		if id == peerID {
			return pub, true
		}
		return nil, false
	}
	if err := Verify(signed, resolve, 2); err == nil {
		t.Fatalf("expected verify to fail below threshold")
	}
}

func TestVerifyDetectsStateTamper(t *testing.T) {
	peerID, pub, priv := genSigner(t)
	snap, _ := Build("cursor-1", nil, map[string]any{"x": 1})
	sig, _ := Sign(snap, peerID, priv)
	signed := AddSignature(snap, sig)
	signed.State = []byte(`{"x":2}`)

	resolve := func(id string) (ed25519.PublicKey, bool) {
		return pub, id == peerID
	}
	if err := Verify(signed, resolve, 1); err == nil {
		t.Fatalf("expected hash mismatch after state tamper")
	}
}

func TestUnresolvablePeerDoesNotCountTowardThreshold(t *testing.T) {
	peerID, pub, priv := genSigner(t)
	snap, _ := Build("cursor-1", nil, map[string]any{"x": 1})
	sig, _ := Sign(snap, peerID, priv)
	signed := AddSignature(snap, sig)
	signed = AddSignature(signed, Signature{PeerID: "unknown-peer", Sig: sig.Sig})

	resolve := func(id string) (ed25519.PublicKey, bool) {
		if id == peerID {
			return pub, true
		}
		return nil, false
	}
	if err := Verify(signed, resolve, 2); err == nil {
		t.Fatalf("expected verify to fail since only one signature resolves")
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	peerID, pub, priv := genSigner(t)
	snap, _ := Build("cursor-1", nil, map[string]any{"x": 1})
	sig, _ := Sign(snap, peerID, priv)
	signed := AddSignature(snap, sig)

	raw, err := Marshal(signed)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := Unmarshal(raw)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	resolve := func(id string) (ed25519.PublicKey, bool) {
		return pub, id == peerID
	}
	if err := Verify(got, resolve, 1); err != nil {
		t.Fatalf("verify round-tripped snapshot: %v", err)
	}
}

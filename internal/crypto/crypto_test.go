package crypto

import (
	"bytes"
	"testing"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	pub, priv, err := GenerateEd25519()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	msg := []byte("hello claw")
	sig, err := Sign(priv, msg)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	ok, err := Verify(pub, msg, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("signature did not verify")
	}
	ok, err = Verify(pub, []byte("tampered"), sig)
	if err != nil {
		t.Fatalf("verify tampered: %v", err)
	}
	if ok {
		t.Fatalf("signature verified over tampered message")
	}
}

func TestVerifyMalformedInputsReturnCryptoError(t *testing.T) {
	if _, err := Verify(make([]byte, 5), []byte("x"), make([]byte, 64)); err == nil {
		t.Fatalf("expected error for bad public key length")
	}
}

func TestAESGCMSealOpenRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, 32)
	nonce := bytes.Repeat([]byte{0x22}, 12)
	ad := []byte("associated")
	pt := []byte("secret payload")

	ct, err := AESGCMSeal(key, nonce, ad, pt)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	got, err := AESGCMOpen(key, nonce, ad, ct)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(got, pt) {
		t.Fatalf("roundtrip mismatch: got %q want %q", got, pt)
	}

	if _, err := AESGCMOpen(key, nonce, []byte("wrong ad"), ct); err == nil {
		t.Fatalf("expected decrypt failure with wrong associated data")
	}
}

func TestArgon2idDeterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{0x01}, 16)
	p := DefaultArgon2Params
	a, err := Argon2id([]byte("pass"), salt, p)
	if err != nil {
		t.Fatalf("argon2id: %v", err)
	}
	b, err := Argon2id([]byte("pass"), salt, p)
	if err != nil {
		t.Fatalf("argon2id: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("argon2id not deterministic for same inputs")
	}
	c, err := Argon2id([]byte("other"), salt, p)
	if err != nil {
		t.Fatalf("argon2id: %v", err)
	}
	if bytes.Equal(a, c) {
		t.Fatalf("different passphrases produced the same key")
	}
}

func TestX25519SharedSecretAgreement(t *testing.T) {
	aPriv, aPub, err := GenerateX25519Keypair()
	if err != nil {
		t.Fatalf("gen a: %v", err)
	}
	bPriv, bPub, err := GenerateX25519Keypair()
	if err != nil {
		t.Fatalf("gen b: %v", err)
	}
	s1, err := X25519(aPriv, bPub)
	if err != nil {
		t.Fatalf("x25519 a: %v", err)
	}
	s2, err := X25519(bPriv, aPub)
	if err != nil {
		t.Fatalf("x25519 b: %v", err)
	}
	if !bytes.Equal(s1, s2) {
		t.Fatalf("shared secrets disagree")
	}
}

func TestShamirSplitCombine(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	shares, err := ShamirSplit(secret, 5, 3)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	got, err := ShamirCombine(shares[1:4], 3, len(secret))
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if !bytes.Equal(got, secret) {
		t.Fatalf("reconstructed secret mismatch: got %q want %q", got, secret)
	}

	if _, err := ShamirCombine(shares[:2], 3, len(secret)); err == nil {
		t.Fatalf("expected error reconstructing below threshold")
	}
}

func TestJCSCanonicalizeKeyOrderingAndNumbers(t *testing.T) {
	v, err := ToGeneric([]byte(`{"b":1,"a":"x","c":[1,2,3],"d":null,"e":true}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := JCSCanonicalize(v)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	want := `{"a":"x","b":1,"c":[1,2,3],"d":null,"e":true}`
	if string(out) != want {
		t.Fatalf("got %s want %s", out, want)
	}
}

func TestJCSCanonicalizeDeterministic(t *testing.T) {
	v, _ := ToGeneric([]byte(`{"z":1,"a":2,"m":3}`))
	out1, _ := JCSCanonicalize(v)
	out2, _ := JCSCanonicalize(v)
	if string(out1) != string(out2) {
		t.Fatalf("canonicalization not deterministic")
	}
}

func TestBIP39RoundTrip(t *testing.T) {
	m, err := NewBIP39Mnemonic(128)
	if err != nil {
		t.Fatalf("mnemonic: %v", err)
	}
	seed, err := BIP39MnemonicToSeed(m, "")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(seed) != 64 {
		t.Fatalf("expected 64-byte seed, got %d", len(seed))
	}
	if _, err := BIP39MnemonicToSeed("not a real mnemonic at all here", ""); err == nil {
		t.Fatalf("expected error for invalid mnemonic")
	}
}

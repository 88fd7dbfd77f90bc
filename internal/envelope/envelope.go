// Package envelope implements the signed, hash-addressed event record
// every protocol action travels as (spec §3, §4.4).
package envelope

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/multiformats/go-multibase"

	"github.com/claw-network/clawnet/internal/clawerr"
	"github.com/claw-network/clawnet/internal/crypto"
	"github.com/claw-network/clawnet/internal/identity"
)

// ProtocolVersion is the current envelope format version.
const ProtocolVersion = 1

// Envelope is the wire and in-memory representation of one protocol event.
type Envelope struct {
	V       int             `json:"v"`
	Type    string          `json:"type"`
	Issuer  string          `json:"issuer"`
	Pub     string          `json:"pub"`
	TS      int64           `json:"ts"`
	Nonce   uint64          `json:"nonce"`
	Prev    *string         `json:"prev"`
	Payload json.RawMessage `json:"payload"`
	Sig     string          `json:"sig"`
	Hash    string          `json:"hash"`
}

// RejectionKind enumerates envelope-integrity failure modes (spec §4.4).
type RejectionKind string

const (
	BadCanonicalForm        RejectionKind = "BadCanonicalForm"
	HashMismatch            RejectionKind = "HashMismatch"
	SignatureMismatch       RejectionKind = "SignatureMismatch"
	IssuerPublicKeyMismatch RejectionKind = "IssuerPublicKeyMismatch"
)

// RejectionError is returned by Verify when envelope integrity fails.
type RejectionError struct {
	Kind RejectionKind
	Msg  string
}

func (e *RejectionError) Error() string { return fmt.Sprintf("envelope: %s: %s", e.Kind, e.Msg) }

func reject(kind RejectionKind, format string, args ...any) *RejectionError {
	return &RejectionError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Build constructs and signs a new envelope. prev is nil for a creation
// event. sign is typically keystore.Store.Sign bound to a specific key id
// and passphrase, or any function with that signature.
func Build(typ, issuer string, pub ed25519.PublicKey, nonce uint64, prev *string, payload any, ts int64,
	sign func(signingBytes []byte) ([]byte, error)) (*Envelope, error) {

	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "envelope.Build", "marshal payload", err)
	}
	pubEnc, err := multibase.Encode(multibase.Base58BTC, pub)
	if err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "envelope.Build", "encode pub", err)
	}

	env := &Envelope{
		V:       ProtocolVersion,
		Type:    typ,
		Issuer:  issuer,
		Pub:     pubEnc,
		TS:      ts,
		Nonce:   nonce,
		Prev:    prev,
		Payload: rawPayload,
	}

	hashBytes, err := canonicalBytes(env, "", "")
	if err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "envelope.Build", "canonicalize for hash", err)
	}
	h := crypto.SHA256(hashBytes)
	hashHex := hex.EncodeToString(h[:])

	signingBytes, err := canonicalBytes(env, "", hashHex)
	if err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "envelope.Build", "canonicalize for signing", err)
	}
	sig, err := sign(signingBytes)
	if err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "envelope.Build", "sign", err)
	}

	env.Hash = hashHex
	env.Sig = hex.EncodeToString(sig)
	return env, nil
}

// Verify recomputes hash and signature and checks pub consistency with
// issuer, per spec §4.4.
func Verify(env *Envelope) error {
	hashBytes, err := canonicalBytes(env, "", "")
	if err != nil {
		return reject(BadCanonicalForm, "%v", err)
	}
	h := crypto.SHA256(hashBytes)
	wantHash := hex.EncodeToString(h[:])
	if wantHash != env.Hash {
		return reject(HashMismatch, "computed %s, envelope carries %s", wantHash, env.Hash)
	}

	signingBytes, err := canonicalBytes(env, "", env.Hash)
	if err != nil {
		return reject(BadCanonicalForm, "%v", err)
	}

	_, pub, err := multibase.Decode(env.Pub)
	if err != nil {
		return reject(BadCanonicalForm, "decode pub: %v", err)
	}
	issuerPub, err := identity.PublicKeyFromDID(env.Issuer)
	if err != nil {
		return reject(IssuerPublicKeyMismatch, "issuer did invalid: %v", err)
	}
	if !ed25519.PublicKey(pub).Equal(issuerPub) {
		return reject(IssuerPublicKeyMismatch, "pub does not match issuer did")
	}

	sigBytes, err := hex.DecodeString(env.Sig)
	if err != nil {
		return reject(BadCanonicalForm, "decode sig: %v", err)
	}
	ok, err := crypto.Verify(issuerPub, signingBytes, sigBytes)
	if err != nil {
		return reject(BadCanonicalForm, "verify: %v", err)
	}
	if !ok {
		return reject(SignatureMismatch, "signature does not verify")
	}
	return nil
}

// canonicalBytes renders env as JCS canonical JSON with sig and hash
// overridden to the given values (used to derive both the hash and the
// signing bytes per spec §3).
func canonicalBytes(env *Envelope, sig, hash string) ([]byte, error) {
	payload, err := crypto.ToGeneric(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	m := map[string]any{
		"v":       float64(env.V),
		"type":    env.Type,
		"issuer":  env.Issuer,
		"pub":     env.Pub,
		"ts":      float64(env.TS),
		"nonce":   float64(env.Nonce),
		"payload": payload,
		"sig":     sig,
		"hash":    hash,
	}
	if env.Prev != nil {
		m["prev"] = *env.Prev
	} else {
		m["prev"] = nil
	}
	return crypto.JCSCanonicalize(m)
}

// CanonicalBytes exposes the canonical encoding used for this exact
// envelope (sig and hash as currently set) — used by the event log to
// persist byte-identical entries across nodes (spec §4.5, §6.2).
func CanonicalBytes(env *Envelope) ([]byte, error) {
	return canonicalBytes(env, env.Sig, env.Hash)
}

// Marshal serializes env to its transport JSON form.
func Marshal(env *Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// Unmarshal parses transport JSON into an Envelope.
func Unmarshal(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "envelope.Unmarshal", "parse json", err)
	}
	return &env, nil
}

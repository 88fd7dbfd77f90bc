// Package snapshot implements signed state-root snapshots (spec §4.6):
// a compact, multiply-signed summary of derived state at a log cursor
// that a light or lagging peer may adopt instead of replaying the full
// event log from genesis.
package snapshot

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/claw-network/clawnet/internal/clawerr"
	"github.com/claw-network/clawnet/internal/crypto"
)

// Snapshot is the wire and storage shape of one state root.
type Snapshot struct {
	V          int             `json:"v"`
	At         string          `json:"at"` // cursor or event hash this snapshot was taken at
	Prev       *string         `json:"prev"`
	State      json.RawMessage `json:"state"`
	Hash       string          `json:"hash"`
	Signatures []Signature     `json:"signatures"`
}

// Signature is one signer's attestation to a snapshot's hash.
type Signature struct {
	PeerID string `json:"peerId"`
	Sig    string `json:"sig"`
}

// Build computes the hash of a new snapshot over at/prev/state with an
// empty signatures list, per spec §4.6. Signatures are attached
// afterward via AddSignature — Build itself is unsigned.
func Build(at string, prev *string, state any) (*Snapshot, error) {
	rawState, err := json.Marshal(state)
	if err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "snapshot.Build", "marshal state", err)
	}
	snap := &Snapshot{V: 1, At: at, Prev: prev, State: rawState, Signatures: nil}
	hash, err := computeHash(snap)
	if err != nil {
		return nil, err
	}
	snap.Hash = hash
	return snap, nil
}

func computeHash(snap *Snapshot) (string, error) {
	state, err := crypto.ToGeneric(snap.State)
	if err != nil {
		return "", clawerr.Wrap(clawerr.Invalid, "snapshot.computeHash", "decode state", err)
	}
	m := map[string]any{
		"v":          float64(snap.V),
		"at":         snap.At,
		"state":      state,
		"signatures": []any{},
	}
	if snap.Prev != nil {
		m["prev"] = *snap.Prev
	} else {
		m["prev"] = nil
	}
	canon, err := crypto.JCSCanonicalize(m)
	if err != nil {
		return "", clawerr.Wrap(clawerr.Invalid, "snapshot.computeHash", "canonicalize", err)
	}
	h := crypto.SHA256(canon)
	return hex.EncodeToString(h[:]), nil
}

// Sign produces a signature over snap's hash by priv, attributed to
// peerID, without mutating snap.
func Sign(snap *Snapshot, peerID string, priv ed25519.PrivateKey) (Signature, error) {
	hashBytes, err := hex.DecodeString(snap.Hash)
	if err != nil {
		return Signature{}, clawerr.Wrap(clawerr.Invalid, "snapshot.Sign", "decode hash", err)
	}
	sig, err := crypto.Sign(priv, hashBytes)
	if err != nil {
		return Signature{}, clawerr.Wrap(clawerr.Invalid, "snapshot.Sign", "sign", err)
	}
	return Signature{PeerID: peerID, Sig: hex.EncodeToString(sig)}, nil
}

// AddSignature returns a copy of snap with sig appended.
func AddSignature(snap *Snapshot, sig Signature) *Snapshot {
	out := *snap
	out.Signatures = append(append([]Signature{}, snap.Signatures...), sig)
	return &out
}

// PeerKeyResolver maps a peer id to the Ed25519 public key that should
// have produced its signature.
type PeerKeyResolver func(peerID string) (ed25519.PublicKey, bool)

// Verify recomputes snap's hash, confirms it matches the stored hash,
// and requires at least minSignatures valid, distinct-peer signatures
// resolvable via resolve. Unresolvable peer ids and invalid signatures
// are silently skipped rather than treated as fatal, since a snapshot
// may carry signatures from peers the verifier does not yet know —
// spec §4.6 only requires reaching the threshold.
func Verify(snap *Snapshot, resolve PeerKeyResolver, minSignatures int) error {
	wantHash, err := computeHash(snap)
	if err != nil {
		return err
	}
	if wantHash != snap.Hash {
		return clawerr.Invalidf("snapshot.Verify", "hash mismatch: computed %s, snapshot carries %s", wantHash, snap.Hash)
	}

	hashBytes, err := hex.DecodeString(snap.Hash)
	if err != nil {
		return clawerr.Wrap(clawerr.Invalid, "snapshot.Verify", "decode hash", err)
	}

	seen := make(map[string]bool, len(snap.Signatures))
	valid := 0
	for _, s := range snap.Signatures {
		if seen[s.PeerID] {
			continue
		}
		pub, ok := resolve(s.PeerID)
		if !ok {
			continue
		}
		sigBytes, err := hex.DecodeString(s.Sig)
		if err != nil {
			continue
		}
		ok2, err := crypto.Verify(pub, hashBytes, sigBytes)
		if err != nil || !ok2 {
			continue
		}
		seen[s.PeerID] = true
		valid++
	}
	if valid < minSignatures {
		return clawerr.Invalidf("snapshot.Verify", "only %d of required %d signatures verified", valid, minSignatures)
	}
	return nil
}

// Marshal/Unmarshal give the snapshot its on-disk form under
// <dataDir>/snapshots/<hash>.json (spec §6.5).
func Marshal(snap *Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

func Unmarshal(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, clawerr.Wrap(clawerr.Invalid, "snapshot.Unmarshal", "parse json", err)
	}
	return &snap, nil
}

// FileName is the canonical on-disk file name for a snapshot.
func FileName(snap *Snapshot) string {
	return fmt.Sprintf("%s.json", snap.Hash)
}

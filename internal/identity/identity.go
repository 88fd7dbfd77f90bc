// Package identity implements DID derivation and address encoding (spec §3,
// §4.2). A DID is `did:claw:<multibase-ed25519-pub>`; an address is a
// versioned, checksummed base58 encoding of the same public key. Both are
// deterministic functions of the Ed25519 public key and the mapping between
// them is total and reversible.
package identity

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multibase"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // legacy short-address form, kept for compatibility per SPEC_FULL.md §4

	"github.com/claw-network/clawnet/internal/clawerr"
)

const (
	didPrefix     = "did:claw:"
	addressPrefix = "claw"
	addressVersion = byte(0x00)
	checksumLen   = 4
)

// ErrorKind distinguishes identity parsing failures, per spec §4.2.
type ErrorKind string

const (
	Malformed   ErrorKind = "Malformed"
	BadChecksum ErrorKind = "BadChecksum"
)

// IdentityError is the typed error this package returns.
type IdentityError struct {
	Kind ErrorKind
	Msg  string
}

func (e *IdentityError) Error() string { return fmt.Sprintf("identity: %s: %s", e.Kind, e.Msg) }

func malformed(format string, args ...any) error {
	return &IdentityError{Kind: Malformed, Msg: fmt.Sprintf(format, args...)}
}

func badChecksum(format string, args ...any) error {
	return &IdentityError{Kind: BadChecksum, Msg: fmt.Sprintf(format, args...)}
}

// DIDFromPublicKey derives the DID for an Ed25519 public key.
func DIDFromPublicKey(pub ed25519.PublicKey) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", malformed("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}
	enc, err := multibase.Encode(multibase.Base58BTC, pub)
	if err != nil {
		return "", malformed("multibase encode: %v", err)
	}
	return didPrefix + enc, nil
}

// PublicKeyFromDID inverts DIDFromPublicKey with full validation.
func PublicKeyFromDID(did string) (ed25519.PublicKey, error) {
	if !strings.HasPrefix(did, didPrefix) {
		return nil, malformed("missing %q prefix", didPrefix)
	}
	enc := strings.TrimPrefix(did, didPrefix)
	if enc == "" {
		return nil, malformed("empty key portion")
	}
	_, data, err := multibase.Decode(enc)
	if err != nil {
		return nil, malformed("multibase decode: %v", err)
	}
	if len(data) != ed25519.PublicKeySize {
		return nil, malformed("decoded key must be %d bytes, got %d", ed25519.PublicKeySize, len(data))
	}
	return ed25519.PublicKey(data), nil
}

// AddressFromPublicKey derives the checksummed claw address for pub.
func AddressFromPublicKey(pub ed25519.PublicKey) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", malformed("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}
	payload := make([]byte, 0, 1+len(pub)+checksumLen)
	payload = append(payload, addressVersion)
	payload = append(payload, pub...)
	sum := sha256.Sum256(pub)
	payload = append(payload, sum[:checksumLen]...)
	return addressPrefix + base58.Encode(payload), nil
}

// PublicKeyFromAddress inverts AddressFromPublicKey, verifying the checksum.
func PublicKeyFromAddress(addr string) (ed25519.PublicKey, error) {
	if !strings.HasPrefix(addr, addressPrefix) {
		return nil, malformed("missing %q prefix", addressPrefix)
	}
	body := strings.TrimPrefix(addr, addressPrefix)
	decoded, err := base58.Decode(body)
	if err != nil {
		return nil, malformed("base58 decode: %v", err)
	}
	want := 1 + ed25519.PublicKeySize + checksumLen
	if len(decoded) != want {
		return nil, malformed("decoded payload must be %d bytes, got %d", want, len(decoded))
	}
	if decoded[0] != addressVersion {
		return nil, malformed("unsupported address version %d", decoded[0])
	}
	pub := decoded[1 : 1+ed25519.PublicKeySize]
	gotSum := decoded[1+ed25519.PublicKeySize:]
	sum := sha256.Sum256(pub)
	if !bytesEqual(gotSum, sum[:checksumLen]) {
		return nil, badChecksum("checksum mismatch")
	}
	return ed25519.PublicKey(pub), nil
}

// AddressFromDID composes DID parsing with address derivation; total on any
// well-formed DID.
func AddressFromDID(did string) (string, error) {
	pub, err := PublicKeyFromDID(did)
	if err != nil {
		return "", err
	}
	return AddressFromPublicKey(pub)
}

// DIDFromAddress composes address parsing with DID derivation.
func DIDFromAddress(addr string) (string, error) {
	pub, err := PublicKeyFromAddress(addr)
	if err != nil {
		return "", err
	}
	return DIDFromPublicKey(pub)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// LegacyShortAddress derives the teacher-style 20-byte
// SHA-256-then-RIPEMD-160 address form, kept alongside the primary claw
// address for components that interoperate with the legacy wallet tooling
// referenced in SPEC_FULL.md §4. It is never used for protocol-level
// resource identity — only as a convenience display form.
func LegacyShortAddress(pub ed25519.PublicKey) ([20]byte, error) {
	var out [20]byte
	if len(pub) != ed25519.PublicKeySize {
		return out, malformed("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}
	sum := sha256.Sum256(pub)
	h := ripemd160.New()
	h.Write(sum[:])
	copy(out[:], h.Sum(nil))
	return out, nil
}

// AsClawError adapts an *IdentityError to the shared clawerr taxonomy for
// callers that only want to branch on the generic Kind.
func AsClawError(op string, err error) error {
	if err == nil {
		return nil
	}
	if ie, ok := err.(*IdentityError); ok {
		switch ie.Kind {
		case BadChecksum:
			return clawerr.New(clawerr.Invalid, op, ie.Msg)
		default:
			return clawerr.New(clawerr.Invalid, op, ie.Msg)
		}
	}
	return clawerr.Wrap(clawerr.Invalid, op, "identity error", err)
}

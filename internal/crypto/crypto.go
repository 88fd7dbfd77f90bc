// Package crypto wraps the primitives the protocol core is built from:
// Ed25519 signing, SHA-256 hashing, AES-256-GCM, Argon2id, HKDF-SHA256,
// X25519 ECDH and BIP-39 mnemonics. Every function returns a typed
// *CryptoError on malformed input instead of panicking — callers across
// component boundaries (envelope construction, keystore, snapshots) never
// need to recover.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	crand "crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
	hashpkg "hash"

	bip39 "github.com/tyler-smith/go-bip39"
)

// ErrorReason enumerates CryptoError causes.
type ErrorReason string

const (
	ReasonMalformedInput ErrorReason = "MalformedInput"
	ReasonVerifyFailed   ErrorReason = "VerifyFailed"
	ReasonDecryptFailed  ErrorReason = "DecryptFailed"
	ReasonInternal       ErrorReason = "Internal"
)

// CryptoError is the typed error every primitive in this package returns.
type CryptoError struct {
	Op     string
	Reason ErrorReason
	Err    error
}

func (e *CryptoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("crypto: %s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("crypto: %s: %s", e.Op, e.Reason)
}

func (e *CryptoError) Unwrap() error { return e.Err }

func newErr(op string, reason ErrorReason, err error) *CryptoError {
	return &CryptoError{Op: op, Reason: reason, Err: err}
}

// GenerateEd25519 returns a fresh keypair from a CSPRNG.
func GenerateEd25519() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(crand.Reader)
	if err != nil {
		return nil, nil, newErr("GenerateEd25519", ReasonInternal, err)
	}
	return pub, priv, nil
}

// Sign signs msg with priv. priv must be a 64-byte Ed25519 private key.
func Sign(priv ed25519.PrivateKey, msg []byte) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, newErr("Sign", ReasonMalformedInput, fmt.Errorf("bad private key length %d", len(priv)))
	}
	return ed25519.Sign(priv, msg), nil
}

// Verify checks sig over msg against pub. Returns (false, nil) on a clean
// signature mismatch and (false, *CryptoError) only on malformed input.
func Verify(pub ed25519.PublicKey, msg, sig []byte) (bool, error) {
	if len(pub) != ed25519.PublicKeySize {
		return false, newErr("Verify", ReasonMalformedInput, fmt.Errorf("bad public key length %d", len(pub)))
	}
	if len(sig) != ed25519.SignatureSize {
		return false, newErr("Verify", ReasonMalformedInput, fmt.Errorf("bad signature length %d", len(sig)))
	}
	return ed25519.Verify(pub, msg, sig), nil
}

// SHA256 returns the SHA-256 digest of data.
func SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// AESGCMSeal encrypts pt with AES-256-GCM under key, binding associated data ad.
// key must be 32 bytes; nonce must be 12 bytes (the GCM standard nonce size).
func AESGCMSeal(key, nonce, ad, pt []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, newErr("AESGCMSeal", ReasonMalformedInput, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, newErr("AESGCMSeal", ReasonInternal, err)
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, newErr("AESGCMSeal", ReasonMalformedInput, fmt.Errorf("bad nonce length %d", len(nonce)))
	}
	return gcm.Seal(nil, nonce, pt, ad), nil
}

// AESGCMOpen decrypts ct produced by AESGCMSeal.
func AESGCMOpen(key, nonce, ad, ct []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, newErr("AESGCMOpen", ReasonMalformedInput, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, newErr("AESGCMOpen", ReasonInternal, err)
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, newErr("AESGCMOpen", ReasonMalformedInput, fmt.Errorf("bad nonce length %d", len(nonce)))
	}
	pt, err := gcm.Open(nil, nonce, ct, ad)
	if err != nil {
		return nil, newErr("AESGCMOpen", ReasonDecryptFailed, err)
	}
	return pt, nil
}

// Argon2Params are the tunable cost parameters for Argon2id.
type Argon2Params struct {
	Time    uint32
	MemoryKiB uint32
	Threads uint8
	KeyLen  uint32
}

// DefaultArgon2Params are conservative interactive-use defaults, matching
// the OWASP-recommended floor for passphrase-derived keys.
var DefaultArgon2Params = Argon2Params{Time: 3, MemoryKiB: 64 * 1024, Threads: 4, KeyLen: 32}

// Argon2id derives a key from pass and salt.
func Argon2id(pass, salt []byte, p Argon2Params) ([]byte, error) {
	if len(salt) < 8 {
		return nil, newErr("Argon2id", ReasonMalformedInput, fmt.Errorf("salt too short: %d bytes", len(salt)))
	}
	return argon2.IDKey(pass, salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen), nil
}

// HKDFSHA256 derives length bytes of key material from ikm, salt and info.
func HKDFSHA256(ikm, salt, info []byte, length int) ([]byte, error) {
	if length <= 0 {
		return nil, newErr("HKDFSHA256", ReasonMalformedInput, fmt.Errorf("non-positive length %d", length))
	}
	r := hkdf.New(func() hashpkg.Hash { return sha256.New() }, ikm, salt, info)
	out := make([]byte, length)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, newErr("HKDFSHA256", ReasonInternal, err)
	}
	return out, nil
}

// X25519 computes the ECDH shared secret between priv and pub, both 32 bytes.
func X25519(priv, pub []byte) ([]byte, error) {
	if len(priv) != 32 || len(pub) != 32 {
		return nil, newErr("X25519", ReasonMalformedInput, fmt.Errorf("keys must be 32 bytes"))
	}
	out, err := curve25519.X25519(priv, pub)
	if err != nil {
		return nil, newErr("X25519", ReasonInternal, err)
	}
	return out, nil
}

// GenerateX25519Keypair returns a fresh X25519 private/public keypair.
func GenerateX25519Keypair() (priv, pub []byte, err error) {
	priv = make([]byte, 32)
	if _, err = io.ReadFull(crand.Reader, priv); err != nil {
		return nil, nil, newErr("GenerateX25519Keypair", ReasonInternal, err)
	}
	pubArr, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, nil, newErr("GenerateX25519Keypair", ReasonInternal, err)
	}
	return priv, pubArr, nil
}

// BIP39MnemonicToSeed turns a mnemonic + passphrase into a 64-byte seed.
func BIP39MnemonicToSeed(mnemonic, passphrase string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, newErr("BIP39MnemonicToSeed", ReasonMalformedInput, fmt.Errorf("invalid mnemonic checksum"))
	}
	return bip39.NewSeed(mnemonic, passphrase), nil
}

// NewBIP39Mnemonic generates a fresh mnemonic of the given entropy size
// (128 or 256 bits, i.e. 12 or 24 words).
func NewBIP39Mnemonic(entropyBits int) (string, error) {
	if entropyBits != 128 && entropyBits != 256 {
		return "", newErr("NewBIP39Mnemonic", ReasonMalformedInput, fmt.Errorf("unsupported entropy size %d", entropyBits))
	}
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", newErr("NewBIP39Mnemonic", ReasonInternal, err)
	}
	m, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", newErr("NewBIP39Mnemonic", ReasonInternal, err)
	}
	return m, nil
}

// Wipe zeroes b in place (best-effort — the garbage collector may have
// already copied the backing array elsewhere).
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// RandomBytes returns n cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(crand.Reader, b); err != nil {
		return nil, newErr("RandomBytes", ReasonInternal, err)
	}
	return b, nil
}

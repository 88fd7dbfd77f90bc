// Package keystore implements passphrase-encrypted Ed25519 private key
// storage on disk (spec §4.3). A key's raw private material never leaves
// this package — signing is performed here, given signing bytes, and only
// a signature is returned.
package keystore

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/claw-network/clawnet/internal/clawerr"
	"github.com/claw-network/clawnet/internal/crypto"
)

const gcmNonceSize = 12
const gcmTagSize = 16

// KDFParams mirrors the Argon2id cost parameters persisted alongside a key.
type KDFParams struct {
	Salt    []byte `json:"salt"`
	Time    uint32 `json:"t"`
	Memory  uint32 `json:"m"`
	Threads uint8  `json:"p"`
}

// EncParams holds the AES-256-GCM envelope around the private key.
type EncParams struct {
	Alg        string `json:"alg"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
	Tag        []byte `json:"tag"`
}

// Record is the on-disk shape of one keystore entry (spec §4.3).
type Record struct {
	ID  string    `json:"id"`
	Pub []byte    `json:"pub"`
	KDF KDFParams `json:"kdf"`
	Enc EncParams `json:"enc"`
}

// KeyErrorKind enumerates keystore failure modes.
type KeyErrorKind string

const (
	BadPassphrase KeyErrorKind = "BadPassphrase"
	NotFound      KeyErrorKind = "NotFound"
	IOFailure     KeyErrorKind = "IOFailure"
)

// KeyError is the typed error this package returns.
type KeyError struct {
	Kind KeyErrorKind
	Msg  string
	Err  error
}

func (e *KeyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("keystore: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("keystore: %s: %s", e.Kind, e.Msg)
}
func (e *KeyError) Unwrap() error { return e.Err }

func kerr(kind KeyErrorKind, msg string, err error) *KeyError {
	return &KeyError{Kind: kind, Msg: msg, Err: err}
}

// Store manages encrypted key records persisted under dir. Access to a
// given key id is serialized with a per-key lock, per spec §5's
// "keystore access is serialized per key id" requirement.
type Store struct {
	dir     string
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Open returns a Store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, kerr(IOFailure, "mkdir keystore dir", err)
	}
	return &Store{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *Store) lockFor(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// associatedData builds the canonical {id, pub} AAD binding per spec §4.3.
// pub is hex-encoded so the generic canonicalizer sees a plain string.
func associatedData(id string, pub ed25519.PublicKey) ([]byte, error) {
	return crypto.JCSCanonicalize(map[string]any{
		"id":  id,
		"pub": fmt.Sprintf("%x", pub),
	})
}

// Create generates a fresh Ed25519 keypair, encrypts the private key under
// passphrase, and persists the record. Returns the record id and public key.
func (s *Store) Create(passphrase string) (id string, pub ed25519.PublicKey, err error) {
	pubKey, priv, err := crypto.GenerateEd25519()
	if err != nil {
		return "", nil, kerr(IOFailure, "generate keypair", err)
	}
	id = uuid.New().String()
	if err := s.save(id, pubKey, priv, passphrase); err != nil {
		return "", nil, err
	}
	return id, pubKey, nil
}

// Import encrypts an existing private key under passphrase and persists it.
func (s *Store) Import(priv ed25519.PrivateKey, passphrase string) (id string, pub ed25519.PublicKey, err error) {
	if len(priv) != ed25519.PrivateKeySize {
		return "", nil, kerr(IOFailure, "import: bad private key size", nil)
	}
	pubKey := priv.Public().(ed25519.PublicKey)
	id = uuid.New().String()
	if err := s.save(id, pubKey, priv, passphrase); err != nil {
		return "", nil, err
	}
	return id, pubKey, nil
}

func (s *Store) save(id string, pub ed25519.PublicKey, priv ed25519.PrivateKey, passphrase string) error {
	salt, err := crypto.RandomBytes(16)
	if err != nil {
		return kerr(IOFailure, "generate salt", err)
	}
	params := crypto.DefaultArgon2Params
	kek, err := crypto.Argon2id([]byte(passphrase), salt, params)
	if err != nil {
		return kerr(IOFailure, "derive kek", err)
	}
	nonce, err := crypto.RandomBytes(gcmNonceSize)
	if err != nil {
		return kerr(IOFailure, "generate nonce", err)
	}
	ad, err := associatedData(id, pub)
	if err != nil {
		return kerr(IOFailure, "build aad", err)
	}
	sealed, err := crypto.AESGCMSeal(kek, nonce, ad, priv)
	if err != nil {
		return kerr(IOFailure, "seal private key", err)
	}
	ct := sealed[:len(sealed)-gcmTagSize]
	tag := sealed[len(sealed)-gcmTagSize:]

	rec := Record{
		ID:  id,
		Pub: pub,
		KDF: KDFParams{Salt: salt, Time: params.Time, Memory: params.MemoryKiB, Threads: params.Threads},
		Enc: EncParams{Alg: "aes-256-gcm", Nonce: nonce, Ciphertext: ct, Tag: tag},
	}
	data, err := json.MarshalIndent(&rec, "", "  ")
	if err != nil {
		return kerr(IOFailure, "marshal record", err)
	}
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()
	if err := os.WriteFile(s.path(id), data, 0o600); err != nil {
		return kerr(IOFailure, "write record", err)
	}
	return nil
}

// Load reads a record's metadata (id, public key) without decrypting it.
func (s *Store) Load(id string) (*Record, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kerr(NotFound, id, err)
		}
		return nil, kerr(IOFailure, "read record", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, kerr(IOFailure, "unmarshal record", err)
	}
	return &rec, nil
}

// decrypt recovers the raw private key; it never returns it to callers
// outside this package — see Sign.
func (s *Store) decrypt(rec *Record, passphrase string) (ed25519.PrivateKey, error) {
	params := crypto.Argon2Params{Time: rec.KDF.Time, MemoryKiB: rec.KDF.Memory, Threads: rec.KDF.Threads, KeyLen: 32}
	kek, err := crypto.Argon2id([]byte(passphrase), rec.KDF.Salt, params)
	if err != nil {
		return nil, kerr(IOFailure, "derive kek", err)
	}
	ad, err := associatedData(rec.ID, rec.Pub)
	if err != nil {
		return nil, kerr(IOFailure, "build aad", err)
	}
	sealed := append(append([]byte{}, rec.Enc.Ciphertext...), rec.Enc.Tag...)
	priv, err := crypto.AESGCMOpen(kek, rec.Enc.Nonce, ad, sealed)
	if err != nil {
		return nil, kerr(BadPassphrase, rec.ID, err)
	}
	return ed25519.PrivateKey(priv), nil
}

// Sign decrypts the key identified by id under passphrase and signs
// signingBytes, returning only the signature. The raw key is never
// returned or retained past this call.
func (s *Store) Sign(id, passphrase string, signingBytes []byte) ([]byte, error) {
	rec, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()
	priv, err := s.decrypt(rec, passphrase)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(priv)
	sig, err := crypto.Sign(priv, signingBytes)
	if err != nil {
		return nil, kerr(IOFailure, "sign", err)
	}
	return sig, nil
}

// List returns the ids of all records in the store.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, kerr(IOFailure, "list dir", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) == ".json" {
			ids = append(ids, name[:len(name)-len(".json")])
		}
	}
	return ids, nil
}

// ClawErr adapts a *KeyError to the shared clawerr taxonomy.
func ClawErr(op string, err error) error {
	if err == nil {
		return nil
	}
	ke, ok := err.(*KeyError)
	if !ok {
		return clawerr.Wrap(clawerr.Transient, op, "keystore error", err)
	}
	switch ke.Kind {
	case BadPassphrase:
		return clawerr.New(clawerr.Unauthorized, op, "bad passphrase")
	case NotFound:
		return clawerr.New(clawerr.NotFound, op, ke.Msg)
	default:
		return clawerr.Wrap(clawerr.Transient, op, ke.Msg, ke.Err)
	}
}

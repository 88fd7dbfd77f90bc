package main

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/claw-network/clawnet/internal/envelope"
	"github.com/claw-network/clawnet/internal/identity"
	"github.com/claw-network/clawnet/internal/keystore"
)

func httpClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// loadSigner unlocks flags.key in the keystore and returns its DID,
// public key, and a bound sign callback. The private key itself never
// leaves keystore.Store (spec §4.3).
func loadSigner() (did string, pub ed25519.PublicKey, sign func([]byte) ([]byte, error), err error) {
	if flags.keyID == "" {
		return "", nil, nil, fmt.Errorf("--key is required")
	}
	ks, err := keystore.Open(flags.keystoreDir)
	if err != nil {
		return "", nil, nil, err
	}
	rec, err := ks.Load(flags.keyID)
	if err != nil {
		return "", nil, nil, err
	}
	pub = ed25519.PublicKey(rec.Pub)
	did, err = identity.DIDFromPublicKey(pub)
	if err != nil {
		return "", nil, nil, err
	}
	keyID := flags.keyID
	sign = func(b []byte) ([]byte, error) { return ks.Sign(keyID, flags.passphrase, b) }
	return did, pub, sign, nil
}

// submitCommand builds, signs, and POSTs an envelope of typ carrying
// payload at nonce/prev, then prints the server's response body.
// prev is nil for operations that create a new chained resource.
func submitCommand(typ string, nonce uint64, prev *string, payload any) error {
	did, pub, sign, err := loadSigner()
	if err != nil {
		return err
	}
	env, err := envelope.Build(typ, did, pub, nonce, prev, payload, time.Now().UnixMilli(), sign)
	if err != nil {
		return err
	}
	body, err := envelope.Marshal(env)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, flags.apiBase+"/events", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%s rejected: status %d", typ, resp.StatusCode)
	}
	return nil
}

// prevPtr turns an empty --prev flag into a nil resource-chain pointer
// (spec §4.7 step 4: nil prev is only valid for a resource's first
// event).
func prevPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// getQuery issues a GET against path (relative to flags.apiBase) and
// prints the response body.
func getQuery(path string) error {
	resp, err := httpClient().Get(flags.apiBase + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("query failed: status %d", resp.StatusCode)
	}
	return nil
}

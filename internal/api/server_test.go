package api

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claw-network/clawnet/internal/clawerr"
	"github.com/claw-network/clawnet/internal/envelope"
	"github.com/claw-network/clawnet/internal/identity"
	"github.com/claw-network/clawnet/internal/reducers"
	"github.com/claw-network/clawnet/internal/validation"
)

type fakeCommitter struct {
	res validation.Result
	err error
	got *envelope.Envelope
}

func (f *fakeCommitter) Submit(ctx context.Context, env *envelope.Envelope) (validation.Result, error) {
	f.got = env
	return f.res, f.err
}

type fakeState struct {
	st *reducers.State
}

func (f *fakeState) State() *reducers.State { return f.st }

type fakeStatus struct {
	s NodeStatus
}

func (f *fakeStatus) Status() NodeStatus { return f.s }

func testEnvelope(t *testing.T) *envelope.Envelope {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	did, err := identity.DIDFromPublicKey(pub)
	if err != nil {
		t.Fatalf("did: %v", err)
	}
	env, err := envelope.Build("wallet.mint", did, pub, 1, nil,
		reducers.WalletMintPayload{To: did, Amount: "100"}, 1000,
		func(b []byte) ([]byte, error) { return ed25519.Sign(priv, b), nil })
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	return env
}

func TestSubmitEnvelopeCommitsAndReturnsHash(t *testing.T) {
	env := testEnvelope(t)
	committer := &fakeCommitter{res: validation.Result{Committed: true, State: reducers.New()}}
	s := NewServer(committer, &fakeState{st: reducers.New()}, nil, time.Second)

	body, err := envelope.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp submitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Hash != env.Hash || !resp.Committed {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if committer.got == nil || committer.got.Hash != env.Hash {
		t.Fatalf("expected committer to receive the decoded envelope")
	}
}

func TestSubmitEnvelopeMapsOutOfOrderToAccepted(t *testing.T) {
	env := testEnvelope(t)
	committer := &fakeCommitter{err: clawerr.New(clawerr.OutOfOrder, "validation.Process", "nonce ahead of expected")}
	s := NewServer(committer, &fakeState{st: reducers.New()}, nil, time.Second)

	body, _ := envelope.Marshal(env)
	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 Accepted for a buffered out-of-order event, got %d", rec.Code)
	}
}

func TestSubmitEnvelopeRejectsMalformedBody(t *testing.T) {
	committer := &fakeCommitter{}
	s := NewServer(committer, &fakeState{st: reducers.New()}, nil, time.Second)

	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed envelope body, got %d", rec.Code)
	}
}

func TestWalletBalanceDefaultsToZeroForUnknownAddress(t *testing.T) {
	s := NewServer(&fakeCommitter{}, &fakeState{st: reducers.New()}, nil, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/v1/wallet/did:clawnet:unknown/balance", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp balanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Available != "0" || resp.Locked != "0" {
		t.Fatalf("expected zero balances, got %+v", resp)
	}
}

func TestWalletBalanceReturnsKnownWallet(t *testing.T) {
	st := reducers.New()
	st.Wallets["did:clawnet:alice"] = &reducers.Wallet{Address: "did:clawnet:alice", Available: "500", Locked: "25"}
	s := NewServer(&fakeCommitter{}, &fakeState{st: st}, nil, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/v1/wallet/did:clawnet:alice/balance", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var resp balanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Available != "500" || resp.Locked != "25" {
		t.Fatalf("unexpected balance: %+v", resp)
	}
}

func TestIdentityResolveNotFound(t *testing.T) {
	s := NewServer(&fakeCommitter{}, &fakeState{st: reducers.New()}, nil, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/v1/identity/did:clawnet:ghost", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "NotFound" {
		t.Fatalf("expected NotFound code, got %q", resp.Code)
	}
}

func TestMarketListFiltersByKindAndSorts(t *testing.T) {
	st := reducers.New()
	st.Listings["b"] = &reducers.Listing{ID: "b", Kind: reducers.ListingTask}
	st.Listings["a"] = &reducers.Listing{ID: "a", Kind: reducers.ListingTask}
	st.Listings["c"] = &reducers.Listing{ID: "c", Kind: reducers.ListingInfo}
	s := NewServer(&fakeCommitter{}, &fakeState{st: st}, nil, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/v1/market/listings?kind=task", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var out []*reducers.Listing
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "b" {
		t.Fatalf("expected sorted task listings [a b], got %+v", out)
	}
}

func TestNodeStatusReportsProvidedStatus(t *testing.T) {
	status := &fakeStatus{s: NodeStatus{DID: "did:clawnet:node1", Peers: 3, Cursor: "c:5", Version: 1, UptimeSec: 42}}
	s := NewServer(&fakeCommitter{}, &fakeState{st: reducers.New()}, status, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/v1/node/status", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var got NodeStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != status.s {
		t.Fatalf("expected status passthrough, got %+v", got)
	}
}

func TestNodeStatusWithoutProviderReturnsZeroValue(t *testing.T) {
	s := NewServer(&fakeCommitter{}, &fakeState{st: reducers.New()}, nil, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/v1/node/status", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var got NodeStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != (NodeStatus{}) {
		t.Fatalf("expected zero-value status, got %+v", got)
	}
}

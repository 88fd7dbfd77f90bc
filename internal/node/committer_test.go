package node

import (
	"context"
	"crypto/ed25519"
	"sync"
	"testing"
	"time"

	"github.com/claw-network/clawnet/internal/clawerr"
	"github.com/claw-network/clawnet/internal/envelope"
	"github.com/claw-network/clawnet/internal/eventlog"
	"github.com/claw-network/clawnet/internal/gossip"
	"github.com/claw-network/clawnet/internal/identity"
	"github.com/claw-network/clawnet/internal/reducers"
	"github.com/claw-network/clawnet/internal/validation"
)

type testActor struct {
	did   string
	pub   ed25519.PublicKey
	priv  ed25519.PrivateKey
	nonce uint64
}

func newTestActor(t *testing.T) *testActor {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	did, err := identity.DIDFromPublicKey(pub)
	if err != nil {
		t.Fatalf("did: %v", err)
	}
	return &testActor{did: did, pub: pub, priv: priv}
}

func (a *testActor) build(t *testing.T, typ string, nonce uint64, payload any) *envelope.Envelope {
	t.Helper()
	env, err := envelope.Build(typ, a.did, a.pub, nonce, nil, payload, 1000,
		func(signingBytes []byte) ([]byte, error) {
			return ed25519.Sign(a.priv, signingBytes), nil
		})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	return env
}

type fakeBroadcaster struct {
	mu        sync.Mutex
	published [][]byte
}

func (f *fakeBroadcaster) PublishEvent(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, b)
	return nil
}

func (f *fakeBroadcaster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func newTestCommitter(t *testing.T) (*Committer, *fakeBroadcaster) {
	t.Helper()
	log, err := eventlog.Open(eventlog.NewMemStore())
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	bc := &fakeBroadcaster{}
	c := New(log, validation.NewPipeline(log), reducers.New(), bc, gossip.NewScoreBoard())
	return c, bc
}

func TestCommitterSubmitAppliesAndRepublishes(t *testing.T) {
	c, bc := newTestCommitter(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	alice := newTestActor(t)
	env := alice.build(t, "wallet.mint", 1, reducers.WalletMintPayload{To: alice.did, Amount: "500"})

	res, err := c.Submit(context.Background(), env)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Committed {
		t.Fatalf("expected mint to commit")
	}
	if c.State().Wallets[alice.did].Available != "500" {
		t.Fatalf("expected balance reflected in committer state")
	}
	if bc.count() != 1 {
		t.Fatalf("expected exactly one republish, got %d", bc.count())
	}
}

func TestCommitterBuffersAndDrainsOutOfOrderGossipEvents(t *testing.T) {
	c, _ := newTestCommitter(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	alice := newTestActor(t)
	first := alice.build(t, "wallet.mint", 1, reducers.WalletMintPayload{To: alice.did, Amount: "100"})
	second := alice.build(t, "wallet.mint", 2, reducers.WalletMintPayload{To: alice.did, Amount: "50"})

	// Deliver nonce 2 first, as gossip might when packets race.
	c.SubmitGossip(second, gossip.PeerID("peer-x"))
	time.Sleep(20 * time.Millisecond)

	c.futureMu.Lock()
	buffered := len(c.future[alice.did])
	c.futureMu.Unlock()
	if buffered != 1 {
		t.Fatalf("expected the future event to be buffered, got %d buffered", buffered)
	}

	// Now deliver nonce 1 via the waiting REST-style path; committing
	// it should drain the buffered nonce-2 event automatically.
	res, err := c.Submit(context.Background(), first)
	if err != nil {
		t.Fatalf("submit first: %v", err)
	}
	if !res.Committed {
		t.Fatalf("expected first mint to commit")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.State().Wallets[alice.did].Available == "150" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := c.State().Wallets[alice.did].Available; got != "150" {
		t.Fatalf("expected drained event to apply, balance=%s", got)
	}
}

func TestCommitterOutOfOrderRestSubmissionReturnsError(t *testing.T) {
	c, _ := newTestCommitter(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	alice := newTestActor(t)
	env := alice.build(t, "wallet.mint", 2, reducers.WalletMintPayload{To: alice.did, Amount: "100"})

	_, err := c.Submit(context.Background(), env)
	if !clawerr.Is(err, clawerr.OutOfOrder) {
		t.Fatalf("expected OutOfOrder, got %v", err)
	}
}

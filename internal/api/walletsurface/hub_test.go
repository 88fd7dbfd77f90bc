package walletsurface

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/claw-network/clawnet/internal/reducers"
)

type fakeState struct {
	st *reducers.State
}

func (f *fakeState) State() *reducers.State { return f.st }

func TestHubPushesBalanceChangesToSubscriber(t *testing.T) {
	st := reducers.New()
	st.Wallets["did:clawnet:alice"] = &reducers.Wallet{Address: "did:clawnet:alice", Available: "100", Locked: "0"}
	state := &fakeState{st: st}

	router, hub := NewRouter(state)
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx, 10*time.Millisecond)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/wallet/did:clawnet:alice/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var first balanceUpdate
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first update: %v", err)
	}
	if first.Address != "did:clawnet:alice" || first.Available != "100" {
		t.Fatalf("unexpected first update: %+v", first)
	}

	st.Wallets["did:clawnet:alice"] = &reducers.Wallet{Address: "did:clawnet:alice", Available: "250", Locked: "10"}

	var second balanceUpdate
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read second update: %v", err)
	}
	if second.Available != "250" || second.Locked != "10" {
		t.Fatalf("expected updated balance to be pushed, got %+v", second)
	}
}

func TestHubDoesNotPushWhenBalanceUnchanged(t *testing.T) {
	st := reducers.New()
	st.Wallets["did:clawnet:bob"] = &reducers.Wallet{Address: "did:clawnet:bob", Available: "10", Locked: "0"}
	state := &fakeState{st: st}

	router, hub := NewRouter(state)
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx, 10*time.Millisecond)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/wallet/did:clawnet:bob/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var first balanceUpdate
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first update: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if err := conn.ReadJSON(&first); err == nil {
		t.Fatalf("expected no further push while balance is unchanged")
	}
}

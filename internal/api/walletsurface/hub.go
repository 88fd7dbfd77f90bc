// Package walletsurface is a gorilla/mux + gorilla/websocket live
// wallet-balance push surface, adapted from the teacher's
// walletserver/ package (routes/controllers/middleware split) but
// serving a websocket stream instead of the teacher's plain
// create/import/sign endpoints — internal/api already covers those as
// REST queries. It never writes; it only observes derived state.
package walletsurface

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/claw-network/clawnet/internal/reducers"
)

// StateReader is the read-only slice of *node.Committer the hub polls.
type StateReader interface {
	State() *reducers.State
}

// balanceUpdate is the JSON frame pushed to a subscribed client whenever
// its wallet's balance changes.
type balanceUpdate struct {
	Address   string `json:"address"`
	Available string `json:"available"`
	Locked    string `json:"locked"`
}

type subscription struct {
	address       string
	lastAvailable string
	lastLocked    string
}

// Hub tracks subscribed websocket connections and pushes a balanceUpdate
// to each whenever the address it watches changes. There is no
// committer-side hook for "balance changed" (spec §5 keeps the committer
// narrow), so the hub polls the snapshot on a timer instead.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*subscription
	state   StateReader
}

func NewHub(state StateReader) *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*subscription), state: state}
}

func (h *Hub) register(conn *websocket.Conn, address string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = &subscription{address: address}
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// Run polls state every interval until ctx is cancelled, pushing updates
// to every subscriber whose watched balance changed since the last poll.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.broadcast()
		}
	}
}

func (h *Hub) broadcast() {
	st := h.state.State()
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, sub := range h.clients {
		available, locked := "0", "0"
		if w, ok := st.Wallets[sub.address]; ok {
			available, locked = w.Available, w.Locked
		}
		if available == sub.lastAvailable && locked == sub.lastLocked {
			continue
		}
		sub.lastAvailable, sub.lastLocked = available, locked
		if err := conn.WriteJSON(balanceUpdate{Address: sub.address, Available: available, Locked: locked}); err != nil {
			logrus.WithError(err).Debug("walletsurface: dropping unresponsive client")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

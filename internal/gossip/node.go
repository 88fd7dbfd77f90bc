// Package gossip implements the P2P propagation layer of spec §4.9:
// long-lived peer connections over libp2p, a publish/subscribe topic
// for committed envelopes, range-backfill request/response, peer
// scoring, and anti-spam rate limiting. It owns every network
// connection the node holds; no other package touches them (§5).
package gossip

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	"github.com/sirupsen/logrus"

	"github.com/claw-network/clawnet/internal/eventlog"
)

// PeerID is the stringified libp2p peer id of a connected node.
type PeerID string

// PeerInfo is the externally visible summary of a known peer.
type PeerInfo struct {
	ID    PeerID
	Addr  string
	Score int
}

// Config bootstraps a Node: where to listen, who to dial first, and
// the rendezvous tag used for local mDNS discovery (spec §6.3's
// p2pListen/bootstrap options surface these).
type Config struct {
	ListenAddr     string
	BootstrapPeers []string
	DiscoveryTag   string
	EventsTopic    string
}

// EventHandler is invoked for every envelope received on the events
// topic, after rate-limiting and before peer-score accounting; it
// returns the clawerr-kind the pipeline produced (or nil) so the
// caller can feed the score board.
type EventHandler func(from PeerID, envelopeBytes []byte) error

// Node is one clawnet peer's gossip transport: a libp2p host, a
// GossipSub router, and the bookkeeping (peers, scores, limiter,
// in-flight range requests) layered on top.
type Node struct {
	host   host.Host
	pubsub *pubsub.PubSub

	topicLock sync.RWMutex
	topics    map[string]*pubsub.Topic
	subLock   sync.RWMutex
	subs      map[string]*pubsub.Subscription

	peerLock sync.RWMutex
	peers    map[PeerID]*PeerInfo

	scores  *ScoreBoard
	limiter *RateLimiter

	log *eventlog.Log

	ctx    context.Context
	cancel context.CancelFunc
	cfg    Config
}

// New creates and bootstraps a gossip node: a libp2p host, a GossipSub
// router, bootstrap dialing, mDNS discovery, and the sync protocol
// stream handler serving range-backfill requests out of log.
func New(cfg Config, log *eventlog.Log) (*Node, error) {
	ctx, cancel := context.WithCancel(context.Background())

	h, err := libp2p.New(libp2p.ListenAddrStrings(cfg.ListenAddr))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("gossip: create host: %w", err)
	}

	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("gossip: create pubsub: %w", err)
	}

	n := &Node{
		host:    h,
		pubsub:  ps,
		topics:  make(map[string]*pubsub.Topic),
		subs:    make(map[string]*pubsub.Subscription),
		peers:   make(map[PeerID]*PeerInfo),
		scores:  NewScoreBoard(),
		limiter: NewRateLimiter(defaultNonceWindowLimit, defaultByteWindowLimit),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		cfg:     cfg,
	}
	if cfg.EventsTopic == "" {
		n.cfg.EventsTopic = "clawnet.events"
	}

	h.SetStreamHandler(syncProtocolID, n.handleSyncStream)

	if err := n.DialSeed(cfg.BootstrapPeers); err != nil {
		logrus.Warnf("gossip: bootstrap dial warning: %v", err)
	}

	if cfg.DiscoveryTag != "" {
		mdns.NewMdnsService(h, cfg.DiscoveryTag, n)
	}

	return n, nil
}

var _ mdns.Notifee = (*Node)(nil)

// HandlePeerFound implements mdns.Notifee: connect to a peer discovered
// on the local network, ignoring ourselves and peers we already know.
func (n *Node) HandlePeerFound(info peer.AddrInfo) {
	if info.ID == n.host.ID() {
		return
	}
	id := PeerID(info.ID.String())
	n.peerLock.RLock()
	_, known := n.peers[id]
	n.peerLock.RUnlock()
	if known {
		return
	}
	if err := n.host.Connect(n.ctx, info); err != nil {
		logrus.Warnf("gossip: connect to discovered peer %s: %v", id, err)
		return
	}
	n.peerLock.Lock()
	n.peers[id] = &PeerInfo{ID: id, Addr: info.String()}
	n.peerLock.Unlock()
	n.scores.Touch(id)
	logrus.Infof("gossip: connected to %s via mDNS", id)
}

// DialSeed connects to the configured bootstrap peers, collecting
// per-address errors rather than failing fast — one bad seed should
// not keep the node from joining the rest of the network.
func (n *Node) DialSeed(seeds []string) error {
	var errs []string
	for _, addr := range seeds {
		pi, err := peer.AddrInfoFromString(addr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid addr %s: %v", addr, err))
			continue
		}
		if err := n.host.Connect(n.ctx, *pi); err != nil {
			errs = append(errs, fmt.Sprintf("connect %s: %v", addr, err))
			continue
		}
		id := PeerID(pi.ID.String())
		n.peerLock.Lock()
		n.peers[id] = &PeerInfo{ID: id, Addr: addr}
		n.peerLock.Unlock()
		n.scores.Touch(id)
		logrus.Infof("gossip: bootstrapped to %s", addr)
	}
	if len(errs) > 0 {
		return fmt.Errorf("gossip: dial errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// PublishEvent publishes one canonical envelope's bytes on the events
// topic. Per spec §6.2, callers must pass the producer's own canonical
// bytes unchanged — this node never re-serializes what it relays.
func (n *Node) PublishEvent(envelopeBytes []byte) error {
	t, err := n.joinTopic(n.cfg.EventsTopic)
	if err != nil {
		return err
	}
	if err := t.Publish(n.ctx, envelopeBytes); err != nil {
		return fmt.Errorf("gossip: publish: %w", err)
	}
	return nil
}

func (n *Node) joinTopic(topic string) (*pubsub.Topic, error) {
	n.topicLock.Lock()
	defer n.topicLock.Unlock()
	if t, ok := n.topics[topic]; ok {
		return t, nil
	}
	t, err := n.pubsub.Join(topic)
	if err != nil {
		return nil, fmt.Errorf("gossip: join topic %s: %w", topic, err)
	}
	n.topics[topic] = t
	return t, nil
}

// SubscribeEvents joins the events topic (if not already joined) and
// delivers every future message to handler on its own goroutine. Each
// delivery is rate-limited before handler runs, so a single abusive peer
// cannot starve the committer queue; the sending peer is then scored on
// the handler's result.
func (n *Node) SubscribeEvents(handler EventHandler) error {
	t, err := n.joinTopic(n.cfg.EventsTopic)
	if err != nil {
		return err
	}
	n.subLock.Lock()
	sub, ok := n.subs[n.cfg.EventsTopic]
	if !ok {
		sub, err = t.Subscribe()
		if err != nil {
			n.subLock.Unlock()
			return fmt.Errorf("gossip: subscribe: %w", err)
		}
		n.subs[n.cfg.EventsTopic] = sub
	}
	n.subLock.Unlock()

	go func() {
		for {
			msg, err := sub.Next(n.ctx)
			if err != nil {
				logrus.Warnf("gossip: subscription ended: %v", err)
				return
			}
			from := PeerID(msg.GetFrom().String())
			if !n.limiter.Allow(from, len(msg.Data)) {
				n.scores.Penalize(from, scorePenaltyRateLimited)
				continue
			}
			if err := handler(from, msg.Data); err != nil {
				n.scores.Penalize(from, scorePenaltyInvalidEvent)
			} else {
				n.scores.Reward(from, scoreRewardValidEvent)
			}
			if n.scores.ShouldDisconnect(from) {
				n.disconnect(from)
			}
		}
	}()
	return nil
}

func (n *Node) disconnect(id PeerID) {
	for _, c := range n.host.Network().ConnsToPeer(peer.ID(id)) {
		_ = c.Close()
	}
	n.peerLock.Lock()
	delete(n.peers, id)
	n.peerLock.Unlock()
	logrus.Warnf("gossip: disconnected peer %s (score below threshold)", id)
}

// Peers returns a point-in-time snapshot of known peers and their
// current scores.
func (n *Node) Peers() []PeerInfo {
	n.peerLock.RLock()
	defer n.peerLock.RUnlock()
	out := make([]PeerInfo, 0, len(n.peers))
	for _, p := range n.peers {
		cp := *p
		cp.Score = n.scores.Score(p.ID)
		out = append(out, cp)
	}
	return out
}

// Close tears down the libp2p host and cancels all background work.
func (n *Node) Close() error {
	n.cancel()
	return n.host.Close()
}

package gossip

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"

	"github.com/claw-network/clawnet/internal/clawerr"
	"github.com/claw-network/clawnet/internal/eventlog"
)

// syncProtocolID is the libp2p protocol negotiated for range-backfill
// streams (spec §6.2's rangeReq/rangeResp wire messages).
const syncProtocolID = protocol.ID("/clawnet/sync/1.0.0")

// rangeChunkTimeout bounds one request/response round trip; an expired
// request is retried against a different peer by the caller (spec §5).
const rangeChunkTimeout = 10 * time.Second

// rangeRequest and rangeResponse mirror spec §6.2's rangeReq/rangeResp
// bodies. Events are raw canonical envelope bytes, never re-serialized.
type rangeRequest struct {
	FromCursor string `json:"fromCursor"`
	Limit      int    `json:"limit"`
}

type rangeResponse struct {
	Events     [][]byte `json:"events"`
	NextCursor string   `json:"nextCursor"`
	Done       bool     `json:"done"`
}

// handleSyncStream serves one incoming range-backfill request by
// reading a single JSON rangeRequest and writing back one JSON
// rangeResponse, then closing the stream. Multi-chunk backfills are
// driven by the caller issuing further requests with the returned
// nextCursor.
func (n *Node) handleSyncStream(s network.Stream) {
	defer s.Close()
	from := PeerID(s.Conn().RemotePeer().String())

	s.SetDeadline(time.Now().Add(rangeChunkTimeout))

	var req rangeRequest
	dec := json.NewDecoder(bufio.NewReader(s))
	if err := dec.Decode(&req); err != nil {
		n.scores.Penalize(from, scorePenaltyMalformedFraming)
		return
	}
	limit := req.Limit
	if limit <= 0 || limit > maxRangeChunk {
		limit = maxRangeChunk
	}

	records, next, err := n.log.RangeFromCursor(eventlog.DecodeCursor(req.FromCursor), limit)
	if err != nil {
		n.scores.Penalize(from, scorePenaltyInvalidEvent)
		return
	}
	events := make([][]byte, len(records))
	for i, r := range records {
		events[i] = r.Bytes
	}
	resp := rangeResponse{
		Events:     events,
		NextCursor: eventlog.EncodeCursor(next),
		Done:       len(records) < limit,
	}
	enc := json.NewEncoder(s)
	if err := enc.Encode(resp); err != nil {
		n.scores.Penalize(from, scorePenaltyMalformedFraming)
		return
	}
	n.scores.Reward(from, scoreRewardValidEvent)
}

// maxRangeChunk caps how many events one rangeResp carries, regardless
// of what the requester asked for.
const maxRangeChunk = 512

// RequestRange opens a sync stream to peerID and pulls one chunk of at
// most limit events starting at fromCursor. A full backfill is a loop of
// calls, advancing fromCursor with each response's NextCursor until Done
// is true (spec §4.9, §5); the committer does not call it.
func (n *Node) RequestRange(ctx context.Context, peerID PeerID, fromCursor string, limit int) (events [][]byte, nextCursor string, done bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, rangeChunkTimeout)
	defer cancel()

	s, err := n.host.NewStream(ctx, peer.ID(peerID), syncProtocolID)
	if err != nil {
		return nil, "", false, clawerr.Wrap(clawerr.Transient, "gossip.RequestRange", "open stream", err)
	}
	defer s.Close()

	if deadline, ok := ctx.Deadline(); ok {
		s.SetDeadline(deadline)
	}

	if err := json.NewEncoder(s).Encode(rangeRequest{FromCursor: fromCursor, Limit: limit}); err != nil {
		return nil, "", false, clawerr.Wrap(clawerr.Transient, "gossip.RequestRange", "send request", err)
	}

	var resp rangeResponse
	if err := json.NewDecoder(bufio.NewReader(s)).Decode(&resp); err != nil {
		n.scores.Penalize(peerID, scorePenaltyMalformedFraming)
		return nil, "", false, clawerr.Wrap(clawerr.Transient, "gossip.RequestRange", fmt.Sprintf("decode response from %s", peerID), err)
	}
	n.scores.Reward(peerID, scoreRewardValidEvent)
	return resp.Events, resp.NextCursor, resp.Done, nil
}

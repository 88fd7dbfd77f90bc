package gossip

import "testing"

func TestScoreBoardPenalizeTriggersDisconnect(t *testing.T) {
	b := NewScoreBoard()
	peer := PeerID("peer-1")
	b.Touch(peer)
	for i := 0; i < 6; i++ {
		b.Penalize(peer, scorePenaltyMalformedFraming)
	}
	if !b.ShouldDisconnect(peer) {
		t.Fatalf("expected peer to cross disconnect threshold, score=%d", b.Score(peer))
	}
}

func TestScoreBoardBanIsSticky(t *testing.T) {
	b := NewScoreBoard()
	peer := PeerID("peer-2")
	for i := 0; i < 10; i++ {
		b.Penalize(peer, scorePenaltyMalformedFraming)
	}
	if !b.IsBanned(peer) {
		t.Fatalf("expected peer to be banned, score=%d", b.Score(peer))
	}
	b.Reward(peer, 1000)
	if !b.IsBanned(peer) {
		t.Fatalf("expected ban to persist despite later rewards")
	}
}

func TestScoreBoardRewardKeepsPeerConnected(t *testing.T) {
	b := NewScoreBoard()
	peer := PeerID("peer-3")
	b.Reward(peer, scoreRewardValidEvent)
	b.Reward(peer, scoreRewardValidEvent)
	if b.ShouldDisconnect(peer) {
		t.Fatalf("expected a well-behaved peer not to be disconnected")
	}
}

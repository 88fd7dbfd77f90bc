package eventlog

import "testing"

func TestCommitEventIsIdempotent(t *testing.T) {
	l, err := Open(NewMemStore())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	p := CommitParams{Hash: "h1", Bytes: []byte("payload"), Issuer: "did:claw:abc", Nonce: 1,
		ResourceKind: "escrow", ResourceID: "e1"}

	committed, err := l.CommitEvent(p)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !committed {
		t.Fatalf("expected first commit to succeed")
	}

	committed, err = l.CommitEvent(p)
	if err != nil {
		t.Fatalf("recommit: %v", err)
	}
	if committed {
		t.Fatalf("expected recommit of same hash to be a no-op")
	}

	got, err := l.Get("h1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("unexpected stored bytes: %q", got)
	}
}

func TestIssuerHeadAndResourceHeadTrackLatest(t *testing.T) {
	l, _ := Open(NewMemStore())
	issuer := "did:claw:abc"

	if _, ok, err := l.IssuerHead(issuer); err != nil || ok {
		t.Fatalf("expected no issuer head yet, ok=%v err=%v", ok, err)
	}

	for nonce := uint64(1); nonce <= 3; nonce++ {
		if _, err := l.CommitEvent(CommitParams{
			Hash: "h" + string(rune('0'+nonce)), Bytes: []byte("x"), Issuer: issuer, Nonce: nonce,
			ResourceKind: "contract", ResourceID: "c1",
		}); err != nil {
			t.Fatalf("commit nonce %d: %v", nonce, err)
		}
	}

	head, ok, err := l.IssuerHead(issuer)
	if err != nil || !ok || head != 3 {
		t.Fatalf("expected issuer head 3, got %d ok=%v err=%v", head, ok, err)
	}

	rhash, ok, err := l.ResourceHead("contract", "c1")
	if err != nil || !ok || rhash != "h3" {
		t.Fatalf("expected resource head h3, got %q ok=%v err=%v", rhash, ok, err)
	}
}

func TestRangeFromCursorResumesAndIsStable(t *testing.T) {
	l, _ := Open(NewMemStore())
	for i := uint64(1); i <= 5; i++ {
		if _, err := l.CommitEvent(CommitParams{
			Hash: "h" + string(rune('0'+i)), Bytes: []byte("x"), Issuer: "did:claw:abc", Nonce: i,
		}); err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}

	first, cursor, err := l.RangeFromCursor(Cursor{}, 3)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 records, got %d", len(first))
	}

	second, cursor2, err := l.RangeFromCursor(cursor, 3)
	if err != nil {
		t.Fatalf("range2: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("expected 2 remaining records, got %d", len(second))
	}

	third, _, err := l.RangeFromCursor(cursor2, 3)
	if err != nil {
		t.Fatalf("range3: %v", err)
	}
	if len(third) != 0 {
		t.Fatalf("expected no new records past the end, got %d", len(third))
	}
}

func TestDecodeCursorUnrecognizedStartsFromBeginning(t *testing.T) {
	c := DecodeCursor("not-a-real-cursor")
	if c != (Cursor{}) {
		t.Fatalf("expected zero cursor for garbage input")
	}
	c2 := DecodeCursor(EncodeCursor(Cursor{seq: 42}))
	if c2.seq != 42 {
		t.Fatalf("expected round-trip to preserve seq, got %d", c2.seq)
	}
}

func TestOpenRecoversSequenceAcrossReopen(t *testing.T) {
	store := NewMemStore()
	l, _ := Open(store)
	for i := uint64(1); i <= 3; i++ {
		if _, err := l.CommitEvent(CommitParams{Hash: "h" + string(rune('0'+i)), Bytes: []byte("x"), Issuer: "did:claw:abc", Nonce: i}); err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}

	l2, err := Open(store)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := l2.CommitEvent(CommitParams{Hash: "h4", Bytes: []byte("x"), Issuer: "did:claw:abc", Nonce: 4}); err != nil {
		t.Fatalf("commit after reopen: %v", err)
	}
	recs, _, err := l2.RangeFromCursor(Cursor{}, 10)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("expected 4 records after reopen, got %d", len(recs))
	}
	if recs[3].Seq != 3 {
		t.Fatalf("expected recovered sequence to continue at 3, got %d", recs[3].Seq)
	}
}

package eventlog

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/claw-network/clawnet/internal/clawerr"
)

// Key prefixes for the log's secondary indexes (spec §4.5). Every event
// is stored four ways: by its own hash (the log entry itself), by
// issuer+nonce (duplicate/out-of-order detection), by resource head
// (chain-tip lookup for resource-scoped event types), and by commit
// sequence (range backfill).
const (
	prefixEvent       = "ev:"
	prefixIssuerNonce = "ix:issuer:"
	prefixResource    = "ix:resource:"
	prefixSeq         = "seq:"
)

func eventKey(hash string) []byte {
	return []byte(prefixEvent + hash)
}

func issuerNonceKey(issuer string, nonce uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", prefixIssuerNonce, issuer, nonce))
}

func issuerHeadKey(issuer string) []byte {
	return []byte(prefixIssuerNonce + issuer + ":head")
}

func resourceHeadKey(kind, id string) []byte {
	return []byte(prefixResource + kind + ":" + id)
}

func seqKey(seq uint64) []byte {
	b := make([]byte, len(prefixSeq)+8)
	copy(b, prefixSeq)
	binary.BigEndian.PutUint64(b[len(prefixSeq):], seq)
	return b
}

// Record is one committed log entry: the envelope bytes as originally
// canonicalized (byte-identical across nodes, spec §6.2) plus the
// monotonic sequence number assigned at commit time.
type Record struct {
	Seq   uint64
	Hash  string
	Bytes []byte
}

// Log is the append-only event log and its indexes, built on a KVStore.
// All mutation happens through CommitEvent, called exclusively by the
// single-writer committer (spec §8); Get/RangeFromCursor/IssuerHead/
// ResourceHead are safe for concurrent readers.
type Log struct {
	mu    sync.RWMutex
	store KVStore
	seq   uint64
}

// Open wraps an already-opened KVStore as a Log, recovering the next
// sequence number by scanning the seq: index.
func Open(store KVStore) (*Log, error) {
	l := &Log{store: store}
	it, err := store.Iterator([]byte(prefixSeq), []byte(prefixSeq+"\xff"))
	if err != nil {
		return nil, clawerr.Wrap(clawerr.Transient, "eventlog.Open", "scan seq index", err)
	}
	defer it.Close()
	var maxSeq uint64
	found := false
	for it.Next() {
		k := it.Key()
		seq := binary.BigEndian.Uint64(k[len(prefixSeq):])
		if !found || seq > maxSeq {
			maxSeq = seq
			found = true
		}
	}
	if err := it.Error(); err != nil {
		return nil, clawerr.Wrap(clawerr.Transient, "eventlog.Open", "iterate seq index", err)
	}
	if found {
		l.seq = maxSeq + 1
	}
	return l, nil
}

// Has reports whether an event with this hash is already committed,
// used by validation (spec §4.7 step 1) to treat re-delivery as a
// Duplicate rather than reprocessing.
func (l *Log) Has(hash string) (bool, error) {
	ok, err := l.store.Has(eventKey(hash))
	if err != nil {
		return false, clawerr.Wrap(clawerr.Transient, "eventlog.Has", "store has", err)
	}
	return ok, nil
}

// Get returns the stored bytes for hash, or nil if absent.
func (l *Log) Get(hash string) ([]byte, error) {
	v, err := l.store.Get(eventKey(hash))
	if err != nil {
		return nil, clawerr.Wrap(clawerr.Transient, "eventlog.Get", "store get", err)
	}
	return v, nil
}

// IssuerHead returns the highest committed nonce for issuer and whether
// any event has been committed for them at all.
func (l *Log) IssuerHead(issuer string) (uint64, bool, error) {
	v, err := l.store.Get(issuerHeadKey(issuer))
	if err != nil {
		return 0, false, clawerr.Wrap(clawerr.Transient, "eventlog.IssuerHead", "store get", err)
	}
	if v == nil {
		return 0, false, nil
	}
	return binary.BigEndian.Uint64(v), true, nil
}

// ResourceHead returns the hash of the most recently committed event for
// the given resource kind+id (the chain tip a new event's prev must
// reference, spec §4.6), and whether the resource has any history.
func (l *Log) ResourceHead(kind, id string) (string, bool, error) {
	v, err := l.store.Get(resourceHeadKey(kind, id))
	if err != nil {
		return "", false, clawerr.Wrap(clawerr.Transient, "eventlog.ResourceHead", "store get", err)
	}
	if v == nil {
		return "", false, nil
	}
	return string(v), true, nil
}

// CommitParams describes one event's indexing requirements, decided by
// validation (spec §4.7 step 3–4) before the single writer calls
// CommitEvent.
type CommitParams struct {
	Hash     string
	Bytes    []byte
	Issuer   string
	Nonce    uint64
	// ResourceKind/ResourceID are empty for issuer-scoped events that do
	// not advance a resource chain (e.g. a pure wallet transfer).
	ResourceKind string
	ResourceID   string
}

// CommitEvent appends hash/bytes to the log and atomically updates the
// issuer nonce index and, if present, the resource head index, in a
// single batch (spec §4.5: "either all of log entry, nonce row,
// resource head land, or none do"). Re-committing an already-present
// hash is a no-op that returns (false, nil) so republished gossip
// traffic is idempotent.
func (l *Log) CommitEvent(p CommitParams) (committed bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	exists, err := l.store.Has(eventKey(p.Hash))
	if err != nil {
		return false, clawerr.Wrap(clawerr.Transient, "eventlog.CommitEvent", "check existing", err)
	}
	if exists {
		return false, nil
	}

	seq := atomic.AddUint64(&l.seq, 1) - 1

	b := l.store.NewBatch()
	b.Set(eventKey(p.Hash), p.Bytes)
	b.Set(seqKey(seq), []byte(p.Hash))

	nonceBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(nonceBuf, p.Nonce)
	b.Set(issuerNonceKey(p.Issuer, p.Nonce), []byte(p.Hash))
	b.Set(issuerHeadKey(p.Issuer), nonceBuf)

	if p.ResourceKind != "" && p.ResourceID != "" {
		b.Set(resourceHeadKey(p.ResourceKind, p.ResourceID), []byte(p.Hash))
	}

	if err := b.Write(); err != nil {
		atomic.AddUint64(&l.seq, ^uint64(0)) // undo the reservation on failed write
		return false, clawerr.Wrap(clawerr.Transient, "eventlog.CommitEvent", "write batch", err)
	}
	return true, nil
}

// Cursor is an opaque, stable handle into the log's append order. The
// zero Cursor starts a range from the beginning of the log.
type Cursor struct {
	seq uint64
}

// HeadCursor returns the cursor a RangeFromCursor call must start from
// to see only events not yet committed locally — i.e. the next
// sequence number this node would assign. Used by node.status() (spec
// §6.1) and as the starting point a peer advertises during backfill
// negotiation.
func (l *Log) HeadCursor() Cursor {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Cursor{seq: l.seq}
}

// SeqHead returns the same position as HeadCursor as a plain integer,
// for metrics gauges that need a number rather than an opaque handle.
func (l *Log) SeqHead() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seq
}

// EncodeCursor renders a Cursor as an opaque string suitable for
// transport in a sync request (spec §4.9).
func EncodeCursor(c Cursor) string {
	return hex.EncodeToString(seqKey(c.seq)[len(prefixSeq):])
}

// DecodeCursor parses a cursor string produced by EncodeCursor. An
// unrecognized or empty string decodes to the zero Cursor, so unknown
// cursors degrade to "start from the beginning" rather than erroring,
// matching spec §4.9's resync behavior.
func DecodeCursor(s string) Cursor {
	if s == "" {
		return Cursor{}
	}
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 8 {
		return Cursor{}
	}
	return Cursor{seq: binary.BigEndian.Uint64(b)}
}

// RangeFromCursor returns up to limit records committed at or after
// cursor, in commit order, plus the cursor to resume from on the next
// call. When fewer than limit records remain, the returned cursor is
// stable and re-querying it returns nothing new until more events
// commit.
func (l *Log) RangeFromCursor(cursor Cursor, limit int) ([]Record, Cursor, error) {
	start := seqKey(cursor.seq)
	end := []byte(prefixSeq + "\xff\xff\xff\xff\xff\xff\xff\xff\xff")
	it, err := l.store.Iterator(start, end)
	if err != nil {
		return nil, cursor, clawerr.Wrap(clawerr.Transient, "eventlog.RangeFromCursor", "iterator", err)
	}
	defer it.Close()

	var out []Record
	next := cursor
	for len(out) < limit && it.Next() {
		k := it.Key()
		seq := binary.BigEndian.Uint64(k[len(prefixSeq):])
		hash := string(it.Value())
		raw, err := l.store.Get(eventKey(hash))
		if err != nil {
			return nil, cursor, clawerr.Wrap(clawerr.Transient, "eventlog.RangeFromCursor", "load event", err)
		}
		out = append(out, Record{Seq: seq, Hash: hash, Bytes: raw})
		next = Cursor{seq: seq + 1}
	}
	if err := it.Error(); err != nil {
		return nil, cursor, clawerr.Wrap(clawerr.Transient, "eventlog.RangeFromCursor", "iterate", err)
	}
	return out, next, nil
}

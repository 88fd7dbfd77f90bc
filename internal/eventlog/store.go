// Package eventlog implements the append-only event log and its secondary
// indexes (spec §4.5): the per-hash log entry, the per-issuer nonce index,
// the per-resource head pointer, and the opaque cursor used for range sync.
package eventlog

// Iterator walks a KVStore key range in ascending key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// Batch accumulates a set of writes applied atomically by Write.
type Batch interface {
	Set(key, value []byte)
	Delete(key []byte)
	Write() error
}

// KVStore is the minimal ordered key-value contract the log is built on,
// shaped after the teacher's core.KVStore (core/cross_chain.go) but
// extended with a Batch for the atomic multi-key commits spec §4.5
// requires ("either all of log entry, nonce row, resource head land, or
// none do").
type KVStore interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Iterator(start, end []byte) (Iterator, error)
	NewBatch() Batch
	Close() error
}

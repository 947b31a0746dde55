// Package index defines the common interface shared by the disk-backed
// B+ tree engine and the reference backends used to benchmark it.
package index

// Index is the common interface for all comparable key/value stores driven
// by cmd/bench. The B+ tree engine in package bplus implements it directly;
// cmd/bench/lsm wraps Pebble behind the same shape so the two can be driven
// by one harness.
type Index interface {
	Insert(key int64, value []byte) error
	Get(key int64) ([]byte, error)
	Delete(key int64) error
	Range(start, end int64) (Iterator, error)
	Close() error
}

// Iterator allows scanning over a range of key/value pairs in ascending
// key order.
type Iterator interface {
	Next() bool
	Key() int64
	Value() []byte
	Error() error
	Close() error
}

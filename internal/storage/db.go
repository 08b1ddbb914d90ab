// Package storage provides the key/value store behind the peer cache.
package storage

// Entry is one key/value pair of a batch write.
type Entry struct {
	Key   []byte
	Value []byte
}

// DB is the key/value store the peer cache is kept in.
type DB interface {
	Put(key, value []byte) error
	// PutAll writes entries as one batch.
	PutAll(entries []Entry) error
	Delete(key []byte) error
	// DeletePrefix removes every key that starts with prefix.
	DeletePrefix(prefix []byte) error
	// ForEach walks the keys with the given prefix in key order. fn gets
	// copies of key and value; a non-nil error from fn ends the walk.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}

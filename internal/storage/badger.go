package storage

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/ArkEcosystemArchive/ark-cli/internal/log"
)

// BadgerDB is the on-disk DB, one directory per network.
type BadgerDB struct {
	db *badger.DB
}

// NewBadger opens (or creates) the peer cache database in dir.
func NewBadger(dir string) (*BadgerDB, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithValueLogFileSize(16 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "Cannot acquire directory lock") {
			return nil, fmt.Errorf("peer cache at %s is in use by another ark-cli: %w", dir, err)
		}
		return nil, fmt.Errorf("open peer cache at %s: %w", dir, err)
	}
	log.Storage.Debug().Str("dir", dir).Msg("Peer cache opened")
	return &BadgerDB{db: db}, nil
}

// Put stores value under key.
func (b *BadgerDB) Put(key, value []byte) error {
	if err := b.db.Update(func(txn *badger.Txn) error { return txn.Set(key, value) }); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// PutAll writes entries through a single write batch.
func (b *BadgerDB) PutAll(entries []Entry) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, e := range entries {
		if err := wb.Set(e.Key, e.Value); err != nil {
			return fmt.Errorf("batch put %q: %w", e.Key, err)
		}
	}
	return wb.Flush()
}

// Delete removes key. Deleting a missing key is not an error.
func (b *BadgerDB) Delete(key []byte) error {
	if err := b.db.Update(func(txn *badger.Txn) error { return txn.Delete(key) }); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// DeletePrefix removes every key under prefix in one write batch.
func (b *BadgerDB) DeletePrefix(prefix []byte) error {
	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan %q: %w", prefix, err)
	}
	if len(keys) == 0 {
		return nil
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("batch delete %q: %w", k, err)
		}
	}
	return wb.Flush()
}

// ForEach walks the keys under prefix in key order.
func (b *BadgerDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(item.KeyCopy(nil), val); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close flushes and closes the database.
func (b *BadgerDB) Close() error {
	return b.db.Close()
}

package storage

// PrefixDB is a namespace inside another DB: every key it reads or writes
// carries a fixed prefix. The peer cache uses one per network.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

// NewPrefixDB returns the namespace prefix of inner.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	return &PrefixDB{inner: inner, prefix: append([]byte(nil), prefix...)}
}

func (p *PrefixDB) key(k []byte) []byte {
	out := make([]byte, 0, len(p.prefix)+len(k))
	return append(append(out, p.prefix...), k...)
}

func (p *PrefixDB) Put(key, value []byte) error {
	return p.inner.Put(p.key(key), value)
}

func (p *PrefixDB) PutAll(entries []Entry) error {
	scoped := make([]Entry, len(entries))
	for i, e := range entries {
		scoped[i] = Entry{Key: p.key(e.Key), Value: e.Value}
	}
	return p.inner.PutAll(scoped)
}

func (p *PrefixDB) Delete(key []byte) error {
	return p.inner.Delete(p.key(key))
}

// DeletePrefix removes the keys under prefix within the namespace only.
func (p *PrefixDB) DeletePrefix(prefix []byte) error {
	return p.inner.DeletePrefix(p.key(prefix))
}

// ForEach walks the namespace. Keys handed to fn have the namespace
// prefix stripped.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return p.inner.ForEach(p.key(prefix), func(key, value []byte) error {
		return fn(key[len(p.prefix):], value)
	})
}

// Close is a no-op; the inner DB owns the lifecycle.
func (p *PrefixDB) Close() error {
	return nil
}

package store

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

func eventPrefix(kind string) []byte {
	return []byte("event:" + kind + ":")
}

// AppendEvent stores payload under kind, ordered by at. A zero ttl keeps the
// entry until it is overwritten.
func (s *Store) AppendEvent(kind string, at time.Time, payload []byte, ttl time.Duration) error {
	key := fmt.Sprintf("%s%020d:%s", eventPrefix(kind), at.UnixNano(), uuid.NewString()[:8])
	return s.badger.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), payload)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// RecentEvents returns up to limit payloads of kind, newest first.
func (s *Store) RecentEvents(kind string, limit int) ([][]byte, error) {
	prefix := eventPrefix(kind)
	var out [][]byte

	err := s.badger.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			if err := it.Item().Value(func(v []byte) error {
				out = append(out, append([]byte{}, v...))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

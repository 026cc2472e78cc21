// Package store keeps a local journal of pipeline steps in a bbolt file,
// one bucket per dApp.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/fhe-dapps/internal/model"

	bolt "go.etcd.io/bbolt"
)

// Store is the journal. It is safe for concurrent use.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the journal at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the journal.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores e under e.Dapp and sets its ID. A zero timestamp is set to
// now.
func (s *Store) Append(e *model.Entry) error {
	if e.Dapp == "" {
		return errors.New("journal entry has no dapp")
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(e.Dapp))
		if err != nil {
			return err
		}
		seq, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		e.ID = seq
		raw, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return bkt.Put(itob(seq), raw)
	})
}

// List returns entries for dapp matching filter, newest first.
func (s *Store) List(dapp string, filter *model.HistoryRequest) ([]model.Entry, error) {
	entries := []model.Entry{}
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(dapp))
		if bkt == nil {
			return nil
		}
		c := bkt.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e model.Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("corrupt journal entry %d: %w", binary.BigEndian.Uint64(k), err)
			}
			if !filter.Match(&e) {
				continue
			}
			entries = append(entries, e)
			if filter != nil && filter.Limit > 0 && len(entries) == filter.Limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Dapps returns the names of all dApps with journal entries.
func (s *Store) Dapps() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	return names, err
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

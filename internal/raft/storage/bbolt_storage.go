// Package storage provides durable and in-memory implementations of
// raft.Log.
//
// Grounded on the teacher's internal/raft/storage/bbolt_storage.go
// (bucket layout: one bucket of index-keyed entries, one bucket of
// metadata keys, big-endian uint64 keys via a cursor for range and
// last-index queries) generalized to the entry shape of SPEC_FULL.md and
// re-encoded with encoding/gob instead of protobuf, since no
// protoc-generated Go types exist in this module (see DESIGN.md).
package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"go.etcd.io/bbolt"

	"raftcore/internal/raft"
)

var (
	logBucket      = []byte("log")
	metadataBucket = []byte("metadata")

	currentTermKey = []byte("currentTerm")
	votedForKey    = []byte("votedFor")
)

// BoltLog is the production raft.Log backend.
type BoltLog struct {
	db *bbolt.DB
}

// OpenBoltLog opens (creating if needed) a bbolt-backed log at path.
func OpenBoltLog(path string) (*BoltLog, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bbolt log: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(logBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(metadataBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init bbolt log buckets: %w", err)
	}
	return &BoltLog{db: db}, nil
}

func uint64ToBytes(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

func bytesToUint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

func encodeEntry(e raft.Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeEntry(data []byte) (raft.Entry, error) {
	var e raft.Entry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&e); err != nil {
		return raft.Entry{}, err
	}
	return e, nil
}

// Append assigns the next EntryID (one past the current last) and stores
// entry under it.
func (b *BoltLog) Append(entry raft.Entry) (raft.EntryID, error) {
	var id raft.EntryID
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(logBucket)
		last := lastKey(bucket)
		id = raft.EntryID(last + 1)
		entry.ID = id
		data, err := encodeEntry(entry)
		if err != nil {
			return fmt.Errorf("encode entry %d: %w", id, err)
		}
		return bucket.Put(uint64ToBytes(uint64(id)), data)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func lastKey(bucket *bbolt.Bucket) uint64 {
	k, _ := bucket.Cursor().Last()
	if k == nil {
		return 0
	}
	return bytesToUint64(k)
}

// GetEntry returns the stored entry at id.
func (b *BoltLog) GetEntry(id raft.EntryID) (raft.Entry, error) {
	var entry raft.Entry
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(logBucket)
		data := bucket.Get(uint64ToBytes(uint64(id)))
		if data == nil {
			return fmt.Errorf("log entry %d not found", id)
		}
		e, err := decodeEntry(data)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	return entry, err
}

// GetTerm returns the term of the entry at id, or 0 if id is 0 or beyond
// the end of the log.
func (b *BoltLog) GetTerm(id raft.EntryID) raft.Term {
	if id == 0 {
		return 0
	}
	entry, err := b.GetEntry(id)
	if err != nil {
		return 0
	}
	return entry.Term
}

// LastID returns the id of the last stored entry, or 0 if the log is
// empty.
func (b *BoltLog) LastID() raft.EntryID {
	var last uint64
	b.db.View(func(tx *bbolt.Tx) error {
		last = lastKey(tx.Bucket(logBucket))
		return nil
	})
	return raft.EntryID(last)
}

// BeginLastTermID returns the first id sharing the term of the last
// entry, found by scanning backward, or 0 if the log is empty.
func (b *BoltLog) BeginLastTermID() raft.EntryID {
	last := b.LastID()
	if last == 0 {
		return 0
	}
	lastTerm := b.GetTerm(last)
	var begin raft.EntryID
	b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(logBucket)
		cursor := bucket.Cursor()
		id := uint64(last)
		begin = last
		for {
			k, v := cursor.Seek(uint64ToBytes(id))
			if k == nil {
				break
			}
			e, err := decodeEntry(v)
			if err != nil || e.Term != lastTerm {
				break
			}
			begin = raft.EntryID(id)
			if id == 1 {
				break
			}
			id--
		}
		return nil
	})
	return begin
}

// Truncate deletes every entry with id > lastEntryID.
func (b *BoltLog) Truncate(lastEntryID raft.EntryID) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(logBucket)
		cursor := bucket.Cursor()
		var toDelete [][]byte
		for k, _ := cursor.Seek(uint64ToBytes(uint64(lastEntryID) + 1)); k != nil; k, _ = cursor.Next() {
			toDelete = append(toDelete, append([]byte(nil), k...))
		}
		for _, k := range toDelete {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// PersistMetadata durably stores currentTerm/votedFor.
func (b *BoltLog) PersistMetadata(meta raft.Metadata) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(metadataBucket)
		if err := bucket.Put(currentTermKey, uint64ToBytes(uint64(meta.CurrentTerm))); err != nil {
			return err
		}
		if meta.VotedFor == nil {
			return bucket.Delete(votedForKey)
		}
		return bucket.Put(votedForKey, uint64ToBytes(uint64(*meta.VotedFor)))
	})
}

// LoadMetadata returns the last persisted currentTerm/votedFor.
func (b *BoltLog) LoadMetadata() (raft.Metadata, error) {
	var meta raft.Metadata
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(metadataBucket)
		if v := bucket.Get(currentTermKey); v != nil {
			meta.CurrentTerm = raft.Term(bytesToUint64(v))
		}
		if v := bucket.Get(votedForKey); v != nil {
			id := raft.ServerID(bytesToUint64(v))
			meta.VotedFor = &id
		}
		return nil
	})
	return meta, err
}

// Close releases the underlying bbolt handle.
func (b *BoltLog) Close() error {
	return b.db.Close()
}

var _ raft.Log = (*BoltLog)(nil)

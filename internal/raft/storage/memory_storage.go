package storage

import (
	"sync"

	"raftcore/internal/raft"
)

// MemoryLog is an in-process raft.Log used by tests and by single-node
// demos that don't need durability across restarts.
type MemoryLog struct {
	mu      sync.Mutex
	entries []raft.Entry // entries[i] holds EntryID i+1
	meta    raft.Metadata
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (m *MemoryLog) Append(entry raft.Entry) (raft.EntryID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := raft.EntryID(len(m.entries) + 1)
	entry.ID = id
	m.entries = append(m.entries, entry)
	return id, nil
}

func (m *MemoryLog) GetEntry(id raft.EntryID) (raft.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == 0 || int(id) > len(m.entries) {
		return raft.Entry{}, errNotFound(id)
	}
	return m.entries[id-1], nil
}

func (m *MemoryLog) GetTerm(id raft.EntryID) raft.Term {
	if id == 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(id) > len(m.entries) {
		return 0
	}
	return m.entries[id-1].Term
}

func (m *MemoryLog) LastID() raft.EntryID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return raft.EntryID(len(m.entries))
}

func (m *MemoryLog) BeginLastTermID() raft.EntryID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return 0
	}
	lastTerm := m.entries[len(m.entries)-1].Term
	i := len(m.entries) - 1
	for i > 0 && m.entries[i-1].Term == lastTerm {
		i--
	}
	return raft.EntryID(i + 1)
}

func (m *MemoryLog) Truncate(lastEntryID raft.EntryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(lastEntryID) < len(m.entries) {
		m.entries = m.entries[:lastEntryID]
	}
	return nil
}

func (m *MemoryLog) PersistMetadata(meta raft.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta = meta
	return nil
}

func (m *MemoryLog) LoadMetadata() (raft.Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meta, nil
}

func (m *MemoryLog) Close() error { return nil }

type notFoundError struct{ id raft.EntryID }

func (e notFoundError) Error() string { return "entry not found" }

func errNotFound(id raft.EntryID) error { return notFoundError{id: id} }

var _ raft.Log = (*MemoryLog)(nil)

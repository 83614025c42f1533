package raft

// Log is the external, durable ordered log collaborator. Implementations
// must be safe for concurrent use by at most the consensus core (the core
// never shares log access with any other writer) while allowing readers
// (e.g. the state-machine applier) to run concurrently with core I/O.
//
// The core releases its own lock only around PersistMetadata; Append,
// Truncate, GetTerm, LastID and BeginLastTermID are called while the core
// holds its lock, so they must not call back into the core. The applier's
// GetEntry reads run without the core lock. Log is free to use its own
// internal synchronization.
type Log interface {
	// Append assigns the next EntryID to entry and durably stores it.
	Append(entry Entry) (EntryID, error)

	// GetEntry returns the entry at id. id must satisfy 1 <= id <= LastID().
	GetEntry(id EntryID) (Entry, error)

	// GetTerm returns the term of the entry at id, or 0 if id == 0 or
	// id > LastID().
	GetTerm(id EntryID) Term

	// LastID returns the id of the last entry in the log, or 0 if empty.
	LastID() EntryID

	// BeginLastTermID returns the first id sharing the term of the last
	// entry, or 0 if the log is empty.
	BeginLastTermID() EntryID

	// Truncate drops every entry with id > lastEntryID.
	Truncate(lastEntryID EntryID) error

	// PersistMetadata durably stores {currentTerm, votedFor} before any
	// outbound RPC that depends on them is allowed to be sent.
	PersistMetadata(meta Metadata) error

	// LoadMetadata returns the last persisted metadata, used at startup.
	LoadMetadata() (Metadata, error)

	// Close releases any resources held by the log.
	Close() error
}

// Metadata is the opaque {currentTerm, votedFor} blob persisted alongside
// the log.
type Metadata struct {
	CurrentTerm Term
	VotedFor    *ServerID
}

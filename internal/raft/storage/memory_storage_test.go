package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raftcore/internal/raft"
)

func TestMemoryLogAppendAssignsSequentialIDs(t *testing.T) {
	log := NewMemoryLog()
	id1, err := log.Append(raft.Entry{Term: 1, Payload: []byte("a")})
	require.NoError(t, err)
	id2, err := log.Append(raft.Entry{Term: 1, Payload: []byte("b")})
	require.NoError(t, err)

	assert.Equal(t, raft.EntryID(1), id1)
	assert.Equal(t, raft.EntryID(2), id2)
	assert.Equal(t, raft.EntryID(2), log.LastID())
}

func TestMemoryLogGetEntryOutOfRange(t *testing.T) {
	log := NewMemoryLog()
	_, err := log.GetEntry(0)
	assert.Error(t, err)
	_, err = log.GetEntry(1)
	assert.Error(t, err)
}

func TestMemoryLogGetTermOfUnknownIDIsZero(t *testing.T) {
	log := NewMemoryLog()
	log.Append(raft.Entry{Term: 3})
	assert.Equal(t, raft.Term(0), log.GetTerm(0))
	assert.Equal(t, raft.Term(0), log.GetTerm(5))
	assert.Equal(t, raft.Term(3), log.GetTerm(1))
}

func TestMemoryLogBeginLastTermID(t *testing.T) {
	log := NewMemoryLog()
	log.Append(raft.Entry{Term: 1})
	log.Append(raft.Entry{Term: 1})
	log.Append(raft.Entry{Term: 2})
	log.Append(raft.Entry{Term: 2})

	assert.Equal(t, raft.EntryID(3), log.BeginLastTermID(), "term 2 begins at entry 3")
}

func TestMemoryLogTruncateDropsSuffix(t *testing.T) {
	log := NewMemoryLog()
	log.Append(raft.Entry{Term: 1})
	log.Append(raft.Entry{Term: 1})
	log.Append(raft.Entry{Term: 2})

	require.NoError(t, log.Truncate(1))
	assert.Equal(t, raft.EntryID(1), log.LastID())

	id, err := log.Append(raft.Entry{Term: 3})
	require.NoError(t, err)
	assert.Equal(t, raft.EntryID(2), id, "appending after a truncation reuses the freed ids")
}

func TestMemoryLogMetadataRoundTrip(t *testing.T) {
	log := NewMemoryLog()
	voter := raft.ServerID(7)
	require.NoError(t, log.PersistMetadata(raft.Metadata{CurrentTerm: 9, VotedFor: &voter}))

	meta, err := log.LoadMetadata()
	require.NoError(t, err)
	assert.Equal(t, raft.Term(9), meta.CurrentTerm)
	require.NotNil(t, meta.VotedFor)
	assert.Equal(t, voter, *meta.VotedFor)
}

func TestMemoryLogLoadMetadataBeforeAnyPersistIsZeroValue(t *testing.T) {
	log := NewMemoryLog()
	meta, err := log.LoadMetadata()
	require.NoError(t, err)
	assert.Equal(t, raft.Term(0), meta.CurrentTerm)
	assert.Nil(t, meta.VotedFor)
}

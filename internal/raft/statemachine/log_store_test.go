package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raftcore/internal/raft"
)

func apply(t *testing.T, s *LogStore, id raft.EntryID, cmd Command) {
	t.Helper()
	payload, err := EncodeCommand(cmd)
	require.NoError(t, err)
	s.Apply(raft.Entry{ID: id, Type: raft.EntryData, Payload: payload})
}

func TestLogStoreOpenAndAppendAndRead(t *testing.T) {
	s := New(nil)
	apply(t, s, 1, Command{Op: OpOpenLog, LogName: "orders"})
	apply(t, s, 2, Command{Op: OpAppend, LogName: "orders", Data: []byte("first")})
	apply(t, s, 3, Command{Op: OpAppend, LogName: "orders", Data: []byte("second")})

	records, ok := s.Read("orders", 0, 0)
	require.True(t, ok)
	require.Len(t, records, 2)
	assert.Equal(t, "first", string(records[0]))
	assert.Equal(t, "second", string(records[1]))

	assert.Contains(t, s.ListLogs(), "orders")

	last, ok := s.LastEntryID("orders")
	require.True(t, ok)
	assert.Equal(t, raft.EntryID(3), last)
}

func TestLogStoreAppendToUnopenedLogImplicitlyCreatesIt(t *testing.T) {
	s := New(nil)
	apply(t, s, 1, Command{Op: OpAppend, LogName: "ad-hoc", Data: []byte("x")})

	records, ok := s.Read("ad-hoc", 0, 0)
	require.True(t, ok)
	assert.Equal(t, [][]byte{[]byte("x")}, records)
}

func TestLogStoreDeleteLogRemovesIt(t *testing.T) {
	s := New(nil)
	apply(t, s, 1, Command{Op: OpOpenLog, LogName: "orders"})
	apply(t, s, 2, Command{Op: OpDeleteLog, LogName: "orders"})

	_, ok := s.Read("orders", 0, 0)
	assert.False(t, ok)
	assert.NotContains(t, s.ListLogs(), "orders")
}

func TestLogStoreReadRespectsIDRange(t *testing.T) {
	s := New(nil)
	apply(t, s, 1, Command{Op: OpOpenLog, LogName: "l"})
	apply(t, s, 2, Command{Op: OpAppend, LogName: "l", Data: []byte("a")})
	apply(t, s, 3, Command{Op: OpAppend, LogName: "l", Data: []byte("b")})
	apply(t, s, 4, Command{Op: OpAppend, LogName: "l", Data: []byte("c")})

	records, ok := s.Read("l", 3, 3)
	require.True(t, ok)
	assert.Equal(t, [][]byte{[]byte("b")}, records)
}

func TestLogStoreIgnoresNonDataEntries(t *testing.T) {
	s := New(nil)
	s.Apply(raft.Entry{ID: 1, Type: raft.EntryConfiguration})
	assert.Empty(t, s.ListLogs())
}

func TestLogStoreReadUnknownLog(t *testing.T) {
	s := New(nil)
	_, ok := s.Read("missing", 0, 0)
	assert.False(t, ok)
	_, ok = s.LastEntryID("missing")
	assert.False(t, ok)
}

package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raftcore/internal/raft"
)

func descs(ids ...raft.ServerID) []raft.ServerDescriptor {
	out := make([]raft.ServerDescriptor, len(ids))
	for i, id := range ids {
		out[i] = raft.ServerDescriptor{ID: id}
	}
	return out
}

func TestNewSingleServerIsStableAndHasVote(t *testing.T) {
	self := raft.ServerDescriptor{ID: 1, Address: "a1"}
	c := NewSingleServer(self)

	assert.Equal(t, Stable, c.State())
	assert.True(t, c.IsSingleServer())
	assert.True(t, c.HasVote(1))
	assert.True(t, c.InConfiguration(1))
	assert.False(t, c.HasVote(2))
}

func TestBlankConfigurationNeverReachesQuorum(t *testing.T) {
	c := NewBlank(1)
	assert.False(t, c.QuorumAll(func(*PeerRecord) bool { return true }))
	assert.Equal(t, raft.EntryID(0), c.QuorumMin(func(*PeerRecord) raft.EntryID { return 100 }))
}

func TestStableQuorumRequiresMajority(t *testing.T) {
	c := NewBlank(1)
	c.SetConfiguration(5, raft.ConfigurationDescriptor{Prev: descs(1, 2, 3)})
	require.Equal(t, Stable, c.State())

	// Only self satisfies predicate: 1 of 3, not a majority.
	assert.False(t, c.QuorumAll(func(r *PeerRecord) bool { return r.ID == 1 }))

	// self + one other: 2 of 3 is a majority.
	assert.True(t, c.QuorumAll(func(r *PeerRecord) bool { return r.ID == 1 || r.ID == 2 }))
}

func TestQuorumMinPicksMedianLikeValue(t *testing.T) {
	c := NewBlank(1)
	c.SetConfiguration(1, raft.ConfigurationDescriptor{Prev: descs(1, 2, 3)})

	c.Record(1).LastAgreeID = 10
	c.Record(2).LastAgreeID = 7
	c.Record(3).LastAgreeID = 3

	// valueOf must treat self specially in real callers (core does), here
	// we just feed LastAgreeID directly for all three to exercise the
	// "majority of the set is >= v" rule: with {10,7,3} the highest v with
	// at least 2 values >= v is 7.
	got := c.QuorumMin(func(r *PeerRecord) raft.EntryID { return r.LastAgreeID })
	assert.Equal(t, raft.EntryID(7), got)
}

func TestTransitionalQuorumRequiresBothSets(t *testing.T) {
	c := NewBlank(1)
	c.SetConfiguration(1, raft.ConfigurationDescriptor{Prev: descs(1, 2, 3)})
	c.SetConfiguration(2, raft.ConfigurationDescriptor{Prev: descs(1, 2, 3), Next: descs(1, 4, 5)})
	require.Equal(t, Transitional, c.State())

	// Majority of old (1,2) but nothing from new set beyond self: fails.
	assert.False(t, c.QuorumAll(func(r *PeerRecord) bool { return r.ID == 1 || r.ID == 2 }))

	// Majority of both old ({1,2}) and new ({1,4}).
	assert.True(t, c.QuorumAll(func(r *PeerRecord) bool {
		return r.ID == 1 || r.ID == 2 || r.ID == 4
	}))
}

func TestSetConfigurationPreservesRecordIdentity(t *testing.T) {
	c := NewBlank(1)
	c.SetConfiguration(1, raft.ConfigurationDescriptor{Prev: descs(1, 2, 3)})
	c.Record(2).LastAgreeID = 42

	c.SetConfiguration(2, raft.ConfigurationDescriptor{Prev: descs(1, 2, 3), Next: descs(1, 2, 3)})

	require.NotNil(t, c.Record(2))
	assert.Equal(t, raft.EntryID(42), c.Record(2).LastAgreeID, "peer 2's progress must survive a configuration replacing the same members")
}

func TestSetConfigurationGarbageCollectsDroppedServers(t *testing.T) {
	c := NewBlank(1)
	c.SetConfiguration(1, raft.ConfigurationDescriptor{Prev: descs(1, 2, 3)})
	c.SetConfiguration(2, raft.ConfigurationDescriptor{Prev: descs(1, 2)})

	assert.Nil(t, c.Record(3))
	assert.False(t, c.InConfiguration(3))
}

func TestStagingServersDoNotVote(t *testing.T) {
	c := NewBlank(1)
	c.SetConfiguration(1, raft.ConfigurationDescriptor{Prev: descs(1, 2, 3)})
	c.SetStagingServers(descs(1, 2, 3, 4))

	require.Equal(t, Staging, c.State())
	assert.True(t, c.InConfiguration(4))
	assert.False(t, c.HasVote(4), "a staging-only member must not count toward the voting quorum")
	assert.True(t, c.HasVote(1))
}

func TestResetStagingServersReturnsToStable(t *testing.T) {
	c := NewBlank(1)
	c.SetConfiguration(1, raft.ConfigurationDescriptor{Prev: descs(1, 2, 3)})
	c.SetStagingServers(descs(1, 2, 3, 4))
	c.ResetStagingServers()

	assert.Equal(t, Stable, c.State())
	assert.False(t, c.InConfiguration(4))
}

func TestForEachVisitsEveryKnownServerIncludingSelf(t *testing.T) {
	c := NewBlank(1)
	c.SetConfiguration(1, raft.ConfigurationDescriptor{Prev: descs(1, 2, 3)})

	seen := map[raft.ServerID]bool{}
	c.ForEach(func(r *PeerRecord) { seen[r.ID] = true })
	assert.Equal(t, map[raft.ServerID]bool{1: true, 2: true, 3: true}, seen)
}

func TestPeersExcludesSelf(t *testing.T) {
	c := NewBlank(1)
	c.SetConfiguration(1, raft.ConfigurationDescriptor{Prev: descs(1, 2, 3)})

	for _, r := range c.Peers() {
		assert.NotEqual(t, raft.ServerID(1), r.ID)
	}
	assert.Len(t, c.Peers(), 2)
}

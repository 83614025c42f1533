package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raftcore/internal/raft"
)

func TestGobCodecRoundTripsAppendEntriesRequest(t *testing.T) {
	c := gobCodec{}
	req := raft.AppendEntriesRequest{
		LeaderID:  2,
		Term:      5,
		PrevLogID: 3,
		Entries:   []raft.Entry{{ID: 4, Term: 5, Payload: []byte("x")}},
	}

	data, err := c.Marshal(&req)
	require.NoError(t, err)

	var got raft.AppendEntriesRequest
	require.NoError(t, c.Unmarshal(data, &got))
	assert.Equal(t, req, got)
}

func TestGobCodecRoundTripsAppendEntriesResponseWithConflictHint(t *testing.T) {
	c := gobCodec{}
	resp := raft.AppendEntriesResponse{Term: 9, ConflictTerm: 4, ConflictFirstID: 12}

	data, err := c.Marshal(&resp)
	require.NoError(t, err)

	var got raft.AppendEntriesResponse
	require.NoError(t, c.Unmarshal(data, &got))
	assert.Equal(t, resp, got)
}

func TestGobCodecName(t *testing.T) {
	assert.Equal(t, "gob", gobCodec{}.Name())
}

// Package election implements the ElectionTimer worker of spec.md §4.4: a
// single goroutine per server that waits for the randomized follower/
// candidate timeout to elapse and, when it does, asks the consensus core
// to start a new election.
//
// Grounded on the teacher's BeginElection goroutine in
// internal/raft/server/server.go, pulled out into its own worker and
// generalized to the blocking-deadline style spec.md's monitor requires.
package election

import (
	"context"

	"github.com/sirupsen/logrus"

	"raftcore/internal/raft/core"
)

// Timer drives ConsensusState.StartNewElection whenever the election
// deadline it tracks elapses without a reset (i.e. no valid AppendEntries
// or granted vote refreshed it in time).
type Timer struct {
	state  *core.ConsensusState
	logger *logrus.Entry
}

func New(state *core.ConsensusState, logger *logrus.Entry) *Timer {
	return &Timer{state: state, logger: logger}
}

// Run blocks until ctx is cancelled or the consensus core exits.
func (t *Timer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !t.state.WaitForElectionDeadline() {
			return
		}
		t.state.StartNewElection()
	}
}

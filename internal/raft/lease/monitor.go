// Package lease implements the LeaderLeaseMonitor worker of spec.md §4.5:
// a goroutine that periodically renews the leader's epoch so that a
// quorum of fresh AppendEntries acknowledgements can later prove
// uncontested leadership recently enough to serve a linearizable read
// without a network round trip. The same tick is what notices a leader
// has lost contact with its quorum and steps it down (§4.5, §8).
//
// Grounded on the teacher's heartbeat ticker in
// internal/raft/server/server.go, generalized from "send heartbeats" to
// "renew the epoch the heartbeats already carry, and step down if they
// stop landing."
package lease

import (
	"context"
	"time"

	"raftcore/internal/raft/core"
)

type Monitor struct {
	state  *core.ConsensusState
	period time.Duration
}

func New(state *core.ConsensusState, period time.Duration) *Monitor {
	return &Monitor{state: state, period: period}
}

// Run renews the lease epoch once per period until ctx is cancelled or
// the consensus core exits. Renewal is a no-op while not leader.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.state.Exiting() {
				return
			}
			m.state.RenewLease()
		}
	}
}

// Package conf implements the Configuration value object of spec.md §4.2:
// the set of known servers and the quorum rules over them (blank / stable /
// staging / transitional), plus the per-server replication-progress records
// that must survive a configuration change unscathed.
//
// Grounded on the teacher's internal/raft/server/config.go (joint-consensus
// add/remove-server handling) generalized to carry a staging phase and a
// single PeerRecord identity map, as spec.md §4.2 and §9 require.
package conf

import (
	"time"

	"raftcore/internal/raft"
)

// State is the active quorum shape of a Configuration.
type State int

const (
	Blank State = iota
	Stable
	Staging
	Transitional
)

func (s State) String() string {
	switch s {
	case Blank:
		return "blank"
	case Stable:
		return "stable"
	case Staging:
		return "staging"
	case Transitional:
		return "transitional"
	default:
		return "unknown"
	}
}

// PeerRecord is the in-memory record for one known server (§3, "Server
// record"). Its identity is preserved by Configuration across configuration
// transitions so replication progress for a server isn't lost just because
// it was re-described by a new configuration entry.
//
// All fields are mutated only under the owning ConsensusState's lock.
type PeerRecord struct {
	raft.ServerDescriptor

	// Election bookkeeping, meaningful while local role == Candidate.
	VoteRequested bool
	VoteGranted   bool

	// Replication bookkeeping, meaningful while local role == Leader.
	LastAgreeID     raft.EntryID
	NextIndex       raft.EntryID
	LastAckEpoch    raft.Epoch
	NextHeartbeatAt time.Time
	BackoffUntil    time.Time

	// Catch-up tracking for a staging member (§4.3).
	CaughtUp               bool
	CatchUpIterationStart  time.Time
	CatchUpIterationGoalID raft.EntryID
	LastIterationDuration  time.Duration
	CatchUpIterations      int

	// Exiting tells this server's replicator worker to stop.
	Exiting bool
}

// Configuration is the value object described in spec.md §4.2. It is not
// safe for concurrent use on its own — callers (package core) serialize all
// access under the consensus lock.
type Configuration struct {
	selfID raft.ServerID

	state State
	// id is the EntryID of the log entry that produced the current
	// non-staging configuration (0 while Blank).
	id raft.EntryID

	oldServers []raft.ServerDescriptor
	newServers []raft.ServerDescriptor // non-nil only while Transitional
	staging    []raft.ServerDescriptor // non-nil only while Staging

	records map[raft.ServerID]*PeerRecord
}

// NewBlank returns the initial, unreachable-quorum configuration for a
// server that has not yet joined a cluster.
func NewBlank(selfID raft.ServerID) *Configuration {
	return &Configuration{
		selfID:  selfID,
		state:   Blank,
		records: make(map[raft.ServerID]*PeerRecord),
	}
}

// NewSingleServer returns a one-member stable configuration containing only
// self — the common bootstrap case (spec.md §8, "single-server cluster").
func NewSingleServer(self raft.ServerDescriptor) *Configuration {
	c := &Configuration{
		selfID:     self.ID,
		state:      Stable,
		id:         0,
		oldServers: []raft.ServerDescriptor{self},
		records:    make(map[raft.ServerID]*PeerRecord),
	}
	c.records[self.ID] = &PeerRecord{ServerDescriptor: self}
	return c
}

func (c *Configuration) State() State    { return c.state }
func (c *Configuration) ID() raft.EntryID { return c.id }
func (c *Configuration) SelfID() raft.ServerID { return c.selfID }

// OldServers returns the stable (or transitional-prev) server set.
func (c *Configuration) OldServers() []raft.ServerDescriptor { return c.oldServers }

// NewServers returns the transitional-next server set, nil unless
// Transitional.
func (c *Configuration) NewServers() []raft.ServerDescriptor { return c.newServers }

// IsSingleServer reports whether the stable set is {self} alone — the case
// in which an election can be won without sending a single RPC.
func (c *Configuration) IsSingleServer() bool {
	return c.state == Stable && len(c.oldServers) == 1 && c.oldServers[0].ID == c.selfID
}

// Record returns the PeerRecord for id, or nil if id is not currently known.
func (c *Configuration) Record(id raft.ServerID) *PeerRecord {
	return c.records[id]
}

// Peers returns every known server other than self, across old, new and
// staging sets, each exactly once.
func (c *Configuration) Peers() []*PeerRecord {
	out := make([]*PeerRecord, 0, len(c.records))
	for id, r := range c.records {
		if id == c.selfID {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ForEach applies fn exactly once per known server, including self (§4.2).
func (c *Configuration) ForEach(fn func(*PeerRecord)) {
	for _, r := range c.records {
		fn(r)
	}
}

// quorumSets returns the server sets whose majorities must all agree for
// the active quorum rule.
func (c *Configuration) quorumSets() [][]raft.ServerDescriptor {
	switch c.state {
	case Stable, Staging:
		return [][]raft.ServerDescriptor{c.oldServers}
	case Transitional:
		return [][]raft.ServerDescriptor{c.oldServers, c.newServers}
	default: // Blank
		return nil
	}
}

func majority(n int) int { return n/2 + 1 }

// QuorumAll reports whether every set in the active quorum has a majority
// of members satisfying predicate. A Blank configuration never reaches
// quorum.
func (c *Configuration) QuorumAll(predicate func(*PeerRecord) bool) bool {
	sets := c.quorumSets()
	if len(sets) == 0 {
		return false
	}
	for _, set := range sets {
		count := 0
		for _, sd := range set {
			if r := c.records[sd.ID]; r != nil && predicate(r) {
				count++
			}
		}
		if count < majority(len(set)) {
			return false
		}
	}
	return true
}

// QuorumMin returns the largest value v such that every set in the active
// quorum has a majority of members with valueOf(server) >= v. Used to
// derive the commit index (§4.1.2).
func (c *Configuration) QuorumMin(valueOf func(*PeerRecord) raft.EntryID) raft.EntryID {
	sets := c.quorumSets()
	if len(sets) == 0 {
		return 0
	}
	var result raft.EntryID
	first := true
	for _, set := range sets {
		values := make([]raft.EntryID, 0, len(set))
		for _, sd := range set {
			r := c.records[sd.ID]
			if r == nil {
				values = append(values, 0)
				continue
			}
			values = append(values, valueOf(r))
		}
		v := nthLargest(values, majority(len(set)))
		if first || v < result {
			result = v
			first = false
		}
	}
	return result
}

// nthLargest returns the n-th largest value (1-based) in values, i.e. the
// highest value that at least n entries are >= to.
func nthLargest(values []raft.EntryID, n int) raft.EntryID {
	sorted := append([]raft.EntryID(nil), values...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] < sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	if n <= 0 || n > len(sorted) {
		return 0
	}
	return sorted[n-1]
}

// HasVote reports whether id participates in the voting quorum (staging-only
// members never do).
func (c *Configuration) HasVote(id raft.ServerID) bool {
	for _, set := range c.quorumSets() {
		for _, sd := range set {
			if sd.ID == id {
				return true
			}
		}
	}
	return false
}

// InConfiguration reports whether id appears anywhere in the current
// configuration (old, new, or staging).
func (c *Configuration) InConfiguration(id raft.ServerID) bool {
	_, ok := c.records[id]
	return ok
}

// SetConfiguration installs the configuration described by desc, produced
// by the log entry with the given id. Identity of PeerRecords for servers
// present both before and after the change is preserved; records for
// servers no longer referenced anywhere are garbage-collected.
func (c *Configuration) SetConfiguration(id raft.EntryID, desc raft.ConfigurationDescriptor) {
	c.id = id
	c.oldServers = desc.Prev
	c.newServers = desc.Next
	c.staging = nil
	if desc.IsTransitional() {
		c.state = Transitional
	} else {
		c.state = Stable
	}
	c.rebuildRecords()
}

// SetStagingServers installs servers as a staging set: they receive log
// entries but do not vote, the prerequisite phase for setConfiguration
// (§4.1, §4.2). Only valid while Stable.
func (c *Configuration) SetStagingServers(servers []raft.ServerDescriptor) {
	c.state = Staging
	c.staging = servers
	c.rebuildRecords()
}

// ResetStagingServers drops the staging set and returns to Stable. It is
// used on catch-up failure (§4.1 step 2); on successful promotion the
// TRANSITIONAL entry's SetConfiguration replaces the staging state instead.
func (c *Configuration) ResetStagingServers() {
	c.state = Stable
	c.staging = nil
	c.rebuildRecords()
}

// StagingServers returns the current staging set, if any.
func (c *Configuration) StagingServers() []raft.ServerDescriptor {
	return c.staging
}

func (c *Configuration) rebuildRecords() {
	next := make(map[raft.ServerID]*PeerRecord, len(c.records))
	add := func(sd raft.ServerDescriptor) {
		if r, ok := c.records[sd.ID]; ok {
			r.ServerDescriptor = sd // address may have changed
			next[sd.ID] = r
			return
		}
		next[sd.ID] = &PeerRecord{ServerDescriptor: sd}
	}
	for _, sd := range c.oldServers {
		add(sd)
	}
	for _, sd := range c.newServers {
		add(sd)
	}
	for _, sd := range c.staging {
		add(sd)
	}
	c.records = next
}

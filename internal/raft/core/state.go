// Package core implements ConsensusState, the shared monitor described in
// spec.md §4.1: the single source of truth for term, role, vote, commit
// index, configuration and log handle, guarded by one mutex and signalled
// through one broadcast condition variable (§5, §9 "do not split the
// monitor prematurely").
//
// Grounded on the teacher's internal/raft/server/state.go (the field
// inventory: term, votedFor, role, election timeout) generalized from
// per-field RWMutex getters to the single sync.Mutex + sync.Cond monitor
// spec.md's concurrency model requires, and on w41ter-bior's core/conf/peer
// package split for how the surrounding workers are kept outside the core
// while still sharing its lock.
package core

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"raftcore/internal/raft"
	"raftcore/internal/raft/conf"
)

// MetricsCollector is the optional instrumentation sink, adapted from the
// teacher's internal/raft/server.MetricsCollector interface.
type MetricsCollector interface {
	RecordRequestVote()
	RecordAppendEntries()
	RecordHeartbeat()
	RecordElection()
	RecordElectionDuration(time.Duration)
	RecordCommandLatency(time.Duration)
	RecordCommandCommitted()
}

type noopMetrics struct{}

func (noopMetrics) RecordRequestVote()                  {}
func (noopMetrics) RecordAppendEntries()                {}
func (noopMetrics) RecordHeartbeat()                    {}
func (noopMetrics) RecordElection()                     {}
func (noopMetrics) RecordElectionDuration(time.Duration) {}
func (noopMetrics) RecordCommandLatency(time.Duration)   {}
func (noopMetrics) RecordCommandCommitted()              {}

// Timing holds every tunable duration/size named in spec.md (§3, §4, §9).
// Non-goals explicitly exclude dynamic tuning of these at runtime; they are
// fixed at construction.
type Timing struct {
	FollowerTimeout    time.Duration
	CandidateTimeout    time.Duration
	HeartbeatPeriod     time.Duration
	RPCFailureBackoff   time.Duration
	CatchUpSlack        time.Duration
	SoftRPCSizeLimit    int
	MaxCatchUpIterations int
}

// DefaultTiming mirrors the Raft-paper-recommended values the teacher uses
// for its election timeout (150-300ms), scaled up slightly for heartbeat
// and catch-up slack.
func DefaultTiming() Timing {
	return Timing{
		FollowerTimeout:      150 * time.Millisecond,
		CandidateTimeout:     150 * time.Millisecond,
		HeartbeatPeriod:      50 * time.Millisecond,
		RPCFailureBackoff:    100 * time.Millisecond,
		CatchUpSlack:         150 * time.Millisecond,
		SoftRPCSizeLimit:     256 * 1024,
		MaxCatchUpIterations: 10,
	}
}

// appliedResult records a previously-applied client submission, keyed by
// (ClientID, Sequence), for the idempotence behavior described in
// SPEC_FULL.md §13.
type appliedResult struct {
	result raft.ClientResult
}

// ConsensusState is the monitor. Every exported method that reads or
// changes consensus state takes the lock, releasing it only while
// persistMetadataLocked writes metadata; Self and SupportedRPCVersions read
// nothing mutable and take no lock. No method may be called re-entrantly
// while holding it.
type ConsensusState struct {
	self raft.ServerDescriptor

	mu   sync.Mutex
	cond *sync.Cond

	currentTerm  raft.Term
	role         raft.Role
	votedFor     *raft.ServerID
	leaderIDHint *raft.ServerID
	commitIndex  raft.EntryID
	currentEpoch raft.Epoch
	// epochDeadline is when currentEpoch must have quorum ack by, or
	// RenewLease steps this leader down (§4.5, §8 partition scenario).
	epochDeadline   time.Time
	electionAttempt uint64
	startElectionAt time.Time
	// electionStartedAt marks when this server became CANDIDATE for the
	// attempt currently in progress, for RecordElectionDuration.
	electionStartedAt time.Time
	configuration     *conf.Configuration
	exiting           bool

	// readiness: the current leader has not yet committed an entry of its
	// own term (§4.1.1). Nothing reads this flag: Replicate instead blocks
	// until its own current-term entry has been applied.
	leaderReady bool

	// lastApplied tracks the state-machine reader's progress, strictly
	// increasing and always <= commitIndex (§8 property 5).
	lastApplied raft.EntryID

	// cancels tracks in-flight outbound RPC sessions for "interrupt all"
	// (§5). Populated by peer loops through RegisterSession/dropped on
	// completion.
	cancels map[raft.ServerID]context.CancelFunc

	// dedupe table for idempotent client retries (SPEC_FULL.md §13).
	applied map[raft.ClientIdentity]appliedResult

	// submittedAt records when a Replicate call appended its entry, so
	// MarkApplied can report RecordCommandLatency/RecordCommandCommitted
	// once that entry reaches the state machine. Entries with no client
	// waiter (no-ops, replicated followers' own log) never get an entry
	// here.
	submittedAt map[raft.EntryID]time.Time

	log          raft.Log
	clock        raft.Clock
	stateMachine raft.StateMachine
	metrics      MetricsCollector
	timing       Timing
	logger       *logrus.Entry

	debugInvariants bool
	rng             *randSource
}

// Options configures New.
type Options struct {
	Self            raft.ServerDescriptor
	Log             raft.Log
	Clock           raft.Clock
	StateMachine    raft.StateMachine
	Metrics         MetricsCollector
	Timing          Timing
	Logger          *logrus.Entry
	Configuration   *conf.Configuration // nil => NewBlank(self.ID)
	DebugInvariants bool
}

// New constructs a ConsensusState starting as a Follower, loading whatever
// metadata the log already holds (the crash-recovery path).
func New(opts Options) (*ConsensusState, error) {
	meta, err := opts.Log.LoadMetadata()
	if err != nil {
		return nil, err
	}

	config := opts.Configuration
	if config == nil {
		config = conf.NewBlank(opts.Self.ID)
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	s := &ConsensusState{
		self:          opts.Self,
		currentTerm:   meta.CurrentTerm,
		votedFor:      meta.VotedFor,
		role:          raft.Follower,
		configuration: config,
		log:           opts.Log,
		clock:         opts.Clock,
		stateMachine:  opts.StateMachine,
		metrics:       metrics,
		timing:        opts.Timing,
		logger:        logger.WithField("server", opts.Self.ID),
		cancels:       make(map[raft.ServerID]context.CancelFunc),
		applied:       make(map[raft.ClientIdentity]appliedResult),
		submittedAt:   make(map[raft.EntryID]time.Time),
		debugInvariants: opts.DebugInvariants,
		rng:             newRandSource(uint64(opts.Self.ID) + 1),
	}
	s.cond = sync.NewCond(&s.mu)
	s.resetElectionTimerLocked()
	return s, nil
}

// Self returns this server's own descriptor.
func (s *ConsensusState) Self() raft.ServerDescriptor { return s.self }

// Snapshot is a read-only, lock-consistent view used by status RPCs and
// tests; it never mutates state.
type Snapshot struct {
	Term         raft.Term
	Role         raft.Role
	VotedFor     *raft.ServerID
	LeaderHint   *raft.ServerID
	CommitIndex  raft.EntryID
	LastApplied  raft.EntryID
	LastLogID    raft.EntryID
	ConfigState  conf.State
	ConfigID     raft.EntryID
}

func (s *ConsensusState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Term:        s.currentTerm,
		Role:        s.role,
		VotedFor:    s.votedFor,
		LeaderHint:  s.leaderIDHint,
		CommitIndex: s.commitIndex,
		LastApplied: s.lastApplied,
		LastLogID:   s.log.LastID(),
		ConfigState: s.configuration.State(),
		ConfigID:    s.configuration.ID(),
	}
}

// Exiting reports whether Stop has been called.
func (s *ConsensusState) Exiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exiting
}

// Stop drains all workers: sets exiting, cancels in-flight RPCs, and wakes
// every waiter (§5).
func (s *ConsensusState) Stop() {
	s.mu.Lock()
	s.exiting = true
	s.interruptAllLocked()
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *ConsensusState) interruptAllLocked() {
	for id, cancel := range s.cancels {
		cancel()
		delete(s.cancels, id)
	}
}

// RegisterSession lets a peer loop record the cancel func for its
// currently in-flight RPC, so Stop/stepDown can interrupt it (§5, §9
// "cooperative interruption").
func (s *ConsensusState) RegisterSession(peerID raft.ServerID, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels[peerID] = cancel
}

// UnregisterSession clears a completed RPC's cancel func.
func (s *ConsensusState) UnregisterSession(peerID raft.ServerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cancels, peerID)
}

func (s *ConsensusState) lastLogTermIDLocked() (raft.Term, raft.EntryID) {
	id := s.log.LastID()
	return s.log.GetTerm(id), id
}

func (s *ConsensusState) logUpToDateLocked(candidateTerm raft.Term, candidateID raft.EntryID) bool {
	ourTerm, ourID := s.lastLogTermIDLocked()
	if candidateTerm != ourTerm {
		return candidateTerm > ourTerm
	}
	return candidateID >= ourID
}

// persistMetadataLocked durably writes {currentTerm, votedFor} with the
// lock released for the duration of the I/O (§5), then re-acquires it
// before returning. Callers must treat state as possibly having moved
// forward (by other goroutines) once this returns, and are expected to
// re-read whatever locals they base a response on afterward.
func (s *ConsensusState) persistMetadataLocked() {
	meta := raft.Metadata{CurrentTerm: s.currentTerm, VotedFor: s.votedFor}
	s.mu.Unlock()
	if err := s.log.PersistMetadata(meta); err != nil {
		// Log I/O failures are out of scope (spec.md §7): a robust
		// implementation aborts rather than silently weakening safety.
		s.logger.WithError(err).Fatal("failed to persist raft metadata")
	}
	s.mu.Lock()
}

func (s *ConsensusState) checkInvariantsLocked() {
	if !s.debugInvariants {
		return
	}
	checkInvariants(s)
}

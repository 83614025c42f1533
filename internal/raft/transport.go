package raft

import "context"

// RequestVoteRequest is the RequestVote RPC payload (§6).
type RequestVoteRequest struct {
	CandidateID ServerID
	Term        Term
	LastLogTerm Term
	LastLogID   EntryID
}

// RequestVoteResponse always carries the responder's log fields
// unconditionally. The core's ApplyVoteResult reads only Term and Granted;
// the log fields are not recorded, and a new leader starts every peer's
// nextIndex at its own LastID+1 regardless of them.
type RequestVoteResponse struct {
	Term             Term
	Granted          bool
	LastLogTerm      Term
	LastLogID        EntryID
	BeginLastTermID  EntryID
}

// AppendEntriesRequest is the AppendEntries RPC payload (§6).
type AppendEntriesRequest struct {
	LeaderID     ServerID
	Term         Term
	PrevLogID    EntryID
	PrevLogTerm  Term
	Entries      []Entry
	LeaderCommit EntryID
}

// AppendEntriesResponse carries only the responder's term, per spec.md §6;
// the richer conflict-hint fields noted as an open question in §9 are
// carried here as optional accelerants a responder MAY fill in. A response
// at the leader's term with ConflictFirstID zero is taken as acceptance;
// the plain decrement back-probe applies only to a rejection that carries
// no usable hint.
type AppendEntriesResponse struct {
	Term            Term
	ConflictTerm    Term
	ConflictFirstID EntryID
}

// SupportedRPCVersions answers GetSupportedRpcVersions without touching the
// consensus lock (SPEC_FULL.md §13).
type SupportedRPCVersions struct {
	MinVersion uint32
	MaxVersion uint32
}

// Session is a single outbound RPC in flight; Cancel aborts it. Nothing in
// this repository uses the type: the "cancel all in-flight RPCs" mechanism
// of §5 is implemented by replicators registering a context.CancelFunc
// with ConsensusState.RegisterSession.
type Session interface {
	Cancel()
}

// Transport is the external, request/response RPC channel to each peer
// (§1, out of scope: implemented by a concrete gRPC-backed adapter in
// package transport). Every call is bounded by ctx; cancelling ctx must
// cause the call to return promptly.
type Transport interface {
	RequestVote(ctx context.Context, peer ServerDescriptor, req RequestVoteRequest) (RequestVoteResponse, error)
	AppendEntries(ctx context.Context, peer ServerDescriptor, req AppendEntriesRequest) (AppendEntriesResponse, error)
	GetSupportedRPCVersions(ctx context.Context, peer ServerDescriptor) (SupportedRPCVersions, error)
}

// Package raft defines the types and external-collaborator interfaces shared
// by the consensus core and its surrounding plumbing. Apart from the
// system Clock below, the interfaces in this package (Log, Transport,
// StateMachine) are not implemented here — concrete implementations live
// in sibling packages (storage, transport, statemachine) and are wired
// together in package server.
package raft

import (
	"fmt"
	"time"
)

// ServerID identifies a server within a cluster. IDs are assigned once, at
// cluster bootstrap or when a server is added via a configuration change,
// and never reused.
type ServerID uint64

// EntryID is a 1-based, dense, monotonic log position. EntryID 0 is the
// sentinel "before the log".
type EntryID uint64

// Term is a monotonically increasing election epoch.
type Term uint64

// Epoch is the logical clock used to confirm a leader lease (§4.5).
type Epoch uint64

// Role is the server's position in the Raft state machine.
type Role int

const (
	Follower Role = iota
	Candidate
	Leader
)

func (r Role) String() string {
	switch r {
	case Follower:
		return "follower"
	case Candidate:
		return "candidate"
	case Leader:
		return "leader"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// EntryType distinguishes ordinary data entries from configuration changes.
type EntryType int

const (
	EntryData EntryType = iota + 1
	EntryConfiguration
)

func (t EntryType) String() string {
	switch t {
	case EntryData:
		return "data"
	case EntryConfiguration:
		return "configuration"
	default:
		return fmt.Sprintf("entryType(%d)", int(t))
	}
}

// ClientIdentity carries the (clientID, sequence) pair LogCabin calls
// ExactlyOnceRPCInfo, letting the consensus core (ConsensusState's
// applied-result table, filled by MarkApplied and consulted by Replicate)
// de-duplicate retried client submissions
// without changing any commit-path invariant (see SPEC_FULL.md §13).
type ClientIdentity struct {
	ClientID uint64
	Sequence uint64
}

// ServerDescriptor is a single cluster member as it appears inside a
// ConfigurationDescriptor.
type ServerDescriptor struct {
	ID      ServerID
	Address string
}

// ConfigurationDescriptor is the payload of a configuration entry. Presence
// of Next means the entry describes a transitional (joint-consensus)
// configuration.
type ConfigurationDescriptor struct {
	Prev []ServerDescriptor
	Next []ServerDescriptor
}

func (c ConfigurationDescriptor) IsTransitional() bool {
	return c.Next != nil
}

// Entry is a single record in the replicated log.
type Entry struct {
	ID      EntryID
	Term    Term
	Type    EntryType
	Payload []byte                  // set when Type == EntryData
	Config  ConfigurationDescriptor // set when Type == EntryConfiguration
	Client  ClientIdentity          // zero value means "no dedup info"
}

// ClientResultCode is the outcome of a client-facing operation.
type ClientResultCode int

const (
	ResultSuccess ClientResultCode = iota
	ResultNotLeader
	ResultRetry
	ResultFail
)

func (c ClientResultCode) String() string {
	switch c {
	case ResultSuccess:
		return "success"
	case ResultNotLeader:
		return "not_leader"
	case ResultRetry:
		return "retry"
	case ResultFail:
		return "fail"
	default:
		return fmt.Sprintf("result(%d)", int(c))
	}
}

// ClientResult is returned by replicate() and setConfiguration().
type ClientResult struct {
	Code       ClientResultCode
	EntryID    EntryID
	LeaderHint *ServerDescriptor
	// FailedServers is populated when Code == ResultFail for a
	// setConfiguration() call whose staging servers never caught up.
	FailedServers []ServerID
}

// NotLeaderError is returned by client-facing operations issued against a
// server that is not (or is no longer) the leader.
type NotLeaderError struct {
	LeaderHint *ServerDescriptor
}

func (e *NotLeaderError) Error() string {
	if e.LeaderHint != nil {
		return fmt.Sprintf("not leader, try %d (%s)", e.LeaderHint.ID, e.LeaderHint.Address)
	}
	return "not leader"
}

// RetryError signals a transient condition; the caller should retry with
// backoff.
type RetryError struct {
	Reason string
}

func (e *RetryError) Error() string {
	if e.Reason == "" {
		return "retry"
	}
	return "retry: " + e.Reason
}

// FailError is a permanent failure for the current request, carrying any
// servers responsible (e.g. staging members that never caught up).
type FailError struct {
	Reason        string
	FailedServers []ServerID
}

func (e *FailError) Error() string {
	return fmt.Sprintf("failed: %s (servers=%v)", e.Reason, e.FailedServers)
}

// Clock is a monotonic steady clock, the external collaborator spec.md §1
// lists. SystemClock, the real wall clock, is the only implementation;
// production code and the tests both use it.
type Clock interface {
	Now() time.Time
}

// systemClock is the Clock used in production.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real, monotonic wall-clock implementation.
func SystemClock() Clock { return systemClock{} }

package raft

// StateMachine is the external applier that consumes committed entries in
// order (§1, out of scope). It is fed by a reader separate from the
// consensus core's own commit-index tracking (§4.1.2).
type StateMachine interface {
	// Apply delivers entry, already known committed, in strictly
	// increasing EntryID order. Configuration entries are delivered too;
	// most state machines ignore them.
	Apply(entry Entry)
}

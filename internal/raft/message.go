/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package raft

import "fmt"

// Term is a monotonically increasing election term number. Term zero
// is the term a node starts in before ever observing an election.
type Term uint64

// NodeID identifies a node in the cluster's fixed peer set.
type NodeID string

// Index is a one-based position in the log. Index zero means "no
// entry", e.g. an empty log's last index.
type Index uint64

// Event is the payload carried by a Message. Exactly one of the
// pointer fields below a given Message's Event is ever set; callers
// switch on which field is non-nil rather than on a type tag, since
// the set of event kinds is closed and small.
type Event struct {
	Heartbeat       *EventHeartbeat
	ConfirmLeader   *EventConfirmLeader
	SolicitVote     *EventSolicitVote
	GrantVote       *EventGrantVote
	ReplicateEntries *EventReplicateEntries
	AcceptEntries   *EventAcceptEntries
	RejectEntries   *EventRejectEntries
	QueryState      *EventQueryState
	MutateState     *EventMutateState
	RespondState    *EventRespondState
	RespondError    *EventRespondError
}

// EventHeartbeat is sent periodically by a Leader to all peers to
// assert leadership and advance their commit index.
type EventHeartbeat struct {
	CommitIndex Index
	CommitTerm  Term
}

// EventConfirmLeader is the Follower's affirmative reply to a
// Heartbeat from the term's recognized leader.
type EventConfirmLeader struct {
	CommitIndex  Index
	HasCommitted bool
}

// EventSolicitVote is sent by a Candidate to every peer when starting
// an election.
type EventSolicitVote struct {
	LastLogIndex Index
	LastLogTerm  Term
}

// EventGrantVote is a peer's affirmative response to EventSolicitVote.
type EventGrantVote struct{}

// EventReplicateEntries is sent by a Leader to append entries (or, if
// Entries is empty, merely to probe) starting at BaseIndex.
type EventReplicateEntries struct {
	BaseIndex Index
	BaseTerm  Term
	Entries   []Entry
}

// EventAcceptEntries is a Follower's affirmative reply to
// EventReplicateEntries, reporting the last index it now holds.
type EventAcceptEntries struct {
	LastIndex Index
}

// EventRejectEntries is a Follower's negative reply to
// EventReplicateEntries, sent when BaseIndex/BaseTerm do not match the
// follower's log (the log-matching check failed).
type EventRejectEntries struct{}

// EventQueryState asks the Leader to read from the state machine.
type EventQueryState struct {
	Command []byte
}

// EventMutateState asks the Leader to append Command to the log for
// replication and eventual application.
type EventMutateState struct {
	Command []byte
}

// EventRespondState carries the result of a QueryState. The Leader
// sends no RespondState for a MutateState.
type EventRespondState struct {
	Command []byte
}

// EventRespondError reports that a client request could not be
// served, e.g. because this node is not the leader.
type EventRespondError struct {
	Error error
}

// Message is the unit of communication between nodes. From is nil
// only for messages a node sends to itself (e.g. a client request
// delivered locally); To is nil to mean "broadcast to every peer".
type Message struct {
	From *NodeID
	To   *NodeID
	Term Term
	Event Event
}

func (m Message) String() string {
	from := "?"
	if m.From != nil {
		from = string(*m.From)
	}
	to := "*"
	if m.To != nil {
		to = string(*m.To)
	}
	return fmt.Sprintf("%s->%s@%d %s", from, to, m.Term, m.Event.kind())
}

// kind names the single populated variant, for logging.
func (e Event) kind() string {
	switch {
	case e.Heartbeat != nil:
		return "Heartbeat"
	case e.ConfirmLeader != nil:
		return "ConfirmLeader"
	case e.SolicitVote != nil:
		return "SolicitVote"
	case e.GrantVote != nil:
		return "GrantVote"
	case e.ReplicateEntries != nil:
		return "ReplicateEntries"
	case e.AcceptEntries != nil:
		return "AcceptEntries"
	case e.RejectEntries != nil:
		return "RejectEntries"
	case e.QueryState != nil:
		return "QueryState"
	case e.MutateState != nil:
		return "MutateState"
	case e.RespondState != nil:
		return "RespondState"
	case e.RespondError != nil:
		return "RespondError"
	default:
		return "Unknown"
	}
}

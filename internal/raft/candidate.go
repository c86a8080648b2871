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

import (
	"fmt"
	"math/rand"
)

// Candidate is a node campaigning for leadership in the current term.
// It has voted for itself and is waiting to either collect a quorum
// of votes, observe a new leader's heartbeat, or time out and start a
// fresh election.
//
// Grounded directly on original_source/src/raft/node/candidate.rs —
// this role's Step/Tick logic is a line-for-line port of that file's
// behavior, since it is the one role the distilled specification
// fully pins down.
type Candidate struct {
	votes             map[NodeID]bool
	electionTicks     uint64
	electionTimeout   uint64
	electionTimeoutMin uint64
	electionTimeoutMax uint64
}

// newCandidate returns a Candidate that has voted for itself, with a
// randomized election timeout in [min, max) ticks. Randomizing the
// timeout is what keeps split votes from recurring forever.
func newCandidate(self NodeID, min, max uint64) Candidate {
	timeout := randomElectionTimeout(min, max)
	return Candidate{
		votes:              map[NodeID]bool{self: true},
		electionTicks:      0,
		electionTimeout:    timeout,
		electionTimeoutMin: min,
		electionTimeoutMax: max,
	}
}

func randomElectionTimeout(min, max uint64) uint64 {
	if max <= min {
		return min
	}
	return min + uint64(rand.Int63n(int64(max-min)))
}

// Step processes an inbound message while in the Candidate role,
// returning the node's possibly-new role and any outbound messages.
func (n *RoleNode[Candidate]) Step(msg Message) (Node, []Message, error) {
	if !n.normalizeMessage(&msg) {
		// Misaddressed or stale message: drop it silently.
		return Node{candidate: n}, nil, nil
	}
	if msg.Term > n.term {
		if err := n.saveTerm(msg.Term, nil); err != nil {
			return Node{}, nil, err
		}
		follower := becomeRole[Candidate, Follower](n, newFollowerUnknownLeader().
			withElectionTimeout(n.role.electionTimeoutMin, n.role.electionTimeoutMax))
		return follower.Step(msg)
	}

	switch {
	case msg.Event.Heartbeat != nil:
		leader := *msg.From
		// The term is unchanged, so the persisted self-vote stands.
		follower := becomeRole[Candidate, Follower](n, newFollower(&leader).
			withElectionTimeout(n.role.electionTimeoutMin, n.role.electionTimeoutMax))
		return follower.Step(msg)

	case msg.Event.GrantVote != nil:
		n.role.votes[*msg.From] = true
		if len(n.role.votes) >= n.quorum() {
			leader := becomeRole[Candidate, Leader](n, newLeader(n.peers, n.log.LastIndex()))

			commitIndex := leader.log.CommitIndex()
			commitTerm, err := leader.log.TermAt(commitIndex)
			if err != nil {
				return Node{}, nil, err
			}
			msgs := leader.broadcast(Event{Heartbeat: &EventHeartbeat{CommitIndex: commitIndex, CommitTerm: commitTerm}})

			// Append a no-op entry for the new term and begin normal
			// replication, so the leader can establish the commit
			// point for entries from prior terms (§4.2/§8 scenario 4).
			idx, err := leader.log.Append(leader.term, nil)
			if err != nil {
				return Node{}, nil, err
			}
			leader.role.matchIndex[leader.id] = idx
			leader.role.nextIndex[leader.id] = idx + 1
			replMsgs, err := leader.replicateToAll()
			if err != nil {
				return Node{}, nil, err
			}
			return Node{leader: leader}, append(msgs, replMsgs...), nil
		}
		return Node{candidate: n}, nil, nil

	case msg.Event.SolicitVote != nil:
		// Already voted for self this term; never grant to another
		// candidate in the same term.
		return Node{candidate: n}, nil, nil

	case msg.Event.ReplicateEntries != nil, msg.Event.ConfirmLeader != nil,
		msg.Event.AcceptEntries != nil, msg.Event.RejectEntries != nil:
		// These only make sense from a leader of this term, and a
		// candidate never recognizes a leader without first observing
		// a Heartbeat (handled above), so these are dropped.
		return Node{candidate: n}, nil, nil

	case msg.Event.QueryState != nil, msg.Event.MutateState != nil:
		reply := n.send(*msg.From, Event{RespondError: &EventRespondError{
			Error: fmt.Errorf("no leader: election in progress for term %d", n.term),
		}})
		return Node{candidate: n}, []Message{reply}, nil

	default:
		return Node{candidate: n}, nil, nil
	}
}

// Tick advances the candidate's election clock by one logical tick.
// When the election times out without a quorum, it starts a fresh
// election in the next term.
func (n *RoleNode[Candidate]) Tick() (Node, []Message, error) {
	n.role.electionTicks++
	if n.role.electionTicks < n.role.electionTimeout {
		return Node{candidate: n}, nil, nil
	}

	self := n.id
	if err := n.saveTerm(n.term+1, &self); err != nil {
		return Node{}, nil, err
	}
	n.role = newCandidate(n.id, n.role.electionTimeoutMin, n.role.electionTimeoutMax)
	lastIndex := n.log.LastIndex()
	lastTerm := n.log.LastTerm()
	msgs := n.broadcast(Event{SolicitVote: &EventSolicitVote{LastLogIndex: lastIndex, LastLogTerm: lastTerm}})
	return Node{candidate: n}, msgs, nil
}

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

// Follower tracks the term's recognized leader, if any, and the
// election clock. A Follower with no known leader (just after
// startup, or just after an election began elsewhere) still answers
// QueryState/MutateState with an error rather than guessing.
type Follower struct {
	leader        *NodeID
	electionTicks uint64
	electionTimeoutMin uint64
	electionTimeoutMax uint64
	electionTimeout    uint64
}

func newFollower(leader *NodeID) Follower {
	return Follower{leader: leader}
}

func newFollowerUnknownLeader() Follower {
	return Follower{leader: nil}
}

// withElectionTimeout fills in the randomized election deadline; used
// when a node first starts up and has no prior Candidate to inherit
// timeout bounds from.
func (f Follower) withElectionTimeout(min, max uint64) Follower {
	f.electionTimeoutMin = min
	f.electionTimeoutMax = max
	f.electionTimeout = randomElectionTimeout(min, max)
	return f
}

// Step processes an inbound message while in the Follower role.
func (n *RoleNode[Follower]) Step(msg Message) (Node, []Message, error) {
	if !n.normalizeMessage(&msg) {
		return Node{follower: n}, nil, nil
	}
	if msg.Term > n.term {
		if err := n.saveTerm(msg.Term, nil); err != nil {
			return Node{}, nil, err
		}
		n.role.leader = nil
	}

	switch {
	case msg.Event.Heartbeat != nil:
		hb := msg.Event.Heartbeat
		n.role.leader = msg.From
		n.role.electionTicks = 0

		hasCommitted := false
		if hb.CommitIndex <= n.log.LastIndex() {
			termAtCommit, err := n.log.TermAt(hb.CommitIndex)
			if err != nil {
				return Node{}, nil, err
			}
			hasCommitted = termAtCommit == hb.CommitTerm
		}

		newCommit := hb.CommitIndex
		if last := n.log.LastIndex(); newCommit > last {
			newCommit = last
		}
		if err := n.log.Commit(newCommit); err != nil {
			return Node{}, nil, err
		}
		if _, err := n.log.Apply(); err != nil {
			return Node{}, nil, err
		}
		reply := n.send(*msg.From, Event{ConfirmLeader: &EventConfirmLeader{
			CommitIndex:  hb.CommitIndex,
			HasCommitted: hasCommitted,
		}})
		return Node{follower: n}, []Message{reply}, nil

	case msg.Event.SolicitVote != nil:
		if n.votedFor != nil && *n.votedFor != *msg.From {
			return Node{follower: n}, nil, nil
		}
		lastIndex := n.log.LastIndex()
		lastTerm := n.log.LastTerm()
		upToDate := msg.Event.SolicitVote.LastLogTerm > lastTerm ||
			(msg.Event.SolicitVote.LastLogTerm == lastTerm && msg.Event.SolicitVote.LastLogIndex >= lastIndex)
		if !upToDate {
			return Node{follower: n}, nil, nil
		}
		candidate := *msg.From
		if err := n.saveTerm(n.term, &candidate); err != nil {
			return Node{}, nil, err
		}
		reply := n.send(candidate, Event{GrantVote: &EventGrantVote{}})
		return Node{follower: n}, []Message{reply}, nil

	case msg.Event.ReplicateEntries != nil:
		ev := msg.Event.ReplicateEntries
		baseTerm, err := n.log.TermAt(ev.BaseIndex)
		if err != nil || baseTerm != ev.BaseTerm {
			reply := n.send(*msg.From, Event{RejectEntries: &EventRejectEntries{}})
			return Node{follower: n}, []Message{reply}, nil
		}
		if err := n.log.Splice(ev.BaseIndex, ev.Entries); err != nil {
			return Node{}, nil, err
		}
		reply := n.send(*msg.From, Event{AcceptEntries: &EventAcceptEntries{LastIndex: n.log.LastIndex()}})
		return Node{follower: n}, []Message{reply}, nil

	case msg.Event.QueryState != nil, msg.Event.MutateState != nil:
		var errMsg error
		if n.role.leader == nil {
			errMsg = fmt.Errorf("no leader known for term %d", n.term)
		} else {
			errMsg = fmt.Errorf("not the leader, try %s", *n.role.leader)
		}
		reply := n.send(*msg.From, Event{RespondError: &EventRespondError{Error: errMsg}})
		return Node{follower: n}, []Message{reply}, nil

	default:
		return Node{follower: n}, nil, nil
	}
}

// Tick advances the follower's election clock, becoming a Candidate
// once it elapses without hearing from a leader.
func (n *RoleNode[Follower]) Tick() (Node, []Message, error) {
	n.role.electionTicks++
	if n.role.electionTicks < n.role.electionTimeout {
		return Node{follower: n}, nil, nil
	}

	self := n.id
	if err := n.saveTerm(n.term+1, &self); err != nil {
		return Node{}, nil, err
	}
	candidate := becomeRole[Follower, Candidate](n, newCandidate(n.id, n.role.electionTimeoutMin, n.role.electionTimeoutMax))
	lastIndex := candidate.log.LastIndex()
	lastTerm := candidate.log.LastTerm()
	msgs := candidate.broadcast(Event{SolicitVote: &EventSolicitVote{LastLogIndex: lastIndex, LastLogTerm: lastTerm}})
	return Node{candidate: candidate}, msgs, nil
}

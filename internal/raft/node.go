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

// Node is a tagged union over the three roles a raft node can be in.
// Exactly one field is ever non-nil. Step and Tick dispatch on which
// one that is, rather than through an interface, so that role
// transitions are explicit value returns instead of hidden behind
// virtual dispatch.
type Node struct {
	follower  *RoleNode[Follower]
	candidate *RoleNode[Candidate]
	leader    *RoleNode[Leader]
}

// NewNode constructs a fresh Node in the Follower role with no known
// leader, loading persisted term/vote state from storage.
func NewNode(id NodeID, peers []NodeID, storage Storage, state State, electionTimeoutMin, electionTimeoutMax uint64) (Node, error) {
	log, err := NewLog(storage, state)
	if err != nil {
		return Node{}, err
	}
	term, votedFor, err := loadTerm(storage)
	if err != nil {
		return Node{}, err
	}

	base := &RoleNode[Follower]{
		id:       id,
		peers:    peers,
		term:     term,
		votedFor: votedFor,
		log:      log,
		state:    state,
		storage:  storage,
		role:     newFollowerUnknownLeader().withElectionTimeout(electionTimeoutMin, electionTimeoutMax),
	}
	return Node{follower: base}, nil
}

// ID returns the node's own identity, regardless of current role.
func (n Node) ID() NodeID {
	switch {
	case n.follower != nil:
		return n.follower.id
	case n.candidate != nil:
		return n.candidate.id
	case n.leader != nil:
		return n.leader.id
	default:
		panic("raft: empty Node")
	}
}

// Term returns the node's current term, regardless of current role.
func (n Node) Term() Term {
	switch {
	case n.follower != nil:
		return n.follower.term
	case n.candidate != nil:
		return n.candidate.term
	case n.leader != nil:
		return n.leader.term
	default:
		panic("raft: empty Node")
	}
}

// RoleName returns a human-readable name of the node's current role,
// for logging.
func (n Node) RoleName() string {
	switch {
	case n.follower != nil:
		return "follower"
	case n.candidate != nil:
		return "candidate"
	case n.leader != nil:
		return "leader"
	default:
		return "unknown"
	}
}

// Step delivers an inbound message to the node in whichever role it
// currently holds, returning the (possibly new) Node and zero or more
// outbound messages. Step never blocks and never performs I/O beyond
// the synchronous Storage writes its role's logic requires.
func (n Node) Step(msg Message) (Node, []Message, error) {
	switch {
	case n.follower != nil:
		return n.follower.Step(msg)
	case n.candidate != nil:
		return n.candidate.Step(msg)
	case n.leader != nil:
		return n.leader.Step(msg)
	default:
		return Node{}, nil, fmt.Errorf("raft: Step called on empty Node")
	}
}

// Tick advances the node's logical clock by one tick, returning the
// (possibly new) Node and zero or more outbound messages.
func (n Node) Tick() (Node, []Message, error) {
	switch {
	case n.follower != nil:
		return n.follower.Tick()
	case n.candidate != nil:
		return n.candidate.Tick()
	case n.leader != nil:
		return n.leader.Tick()
	default:
		return Node{}, nil, fmt.Errorf("raft: Tick called on empty Node")
	}
}

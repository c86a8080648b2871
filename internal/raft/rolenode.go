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

import "encoding/binary"

var metaKeyTerm = []byte("term")
var metaKeyVotedFor = []byte("voted_for")

// RoleNode is the context shared by every role a node can be in:
// identity, the fixed peer set, the current term, the log, and the
// state machine. R carries the role-specific data (Candidate's vote
// tally and election deadline, Follower's known leader, Leader's
// per-peer replication progress).
//
// Grounded on the original Rust RoleNode<R>; role dispatch here is
// done by wrapping RoleNode[R] in the Node tagged union (node.go)
// rather than through a trait object, per spec's explicit instruction
// to avoid virtual dispatch.
type RoleNode[R any] struct {
	id       NodeID
	peers    []NodeID
	term     Term
	votedFor *NodeID
	log      *Log
	state    State
	storage  Storage
	role     R
}

// quorum returns the number of nodes (including self) required to
// agree for the cluster to make progress.
func (n *RoleNode[R]) quorum() int {
	return (len(n.peers)+1)/2 + 1
}

// normalizeMessage validates and rewrites an inbound message in
// place. It returns false (the message must be dropped with no state
// change) if msg.To is set and addresses a different node, or if
// msg.Term is strictly less than the node's current term. Otherwise
// it fills in msg.To when empty and returns true.
func (n *RoleNode[R]) normalizeMessage(msg *Message) bool {
	if msg.To != nil && *msg.To != n.id {
		return false
	}
	if msg.Term < n.term {
		return false
	}
	if msg.To == nil {
		self := n.id
		msg.To = &self
	}
	return true
}

// saveTerm persists the current term and vote, and updates the
// in-memory copies. It must be called, and must complete, before any
// in-memory state derived from the new term is acted upon or any
// message referencing it is sent — the durability-before-action
// invariant this core is built around.
func (n *RoleNode[R]) saveTerm(term Term, votedFor *NodeID) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(term))
	if err := n.storage.Set(namespaceMeta, metaKeyTerm, buf); err != nil {
		return err
	}
	if votedFor != nil {
		if err := n.storage.Set(namespaceMeta, metaKeyVotedFor, []byte(*votedFor)); err != nil {
			return err
		}
	} else {
		if err := n.storage.Delete(namespaceMeta, metaKeyVotedFor); err != nil {
			return err
		}
	}
	n.term = term
	n.votedFor = votedFor
	return nil
}

// loadTerm reads the persisted term and vote, defaulting to term 0
// with no vote if neither was ever saved.
func loadTerm(storage Storage) (Term, *NodeID, error) {
	data, ok, err := storage.Get(namespaceMeta, metaKeyTerm)
	if err != nil {
		return 0, nil, err
	}
	var term Term
	if ok {
		term = Term(binary.BigEndian.Uint64(data))
	}
	votedData, ok, err := storage.Get(namespaceMeta, metaKeyVotedFor)
	if err != nil {
		return 0, nil, err
	}
	var votedFor *NodeID
	if ok {
		v := NodeID(votedData)
		votedFor = &v
	}
	return term, votedFor, nil
}

// send addresses event to a single peer.
func (n *RoleNode[R]) send(to NodeID, event Event) Message {
	from := n.id
	toCopy := to
	return Message{From: &from, To: &toCopy, Term: n.term, Event: event}
}

// broadcast addresses event to every peer.
func (n *RoleNode[R]) broadcast(event Event) []Message {
	msgs := make([]Message, 0, len(n.peers))
	for _, p := range n.peers {
		msgs = append(msgs, n.send(p, event))
	}
	return msgs
}

// becomeRole transitions a node from one role to another, carrying
// over the shared context and installing new role-specific data. It
// is a free function rather than a method because Go methods cannot
// introduce a second type parameter beyond the receiver's.
func becomeRole[R1, R2 any](n *RoleNode[R1], role R2) *RoleNode[R2] {
	return &RoleNode[R2]{
		id:       n.id,
		peers:    n.peers,
		term:     n.term,
		votedFor: n.votedFor,
		log:      n.log,
		state:    n.state,
		storage:  n.storage,
		role:     role,
	}
}

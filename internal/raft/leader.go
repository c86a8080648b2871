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

import "sort"

// Leader tracks per-peer replication progress and the heartbeat
// clock. nextIndex is the next log index to send each peer;
// matchIndex is the highest index known to be replicated there.
//
// Grounded on the teacher's RaftNode.nextIndex/matchIndex maps in
// cluster/raft.go, narrowed from that file's goroutine/RPC model down
// to plain fields updated synchronously inside Step/Tick.
type Leader struct {
	nextIndex     map[NodeID]Index
	matchIndex    map[NodeID]Index
	heartbeatTicks uint64
}

func newLeader(peers []NodeID, lastIndex Index) Leader {
	next := make(map[NodeID]Index, len(peers))
	match := make(map[NodeID]Index, len(peers))
	for _, p := range peers {
		next[p] = lastIndex + 1
		match[p] = 0
	}
	return Leader{nextIndex: next, matchIndex: match}
}

// Step processes an inbound message while in the Leader role.
func (n *RoleNode[Leader]) Step(msg Message) (Node, []Message, error) {
	if !n.normalizeMessage(&msg) {
		return Node{leader: n}, nil, nil
	}
	if msg.Term > n.term {
		if err := n.saveTerm(msg.Term, nil); err != nil {
			return Node{}, nil, err
		}
		follower := becomeRole[Leader, Follower](n, newFollowerUnknownLeader())
		return follower.Step(msg)
	}

	switch {
	case msg.Event.ConfirmLeader != nil:
		return Node{leader: n}, nil, nil

	case msg.Event.AcceptEntries != nil:
		peer := *msg.From
		n.role.matchIndex[peer] = msg.Event.AcceptEntries.LastIndex
		n.role.nextIndex[peer] = msg.Event.AcceptEntries.LastIndex + 1
		if err := n.maybeAdvanceCommit(); err != nil {
			return Node{}, nil, err
		}
		if _, err := n.log.Apply(); err != nil {
			return Node{}, nil, err
		}
		return Node{leader: n}, nil, nil

	case msg.Event.RejectEntries != nil:
		peer := *msg.From
		if n.role.nextIndex[peer] > 1 {
			n.role.nextIndex[peer]--
		}
		msgs, err := n.replicateTo(peer)
		if err != nil {
			return Node{}, nil, err
		}
		return Node{leader: n}, msgs, nil

	case msg.Event.MutateState != nil:
		idx, err := n.log.Append(n.term, msg.Event.MutateState.Command)
		if err != nil {
			return Node{}, nil, err
		}
		n.role.matchIndex[n.id] = idx
		n.role.nextIndex[n.id] = idx + 1
		msgs, err := n.replicateToAll()
		if err != nil {
			return Node{}, nil, err
		}
		return Node{leader: n}, msgs, nil

	case msg.Event.QueryState != nil:
		result, err := n.state.Read(msg.Event.QueryState.Command)
		if err != nil {
			reply := n.send(*msg.From, Event{RespondError: &EventRespondError{Error: err}})
			return Node{leader: n}, []Message{reply}, nil
		}
		reply := n.send(*msg.From, Event{RespondState: &EventRespondState{Command: result}})
		return Node{leader: n}, []Message{reply}, nil

	case msg.Event.SolicitVote != nil:
		// Already leader this term; never grant a competing vote.
		return Node{leader: n}, nil, nil

	default:
		return Node{leader: n}, nil, nil
	}
}

// Tick advances the heartbeat clock, broadcasting a heartbeat and
// replication probes once it elapses.
func (n *RoleNode[Leader]) Tick() (Node, []Message, error) {
	n.role.heartbeatTicks++
	if n.role.heartbeatTicks < heartbeatIntervalTicks {
		return Node{leader: n}, nil, nil
	}
	n.role.heartbeatTicks = 0

	commitIndex := n.log.CommitIndex()
	commitTerm, err := n.log.TermAt(commitIndex)
	if err != nil {
		return Node{}, nil, err
	}
	msgs := n.broadcast(Event{Heartbeat: &EventHeartbeat{CommitIndex: commitIndex, CommitTerm: commitTerm}})
	more, err := n.replicateToAll()
	if err != nil {
		return Node{}, nil, err
	}
	return Node{leader: n}, append(msgs, more...), nil
}

// heartbeatIntervalTicks is the cadence, in ticks, of heartbeats and
// replication probes. It is a fixed built-in value; Tick does not read
// it from Config, and wall-clock pacing is left to the caller.
const heartbeatIntervalTicks = 1

func (n *RoleNode[Leader]) replicateToAll() ([]Message, error) {
	var msgs []Message
	for _, p := range n.peers {
		m, err := n.replicateTo(p)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m...)
	}
	return msgs, nil
}

func (n *RoleNode[Leader]) replicateTo(peer NodeID) ([]Message, error) {
	next := n.role.nextIndex[peer]
	if next == 0 {
		next = 1
	}
	baseIndex := next - 1
	baseTerm, err := n.log.TermAt(baseIndex)
	if err != nil {
		return nil, err
	}
	entries, err := n.log.EntriesFrom(next)
	if err != nil {
		return nil, err
	}
	msg := n.send(peer, Event{ReplicateEntries: &EventReplicateEntries{
		BaseIndex: baseIndex,
		BaseTerm:  baseTerm,
		Entries:   entries,
	}})
	return []Message{msg}, nil
}

// maybeAdvanceCommit advances the commit index to the highest index
// replicated to a quorum of nodes in the current term, per the Raft
// leader-completeness rule: a leader never commits an entry from a
// prior term by counting alone, only by the prefix rule once one of
// its own term's entries is committed. The log can still hold
// prior-term entries, so the entry at the quorum index is checked to
// carry n.term before committing.
func (n *RoleNode[Leader]) maybeAdvanceCommit() error {
	matches := make([]Index, 0, len(n.peers)+1)
	matches = append(matches, n.log.LastIndex())
	for _, p := range n.peers {
		matches = append(matches, n.role.matchIndex[p])
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i] > matches[j] })

	quorumIdx := matches[n.quorum()-1]
	if quorumIdx <= n.log.CommitIndex() {
		return nil
	}
	term, err := n.log.TermAt(quorumIdx)
	if err != nil {
		return err
	}
	if term != n.term {
		return nil
	}
	return n.log.Commit(quorumIdx)
}

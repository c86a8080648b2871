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

import "testing"

// testState is a no-op State used by role tests; none of the
// Candidate behavior under test applies committed entries.
type testState struct{}

func (testState) Apply(command []byte) ([]byte, error) { return command, nil }
func (testState) Read(command []byte) ([]byte, error)  { return command, nil }

// setup builds the 5-node cluster fixture from the original candidate
// test module: self=a, peers={b,c,d,e}, term=3, a log of three
// entries at terms [1,1,2], and commit_index=2.
func setup(t *testing.T) *RoleNode[Candidate] {
	t.Helper()
	storage := NewMemStorage()
	log, err := NewLog(storage, testState{})
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	for _, term := range []Term{1, 1, 2} {
		if _, err := log.Append(term, nil); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := log.Commit(2); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	self := NodeID("a")
	n := &RoleNode[Candidate]{
		id:      self,
		peers:   []NodeID{"b", "c", "d", "e"},
		term:    3,
		log:     log,
		state:   testState{},
		storage: storage,
		role:    newCandidate(self, 1, 2),
	}
	if err := n.saveTerm(3, &self); err != nil {
		t.Fatalf("saveTerm: %v", err)
	}
	return n
}

func peer(id string) *NodeID {
	p := NodeID(id)
	return &p
}

func assertCandidate(t *testing.T, node Node) *RoleNode[Candidate] {
	t.Helper()
	if node.candidate == nil {
		t.Fatalf("expected Node to be in Candidate role, got %s", node.RoleName())
	}
	return node.candidate
}

func assertFollower(t *testing.T, node Node) *RoleNode[Follower] {
	t.Helper()
	if node.follower == nil {
		t.Fatalf("expected Node to be in Follower role, got %s", node.RoleName())
	}
	return node.follower
}

func assertLeader(t *testing.T, node Node) *RoleNode[Leader] {
	t.Helper()
	if node.leader == nil {
		t.Fatalf("expected Node to be in Leader role, got %s", node.RoleName())
	}
	return node.leader
}

func TestCandidateStepHeartbeatCurrentTerm(t *testing.T) {
	n := setup(t)
	msg := Message{From: peer("b"), To: peer("a"), Term: 3, Event: Event{Heartbeat: &EventHeartbeat{CommitIndex: 3, CommitTerm: 2}}}

	node, msgs, err := n.Step(msg)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	follower := assertFollower(t, node)
	if follower.term != 3 {
		t.Errorf("expected term 3, got %d", follower.term)
	}
	if follower.role.leader == nil || *follower.role.leader != "b" {
		t.Errorf("expected leader b, got %v", follower.role.leader)
	}
	if len(msgs) != 1 || msgs[0].Event.ConfirmLeader == nil {
		t.Fatalf("expected one ConfirmLeader reply, got %v", msgs)
	}
	cl := msgs[0].Event.ConfirmLeader
	if cl.CommitIndex != 3 || !cl.HasCommitted {
		t.Errorf("expected ConfirmLeader{commit_index:3, has_committed:true}, got %+v", cl)
	}
}

func TestCandidateStepHeartbeatFutureTerm(t *testing.T) {
	n := setup(t)
	msg := Message{From: peer("b"), To: peer("a"), Term: 4, Event: Event{Heartbeat: &EventHeartbeat{CommitIndex: 3, CommitTerm: 2}}}

	node, _, err := n.Step(msg)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	follower := assertFollower(t, node)
	if follower.term != 4 {
		t.Errorf("expected term 4, got %d", follower.term)
	}
	if follower.role.leader == nil || *follower.role.leader != "b" {
		t.Errorf("expected leader b, got %v", follower.role.leader)
	}
}

func TestCandidateStepHeartbeatPastTerm(t *testing.T) {
	n := setup(t)
	msg := Message{From: peer("b"), To: peer("a"), Term: 2, Event: Event{Heartbeat: &EventHeartbeat{CommitIndex: 3}}}

	node, msgs, err := n.Step(msg)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	c := assertCandidate(t, node)
	if c.term != 3 {
		t.Errorf("expected term to remain 3, got %d", c.term)
	}
	if msgs != nil {
		t.Errorf("expected no messages, got %v", msgs)
	}
}

func TestCandidateStepGrantVote(t *testing.T) {
	n := setup(t)

	node, msgs, err := n.Step(Message{From: peer("b"), To: peer("a"), Term: 3, Event: Event{GrantVote: &EventGrantVote{}}})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	c := assertCandidate(t, node)
	if len(c.role.votes) != 2 {
		t.Errorf("expected 2 votes, got %d", len(c.role.votes))
	}
	if msgs != nil {
		t.Errorf("expected no messages yet, got %v", msgs)
	}

	node, msgs, err = c.Step(Message{From: peer("c"), To: peer("a"), Term: 3, Event: Event{GrantVote: &EventGrantVote{}}})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	leader := assertLeader(t, node)
	if leader.term != 3 {
		t.Errorf("expected term 3, got %d", leader.term)
	}
	// §8 scenario 4: a Heartbeat{commit_index:2, commit_term:1} to each
	// of the 4 peers, followed by a ReplicateEntries carrying the new
	// term's no-op entry to each of the 4 peers.
	if len(msgs) != 8 {
		t.Fatalf("expected 8 messages (4 heartbeats + 4 replications), got %d", len(msgs))
	}
	for i := 0; i < 4; i++ {
		hb := msgs[i].Event.Heartbeat
		if hb == nil {
			t.Fatalf("expected message %d to be a Heartbeat, got %s", i, msgs[i].Event.kind())
		}
		if hb.CommitIndex != 2 || hb.CommitTerm != 1 {
			t.Errorf("expected Heartbeat{commit_index:2, commit_term:1}, got %+v", hb)
		}
	}
	for i := 4; i < 8; i++ {
		re := msgs[i].Event.ReplicateEntries
		if re == nil {
			t.Fatalf("expected message %d to be ReplicateEntries, got %s", i, msgs[i].Event.kind())
		}
		if re.BaseIndex != 3 || re.BaseTerm != 2 {
			t.Errorf("expected ReplicateEntries{base_index:3, base_term:2}, got %+v", re)
		}
		if len(re.Entries) != 1 || re.Entries[0].Term != 3 || re.Entries[0].Command != nil {
			t.Errorf("expected a single no-op entry at term 3, got %+v", re.Entries)
		}
	}
	if leader.role.matchIndex["a"] != 4 || leader.role.nextIndex["a"] != 5 {
		t.Errorf("expected self match/next index to reflect the appended no-op entry, got match=%d next=%d",
			leader.role.matchIndex["a"], leader.role.nextIndex["a"])
	}
}

func TestCandidateTick(t *testing.T) {
	n := setup(t)
	n.role.electionTimeout = 2

	node, msgs, err := n.Tick()
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	c := assertCandidate(t, node)
	if c.role.electionTicks != 1 {
		t.Errorf("expected electionTicks 1, got %d", c.role.electionTicks)
	}
	if msgs != nil {
		t.Errorf("expected no messages before timeout, got %v", msgs)
	}

	node, msgs, err = c.Tick()
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	c = assertCandidate(t, node)
	if c.term != 4 {
		t.Errorf("expected new term 4 after timeout, got %d", c.term)
	}
	if len(msgs) != 4 {
		t.Errorf("expected 4 broadcast SolicitVote messages, got %d", len(msgs))
	}
	for _, m := range msgs {
		if m.Event.SolicitVote == nil {
			t.Errorf("expected SolicitVote event, got %v", m.Event)
		}
		if m.Event.SolicitVote.LastLogIndex != 3 || m.Event.SolicitVote.LastLogTerm != 2 {
			t.Errorf("expected last log index 3 term 2, got %d/%d",
				m.Event.SolicitVote.LastLogIndex, m.Event.SolicitVote.LastLogTerm)
		}
	}
}

/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package raft

import "testing"

func setupLeader(t *testing.T) *RoleNode[Leader] {
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

	peers := []NodeID{"b", "c", "d", "e"}
	n := &RoleNode[Leader]{
		id:      "a",
		peers:   peers,
		term:    3,
		log:     log,
		state:   testState{},
		storage: storage,
		role:    newLeader(peers, log.LastIndex()),
	}
	if err := n.saveTerm(3, nil); err != nil {
		t.Fatalf("saveTerm: %v", err)
	}
	return n
}

func TestLeaderAppendsOnMutateStateAndReplicates(t *testing.T) {
	n := setupLeader(t)
	node, msgs, err := n.Step(Message{From: peer("client"), Term: 3, Event: Event{MutateState: &EventMutateState{Command: []byte("x=1")}}})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	l := assertLeader(t, node)
	if l.log.LastIndex() != 4 {
		t.Errorf("expected last index 4, got %d", l.log.LastIndex())
	}
	if len(msgs) != 4 {
		t.Errorf("expected 4 ReplicateEntries messages, got %d", len(msgs))
	}
	for _, m := range msgs {
		if m.Event.ReplicateEntries == nil {
			t.Errorf("expected ReplicateEntries event, got %v", m.Event)
		}
	}
}

func TestLeaderAdvancesCommitOnQuorumAccept(t *testing.T) {
	n := setupLeader(t)
	node, _, err := n.Step(Message{From: peer("client"), Term: 3, Event: Event{MutateState: &EventMutateState{Command: []byte("x=1")}}})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	l := assertLeader(t, node)

	node, _, err = l.Step(Message{From: peer("b"), Term: 3, Event: Event{AcceptEntries: &EventAcceptEntries{LastIndex: 4}}})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	l = assertLeader(t, node)
	if l.log.CommitIndex() != 2 {
		t.Errorf("expected commit index still 2 before quorum, got %d", l.log.CommitIndex())
	}

	node, _, err = l.Step(Message{From: peer("c"), Term: 3, Event: Event{AcceptEntries: &EventAcceptEntries{LastIndex: 4}}})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	l = assertLeader(t, node)
	if l.log.CommitIndex() != 4 {
		t.Errorf("expected commit index 4 after quorum, got %d", l.log.CommitIndex())
	}
}

func TestLeaderBacksOffNextIndexOnReject(t *testing.T) {
	n := setupLeader(t)
	n.role.nextIndex["b"] = 4

	node, msgs, err := n.Step(Message{From: peer("b"), Term: 3, Event: Event{RejectEntries: &EventRejectEntries{}}})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	l := assertLeader(t, node)
	if l.role.nextIndex["b"] != 3 {
		t.Errorf("expected nextIndex[b] to back off to 3, got %d", l.role.nextIndex["b"])
	}
	if len(msgs) != 1 || msgs[0].Event.ReplicateEntries == nil {
		t.Fatalf("expected a retry ReplicateEntries, got %v", msgs)
	}
}

func TestLeaderStepsDownOnHigherTerm(t *testing.T) {
	n := setupLeader(t)
	node, _, err := n.Step(Message{From: peer("b"), Term: 5, Event: Event{Heartbeat: &EventHeartbeat{CommitIndex: 2}}})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	f := assertFollower(t, node)
	if f.term != 5 {
		t.Errorf("expected term 5, got %d", f.term)
	}
}

func TestLeaderTickBroadcastsHeartbeat(t *testing.T) {
	n := setupLeader(t)
	node, msgs, err := n.Tick()
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	assertLeader(t, node)
	var heartbeats int
	for _, m := range msgs {
		if m.Event.Heartbeat != nil {
			heartbeats++
		}
	}
	if heartbeats != 4 {
		t.Errorf("expected 4 heartbeats, got %d", heartbeats)
	}
}

/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package raft

import "testing"

func TestNewNodeStartsAsFollower(t *testing.T) {
	storage := NewMemStorage()
	node, err := NewNode("a", []NodeID{"b", "c"}, storage, testState{}, 5, 10)
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}
	if node.RoleName() != "follower" {
		t.Errorf("expected follower, got %s", node.RoleName())
	}
	if node.ID() != "a" {
		t.Errorf("expected id a, got %s", node.ID())
	}
	if node.Term() != 0 {
		t.Errorf("expected term 0, got %d", node.Term())
	}
}

func TestNewNodeReloadsPersistedTerm(t *testing.T) {
	storage := NewMemStorage()
	node, err := NewNode("a", []NodeID{"b", "c"}, storage, testState{}, 5, 10)
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}
	node, _, err = node.Step(Message{From: peer("b"), Term: 7, Event: Event{Heartbeat: &EventHeartbeat{CommitIndex: 0}}})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if node.Term() != 7 {
		t.Fatalf("expected term 7, got %d", node.Term())
	}

	reloaded, err := NewNode("a", []NodeID{"b", "c"}, storage, testState{}, 5, 10)
	if err != nil {
		t.Fatalf("NewNode (reload): %v", err)
	}
	if reloaded.Term() != 7 {
		t.Errorf("expected reloaded term 7, got %d", reloaded.Term())
	}
}

func TestNodeElectionEndToEnd(t *testing.T) {
	storage := NewMemStorage()
	node, err := NewNode("a", []NodeID{"b", "c", "d", "e"}, storage, testState{}, 1, 2)
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}

	var msgs []Message
	for i := 0; i < 3 && node.RoleName() != "candidate"; i++ {
		node, msgs, err = node.Tick()
		if err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if node.RoleName() != "candidate" {
		t.Fatalf("expected candidate after election timeout, got %s", node.RoleName())
	}
	if len(msgs) != 4 {
		t.Fatalf("expected 4 SolicitVote broadcasts, got %d", len(msgs))
	}

	term := node.Term()
	node, _, err = node.Step(Message{From: peer("b"), Term: term, Event: Event{GrantVote: &EventGrantVote{}}})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	node, msgs, err = node.Step(Message{From: peer("c"), Term: term, Event: Event{GrantVote: &EventGrantVote{}}})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if node.RoleName() != "leader" {
		t.Fatalf("expected leader after quorum votes, got %s", node.RoleName())
	}
	// 4 broadcast heartbeats plus 4 ReplicateEntries carrying the new
	// term's no-op entry, one of each per peer (§8 scenario 4).
	if len(msgs) != 8 {
		t.Errorf("expected 8 messages on becoming leader, got %d", len(msgs))
	}
}

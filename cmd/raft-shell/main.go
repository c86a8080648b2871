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

// Command raft-shell is an interactive operator REPL for issuing
// get/set client requests against a running node. It has no command
// for showing the node's role or term.
//
// Grounded on the teacher's pkg/cli prompt helpers, rebuilt as a
// readline shell (pkg/raftcli) since the teacher's own prompt package
// was a thin bufio wrapper without line editing or history.
package main

import (
	"flag"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/emberkv/raft/internal/raft"
	"github.com/emberkv/raft/internal/rafttransport"
	"github.com/emberkv/raft/pkg/raftcli"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:9420", "address of a node to talk to")
	flag.Parse()

	self := raft.NodeID("raft-shell")

	get := raftcli.Command{
		Name: "get",
		Help: "get <key> — read a value through the cluster",
		Run: func(args []string) (string, error) {
			if len(args) != 1 {
				return "", fmt.Errorf("usage: get <key>")
			}
			return sendClientRequest(*addr, self, false, []byte(args[0]))
		},
	}
	set := raftcli.Command{
		Name: "set",
		Help: "set <key> <value> — write a value through the cluster",
		Run: func(args []string) (string, error) {
			if len(args) != 2 {
				return "", fmt.Errorf("usage: set <key> <value>")
			}
			cmd := args[0] + "=" + args[1]
			return sendClientRequest(*addr, self, true, []byte(cmd))
		},
	}
	help := raftcli.Command{
		Name: "help",
		Help: "help — list commands",
		Run: func(args []string) (string, error) {
			return "commands: get, set, help, exit", nil
		},
	}

	sh, err := raftcli.NewShell("raft> ", []raftcli.Command{get, set, help})
	if err != nil {
		fmt.Println(raftcli.Info("failed to start shell: %v", err))
		return
	}
	defer sh.Close()

	fmt.Println(raftcli.OK("connected to %s (not yet — each command dials fresh)", *addr))
	if err := sh.Run(); err != nil {
		fmt.Println(raftcli.Info("shell exited: %v", err))
	}
}

// sendClientRequest dials addr directly and issues a single
// QueryState/MutateState message, waiting briefly for a
// RespondState/RespondError reply. It does not retry on "no leader"
// errors; the operator is expected to re-target the shell at the
// current leader, matching the core's explicit choice not to guess or
// buffer client requests at a non-leader.
func sendClientRequest(addr string, self raft.NodeID, mutate bool, command []byte) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	var event raft.Event
	if mutate {
		event = raft.Event{MutateState: &raft.EventMutateState{Command: command}}
	} else {
		event = raft.Event{QueryState: &raft.EventQueryState{Command: command}}
	}
	msg := raft.Message{From: &self, Event: event}

	if err := rafttransport.WriteMessage(conn, msg); err != nil {
		return "", err
	}
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	reply, err := rafttransport.ReadMessage(conn)
	if err != nil {
		return "", err
	}

	switch {
	case reply.Event.RespondState != nil:
		return strings.TrimSpace(string(reply.Event.RespondState.Command)), nil
	case reply.Event.RespondError != nil:
		return "", reply.Event.RespondError.Error
	default:
		return "", fmt.Errorf("unexpected reply event")
	}
}

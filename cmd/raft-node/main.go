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

// Command raft-node runs a single raft cluster member: it loads
// configuration, opens durable storage, wires up the TCP transport,
// and drives the raft core with a logical tick timer and inbound
// messages until terminated.
package main

import (
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/emberkv/raft/internal/boltstorage"
	"github.com/emberkv/raft/internal/config"
	"github.com/emberkv/raft/internal/logging"
	"github.com/emberkv/raft/internal/raft"
	"github.com/emberkv/raft/internal/rafttransport"
)

var log = logging.NewLogger("raft-node")

// kvState is a minimal State implementation: Apply takes a "key=value"
// command and stores it, Read takes a bare key and returns its value.
// That is enough to exercise the core end to end without pulling in a
// full query language.
type kvState struct {
	data map[string]string
}

func newKVState() *kvState { return &kvState{data: make(map[string]string)} }

func (s *kvState) Apply(command []byte) ([]byte, error) {
	k, v, ok := splitCommand(command)
	if !ok {
		return nil, nil
	}
	s.data[k] = v
	return []byte(v), nil
}

func (s *kvState) Read(command []byte) ([]byte, error) {
	return []byte(s.data[string(command)]), nil
}

func splitCommand(command []byte) (string, string, bool) {
	for i, b := range command {
		if b == '=' {
			return string(command[:i]), string(command[i+1:]), true
		}
	}
	return "", "", false
}

func main() {
	configPath := flag.String("config", "", "path to a raft.toml configuration file")
	flag.Parse()

	mgr := config.Global()
	if *configPath != "" {
		if err := mgr.LoadFromFile(*configPath); err != nil {
			log.Error("failed to load config file", "path", *configPath, "err", err)
			os.Exit(1)
		}
	}
	mgr.LoadFromEnv()
	cfg := mgr.Get()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	logging.SetGlobalLevel(logging.ParseLevel(cfg.LogLevel))
	logging.SetJSONMode(cfg.LogJSON)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Error("failed to create data dir", "dir", cfg.DataDir, "err", err)
		os.Exit(1)
	}

	storage, err := boltstorage.Open(filepath.Join(cfg.DataDir, "raft.db"))
	if err != nil {
		log.Error("failed to open storage", "err", err)
		os.Exit(1)
	}
	defer storage.Close()

	peers := make([]raft.NodeID, 0, len(cfg.Peers))
	peerAddrs := make(map[raft.NodeID]string, len(cfg.Peers))
	for id, addr := range cfg.Peers {
		peers = append(peers, raft.NodeID(id))
		peerAddrs[raft.NodeID(id)] = addr
	}

	state := newKVState()
	node, err := raft.NewNode(raft.NodeID(cfg.NodeID), peers, storage, state,
		cfg.ElectionTimeoutMinTicks, cfg.ElectionTimeoutMaxTicks)
	if err != nil {
		log.Error("failed to initialize node", "err", err)
		os.Exit(1)
	}

	transport := rafttransport.New(cfg.ListenAddr, peerAddrs)
	if err := transport.Listen(); err != nil {
		log.Error("failed to start transport", "err", err)
		os.Exit(1)
	}
	defer transport.Close()

	log.Info("node started", "id", cfg.NodeID, "listen", cfg.ListenAddr, "role", node.RoleName())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(cfg.TickIntervalMillis) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			log.Info("shutting down")
			return

		case <-ticker.C:
			newNode, msgs, err := node.Tick()
			if err != nil {
				log.Error("tick failed", "err", err)
				continue
			}
			node = newNode
			for _, m := range msgs {
				transport.Send(m)
			}

		case msg := <-transport.Inbound():
			// Client requests arrive over the wire with no notion of
			// the current term; the core treats them as locally
			// originated and dispatches them at the node's own term
			// rather than subjecting them to the peer stale-term check.
			if msg.Event.QueryState != nil || msg.Event.MutateState != nil {
				msg.Term = node.Term()
			}
			newNode, msgs, err := node.Step(msg)
			if err != nil {
				log.Error("step failed", "err", err)
				continue
			}
			if newNode.RoleName() != node.RoleName() {
				log.Info("role changed", "from", node.RoleName(), "to", newNode.RoleName(), "term", newNode.Term())
			}
			node = newNode
			for _, m := range msgs {
				transport.Send(m)
			}
		}
	}
}

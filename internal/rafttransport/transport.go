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

/*
Package rafttransport carries raft.Message values between node
processes over TCP, using a big-endian length prefix followed by a
JSON-encoded body.

Grounded on the teacher's RaftNode RPC plumbing (cluster/raft.go's
sendRequestVote/sendAppendEntries and its listener loop), which uses
exactly this length-prefixed-JSON-over-TCP shape for its own
RequestVoteArgs/AppendEntriesArgs. This package generalizes that
transport to carry the core's single Message type instead of a
request/reply pair per RPC kind, since Step already produces whatever
reply event is needed.
*/
package rafttransport

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/emberkv/raft/internal/logging"
	"github.com/emberkv/raft/internal/raft"
)

var log = logging.NewLogger("rafttransport")

const maxMessageSize = 16 << 20

// Transport listens for inbound messages and dials outbound ones
// using the static address book in peers.
type Transport struct {
	listenAddr string
	peers      map[raft.NodeID]string

	mu          sync.Mutex
	conns       map[raft.NodeID]net.Conn
	clientConns map[raft.NodeID]net.Conn
	inbound     chan raft.Message
	ln          net.Listener
}

// New returns a Transport that will listen on listenAddr and dial
// peers by the node id -> address map given.
func New(listenAddr string, peers map[raft.NodeID]string) *Transport {
	return &Transport{
		listenAddr:  listenAddr,
		peers:       peers,
		conns:       make(map[raft.NodeID]net.Conn),
		clientConns: make(map[raft.NodeID]net.Conn),
		inbound:     make(chan raft.Message, 256),
	}
}

// Listen starts accepting inbound connections in the background.
func (t *Transport) Listen() error {
	ln, err := net.Listen("tcp", t.listenAddr)
	if err != nil {
		return fmt.Errorf("rafttransport: listening on %s: %w", t.listenAddr, err)
	}
	t.ln = ln
	go t.acceptLoop()
	return nil
}

// Close stops accepting connections and closes any open peer
// connections.
func (t *Transport) Close() error {
	if t.ln != nil {
		t.ln.Close()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.conns {
		c.Close()
	}
	return nil
}

// Inbound returns the channel of messages received from peers.
func (t *Transport) Inbound() <-chan raft.Message {
	return t.inbound
}

func (t *Transport) acceptLoop() {
	for {
		conn, err := t.ln.Accept()
		if err != nil {
			return
		}
		go t.readLoop(conn)
	}
}

func (t *Transport) readLoop(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		msg, err := ReadMessage(r)
		if err != nil {
			if err != io.EOF {
				log.Warn("read failed", "err", err)
			}
			return
		}
		// A sender whose id is not in our configured peer set is a
		// one-shot client (cmd/raft-shell): remember its connection so
		// Send can deliver the eventual RespondState/RespondError
		// reply on the same socket instead of trying to dial it back.
		if msg.From != nil {
			if _, isPeer := t.peers[*msg.From]; !isPeer {
				t.mu.Lock()
				t.clientConns[*msg.From] = conn
				t.mu.Unlock()
			}
		}
		t.inbound <- msg
	}
}

// Send delivers msg to its To peer. Send is best-effort: a dial or
// write failure is logged and dropped, matching the at-most-once,
// retried-by-the-next-tick delivery semantics message passing in this
// core assumes.
func (t *Transport) Send(msg raft.Message) {
	if msg.To == nil {
		for id := range t.peers {
			m := msg
			m.To = &id
			t.Send(m)
		}
		return
	}

	t.mu.Lock()
	clientConn, isClient := t.clientConns[*msg.To]
	if isClient {
		delete(t.clientConns, *msg.To)
	}
	t.mu.Unlock()
	if isClient {
		if err := WriteMessage(clientConn, msg); err != nil {
			log.Warn("writing client reply failed", "to", string(*msg.To), "err", err)
		}
		return
	}

	conn, err := t.dial(*msg.To)
	if err != nil {
		log.Warn("dial failed", "peer", string(*msg.To), "err", err)
		return
	}
	if err := WriteMessage(conn, msg); err != nil {
		log.Warn("write failed", "peer", string(*msg.To), "err", err)
		t.mu.Lock()
		delete(t.conns, *msg.To)
		t.mu.Unlock()
		conn.Close()
	}
}

func (t *Transport) dial(id raft.NodeID) (net.Conn, error) {
	t.mu.Lock()
	if c, ok := t.conns[id]; ok {
		t.mu.Unlock()
		return c, nil
	}
	t.mu.Unlock()

	addr, ok := t.peers[id]
	if !ok {
		return nil, fmt.Errorf("unknown peer %q", id)
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.conns[id] = conn
	t.mu.Unlock()
	return conn, nil
}

// wireEvent mirrors raft.Event but replaces the RespondError event's
// `error` field, which encoding/json cannot round-trip through an
// interface, with a plain string.
type wireEvent struct {
	Heartbeat        *raft.EventHeartbeat
	ConfirmLeader    *raft.EventConfirmLeader
	SolicitVote      *raft.EventSolicitVote
	GrantVote        *raft.EventGrantVote
	ReplicateEntries *raft.EventReplicateEntries
	AcceptEntries    *raft.EventAcceptEntries
	RejectEntries    *raft.EventRejectEntries
	QueryState       *raft.EventQueryState
	MutateState      *raft.EventMutateState
	RespondState     *raft.EventRespondState
	RespondError     *string
}

type wireMessage struct {
	From  *raft.NodeID
	To    *raft.NodeID
	Term  raft.Term
	Event wireEvent
}

func toWireEvent(e raft.Event) wireEvent {
	we := wireEvent{
		Heartbeat:        e.Heartbeat,
		ConfirmLeader:    e.ConfirmLeader,
		SolicitVote:      e.SolicitVote,
		GrantVote:        e.GrantVote,
		ReplicateEntries: e.ReplicateEntries,
		AcceptEntries:    e.AcceptEntries,
		RejectEntries:    e.RejectEntries,
		QueryState:       e.QueryState,
		MutateState:      e.MutateState,
		RespondState:     e.RespondState,
	}
	if e.RespondError != nil {
		msg := e.RespondError.Error.Error()
		we.RespondError = &msg
	}
	return we
}

func fromWireEvent(we wireEvent) raft.Event {
	e := raft.Event{
		Heartbeat:        we.Heartbeat,
		ConfirmLeader:    we.ConfirmLeader,
		SolicitVote:      we.SolicitVote,
		GrantVote:        we.GrantVote,
		ReplicateEntries: we.ReplicateEntries,
		AcceptEntries:    we.AcceptEntries,
		RejectEntries:    we.RejectEntries,
		QueryState:       we.QueryState,
		MutateState:      we.MutateState,
		RespondState:     we.RespondState,
	}
	if we.RespondError != nil {
		e.RespondError = &raft.EventRespondError{Error: fmt.Errorf("%s", *we.RespondError)}
	}
	return e
}

// WriteMessage writes a single length-prefixed, JSON-encoded message
// to w. Exported for standalone clients (cmd/raft-shell) that speak
// this wire format without running the full Transport.
func WriteMessage(w io.Writer, msg raft.Message) error {
	wm := wireMessage{From: msg.From, To: msg.To, Term: msg.Term, Event: toWireEvent(msg.Event)}
	data, err := json.Marshal(wm)
	if err != nil {
		return err
	}
	if len(data) > maxMessageSize {
		return fmt.Errorf("message too large: %d bytes", len(data))
	}
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(data)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadMessage reads a single length-prefixed, JSON-encoded message
// from r.
func ReadMessage(r io.Reader) (raft.Message, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return raft.Message{}, err
	}
	size := binary.BigEndian.Uint32(header)
	if size > maxMessageSize {
		return raft.Message{}, fmt.Errorf("rafttransport: message too large: %d bytes", size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return raft.Message{}, err
	}
	var wm wireMessage
	if err := json.Unmarshal(body, &wm); err != nil {
		return raft.Message{}, err
	}
	return raft.Message{From: wm.From, To: wm.To, Term: wm.Term, Event: fromWireEvent(wm.Event)}, nil
}

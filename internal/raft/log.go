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

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/emberkv/raft/internal/rafterrors"
	"github.com/emberkv/raft/internal/wireenc"
)

// Entry is a single log record: a term and an opaque command that
// State knows how to apply.
type Entry struct {
	Term    Term
	Command []byte
}

// Log is the durable, append-only sequence of Entries for one node,
// together with its commit and apply cursors. Index 0 means "before
// the first entry"; the first real entry is at Index 1.
//
// Grounded on the teacher's RaftNode fields (log []LogEntry,
// commitIndex, lastApplied) from cluster/raft.go, rebuilt atop Storage
// instead of an in-process slice so that restart recovers state.
type Log struct {
	mu sync.Mutex

	storage     Storage
	state       State
	lastIndex   Index
	lastTerm    Term
	commitIndex Index
	applyIndex  Index
}

// NewLog loads (or initializes) a Log from storage, replaying any
// persisted entries to find the current last index/term.
func NewLog(storage Storage, state State) (*Log, error) {
	l := &Log{storage: storage, state: state}

	commitBytes, ok, err := storage.Get(namespaceLog, metaKeyCommitIndex)
	if err != nil {
		return nil, rafterrors.NewInternalError(err)
	}
	if ok {
		l.commitIndex = Index(binary.BigEndian.Uint64(commitBytes))
	}

	it, err := storage.Scan(namespaceLog, entryKeyPrefix(0), nil)
	if err != nil {
		return nil, rafterrors.NewInternalError(err)
	}
	defer it.Close()
	for it.Next() {
		// Entry keys are fixed 8-byte big-endian indices; the
		// namespace also holds the variable-length commit_index meta
		// key, which this scan must skip rather than misread as an
		// entry.
		if len(it.Key()) != 8 {
			continue
		}
		idx := decodeEntryKey(it.Key())
		if idx > l.lastIndex {
			e, err := wireenc.DecodeEntry(it.Value())
			if err != nil {
				return nil, rafterrors.NewParseError("decoding entry %d", idx).WithCause(err)
			}
			l.lastIndex = idx
			l.lastTerm = Term(e.Term)
		}
	}
	if err := it.Error(); err != nil {
		return nil, err
	}

	l.applyIndex = 0
	return l, nil
}

var metaKeyCommitIndex = []byte("commit_index")

func entryKeyPrefix(idx Index) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(idx))
	return k
}

func decodeEntryKey(k []byte) Index {
	return Index(binary.BigEndian.Uint64(k))
}

// LastIndex returns the index of the last entry, or 0 if the log is
// empty.
func (l *Log) LastIndex() Index {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastIndex
}

// LastTerm returns the term of the last entry, or 0 if the log is
// empty.
func (l *Log) LastTerm() Term {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastTerm
}

// CommitIndex returns the highest index known to be committed.
func (l *Log) CommitIndex() Index {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.commitIndex
}

// Get returns the entry at idx, if present.
func (l *Log) Get(idx Index) (Entry, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.getLocked(idx)
}

func (l *Log) getLocked(idx Index) (Entry, bool, error) {
	if idx == 0 || idx > l.lastIndex {
		return Entry{}, false, nil
	}
	data, ok, err := l.storage.Get(namespaceLog, entryKeyPrefix(idx))
	if err != nil || !ok {
		return Entry{}, false, err
	}
	we, err := wireenc.DecodeEntry(data)
	if err != nil {
		return Entry{}, false, err
	}
	return Entry{Term: Term(we.Term), Command: we.Command}, true, nil
}

// TermAt returns the term of the entry at idx, or 0 if idx is 0.
func (l *Log) TermAt(idx Index) (Term, error) {
	if idx == 0 {
		return 0, nil
	}
	e, ok, err := l.Get(idx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, rafterrors.NewValueError("no entry at index %d", idx)
	}
	return e.Term, nil
}

// EntriesFrom returns every entry at or after start (inclusive),
// in order.
func (l *Log) EntriesFrom(start Index) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if start == 0 {
		start = 1
	}
	var out []Entry
	for idx := start; idx <= l.lastIndex; idx++ {
		e, ok, err := l.getLocked(idx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, rafterrors.NewInternalError(fmt.Errorf("gap in log at index %d", idx))
		}
		out = append(out, e)
	}
	return out, nil
}

// Append persists one new entry at the end of the log and returns its
// index. Persistence happens synchronously, before Append returns.
func (l *Log) Append(term Term, command []byte) (Index, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.lastIndex + 1
	data, err := wireenc.EncodeEntry(wireenc.Entry{Term: uint64(term), Command: command})
	if err != nil {
		return 0, err
	}
	if err := l.storage.Set(namespaceLog, entryKeyPrefix(idx), data); err != nil {
		return 0, err
	}
	l.lastIndex = idx
	l.lastTerm = term
	return idx, nil
}

// Splice overwrites the log starting at baseIndex+1 with entries,
// truncating any conflicting suffix first. It is the follower-side
// counterpart of a leader's ReplicateEntries.
func (l *Log) Splice(baseIndex Index, entries []Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lastIndex > baseIndex {
		if err := l.truncateFromLocked(baseIndex + 1); err != nil {
			return err
		}
	}

	idx := baseIndex
	for _, e := range entries {
		idx++
		data, err := wireenc.EncodeEntry(wireenc.Entry{Term: uint64(e.Term), Command: e.Command})
		if err != nil {
			return err
		}
		if err := l.storage.Set(namespaceLog, entryKeyPrefix(idx), data); err != nil {
			return err
		}
		l.lastIndex = idx
		l.lastTerm = e.Term
	}
	return nil
}

func (l *Log) truncateFromLocked(from Index) error {
	for idx := from; idx <= l.lastIndex; idx++ {
		if err := l.storage.Delete(namespaceLog, entryKeyPrefix(idx)); err != nil {
			return err
		}
	}
	if from == 1 {
		l.lastIndex = 0
		l.lastTerm = 0
		return nil
	}
	e, ok, err := l.getLocked(from - 1)
	if err != nil {
		return err
	}
	l.lastIndex = from - 1
	if ok {
		l.lastTerm = e.Term
	} else {
		l.lastTerm = 0
	}
	return nil
}

// Commit advances the commit index to idx, persisting the new value.
// idx must not exceed LastIndex.
func (l *Log) Commit(idx Index) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx <= l.commitIndex || idx > l.lastIndex {
		return nil
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(idx))
	if err := l.storage.Set(namespaceLog, metaKeyCommitIndex, buf); err != nil {
		return err
	}
	l.commitIndex = idx
	return nil
}

// Apply runs State.Apply on every committed entry not yet applied,
// returning the results in order.
func (l *Log) Apply() ([][]byte, error) {
	l.mu.Lock()
	commit := l.commitIndex
	start := l.applyIndex + 1
	l.mu.Unlock()

	var results [][]byte
	for idx := start; idx <= commit; idx++ {
		e, ok, err := l.Get(idx)
		if err != nil {
			return results, err
		}
		if !ok {
			return results, rafterrors.NewInternalError(fmt.Errorf("missing committed entry at index %d", idx))
		}
		res, err := l.state.Apply(e.Command)
		if err != nil {
			return results, err
		}
		results = append(results, res)

		l.mu.Lock()
		l.applyIndex = idx
		l.mu.Unlock()
	}
	return results, nil
}

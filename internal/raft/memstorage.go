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
	"bytes"
	"sort"
	"sync"
)

// MemStorage is a non-durable, sorted in-memory Storage used for
// deterministic tests. Production nodes use a real backend such as
// boltstorage.Storage.
type MemStorage struct {
	mu   sync.Mutex
	data map[string]map[string][]byte
}

// NewMemStorage returns an empty MemStorage.
func NewMemStorage() *MemStorage {
	return &MemStorage{data: make(map[string]map[string][]byte)}
}

func (m *MemStorage) ns(namespace string) map[string][]byte {
	ns, ok := m.data[namespace]
	if !ok {
		ns = make(map[string][]byte)
		m.data[namespace] = ns
	}
	return ns
}

// Get implements Storage.
func (m *MemStorage) Get(namespace string, key []byte) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.ns(namespace)[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set implements Storage.
func (m *MemStorage) Set(namespace string, key []byte, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.ns(namespace)[string(key)] = v
	return nil
}

// Delete implements Storage.
func (m *MemStorage) Delete(namespace string, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ns(namespace), string(key))
	return nil
}

// Scan implements Storage.
func (m *MemStorage) Scan(namespace string, start, end []byte) (Iterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns := m.ns(namespace)
	keys := make([]string, 0, len(ns))
	for k := range ns {
		kb := []byte(k)
		if start != nil && bytes.Compare(kb, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(kb, end) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([][2][]byte, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, [2][]byte{[]byte(k), ns[k]})
	}
	return &memIterator{pairs: pairs, idx: -1}, nil
}

// Close implements Storage.
func (m *MemStorage) Close() error { return nil }

type memIterator struct {
	pairs [][2][]byte
	idx   int
}

func (it *memIterator) Next() bool {
	it.idx++
	return it.idx < len(it.pairs)
}

func (it *memIterator) Key() []byte   { return it.pairs[it.idx][0] }
func (it *memIterator) Value() []byte { return it.pairs[it.idx][1] }
func (it *memIterator) Error() error  { return nil }
func (it *memIterator) Close() error  { return nil }

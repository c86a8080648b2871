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

// Storage is an opaque durable byte map with ordered key-range
// iteration and atomic point writes. Log persists entries and the
// commit index through it; RoleNode persists the current term and
// vote through it. Two namespaces are used: "meta" for the term
// record and "log" for entries and the commit index.
//
// Grounded on the teacher's storage.Engine (Put/Get/Delete/Scan/Close)
// — the same four-operation shape, split into namespaces instead of a
// single flat keyspace since this core has exactly two logical
// tables.
type Storage interface {
	// Get returns the value for key in namespace, and whether it was
	// present.
	Get(namespace string, key []byte) ([]byte, bool, error)

	// Set durably writes key to value in namespace. It returns only
	// after the write is persisted.
	Set(namespace string, key []byte, value []byte) error

	// Delete removes key from namespace, if present.
	Delete(namespace string, key []byte) error

	// Scan returns an Iterator over keys in namespace within
	// [start, end) in ascending order. A nil end means "to the end of
	// the namespace".
	Scan(namespace string, start, end []byte) (Iterator, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Iterator ranges over ordered key/value pairs. Callers must call
// Next before the first Key/Value access, and should Close when done.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

const (
	namespaceMeta = "meta"
	namespaceLog  = "log"
)

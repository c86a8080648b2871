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

// State is the deterministic application target for committed log
// entries. Every node in a cluster must reach the same State given
// the same sequence of committed commands, for any command Apply
// chooses to accept.
type State interface {
	// Apply executes command against the state machine and returns
	// its result; Log.Apply collects these results in order.
	Apply(command []byte) ([]byte, error)

	// Read executes a read-only command without mutating state.
	Read(command []byte) ([]byte, error)
}

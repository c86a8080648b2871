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
Package rafterrors defines the error taxonomy produced by the raft core
and its collaborators.

Error Kinds:
  - Config: invalid construction parameters.
  - Internal: I/O, serialization, channel, or persistence failures. Fatal
    for the node.
  - Parse: malformed persisted data surfaced by the storage layer.
  - Value: otherwise-invalid data that isn't a parse failure.
  - ReadOnly / Serialization: reserved for an overlying transaction
    layer; the raft core never produces these directly.

Protocol-level failures (stale term, mismatched base index) are never
represented as errors here — they are legitimate events with defined
responses and are handled inline by the role state machine.
*/
package rafterrors

import "fmt"

// ErrorKind identifies the category of a RaftError.
type ErrorKind int

const (
	Config ErrorKind = iota
	Internal
	Parse
	Value
	ReadOnly
	Serialization
)

func (k ErrorKind) String() string {
	switch k {
	case Config:
		return "CONFIG"
	case Internal:
		return "INTERNAL"
	case Parse:
		return "PARSE"
	case Value:
		return "VALUE"
	case ReadOnly:
		return "READONLY"
	case Serialization:
		return "SERIALIZATION"
	default:
		return "UNKNOWN"
	}
}

// RaftError is the error type produced by the raft core and its
// storage/log collaborators.
type RaftError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *RaftError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *RaftError) Unwrap() error {
	return e.Cause
}

// WithCause attaches a causing error and returns the receiver.
func (e *RaftError) WithCause(cause error) *RaftError {
	e.Cause = cause
	return e
}

// NewConfigError reports an invalid construction parameter.
func NewConfigError(format string, args ...interface{}) *RaftError {
	return &RaftError{Kind: Config, Message: fmt.Sprintf(format, args...)}
}

// NewInternalError wraps a fatal I/O, codec, or persistence failure.
func NewInternalError(cause error) *RaftError {
	return &RaftError{Kind: Internal, Message: "internal error", Cause: cause}
}

// NewParseError reports malformed persisted data.
func NewParseError(format string, args ...interface{}) *RaftError {
	return &RaftError{Kind: Parse, Message: fmt.Sprintf(format, args...)}
}

// NewValueError reports an invalid value that is not a parse failure.
func NewValueError(format string, args ...interface{}) *RaftError {
	return &RaftError{Kind: Value, Message: fmt.Sprintf(format, args...)}
}

// ErrReadOnly is reserved for an overlying transaction layer; the raft
// core never returns it itself.
var ErrReadOnly = &RaftError{Kind: ReadOnly, Message: "read-only transaction"}

// ErrSerialization is reserved for an overlying transaction layer; the
// raft core never returns it itself.
var ErrSerialization = &RaftError{Kind: Serialization, Message: "serialization failure, retry transaction"}

// Is reports whether err is a *RaftError of the given kind.
func Is(err error, kind ErrorKind) bool {
	re, ok := err.(*RaftError)
	return ok && re.Kind == kind
}

// Kind returns the ErrorKind of err, or -1 if err is not a *RaftError.
func Kind(err error) ErrorKind {
	if re, ok := err.(*RaftError); ok {
		return re.Kind
	}
	return -1
}

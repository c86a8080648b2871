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
Package wireenc encodes log entries for durable storage as a small
TLV-style binary record: a magic byte, a format version, a flags byte
(bit 0 marks a compressed payload), a big-endian length, and the
payload.

The framing mirrors the teacher's client wire protocol (magic byte,
version, header-then-body), narrowed to the one record shape a raft
log needs to persist: a term and an opaque command.
*/
package wireenc

import (
	"encoding/binary"
	"fmt"

	"github.com/emberkv/raft/internal/entrycompress"
)

const (
	magicByte      byte = 0xE7
	formatVersion  byte = 1
	headerSize          = 1 + 1 + 1 + 4 // magic + version + flags + length
)

const (
	flagCompressed byte = 1 << 0
)

// Entry is the on-disk shape of a raft log entry.
type Entry struct {
	Term    uint64
	Command []byte
}

// EncodeEntry serializes e into a framed record. A body (8-byte term
// plus command) at or above the compression package's threshold is
// compressed when that makes it smaller.
func EncodeEntry(e Entry) ([]byte, error) {
	body := make([]byte, 8+len(e.Command))
	binary.BigEndian.PutUint64(body[:8], e.Term)
	copy(body[8:], e.Command)

	payload := body
	var flags byte
	if compressed, ok := entrycompress.MaybeCompress(body); ok {
		payload = compressed
		flags = flagCompressed
	}

	out := make([]byte, headerSize+len(payload))
	out[0] = magicByte
	out[1] = formatVersion
	out[2] = flags
	binary.BigEndian.PutUint32(out[3:7], uint32(len(payload)))
	copy(out[headerSize:], payload)
	return out, nil
}

// DecodeEntry parses a record produced by EncodeEntry.
func DecodeEntry(data []byte) (Entry, error) {
	if len(data) < headerSize {
		return Entry{}, fmt.Errorf("wireenc: record too short: %d bytes", len(data))
	}
	if data[0] != magicByte {
		return Entry{}, fmt.Errorf("wireenc: bad magic byte 0x%02x", data[0])
	}
	if data[1] != formatVersion {
		return Entry{}, fmt.Errorf("wireenc: unsupported format version %d", data[1])
	}
	flags := data[2]
	length := binary.BigEndian.Uint32(data[3:7])
	payload := data[headerSize:]
	if uint32(len(payload)) != length {
		return Entry{}, fmt.Errorf("wireenc: length mismatch: header says %d, got %d", length, len(payload))
	}

	body := payload
	if flags&flagCompressed != 0 {
		decompressed, err := entrycompress.Decompress(payload)
		if err != nil {
			return Entry{}, fmt.Errorf("wireenc: decompressing record: %w", err)
		}
		body = decompressed
	}

	if len(body) < 8 {
		return Entry{}, fmt.Errorf("wireenc: decoded body too short: %d bytes", len(body))
	}
	term := binary.BigEndian.Uint64(body[:8])
	// An empty command decodes as nil, so a no-op entry round-trips as
	// a nil Command.
	var command []byte
	if len(body) > 8 {
		command = make([]byte, len(body)-8)
		copy(command, body[8:])
	}
	return Entry{Term: term, Command: command}, nil
}

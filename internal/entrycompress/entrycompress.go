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
Package entrycompress compresses large log entry payloads before they
are persisted. The teacher's own compression package (internal/compression)
names Snappy, LZ4, and Zstd as supported algorithms but only ever
wires the stdlib gzip path against them; this package wires all three
against their real libraries.

A one-byte algorithm tag prefixes every compressed payload so a record
written under one configured Algorithm can still be decompressed after
the algorithm is reconfigured.
*/
package entrycompress

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm selects the compression codec used for new records.
type Algorithm byte

const (
	// None disables compression entirely.
	None Algorithm = iota
	// Snappy is fast with modest ratio; good default for hot paths.
	Snappy
	// LZ4 trades a little ratio for very low latency.
	LZ4
	// Zstd gives the best ratio at higher CPU cost.
	Zstd
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Snappy:
		return "snappy"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// defaultMinSize is the smallest payload, in bytes, worth paying
// compression overhead for.
const defaultMinSize = 256

var (
	activeAlgorithm atomic.Int32
	minSize         atomic.Int64
)

func init() {
	activeAlgorithm.Store(int32(Snappy))
	minSize.Store(defaultMinSize)
}

// Configure sets the process-wide algorithm and minimum size
// threshold used by MaybeCompress.
func Configure(alg Algorithm, min int) {
	activeAlgorithm.Store(int32(alg))
	minSize.Store(int64(min))
}

var zstdEncoderOnce sync.Once
var zstdEncoder *zstd.Encoder
var zstdDecoderOnce sync.Once
var zstdDecoder *zstd.Decoder

func getZstdEncoder() *zstd.Encoder {
	zstdEncoderOnce.Do(func() {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			panic(fmt.Sprintf("entrycompress: initializing zstd encoder: %v", err))
		}
		zstdEncoder = enc
	})
	return zstdEncoder
}

func getZstdDecoder() *zstd.Decoder {
	zstdDecoderOnce.Do(func() {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			panic(fmt.Sprintf("entrycompress: initializing zstd decoder: %v", err))
		}
		zstdDecoder = dec
	})
	return zstdDecoder
}

// MaybeCompress compresses data using the configured algorithm if it
// is at least the configured minimum size and compression actually
// shrinks it. It returns (compressed, true) or (nil, false) when the
// caller should keep the original payload uncompressed.
func MaybeCompress(data []byte) ([]byte, bool) {
	alg := Algorithm(activeAlgorithm.Load())
	if alg == None || len(data) < int(minSize.Load()) {
		return nil, false
	}

	var body []byte
	switch alg {
	case Snappy:
		body = snappy.Encode(nil, data)
	case LZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, false
		}
		if err := w.Close(); err != nil {
			return nil, false
		}
		body = buf.Bytes()
	case Zstd:
		body = getZstdEncoder().EncodeAll(data, nil)
	default:
		return nil, false
	}

	if len(body)+1 >= len(data) {
		return nil, false
	}
	out := make([]byte, 1+len(body))
	out[0] = byte(alg)
	copy(out[1:], body)
	return out, true
}

// Decompress reverses MaybeCompress, reading the algorithm tag from
// the first byte of data.
func Decompress(data []byte) ([]byte, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("entrycompress: empty payload")
	}
	alg := Algorithm(data[0])
	body := data[1:]

	switch alg {
	case Snappy:
		return snappy.Decode(nil, body)
	case LZ4:
		r := lz4.NewReader(bytes.NewReader(body))
		return io.ReadAll(r)
	case Zstd:
		return getZstdDecoder().DecodeAll(body, nil)
	default:
		return nil, fmt.Errorf("entrycompress: unknown algorithm tag %d", alg)
	}
}

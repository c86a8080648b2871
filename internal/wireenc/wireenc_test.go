/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package wireenc

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e := Entry{Term: 7, Command: []byte("hello world")}
	data, err := EncodeEntry(e)
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}
	got, err := DecodeEntry(data)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	if got.Term != e.Term || !bytes.Equal(got.Command, e.Command) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, e)
	}
}

func TestEncodeDecodeEmptyCommand(t *testing.T) {
	e := Entry{Term: 1, Command: nil}
	data, err := EncodeEntry(e)
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}
	got, err := DecodeEntry(data)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	if got.Term != 1 || len(got.Command) != 0 {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestEncodeDecodeLargeCommandIsCompressed(t *testing.T) {
	e := Entry{Term: 3, Command: []byte(strings.Repeat("ab", 1000))}
	data, err := EncodeEntry(e)
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}
	if len(data) >= len(e.Command) {
		t.Errorf("expected compressed record to be smaller than raw command: %d vs %d", len(data), len(e.Command))
	}
	got, err := DecodeEntry(data)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	if !bytes.Equal(got.Command, e.Command) {
		t.Errorf("decompressed command mismatch")
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	data, err := EncodeEntry(Entry{Term: 1, Command: []byte("x")})
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}
	data[0] = 0x00
	if _, err := DecodeEntry(data); err == nil {
		t.Error("expected error decoding record with bad magic byte")
	}
}

func TestDecodeRejectsShortRecord(t *testing.T) {
	if _, err := DecodeEntry([]byte{1, 2}); err == nil {
		t.Error("expected error decoding too-short record")
	}
}

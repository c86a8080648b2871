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

// Command raft-dump prints the persisted term, vote, and log entries
// of a node's storage file, for offline inspection after a crash or
// during support.
//
// Grounded on the teacher's cmd/flydb-dump, which opens a storage
// engine read-only and prints its contents; this tool narrows that to
// the two namespaces this core's Storage uses.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"github.com/emberkv/raft/internal/boltstorage"
	"github.com/emberkv/raft/internal/wireenc"
)

func main() {
	dbPath := flag.String("db", "", "path to a node's raft.db storage file")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: raft-dump -db <path to raft.db>")
		os.Exit(2)
	}

	storage, err := boltstorage.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening %s: %v\n", *dbPath, err)
		os.Exit(1)
	}
	defer storage.Close()

	if data, ok, _ := storage.Get("meta", []byte("term")); ok {
		fmt.Printf("term:       %d\n", binary.BigEndian.Uint64(data))
	} else {
		fmt.Println("term:       0 (never persisted)")
	}
	if data, ok, _ := storage.Get("meta", []byte("voted_for")); ok {
		fmt.Printf("voted_for:  %s\n", string(data))
	} else {
		fmt.Println("voted_for:  (none)")
	}
	if data, ok, _ := storage.Get("log", []byte("commit_index")); ok {
		fmt.Printf("commit_index: %d\n", binary.BigEndian.Uint64(data))
	} else {
		fmt.Println("commit_index: 0")
	}

	fmt.Println("entries:")
	it, err := storage.Scan("log", nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scanning log: %v\n", err)
		os.Exit(1)
	}
	defer it.Close()

	count := 0
	for it.Next() {
		key := it.Key()
		if len(key) != 8 || string(key) == "commit_index" {
			continue
		}
		idx := binary.BigEndian.Uint64(key)
		entry, err := wireenc.DecodeEntry(it.Value())
		if err != nil {
			fmt.Printf("  [%d] <decode error: %v>\n", idx, err)
			continue
		}
		fmt.Printf("  [%d] term=%d command=%q\n", idx, entry.Term, entry.Command)
		count++
	}
	fmt.Printf("(%d entries)\n", count)
}

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
Package peerdiscovery finds the addresses of a fixed, already-known
peer set on the local network via mDNS, for use while filling in a
node's configuration before it ever starts the raft core.

This is bootstrap discovery only: it runs once, before the node's
first Tick, to resolve Config.Peers entries that name a node id but
not yet a reachable address. It is not a membership-change mechanism —
the peer set itself is never altered once the core starts, matching
the fixed-peer-set non-goal the core is built around. The teacher's
own mdns usage (cluster/membership.go, cmd/flydb-discover) drives a
continuously running gossip membership protocol; that part is not
carried forward.
*/
package peerdiscovery

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceName is the mDNS service type raft nodes advertise and
// browse for.
const ServiceName = "_emberraft._tcp"

// Advertise registers this node's service record so peers running
// Discover can find it. The returned server should be shut down once
// discovery is complete; it is not needed while the raft core runs.
func Advertise(nodeID, host string, port int) (*mdns.Server, error) {
	info := []string{nodeID}
	service, err := mdns.NewMDNSService(nodeID, ServiceName, "", "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("peerdiscovery: building service record: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("peerdiscovery: starting mdns server: %w", err)
	}
	return server, nil
}

// Discover browses the local network for up to timeout for nodes
// advertising ServiceName, returning a map of node id to "host:port"
// address for every peer it found. It does not block waiting for
// every expected peer; callers retry Discover until their peer set is
// fully resolved or give up.
func Discover(timeout time.Duration) (map[string]string, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	found := make(map[string]string)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for e := range entries {
			if e == nil {
				continue
			}
			id := e.Name
			if len(e.InfoFields) > 0 {
				id = e.InfoFields[0]
			}
			found[id] = e.Addr.String() + ":" + strconv.Itoa(e.Port)
		}
	}()

	params := mdns.DefaultParams(ServiceName)
	params.Entries = entries
	params.Timeout = timeout
	if err := mdns.Query(params); err != nil {
		close(entries)
		return nil, fmt.Errorf("peerdiscovery: querying: %w", err)
	}
	close(entries)
	<-done
	return found, nil
}

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
Package config loads and validates the configuration surface of a raft
node process: its own id, its fixed peer set, storage location, and
tick tuning. Precedence is env > file > built-in defaults.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Env var names used for configuration overrides.
const (
	EnvNodeID         = "EMBERRAFT_NODE_ID"
	EnvListenAddr     = "EMBERRAFT_LISTEN_ADDR"
	EnvDataDir        = "EMBERRAFT_DATA_DIR"
	EnvLogLevel       = "EMBERRAFT_LOG_LEVEL"
	EnvLogJSON        = "EMBERRAFT_LOG_JSON"
	EnvHeartbeatTicks = "EMBERRAFT_HEARTBEAT_TICKS"
)

// Config is the full configuration surface for a raft node process.
type Config struct {
	NodeID     string            `toml:"node_id"`
	ListenAddr string            `toml:"listen_addr"`
	Peers      map[string]string `toml:"peers"` // node id -> address
	DataDir    string            `toml:"data_dir"`

	ElectionTimeoutMinTicks uint64 `toml:"election_timeout_min_ticks"`
	ElectionTimeoutMaxTicks uint64 `toml:"election_timeout_max_ticks"`
	HeartbeatIntervalTicks  uint64 `toml:"heartbeat_interval_ticks"`
	TickIntervalMillis      uint64 `toml:"tick_interval_ms"`

	LogLevel string `toml:"log_level"`
	LogJSON  bool    `toml:"log_json"`

	ConfigFile string `toml:"-"`
}

// DefaultConfig returns a Config with sensible standalone defaults.
func DefaultConfig() *Config {
	return &Config{
		NodeID:                  "",
		ListenAddr:              "0.0.0.0:9420",
		Peers:                   map[string]string{},
		DataDir:                 "./data/raft",
		ElectionTimeoutMinTicks: 10,
		ElectionTimeoutMaxTicks: 20,
		HeartbeatIntervalTicks:  3,
		TickIntervalMillis:      100,
		LogLevel:                "info",
		LogJSON:                 false,
	}
}

// Validate enforces the constraints spec.md §6 places on construction:
// HeartbeatInterval < ElectionTimeoutMin <= ElectionTimeoutMax, a
// non-empty peer set that does not contain the node's own id, a
// non-empty data directory, and a known log level.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("node_id must not be empty")
	}
	if len(c.Peers) == 0 {
		return fmt.Errorf("peers must not be empty")
	}
	if _, ok := c.Peers[c.NodeID]; ok {
		return fmt.Errorf("peers must not contain this node's own id %q", c.NodeID)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.HeartbeatIntervalTicks == 0 {
		return fmt.Errorf("heartbeat_interval_ticks must be positive")
	}
	if c.ElectionTimeoutMinTicks == 0 || c.ElectionTimeoutMaxTicks == 0 {
		return fmt.Errorf("election timeout ticks must be positive")
	}
	if c.HeartbeatIntervalTicks >= c.ElectionTimeoutMinTicks {
		return fmt.Errorf("heartbeat_interval_ticks (%d) must be less than election_timeout_min_ticks (%d)",
			c.HeartbeatIntervalTicks, c.ElectionTimeoutMinTicks)
	}
	if c.ElectionTimeoutMinTicks > c.ElectionTimeoutMaxTicks {
		return fmt.Errorf("election_timeout_min_ticks (%d) must be <= election_timeout_max_ticks (%d)",
			c.ElectionTimeoutMinTicks, c.ElectionTimeoutMaxTicks)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// String renders a human-readable summary of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("NodeID: %s, ListenAddr: %s, DataDir: %s, Peers: %d, LogLevel: %s",
		c.NodeID, c.ListenAddr, c.DataDir, len(c.Peers), c.LogLevel)
}

// ToTOML renders the configuration as a TOML document.
func (c *Config) ToTOML() string {
	data, err := toml.Marshal(c)
	if err != nil {
		return ""
	}
	return string(data)
}

// SaveToFile writes the configuration as TOML to path, creating parent
// directories as needed.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(c.ToTOML()), 0o644)
}

// Manager owns the active Config and reload callbacks.
type Manager struct {
	mu       sync.RWMutex
	cfg      *Config
	onReload []func(*Config)
}

// NewManager returns a Manager seeded with DefaultConfig.
func NewManager() *Manager {
	return &Manager{cfg: DefaultConfig()}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// LoadFromFile replaces the managed configuration with the defaults
// overlaid by the TOML at path. Env overrides applied earlier are not
// kept; the caller re-applies them with LoadFromEnv.
func (m *Manager) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	cfg.ConfigFile = path

	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
	return nil
}

// LoadFromEnv overrides fields of the managed configuration from
// environment variables, when set.
func (m *Manager) LoadFromEnv() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v := os.Getenv(EnvNodeID); v != "" {
		m.cfg.NodeID = v
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		m.cfg.ListenAddr = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		m.cfg.DataDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		m.cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			m.cfg.LogJSON = b
		}
	}
	if v := os.Getenv(EnvHeartbeatTicks); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			m.cfg.HeartbeatIntervalTicks = n
		}
	}
}

// Reload re-reads the configuration from its originating file, if any,
// and invokes registered reload callbacks.
func (m *Manager) Reload() error {
	m.mu.RLock()
	path := m.cfg.ConfigFile
	m.mu.RUnlock()
	if path == "" {
		return fmt.Errorf("no config file to reload from")
	}
	if err := m.LoadFromFile(path); err != nil {
		return err
	}
	m.mu.RLock()
	cfg := m.cfg
	callbacks := append([]func(*Config){}, m.onReload...)
	m.mu.RUnlock()
	for _, cb := range callbacks {
		cb(cfg)
	}
	return nil
}

// OnReload registers a callback invoked after a successful Reload.
func (m *Manager) OnReload(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReload = append(m.onReload, fn)
}

var (
	globalOnce sync.Once
	globalMgr  *Manager
)

// Global returns the process-wide configuration Manager, creating it
// on first use.
func Global() *Manager {
	globalOnce.Do(func() {
		globalMgr = NewManager()
	})
	return globalMgr
}

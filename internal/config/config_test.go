/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ListenAddr != "0.0.0.0:9420" {
		t.Errorf("Expected default listen_addr '0.0.0.0:9420', got '%s'", cfg.ListenAddr)
	}
	if cfg.DataDir != "./data/raft" {
		t.Errorf("Expected default data_dir './data/raft', got '%s'", cfg.DataDir)
	}
	if cfg.HeartbeatIntervalTicks != 3 {
		t.Errorf("Expected default heartbeat_interval_ticks 3, got %d", cfg.HeartbeatIntervalTicks)
	}
	if cfg.ElectionTimeoutMinTicks != 10 || cfg.ElectionTimeoutMaxTicks != 20 {
		t.Errorf("Expected default election timeout [10, 20), got [%d, %d)",
			cfg.ElectionTimeoutMinTicks, cfg.ElectionTimeoutMaxTicks)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log_level 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.LogJSON != false {
		t.Errorf("Expected default log_json false, got %v", cfg.LogJSON)
	}
}

func TestConfigValidation(t *testing.T) {
	base := func() *Config {
		cfg := DefaultConfig()
		cfg.NodeID = "a"
		cfg.Peers = map[string]string{"b": "localhost:1", "c": "localhost:2"}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"empty node id", func(c *Config) { c.NodeID = "" }, true},
		{"empty peers", func(c *Config) { c.Peers = map[string]string{} }, true},
		{"self in peers", func(c *Config) { c.Peers["a"] = "localhost:3" }, true},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
		{"zero heartbeat", func(c *Config) { c.HeartbeatIntervalTicks = 0 }, true},
		{"heartbeat not less than min timeout", func(c *Config) {
			c.HeartbeatIntervalTicks = 10
			c.ElectionTimeoutMinTicks = 10
		}, true},
		{"min greater than max", func(c *Config) {
			c.ElectionTimeoutMinTicks = 30
			c.ElectionTimeoutMaxTicks = 20
		}, true},
		{"invalid log level", func(c *Config) { c.LogLevel = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "emberraft_config_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configContent := `node_id = "a"
listen_addr = "127.0.0.1:9001"
data_dir = "/tmp/raft-a"
log_level = "debug"
log_json = true

[peers]
b = "127.0.0.1:9002"
c = "127.0.0.1:9003"
`
	configPath := filepath.Join(tmpDir, "raft.toml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	mgr := NewManager()
	if err := mgr.LoadFromFile(configPath); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	cfg := mgr.Get()
	if cfg.NodeID != "a" {
		t.Errorf("Expected node_id 'a', got '%s'", cfg.NodeID)
	}
	if cfg.ListenAddr != "127.0.0.1:9001" {
		t.Errorf("Expected listen_addr '127.0.0.1:9001', got '%s'", cfg.ListenAddr)
	}
	if len(cfg.Peers) != 2 {
		t.Errorf("Expected 2 peers, got %d", len(cfg.Peers))
	}
	if cfg.LogJSON != true {
		t.Errorf("Expected log_json true, got %v", cfg.LogJSON)
	}
	if cfg.ConfigFile != configPath {
		t.Errorf("Expected ConfigFile '%s', got '%s'", configPath, cfg.ConfigFile)
	}
}

func TestLoadFromEnv(t *testing.T) {
	origNodeID := os.Getenv(EnvNodeID)
	origLogLevel := os.Getenv(EnvLogLevel)
	origLogJSON := os.Getenv(EnvLogJSON)
	defer func() {
		os.Setenv(EnvNodeID, origNodeID)
		os.Setenv(EnvLogLevel, origLogLevel)
		os.Setenv(EnvLogJSON, origLogJSON)
	}()

	os.Setenv(EnvNodeID, "b")
	os.Setenv(EnvLogLevel, "debug")
	os.Setenv(EnvLogJSON, "true")

	mgr := NewManager()
	mgr.LoadFromEnv()

	cfg := mgr.Get()
	if cfg.NodeID != "b" {
		t.Errorf("Expected node_id 'b' from env, got '%s'", cfg.NodeID)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log_level 'debug' from env, got '%s'", cfg.LogLevel)
	}
	if cfg.LogJSON != true {
		t.Errorf("Expected log_json true from env, got %v", cfg.LogJSON)
	}
}

func TestConfigPrecedence(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "emberraft_config_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configContent := `node_id = "a"
log_level = "info"

[peers]
b = "localhost:1"
`
	configPath := filepath.Join(tmpDir, "raft.toml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	origLogLevel := os.Getenv(EnvLogLevel)
	defer os.Setenv(EnvLogLevel, origLogLevel)
	os.Setenv(EnvLogLevel, "error")

	mgr := NewManager()
	if err := mgr.LoadFromFile(configPath); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	mgr.LoadFromEnv()

	cfg := mgr.Get()
	if cfg.LogLevel != "error" {
		t.Errorf("Expected log_level 'error' (env override), got '%s'", cfg.LogLevel)
	}
}

func TestSaveAndReload(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "emberraft_config_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	cfg := DefaultConfig()
	cfg.NodeID = "a"
	cfg.Peers = map[string]string{"b": "localhost:1"}

	configPath := filepath.Join(tmpDir, "subdir", "raft.toml")
	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	mgr := NewManager()
	if err := mgr.LoadFromFile(configPath); err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if mgr.Get().NodeID != "a" {
		t.Errorf("Expected node_id 'a', got '%s'", mgr.Get().NodeID)
	}

	reloadCalled := false
	mgr.OnReload(func(c *Config) { reloadCalled = true })

	cfg2 := mgr.Get()
	cfg2.LogLevel = "debug"
	if err := cfg2.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}
	if err := mgr.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if mgr.Get().LogLevel != "debug" {
		t.Errorf("Expected reloaded log_level 'debug', got '%s'", mgr.Get().LogLevel)
	}
	if !reloadCalled {
		t.Error("Reload callback was not called")
	}
}

func TestGlobalManager(t *testing.T) {
	mgr := Global()
	if mgr == nil {
		t.Error("Global() returned nil")
	}
	if mgr2 := Global(); mgr != mgr2 {
		t.Error("Global() returned different instances")
	}
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NodeID = "a"
	str := cfg.String()

	if !strings.Contains(str, "NodeID:") {
		t.Error("String() missing NodeID")
	}
	if !strings.Contains(str, "a") {
		t.Error("String() missing node id value")
	}
}

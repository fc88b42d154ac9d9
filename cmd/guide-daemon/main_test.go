package main

import (
	"path/filepath"
	"strings"
	"testing"

	"siloso/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		APIKey:   "sk-test",
		STT:      "openai",
		Voice:    "alloy",
		HTTPAddr: "off",
		Socket:   filepath.Join(t.TempDir(), "guide.sock"),
		LogLevel: "error",
	}
}

func TestRun_MissingProfile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Profile = filepath.Join(t.TempDir(), "missing.yaml")

	err := run(cfg)
	if err == nil || !strings.Contains(err.Error(), "load profile") {
		t.Fatalf("expected profile error, got %v", err)
	}
}

func TestRun_SocketFailureReturnsError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Socket = filepath.Join(t.TempDir(), "no-such-dir", "guide.sock")

	err := run(cfg)
	if err == nil || !strings.Contains(err.Error(), "ipc server") {
		t.Fatalf("expected ipc error, got %v", err)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WebsocketPort != defaultWebsocketPort {
		t.Fatalf("unexpected default port: %s", cfg.WebsocketPort)
	}
	if cfg.WatchdogPeriod != defaultWatchdogPeriod {
		t.Fatalf("unexpected default watchdog period: %s", cfg.WatchdogPeriod)
	}
	if cfg.TLSEnabled() {
		t.Fatal("expected TLS disabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	body := "websocket_port: \"0.0.0.0:7447\"\nwatchdog_period: 2s\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WebsocketPort != "0.0.0.0:7447" {
		t.Fatalf("unexpected port: %s", cfg.WebsocketPort)
	}
	if cfg.WatchdogPeriod != 2*time.Second {
		t.Fatalf("unexpected watchdog period: %s", cfg.WatchdogPeriod)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
}

func TestLoadNormalizesBareWebsocketPort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	body := "websocket_port: 8080\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WebsocketPort != "[::]:8080" {
		t.Fatalf("unexpected port: %s", cfg.WebsocketPort)
	}
}

func TestLoadNormalizesBareWebsocketPortAsString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.json")
	body := `{"websocket_port": "8080"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WebsocketPort != "[::]:8080" {
		t.Fatalf("unexpected port: %s", cfg.WebsocketPort)
	}
}

func TestValidateRejectsHalfConfiguredTLS(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	body := "secure_websocket:\n  certificate_path: /tmp/cert.pem\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for half-configured TLS")
	}
}

func TestAsMapRoundTripsFields(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m := cfg.AsMap()
	if m["websocket_port"] != cfg.WebsocketPort {
		t.Fatalf("unexpected map: %+v", m)
	}
}

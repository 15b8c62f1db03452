package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig("/tmp/taleloom")

	if cfg.BaseDir != "/tmp/taleloom" {
		t.Errorf("BaseDir = %q", cfg.BaseDir)
	}
	if cfg.LogDir != filepath.Join("/tmp/taleloom", "log") {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if cfg.Store.Type != "sqlite" {
		t.Errorf("Store.Type = %q, want sqlite", cfg.Store.Type)
	}
	if cfg.Sender.Type != "simulated" || cfg.Sender.LatencyMS != 400 {
		t.Errorf("Sender = %+v", cfg.Sender)
	}
	if cfg.Auth.TokenTTLMinutes != 7*24*60 {
		t.Errorf("TokenTTLMinutes = %d", cfg.Auth.TokenTTLMinutes)
	}
	if cfg.Auth.CodeEverySeconds != 30 || cfg.Auth.CodeBurst != 3 {
		t.Errorf("code throttle = %d/%d", cfg.Auth.CodeEverySeconds, cfg.Auth.CodeBurst)
	}
	if cfg.Command.TimeoutSeconds != 10 {
		t.Errorf("TimeoutSeconds = %d", cfg.Command.TimeoutSeconds)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := NewConfig("/tmp/taleloom")
	cfg.Store.Type = "memory"
	cfg.Sender.Type = "ses"
	cfg.Sender.Region = "eu-west-1"
	cfg.Sender.FromEmail = "stories@example.com"
	cfg.Plans = map[string]PlanConfig{
		"free": {Name: "Starter", MonthlyStoryLimit: 10, DailyStoryLimit: 2},
	}

	var buf bytes.Buffer
	m := &Manager{}
	if err := m.Write(&buf, cfg); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got.Store.Type != "memory" {
		t.Errorf("Store.Type = %q", got.Store.Type)
	}
	if got.Sender.Region != "eu-west-1" || got.Sender.FromEmail != "stories@example.com" {
		t.Errorf("Sender = %+v", got.Sender)
	}
	plan, ok := got.Plans["free"]
	if !ok {
		t.Fatal("plan override lost in round trip")
	}
	if plan.Name != "Starter" || plan.MonthlyStoryLimit != 10 {
		t.Errorf("plan = %+v", plan)
	}
}

func TestReadInvalidConfig(t *testing.T) {
	m := &Manager{}
	if _, err := m.Read(strings.NewReader("store = [broken")); err == nil {
		t.Error("Read accepted invalid TOML")
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "taleloom.toml")
	cfg := NewConfig("/tmp/taleloom")

	if err := Init(path, cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	got, err := ReadFromFile(path)
	if err != nil {
		t.Fatalf("ReadFromFile: %v", err)
	}
	if got.BaseDir != cfg.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, cfg.BaseDir)
	}

	// Init refuses to clobber an existing file.
	if err := Init(path, cfg); err == nil {
		t.Error("Init overwrote an existing config")
	}
}

func TestReadFromFileMissing(t *testing.T) {
	if _, err := ReadFromFile(filepath.Join(t.TempDir(), "absent.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFromFile(missing) = %v, want not-exist", err)
	}
}

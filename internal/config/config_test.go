package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tpu.cfg")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadParsesRecognizedOptions(t *testing.T) {
	path := writeTempConfig(t, "CLOCKFREQ 4000000\nMEMORYLOG /tmp/mem.log\nTRACE 0x3\n# a comment\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ClockHz != 4000000 {
		t.Errorf("ClockHz = %d, expected: 4000000", cfg.ClockHz)
	}
	if cfg.MemoryLog != "/tmp/mem.log" {
		t.Errorf("MemoryLog = %q, expected: /tmp/mem.log", cfg.MemoryLog)
	}
	if cfg.TraceMask != 3 {
		t.Errorf("TraceMask = %d, expected: 3", cfg.TraceMask)
	}
}

func TestLoadRejectsUnknownOption(t *testing.T) {
	path := writeTempConfig(t, "BOGUS value\n")
	if _, err := Load(path); err == nil {
		t.Error("expected an error for an unrecognized option")
	}
}

func TestLoadIgnoresBlankAndCommentLines(t *testing.T) {
	path := writeTempConfig(t, "\n; full-line comment\nCLOCKFREQ 10 ; trailing comment\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ClockHz != 10 {
		t.Errorf("ClockHz = %d, expected: 10", cfg.ClockHz)
	}
}

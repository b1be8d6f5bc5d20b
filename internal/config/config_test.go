package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	v, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := v.GetDuration("jobs.template_status_timeout"); got != time.Minute {
		t.Errorf("template_status_timeout = %v, want 1m", got)
	}
	if got := v.GetDuration("jobs.dhparam_timeout"); got != 20*time.Minute {
		t.Errorf("dhparam_timeout = %v, want 20m", got)
	}
	if got := v.GetInt("jobs.max_concurrent"); got != 8 {
		t.Errorf("max_concurrent = %d, want 8", got)
	}
	if v.GetBool("debug") {
		t.Error("debug must default to false")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleetd.yaml")
	content := "jobs:\n  max_concurrent: 2\ndebug: true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	v, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := v.GetInt("jobs.max_concurrent"); got != 2 {
		t.Errorf("max_concurrent = %d, want 2", got)
	}
	if !v.GetBool("debug") {
		t.Error("debug override not applied")
	}
	// Untouched keys keep their defaults.
	if got := v.GetDuration("jobs.dhparam_timeout"); got != 20*time.Minute {
		t.Errorf("dhparam_timeout = %v, want default", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestSub_MissingSection(t *testing.T) {
	v, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sub := New(v).Sub("adoption")
	if sub == nil {
		t.Fatal("Sub must never return nil")
	}
	if sub.GetString("secret") != "" {
		t.Error("empty section must read zero values")
	}
}

func TestNewLogger_Formats(t *testing.T) {
	v, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, format := range []string{"json", "console"} {
		v.Set("logging.format", format)
		if _, err := NewLogger(v); err != nil {
			t.Errorf("NewLogger(%s): %v", format, err)
		}
	}

	v.Set("logging.format", "xml")
	if _, err := NewLogger(v); err == nil {
		t.Error("unknown format must fail")
	}

	v.Set("logging.format", "json")
	v.Set("logging.level", "verbose")
	if _, err := NewLogger(v); err == nil {
		t.Error("unknown level must fail")
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Limit int    `yaml:"limit"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "gallery")
	p := writeConfig(t, "name: ${SAMPLE_NAME}\nport: 9000\n")

	cfg := sample{Limit: 7}
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "gallery" || cfg.Port != 9000 || cfg.Limit != 7 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_ValidationFails(t *testing.T) {
	p := writeConfig(t, "port: 0\n")
	var cfg sample
	if err := Load(p, &cfg); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	p := writeConfig(t, "port: [\n")
	var cfg sample
	if err := Load(p, &cfg); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg := sample{Port: 8080}
	read, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"), &cfg)
	if err != nil || read {
		t.Fatalf("missing file: read=%v err=%v", read, err)
	}
	if cfg.Port != 8080 {
		t.Errorf("defaults changed: %+v", cfg)
	}

	p := writeConfig(t, "port: 81\n")
	read, err = LoadOrDefault(p, &cfg)
	if err != nil || !read || cfg.Port != 81 {
		t.Fatalf("existing file: read=%v err=%v cfg=%+v", read, err, cfg)
	}

	bad := sample{}
	if _, err := LoadOrDefault("", &bad); err == nil {
		t.Fatal("invalid defaults should still fail validation")
	}
}

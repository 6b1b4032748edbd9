package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/haivivi/voiceid/cmd/voiceid/internal/config"
)

func TestLoadFromMissingFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.DBDir != filepath.Join(dir, "db") {
		t.Fatalf("DBDir = %q", cfg.DBDir)
	}
	if cfg.Threshold != 0.5 {
		t.Fatalf("Threshold = %v", cfg.Threshold)
	}
	if cfg.Listen == "" {
		t.Fatal("Listen not defaulted")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := "db_dir: /var/lib/voiceid\nmodel_tag: ecapa-v2\nthreshold: 0.72\nlisten: \":9000\"\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := config.LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.DBDir != "/var/lib/voiceid" || cfg.ModelTag != "ecapa-v2" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Threshold != 0.72 || cfg.Listen != ":9000" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default(dir)
	cfg.ModelTag = "ecapa-v2"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := config.LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.ModelTag != "ecapa-v2" {
		t.Fatalf("ModelTag = %q", loaded.ModelTag)
	}
}

func TestLoadFromBadYAML(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(":\nnot yaml: ["), 0o644)
	if _, err := config.LoadFrom(dir); err == nil {
		t.Fatal("bad yaml accepted")
	}
}

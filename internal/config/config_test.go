package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.AuthorSeparator != " and " {
		t.Errorf("AuthorSeparator = %q", cfg.AuthorSeparator)
	}
	if cfg.AuthorFormat != "{au[family]}, {au[given]}" {
		t.Errorf("AuthorFormat = %q", cfg.AuthorFormat)
	}
	if cfg.RefFormat != "{doc[author]}{doc[year]}" {
		t.Errorf("RefFormat = %q", cfg.RefFormat)
	}
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.RefFormat != Default().RefFormat {
		t.Errorf("RefFormat = %q", cfg.RefFormat)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Default()
	cfg.RefFormat = "{doc[title]:.10}"
	cfg.CrossrefMailto = "dev@example.org"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.RefFormat != "{doc[title]:.10}" {
		t.Errorf("RefFormat = %q", got.RefFormat)
	}
	if got.CrossrefMailto != "dev@example.org" {
		t.Errorf("CrossrefMailto = %q", got.CrossrefMailto)
	}
	// Unset fields keep their defaults.
	if got.AuthorSeparator != " and " {
		t.Errorf("AuthorSeparator = %q", got.AuthorSeparator)
	}
}

func TestLoadFromInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ref-format: [broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CROSSREF_MAILTO", "env@example.org")
	t.Setenv("BIBFLOW_LIBRARY", "/tmp/env-library.db")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.CrossrefMailto != "env@example.org" {
		t.Errorf("CrossrefMailto = %q", cfg.CrossrefMailto)
	}
	if cfg.Library != "/tmp/env-library.db" {
		t.Errorf("Library = %q", cfg.Library)
	}
	if cfg.LibraryPath() != "/tmp/env-library.db" {
		t.Errorf("LibraryPath = %q", cfg.LibraryPath())
	}
}

func TestPathEnvOverride(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.yaml")
	if got := Path(); got != "/tmp/custom.yaml" {
		t.Errorf("Path = %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandPath("~/docs"); got != filepath.Join(home, "docs") {
		t.Errorf("ExpandPath(~/docs) = %q", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandPath(/abs/path) = %q", got)
	}
}

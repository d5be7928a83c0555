package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func testLoader(home, work string, env map[string]string) *Loader {
	l := NewLoader(nil)
	l.homeDir = home
	l.workDir = work
	l.lookupEnv = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	return l
}

func TestLoaderDefaults(t *testing.T) {
	cfg, err := testLoader(t.TempDir(), t.TempDir(), nil).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.KB.Strategy != "reparent" {
		t.Errorf("expected default strategy, got %s", cfg.KB.Strategy)
	}
}

func TestLoaderPrecedence(t *testing.T) {
	home := t.TempDir()
	root := t.TempDir()
	work := filepath.Join(root, "sub", "dir")
	if err := os.MkdirAll(work, 0755); err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(home, UserConfigDir, UserConfigFile), `
log:
  level: warn
  format: json
kb:
  strategy: merge
neo4j:
  username: alice
`)
	// Found by walking up from the working directory.
	writeFile(t, filepath.Join(root, ProjectConfigFile), `
log:
  level: debug
nats:
  url: nats://project:4222
`)
	writeFile(t, filepath.Join(work, EnvFile), `
SEMKB_NATS_URL=nats://dotenv:4222
SEMKB_NEO4J_PASSWORD=from-file
SEMKB_KB_STRATEGY=reparent
`)

	env := map[string]string{
		"SEMKB_KB_STRATEGY": "merge",
		"SEMKB_NEO4J_URI":   "bolt://env:7687",
	}

	cfg, err := testLoader(home, work, env).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("project config should override user log level, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("user config format should survive, got %s", cfg.Log.Format)
	}
	if cfg.NATS.URL != "nats://dotenv:4222" {
		t.Errorf(".env should override project nats url, got %s", cfg.NATS.URL)
	}
	if cfg.KB.Strategy != "merge" {
		t.Errorf("process environment should override .env, got %s", cfg.KB.Strategy)
	}
	if cfg.Neo4j.URI != "bolt://env:7687" || cfg.Neo4j.Password != "from-file" || cfg.Neo4j.Username != "alice" {
		t.Errorf("unexpected neo4j section %+v", cfg.Neo4j)
	}
}

func TestLoaderRejectsInvalidResult(t *testing.T) {
	env := map[string]string{"SEMKB_LOG_LEVEL": "loud"}
	if _, err := testLoader(t.TempDir(), t.TempDir(), env).Load(); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoaderMalformedProjectConfig(t *testing.T) {
	work := t.TempDir()
	writeFile(t, filepath.Join(work, ProjectConfigFile), "log: [")
	if _, err := testLoader(t.TempDir(), work, nil).Load(); err == nil {
		t.Error("expected parse error for malformed project config")
	}
}

func TestEnsureUserConfig(t *testing.T) {
	home := t.TempDir()
	l := testLoader(home, t.TempDir(), nil)

	if err := l.EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}
	path := filepath.Join(home, UserConfigDir, UserConfigFile)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("created config unreadable: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("created config invalid: %v", err)
	}

	// Existing files are left alone.
	writeFile(t, path, "log:\n  level: error\n")
	if err := l.EnsureUserConfig(); err != nil {
		t.Fatal(err)
	}
	cfg, _ = LoadFromFile(path)
	if cfg.Log.Level != "error" {
		t.Errorf("existing user config was overwritten")
	}
}

package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `{
		"chunkSizes": [128, 256],
		"tokenCounts": [512],
		"iterations": 5,
		"numLayers": 4,
		"useMemory": true,
		"storeTimeoutSeconds": 10
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.ChunkSizes) != 2 || cfg.ChunkSizes[0] != 128 {
		t.Fatalf("chunk sizes: %v", cfg.ChunkSizes)
	}
	if cfg.Iterations != 5 || cfg.NumLayers != 4 {
		t.Fatalf("iterations/layers: %d/%d", cfg.Iterations, cfg.NumLayers)
	}
	if !cfg.UseMemory {
		t.Fatal("useMemory not decoded")
	}
	if cfg.StoreTimeout() != 10*time.Second {
		t.Fatalf("store timeout: %v", cfg.StoreTimeout())
	}
	if cfg.ConfigPath != path {
		t.Fatalf("config path: %q", cfg.ConfigPath)
	}
	// Untouched fields keep their defaults.
	if cfg.ProfilerType != "cpu" {
		t.Fatalf("profiler type default: %q", cfg.ProfilerType)
	}
}

func TestLoadMissingDefaultPathUsesDefaults(t *testing.T) {
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := Default()
	if cfg.Iterations != def.Iterations || cfg.NumLayers != def.NumLayers {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for explicitly named missing file")
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"wrong type":       `{"chunkSizes": "256"}`,
		"unknown property": `{"chunkSises": [256]}`,
		"bad enum":         `{"profilerType": "pyinstrument"}`,
		"negative":         `{"iterations": -1}`,
	}
	for name, content := range cases {
		path := writeConfig(t, content)
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected schema rejection for %s", name, content)
		}
	}
}

func TestValidateSemanticConstraints(t *testing.T) {
	cfg := Default()
	cfg.ChunkSizes = nil
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "chunk size") {
		t.Fatalf("expected chunk size error, got %v", err)
	}

	cfg = Default()
	cfg.TokenCounts = []int{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected token count error")
	}

	cfg = Default()
	cfg.Iterations = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected iterations error")
	}
}

func TestDurationFallbacks(t *testing.T) {
	var cfg Config
	if cfg.StoreTimeout() != 30*time.Second {
		t.Fatalf("store timeout fallback: %v", cfg.StoreTimeout())
	}
	if cfg.SettleDelay() != 2*time.Second {
		t.Fatalf("settle delay fallback: %v", cfg.SettleDelay())
	}
	if cfg.Cooldown() != time.Second {
		t.Fatalf("cooldown fallback: %v", cfg.Cooldown())
	}
	if cfg.ProfilingSleep() != 0 {
		t.Fatalf("profiling sleep fallback: %v", cfg.ProfilingSleep())
	}
	if cfg.LogFilePath() != "chunkbench.log" {
		t.Fatalf("log file fallback: %q", cfg.LogFilePath())
	}
}

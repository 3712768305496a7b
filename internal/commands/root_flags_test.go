package chunkbench

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/benchkit/chunkbench/internal/logging"
)

func resetFlag(cmdFlag string) {
	flag := rootCmd.PersistentFlags().Lookup(cmdFlag)
	if flag == nil {
		return
	}
	_ = flag.Value.Set(flag.DefValue)
	flag.Changed = false
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestPersistentPreRunEUsesFlagValues(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "chunkbench.log")
	configPath := writeTempConfig(t, "{}")

	prevCfgFile := cfgFile
	cfgFile = configPath
	t.Cleanup(func() { cfgFile = prevCfgFile })
	t.Cleanup(func() { _ = logging.Close() })

	for _, name := range []string{"debug", "logFile", "tui"} {
		resetFlag(name)
	}
	_ = rootCmd.PersistentFlags().Set("debug", "true")
	_ = rootCmd.PersistentFlags().Set("tui", "true")
	_ = rootCmd.PersistentFlags().Set("logFile", logPath)

	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err != nil {
		t.Fatalf("PersistentPreRunE error: %v", err)
	}

	cfg := GetConfig()
	if cfg == nil || cfg.ConfigPath != configPath {
		t.Fatalf("expected config loaded with path %s", configPath)
	}
	if !cfg.Debug || !cfg.TUI {
		t.Fatalf("expected flag values to flow into config: %+v", cfg)
	}
	if cfg.LogFile != logPath {
		t.Fatalf("expected logFile set, got %s", cfg.LogFile)
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Fatalf("logger did not create the log file: %v", err)
	}
}

func TestPersistentPreRunERejectsBadConfig(t *testing.T) {
	configPath := writeTempConfig(t, `{"profilerType": "pyinstrument"}`)

	prevCfgFile := cfgFile
	cfgFile = configPath
	t.Cleanup(func() { cfgFile = prevCfgFile })

	for _, name := range []string{"debug", "logFile", "tui"} {
		resetFlag(name)
	}

	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err == nil {
		t.Fatal("expected error for a config that fails schema validation")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func noFlags(configPath string) GlobalFlags {
	return GlobalFlags{ConfigPath: configPath, Speed: -1}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	settings, err := Load(noFlags(filepath.Join(t.TempDir(), "missing.yaml")))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.OutputMode != "json" || settings.Speed != 1 || settings.GasPriceGwei != 20 {
		t.Fatalf("unexpected defaults: %+v", settings)
	}
	if settings.TickInterval != 5*time.Second {
		t.Fatalf("unexpected tick interval: %s", settings.TickInterval)
	}
	if filepath.Base(settings.StorePath) != "workflow.db" || filepath.Base(filepath.Dir(settings.StorePath)) != "composer" {
		t.Fatalf("unexpected store path: %s", settings.StorePath)
	}
}

func TestLoadPrecedenceFlagsOverEnvOverFile(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	body := "output: plain\nsimulation:\n  speed: 2\n  fault_stage: submitting\nprices:\n  tick_interval: 1s\n  gas_price_gwei: 35\npolicy:\n  max_blocks: 4\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("COMPOSER_OUTPUT", "json")
	t.Setenv("COMPOSER_SPEED", "0.5")
	t.Setenv("COMPOSER_MAX_BLOCKS", "9")
	flags := noFlags(configPath)
	flags.Plain = true
	flags.Speed = 0.25
	settings, err := Load(flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.OutputMode != "plain" {
		t.Fatalf("expected flag to win, got output=%s", settings.OutputMode)
	}
	if settings.Speed != 0.25 {
		t.Fatalf("expected speed from flags, got %v", settings.Speed)
	}
	if settings.MaxBlocks != 9 {
		t.Fatalf("expected env to override file, got %d", settings.MaxBlocks)
	}
	if settings.FaultStage != "submitting" || settings.GasPriceGwei != 35 || settings.TickInterval != time.Second {
		t.Fatalf("expected file values, got %+v", settings)
	}
}

func TestLoadInstantFlag(t *testing.T) {
	flags := noFlags(filepath.Join(t.TempDir(), "missing.yaml"))
	flags.Instant = true
	settings, err := Load(flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.Speed != 0 {
		t.Fatalf("expected instant speed 0, got %v", settings.Speed)
	}

	flags.Speed = 2
	if _, err := Load(flags); err == nil {
		t.Fatal("expected error with --instant and --speed")
	}
}

func TestLoadValidation(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	flags := noFlags(missing)
	flags.JSON, flags.Plain = true, true
	if _, err := Load(flags); err == nil {
		t.Fatal("expected error with --json and --plain")
	}

	flags = noFlags(missing)
	flags.LogLevel = "loud"
	if _, err := Load(flags); err == nil {
		t.Fatal("expected error for unknown log level")
	}

	flags = noFlags(missing)
	flags.LogFormat = "xml"
	if _, err := Load(flags); err == nil {
		t.Fatal("expected error for unknown log format")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("prices:\n  tick_interval: soon\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(noFlags(configPath)); err == nil {
		t.Fatal("expected tick interval parse error")
	}
}

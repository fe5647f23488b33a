package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type GlobalFlags struct {
	ConfigPath     string
	JSON           bool
	Plain          bool
	Select         string
	ResultsOnly    bool
	EnableCommands string
	Instant        bool
	// Speed is the simulation delay multiplier; negative means unset.
	Speed     float64
	LogLevel  string
	LogFormat string
}

type Settings struct {
	OutputMode     string
	SelectFields   []string
	ResultsOnly    bool
	EnableCommands []string
	LogLevel       string
	LogFormat      string
	Speed          float64
	FaultStage     string
	TickInterval   time.Duration
	GasPriceGwei   float64
	WalletAddress  string
	StorePath      string
	StoreLockPath  string
	ExportDir      string
	MaxBlocks      int
	MaxValueUSD    float64
}

type fileConfig struct {
	Output     string `yaml:"output"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
	Simulation struct {
		Speed      *float64 `yaml:"speed"`
		FaultStage string   `yaml:"fault_stage"`
	} `yaml:"simulation"`
	Prices struct {
		TickInterval string   `yaml:"tick_interval"`
		GasPriceGwei *float64 `yaml:"gas_price_gwei"`
	} `yaml:"prices"`
	Wallet struct {
		Address string `yaml:"address"`
	} `yaml:"wallet"`
	Store struct {
		Path     string `yaml:"path"`
		LockPath string `yaml:"lock_path"`
	} `yaml:"store"`
	Export struct {
		Dir string `yaml:"dir"`
	} `yaml:"export"`
	Policy struct {
		MaxBlocks   *int     `yaml:"max_blocks"`
		MaxValueUSD *float64 `yaml:"max_value_usd"`
	} `yaml:"policy"`
}

func Load(flags GlobalFlags) (Settings, error) {
	settings, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}

	if err := applyFileConfig(cfgPath, &settings); err != nil {
		return Settings{}, err
	}

	applyEnv(&settings)

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if settings.TickInterval <= 0 {
		settings.TickInterval = 5 * time.Second
	}
	if settings.GasPriceGwei <= 0 {
		settings.GasPriceGwei = 20
	}
	if settings.Speed < 0 {
		settings.Speed = 1
	}
	return settings, nil
}

func defaultSettings() (Settings, error) {
	storePath, lockPath, err := defaultStorePaths()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		OutputMode:    "json",
		LogLevel:      "info",
		LogFormat:     "text",
		Speed:         1,
		TickInterval:  5 * time.Second,
		GasPriceGwei:  20,
		StorePath:     storePath,
		StoreLockPath: lockPath,
		ExportDir:     ".",
	}, nil
}

func resolveConfigPath(input string) (string, error) {
	if strings.TrimSpace(input) != "" {
		return input, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "composer", "config.yaml"), nil
}

func defaultStorePaths() (string, string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "composer")
	return filepath.Join(dir, "workflow.db"), filepath.Join(dir, "workflow.lock"), nil
}

func applyFileConfig(path string, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.Output != "" {
		settings.OutputMode = strings.ToLower(cfg.Output)
	}
	if cfg.LogLevel != "" {
		settings.LogLevel = strings.ToLower(cfg.LogLevel)
	}
	if cfg.LogFormat != "" {
		settings.LogFormat = strings.ToLower(cfg.LogFormat)
	}
	if cfg.Simulation.Speed != nil {
		settings.Speed = *cfg.Simulation.Speed
	}
	if cfg.Simulation.FaultStage != "" {
		settings.FaultStage = cfg.Simulation.FaultStage
	}
	if cfg.Prices.TickInterval != "" {
		d, err := time.ParseDuration(cfg.Prices.TickInterval)
		if err != nil {
			return fmt.Errorf("config prices.tick_interval: %w", err)
		}
		settings.TickInterval = d
	}
	if cfg.Prices.GasPriceGwei != nil {
		settings.GasPriceGwei = *cfg.Prices.GasPriceGwei
	}
	if cfg.Wallet.Address != "" {
		settings.WalletAddress = cfg.Wallet.Address
	}
	if cfg.Store.Path != "" {
		settings.StorePath = cfg.Store.Path
	}
	if cfg.Store.LockPath != "" {
		settings.StoreLockPath = cfg.Store.LockPath
	}
	if cfg.Export.Dir != "" {
		settings.ExportDir = cfg.Export.Dir
	}
	if cfg.Policy.MaxBlocks != nil {
		settings.MaxBlocks = *cfg.Policy.MaxBlocks
	}
	if cfg.Policy.MaxValueUSD != nil {
		settings.MaxValueUSD = *cfg.Policy.MaxValueUSD
	}
	return nil
}

func applyEnv(settings *Settings) {
	if v := os.Getenv("COMPOSER_OUTPUT"); v != "" {
		settings.OutputMode = strings.ToLower(v)
	}
	if v := os.Getenv("COMPOSER_LOG_LEVEL"); v != "" {
		settings.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("COMPOSER_LOG_FORMAT"); v != "" {
		settings.LogFormat = strings.ToLower(v)
	}
	if v := os.Getenv("COMPOSER_SPEED"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			settings.Speed = f
		}
	}
	if v := os.Getenv("COMPOSER_FAULT_STAGE"); v != "" {
		settings.FaultStage = v
	}
	if v := os.Getenv("COMPOSER_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.TickInterval = d
		}
	}
	if v := os.Getenv("COMPOSER_GAS_PRICE_GWEI"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			settings.GasPriceGwei = f
		}
	}
	if v := os.Getenv("COMPOSER_WALLET_ADDRESS"); v != "" {
		settings.WalletAddress = v
	}
	if v := os.Getenv("COMPOSER_STORE_PATH"); v != "" {
		settings.StorePath = v
	}
	if v := os.Getenv("COMPOSER_STORE_LOCK_PATH"); v != "" {
		settings.StoreLockPath = v
	}
	if v := os.Getenv("COMPOSER_EXPORT_DIR"); v != "" {
		settings.ExportDir = v
	}
	if v := os.Getenv("COMPOSER_MAX_BLOCKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.MaxBlocks = n
		}
	}
	if v := os.Getenv("COMPOSER_MAX_VALUE_USD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			settings.MaxValueUSD = f
		}
	}
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.JSON && flags.Plain {
		return fmt.Errorf("cannot use --json and --plain together")
	}
	if flags.JSON {
		settings.OutputMode = "json"
	}
	if flags.Plain {
		settings.OutputMode = "plain"
	}
	settings.SelectFields = splitList(flags.Select)
	settings.ResultsOnly = flags.ResultsOnly
	if allowed := splitList(flags.EnableCommands); len(allowed) > 0 {
		settings.EnableCommands = allowed
	}

	if flags.Instant && flags.Speed >= 0 {
		return fmt.Errorf("cannot use --instant and --speed together")
	}
	if flags.Instant {
		settings.Speed = 0
	}
	if flags.Speed >= 0 {
		settings.Speed = flags.Speed
	}
	if flags.LogLevel != "" {
		settings.LogLevel = strings.ToLower(flags.LogLevel)
	}
	if flags.LogFormat != "" {
		settings.LogFormat = strings.ToLower(flags.LogFormat)
	}

	if settings.OutputMode != "json" && settings.OutputMode != "plain" {
		return fmt.Errorf("output must be json or plain")
	}
	switch settings.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn, or error")
	}
	if settings.LogFormat != "text" && settings.LogFormat != "json" {
		return fmt.Errorf("log format must be text or json")
	}
	return nil
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

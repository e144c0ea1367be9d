package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type LeaderboardBackend string

const (
	BackendMemory   LeaderboardBackend = "memory"
	BackendSQLite   LeaderboardBackend = "sqlite"
	BackendPostgres LeaderboardBackend = "postgres"
)

type APIConfig struct {
	Port        string             `env:"PORT"`
	Addr        string             `env:"FINANZSTART_API_ADDR" envDefault:":8080"`
	Leaderboard LeaderboardBackend `env:"FINANZSTART_LEADERBOARD" envDefault:"memory"`
	SQLitePath  string             `env:"FINANZSTART_SQLITE_PATH" envDefault:"finanzstart.db"`
	DatabaseURL string             `env:"DATABASE_URL"`
	JournalDir  string             `env:"FINANZSTART_JOURNAL_DIR"`
	CatalogPath string             `env:"FINANZSTART_CATALOG"`
	LogLevel    string             `env:"FINANZSTART_LOG_LEVEL" envDefault:"info"`

	// Sessions idle longer than SessionIdleTTL are dropped on every sweep.
	SessionIdleTTL   time.Duration `env:"FINANZSTART_SESSION_IDLE_TTL" envDefault:"2h"`
	SweepSchedule    string        `env:"FINANZSTART_SWEEP_SCHEDULE" envDefault:"@every 10m"`
	// Journal files untouched for longer than this are deleted. Zero keeps them.
	JournalRetention time.Duration `env:"FINANZSTART_JOURNAL_RETENTION" envDefault:"720h"`
}

type CLIConfig struct {
	APIBaseURL  string `env:"FS_API_BASE_URL" envDefault:"http://localhost:8080"`
	Home        string `env:"FS_HOME"`
	CatalogPath string `env:"FS_CATALOG"`
	Debug       bool   `env:"FS_DEBUG"`
}

func LoadAPIFromEnv() (APIConfig, error) {
	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if port := strings.TrimSpace(cfg.Port); port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Addr = port
	}
	cfg.Leaderboard = LeaderboardBackend(strings.ToLower(strings.TrimSpace(string(cfg.Leaderboard))))
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)

	switch cfg.Leaderboard {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return cfg, fmt.Errorf("FINANZSTART_SQLITE_PATH is required for the sqlite leaderboard")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("DATABASE_URL is required for the postgres leaderboard")
		}
	default:
		return cfg, fmt.Errorf("FINANZSTART_LEADERBOARD must be memory, sqlite or postgres, got %q", cfg.Leaderboard)
	}
	if cfg.SessionIdleTTL <= 0 {
		return cfg, fmt.Errorf("FINANZSTART_SESSION_IDLE_TTL must be positive")
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadCLIFromEnv() (CLIConfig, error) {
	var cfg CLIConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if strings.TrimSpace(cfg.Home) == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.Home = filepath.Join(home, ".finanzstart")
	}
	return cfg, nil
}

func ParseLogLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("FINANZSTART_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

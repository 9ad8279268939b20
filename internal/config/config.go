package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// StoreConfig selects persistence, locking and game data. DATABASE_URL wins over SQLite.
type StoreConfig struct {
	DatabaseURL string
	SQLitePath  string
	RedisAddr   string
	TuningPath  string
	ContentDir  string
}

type BotConfig struct {
	Token        string
	AppID        string
	GuildID      string
	CommandRate  float64
	CommandBurst int
	Store        StoreConfig
}

type APIConfig struct {
	Addr       string
	AdminToken string
	Store      StoreConfig
}

type WorkerConfig struct {
	SweepEvery time.Duration
	RunOnce    bool
	Store      StoreConfig
}

type CLIConfig struct {
	APIBaseURL string
}

func (s StoreConfig) UsePostgres() bool { return s.DatabaseURL != "" }

func loadStore() StoreConfig {
	return StoreConfig{
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:  envDefault("STARTUPSIM_SQLITE_PATH", "startupsim.db"),
		RedisAddr:   strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		TuningPath:  strings.TrimSpace(os.Getenv("STARTUPSIM_TUNING")),
		ContentDir:  strings.TrimSpace(os.Getenv("STARTUPSIM_CONTENT_DIR")),
	}
}

func LoadBotFromEnv() (BotConfig, error) {
	cfg := BotConfig{
		Token:        strings.TrimSpace(os.Getenv("DISCORD_TOKEN")),
		AppID:        strings.TrimSpace(os.Getenv("DISCORD_APP_ID")),
		GuildID:      strings.TrimSpace(os.Getenv("DISCORD_GUILD_ID")),
		CommandRate:  envFloatDefault("STARTUPSIM_COMMAND_RATE", 1),
		CommandBurst: envIntDefault("STARTUPSIM_COMMAND_BURST", 5),
		Store:        loadStore(),
	}
	if cfg.Token == "" {
		return cfg, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.AppID == "" {
		return cfg, fmt.Errorf("DISCORD_APP_ID is required")
	}
	if cfg.CommandRate <= 0 {
		return cfg, fmt.Errorf("STARTUPSIM_COMMAND_RATE must be > 0")
	}
	return cfg, nil
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("STARTUPSIM_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:       addr,
		AdminToken: strings.TrimSpace(os.Getenv("STARTUPSIM_ADMIN_TOKEN")),
		Store:      loadStore(),
	}
	if cfg.AdminToken == "" {
		return cfg, fmt.Errorf("STARTUPSIM_ADMIN_TOKEN is required")
	}
	return cfg, nil
}

func LoadWorkerFromEnv() WorkerConfig {
	return WorkerConfig{
		SweepEvery: envDurationDefault("STARTUPSIM_SWEEP_EVERY", time.Minute),
		RunOnce:    envBoolDefault("STARTUPSIM_WORKER_RUN_ONCE", false),
		Store:      loadStore(),
	}
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("SIMCTL_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

// LogLevel reads STARTUPSIM_LOG_LEVEL, defaulting to info.
func LogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("STARTUPSIM_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

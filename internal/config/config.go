// Package config provides the configuration schema and loader for ipabot.
package config

import "log/slog"

// LogLevel controls log verbosity for the ipabot process.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level maps l to the corresponding [slog.Level]. Unrecognised or empty
// values map to [slog.LevelInfo].
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Config is the root configuration structure for ipabot.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Discord DiscordConfig `yaml:"discord"`
	Rules   RulesConfig   `yaml:"rules"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig holds network and logging settings for the health/metrics
// HTTP endpoint.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP server listens on.
	// Default: ":8080".
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level"`
}

// DiscordConfig holds Discord connection settings.
type DiscordConfig struct {
	// Token is the Discord bot token.
	Token string `yaml:"token"`

	// OwnerID is the Discord user ID allowed to run privileged commands
	// such as /reload.
	OwnerID string `yaml:"owner_id"`

	// ReplyBudget caps the length, in Unicode code points, of a single
	// transliteration reply. Longer output is truncated. Default and
	// maximum: 2000, the Discord message limit.
	ReplyBudget int `yaml:"reply_budget"`
}

// RulesConfig locates the transliteration rule library.
type RulesConfig struct {
	// Dir is the directory containing rule set YAML documents, loaded in
	// sorted filename order. Default: "rules".
	Dir string `yaml:"dir"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// PostgresDSN is the PostgreSQL connection string for reply
	// bookkeeping, notification channels, and the error log. When empty,
	// an in-memory store is used and bookkeeping does not survive
	// restarts.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// maxReplyBudget is the Discord message length limit in code points.
const maxReplyBudget = 2000

// applyDefaults fills in unset optional fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Rules.Dir == "" {
		cfg.Rules.Dir = "rules"
	}
	if cfg.Discord.ReplyBudget == 0 {
		cfg.Discord.ReplyBudget = maxReplyBudget
	}
}

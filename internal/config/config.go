// Package config loads the Sage runtime configuration with viper: defaults,
// an optional YAML config file, and SAGE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultTCPAddr             = "127.0.0.1:4000"
	defaultAPIAddr             = "0.0.0.0:3000"
	defaultMuxBufferSize       = 50_000
	defaultQueryTimeout        = 30 * time.Second
	defaultInsertBatchSize     = 2000
	defaultInsertFlushInterval = 100 * time.Millisecond
	defaultInsertFlushQueue    = 64
	defaultRecentLimit         = 100
)

// Config is the resolved runtime configuration.
type Config struct {
	TCPEnabled          bool          `mapstructure:"tcp-enabled"`
	TCPAddr             string        `mapstructure:"tcp-addr"`
	MuxBufferSize       int           `mapstructure:"mux-buffer-size"`
	APIEnabled          bool          `mapstructure:"api-enabled"`
	APIAddr             string        `mapstructure:"api-addr"`
	DBPath              string        `mapstructure:"db-path"`
	QueryTimeout        time.Duration `mapstructure:"query-timeout"`
	InsertBatchSize     int           `mapstructure:"insert-batch-size"`
	InsertFlushInterval time.Duration `mapstructure:"insert-flush-interval"`
	InsertFlushQueue    int           `mapstructure:"insert-flush-queue-size"`
	JournalEnabled      bool          `mapstructure:"journal-enabled"`
	JournalPath         string        `mapstructure:"journal-path"`
	RecentLimit         int           `mapstructure:"recent-limit"`
	LogRetention        int           `mapstructure:"log-retention-days"`

	BackupEnabled        bool          `mapstructure:"backup-enabled"`
	BackupInterval       time.Duration `mapstructure:"backup-interval"`
	BackupLocalDir       string        `mapstructure:"backup-local-dir"`
	BackupKeepLast       int           `mapstructure:"backup-keep-last"`
	BackupBucketURL      string        `mapstructure:"backup-bucket-url"`
	BackupS3Endpoint     string        `mapstructure:"backup-s3-endpoint"`
	BackupS3Region       string        `mapstructure:"backup-s3-region"`
	BackupS3AccessKey    string        `mapstructure:"backup-s3-access-key"`
	BackupS3SecretKey    string        `mapstructure:"backup-s3-secret-key"`
	BackupS3SessionToken string        `mapstructure:"backup-s3-session-token"`
	BackupS3UseSSL       bool          `mapstructure:"backup-s3-use-ssl"`

	// HostEnricher toggles the built-in host.name/process.pid enricher.
	HostEnricher bool `mapstructure:"enrich-host"`
	// EnvEnricher maps tag keys to environment variable names resolved at
	// startup by the built-in environment enricher.
	EnvEnricher map[string]string `mapstructure:"enrich-env"`

	// Enrichers holds one section per configured static enricher, in file
	// order. Each section's key/value pairs bind one options snapshot.
	Enrichers []Section `mapstructure:"-"`

	ConfigPath string `mapstructure:"-"` // not from config file
}

// Load reads configuration from configPath (or the default location when
// empty), applying defaults and SAGE_* environment overrides.
func Load(configPath string) (Config, error) {
	var cfg Config

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("SAGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("tcp-enabled", true)
	v.SetDefault("tcp-addr", defaultTCPAddr)
	v.SetDefault("mux-buffer-size", defaultMuxBufferSize)
	v.SetDefault("api-enabled", true)
	v.SetDefault("api-addr", defaultAPIAddr)
	v.SetDefault("db-path", filepath.Join(home, ".local", "share", "sage", "sage.duckdb"))
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("insert-batch-size", defaultInsertBatchSize)
	v.SetDefault("insert-flush-interval", defaultInsertFlushInterval)
	v.SetDefault("insert-flush-queue-size", defaultInsertFlushQueue)
	v.SetDefault("journal-enabled", false)
	v.SetDefault("journal-path", filepath.Join(home, ".local", "share", "sage", "ingest.journal"))
	v.SetDefault("recent-limit", defaultRecentLimit)
	v.SetDefault("log-retention-days", 30)
	v.SetDefault("enrich-host", true)
	v.SetDefault("backup-enabled", false)
	v.SetDefault("backup-interval", 6*time.Hour)
	v.SetDefault("backup-local-dir", filepath.Join(home, ".local", "share", "sage", "backups"))
	v.SetDefault("backup-keep-last", 24)
	v.SetDefault("backup-s3-use-ssl", true)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "sage", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	cfg.Enrichers = parseSections(v.Get("enrichers"))

	if cfg.InsertBatchSize <= 0 {
		return cfg, fmt.Errorf("invalid insert-batch-size: %d", cfg.InsertBatchSize)
	}
	if cfg.MuxBufferSize <= 0 {
		return cfg, fmt.Errorf("invalid mux-buffer-size: %d", cfg.MuxBufferSize)
	}
	if cfg.RecentLimit <= 0 {
		return cfg, fmt.Errorf("invalid recent-limit: %d", cfg.RecentLimit)
	}
	if cfg.BackupEnabled {
		if cfg.BackupInterval <= 0 {
			return cfg, fmt.Errorf("invalid backup-interval: %s", cfg.BackupInterval)
		}
		if cfg.BackupKeepLast <= 0 {
			return cfg, fmt.Errorf("invalid backup-keep-last: %d", cfg.BackupKeepLast)
		}
		if cfg.BackupBucketURL != "" && (cfg.BackupS3AccessKey == "" || cfg.BackupS3SecretKey == "") {
			return cfg, errors.New("backup-s3-access-key and backup-s3-secret-key are required with backup-bucket-url")
		}
	}
	return cfg, nil
}

// Package config loads cpulse settings: thresholds, weights, prices, paths.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all cpulse configuration.
type Config struct {
	General    GeneralConfig     `toml:"general"`
	Thresholds ThresholdsConfig  `toml:"thresholds"`
	Engagement EngagementWeights `toml:"engagement"`
	Clustering ClusteringConfig  `toml:"clustering"`
	Pricing    PricingOverrides  `toml:"pricing"`
	Server     ServerConfig      `toml:"server"`
	Appearance AppearanceConfig  `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultDays int    `toml:"default_days"`
	DBPath      string `toml:"db_path,omitempty"`
	Creator     string `toml:"creator,omitempty"`
}

// ThresholdsConfig holds the session and clustering thresholds as written
// in the config file.
type ThresholdsConfig struct {
	SessionGapMinutes float64 `toml:"session_gap_minutes"`
	Similarity        float64 `toml:"similarity"`
}

// ClusteringConfig holds lexical rewrite rules applied to normalized
// questions before comparison.
type ClusteringConfig struct {
	// Aliases replaces DefaultAliases wholesale when set in the file.
	Aliases map[string]string `toml:"aliases,omitempty"`
	// NoAliases disables phrase rewriting, leaving pure edit distance.
	NoAliases bool `toml:"no_aliases,omitempty"`
}

// AliasTable returns the effective alias table.
func (c ClusteringConfig) AliasTable() map[string]string {
	if c.NoAliases {
		return nil
	}
	return c.Aliases
}

// PricingOverrides allows user-defined pricing for specific models.
type PricingOverrides struct {
	Models map[string]ModelPricingOverride `toml:"models,omitempty"`
}

// ModelPricingOverride holds one model's configured prices.
type ModelPricingOverride struct {
	InputPerMTok  *float64 `toml:"input_per_mtok,omitempty"`
	OutputPerMTok *float64 `toml:"output_per_mtok,omitempty"`
	// EffectiveFrom is an optional YYYY-MM-DD date (UTC).
	EffectiveFrom string `toml:"effective_from,omitempty"`
}

// ServerConfig holds daemon settings.
type ServerConfig struct {
	Addr              string `toml:"addr"`
	RequestTimeoutSec int    `toml:"request_timeout_sec"`
	EventsBuffer      int    `toml:"events_buffer"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultDays: 30,
		},
		Thresholds: ThresholdsConfig{
			SessionGapMinutes: DefaultSessionGap.Minutes(),
			Similarity:        DefaultSimilarityThreshold,
		},
		Engagement: DefaultEngagementWeights(),
		Clustering: ClusteringConfig{
			Aliases: DefaultAliases(),
		},
		Server: ServerConfig{
			Addr:              "127.0.0.1:8788",
			RequestTimeoutSec: 30,
			EventsBuffer:      200,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cpulse")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cpulse")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory holding the database.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "cpulse")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "cpulse")
}

// DBPath resolves the database path: CPULSE_DB, then config, then default.
func DBPath(cfg Config) string {
	if p := os.Getenv("CPULSE_DB"); p != "" {
		return p
	}
	if cfg.General.DBPath != "" {
		return cfg.General.DBPath
	}
	return filepath.Join(DataDir(), "cpulse.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path on top of the defaults.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is user configuration
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	// A file that sets [clustering.aliases] replaces the default table
	// rather than merging into it.
	cfg.Clustering.Aliases = nil
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if !meta.IsDefined("clustering", "aliases") {
		cfg.Clustering.Aliases = DefaultAliases()
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path, creating parent directories.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // path is user configuration
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Validate checks that thresholds, weights, and prices are usable.
func (c Config) Validate() error {
	var errs []error
	if c.Thresholds.SessionGapMinutes <= 0 {
		errs = append(errs, fmt.Errorf("thresholds.session_gap_minutes must be positive, got %v", c.Thresholds.SessionGapMinutes))
	}
	if c.Thresholds.Similarity <= 0 || c.Thresholds.Similarity > 1 {
		errs = append(errs, fmt.Errorf("thresholds.similarity must be in (0, 1], got %v", c.Thresholds.Similarity))
	}
	if err := c.Engagement.Validate(); err != nil {
		errs = append(errs, err)
	}
	for name, o := range c.Pricing.Models {
		if o.InputPerMTok != nil && *o.InputPerMTok < 0 {
			errs = append(errs, fmt.Errorf("pricing.models.%s.input_per_mtok must not be negative", name))
		}
		if o.OutputPerMTok != nil && *o.OutputPerMTok < 0 {
			errs = append(errs, fmt.Errorf("pricing.models.%s.output_per_mtok must not be negative", name))
		}
		if o.EffectiveFrom != "" {
			if _, err := time.Parse("2006-01-02", o.EffectiveFrom); err != nil {
				errs = append(errs, fmt.Errorf("pricing.models.%s.effective_from: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// ThresholdValues converts the file representation into engine thresholds.
func (c Config) ThresholdValues() Thresholds {
	return Thresholds{
		SessionGap: time.Duration(c.Thresholds.SessionGapMinutes * float64(time.Minute)),
		Similarity: c.Thresholds.Similarity,
	}
}

// PriceTable builds the price table from the defaults plus overrides.
// An override for an unknown model must set both prices; missing prices
// of a known model fall back to its default.
func (c Config) PriceTable() *PriceTable {
	pt := DefaultPriceTable()
	for name, o := range c.Pricing.Models {
		base, known := DefaultPricing[name]
		if !known && (o.InputPerMTok == nil || o.OutputPerMTok == nil) {
			continue
		}
		p := base
		if o.InputPerMTok != nil {
			p.InputPerMTok = *o.InputPerMTok
		}
		if o.OutputPerMTok != nil {
			p.OutputPerMTok = *o.OutputPerMTok
		}
		var from time.Time
		if o.EffectiveFrom != "" {
			from, _ = time.Parse("2006-01-02", o.EffectiveFrom)
		}
		pt.Set(name, p, from)
	}
	return pt
}

// Package config provides Viper-based configuration loading for the basecamp service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds top-level server settings.
type ServerConfig struct {
	// Mode selects the store: "standalone" keeps everything in memory, "postgres" uses Database.
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// HTTPConfig holds the HTTP API listener settings.
type HTTPConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// GinMode is passed to gin.SetMode: "debug", "release" or "test".
	GinMode string `mapstructure:"gin_mode"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// GRPCConfig holds the gRPC health listener settings.
type GRPCConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the "host:port" gRPC address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (g GRPCConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// RarityWeight is one row of the loot rarity table.
type RarityWeight struct {
	Rarity string `mapstructure:"rarity"`
	Weight int    `mapstructure:"weight"`
}

// ExpeditionConfig tunes the run ledger, the event resolver and content loading.
type ExpeditionConfig struct {
	// Thresholds are the three habit point breakpoints that each unlock one run.
	Thresholds    []int          `mapstructure:"thresholds"`
	JitterMin     int            `mapstructure:"jitter_min"`
	JitterMax     int            `mapstructure:"jitter_max"`
	MaxWildLevel  int            `mapstructure:"max_wild_level"`
	RarityWeights []RarityWeight `mapstructure:"rarity_weights"`
	BiomesDir     string         `mapstructure:"biomes_dir"`
	SpeciesDir    string         `mapstructure:"species_dir"`
	ItemsDir      string         `mapstructure:"items_dir"`
	// StarterSpecies is the species ID granted to a newly initialised player.
	StarterSpecies string `mapstructure:"starter_species"`
	// RandomSource is "crypto" or "seeded"; Seed is used only by "seeded".
	RandomSource string `mapstructure:"random_source"`
	Seed         uint64 `mapstructure:"seed"`
}

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	GRPC       GRPCConfig       `mapstructure:"grpc"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Expedition ExpeditionConfig `mapstructure:"expedition"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Server.Mode == "postgres" {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateHTTP(c.HTTP); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGRPC(c.GRPC); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateExpedition(c.Expedition); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	validModes := map[string]bool{"standalone": true, "postgres": true}
	if !validModes[s.Mode] {
		return fmt.Errorf("server.mode must be one of [standalone, postgres], got %q", s.Mode)
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateHTTP(h HTTPConfig) error {
	var errs []string
	if h.Port < 1 || h.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be 1-65535, got %d", h.Port))
	}
	if h.ReadTimeout < 0 {
		errs = append(errs, "http.read_timeout must not be negative")
	}
	if h.WriteTimeout < 0 {
		errs = append(errs, "http.write_timeout must not be negative")
	}
	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[h.GinMode] {
		errs = append(errs, fmt.Sprintf("http.gin_mode must be one of [debug, release, test], got %q", h.GinMode))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGRPC(g GRPCConfig) error {
	var errs []string
	if g.Host == "" {
		errs = append(errs, "grpc.host must not be empty")
	}
	if g.Port < 1 || g.Port > 65535 {
		errs = append(errs, fmt.Sprintf("grpc.port must be 1-65535, got %d", g.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateExpedition(e ExpeditionConfig) error {
	var errs []string
	if len(e.Thresholds) != 3 {
		errs = append(errs, fmt.Sprintf("expedition.thresholds must have exactly 3 entries, got %d", len(e.Thresholds)))
	} else {
		prev := 0
		for _, th := range e.Thresholds {
			if th <= prev {
				errs = append(errs, fmt.Sprintf("expedition.thresholds must be positive and strictly increasing, got %v", e.Thresholds))
				break
			}
			prev = th
		}
	}
	if e.JitterMin > e.JitterMax {
		errs = append(errs, fmt.Sprintf("expedition.jitter_min (%d) must not exceed expedition.jitter_max (%d)", e.JitterMin, e.JitterMax))
	}
	if e.MaxWildLevel < 1 {
		errs = append(errs, fmt.Sprintf("expedition.max_wild_level must be >= 1, got %d", e.MaxWildLevel))
	}
	total := 0
	for i, w := range e.RarityWeights {
		if w.Weight < 0 {
			errs = append(errs, fmt.Sprintf("expedition.rarity_weights[%d].weight must be >= 0, got %d", i, w.Weight))
		}
		total += w.Weight
	}
	if total <= 0 {
		errs = append(errs, "expedition.rarity_weights must sum to more than zero")
	}
	if e.BiomesDir == "" {
		errs = append(errs, "expedition.biomes_dir must not be empty")
	}
	if e.SpeciesDir == "" {
		errs = append(errs, "expedition.species_dir must not be empty")
	}
	if e.ItemsDir == "" {
		errs = append(errs, "expedition.items_dir must not be empty")
	}
	if e.StarterSpecies == "" {
		errs = append(errs, "expedition.starter_species must not be empty")
	}
	validSources := map[string]bool{"crypto": true, "seeded": true}
	if !validSources[e.RandomSource] {
		errs = append(errs, fmt.Sprintf("expedition.random_source must be one of [crypto, seeded], got %q", e.RandomSource))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with BASECAMP_ prefix
	v.SetEnvPrefix("BASECAMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "standalone")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "basecamp")
	v.SetDefault("database.password", "basecamp")
	v.SetDefault("database.name", "basecamp")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("http.gin_mode", "release")

	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("expedition.thresholds", []int{6, 9, 12})
	v.SetDefault("expedition.jitter_min", -1)
	v.SetDefault("expedition.jitter_max", 1)
	v.SetDefault("expedition.max_wild_level", 10)
	v.SetDefault("expedition.rarity_weights", []map[string]any{
		{"rarity": "common", "weight": 65},
		{"rarity": "uncommon", "weight": 28},
		{"rarity": "rare", "weight": 7},
	})
	v.SetDefault("expedition.biomes_dir", "content/biomes")
	v.SetDefault("expedition.species_dir", "content/species")
	v.SetDefault("expedition.items_dir", "content/items")
	v.SetDefault("expedition.starter_species", "forest_sprite")
	v.SetDefault("expedition.random_source", "crypto")
	v.SetDefault("expedition.seed", 0)
}

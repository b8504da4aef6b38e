// Package config loads framesynth settings from an optional framesynth.yaml,
// FRAMESYNTH_* environment variables and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/framesynth/internal/diag"
	"github.com/roach88/framesynth/internal/engine"
)

// EnvPrefix is the prefix of environment overrides. The key
// analysis.on_missing_schema is read from FRAMESYNTH_ANALYSIS_ON_MISSING_SCHEMA.
const EnvPrefix = "FRAMESYNTH"

// FileName is the config file looked up in the search paths, without
// extension.
const FileName = "framesynth"

// Accepted values.
const (
	DisambiguatorHash     = "hash"
	DisambiguatorSequence = "sequence"

	ReportOnce = "once"
	ReportAll  = "all"

	MissingSchemaDegrade = "degrade"
	MissingSchemaFail    = "fail"
)

// Config is the resolved configuration.
type Config struct {
	Analysis Analysis `mapstructure:"analysis"`
	Store    Store    `mapstructure:"store"`
	Log      Log      `mapstructure:"log"`

	// File is the config file that was read, or empty.
	File string `mapstructure:"-"`
}

// Analysis configures passes.
type Analysis struct {
	// Disambiguator numbers nested marker names: "hash" or "sequence".
	Disambiguator string `mapstructure:"disambiguator"`

	// Report selects how many diagnostics a call keeps: "once" or "all".
	Report string `mapstructure:"report"`

	// OnMissingSchema decides whether diagnostics fail a command:
	// "degrade" keeps going, "fail" exits non-zero.
	OnMissingSchema string `mapstructure:"on_missing_schema"`

	// TokenPackage is the package of pass-allocated root tokens.
	TokenPackage string `mapstructure:"token_package"`
}

// Store configures the analysis trace database.
type Store struct {
	// Path is the SQLite file. Empty disables recording.
	Path string `mapstructure:"path"`
}

// Log configures logging.
type Log struct {
	Level string `mapstructure:"level"`
}

// Options controls where Load looks.
type Options struct {
	// File is an explicit config file. It must exist.
	File string

	// SearchPaths are the directories searched for framesynth.yaml when
	// File is empty. Default: the working directory.
	SearchPaths []string
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("analysis.disambiguator", DisambiguatorHash)
	v.SetDefault("analysis.report", ReportOnce)
	v.SetDefault("analysis.on_missing_schema", MissingSchemaDegrade)
	v.SetDefault("analysis.token_package", engine.DefaultTokenPackage)
	v.SetDefault("store.path", "")
	v.SetDefault("log.level", "warn")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration into v. Pass nil to start from New().
// A missing framesynth.yaml in the search paths is not an error; a missing
// explicit file is.
func Load(v *viper.Viper, opts Options) (*Config, error) {
	if v == nil {
		v = New()
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		paths := opts.SearchPaths
		if len(paths) == 0 {
			paths = []string{"."}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown enumeration values.
func (c *Config) Validate() error {
	if err := oneOf("analysis.disambiguator", c.Analysis.Disambiguator, DisambiguatorHash, DisambiguatorSequence); err != nil {
		return err
	}
	if err := oneOf("analysis.report", c.Analysis.Report, ReportOnce, ReportAll); err != nil {
		return err
	}
	if err := oneOf("analysis.on_missing_schema", c.Analysis.OnMissingSchema, MissingSchemaDegrade, MissingSchemaFail); err != nil {
		return err
	}
	if _, err := c.Log.ZapLevel(); err != nil {
		return fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}
	return nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q: must be one of %v", key, value, allowed)
}

// NewDisambiguator returns the configured nested-name disambiguator.
func (a Analysis) NewDisambiguator() engine.Disambiguator {
	if a.Disambiguator == DisambiguatorSequence {
		return engine.NewSequenceDisambiguator()
	}
	return engine.HashDisambiguator{}
}

// NewCollector returns a diagnostics collector for one pass.
func (a Analysis) NewCollector() *diag.Collector {
	if a.Report == ReportAll {
		return diag.NewCollector()
	}
	return diag.NewCollector(diag.OncePerCall())
}

// FailOnDiagnostics reports whether a pass with diagnostics fails.
func (a Analysis) FailOnDiagnostics() bool {
	return a.OnMissingSchema == MissingSchemaFail
}

// ZapLevel parses the log level.
func (l Log) ZapLevel() (zapcore.Level, error) {
	return zapcore.ParseLevel(l.Level)
}

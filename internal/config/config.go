package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Extractor ExtractorConfig `yaml:"extractor" mapstructure:"extractor"`
	Parser    ParserConfig    `yaml:"parser" mapstructure:"parser"`
	Grading   GradingConfig   `yaml:"grading" mapstructure:"grading"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int `yaml:"port" mapstructure:"port"`
	BodyLimitMB int `yaml:"body_limit_mb" mapstructure:"body_limit_mb"`
}

// ExtractorConfig configures PDF text extraction.
type ExtractorConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
}

// ParserConfig configures transcript parsing.
type ParserConfig struct {
	CorrectionsPath      string `yaml:"corrections_path" mapstructure:"corrections_path"`
	MaxContinuationLines int    `yaml:"max_continuation_lines" mapstructure:"max_continuation_lines"`
}

// GradingConfig configures the weighted average and honor rules.
type GradingConfig struct {
	ExcludedMarkers []string `yaml:"excluded_markers" mapstructure:"excluded_markers"`
	GradeCeiling    float64  `yaml:"grade_ceiling" mapstructure:"grade_ceiling"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BatchConfig configures multi-document runs.
type BatchConfig struct {
	MaxConcurrentDocuments int `yaml:"max_concurrent_documents" mapstructure:"max_concurrent_documents"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRANSCRIPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.body_limit_mb", 32)
	v.SetDefault("extractor.provider", "library")
	v.SetDefault("extractor.pdftotext_path", "pdftotext")
	v.SetDefault("parser.corrections_path", "")
	v.SetDefault("parser.max_continuation_lines", 4)
	v.SetDefault("grading.excluded_markers", []string{"NATIONAL SERVICE TRAINING", "NSTP", "CWTS", "LTS", "ROTC"})
	v.SetDefault("grading.grade_ceiling", 2.50)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "transcripts.db")
	v.SetDefault("batch.max_concurrent_documents", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs before it starts.
// Mode is one of "extract", "serve" or "store".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Extractor.Provider {
	case "library", "pdfcpu", "pdftotext":
	default:
		problems = append(problems, fmt.Sprintf("extractor.provider %q is not one of library, pdfcpu, pdftotext", c.Extractor.Provider))
	}
	if c.Parser.MaxContinuationLines < 1 {
		problems = append(problems, "parser.max_continuation_lines must be at least 1")
	}
	if c.Grading.GradeCeiling <= 0 {
		problems = append(problems, "grading.grade_ceiling must be positive")
	}

	switch mode {
	case "extract":
		if c.Batch.MaxConcurrentDocuments < 1 {
			problems = append(problems, "batch.max_concurrent_documents must be at least 1")
		}
	case "serve":
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
		}
		if c.Server.BodyLimitMB < 1 {
			problems = append(problems, "server.body_limit_mb must be at least 1")
		}
	case "store":
		if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
			problems = append(problems, fmt.Sprintf("store.driver %q is not one of sqlite, postgres", c.Store.Driver))
		}
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

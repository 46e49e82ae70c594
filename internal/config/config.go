package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/insightdelivered/budget-worksheet-converter/internal/parser"
)

type LayoutConfig struct {
	SequenceWidth              int `mapstructure:"sequence_width"`
	ContentStart               int `mapstructure:"content_start"`
	ProgramExplanationWidth    int `mapstructure:"program_explanation_width"`
	DepartmentExplanationWidth int `mapstructure:"department_explanation_width"`
}

type ExtractConfig struct {
	Pdftotext string `mapstructure:"pdftotext"`
	Fixed     int    `mapstructure:"fixed"`
}

type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	BodyLimitMB int    `mapstructure:"body_limit_mb"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Config is the full converter configuration.
type Config struct {
	Layout   LayoutConfig   `mapstructure:"layout"`
	Extract  ExtractConfig  `mapstructure:"extract"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

// EnvPrefix is prepended to environment overrides, e.g. BWC_DATABASE_URL.
const EnvPrefix = "BWC"

func setDefaults(v *viper.Viper) {
	l := parser.DefaultLayout()
	v.SetDefault("layout.sequence_width", l.SequenceWidth)
	v.SetDefault("layout.content_start", l.ContentStart)
	v.SetDefault("layout.program_explanation_width", l.ProgramExplanationWidth)
	v.SetDefault("layout.department_explanation_width", l.DepartmentExplanationWidth)
	v.SetDefault("extract.pdftotext", "pdftotext")
	v.SetDefault("extract.fixed", 4)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.body_limit_mb", 32)
	v.SetDefault("database.url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Load reads configuration from path (optional; "" uses defaults only) and
// applies BWC_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the layout columns are usable.
func (c *Config) Validate() error {
	l := c.Layout
	if l.SequenceWidth <= 0 {
		return errors.New("layout.sequence_width must be positive")
	}
	if l.ContentStart < l.SequenceWidth {
		return fmt.Errorf("layout.content_start (%d) must not precede the end of the sequence column (%d)", l.ContentStart, l.SequenceWidth)
	}
	if l.ProgramExplanationWidth < 0 || l.DepartmentExplanationWidth < 0 {
		return errors.New("layout explanation widths must not be negative")
	}
	if c.Extract.Fixed <= 0 {
		return errors.New("extract.fixed must be positive")
	}
	return nil
}

// ParserLayout converts the layout section for the parser. Field columns
// keep their defaults.
func (c *Config) ParserLayout() parser.Layout {
	l := parser.DefaultLayout()
	l.SequenceWidth = c.Layout.SequenceWidth
	l.ContentStart = c.Layout.ContentStart
	l.ProgramExplanationWidth = c.Layout.ProgramExplanationWidth
	l.DepartmentExplanationWidth = c.Layout.DepartmentExplanationWidth
	return l
}

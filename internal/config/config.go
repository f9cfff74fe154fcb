package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/agentic-research/wp2shopify/api"
	"github.com/agentic-research/wp2shopify/internal/ingest"
	"github.com/agentic-research/wp2shopify/internal/shopify"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WP2SHOPIFY_"

// Config holds all wp2shopify settings.
type Config struct {
	Log     LogConfig
	Source  SourceConfig
	Output  OutputConfig
	Server  ServerConfig
	Convert ConvertConfig
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `hcl:"level,optional" yaml:"level"`
	Format string `hcl:"format,optional" yaml:"format"` // json, console
}

// SourceConfig tells the loaders where the export lives inside its file.
type SourceConfig struct {
	Sheet             string   `hcl:"sheet,optional" yaml:"sheet"`
	Selector          string   `hcl:"selector,optional" yaml:"selector"`
	Table             string   `hcl:"table,optional" yaml:"table"`
	AttributePrefixes []string `hcl:"attribute_prefixes,optional" yaml:"attribute_prefixes"`

	// ZeroParentIsTopLevel reads post_parent 0 as a product. Off by default.
	ZeroParentIsTopLevel bool `hcl:"zero_parent_is_top_level,optional" yaml:"zero_parent_is_top_level"`
}

// OutputConfig controls where and how converted files are written.
type OutputConfig struct {
	Dir    string `hcl:"dir,optional" yaml:"dir"`
	Format string `hcl:"format,optional" yaml:"format"`
	Table  string `hcl:"table,optional" yaml:"table"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr        string `hcl:"addr,optional" yaml:"addr"`
	MaxUploadMB int    `hcl:"max_upload_mb,optional" yaml:"max_upload_mb"`
}

// ConvertConfig tunes the batch converter.
type ConvertConfig struct {
	Workers int `hcl:"workers,optional" yaml:"workers"`
}

// fileConfig is the on-disk shape. Every block is optional; values left out
// keep their defaults.
type fileConfig struct {
	Log     *LogConfig     `hcl:"log,block" yaml:"log"`
	Source  *SourceConfig  `hcl:"source,block" yaml:"source"`
	Output  *OutputConfig  `hcl:"output,block" yaml:"output"`
	Server  *ServerConfig  `hcl:"server,block" yaml:"server"`
	Convert *ConvertConfig `hcl:"convert,block" yaml:"convert"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "console"},
		Source: SourceConfig{
			Selector:          ingest.DefaultSelector,
			Table:             ingest.DefaultTable,
			AttributePrefixes: append([]string(nil), api.DefaultAttributePrefixes...),
		},
		Output:  OutputConfig{Dir: "output", Format: string(shopify.FormatCSV), Table: shopify.DefaultTable},
		Server:  ServerConfig{Addr: ":8080", MaxUploadMB: 32},
		Convert: ConvertConfig{Workers: 1},
	}
}

// Load reads a configuration file on top of the defaults. HCL and JSON files
// are decoded with hclsimple, YAML with yaml.v3. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl", ".json":
		err = hclsimple.Decode(path, data, nil, &fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		return nil, fmt.Errorf("unsupported config file %s (want .hcl, .json, .yaml)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.merge(&fc)
	return cfg, nil
}

func (c *Config) merge(fc *fileConfig) {
	if l := fc.Log; l != nil {
		set(&c.Log.Level, l.Level)
		set(&c.Log.Format, l.Format)
	}
	if s := fc.Source; s != nil {
		set(&c.Source.Sheet, s.Sheet)
		set(&c.Source.Selector, s.Selector)
		set(&c.Source.Table, s.Table)
		if len(s.AttributePrefixes) > 0 {
			c.Source.AttributePrefixes = s.AttributePrefixes
		}
		if s.ZeroParentIsTopLevel {
			c.Source.ZeroParentIsTopLevel = true
		}
	}
	if o := fc.Output; o != nil {
		set(&c.Output.Dir, o.Dir)
		set(&c.Output.Format, o.Format)
		set(&c.Output.Table, o.Table)
	}
	if s := fc.Server; s != nil {
		set(&c.Server.Addr, s.Addr)
		if s.MaxUploadMB > 0 {
			c.Server.MaxUploadMB = s.MaxUploadMB
		}
	}
	if cv := fc.Convert; cv != nil && cv.Workers > 0 {
		c.Convert.Workers = cv.Workers
	}
}

func set(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ApplyEnv overlays WP2SHOPIFY_* variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	env := func(name string) string { return strings.TrimSpace(getenv(EnvPrefix + name)) }

	set(&c.Log.Level, env("LOG_LEVEL"))
	set(&c.Log.Format, env("LOG_FORMAT"))
	set(&c.Source.Sheet, env("SOURCE_SHEET"))
	set(&c.Source.Selector, env("SOURCE_SELECTOR"))
	set(&c.Source.Table, env("SOURCE_TABLE"))
	if v := env("ATTRIBUTE_PREFIXES"); v != "" {
		var prefixes []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				prefixes = append(prefixes, p)
			}
		}
		c.Source.AttributePrefixes = prefixes
	}
	if v := env("ZERO_PARENT_IS_TOP_LEVEL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sZERO_PARENT_IS_TOP_LEVEL: %w", EnvPrefix, err)
		}
		c.Source.ZeroParentIsTopLevel = b
	}
	set(&c.Output.Dir, env("OUTPUT_DIR"))
	set(&c.Output.Format, env("OUTPUT_FORMAT"))
	set(&c.Output.Table, env("OUTPUT_TABLE"))
	set(&c.Server.Addr, env("ADDR"))

	if v := env("MAX_UPLOAD_MB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_UPLOAD_MB: %w", EnvPrefix, err)
		}
		c.Server.MaxUploadMB = n
	}
	if v := env("WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sWORKERS: %w", EnvPrefix, err)
		}
		c.Convert.Workers = n
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log format %q (want json or console)", c.Log.Format))
	}
	if _, err := shopify.ParseFormat(c.Output.Format); err != nil {
		errs = append(errs, err)
	}
	if len(c.Source.AttributePrefixes) == 0 {
		errs = append(errs, errors.New("source.attribute_prefixes is empty"))
	}
	if c.Convert.Workers < 1 {
		errs = append(errs, fmt.Errorf("convert.workers must be at least 1, got %d", c.Convert.Workers))
	}
	if c.Server.MaxUploadMB < 1 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb must be at least 1, got %d", c.Server.MaxUploadMB))
	}
	return errors.Join(errs...)
}

// Schema returns the source schema with the configured attribute prefixes
// and parent rule.
func (c *Config) Schema() *api.SourceSchema {
	s := api.DefaultSchema()
	if len(c.Source.AttributePrefixes) > 0 {
		s.AttributePrefixes = append([]string(nil), c.Source.AttributePrefixes...)
	}
	s.ZeroParentIsTopLevel = c.Source.ZeroParentIsTopLevel
	return s
}

// IngestOptions returns the loader options.
func (c *Config) IngestOptions() ingest.Options {
	return ingest.Options{
		Sheet:    c.Source.Sheet,
		Selector: c.Source.Selector,
		Table:    c.Source.Table,
	}
}

// OutputFormat returns the parsed default output format.
func (c *Config) OutputFormat() shopify.Format {
	f, err := shopify.ParseFormat(c.Output.Format)
	if err != nil {
		return shopify.FormatCSV
	}
	return f
}

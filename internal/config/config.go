// Package config loads codemap settings from TOML, applies CODEMAP_*
// environment overrides and validates the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/ha1tch/codemap/internal/logging"
	"github.com/ha1tch/codemap/pkg/layout"
)

// ErrInvalidConfig wraps every load and validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full settings file.
type Config struct {
	Layout  layout.Config  `toml:"layout"`
	View    ViewConfig     `toml:"view"`
	Export  ExportConfig   `toml:"export"`
	Log     logging.Config `toml:"log"`
	Metrics MetricsConfig  `toml:"metrics"`
}

// ViewConfig holds the initial state of the graph view.
type ViewConfig struct {
	Algorithm string `toml:"algorithm" validate:"omitempty,oneof=fcose cose grid circle breadthfirst"`
	Sizing    string `toml:"sizing" validate:"omitempty,oneof=fixed type degree byType byDegree"`
	Cluster   bool   `toml:"cluster"`
	Minimap   bool   `toml:"minimap"`
}

// ExportConfig holds the defaults of the render command.
type ExportConfig struct {
	Width      int     `toml:"width" validate:"min=0,max=16384"`
	Height     int     `toml:"height" validate:"min=0,max=16384"`
	Padding    float64 `toml:"padding" validate:"min=0"`
	Background string  `toml:"background" validate:"omitempty,hexcolor"`
	Labels     bool    `toml:"labels"`
}

// MetricsConfig controls the Prometheus endpoint of the viewer.
type MetricsConfig struct {
	Addr string `toml:"addr" validate:"omitempty,hostname_port"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Layout: layout.DefaultConfig(),
		View: ViewConfig{
			Algorithm: "fcose",
			Sizing:    "fixed",
			Minimap:   true,
		},
		Export: ExportConfig{
			Width:      1600,
			Height:     1200,
			Padding:    30,
			Background: "#ffffff",
			Labels:     true,
		},
		Log: logging.DefaultConfig(),
	}
}

// Dir returns the codemap config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "codemap")
}

// DefaultPath is the config file used when none is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads path over the defaults, applies environment overrides and
// validates. An empty path means DefaultPath, which may be absent; an
// explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case err == nil:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return cfg, fmt.Errorf("%w: %s: unknown keys %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// Defaults only
	default:
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg as TOML, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

var envOverrides = []struct {
	name  string
	apply func(c *Config, v string) error
}{
	{"CODEMAP_LAYOUT_THRESHOLD", func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.Layout.LargeGraphThreshold = n
		return err
	}},
	{"CODEMAP_LAYOUT_QUALITY", func(c *Config, v string) error {
		q, err := layout.ParseQuality(v)
		c.Layout.Quality = q
		return err
	}},
	{"CODEMAP_LAYOUT_TIMEOUT", func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		c.Layout.Timeout = d
		return err
	}},
	{"CODEMAP_ALGORITHM", func(c *Config, v string) error {
		c.View.Algorithm = strings.ToLower(v)
		return nil
	}},
	{"CODEMAP_LOG_LEVEL", func(c *Config, v string) error {
		c.Log.Level = strings.ToLower(v)
		return nil
	}},
	{"CODEMAP_LOG_FILE", func(c *Config, v string) error {
		c.Log.File = v
		return nil
	}},
	{"CODEMAP_METRICS_ADDR", func(c *Config, v string) error {
		c.Metrics.Addr = v
		return nil
	}},
}

func applyEnv(cfg *Config) error {
	for _, o := range envOverrides {
		v, ok := os.LookupEnv(o.name)
		if !ok || v == "" {
			continue
		}
		if err := o.apply(cfg, v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, o.name, err)
		}
	}
	return nil
}

var validate = validator.New()

// Validate checks every field against its validate tag.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, formatValidationError(err))
	}
	return nil
}

func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return strings.Join(msgs, "; ")
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Namespace())
	field = strings.TrimPrefix(field, "config.")

	switch e.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "hexcolor":
		return fmt.Sprintf("%s must be a hex colour", field)
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port", field)
	}
	return fmt.Sprintf("%s failed %s", field, e.Tag())
}

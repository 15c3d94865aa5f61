package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/vsync/internal/errors"
	"github.com/vango-dev/vsync/pkg/vdom"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "vsync.json"

	// DefaultPort is the default live server port.
	DefaultPort = 7331

	// DefaultHost is the default live server host.
	DefaultHost = "localhost"

	// DefaultInterval is the default delay between demo frames in serve mode.
	DefaultInterval = "2s"

	// DefaultNamespace is the default Prometheus metric namespace.
	DefaultNamespace = "vsync"
)

// Config represents the complete vsync.json configuration.
type Config struct {
	// Reconcile configures the reconciler.
	Reconcile ReconcileConfig `json:"reconcile"`

	// Log configures the process logger.
	Log LogConfig `json:"log"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `json:"metrics"`

	// Serve configures the live server.
	Serve ServeConfig `json:"serve"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ReconcileConfig contains reconciler settings.
type ReconcileConfig struct {
	// KeyPolicy is "warn" (default) or "reject".
	KeyPolicy string `json:"keyPolicy,omitempty"`

	// PropRemoval is "falsy" (default) or "presence".
	PropRemoval string `json:"propRemoval,omitempty"`

	// Validate checks trees before every pass.
	Validate bool `json:"validate"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// MetricsConfig contains metrics settings.
type MetricsConfig struct {
	// Enabled registers the reconciler collector and serves /metrics.
	Enabled bool `json:"enabled"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty"`
}

// ServeConfig contains live server settings.
type ServeConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// Interval is the delay between demo frames (e.g. "2s").
	Interval string `json:"interval,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Reconcile: ReconcileConfig{
			KeyPolicy:   "warn",
			PropRemoval: "falsy",
			Validate:    true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Serve: ServeConfig{
			Host:     DefaultHost,
			Port:     DefaultPort,
			Interval: DefaultInterval,
		},
	}
}

// Load finds vsync.json in dir or the nearest parent directory and reads it.
func Load(dir string) (*Config, error) {
	root, err := FindProjectRoot(dir)
	if err != nil {
		return nil, err
	}
	return LoadFile(filepath.Join(root, ConfigFileName))
}

// LoadOrDefault is Load, falling back to New when no file exists.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if errors.HasCode(err, "E121") {
		return New(), nil
	}
	return cfg, err
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E121").
				WithDetail("No " + ConfigFileName + " found at " + path).
				WithSuggestion("Create " + ConfigFileName + " or run without one to use the defaults")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Reconcile.KeyPolicy == "" {
		c.Reconcile.KeyPolicy = "warn"
	}
	if c.Reconcile.PropRemoval == "" {
		c.Reconcile.PropRemoval = "falsy"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}

	if c.Serve.Host == "" {
		c.Serve.Host = DefaultHost
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = DefaultPort
	}
	if c.Serve.Interval == "" {
		c.Serve.Interval = DefaultInterval
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.keyPolicy(); err != nil {
		return err
	}
	if _, err := c.propRemoval(); err != nil {
		return err
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format", c.Log.Format, "text", "json")
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return errors.New("E122").
			WithDetail("serve.port must be between 0 and 65535")
	}
	if d, err := time.ParseDuration(c.Serve.Interval); err != nil || d <= 0 {
		return errors.New("E122").
			WithDetailf("serve.interval %q is not a positive duration", c.Serve.Interval).
			WithSuggestion(`Use a Go duration such as "500ms" or "2s"`)
	}
	return nil
}

func invalid(field, value string, accepted ...string) *errors.Error {
	return errors.New("E122").
		WithDetailf("%s %q is not supported", field, value).
		WithSuggestion("Use one of: " + strings.Join(accepted, ", "))
}

func (c *Config) keyPolicy() (vdom.KeyPolicy, error) {
	switch p := vdom.KeyPolicy(c.Reconcile.KeyPolicy); p {
	case vdom.KeyPolicyWarn, vdom.KeyPolicyReject:
		return p, nil
	}
	return vdom.KeyPolicyWarn, invalid("reconcile.keyPolicy", c.Reconcile.KeyPolicy, "warn", "reject")
}

func (c *Config) propRemoval() (vdom.PropRemoval, error) {
	switch p := vdom.PropRemoval(c.Reconcile.PropRemoval); p {
	case vdom.PropRemovalFalsy, vdom.PropRemovalPresence:
		return p, nil
	}
	return vdom.PropRemovalFalsy, invalid("reconcile.propRemoval", c.Reconcile.PropRemoval, "falsy", "presence")
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, invalid("log.level", c.Log.Level, "debug", "info", "warn", "error")
	}
	return level, nil
}

// ReconcilerOptions converts the reconcile section to reconciler options.
// Invalid values fall back to the defaults; call Validate first to catch them.
func (c *Config) ReconcilerOptions() []vdom.Option {
	policy, _ := c.keyPolicy()
	removal, _ := c.propRemoval()
	return []vdom.Option{
		vdom.WithKeyPolicy(policy),
		vdom.WithPropRemoval(removal),
		vdom.WithValidation(c.Reconcile.Validate),
	}
}

// Logger builds a logger writing to w with the configured level and format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := c.level()
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ServeAddress returns the listen address for the live server.
func (c *Config) ServeAddress() string {
	return net.JoinHostPort(c.Serve.Host, strconv.Itoa(c.Serve.Port))
}

// ServeInterval returns the parsed demo frame interval.
func (c *Config) ServeInterval() time.Duration {
	d, err := time.ParseDuration(c.Serve.Interval)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultInterval)
	}
	return d
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the directory containing
// vsync.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E121").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory").
				WithSuggestion("Create " + ConfigFileName + " or run without one to use the defaults")
		}
		dir = parent
	}
}

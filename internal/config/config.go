package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/domsync/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "domsync.json"

	// YAMLConfigFileName is the name of the YAML configuration file. It is
	// only consulted when ConfigFileName is absent.
	YAMLConfigFileName = "domsync.yaml"

	// DefaultPort is the default preview server port.
	DefaultPort = 7070

	// DefaultHost is the default preview server host.
	DefaultHost = "localhost"

	// DefaultPollInterval is how often the watcher checks the candidate file.
	DefaultPollInterval = "500ms"

	// DefaultMarkerPrefix starts every island marker comment.
	DefaultMarkerPrefix = "island:"

	// DefaultNamespace prefixes Prometheus metric names.
	DefaultNamespace = "domsync"

	// DefaultTracerName names the OpenTelemetry tracer.
	DefaultTracerName = "domsync"
)

// Config represents the complete domsync configuration.
type Config struct {
	// Markers configures island recognition.
	Markers MarkersConfig `json:"markers,omitempty" yaml:"markers,omitempty"`

	// Logging configures the slog logger.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`

	// Server configures the preview server.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Metrics configures the Prometheus middleware.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Tracing configures the OpenTelemetry middleware.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// MarkersConfig contains island marker settings.
type MarkersConfig struct {
	// Islands enables island-aware reconciliation.
	Islands bool `json:"islands" yaml:"islands"`

	// Prefix starts the comment text of every marker.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// ServerConfig contains preview server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Document is the initial host document. Empty starts from a blank page.
	Document string `json:"document,omitempty" yaml:"document,omitempty"`

	// Watch is a candidate file re-synced whenever it changes.
	Watch string `json:"watch,omitempty" yaml:"watch,omitempty"`

	// PollInterval is how often Watch is checked (e.g. "500ms").
	PollInterval string `json:"pollInterval,omitempty" yaml:"pollInterval,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Markers: MarkersConfig{
			Islands: true,
			Prefix:  DefaultMarkerPrefix,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Host:         DefaultHost,
			Port:         DefaultPort,
			PollInterval: DefaultPollInterval,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
	}
}

// Load reads configuration from the specified directory. It looks for
// domsync.json, then domsync.yaml.
func Load(dir string) (*Config, error) {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("D023").
		WithDetail("No " + ConfigFileName + " or " + YAMLConfigFileName + " found in " + dir).
		WithSuggestion("Create " + ConfigFileName + " or pass the settings as flags")
}

// LoadFile reads configuration from the specified file path. Files ending in
// .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("D023").
				WithPath(path).
				WithDetail("No configuration file at " + path)
		}
		return nil, errors.New("D020").WithPath(path).Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("D021").
			WithPath(path).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid " + formatName(path))
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func formatName(path string) string {
	if isYAML(path) {
		return "YAML"
	}
	return "JSON"
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, in YAML or JSON
// depending on the extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		// Add newline at end of file
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("D020").WithPath(path).Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("D020").WithPath(path).Wrap(err)
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
	if c.Markers.Prefix == "" {
		c.Markers.Prefix = DefaultMarkerPrefix
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.PollInterval == "" {
		c.Server.PollInterval = DefaultPollInterval
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("D022").
			WithDetail("server.port must be between 0 and 65535")
	}
	if _, err := c.level(); err != nil {
		return errors.New("D022").
			WithDetailf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	if f := c.Logging.Format; f != "text" && f != "json" {
		return errors.New("D022").
			WithDetailf("logging.format %q is not one of text, json", f)
	}
	if d, err := time.ParseDuration(c.Server.PollInterval); err != nil || d <= 0 {
		return errors.New("D022").
			WithDetailf("server.pollInterval %q is not a positive duration", c.Server.PollInterval)
	}
	if strings.TrimSpace(c.Markers.Prefix) == "" {
		return errors.New("D022").
			WithDetail("markers.prefix must not be blank")
	}
	return nil
}

// Address returns the address string for the preview server.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// URL returns the full URL for the preview server.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// PollInterval returns the parsed watcher interval, or the default when the
// configured value does not parse.
func (c *Config) PollInterval() time.Duration {
	if d, err := time.ParseDuration(c.Server.PollInterval); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(DefaultPollInterval)
	return d
}

// DocumentPath returns the absolute path to the initial host document, or ""
// when none is configured.
func (c *Config) DocumentPath() string {
	return c.resolve(c.Server.Document)
}

// WatchPath returns the absolute path to the watched candidate file, or ""
// when none is configured.
func (c *Config) WatchPath() string {
	return c.resolve(c.Server.Watch)
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

func (c *Config) level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.Logging.Level))
	return l, err
}

// Logger builds a logger writing to w with the configured level and format.
// An invalid level falls back to info.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
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
			return "", errors.New("D023").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

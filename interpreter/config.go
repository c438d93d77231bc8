package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"

	"github.com/chidiwilliams/scopeheap/runtime"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Rebind is "free" to free a displaced owned value, or "reject" to refuse the rebind.
	Rebind      string    `yaml:"rebind"`
	LeakCheck   bool      `yaml:"leak_check"`
	TraceScopes bool      `yaml:"trace_scopes"`
	Log         LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() Config {
	return Config{
		Rebind:    "free",
		LeakCheck: true,
		Log:       LogConfig{Level: "warn", Format: "text"},
	}
}

// LoadConfig reads a YAML config file on top of the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrapf(err, "reading config %s", path)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, errors.Wrap(err, "decoding config")
	}
	return config, config.Validate()
}

func (c Config) Validate() error {
	switch c.Rebind {
	case "free", "reject":
	default:
		return errors.Newf("invalid rebind policy %q", c.Rebind)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Newf("invalid log format %q", c.Log.Format)
	}
	return nil
}

func (c Config) RebindPolicy() runtime.RebindPolicy {
	if c.Rebind == "reject" {
		return runtime.RejectOwnedRebind
	}
	return runtime.FreeDisplaced
}

// NewLogger builds the logger described by c. c must be valid.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := c.Log.level()
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return level, errors.Newf("invalid log level %q", l.Level)
	}
	return level, nil
}

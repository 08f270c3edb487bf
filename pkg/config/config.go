// Package config provides the gitview server configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/duration"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ErrNilConfig is returned when a nil config is passed around.
var ErrNilConfig = errors.New("nil config")

// HTTPConfig is the HTTP configuration for the server.
type HTTPConfig struct {
	// ListenAddr is the address on which the HTTP server will listen.
	ListenAddr string `env:"LISTEN_ADDR" yaml:"listen_addr"`

	// TLSKeyPath is the path to the TLS private key.
	TLSKeyPath string `env:"TLS_KEY_PATH" yaml:"tls_key_path"`

	// TLSCertPath is the path to the TLS certificate.
	TLSCertPath string `env:"TLS_CERT_PATH" yaml:"tls_cert_path"`

	// PublicURL is the public URL of the HTTP server.
	PublicURL string `env:"PUBLIC_URL" yaml:"public_url"`
}

// LogConfig is the logger configuration.
type LogConfig struct {
	// Format is the format of the logs.
	// Valid values are "json", "logfmt", and "text".
	Format string `env:"FORMAT" yaml:"format"`

	// Time format for the log `ts` field.
	// Format must be described in Golang's time format.
	TimeFormat string `env:"TIME_FORMAT" yaml:"time_format"`

	// Path to a file to write logs to.
	// If not set, logs will be written to stderr.
	Path string `env:"PATH" yaml:"path"`
}

// LFSConfig is the configuration for the Git LFS gateway.
type LFSConfig struct {
	// Enabled is whether or not the LFS gateway is enabled.
	Enabled bool `env:"ENABLED" yaml:"enabled"`

	// Secret is the symmetric secret shared with the token issuer. It also
	// signs presigned transfer URLs. LFS requests fail closed when empty.
	Secret string `env:"SECRET" yaml:"secret"`

	// TokenExpiry is how long issued capability tokens stay valid.
	TokenExpiry string `env:"TOKEN_EXPIRY" yaml:"token_expiry"`

	// URLExpiry is how long presigned transfer URLs stay valid.
	URLExpiry string `env:"URL_EXPIRY" yaml:"url_expiry"`

	// Workers bounds how many object existence checks run concurrently per
	// batch request.
	Workers int `env:"WORKERS" yaml:"workers"`
}

// Config is the configuration for gitview.
type Config struct {
	// Name is the name of the server.
	Name string `env:"NAME" yaml:"name"`

	// ReposPath is the path to the directory holding bare repositories.
	ReposPath string `env:"REPOS_PATH" yaml:"repos_path"`

	// HTTP is the configuration for the HTTP server.
	HTTP HTTPConfig `envPrefix:"HTTP_" yaml:"http"`

	// Log is the logger configuration.
	Log LogConfig `envPrefix:"LOG_" yaml:"log"`

	// LFS is the configuration for the LFS gateway.
	LFS LFSConfig `envPrefix:"LFS_" yaml:"lfs"`

	// DataPath is the path to the directory where gitview stores its data.
	DataPath string `env:"DATA_PATH" yaml:"-"`
}

// IsDebug returns true if the server is running in debug mode.
func IsDebug() bool {
	debug, _ := strconv.ParseBool(os.Getenv("GITVIEW_DEBUG"))
	return debug
}

// IsVerbose returns true if the server is running in verbose mode.
// Verbose mode is only enabled if debug mode is enabled.
func IsVerbose() bool {
	verbose, _ := strconv.ParseBool(os.Getenv("GITVIEW_VERBOSE"))
	return IsDebug() && verbose
}

// parseFile parses the given file as a configuration file.
// The file must be in YAML format.
func parseFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	defer f.Close() // nolint: errcheck
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	return cfg.Validate()
}

// ParseFile parses the config from the default file path.
// This also calls Validate() on the config.
func (c *Config) ParseFile() error {
	return parseFile(c, c.ConfigPath())
}

// parseEnv parses the environment variables as a configuration file.
func parseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix: "GITVIEW_",
	}); err != nil {
		return fmt.Errorf("parse environment variables: %w", err)
	}

	return cfg.Validate()
}

// ParseEnv parses the config from the environment variables.
// This also calls Validate() on the config.
func (c *Config) ParseEnv() error {
	return parseEnv(c)
}

// Parse parses the config from the default file path and environment variables.
// This also calls Validate() on the config.
func (c *Config) Parse() error {
	if err := c.ParseFile(); err != nil {
		return err
	}

	return c.ParseEnv()
}

// WriteConfig writes the configuration to the default file.
func (c *Config) WriteConfig() error {
	path := c.ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}

	bts, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, bts, 0o644) // nolint: errcheck, gosec
}

// DefaultDataPath returns the path to the data directory.
// It uses the GITVIEW_DATA_PATH environment variable if set, otherwise it
// uses "data".
func DefaultDataPath() string {
	dp := os.Getenv("GITVIEW_DATA_PATH")
	if dp == "" {
		dp = "data"
	}

	return dp
}

// ConfigPath returns the path to the config file.
func (c *Config) ConfigPath() string { // nolint:revive
	return filepath.Join(c.DataPath, "config.yaml")
}

// Exist returns true if the config file exists.
func (c *Config) Exist() bool {
	_, err := os.Stat(c.ConfigPath())
	return err == nil
}

// DefaultConfig returns the default Config. All the path values are relative
// to the data directory.
// Use Validate() to validate the config and ensure absolute paths.
func DefaultConfig() *Config {
	return &Config{
		Name:      "gitview",
		DataPath:  DefaultDataPath(),
		ReposPath: "repos",
		HTTP: HTTPConfig{
			ListenAddr: ":8080",
			PublicURL:  "http://localhost:8080",
		},
		Log: LogConfig{
			Format:     "text",
			TimeFormat: time.DateTime,
		},
		LFS: LFSConfig{
			Enabled:     true,
			TokenExpiry: "30m",
			URLExpiry:   "1h",
			Workers:     8,
		},
	}
}

// Validate validates the configuration.
// It updates the configuration with absolute paths.
func (c *Config) Validate() error {
	// Use absolute paths
	if !filepath.IsAbs(c.DataPath) {
		dp, err := filepath.Abs(c.DataPath)
		if err != nil {
			return err
		}
		c.DataPath = dp
	}

	c.HTTP.PublicURL = strings.TrimSuffix(c.HTTP.PublicURL, "/")

	if c.ReposPath != "" && !filepath.IsAbs(c.ReposPath) {
		c.ReposPath = filepath.Join(c.DataPath, c.ReposPath)
	}

	if c.HTTP.TLSKeyPath != "" && !filepath.IsAbs(c.HTTP.TLSKeyPath) {
		c.HTTP.TLSKeyPath = filepath.Join(c.DataPath, c.HTTP.TLSKeyPath)
	}

	if c.HTTP.TLSCertPath != "" && !filepath.IsAbs(c.HTTP.TLSCertPath) {
		c.HTTP.TLSCertPath = filepath.Join(c.DataPath, c.HTTP.TLSCertPath)
	}

	if c.LFS.Workers <= 0 {
		c.LFS.Workers = 8
	}

	if _, err := duration.Parse(c.LFS.TokenExpiry); err != nil {
		return fmt.Errorf("invalid lfs token expiry %q: %w", c.LFS.TokenExpiry, err)
	}

	if _, err := duration.Parse(c.LFS.URLExpiry); err != nil {
		return fmt.Errorf("invalid lfs url expiry %q: %w", c.LFS.URLExpiry, err)
	}

	return nil
}

// TokenExpiry returns the capability token lifetime.
func (c *Config) TokenExpiry() time.Duration {
	d, err := duration.Parse(c.LFS.TokenExpiry)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// URLExpiry returns the presigned URL lifetime.
func (c *Config) URLExpiry() time.Duration {
	d, err := duration.Parse(c.LFS.URLExpiry)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// LFSObjectKey returns the object store key for an LFS object of a repository.
func LFSObjectKey(repo, oid string) string {
	return repo + "/lfs/objects/" + oid
}

// Environ returns the config as a list of environment variables.
func (c *Config) Environ() []string {
	envs := []string{}
	if c == nil {
		return envs
	}

	envs = append(envs, []string{
		fmt.Sprintf("GITVIEW_NAME=%s", c.Name),
		fmt.Sprintf("GITVIEW_DATA_PATH=%s", c.DataPath),
		fmt.Sprintf("GITVIEW_REPOS_PATH=%s", c.ReposPath),
		fmt.Sprintf("GITVIEW_HTTP_LISTEN_ADDR=%s", c.HTTP.ListenAddr),
		fmt.Sprintf("GITVIEW_HTTP_TLS_KEY_PATH=%s", c.HTTP.TLSKeyPath),
		fmt.Sprintf("GITVIEW_HTTP_TLS_CERT_PATH=%s", c.HTTP.TLSCertPath),
		fmt.Sprintf("GITVIEW_HTTP_PUBLIC_URL=%s", c.HTTP.PublicURL),
		fmt.Sprintf("GITVIEW_LOG_FORMAT=%s", c.Log.Format),
		fmt.Sprintf("GITVIEW_LOG_TIME_FORMAT=%s", c.Log.TimeFormat),
		fmt.Sprintf("GITVIEW_LFS_ENABLED=%t", c.LFS.Enabled),
		fmt.Sprintf("GITVIEW_LFS_TOKEN_EXPIRY=%s", c.LFS.TokenExpiry),
		fmt.Sprintf("GITVIEW_LFS_URL_EXPIRY=%s", c.LFS.URLExpiry),
		fmt.Sprintf("GITVIEW_LFS_WORKERS=%d", c.LFS.Workers),
	}...)

	return envs
}

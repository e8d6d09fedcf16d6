package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("fetchkit version %s, commit %s, built at %s", version, commit, date)
}

const (
	// DefaultTimeout is the per-call deadline used when none is configured
	DefaultTimeout = 8000 * time.Millisecond
	// DefaultMaxBodyBytes caps how much of a response body is read
	DefaultMaxBodyBytes int64 = 10 << 20
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Client  ClientConfig  `mapstructure:"client"`
}

// ClientConfig holds the defaults applied to every outgoing request
type ClientConfig struct {
	Timeout      time.Duration     `json:"timeout" mapstructure:"timeout"`
	Headers      map[string]string `json:"headers" mapstructure:"headers"`
	MaxBodyBytes int64             `json:"max_body_bytes" mapstructure:"max_body_bytes"`
}

type ServerMode string

const (
	ServerModeSSE   ServerMode = "sse"
	ServerModeSTDIO ServerMode = "stdio"
	ServerModeHTTP  ServerMode = "http"
)

type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	Host    string     `mapstructure:"host"`
	Mode    ServerMode `mapstructure:"mode"`
	Name    string     `mapstructure:"name"`
	Version string     `mapstructure:"version"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

// Default returns a configuration usable without any config file
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "localhost",
			Port:    8080,
			Mode:    ServerModeSTDIO,
			Name:    "fetchkit",
			Version: version,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Client: ClientConfig{
			Timeout:      DefaultTimeout,
			Headers:      map[string]string{},
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
	}
}

// InitFlags initializes command line flags (without parsing)
func InitFlags(fs *pflag.FlagSet) {
	fs.String("mode", string(ServerModeSTDIO), "Server mode (stdio|sse|http)")
	fs.Duration("timeout", DefaultTimeout, "Per-request timeout")
	fs.String("log-level", "info", "Log level (debug|info|warn|error)")
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.mode", string(def.Server.Mode))
	v.SetDefault("server.name", def.Server.Name)
	v.SetDefault("server.version", def.Server.Version)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("client.timeout", def.Client.Timeout)
	v.SetDefault("client.max_body_bytes", def.Client.MaxBodyBytes)
}

// Load reads configuration from ./config.yaml or /etc/fetchkit/config.yaml,
// FETCHKIT_* environment variables and the given flag set. The config file
// is optional.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FETCHKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/fetchkit")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Flags override the nested keys they shadow
	if fs != nil {
		if f := fs.Lookup("mode"); f != nil && f.Changed {
			config.Server.Mode = ServerMode(v.GetString("mode"))
		}
		if f := fs.Lookup("timeout"); f != nil && f.Changed {
			config.Client.Timeout = v.GetDuration("timeout")
		}
		if f := fs.Lookup("log-level"); f != nil && f.Changed {
			config.Logging.Level = v.GetString("log-level")
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the values that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case ServerModeSSE, ServerModeSTDIO, ServerModeHTTP:
	default:
		return fmt.Errorf("unsupported server mode: %q", c.Server.Mode)
	}
	if c.Client.Timeout < 0 {
		return fmt.Errorf("client.timeout must not be negative, got %s", c.Client.Timeout)
	}
	if c.Client.Timeout == 0 {
		c.Client.Timeout = DefaultTimeout
	}
	if c.Client.MaxBodyBytes <= 0 {
		c.Client.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Client.Headers == nil {
		c.Client.Headers = map[string]string{}
	}
	return nil
}

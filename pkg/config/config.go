// Package config assembles the proxy configuration from defaults, an optional
// JSON file and command-line flags, in that order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"pixgallery/pkg/upstream"
)

// EnvUpstream overrides the default upstream API root.
const EnvUpstream = "PIXGALLERY_UPSTREAM"

// ErrInvalidConfig is returned when the assembled configuration is unusable.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the proxy runtime settings.
type Config struct {
	ListenAddr              string
	UpstreamBaseURL         string
	RequestTimeout          time.Duration
	RetryMax                int
	RetryWaitMin            time.Duration
	RetryWaitMax            time.Duration
	GracefulShutdownTimeout time.Duration
	AllowOrigins            []string
	Debug                   bool
	LogJSON                 bool
}

// Duration accepts "30s" style strings or integer nanoseconds in JSON.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*d = Duration(time.Duration(v))
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("%w: duration %s", ErrInvalidConfig, data)
	}
	return nil
}

// fileConfig is the JSON file layout. Pointer fields distinguish "absent" from zero.
type fileConfig struct {
	ListenAddr              *string   `json:"listen_addr"`
	UpstreamBaseURL         *string   `json:"upstream_base_url"`
	RequestTimeout          *Duration `json:"request_timeout"`
	RetryMax                *int      `json:"retry_max"`
	RetryWaitMin            *Duration `json:"retry_wait_min"`
	RetryWaitMax            *Duration `json:"retry_wait_max"`
	GracefulShutdownTimeout *Duration `json:"graceful_shutdown_timeout"`
	AllowOrigins            []string  `json:"allow_origins"`
	Debug                   *bool     `json:"debug"`
	LogJSON                 *bool     `json:"log_json"`
}

// LoadDefaults populates c with defaults. Retries and request timeouts are
// off unless configured.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8787"
	c.UpstreamBaseURL = upstream.DefaultBaseURL
	if env := strings.TrimSpace(os.Getenv(EnvUpstream)); env != "" {
		c.UpstreamBaseURL = env
	}
	c.RequestTimeout = 0
	c.RetryMax = 0
	c.RetryWaitMin = time.Second
	c.RetryWaitMax = 30 * time.Second
	c.GracefulShutdownTimeout = 10 * time.Second
	c.AllowOrigins = []string{"*"}
	c.Debug = false
	c.LogJSON = false
}

// Load builds a Config from defaults, the JSON file named by -config and the
// remaining flags in args.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	fs := flag.NewFlagSet("gallery-proxy", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to JSON config file")
	addr := fs.String("addr", "", "Listen address")
	upstreamURL := fs.String("upstream", "", "Upstream API base URL")
	requestTimeout := fs.Duration("request-timeout", -1, "Upstream request timeout (0 disables)")
	retryMax := fs.Int("retry-max", -1, "Retries on upstream connection failures")
	allowOrigins := fs.String("allow-origins", "", "Comma-separated CORS origins")
	debug := fs.Bool("debug", false, "Enable debug logging")
	logJSON := fs.Bool("log-json", false, "Write logs as JSON lines")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configPath != "" {
		if err := cfg.applyFile(*configPath); err != nil {
			return nil, err
		}
	}

	// Flags win over the file only when given.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.ListenAddr = *addr
		case "upstream":
			cfg.UpstreamBaseURL = *upstreamURL
		case "request-timeout":
			cfg.RequestTimeout = *requestTimeout
		case "retry-max":
			cfg.RetryMax = *retryMax
		case "allow-origins":
			cfg.AllowOrigins = splitList(*allowOrigins)
		case "debug":
			cfg.Debug = *debug
		case "log-json":
			cfg.LogJSON = *logJSON
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %w", ErrInvalidConfig, path, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("%w: parsing %s: %w", ErrInvalidConfig, path, err)
	}

	if fc.ListenAddr != nil {
		c.ListenAddr = *fc.ListenAddr
	}
	if fc.UpstreamBaseURL != nil {
		c.UpstreamBaseURL = *fc.UpstreamBaseURL
	}
	if fc.RequestTimeout != nil {
		c.RequestTimeout = time.Duration(*fc.RequestTimeout)
	}
	if fc.RetryMax != nil {
		c.RetryMax = *fc.RetryMax
	}
	if fc.RetryWaitMin != nil {
		c.RetryWaitMin = time.Duration(*fc.RetryWaitMin)
	}
	if fc.RetryWaitMax != nil {
		c.RetryWaitMax = time.Duration(*fc.RetryWaitMax)
	}
	if fc.GracefulShutdownTimeout != nil {
		c.GracefulShutdownTimeout = time.Duration(*fc.GracefulShutdownTimeout)
	}
	if fc.AllowOrigins != nil {
		c.AllowOrigins = fc.AllowOrigins
	}
	if fc.Debug != nil {
		c.Debug = *fc.Debug
	}
	if fc.LogJSON != nil {
		c.LogJSON = *fc.LogJSON
	}
	return nil
}

// Validate checks the values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen address is empty", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.UpstreamBaseURL, "http://") && !strings.HasPrefix(c.UpstreamBaseURL, "https://") {
		return fmt.Errorf("%w: upstream must start with http:// or https://", ErrInvalidConfig)
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("%w: retry-max must not be negative", ErrInvalidConfig)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%w: request timeout must not be negative", ErrInvalidConfig)
	}
	if len(c.AllowOrigins) == 0 {
		c.AllowOrigins = []string{"*"}
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

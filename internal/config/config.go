// Package config loads the gateway's configuration from a JSON file or
// a literal JSON string, mirroring the teacher's viper-based loader but
// locked to JSON only (the config surface never needs YAML/TOML, and
// viper's JSON codec is backed by encoding/json, so trailing commas are
// rejected for free).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration document (§6).
type Config struct {
	Port           int           `mapstructure:"port"`
	BindAddr       string        `mapstructure:"bind_addr"`
	MaxClients     int           `mapstructure:"max_clients"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	FallbackPath   string        `mapstructure:"fallback_path"`

	// ICCProfilePath is the default ICC profile applied to CMYK JPEGs
	// that carry no usable embedded profile of their own.
	ICCProfilePath string `mapstructure:"icc_profile_path"`
	// EmbeddedProfileEnabled toggles preferring a JPEG's own embedded ICC
	// profile over ICCProfilePath's default — independent of whether a
	// default is configured at all (§4.7: these are two separate knobs).
	EmbeddedProfileEnabled bool `mapstructure:"embedded_profile_enabled"`

	Client       ClientConfig  `mapstructure:"client"`
	Limiter      LimiterConfig `mapstructure:"limiter"`
	Providers    []Provider    `mapstructure:"providers"`
	Experimental Experimental  `mapstructure:"experimental"`
}

// ClientConfig groups the two origin-client configurations (§6).
type ClientConfig struct {
	S3  S3Config  `mapstructure:"s3"`
	Web WebConfig `mapstructure:"web"`
}

// S3Config configures the object-store origin client. If EndpointURL is
// set, AccessKeyID and SecretAccessKey are required and path-style
// addressing is forced.
type S3Config struct {
	AWSRegion          string `mapstructure:"aws_region"`
	AWSEndpointURL     string `mapstructure:"aws_endpoint_url"`
	AWSAccessKeyID     string `mapstructure:"aws_access_key_id"`
	AWSSecretAccessKey string `mapstructure:"aws_secret_access_key"`
}

// WebConfig configures the HTTP origin client.
type WebConfig struct {
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// LimiterConfig carries the sliding-window admission limiter settings,
// generalized from the teacher's server.limiter block.
type LimiterConfig struct {
	Max        int           `mapstructure:"max"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// Provider is one entry of the ordered providers list. Src must parse
// as a URI with scheme s3|http|https|file.
type Provider struct {
	Path                 string `mapstructure:"path"`
	Src                  string `mapstructure:"src"`
	FallbackPath         string `mapstructure:"fallback_path"`
	SuccessEvenNoContent bool   `mapstructure:"success_even_no_content"`
}

// Experimental gates features outside the core spec.
type Experimental struct {
	EnableTemplateRender bool   `mapstructure:"enable_template_render"`
	TemplatesDir         string `mapstructure:"templates_dir"`
	FontPath             string `mapstructure:"font_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("bind_addr", "0.0.0.0")
	v.SetDefault("max_clients", 64)
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("read_timeout", "10s")
	v.SetDefault("write_timeout", "10s")
	v.SetDefault("embedded_profile_enabled", true)
	v.SetDefault("client.web.timeout", "10s")
	v.SetDefault("limiter.max", 100)
	v.SetDefault("limiter.expiration", "1m")
	v.SetDefault("experimental.enable_template_render", false)
}

// LoadFile reads and parses a JSON config file at path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return unmarshal(v)
}

// LoadJSON parses a literal JSON document, for the --json CLI flag.
func LoadJSON(literal string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	setDefaults(v)
	if err := v.ReadConfig(strings.NewReader(literal)); err != nil {
		return nil, fmt.Errorf("config: parse literal JSON: %w", err)
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Client.S3.AWSEndpointURL != "" {
		if c.Client.S3.AWSAccessKeyID == "" || c.Client.S3.AWSSecretAccessKey == "" {
			return fmt.Errorf("config: client.s3.aws_endpoint_url set but access key id/secret missing")
		}
	}
	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if seen[p.Path] {
			return fmt.Errorf("config: duplicate provider path %q", p.Path)
		}
		seen[p.Path] = true
	}
	return nil
}

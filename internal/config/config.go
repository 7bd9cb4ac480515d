package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/newthinker/cointools/internal/core"
	"github.com/spf13/viper"
)

// ProviderNames lists the providers that can be configured.
var ProviderNames = []string{"bitbay", "coincap", "coinmarketcap", "cryptowatch"}

type Config struct {
	Log       LogConfig                 `mapstructure:"log"`
	HTTP      HTTPConfig                `mapstructure:"http"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
	Archive   ArchiveConfig             `mapstructure:"archive"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"` // empty means cointools/<version>
}

type ProviderConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"` // empty means the public API
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Textfile string `mapstructure:"textfile"` // written on exit when set
}

// ArchiveConfig selects where export snapshots are written.
type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// Load reads configuration from file. An empty path loads defaults plus
// environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Support environment variable overrides
	v.SetEnvPrefix("cointools")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	for name, p := range d.Providers {
		v.SetDefault("providers."+name+".enabled", p.Enabled)
		v.SetDefault("providers."+name+".base_url", p.BaseURL)
	}
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
	v.SetDefault("archive.type", d.Archive.Type)
	v.SetDefault("archive.path", d.Archive.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	providers := make(map[string]ProviderConfig, len(ProviderNames))
	for _, name := range ProviderNames {
		providers[name] = ProviderConfig{Enabled: true}
	}

	return &Config{
		HTTP: HTTPConfig{
			Timeout: 10 * time.Second,
		},
		Providers: providers,
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "./data/archive",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.HTTP.Timeout <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("http timeout must be positive, got %s", c.HTTP.Timeout))
	}

	for name, p := range c.Providers {
		if !knownProvider(name) {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown provider %q", name))
		}
		if p.BaseURL == "" {
			continue
		}
		u, err := url.Parse(p.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("provider %s: invalid base_url %q", name, p.BaseURL))
		}
	}

	switch c.Archive.Type {
	case "localfs":
		if c.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive path required when type is localfs"))
		}
	case "s3":
		if c.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive s3 bucket required when type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unsupported archive type %q", c.Archive.Type))
	}

	return nil
}

func knownProvider(name string) bool {
	for _, n := range ProviderNames {
		if n == name {
			return true
		}
	}
	return false
}

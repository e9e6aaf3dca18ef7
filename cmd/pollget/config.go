package main

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/adamwoolhether/pollhttp/client"
	"github.com/adamwoolhether/pollhttp/client/throttle"
	"github.com/adamwoolhether/pollhttp/connectivity"
	"github.com/adamwoolhether/pollhttp/internal/validate"
)

const (
	envVarPrefix = "POLLGET"
	appName      = "pollget"
)

// Config is read from YAML and then overridden by POLLGET_* environment
// variables.
type Config struct {
	Dir           string                   `yaml:"dir" envconfig:"DIR" validate:"required"`
	URLs          []string                 `yaml:"urls" envconfig:"URLS" validate:"dive,required"`
	Network       connectivity.Credentials `yaml:"network" envconfig:"NETWORK"`
	Throttle      throttle.Config          `yaml:"throttle" envconfig:"THROTTLE"`
	RedirectLimit int                      `yaml:"redirectLimit" envconfig:"REDIRECT_LIMIT" validate:"gte=0"`
	Tick          time.Duration            `yaml:"tick" envconfig:"TICK" validate:"gt=0"`
	Timeout       time.Duration            `yaml:"timeout" envconfig:"TIMEOUT" validate:"gte=0"`
	Log           LogConfig                `yaml:"log" envconfig:"LOG"`
}

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
}

func defaultConfig() Config {
	return Config{
		Dir:           ".",
		Network:       connectivity.Credentials{SSID: "host"},
		RedirectLimit: 5,
		Tick:          10 * time.Millisecond,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads configFile when it exists, then applies the environment.
// An empty configFile falls back to $POLLGET_CONFIG_FILE and then
// ~/.config/pollget.yaml.
func LoadConfig(configFile string) (Config, error) {
	if configFile == "" {
		configFile = os.Getenv(envVarPrefix + "_CONFIG_FILE")
	}
	if configFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configFile = filepath.Join(home, ".config", appName+".yaml")
		}
	}

	cfg := defaultConfig()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("unmarshaling config file: %w", err)
			}
		}
	}

	if err := envconfig.Process(envVarPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment variables: %w", err)
	}

	return cfg, nil
}

// Validate checks cfg against its tags and that every URL can be fetched.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	for _, u := range c.URLs {
		if _, err := client.ParseTarget(u); err != nil {
			return fmt.Errorf("validating config: url %q: %w", u, err)
		}
	}

	return nil
}

// destinations names a file under dir for each URL from the last path
// segment, slugified. Repeated names get a numeric suffix.
func destinations(dir string, urls []string) ([]string, error) {
	taken := make(map[string]bool)
	out := make([]string, len(urls))

	for i, u := range urls {
		target, err := client.ParseTarget(u)
		if err != nil {
			return nil, fmt.Errorf("url %q: %w", u, err)
		}

		p, _, _ := strings.Cut(target.Path, "?")
		base := path.Base(p)
		ext := strings.ToLower(path.Ext(base))
		name := slug.Make(strings.TrimSuffix(base, path.Ext(base)))
		if name == "" {
			name = slug.Make(target.Host)
		}

		file := name + ext
		for n := 2; taken[file]; n++ {
			file = fmt.Sprintf("%s-%d%s", name, n, ext)
		}
		taken[file] = true

		out[i] = filepath.Join(dir, file)
	}

	return out, nil
}

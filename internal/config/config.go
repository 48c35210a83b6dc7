/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package config reads the vcverify configuration from vcverify.yaml, VCVERIFY_* variables and .env.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/trustbloc/vc-offline-verifier/internal/logging"
)

const (
	configName = "vcverify"
	envPrefix  = "VCVERIFY"
)

var (
	defaults = map[string]interface{}{ //nolint:gochecknoglobals
		"verbose":              false,
		"http.timeout":         60 * time.Second,
		"cache.size":           256,
		"cache.ttl":            10 * time.Minute,
		"contexts.dir":         "",
		"contexts.online":      false,
		"contexts.cache_bytes": 32 * 1024 * 1024,
	}

	searchPaths = []string{"/etc/vcverify/", "$HOME/.vcverify", "."} //nolint:gochecknoglobals
)

func init() { //nolint:gochecknoinits
	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// Config is the resolved vcverify configuration.
type Config struct {
	Verbose  bool     `mapstructure:"verbose"`
	HTTP     HTTP     `mapstructure:"http"`
	Cache    Cache    `mapstructure:"cache"`
	Contexts Contexts `mapstructure:"contexts"`
}

// HTTP configures the client used for did:web and https key documents.
type HTTP struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Cache configures the resolved key cache.
type Cache struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// Contexts configures the JSON-LD context loader.
type Contexts struct {
	Dir        string `mapstructure:"dir"`
	Online     bool   `mapstructure:"online"`
	CacheBytes int    `mapstructure:"cache_bytes"`
}

// GetConfig loads .env, then the global viper instance from the default search paths.
func GetConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load() //nolint:errcheck

	return Load(viper.GetViper(), searchPaths...)
}

// Load reads the configuration into v. A missing config file is not an error.
func Load(v *viper.Viper, paths ...string) (*Config, error) {
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetConfigName(configName)

	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok { //nolint:errorlint
			logging.Entry().Debug("no config found")
		} else {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	c := &Config{}

	err := v.Unmarshal(c, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}

	if err = c.validate(); err != nil {
		return nil, err
	}

	if c.Verbose {
		logging.SetLevel(logrus.DebugLevel)
		logging.Entry().WithField("level", "debug").Debug("setting log level")
	}

	return c, nil
}

func (c *Config) validate() error {
	switch {
	case c.HTTP.Timeout <= 0:
		return errors.Errorf("http.timeout must be positive, got %s", c.HTTP.Timeout)
	case c.Cache.Size < 0:
		return errors.Errorf("cache.size must not be negative, got %d", c.Cache.Size)
	case c.Contexts.CacheBytes < 0:
		return errors.Errorf("contexts.cache_bytes must not be negative, got %d", c.Contexts.CacheBytes)
	}

	return nil
}

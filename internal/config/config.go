// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads the command line configuration. Precedence is
// flags, then QUEUEWORKER_* environment variables, then the config
// file, then defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type Config struct {
	LogLevel    string
	Development bool

	Format string

	RemoveDefaultDesiredCount bool

	Region  string
	Account string

	Subnets        []string
	SecurityGroups []string
	AssignPublicIP bool

	ConfigFile string
}

// ApplyDefaults sets every default on v.
func ApplyDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("output.format", FormatJSON)
	v.SetDefault("features.remove-default-desired-count", false)
	v.SetDefault("render.region", "us-east-1")
	v.SetDefault("render.account", "000000000000")
	v.SetDefault("render.subnets", []string{})
	v.SetDefault("render.security-groups", []string{})
	v.SetDefault("render.assign-public-ip", false)
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":                    "log.level",
	"format":                       "output.format",
	"remove-default-desired-count": "features.remove-default-desired-count",
	"region":                       "render.region",
	"account":                      "render.account",
	"subnet":                       "render.subnets",
	"security-group":               "render.security-groups",
	"assign-public-ip":             "render.assign-public-ip",
}

// Load reads the configuration. file may be empty, in which case
// queueworker.yaml is looked up in the working directory and in
// $HOME/.queueworker. flags may be nil.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	ApplyDefaults(v)

	v.SetEnvPrefix("QUEUEWORKER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("queueworker")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".queueworker"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || file != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		LogLevel:                  v.GetString("log.level"),
		Development:               v.GetBool("log.development"),
		Format:                    strings.ToLower(v.GetString("output.format")),
		RemoveDefaultDesiredCount: v.GetBool("features.remove-default-desired-count"),
		Region:                    v.GetString("render.region"),
		Account:                   v.GetString("render.account"),
		Subnets:                   v.GetStringSlice("render.subnets"),
		SecurityGroups:            v.GetStringSlice("render.security-groups"),
		AssignPublicIP:            v.GetBool("render.assign-public-ip"),
		ConfigFile:                v.ConfigFileUsed(),
	}
	if cfg.Format != FormatJSON && cfg.Format != FormatYAML {
		return nil, fmt.Errorf("unknown output format %q", cfg.Format)
	}
	return cfg, nil
}

package config

import (
	"flag"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Load reads file (YAML or INI, detected by viper from its extension),
// merges it over Default(), and validates the result. When useFlags is
// true, command line pflags bound alongside the standard flag package
// override file values, letting cmd/pgpool expose --host/--port without
// a second parsing pass.
func Load(file string, useFlags bool) (Config, error) {
	v := viper.New()

	if useFlags {
		pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
		pflag.Parse()
		if err := v.BindPFlags(pflag.CommandLine); err != nil {
			return Config{}, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	def := Default()
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", file, err)
	}

	cfg := def
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid: %w", err)
	}

	return cfg, nil
}

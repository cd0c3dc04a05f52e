package main

import (
	"strings"

	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const envPrefix = "SCEXTRACT"

// config layers an optional configuration file and SCEXTRACT_* environment
// variables underneath the command line flags. A flag given on the command
// line always wins, then the environment, then the file, then the flag's
// default.
type config struct {
	c *cli.Context
	v *viper.Viper
}

func newConfig(c *cli.Context) (*config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := c.String("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	return &config{c: c, v: v}, nil
}

func (cfg *config) fromViper(name string) bool {
	return !cfg.c.IsSet(name) && cfg.v.IsSet(name)
}

func (cfg *config) String(name string) string {
	if cfg.fromViper(name) {
		return cfg.v.GetString(name)
	}
	return cfg.c.String(name)
}

func (cfg *config) Bool(name string) bool {
	if cfg.fromViper(name) {
		return cfg.v.GetBool(name)
	}
	return cfg.c.Bool(name)
}

func (cfg *config) Int(name string) int {
	if cfg.fromViper(name) {
		return cfg.v.GetInt(name)
	}
	return cfg.c.Int(name)
}

func (cfg *config) Int64(name string) int64 {
	if cfg.fromViper(name) {
		return cfg.v.GetInt64(name)
	}
	return cfg.c.Int64(name)
}

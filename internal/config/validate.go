package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ValidateConfig holds configuration for the validate command.
type ValidateConfig struct {
	In       string
	LogLevel string
}

// LoadValidate merges config file, environment variables, and flags into ValidateConfig.
func LoadValidate(cfgFile string, flags *pflag.FlagSet) (ValidateConfig, error) {
	v := viper.New()
	v.SetDefault("log-level", "info")

	if err := read(v, cfgFile, flags); err != nil {
		return ValidateConfig{}, err
	}

	return ValidateConfig{
		In:       v.GetString("in"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

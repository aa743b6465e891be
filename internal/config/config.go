// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/property-analyzer/internal/analysis"
	"github.com/iwvelando/property-analyzer/internal/equity"
	"github.com/iwvelando/property-analyzer/internal/mao"
	"github.com/iwvelando/property-analyzer/internal/store"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for property-analyzer.
type Configuration struct {
	Logging    LoggingConfig     `mapstructure:"logging" yaml:"logging,omitempty"`
	Output     OutputConfig      `mapstructure:"output" yaml:"output,omitempty"`
	MAO        mao.Config        `mapstructure:"mao" yaml:"mao,omitempty"`
	Store      store.Config      `mapstructure:"store" yaml:"store,omitempty"`
	Owner      string            `mapstructure:"owner" yaml:"owner,omitempty"`
	Properties []analysis.Record `mapstructure:"properties" yaml:"properties,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Money values may be written as numbers or formatted
// strings ("$1,250.00") and percentages as numbers or "8%".
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetConfigType("yml")

	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("mao.maxCashLeft", constants.DefaultMaxCashLeft)
	v.SetDefault("mao.defaultLtv", constants.DefaultLTVPercentage)
	v.SetDefault("store.backend", constants.StoreMemory)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := v.Unmarshal(&configuration, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		analysis.DecodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	for i := range configuration.Properties {
		configuration.Properties[i] = analysis.Normalize(configuration.Properties[i])
		if configuration.Properties[i].Owner == "" {
			configuration.Properties[i].Owner = configuration.Owner
		}
	}

	return &configuration, nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Per-property validation is left to the calculator so
// that every violation is reported together.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if len(c.Properties) == 0 {
		warnings = append(warnings, "no properties are configured")
	}

	seen := make(map[string]int)
	for i, p := range c.Properties {
		key := strings.ToLower(p.Name)
		if key == "" {
			continue
		}
		if first, ok := seen[key]; ok {
			warnings = append(warnings, fmt.Sprintf("properties %d and %d share the name %q", first+1, i+1, p.Name))
			continue
		}
		seen[key] = i
	}

	if c.Owner != "" {
		for _, p := range c.Properties {
			if _, err := equity.OwnerShare(p, c.Owner); err != nil {
				warnings = append(warnings, fmt.Sprintf("%s lists partners but not %s and is left out of the portfolio", p.Name, c.Owner))
			}
		}
	}

	if c.MAO.MaxCashLeft < 0 {
		warnings = append(warnings, fmt.Sprintf("mao.maxCashLeft is negative (%v)", c.MAO.MaxCashLeft))
	}
	if c.MAO.DefaultLTV <= 0 || c.MAO.DefaultLTV > 100 {
		warnings = append(warnings, fmt.Sprintf("mao.defaultLtv of %v is outside (0, 100]", c.MAO.DefaultLTV))
	}

	return warnings
}

package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/iwvelando/property-analyzer/internal/config"
	"github.com/iwvelando/property-analyzer/internal/mao"
	"github.com/iwvelando/property-analyzer/internal/store"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// ByteSize is a request body limit. It decodes from plain byte counts or
// from strings such as "256K" and "10MB".
type ByteSize int64

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address       string               `mapstructure:"address"`
	MaxUploadSize ByteSize             `mapstructure:"maxUploadSize"`
	Version       string               `mapstructure:"version"`
	Logging       config.LoggingConfig `mapstructure:"logging"`
	MAO           mao.Config           `mapstructure:"mao"`
	Store         store.Config         `mapstructure:"store"`
}

// LoadConfig reads the server settings from the YAML file at path and from
// ANALYZER_* environment variables, which win over the file. A missing file
// is not an error; the defaults and any environment overrides apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.ServerEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("address", constants.DefaultServerAddress)
	v.SetDefault("maxUploadSize", constants.DefaultMaxUploadSizeBytes)
	v.SetDefault("version", "")
	v.SetDefault("mao.maxCashLeft", constants.DefaultMaxCashLeft)
	v.SetDefault("mao.defaultLtv", constants.DefaultLTVPercentage)
	v.SetDefault("store.backend", constants.StoreMemory)

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to parse server config: %w", err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read server config: %w", err)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		byteSizeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode server config: %w", err)
	}

	if cfg.Address == "" {
		cfg.Address = constants.DefaultServerAddress
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = ByteSize(constants.DefaultMaxUploadSizeBytes)
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = constants.StoreMemory
	}
	if cfg.MAO.DefaultLTV <= 0 {
		cfg.MAO.DefaultLTV = constants.DefaultLTVPercentage
	}
	return &cfg, nil
}

func byteSizeHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(ByteSize(0)) {
			return data, nil
		}
		switch raw := data.(type) {
		case string:
			n, err := ParseSize(raw)
			return ByteSize(n), err
		case int:
			return ByteSize(raw), nil
		case int64:
			return ByteSize(raw), nil
		case float64:
			return ByteSize(raw), nil
		}
		return data, nil
	}
}

var sizeUnits = map[string]int64{
	"":   1,
	"B":  1,
	"K":  1 << 10,
	"KB": 1 << 10,
	"M":  1 << 20,
	"MB": 1 << 20,
	"G":  1 << 30,
	"GB": 1 << 30,
}

// ParseSize converts a byte count such as "4096", "256K" or "3MB" into
// bytes. An empty value yields the default upload limit.
func ParseSize(value string) (int64, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	digits := strings.TrimRight(trimmed, "ABCDEFGHIJKLMNOPQRSTUVWXYZ ")
	unit := strings.TrimSpace(trimmed[len(digits):])
	multiplier, ok := sizeUnits[unit]
	if !ok {
		return 0, fmt.Errorf("unsupported size unit %q", unit)
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}
	if n < 0 || n > (1<<62)/multiplier {
		return 0, fmt.Errorf("size out of range: %s", value)
	}
	return n * multiplier, nil
}

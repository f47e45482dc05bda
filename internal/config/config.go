// Package config loads the CLI configuration file.
package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvEncryptionKey overrides encryption_key so the key can stay out of the file.
const EnvEncryptionKey = "INTENTFLOW_ENCRYPTION_KEY"

// DefaultPath is looked up when no --config flag is given.
const DefaultPath = "intentflow.yaml"

// Config is the file-level configuration of the CLI.
type Config struct {
	Debounce     time.Duration `mapstructure:"debounce" yaml:"debounce" validate:"gte=0"`
	HistoryDepth int           `mapstructure:"history_depth" yaml:"history_depth" validate:"gte=0"`
	SaveDir      string        `mapstructure:"save_dir" yaml:"save_dir" validate:"required"`
	Format       string        `mapstructure:"format" yaml:"format" validate:"oneof=json yaml"`
	Addr         string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	LogLevel     string        `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat    string        `mapstructure:"log_format" yaml:"log_format" validate:"omitempty,oneof=text json"`

	// EncryptionKey is a hex-encoded AES-256 key. Empty disables encryption.
	EncryptionKey string `mapstructure:"encryption_key" yaml:"encryption_key,omitempty" validate:"omitempty,hexadecimal,len=64"`

	Metadata domain.Metadata `mapstructure:"metadata" yaml:"metadata"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Debounce:     time.Second,
		HistoryDepth: 100,
		SaveDir:      ".intentflow/snapshots",
		Format:       "json",
		Addr:         ":8080",
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Load reads a configuration file (YAML or JSON, chosen by extension) over
// the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	default:
		raw := map[string]any{}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			err = json.Unmarshal(data, &raw)
		} else {
			err = yaml.Unmarshal(data, &raw)
		}
		if err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		if err := decode(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
		}
	}

	if key := os.Getenv(EnvEncryptionKey); key != "" {
		cfg.EncryptionKey = key
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// JSON numbers arrive as float64, so whole seconds are accepted for debounce.
func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.DecodeHookFuncType(secondsToDuration),
		),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

var durationType = reflect.TypeOf(time.Duration(0))

func secondsToDuration(from, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch v := data.(type) {
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case int:
		return time.Duration(v) * time.Second, nil
	}
	return data, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Key decodes the encryption key. It returns nil when encryption is off.
func (c Config) Key() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	return key, nil
}

// Write stores c as YAML at path, creating parent directories.
func Write(path string, c Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

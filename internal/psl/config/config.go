package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// CacheSize is the number of resolutions kept in the LRU lookup cache.
	CacheSize uint `koanf:"cache_size" validate:"required,gte=1"`

	// DisableCache turns the lookup cache off entirely.
	DisableCache bool `koanf:"disable_cache"`

	// BloomFPRate is the target false-positive rate of the top-level label filter.
	BloomFPRate float64 `koanf:"bloom_fp_rate" validate:"gt=0,lt=1"`

	// CompareBuiltin adds the Go-bundled public suffix list answer to each resolution.
	CompareBuiltin bool `koanf:"compare_builtin"`

	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// RulesDir holds YAML, JSON or TOML overlay files with extra rules. Empty disables overlays.
	RulesDir string `koanf:"rules_dir" validate:"omitempty,dir"`

	// SnapshotDB is the bbolt file holding the last fetched list. Empty disables snapshots.
	SnapshotDB string `koanf:"snapshot_db"`

	// Source is where the list is read from: an http(s) URL, a file:// URL or a local path.
	Source string `koanf:"source" validate:"required,psl_source"`

	// Timeout bounds a single fetch of Source.
	Timeout time.Duration `koanf:"timeout" validate:"gte=1s"`
}

// DEFAULT_APP_CONFIG holds the defaults applied before environment overrides.
var DEFAULT_APP_CONFIG = AppConfig{
	CacheSize:      4096,
	DisableCache:   false,
	BloomFPRate:    0.01,
	CompareBuiltin: false,
	Env:            "prod",
	LogLevel:       "info",
	RulesDir:       "",
	SnapshotDB:     "",
	Source:         "https://publicsuffix.org/list/public_suffix_list.dat",
	Timeout:        30 * time.Second,
}

// validSource accepts http and https URLs with a host, file:// URLs with a path,
// and bare filesystem paths.
func validSource(fl validator.FieldLevel) bool {
	src := strings.TrimSpace(fl.Field().String())
	if src == "" {
		return false
	}
	if !strings.Contains(src, "://") {
		return true
	}
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return u.Host != ""
	case "file":
		return u.Path != ""
	default:
		return false
	}
}

// envLoader loads environment variables with the prefix "PSL_", lowercasing keys
// and splitting comma or space separated values into lists. It can be replaced in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "PSL_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "PSL_"))
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				parts := strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
				return key, parts
			}

			return key, value
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the "psl_source" tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("psl_source", validSource)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

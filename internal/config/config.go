package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment overrides, e.g. TRADEJOURNAL_DATABASE_PATH.
const EnvPrefix = "TRADEJOURNAL"

// envKeys may be overridden from the environment without touching the file.
var envKeys = []string{"app.log_level", "app.log_path", "database.path", "cash.default_currency"}

// Load reads path and every file it includes, applies defaults for keys the
// files leave out and validates the result. An empty path loads defaults and
// environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if strings.TrimSpace(path) != "" {
		layers, err := readConfigTree(path)
		if err != nil {
			return nil, err
		}
		for _, layer := range layers {
			if err := v.MergeConfigMap(layer); err != nil {
				return nil, fmt.Errorf("merging config failed: %w", err)
			}
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults(explicitKeys(v))
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// readConfigTree reads path and, depth first, every file it includes.
// Included layers come before the file naming them so the includer wins on
// merge. Relative includes resolve against the including file.
func readConfigTree(path string) ([]map[string]any, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	var layers []map[string]any
	done := make(map[string]bool)
	visiting := make(map[string]bool)

	var walk func(file string) error
	walk = func(file string) error {
		file = filepath.Clean(file)
		if visiting[file] {
			return fmt.Errorf("include cycle detected: %s", file)
		}
		if done[file] {
			return nil
		}
		visiting[file] = true

		fv := viper.New()
		fv.SetConfigFile(file)
		if err := fv.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file failed (%s): %w", file, err)
		}
		for _, inc := range fv.GetStringSlice("include") {
			inc = strings.TrimSpace(inc)
			if inc == "" {
				continue
			}
			if !filepath.IsAbs(inc) {
				inc = filepath.Join(filepath.Dir(file), inc)
			}
			if err := walk(inc); err != nil {
				return err
			}
		}

		delete(visiting, file)
		done[file] = true
		layers = append(layers, fv.AllSettings())
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return layers, nil
}

// explicitKeys collects the dotted keys a file or the environment actually
// set. Defaults only fill the rest.
func explicitKeys(v *viper.Viper) keySet {
	keys := make(keySet)
	for _, key := range v.AllKeys() {
		if v.IsSet(key) {
			keys.mark(key)
		}
	}
	return keys
}

// Package configuration loads layered json5 config files. A file named
// <base>.local.<ext> is merged over <base>.<ext> so real credentials
// stay out of the checked-in file, and environment variables declared
// via `env:"NAME"` struct tags override both.
package configuration

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func localPath(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

// decodeFile reads one json5 file into out. A missing file is not an
// error, just reported as absent.
func decodeFile(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	return true, json5.Unmarshal(data, out)
}

// overrideFromEnv replaces every string field tagged `env:"NAME"` with
// that variable's value when it is set and non-empty. Only top-level
// fields are inspected.
func overrideFromEnv(cfg any) {
	v := reflect.ValueOf(cfg).Elem()
	if v.Kind() != reflect.Struct {
		return
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		field := v.Field(i)
		if field.Kind() != reflect.String || !field.CanSet() {
			continue
		}
		if value := os.Getenv(name); value != "" {
			field.SetString(value)
		}
	}
}

// ReadConfig loads <name>, merges <name>.local over it, then applies
// environment overrides. When neither file exists the returned error
// satisfies os.IsNotExist, but environment overrides still apply to the
// returned value so an env-only setup works without any file.
func ReadConfig[T any](name string) (T, error) {
	var cfg T

	found, err := decodeFile(name, &cfg)
	if err != nil {
		return cfg, err
	}

	var local T
	localFound, err := decodeFile(localPath(name), &local)
	if err != nil {
		return cfg, err
	}
	if localFound {
		if err := mergo.Merge(&cfg, local, mergo.WithOverride); err != nil {
			return cfg, err
		}
		slog.Info("merging config with local overrides", "local", localPath(name))
	}

	overrideFromEnv(&cfg)
	if !found && !localFound {
		return cfg, os.ErrNotExist
	}
	return cfg, nil
}

// ReadRecursively walks up from the working directory until it finds a
// config file matching the name, so a run started from any subdirectory
// of a checkout picks up the checkout's config.
func ReadRecursively[T any](name string) (T, error) {
	root, err := filepath.Abs("/")
	if err != nil {
		var zero T
		return zero, err
	}
	current, err := os.Getwd()
	if err != nil {
		var zero T
		return zero, err
	}

	for current != root {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if os.IsNotExist(err) {
			current = filepath.Join(current, "..")
			continue
		}
		if err != nil {
			var zero T
			return zero, err
		}
		return config, nil
	}

	var cfg T
	overrideFromEnv(&cfg)
	return cfg, os.ErrNotExist
}

// Package config loads piqued.toml (A1): resolved by ascending the
// directory tree from a starting point, the way the reference pack's
// lockplane.toml loader does it, stopping at the first config file found
// or at a project boundary (a `.git` directory).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ModuleType is the recognized set of `emit.moduleType` values.
type ModuleType string

const (
	ModuleCommonJS ModuleType = "CommonJS"
	ModuleESM      ModuleType = "ESM"
)

// Postgres holds the connection settings §6 names under `postgres.*`.
type Postgres struct {
	URI    string `toml:"uri"`
	Schema string `toml:"schema"`
}

// Emit holds the codegen output settings §6 names under `emit.*`. Neither
// the core nor the CLI reads these beyond validating emit.moduleType: they
// exist so a real checkout round-trips its config file.
type Emit struct {
	TypeFile   string     `toml:"typeFile"`
	ModuleType ModuleType `toml:"moduleType"`
	TableFile  string     `toml:"tableFile"`
}

// Workspace holds `workspace.*`.
type Workspace struct {
	Root string `toml:"root"`
}

// Config is the resolved, defaulted contents of piqued.toml.
type Config struct {
	Postgres  Postgres  `toml:"postgres"`
	Emit      Emit      `toml:"emit"`
	Workspace Workspace `toml:"workspace"`

	// ConfigFilePath is stamped on after load, mirroring the reference
	// loader's convention of recording where the file was actually found.
	ConfigFilePath string `toml:"-"`
}

const fileName = "piqued.toml"

// ErrConfigNotFound is the ConfigError kind named in spec.md §7: the
// ascending search reached a `.git` boundary without ever finding
// piqued.toml, so there is no project-local config to fall back to
// defaults from.
var ErrConfigNotFound = errors.New("piqued.toml not found before reaching project boundary (.git)")

var (
	defaultURI        = "postgresql://postgres:@localhost:5432/postgres"
	defaultSchema     = "public"
	defaultTypeFile   = "./postgres"
	defaultModuleType = ModuleCommonJS
)

// Load ascends from startDir looking for piqued.toml, parses it with
// go-toml/v2, and applies defaults to any zero-valued field. startDir
// empty means the current working directory.
func Load(startDir string) (*Config, error) {
	if startDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		startDir = wd
	}

	path, err := findConfigFile(startDir)
	if err != nil {
		return nil, err
	}

	return load(path, startDir)
}

// LoadFile parses the piqued.toml at the given explicit path (the CLI's
// `--config PATH` flag), bypassing the ascending search.
func LoadFile(path string) (*Config, error) {
	return load(path, filepath.Dir(path))
}

func load(path, startDir string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				row, col := derr.Position()
				return nil, fmt.Errorf("%s:%d:%d: %w", path, row, col, err)
			}
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		cfg.ConfigFilePath = path
	}

	applyDefaults(&cfg, startDir)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile walks up from dir looking for piqued.toml, stopping at
// the first one found (inclusive: a `.git` directory that itself holds
// piqued.toml still returns that path). If the walk instead reaches a
// `.git` directory with no piqued.toml anywhere between dir and it, that
// is a project boundary with a missing config and findConfigFile returns
// ErrConfigNotFound. Only when the walk reaches the filesystem root
// without ever crossing a `.git` boundary does it return "" with no
// error, applying defaults as if piqued.toml were optional outside any
// project.
func findConfigFile(dir string) (string, error) {
	for {
		candidate := filepath.Join(dir, fileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", ErrConfigNotFound
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func applyDefaults(cfg *Config, startDir string) {
	if cfg.Postgres.URI == "" {
		cfg.Postgres.URI = defaultURI
	}
	if cfg.Postgres.Schema == "" {
		cfg.Postgres.Schema = defaultSchema
	}
	if cfg.Emit.TypeFile == "" {
		cfg.Emit.TypeFile = defaultTypeFile
	}
	if cfg.Emit.ModuleType == "" {
		cfg.Emit.ModuleType = defaultModuleType
	}
	if cfg.Workspace.Root == "" {
		if cfg.ConfigFilePath != "" {
			cfg.Workspace.Root = filepath.Dir(cfg.ConfigFilePath)
		} else {
			cfg.Workspace.Root = startDir
		}
	}
}

func validate(cfg *Config) error {
	switch cfg.Emit.ModuleType {
	case ModuleCommonJS, ModuleESM:
	default:
		return fmt.Errorf("piqued.toml: emit.moduleType %q is not one of CommonJS, ESM", cfg.Emit.ModuleType)
	}
	return nil
}

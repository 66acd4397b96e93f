// Package config loads the optional setup.toml file and merges it with
// command-line flags into the effective settings threaded through the rest
// of the program.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFile is the config file searched for in the working directory.
const DefaultConfigFile = "setup.toml"

// FileConfig represents the raw setup.toml contents.
// All fields are pointers to distinguish "not set" from "set to zero/false".
type FileConfig struct {
	Wheelhouse *string `toml:"wheelhouse"`
	Python     *string `toml:"python"`
	Verbose    *bool   `toml:"verbose"`
	NoColor    *bool   `toml:"no_color"`
}

// Load reads the config file. Search order:
//  1. explicit path (--config flag) — missing file is an error
//  2. ./setup.toml — missing file yields an empty config
func Load(explicitPath string) (*FileConfig, error) {
	path := explicitPath
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			return &FileConfig{}, nil
		}
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if explicitPath != "" && errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg FileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Settings holds the effective configuration after merging defaults, the
// config file, environment variables and flags. It is passed explicitly to
// every component that needs it.
type Settings struct {
	Wheelhouse string // build-output directory for wheels
	Python     string // interpreter version passed to `uv venv --python`
	VenvPython string // path to the virtualenv's interpreter
	Verbose    bool
	NoColor    bool
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Wheelhouse: ".wheelhouse",
		Python:     "3.12",
		VenvPython: filepath.Join(".venv", "bin", "python"),
	}
}

// Merge applies the file config over defaults. Flag overrides are applied
// by the command layer afterwards, preserving the priority
// default < setup.toml < environment < flag.
func (s Settings) Merge(f *FileConfig) Settings {
	if f == nil {
		return s
	}
	if f.Wheelhouse != nil {
		s.Wheelhouse = *f.Wheelhouse
	}
	if f.Python != nil {
		s.Python = *f.Python
	}
	if f.Verbose != nil {
		s.Verbose = *f.Verbose
	}
	if f.NoColor != nil {
		s.NoColor = *f.NoColor
	}
	return s
}

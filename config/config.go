// Package config defines headerdb's on-disk TOML configuration, loaded
// the same way the teacher's cmd/mive/config.go loads its node config:
// exact field-name matching, with an explicit error for unknown keys
// instead of silently ignoring them.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
)

// tomlSettings mirrors the teacher's: TOML keys must match Go struct
// field names exactly, and an unrecognized field is a load error rather
// than a silently dropped typo.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://pkg.go.dev/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// Config is the full set of options cmd/headerdb accepts, either from a
// TOML file or from command-line flags layered on top of it.
type Config struct {
	// DataDir holds the on-disk key-value store. Created if missing.
	DataDir string

	// DecodeCacheSize bounds the header codec cache (core/rawdb.DecodeCache).
	// Zero falls back to rawdb.DecodeCacheLimit.
	DecodeCacheSize int `toml:",omitempty"`

	// HTTPAddr and HTTPPort configure the query/insert API server (see
	// package api). An empty HTTPAddr disables the server entirely.
	HTTPAddr string `toml:",omitempty"`
	HTTPPort int    `toml:",omitempty"`

	// HTTPCorsDomains is the set of origins the API server accepts
	// cross-origin requests from.
	HTTPCorsDomains []string `toml:",omitempty"`

	// JWTSecretPath names a file holding a hex-encoded 32-byte secret used
	// to verify bearer tokens on mutating API endpoints. When empty, the
	// server still runs but its mutating endpoints reject every request.
	JWTSecretPath string `toml:",omitempty"`

	// LogFile, if set, is where logs are written instead of stderr,
	// rotated by lumberjack. LogVerbosity follows go-ethereum/log's
	// slog-level scale.
	LogFile      string `toml:",omitempty"`
	LogVerbosity string `toml:",omitempty"`
}

// Default returns the configuration cmd/headerdb starts from before any
// TOML file or flag is applied.
func Default() Config {
	return Config{
		DataDir:      defaultDataDir(),
		HTTPAddr:     "127.0.0.1",
		HTTPPort:     8645,
		LogVerbosity: "info",
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "headerdb-data"
	}
	return home + "/.headerdb"
}

// Load reads and decodes a TOML file into cfg, which should already hold
// Default() so unset fields keep their defaults.
func Load(file string, cfg *Config) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	var lineErr *toml.LineError
	if errors.As(err, &lineErr) {
		err = fmt.Errorf("%s, %w", file, err)
	}
	return err
}

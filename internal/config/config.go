// Package config loads dreamc compile-server defaults from a TOML file,
// in the style of the teacher's own configuration layer: a single struct
// decoded wholesale with github.com/BurntSushi/toml, with CLI flags always
// taking precedence over whatever it contains.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultPath is where dreamc looks for a config file when --config is not
// given.
const DefaultPath = "./dreamc.toml"

// StorageDriver is the closed set of persistence backends the server can be
// configured to use.
type StorageDriver string

const (
	StorageInMem  StorageDriver = "inmem"
	StorageSQLite StorageDriver = "sqlite"
)

// Config holds the tunable defaults for a dreamc compile server. Any zero
// value means "not configured"; callers should fall back to a hardcoded or
// environment-derived default in that case.
type Config struct {
	// Listen is the address the HTTP API listens on, e.g. "localhost:8080".
	Listen string `toml:"listen"`

	// Storage selects the persistence backend.
	Storage StorageDriver `toml:"storage"`

	// SQLitePath is the directory holding the SQLite database file, used
	// only when Storage is "sqlite".
	SQLitePath string `toml:"sqlite_path"`

	// TokenSecret signs issued JWTs. If empty, a random secret is generated
	// at startup and all tokens are invalidated on restart.
	TokenSecret string `toml:"token_secret"`

	// DefaultOptLevel is decoded from the file; neither dreamc nor dreamd
	// reads it.
	DefaultOptLevel int `toml:"default_opt_level"`
}

// Load reads and decodes the TOML file at path. A missing file at the
// default path is not an error; it is treated the same as an empty Config,
// since every field has a sensible "unconfigured" zero value.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultPath {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if cfg.Storage != "" && cfg.Storage != StorageInMem && cfg.Storage != StorageSQLite {
		return cfg, fmt.Errorf("config file %s: unsupported storage driver %q", path, cfg.Storage)
	}

	return cfg, nil
}

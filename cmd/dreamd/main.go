/*
Dreamd starts a dreamc compile server and begins listening for HTTP
requests.

Usage:

	dreamd [flags]
	dreamd [flags] -l [[ADDRESS]:PORT]

Once started, dreamd listens for HTTP requests and responds to them using
the JSON API under /api/v1. By default it listens on localhost:8080. This
can be changed with the --listen/-l flag, the DREAMD_LISTEN_ADDRESS
environment variable, or the "listen" key of a TOML config file.

If a JWT token secret is not given, one is generated and seeded from a
secure random source. As a consequence, in this mode of operation all
tokens are rendered invalid as soon as the server shuts down. This is
suitable for testing, but must be set explicitly for production use.

The flags are:

	-v, --version
		Give the current version of the dreamd server and then exit.

	-c, --config PATH
		Load server defaults from the TOML file at PATH. Defaults to
		./dreamc.toml if present.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWT tokens. If there are fewer
		than 32 bytes in the secret, it is repeated until it is. The maximum
		size is 64 bytes.

	--db DRIVER[:PARAMS]
		Use the given DB connection string. DRIVER must be one of: inmem,
		sqlite. sqlite needs the path to the storage directory, e.g.
		sqlite:path/to/db_dir.
*/
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dreamlang/dreamc/internal/config"
	"github.com/dreamlang/dreamc/internal/version"
	"github.com/dreamlang/dreamc/server"
	"github.com/dreamlang/dreamc/server/dao"
	"github.com/dreamlang/dreamc/server/serr"
	"github.com/spf13/pflag"
)

const (
	EnvListen = "DREAMD_LISTEN_ADDRESS"
	EnvSecret = "DREAMD_TOKEN_SECRET"
	EnvDB     = "DREAMD_DATABASE"
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of dreamd and then exit.")
	flagConfig  = pflag.StringP("config", "c", config.DefaultPath, "Load server defaults from the given TOML file.")
	flagListen  = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret  = pflag.StringP("secret", "s", "", "Use the given secret for token generation.")
	flagDB      = pflag.String("db", "", "Use the given DB connection string.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("dreamd %s (dreamc v%s)\n", version.ServerCurrent, version.Current)
		return
	}

	if len(pflag.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		os.Exit(1)
	}

	listenAddr := cfg.Listen
	if env := os.Getenv(EnvListen); env != "" {
		listenAddr = env
	}
	if pflag.Lookup("listen").Changed {
		listenAddr = *flagListen
	}
	if listenAddr == "" {
		listenAddr = "localhost:8080"
	}

	addr, port, err := splitListenAddr(listenAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\nDo -h for help.\n", err.Error())
		os.Exit(1)
	}

	dbConnStr := string(cfg.Storage)
	if cfg.Storage == config.StorageSQLite && cfg.SQLitePath != "" {
		dbConnStr = "sqlite:" + cfg.SQLitePath
	}
	if env := os.Getenv(EnvDB); env != "" {
		dbConnStr = env
	}
	if pflag.Lookup("db").Changed {
		dbConnStr = *flagDB
	}

	dbPath, err := resolveDBPath(dbConnStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\nDo -h for help.\n", err.Error())
		os.Exit(1)
	}

	tokSecStr := cfg.TokenSecret
	if env := os.Getenv(EnvSecret); env != "" {
		tokSecStr = env
	}
	if pflag.Lookup("secret").Changed {
		tokSecStr = *flagSecret
	}

	tokSecret, err := resolveTokenSecret(tokSecStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		os.Exit(1)
	}

	ds, err := server.New(tokSecret, dbPath)
	if err != nil {
		log.Fatalf("FATAL could not start server: %s", err.Error())
	}
	log.Printf("DEBUG Server initialized")

	_, err = ds.CreateUser(context.Background(), "admin", "password", dao.Admin)
	if err != nil && !errors.Is(err, serr.ErrAlreadyExists) {
		log.Printf("ERROR could not create initial admin user: %v", err)
		os.Exit(2)
	}
	if !errors.Is(err, serr.ErrAlreadyExists) {
		log.Printf("INFO  Added initial admin user with password 'password'...")
	}

	log.Printf("INFO  Starting dreamd %s on %s...", version.ServerCurrent, listenAddr)
	if err := ds.ServeForever(addr, port); err != nil {
		log.Fatalf("FATAL server exited: %s", err.Error())
	}
}

func splitListenAddr(listenAddr string) (addr string, port int, err error) {
	bindParts := strings.SplitN(listenAddr, ":", 2)
	if len(bindParts) != 2 {
		return "", 0, fmt.Errorf("listen address is not in ADDRESS:PORT or :PORT format")
	}

	port, err = strconv.Atoi(bindParts[1])
	if err != nil {
		return "", 0, fmt.Errorf("%q is not a valid port number", bindParts[1])
	}

	return bindParts[0], port, nil
}

// resolveDBPath turns a DRIVER[:PARAMS] connection string into the storage
// directory server.New expects, or "" for an in-memory store.
func resolveDBPath(connStr string) (string, error) {
	if connStr == "" {
		return "", nil
	}

	dbParts := strings.SplitN(connStr, ":", 2)
	driver := strings.ToLower(dbParts[0])

	switch driver {
	case "", "inmem":
		return "", nil
	case "sqlite":
		if len(dbParts) != 2 || dbParts[1] == "" {
			return "", fmt.Errorf("sqlite driver requires a storage directory: sqlite:path/to/dir")
		}
		if err := os.MkdirAll(dbParts[1], 0770); err != nil {
			return "", fmt.Errorf("could not build data directory: %w", err)
		}
		return dbParts[1], nil
	default:
		return "", fmt.Errorf("unsupported DB engine: %q", driver)
	}
}

// resolveTokenSecret pads a given secret out to the 32-64 byte range the JWT
// HMAC signer expects, or generates a random one if none was given.
func resolveTokenSecret(given string) ([]byte, error) {
	if given == "" {
		secret := make([]byte, 64)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("could not generate token secret: %w", err)
		}
		log.Printf("WARN  Using generated token secret; all tokens issued will become invalid at shutdown")
		return secret, nil
	}

	secret := []byte(given)
	for len(secret) < 32 {
		doubled := make([]byte, len(secret)*2)
		copy(doubled, secret)
		copy(doubled[len(secret):], secret)
		secret = doubled
	}
	if len(secret) > 64 {
		return nil, fmt.Errorf("token secret is %d bytes, but it must be <= 64 bytes", len(secret))
	}

	return secret, nil
}

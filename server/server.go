// Package server assembles the dreamc compile server: persistence, the
// service layer in dreamsrv, and the HTTP API in api, behind a single type
// that a cmd entrypoint can configure and launch.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dreamlang/dreamc/server/api"
	"github.com/dreamlang/dreamc/server/dao"
	"github.com/dreamlang/dreamc/server/dao/inmem"
	"github.com/dreamlang/dreamc/server/dao/sqlite"
	"github.com/dreamlang/dreamc/server/dreamsrv"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultUnauthDelay is how long requests that end in an HTTP-401, HTTP-403,
// or HTTP-500 are paused before a response is sent, to deprioritize
// malicious or broken clients.
const DefaultUnauthDelay = 1 * time.Second

// DreamServer is a fully wired dreamc compile server, ready to have
// ServeForever called on it once constructed with New.
type DreamServer struct {
	db      dao.Store
	backend dreamsrv.Service
	api     api.API
}

// New builds a DreamServer. If dbDir is empty, an in-memory store is used;
// otherwise a SQLite-backed store is opened in that directory.
func New(tokenSecret []byte, dbDir string) (DreamServer, error) {
	var store dao.Store
	if dbDir == "" {
		store = inmem.NewDatastore()
	} else {
		var err error
		store, err = sqlite.NewDatastore(dbDir)
		if err != nil {
			return DreamServer{}, fmt.Errorf("could not open database: %w", err)
		}
	}

	backend := dreamsrv.Service{DB: store}

	return DreamServer{
		db:      store,
		backend: backend,
		api: api.API{
			Backend:     backend,
			UnauthDelay: DefaultUnauthDelay,
			Secret:      tokenSecret,
		},
	}, nil
}

// CreateUser creates a user account directly, bypassing the HTTP API. It is
// used by server launchers to seed an initial admin account.
func (ds DreamServer) CreateUser(ctx context.Context, username, password string, role dao.Role) (dao.User, error) {
	return ds.backend.CreateUser(ctx, username, password, role)
}

// router assembles the chi router that ServeForever listens with.
func (ds DreamServer) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Mount(api.PathPrefix, ds.api.Routes())
	return r
}

// ServeForever blocks, serving the API on addr:port until the process is
// killed or the listener errors.
func (ds DreamServer) ServeForever(addr string, port int) error {
	listenOn := fmt.Sprintf("%s:%d", addr, port)
	return http.ListenAndServe(listenOn, ds.router())
}

// Close releases any resources held by the server's persistence layer.
func (ds DreamServer) Close() error {
	return ds.db.Close()
}

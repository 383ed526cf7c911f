// Package api provides HTTP API endpoints for the dreamc compile server.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dreamlang/dreamc/server/dreamsrv"
	"github.com/dreamlang/dreamc/server/middle"
	"github.com/dreamlang/dreamc/server/result"
	"github.com/dreamlang/dreamc/server/serr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PathPrefix is the prefix of all paths in the API. Routers should mount a
// sub-router that routes all requests to the API at this path.
const PathPrefix = "/api/v1"

// requireIDParam gets the ID of the main entity being referenced in the URI
// and returns it. It panics if the key is not there or is not parsable.
func requireIDParam(r *http.Request) uuid.UUID {
	id, err := getURLParam(r, "id", uuid.Parse)
	if err != nil {
		panic(err.Error())
	}
	return id
}

func getURLParam[E any](r *http.Request, key string, parse func(string) (E, error)) (val E, err error) {
	valStr := chi.URLParam(r, key)
	if valStr == "" {
		return val, fmt.Errorf("parameter does not exist")
	}

	val, err = parse(valStr)
	if err != nil {
		return val, serr.New("", serr.ErrBadArgument)
	}
	return val, nil
}

// API holds parameters for endpoints needed to run and a service layer that
// will perform most of the actual logic. To use API, create one and then
// assign the result of its HTTP* methods as handlers to a router.
//
// This is exclusively an API for serving external requests. For direct
// programmatic access into the backend of a dreamc server via Go code, see
// [dreamsrv.Service].
type API struct {
	// Backend is the service that the API calls to perform the requested
	// actions.
	Backend dreamsrv.Service

	// UnauthDelay is the amount of time a request pauses before responding
	// with an HTTP-401, HTTP-403, or HTTP-500, to deprioritize such requests
	// from further processing and I/O.
	UnauthDelay time.Duration

	// Secret is the secret used to sign JWT tokens.
	Secret []byte
}

// Routes mounts every endpoint this API exposes onto a fresh chi.Router
// rooted at PathPrefix.
func (api API) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", api.HTTPCreateLogin())
	r.With(api.requireAuth()).Delete("/login/{id}", api.HTTPDeleteLogin())
	r.Post("/users", api.HTTPCreateUser())

	r.Group(func(r chi.Router) {
		r.Use(api.requireAuth())
		r.Post("/jobs", api.HTTPCreateJob())
		r.Get("/jobs", api.HTTPGetJobs())
		r.Get("/jobs/{id}", api.HTTPGetJob())
	})

	return r
}

func (api API) requireAuth() middle.Middleware {
	return middle.RequireAuth(api.Backend.DB.Users(), api.Secret, api.UnauthDelay)
}

// parseJSON decodes the request body as JSON into v, which must be a
// pointer. The request body is restored after reading so that later
// middleware may also read it.
func parseJSON(req *http.Request, v interface{}) error {
	contentType := req.Header.Get("Content-Type")
	if strings.ToLower(contentType) != "application/json" {
		return fmt.Errorf("request content-type is not application/json")
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}
	defer func() {
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewBuffer(bodyData))
	}()

	if err := json.Unmarshal(bodyData, v); err != nil {
		return serr.New("malformed JSON in request", err, serr.ErrBodyUnmarshal)
	}

	return nil
}

// EndpointFunc is a handler that produces a result.Result instead of writing
// directly to the ResponseWriter.
type EndpointFunc func(req *http.Request) result.Result

// Endpoint adapts an EndpointFunc into an http.HandlerFunc, writing the
// logged result and applying the unauth delay for HTTP-401, HTTP-403, and
// HTTP-500 responses.
func (api API) Endpoint(ep EndpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer panicTo500(w, req)

		r := ep(req)
		if r.Status == 0 {
			panic("endpoint result was never populated")
		}

		if r.Status == http.StatusUnauthorized || r.Status == http.StatusForbidden || r.Status == http.StatusInternalServerError {
			time.Sleep(api.UnauthDelay)
		}

		r.WriteResponse(w)
		r.Log(req)
	}
}

func panicTo500(w http.ResponseWriter, req *http.Request) (panicVal interface{}) {
	if panicErr := recover(); panicErr != nil {
		r := result.TextErr(http.StatusInternalServerError, "An internal server error occurred", fmt.Sprintf("panic: %v", panicErr))
		r.WriteResponse(w)
		r.Log(req)
		return true
	}
	return false
}

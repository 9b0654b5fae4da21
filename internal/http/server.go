// Package http expone el router operativo del broker: health, readiness,
// métricas y un listado de proveedores por realm.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dropDatabas3/idbroker/internal/authority"
	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	"github.com/dropDatabas3/idbroker/internal/observability/logger"
	"github.com/dropDatabas3/idbroker/internal/provider"
)

// Pinger lo implementa store.Stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps dependencias del router.
type Deps struct {
	Stores      Pinger
	Authorities *authority.Set
	Metrics     http.Handler
	// Version se devuelve en /readyz si no está vacía.
	Version string
}

// NewRouter arma el router chi.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(WithMetrics)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readyz(d))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	if d.Authorities != nil {
		r.Get("/v1/realms/{realm}/providers", listProviders(d.Authorities))
	}
	return r
}

type readyResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

func readyz(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := readyResponse{Status: "ready", Version: d.Version}
		if d.Stores != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.Stores.Ping(ctx); err != nil {
				logger.From(r.Context()).Warn("readiness check failed", logger.Err(err))
				resp.Status = "unavailable"
				resp.Error = err.Error()
				writeJSON(w, http.StatusServiceUnavailable, resp)
				return
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// providerView es la vista pública de una config; no incluye settings
// porque pueden traer secretos.
type providerView struct {
	Authority    string            `json:"authority"`
	Provider     string            `json:"provider"`
	Realm        string            `json:"realm"`
	Name         string            `json:"name,omitempty"`
	TitleMap     map[string]string `json:"titleMap,omitempty"`
	RepositoryID string            `json:"repositoryId"`
	Version      int               `json:"version"`
}

func listProviders(set *authority.Set) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		realm := chi.URLParam(r, "realm")
		only := r.URL.Query().Get("authority")

		out := []providerView{}
		for _, id := range set.IDs() {
			if only != "" && only != id {
				continue
			}
			list, err := set.Find(id).ListProviders(ctx, realm)
			if err != nil {
				writeError(w, r, err)
				return
			}
			for _, c := range list {
				out = append(out, toView(c))
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toView(c provider.Configurable) providerView {
	v := providerView{
		Authority:    c.Authority,
		Provider:     c.Provider,
		Realm:        c.Realm,
		Name:         c.Name,
		TitleMap:     c.TitleMap,
		RepositoryID: c.RepositoryID,
	}
	if c.Version != nil {
		v.Version = *c.Version
	}
	return v
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, repository.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		logger.From(r.Context()).Error("request failed", logger.Err(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	reqid "github.com/hanpama/hotgraph/internal/reqid"
)

func (a *app) router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.With(reqid.Middleware).Handle("/graphql", a.handler)
	r.Post("/refresh", a.handleRefresh)
	r.Get("/healthz", a.handleHealth)
	if a.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// handleRefresh requests a schema refresh. With a redis relay every
// subscribed instance refreshes, this one included.
func (a *app) handleRefresh(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(io.LimitReader(r.Body, 1024))
	reason := strings.TrimSpace(string(body))
	if reason == "" {
		reason = "refresh requested over http"
	}
	if a.relay != nil {
		if err := a.relay.Publish(r.Context(), reason); err != nil {
			a.logger.Error().Err(err).Msg("publish refresh request")
			http.Error(w, "refresh request could not be relayed", http.StatusBadGateway)
			return
		}
	} else {
		a.coordinator.HandleRefreshRequest(reason)
	}
	w.WriteHeader(http.StatusAccepted)
}

type health struct {
	Status     string   `json:"status"`
	Bundle     string   `json:"bundle,omitempty"`
	Generation uint64   `json:"generation,omitempty"`
	Providers  []string `json:"providers"`
	Pending    bool     `json:"pending"`
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := health{Status: "ok", Providers: []string{}}
	status := http.StatusOK
	if b := a.registry.Current(); b != nil {
		h.Bundle = b.ID
		h.Generation = b.Generation
		h.Providers = append(h.Providers, b.FieldTypes...)
	} else {
		h.Status = "no active schema"
		status = http.StatusServiceUnavailable
	}
	h.Pending, _ = a.coordinator.Pending()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(h)
}

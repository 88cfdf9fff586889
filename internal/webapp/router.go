// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package webapp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter returns the web app's handler. GET / answers with the
// configured broker URIs; GET /metrics exposes what gatherer collects.
func NewRouter(config Config, metrics *Metrics, gatherer prometheus.Gatherer) http.Handler {
	r := mux.NewRouter()
	r.Handle("/", metrics.instrument(&urisHandler{config: config})).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return r
}

type urisHandler struct {
	config Config
}

func (h *urisHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uris, ok := h.config[KeyRabbitMQURIs]
	if !ok {
		logger.Errorf("%s not configured", KeyRabbitMQURIs)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": fmt.Sprintf("%s not configured", KeyRabbitMQURIs),
		})
		return
	}
	writeJSON(w, http.StatusOK, uris)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("cannot encode response: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(append(data, '\n'))
}

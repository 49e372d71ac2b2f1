// Package health provides HTTP liveness and readiness handlers.
//
//   - /healthz — liveness probe; always returns 200 OK.
//   - /readyz  — readiness probe; returns 200 only when every registered
//     check passes.
//
// Responses are JSON objects with a top-level "status" field ("ok" or
// "fail") and a "checks" map with one entry per registered check.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

// CheckFunc probes one dependency. It must respect context cancellation and
// return nil when the dependency is healthy.
type CheckFunc func(ctx context.Context) error

// namedCheck pairs a check with its JSON key.
type namedCheck struct {
	name  string
	check CheckFunc
}

// Handler serves /healthz and /readyz. Register all checks before serving;
// the handler is read-only afterwards.
type Handler struct {
	checks []namedCheck
}

// New returns an empty [Handler].
func New() *Handler {
	return &Handler{}
}

// AddCheck registers a named readiness check. Checks run sequentially in
// registration order on each /readyz request.
func (h *Handler) AddCheck(name string, check CheckFunc) {
	h.checks = append(h.checks, namedCheck{name: name, check: check})
}

// response is the JSON body for both endpoints.
type response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz always returns 200: a process that can serve HTTP is alive.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, response{Status: "ok"})
}

// Readyz returns 200 only when every registered check passes.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	res := response{
		Status: "ok",
		Checks: make(map[string]string, len(h.checks)),
	}
	status := http.StatusOK

	for _, c := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.check(ctx)
		cancel()

		if err != nil {
			res.Checks[c.name] = "fail: " + err.Error()
			res.Status = "fail"
			status = http.StatusServiceUnavailable
		} else {
			res.Checks[c.name] = "ok"
		}
	}

	writeJSON(w, status, res)
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}

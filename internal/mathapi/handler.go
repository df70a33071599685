// Package mathapi implements the HTTP surface of the math service: a small
// set of numeric endpoints used to demonstrate the verification pipeline.
// All parameters arrive as query strings and are validated here; the numeric
// work itself lives in the compute package.
package mathapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tjfontaine/drydock/internal/mathapi/compute"
	"github.com/tjfontaine/drydock/internal/server"
)

// resultResponse is the body shape for successful calculations.
type resultResponse struct {
	Result float64 `json:"result"`
}

// errorResponse is the body shape for client errors.
type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the math endpoints.
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a Handler. A nil logger falls back to slog.Default().
func NewHandler(logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger}
}

// Routes returns the bare route table with no middleware attached. The
// integration stage drives this directly in process; Router wraps it with the
// full middleware stack for live serving.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/power", h.handlePower)
	r.Get("/distance", h.handleDistance)
	r.Get("/add", h.handleAdd)
	r.Get("/healthz", h.handleHealth)
	return r
}

func (h *Handler) handlePower(w http.ResponseWriter, r *http.Request) {
	base, err := queryFloat(r, "base")
	if err != nil {
		writeError(w, r, err)
		return
	}
	exp, err := queryFloat(r, "exp")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, compute.Power(base, exp))
}

func (h *Handler) handleDistance(w http.ResponseWriter, r *http.Request) {
	x, err := queryFloat(r, "x")
	if err != nil {
		writeError(w, r, err)
		return
	}
	y, err := queryFloat(r, "y")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, compute.EuclideanDistance(x, y))
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	a, err := queryFloat(r, "a")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := queryFloat(r, "b")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, compute.Add(a, b))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// queryFloat parses a required numeric query parameter. Missing or
// non-numeric values are client errors, never server errors.
func queryFloat(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing required parameter %q", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %q must be numeric, got %q", name, raw)
	}
	return v, nil
}

func writeResult(w http.ResponseWriter, v float64) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resultResponse{Result: v})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	server.AddError(r.Context(), err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/ethflow/rpc-gateway/internal/registry"
	"github.com/ethflow/rpc-gateway/internal/repository"
	"github.com/ethflow/rpc-gateway/internal/services"
)

type RPCHandler struct {
	gateway  *services.Gateway
	registry *registry.Registry
	repo     repository.Repository
}

func NewRPCHandler(gateway *services.Gateway, reg *registry.Registry, repo repository.Repository) *RPCHandler {
	return &RPCHandler{
		gateway:  gateway,
		registry: reg,
		repo:     repo,
	}
}

func (h *RPCHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /rpc/{network}/{token}", h.handleRPC)
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/clients", h.handleClients)
	mux.HandleFunc("/logs", h.handleLogs)
}

func (h *RPCHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *RPCHandler) handleRPC(w http.ResponseWriter, r *http.Request) {
	// The body is captured once up front; the gateway replays it against
	// multiple backends.
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	resp := h.gateway.Handle(r.Context(), r.PathValue("token"), r.PathValue("network"), payload)

	if resp.JSON {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(resp.Code)
	_, _ = w.Write(resp.Body)
}

func (h *RPCHandler) handleClients(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.registry.Snapshots())
}

func (h *RPCHandler) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	records, err := h.repo.Request().GetRequestLogs(r.Context(), limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to get logs: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(records)
}

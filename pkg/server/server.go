package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethflow/rpc-gateway/internal/handlers"
	"github.com/ethflow/rpc-gateway/internal/registry"
	"github.com/ethflow/rpc-gateway/internal/repository"
	"github.com/ethflow/rpc-gateway/internal/services"
)

type Server struct {
	httpAddr string
	gateway  *services.Gateway
	registry *registry.Registry
	repo     repository.Repository
}

func NewServer(httpAddr string, gateway *services.Gateway, reg *registry.Registry, repo repository.Repository) *Server {
	return &Server{
		httpAddr: httpAddr,
		gateway:  gateway,
		registry: reg,
		repo:     repo,
	}
}

func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	rpcHandler := handlers.NewRPCHandler(s.gateway, s.registry, s.repo)
	rpcHandler.RegisterRoutes(mux)

	slog.Info("HTTP server starting",
		"addr", s.httpAddr,
		"endpoints", []string{"/rpc/{network}/{token}", "/clients", "/logs", "/healthz"})

	return http.ListenAndServe(s.httpAddr, mux)
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/ethflow/rpc-gateway/internal/config"
	"github.com/ethflow/rpc-gateway/internal/models"
	"github.com/ethflow/rpc-gateway/internal/pool"
	"github.com/ethflow/rpc-gateway/internal/registry"
	"github.com/ethflow/rpc-gateway/internal/repository"
	"github.com/ethflow/rpc-gateway/internal/usage"
)

// Caller is the relay primitive: one JSON-RPC attempt against one address.
type Caller interface {
	Call(ctx context.Context, address string, payload []byte) *models.RequestRecord
}

// Selector is the round-robin pool view consumed by the gateway.
type Selector interface {
	Next(network string) (pool.Endpoint, bool)
	MarkFailed(ep pool.Endpoint)
}

// Response is the terminal HTTP outcome of one gateway request.
type Response struct {
	Code int
	Body []byte
	JSON bool
}

func textResponse(code int, body string) Response {
	return Response{Code: code, Body: []byte(body)}
}

func jsonResponse(code int, body string) Response {
	return Response{Code: code, Body: []byte(body), JSON: true}
}

// Gateway orchestrates one inbound request: authenticate the token, relay
// against pool backends with retries, fall back to the fixed backup endpoint,
// account usage and persist every attempt.
type Gateway struct {
	allowed    []string
	backups    map[string]string
	maxRetries int

	registry *registry.Registry
	ledger   *usage.Ledger
	pool     Selector
	relay    Caller
	sink     repository.RequestRepositoryInterface
	compare  CompareStrategy
}

func NewGateway(cfg *config.Config, reg *registry.Registry, ledger *usage.Ledger, sel Selector, rel Caller, sink repository.RequestRepositoryInterface) *Gateway {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Gateway{
		allowed:    cfg.AllowedNetworks,
		backups:    cfg.BackupEndpoints,
		maxRetries: maxRetries,
		registry:   reg,
		ledger:     ledger,
		pool:       sel,
		relay:      rel,
		sink:       sink,
	}
}

// SetCompareStrategy enables comparison mode: after a primary attempt yields
// a valid result, the strategy may issue a verification call against the
// backup endpoint. The comparison never changes the client-visible response.
func (g *Gateway) SetCompareStrategy(s CompareStrategy) {
	g.compare = s
}

// Handle runs one request to completion. It always produces an HTTP
// response; any panic below is converted into the generic 200 body so
// nothing ever propagates to the transport layer.
func (g *Gateway) Handle(ctx context.Context, token, network string, payload []byte) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Unrecoverable error handling request",
				"network", network,
				"panic", r,
				"stack", string(debug.Stack()))
			resp = textResponse(http.StatusOK, "unrecoverable error")
		}
	}()

	if !g.networkAllowed(network) {
		return textResponse(http.StatusOK, "network should be one of "+strings.Join(g.allowed, ", "))
	}

	client, ok := g.registry.Lookup(token)
	if !ok {
		return textResponse(http.StatusOK, "client not found, probably wrong token")
	}

	for attempt := 0; attempt < g.maxRetries; attempt++ {
		ep, ok := g.pool.Next(network)
		if !ok {
			slog.Warn("No ready backend in pool", "network", network, "attempt", attempt)
			break
		}

		rec := g.relay.Call(ctx, ep.Address, payload)
		rec.ReqID = ulid.Make().String()
		rec.ClientID = client.Token()
		rec.Network = network
		rec.ProviderInstance = ep.ID
		g.persist(ctx, rec)

		switch {
		case rec.Timeout:
			slog.Warn("Backend timed out, rotating",
				"network", network, "provider", ep.ID, "attempt", attempt, "error", rec.Error)
			g.pool.MarkFailed(ep)
			continue

		case rec.InputError != "":
			// Structural errors are never retried and never reach backup.
			return textResponse(http.StatusBadRequest, rec.InputError)

		case rec.ResultValid:
			g.ledger.Record(client, network, usage.Succeeded)
			if g.compare != nil {
				g.runComparison(ctx, client, network, rec, payload)
			}
			return jsonResponse(http.StatusOK, rec.Response)

		default:
			slog.Warn("Backend returned unusable response, rotating",
				"network", network, "provider", ep.ID, "code", rec.Code, "error", rec.Error)
			g.ledger.Record(client, network, usage.Failed)
			g.pool.MarkFailed(ep)
		}
	}

	return g.handleBackup(ctx, client, network, payload)
}

// handleBackup runs the fallback leg against the fixed backup endpoint after
// the pool is exhausted or every retry failed.
func (g *Gateway) handleBackup(ctx context.Context, client *usage.ClientRecord, network string, payload []byte) Response {
	address, ok := g.backups[network]
	if !ok {
		slog.Error("No backup endpoint configured", "network", network)
		return textResponse(http.StatusBadRequest, "no backend available for network "+network)
	}

	g.ledger.Record(client, network, usage.Backup)

	rec := g.relay.Call(ctx, address, payload)
	rec.ReqID = ulid.Make().String()
	rec.ClientID = client.Token()
	rec.Network = network
	rec.Backup = true
	g.persist(ctx, rec)

	switch {
	case rec.InputError != "":
		return textResponse(http.StatusBadRequest, rec.InputError)
	case rec.Timeout:
		return textResponse(http.StatusGatewayTimeout, "backend request timed out")
	case rec.ResultValid:
		g.ledger.Record(client, network, usage.Succeeded)
		return jsonResponse(http.StatusOK, rec.Response)
	default:
		g.ledger.Record(client, network, usage.Failed)
		return textResponse(http.StatusBadRequest, fmt.Sprintf("backup endpoint failed with status %d", rec.Code))
	}
}

func (g *Gateway) runComparison(ctx context.Context, client *usage.ClientRecord, network string, primary *models.RequestRecord, payload []byte) {
	rec := g.compare.Compare(ctx, network, primary, payload)
	if rec == nil {
		return
	}
	rec.ReqID = ulid.Make().String()
	rec.ClientID = client.Token()
	rec.Network = network
	rec.Backup = true
	g.ledger.Record(client, network, usage.Backup)
	g.persist(ctx, rec)
}

// persist hands the finished record to the durable log. Best-effort: failures
// are logged and must never affect the response. The context is detached so a
// caller hang-up cannot cancel the write.
func (g *Gateway) persist(ctx context.Context, rec *models.RequestRecord) {
	if g.sink == nil {
		return
	}
	if err := g.sink.LogRequest(context.WithoutCancel(ctx), rec); err != nil {
		slog.Warn("Failed to persist request record", "req_id", rec.ReqID, "error", err)
	}
}

func (g *Gateway) networkAllowed(network string) bool {
	for _, allowed := range g.allowed {
		if network == allowed {
			return true
		}
	}
	return false
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ethflow/rpc-gateway/internal/pool"
)

// StaticSource serves a fixed endpoint set from configuration. It exists for
// deployments and tests that run without the marketplace provisioner. Static
// endpoints have no supervisor to respawn them, so MarkFailed only logs.
type StaticSource struct {
	mu        sync.RWMutex
	endpoints []pool.Endpoint
}

// NewStaticSource builds the set from network -> addresses configuration.
func NewStaticSource(seed map[string][]string) *StaticSource {
	var endpoints []pool.Endpoint
	for network, addresses := range seed {
		for i, address := range addresses {
			endpoints = append(endpoints, pool.Endpoint{
				ID:      fmt.Sprintf("static-%s-%d", network, i),
				Network: network,
				Address: address,
				Ready:   true,
			})
		}
	}
	return &StaticSource{endpoints: endpoints}
}

func (s *StaticSource) Endpoints() []pool.Endpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pool.Endpoint, len(s.endpoints))
	copy(out, s.endpoints)
	return out
}

func (s *StaticSource) MarkFailed(ep pool.Endpoint) {
	slog.Warn("Static endpoint reported failed, keeping it in rotation",
		"id", ep.ID, "network", ep.Network, "address", ep.Address)
}

// NATSSource mirrors the provisioning collaborator's live endpoint set over
// NATS. The provisioner publishes the full set for a network on
// pool.<network>.endpoints; the gateway publishes failure signals on
// pool.endpoint.failed so the provisioner can blacklist or respawn backends.
type NATSSource struct {
	conn *nats.Conn

	mu        sync.RWMutex
	byNetwork map[string][]pool.Endpoint
}

// FailureSignal is the wire form of a mark-failed notification.
type FailureSignal struct {
	ID        string    `json:"id"`
	Network   string    `json:"network"`
	Address   string    `json:"address"`
	Timestamp time.Time `json:"timestamp"`
}

func NewNATSSource(conn *nats.Conn) *NATSSource {
	return &NATSSource{
		conn:      conn,
		byNetwork: make(map[string][]pool.Endpoint),
	}
}

// Start subscribes to endpoint announcements and publishes periodic gateway
// heartbeats until ctx is cancelled.
func (s *NATSSource) Start(ctx context.Context, heartbeatInterval time.Duration) error {
	sub, err := s.conn.Subscribe("pool.*.endpoints", s.handleAnnouncement)
	if err != nil {
		return fmt.Errorf("failed to subscribe to endpoint announcements: %w", err)
	}

	slog.Info("Provisioning source started", "subject", "pool.*.endpoints")

	go s.heartbeat(ctx, heartbeatInterval)

	<-ctx.Done()
	_ = sub.Unsubscribe()
	return nil
}

func (s *NATSSource) handleAnnouncement(msg *nats.Msg) {
	parts := strings.Split(msg.Subject, ".")
	if len(parts) != 3 {
		slog.Warn("Ignoring announcement on unexpected subject", "subject", msg.Subject)
		return
	}
	network := parts[1]

	var endpoints []pool.Endpoint
	if err := json.Unmarshal(msg.Data, &endpoints); err != nil {
		slog.Error("Failed to decode endpoint announcement", "subject", msg.Subject, "error", err)
		return
	}
	for i := range endpoints {
		endpoints[i].Network = network
	}

	s.mu.Lock()
	s.byNetwork[network] = endpoints
	s.mu.Unlock()

	slog.Info("Endpoint set updated", "network", network, "endpoints", len(endpoints))
}

func (s *NATSSource) Endpoints() []pool.Endpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []pool.Endpoint
	for _, endpoints := range s.byNetwork {
		out = append(out, endpoints...)
	}
	return out
}

// MarkFailed drops the endpoint from the local view immediately, so the next
// selection cannot pick it again, and notifies the provisioner, which owns
// blacklisting and respawn.
func (s *NATSSource) MarkFailed(ep pool.Endpoint) {
	s.mu.Lock()
	kept := s.byNetwork[ep.Network][:0]
	for _, candidate := range s.byNetwork[ep.Network] {
		if candidate.ID != ep.ID {
			kept = append(kept, candidate)
		}
	}
	s.byNetwork[ep.Network] = kept
	s.mu.Unlock()

	signal := FailureSignal{
		ID:        ep.ID,
		Network:   ep.Network,
		Address:   ep.Address,
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(signal)
	if err != nil {
		slog.Error("Failed to marshal failure signal", "error", err)
		return
	}
	if err := s.conn.Publish("pool.endpoint.failed", data); err != nil {
		slog.Warn("Failed to publish failure signal", "id", ep.ID, "error", err)
	}
}

type gatewayHeartbeat struct {
	Endpoints int       `json:"endpoints"`
	Networks  int       `json:"networks"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *NATSSource) heartbeat(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			hb := gatewayHeartbeat{
				Networks:  len(s.byNetwork),
				Timestamp: time.Now().UTC(),
			}
			for _, endpoints := range s.byNetwork {
				hb.Endpoints += len(endpoints)
			}
			s.mu.RUnlock()

			data, err := json.Marshal(hb)
			if err != nil {
				slog.Error("Failed to marshal heartbeat", "error", err)
				continue
			}
			if err := s.conn.Publish("monitoring.gateway.heartbeat", data); err != nil {
				slog.Warn("Failed to publish heartbeat", "error", err)
			}
		}
	}
}

package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/ethflow/rpc-gateway/internal/pool"
)

// ChainMonitor periodically probes every ready endpoint for its latest block
// header and marks an endpoint failed when the probe errors, so a backend
// that accepts connections but stopped syncing is rotated out between
// requests rather than discovered by a client.
type ChainMonitor struct {
	source       pool.Source
	interval     time.Duration
	probeTimeout time.Duration
}

func NewChainMonitor(source pool.Source, interval, probeTimeout time.Duration) *ChainMonitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if probeTimeout <= 0 {
		probeTimeout = 2 * time.Second
	}
	return &ChainMonitor{source: source, interval: interval, probeTimeout: probeTimeout}
}

func (m *ChainMonitor) Start(ctx context.Context) error {
	slog.Info("Chain monitor starting", "interval", m.interval, "probe_timeout", m.probeTimeout)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.checkAll(ctx)
		}
	}
}

func (m *ChainMonitor) checkAll(ctx context.Context) {
	for _, ep := range m.source.Endpoints() {
		if !ep.Ready {
			continue
		}
		if err := m.probe(ctx, ep.Address); err != nil {
			slog.Error("Backend probe failed",
				"id", ep.ID, "network", ep.Network, "address", ep.Address, "error", err)
			m.source.MarkFailed(ep)
			continue
		}
	}
}

func (m *ChainMonitor) probe(ctx context.Context, address string) error {
	ctx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, address)
	if err != nil {
		return err
	}
	defer client.Close()

	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return err
	}

	slog.Debug("Backend probe ok",
		"address", address,
		"block", header.Number.String(),
		"block_time", time.Unix(int64(header.Time), 0).UTC())
	return nil
}

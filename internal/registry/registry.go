package registry

import (
	"sort"
	"strings"

	"github.com/ethflow/rpc-gateway/internal/usage"
)

// Registry maps API tokens to their client records. It is built once at
// startup and read-only afterwards, so lookups need no locking; the per-client
// counter state inside each record carries its own lock.
type Registry struct {
	clients map[string]*usage.ClientRecord
}

func New(tokens []string) *Registry {
	clients := make(map[string]*usage.ClientRecord, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		clients[token] = usage.NewClientRecord(token)
	}
	return &Registry{clients: clients}
}

func (r *Registry) Lookup(token string) (*usage.ClientRecord, bool) {
	client, ok := r.clients[token]
	return client, ok
}

func (r *Registry) Len() int { return len(r.clients) }

// Snapshots returns counter snapshots for every registered client, ordered by
// token for stable output.
func (r *Registry) Snapshots() []usage.ClientSnapshot {
	snaps := make([]usage.ClientSnapshot, 0, len(r.clients))
	for _, client := range r.clients {
		snaps = append(snaps, client.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Token < snaps[j].Token })
	return snaps
}

package pool

import "sync"

// Endpoint is one backend JSON-RPC address supplied by the provisioning
// collaborator. The pool never owns endpoint lifecycle; it only selects among
// the ready ones and forwards failure signals back to the source.
type Endpoint struct {
	ID       string `json:"id"`
	Network  string `json:"network"`
	Address  string `json:"address"`
	Provider string `json:"provider_name,omitempty"`
	Ready    bool   `json:"ready"`
}

// Source is the live endpoint view owned by the provisioning collaborator.
// Endpoints is re-read on every selection; membership may change between
// calls as backends are started, stopped or blacklisted.
type Source interface {
	Endpoints() []Endpoint
	MarkFailed(ep Endpoint)
}

// Pool selects ready endpoints round-robin using a single shared cursor.
type Pool struct {
	mu      sync.Mutex
	counter uint64
	source  Source
}

func New(source Source) *Pool {
	return &Pool{source: source}
}

// Next returns the next ready endpoint for network, or ok=false when none is
// available. An empty pool is exhaustion, not an error: the caller proceeds
// to the backup leg.
func (p *Pool) Next(network string) (Endpoint, bool) {
	var ready []Endpoint
	for _, ep := range p.source.Endpoints() {
		if ep.Ready && ep.Network == network {
			ready = append(ready, ep)
		}
	}
	if len(ready) == 0 {
		return Endpoint{}, false
	}

	// Lock covers only read-increment-select, never any network activity.
	p.mu.Lock()
	p.counter++
	ep := ready[p.counter%uint64(len(ready))]
	p.mu.Unlock()
	return ep, true
}

// MarkFailed forwards the failure signal to the provisioning source, which
// decides whether to blacklist or respawn the backend.
func (p *Pool) MarkFailed(ep Endpoint) {
	p.source.MarkFailed(ep)
}

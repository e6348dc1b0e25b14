package usage

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethflow/rpc-gateway/internal/models"
)

// DefaultRetentionUnits is how many truncated intervals each granularity
// keeps before a bucket is pruned.
const DefaultRetentionUnits = 600

// RequestType names the accounting outcome of one gateway request.
type RequestType int

const (
	Succeeded RequestType = iota
	Failed
	Backup
)

func (t RequestType) String() string {
	switch t {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Backup:
		return "backup"
	default:
		return fmt.Sprintf("RequestType(%d)", int(t))
	}
}

type granularity struct {
	name string
	unit time.Duration
}

// Truncation uses the UTC epoch grid, so day buckets start at midnight UTC.
var granularities = []granularity{
	{"second", time.Second},
	{"minute", time.Minute},
	{"hour", time.Hour},
	{"day", 24 * time.Hour},
}

// ClientRecord holds one client's counters: all-time per network, plus one
// bucket map per granularity keyed by network and then by the bucket start
// (unix seconds of the truncated timestamp). Bucket entries expire; the
// record itself lives for the whole process.
//
// The embedded mutex makes concurrent Record calls for the same token safe;
// it is held only across prune-find-increment, never across I/O.
type ClientRecord struct {
	token string

	mu      sync.Mutex
	allTime map[string]*models.NetworkCounters
	buckets []map[string]map[int64]*models.NetworkCounters
}

func NewClientRecord(token string) *ClientRecord {
	buckets := make([]map[string]map[int64]*models.NetworkCounters, len(granularities))
	for i := range buckets {
		buckets[i] = make(map[string]map[int64]*models.NetworkCounters)
	}
	return &ClientRecord{
		token:   token,
		allTime: make(map[string]*models.NetworkCounters),
		buckets: buckets,
	}
}

func (c *ClientRecord) Token() string { return c.token }

// ClientSnapshot is the JSON-friendly copy served by the stats endpoint.
type ClientSnapshot struct {
	Token   string                                                 `json:"token"`
	AllTime map[string]models.NetworkCounters                      `json:"all_time"`
	Buckets map[string]map[string]map[int64]models.NetworkCounters `json:"buckets"`
}

// Snapshot deep-copies the counters under the client lock.
func (c *ClientRecord) Snapshot() ClientSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := ClientSnapshot{
		Token:   c.token,
		AllTime: make(map[string]models.NetworkCounters, len(c.allTime)),
		Buckets: make(map[string]map[string]map[int64]models.NetworkCounters, len(granularities)),
	}
	for network, counters := range c.allTime {
		snap.AllTime[network] = *counters
	}
	for i, g := range granularities {
		nets := make(map[string]map[int64]models.NetworkCounters, len(c.buckets[i]))
		for network, byStart := range c.buckets[i] {
			copied := make(map[int64]models.NetworkCounters, len(byStart))
			for start, counters := range byStart {
				copied[start] = *counters
			}
			nets[network] = copied
		}
		snap.Buckets[g.name] = nets
	}
	return snap
}

// Ledger applies usage accounting to client records: prune expired buckets,
// then increment the all-time counters and one bucket per granularity.
type Ledger struct {
	retention int
	now       func() time.Time
}

func NewLedger(retentionUnits int) *Ledger {
	if retentionUnits <= 0 {
		retentionUnits = DefaultRetentionUnits
	}
	return &Ledger{retention: retentionUnits, now: time.Now}
}

// Record accounts one request outcome for (client, network). An unknown
// request type is a programming error and panics.
func (l *Ledger) Record(client *ClientRecord, network string, t RequestType) {
	switch t {
	case Succeeded, Failed, Backup:
	default:
		panic(fmt.Sprintf("usage: unknown request type %d", int(t)))
	}

	now := l.now().UTC()

	client.mu.Lock()
	defer client.mu.Unlock()

	l.prune(client, now)

	targets := make([]*models.NetworkCounters, 0, len(granularities)+1)

	all := client.allTime[network]
	if all == nil {
		all = &models.NetworkCounters{}
		client.allTime[network] = all
	}
	targets = append(targets, all)

	for i, g := range granularities {
		start := now.Truncate(g.unit).Unix()
		byStart := client.buckets[i][network]
		if byStart == nil {
			byStart = make(map[int64]*models.NetworkCounters)
			client.buckets[i][network] = byStart
		}
		counters := byStart[start]
		if counters == nil {
			counters = &models.NetworkCounters{}
			byStart[start] = counters
		}
		targets = append(targets, counters)
	}

	for _, counters := range targets {
		switch t {
		case Succeeded:
			counters.Succeeded++
		case Failed:
			counters.Failed++
		case Backup:
			counters.Backup++
		}
	}
}

// prune drops every bucket older than retention at its granularity. It scans
// all buckets of all networks on every recorded event, which is fine at this
// request volume. Caller holds client.mu.
func (l *Ledger) prune(client *ClientRecord, now time.Time) {
	for i, g := range granularities {
		cutoff := now.Truncate(g.unit).Add(-time.Duration(l.retention) * g.unit).Unix()
		for network, byStart := range client.buckets[i] {
			for start := range byStart {
				if start < cutoff {
					delete(byStart, start)
				}
			}
			if len(byStart) == 0 {
				delete(client.buckets[i], network)
			}
		}
	}
}

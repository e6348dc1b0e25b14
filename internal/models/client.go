package models

// NetworkCounters holds the request counters kept per (client, network), both
// all-time and per time bucket. Counters only ever grow; expired buckets are
// deleted whole, never decremented.
type NetworkCounters struct {
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Backup    int64 `json:"backup"`
}

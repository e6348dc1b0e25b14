package pool

import "testing"

type fakeSource struct {
	endpoints []Endpoint
	failed    []Endpoint
}

func (s *fakeSource) Endpoints() []Endpoint  { return s.endpoints }
func (s *fakeSource) MarkFailed(ep Endpoint) { s.failed = append(s.failed, ep) }

func TestNextRoundRobin(t *testing.T) {
	src := &fakeSource{endpoints: []Endpoint{
		{ID: "a", Network: "polygon", Address: "http://a", Ready: true},
		{ID: "b", Network: "polygon", Address: "http://b", Ready: true},
		{ID: "c", Network: "polygon", Address: "http://c", Ready: true},
	}}
	p := New(src)

	seen := map[string]int{}
	var order []string
	for i := 0; i < 6; i++ {
		ep, ok := p.Next("polygon")
		if !ok {
			t.Fatal("pool unexpectedly exhausted")
		}
		seen[ep.ID]++
		order = append(order, ep.ID)
	}

	for _, id := range []string{"a", "b", "c"} {
		if seen[id] != 2 {
			t.Errorf("endpoint %s selected %d times, want 2", id, seen[id])
		}
	}
	// Stable cyclic order across both passes.
	for i := 0; i < 3; i++ {
		if order[i] != order[i+3] {
			t.Errorf("selection order not cyclic: %v", order)
		}
	}
}

func TestNextFiltersReadinessAndNetwork(t *testing.T) {
	src := &fakeSource{endpoints: []Endpoint{
		{ID: "down", Network: "polygon", Ready: false},
		{ID: "other", Network: "rinkeby", Ready: true},
		{ID: "up", Network: "polygon", Ready: true},
	}}
	p := New(src)

	for i := 0; i < 4; i++ {
		ep, ok := p.Next("polygon")
		if !ok {
			t.Fatal("pool unexpectedly exhausted")
		}
		if ep.ID != "up" {
			t.Errorf("selected %q, want up", ep.ID)
		}
	}
}

func TestNextExhausted(t *testing.T) {
	p := New(&fakeSource{endpoints: []Endpoint{
		{ID: "down", Network: "polygon", Ready: false},
	}})

	if _, ok := p.Next("polygon"); ok {
		t.Error("expected exhaustion with no ready endpoints")
	}
	if _, ok := p.Next("rinkeby"); ok {
		t.Error("expected exhaustion for unknown network")
	}
}

func TestNextSeesMembershipChanges(t *testing.T) {
	src := &fakeSource{}
	p := New(src)

	if _, ok := p.Next("polygon"); ok {
		t.Fatal("expected empty pool")
	}

	src.endpoints = []Endpoint{{ID: "late", Network: "polygon", Ready: true}}
	ep, ok := p.Next("polygon")
	if !ok || ep.ID != "late" {
		t.Fatalf("live view not recomputed, got %+v ok=%v", ep, ok)
	}
}

func TestMarkFailedForwards(t *testing.T) {
	src := &fakeSource{}
	p := New(src)

	p.MarkFailed(Endpoint{ID: "bad"})

	if len(src.failed) != 1 || src.failed[0].ID != "bad" {
		t.Errorf("failure signal not forwarded: %+v", src.failed)
	}
}

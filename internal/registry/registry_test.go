package registry

import "testing"

func TestLookup(t *testing.T) {
	r := New([]string{"tok-a", " tok-b ", "", "tok-a"})

	if r.Len() != 2 {
		t.Errorf("len = %d, want 2", r.Len())
	}
	if _, ok := r.Lookup("tok-a"); !ok {
		t.Error("tok-a not found")
	}
	if _, ok := r.Lookup("tok-b"); !ok {
		t.Error("tok-b not found after trimming")
	}
	if _, ok := r.Lookup("unknown"); ok {
		t.Error("unknown token resolved")
	}
}

func TestSnapshotsOrdered(t *testing.T) {
	r := New([]string{"zz", "aa", "mm"})

	snaps := r.Snapshots()
	if len(snaps) != 3 {
		t.Fatalf("snapshots = %d", len(snaps))
	}
	for i, want := range []string{"aa", "mm", "zz"} {
		if snaps[i].Token != want {
			t.Errorf("snapshot %d token = %q, want %q", i, snaps[i].Token, want)
		}
	}
}

package idgen

import (
	"strings"
	"testing"
)

func TestUUIDv7Unique(t *testing.T) {
	gen := UUIDv7()
	seen := make(map[string]bool)
	for range 1000 {
		id := gen()
		if seen[id] {
			t.Fatalf("duplicate id: %s", id)
		}
		seen[id] = true
	}
}

func TestUUIDv7Sortable(t *testing.T) {
	// UUIDv7 embeds a millisecond timestamp in its leading bits, so IDs
	// generated in sequence must never sort backwards across a millisecond.
	gen := UUIDv7()
	prev := gen()
	for range 100 {
		id := gen()
		if id < prev && id[:8] != prev[:8] {
			t.Fatalf("id %s sorts before earlier id %s", id, prev)
		}
		prev = id
	}
}

func TestNanoIDLength(t *testing.T) {
	gen := NanoID(12)
	id := gen()
	if len(id) != 12 {
		t.Fatalf("len = %d, want 12", len(id))
	}
	for _, r := range id {
		if !strings.ContainsRune("0123456789abcdefghijklmnopqrstuvwxyz", r) {
			t.Fatalf("unexpected rune %q in %s", r, id)
		}
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("run_", NanoID(8))
	id := gen()
	if !strings.HasPrefix(id, "run_") {
		t.Fatalf("id %s missing prefix", id)
	}
	if len(id) != len("run_")+8 {
		t.Fatalf("len = %d", len(id))
	}
}

func TestParse(t *testing.T) {
	id := New()
	got, err := Parse(id)
	if err != nil {
		t.Fatalf("Parse(%s): %v", id, err)
	}
	if got != id {
		t.Fatalf("Parse returned %s, want %s", got, id)
	}

	if _, err := Parse("not-a-uuid"); err == nil {
		t.Fatal("expected error for invalid UUID")
	}
}

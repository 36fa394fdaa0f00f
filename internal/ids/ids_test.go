package ids

import "testing"

func TestNewIsUniqueAndSorted(t *testing.T) {
	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 100; i++ {
		id := New()
		if len(id) != 26 {
			t.Fatalf("id %q has length %d, want 26", id, len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
		if id < prev {
			t.Fatalf("id %q sorts before its predecessor %q", id, prev)
		}
		prev = id
	}
}

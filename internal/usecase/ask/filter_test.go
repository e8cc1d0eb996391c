package ask

import (
	"testing"

	"github.com/kailas-cloud/scholarqa/internal/domain/fragment"
)

func frags(scores ...float64) []fragment.Fragment {
	out := make([]fragment.Fragment, len(scores))
	for i, s := range scores {
		out[i] = fragment.Reconstruct("id", "text", s, i+1, nil)
	}
	return out
}

func TestFilterByScore_DropsBelowThreshold(t *testing.T) {
	kept := FilterByScore(frags(0.82, 0.45, 0.05), 0.1)
	if len(kept) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(kept))
	}
	if kept[0].Score() != 0.82 || kept[1].Score() != 0.45 {
		t.Errorf("order not preserved: %g, %g", kept[0].Score(), kept[1].Score())
	}
}

func TestFilterByScore_Idempotent(t *testing.T) {
	items := frags(0.9, 0.5, 0.3, 0.05)
	once := FilterByScore(items, 0.1)
	twice := FilterByScore(once, 0.1)

	if len(once) != len(twice) {
		t.Fatalf("idempotence broken: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Score() != twice[i].Score() {
			t.Errorf("item %d differs after second pass", i)
		}
	}
}

func TestFilterByScore_ZeroThresholdKeepsAll(t *testing.T) {
	items := frags(0.9, 0.5, 0.0)
	kept := FilterByScore(items, 0.0)
	if len(kept) != len(items) {
		t.Fatalf("expected all %d items, got %d", len(items), len(kept))
	}
}

func TestFilterByScore_EmptyResultIsValid(t *testing.T) {
	kept := FilterByScore(frags(0.05, 0.02), 0.1)
	if len(kept) != 0 {
		t.Fatalf("expected empty set, got %d items", len(kept))
	}
}

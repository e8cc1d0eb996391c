package answer

import (
	"math"
	"testing"
	"time"
)

func TestStats_AveragesOverSources(t *testing.T) {
	sources := []Source{
		NewSource(1, "first fragment", 0.8, nil),
		NewSource(2, "second", 0.4, nil),
	}
	o := New("req-1", "q", "a", sources, 1500*time.Millisecond, time.Now())

	st := o.Stats()
	if st.SourceCount != 2 {
		t.Errorf("expected 2 sources, got %d", st.SourceCount)
	}
	if math.Abs(st.AvgRelevance-0.6) > 1e-9 {
		t.Errorf("expected avg relevance 0.6, got %g", st.AvgRelevance)
	}
	if st.ContextChars != len("first fragment")+len("second") {
		t.Errorf("unexpected context chars: %d", st.ContextChars)
	}
	if math.Abs(st.ProcessingSeconds-1.5) > 1e-9 {
		t.Errorf("expected 1.5s, got %g", st.ProcessingSeconds)
	}
}

func TestStats_NoSources(t *testing.T) {
	o := NewNoResults("req-1", "q", time.Second, time.Now())
	if !o.NoResults() {
		t.Fatal("expected NoResults outcome")
	}

	st := o.Stats()
	if st.SourceCount != 0 || st.AvgRelevance != 0 || st.ContextChars != 0 {
		t.Errorf("expected zero stats, got %+v", st)
	}
}

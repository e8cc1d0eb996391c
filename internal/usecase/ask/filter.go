package ask

import "github.com/kailas-cloud/scholarqa/internal/domain/fragment"

// FilterByScore keeps fragments with score >= threshold, preserving
// retrieval order. An empty result is the normal "no relevant results"
// outcome, not a failure.
func FilterByScore(fragments []fragment.Fragment, threshold float64) []fragment.Fragment {
	kept := make([]fragment.Fragment, 0, len(fragments))
	for _, f := range fragments {
		if f.Score() >= threshold {
			kept = append(kept, f)
		}
	}
	return kept
}

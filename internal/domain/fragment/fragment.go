// Package fragment holds text fragments returned by the retrieval service.
package fragment

import "github.com/kailas-cloud/scholarqa/internal/domain/fragment/meta"

// Fragment is a single retrieved paper fragment with its relevance score.
// Fragments arrive pre-ranked by descending score and are immutable; rank is
// the 1-based position assigned by the retrieval service.
type Fragment struct {
	id       string
	text     string
	score    float64
	rank     int
	metadata meta.Values
}

// Reconstruct builds a fragment from retrieval service data.
func Reconstruct(id, text string, score float64, rank int, metadata meta.Values) Fragment {
	return Fragment{id: id, text: text, score: score, rank: rank, metadata: metadata}
}

// ID returns the opaque fragment identifier.
func (f *Fragment) ID() string { return f.id }

// Text returns the raw fragment text.
func (f *Fragment) Text() string { return f.text }

// Score returns the similarity score in [0,1], higher is more relevant.
func (f *Fragment) Score() float64 { return f.score }

// Rank returns the 1-based retrieval rank.
func (f *Fragment) Rank() int { return f.rank }

// Metadata returns the fragment's metadata fields.
func (f *Fragment) Metadata() meta.Values { return f.metadata }

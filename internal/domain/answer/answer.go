// Package answer holds the outcome of one research question.
package answer

import "time"

// Source is a retained fragment projected for presentation.
// Score keeps full precision; rounding to two decimals happens at render.
type Source struct {
	rank     int
	text     string
	score    float64
	metadata map[string]string
}

// NewSource creates a display source. metadata holds only whitelisted
// fields with known values, already rendered to strings.
func NewSource(rank int, text string, score float64, metadata map[string]string) Source {
	return Source{rank: rank, text: text, score: score, metadata: metadata}
}

// Rank returns the 1-based display rank.
func (s *Source) Rank() int { return s.rank }

// Text returns the fragment text.
func (s *Source) Text() string { return s.text }

// Score returns the full-precision relevance score.
func (s *Source) Score() float64 { return s.score }

// Metadata returns the projected metadata fields.
func (s *Source) Metadata() map[string]string { return s.metadata }

// Outcome aggregates the generated answer with its supporting evidence.
// An empty source list with noResults set is the normal "no relevant
// results" terminal state, distinct from any failure.
type Outcome struct {
	requestID   string
	query       string
	text        string
	sources     []Source
	noResults   bool
	duration    time.Duration
	generatedAt time.Time
}

// New creates an answered outcome.
func New(requestID, query, text string, sources []Source, duration time.Duration, generatedAt time.Time) Outcome {
	return Outcome{
		requestID:   requestID,
		query:       query,
		text:        text,
		sources:     sources,
		duration:    duration,
		generatedAt: generatedAt,
	}
}

// NewNoResults creates the "no relevant results" outcome.
func NewNoResults(requestID, query string, duration time.Duration, generatedAt time.Time) Outcome {
	return Outcome{
		requestID:   requestID,
		query:       query,
		noResults:   true,
		duration:    duration,
		generatedAt: generatedAt,
	}
}

// RequestID returns the per-request identifier.
func (o *Outcome) RequestID() string { return o.requestID }

// Query returns the original question.
func (o *Outcome) Query() string { return o.query }

// Text returns the generated answer text (markdown-renderable, empty when NoResults).
func (o *Outcome) Text() string { return o.text }

// Sources returns the retained sources in retrieval order.
func (o *Outcome) Sources() []Source { return o.sources }

// NoResults reports whether nothing passed the relevance threshold.
func (o *Outcome) NoResults() bool { return o.noResults }

// Duration returns the end-to-end processing time.
func (o *Outcome) Duration() time.Duration { return o.duration }

// GeneratedAt returns the completion timestamp.
func (o *Outcome) GeneratedAt() time.Time { return o.generatedAt }

// Stats summarizes an outcome for presentation.
type Stats struct {
	SourceCount       int
	AvgRelevance      float64
	ContextChars      int
	ProcessingSeconds float64
}

// Stats computes query statistics over the retained sources.
func (o *Outcome) Stats() Stats {
	st := Stats{
		SourceCount:       len(o.sources),
		ProcessingSeconds: o.duration.Seconds(),
	}
	if len(o.sources) == 0 {
		return st
	}
	var total float64
	for i := range o.sources {
		total += o.sources[i].score
		st.ContextChars += len(o.sources[i].text)
	}
	st.AvgRelevance = total / float64(len(o.sources))
	return st
}

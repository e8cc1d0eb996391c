// Package export serializes answered queries for download and archival.
package export

import (
	"encoding/json"
	"time"

	"github.com/kailas-cloud/scholarqa/internal/domain/answer"
)

// SourceRecord is the serialized form of a cited source.
type SourceRecord struct {
	Rank     int               `json:"rank"`
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Record is the serialized form of a completed query.
type Record struct {
	Query             string         `json:"query"`
	Answer            string         `json:"answer"`
	Sources           []SourceRecord `json:"sources"`
	NoResults         bool           `json:"no_results,omitempty"`
	GeneratedAt       string         `json:"generated_at"`
	ProcessingSeconds float64        `json:"processing_time_seconds"`
}

// FromOutcome converts an answered query into its export form.
func FromOutcome(o answer.Outcome) Record {
	sources := make([]SourceRecord, 0, len(o.Sources()))
	for _, s := range o.Sources() {
		sources = append(sources, SourceRecord{
			Rank:     s.Rank(),
			Text:     s.Text(),
			Score:    s.Score(),
			Metadata: s.Metadata(),
		})
	}
	return Record{
		Query:             o.Query(),
		Answer:            o.Text(),
		Sources:           sources,
		NoResults:         o.NoResults(),
		GeneratedAt:       o.GeneratedAt().UTC().Format(time.RFC3339),
		ProcessingSeconds: o.Duration().Seconds(),
	}
}

// Marshal renders a record as indented JSON suitable for download.
func Marshal(r Record) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

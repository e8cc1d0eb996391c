package ask

import (
	"github.com/kailas-cloud/scholarqa/internal/domain/answer"
	"github.com/kailas-cloud/scholarqa/internal/domain/fragment"
)

// FormatSources projects the retained fragments into display sources, in the
// same order and count. Metadata is projected onto the field whitelist;
// a field appears only when present with a known, non-empty value.
func FormatSources(fragments []fragment.Fragment, whitelist []string) []answer.Source {
	sources := make([]answer.Source, len(fragments))
	for i, f := range fragments {
		var md map[string]string
		for _, field := range whitelist {
			v, ok := f.Metadata().Get(field)
			if !ok || v.IsUnknown() {
				continue
			}
			if md == nil {
				md = make(map[string]string)
			}
			md[field] = v.Display()
		}
		sources[i] = answer.NewSource(i+1, f.Text(), f.Score(), md)
	}
	return sources
}

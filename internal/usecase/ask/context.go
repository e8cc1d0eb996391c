package ask

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/scholarqa/internal/domain/fragment"
)

// AssembleContext joins the retained fragments into a single delimited
// context block. Each fragment is tagged with its 1-based display rank and
// score so the model can cite sources by rank; item order matches the
// filtered set exactly. Fragment text passes through untruncated.
func AssembleContext(fragments []fragment.Fragment) string {
	parts := make([]string, len(fragments))
	for i, f := range fragments {
		parts[i] = fmt.Sprintf("Source %d (relevance: %.2f):\n%s\n---", i+1, f.Score(), f.Text())
	}
	return strings.Join(parts, "\n")
}

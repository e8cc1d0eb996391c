package ask

import (
	"context"

	"github.com/kailas-cloud/scholarqa/internal/domain"
	"github.com/kailas-cloud/scholarqa/internal/domain/fragment"
)

// Retriever fetches ranked fragments from the managed index.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]fragment.Fragment, error)
}

// Completer generates an answer from a prompt and system instruction.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}

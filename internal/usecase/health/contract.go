package health

import "context"

// RetrievalChecker checks retrieval index availability.
type RetrievalChecker interface {
	HealthCheck(ctx context.Context) error
}

// CompletionChecker checks completion provider availability.
type CompletionChecker interface {
	HealthCheck(ctx context.Context) error
}

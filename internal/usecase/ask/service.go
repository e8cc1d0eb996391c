package ask

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scholarqa/internal/domain"
	"github.com/kailas-cloud/scholarqa/internal/domain/answer"
	"github.com/kailas-cloud/scholarqa/internal/domain/fragment"
	"github.com/kailas-cloud/scholarqa/internal/domain/query"
	"github.com/kailas-cloud/scholarqa/internal/retry"
)

// Config holds the pipeline settings.
type Config struct {
	Limits         query.Limits
	DefaultTopK    int
	MinScore       float64
	Temperature    float64
	MaxTokens      int
	MetadataFields []string
	Retry          retry.Policy
}

// Service runs the retrieval-and-grounding pipeline for one question at a
// time: validate, retrieve, filter, assemble, complete, format. Only the two
// remote calls are retried; pure stages never are.
type Service struct {
	retriever Retriever
	completer Completer
	cfg       Config
	logger    *zap.Logger
}

// New creates the ask service.
func New(retriever Retriever, completer Completer, cfg Config, logger *zap.Logger) *Service {
	return &Service{retriever: retriever, completer: completer, cfg: cfg, logger: logger}
}

// Params carries per-request overrides; zero values fall back to the
// configured defaults.
type Params struct {
	TopK        int
	Temperature float64
}

// Ask answers a research question with citations from the index.
// Validation failures surface one of the query sentinels before any remote
// call. A fully filtered-out result set returns a NoResults outcome, which is
// a success, not an error.
func (s *Service) Ask(ctx context.Context, text string, p Params) (answer.Outcome, error) {
	start := time.Now()
	requestID := uuid.NewString()

	topK := p.TopK
	if topK <= 0 {
		topK = s.cfg.DefaultTopK
	}
	temperature := p.Temperature
	if temperature == 0 {
		temperature = s.cfg.Temperature
	}

	req, err := query.New(text, s.cfg.Limits, topK, s.cfg.MinScore, temperature, s.cfg.MaxTokens)
	if err != nil {
		return answer.Outcome{}, err
	}

	log := s.logger.With(zap.String("request_id", requestID))
	log.Info("processing question",
		zap.String("query", truncate(req.Text(), 50)),
		zap.Int("top_k", req.TopK()),
	)

	retrieved, err := retry.Do(ctx, s.cfg.Retry, func(ctx context.Context) ([]fragment.Fragment, error) {
		return s.retriever.Retrieve(ctx, req.Text(), req.TopK())
	})
	if err != nil {
		return answer.Outcome{}, fmt.Errorf("retrieve fragments: %w", err)
	}

	kept := FilterByScore(retrieved, req.MinScore())
	if len(kept) == 0 {
		log.Info("no fragments above threshold",
			zap.Int("retrieved", len(retrieved)),
			zap.Float64("min_score", req.MinScore()),
		)
		return answer.NewNoResults(requestID, req.Text(), time.Since(start), time.Now().UTC()), nil
	}

	prompt := BuildPrompt(req.Text(), AssembleContext(kept))

	result, err := retry.Do(ctx, s.cfg.Retry, func(ctx context.Context) (domain.CompletionResult, error) {
		return s.completer.Complete(ctx, domain.CompletionRequest{
			Prompt:       prompt,
			SystemPrompt: SystemPrompt,
			Temperature:  req.Temperature(),
			MaxTokens:    req.MaxTokens(),
		})
	})
	if err != nil {
		// Retrieved sources are discarded too: an unanswered question must
		// not present evidence without the grounded answer.
		return answer.Outcome{}, fmt.Errorf("complete answer: %w", err)
	}

	sources := FormatSources(kept, s.cfg.MetadataFields)
	outcome := answer.New(requestID, req.Text(), result.Text, sources, time.Since(start), time.Now().UTC())

	log.Info("question answered",
		zap.Int("sources", len(sources)),
		zap.Int("completion_tokens", result.CompletionTokens),
		zap.Duration("duration", outcome.Duration()),
	)

	return outcome, nil
}

// truncate shortens s to max characters, never splitting a rune.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}

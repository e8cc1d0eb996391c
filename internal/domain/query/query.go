package query

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/scholarqa/internal/domain"
)

// Query parameter limits and defaults.
const (
	// MinLength is the minimum question length in characters after trimming.
	MinLength = 10
	// MaxLength is the maximum question length in characters after trimming.
	MaxLength = 500

	DefaultTopK        = 3
	MaxTopK            = 10
	DefaultMinScore    = 0.1
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 1000
)

// Limits bounds the accepted question length. Zero fields fall back to the
// package defaults.
type Limits struct {
	MinLength int
	MaxLength int
}

// DefaultLimits returns the default length bounds.
func DefaultLimits() Limits {
	return Limits{MinLength: MinLength, MaxLength: MaxLength}
}

// Request is a validated research question with its generation parameters.
type Request struct {
	text        string
	topK        int
	minScore    float64
	temperature float64
	maxTokens   int
}

// New validates the question text against limits and normalizes parameters.
// Defaults: topK=3, minScore=0.1, temperature=0.2, maxTokens=1000.
// TopK is clamped to [1, MaxTopK].
func New(text string, limits Limits, topK int, minScore, temperature float64, maxTokens int) (Request, error) {
	if limits.MinLength <= 0 {
		limits.MinLength = MinLength
	}
	if limits.MaxLength <= 0 {
		limits.MaxLength = MaxLength
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Request{}, domain.ErrQueryEmpty
	}
	// Bounds are in characters, not bytes.
	length := utf8.RuneCountInString(trimmed)
	if length < limits.MinLength {
		return Request{}, fmt.Errorf("%w: need at least %d characters, got %d",
			domain.ErrQueryTooShort, limits.MinLength, length)
	}
	if length > limits.MaxLength {
		return Request{}, fmt.Errorf("%w: at most %d characters allowed, got %d",
			domain.ErrQueryTooLong, limits.MaxLength, length)
	}

	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	if temperature < 0 || temperature > 1 {
		return Request{}, fmt.Errorf("%w: temperature must be between 0 and 1, got %g",
			domain.ErrInvalidParameter, temperature)
	}
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return Request{
		text:        trimmed,
		topK:        topK,
		minScore:    minScore,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Text returns the trimmed question text.
func (r *Request) Text() string { return r.text }

// TopK returns the number of fragments to retrieve.
func (r *Request) TopK() int { return r.topK }

// MinScore returns the relevance threshold.
func (r *Request) MinScore() float64 { return r.minScore }

// Temperature returns the completion temperature.
func (r *Request) Temperature() float64 { return r.temperature }

// MaxTokens returns the completion output token budget.
func (r *Request) MaxTokens() int { return r.maxTokens }

package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/scholarqa/internal/domain"
)

func TestNew_ValidQuestion(t *testing.T) {
	req, err := New("What is volatility clustering in financial markets?", DefaultLimits(), 0, 0, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Text() != "What is volatility clustering in financial markets?" {
		t.Errorf("unexpected text: %q", req.Text())
	}
	if req.TopK() != DefaultTopK {
		t.Errorf("expected default topK %d, got %d", DefaultTopK, req.TopK())
	}
	if req.MinScore() != DefaultMinScore {
		t.Errorf("expected default minScore %g, got %g", DefaultMinScore, req.MinScore())
	}
	if req.Temperature() != DefaultTemperature {
		t.Errorf("expected default temperature %g, got %g", DefaultTemperature, req.Temperature())
	}
	if req.MaxTokens() != DefaultMaxTokens {
		t.Errorf("expected default maxTokens %d, got %d", DefaultMaxTokens, req.MaxTokens())
	}
}

func TestNew_LengthBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		char    string
		length  int
		wantErr error
	}{
		{"one below minimum", "q", MinLength - 1, domain.ErrQueryTooShort},
		{"exactly minimum", "q", MinLength, nil},
		{"exactly maximum", "q", MaxLength, nil},
		{"one above maximum", "q", MaxLength + 1, domain.ErrQueryTooLong},
		// Bounds count characters, not bytes: "в" is 2 bytes in UTF-8.
		{"multibyte one below minimum", "в", MinLength - 1, domain.ErrQueryTooShort},
		{"multibyte exactly minimum", "в", MinLength, nil},
		{"multibyte exactly maximum", "в", MaxLength, nil},
		{"multibyte one above maximum", "в", MaxLength + 1, domain.ErrQueryTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(strings.Repeat(tt.char, tt.length), DefaultLimits(), 0, 0, 0, 0)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error for length %d: %v", tt.length, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v for length %d, got %v", tt.wantErr, tt.length, err)
			}
		})
	}
}

func TestNew_EmptyAndWhitespace(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n  "} {
		if _, err := New(text, DefaultLimits(), 0, 0, 0, 0); !errors.Is(err, domain.ErrQueryEmpty) {
			t.Errorf("expected ErrQueryEmpty for %q, got %v", text, err)
		}
	}
}

func TestNew_TrimsBeforeValidating(t *testing.T) {
	// 5 visible characters padded with whitespace: trimmed length decides.
	if _, err := New("  short   ", DefaultLimits(), 0, 0, 0, 0); !errors.Is(err, domain.ErrQueryTooShort) {
		t.Fatalf("expected ErrQueryTooShort, got %v", err)
	}
}

func TestNew_ClampsTopK(t *testing.T) {
	req, err := New(strings.Repeat("q", MinLength), DefaultLimits(), MaxTopK+5, 0, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.TopK() != MaxTopK {
		t.Errorf("expected topK clamped to %d, got %d", MaxTopK, req.TopK())
	}
}

func TestNew_RejectsInvalidTemperature(t *testing.T) {
	for _, temp := range []float64{-0.1, 1.1} {
		_, err := New(strings.Repeat("q", MinLength), DefaultLimits(), 0, 0, temp, 0)
		if !errors.Is(err, domain.ErrInvalidParameter) {
			t.Errorf("expected ErrInvalidParameter for temperature %g, got %v", temp, err)
		}
	}
}

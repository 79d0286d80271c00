// Package ai proposes article ideas and drafts text with Gemini.
package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/bassista/go_quill/internal/model"
	"google.golang.org/genai"
)

var (
	// ErrDisabled is returned by Generate when no API key is configured.
	ErrDisabled = errors.New("ai is not configured")
	// ErrQuotaExceeded wraps provider errors caused by rate or quota limits.
	ErrQuotaExceeded = errors.New("ai quota exceeded")
)

// QuotaHint is shown to callers that hit the provider quota.
const QuotaHint = "The AI quota has been reached. Please try again in a few minutes."

// MaxSuggestions caps the suggestions returned for one search.
const MaxSuggestions = 3

// Suggester is the AI surface used by the search and generate endpoints.
type Suggester interface {
	// Suggest proposes articles related to query that hits does not already cover.
	Suggest(ctx context.Context, query string, hits []model.SearchHit) ([]model.Suggestion, error)
	// Generate answers prompt with plain text.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Noop is the Suggester used without an API key.
type Noop struct{}

func (Noop) Suggest(context.Context, string, []model.SearchHit) ([]model.Suggestion, error) {
	return []model.Suggestion{}, nil
}

func (Noop) Generate(context.Context, string) (string, error) {
	return "", ErrDisabled
}

// IsQuota reports whether err is a provider rate or quota rejection.
func IsQuota(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && (apiErr.Code == 429 || apiErr.Status == "RESOURCE_EXHAUSTED") {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "quota") ||
		strings.Contains(msg, "429")
}

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bassista/go_quill/internal/logger"
	"github.com/bassista/go_quill/internal/model"
	"google.golang.org/genai"
)

const (
	defaultSuggestModel  = "gemini-2.0-flash"
	defaultGenerateModel = "gemini-2.5-flash"
)

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures the Gemini client.
type Options struct {
	APIKey        string
	SuggestModel  string
	GenerateModel string
	Temperature   float64
}

// GenAI is the Gemini backed Suggester.
type GenAI struct {
	models        contentGenerator
	suggestModel  string
	generateModel string
	temperature   float32
}

// New returns a Gemini Suggester, or Noop when no API key is configured.
func New(ctx context.Context, opts Options) (Suggester, error) {
	if opts.APIKey == "" {
		logger.WithComponent("ai").Info("no API key configured, AI suggestions disabled")
		return Noop{}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGenAI(client.Models, opts), nil
}

func newGenAI(models contentGenerator, opts Options) *GenAI {
	g := &GenAI{
		models:        models,
		suggestModel:  opts.SuggestModel,
		generateModel: opts.GenerateModel,
		temperature:   float32(opts.Temperature),
	}
	if g.suggestModel == "" {
		g.suggestModel = defaultSuggestModel
	}
	if g.generateModel == "" {
		g.generateModel = defaultGenerateModel
	}
	return g
}

var suggestionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"suggestions": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":  {Type: genai.TypeString},
					"reason": {Type: genai.TypeString},
				},
				Required: []string{"title", "reason"},
			},
		},
	},
	Required: []string{"suggestions"},
}

// Suggest asks the model for up to MaxSuggestions related article ideas.
func (g *GenAI) Suggest(ctx context.Context, query string, hits []model.SearchHit) ([]model.Suggestion, error) {
	resp, err := g.models.GenerateContent(ctx, g.suggestModel, genai.Text(suggestPrompt(query, hits)),
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(g.temperature),
			ResponseMIMEType: "application/json",
			ResponseSchema:   suggestionSchema,
		})
	if err != nil {
		return nil, wrapProviderError("suggest", err)
	}

	var payload struct {
		Suggestions []model.Suggestion `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(resp.Text()), &payload); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}

	out := make([]model.Suggestion, 0, MaxSuggestions)
	for _, s := range payload.Suggestions {
		if strings.TrimSpace(s.Title) == "" {
			continue
		}
		out = append(out, s)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out, nil
}

// Generate returns the model's plain text answer to prompt.
func (g *GenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.generateModel, genai.Text(prompt),
		&genai.GenerateContentConfig{Temperature: genai.Ptr(g.temperature)})
	if err != nil {
		return "", wrapProviderError("generate", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("generate: empty response")
	}
	return text, nil
}

func suggestPrompt(query string, hits []model.SearchHit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A reader of a personal blog searched for %q.\n", query)
	if len(hits) == 0 {
		b.WriteString("The blog has no article matching this search.\n")
	} else {
		b.WriteString("The blog already has these matching articles:\n")
		for _, h := range hits {
			fmt.Fprintf(&b, "- %s\n", h.Title)
		}
	}
	fmt.Fprintf(&b, "Suggest up to %d new article titles the author could write on this topic, "+
		"each with a one sentence reason. Do not repeat existing titles.", MaxSuggestions)
	return b.String()
}

func wrapProviderError(op string, err error) error {
	if IsQuota(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Package narrator turns a scored outfit into a short spoken-style
// blurb. The hosted implementation uses Gemini; when no key is set or a
// call fails, callers keep the planner's templated rationale instead.
// Narration never gates a recommendation.
package narrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/okian/garb/internal/domain/model"
	"github.com/okian/garb/pkg/logger"
	"github.com/okian/garb/pkg/metrics"
)

// Narrator produces a one or two sentence description of an outfit.
type Narrator interface {
	Narrate(ctx context.Context, c model.OutfitCandidate, planCtx model.Context) (string, error)
	Close() error
}

// Gemini is a Narrator backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	log    logger.Logger
}

// NewGemini creates a Gemini narrator.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNarrate, err)
	}
	return &Gemini{
		client: client,
		model:  modelName,
		log:    logger.Get().Named("narrator"),
	}, nil
}

func (g *Gemini) Narrate(ctx context.Context, c model.OutfitCandidate, planCtx model.Context) (string, error) {
	var sb strings.Builder
	sb.WriteString("Describe this outfit in at most two friendly sentences, as if advising a friend. ")
	sb.WriteString(fmt.Sprintf("Occasion: %s. ", planCtx.Occasion))
	if planCtx.Weather != nil {
		sb.WriteString(fmt.Sprintf("Weather: %.0f degrees Fahrenheit, %s. ", planCtx.Weather.TemperatureF, planCtx.Weather.Condition))
	}
	sb.WriteString("Pieces: ")
	for i, it := range c.AllItems() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s %s %s", it.PrimaryColor, it.Material, it.Role))
	}
	sb.WriteString(".")

	m := g.client.GenerativeModel(g.model)
	m.SetTemperature(0.7)

	resp, err := m.GenerateContent(ctx, genai.Text(sb.String()))
	if err != nil {
		metrics.RecordCollaboratorCall("narrator", "error")
		return "", fmt.Errorf("%w: %w", ErrNarrate, err)
	}

	text, err := extractText(resp)
	if err != nil {
		metrics.RecordCollaboratorCall("narrator", "error")
		return "", err
	}
	metrics.RecordCollaboratorCall("narrator", "ok")
	return text, nil
}

func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in response", ErrNarrate)
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no content in response", ErrNarrate)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("%w: empty response", ErrNarrate)
	}
	return out, nil
}

// Noop is a Narrator that keeps the planner rationale untouched.
type Noop struct{}

func (Noop) Narrate(_ context.Context, c model.OutfitCandidate, _ model.Context) (string, error) {
	return c.Rationale, nil
}

func (Noop) Close() error { return nil }

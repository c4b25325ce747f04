package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cirqle-backend/internal/domain"

	"google.golang.org/genai"
)

// =============================================================================
// GOOGLE GENAI ACTIVITY GENERATOR
// =============================================================================

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = domain.ErrEmptyGeneration

// contentGenerator is the slice of genai.Models this package calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client generates activity ideas and icebreakers with Gemini.
type Client struct {
	models contentGenerator
	model  string
}

// NewClient creates a Gemini-backed generator.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Client{models: client.Models, model: model}, nil
}

// activitySchema pins the JSON array shape the model must answer with.
var activitySchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id":          {Type: genai.TypeString},
			"title":       {Type: genai.TypeString},
			"description": {Type: genai.TypeString},
			"location":    {Type: genai.TypeString},
			"icon":        {Type: genai.TypeString, Description: "lucide icon name, e.g. Coffee, Camera, Music, Mountain"},
		},
		Required: []string{"title", "description", "location", "icon"},
	},
}

// Suggest asks for count group activity ideas.
func (c *Client) Suggest(ctx context.Context, interests []string, location string, count int) ([]domain.ActivitySuggestion, error) {
	result, err := c.models.GenerateContent(ctx, c.model,
		genai.Text(suggestionPrompt(interests, location, count)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   activitySchema,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("GenAI suggest failed: %w", err)
	}

	return ParseSuggestions(result.Text())
}

// Icebreaker asks for one short conversation starter.
func (c *Client) Icebreaker(ctx context.Context, interests []string) (string, error) {
	result, err := c.models.GenerateContent(ctx, c.model, genai.Text(icebreakerPrompt(interests)), nil)
	if err != nil {
		return "", fmt.Errorf("GenAI icebreaker failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// ParseSuggestions decodes a strict JSON array of suggestions.
func ParseSuggestions(text string) ([]domain.ActivitySuggestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var suggestions []domain.ActivitySuggestion
	if err := json.Unmarshal([]byte(text), &suggestions); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}
	if len(suggestions) == 0 {
		return nil, ErrEmptyResponse
	}
	return domain.NormalizeSuggestions(suggestions), nil
}

func suggestionPrompt(interests []string, location string, count int) string {
	if location == "" {
		location = "a city"
	}
	return fmt.Sprintf(`Generate %d specific, fun group activity ideas for friends in %s who are interested in %s.
Return a valid JSON array where each item has keys: id (unique string), title, description, location, icon (lucide icon name).`,
		count, location, strings.Join(interests, ", "))
}

func icebreakerPrompt(interests []string) string {
	return fmt.Sprintf("Generate a single, fun, short conversation starter for %d people interested in: %s. Casual tone.",
		domain.CircleSize, strings.Join(interests, ", "))
}

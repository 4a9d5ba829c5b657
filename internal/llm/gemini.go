package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"snapsell/internal/listing"
)

const geminiModel = "gemini-2.5-flash"

const listingPrompt = `Generate a marketplace listing for a %s photographed for a secondhand listing.

Respond in JSON format with these fields:
- name: a catchy listing title, max 60 characters
- description: a detailed description (150-200 words) highlighting features, condition and selling points
- condition: one of New, Like New, Excellent, Good, Fair, Lightly Used
- price: a reasonable price estimate in USD as an integer
- keywords: 5-7 relevant search keywords as an array of lowercase strings

Example response:
{"name": "Vintage Oak Side Table - Perfect for Any Home", "description": "This vintage oak side table...", "condition": "Good", "price": 85, "keywords": ["vintage", "oak", "table", "furniture", "home"]}

Respond ONLY with the JSON object, no markdown or other text.`

// GeminiGenerator generates listing content with Google's Gemini API.
type GeminiGenerator struct {
	client *genai.Client
}

// NewGeminiGenerator creates a Gemini-backed generator using the given API key.
func NewGeminiGenerator(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGenerator{client: client}, nil
}

// GenerateListing implements Generator.
func (g *GeminiGenerator) GenerateListing(ctx context.Context, imageURL, objectType string) (*listing.Draft, error) {
	if objectType == "" {
		objectType = unknownObjectType
	}

	parts := []*genai.Part{
		genai.NewPartFromText(fmt.Sprintf(listingPrompt, objectType)),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, geminiModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from Gemini")
	}

	draft, err := parseDraft(result.Text())
	if err != nil {
		return nil, err
	}

	var inputTokens, outputTokens int32
	if result.UsageMetadata != nil {
		inputTokens = result.UsageMetadata.PromptTokenCount
		outputTokens = result.UsageMetadata.CandidatesTokenCount
	}
	log.Info().
		Str("model", geminiModel).
		Str("objectType", objectType).
		Str("imageUrl", imageURL).
		Int32("inputTokens", inputTokens).
		Int32("outputTokens", outputTokens).
		Msg("listing llm call")

	return draft, nil
}

func parseDraft(text string) (*listing.Draft, error) {
	// Clean up the response - remove markdown code blocks if present
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var draft listing.Draft
	if err := json.Unmarshal([]byte(text), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w (response: %s)", err, text)
	}
	if draft.Name == "" {
		return nil, fmt.Errorf("response is missing a listing name (response: %s)", text)
	}
	if draft.Price < 0 {
		draft.Price = 0
	}
	return &draft, nil
}

// Package llm generates listing content. The default generator synthesizes
// mock listings locally; a Gemini-backed generator is available behind the
// same interface, and either can be wrapped with SQLite caching.
package llm

import (
	"context"

	"snapsell/internal/listing"
)

// unknownObjectType is used when no detection result accompanies a request.
const unknownObjectType = "unknown item"

// Generator produces a listing draft for an analyzed photo.
type Generator interface {
	GenerateListing(ctx context.Context, imageURL, objectType string) (*listing.Draft, error)
}

// MockGenerator backs the Generator interface with the local synthesizer.
// It never fails and ignores the image beyond logging purposes.
type MockGenerator struct {
	synth *listing.Synthesizer
}

// NewMockGenerator creates a MockGenerator around synth.
func NewMockGenerator(synth *listing.Synthesizer) *MockGenerator {
	return &MockGenerator{synth: synth}
}

// GenerateListing implements Generator.
func (g *MockGenerator) GenerateListing(ctx context.Context, imageURL, objectType string) (*listing.Draft, error) {
	if objectType == "" {
		objectType = unknownObjectType
	}
	draft := g.synth.Synthesize(objectType)
	return &draft, nil
}

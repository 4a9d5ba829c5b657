package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"

	"snapsell/internal/listing"
	"snapsell/internal/storage"
)

// CachedGenerator wraps a Generator with SQLite caching so repeated
// generations for the same photo reuse the earlier result.
type CachedGenerator struct {
	inner Generator
	store storage.Store
}

// NewCachedGenerator creates a cached generator.
func NewCachedGenerator(inner Generator, store storage.Store) *CachedGenerator {
	return &CachedGenerator{inner: inner, store: store}
}

// hashRequest keys the cache on image URL and object type together. The
// separator prevents boundary collisions between the two values.
func hashRequest(imageURL, objectType string) string {
	h := sha256.New()
	h.Write([]byte(imageURL))
	h.Write([]byte{0})
	h.Write([]byte(objectType))
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateListing implements the Generator interface with caching.
func (c *CachedGenerator) GenerateListing(ctx context.Context, imageURL, objectType string) (*listing.Draft, error) {
	hash := hashRequest(imageURL, objectType)

	if c.store != nil {
		cached, err := c.store.GetListingCache(hash)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check listing cache")
		} else if cached != nil {
			log.Debug().Str("hash", hash[:16]).Msg("listing cache hit")
			return &listing.Draft{
				Name:        cached.Name,
				Description: cached.Description,
				Condition:   cached.Condition,
				Price:       cached.Price,
				Keywords:    cached.Keywords,
			}, nil
		}
	}

	draft, err := c.inner.GenerateListing(ctx, imageURL, objectType)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		entry := &storage.ListingCacheEntry{
			Name:        draft.Name,
			Description: draft.Description,
			Condition:   draft.Condition,
			Price:       draft.Price,
			Keywords:    draft.Keywords,
		}
		if err := c.store.SetListingCache(hash, entry); err != nil {
			log.Warn().Err(err).Msg("failed to cache listing result")
		} else {
			log.Debug().Str("hash", hash[:16]).Msg("cached listing result")
		}
	}

	return draft, nil
}

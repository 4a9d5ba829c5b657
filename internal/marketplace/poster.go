// Package marketplace simulates posting listings to external marketplaces.
// No network calls are made; results are fabricated per platform.
package marketplace

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Listing is the marketplace-facing payload for one item.
type Listing struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       int      `json:"price"`
	Condition   string   `json:"condition"`
	Images      []string `json:"images"`
	Keywords    []string `json:"keywords"`
}

// PostResult is the outcome of one post attempt. An unrecognized
// marketplace is a soft failure: Success is false and Message explains,
// but nothing is returned as an error.
type PostResult struct {
	Marketplace string `json:"marketplace"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	ListingURL  string `json:"listingUrl,omitempty"`
	ListingID   string `json:"listingId,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Poster fabricates per-platform post results. Listing identifiers depend
// on the clock and the random source, so repeated posts never collide.
type Poster struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewPoster creates a Poster. A nil rng gets a time-seeded source and a nil
// now defaults to time.Now.
func NewPoster(rng *rand.Rand, now func() time.Time) *Poster {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Poster{rng: rng, now: now}
}

// Post submits a listing to a single marketplace, matched
// case-insensitively against ebay, craigslist, etsy and facebook.
func (p *Poster) Post(market string, l Listing) PostResult {
	p.mu.Lock()
	listingID := fmt.Sprintf("%s-%d-%d", market, p.now().UnixMilli(), p.rng.Intn(1000))
	p.mu.Unlock()

	switch strings.ToLower(market) {
	case "ebay":
		return PostResult{
			Marketplace: market,
			Success:     true,
			Message:     "Listing successfully posted to eBay",
			ListingURL:  "https://www.ebay.com/itm/" + listingID,
			ListingID:   listingID,
			Status:      "active",
		}
	case "craigslist":
		return PostResult{
			Marketplace: market,
			Success:     true,
			Message:     "Listing successfully posted to Craigslist",
			ListingURL:  "https://craigslist.org/posts/" + listingID,
			ListingID:   listingID,
			Status:      "pending_approval",
		}
	case "etsy":
		return PostResult{
			Marketplace: market,
			Success:     true,
			Message:     "Listing successfully posted to Etsy",
			ListingURL:  "https://www.etsy.com/listing/" + listingID,
			ListingID:   listingID,
			Status:      "active",
		}
	case "facebook":
		return PostResult{
			Marketplace: market,
			Success:     true,
			Message:     "Listing successfully posted to Facebook Marketplace",
			ListingURL:  "https://www.facebook.com/marketplace/item/" + listingID,
			ListingID:   listingID,
			Status:      "pending_review",
		}
	default:
		return PostResult{
			Marketplace: market,
			Success:     false,
			Message:     fmt.Sprintf("Unsupported marketplace: %s", market),
		}
	}
}

package workflow

import (
	"snapsell/internal/marketplace"
	"snapsell/internal/pricing"
)

// Status reflects how far an item has moved through the pipeline. It only
// ever advances: processing, then ready, then published.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusPublished  Status = "published"
)

var statusRank = map[Status]int{
	StatusProcessing: 0,
	StatusReady:      1,
	StatusPublished:  2,
}

// PricingData is the estimate attached to an item after pricing runs.
type PricingData struct {
	AveragePrice     int                `json:"averagePrice"`
	PriceRange       pricing.PriceRange `json:"priceRange"`
	RecommendedPrice int                `json:"recommendedPrice"`
}

// Item is the working record for one physical object moving through
// capture, listing, pricing and publish. It lives in memory for a single
// workflow pass and is discarded when the pass completes.
type Item struct {
	ID              string                   `json:"id"`
	Photos          []string                 `json:"photos"`
	ProcessedPhotos []string                 `json:"processedPhotos"`
	Name            string                   `json:"name"`
	Description     string                   `json:"description"`
	Condition       string                   `json:"condition"`
	Price           int                      `json:"price"`
	Keywords        []string                 `json:"keywords"`
	ObjectType      string                   `json:"objectType"`
	PricingData     *PricingData             `json:"pricingData,omitempty"`
	Marketplaces    []string                 `json:"marketplaces"`
	PostResults     []marketplace.PostResult `json:"postResults,omitempty"`
	Status          Status                   `json:"status"`
}

// advanceStatus moves the item status forward, never backward.
func (it *Item) advanceStatus(to Status) {
	if statusRank[to] > statusRank[it.Status] {
		it.Status = to
	}
}

// clone returns a deep copy safe to hand outside the session lock.
func (it *Item) clone() Item {
	out := *it
	out.Photos = append([]string(nil), it.Photos...)
	out.ProcessedPhotos = append([]string(nil), it.ProcessedPhotos...)
	out.Keywords = append([]string(nil), it.Keywords...)
	out.Marketplaces = append([]string(nil), it.Marketplaces...)
	out.PostResults = append([]marketplace.PostResult(nil), it.PostResults...)
	if it.PricingData != nil {
		pd := *it.PricingData
		out.PricingData = &pd
	}
	return out
}

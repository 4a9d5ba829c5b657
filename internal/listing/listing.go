// Package listing synthesizes marketplace listing drafts for an item
// category: name, marketing copy, condition, an opening price and a
// keyword set.
package listing

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"snapsell/internal/text"
)

// Draft is a generated listing before user edits.
type Draft struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Condition   string   `json:"condition"`
	Price       int      `json:"price"`
	Keywords    []string `json:"keywords"`
}

var adjectives = []string{
	"Vintage", "Modern", "Classic", "Elegant", "Rustic",
	"Sleek", "Handcrafted", "Premium", "Luxury", "Unique",
}

// Condition vocabulary for listing copy. Deliberately not the same set the
// pricing comparables use.
var conditions = []string{"New", "Like New", "Excellent", "Good", "Fair", "Lightly Used"}

var fillerKeywords = []string{
	"quality", "bargain", "home", "gift", "unique", "stylish",
	"practical", "essential", "rare", "collectible", "handmade", "discount",
}

const (
	minKeywords = 5
	maxKeywords = 7
)

// basePriceFor maps a category to its opening price tier.
func basePriceFor(objectType string) float64 {
	switch objectType {
	case "furniture", "electronics", "artwork":
		return 200
	case "clothing", "kitchenware", "tool":
		return 75
	case "jewelry", "sports equipment":
		return 120
	default:
		return 50
	}
}

// Synthesizer generates listing drafts from a category label.
type Synthesizer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthesizer creates a Synthesizer. A nil rng gets a time-seeded source.
func NewSynthesizer(rng *rand.Rand) *Synthesizer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Synthesizer{rng: rng}
}

// Synthesize builds a draft for the given category. Any string works as a
// category; unknown ones land in the cheapest price tier.
func (s *Synthesizer) Synthesize(objectType string) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	adjective := adjectives[s.rng.Intn(len(adjectives))]
	condition := conditions[s.rng.Intn(len(conditions))]
	price := int(math.Round(basePriceFor(objectType) * (0.8 + s.rng.Float64()*0.6)))

	name := fmt.Sprintf("%s %s - Perfect for Any Home", adjective, text.Capitalize(objectType))
	description := describe(strings.ToLower(adjective), objectType, strings.ToLower(condition))

	pool := make([]string, 0, 3+len(fillerKeywords))
	pool = append(pool, objectType, strings.ToLower(adjective), strings.ToLower(condition))
	pool = append(pool, fillerKeywords...)
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	count := minKeywords + s.rng.Intn(maxKeywords-minKeywords+1)

	return Draft{
		Name:        name,
		Description: description,
		Condition:   condition,
		Price:       price,
		Keywords:    pool[:count],
	}
}

func describe(adjective, objectType, condition string) string {
	return fmt.Sprintf(
		"This %s %s is a must-have addition to your collection. "+
			"Featuring exceptional craftsmanship and attention to detail, it showcases "+
			"the perfect blend of style and functionality. "+
			"The %s is in %s condition, with minimal signs of wear and tear, ensuring "+
			"you receive a quality item that will last for years to come. "+
			"Whether you're looking to upgrade your current setup or searching for the "+
			"perfect gift, this %s is an excellent choice. "+
			"Its versatile design complements any decor style, making it a seamless "+
			"addition to your space. "+
			"Don't miss the opportunity to own this remarkable piece at an unbeatable price.",
		adjective, objectType, objectType, condition, objectType,
	)
}

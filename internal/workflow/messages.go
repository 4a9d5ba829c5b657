package workflow

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

// User-visible workflow messages.
const (
	msgNoPhotos           = "Please take at least one photo of your item"
	msgNoMarketplaces     = "Please select at least one marketplace"
	msgProcessingFailed   = "Error processing image"
	msgGenerationFailed   = "Error generating listing"
	msgPricingUnavailable = `
		Pricing data is unavailable right now.
		The listing keeps its generated price - you can still edit it before publishing.`
	msgAllPosted     = "Successfully posted to all %d marketplaces!"
	msgPartialPosted = "Posted to %d out of %d marketplaces"
	msgNegativePrice = "Price cannot be negative"
)

// Placeholder item text shown while generation is in flight.
const (
	placeholderName        = "Processing..."
	placeholderDescription = "Generating description..."
	placeholderCondition   = "Analyzing..."
)

// NoticeLevel classifies a notice for display.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)

// Notice is a user-visible notification queued on the session and drained
// with the next snapshot.
type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}

func formatNoticeText(text string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(text)), a...)
}

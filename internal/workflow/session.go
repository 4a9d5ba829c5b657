// Package workflow drives the four-stage listing workflow: capture,
// preview, marketplace selection and publishing. One session holds one
// working set of items; all mutation goes through the session mutex.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"snapsell/internal/listing"
	"snapsell/internal/marketplace"
	"snapsell/internal/media"
	"snapsell/internal/pricing"
	"snapsell/internal/storage"
)

// Validation and sequencing errors, mapped to 400 responses at the HTTP
// boundary.
var (
	ErrNoPhotos       = errors.New("no photos submitted")
	ErrNoMarketplaces = errors.New("no marketplaces selected")
	ErrNoItem         = errors.New("no item in working set")
	ErrWrongStep      = errors.New("operation not allowed in current step")
	ErrInvalidPrice   = errors.New("price cannot be negative")
)

// ImageProcessor saves and processes an uploaded photo. The result carries
// the detected object type in its metadata.
type ImageProcessor interface {
	Process(data []byte, contentType string) (*media.Result, error)
}

// ListingGenerator produces a listing draft for a processed photo.
type ListingGenerator interface {
	GenerateListing(ctx context.Context, imageURL, objectType string) (*listing.Draft, error)
}

// PriceEstimator looks up pricing for a category and keyword set.
type PriceEstimator interface {
	Estimate(itemType string, keywords []string) (pricing.Estimate, error)
}

// MarketplacePoster posts a listing to a single marketplace. Failures are
// carried in the result, not returned as errors.
type MarketplacePoster interface {
	Post(market string, l marketplace.Listing) marketplace.PostResult
}

// PublishRecorder persists publish outcomes. Optional; recording failures
// never fail a publish.
type PublishRecorder interface {
	AppendPublish(rec *storage.PublishRecord) error
}

// Photo is one captured image as uploaded.
type Photo struct {
	Data        []byte
	ContentType string
}

// Deps are the session's collaborators.
type Deps struct {
	Processor ImageProcessor
	Generator ListingGenerator
	Estimator PriceEstimator
	Poster    MarketplacePoster
	Recorder  PublishRecorder

	// StageTimeout bounds each pipeline stage. Zero means DefaultStageTimeout.
	StageTimeout time.Duration
}

// DefaultStageTimeout bounds a single pipeline stage (image processing,
// listing generation, pricing) when no explicit timeout is configured.
const DefaultStageTimeout = 30 * time.Second

// Session is one workflow instance. Steps within a transition run strictly
// in sequence; results merge into the working item in submission order.
type Session struct {
	id   string
	deps Deps

	mu           sync.Mutex
	step         Step
	items        []*Item
	currentIndex int
	notices      []Notice
	lastActive   time.Time
}

// NewSession creates a session in the capture step.
func NewSession(id string, deps Deps) *Session {
	if deps.StageTimeout <= 0 {
		deps.StageTimeout = DefaultStageTimeout
	}
	return &Session{
		id:         id,
		deps:       deps,
		step:       StepCapture,
		lastActive: time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// LastActive returns the time of the session's most recent operation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) touch() {
	s.lastActive = time.Now()
}

// setStep transitions the machine, panicking on an illegal edge. Callers
// guard their entry step first, so an illegal edge is a programming error.
func (s *Session) setStep(to Step) {
	if !CanTransition(s.step, to) {
		panic(fmt.Sprintf("illegal workflow transition %s -> %s", s.step, to))
	}
	log.Debug().Str("session", s.id).Str("from", string(s.step)).Str("to", string(to)).Msg("workflow step")
	s.step = to
}

func (s *Session) notify(level NoticeLevel, text string, a ...any) {
	s.notices = append(s.notices, Notice{Level: level, Text: formatNoticeText(text, a...)})
}

func (s *Session) currentItem() *Item {
	if s.currentIndex < 0 || s.currentIndex >= len(s.items) {
		return nil
	}
	return s.items[s.currentIndex]
}

type stageFunc func(ctx context.Context, item *Item) error

// SubmitPhotos moves capture -> preview: it processes the first photo,
// creates the working item and runs the generation pipeline. Submitting
// zero photos is a validation failure that leaves the session in capture.
// An image-processing failure also returns the session to capture; the
// item is never created. Later stage failures keep the partial item.
func (s *Session) SubmitPhotos(ctx context.Context, photos []Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.step != StepCapture {
		return fmt.Errorf("%w: %s", ErrWrongStep, s.step)
	}
	if len(photos) == 0 {
		s.notify(NoticeError, msgNoPhotos)
		return ErrNoPhotos
	}

	s.setStep(StepPreview)

	// Only the first photo drives analysis; extra photos are accepted but
	// not processed.
	result, err := s.deps.Processor.Process(photos[0].Data, photos[0].ContentType)
	if err != nil {
		s.notify(NoticeError, msgProcessingFailed)
		s.setStep(StepCapture)
		return fmt.Errorf("process image: %w", err)
	}

	item := &Item{
		ID:              ulid.Make().String(),
		Photos:          []string{result.ImageURL},
		ProcessedPhotos: []string{result.ProcessedImageURL},
		Name:            placeholderName,
		Description:     placeholderDescription,
		Condition:       placeholderCondition,
		Price:           0,
		Keywords:        []string{},
		ObjectType:      result.Metadata.ObjectDetected,
		Marketplaces:    []string{},
		Status:          StatusProcessing,
	}
	s.items = []*Item{item}
	s.currentIndex = 0

	stages := []stageFunc{s.generateStage, s.pricingStage}
	for _, stage := range stages {
		stageCtx, cancel := context.WithTimeout(ctx, s.deps.StageTimeout)
		err := stage(stageCtx, item)
		cancel()
		if err != nil {
			log.Error().Err(err).Str("session", s.id).Str("item", item.ID).Msg("pipeline stage failed")
			break
		}
	}
	return nil
}

// generateStage fills the item from a listing draft and marks it ready.
func (s *Session) generateStage(ctx context.Context, item *Item) error {
	draft, err := s.deps.Generator.GenerateListing(ctx, item.Photos[0], item.ObjectType)
	if err != nil {
		s.notify(NoticeError, msgGenerationFailed)
		return fmt.Errorf("generate listing: %w", err)
	}
	item.Name = draft.Name
	item.Description = draft.Description
	item.Condition = draft.Condition
	item.Price = draft.Price
	item.Keywords = append([]string(nil), draft.Keywords...)
	item.advanceStatus(StatusReady)
	return nil
}

// pricingStage overwrites the draft price with the recommended one and
// attaches the estimate. On failure the item keeps the draft price and the
// user sees a pricing-unavailable notice.
func (s *Session) pricingStage(ctx context.Context, item *Item) error {
	estimate, err := s.deps.Estimator.Estimate(item.ObjectType, item.Keywords)
	if err != nil {
		s.notify(NoticeInfo, msgPricingUnavailable)
		return fmt.Errorf("estimate pricing: %w", err)
	}
	item.Price = estimate.RecommendedPrice
	item.PricingData = &PricingData{
		AveragePrice:     estimate.AveragePrice,
		PriceRange:       estimate.PriceRange,
		RecommendedPrice: estimate.RecommendedPrice,
	}
	return nil
}

// ItemEdit is a partial update of the previewed item. Nil fields are left
// untouched.
type ItemEdit struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Condition   *string  `json:"condition"`
	Price       *int     `json:"price"`
	Keywords    []string `json:"keywords"`
}

// EditItem applies user edits during preview.
func (s *Session) EditItem(edit ItemEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.step != StepPreview {
		return fmt.Errorf("%w: %s", ErrWrongStep, s.step)
	}
	item := s.currentItem()
	if item == nil {
		return ErrNoItem
	}
	if edit.Price != nil && *edit.Price < 0 {
		s.notify(NoticeError, msgNegativePrice)
		return ErrInvalidPrice
	}

	if edit.Name != nil {
		item.Name = *edit.Name
	}
	if edit.Description != nil {
		item.Description = *edit.Description
	}
	if edit.Condition != nil {
		item.Condition = *edit.Condition
	}
	if edit.Price != nil {
		item.Price = *edit.Price
	}
	if edit.Keywords != nil {
		item.Keywords = append([]string(nil), edit.Keywords...)
	}
	return nil
}

// Next advances preview -> marketplaces.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.step != StepPreview {
		return fmt.Errorf("%w: %s", ErrWrongStep, s.step)
	}
	if s.currentItem() == nil {
		return ErrNoItem
	}
	s.setStep(StepMarketplaces)
	return nil
}

// Back moves one step backwards. Leaving preview discards the working item;
// leaving marketplace selection re-enters preview at the current index.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	switch s.step {
	case StepPreview:
		s.setStep(StepCapture)
		s.items = nil
		s.currentIndex = 0
		return nil
	case StepMarketplaces:
		s.setStep(StepPreview)
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrWrongStep, s.step)
	}
}

// Publish posts the item to each selected marketplace in selection order,
// reports an aggregate outcome and unconditionally returns the session to
// capture with the working set cleared. The returned item is a snapshot of
// the published record.
func (s *Session) Publish(ctx context.Context, marketplaces []string) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.step != StepMarketplaces {
		return nil, fmt.Errorf("%w: %s", ErrWrongStep, s.step)
	}
	if len(marketplaces) == 0 {
		s.notify(NoticeError, msgNoMarketplaces)
		return nil, ErrNoMarketplaces
	}
	item := s.currentItem()
	if item == nil {
		return nil, ErrNoItem
	}

	item.Marketplaces = append([]string(nil), marketplaces...)
	s.setStep(StepPublishing)

	payload := marketplace.Listing{
		Title:       item.Name,
		Description: item.Description,
		Price:       item.Price,
		Condition:   item.Condition,
		Images:      append([]string(nil), item.ProcessedPhotos...),
		Keywords:    append([]string(nil), item.Keywords...),
	}

	// Posts run sequentially; results are appended in selection order, not
	// completion order.
	successCount := 0
	for _, market := range marketplaces {
		result := s.deps.Poster.Post(market, payload)
		item.PostResults = append(item.PostResults, result)
		if result.Success {
			successCount++
		}
	}
	item.advanceStatus(StatusPublished)

	if successCount == len(marketplaces) {
		s.notify(NoticeSuccess, msgAllPosted, successCount)
	} else {
		s.notify(NoticeSuccess, msgPartialPosted, successCount, len(marketplaces))
	}

	if s.deps.Recorder != nil {
		for _, result := range item.PostResults {
			rec := &storage.PublishRecord{
				ItemID:      item.ID,
				ItemName:    item.Name,
				Marketplace: result.Marketplace,
				Success:     result.Success,
				ListingURL:  result.ListingURL,
				Status:      result.Status,
			}
			if err := s.deps.Recorder.AppendPublish(rec); err != nil {
				log.Warn().Err(err).Str("item", item.ID).Msg("failed to record publish")
			}
		}
	}

	published := item.clone()

	s.setStep(StepCapture)
	s.items = nil
	s.currentIndex = 0
	return &published, nil
}

// Snapshot is the externally visible session state. Notices are drained by
// the snapshot that carries them.
type Snapshot struct {
	ID           string   `json:"id"`
	Step         Step     `json:"step"`
	Items        []Item   `json:"items"`
	CurrentIndex int      `json:"currentIndex"`
	Notices      []Notice `json:"notices,omitempty"`
}

// Snapshot returns a copy of the session state and drains pending notices.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, it.clone())
	}
	notices := s.notices
	s.notices = nil

	return Snapshot{
		ID:           s.id,
		Step:         s.step,
		Items:        items,
		CurrentIndex: s.currentIndex,
		Notices:      notices,
	}
}

package workflow

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapsell/internal/listing"
	"snapsell/internal/marketplace"
	"snapsell/internal/media"
	"snapsell/internal/pricing"
	"snapsell/internal/storage"
)

type stubProcessor struct {
	result *media.Result
	err    error
	calls  int
}

func (s *stubProcessor) Process(data []byte, contentType string) (*media.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubGenerator struct {
	draft *listing.Draft
	err   error
	calls int
}

func (s *stubGenerator) GenerateListing(ctx context.Context, imageURL, objectType string) (*listing.Draft, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.draft, nil
}

type stubEstimator struct {
	estimate pricing.Estimate
	err      error
	calls    int
}

func (s *stubEstimator) Estimate(itemType string, keywords []string) (pricing.Estimate, error) {
	s.calls++
	if s.err != nil {
		return pricing.Estimate{}, s.err
	}
	return s.estimate, nil
}

type stubRecorder struct {
	records []*storage.PublishRecord
}

func (s *stubRecorder) AppendPublish(rec *storage.PublishRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func testDeps() (Deps, *stubProcessor, *stubGenerator, *stubEstimator) {
	processor := &stubProcessor{
		result: &media.Result{
			ImageURL:          "/uploads/a.png",
			ProcessedImageURL: "/uploads/a_processed.png",
			Metadata: media.Metadata{
				Width: 640, Height: 480, Format: "png", ObjectDetected: "furniture",
			},
		},
	}
	generator := &stubGenerator{
		draft: &listing.Draft{
			Name:        "Vintage Furniture - Perfect for Any Home",
			Description: "A lovely piece.",
			Condition:   "Good",
			Price:       180,
			Keywords:    []string{"vintage", "furniture", "home"},
		},
	}
	estimator := &stubEstimator{
		estimate: pricing.Estimate{
			AveragePrice:     265,
			PriceRange:       pricing.PriceRange{Min: 175, Max: 325},
			RecommendedPrice: 252,
		},
	}
	deps := Deps{
		Processor: processor,
		Generator: generator,
		Estimator: estimator,
		Poster:    marketplace.NewPoster(rand.New(rand.NewSource(1)), nil),
	}
	return deps, processor, generator, estimator
}

func testPhotos() []Photo {
	return []Photo{{Data: []byte("fake png bytes"), ContentType: "image/png"}}
}

func TestSubmitPhotosRequiresAtLeastOne(t *testing.T) {
	deps, processor, _, _ := testDeps()
	s := NewSession("s1", deps)

	err := s.SubmitPhotos(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoPhotos)
	assert.Zero(t, processor.calls)

	snap := s.Snapshot()
	assert.Equal(t, StepCapture, snap.Step)
	assert.Empty(t, snap.Items)
	require.Len(t, snap.Notices, 1)
	assert.Equal(t, NoticeError, snap.Notices[0].Level)
}

func TestSubmitPhotosRunsFullPipeline(t *testing.T) {
	deps, _, generator, estimator := testDeps()
	s := NewSession("s1", deps)

	require.NoError(t, s.SubmitPhotos(context.Background(), testPhotos()))
	assert.Equal(t, 1, generator.calls)
	assert.Equal(t, 1, estimator.calls)

	snap := s.Snapshot()
	assert.Equal(t, StepPreview, snap.Step)
	require.Len(t, snap.Items, 1)

	item := snap.Items[0]
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, []string{"/uploads/a.png"}, item.Photos)
	assert.Equal(t, []string{"/uploads/a_processed.png"}, item.ProcessedPhotos)
	assert.Equal(t, "furniture", item.ObjectType)
	assert.Equal(t, "Vintage Furniture - Perfect for Any Home", item.Name)
	assert.Equal(t, "Good", item.Condition)
	assert.Equal(t, StatusReady, item.Status)

	// Pricing's recommendation wins over the generated draft price.
	assert.Equal(t, 252, item.Price)
	require.NotNil(t, item.PricingData)
	assert.Equal(t, 265, item.PricingData.AveragePrice)
	assert.Equal(t, pricing.PriceRange{Min: 175, Max: 325}, item.PricingData.PriceRange)
}

func TestSubmitPhotosProcessingFailureReturnsToCapture(t *testing.T) {
	deps, processor, generator, _ := testDeps()
	processor.err = errors.New("decode failed")
	s := NewSession("s1", deps)

	err := s.SubmitPhotos(context.Background(), testPhotos())
	require.Error(t, err)
	assert.Zero(t, generator.calls)

	snap := s.Snapshot()
	assert.Equal(t, StepCapture, snap.Step)
	assert.Empty(t, snap.Items, "item must never be created when processing fails")
	require.Len(t, snap.Notices, 1)
	assert.Equal(t, NoticeError, snap.Notices[0].Level)
}

func TestSubmitPhotosGenerationFailureAbortsChain(t *testing.T) {
	deps, _, generator, estimator := testDeps()
	generator.err = errors.New("llm unavailable")
	s := NewSession("s1", deps)

	// Stage failures are reported through notices, not the return value.
	require.NoError(t, s.SubmitPhotos(context.Background(), testPhotos()))
	assert.Zero(t, estimator.calls, "pricing must not run after generation fails")

	snap := s.Snapshot()
	assert.Equal(t, StepPreview, snap.Step)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, StatusProcessing, snap.Items[0].Status)
	require.Len(t, snap.Notices, 1)
	assert.Equal(t, NoticeError, snap.Notices[0].Level)
}

func TestSubmitPhotosPricingFailureKeepsDraftPrice(t *testing.T) {
	deps, _, _, estimator := testDeps()
	estimator.err = errors.New("pricing backend down")
	s := NewSession("s1", deps)

	require.NoError(t, s.SubmitPhotos(context.Background(), testPhotos()))

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	item := snap.Items[0]
	assert.Equal(t, StatusReady, item.Status)
	assert.Equal(t, 180, item.Price, "draft price survives a pricing failure")
	assert.Nil(t, item.PricingData)
	require.Len(t, snap.Notices, 1)
	assert.Equal(t, NoticeInfo, snap.Notices[0].Level)
	assert.Contains(t, snap.Notices[0].Text, "Pricing data is unavailable")
}

func TestEditItem(t *testing.T) {
	deps, _, _, _ := testDeps()
	s := NewSession("s1", deps)
	require.NoError(t, s.SubmitPhotos(context.Background(), testPhotos()))

	name := "Renamed Chair"
	price := 99
	require.NoError(t, s.EditItem(ItemEdit{Name: &name, Price: &price}))

	snap := s.Snapshot()
	assert.Equal(t, "Renamed Chair", snap.Items[0].Name)
	assert.Equal(t, 99, snap.Items[0].Price)
}

func TestEditItemRejectsNegativePrice(t *testing.T) {
	deps, _, _, _ := testDeps()
	s := NewSession("s1", deps)
	require.NoError(t, s.SubmitPhotos(context.Background(), testPhotos()))

	price := -5
	assert.ErrorIs(t, s.EditItem(ItemEdit{Price: &price}), ErrInvalidPrice)
	assert.Equal(t, 252, s.Snapshot().Items[0].Price)
}

func TestNextAndBack(t *testing.T) {
	deps, _, _, _ := testDeps()
	s := NewSession("s1", deps)
	require.NoError(t, s.SubmitPhotos(context.Background(), testPhotos()))

	require.NoError(t, s.Next())
	assert.Equal(t, StepMarketplaces, s.Snapshot().Step)

	require.NoError(t, s.Back())
	snap := s.Snapshot()
	assert.Equal(t, StepPreview, snap.Step)
	assert.Len(t, snap.Items, 1, "returning to preview keeps the item")

	require.NoError(t, s.Back())
	snap = s.Snapshot()
	assert.Equal(t, StepCapture, snap.Step)
	assert.Empty(t, snap.Items, "leaving preview discards the item")
}

func TestNextRequiresPreview(t *testing.T) {
	deps, _, _, _ := testDeps()
	s := NewSession("s1", deps)
	assert.ErrorIs(t, s.Next(), ErrWrongStep)
}

func TestPublishRequiresMarketplaces(t *testing.T) {
	deps, _, _, _ := testDeps()
	s := NewSession("s1", deps)
	require.NoError(t, s.SubmitPhotos(context.Background(), testPhotos()))
	require.NoError(t, s.Next())

	_, err := s.Publish(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoMarketplaces)

	snap := s.Snapshot()
	assert.Equal(t, StepMarketplaces, snap.Step)
	require.Len(t, snap.Notices, 1)
	assert.Equal(t, NoticeError, snap.Notices[0].Level)
}

func TestPublishMixedResults(t *testing.T) {
	deps, _, _, _ := testDeps()
	recorder := &stubRecorder{}
	deps.Recorder = recorder
	s := NewSession("s1", deps)
	require.NoError(t, s.SubmitPhotos(context.Background(), testPhotos()))
	require.NoError(t, s.Next())

	item, err := s.Publish(context.Background(), []string{"ebay", "shopify"})
	require.NoError(t, err)

	require.Len(t, item.PostResults, 2)
	assert.Equal(t, []string{"ebay", "shopify"}, item.Marketplaces)
	assert.True(t, item.PostResults[0].Success)
	assert.Equal(t, "ebay", item.PostResults[0].Marketplace)
	assert.False(t, item.PostResults[1].Success)
	assert.Equal(t, "Unsupported marketplace: shopify", item.PostResults[1].Message)
	assert.Equal(t, StatusPublished, item.Status)

	// Publish always cycles back to capture and clears the working set.
	snap := s.Snapshot()
	assert.Equal(t, StepCapture, snap.Step)
	assert.Empty(t, snap.Items)
	assert.Zero(t, snap.CurrentIndex)

	require.Len(t, snap.Notices, 1)
	assert.Equal(t, NoticeSuccess, snap.Notices[0].Level)
	assert.Equal(t, "Posted to 1 out of 2 marketplaces", snap.Notices[0].Text)

	require.Len(t, recorder.records, 2)
	assert.Equal(t, "ebay", recorder.records[0].Marketplace)
	assert.True(t, recorder.records[0].Success)
	assert.Equal(t, "shopify", recorder.records[1].Marketplace)
	assert.False(t, recorder.records[1].Success)
}

func TestPublishAllSucceeded(t *testing.T) {
	deps, _, _, _ := testDeps()
	s := NewSession("s1", deps)
	require.NoError(t, s.SubmitPhotos(context.Background(), testPhotos()))
	require.NoError(t, s.Next())

	item, err := s.Publish(context.Background(), []string{"ebay", "etsy", "facebook"})
	require.NoError(t, err)
	require.Len(t, item.PostResults, 3)

	snap := s.Snapshot()
	require.Len(t, snap.Notices, 1)
	assert.Equal(t, "Successfully posted to all 3 marketplaces!", snap.Notices[0].Text)
}

func TestSnapshotDrainsNotices(t *testing.T) {
	deps, _, _, _ := testDeps()
	s := NewSession("s1", deps)

	_ = s.SubmitPhotos(context.Background(), nil)
	assert.Len(t, s.Snapshot().Notices, 1)
	assert.Empty(t, s.Snapshot().Notices)
}

func TestManagerCreateGetAndEvict(t *testing.T) {
	deps, _, _, _ := testDeps()
	m := NewManager(deps, time.Minute)

	s := m.Create()
	got, ok := m.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = m.Get("missing")
	assert.False(t, ok)

	assert.Zero(t, m.evictIdle(time.Now()))
	assert.Equal(t, 1, m.evictIdle(time.Now().Add(2*time.Minute)))
	_, ok = m.Get(s.ID())
	assert.False(t, ok)
}

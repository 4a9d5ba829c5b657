// Package media handles uploaded item photos: saving the original,
// producing a size-bounded JPEG rendition and mocking object detection.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	_ "golang.org/x/image/webp"
)

// Validation errors, mapped to 400 responses at the HTTP boundary.
var (
	ErrNoData          = errors.New("no image data provided")
	ErrUnsupportedType = errors.New("unsupported image type")
)

const (
	maxDimension = 1200
	jpegQuality  = 80
)

// validTypes maps accepted upload MIME types to file extensions.
var validTypes = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/webp": "webp",
}

// detectableObjects are the category labels mock detection draws from.
var detectableObjects = []string{
	"furniture", "electronics", "clothing",
	"kitchenware", "toy", "book", "jewelry",
	"artwork", "tool", "sports equipment",
}

// Metadata describes the uploaded image.
type Metadata struct {
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Format         string `json:"format"`
	ObjectDetected string `json:"objectDetected,omitempty"`
}

// Result points at the saved original and processed renditions.
type Result struct {
	ImageURL          string   `json:"imageUrl"`
	ProcessedImageURL string   `json:"processedImageUrl"`
	Metadata          Metadata `json:"metadata"`
}

// Processor saves uploads under a local directory and serves them back via
// the /uploads/ URL prefix.
type Processor struct {
	dir string
	mu  sync.Mutex
	rng *rand.Rand
}

// NewProcessor creates a Processor writing into dir, creating it if needed.
// A nil rng gets a time-seeded source.
func NewProcessor(dir string, rng *rand.Rand) (*Processor, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Processor{dir: dir, rng: rng}, nil
}

// Process validates and saves the original image, then writes a processed
// rendition resized to fit within 1200x1200 and re-encoded as quality-80
// JPEG. The processed file keeps the original's extension. Mock object
// detection picks a random category label.
func (p *Processor) Process(data []byte, contentType string) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrNoData
	}
	ext, ok := validTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	id := uuid.New().String()
	fileName := fmt.Sprintf("%s.%s", id, ext)
	processedFileName := fmt.Sprintf("%s_processed.%s", id, ext)

	if err := os.WriteFile(filepath.Join(p.dir, fileName), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save original image: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()

	// Fit never enlarges, so small photos pass through at original size.
	fitted := imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)

	out, err := os.Create(filepath.Join(p.dir, processedFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to create processed image: %w", err)
	}
	if err := jpeg.Encode(out, fitted, &jpeg.Options{Quality: jpegQuality}); err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to encode processed image: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("failed to write processed image: %w", err)
	}

	detected := p.DetectObject()
	log.Info().
		Str("file", fileName).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Str("format", format).
		Str("objectDetected", detected).
		Msg("processed image")

	return &Result{
		ImageURL:          "/uploads/" + fileName,
		ProcessedImageURL: "/uploads/" + processedFileName,
		Metadata: Metadata{
			Width:          bounds.Dx(),
			Height:         bounds.Dy(),
			Format:         format,
			ObjectDetected: detected,
		},
	}, nil
}

// DetectObject stands in for a real object-detection model and returns a
// random category label.
func (p *Processor) DetectObject() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return detectableObjects[p.rng.Intn(len(detectableObjects))]
}

// Dir returns the directory uploads are written to.
func (p *Processor) Dir() string {
	return p.dir
}

package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 10 {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	p, err := NewProcessor(t.TempDir(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return p
}

func TestProcessSavesOriginalAndProcessed(t *testing.T) {
	p := newTestProcessor(t)
	data := encodePNG(t, 640, 480)

	result, err := p.Process(data, "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.ImageURL, "/uploads/"), result.ImageURL)
	assert.True(t, strings.HasSuffix(result.ProcessedImageURL, "_processed.png"), result.ProcessedImageURL)
	assert.Equal(t, 640, result.Metadata.Width)
	assert.Equal(t, 480, result.Metadata.Height)
	assert.Equal(t, "png", result.Metadata.Format)
	assert.Contains(t, detectableObjects, result.Metadata.ObjectDetected)

	original, err := os.ReadFile(filepath.Join(p.Dir(), filepath.Base(result.ImageURL)))
	require.NoError(t, err)
	assert.Equal(t, data, original)

	_, err = os.Stat(filepath.Join(p.Dir(), filepath.Base(result.ProcessedImageURL)))
	require.NoError(t, err)
}

func TestProcessResizesLargeImages(t *testing.T) {
	p := newTestProcessor(t)
	data := encodePNG(t, 1400, 900)

	result, err := p.Process(data, "image/png")
	require.NoError(t, err)

	// Original dimensions are reported; the processed rendition fits 1200x1200.
	assert.Equal(t, 1400, result.Metadata.Width)
	assert.Equal(t, 900, result.Metadata.Height)

	processed, err := os.Open(filepath.Join(p.Dir(), filepath.Base(result.ProcessedImageURL)))
	require.NoError(t, err)
	defer processed.Close()

	img, format, err := image.Decode(processed)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.LessOrEqual(t, img.Bounds().Dx(), 1200)
	assert.LessOrEqual(t, img.Bounds().Dy(), 1200)
}

func TestProcessKeepsSmallImagesUnscaled(t *testing.T) {
	p := newTestProcessor(t)
	result, err := p.Process(encodePNG(t, 300, 200), "image/png")
	require.NoError(t, err)

	processed, err := os.Open(filepath.Join(p.Dir(), filepath.Base(result.ProcessedImageURL)))
	require.NoError(t, err)
	defer processed.Close()

	img, _, err := image.Decode(processed)
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestProcessRejectsUnsupportedType(t *testing.T) {
	p := newTestProcessor(t)
	_, err := p.Process([]byte("not an image"), "text/plain")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestProcessRejectsEmptyData(t *testing.T) {
	p := newTestProcessor(t)
	_, err := p.Process(nil, "image/png")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDetectObjectReturnsKnownCategory(t *testing.T) {
	p := newTestProcessor(t)
	for i := 0; i < 20; i++ {
		assert.Contains(t, detectableObjects, p.DetectObject())
	}
}

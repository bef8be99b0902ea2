package imageproc_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"regexp"
	"runtime"
	"testing"
	"time"

	"employee-poll-backend/internal/imageproc"
	"employee-poll-backend/internal/models"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encoded(t *testing.T, w, h int, format imaging.Format) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 90, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}

func TestTransform(t *testing.T) {
	tests := []struct {
		name        string
		format      imaging.Format
		ext         string
		contentType string
	}{
		{"jpeg", imaging.JPEG, ".jpg", "image/jpeg"},
		{"png", imaging.PNG, ".png", "image/png"},
		{"gif", imaging.GIF, ".gif", "image/gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := imageproc.Transform(encoded(t, 800, 500, tt.format), imageproc.DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.ext, res.Ext)
			assert.Equal(t, tt.contentType, res.ContentType)

			cfg, _, err := image.DecodeConfig(bytes.NewReader(res.Data))
			require.NoError(t, err)
			assert.Equal(t, 400, cfg.Width)
			assert.Equal(t, 400, cfg.Height)
		})
	}
}

func TestTransform_SmallImageIsUpscaled(t *testing.T) {
	res, err := imageproc.Transform(encoded(t, 50, 120, imaging.PNG), imageproc.Options{Size: 64, Quality: 85})
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 64, cfg.Height)
}

func TestTransform_Unsupported(t *testing.T) {
	_, err := imageproc.Transform([]byte("definitely not an image"), imageproc.DefaultOptions())
	assert.ErrorIs(t, err, models.ErrProcessingFailed)
}

func TestTransform_Corrupt(t *testing.T) {
	data := encoded(t, 100, 100, imaging.PNG)
	_, err := imageproc.Transform(data[:len(data)/2], imageproc.DefaultOptions())
	assert.ErrorIs(t, err, models.ErrProcessingFailed)
}

func TestTransformContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := imageproc.TransformContext(ctx, encoded(t, 100, 100, imaging.PNG), imageproc.DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransformContext_TimeoutReleasesCaller(t *testing.T) {
	data := encoded(t, 4000, 4000, imaging.PNG)
	baseline := runtime.NumGoroutine()

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	_, err := imageproc.TransformContext(ctx, data, imageproc.DefaultOptions())
	assert.ErrorIs(t, err, models.ErrProcessingFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The abandoned transform finishes on its own and does not block on its result.
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= baseline
	}, 10*time.Second, 20*time.Millisecond)
}

func TestSupported(t *testing.T) {
	assert.True(t, imageproc.Supported("image/webp"))
	assert.True(t, imageproc.Supported("image/png"))
	assert.False(t, imageproc.Supported("image/bmp"))
	assert.False(t, imageproc.Supported("application/pdf"))
}

func TestFilename(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	name := imageproc.Filename(now, ".jpg")
	assert.Regexp(t, regexp.MustCompile(`^nominee-1700000000123-\d{9}\.jpg$`), name)
	assert.NotEqual(t, name, imageproc.Filename(now, ".jpg"))
}

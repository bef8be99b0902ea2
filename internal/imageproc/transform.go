// Package imageproc turns uploaded nominee pictures into square thumbnails.
package imageproc

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"employee-poll-backend/internal/models"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
	_ "golang.org/x/image/webp"
)

type Options struct {
	Size    int
	Quality int
}

func DefaultOptions() Options {
	return Options{Size: 400, Quality: 85}
}

type Result struct {
	Data        []byte
	Ext         string
	ContentType string
}

type output struct {
	format      imaging.Format
	ext         string
	contentType string
}

// outputs maps the sniffed source type to the encoded form. There is no pure Go webp encoder,
// so webp sources are written as JPEG.
var outputs = map[string]output{
	"image/jpeg": {imaging.JPEG, ".jpg", "image/jpeg"},
	"image/webp": {imaging.JPEG, ".jpg", "image/jpeg"},
	"image/png":  {imaging.PNG, ".png", "image/png"},
	"image/gif":  {imaging.GIF, ".gif", "image/gif"},
}

// Supported reports whether contentType can be transformed.
func Supported(contentType string) bool {
	_, ok := outputs[contentType]
	return ok
}

// Transform center-crops data to a Size x Size square and re-encodes it.
func Transform(data []byte, opts Options) (*Result, error) {
	mtype := mimetype.Detect(data)
	out, ok := outputs[mtype.String()]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported image type %s", models.ErrProcessingFailed, mtype.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", models.ErrProcessingFailed, err)
	}

	thumb := imaging.Fill(img, opts.Size, opts.Size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, out.format, imaging.JPEGQuality(opts.Quality)); err != nil {
		return nil, fmt.Errorf("%w: encode: %w", models.ErrProcessingFailed, err)
	}

	return &Result{Data: buf.Bytes(), Ext: out.ext, ContentType: out.contentType}, nil
}

// TransformContext runs Transform but gives up when ctx is done. Transform itself cannot be
// interrupted, so after a timeout the work still runs to completion in the background and its
// result is dropped.
func TransformContext(ctx context.Context, data []byte, opts Options) (*Result, error) {
	type outcome struct {
		res *Result
		err error
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrProcessingFailed, err)
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := Transform(data, opts)
		ch <- outcome{res, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", models.ErrProcessingFailed, ctx.Err())
	case o := <-ch:
		return o.res, o.err
	}
}

const digits = "0123456789"

// Filename returns a collision resistant name: nominee-<unixMillis>-<9 random digits><ext>.
func Filename(now time.Time, ext string) string {
	return fmt.Sprintf("nominee-%d-%s%s", now.UnixMilli(), gonanoid.MustGenerate(digits, 9), ext)
}

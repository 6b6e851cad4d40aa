// Package photo compresses inspection photos and keeps stored copies.
package photo

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"vendtrack/metrics"

	"github.com/nfnt/resize"
)

const (
	MaxWidth    = 800
	MaxHeight   = 600
	JPEGQuality = 70

	// MaxFileSize caps the bytes read from one upload.
	MaxFileSize = 20 << 20
	// MaxPixels caps the declared dimensions decoded from one upload.
	MaxPixels = 50_000_000

	dataURLPrefix = "data:image/jpeg;base64,"
)

var (
	// ErrRead means the upload could not be read.
	ErrRead = errors.New("file could not be read")
	// ErrDecode means the upload is not a supported image.
	ErrDecode = errors.New("image could not be loaded")
	// ErrTooLarge means the upload exceeds MaxFileSize or MaxPixels.
	ErrTooLarge = errors.New("image is too large")
)

// TargetSize returns the dimensions a w x h image is scaled to. Landscape
// images wider than MaxWidth shrink to MaxWidth; other images taller than
// MaxHeight shrink to MaxHeight. The aspect ratio is kept and fractional
// sizes are truncated.
func TargetSize(w, h int) (int, int) {
	if w > h {
		if w > MaxWidth {
			return MaxWidth, atLeastOne(h * MaxWidth / w)
		}
	} else if h > MaxHeight {
		return atLeastOne(w * MaxHeight / h), MaxHeight
	}
	return w, h
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Compress decodes a JPEG, PNG or GIF image, scales it down to fit and
// re-encodes it as JPEG. Uploads over MaxFileSize or MaxPixels fail with
// ErrTooLarge.
func Compress(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		metrics.PhotosCompressed.WithLabelValues("read_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	if len(raw) > MaxFileSize {
		metrics.PhotosCompressed.WithLabelValues("too_large").Inc()
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, MaxFileSize)
	}

	// check the header before decoding allocates the full bitmap
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		metrics.PhotosCompressed.WithLabelValues("decode_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		metrics.PhotosCompressed.WithLabelValues("too_large").Inc()
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		metrics.PhotosCompressed.WithLabelValues("decode_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	w, h := TargetSize(bounds.Dx(), bounds.Dy())
	if w != bounds.Dx() || h != bounds.Dy() {
		img = resize.Resize(uint(w), uint(h), img, resize.Bilinear)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		metrics.PhotosCompressed.WithLabelValues("encode_error").Inc()
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	metrics.PhotosCompressed.WithLabelValues("ok").Inc()
	return buf.Bytes(), nil
}

// CompressToDataURL compresses the image and returns it as a JPEG data URL.
func CompressToDataURL(r io.Reader) (string, error) {
	data, err := Compress(r)
	if err != nil {
		return "", err
	}
	return DataURL(data), nil
}

// DataURL wraps JPEG bytes in a data URL.
func DataURL(jpegData []byte) string {
	return dataURLPrefix + base64.StdEncoding.EncodeToString(jpegData)
}

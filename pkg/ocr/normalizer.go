// Package ocr turns photographed task sheets into text.
package ocr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/semaphore"

	"github.com/dskvich/homework-solver-bot/pkg/logger"
)

const (
	DefaultMinWidth  = 1000
	DefaultLanguages = "rus+eng"
	// DefaultMaxPixels bounds both accepted sources and upscaled results.
	DefaultMaxPixels = 40_000_000
)

type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, languages string) (string, error)
}

type Normalizer struct {
	recognizer Recognizer
	sem        *semaphore.Weighted
	minWidth   int
	maxPixels  int
	languages  string
}

func NewNormalizer(recognizer Recognizer, workers int) *Normalizer {
	if workers < 1 {
		workers = 1
	}
	return &Normalizer{
		recognizer: recognizer,
		sem:        semaphore.NewWeighted(int64(workers)),
		minWidth:   DefaultMinWidth,
		maxPixels:  DefaultMaxPixels,
		languages:  DefaultLanguages,
	}
}

// Normalize extracts the task text from raw image bytes. The second result is false when
// the image could not be decoded or nothing was recognized.
func (n *Normalizer) Normalize(ctx context.Context, data []byte) (string, bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		slog.WarnContext(ctx, "Reading image header", "size", len(data), logger.Err(err))
		return "", false
	}
	if cfg.Width*cfg.Height > n.maxPixels {
		slog.WarnContext(ctx, "Image too large", "width", cfg.Width, "height", cfg.Height, "maxPixels", n.maxPixels)
		return "", false
	}

	if err := n.sem.Acquire(ctx, 1); err != nil {
		slog.WarnContext(ctx, "Waiting for OCR slot", logger.Err(err))
		return "", false
	}
	defer n.sem.Release(1)

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.WarnContext(ctx, "Decoding image", "size", len(data), logger.Err(err))
		return "", false
	}

	if _, clamped := upscaleFactor(src.Bounds().Size(), n.minWidth, n.maxPixels); clamped {
		slog.InfoContext(ctx, "Upscale limited by pixel budget", "source", src.Bounds().Size(), "maxPixels", n.maxPixels)
	}

	img := Preprocess(src, n.minWidth, n.maxPixels)
	slog.DebugContext(ctx, "Image prepared for OCR",
		"format", format,
		"source", src.Bounds().Size(),
		"prepared", img.Bounds().Size(),
	)

	text, err := n.recognizer.Recognize(ctx, img, n.languages)
	if err != nil {
		slog.ErrorContext(ctx, "Recognizing text", logger.Err(err))
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	return text, true
}

// Preprocess flattens src onto white, upscales it so the narrower side reaches minWidth
// without exceeding maxPixels, and converts the result to 8-bit grayscale.
func Preprocess(src image.Image, minWidth, maxPixels int) *image.Gray {
	var img image.Image = flatten(src)

	b := img.Bounds()
	if factor, clamped := upscaleFactor(b.Size(), minWidth, maxPixels); factor > 1 {
		round := math.Round
		if clamped {
			round = math.Floor
		}
		w := int(round(float64(b.Dx()) * factor))
		h := int(round(float64(b.Dy()) * factor))

		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)
		img = scaled
	}

	gray := image.NewGray(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)

	return gray
}

// upscaleFactor returns the scale that brings the narrower side to minWidth. clamped reports
// that the factor was reduced to keep the result within maxPixels. A factor of 1 or less
// means no upscale.
func upscaleFactor(size image.Point, minWidth, maxPixels int) (float64, bool) {
	narrower := min(size.X, size.Y)
	if narrower <= 0 || narrower >= minWidth {
		return 1, false
	}

	factor := float64(minWidth) / float64(narrower)
	budget := math.Sqrt(float64(maxPixels) / float64(size.X*size.Y))
	if factor > budget {
		return budget, true
	}
	return factor, false
}

func flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

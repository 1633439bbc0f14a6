package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os/exec"
	"strings"
)

// pageSegMode 6 treats the page as a single uniform block of text.
const pageSegMode = "6"

type Tesseract struct {
	path string
}

// NewTesseract drives the tesseract binary at path, or the one found in PATH when path is empty.
func NewTesseract(path string) *Tesseract {
	return &Tesseract{path: path}
}

func (t *Tesseract) Recognize(ctx context.Context, img image.Image, languages string) (string, error) {
	bin := t.path
	if bin == "" {
		var err error
		if bin, err = exec.LookPath("tesseract"); err != nil {
			return "", fmt.Errorf("looking for `tesseract`: %w", err)
		}
	}

	var in bytes.Buffer
	if err := png.Encode(&in, img); err != nil {
		return "", fmt.Errorf("encoding png: %w", err)
	}

	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "stdin", "stdout", "-l", languages, "--psm", pageSegMode)
	cmd.Stdin = &in
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	slog.DebugContext(ctx, "Running tesseract", "languages", languages)

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running `tesseract`: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return out.String(), nil
}

package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"
	"time"
)

type fakeRecognizer struct {
	text  string
	err   error
	calls int
	got   image.Image
	langs string
	block chan struct{}
}

func (f *fakeRecognizer) Recognize(ctx context.Context, img image.Image, languages string) (string, error) {
	f.calls++
	f.got = img
	f.langs = languages
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func TestPreprocessUpscalesNarrowerSide(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		wantW int
		wantH int
	}{
		{"landscape", 400, 200, 2000, 1000},
		{"portrait", 250, 500, 1000, 2000},
		{"large enough", 1200, 1000, 1200, 1000},
		{"wide but short", 3000, 500, 6000, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Preprocess(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), DefaultMinWidth, DefaultMaxPixels)
			size := got.Bounds().Size()
			if size.X != tt.wantW || size.Y != tt.wantH {
				t.Errorf("Preprocess(%dx%d) size = %v, want %dx%d", tt.w, tt.h, size, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestUpscaleFactor(t *testing.T) {
	tests := []struct {
		name        string
		w, h        int
		wantClamped bool
		wantMax     int
	}{
		{"small square", 100, 100, false, 1000 * 1000},
		{"large enough", 1200, 1000, false, 1200 * 1000},
		{"thin strip", 10, 600, true, DefaultMaxPixels},
		{"extreme strip", 4, 4000, true, DefaultMaxPixels},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factor, clamped := upscaleFactor(image.Pt(tt.w, tt.h), DefaultMinWidth, DefaultMaxPixels)
			if clamped != tt.wantClamped {
				t.Errorf("clamped = %v, want %v", clamped, tt.wantClamped)
			}
			pixels := float64(tt.w) * float64(tt.h) * factor * factor
			if pixels > float64(tt.wantMax)+1 {
				t.Errorf("factor %.2f gives %.0f pixels, want at most %d", factor, pixels, tt.wantMax)
			}
		})
	}
}

func TestPreprocessThinStripStaysWithinBudget(t *testing.T) {
	const budget = 1_000_000

	got := Preprocess(image.NewRGBA(image.Rect(0, 0, 10, 600)), DefaultMinWidth, budget)

	size := got.Bounds().Size()
	if size.X*size.Y > budget {
		t.Errorf("Preprocess(10x600) size = %v, %d pixels over budget %d", size, size.X*size.Y, budget)
	}
	if size.X <= 10 || size.Y <= 600 {
		t.Errorf("Preprocess(10x600) size = %v, want it upscaled as far as the budget allows", size)
	}
	if float64(size.Y)/float64(size.X) < 55 {
		t.Errorf("Preprocess(10x600) size = %v, aspect ratio not kept", size)
	}
}

func TestNormalizeRejectsOversizedSource(t *testing.T) {
	rec := &fakeRecognizer{text: "unused"}
	n := NewNormalizer(rec, 1)
	n.maxPixels = 100

	if _, ok := n.Normalize(context.Background(), encodePNG(t, image.NewRGBA(image.Rect(0, 0, 20, 20)))); ok {
		t.Error("expected no result for an image over the pixel budget")
	}
	if rec.calls != 0 {
		t.Errorf("recognizer called %d times, want 0", rec.calls)
	}
}

func TestPreprocessFlattensTransparencyToWhite(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1000, 1000))
	for x := 0; x < 500; x++ {
		for y := 0; y < 1000; y++ {
			src.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}

	got := Preprocess(src, DefaultMinWidth, DefaultMaxPixels)

	if v := got.GrayAt(10, 10).Y; v != 0 {
		t.Errorf("opaque black pixel became %d", v)
	}
	if v := got.GrayAt(900, 10).Y; v != 255 {
		t.Errorf("transparent pixel became %d, want white", v)
	}
}

func TestNormalize(t *testing.T) {
	opaque := image.NewRGBA(image.Rect(0, 0, 300, 100))

	paletted := image.NewPaletted(image.Rect(0, 0, 120, 80), color.Palette{color.White, color.Black})
	var gifBuf bytes.Buffer
	if err := gif.Encode(&gifBuf, paletted, nil); err != nil {
		t.Fatalf("encoding gif: %v", err)
	}

	tests := []struct {
		name      string
		data      []byte
		rec       *fakeRecognizer
		want      string
		wantOK    bool
		wantCalls int
	}{
		{
			name:      "recognized text is trimmed",
			data:      encodePNG(t, opaque),
			rec:       &fakeRecognizer{text: "  2 + 2 = ?\n\n"},
			want:      "2 + 2 = ?",
			wantOK:    true,
			wantCalls: 1,
		},
		{
			name:      "palette image",
			data:      gifBuf.Bytes(),
			rec:       &fakeRecognizer{text: "Задача 1"},
			want:      "Задача 1",
			wantOK:    true,
			wantCalls: 1,
		},
		{
			name:      "whitespace only",
			data:      encodePNG(t, opaque),
			rec:       &fakeRecognizer{text: " \n\t "},
			wantCalls: 1,
		},
		{
			name:      "recognizer failure",
			data:      encodePNG(t, opaque),
			rec:       &fakeRecognizer{err: errors.New("engine crashed")},
			wantCalls: 1,
		},
		{
			name: "not an image",
			data: []byte("definitely not an image"),
			rec:  &fakeRecognizer{text: "unused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NewNormalizer(tt.rec, 1).Normalize(context.Background(), tt.data)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Normalize() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
			if tt.rec.calls != tt.wantCalls {
				t.Fatalf("recognizer called %d times, want %d", tt.rec.calls, tt.wantCalls)
			}
			if tt.wantCalls == 0 {
				return
			}
			if _, isGray := tt.rec.got.(*image.Gray); !isGray {
				t.Errorf("recognizer got %T, want *image.Gray", tt.rec.got)
			}
			if size := tt.rec.got.Bounds().Size(); min(size.X, size.Y) != DefaultMinWidth {
				t.Errorf("recognizer got size %v, want narrower side %d", size, DefaultMinWidth)
			}
			if tt.rec.langs != DefaultLanguages {
				t.Errorf("languages = %q, want %q", tt.rec.langs, DefaultLanguages)
			}
		})
	}
}

func TestNormalizeWaitsForFreeWorker(t *testing.T) {
	busy := &fakeRecognizer{text: "busy", block: make(chan struct{})}
	n := NewNormalizer(busy, 1)
	data := encodePNG(t, image.NewRGBA(image.Rect(0, 0, 10, 10)))

	done := make(chan struct{})
	go func() {
		defer close(done)
		n.Normalize(context.Background(), data)
	}()

	// wait until the first call holds the only slot
	deadline := time.Now().Add(5 * time.Second)
	for n.sem.TryAcquire(1) {
		n.sem.Release(1)
		if time.Now().After(deadline) {
			t.Fatal("first recognition never started")
		}
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, ok := n.Normalize(ctx, data); ok {
		t.Error("expected no result while the pool is exhausted")
	}

	close(busy.block)
	<-done
}

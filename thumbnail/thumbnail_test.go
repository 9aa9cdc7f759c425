package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func testImage(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestMake(t *testing.T) {
	tests := []struct {
		name          string
		w, h          int
		wantW, wantH  int
	}{
		{name: "landscape shrinks", w: 2048, h: 1024, wantW: 512, wantH: 256},
		{name: "portrait shrinks", w: 1024, h: 2048, wantW: 256, wantH: 512},
		{name: "small stays", w: 100, h: 80, wantW: 100, wantH: 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Make(testImage(t, tt.w, tt.h))
			if err != nil {
				t.Fatalf("Make() error = %v", err)
			}

			img, err := jpeg.Decode(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("thumbnail is not a jpeg: %v", err)
			}

			b := img.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("thumbnail is %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestMakeRejectsGarbage(t *testing.T) {
	if _, err := Make([]byte("not an image")); err == nil {
		t.Error("Make() accepted non-image input")
	}
}

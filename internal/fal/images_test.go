package fal

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func TestGeneratedBackground_PortraitJPEG(t *testing.T) {
	data, err := GeneratedBackground()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
	if b := img.Bounds(); b.Dx() != 480 || b.Dy() != 640 {
		t.Errorf("size = %dx%d, want 480x640", b.Dx(), b.Dy())
	}
}

func TestNormalizeBackground_DownscalesOversized(t *testing.T) {
	src := imaging.New(4000, 2000, color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff})
	path := filepath.Join(t.TempDir(), "big.jpg")
	if err := imaging.Save(src, path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}

	data, err := NormalizeBackground(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() > maxBackgroundEdge || b.Dy() > maxBackgroundEdge {
		t.Errorf("image not downscaled: %dx%d", b.Dx(), b.Dy())
	}
	if b.Dx() != 1920 {
		t.Errorf("long edge = %d, want 1920", b.Dx())
	}
}

func TestNormalizeBackground_MissingFile(t *testing.T) {
	if _, err := NormalizeBackground("/nonexistent/bg.png"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

package fal

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/disintegration/imaging"
)

// Renders only accept reasonably sized backgrounds; anything above this edge
// gets downscaled before upload.
const maxBackgroundEdge = 1920

// NormalizeBackground loads a local image, downscales oversized ones and
// re-encodes to JPEG bytes ready for upload.
func NormalizeBackground(path string) ([]byte, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open background %s: %w", path, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxBackgroundEdge || bounds.Dy() > maxBackgroundEdge {
		img = imaging.Fit(img, maxBackgroundEdge, maxBackgroundEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode background: %w", err)
	}
	return buf.Bytes(), nil
}

// GeneratedBackground produces a plain portrait background used when no
// bundled image is available. 480x640 matches the default render input.
func GeneratedBackground() ([]byte, error) {
	img := imaging.New(480, 640, color.NRGBA{R: 0x2b, G: 0x2d, B: 0x42, A: 0xff})

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode generated background: %w", err)
	}
	return buf.Bytes(), nil
}

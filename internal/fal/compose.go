package fal

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// extractedImage is the outcome of decoding one vendor response shape:
// either a ready URL or inline bytes that still need a storage upload.
type extractedImage struct {
	url  string
	data []byte
}

// imageDecoder tries one known response shape. Decoders run in priority
// order: explicit URL fields, then images[0].url, then inline bytes.
type imageDecoder func(result map[string]interface{}) (extractedImage, bool)

var imageDecoders = []imageDecoder{
	decodeDirectURL,
	decodeImagesArrayURL,
	decodeInlineImage,
}

func decodeDirectURL(result map[string]interface{}) (extractedImage, bool) {
	if img, ok := result["image"].(map[string]interface{}); ok {
		if url, ok := img["url"].(string); ok && isHTTPURL(url) {
			return extractedImage{url: url}, true
		}
	}
	if url, ok := result["url"].(string); ok && isHTTPURL(url) {
		return extractedImage{url: url}, true
	}
	return extractedImage{}, false
}

func decodeImagesArrayURL(result map[string]interface{}) (extractedImage, bool) {
	images, ok := result["images"].([]interface{})
	if !ok || len(images) == 0 {
		return extractedImage{}, false
	}
	if entry, ok := images[0].(map[string]interface{}); ok {
		if url, ok := entry["url"].(string); ok && isHTTPURL(url) {
			return extractedImage{url: url}, true
		}
	}
	if s, ok := images[0].(string); ok && isHTTPURL(s) {
		return extractedImage{url: s}, true
	}
	return extractedImage{}, false
}

func decodeInlineImage(result map[string]interface{}) (extractedImage, bool) {
	candidates := []string{}
	if s, ok := result["image"].(string); ok {
		candidates = append(candidates, s)
	}
	if images, ok := result["images"].([]interface{}); ok && len(images) > 0 {
		if s, ok := images[0].(string); ok {
			candidates = append(candidates, s)
		}
	}
	for _, key := range []string{"image_base64", "image_b64"} {
		if s, ok := result[key].(string); ok {
			candidates = append(candidates, s)
		}
	}

	for _, cand := range candidates {
		if data, ok := decodeImagePayload(cand); ok {
			return extractedImage{data: data}, true
		}
	}
	return extractedImage{}, false
}

// decodeImagePayload decodes a data URI or bare base64 payload.
func decodeImagePayload(s string) ([]byte, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, "base64,")
		if idx < 0 {
			return nil, false
		}
		data, err := base64.StdEncoding.DecodeString(s[idx+len("base64,"):])
		if err != nil {
			return nil, false
		}
		return data, true
	}
	if isHTTPURL(s) || len(s) < 64 {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return data, true
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ExtractImageURL resolves the output image from a composition result. URLs
// are returned as-is; inline bytes are written to storage first so callers
// always receive a fetchable URL.
func ExtractImageURL(ctx context.Context, result map[string]interface{}, storage Storage) (string, error) {
	for _, decode := range imageDecoders {
		img, ok := decode(result)
		if !ok {
			continue
		}
		if img.url != "" {
			return img.url, nil
		}
		url, err := storage.Upload(ctx, fmt.Sprintf("composite-%s.png", uuid.NewString()), img.data)
		if err != nil {
			return "", fmt.Errorf("re-upload inline image: %w", err)
		}
		return url, nil
	}
	return "", fmt.Errorf("no image found in composition result: %v", result)
}

// Composer runs the product-holding image composition model.
type Composer struct {
	client    *Client
	storage   Storage
	cache     *AssetCache
	model     string
	extraArgs map[string]interface{}

	personImagePath  string
	productImagePath string
}

// ComposerConfig configures a Composer.
type ComposerConfig struct {
	Model            string
	ExtraArgs        map[string]interface{}
	PersonImagePath  string
	ProductImagePath string
}

// NewComposer creates a product-holding composer. The cache keeps the
// bundled image uploads to one per adapter lifetime.
func NewComposer(client *Client, storage Storage, cache *AssetCache, cfg ComposerConfig) *Composer {
	model := cfg.Model
	if model == "" {
		model = "fal-ai/image-apps-v2/product-holding"
	}
	return &Composer{
		client:           client,
		storage:          storage,
		cache:            cache,
		model:            model,
		extraArgs:        cfg.ExtraArgs,
		personImagePath:  cfg.PersonImagePath,
		productImagePath: cfg.ProductImagePath,
	}
}

// Compose uploads the person and product images (bundled defaults unless the
// caller passes URLs) and runs the composition model, returning the output
// image URL.
func (c *Composer) Compose(ctx context.Context, personImageURL, productImageURL string) (string, error) {
	var err error
	if personImageURL == "" {
		personImageURL, err = c.resolveBundled(ctx, c.personImagePath, "person image")
		if err != nil {
			return "", err
		}
	}
	if productImageURL == "" {
		productImageURL, err = c.resolveBundled(ctx, c.productImagePath, "product image")
		if err != nil {
			return "", err
		}
	}

	arguments := map[string]interface{}{
		"person_image_url":  personImageURL,
		"product_image_url": productImageURL,
	}
	for k, v := range c.extraArgs {
		arguments[k] = v
	}

	result, err := c.client.Subscribe(ctx, c.model, arguments)
	if err != nil {
		return "", fmt.Errorf("product-holding run: %w", err)
	}

	return ExtractImageURL(ctx, result, c.storage)
}

func (c *Composer) resolveBundled(ctx context.Context, path, label string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("no %s configured and none provided", label)
	}
	url, err := c.cache.URLFor(ctx, path)
	if err != nil {
		return "", fmt.Errorf("upload bundled %s: %w", label, err)
	}
	return url, nil
}

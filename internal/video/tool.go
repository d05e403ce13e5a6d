// Package video implements the narrated-video pipeline tools: text-to-speech,
// asset upload and video rendering, glued in sequence.
package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/nextlevelbuilder/coralcrew/internal/fal"
	"github.com/nextlevelbuilder/coralcrew/internal/tools"
	"github.com/nextlevelbuilder/coralcrew/internal/tts"
)

// GenerateVideoTool runs the three-stage pipeline: synthesize narration,
// upload assets, render the video. Stages run strictly in sequence; a failed
// stage reports itself and earlier stage outputs are not rolled back.
type GenerateVideoTool struct {
	tts            *tts.ElevenLabsProvider
	fal            *fal.Client
	storage        fal.Storage
	cache          *fal.AssetCache
	fabricModel    string
	backgroundPath string // optional bundled background image
}

// GenerateVideoConfig configures the pipeline tool.
type GenerateVideoConfig struct {
	FabricModel    string
	BackgroundPath string
}

// NewGenerateVideoTool creates the generate_video tool.
func NewGenerateVideoTool(ttsProvider *tts.ElevenLabsProvider, falClient *fal.Client, storage fal.Storage, cache *fal.AssetCache, cfg GenerateVideoConfig) *GenerateVideoTool {
	model := cfg.FabricModel
	if model == "" {
		model = "veed/fabric-1.0"
	}
	return &GenerateVideoTool{
		tts:            ttsProvider,
		fal:            falClient,
		storage:        storage,
		cache:          cache,
		fabricModel:    model,
		backgroundPath: cfg.BackgroundPath,
	}
}

func (t *GenerateVideoTool) Name() string { return "generate_video" }

func (t *GenerateVideoTool) Description() string {
	return "Generate a narrated video from text using ElevenLabs (TTS) and FAL " + t.fabricModel + ". " +
		"Inputs: text, image_url, resolution (480p|720p), optional voice_id, wait (bool)."
}

func (t *GenerateVideoTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Text to synthesize with ElevenLabs",
			},
			"image_url": map[string]interface{}{
				"type":        "string",
				"description": "Image URL used as the video background. If omitted, the agent uploads its bundled background and uses that.",
			},
			"resolution": map[string]interface{}{
				"type":        "string",
				"description": "Video resolution; one of: 480p, 720p",
				"enum":        []string{"480p", "720p"},
			},
			"voice_id": map[string]interface{}{
				"type":        "string",
				"description": "Optional ElevenLabs voice ID (overrides env)",
			},
			"wait": map[string]interface{}{
				"type":        "boolean",
				"description": "If true, wait for video and return final URL; otherwise return request_id",
			},
		},
		"required": []string{"text"},
	}
}

func (t *GenerateVideoTool) Execute(ctx context.Context, args map[string]interface{}) *tools.Result {
	text, _ := args["text"].(string)
	if text == "" {
		return tools.ErrorResult("ERROR: text is required")
	}

	imageURL, _ := args["image_url"].(string)
	voiceID, _ := args["voice_id"].(string)
	resolution, _ := args["resolution"].(string)
	if resolution != "720p" {
		resolution = "480p"
	}
	wait := true
	if w, ok := args["wait"].(bool); ok {
		wait = w
	}

	if !t.fal.HasKey() {
		return tools.ErrorResult("ERROR: FAL_KEY is not set")
	}
	if !t.tts.HasAPIKey() {
		return tools.ErrorResult("ERROR: ELEVENLABS_API_KEY is not set")
	}

	// Stage 0: resolve the background image.
	if imageURL == "" {
		resolved, err := t.resolveBackground(ctx)
		if err != nil {
			return tools.ErrorResult(fmt.Sprintf("ERROR: Failed to upload bundled background image: %v", err)).WithError(err)
		}
		imageURL = resolved
	}
	slog.Info("generate_video using background", "image_url", imageURL)

	// Stage 1: synthesize narration to a temp file.
	audioPath, err := t.tts.SynthesizeToFile(ctx, text, tts.Options{Voice: voiceID})
	if err != nil {
		return tools.ErrorResult(fmt.Sprintf(
			"ERROR: %v. Ensure the key has text_to_speech permission and the voice is accessible.", err,
		)).WithError(err)
	}
	defer os.Remove(audioPath)
	slog.Info("narration synthesized", "audio_path", audioPath)

	// Stage 2: upload the audio.
	audioURL, err := t.storage.UploadFile(ctx, audioPath)
	if err != nil {
		return tools.ErrorResult(fmt.Sprintf("ERROR: audio upload failed: %v", err)).WithError(err)
	}
	slog.Info("narration uploaded", "audio_url", audioURL)

	// Stage 3: render.
	result, err := t.fal.RunFabric(ctx, t.fabricModel, imageURL, audioURL, resolution, wait)
	if err != nil {
		return tools.ErrorResult(fmt.Sprintf("ERROR: FAL video job failed: %v", err)).WithError(err)
	}

	if !wait {
		requestID, _ := result["request_id"].(string)
		return tools.NewResult("request_id=" + requestID)
	}

	if videoURL := extractVideoURL(result); videoURL != "" {
		slog.Info("video rendered", "video_url", videoURL)
		return tools.NewResult(videoURL)
	}
	return tools.ErrorResult(fmt.Sprintf("No video URL returned. Full result: %v", result))
}

func (t *GenerateVideoTool) resolveBackground(ctx context.Context) (string, error) {
	if t.backgroundPath != "" {
		data, err := fal.NormalizeBackground(t.backgroundPath)
		if err != nil {
			return "", err
		}
		return t.cache.URLForBytes(ctx, t.backgroundPath, "background.jpg", data)
	}

	data, err := fal.GeneratedBackground()
	if err != nil {
		return "", err
	}
	return t.cache.URLForBytes(ctx, "generated-background", "background.jpg", data)
}

func extractVideoURL(result map[string]interface{}) string {
	if video, ok := result["video"].(map[string]interface{}); ok {
		if url, ok := video["url"].(string); ok {
			return url
		}
	}
	return ""
}

// ComposeProductImageTool exposes the product-holding composition.
type ComposeProductImageTool struct {
	composer *fal.Composer
}

// NewComposeProductImageTool creates the compose_product_image tool.
func NewComposeProductImageTool(composer *fal.Composer) *ComposeProductImageTool {
	return &ComposeProductImageTool{composer: composer}
}

func (t *ComposeProductImageTool) Name() string { return "compose_product_image" }

func (t *ComposeProductImageTool) Description() string {
	return "Composite a product into a person's hands via the FAL product-holding model. " +
		"Optional: person_image_url, product_image_url (bundled images are used when omitted). " +
		"Returns the URL of the composed image."
}

func (t *ComposeProductImageTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"person_image_url": map[string]interface{}{
				"type":        "string",
				"description": "Image of the person; bundled default when omitted",
			},
			"product_image_url": map[string]interface{}{
				"type":        "string",
				"description": "Image of the product; bundled default when omitted",
			},
		},
	}
}

func (t *ComposeProductImageTool) Execute(ctx context.Context, args map[string]interface{}) *tools.Result {
	personURL, _ := args["person_image_url"].(string)
	productURL, _ := args["product_image_url"].(string)

	url, err := t.composer.Compose(ctx, personURL, productURL)
	if err != nil {
		return tools.ErrorResult(fmt.Sprintf("ERROR: product-holding composition failed: %v", err)).WithError(err)
	}
	return tools.NewResult(url)
}

package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ElevenLabsProvider implements TTS via the ElevenLabs API.
type ElevenLabsProvider struct {
	apiKey       string
	baseURL      string
	voiceID      string
	modelID      string
	outputFormat string
	http         *http.Client
}

// ElevenLabsConfig configures the ElevenLabs TTS provider.
type ElevenLabsConfig struct {
	APIKey       string
	BaseURL      string
	VoiceID      string
	ModelID      string
	OutputFormat string
	HTTPClient   *http.Client
}

// NewElevenLabsProvider creates an ElevenLabs TTS provider.
func NewElevenLabsProvider(cfg ElevenLabsConfig) *ElevenLabsProvider {
	p := &ElevenLabsProvider{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		voiceID:      cfg.VoiceID,
		modelID:      cfg.ModelID,
		outputFormat: cfg.OutputFormat,
		http:         cfg.HTTPClient,
	}
	if p.baseURL == "" {
		p.baseURL = "https://api.elevenlabs.io"
	}
	if p.voiceID == "" {
		p.voiceID = "21m00Tcm4TlvDq8ikWAM"
	}
	if p.modelID == "" {
		p.modelID = "eleven_multilingual_v2"
	}
	if p.outputFormat == "" {
		p.outputFormat = "mp3_44100_128"
	}
	if p.http == nil {
		p.http = &http.Client{Timeout: 60 * time.Second}
	}
	return p
}

func (p *ElevenLabsProvider) Name() string { return "elevenlabs" }

// HasAPIKey reports whether synthesis calls can be attempted.
func (p *ElevenLabsProvider) HasAPIKey() bool { return p.apiKey != "" }

// Synthesize calls the text-to-speech endpoint and returns the audio bytes.
// A non-200 status is surfaced with the code and vendor body; these usually
// mean a key permission or voice availability problem, so no retry.
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, text string, opts Options) (*SynthResult, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("missing ELEVENLABS_API_KEY")
	}

	voiceID := opts.Voice
	if voiceID == "" {
		voiceID = p.voiceID
	}
	modelID := opts.Model
	if modelID == "" {
		modelID = p.modelID
	}
	outputFormat := opts.Format
	if outputFormat == "" {
		outputFormat = p.outputFormat
	}

	body := map[string]interface{}{
		"text":     text,
		"model_id": modelID,
		"voice_settings": map[string]interface{}{
			"stability":        0.5,
			"similarity_boost": 0.75,
		},
	}
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", p.baseURL, voiceID, outputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("create tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ElevenLabs TTS failed (%d): %s", resp.StatusCode, string(errBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tts response: %w", err)
	}

	ext := "audio"
	mime := "application/octet-stream"
	if strings.Contains(strings.ToLower(outputFormat), "mp3") {
		ext = "mp3"
		mime = "audio/mpeg"
	}

	return &SynthResult{Audio: audio, Extension: ext, MimeType: mime}, nil
}

// SynthesizeToFile synthesizes speech and writes it to a temp file, returning
// the path. On synthesis failure no file is created; on write failure the
// partial file is removed.
func (p *ElevenLabsProvider) SynthesizeToFile(ctx context.Context, text string, opts Options) (string, error) {
	result, err := p.Synthesize(ctx, text, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("tts-%s.%s", uuid.NewString(), result.Extension))
	if err := os.WriteFile(path, result.Audio, 0o600); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write tts audio: %w", err)
	}
	return path, nil
}

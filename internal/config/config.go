// Package config holds process configuration for the agent crew.
//
// All behavior is parameterized by environment variables; an optional YAML
// file provides defaults that the environment overrides. Nothing here is
// persisted back to disk.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// CoralSettings configure the broker connection.
type CoralSettings struct {
	ConnectionURL    string        `yaml:"connectionUrl"` // full URL incl. query; wins over SSEBase
	SSEBase          string        `yaml:"sseUrl"`        // base SSE endpoint; query params appended
	AgentID          string        `yaml:"agentId"`
	AgentDescription string        `yaml:"agentDescription"`
	Timeout          time.Duration `yaml:"timeout"`        // SSE read timeout
	WaitTimeoutMs    int           `yaml:"waitTimeoutMs"`  // wait_for_mentions timeoutMs argument
	ReplyDelay       time.Duration `yaml:"replyDelay"`     // pause between loop iterations
	ErrorBackoff     time.Duration `yaml:"errorBackoff"`   // pause after an unhandled loop error
}

// ModelSettings configure the hosted reasoning model.
type ModelSettings struct {
	Name        string  `yaml:"name"`
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"apiKey"`
	BaseURL     string  `yaml:"baseUrl"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
	MaxRounds   int     `yaml:"maxRounds"` // max tool-call rounds per mention
}

// TenWebSettings configure the site-provisioning adapter.
type TenWebSettings struct {
	APIKey          string        `yaml:"apiKey"`
	BaseURL         string        `yaml:"baseUrl"`
	AutologinEmail  string        `yaml:"autologinEmail"`
	PollInterval    time.Duration `yaml:"pollInterval"`
	MaxPollAttempts int           `yaml:"maxPollAttempts"` // 0 = poll without a cap
}

// ElevenLabsSettings configure speech synthesis.
type ElevenLabsSettings struct {
	APIKey       string `yaml:"apiKey"`
	BaseURL      string `yaml:"baseUrl"`
	VoiceID      string `yaml:"voiceId"`
	ModelID      string `yaml:"modelId"`
	OutputFormat string `yaml:"outputFormat"`
}

// FALSettings configure asset storage, image composition and video rendering.
type FALSettings struct {
	Key                     string                 `yaml:"key"`
	RESTBase                string                 `yaml:"restBase"`
	QueueBase               string                 `yaml:"queueBase"`
	FabricModel             string                 `yaml:"fabricModel"`
	ProductHoldingModel     string                 `yaml:"productHoldingModel"`
	ProductHoldingExtraArgs map[string]interface{} `yaml:"productHoldingExtraArgs"`
	PollInterval            time.Duration          `yaml:"pollInterval"`
}

// VideoSettings point at the bundled images the video tools fall back to
// when the caller supplies no URLs.
type VideoSettings struct {
	BackgroundImage string `yaml:"backgroundImage"`
	PersonImage     string `yaml:"personImage"`
	ProductImage    string `yaml:"productImage"`
}

// StorageSettings select the asset storage backend.
type StorageSettings struct {
	Backend  string `yaml:"backend"` // "fal" (default) or "s3"
	S3Bucket string `yaml:"s3Bucket"`
	S3Region string `yaml:"s3Region"`
	S3Prefix string `yaml:"s3Prefix"`
}

// TracingSettings configure optional OTLP span export.
type TracingSettings struct {
	Endpoint    string `yaml:"endpoint"` // empty = tracing disabled
	Protocol    string `yaml:"protocol"` // "grpc" (default) or "http"
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"serviceName"`
}

// Settings is the full process configuration.
type Settings struct {
	Coral      CoralSettings      `yaml:"coral"`
	Model      ModelSettings      `yaml:"model"`
	TenWeb     TenWebSettings     `yaml:"tenweb"`
	ElevenLabs ElevenLabsSettings `yaml:"elevenlabs"`
	FAL        FALSettings        `yaml:"fal"`
	Video      VideoSettings      `yaml:"video"`
	Storage    StorageSettings    `yaml:"storage"`
	Tracing    TracingSettings    `yaml:"tracing"`
	RateLimit  int                `yaml:"rateLimit"` // tool executions/hour, 0 = off
}

// Default returns the baseline settings before file and env overlays.
func Default() *Settings {
	return &Settings{
		Coral: CoralSettings{
			Timeout:       300 * time.Second,
			WaitTimeoutMs: 30000,
			ReplyDelay:    2 * time.Second,
			ErrorBackoff:  5 * time.Second,
		},
		Model: ModelSettings{
			Name:        "gpt-4.1",
			Provider:    "openai",
			Temperature: 0.1,
			MaxTokens:   8000,
			MaxRounds:   8,
		},
		TenWeb: TenWebSettings{
			BaseURL:         "https://api.10web.io",
			PollInterval:    5 * time.Second,
			MaxPollAttempts: 60,
		},
		ElevenLabs: ElevenLabsSettings{
			BaseURL:      "https://api.elevenlabs.io",
			VoiceID:      "21m00Tcm4TlvDq8ikWAM",
			ModelID:      "eleven_multilingual_v2",
			OutputFormat: "mp3_44100_128",
		},
		FAL: FALSettings{
			RESTBase:            "https://rest.alpha.fal.ai",
			QueueBase:           "https://queue.fal.run",
			FabricModel:         "veed/fabric-1.0",
			ProductHoldingModel: "fal-ai/image-apps-v2/product-holding",
			PollInterval:        2 * time.Second,
		},
		Storage: StorageSettings{Backend: "fal"},
	}
}

// Load reads an optional YAML config file and overlays environment variables
// on top. A missing file is not an error; a malformed one is.
func Load(path string) (*Settings, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, s); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	s.applyEnv()
	return s, nil
}

// FromEnv returns settings built from defaults plus environment only.
func FromEnv() *Settings {
	s := Default()
	s.applyEnv()
	return s
}

func (s *Settings) applyEnv() {
	envStr(&s.Coral.ConnectionURL, "CORAL_CONNECTION_URL")
	envStr(&s.Coral.SSEBase, "CORAL_SSE_URL")
	envStr(&s.Coral.AgentID, "CORAL_AGENT_ID")
	envMillis(&s.Coral.Timeout, "TIMEOUT_MS")
	envInt(&s.Coral.WaitTimeoutMs, "CORAL_WAIT_TIMEOUT_MS")

	envStr(&s.Model.Name, "MODEL_NAME")
	envStr(&s.Model.Provider, "MODEL_PROVIDER")
	envStr(&s.Model.APIKey, "MODEL_API_KEY")
	envStr(&s.Model.BaseURL, "MODEL_BASE_URL")
	envFloat(&s.Model.Temperature, "MODEL_TEMPERATURE")
	envInt(&s.Model.MaxTokens, "MODEL_MAX_TOKENS")

	envStr(&s.TenWeb.APIKey, "TENWEB_API_KEY")
	envStr(&s.TenWeb.AutologinEmail, "TENWEB_AUTOLOGIN_EMAIL")
	envSeconds(&s.TenWeb.PollInterval, "TENWEB_POLL_INTERVAL_SEC")
	envInt(&s.TenWeb.MaxPollAttempts, "TENWEB_MAX_POLL_ATTEMPTS")

	envStr(&s.ElevenLabs.APIKey, "ELEVENLABS_API_KEY")
	envStr(&s.ElevenLabs.VoiceID, "ELEVENLABS_VOICE_ID")
	envStr(&s.ElevenLabs.ModelID, "ELEVENLABS_MODEL_ID")

	envStr(&s.FAL.Key, "FAL_KEY")
	envStr(&s.FAL.ProductHoldingModel, "PRODUCT_HOLDING_MODEL")
	if raw := os.Getenv("PRODUCT_HOLDING_EXTRA_ARGS"); raw != "" {
		var loaded map[string]interface{}
		// Malformed JSON is ignored, matching the permissive env contract.
		if err := json.Unmarshal([]byte(raw), &loaded); err == nil {
			s.FAL.ProductHoldingExtraArgs = loaded
		}
	}

	envStr(&s.Video.BackgroundImage, "VIDEO_BACKGROUND_IMAGE")
	envStr(&s.Video.PersonImage, "VIDEO_PERSON_IMAGE")
	envStr(&s.Video.ProductImage, "VIDEO_PRODUCT_IMAGE")

	envStr(&s.Storage.Backend, "STORAGE_BACKEND")
	envStr(&s.Storage.S3Bucket, "STORAGE_S3_BUCKET")
	envStr(&s.Storage.S3Region, "STORAGE_S3_REGION")
	envStr(&s.Storage.S3Prefix, "STORAGE_S3_PREFIX")

	envStr(&s.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	envStr(&s.Tracing.Protocol, "OTEL_EXPORTER_OTLP_PROTOCOL")
	envStr(&s.Tracing.ServiceName, "OTEL_SERVICE_NAME")
}

// CoralURL builds the broker connection URL. A full connection URL wins;
// otherwise agentId/agentDescription are appended to the SSE base, reusing
// "&" when the base already carries a query.
func (s *Settings) CoralURL() (string, error) {
	if s.Coral.ConnectionURL != "" {
		return s.Coral.ConnectionURL, nil
	}
	if s.Coral.SSEBase == "" {
		return "", fmt.Errorf("set CORAL_CONNECTION_URL or CORAL_SSE_URL for the Coral Server connection")
	}

	params := url.Values{}
	params.Set("agentId", s.Coral.AgentID)
	params.Set("agentDescription", s.Coral.AgentDescription)

	sep := "?"
	if u, err := url.Parse(s.Coral.SSEBase); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	return s.Coral.SSEBase + sep + params.Encode(), nil
}

func envStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envMillis(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = time.Duration(f * float64(time.Millisecond))
		}
	}
}

func envSeconds(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = time.Duration(f * float64(time.Second))
		}
	}
}

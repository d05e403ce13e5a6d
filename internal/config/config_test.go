package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault_Baseline(t *testing.T) {
	s := Default()
	if s.TenWeb.BaseURL != "https://api.10web.io" {
		t.Errorf("tenweb base url = %q", s.TenWeb.BaseURL)
	}
	if s.TenWeb.MaxPollAttempts != 60 {
		t.Errorf("poll cap = %d, want 60", s.TenWeb.MaxPollAttempts)
	}
	if s.ElevenLabs.VoiceID != "21m00Tcm4TlvDq8ikWAM" {
		t.Errorf("voice = %q", s.ElevenLabs.VoiceID)
	}
	if s.Coral.WaitTimeoutMs != 30000 {
		t.Errorf("wait timeout = %d", s.Coral.WaitTimeoutMs)
	}
	if s.Storage.Backend != "fal" {
		t.Errorf("storage backend = %q", s.Storage.Backend)
	}
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if s == nil {
		t.Fatal("expected defaults")
	}
}

func TestLoad_MalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("coral: ["), 0o600)
	if _, err := Load(path); err == nil {
		t.Fatal("malformed yaml must error")
	}
}

func TestLoad_FileThenEnvOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte(strings.TrimSpace(`
coral:
  sseUrl: https://coral.example/sse
  agentId: file-agent
tenweb:
  maxPollAttempts: 10
`)), 0o600)

	t.Setenv("CORAL_AGENT_ID", "env-agent")
	t.Setenv("TENWEB_MAX_POLL_ATTEMPTS", "5")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Coral.SSEBase != "https://coral.example/sse" {
		t.Errorf("file value lost: %q", s.Coral.SSEBase)
	}
	if s.Coral.AgentID != "env-agent" {
		t.Errorf("env should override file, got %q", s.Coral.AgentID)
	}
	if s.TenWeb.MaxPollAttempts != 5 {
		t.Errorf("env poll cap not applied: %d", s.TenWeb.MaxPollAttempts)
	}
}

func TestFromEnv_TimeoutMillis(t *testing.T) {
	t.Setenv("TIMEOUT_MS", "1500")
	s := FromEnv()
	if s.Coral.Timeout != 1500*time.Millisecond {
		t.Errorf("timeout = %v", s.Coral.Timeout)
	}
}

func TestCoralURL_ConnectionURLWins(t *testing.T) {
	s := Default()
	s.Coral.ConnectionURL = "https://coral.example/sse?agentId=explicit"
	s.Coral.SSEBase = "https://ignored.example"

	url, err := s.CoralURL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://coral.example/sse?agentId=explicit" {
		t.Errorf("url = %q", url)
	}
}

func TestCoralURL_BuildsQuery(t *testing.T) {
	s := Default()
	s.Coral.SSEBase = "https://coral.example/sse"
	s.Coral.AgentID = "video-agent"
	s.Coral.AgentDescription = "renders videos"

	url, err := s.CoralURL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(url, "agentId=video-agent") {
		t.Errorf("agentId missing: %q", url)
	}
	if !strings.Contains(url, "agentDescription=renders+videos") {
		t.Errorf("description missing: %q", url)
	}
	if !strings.Contains(url, "?") {
		t.Errorf("query separator missing: %q", url)
	}
}

func TestCoralURL_AppendsToExistingQuery(t *testing.T) {
	s := Default()
	s.Coral.SSEBase = "https://coral.example/sse?session=abc"
	s.Coral.AgentID = "a"

	url, err := s.CoralURL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(url, "session=abc&") {
		t.Errorf("existing query must be preserved with & separator: %q", url)
	}
}

func TestCoralURL_Unconfigured(t *testing.T) {
	s := Default()
	if _, err := s.CoralURL(); err == nil {
		t.Fatal("expected error when no broker URL configured")
	}
}

func TestApplyEnv_ExtraArgsJSON(t *testing.T) {
	t.Setenv("PRODUCT_HOLDING_EXTRA_ARGS", `{"prompt":"x"}`)
	s := FromEnv()
	if s.FAL.ProductHoldingExtraArgs["prompt"] != "x" {
		t.Errorf("extra args = %v", s.FAL.ProductHoldingExtraArgs)
	}

	t.Setenv("PRODUCT_HOLDING_EXTRA_ARGS", `not json`)
	s = FromEnv()
	if s.FAL.ProductHoldingExtraArgs != nil {
		t.Errorf("malformed extra args must be ignored, got %v", s.FAL.ProductHoldingExtraArgs)
	}
}

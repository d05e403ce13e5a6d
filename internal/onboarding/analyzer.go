package onboarding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nextlevelbuilder/coralcrew/internal/providers"
)

const analysisSystemPrompt = `You are a marketing analyst. Analyze the product data and provide:

1. IDEAL CUSTOMER PROFILES (2-3 segments): Demographics, psychographics, pain points
2. MARKETING ANGLES: Value props, emotional triggers, messaging for each ICP
3. KNOWLEDGE BASE: Key benefits, differentiators, use cases, pricing position

Be concise and actionable. Focus on practical marketing insights.`

const structureSystemPrompt = `Convert the marketing analysis to JSON format:
{
  "product_info": {"name": "", "category": "", "price": "", "description": ""},
  "ideal_customer_profiles": [{"profile_name": "", "demographics": {}, "psychographics": {}, "behavioral_patterns": {}}],
  "marketing_angles": {"profile_name": {"value_propositions": [], "emotional_triggers": [], "messaging_angles": []}},
  "knowledge_base": {"key_benefits": [], "competitive_differentiators": [], "use_cases": [], "pricing_positioning": {}}
}
Return only valid JSON.`

// Analyzer performs the two-stage product analysis: a free-form marketing
// analysis first, then a second call that structures it as JSON.
type Analyzer struct {
	provider  providers.Provider
	maxTokens int
}

// NewAnalyzer creates an Analyzer backed by the given chat provider.
func NewAnalyzer(provider providers.Provider, maxTokens int) *Analyzer {
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	return &Analyzer{provider: provider, maxTokens: maxTokens}
}

// Analyze runs both stages and returns the structured JSON text.
func (a *Analyzer) Analyze(ctx context.Context, product ProductProfile) (string, error) {
	slog.Info("starting product analysis", "product", product.Name)
	analysis, err := a.chat(ctx, analysisSystemPrompt, product.PromptText())
	if err != nil {
		return "", fmt.Errorf("analysis stage: %w", err)
	}

	slog.Info("converting analysis to JSON")
	structured, err := a.chat(ctx, structureSystemPrompt,
		"Convert this analysis into the specified JSON structure:\n\n"+analysis)
	if err != nil {
		return "", fmt.Errorf("structuring stage: %w", err)
	}

	structured = stripCodeFence(structured)
	if !json.Valid([]byte(structured)) {
		return "", fmt.Errorf("structuring stage returned invalid JSON")
	}
	slog.Info("product analysis completed")
	return structured, nil
}

func (a *Analyzer) chat(ctx context.Context, system, user string) (string, error) {
	resp, err := a.provider.Chat(ctx, providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if resp.Content == "" {
		return "", fmt.Errorf("model returned empty content")
	}
	return resp.Content, nil
}

// stripCodeFence removes a surrounding markdown code fence, which models
// sometimes add despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

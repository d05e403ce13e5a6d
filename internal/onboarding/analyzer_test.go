package onboarding

import (
	"context"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/coralcrew/internal/providers"
)

// seqProvider replies with canned contents in order.
type seqProvider struct {
	replies  []string
	requests []providers.ChatRequest
}

func (p *seqProvider) Name() string { return "seq" }

func (p *seqProvider) Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	p.requests = append(p.requests, req)
	if len(p.replies) == 0 {
		return &providers.ChatResponse{}, nil
	}
	reply := p.replies[0]
	p.replies = p.replies[1:]
	return &providers.ChatResponse{Content: reply}, nil
}

func TestAnalyze_TwoStages(t *testing.T) {
	provider := &seqProvider{replies: []string{
		"Prose analysis of EcoClean Pro",
		`{"product_info":{"name":"EcoClean Pro"}}`,
	}}
	analyzer := NewAnalyzer(provider, 0)

	out, err := analyzer.Analyze(context.Background(), DefaultProduct())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "EcoClean Pro") {
		t.Errorf("structured output = %q", out)
	}

	if len(provider.requests) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(provider.requests))
	}

	// First call carries the product data; second carries the analysis.
	first := provider.requests[0].Messages
	if !strings.Contains(first[1].Content, "Product: EcoClean Pro") {
		t.Errorf("analysis prompt missing product data:\n%s", first[1].Content)
	}
	second := provider.requests[1].Messages
	if !strings.Contains(second[1].Content, "Prose analysis of EcoClean Pro") {
		t.Errorf("structuring prompt missing stage-one output:\n%s", second[1].Content)
	}
	if !strings.Contains(second[0].Content, "Return only valid JSON") {
		t.Errorf("structuring system prompt wrong:\n%s", second[0].Content)
	}
}

func TestAnalyze_StripsCodeFence(t *testing.T) {
	provider := &seqProvider{replies: []string{
		"analysis",
		"```json\n{\"knowledge_base\":{}}\n```",
	}}
	analyzer := NewAnalyzer(provider, 100)

	out, err := analyzer.Analyze(context.Background(), DefaultProduct())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "```") {
		t.Errorf("code fence not stripped: %q", out)
	}
}

func TestAnalyze_InvalidJSONFails(t *testing.T) {
	provider := &seqProvider{replies: []string{"analysis", "this is not JSON"}}
	analyzer := NewAnalyzer(provider, 100)

	if _, err := analyzer.Analyze(context.Background(), DefaultProduct()); err == nil {
		t.Fatal("expected error for invalid structured output")
	}
}

func TestAnalyze_EmptyStageFails(t *testing.T) {
	provider := &seqProvider{replies: []string{""}}
	analyzer := NewAnalyzer(provider, 100)

	_, err := analyzer.Analyze(context.Background(), DefaultProduct())
	if err == nil {
		t.Fatal("expected error for empty analysis stage")
	}
	if !strings.Contains(err.Error(), "analysis stage") {
		t.Errorf("error should name the failing stage: %v", err)
	}
}

func TestDefaultProduct_PromptText(t *testing.T) {
	text := DefaultProduct().PromptText()
	for _, want := range []string{
		"Product: EcoClean Pro",
		"Category: Smart Home Cleaning Robot",
		"Price: $899",
		"- LIDAR mapping technology",
		"- Pet owners",
		"- 50% longer battery life than competitors",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAnalyzeTool_ErrorBecomesResult(t *testing.T) {
	provider := &seqProvider{replies: []string{"analysis", "not json"}}
	tool := NewAnalyzeTool(NewAnalyzer(provider, 100), DefaultProduct())

	result := tool.Execute(context.Background(), nil)
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(result.ForLLM, "Error during product analysis") {
		t.Errorf("unexpected message: %q", result.ForLLM)
	}
}

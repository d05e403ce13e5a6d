package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/coralcrew/internal/coral"
	"github.com/nextlevelbuilder/coralcrew/internal/providers"
	"github.com/nextlevelbuilder/coralcrew/internal/tools"
)

// scriptedProvider returns canned responses in order and records requests.
type scriptedProvider struct {
	responses []*providers.ChatResponse
	requests  []providers.ChatRequest
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	p.requests = append(p.requests, req)
	if len(p.responses) == 0 {
		return &providers.ChatResponse{Content: "out of script"}, nil
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

type staticTool struct {
	name  string
	reply string
}

func (s *staticTool) Name() string        { return s.name }
func (s *staticTool) Description() string { return "static tool" }
func (s *staticTool) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
}
func (s *staticTool) Execute(ctx context.Context, args map[string]interface{}) *tools.Result {
	return tools.NewResult(s.reply)
}

func TestRunner_DirectAnswer(t *testing.T) {
	provider := &scriptedProvider{responses: []*providers.ChatResponse{
		{Content: "the answer"},
	}}
	runner := NewRunner(provider, tools.NewRegistry(), RunnerConfig{Persona: "You are a test agent."})

	reply, err := runner.Handle(context.Background(), coral.Mention{ThreadID: "t1", SenderID: "s", Content: "question"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "the answer" {
		t.Errorf("expected direct answer, got %q", reply)
	}
}

func TestRunner_ToolCallRound(t *testing.T) {
	provider := &scriptedProvider{responses: []*providers.ChatResponse{
		{ToolCalls: []providers.ToolCall{{ID: "c1", Name: "lookup", Arguments: `{}`}}},
		{Content: "used the tool"},
	}}
	reg := tools.NewRegistry()
	reg.Register(&staticTool{name: "lookup", reply: "tool output"})
	runner := NewRunner(provider, reg, RunnerConfig{})

	reply, err := runner.Handle(context.Background(), coral.Mention{ThreadID: "t1", Content: "go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "used the tool" {
		t.Errorf("expected final answer after tool round, got %q", reply)
	}

	// Second request must carry the tool result back to the model.
	if len(provider.requests) != 2 {
		t.Fatalf("expected 2 chat rounds, got %d", len(provider.requests))
	}
	last := provider.requests[1].Messages
	found := false
	for _, m := range last {
		if m.Role == "tool" && m.Content == "tool output" && m.ToolCallID == "c1" {
			found = true
		}
	}
	if !found {
		t.Error("tool result message missing from followup request")
	}
}

func TestRunner_LifecycleToolsHiddenFromModel(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(&staticTool{name: "wait_for_mentions"})
	reg.Register(&staticTool{name: "send_message"})
	reg.Register(&staticTool{name: "close_thread"})
	reg.Register(&staticTool{name: "create_ai_website"})

	provider := &scriptedProvider{responses: []*providers.ChatResponse{{Content: "ok"}}}
	runner := NewRunner(provider, reg, RunnerConfig{})

	if _, err := runner.Handle(context.Background(), coral.Mention{ThreadID: "t", Content: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defs := provider.requests[0].Tools
	if len(defs) != 1 {
		t.Fatalf("expected only domain tools offered, got %d", len(defs))
	}
	if defs[0].Function.Name != "create_ai_website" {
		t.Errorf("unexpected tool offered: %s", defs[0].Function.Name)
	}
}

func TestRunner_LifecycleToolCallRejected(t *testing.T) {
	provider := &scriptedProvider{responses: []*providers.ChatResponse{
		{ToolCalls: []providers.ToolCall{{ID: "c1", Name: "send_message", Arguments: `{}`}}},
		{Content: "done"},
	}}
	reg := tools.NewRegistry()
	reg.Register(&staticTool{name: "send_message", reply: "should never run"})
	runner := NewRunner(provider, reg, RunnerConfig{})

	if _, err := runner.Handle(context.Background(), coral.Mention{ThreadID: "t", Content: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := provider.requests[1].Messages
	var toolMsg string
	for _, m := range last {
		if m.Role == "tool" {
			toolMsg = m.Content
		}
	}
	if !strings.Contains(toolMsg, "managed by the agent lifecycle") {
		t.Errorf("lifecycle tool call should be rejected, got %q", toolMsg)
	}
}

func TestRunner_RoundLimit(t *testing.T) {
	// Provider that always asks for another tool call.
	loopCall := &providers.ChatResponse{
		ToolCalls: []providers.ToolCall{{ID: "c", Name: "lookup", Arguments: `{}`}},
	}
	provider := &scriptedProvider{responses: []*providers.ChatResponse{
		loopCall, loopCall, loopCall, loopCall,
	}}
	reg := tools.NewRegistry()
	reg.Register(&staticTool{name: "lookup", reply: "more"})
	runner := NewRunner(provider, reg, RunnerConfig{MaxRounds: 3})

	reply, err := runner.Handle(context.Background(), coral.Mention{ThreadID: "t", Content: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply, "too many steps") {
		t.Errorf("expected round-limit reply, got %q", reply)
	}
	if len(provider.requests) != 3 {
		t.Errorf("expected exactly 3 rounds, got %d", len(provider.requests))
	}
}

func TestRunner_EmptyAnswerFallback(t *testing.T) {
	provider := &scriptedProvider{responses: []*providers.ChatResponse{{Content: ""}}}
	runner := NewRunner(provider, tools.NewRegistry(), RunnerConfig{})

	reply, err := runner.Handle(context.Background(), coral.Mention{ThreadID: "t", Content: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply == "" {
		t.Error("empty model answer must still produce reply text")
	}
}

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nextlevelbuilder/coralcrew/internal/coral"
	"github.com/nextlevelbuilder/coralcrew/internal/providers"
	"github.com/nextlevelbuilder/coralcrew/internal/tools"
)

// Lifecycle tools are owned by the loop, never offered to the model. The
// loop itself waits for mentions and sends the single reply, which is what
// keeps the one-reply-per-mention invariant out of the model's hands.
var loopOwnedTools = map[string]bool{
	"wait_for_mentions": true,
	"send_message":      true,
	"close_thread":      true,
}

// Runner executes one bounded reasoning step per mention: the model picks
// tool calls, the registry runs them, and the final text becomes the reply.
type Runner struct {
	provider    providers.Provider
	registry    *tools.Registry
	persona     string // agent-specific instruction block
	temperature float64
	maxTokens   int
	maxRounds   int
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	Persona     string
	Temperature float64
	MaxTokens   int
	MaxRounds   int
}

// NewRunner creates a reasoning runner.
func NewRunner(provider providers.Provider, registry *tools.Registry, cfg RunnerConfig) *Runner {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 8
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8000
	}
	return &Runner{
		provider:    provider,
		registry:    registry,
		persona:     cfg.Persona,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		maxRounds:   cfg.MaxRounds,
	}
}

// Handle runs the reasoning step for one mention and returns the reply text.
// Tool failures come back as tool results, not errors; only transport-level
// model failures return an error.
func (r *Runner) Handle(ctx context.Context, m coral.Mention) (string, error) {
	defs := r.toolDefs()

	messages := []providers.Message{
		{Role: "system", Content: r.systemPrompt(defs)},
		{Role: "user", Content: fmt.Sprintf("Mention from %s on thread %s:\n%s", m.SenderID, m.ThreadID, m.Content)},
	}

	temp := r.temperature
	for round := 0; round < r.maxRounds; round++ {
		resp, err := r.provider.Chat(ctx, providers.ChatRequest{
			Messages:    messages,
			Tools:       defs,
			Temperature: &temp,
			MaxTokens:   r.maxTokens,
		})
		if err != nil {
			return "", fmt.Errorf("reasoning step: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			if resp.Content == "" {
				return "Done, but no answer was produced.", nil
			}
			return resp.Content, nil
		}

		messages = append(messages, providers.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			result := r.executeToolCall(ctx, tc)
			messages = append(messages, providers.Message{
				Role:       "tool",
				Content:    result.ForLLM,
				ToolCallID: tc.ID,
			})
		}
	}

	slog.Warn("reasoning step hit round limit", "max_rounds", r.maxRounds)
	return "The task took too many steps to complete; partial progress may have been made.", nil
}

func (r *Runner) executeToolCall(ctx context.Context, tc providers.ToolCall) *tools.Result {
	if loopOwnedTools[tc.Name] {
		return tools.ErrorResult(fmt.Sprintf("tool %s is managed by the agent lifecycle and cannot be called directly", tc.Name))
	}

	var args map[string]interface{}
	if tc.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
			return tools.ErrorResult(fmt.Sprintf("invalid arguments for %s: %v", tc.Name, err))
		}
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	return r.registry.Execute(ctx, tc.Name, args)
}

// toolDefs returns the registry's tools minus the loop-owned lifecycle ones.
func (r *Runner) toolDefs() []providers.ToolDefinition {
	all := r.registry.ProviderDefs()
	defs := all[:0:0]
	for _, d := range all {
		if loopOwnedTools[d.Function.Name] {
			continue
		}
		defs = append(defs, d)
	}
	return defs
}

func (r *Runner) systemPrompt(defs []providers.ToolDefinition) string {
	var sb strings.Builder
	sb.WriteString(r.persona)
	sb.WriteString("\n\nUse EXACT tool names from the list below. ")
	sb.WriteString("Perform the instruction in the mention, then respond with your final answer as plain text. ")
	sb.WriteString("If something fails, respond with a brief error summary including any available details.\n\n")
	sb.WriteString("Your tools:\n")
	for _, d := range defs {
		schema, err := json.Marshal(d.Function.Parameters)
		if err != nil {
			schema = []byte("{}")
		}
		fmt.Fprintf(&sb, "Tool: %s, Schema: %s\n", d.Function.Name, schema)
	}
	return sb.String()
}

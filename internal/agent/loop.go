// Package agent implements the mention-driven lifecycle loop.
//
// Each agent process runs one Loop: wait for a mention, run one bounded
// reasoning step, send exactly one reply to the originating thread, sleep,
// repeat. Unhandled failures are logged and followed by a longer backoff;
// the loop only stops when its context is cancelled.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/nextlevelbuilder/coralcrew/internal/coral"
)

// Broker is the subset of the coral client the loop needs.
type Broker interface {
	WaitForMentions(ctx context.Context, timeoutMs int) ([]coral.Mention, error)
	SendMessage(ctx context.Context, threadID string, mentions []string, content string) error
	CloseThread(ctx context.Context, threadID string) error
}

// Handler produces the reply text for one mention.
type Handler interface {
	Handle(ctx context.Context, m coral.Mention) (string, error)
}

// LoopConfig holds loop timing and behavior knobs.
type LoopConfig struct {
	AgentID       string
	WaitTimeoutMs int           // timeoutMs passed to wait_for_mentions
	ReplyDelay    time.Duration // pause between iterations
	ErrorBackoff  time.Duration // pause after an unhandled error
	CloseThreads  bool          // close the thread after replying
}

// Loop is the non-terminating mention loop.
type Loop struct {
	broker  Broker
	handler Handler
	cfg     LoopConfig
}

// NewLoop creates a mention loop.
func NewLoop(broker Broker, handler Handler, cfg LoopConfig) *Loop {
	if cfg.WaitTimeoutMs <= 0 {
		cfg.WaitTimeoutMs = 30000
	}
	if cfg.ReplyDelay <= 0 {
		cfg.ReplyDelay = 2 * time.Second
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = 5 * time.Second
	}
	return &Loop{broker: broker, handler: handler, cfg: cfg}
}

// Run drives the loop until ctx is cancelled. Every received mention gets
// exactly one reply, either a success summary or an error summary, before the next
// wait call begins.
func (l *Loop) Run(ctx context.Context) error {
	slog.Info("mention loop started", "agent", l.cfg.AgentID, "wait_timeout_ms", l.cfg.WaitTimeoutMs)

	for {
		if err := ctx.Err(); err != nil {
			slog.Info("mention loop stopped", "agent", l.cfg.AgentID)
			return err
		}

		if err := l.iterate(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			slog.Error("mention loop iteration failed", "agent", l.cfg.AgentID, "error", err)
			sleepCtx(ctx, l.cfg.ErrorBackoff)
			continue
		}

		sleepCtx(ctx, l.cfg.ReplyDelay)
	}
}

// iterate performs one WAITING → DISPATCHING → REPLYING pass.
func (l *Loop) iterate(ctx context.Context) error {
	mentions, err := l.broker.WaitForMentions(ctx, l.cfg.WaitTimeoutMs)
	if err != nil {
		return fmt.Errorf("wait for mentions: %w", err)
	}
	if len(mentions) == 0 {
		return nil
	}

	for _, m := range mentions {
		l.handleMention(ctx, m)
	}
	return nil
}

func (l *Loop) handleMention(ctx context.Context, m coral.Mention) {
	runID := uuid.NewString()
	tracer := otel.Tracer("coralcrew/agent")
	ctx, span := tracer.Start(ctx, "mention")
	span.SetAttributes(
		attribute.String("agent.id", l.cfg.AgentID),
		attribute.String("run.id", runID),
		attribute.String("thread.id", m.ThreadID),
		attribute.String("sender.id", m.SenderID),
	)
	defer span.End()

	if m.ThreadID == "" {
		slog.Warn("mention has no thread, cannot reply", "agent", l.cfg.AgentID, "run", runID, "content", m.Content)
		span.SetStatus(codes.Error, "mention without thread")
		return
	}

	slog.Info("mention received", "agent", l.cfg.AgentID, "run", runID, "thread", m.ThreadID, "sender", m.SenderID)

	reply, err := l.handler.Handle(ctx, m)
	if err != nil {
		slog.Error("mention handling failed", "agent", l.cfg.AgentID, "run", runID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler failed")
		reply = fmt.Sprintf("Error while handling your request: %v", err)
	}

	if sendErr := l.broker.SendMessage(ctx, m.ThreadID, []string{m.SenderID}, reply); sendErr != nil {
		slog.Error("reply send failed", "agent", l.cfg.AgentID, "run", runID, "thread", m.ThreadID, "error", sendErr)
		span.RecordError(sendErr)
		return
	}
	slog.Info("reply sent", "agent", l.cfg.AgentID, "run", runID, "thread", m.ThreadID)

	if l.cfg.CloseThreads {
		if err := l.broker.CloseThread(ctx, m.ThreadID); err != nil {
			slog.Warn("close thread failed", "agent", l.cfg.AgentID, "run", runID, "thread", m.ThreadID, "error", err)
		}
	}
}

// sleepCtx sleeps for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

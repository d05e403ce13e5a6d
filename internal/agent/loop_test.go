package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nextlevelbuilder/coralcrew/internal/coral"
)

// fakeBroker feeds scripted mention batches and records replies.
type fakeBroker struct {
	mu       sync.Mutex
	batches  [][]coral.Mention
	waitErr  error
	sent     []sentMessage
	closed   []string
	waitDone chan struct{} // closed once all batches are consumed
	once     sync.Once
}

type sentMessage struct {
	ThreadID string
	Mentions []string
	Content  string
}

func newFakeBroker(batches ...[]coral.Mention) *fakeBroker {
	return &fakeBroker{batches: batches, waitDone: make(chan struct{})}
}

func (b *fakeBroker) WaitForMentions(ctx context.Context, timeoutMs int) ([]coral.Mention, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.waitErr != nil {
		err := b.waitErr
		b.waitErr = nil
		return nil, err
	}
	if len(b.batches) == 0 {
		b.once.Do(func() { close(b.waitDone) })
		return nil, nil
	}
	batch := b.batches[0]
	b.batches = b.batches[1:]
	if len(b.batches) == 0 {
		b.once.Do(func() { close(b.waitDone) })
	}
	return batch, nil
}

func (b *fakeBroker) SendMessage(ctx context.Context, threadID string, mentions []string, content string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, sentMessage{ThreadID: threadID, Mentions: mentions, Content: content})
	return nil
}

func (b *fakeBroker) CloseThread(ctx context.Context, threadID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = append(b.closed, threadID)
	return nil
}

func (b *fakeBroker) sentMessages() []sentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]sentMessage, len(b.sent))
	copy(out, b.sent)
	return out
}

func (b *fakeBroker) closedThreads() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.closed))
	copy(out, b.closed)
	return out
}

type fakeHandler struct {
	reply string
	err   error
}

func (h *fakeHandler) Handle(ctx context.Context, m coral.Mention) (string, error) {
	return h.reply, h.err
}

func runLoopUntilDrained(t *testing.T, broker *fakeBroker, handler Handler, cfg LoopConfig) {
	t.Helper()
	cfg.ReplyDelay = time.Millisecond
	cfg.ErrorBackoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop(broker, handler, cfg)
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	select {
	case <-broker.waitDone:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not drain mention batches in time")
	}
	// Give in-flight replies a moment to land before cancelling.
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done
}

func TestLoop_OneReplyPerMention(t *testing.T) {
	broker := newFakeBroker(
		[]coral.Mention{
			{ThreadID: "t1", SenderID: "a", Content: "first"},
			{ThreadID: "t2", SenderID: "b", Content: "second"},
		},
	)
	runLoopUntilDrained(t, broker, &fakeHandler{reply: "done"}, LoopConfig{AgentID: "test"})

	sent := broker.sentMessages()
	if len(sent) != 2 {
		t.Fatalf("expected exactly 2 replies, got %d", len(sent))
	}
	if sent[0].ThreadID != "t1" || sent[1].ThreadID != "t2" {
		t.Errorf("replies routed to wrong threads: %+v", sent)
	}
	if sent[0].Mentions[0] != "a" {
		t.Errorf("reply should mention the sender, got %v", sent[0].Mentions)
	}
}

func TestLoop_HandlerErrorStillReplies(t *testing.T) {
	broker := newFakeBroker(
		[]coral.Mention{{ThreadID: "t1", SenderID: "a", Content: "do something"}},
	)
	handler := &fakeHandler{err: errors.New("adapter exploded")}
	runLoopUntilDrained(t, broker, handler, LoopConfig{AgentID: "test"})

	sent := broker.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("expected 1 error reply, got %d", len(sent))
	}
	if !strings.Contains(sent[0].Content, "adapter exploded") {
		t.Errorf("error reply should carry the failure: %q", sent[0].Content)
	}
}

func TestLoop_NoThreadNoReply(t *testing.T) {
	broker := newFakeBroker(
		[]coral.Mention{{ThreadID: "", SenderID: "a", Content: "orphan"}},
	)
	runLoopUntilDrained(t, broker, &fakeHandler{reply: "done"}, LoopConfig{AgentID: "test"})

	if sent := broker.sentMessages(); len(sent) != 0 {
		t.Errorf("mention without thread must not be replied to, got %d replies", len(sent))
	}
}

func TestLoop_CloseThreads(t *testing.T) {
	broker := newFakeBroker(
		[]coral.Mention{{ThreadID: "t1", SenderID: "a", Content: "analyze"}},
	)
	runLoopUntilDrained(t, broker, &fakeHandler{reply: "analysis"}, LoopConfig{
		AgentID:      "test",
		CloseThreads: true,
	})

	closed := broker.closedThreads()
	if len(closed) != 1 || closed[0] != "t1" {
		t.Errorf("expected thread t1 closed, got %v", closed)
	}
}

func TestLoop_WaitErrorBacksOffAndContinues(t *testing.T) {
	broker := newFakeBroker(
		[]coral.Mention{{ThreadID: "t1", SenderID: "a", Content: "after error"}},
	)
	broker.waitErr = errors.New("sse connection reset")
	runLoopUntilDrained(t, broker, &fakeHandler{reply: "recovered"}, LoopConfig{AgentID: "test"})

	sent := broker.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("loop should recover after a wait error, got %d replies", len(sent))
	}
	if sent[0].Content != "recovered" {
		t.Errorf("unexpected reply: %q", sent[0].Content)
	}
}

func TestLoop_StopsOnCancel(t *testing.T) {
	broker := newFakeBroker()
	loop := NewLoop(broker, &fakeHandler{reply: "x"}, LoopConfig{
		AgentID:    "test",
		ReplyDelay: time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop on cancel")
	}
}

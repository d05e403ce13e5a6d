package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/coralcrew/internal/agent"
	"github.com/nextlevelbuilder/coralcrew/internal/config"
	"github.com/nextlevelbuilder/coralcrew/internal/coral"
	"github.com/nextlevelbuilder/coralcrew/internal/fal"
	"github.com/nextlevelbuilder/coralcrew/internal/providers"
	"github.com/nextlevelbuilder/coralcrew/internal/tools"
	"github.com/nextlevelbuilder/coralcrew/internal/tracing"
)

// agentSpec describes one runnable agent: its default broker identity and a
// hook that registers its domain tools on the shared registry.
type agentSpec struct {
	DefaultID    string
	Description  string
	CloseThreads bool
	Persona      string
	RegisterFn   func(ctx context.Context, cfg *config.Settings, reg *tools.Registry, provider providers.Provider) error
}

func loadSettings() (*config.Settings, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func buildProvider(cfg *config.Settings) providers.Provider {
	return providers.NewOpenAIProvider(
		cfg.Model.Provider,
		cfg.Model.APIKey,
		cfg.Model.BaseURL,
		cfg.Model.Name,
	)
}

// buildStorage selects the asset storage backend for the FAL pipeline.
func buildStorage(ctx context.Context, cfg *config.Settings, falClient *fal.Client) (fal.Storage, error) {
	if cfg.Storage.Backend == "s3" {
		return fal.NewS3Storage(ctx, fal.S3Config{
			Bucket: cfg.Storage.S3Bucket,
			Region: cfg.Storage.S3Region,
			Prefix: cfg.Storage.S3Prefix,
		})
	}
	return fal.NewFALStorage(falClient), nil
}

// runAgent wires one agent end to end and drives its loop until the context
// is cancelled.
func runAgent(ctx context.Context, cfg *config.Settings, spec agentSpec, watcher *config.Watcher) error {
	if cfg.Coral.AgentID == "" {
		cfg.Coral.AgentID = spec.DefaultID
	}
	if cfg.Coral.AgentDescription == "" {
		cfg.Coral.AgentDescription = spec.Description
	}
	return runAgentAs(ctx, cfg, spec, cfg.Coral.AgentID, cfg.Coral.AgentDescription, watcher)
}

// runAgentAs is runAgent with an explicit broker identity, used by the crew
// runner where one config backs several agents.
func runAgentAs(ctx context.Context, cfg *config.Settings, spec agentSpec, agentID, description string, watcher *config.Watcher) error {
	connCfg := *cfg
	connCfg.Coral.AgentID = agentID
	connCfg.Coral.AgentDescription = description
	coralURL, err := connCfg.CoralURL()
	if err != nil {
		return err
	}

	client := coral.NewClient(coralURL, cfg.Coral.Timeout)
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect to coral server: %w", err)
	}
	defer client.Close()
	slog.Info("connected to coral server", "agent", agentID)

	reg := tools.NewRegistry()
	if cfg.RateLimit > 0 {
		reg.SetRateLimiter(tools.NewToolRateLimiter(cfg.RateLimit))
	}
	if watcher != nil {
		// Rate limit is the one knob that hot-applies; everything else
		// needs a restart.
		watcher.OnChange(func(s *config.Settings) {
			reg.SetRateLimiter(tools.NewToolRateLimiter(s.RateLimit))
			slog.Info("tool rate limit updated", "agent", agentID, "per_hour", s.RateLimit)
		})
	}

	bridged, err := client.BridgeTools(ctx, reg)
	if err != nil {
		return fmt.Errorf("bridge coral tools: %w", err)
	}
	slog.Info("coral tools bridged", "agent", agentID, "count", bridged)

	provider := buildProvider(cfg)
	if err := spec.RegisterFn(ctx, cfg, reg, provider); err != nil {
		return fmt.Errorf("register %s tools: %w", agentID, err)
	}
	slog.Info("tool registry ready", "agent", agentID, "tools", reg.Count())

	runner := agent.NewRunner(provider, reg, agent.RunnerConfig{
		Persona:     spec.Persona,
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
		MaxRounds:   cfg.Model.MaxRounds,
	})

	loop := agent.NewLoop(client, runner, agent.LoopConfig{
		AgentID:       agentID,
		WaitTimeoutMs: cfg.Coral.WaitTimeoutMs,
		ReplyDelay:    cfg.Coral.ReplyDelay,
		ErrorBackoff:  cfg.Coral.ErrorBackoff,
		CloseThreads:  spec.CloseThreads,
	})
	return loop.Run(ctx)
}

// runSingle is the entry point shared by the per-agent commands.
func runSingle(spec agentSpec) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	shutdown, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing setup: %w", err)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := shutdown(sctx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	watcher := startWatcher()
	if watcher != nil {
		defer watcher.Stop()
	}

	err = runAgent(ctx, cfg, spec, watcher)
	if err != nil && ctx.Err() != nil {
		return nil // clean shutdown
	}
	return err
}

// startWatcher begins watching the config file when one was given. Watch
// failures are logged, not fatal.
func startWatcher() *config.Watcher {
	if configPath == "" {
		return nil
	}
	watcher, err := config.NewWatcher(configPath)
	if err != nil {
		slog.Warn("config watcher unavailable", "error", err)
		return nil
	}
	if err := watcher.Start(); err != nil {
		slog.Warn("config watch failed", "path", configPath, "error", err)
		watcher.Stop()
		return nil
	}
	return watcher
}

// runCrew runs several agents concurrently against the same broker, each
// under its own identity.
func runCrew(specs []agentSpec) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	shutdown, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing setup: %w", err)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := shutdown(sctx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	watcher := startWatcher()
	if watcher != nil {
		defer watcher.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, spec := range specs {
		spec := spec
		g.Go(func() error {
			return runAgentAs(gctx, cfg, spec, spec.DefaultID, spec.Description, watcher)
		})
	}

	err = g.Wait()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

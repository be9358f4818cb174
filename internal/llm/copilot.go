package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	copilot "github.com/github/copilot-sdk/go"
)

// CopilotOptions configures NewCopilot.
type CopilotOptions struct {
	// Model can be blank, which lets the copilot CLI choose its own model.
	Model  string
	Logger *slog.Logger

	NewCopilotClient func(clientOptions *copilot.ClientOptions) clientAPI
}

// Copilot is a Completer backed by a GitHub Copilot CLI session. Sessions do
// not expose sampling controls, so Request.Sampling is ignored.
type Copilot struct {
	model  string
	logger *slog.Logger

	client clientAPI

	startMu sync.Mutex
	started bool
}

var _ Completer = (*Copilot)(nil)

func NewCopilot(opts CopilotOptions) *Copilot {
	copilotOptions := &copilot.ClientOptions{
		LogLevel:  "error",
		AutoStart: copilot.Bool(false),
	}

	var client clientAPI
	if opts.NewCopilotClient == nil {
		client = newSDKClient(copilotOptions)
	} else {
		client = opts.NewCopilotClient(copilotOptions)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Copilot{
		model:  opts.Model,
		logger: logger,
		client: client,
	}
}

// Complete implements [Completer]. Each call uses a fresh session.
func (c *Copilot) Complete(ctx context.Context, req Request) (string, error) {
	if err := c.start(ctx); err != nil {
		return "", fmt.Errorf("copilot failed to start: %w", err)
	}

	session, err := c.client.CreateSession(ctx, &copilot.SessionConfig{
		Model:               c.model,
		OnPermissionRequest: denyAllTools,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	unsubscribe := session.On(c.logEvent)
	defer unsubscribe()

	event, err := session.SendAndWait(ctx, copilot.MessageOptions{
		Prompt: req.Prompt,
	})
	if err != nil {
		return "", fmt.Errorf("copilot request failed: %w", err)
	}
	if event == nil || event.Data.Content == nil {
		return "", nil
	}
	return *event.Data.Content, nil
}

// start launches the CLI on first use. copilot's autostart misbehaves when
// triggered from several goroutines at once, so start explicitly under a
// lock. A failed start is attempted again by the next call.
func (c *Copilot) start(ctx context.Context) error {
	c.startMu.Lock()
	defer c.startMu.Unlock()
	if c.started {
		return nil
	}
	// The CLI outlives the call that happens to start it.
	if err := c.client.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	c.started = true
	return nil
}

// Close stops the copilot CLI process.
func (c *Copilot) Close() error {
	return c.client.Stop()
}

func (c *Copilot) logEvent(event copilot.SessionEvent) {
	if !c.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	attrs := []any{"type", event.Type}
	if event.Data.Content != nil {
		attrs = append(attrs, "content_len", len(*event.Data.Content))
	}
	if event.Data.ToolName != nil {
		attrs = append(attrs, "tool_name", *event.Data.ToolName)
	}
	c.logger.Debug("copilot event", attrs...)
}

// denyAllTools keeps note generation a pure text completion.
func denyAllTools(request copilot.PermissionRequest, invocation copilot.PermissionInvocation) (copilot.PermissionRequestResult, error) {
	return copilot.PermissionRequestResult{Kind: "denied-by-rules"}, nil
}

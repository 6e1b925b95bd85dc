// Package polarisagent is the message-processing workflow: it answers one
// pending assistant message by running the coding agent against the
// project's files.
package polarisagent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/elee1766/polaris/src/agent"
	"github.com/elee1766/polaris/src/aisdk"
	"github.com/elee1766/polaris/src/events"
	"github.com/elee1766/polaris/src/fetch"
	"github.com/elee1766/polaris/src/network"
	"github.com/elee1766/polaris/src/polarisagent/tools"
	"github.com/elee1766/polaris/src/polarisagent/toolsutil"
	"github.com/elee1766/polaris/src/storage"
	"github.com/elee1766/polaris/src/workflow"
)

const (
	FunctionName = "process-message"

	DefaultSyncDelay    = time.Second
	DefaultHistoryLimit = 10

	FailedContent    = "Failed to process your request."
	CancelledContent = "Request cancelled."
)

var ErrMissingInternalKey = errors.New("Missing POLARIS_INTERNAL_KEY configuration")

// MessageStore is the conversation storage a run reads and writes.
type MessageStore interface {
	GetConversation(ctx context.Context, conversationID string) (*storage.Conversation, error)
	GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]storage.Message, error)
	UpdateMessageContent(ctx context.Context, messageID, content string, status ...storage.MessageStatus) error
	UpdateConversationTitle(ctx context.Context, conversationID, title string) error
	ListPendingMessages(ctx context.Context, projectID string) ([]storage.Message, error)
	SetMessageStatus(ctx context.Context, messageID string, status storage.MessageStatus) error
}

var _ MessageStore = (*storage.Repository)(nil)

type Config struct {
	Store MessageStore
	Files *storage.FileStore

	// CodingModel drives the tool-calling agent, TitleModel the title
	// subtask. TitleModel defaults to CodingModel.
	CodingModel aisdk.ModelClient
	TitleModel  aisdk.ModelClient

	Fetcher           fetch.Fetcher
	ScrapeConcurrency int

	// InternalKey must be set for runs to proceed.
	InternalKey string

	// SyncDelay is the pause before the first read. Zero skips it.
	SyncDelay    time.Duration
	HistoryLimit int
	MaxIter      int

	// Events receives network progress. Optional.
	Events network.EventSink
	Logger *slog.Logger
}

// Processor implements the process-message workflow function.
type Processor struct {
	cfg    Config
	logger *slog.Logger
}

func NewProcessor(cfg Config) *Processor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TitleModel == nil {
		cfg.TitleModel = cfg.CodingModel
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = fetch.NewHTTPFetcher(fetch.DefaultTimeout, logger)
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = network.DefaultMaxIter
	}
	return &Processor{cfg: cfg, logger: logger.With("component", "process_message")}
}

// Function is the workflow registration, keyed by message id.
func (p *Processor) Function() workflow.Function {
	return workflow.Function{
		Name:      FunctionName,
		Handler:   p.handle,
		OnFailure: p.onFailure,
	}
}

func (p *Processor) handle(ctx context.Context, run *workflow.Run) error {
	var data events.MessageSentData
	if err := run.Bind(&data); err != nil {
		return err
	}
	if p.cfg.InternalKey == "" {
		return workflow.NonRetriable(ErrMissingInternalKey)
	}
	logger := p.logger.With("message_id", data.MessageID, "conversation_id", data.ConversationID, "attempt", run.Attempt())

	if err := run.Sleep("wait-for-db-sync", p.cfg.SyncDelay); err != nil {
		return err
	}

	conversation, err := workflow.Step(run, "get-conversation", func(ctx context.Context) (*storage.Conversation, error) {
		return p.cfg.Store.GetConversation(ctx, data.ConversationID)
	})
	if err != nil {
		return err
	}
	if conversation == nil {
		return workflow.NonRetriablef("Conversation with id %s not found", data.ConversationID)
	}

	recent, err := workflow.Step(run, "get-recent-messages", func(ctx context.Context) ([]storage.Message, error) {
		return p.cfg.Store.GetRecentMessages(ctx, data.ConversationID, p.cfg.HistoryLimit)
	})
	if err != nil {
		return err
	}
	systemPrompt := SystemPrompt(recent, data.MessageID)

	if conversation.Title == DefaultConversationTitle {
		if err := p.generateTitle(run, conversation.ID, data.Message, logger); err != nil {
			return err
		}
	}

	// the conversation row is authoritative for which project the tools may touch
	ts, err := tools.New(toolsutil.Workspace{ProjectID: conversation.ProjectID, Files: p.cfg.Files}, p.cfg.Fetcher, p.cfg.ScrapeConcurrency)
	if err != nil {
		return workflow.NonRetriable(fmt.Errorf("failed to build tools: %w", err))
	}

	net := &network.Network{
		Agent: &agent.Runner{
			Name:        "polaris",
			System:      systemPrompt,
			Model:       p.cfg.CodingModel,
			Tools:       ts.Definitions(),
			Temperature: aisdk.Float64(0.2),
			MaxTokens:   aisdk.Int(3000),
			Logger:      logger,
		},
		Tools:   network.ExecutorFunc(ts.Executor(agent.LoggingMiddleware(logger))),
		MaxIter: p.cfg.MaxIter,
		Steps:   durableSteps{run: run},
		Events:  p.cfg.Events,
		Logger:  logger,
	}
	result, err := net.Run(ctx, data.Message)
	if err != nil {
		return err
	}
	logger.Info("network finished", "iterations", result.Iterations, "cap_reached", result.CapReached)

	return run.Do("update-assistant-message", func(ctx context.Context) error {
		return p.cfg.Store.UpdateMessageContent(ctx, data.MessageID, result.Answer, storage.StatusCompleted)
	})
}

// generateTitle replaces the default title. Only cancellation is returned;
// every other failure leaves the default in place.
func (p *Processor) generateTitle(run *workflow.Run, conversationID, message string, logger *slog.Logger) error {
	titler := &agent.Runner{
		Name:        "title-generator",
		System:      TitleGeneratorSystemPrompt,
		Model:       p.cfg.TitleModel,
		Temperature: aisdk.Float64(0),
		MaxTokens:   aisdk.Int(50),
		Logger:      logger,
	}
	title, err := workflow.Step(run, "generate-title", func(ctx context.Context) (string, error) {
		return titler.Ask(ctx, message)
	})
	if errors.Is(err, workflow.ErrCancelled) {
		return err
	}
	if err != nil {
		logger.Warn("title generation failed", "error", err)
		return nil
	}
	if title == "" {
		return nil
	}

	err = run.Do("update-conversation-title", func(ctx context.Context) error {
		return p.cfg.Store.UpdateConversationTitle(ctx, conversationID, title)
	})
	if errors.Is(err, workflow.ErrCancelled) {
		return err
	}
	if err != nil {
		logger.Warn("failed to store generated title", "error", err)
	}
	return nil
}

func (p *Processor) onFailure(ctx context.Context, run *workflow.Run, failure workflow.Failure) error {
	var data events.MessageSentData
	if err := run.Bind(&data); err != nil {
		return err
	}
	content := FailedContent
	if failure.Cancelled {
		content = CancelledContent
	}
	p.logger.Warn("message processing ended without an answer", "message_id", data.MessageID, "cancelled", failure.Cancelled, "error", failure.Err)
	return run.Do("update-message-on-failure", func(ctx context.Context) error {
		return p.cfg.Store.UpdateMessageContent(ctx, data.MessageID, content, storage.StatusFailed)
	})
}

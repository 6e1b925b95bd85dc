package polarisagent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/elee1766/polaris/src/events"
	"github.com/elee1766/polaris/src/storage"
)

var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// Sent identifies the pending assistant message created for a user message.
type Sent struct {
	ProjectID      string `json:"projectId"`
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}

// Service is the request side: it records messages and emits the events
// that start and cancel runs.
type Service struct {
	repo   *storage.Repository
	bus    events.Publisher
	logger *slog.Logger
}

func NewService(repo *storage.Repository, bus events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, bus: bus, logger: logger.With("component", "message_service")}
}

// SendMessage supersedes any pending answer in the conversation's project,
// stores the user message with a pending assistant reply, and triggers a run.
// An unknown conversation returns storage.ErrConversationGone.
func (s *Service) SendMessage(ctx context.Context, conversationID, text string) (*Sent, error) {
	conversation, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, storage.ErrConversationGone
	}

	cancelled, err := s.CancelProject(ctx, conversation.ProjectID)
	if err != nil {
		return nil, err
	}
	if len(cancelled) > 0 {
		s.logger.Info("superseded pending messages", "conversation_id", conversationID, "message_ids", cancelled)
	}

	return s.submit(ctx, conversation, text)
}

func (s *Service) submit(ctx context.Context, conversation *storage.Conversation, text string) (*Sent, error) {
	user := &storage.Message{
		ConversationID: conversation.ID,
		ProjectID:      conversation.ProjectID,
		Role:           storage.RoleUser,
		Content:        text,
	}
	if err := s.repo.CreateMessage(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	pending := storage.StatusPending
	assistant := &storage.Message{
		ConversationID: conversation.ID,
		ProjectID:      conversation.ProjectID,
		Role:           storage.RoleAssistant,
		Status:         &pending,
	}
	if err := s.repo.CreateMessage(ctx, assistant); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}

	ev, err := events.NewMessageSent(events.MessageSentData{
		MessageID:      assistant.ID,
		ConversationID: conversation.ID,
		ProjectID:      conversation.ProjectID,
		Message:        text,
	})
	if err != nil {
		return nil, err
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		return nil, fmt.Errorf("failed to publish %s: %w", events.MessageSent, err)
	}

	s.logger.Info("message sent", "conversation_id", conversation.ID, "message_id", assistant.ID)
	return &Sent{ProjectID: conversation.ProjectID, ConversationID: conversation.ID, MessageID: assistant.ID}, nil
}

// CancelProject emits a cancel for every pending message of the project and
// marks each failed. It returns the ids it cancelled.
func (s *Service) CancelProject(ctx context.Context, projectID string) ([]string, error) {
	pending, err := s.repo.ListPendingMessages(ctx, projectID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(pending))
	for _, m := range pending {
		ev, err := events.NewMessageCancel(m.ID)
		if err != nil {
			return ids, err
		}
		if err := s.bus.Publish(ctx, ev); err != nil {
			return ids, fmt.Errorf("failed to publish %s for %s: %w", events.MessageCancel, m.ID, err)
		}
		if err := s.repo.SetMessageStatus(ctx, m.ID, storage.StatusFailed); err != nil {
			return ids, err
		}
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// CreateProjectWithPrompt creates a randomly named project with one
// conversation and sends prompt as its first message.
func (s *Service) CreateProjectWithPrompt(ctx context.Context, ownerID, prompt string) (*Sent, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	project := &storage.Project{Name: ProjectName(), OwnerID: ownerID}
	conversation, err := s.repo.CreateProjectWithConversation(ctx, project, DefaultConversationTitle)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	s.logger.Info("project created", "project_id", project.ID, "name", project.Name, "owner_id", ownerID)

	return s.submit(ctx, conversation, prompt)
}

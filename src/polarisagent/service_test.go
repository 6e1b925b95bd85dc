package polarisagent

import (
	"context"
	"strings"
	"testing"

	"github.com/elee1766/polaris/src/events"
	"github.com/elee1766/polaris/src/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceSendMessage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.service.CreateProjectWithPrompt(ctx, "owner-1", "build a landing page")
	require.NoError(t, err)

	project, err := h.repo.GetProject(ctx, first.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", project.OwnerID)
	assert.Len(t, strings.Split(project.Name, "-"), 3)

	published := h.bus.drain()
	require.Len(t, published, 1)
	assert.Equal(t, events.MessageSent, published[0].Name)
	assert.Equal(t, first.MessageID, published[0].Key)
	var data events.MessageSentData
	require.NoError(t, published[0].Decode(&data))
	assert.Equal(t, events.MessageSentData{
		MessageID:      first.MessageID,
		ConversationID: first.ConversationID,
		ProjectID:      first.ProjectID,
		Message:        "build a landing page",
	}, data)

	msgs, err := storage.GetMessagesByConversationID(ctx, h.repo.DB(), first.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, storage.RoleUser, msgs[0].Role)
	assert.Equal(t, "build a landing page", msgs[0].Content)
	assert.True(t, msgs[1].IsPending())

	second, err := h.service.SendMessage(ctx, first.ConversationID, "add a footer")
	require.NoError(t, err)
	published = h.bus.drain()
	require.Len(t, published, 2)
	assert.Equal(t, events.MessageCancel, published[0].Name)
	assert.Equal(t, first.MessageID, published[0].Key)
	assert.Equal(t, events.MessageSent, published[1].Name)
	assert.Equal(t, second.MessageID, published[1].Key)

	assert.Equal(t, storage.StatusFailed, *h.message(t, first.MessageID).Status)
	assert.True(t, h.message(t, second.MessageID).IsPending())
}

func TestServiceErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.service.SendMessage(ctx, "missing", "hi")
	assert.ErrorIs(t, err, storage.ErrConversationGone)

	_, err = h.service.CreateProjectWithPrompt(ctx, "owner-1", "  ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Empty(t, h.bus.drain())
}

func TestServiceCancelProject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ids, err := h.service.CancelProject(ctx, "no-such-project")
	require.NoError(t, err)
	assert.Empty(t, ids)

	sent, err := h.service.CreateProjectWithPrompt(ctx, "owner-1", "hello")
	require.NoError(t, err)
	h.bus.drain()

	ids, err = h.service.CancelProject(ctx, sent.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, []string{sent.MessageID}, ids)
	assert.Equal(t, storage.StatusFailed, *h.message(t, sent.MessageID).Status)

	published := h.bus.drain()
	require.Len(t, published, 1)
	assert.Equal(t, events.MessageCancel, published[0].Name)

	ids, err = h.service.CancelProject(ctx, sent.ProjectID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

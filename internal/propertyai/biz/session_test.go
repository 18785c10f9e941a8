package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/propertyai/internal/model"
	"github.com/kart-io/propertyai/pkg/id"
)

func TestSessionLifecycle(t *testing.T) {
	m := NewSessionManager()

	s := m.Create()
	require.True(t, id.IsValidUUID(s.ID))
	assert.False(t, s.FilesProcessed)
	assert.False(t, s.Processing)
	assert.Empty(t, s.ChatHistory)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	require.NoError(t, m.StartProcessing(s.ID))
	got, err = m.Get(s.ID)
	require.NoError(t, err)
	assert.True(t, got.Processing)

	// A second ingest on the same session is rejected while one runs.
	assert.ErrorIs(t, m.StartProcessing(s.ID), ErrIngestInProgress)

	require.NoError(t, m.MarkFilesProcessed(s.ID))
	got, err = m.Get(s.ID)
	require.NoError(t, err)
	assert.True(t, got.FilesProcessed)
	assert.False(t, got.Processing)

	m.Delete(s.ID)
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionChatHistory(t *testing.T) {
	m := NewSessionManager()
	s := m.Create()

	require.NoError(t, m.AppendMessage(s.ID, model.ChatRoleUser, "2bhk under 80 lakhs"))
	require.NoError(t, m.AppendMessage(s.ID, model.ChatRoleAssistant, "Here are two options."))

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	require.Len(t, got.ChatHistory, 2)
	assert.Equal(t, model.ChatRoleUser, got.ChatHistory[0].Role)
	assert.Equal(t, "2bhk under 80 lakhs", got.ChatHistory[0].Content)
	assert.Equal(t, model.ChatRoleAssistant, got.ChatHistory[1].Role)

	// Mutating the returned copy must not leak into the manager.
	got.ChatHistory[0].Content = "mutated"
	again, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "2bhk under 80 lakhs", again.ChatHistory[0].Content)
}

func TestSessionUnknownID(t *testing.T) {
	m := NewSessionManager()

	_, err := m.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.AppendMessage("missing", model.ChatRoleUser, "hi"), ErrSessionNotFound)
	assert.ErrorIs(t, m.StartProcessing("missing"), ErrSessionNotFound)
	assert.ErrorIs(t, m.StopProcessing("missing"), ErrSessionNotFound)
	assert.ErrorIs(t, m.MarkFilesProcessed("missing"), ErrSessionNotFound)

	// Delete is idempotent.
	m.Delete("missing")
	assert.Zero(t, m.Count())
}

func TestSessionIDsAreUnique(t *testing.T) {
	m := NewSessionManager()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s := m.Create()
		assert.False(t, seen[s.ID])
		seen[s.ID] = true
	}
	assert.Equal(t, 50, m.Count())
}

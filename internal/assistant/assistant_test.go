package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"maitred/internal/config"
	"maitred/internal/models"
)

// fakeModel records the prompt and answers with a canned reply
type fakeModel struct {
	reply    string
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, opt := range options {
		opt(&f.opts)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func sampleTicket() models.SupportTicket {
	return models.SupportTicket{
		ID:           "t-1",
		TicketNumber: "TCK-1001",
		Subject:      "Payout missing",
		Description:  "Last week's payout never arrived",
		Status:       models.TicketStatusOpen,
		Priority:     models.TicketPriorityHigh,
		Restaurant:   models.RestaurantRef{ID: "r1", Name: "Golden Fork"},
		Messages: []models.TicketMessage{
			{ID: "m1", Author: models.Author{Name: "Ana", Role: "restaurant_owner"}, Content: "Any update?"},
			{ID: "m2", Author: models.Author{Role: "admin"}, Content: "escalated to finance", IsInternal: true},
		},
	}
}

func TestDraft(t *testing.T) {
	model := &fakeModel{reply: "  We are looking into your payout.  "}
	d := NewDrafter(model)

	draft, err := d.Draft(context.Background(), sampleTicket())
	require.NoError(t, err)
	assert.Equal(t, "We are looking into your payout.", draft)

	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	prompt := textOf(model.messages[1])
	assert.Contains(t, prompt, "TCK-1001")
	assert.Contains(t, prompt, "Golden Fork")
	assert.Contains(t, prompt, "Ana: Any update?")
	assert.NotContains(t, prompt, "escalated to finance", "internal notes stay out of the prompt")

	assert.Equal(t, 0.3, model.opts.Temperature)
	assert.Equal(t, 400, model.opts.MaxTokens)
}

func TestDraftErrors(t *testing.T) {
	_, err := NewDrafter(&fakeModel{reply: "   "}).Draft(context.Background(), sampleTicket())
	assert.ErrorIs(t, err, ErrEmptyDraft)

	boom := errors.New("rate limited")
	_, err = NewDrafter(&fakeModel{err: boom}).Draft(context.Background(), sampleTicket())
	assert.ErrorIs(t, err, boom)
}

func TestTicketPromptKeepsRecentThread(t *testing.T) {
	ticket := sampleTicket()
	ticket.Messages = nil
	for i := 0; i < 15; i++ {
		ticket.Messages = append(ticket.Messages, models.TicketMessage{
			Author:  models.Author{Name: "Ana"},
			Content: fmt.Sprintf("message %02d", i),
		})
	}

	prompt := ticketPrompt(ticket)
	assert.NotContains(t, prompt, "message 04")
	assert.Contains(t, prompt, "message 05")
	assert.Contains(t, prompt, "message 14")
}

func TestNewModel(t *testing.T) {
	_, err := NewModel(config.AssistantConfig{Provider: ProviderOpenAI})
	assert.Error(t, err, "token is required")

	_, err = NewModel(config.AssistantConfig{Provider: "cohere", Token: "x"})
	assert.Error(t, err)

	m, err := NewModel(config.AssistantConfig{Provider: ProviderOpenAI, Token: "sk-test", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.NotNil(t, m)

	m, err = NewModel(config.AssistantConfig{Provider: ProviderGitHubModels, Token: "ghp-test", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.NotNil(t, m)

	_, err = NewModel(config.AssistantConfig{Provider: ProviderAzure, Token: "key", Model: "deploy"})
	assert.Error(t, err, "azure needs an endpoint")
}

func TestAzureMessages(t *testing.T) {
	out, err := azureMessages([]llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, "be nice"),
		llms.TextParts(llms.ChatMessageTypeHuman, "hello ", "there"),
		llms.TextParts(llms.ChatMessageTypeAI, "hi"),
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	roles := []string{"system", "user", "assistant"}
	contents := []string{"be nice", "hello there", "hi"}
	for i, msg := range out {
		raw, err := json.Marshal(msg)
		require.NoError(t, err)
		var body struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
		assert.Equal(t, roles[i], body.Role)
		assert.Equal(t, contents[i], body.Content)
	}

	_, err = azureMessages([]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeTool, "x")})
	assert.Error(t, err)
}

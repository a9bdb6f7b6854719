package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/tmc/langchaingo/llms"
)

// AzureModel is an llms.Model backed by an Azure OpenAI deployment
type AzureModel struct {
	client      *azopenai.Client
	deployment  string
	temperature float32
	maxTokens   int32
}

var _ llms.Model = (*AzureModel)(nil)

// NewAzureModel creates a model for deployment at endpoint
func NewAzureModel(endpoint, apiKey, deployment string) (*AzureModel, error) {
	if endpoint == "" || apiKey == "" || deployment == "" {
		return nil, errors.New("Azure OpenAI configuration missing: endpoint, key and deployment are required")
	}

	client, err := azopenai.NewClientWithKeyCredential(endpoint, azcore.NewKeyCredential(apiKey), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure OpenAI client: %w", err)
	}

	return &AzureModel{
		client:      client,
		deployment:  deployment,
		temperature: 0.7,
		maxTokens:   2000,
	}, nil
}

// GenerateContent implements llms.Model
func (m *AzureModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	temperature, maxTokens := m.temperature, m.maxTokens
	if opts.Temperature > 0 {
		temperature = float32(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		maxTokens = int32(opts.MaxTokens)
	}

	chatMessages, err := azureMessages(messages)
	if err != nil {
		return nil, err
	}

	resp, err := m.client.GetChatCompletions(ctx, azopenai.ChatCompletionsOptions{
		Messages:       chatMessages,
		MaxTokens:      to.Ptr(maxTokens),
		Temperature:    to.Ptr(temperature),
		DeploymentName: to.Ptr(m.deployment),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("Azure OpenAI completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == nil {
		return nil, errors.New("empty response from Azure OpenAI")
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: *resp.Choices[0].Message.Content}},
	}, nil
}

// Call implements llms.Model
func (m *AzureModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func azureMessages(messages []llms.MessageContent) ([]azopenai.ChatRequestMessageClassification, error) {
	out := make([]azopenai.ChatRequestMessageClassification, 0, len(messages))
	for _, msg := range messages {
		text := textOf(msg)
		switch msg.Role {
		case llms.ChatMessageTypeSystem:
			out = append(out, &azopenai.ChatRequestSystemMessage{Content: azopenai.NewChatRequestSystemMessageContent(text)})
		case llms.ChatMessageTypeHuman, llms.ChatMessageTypeGeneric:
			out = append(out, &azopenai.ChatRequestUserMessage{Content: azopenai.NewChatRequestUserMessageContent(text)})
		case llms.ChatMessageTypeAI:
			out = append(out, &azopenai.ChatRequestAssistantMessage{Content: azopenai.NewChatRequestAssistantMessageContent(text)})
		default:
			return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}
	return out, nil
}

func textOf(msg llms.MessageContent) string {
	var text string
	for _, part := range msg.Parts {
		if t, ok := part.(llms.TextContent); ok {
			text += t.Text
		}
	}
	return text
}

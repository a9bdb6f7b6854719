package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"maitred/internal/models"
)

// ErrEmptyDraft is returned when the model answers with nothing usable
var ErrEmptyDraft = errors.New("assistant returned an empty draft")

const systemPrompt = `You are a support agent for a food delivery platform answering restaurant partners.
Write a short, polite reply to the latest message of the ticket. Do not promise refunds or
account changes. Reply with the message text only.`

// maxThread caps how many ticket messages go into the prompt
const maxThread = 10

// Drafter suggests replies for support tickets
type Drafter struct {
	model       llms.Model
	temperature float64
	maxTokens   int
}

// NewDrafter wraps model
func NewDrafter(model llms.Model) *Drafter {
	return &Drafter{model: model, temperature: 0.3, maxTokens: 400}
}

// Draft proposes a reply to ticket. The draft is never sent on its own.
func (d *Drafter) Draft(ctx context.Context, ticket models.SupportTicket) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, ticketPrompt(ticket)),
	}

	resp, err := d.model.GenerateContent(ctx, messages,
		llms.WithTemperature(d.temperature),
		llms.WithMaxTokens(d.maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("drafting reply for ticket %s: %w", ticket.ID, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyDraft
	}
	draft := strings.TrimSpace(resp.Choices[0].Content)
	if draft == "" {
		return "", ErrEmptyDraft
	}
	return draft, nil
}

// ticketPrompt renders the ticket and its public thread
func ticketPrompt(t models.SupportTicket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket %s (%s priority, %s)\n", t.TicketNumber, t.Priority, t.Status)
	if t.Restaurant.Name != "" {
		fmt.Fprintf(&b, "Restaurant: %s\n", t.Restaurant.Name)
	}
	fmt.Fprintf(&b, "Subject: %s\n", t.Subject)
	if t.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", t.Description)
	}

	var thread []models.TicketMessage
	for _, m := range t.Messages {
		if !m.IsInternal {
			thread = append(thread, m)
		}
	}
	if len(thread) > maxThread {
		thread = thread[len(thread)-maxThread:]
	}
	if len(thread) > 0 {
		b.WriteString("\nConversation:\n")
		for _, m := range thread {
			who := m.Author.Name
			if who == "" {
				who = m.Author.Role
			}
			fmt.Fprintf(&b, "- %s: %s\n", who, m.Content)
		}
	}
	return b.String()
}

// Package responder implements the generated half of C6 ResponseSelector:
// producing a free-form reply via the LLM vendor when SelectMethod picks
// MethodGenerated, with validation and a scripted fallback on failure.
package responder

import (
	"context"
	"fmt"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
	"github.com/rs/zerolog"

	"github.com/snarg/callengine/internal/callmodel"
	"github.com/snarg/callengine/internal/dialog"
)

const systemPrompt = `You are a calm, professional debt-collection agent on a phone call.
Keep replies under two sentences, never threaten, never promise anything you
can't guarantee, and stay strictly on the topic of the account balance and
payment options.`

// Generator produces free-form replies via OpenAI chat completions.
type Generator struct {
	client    oai.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	log       zerolog.Logger
}

// New builds an OpenAI-backed Generator.
func New(apiKey, model string, maxTokens int, timeout time.Duration, log zerolog.Logger) *Generator {
	client := oai.NewClient(option.WithAPIKey(apiKey))
	return &Generator{
		client:    client,
		model:     model,
		maxTokens: int64(maxTokens),
		timeout:   timeout,
		log:       log.With().Str("component", "responder").Logger(),
	}
}

// Generate produces a reply for nextStage given the conversation so far
// and the callee's latest utterance. On any vendor failure it falls back
// to the scripted reply for nextStage, per spec §4.6: generation failure
// never blocks the dialog.
func (g *Generator) Generate(ctx context.Context, nextStage dialog.Stage, client *callmodel.Client, history []callmodel.ConversationTurn, utterance string) (string, dialog.Method) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.generateWithModel(ctx, nextStage, client, history, utterance)
	if err != nil {
		g.log.Warn().Err(err).Msg("generation failed, falling back to scripted reply")
		return dialog.Validate(dialog.Render(nextStage, client)), dialog.MethodScript
	}
	return dialog.Validate(text), dialog.MethodGenerated
}

func (g *Generator) generateWithModel(ctx context.Context, nextStage dialog.Stage, client *callmodel.Client, history []callmodel.ConversationTurn, utterance string) (string, error) {
	messages := []oai.ChatCompletionMessageParamUnion{oai.SystemMessage(systemPrompt)}
	if client != nil {
		fields := client.TemplateFields()
		messages = append(messages, oai.SystemMessage(fmt.Sprintf(
			"Client: %s. Balance: %s. Company: %s.",
			fields["clientName"], fields["amount"], fields["company"],
		)))
	}
	for _, turn := range recentHistory(history, 6) {
		messages = append(messages, oai.UserMessage(fmt.Sprintf("[%s] %s", turn.Speaker, turn.Text)))
	}
	messages = append(messages, oai.UserMessage(fmt.Sprintf("callee just said: %q. stage=%s", utterance, nextStage)))

	params := oai.ChatCompletionNewParams{
		Model:     shared.ChatModel(g.model),
		Messages:  messages,
		MaxTokens: param.NewOpt(g.maxTokens),
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai generate: empty choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai generate: empty reply")
	}
	return text, nil
}

func recentHistory(history []callmodel.ConversationTurn, n int) []callmodel.ConversationTurn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// Package classifier implements C5 Classifier: labeling a callee
// utterance with a fixed intent given the current stage and recent
// conversation history.
package classifier

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
)

// Intent mirrors callmodel's conversation-turn intent values.
type Intent string

const (
	IntentPositive   Intent = "positive"
	IntentNegative   Intent = "negative"
	IntentNeutral    Intent = "neutral"
	IntentAggressive Intent = "aggressive"
	IntentHangUp     Intent = "hang_up"
	IntentSilence    Intent = "silence"
)

var validIntents = map[Intent]bool{
	IntentPositive: true, IntentNegative: true, IntentNeutral: true,
	IntentAggressive: true, IntentHangUp: true, IntentSilence: true,
}

// Classifier labels a callee utterance.
type Classifier interface {
	Classify(ctx context.Context, stage string, history []callmodel.ConversationTurn, utterance string) (Intent, error)
}

// OpenAIClassifier calls OpenAI chat completions to classify intent, with
// a deterministic keyword fallback when the API call fails.
type OpenAIClassifier struct {
	client  oai.Client
	model   string
	timeout time.Duration
	log     zerolog.Logger
}

// New builds an OpenAI-backed classifier.
func New(apiKey, model string, timeout time.Duration, log zerolog.Logger) *OpenAIClassifier {
	client := oai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClassifier{client: client, model: model, timeout: timeout, log: log.With().Str("component", "classifier").Logger()}
}

const systemPrompt = `You classify a single Russian-language utterance from a debt-collection
phone call into exactly one of: positive, negative, neutral, aggressive, hang_up, silence.
Respond with only the label, nothing else.`

// Classify labels utterance. On any OpenAI failure it falls back to a
// deterministic keyword rule so the dialog pipeline never stalls on a
// classification outage.
func (c *OpenAIClassifier) Classify(ctx context.Context, stage string, history []callmodel.ConversationTurn, utterance string) (Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	intent, err := c.classifyWithModel(ctx, stage, history, utterance)
	if err != nil {
		c.log.Warn().Err(err).Msg("classifier falling back to keyword rules")
		return KeywordFallback(utterance), nil
	}
	return intent, nil
}

func (c *OpenAIClassifier) classifyWithModel(ctx context.Context, stage string, history []callmodel.ConversationTurn, utterance string) (Intent, error) {
	messages := []oai.ChatCompletionMessageParamUnion{
		oai.SystemMessage(systemPrompt),
	}
	for _, turn := range recentHistory(history, 6) {
		messages = append(messages, oai.UserMessage(fmt.Sprintf("[%s] %s", turn.Speaker, turn.Text)))
	}
	messages = append(messages, oai.UserMessage(fmt.Sprintf("stage=%s utterance=%q", stage, utterance)))

	params := oai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    messages,
		Temperature: param.NewOpt(0.0),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai classify: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai classify: empty choices")
	}

	label := Intent(strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content)))
	if !validIntents[label] {
		return "", fmt.Errorf("openai classify: unrecognized label %q", label)
	}
	return label, nil
}

func recentHistory(history []callmodel.ConversationTurn, n int) []callmodel.ConversationTurn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// KeywordFallback is a deterministic rule used when the classifier's
// primary vendor is unavailable. Callee utterances are Russian (spec
// §8's scenarios), so the keyword sets are Russian, e.g. "до свидания"
// ("goodbye") matches scenario 2's hang_up literally.
func KeywordFallback(utterance string) Intent {
	lower := strings.ToLower(utterance)
	if strings.TrimSpace(lower) == "" {
		return IntentSilence
	}
	switch {
	case containsAny(lower, "до свидания", "пока", "не звоните", "перестаньте звонить"):
		return IntentHangUp
	case containsAny(lower, "мошенник", "идиот", "урод", "достали", "задолбали", "в суд подам"):
		return IntentAggressive
	case containsAny(lower, "да", "согласен", "согласна", "хорошо", "ладно", "смогу заплатить", "я заплачу"):
		return IntentPositive
	case containsAny(lower, "нет", "не могу", "не буду", "отказываюсь", "никогда"):
		return IntentNegative
	default:
		return IntentNeutral
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

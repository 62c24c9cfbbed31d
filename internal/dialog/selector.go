package dialog

import (
	"fmt"
	"strings"

	"github.com/snarg/callengine/internal/callmodel"
	"github.com/snarg/callengine/internal/classifier"
)

// Method names how a reply's text was produced.
type Method string

const (
	MethodScript    Method = "script"
	MethodCache     Method = "cache"
	MethodGenerated Method = "generated"
)

const maxReplyLength = 200

// criticalKeywords force the scripted reply regardless of repeat/novelty,
// since generated text must never be trusted with legal/threat language.
// Callee speech is Russian (spec §8's scenarios), so these are the
// Russian legal/threat terms, not a transliteration of English ones.
var criticalKeywords = []string{"иск", "адвокат", "суд", "полиция", "юрист", "исковое заявление"}

// forbiddenVocabulary never appears in a reply sent to the callee.
var forbiddenVocabulary = []string{"гарантирую", "обещаю вам", "я человек", "я не робот"}

// onTopicVocabulary is the debt/payment vocabulary the on-topic check
// requires for replies longer than 50 characters.
var onTopicVocabulary = []string{"оплат", "плат", "долг", "баланс", "счет", "счёт", "сумма", "график", "договор", "компани"}

// scriptReplies is the fixed library of scripted prompts by next stage,
// used when the selector picks MethodScript. Text is Russian, matching
// spec §8's literal end-to-end scenarios (e.g. scenario 1's
// payment_discussion reply, scenario 2's completed reply).
var scriptReplies = map[Stage]string{
	StageGreetingSent:      "Здравствуйте, это {company} звонит по поводу вашего счета. Вам сейчас удобно говорить?",
	StagePaymentDiscussion: "Отлично! Давайте обсудим детали погашения долга на {amount} рублей.",
	StageNegotiation:       "Я понимаю, что сейчас сложный период. Можем оформить частичный платеж в размере {partialAmount}, чтобы начать?",
	StageDeEscalation:      "Я понимаю, что вы расстроены. Я здесь, чтобы помочь найти решение, которое вам подойдет.",
	StageEscalation:        "Я хочу избежать усложнения ситуации для вас. Можем ли мы сегодня договориться о графике платежей?",
	StageFinalWarning:      "Это последняя возможность урегулировать задолженность в {amount} рублей, прежде чем дело будет передано дальше.",
	StageCompleted:         "Спасибо за разговор. До свидания.",
}

var fallbackReply = "Извините, не могли бы вы повторить?"

// SelectMethod implements C6's reply-method policy: script for critical
// keywords, generated when the utterance warrants it, cache when a stable
// key exists, else script.
func SelectMethod(utterance string, repeat int, offTopic, unusual bool, cacheKeyExists bool) Method {
	lower := strings.ToLower(utterance)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return MethodScript
		}
	}
	if repeat >= 2 || offTopic || unusual {
		return MethodGenerated
	}
	if cacheKeyExists {
		return MethodCache
	}
	return MethodScript
}

// Render fills a scripted reply template for nextStage with client data,
// substituting any fields the client record doesn't provide with neutral
// defaults.
func Render(nextStage Stage, client *callmodel.Client) string {
	template, ok := scriptReplies[nextStage]
	if !ok {
		template = fallbackReply
	}
	return substitute(template, client)
}

func substitute(template string, client *callmodel.Client) string {
	fields := map[string]string{
		"clientName":    "уважаемый клиент",
		"company":       "наша компания",
		"amount":        "указанной суммы",
		"contract":      "вашему договору",
		"partialAmount": "меньшую сумму",
	}
	if client != nil {
		for k, v := range client.TemplateFields() {
			if v != "" {
				fields[k] = v
			}
		}
	}
	out := template
	for k, v := range fields {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

// Validate enforces max-length, the forbidden-vocabulary deny-list, and
// (for replies over 50 chars) the on-topic check. On failure it returns
// a safe fallback reply instead of an error, per spec §4.6: "substitute
// a fallback phrase and continue."
func Validate(reply string) string {
	if len(reply) > maxReplyLength {
		return fallbackReply
	}
	lower := strings.ToLower(reply)
	for _, w := range forbiddenVocabulary {
		if strings.Contains(lower, w) {
			return fallbackReply
		}
	}
	if len(reply) > 50 && !containsAny(lower, onTopicVocabulary) {
		return fallbackReply
	}
	return reply
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// RepeatBucket buckets a repeat count for cache-key stability, per
// CacheEntry's "stable (stage,intent,repeat-bucket) key" requirement:
// 0, 1, and "2 or more" are distinct buckets.
func RepeatBucket(repeat int) int {
	if repeat >= 2 {
		return 2
	}
	return repeat
}

// CacheKey derives the stable (stage,intent,repeat-bucket) cache key for
// a scripted-stage reply.
func CacheKey(stage Stage, intent classifier.Intent, repeat int) string {
	return fmt.Sprintf("%s|%s|%d", stage, intent, RepeatBucket(repeat))
}

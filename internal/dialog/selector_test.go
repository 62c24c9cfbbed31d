package dialog

import (
	"strings"
	"testing"

	"github.com/snarg/callengine/internal/callmodel"
)

func TestSelectMethodCriticalKeywordForcesScript(t *testing.T) {
	got := SelectMethod("Я обращусь к адвокату по этому поводу", 3, true, true, true)
	if got != MethodScript {
		t.Fatalf("SelectMethod = %s, want script for critical keyword", got)
	}
}

func TestSelectMethodHighRepeatPrefersGenerated(t *testing.T) {
	got := SelectMethod("whatever you say", 2, false, false, true)
	if got != MethodGenerated {
		t.Fatalf("SelectMethod = %s, want generated", got)
	}
}

func TestSelectMethodCacheWhenKeyStable(t *testing.T) {
	got := SelectMethod("okay", 0, false, false, true)
	if got != MethodCache {
		t.Fatalf("SelectMethod = %s, want cache", got)
	}
}

func TestSelectMethodDefaultsToScript(t *testing.T) {
	got := SelectMethod("okay", 0, false, false, false)
	if got != MethodScript {
		t.Fatalf("SelectMethod = %s, want script default", got)
	}
}

func TestRenderSubstitutesClientFields(t *testing.T) {
	client := &callmodel.Client{Name: "Jane Doe", Company: "Acme Collections", DebtAmount: 452.10}
	out := Render(StageGreetingSent, client)
	if !strings.Contains(out, "Acme Collections") {
		t.Fatalf("Render = %q, missing company substitution", out)
	}
}

func TestRenderFallsBackForUnknownStage(t *testing.T) {
	out := Render(StageWaitingResponse, nil)
	if out != fallbackReply {
		t.Fatalf("Render = %q, want fallback for stage with no script", out)
	}
}

func TestValidateRejectsOverLongReply(t *testing.T) {
	long := strings.Repeat("a", maxReplyLength+1)
	if got := Validate(long); got != fallbackReply {
		t.Fatalf("Validate(long) = %q, want fallback", got)
	}
}

func TestValidateRejectsForbiddenVocabulary(t *testing.T) {
	if got := Validate("Я гарантирую, что сегодня мы решим вопрос с вашим долгом"); got != fallbackReply {
		t.Fatalf("Validate = %q, want fallback for forbidden vocabulary", got)
	}
}

func TestValidateRejectsOffTopicLongReply(t *testing.T) {
	offTopic := "Я думаю, что погода в последнее время была необычной, надеюсь у вас сегодня все хорошо"
	if got := Validate(offTopic); got != fallbackReply {
		t.Fatalf("Validate = %q, want fallback for off-topic long reply", got)
	}
}

func TestValidatePassesOnTopicReply(t *testing.T) {
	reply := "Давайте обсудим баланс вашего счета и оплату, график платежей, который вам подойдет."
	if got := Validate(reply); got != reply {
		t.Fatalf("Validate = %q, want unchanged", got)
	}
}

func TestCacheKeyStableAcrossRepeatBucket(t *testing.T) {
	a := CacheKey(StageListening, "negative", 2)
	b := CacheKey(StageListening, "negative", 5)
	if a != b {
		t.Fatalf("CacheKey should bucket repeat>=2 together: %q != %q", a, b)
	}
	c := CacheKey(StageListening, "negative", 0)
	if a == c {
		t.Fatalf("CacheKey for repeat=0 must differ from repeat>=2 bucket")
	}
}

package hallucination

import (
	"testing"
	"time"
)

func TestClassifyUtteranceBoilerplate(t *testing.T) {
	r := ClassifyUtterance("Подписывайтесь на канал, не забудьте лайк!", 50000, 3*time.Second)
	if !r.IsHallucination() {
		t.Fatalf("got %+v, want hallucination", r)
	}
}

// TestClassifyUtteranceSpecScenario4 is spec §8 end-to-end scenario 4
// verbatim: STT returns "Продолжение следует" and the guard must flag it
// as a hallucination, not fall through to the real-speech default.
func TestClassifyUtteranceSpecScenario4(t *testing.T) {
	r := ClassifyUtterance("Продолжение следует", 50000, 2*time.Second)
	if !r.IsHallucination() {
		t.Fatalf("got %+v, want hallucination", r)
	}
}

func TestClassifyUtteranceLowAudioDensity(t *testing.T) {
	r := ClassifyUtterance("да хорошо", 500, 4*time.Second)
	if !r.IsSilence() {
		t.Fatalf("got %+v, want silence", r)
	}
}

func TestClassifyUtteranceLongDurationShortTranscript(t *testing.T) {
	r := ClassifyUtterance("эм", 200000, 10*time.Second)
	if !r.IsSilence() {
		t.Fatalf("got %+v, want silence", r)
	}
}

func TestClassifyUtteranceRepeatedChars(t *testing.T) {
	r := ClassifyUtterance("aaaaaaaaaaaaaaaaaaaaaaaa", 200000, 3*time.Second)
	if !r.IsHallucination() {
		t.Fatalf("got %+v, want hallucination", r)
	}
}

func TestClassifyUtterancePunctuationOnly(t *testing.T) {
	r := ClassifyUtterance("... ?! ...", 200000, 3*time.Second)
	if !r.IsHallucination() {
		t.Fatalf("got %+v, want hallucination", r)
	}
}

func TestClassifyUtteranceRealSpeech(t *testing.T) {
	r := ClassifyUtterance("Я могу оплатить часть долга на следующей неделе", 300000, 4*time.Second)
	if !r.IsReal() {
		t.Fatalf("got %+v, want real", r)
	}
}

func TestClassifyUtteranceNeverPanics(t *testing.T) {
	defer func() {
		if rec := recover(); rec != nil {
			t.Fatalf("ClassifyUtterance panicked: %v", rec)
		}
	}()
	ClassifyUtterance("", 0, 0)
}

// Package hallucination implements C10 HallucinationGuard: a heuristic
// filter that decides whether an STT transcript is real speech, likely
// silence mislabeled by the recognizer, or a model hallucination, purely
// from the transcript text and the audio it was produced from. The guard
// never errors; its output is advisory only.
package hallucination

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// boilerplateRegexes catches known STT hallucination patterns: video
// closings, subtitle credits, and media markers that recognizers
// sometimes emit on near-silent audio. Callee speech here is Russian
// (spec §8's scenarios are all Russian utterances), so the patterns are
// the Russian STT-hallucination boilerplate, not a transliteration of
// the English ones: "продолжение следует" ("to be continued") and
// "подписывайтесь на канал" ("subscribe to the channel") are the two
// phrases Whisper-family models are known to emit on near-silent or
// noisy audio, matching spec §8 scenario 4 verbatim.
var boilerplateRegexes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)продолжение следует`),
	regexp.MustCompile(`(?i)подпис(ывайтесь|ка) на (мой |наш )?канал`),
	regexp.MustCompile(`(?i)субтитры (делал|создал|предоставил)`),
	regexp.MustCompile(`(?i)\[музыка\]`),
	regexp.MustCompile(`(?i)\[аплодисменты\]`),
	regexp.MustCompile(`(?i)перевод(ил)? субтитры`),
}

// domainVocabulary are words whose presence is evidence of genuine
// collection-call speech, used by the real-speech heuristic.
var domainVocabulary = []string{
	"оплат", "плат", "деньги", "долг", "счет", "счёт", "баланс",
	"счет-фактур", "позволить", "бюджет", "карт", "банк",
	"график", "план", "извин", "занят", "позже", "стоп", "звон",
}

const (
	audioDensityThreshold = 2000.0 // bytes/sec, below which audio is presumed silence-like
	longDurationThreshold = 8 * time.Second
	shortTranscriptChars  = 20
	repeatRatioThreshold  = 0.7
	minWordRate           = 0.5 // words/sec
	maxWordRate           = 4.0
)

// Label is the guard's classification of an utterance.
type Label string

const (
	LabelReal          Label = "real"
	LabelSilence       Label = "silence"
	LabelHallucination Label = "hallucination"
)

// Result is classify_utterance's advisory output.
type Result struct {
	Label      Label
	Confidence float64
	Reason     string
}

// IsHallucination, IsSilence, IsReal are convenience accessors matching
// the spec's {is_hallucination, is_silence, is_real} triple; exactly one
// is true.
func (r Result) IsHallucination() bool { return r.Label == LabelHallucination }
func (r Result) IsSilence() bool       { return r.Label == LabelSilence }
func (r Result) IsReal() bool          { return r.Label == LabelReal }

// candidate is one rule's vote, with the confidence it assigns its label.
type candidate struct {
	label      Label
	confidence float64
	reason     string
}

// ClassifyUtterance scores text against every rule and returns the
// highest-confidence label. audioBytes is the raw size of the source
// recording in bytes, used to derive audio density; duration is the
// recording's length.
func ClassifyUtterance(text string, audioBytes int, duration time.Duration) Result {
	var candidates []candidate

	if c, ok := matchBoilerplate(text); ok {
		candidates = append(candidates, c)
	}
	if c, ok := checkAudioDensity(audioBytes, duration); ok {
		candidates = append(candidates, c)
	}
	if c, ok := checkLongSilentDuration(text, duration); ok {
		candidates = append(candidates, c)
	}
	if c, ok := checkRepeatRatio(text); ok {
		candidates = append(candidates, c)
	}
	if c, ok := checkPunctuationOnly(text); ok {
		candidates = append(candidates, c)
	}
	if c, ok := checkPlausibleSpeech(text, duration); ok {
		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		return Result{Label: LabelReal, Confidence: 0.5, Reason: "no rule matched, defaulting to real"}
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.confidence > best.confidence {
			best = c
		}
	}
	return Result{Label: best.label, Confidence: best.confidence, Reason: best.reason}
}

func matchBoilerplate(text string) (candidate, bool) {
	for _, re := range boilerplateRegexes {
		if re.MatchString(text) {
			return candidate{LabelHallucination, 0.95, "matched boilerplate pattern"}, true
		}
	}
	return candidate{}, false
}

func checkAudioDensity(audioBytes int, duration time.Duration) (candidate, bool) {
	secs := duration.Seconds()
	if secs <= 0 {
		return candidate{}, false
	}
	density := float64(audioBytes) / secs
	if density < audioDensityThreshold {
		return candidate{LabelSilence, 0.8, "audio density below threshold"}, true
	}
	return candidate{}, false
}

func checkLongSilentDuration(text string, duration time.Duration) (candidate, bool) {
	if duration >= longDurationThreshold && len(strings.TrimSpace(text)) < shortTranscriptChars {
		return candidate{LabelSilence, 0.75, "long duration with negligible transcript"}, true
	}
	return candidate{}, false
}

func checkRepeatRatio(text string) (candidate, bool) {
	ratio := charRepeatRatio(text)
	if ratio > repeatRatioThreshold {
		return candidate{LabelHallucination, 0.7 + 0.2*(ratio-repeatRatioThreshold), "character repeat ratio too high"}, true
	}
	return candidate{}, false
}

// charRepeatRatio is the fraction of text's non-whitespace runes taken by
// its single most frequent rune. A transcript of one repeated character
// yields a ratio of 1; varied prose yields a low ratio.
func charRepeatRatio(text string) float64 {
	var total int
	counts := make(map[rune]int)
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		counts[r]++
		total++
	}
	if total == 0 {
		return 0
	}
	var max int
	for _, n := range counts {
		if n > max {
			max = n
		}
	}
	return float64(max) / float64(total)
}

func checkPunctuationOnly(text string) (candidate, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return candidate{}, false
	}
	for _, r := range trimmed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return candidate{}, false
		}
	}
	return candidate{LabelHallucination, 0.85, "transcript is punctuation/symbols only"}, true
}

func checkPlausibleSpeech(text string, duration time.Duration) (candidate, bool) {
	words := strings.Fields(text)
	secs := duration.Seconds()
	if secs <= 0 || len(words) == 0 {
		return candidate{}, false
	}
	rate := float64(len(words)) / secs
	if rate < minWordRate || rate > maxWordRate {
		return candidate{}, false
	}
	lower := strings.ToLower(text)
	for _, v := range domainVocabulary {
		if strings.Contains(lower, v) {
			return candidate{LabelReal, 0.9, "plausible word rate with domain vocabulary"}, true
		}
	}
	return candidate{}, false
}

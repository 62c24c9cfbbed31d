package classifier

import "testing"

func TestKeywordFallback(t *testing.T) {
	cases := []struct {
		text string
		want Intent
	}{
		{"", IntentSilence},
		{"   ", IntentSilence},
		{"Перестаньте звонить", IntentHangUp},
		{"До свидания", IntentHangUp},
		{"Вы мошенники, задолбали звонить", IntentAggressive},
		{"Да, согласен заплатить в пятницу", IntentPositive},
		{"Нет, я сейчас ничего не могу заплатить", IntentNegative},
		{"Кто это?", IntentNeutral},
	}
	for _, tc := range cases {
		if got := KeywordFallback(tc.text); got != tc.want {
			t.Errorf("KeywordFallback(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

// Package dialog implements C7 DialogStateMachine and C6 ResponseSelector:
// the per-call conversation state and the policy that turns (stage,
// intent, repeat-count) into a reply and a stage transition.
package dialog

import "github.com/snarg/callengine/internal/classifier"

// Stage is one node in the conversation's finite state graph.
type Stage string

const (
	StageStart             Stage = "start"
	StageGreetingSent      Stage = "greeting_sent"
	StageWaitingResponse   Stage = "waiting_response"
	StageListening         Stage = "listening"
	StageNegotiation       Stage = "negotiation"
	StageDeEscalation      Stage = "de_escalation"
	StagePaymentDiscussion Stage = "payment_discussion"
	StageEscalation        Stage = "escalation"
	StageFinalWarning      Stage = "final_warning"
	StageCompleted         Stage = "completed"
	StageError             Stage = "error"
)

// IsTerminal reports whether no further transitions leave this stage.
func (s Stage) IsTerminal() bool {
	return s == StageCompleted || s == StageError
}

// Priority mirrors callmodel.Priority for job dispatch of the generated
// reply's synthesis/classification work.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Outcome of flag used when a terminal transition carries a disposition.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeAgreement Outcome = "agreement"
	OutcomeAbandoned Outcome = "abandoned"
	OutcomeFlagged   Outcome = "flagged"
)

// transitionKey identifies one (stage, intent) pair of the script table.
// The repeat count is not part of the key: each rule listed under a key
// carries its own repeatMin, and matches only when the caller's repeat
// count is at least that value.
type transitionKey struct {
	stage  Stage
	intent classifier.Intent
}

// rule is one entry of the script table (spec §4.6).
type rule struct {
	repeatMin int // match only if repeat >= repeatMin
	nextStage Stage
	priority  Priority
	outcome   Outcome
}

// table holds, per (stage, intent), the rules to try. Their order in the
// list does not matter: Next picks the highest repeatMin the repeat count
// satisfies, so a more specific escalation rule wins over a
// repeat-agnostic default for the same pair.
var table = map[transitionKey][]rule{
	{StageStart, classifier.IntentPositive}: {
		{nextStage: StageGreetingSent, priority: PriorityNormal},
	},
	{StageListening, classifier.IntentPositive}: {
		{nextStage: StagePaymentDiscussion, priority: PriorityNormal},
	},
	{StageListening, classifier.IntentNegative}: {
		{nextStage: StageNegotiation, priority: PriorityNormal},
	},
	{StageListening, classifier.IntentAggressive}: {
		{nextStage: StageDeEscalation, priority: PriorityUrgent},
	},
	{StageListening, classifier.IntentHangUp}: {
		{nextStage: StageCompleted, priority: PriorityUrgent},
	},
	{StageNegotiation, classifier.IntentNegative}: {
		{repeatMin: 0, nextStage: StageNegotiation, priority: PriorityNormal},
		{repeatMin: 1, nextStage: StageEscalation, priority: PriorityNormal},
	},
	{StageEscalation, classifier.IntentNegative}: {
		{nextStage: StageFinalWarning, priority: PriorityNormal},
	},
	{StageFinalWarning, classifier.IntentNegative}: {
		{nextStage: StageCompleted, priority: PriorityNormal, outcome: OutcomeFlagged},
	},
	{StageFinalWarning, classifier.IntentPositive}: {
		{nextStage: StageCompleted, priority: PriorityNormal, outcome: OutcomeAgreement},
	},
}

// silenceRepeatThreshold is the repeat count of consecutive silence
// intents, regardless of stage, after which the call is abandoned.
const silenceRepeatThreshold = 3

// defaultNextStage is the fallback next stage for a (stage, intent) pair
// with no matching rule.
const defaultNextStage = StageListening

// Transition is the result of Next: the next stage and the priority at
// which the reply-generation job should be enqueued, plus an optional
// terminal outcome.
type Transition struct {
	NextStage Stage
	Priority  Priority
	Outcome   Outcome
}

// Next is C7's total transition function over (Stage × Intent × repeat).
// Terminal stages never transition further: Next on a terminal Stage
// returns the same stage unchanged.
func Next(stage Stage, intent classifier.Intent, repeat int) Transition {
	if stage.IsTerminal() {
		return Transition{NextStage: stage, Priority: PriorityLow}
	}

	if intent == classifier.IntentSilence && repeat >= silenceRepeatThreshold {
		return Transition{NextStage: StageCompleted, Priority: PriorityNormal, Outcome: OutcomeAbandoned}
	}

	rules, ok := table[transitionKey{stage, intent}]
	if ok {
		// Authoring order is not assumed; pick the highest-repeatMin rule
		// the repeat count satisfies.
		var best *rule
		for i := range rules {
			r := &rules[i]
			if repeat >= r.repeatMin && (best == nil || r.repeatMin > best.repeatMin) {
				best = r
			}
		}
		if best != nil {
			return Transition{NextStage: best.nextStage, Priority: best.priority, Outcome: best.outcome}
		}
	}

	return Transition{NextStage: defaultNextStage, Priority: PriorityNormal}
}

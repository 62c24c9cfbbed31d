package jobqueue

import (
	"encoding/json"
	"testing"

	"github.com/snarg/callengine/internal/callmodel"
)

func TestQueueForMapsEachKindToItsNamedQueue(t *testing.T) {
	cases := map[callmodel.JobKind]string{
		callmodel.JobTranscribe: "stt",
		callmodel.JobClassify:   "llm",
		callmodel.JobGenerate:   "llm",
		callmodel.JobSynthesize: "tts",
	}
	for kind, want := range cases {
		if got := queueFor(kind); got != want {
			t.Errorf("queueFor(%s) = %q, want %q", kind, got, want)
		}
	}
}

func TestTaskTypeForIsStablePerKind(t *testing.T) {
	a := taskTypeFor(callmodel.JobTranscribe)
	b := taskTypeFor(callmodel.JobTranscribe)
	if a != b {
		t.Fatalf("taskTypeFor must be stable: %q != %q", a, b)
	}
	if taskTypeFor(callmodel.JobTranscribe) == taskTypeFor(callmodel.JobSynthesize) {
		t.Fatalf("different kinds must map to different task types")
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env := envelope{CallID: "call-1", Payload: []byte(`{"text":"hello"}`)}
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got envelope
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.CallID != env.CallID || string(got.Payload) != string(env.Payload) {
		t.Fatalf("round trip mismatch: %+v != %+v", got, env)
	}
}

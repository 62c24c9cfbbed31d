package telephony

import (
	"encoding/xml"
	"fmt"
)

// response is the root <Response> element; only the verbs actually used
// by this service are modeled, matching spec §6's markup grammar exactly.
type response struct {
	XMLName xml.Name  `xml:"Response"`
	Play    string    `xml:"Play,omitempty"`
	Say     *say      `xml:"Say,omitempty"`
	Record  *record   `xml:"Record,omitempty"`
	Hangup  *struct{} `xml:"Hangup,omitempty"`
}

type say struct {
	Voice    string `xml:"voice,attr,omitempty"`
	Language string `xml:"language,attr,omitempty"`
	Text     string `xml:",chardata"`
}

type record struct {
	Action                  string `xml:"action,attr"`
	RecordingStatusCallback string `xml:"recordingStatusCallback,attr"`
	Method                  string `xml:"method,attr"`
	MaxLength               int    `xml:"maxLength,attr"`
	PlayBeep                bool   `xml:"playBeep,attr"`
	Timeout                 int    `xml:"timeout,attr"`
	FinishOnKey             string `xml:"finishOnKey,attr"`
}

// redirectElem renders <Redirect method="POST">{url}</Redirect>. Built and
// marshaled standalone (see Wait) rather than as a response field, since
// it's only ever paired with a literal <Pause/>, not the general verb mix
// response models.
type redirectElem struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr"`
	URL     string   `xml:",chardata"`
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Builder renders carrier control markup, keyed to this service's own
// webhook base URL.
type Builder struct {
	serverURL string
}

// NewBuilder constructs a markup Builder.
func NewBuilder(serverURL string) *Builder {
	return &Builder{serverURL: serverURL}
}

// PlayAndRecord renders <Play>{url}</Play><Record .../>, used when
// PendingAudio came from the cache or the primary TTS vendor.
func (b *Builder) PlayAndRecord(callID, audioURL string) string {
	r := response{
		Play:   audioURL,
		Record: b.recordDirective(callID),
	}
	return render(r)
}

// SayAndRecord renders <Say voice="...">{text}</Say><Record .../>, used
// when PendingAudio is a TTS fallback (carrier-side synthesis) or when no
// pre-generated audio exists yet and the agent's line must be spoken
// directly by the carrier.
func (b *Builder) SayAndRecord(callID, text, voice, language string) string {
	r := response{
		Say:    &say{Voice: voice, Language: language, Text: text},
		Record: b.recordDirective(callID),
	}
	return render(r)
}

// Wait renders <Pause length="2"/><Redirect method="POST">{twimlURL}</Redirect>,
// used when no PendingAudio is ready yet and the carrier should ask again
// shortly.
func (b *Builder) Wait(callID string) string {
	var buf []byte
	buf = append(buf, []byte(xmlHeader+"<Response><Pause length=\"2\"/>")...)
	redirectXML, _ := xml.Marshal(redirectElem{
		Method: "POST",
		URL:    fmt.Sprintf("%s/webhooks/twiml/%s", b.serverURL, callID),
	})
	buf = append(buf, redirectXML...)
	buf = append(buf, []byte("</Response>")...)
	return string(buf)
}

// TerminalError renders <Say>{msg}</Say><Hangup/>, used when the carrier
// must be given valid markup but no further dialog is possible.
func (b *Builder) TerminalError(msg string) string {
	r := response{
		Say:    &say{Text: msg},
		Hangup: &struct{}{},
	}
	return render(r)
}

func (b *Builder) recordDirective(callID string) *record {
	return &record{
		Action:                  fmt.Sprintf("%s/webhooks/recording/%s", b.serverURL, callID),
		RecordingStatusCallback: fmt.Sprintf("%s/webhooks/recording-status/%s", b.serverURL, callID),
		Method:                  "POST",
		MaxLength:               300,
		PlayBeep:                false,
		Timeout:                 10,
		FinishOnKey:             "#",
	}
}

func render(r response) string {
	out, err := xml.Marshal(r)
	if err != nil {
		// Markup must always be valid; a marshal failure here means a
		// programming error in the struct definitions above, not bad
		// input, so fall back to the safest possible markup.
		return xmlHeader + "<Response><Say>internal error</Say><Hangup/></Response>"
	}
	return xmlHeader + string(out)
}

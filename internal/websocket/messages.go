package websocket

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of WebSocket event
type EventType string

// Inbound events (connection → server)
const (
	EventCallOffer    EventType = "call-offer"
	EventCallAnswer   EventType = "call-answer"
	EventCallEnd      EventType = "call-end"
	EventICECandidate EventType = "ice-candidate"
	EventAudioChunk   EventType = "audio-chunk"
)

// Outbound events (server → connection)
const (
	EventNewCall      EventType = "new-call"
	EventCallAnswered EventType = "call-answered"
	EventCallEnded    EventType = "call-ended"
	EventLeaveCall    EventType = "leave-call"
	EventSTTResult    EventType = "stt-result"
	EventSTTError     EventType = "stt-error"
	EventSignalError  EventType = "signal-error"
)

// Stable error codes reported back to the originating connection.
const (
	CodeInvalidMakeCallPayload     = "INVALID_MAKE_CALL_PAYLOAD"
	CodeInvalidAnswerCallPayload   = "INVALID_ANSWER_CALL_PAYLOAD"
	CodeInvalidEndCallPayload      = "INVALID_END_CALL_PAYLOAD"
	CodeInvalidICECandidatePayload = "INVALID_ICE_CANDIDATE_PAYLOAD"
	CodeSTTBackpressure            = "STT_BACKPRESSURE"
	CodeSTTRateLimited             = "STT_RATE_LIMITED"
	CodeSTTInvalidPayload          = "STT_INVALID_PAYLOAD"
	CodeSTTProcessingFailed        = "STT_PROCESSING_FAILED"
	CodeInternalServerError        = "INTERNAL_SERVER_ERROR"
)

// BaseEvent carries the type discriminator of every inbound event.
type BaseEvent struct {
	Type EventType `json:"type"`
}

// CallOfferEvent asks the server to relay an SDP offer to a callee.
type CallOfferEvent struct {
	CalleeID string          `json:"calleeId"`
	SDPOffer json.RawMessage `json:"sdpOffer"`
}

// CallAnswerEvent relays an SDP answer back to the original caller.
type CallAnswerEvent struct {
	CallerID  string          `json:"callerId"`
	SDPAnswer json.RawMessage `json:"sdpAnswer"`
}

// CallEndEvent tells the callee the call is over.
type CallEndEvent struct {
	CalleeID string `json:"calleeId"`
}

// ICECandidateEvent relays an ICE candidate to the peer.
type ICECandidateEvent struct {
	CalleeID     string          `json:"calleeId"`
	ICECandidate json.RawMessage `json:"iceCandidate"`
}

// AudioChunkEvent is an inbound audio submission. Audio is base64 encoded;
// language, targetLanguage, encoding and sampleRateHertz are optional and
// default during validation.
type AudioChunkEvent struct {
	To              string `json:"to"`
	Audio           string `json:"audio"`
	Language        string `json:"language"`
	TargetLanguage  string `json:"targetLanguage"`
	Encoding        string `json:"encoding"`
	SampleRateHertz int    `json:"sampleRateHertz"`
	SequenceID      string `json:"sequenceId"`
}

// NewCallEvent notifies a callee of an incoming call.
type NewCallEvent struct {
	Type     EventType       `json:"type"`
	CallerID string          `json:"callerId"`
	SDPOffer json.RawMessage `json:"sdpOffer"`
}

// CallAnsweredEvent notifies the caller that the callee answered.
type CallAnsweredEvent struct {
	Type      EventType       `json:"type"`
	Callee    string          `json:"callee"`
	SDPAnswer json.RawMessage `json:"sdpAnswer"`
}

// CallEndedEvent notifies the callee that the caller hung up.
type CallEndedEvent struct {
	Type EventType `json:"type"`
	From string    `json:"from"`
}

// LeaveCallEvent is echoed to the hanging-up connection itself.
type LeaveCallEvent struct {
	Type EventType `json:"type"`
	To   string    `json:"to"`
}

// ICECandidateOutEvent relays an ICE candidate to the target peer.
type ICECandidateOutEvent struct {
	Type         EventType       `json:"type"`
	Sender       string          `json:"sender"`
	ICECandidate json.RawMessage `json:"iceCandidate"`
}

// STTResultEvent delivers a transcription result to the recipient.
type STTResultEvent struct {
	Type       EventType `json:"type"`
	Text       string    `json:"text"`
	Translated string    `json:"translated"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	SequenceID string    `json:"sequenceId,omitempty"`
}

// ErrorEvent is the uniform structured error envelope, delivered only to the
// originating connection.
type ErrorEvent struct {
	Type      EventType `json:"type"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp string    `json:"timestamp"`
	MessageID string    `json:"message_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// NewSignalError builds a marshaled signal-error event.
func NewSignalError(code, message string) []byte {
	return marshalError(EventSignalError, code, message, "")
}

// NewSTTError builds a marshaled stt-error event. reason is optional extra
// detail, e.g. the validation violation.
func NewSTTError(code, message, reason string) []byte {
	return marshalError(EventSTTError, code, message, reason)
}

func marshalError(eventType EventType, code, message, reason string) []byte {
	payload, _ := json.Marshal(ErrorEvent{
		Type:      eventType,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().Format(time.RFC3339),
		MessageID: uuid.NewString(),
		Reason:    reason,
	})
	return payload
}

var jsonNull = []byte("null")

// presentString reports whether s is non-empty after trimming.
func presentString(s string) bool {
	return strings.TrimSpace(s) != ""
}

// presentOpaque reports whether an opaque passthrough field (SDP payloads,
// ICE candidates) is present: not absent, not JSON null, and when it is a
// JSON string, not blank after trimming.
func presentOpaque(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull) {
		return false
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return false
		}
		return presentString(s)
	}
	return true
}

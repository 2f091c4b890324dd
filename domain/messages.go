package domain

// AudioChunkRequest is a validated, immutable audio submission. It is derived
// from an inbound audio-chunk event once the payload has passed validation;
// after that point every field is final.
type AudioChunkRequest struct {
	// From and To are the sender and recipient identities.
	From string
	To   string

	// SourceLanguage is the resolved recognition language and
	// TargetLanguage the resolved translation target. Both are always
	// syntactically valid by the time a request exists.
	SourceLanguage string
	TargetLanguage string

	// Encoding and SampleRateHertz describe the audio payload.
	Encoding        string
	SampleRateHertz int

	// Audio holds the decoded payload bytes.
	Audio []byte

	// SequenceID is a caller-supplied opaque tag echoed back on the result.
	// Ordering is guaranteed by the per-connection queue, not by this id.
	SequenceID string
}

// TranscriptionResult is the outcome of one processed audio chunk. Emitted
// once to the recipient and never stored.
type TranscriptionResult struct {
	// Text is the raw transcript. Translated equals Text when no
	// translation was needed or available.
	Text       string
	Translated string

	From       string
	To         string
	SequenceID string
}

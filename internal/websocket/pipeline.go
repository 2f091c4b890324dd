package websocket

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voxrelay/server/domain"
)

// Audio pipeline. Backpressure is checked at submission time, before the
// chunk ever enters the queue; rate limiting is checked at processing time,
// as the queue drains. The two checkpoints are deliberately different: a
// burst capped by backpressure is still subject to the rate window while it
// drains.

// validEncodings mirrors the encodings the speech adapter can map. Anything
// else falls back to the configured default rather than erroring.
var validEncodings = map[string]bool{
	"LINEAR16":               true,
	"WAV":                    true,
	"FLAC":                   true,
	"MULAW":                  true,
	"AMR":                    true,
	"AMR_WB":                 true,
	"OGG_OPUS":               true,
	"SPEEX_WITH_HEADER_BYTE": true,
	"WEBM_OPUS":              true,
}

const (
	minSampleRate = 8000
	maxSampleRate = 48000
)

// submitAudioChunk admits one inbound audio event to the serial queue, or
// rejects it with STT_BACKPRESSURE when this connection already has its
// maximum number of chunks in flight. Rejected chunks never enter the queue
// and never count toward pending.
func (c *Client) submitAudioChunk(message []byte) {
	var ev AudioChunkEvent
	if err := json.Unmarshal(message, &ev); err != nil {
		c.enqueueSend(NewSTTError(CodeSTTInvalidPayload, "invalid audio chunk payload", "malformed event"))
		return
	}

	c.mu.Lock()
	if c.pending >= c.hub.cfg.MaxPending {
		c.mu.Unlock()
		c.logger.Warn("Audio chunk rejected by backpressure",
			zap.String("peerID", c.peerID),
			zap.Int("maxPending", c.hub.cfg.MaxPending))
		c.enqueueSend(NewSTTError(CodeSTTBackpressure, "too many audio chunks in flight, slow down", ""))
		return
	}
	c.pending++
	c.mu.Unlock()

	// The queue capacity equals the backpressure ceiling, so this send
	// never blocks once the pending check has passed.
	c.work <- ev
}

// audioWorker drains the serial queue, one chunk at a time, so results reach
// the recipient in submission order. Each chunk runs inside the panic guard:
// a panicking adapter reports an internal error and the worker moves on.
func (c *Client) audioWorker() {
	for ev := range c.work {
		c.guarded(EventSTTError, func() { c.processAudioChunk(ev) })
	}
}

// processAudioChunk runs the rate-limit check, payload validation and the
// transcription orchestration for one queued chunk. The pending count is
// released on every exit path.
func (c *Client) processAudioChunk(ev AudioChunkEvent) {
	defer c.releasePending()

	if !c.admitRate(time.Now()) {
		c.enqueueSend(NewSTTError(CodeSTTRateLimited, "audio rate limit exceeded, back off", ""))
		return
	}

	req, reason := c.buildChunkRequest(ev)
	if reason != "" {
		c.enqueueSend(NewSTTError(CodeSTTInvalidPayload, "invalid audio chunk payload", reason))
		return
	}

	result, err := c.hub.transcriber.Process(context.Background(), req)
	if err != nil {
		// Internal detail stays in the log; the client gets a generic code.
		c.logger.Error("Audio processing failed",
			zap.String("peerID", c.peerID),
			zap.String("to", req.To),
			zap.Error(err))
		c.enqueueSend(NewSTTError(CodeSTTProcessingFailed, "failed to process audio chunk", ""))
		return
	}
	if result == nil {
		// No speech detected; nothing to deliver.
		return
	}

	payload, _ := json.Marshal(STTResultEvent{
		Type:       EventSTTResult,
		Text:       result.Text,
		Translated: result.Translated,
		From:       result.From,
		To:         result.To,
		SequenceID: result.SequenceID,
	})
	if err := c.hub.SendToPeer(result.To, payload); err != nil {
		// Recipient disconnected; delivery is fire-and-forget.
		c.logger.Debug("Recipient has no live connection, dropping result",
			zap.String("from", c.peerID),
			zap.String("to", result.To))
	}
}

// admitRate prunes the timestamp history to the trailing window and reports
// whether this chunk is allowed. The instant is recorded only on admission;
// the history stays pruned either way.
func (c *Client) admitRate(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := now.Add(-c.hub.cfg.RateLimitWindow)
	kept := c.rateTimestamps[:0]
	for _, ts := range c.rateTimestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	c.rateTimestamps = kept

	if len(c.rateTimestamps) >= c.hub.cfg.RateLimitMaxRequests {
		return false
	}
	c.rateTimestamps = append(c.rateTimestamps, now)
	return true
}

// releasePending decrements the pending counter, flooring at zero. This is
// the ordering anchor that lets a later backpressure check succeed once
// earlier work drains.
func (c *Client) releasePending() {
	c.mu.Lock()
	if c.pending > 0 {
		c.pending--
	}
	c.mu.Unlock()
}

// buildChunkRequest validates the inbound event and derives the immutable
// request handed to the orchestrator. A non-empty reason means the event is
// rejected before any external call is made.
func (c *Client) buildChunkRequest(ev AudioChunkEvent) (*domain.AudioChunkRequest, string) {
	cfg := c.hub.cfg

	to := strings.TrimSpace(ev.To)
	if to == "" {
		return nil, "recipient id is required"
	}

	audio, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ev.Audio))
	if err != nil {
		return nil, "audio payload is not valid base64"
	}
	if len(audio) == 0 {
		return nil, "audio payload is empty"
	}
	if len(audio) > cfg.MaxAudioBytes {
		return nil, fmt.Sprintf("audio payload exceeds %d bytes", cfg.MaxAudioBytes)
	}

	encoding := strings.ToUpper(strings.TrimSpace(ev.Encoding))
	if !validEncodings[encoding] {
		encoding = cfg.DefaultEncoding
	}

	sampleRate := ev.SampleRateHertz
	if sampleRate < minSampleRate || sampleRate > maxSampleRate {
		sampleRate = cfg.DefaultSampleRate
	}

	languages := c.hub.languages
	source := languages.ResolveSource(ev.Language)
	target := languages.ResolveTarget(source, ev.TargetLanguage)

	return &domain.AudioChunkRequest{
		From:            c.peerID,
		To:              to,
		SourceLanguage:  source,
		TargetLanguage:  target,
		Encoding:        encoding,
		SampleRateHertz: sampleRate,
		Audio:           audio,
		SequenceID:      ev.SequenceID,
	}, ""
}

package websocket

import (
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Call signaling relay. Each handler validates its own required fields and
// forwards the event to the target identity. There is no authorization beyond
// identity binding: any connection may target any identity string. Delivery
// is best-effort; relaying toward an identity nobody holds is a no-op.

func (c *Client) handleCallOffer(message []byte) {
	var ev CallOfferEvent
	if err := json.Unmarshal(message, &ev); err != nil ||
		!presentString(ev.CalleeID) || !presentOpaque(ev.SDPOffer) {
		c.enqueueSend(NewSignalError(CodeInvalidMakeCallPayload, "calleeId and sdpOffer are required"))
		return
	}

	payload, _ := json.Marshal(NewCallEvent{
		Type:     EventNewCall,
		CallerID: c.peerID,
		SDPOffer: ev.SDPOffer,
	})
	c.relay(strings.TrimSpace(ev.CalleeID), payload)
}

func (c *Client) handleCallAnswer(message []byte) {
	var ev CallAnswerEvent
	if err := json.Unmarshal(message, &ev); err != nil ||
		!presentString(ev.CallerID) || !presentOpaque(ev.SDPAnswer) {
		c.enqueueSend(NewSignalError(CodeInvalidAnswerCallPayload, "callerId and sdpAnswer are required"))
		return
	}

	payload, _ := json.Marshal(CallAnsweredEvent{
		Type:      EventCallAnswered,
		Callee:    c.peerID,
		SDPAnswer: ev.SDPAnswer,
	})
	c.relay(strings.TrimSpace(ev.CallerID), payload)
}

func (c *Client) handleCallEnd(message []byte) {
	var ev CallEndEvent
	if err := json.Unmarshal(message, &ev); err != nil || !presentString(ev.CalleeID) {
		c.enqueueSend(NewSignalError(CodeInvalidEndCallPayload, "calleeId is required"))
		return
	}
	calleeID := strings.TrimSpace(ev.CalleeID)

	ended, _ := json.Marshal(CallEndedEvent{
		Type: EventCallEnded,
		From: c.peerID,
	})
	c.relay(calleeID, ended)

	// Echo leave-call to the hanging-up connection itself so its own UI can
	// tear the call down.
	leave, _ := json.Marshal(LeaveCallEvent{
		Type: EventLeaveCall,
		To:   calleeID,
	})
	c.enqueueSend(leave)
}

func (c *Client) handleICECandidate(message []byte) {
	var ev ICECandidateEvent
	if err := json.Unmarshal(message, &ev); err != nil ||
		!presentString(ev.CalleeID) || !presentOpaque(ev.ICECandidate) {
		c.enqueueSend(NewSignalError(CodeInvalidICECandidatePayload, "calleeId and iceCandidate are required"))
		return
	}

	payload, _ := json.Marshal(ICECandidateOutEvent{
		Type:         EventICECandidate,
		Sender:       c.peerID,
		ICECandidate: ev.ICECandidate,
	})
	c.relay(strings.TrimSpace(ev.CalleeID), payload)
}

// relay forwards payload to the target identity, treating an absent peer as a
// no-op.
func (c *Client) relay(peerID string, payload []byte) {
	if err := c.hub.SendToPeer(peerID, payload); err != nil {
		if errors.Is(err, ErrPeerNotFound) {
			c.logger.Debug("Relay target has no live connection",
				zap.String("from", c.peerID),
				zap.String("to", peerID))
			return
		}
		c.logger.Error("Failed to relay event",
			zap.String("from", c.peerID),
			zap.String("to", peerID),
			zap.Error(err))
	}
}

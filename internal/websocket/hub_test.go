package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/voxrelay/server/domain/repositories"
	"github.com/voxrelay/server/internal/auth"
	"github.com/voxrelay/server/internal/config"
	"github.com/voxrelay/server/internal/language"
	"github.com/voxrelay/server/usecase"
)

// fakeSpeechToText lets each test script the collaborator's behavior.
type fakeSpeechToText struct {
	mu         sync.Mutex
	calls      int
	configs    []repositories.AudioConfig
	transcribe func(call int, audio []byte, cfg repositories.AudioConfig) ([]string, error)
}

func (f *fakeSpeechToText) Transcribe(ctx context.Context, audio []byte, cfg repositories.AudioConfig) ([]string, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.configs = append(f.configs, cfg)
	fn := f.transcribe
	f.mu.Unlock()

	if fn == nil {
		return []string{"hello"}, nil
	}
	return fn(call, audio, cfg)
}

func (f *fakeSpeechToText) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeTranslator struct {
	mu    sync.Mutex
	calls int
	out   string
	err   error
}

func (f *fakeTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.out == "" {
		return "translated:" + text, nil
	}
	return f.out, nil
}

func testConfig() *config.Config {
	return &config.Config{
		MaxPending:           8,
		RateLimitWindow:      10 * time.Second,
		RateLimitMaxRequests: 20,
		MaxAudioBytes:        512 * 1024,
		DefaultSampleRate:    16000,
		DefaultEncoding:      "LINEAR16",
		PrimaryLanguage:      "en",
		SecondaryLanguage:    "es",
		PrimaryLocale:        "en-US",
		SecondaryLocale:      "es-ES",
		FallbackLanguage:     "en-US",
	}
}

func setupTestHub(t testing.TB, cfg *config.Config, stt repositories.SpeechToText, translator repositories.Translator) *Hub {
	t.Helper()
	logger := zap.NewNop() // No-op logger for tests

	transcriber := usecase.NewTranscriptionService(stt, translator, language.NewPolicy(cfg), logger)
	return NewHub(cfg, transcriber, logger)
}

// newTestClient builds a client without a real websocket connection and
// registers it directly in the hub, the same way the handlers would.
func newTestClient(t testing.TB, hub *Hub, peerID string) *Client {
	t.Helper()
	client := newClient(hub, nil, peerID, zap.NewNop())

	hub.mu.Lock()
	group, ok := hub.peers[peerID]
	if !ok {
		group = make(map[*Client]struct{})
		hub.peers[peerID] = group
	}
	group[client] = struct{}{}
	hub.mu.Unlock()

	return client
}

// recvEvent waits for one outbound event on the client's send channel.
func recvEvent(t *testing.T, client *Client) map[string]interface{} {
	t.Helper()
	select {
	case payload := <-client.send:
		var event map[string]interface{}
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("failed to unmarshal outbound event: %v", err)
		}
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no event received within timeout")
		return nil
	}
}

// assertNoEvent asserts the client receives nothing for the given duration.
func assertNoEvent(t *testing.T, client *Client, d time.Duration) {
	t.Helper()
	select {
	case payload := <-client.send:
		t.Fatalf("unexpected event: %s", payload)
	case <-time.After(d):
	}
}

func TestNewHub(t *testing.T) {
	hub := setupTestHub(t, testConfig(), &fakeSpeechToText{}, nil)

	if hub == nil {
		t.Fatal("NewHub returned nil")
	}
	if hub.peers == nil {
		t.Error("Hub peers map not initialized")
	}
	if hub.register == nil {
		t.Error("Hub register channel not initialized")
	}
	if hub.unregister == nil {
		t.Error("Hub unregister channel not initialized")
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := setupTestHub(t, testConfig(), &fakeSpeechToText{}, nil)
	go hub.Run()

	client := newClient(hub, nil, "peer-1", zap.NewNop())
	hub.register <- client

	deadline := time.Now().Add(time.Second)
	for len(hub.ActivePeers()) != 1 {
		if time.Now().After(deadline) {
			t.Fatal("peer was not registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.unregister <- client

	deadline = time.Now().Add(time.Second)
	for len(hub.ActivePeers()) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("peer was not unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSendToPeerFansOutToGroup(t *testing.T) {
	hub := setupTestHub(t, testConfig(), &fakeSpeechToText{}, nil)

	first := newTestClient(t, hub, "peer-1")
	second := newTestClient(t, hub, "peer-1")

	message := []byte(`{"type":"test"}`)
	if err := hub.SendToPeer("peer-1", message); err != nil {
		t.Fatalf("SendToPeer failed: %v", err)
	}

	for _, client := range []*Client{first, second} {
		select {
		case received := <-client.send:
			if string(received) != string(message) {
				t.Errorf("expected %s, got %s", message, received)
			}
		case <-time.After(time.Second):
			t.Error("group member did not receive message")
		}
	}
}

func TestSendToPeerUnknownIdentity(t *testing.T) {
	hub := setupTestHub(t, testConfig(), &fakeSpeechToText{}, nil)

	if err := hub.SendToPeer("nobody", []byte(`{}`)); err != ErrPeerNotFound {
		t.Errorf("expected ErrPeerNotFound, got %v", err)
	}
}

func TestIdentityGate(t *testing.T) {
	hub := setupTestHub(t, testConfig(), &fakeSpeechToText{}, nil)
	go hub.Run()

	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		peerID := strings.TrimSpace(c.QueryParam("peer_id"))
		if peerID == "" {
			return echo.NewHTTPError(401, "identity required")
		}
		return ServeWS(hub, c, peerID, zap.NewNop())
	})

	server := httptest.NewServer(e)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	// Without an identity the connection must be refused.
	if _, _, err := websocket.DefaultDialer.Dial(wsURL, nil); err == nil {
		t.Error("connection without identity should be refused")
	}

	// Blank identity is equivalent to absent.
	if _, _, err := websocket.DefaultDialer.Dial(wsURL+"?peer_id=%20%20", nil); err == nil {
		t.Error("connection with blank identity should be refused")
	}

	ws, _, err := websocket.DefaultDialer.Dial(wsURL+"?peer_id=alice", nil)
	if err != nil {
		t.Fatalf("connection with identity failed: %v", err)
	}
	defer ws.Close()

	deadline := time.Now().Add(time.Second)
	for len(hub.ActivePeers()) != 1 {
		if time.Now().After(deadline) {
			t.Fatal("identified peer was not registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPeerTokenRoundTrip(t *testing.T) {
	token, err := auth.GeneratePeerToken("peer-42")
	if err != nil {
		t.Fatalf("GeneratePeerToken failed: %v", err)
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.PeerID != "peer-42" {
		t.Errorf("expected peer ID peer-42, got %q", claims.PeerID)
	}
}

// ABOUTME: Tests for the generation backend client
// ABOUTME: Tests construction and inbound message routing
package genclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/promptdj/promptdj-go/internal/protocol"
)

func TestNewClient(t *testing.T) {
	config := Config{
		Endpoint: "wss://example.invalid/session",
		APIKey:   "test-key",
		Model:    "models/test-music",
	}

	client := NewClient(config)
	if client == nil {
		t.Fatal("expected client to be created")
	}

	if client.config.Model != "models/test-music" {
		t.Errorf("expected model models/test-music, got %s", client.config.Model)
	}

	if client.IsConnected() {
		t.Error("expected new client to be disconnected")
	}
}

func TestHandleMessageSetupComplete(t *testing.T) {
	client := NewClient(Config{})

	client.handleMessage([]byte(`{"setupComplete":{"sampleRateHertz":48000,"channels":2}}`))

	select {
	case ack := <-client.SetupComplete():
		if ack.SampleRateHertz != 48000 {
			t.Errorf("expected 48000Hz, got %d", ack.SampleRateHertz)
		}
		if ack.Channels != 2 {
			t.Errorf("expected 2 channels, got %d", ack.Channels)
		}
	default:
		t.Fatal("expected setup acknowledgement on channel")
	}
}

func TestHandleMessageAudioChunks(t *testing.T) {
	client := NewClient(Config{})

	client.handleMessage([]byte(`{"serverContent":{"audioChunks":[{"data":"AAAA"},{"data":"BBBB"}]}}`))

	want := []string{"AAAA", "BBBB"}
	for i, w := range want {
		select {
		case got := <-client.AudioChunks():
			if got != w {
				t.Errorf("chunk %d: expected %q, got %q", i, w, got)
			}
		default:
			t.Fatalf("expected chunk %d on channel", i)
		}
	}
}

func TestHandleMessageFilteredPrompt(t *testing.T) {
	client := NewClient(Config{})

	client.handleMessage([]byte(`{"filteredPrompt":{"text":"loud noises","filteredReason":"unsafe"}}`))

	select {
	case fp := <-client.FilteredPrompts():
		if fp.Text != "loud noises" || fp.FilteredReason != "unsafe" {
			t.Errorf("unexpected filtered prompt: %+v", fp)
		}
	default:
		t.Fatal("expected filtered prompt on channel")
	}
}

func TestConcurrentSenders(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	client := NewClient(Config{
		Endpoint: "ws" + strings.TrimPrefix(srv.URL, "http"),
		APIKey:   "test-key",
		Model:    "models/test-music",
	})
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer client.Close()

	// The throttled weight sender runs on its own goroutine alongside the
	// control path; writes from both must serialize on the connection.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = client.SetWeightedPrompts([]protocol.WeightedPrompt{{Text: "funk", Weight: 1.0}})
				_ = client.Play()
			}
		}()
	}
	wg.Wait()
}

func TestHandleMessageMalformed(t *testing.T) {
	client := NewClient(Config{})

	// Must not panic or deliver anything
	client.handleMessage([]byte(`{not json`))

	select {
	case <-client.AudioChunks():
		t.Error("unexpected audio chunk from malformed message")
	case <-client.SetupComplete():
		t.Error("unexpected setup ack from malformed message")
	default:
	}
}

// ABOUTME: WebSocket client for the realtime music generation backend
// ABOUTME: Handles connection, setup, and message routing to typed channels
package genclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/promptdj/promptdj-go/internal/protocol"
)

// Config holds client configuration
type Config struct {
	Endpoint string // wss endpoint of the generation service
	APIKey   string
	Model    string
}

// Client is a single live connection to the generation backend. All transport
// failures are fatal to the connection: the error is delivered once on the
// Closed channel and the client is not reusable afterward.
type Client struct {
	config    Config
	sessionID string
	conn      *websocket.Conn
	mu        sync.RWMutex

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc

	audioChunks     chan string
	setupComplete   chan protocol.SetupComplete
	filteredPrompts chan protocol.FilteredPrompt
	closed          chan error
	closeOnce       sync.Once
}

// NewClient creates a client for one session attempt.
func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:          config,
		sessionID:       uuid.New().String(),
		ctx:             ctx,
		cancel:          cancel,
		audioChunks:     make(chan string, 100),
		setupComplete:   make(chan protocol.SetupComplete, 1),
		filteredPrompts: make(chan protocol.FilteredPrompt, 10),
		closed:          make(chan error, 1),
	}
}

// Connect dials the backend and sends the setup message. The handshake is
// acknowledged asynchronously via the SetupComplete channel.
func (c *Client) Connect(ctx context.Context) error {
	u, err := url.Parse(c.config.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", c.config.APIKey)
	u.RawQuery = q.Encode()

	log.Printf("Session %s connecting to %s", c.sessionID, u.Host)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	setup := protocol.ClientMessage{
		Setup: &protocol.Setup{Model: c.config.Model},
	}
	if err := c.sendJSON(setup); err != nil {
		c.Close()
		return fmt.Errorf("failed to send setup: %w", err)
	}

	go c.readMessages()

	return nil
}

// AudioChunks delivers base64-encoded PCM payloads in arrival order.
func (c *Client) AudioChunks() <-chan string { return c.audioChunks }

// SetupComplete delivers the handshake acknowledgement once per connection.
func (c *Client) SetupComplete() <-chan protocol.SetupComplete { return c.setupComplete }

// FilteredPrompts delivers prompt-rejection notices.
func (c *Client) FilteredPrompts() <-chan protocol.FilteredPrompt { return c.filteredPrompts }

// Closed delivers the terminal error (nil for a clean local close) exactly once.
func (c *Client) Closed() <-chan error { return c.closed }

// SetWeightedPrompts sends the full weighted-prompt set.
func (c *Client) SetWeightedPrompts(prompts []protocol.WeightedPrompt) error {
	return c.sendJSON(protocol.ClientMessage{
		ClientContent: &protocol.ClientContent{WeightedPrompts: prompts},
	})
}

// SetConfig sends session-level generation parameters.
func (c *Client) SetConfig(cfg protocol.GenerationConfig) error {
	return c.sendJSON(protocol.ClientMessage{MusicGenerationConfig: &cfg})
}

// Play asks the backend to start streaming audio.
func (c *Client) Play() error {
	return c.sendJSON(protocol.ClientMessage{PlaybackControl: protocol.ControlPlay})
}

// Pause asks the backend to stop streaming while keeping the session.
func (c *Client) Pause() error {
	return c.sendJSON(protocol.ClientMessage{PlaybackControl: protocol.ControlPause})
}

// Stop ends generation for this session.
func (c *Client) Stop() error {
	return c.sendJSON(protocol.ClientMessage{PlaybackControl: protocol.ControlStop})
}

// sendJSON sends a message under the write lock. The lock is exclusive:
// gorilla/websocket allows at most one concurrent writer, and the throttled
// weight sender runs on its own goroutine alongside the control path.
func (c *Client) sendJSON(msg protocol.ClientMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages until the connection dies.
func (c *Client) readMessages() {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(err)
			return
		}

		c.handleMessage(data)
	}
}

// handleMessage routes one inbound JSON message to its channel.
func (c *Client) handleMessage(data []byte) {
	var msg protocol.ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse server message: %v", err)
		return
	}

	switch {
	case msg.SetupComplete != nil:
		select {
		case c.setupComplete <- *msg.SetupComplete:
		case <-c.ctx.Done():
		}

	case msg.ServerContent != nil:
		for _, chunk := range msg.ServerContent.AudioChunks {
			select {
			case c.audioChunks <- chunk.Data:
			case <-c.ctx.Done():
				return
			}
		}

	case msg.FilteredPrompt != nil:
		select {
		case c.filteredPrompts <- *msg.FilteredPrompt:
		case <-c.ctx.Done():
		}

	default:
		log.Printf("Unknown server message: %s", string(data))
	}
}

// fail delivers the terminal error and tears the connection down.
func (c *Client) fail(err error) {
	c.closeOnce.Do(func() {
		log.Printf("Session %s lost: %v", c.sessionID, err)
		c.closed <- err
	})
	c.teardown()
}

// Close closes the connection locally. Delivers a nil terminal error so
// waiters unblock.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.closed <- nil
	})
	c.teardown()
}

func (c *Client) teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// SessionID identifies this connection attempt in logs.
func (c *Client) SessionID() string {
	return c.sessionID
}

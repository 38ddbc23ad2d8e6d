package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/lisan/domain"
	"github.com/satriahrh/lisan/domain/entities"
	"github.com/satriahrh/lisan/domain/repositories"
	"github.com/satriahrh/lisan/internal/notification"
	"github.com/satriahrh/lisan/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	// Size of the binary frames a clip is split into
	playbackChunkSize = 1024
)

var ErrClientClosed = errors.New("websocket client closed")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HubConfig holds what every session coordinator is built from
type HubConfig struct {
	Catalog         *entities.Catalog
	DefaultPair     entities.LanguagePair
	NotificationTTL time.Duration
	Translator      repositories.Translator
	Synthesizer     repositories.TextToSpeech
	Capability      usecase.Capability
	// HostClipboard is used for copy when set; otherwise text is sent to the browser
	HostClipboard repositories.Clipboard
}

// Hub maintains the set of active clients
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	// closed when Run returns
	stopped chan struct{}

	config    HubConfig
	validator *MessageValidator
	logger    *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(config HubConfig, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
		config:     config,
		validator:  NewMessageValidator(),
		logger:     logger,
	}
}

// Run starts the hub's main loop. It returns when ctx is done, after closing
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("clientID", client.id), zap.String("userID", client.userID))

		case client := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, client.id)
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("clientID", client.id))

		case <-ctx.Done():
			for _, client := range h.snapshotClients() {
				client.shutdown()
			}
			return
		}
	}
}

// ClientCount returns the number of registered clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) snapshotClients() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and its coordinator.
// It is also the coordinator's player, clipboard and event sink.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// closed once the client shuts down
	done      chan struct{}
	closeOnce sync.Once

	// cancels work started on behalf of this client
	ctx    context.Context
	cancel context.CancelFunc

	id     string
	userID string
	logger *zap.Logger

	coordinator   *usecase.Coordinator
	notifications *notification.Service

	mu           sync.Mutex
	lastActivity time.Time
}

var (
	_ repositories.Player    = (*Client)(nil)
	_ repositories.Clipboard = (*Client)(nil)
	_ usecase.EventSink      = (*Client)(nil)
)

// HandleWebSocket upgrades the request and starts a session for userID
func (h *Hub) HandleWebSocket(c echo.Context, userID string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client, err := h.newClient(conn, userID)
	if err != nil {
		h.logger.Error("Failed to create session", zap.Error(err))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "session unavailable"))
		conn.Close()
		return nil
	}

	select {
	case h.register <- client:
	case <-h.stopped:
		client.shutdown()
		conn.Close()
		return nil
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	client.StateChanged(client.coordinator.Snapshot())
	return nil
}

func (h *Hub) newClient(conn *websocket.Conn, userID string) (*Client, error) {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	logger := h.logger.With(zap.String("clientID", id))

	client := &Client{
		hub:          h,
		conn:         conn,
		send:         make(chan WriteData, 256),
		done:         make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
		id:           id,
		userID:       userID,
		logger:       logger,
		lastActivity: time.Now(),
	}

	client.notifications = notification.NewService(logger, notification.WithTTL(h.config.NotificationTTL))
	client.notifications.Subscribe(client.notificationChanged)

	var clipboard repositories.Clipboard = client
	if h.config.HostClipboard != nil {
		clipboard = h.config.HostClipboard
	}

	coordinator, err := usecase.NewCoordinator(usecase.Dependencies{
		Catalog:     h.config.Catalog,
		Pair:        h.config.DefaultPair,
		Notifier:    client.notifications,
		Translator:  h.config.Translator,
		Synthesizer: h.config.Synthesizer,
		Player:      client,
		Capability:  h.config.Capability,
		Clipboard:   clipboard,
		Events:      client,
		Logger:      logger,
	})
	if err != nil {
		cancel()
		client.notifications.Close()
		return nil, err
	}
	client.coordinator = coordinator
	return client, nil
}

// readPump pumps messages from the websocket connection to the coordinator.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stopped:
		}
		c.shutdown()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}
		c.touch()

		switch messageType {
		case websocket.TextMessage:
			// Process JSON messages (control messages, metadata)
			c.processMessage(message)
		case websocket.BinaryMessage:
			// Process binary audio data directly
			c.processBinaryAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps queued messages to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				c.shutdown()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown()
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// shutdown stops the session. Safe to call more than once.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.cancel()
		c.conn.SetReadDeadline(time.Now())
		go c.coordinator.Close()
	})
}

func (c *Client) touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

func (c *Client) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// enqueue blocks until the write pump accepts data or the client closes
func (c *Client) enqueue(ctx context.Context, data WriteData) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClientClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) sendJSON(ctx context.Context, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return c.enqueue(ctx, WriteData{Type: websocket.TextMessage, Payload: payload})
}

func (c *Client) sendError(code, message, details string) {
	if err := c.sendJSON(c.ctx, CreateErrorMessage(code, message, details)); err != nil {
		c.logger.Debug("Dropped error message", zap.Error(err))
	}
}

// processMessage dispatches one control message
func (c *Client) processMessage(message []byte) {
	msg, err := c.hub.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Invalid message", zap.Error(err))
		c.sendError("invalid_message", "Message could not be processed", err.Error())
		return
	}

	switch m := msg.(type) {
	case *PingMessage:
		c.sendJSON(c.ctx, CreatePongMessage(m.Data))

	case *SetLanguagesMessage:
		if err := c.coordinator.SetLanguages(entities.LanguagePair{Source: m.Source, Target: m.Target}); err != nil {
			c.sendError("unsupported_language", "Language is not supported", err.Error())
		}

	case *SetSourceTextMessage:
		c.coordinator.SetSourceText(m.Text)

	case *AreaMessage:
		area := m.Area
		if m.Type == MessageTypeSpeak {
			go c.coordinator.Speak(c.ctx, area)
		} else {
			go c.coordinator.Copy(c.ctx, area)
		}

	case *ListeningStartMessage:
		c.coordinator.StartListening(c.ctx, usecase.AudioFormat{SampleRate: m.SampleRate, Encoding: m.Encoding})

	case *DismissMessage:
		c.notifications.Dismiss(m.ID)

	case *BaseMessage:
		switch m.Type {
		case MessageTypeTranslate:
			go c.coordinator.Translate(c.ctx)
		case MessageTypeSwap:
			c.coordinator.Swap()
		case MessageTypeListeningEnd:
			if err := c.coordinator.EndUtterance(); err != nil {
				c.logger.Debug("Ignoring listening_end", zap.Error(err))
			}
		case MessageTypeListeningStop:
			c.coordinator.StopListening()
		}
	}
}

// processBinaryAudioChunk streams audio into the running recognition session
func (c *Client) processBinaryAudioChunk(data []byte) {
	if err := c.coordinator.FeedAudio(data); err != nil {
		c.logger.Debug("Dropped audio chunk", zap.Int("size", len(data)), zap.Error(err))
	}
}

// Play streams a clip as binary frames between playback_start and playback_end
func (c *Client) Play(ctx context.Context, clip *entities.AudioClip) error {
	if err := c.streamClip(ctx, clip); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPlaybackFailure, err)
	}
	return nil
}

func (c *Client) streamClip(ctx context.Context, clip *entities.AudioClip) error {
	data := clip.Data()
	if data == nil {
		return errors.New("clip already released")
	}
	if err := c.sendJSON(ctx, &PlaybackStartMessage{
		BaseMessage: newBase(MessageTypePlaybackStart),
		ClipID:      clip.ID,
		ContentType: clip.ContentType,
		Size:        len(data),
	}); err != nil {
		return err
	}

	for start := 0; start < len(data); start += playbackChunkSize {
		end := start + playbackChunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := c.enqueue(ctx, WriteData{Type: websocket.BinaryMessage, Payload: data[start:end]}); err != nil {
			return err
		}
	}

	return c.sendJSON(ctx, &PlaybackEndMessage{
		BaseMessage: newBase(MessageTypePlaybackEnd),
		ClipID:      clip.ID,
	})
}

// WriteText asks the browser to write text to its clipboard
func (c *Client) WriteText(ctx context.Context, text string) error {
	if err := c.sendJSON(ctx, &ClipboardWriteMessage{
		BaseMessage: newBase(MessageTypeClipboardWrite),
		Text:        text,
	}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrClipboardFailure, err)
	}
	return nil
}

// StateChanged pushes a coordinator snapshot to the browser
func (c *Client) StateChanged(snapshot usecase.Snapshot) {
	if err := c.sendJSON(c.ctx, CreateStateMessage(snapshot)); err != nil {
		c.logger.Debug("Dropped state update", zap.Error(err))
	}
}

func (c *Client) notificationChanged(event notification.Event) {
	var msg interface{}
	switch event.Type {
	case notification.EventAdded:
		msg = &NotificationAddedMessage{
			BaseMessage:  newBase(MessageTypeNotificationAdded),
			Notification: event.Notification,
		}
	case notification.EventRemoved:
		msg = &NotificationRemovedMessage{
			BaseMessage: newBase(MessageTypeNotificationRemoved),
			ID:          event.Notification.ID,
		}
	default:
		return
	}

	if err := c.sendJSON(c.ctx, msg); err != nil {
		c.logger.Debug("Dropped notification event", zap.Error(err))
	}
}

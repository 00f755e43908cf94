package relay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/ohler55/ojg/oj"

	"beamer/internal/logging"
	"beamer/internal/mapping"
)

const outboxDepth = 256

// Handler receives inbound relay traffic. Implementations marshal the calls
// onto the engine goroutine; DispatchAction blocks until the engine has
// applied the action so the command response reflects the outcome.
type Handler interface {
	DispatchEntityEvent(kind mapping.EntityKind, item map[string]any, isDelete bool)
	DispatchAction(targetPath, action string, payload map[string]any) bool
	DispatchConnected()
}

// Options configures a relay client.
type Options struct {
	URL       string
	ServiceID string
	Reconnect time.Duration
	Handler   Handler
	Logger    *slog.Logger
	Dialer    *websocket.Dialer
}

// Client is a reconnecting websocket client. It doubles as the engine's
// emitter: EmitState, EmitStatus, EmitDeleted and RegisterTarget queue
// frames for the write loop, dropping the oldest frame when the queue is
// full. Dropped state converges again on the next reconnect announcement.
type Client struct {
	url       string
	serviceID string
	machineID string
	reconnect time.Duration
	handler   Handler
	logger    *slog.Logger
	dialer    *websocket.Dialer

	mu       sync.Mutex
	clientID string

	sendMu sync.Mutex
	outbox chan string
}

// New validates options and builds a client. Run must be called before any
// frames are delivered.
func New(opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New("relay url required")
	}
	if opts.Handler == nil {
		return nil, errors.New("relay handler required")
	}
	serviceID := opts.ServiceID
	if serviceID == "" {
		serviceID = "beamer"
	}
	reconnect := opts.Reconnect
	if reconnect <= 0 {
		reconnect = 5 * time.Second
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	machineID, err := os.Hostname()
	if err != nil || machineID == "" {
		machineID = serviceID
	}
	return &Client{
		url:       opts.URL,
		serviceID: serviceID,
		machineID: machineID,
		reconnect: reconnect,
		handler:   opts.Handler,
		logger:    logging.NewComponentLogger(opts.Logger, "relay"),
		dialer:    dialer,
		outbox:    make(chan string, outboxDepth),
	}, nil
}

// Run dials the relay and serves the connection, re-dialing after failures
// until ctx is cancelled.
func (c *Client) Run(ctx context.Context) {
	for {
		if err := c.serve(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn("relay connection lost",
				logging.Error(err),
				logging.Duration("retry_in", c.reconnect))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnect):
		}
	}
}

func (c *Client) serve(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	defer conn.Close()
	c.logger.Info("relay connected", logging.String("url", c.url))

	done := make(chan struct{})
	defer close(done)
	go c.writeLoop(ctx, conn, done)

	c.announce()
	c.handler.DispatchConnected()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}
		c.handleFrame(data)
	}
}

func (c *Client) writeLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(time.Second)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			conn.Close()
			return
		case <-done:
			return
		case frame := <-c.outbox:
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				conn.Close()
				return
			}
		}
	}
}

// send queues one frame. When the outbox is full the oldest queued frame is
// discarded to make room; the mutex keeps the drop-then-enqueue window to a
// single producer so the final enqueue cannot block.
func (c *Client) send(frame map[string]any) {
	encoded := oj.JSON(frame)
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	select {
	case c.outbox <- encoded:
		return
	default:
	}
	select {
	case <-c.outbox:
		c.logger.Warn("relay outbox full, dropped oldest frame")
	default:
	}
	c.outbox <- encoded
}

func (c *Client) announce() {
	c.mu.Lock()
	clientID := c.clientID
	c.mu.Unlock()
	for _, frame := range announceFrames(c.machineID, c.serviceID, clientID) {
		c.send(frame)
	}
}

func (c *Client) handleFrame(raw []byte) {
	parsed, err := oj.Parse(raw)
	if err != nil {
		c.logger.Warn("relay frame not parseable", logging.Error(err))
		return
	}
	frame, ok := parsed.(map[string]any)
	if !ok {
		return
	}
	event, _ := frame["event"].(string)
	data, _ := frame["data"].(map[string]any)
	switch event {
	case framePing:
	case frameEvent:
		c.handleEvent(data)
	case frameCommand:
		c.handleCommand(data)
	default:
		c.logger.Debug("relay frame ignored", logging.String("event", event))
	}
}

func (c *Client) handleEvent(data map[string]any) {
	dispatchEvent(c.handler, data)
}

// dispatchEvent routes one entity change to the handler. Item types outside
// the three entity stores are ignored.
func dispatchEvent(handler Handler, data map[string]any) {
	if data == nil {
		return
	}
	itemType, _ := data["itemType"].(string)
	kind, ok := kindFor(itemType)
	if !ok {
		return
	}
	item, _ := data["item"].(map[string]any)
	if item == nil {
		return
	}
	changeType, _ := data["changeType"].(string)
	handler.DispatchEntityEvent(kind, item, changeType == changeDel)
}

func (c *Client) handleCommand(data map[string]any) {
	if data == nil {
		return
	}
	commandID, _ := data["commandId"].(string)
	command, _ := data["command"].(map[string]any)
	if command == nil {
		return
	}
	tx, _ := command["tx"].(string)

	switch commandID {
	case commandSetClientID:
		id, _ := command["clientId"].(string)
		c.mu.Lock()
		c.clientID = id
		c.mu.Unlock()
		c.logger.Info("relay assigned client id", logging.String("client_id", id))
		c.announce()
		c.handler.DispatchConnected()
	case commandExecTargetAction:
		action, _ := command["action"].(map[string]any)
		if action == nil {
			c.send(commandResponse(false, commandID, tx))
			return
		}
		payload, _ := command["data"].(map[string]any)
		actionID, _ := action["id"].(string)
		targetID, _ := action["targetId"].(string)
		name := strings.TrimPrefix(actionID, targetID+":")
		handled := c.handler.DispatchAction(targetID, name, payload)
		if !handled {
			c.logger.Warn("relay action not handled",
				logging.String("target", targetID),
				logging.String("action", name))
		}
		c.send(commandResponse(handled, commandID, tx))
	default:
		c.logger.Debug("relay command ignored", logging.String("command_id", commandID))
	}
}

// EmitState publishes a full entity snapshot, both as the entity item and as
// a pulse on the target's state emitter.
func (c *Client) EmitState(kind mapping.EntityKind, state map[string]any) {
	c.send(envelope(changeSet, itemTypeFor(kind), state))
	if id, ok := state["id"].(string); ok && id != "" {
		c.send(pulseFrame(mapping.TargetPath(kind, id)+":state", state))
	}
}

// EmitStatus publishes an entity health pulse.
func (c *Client) EmitStatus(kind mapping.EntityKind, id string, status map[string]any) {
	c.send(pulseFrame(mapping.TargetPath(kind, id)+":status", status))
}

// EmitDeleted publishes an entity removal.
func (c *Client) EmitDeleted(kind mapping.EntityKind, id string) {
	c.send(envelope(changeDel, itemTypeFor(kind), map[string]any{"id": id}))
}

// RegisterTarget announces one entity's action target.
func (c *Client) RegisterTarget(kind mapping.EntityKind, id string) {
	for _, frame := range registrationFrames(c.serviceID, kind, id) {
		c.send(frame)
	}
}

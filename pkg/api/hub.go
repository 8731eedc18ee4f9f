package api

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/open-teleop/keyboard-teleop/domain/teleop"
	customlog "github.com/open-teleop/keyboard-teleop/pkg/log"
	"github.com/open-teleop/keyboard-teleop/pkg/twist"
)

// hubClient is one websocket subscriber. Its mailbox holds at most one
// command; a newer command replaces an undelivered one.
type hubClient struct {
	id      string
	mailbox chan twist.Msg
}

func (c *hubClient) offer(msg twist.Msg) {
	for {
		select {
		case c.mailbox <- msg:
			return
		default:
		}
		select {
		case <-c.mailbox:
		default:
		}
	}
}

// CommandHub mirrors published velocity commands to websocket clients. It
// implements teleop.Publisher and never reports an error, so a stalled
// browser cannot affect the control loop.
type CommandHub struct {
	logger customlog.Logger

	mu      sync.RWMutex
	clients map[string]*hubClient
	last    *twist.Msg
	closed  bool
}

// NewCommandHub creates an empty hub.
func NewCommandHub(logger customlog.Logger) *CommandHub {
	return &CommandHub{
		logger:  logger,
		clients: make(map[string]*hubClient),
	}
}

// Publish implements teleop.Publisher.
func (h *CommandHub) Publish(cmd teleop.VelocityCommand) error {
	msg := twist.FromCommand(cmd)

	// offer never blocks, and mailboxes are only closed under mu.
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.last = &msg
	for _, c := range h.clients {
		c.offer(msg)
	}
	return nil
}

// ClientCount returns the number of connected websocket clients.
func (h *CommandHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. Later commands are dropped.
func (h *CommandHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for id, c := range h.clients {
		close(c.mailbox)
		delete(h.clients, id)
	}
	return nil
}

// register adds a client whose mailbox starts with the latest command, if any.
// It returns nil once the hub is closed.
func (h *CommandHub) register() *hubClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	c := &hubClient{id: uuid.NewString(), mailbox: make(chan twist.Msg, 1)}
	if h.last != nil {
		c.mailbox <- *h.last
	}
	h.clients[c.id] = c
	return c
}

func (h *CommandHub) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		close(c.mailbox)
		delete(h.clients, id)
	}
}

// Handler streams commands to one websocket connection as Twist JSON until
// the client disconnects or the hub closes.
func (h *CommandHub) Handler(conn *websocket.Conn) {
	client := h.register()
	if client == nil {
		return
	}
	defer h.unregister(client.id)

	logger := h.logger.WithField("client", client.id)
	logger.Infof("cmd_vel WebSocket connected: %s", conn.RemoteAddr())

	// Drain reads so close frames are noticed.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			logger.Infof("cmd_vel WebSocket disconnected")
			return
		case msg, ok := <-client.mailbox:
			if !ok {
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				logger.Warnf("Failed to write command to WebSocket: %v", err)
				return
			}
		}
	}
}

// Package realtime is the in-process broadcast layer between a running build
// and the viewers watching it.
package realtime

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is reported to a publisher's subscribe callback.
type Status string

const (
	StatusSubscribed   Status = "SUBSCRIBED"
	StatusChannelError Status = "CHANNEL_ERROR"
	StatusClosed       Status = "CLOSED"
)

var (
	ErrHubClosed     = errors.New("broadcast hub is closed")
	ErrChannelClosed = errors.New("broadcast channel was removed")
	ErrNotSubscribed = errors.New("broadcast channel is not subscribed")
)

// Conn is a publisher's handle on a named channel.
type Conn interface {
	Name() string
	Subscribe(onStatus func(Status, error))
	Send(ctx context.Context, e Event) error
}

type HubConfig struct {
	// ViewerBuffer is the per-viewer queue length.
	ViewerBuffer int
	// SendTimeout bounds how long a send waits on one full viewer queue
	// before that viewer is dropped.
	SendTimeout time.Duration
}

func DefaultHubConfig() HubConfig {
	return HubConfig{ViewerBuffer: 256, SendTimeout: 2 * time.Second}
}

// Hub fans events out to every viewer of a named channel.
type Hub struct {
	cfg HubConfig

	mu       sync.Mutex
	closed   bool
	topics   map[string]*topic
	channels map[*Channel]struct{}
}

type topic struct {
	// sendMu serializes publishers so every viewer observes one order.
	sendMu  sync.Mutex
	mu      sync.Mutex
	viewers map[string]*Viewer
}

func NewHub(cfg HubConfig) *Hub {
	def := DefaultHubConfig()
	if cfg.ViewerBuffer <= 0 {
		cfg.ViewerBuffer = def.ViewerBuffer
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = def.SendTimeout
	}
	return &Hub{
		cfg:      cfg,
		topics:   make(map[string]*topic),
		channels: make(map[*Channel]struct{}),
	}
}

func (h *Hub) topicLocked(name string) *topic {
	t, ok := h.topics[name]
	if !ok {
		t = &topic{viewers: make(map[string]*Viewer)}
		h.topics[name] = t
	}
	return t
}

// Channel acquires a publisher handle. It must be released with RemoveChannel.
func (h *Hub) Channel(name string) Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &Channel{hub: h, name: name, topic: h.topicLocked(name)}
	h.channels[c] = struct{}{}
	return c
}

// RemoveChannel releases a handle from Channel. Removing twice is a no-op.
func (h *Hub) RemoveChannel(conn Conn) {
	c, ok := conn.(*Channel)
	if !ok {
		return
	}
	h.mu.Lock()
	delete(h.channels, c)
	h.mu.Unlock()
	c.remove()
}

// ActiveChannels counts publisher handles that were acquired and not removed.
func (h *Hub) ActiveChannels() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels)
}

// Listen registers a viewer on the named channel.
func (h *Hub) Listen(name string) (*Viewer, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	t := h.topicLocked(name)
	h.mu.Unlock()

	v := &Viewer{
		id:     uuid.NewString(),
		events: make(chan Envelope, h.cfg.ViewerBuffer),
		done:   make(chan struct{}),
		topic:  t,
	}
	t.mu.Lock()
	t.viewers[v.id] = v
	t.mu.Unlock()
	return v, nil
}

// ViewerCount returns the number of viewers on a channel.
func (h *Hub) ViewerCount(name string) int {
	h.mu.Lock()
	t, ok := h.topics[name]
	h.mu.Unlock()
	if !ok {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.viewers)
}

func (h *Hub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Close disconnects every viewer. Later subscribes report CHANNEL_ERROR.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	topics := make([]*topic, 0, len(h.topics))
	for _, t := range h.topics {
		topics = append(topics, t)
	}
	h.mu.Unlock()

	for _, t := range topics {
		for _, v := range t.snapshot() {
			v.Close()
		}
	}
}

func (t *topic) snapshot() []*Viewer {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Viewer, 0, len(t.viewers))
	for _, v := range t.viewers {
		out = append(out, v)
	}
	return out
}

// Channel is the hub's Conn implementation.
type Channel struct {
	hub   *Hub
	name  string
	topic *topic

	mu         sync.Mutex
	subscribed bool
	removed    bool
	onStatus   func(Status, error)
}

func (c *Channel) Name() string { return c.name }

func (c *Channel) Subscribe(onStatus func(Status, error)) {
	c.mu.Lock()
	c.onStatus = onStatus
	switch {
	case c.removed:
		c.mu.Unlock()
		notify(onStatus, StatusChannelError, ErrChannelClosed)
	case c.hub.isClosed():
		c.mu.Unlock()
		notify(onStatus, StatusChannelError, ErrHubClosed)
	default:
		c.subscribed = true
		c.mu.Unlock()
		notify(onStatus, StatusSubscribed, nil)
	}
}

func notify(cb func(Status, error), s Status, err error) {
	if cb != nil {
		cb(s, err)
	}
}

func (c *Channel) remove() {
	c.mu.Lock()
	if c.removed {
		c.mu.Unlock()
		return
	}
	c.removed = true
	wasSubscribed := c.subscribed
	c.subscribed = false
	cb := c.onStatus
	c.mu.Unlock()
	if wasSubscribed {
		notify(cb, StatusClosed, nil)
	}
}

// Send delivers e to every current viewer before returning.
func (c *Channel) Send(ctx context.Context, e Event) error {
	c.mu.Lock()
	removed, subscribed := c.removed, c.subscribed
	c.mu.Unlock()
	switch {
	case removed:
		return ErrChannelClosed
	case !subscribed:
		return ErrNotSubscribed
	case c.hub.isClosed():
		return ErrHubClosed
	}

	env := NewEnvelope(e)
	c.topic.sendMu.Lock()
	defer c.topic.sendMu.Unlock()
	for _, v := range c.topic.snapshot() {
		if err := c.deliver(ctx, v, env); err != nil {
			return err
		}
	}
	return nil
}

func (c *Channel) deliver(ctx context.Context, v *Viewer, env Envelope) error {
	select {
	case v.events <- env:
		return nil
	case <-v.done:
		return nil
	default:
	}

	timer := time.NewTimer(c.hub.cfg.SendTimeout)
	defer timer.Stop()
	select {
	case v.events <- env:
		return nil
	case <-v.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		log.Printf("WARN: dropping slow viewer %s on channel %s", v.id, c.name)
		v.Close()
		return nil
	}
}

// Viewer receives every event sent on one channel while it is registered.
type Viewer struct {
	id     string
	events chan Envelope
	done   chan struct{}
	once   sync.Once
	topic  *topic
}

func (v *Viewer) ID() string { return v.id }

func (v *Viewer) Events() <-chan Envelope { return v.events }

// Done is closed once the viewer is closed, by itself or by the hub.
func (v *Viewer) Done() <-chan struct{} { return v.done }

func (v *Viewer) Close() {
	v.once.Do(func() {
		v.topic.mu.Lock()
		delete(v.topic.viewers, v.id)
		v.topic.mu.Unlock()
		close(v.done)
	})
}

// Package gateway keeps the live sessions of the HTTP front ends. Each
// connection owns one agent session, a bounded inbox and a single worker, so
// requests within a session run in arrival order while sessions run in
// parallel.
package gateway

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/hattiebot/conduit/internal/agent"
)

var (
	ErrInboxFull = errors.New("session inbox full")
	ErrClosed    = errors.New("session closed")
)

// EventError is the frame sent when a request fails without a reply.
const EventError = "error"

const eventBuffer = 64

// Frame is one outbound event for a connection.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Conn is one client connection and its session.
type Conn struct {
	ID string

	session *agent.Session
	inbox   chan string
	events  chan Frame
	done    chan struct{}
	cancel  context.CancelFunc
	once    sync.Once
	log     zerolog.Logger
}

// Submit queues text for the session's worker without waiting for it to run.
func (c *Conn) Submit(text string) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.inbox <- text:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		return ErrInboxFull
	}
}

// Events delivers the session's frames in order. It is never closed; stop
// reading when Done is closed.
func (c *Conn) Events() <-chan Frame { return c.events }

// Done is closed when the connection is closed.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) Session() *agent.Session { return c.session }

func (c *Conn) close() {
	c.once.Do(func() {
		close(c.done)
		c.cancel()
	})
}

func (c *Conn) send(f Frame) {
	select {
	case c.events <- f:
	case <-c.done:
	}
}

func (c *Conn) run(ctx context.Context) {
	for {
		select {
		case <-c.done:
			return
		case text := <-c.inbox:
			reply, err := c.session.Handle(ctx, text, func(e agent.Event) {
				c.send(Frame{Event: string(e.Type), Data: e})
			})
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				c.log.Error().Err(err).Msg("request failed")
				if reply == "" {
					c.send(Frame{Event: EventError, Data: map[string]string{"error": agent.UserMessage(err)}})
				}
			}
		}
	}
}

// Hub tracks open connections.
type Hub struct {
	loop      *agent.Loop
	inboxSize int
	log       zerolog.Logger

	mu      sync.RWMutex
	conns   map[string]*Conn
	workers conc.WaitGroup
}

// NewHub returns a hub whose sessions all run on loop.
func NewHub(loop *agent.Loop, inboxSize int, log zerolog.Logger) *Hub {
	if inboxSize <= 0 {
		inboxSize = 1
	}
	return &Hub{
		loop:      loop,
		inboxSize: inboxSize,
		log:       log,
		conns:     make(map[string]*Conn),
	}
}

// Open starts a new session under a fresh random ID.
func (h *Hub) Open() *Conn {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		ID:      id,
		session: agent.NewSession(id, h.loop),
		inbox:   make(chan string, h.inboxSize),
		events:  make(chan Frame, eventBuffer),
		done:    make(chan struct{}),
		cancel:  cancel,
		log:     h.log.With().Str("session_id", id).Logger(),
	}

	h.mu.Lock()
	h.conns[id] = c
	h.mu.Unlock()

	h.workers.Go(func() { c.run(ctx) })
	c.log.Info().Msg("session opened")
	return c
}

func (h *Hub) Get(id string) (*Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[id]
	return c, ok
}

// Close ends a session and cancels its in-flight request. Unknown IDs are ignored.
func (h *Hub) Close(id string) {
	h.mu.Lock()
	c, ok := h.conns[id]
	delete(h.conns, id)
	h.mu.Unlock()
	if ok {
		c.close()
		c.log.Info().Msg("session closed")
	}
}

// CloseAll closes every session and waits for their workers to exit.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[string]*Conn)
	h.mu.Unlock()
	for _, c := range conns {
		c.close()
	}
	h.workers.Wait()
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

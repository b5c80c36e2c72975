// Package notify debounces repository change signals and broadcasts change
// events to subscribers.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Defaults for Options.
const (
	DefaultDelay     = 150 * time.Millisecond
	DefaultKeepAlive = 20 * time.Second
	DefaultBuffer    = 16
)

// EventKind identifies the type of an Event.
type EventKind int

const (
	// Ready is sent once, immediately after subscribing.
	Ready EventKind = iota
	// Changed is sent after a debounced change has invalidated the caches.
	Changed
	// KeepAlive is sent periodically so idle streams are not timed out.
	KeepAlive
)

// Event is delivered to subscribers. Changed events carry non-decreasing
// timestamps.
type Event struct {
	Kind EventKind
	Time time.Time
}

// Invalidator drops cached state for a repository root.
type Invalidator interface {
	InvalidateCache(repoRoot string)
}

// Options configures a Notifier.
type Options struct {
	Delay     time.Duration
	KeepAlive time.Duration
	Buffer    int // per-subscriber channel capacity
	Logger    *slog.Logger
}

type subscriber struct {
	ch   chan Event
	done chan struct{}
}

// Notifier is a two-state machine. In Idle, Notify starts a fixed delay and
// moves to pending; further calls while pending are absorbed without
// extending the delay. When the delay expires the root is invalidated, the
// notifier returns to Idle and a Changed event is broadcast.
//
// Subscribers that cannot accept an event are removed immediately and their
// channel is closed.
type Notifier struct {
	root      string
	inv       Invalidator
	delay     time.Duration
	keepAlive time.Duration
	buffer    int
	logger    *slog.Logger

	mu      sync.Mutex
	pending bool
	timer   *time.Timer
	last    time.Time
	subs    map[uuid.UUID]*subscriber
	closed  bool
}

// New creates a notifier for the repository at root.
func New(root string, inv Invalidator, opts Options) *Notifier {
	n := &Notifier{
		root:      root,
		inv:       inv,
		delay:     opts.Delay,
		keepAlive: opts.KeepAlive,
		buffer:    opts.Buffer,
		logger:    opts.Logger,
		subs:      make(map[uuid.UUID]*subscriber),
	}
	if n.delay <= 0 {
		n.delay = DefaultDelay
	}
	if n.keepAlive <= 0 {
		n.keepAlive = DefaultKeepAlive
	}
	if n.buffer <= 0 {
		n.buffer = DefaultBuffer
	}
	if n.logger == nil {
		n.logger = slog.New(slog.DiscardHandler)
	}
	return n
}

// Notify records a change in the repository.
func (n *Notifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed || n.pending {
		return
	}
	n.pending = true
	n.timer = time.AfterFunc(n.delay, n.fire)
}

func (n *Notifier) fire() {
	n.inv.InvalidateCache(n.root)

	n.mu.Lock()
	defer n.mu.Unlock()

	n.pending = false
	if n.closed {
		return
	}

	now := time.Now()
	if now.Before(n.last) {
		now = n.last
	}
	n.last = now

	n.logger.Debug("broadcasting change", "root", n.root, "subscribers", len(n.subs))
	for id, s := range n.subs {
		n.sendLocked(id, s, Event{Kind: Changed, Time: now})
	}
}

// Subscribe registers a subscriber and returns its event stream. A Ready
// event is queued immediately. The stream is closed when ctx is done, when
// the subscriber falls behind, or when the notifier is closed.
func (n *Notifier) Subscribe(ctx context.Context) <-chan Event {
	s := &subscriber{
		ch:   make(chan Event, n.buffer),
		done: make(chan struct{}),
	}
	id := uuid.New()

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		close(s.ch)
		return s.ch
	}
	n.subs[id] = s
	n.sendLocked(id, s, Event{Kind: Ready, Time: time.Now()})
	n.mu.Unlock()

	n.logger.Debug("subscriber added", "id", id)
	go n.keepAliveLoop(ctx, id, s)
	return s.ch
}

func (n *Notifier) keepAliveLoop(ctx context.Context, id uuid.UUID, s *subscriber) {
	ticker := time.NewTicker(n.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			n.mu.Lock()
			n.removeLocked(id)
			n.mu.Unlock()
			return
		case <-s.done:
			return
		case t := <-ticker.C:
			n.mu.Lock()
			if cur, ok := n.subs[id]; ok {
				n.sendLocked(id, cur, Event{Kind: KeepAlive, Time: t})
			}
			n.mu.Unlock()
		}
	}
}

// sendLocked delivers ev without blocking, dropping the subscriber when its
// buffer is full.
func (n *Notifier) sendLocked(id uuid.UUID, s *subscriber, ev Event) {
	select {
	case s.ch <- ev:
	default:
		n.logger.Debug("dropping slow subscriber", "id", id)
		n.removeLocked(id)
	}
}

func (n *Notifier) removeLocked(id uuid.UUID) {
	s, ok := n.subs[id]
	if !ok {
		return
	}
	delete(n.subs, id)
	close(s.done)
	close(s.ch)
}

// Subscribers returns the number of registered subscribers.
func (n *Notifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Close stops any pending timer and closes every subscriber stream.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true
	if n.timer != nil {
		n.timer.Stop()
	}
	for id := range n.subs {
		n.removeLocked(id)
	}
}

package observer

import (
	"context"
	"fmt"
	"path"
	"sync"
)

// Handler receives dispatched application events.
type Handler interface {
	Handle(ctx context.Context, eventName string, subject interface{})
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, eventName string, subject interface{})

func (f HandlerFunc) Handle(ctx context.Context, eventName string, subject interface{}) {
	f(ctx, eventName, subject)
}

type listener struct {
	pattern string
	handler Handler
}

// Dispatcher fans application events out to the handlers whose pattern matches the
// event name. Patterns use shell-style matching where only "/" separates segments, so
// "member.*" matches both "member.visited" and "member.visit.ended".
type Dispatcher struct {
	mu        sync.RWMutex
	listeners []listener
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Listen registers handler for every event name matching pattern.
func (d *Dispatcher) Listen(pattern string, handler Handler) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid listener pattern %q: %w", pattern, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, listener{pattern: pattern, handler: handler})
	return nil
}

// Dispatch calls every matching handler in registration order and returns how many
// were called.
func (d *Dispatcher) Dispatch(ctx context.Context, eventName string, subject interface{}) int {
	d.mu.RLock()
	matched := make([]Handler, 0, len(d.listeners))
	for _, l := range d.listeners {
		// patterns were validated in Listen
		if ok, _ := path.Match(l.pattern, eventName); ok {
			matched = append(matched, l.handler)
		}
	}
	d.mu.RUnlock()

	for _, h := range matched {
		h.Handle(ctx, eventName, subject)
	}
	return len(matched)
}

// Package notify dispatches named events to handlers registered in order.
package notify

// Notifier is an ordered list of handlers per event name. Fire runs every
// handler synchronously on the caller's goroutine; a panicking handler
// propagates to the caller of Fire. Notifier is not safe for concurrent use.
type Notifier[T any] struct {
	handlers map[string][]func(T)
}

// New returns an empty notifier.
func New[T any]() *Notifier[T] {
	return &Notifier[T]{handlers: make(map[string][]func(T))}
}

// On appends h to the handlers of event.
func (n *Notifier[T]) On(event string, h func(T)) {
	if h == nil {
		return
	}
	n.handlers[event] = append(n.handlers[event], h)
}

// Fire calls every handler registered for event with payload, in
// registration order. Events without handlers are ignored.
func (n *Notifier[T]) Fire(event string, payload T) {
	for _, h := range n.handlers[event] {
		h(payload)
	}
}

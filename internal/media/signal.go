package media

// Signal is an ordered list of listeners. Implementations of Media and Button
// use it to back their On* methods.
type Signal[T any] struct {
	next      int
	listeners []listener[T]
}

type listener[T any] struct {
	id int
	fn func(T)
}

// Subscribe adds fn and returns the disposer that removes it again.
func (s *Signal[T]) Subscribe(fn func(T)) Disposer {
	s.next++
	id := s.next
	s.listeners = append(s.listeners, listener[T]{id: id, fn: fn})
	return func() {
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Emit calls every listener in subscription order. Listeners added or removed
// while emitting take effect on the next Emit.
func (s *Signal[T]) Emit(v T) {
	for _, l := range append([]listener[T](nil), s.listeners...) {
		l.fn(v)
	}
}

// Len reports the number of listeners.
func (s *Signal[T]) Len() int {
	return len(s.listeners)
}

// Void subscribes a parameterless function to a Signal[struct{}].
func Void(s *Signal[struct{}], fn func()) Disposer {
	return s.Subscribe(func(struct{}) { fn() })
}

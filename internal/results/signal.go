package results

// Signal is an ordered list of callbacks. It is not safe for concurrent
// use; signals are only touched from the scheduler goroutine.
type Signal[T any] struct {
	slots  []slot[T]
	nextID int
}

type slot[T any] struct {
	id int
	fn func(T)
}

// Connect registers fn and returns a function that removes it again.
func (s *Signal[T]) Connect(fn func(T)) (disconnect func()) {
	s.nextID++
	id := s.nextID
	s.slots = append(s.slots, slot[T]{id: id, fn: fn})
	return func() {
		for i, sl := range s.slots {
			if sl.id == id {
				s.slots = append(s.slots[:i:i], s.slots[i+1:]...)
				return
			}
		}
	}
}

// Emit calls every connected callback in connection order. Callbacks
// connected or removed during Emit take effect on the next Emit.
func (s *Signal[T]) Emit(v T) {
	slots := s.slots
	for _, sl := range slots {
		sl.fn(v)
	}
}

// Len returns the number of connected callbacks.
func (s *Signal[T]) Len() int {
	return len(s.slots)
}

// Package stack provides a LIFO with a capacity fixed at construction.
package stack

// Stack never grows past the capacity it was created with, so pushing
// onto it does not allocate.
type Stack[T any] struct {
	items []T
}

func New[T any](capacity int) *Stack[T] {
	return &Stack[T]{
		items: make([]T, 0, capacity),
	}
}

// Push reports false and leaves the stack unchanged when it is full.
func (s *Stack[T]) Push(item T) bool {
	if s.IsFull() {
		return false
	}
	s.items = append(s.items, item)
	return true
}

func (s *Stack[T]) Pop() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}

	index := len(s.items) - 1
	item := s.items[index]
	var zero T
	s.items[index] = zero
	s.items = s.items[:index]
	return item, true
}

func (s *Stack[T]) IsFull() bool {
	return len(s.items) == cap(s.items)
}

func (s *Stack[T]) Size() int {
	return len(s.items)
}

func (s *Stack[T]) Capacity() int {
	return cap(s.items)
}

// Reset empties the stack and keeps its storage.
func (s *Stack[T]) Reset() {
	clear(s.items)
	s.items = s.items[:0]
}

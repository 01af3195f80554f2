package memory

import (
	"context"
	"sync"

	"procurement-hub/internal/resource"
)

// Store es un resource.Store en memoria. El mutex serializa las escrituras,
// así que Update/Remove son atómicos respecto del callback.
type Store[T any] struct {
	mu     sync.RWMutex
	lastID int64
	order  []int64
	byID   map[int64]T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{byID: map[int64]T{}}
}

func (s *Store[T]) Find(_ context.Context) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}

func (s *Store[T]) Get(_ context.Context, id int64) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.byID[id]
	if !ok {
		var zero T
		return zero, resource.ErrNotFound
	}
	return v, nil
}

func (s *Store[T]) Insert(_ context.Context, build func(id int64) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.lastID + 1
	v, err := build(id)
	if err != nil {
		var zero T
		return zero, err
	}
	// high-water mark: un id borrado no vuelve a usarse
	s.lastID = id
	s.byID[id] = v
	s.order = append(s.order, id)
	return v, nil
}

func (s *Store[T]) Update(_ context.Context, id int64, mutate func(cur T) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	cur, ok := s.byID[id]
	if !ok {
		return zero, resource.ErrNotFound
	}
	next, err := mutate(cur)
	if err != nil {
		return zero, err
	}
	s.byID[id] = next
	return next, nil
}

func (s *Store[T]) Remove(_ context.Context, id int64, guard func(cur T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[id]
	if !ok {
		return resource.ErrNotFound
	}
	if guard != nil {
		if err := guard(cur); err != nil {
			return err
		}
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

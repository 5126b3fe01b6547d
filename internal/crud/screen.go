package crud

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Match reports whether any field contains query, ignoring case. An empty
// query matches everything; whitespace is part of the query.
func Match(query string, fields ...string) bool {
	q := strings.ToLower(query)
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Screen holds the local list state of one admin screen. The list only
// changes through Load, which every successful write triggers.
type Screen[T any] struct {
	name   string
	repo   Repository[T]
	fields func(T) []string
	log    *zap.Logger

	mu     sync.RWMutex
	items  []T
	loaded bool
}

// NewScreen builds a screen searching the strings returned by fields.
func NewScreen[T any](name string, repo Repository[T], fields func(T) []string, log *zap.Logger) *Screen[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Screen[T]{name: name, repo: repo, fields: fields, log: log}
}

// Load replaces the list with a full fetch. On failure the previous list is kept.
func (s *Screen[T]) Load(ctx context.Context) error {
	items, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("failed to fetch list", zap.String("screen", s.name), zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.items = items
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Items returns a copy of the current list.
func (s *Screen[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Screen[T]) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Filter returns the items matching query, preserving list order.
func (s *Screen[T]) Filter(query string) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.items))
	for _, it := range s.items {
		if Match(query, s.fields(it)...) {
			out = append(out, it)
		}
	}
	return out
}

// Create writes item and refetches. A failed write leaves the list as it was.
func (s *Screen[T]) Create(ctx context.Context, item T) (T, error) {
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		s.log.Error("failed to create", zap.String("screen", s.name), zap.Error(err))
		return created, err
	}
	s.refresh(ctx)
	return created, nil
}

// Update writes item over id and refetches.
func (s *Screen[T]) Update(ctx context.Context, id int64, item T) (T, error) {
	updated, err := s.repo.Update(ctx, id, item)
	if err != nil {
		s.log.Error("failed to update", zap.String("screen", s.name), zap.Int64("id", id), zap.Error(err))
		return updated, err
	}
	s.refresh(ctx)
	return updated, nil
}

// Delete removes id once confirmed is true, then refetches.
func (s *Screen[T]) Delete(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Error("failed to delete", zap.String("screen", s.name), zap.Int64("id", id), zap.Error(err))
		return err
	}
	s.refresh(ctx)
	return nil
}

// refresh reloads after a successful write. The write already happened, so
// a failed reload is logged and the stale list stays until the next Load.
func (s *Screen[T]) refresh(ctx context.Context) {
	_ = s.Load(ctx)
}

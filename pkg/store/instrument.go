package store

import (
	"context"
	"time"
)

// RecordFunc receives one measurement per store operation: the backend name,
// the operation (GET, SET, SETALL, DELETE), the outcome ("success" or
// "error"), and the elapsed time. An ErrNotFound Get counts as success; an
// absent key is a normal answer, not a backend failure.
type RecordFunc func(backend, operation, status string, elapsed time.Duration)

// Instrumented wraps a Store and reports every operation through a
// RecordFunc, typically wired to the Prometheus helpers at startup.
type Instrumented struct {
	backend string
	inner   Store
	record  RecordFunc
}

// NewInstrumented decorates inner with per-operation measurements.
//
// Example:
//
//	profiles := store.NewInstrumented("redis", redisStore, middleware.RecordStoreOp)
func NewInstrumented(backend string, inner Store, record RecordFunc) *Instrumented {
	return &Instrumented{backend: backend, inner: inner, record: record}
}

func (s *Instrumented) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	value, err := s.inner.Get(ctx, key)
	s.observe("GET", err == nil || err == ErrNotFound, start)
	return value, err
}

func (s *Instrumented) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	err := s.inner.Set(ctx, key, value)
	s.observe("SET", err == nil, start)
	return err
}

func (s *Instrumented) SetAll(ctx context.Context, entries map[string]string) error {
	start := time.Now()
	err := s.inner.SetAll(ctx, entries)
	s.observe("SETALL", err == nil, start)
	return err
}

func (s *Instrumented) Delete(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := s.inner.Delete(ctx, keys...)
	s.observe("DELETE", err == nil, start)
	return err
}

func (s *Instrumented) observe(operation string, ok bool, start time.Time) {
	status := "success"
	if !ok {
		status = "error"
	}
	s.record(s.backend, operation, status, time.Since(start))
}

// Package pool is a typed wrapper around sync.Pool. Values implementing
// Resettable are reset before they go back in.
package pool

import (
	"errors"
	"sync"
)

var ErrNilConstructor = errors.New("pool: constructor must not be nil")

type Resettable interface {
	Reset()
}

type Pool[T any] struct {
	pool sync.Pool
}

func NewLitePool[T any](newFn func() T) (*Pool[T], error) {
	if newFn == nil {
		return nil, ErrNilConstructor
	}
	if any(newFn()) == nil {
		return nil, errors.New("pool: constructor returned nil")
	}
	return &Pool[T]{pool: sync.Pool{New: func() any { return newFn() }}}, nil
}

// MustLitePool is NewLitePool for package level pools with a known constructor
func MustLitePool[T any](newFn func() T) *Pool[T] {
	p, err := NewLitePool(newFn)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Pool[T]) Get() T {
	//nolint:forcetypeassert // New always returns T
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(v T) {
	if r, ok := any(v).(Resettable); ok {
		r.Reset()
	}
	p.pool.Put(v)
}

// Package store provides Persistence implementations.
package store

import (
	"context"
	"sync"

	"github.com/quotaflow/quota-engine/core"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	state core.State
	has   bool

	// FailSaves makes every Save return an error, for exercising the
	// degraded persistence path in tests.
	FailSaves error
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (core.State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.has {
		return core.State{}, false, nil
	}
	return m.state.Clone(), true, nil
}

func (m *Memory) Save(_ context.Context, s core.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaves != nil {
		return m.FailSaves
	}
	m.state = s.Clone()
	m.has = true
	return nil
}

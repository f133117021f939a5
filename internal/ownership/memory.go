package ownership

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process holder registry with the same semantics as the
// redis adapter. Used in local mode and in tests.
type Memory struct {
	mu      sync.RWMutex
	holders map[int64]string
}

func NewMemory() *Memory {
	return &Memory{holders: make(map[int64]string)}
}

func (m *Memory) MintAsset(ctx context.Context, ticketID int64, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.holders[ticketID]; ok {
		return fmt.Errorf("%w: ticket %d", ErrAssetExists, ticketID)
	}
	m.holders[ticketID] = owner
	return nil
}

func (m *Memory) OwnerOf(ctx context.Context, ticketID int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	owner, ok := m.holders[ticketID]
	if !ok {
		return "", fmt.Errorf("%w: ticket %d", ErrAssetNotFound, ticketID)
	}
	return owner, nil
}

func (m *Memory) TransferAsset(ctx context.Context, ticketID int64, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.holders[ticketID]
	if !ok {
		return fmt.Errorf("%w: ticket %d", ErrAssetNotFound, ticketID)
	}
	if owner != from {
		return fmt.Errorf("%w: ticket %d held by %s", ErrWrongHolder, ticketID, owner)
	}
	m.holders[ticketID] = to
	return nil
}

func (m *Memory) BurnAsset(ctx context.Context, ticketID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.holders[ticketID]; !ok {
		return fmt.Errorf("%w: ticket %d", ErrAssetNotFound, ticketID)
	}
	delete(m.holders, ticketID)
	return nil
}

package payment

import (
	"context"
	"sync"
)

// Transfer is one recorded value movement.
type Transfer struct {
	To     string
	Amount int64
}

// Memory records transfers instead of settling them. Used in local mode
// and in tests to assert what the registry paid out.
type Memory struct {
	mu        sync.Mutex
	transfers []Transfer
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) TransferValue(ctx context.Context, to string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers = append(m.transfers, Transfer{To: to, Amount: amount})
	return nil
}

// Transfers returns a copy of everything recorded so far.
func (m *Memory) Transfers() []Transfer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Transfer, len(m.transfers))
	copy(out, m.transfers)
	return out
}

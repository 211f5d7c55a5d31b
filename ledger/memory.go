package ledger

import (
	"context"
	"sync"
)

// MemoryLedger keeps entries for the lifetime of the process only.
type MemoryLedger struct {
	entries map[string]map[int64]Entry
	lock    sync.Mutex
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]map[int64]Entry)}
}

func (m *MemoryLedger) DSN() string { return memoryScheme + ":" }

func (m *MemoryLedger) Record(_ context.Context, entry Entry) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	ns := m.entries[entry.Namespace]
	if ns == nil {
		ns = make(map[int64]Entry)
		m.entries[entry.Namespace] = ns
	}
	ns[entry.ID] = entry
	return nil
}

func (m *MemoryLedger) Forget(_ context.Context, namespace string, id int64) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.entries[namespace], id)
	return nil
}

func (m *MemoryLedger) Pending(_ context.Context, namespace string) ([]Entry, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return sortedEntries(m.entries[namespace]), nil
}

func (m *MemoryLedger) Close() error { return nil }

package receipt

import (
	"fmt"
	"sync"
)

// DB defines the interface for storing receipt points
type DB interface {
	// SavePoints stores the points for a new receipt ID.
	// It returns ErrDuplicateID if the ID is already in use.
	SavePoints(id string, points int) error

	// GetPoints retrieves the points for a receipt ID
	GetPoints(id string) (int, error)

	// Count returns the number of stored receipts
	Count() int

	// Close releases the store
	Close() error
}

// MemoryDB implements the DB interface with a map that lives for the
// lifetime of the process.
type MemoryDB struct {
	mu     sync.RWMutex
	points map[string]int
}

// NewMemoryDB creates an empty MemoryDB
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		points: make(map[string]int),
	}
}

// SavePoints stores points under id. The existence check and the insert
// happen under the same lock.
func (m *MemoryDB) SavePoints(id string, points int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.points[id]; ok {
		return fmt.Errorf("saving points for %s: %w", id, ErrDuplicateID)
	}
	m.points[id] = points
	return nil
}

// GetPoints retrieves the points stored under id
func (m *MemoryDB) GetPoints(id string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	points, ok := m.points[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return points, nil
}

// Count returns the number of stored receipts
func (m *MemoryDB) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points)
}

// Close discards every stored receipt
func (m *MemoryDB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.points)
	return nil
}

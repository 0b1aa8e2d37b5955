package credentials

import (
	"github.com/patrickmn/go-cache"
)

// MemorySlot is a process-lifetime slot, the equivalent of a browser's
// session-scoped storage.
type MemorySlot struct {
	values *cache.Cache
}

// NewMemorySlot creates an empty in-memory slot with no expiry
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{
		values: cache.New(cache.NoExpiration, 0),
	}
}

func (m *MemorySlot) Get(key string) (string, bool, error) {
	value, found := m.values.Get(key)
	if !found {
		return "", false, nil
	}
	return value.(string), true, nil
}

func (m *MemorySlot) Set(key, value string) error {
	m.values.Set(key, value, cache.NoExpiration)
	return nil
}

func (m *MemorySlot) Delete(key string) error {
	m.values.Delete(key)
	return nil
}

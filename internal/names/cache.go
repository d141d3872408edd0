package names

import "sort"

// Cache is an in-memory overlay over a Store. Block application writes
// into the cache; Flush persists everything in one batch. This is the
// write path used while the chain-state lock is held.
type Cache struct {
	store   *Store
	entries map[string]*Data
	deleted map[string]bool
	history map[string]History // pending appended old records
}

// NewCache creates an empty overlay over the given store.
func NewCache(store *Store) *Cache {
	return &Cache{
		store:   store,
		entries: make(map[string]*Data),
		deleted: make(map[string]bool),
		history: make(map[string]History),
	}
}

// HistoryEnabled reports whether the underlying store tracks history.
func (c *Cache) HistoryEnabled() bool {
	return c.store.HistoryEnabled()
}

// GetName returns the current record, honoring pending writes and
// deletions, or (nil, nil) when absent.
func (c *Cache) GetName(name []byte) (*Data, error) {
	if d, ok := c.entries[string(name)]; ok {
		return d.Clone(), nil
	}
	if c.deleted[string(name)] {
		return nil, nil
	}
	return c.store.GetName(name)
}

// SetName upserts a record in the overlay. When history is true and the
// store tracks history, the prior record is queued for history append.
func (c *Cache) SetName(name []byte, data *Data, history bool) error {
	if history && c.store.HistoryEnabled() {
		old, err := c.GetName(name)
		if err != nil {
			return err
		}
		if old != nil {
			c.history[string(name)] = append(c.history[string(name)], *old)
		}
	}
	c.entries[string(name)] = data.Clone()
	delete(c.deleted, string(name))
	return nil
}

// DeleteName removes the record in the overlay.
func (c *Cache) DeleteName(name []byte) error {
	delete(c.entries, string(name))
	c.deleted[string(name)] = true
	return nil
}

// GetHistory returns the persisted history plus any pending appends.
func (c *Cache) GetHistory(name []byte) (History, error) {
	h, err := c.store.GetHistory(name)
	if err != nil {
		return nil, err
	}
	return append(h, c.history[string(name)]...), nil
}

// IterateNames merges the overlay with the backing store and visits the
// result in lexicographic name order starting at or after start.
func (c *Cache) IterateNames(start []byte, fn func(name []byte, data *Data) error) error {
	combined := make(map[string]*Data)
	err := c.store.IterateNames(start, func(name []byte, data *Data) error {
		combined[string(name)] = data
		return nil
	})
	if err != nil {
		return err
	}
	for name, data := range c.entries {
		if name >= string(start) {
			combined[name] = data
		}
	}
	for name := range c.deleted {
		delete(combined, name)
	}

	keys := make([]string, 0, len(combined))
	for name := range combined {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	for _, name := range keys {
		if err := fn([]byte(name), combined[name]); err != nil {
			return err
		}
	}
	return nil
}

// HistoryNames returns the names with persisted history entries.
// Pending overlay appends are not included; flush first for a full view.
func (c *Cache) HistoryNames() ([][]byte, error) {
	return c.store.HistoryNames()
}

// Flush writes the overlay through to the store in one batch and resets
// the overlay.
func (c *Cache) Flush() error {
	if err := c.store.WriteBatch(c.entries, c.deleted, c.history); err != nil {
		return err
	}
	c.entries = make(map[string]*Data)
	c.deleted = make(map[string]bool)
	c.history = make(map[string]History)
	return nil
}

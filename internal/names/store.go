package names

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/huntnet-tech/huntnet-chain/internal/storage"
)

// Key prefixes for the name database.
var (
	prefixName    = []byte("n/") // n/<name> -> Data JSON
	prefixHistory = []byte("h/") // h/<name> -> History JSON
)

// ErrHistoryDisabled is returned when history is queried but the store
// was opened without history tracking.
var ErrHistoryDisabled = errors.New("name history is not enabled")

// Getter is read-only access to the current name records.
// GetName returns (nil, nil) when the name is not registered.
type Getter interface {
	GetName(name []byte) (*Data, error)
}

// View is read/write access to the name database.
type View interface {
	Getter

	// SetName upserts a record. When history is true and the view tracks
	// history, the old record (if any) is appended to the name's history.
	// Undo replay passes history=false so reversal leaves no trace.
	SetName(name []byte, data *Data, history bool) error

	// DeleteName removes the record entirely. Only used during undo.
	DeleteName(name []byte) error

	// GetHistory returns the name's past records, oldest first.
	GetHistory(name []byte) (History, error)

	// IterateNames visits records in lexicographic name order, starting
	// at or after start. Return a non-nil error from fn to stop early.
	IterateNames(start []byte, fn func(name []byte, data *Data) error) error

	// Flush persists pending writes to the backing store.
	Flush() error
}

// Store is the persistent name database over a storage.DB.
type Store struct {
	db      storage.DB
	history bool
}

// NewStore creates a name store. When history is true, every overwrite
// appends the prior record to the name's history key space.
func NewStore(db storage.DB, history bool) *Store {
	return &Store{db: db, history: history}
}

// HistoryEnabled reports whether the store tracks name history.
func (s *Store) HistoryEnabled() bool {
	return s.history
}

func nameKey(name []byte) []byte {
	key := make([]byte, len(prefixName)+len(name))
	copy(key, prefixName)
	copy(key[len(prefixName):], name)
	return key
}

func historyKey(name []byte) []byte {
	key := make([]byte, len(prefixHistory)+len(name))
	copy(key, prefixHistory)
	copy(key[len(prefixHistory):], name)
	return key
}

// GetName retrieves the current record for a name, or (nil, nil) if the
// name is not registered.
func (s *Store) GetName(name []byte) (*Data, error) {
	ok, err := s.db.Has(nameKey(name))
	if err != nil {
		return nil, fmt.Errorf("name has: %w", err)
	}
	if !ok {
		return nil, nil
	}
	raw, err := s.db.Get(nameKey(name))
	if err != nil {
		return nil, fmt.Errorf("name get: %w", err)
	}
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("name unmarshal: %w", err)
	}
	return &d, nil
}

// SetName upserts a record, appending the old one to history when asked.
func (s *Store) SetName(name []byte, data *Data, history bool) error {
	if history && s.history {
		old, err := s.GetName(name)
		if err != nil {
			return err
		}
		if old != nil {
			if err := s.appendHistory(name, *old); err != nil {
				return err
			}
		}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("name marshal: %w", err)
	}
	if err := s.db.Put(nameKey(name), raw); err != nil {
		return fmt.Errorf("name put: %w", err)
	}
	return nil
}

// DeleteName removes the record entirely.
func (s *Store) DeleteName(name []byte) error {
	if err := s.db.Delete(nameKey(name)); err != nil {
		return fmt.Errorf("name delete: %w", err)
	}
	return nil
}

// GetHistory returns the name's past records, oldest first.
func (s *Store) GetHistory(name []byte) (History, error) {
	if !s.history {
		return nil, ErrHistoryDisabled
	}
	ok, err := s.db.Has(historyKey(name))
	if err != nil {
		return nil, fmt.Errorf("history has: %w", err)
	}
	if !ok {
		return nil, nil
	}
	raw, err := s.db.Get(historyKey(name))
	if err != nil {
		return nil, fmt.Errorf("history get: %w", err)
	}
	var h History
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("history unmarshal: %w", err)
	}
	return h, nil
}

func (s *Store) appendHistory(name []byte, old Data) error {
	h, err := s.GetHistory(name)
	if err != nil {
		return err
	}
	h = append(h, old)
	raw, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("history marshal: %w", err)
	}
	if err := s.db.Put(historyKey(name), raw); err != nil {
		return fmt.Errorf("history put: %w", err)
	}
	return nil
}

// IterateNames visits records in lexicographic name order starting at or
// after start.
func (s *Store) IterateNames(start []byte, fn func(name []byte, data *Data) error) error {
	return s.db.ForEach(prefixName, func(key, value []byte) error {
		name := key[len(prefixName):]
		if string(name) < string(start) {
			return nil
		}
		var d Data
		if err := json.Unmarshal(value, &d); err != nil {
			return fmt.Errorf("name unmarshal: %w", err)
		}
		return fn(name, &d)
	})
}

// HistoryNames returns all names that have a history entry, in order.
// Used by the consistency checker.
func (s *Store) HistoryNames() ([][]byte, error) {
	var out [][]byte
	err := s.db.ForEach(prefixHistory, func(key, _ []byte) error {
		name := make([]byte, len(key)-len(prefixHistory))
		copy(name, key[len(prefixHistory):])
		out = append(out, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Flush is a no-op: Store writes through to the backing database.
func (s *Store) Flush() error {
	return nil
}

// WriteBatch applies a cache's accumulated entries, deletions, and
// history appends in one atomic batch when the backing database supports
// it, falling back to individual writes otherwise.
func (s *Store) WriteBatch(entries map[string]*Data, deleted map[string]bool, history map[string]History) error {
	// History appends need the existing lists, read before the batch.
	merged := make(map[string]History, len(history))
	for name, pending := range history {
		if !s.history {
			break
		}
		h, err := s.GetHistory([]byte(name))
		if err != nil {
			return err
		}
		merged[name] = append(h, pending...)
	}

	batcher, ok := s.db.(storage.Batcher)
	if !ok {
		return s.writeDirect(entries, deleted, merged)
	}

	batch := batcher.NewBatch()
	for name, data := range entries {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("name marshal: %w", err)
		}
		if err := batch.Put(nameKey([]byte(name)), raw); err != nil {
			return err
		}
	}
	for name := range deleted {
		if err := batch.Delete(nameKey([]byte(name))); err != nil {
			return err
		}
	}
	for name, h := range merged {
		raw, err := json.Marshal(h)
		if err != nil {
			return fmt.Errorf("history marshal: %w", err)
		}
		if err := batch.Put(historyKey([]byte(name)), raw); err != nil {
			return err
		}
	}
	return batch.Commit()
}

func (s *Store) writeDirect(entries map[string]*Data, deleted map[string]bool, merged map[string]History) error {
	// Deterministic order so partial failures are reproducible.
	keys := make([]string, 0, len(entries))
	for name := range entries {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	for _, name := range keys {
		if err := s.SetName([]byte(name), entries[name], false); err != nil {
			return err
		}
	}
	for name := range deleted {
		if err := s.DeleteName([]byte(name)); err != nil {
			return err
		}
	}
	for name, h := range merged {
		raw, err := json.Marshal(h)
		if err != nil {
			return fmt.Errorf("history marshal: %w", err)
		}
		if err := s.db.Put(historyKey([]byte(name)), raw); err != nil {
			return err
		}
	}
	return nil
}

package operations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/bootheat/pkg"
)

const (
	DefaultOrderIDsBucket = "BOOTH_ORDER_IDS"
	orderIDsKeyPrefix     = "table."
)

// KeyValue is the durable backing of the order-id store.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// OrderIDStore tracks the order ids followed per table. Reads only ever hit
// memory. Writes reach the backing first and memory only once the backing
// accepted them, so a failed write leaves the previous ids in place.
type OrderIDStore struct {
	mu      sync.Mutex
	ids     map[int64][]int64
	backing KeyValue
	logger  apt.Logger
}

func NewOrderIDStore(backing KeyValue, logger apt.Logger) *OrderIDStore {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderIDStore{
		ids:     make(map[int64][]int64),
		backing: backing,
		logger:  logger,
	}
}

// Load replaces memory with the content of the backing.
func (s *OrderIDStore) Load(ctx context.Context) error {
	keys, err := s.backing.Keys(ctx)
	if err != nil {
		return fmt.Errorf("cannot list order id keys: %w", err)
	}

	loaded := make(map[int64][]int64, len(keys))
	for _, key := range keys {
		tableID, ok := tableIDFromKey(key)
		if !ok {
			s.logger.Debug("skipping foreign key", "key", key)
			continue
		}

		raw, err := s.backing.Get(ctx, key)
		if errors.Is(err, pkg.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("cannot load order ids of table %d: %w", tableID, err)
		}

		var ids []int64
		if err := json.Unmarshal(raw, &ids); err != nil {
			s.logger.Error("discarding unreadable order ids", "key", key, "error", err)
			continue
		}
		loaded[tableID] = ids
	}

	s.mu.Lock()
	s.ids = loaded
	s.mu.Unlock()

	s.logger.Info("order ids loaded", "tables", len(loaded))
	return nil
}

func (s *OrderIDStore) Get(tableID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyIDs(s.ids[tableID])
}

// All returns a snapshot of every table's ids.
func (s *OrderIDStore) All() map[int64][]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make(map[int64][]int64, len(s.ids))
	for tableID, ids := range s.ids {
		all[tableID] = copyIDs(ids)
	}
	return all
}

// Set replaces the ids of a table, dropping duplicates.
func (s *OrderIDStore) Set(ctx context.Context, tableID int64, ids []int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(ctx, tableID, union(nil, ids))
}

// Merge adds ids not yet tracked for the table, keeping insertion order.
func (s *OrderIDStore) Merge(ctx context.Context, tableID int64, ids []int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(ctx, tableID, union(s.ids[tableID], ids))
}

func (s *OrderIDStore) Remove(ctx context.Context, tableID, orderID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]int64, 0, len(s.ids[tableID]))
	for _, id := range s.ids[tableID] {
		if id != orderID {
			next = append(next, id)
		}
	}
	return s.writeLocked(ctx, tableID, next)
}

func (s *OrderIDStore) Clear(ctx context.Context, tableID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backing.Delete(ctx, orderIDsKey(tableID)); err != nil {
		return fmt.Errorf("cannot clear order ids of table %d: %w", tableID, err)
	}
	delete(s.ids, tableID)
	return nil
}

// ClearAll forgets every table. Tables cleared before a failing delete stay
// cleared.
func (s *OrderIDStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for tableID := range s.ids {
		if err := s.backing.Delete(ctx, orderIDsKey(tableID)); err != nil {
			return fmt.Errorf("cannot clear order ids of table %d: %w", tableID, err)
		}
		delete(s.ids, tableID)
	}
	return nil
}

func (s *OrderIDStore) writeLocked(ctx context.Context, tableID int64, next []int64) ([]int64, error) {
	raw, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("cannot encode order ids: %w", err)
	}
	if err := s.backing.Put(ctx, orderIDsKey(tableID), raw); err != nil {
		s.logger.Error("order id write rejected, keeping previous ids", "table_id", tableID, "error", err)
		return nil, fmt.Errorf("cannot store order ids of table %d: %w", tableID, err)
	}
	s.ids[tableID] = next
	return copyIDs(next), nil
}

func orderIDsKey(tableID int64) string {
	return orderIDsKeyPrefix + strconv.FormatInt(tableID, 10)
}

func tableIDFromKey(key string) (int64, bool) {
	raw, ok := strings.CutPrefix(key, orderIDsKeyPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func union(base, add []int64) []int64 {
	out := make([]int64, 0, len(base)+len(add))
	seen := make(map[int64]bool, len(base)+len(add))
	for _, list := range [][]int64{base, add} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

func copyIDs(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	return out
}

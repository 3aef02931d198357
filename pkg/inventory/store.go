package inventory

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matst80/slask-grocery/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	noInserts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskgrocery_inventory_inserts_total",
		Help: "The total number of item insertions",
	})
	noUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskgrocery_inventory_updates_total",
		Help: "The total number of item updates",
	})
	noDeletes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskgrocery_inventory_deletes_total",
		Help: "The total number of item deletions",
	})
	totalItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slaskgrocery_inventory_items",
		Help: "The number of items currently in the store",
	})
)

type ChangeHandler interface {
	ItemAdded(item *types.Item)
	ItemChanged(item *types.Item)
	ItemDeleted(id types.ItemId)
}

// Store is the single owner of all items. Mutations hold the write lock for
// their full duration, reads share the read lock. Items leaving the store are
// always clones.
type Store struct {
	mu            sync.RWMutex
	items         map[types.ItemId]*types.Item
	order         []types.ItemId
	nextId        types.ItemId
	version       atomic.Uint64
	ChangeHandler ChangeHandler
}

func NewStore() *Store {
	return &Store{
		items:  make(map[types.ItemId]*types.Item),
		order:  make([]types.ItemId, 0),
		nextId: 1,
	}
}

// NewStoreWithSampleData returns a store seeded with the default catalog.
func NewStoreWithSampleData() *Store {
	s := NewStore()
	s.InitializeSampleData()
	return s
}

// AddItem stores a copy of the candidate. An id of 0 is replaced with the next
// free id, any other id is kept and pushes nextId past it.
func (s *Store) AddItem(candidate *types.Item) (types.ItemId, error) {
	stored, err := s.Insert(candidate)
	if err != nil {
		return 0, err
	}
	return stored.GetId(), nil
}

// Insert is AddItem returning a clone of the stored item.
func (s *Store) Insert(candidate *types.Item) (*types.Item, error) {
	if candidate == nil {
		return nil, fmt.Errorf("%w: cannot add nil item", types.ErrInvalidValue)
	}
	s.mu.Lock()
	stored, err := s.addUnsafe(candidate)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if s.ChangeHandler != nil {
		s.ChangeHandler.ItemAdded(stored.Clone())
	}
	return stored, nil
}

func (s *Store) addUnsafe(candidate *types.Item) (*types.Item, error) {
	id := candidate.GetId()
	if id == 0 {
		id = s.nextId
		s.nextId++
	} else {
		if _, exists := s.items[id]; exists {
			return nil, fmt.Errorf("%w: id %d already exists", types.ErrInvalidValue, id)
		}
		if id >= s.nextId {
			s.nextId = id + 1
		}
	}
	item := candidate.WithId(id)
	s.items[id] = item
	s.order = append(s.order, id)
	s.version.Add(1)
	noInserts.Inc()
	totalItems.Set(float64(len(s.items)))
	return item.Clone(), nil
}

func (s *Store) FindById(id types.ItemId) (*types.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, false
	}
	return item.Clone(), true
}

func (s *Store) HasItem(id types.ItemId) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok
}

// filter walks the items in store order.
func (s *Store) filter(match func(item *types.Item) bool) []*types.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*types.Item, 0)
	for _, id := range s.order {
		item := s.items[id]
		if match(item) {
			res = append(res, item.Clone())
		}
	}
	return res
}

// SearchByName matches a case-insensitive substring of the name. An empty
// query matches every item.
func (s *Store) SearchByName(query string) []*types.Item {
	lower := strings.ToLower(query)
	return s.filter(func(item *types.Item) bool {
		return strings.Contains(strings.ToLower(item.GetName()), lower)
	})
}

func (s *Store) SearchByCategory(category string) []*types.Item {
	return s.filter(func(item *types.Item) bool {
		return item.GetCategory() == category
	})
}

func (s *Store) ListAll() []*types.Item {
	return s.filter(func(*types.Item) bool { return true })
}

// LowStock returns items with a quantity at or below the threshold.
func (s *Store) LowStock(threshold int) []*types.Item {
	return s.filter(func(item *types.Item) bool {
		return item.GetQuantity() <= threshold
	})
}

// ExpiringWithin returns perishable items expiring between from and from+days,
// both ends inclusive at day granularity. Items with unparseable expiry are skipped.
func (s *Store) ExpiringWithin(from time.Time, days int) ([]*types.Item, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: days cannot be negative", types.ErrInvalidValue)
	}
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, days)
	return s.filter(func(item *types.Item) bool {
		expiry, ok := item.ExpiryDate()
		if !ok {
			return false
		}
		return !expiry.Before(start) && !expiry.After(end)
	}), nil
}

func (s *Store) RemoveItem(id types.ItemId) error {
	s.mu.Lock()
	if _, ok := s.items[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: id %d", types.ErrNotFound, id)
	}
	delete(s.items, id)
	s.order = slices.DeleteFunc(s.order, func(existing types.ItemId) bool {
		return existing == id
	})
	s.version.Add(1)
	noDeletes.Inc()
	totalItems.Set(float64(len(s.items)))
	s.mu.Unlock()

	if s.ChangeHandler != nil {
		s.ChangeHandler.ItemDeleted(id)
	}
	return nil
}

// mutate runs fn against a scratch copy and only swaps it in when fn succeeds.
func (s *Store) mutate(id types.ItemId, fn func(item *types.Item) error) (*types.Item, error) {
	s.mu.Lock()
	current, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: id %d", types.ErrNotFound, id)
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.items[id] = next
	s.version.Add(1)
	noUpdates.Inc()
	changed := next.Clone()
	s.mu.Unlock()

	if s.ChangeHandler != nil {
		s.ChangeHandler.ItemChanged(changed)
	}
	return changed, nil
}

func (s *Store) UpdateItem(id types.ItemId, update types.ItemUpdate) (*types.Item, error) {
	return s.mutate(id, func(item *types.Item) error {
		return item.ApplyUpdate(update)
	})
}

// AdjustQuantity increases stock for a positive delta and decreases it for a negative one.
func (s *Store) AdjustQuantity(id types.ItemId, delta int) (*types.Item, error) {
	return s.mutate(id, func(item *types.Item) error {
		if delta < 0 {
			return item.DecreaseQuantity(-delta)
		}
		return item.IncreaseQuantity(delta)
	})
}

// Checkout decrements stock for every line or for none of them. The returned
// lines carry the item name and the unit price at the time of checkout.
func (s *Store) Checkout(lines []types.OrderLine) ([]types.OrderLine, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", types.ErrInvalidValue)
	}
	s.mu.Lock()
	requested := make(map[types.ItemId]int, len(lines))
	for _, line := range lines {
		item, ok := s.items[line.Id]
		if !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: id %d", types.ErrNotFound, line.Id)
		}
		if line.Quantity <= 0 {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: quantity for %s must be positive", types.ErrInvalidValue, item.GetName())
		}
		// compared against what is left so the running sum cannot overflow
		if line.Quantity > item.GetQuantity()-requested[line.Id] {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w for %s", types.ErrInsufficientStock, item.GetName())
		}
		requested[line.Id] += line.Quantity
	}

	priced := make([]types.OrderLine, 0, len(lines))
	for _, line := range lines {
		item := s.items[line.Id]
		priced = append(priced, types.OrderLine{
			Id:       line.Id,
			Name:     item.GetName(),
			Quantity: line.Quantity,
			Rate:     item.GetPrice(),
		})
	}
	changed := make([]*types.Item, 0, len(requested))
	for _, line := range lines {
		qty, pending := requested[line.Id]
		if !pending {
			continue
		}
		delete(requested, line.Id)
		next := s.items[line.Id].Clone()
		if err := next.DecreaseQuantity(qty); err != nil {
			// every line was validated under the same lock
			panic(fmt.Sprintf("checkout of %d validated but failed: %v", line.Id, err))
		}
		s.items[line.Id] = next
		changed = append(changed, next.Clone())
		noUpdates.Inc()
	}
	s.version.Add(1)
	s.mu.Unlock()

	if s.ChangeHandler != nil {
		for _, item := range changed {
			s.ChangeHandler.ItemChanged(item)
		}
	}
	return priced, nil
}

// InitializeSampleData clears the store, resets id assignment and loads the
// seed catalog so ids 1..n follow the listed order. No change events are sent.
func (s *Store) InitializeSampleData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[types.ItemId]*types.Item)
	s.order = make([]types.ItemId, 0, len(sampleItems))
	s.nextId = 1
	for _, item := range sampleCatalog() {
		if _, err := s.addUnsafe(item); err != nil {
			panic(fmt.Sprintf("invalid sample item %s: %v", item.GetName(), err))
		}
	}
	totalItems.Set(float64(len(s.items)))
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) NextId() types.ItemId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextId
}

// Version increases on every successful mutation.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

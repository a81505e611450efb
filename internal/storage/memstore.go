package storage

import (
	"context"
	"maps"
	"sync"

	"github.com/pixil98/go-kitties/internal/kitties"
)

// memState is the raw ledger state. It does no locking of its own.
type memState struct {
	count   *kitties.KittyIndex
	kitties map[kitties.KittyIndex]kitties.Kitty
	owners  map[kitties.KittyIndex]kitties.AccountID
}

func newMemState() *memState {
	return &memState{
		kitties: map[kitties.KittyIndex]kitties.Kitty{},
		owners:  map[kitties.KittyIndex]kitties.AccountID{},
	}
}

func (m *memState) KittiesCount(context.Context) (kitties.KittyIndex, bool, error) {
	if m.count == nil {
		return 0, false, nil
	}
	return *m.count, true, nil
}

func (m *memState) Kitty(_ context.Context, id kitties.KittyIndex) (kitties.Kitty, bool, error) {
	k, ok := m.kitties[id]
	return k, ok, nil
}

func (m *memState) Owner(_ context.Context, id kitties.KittyIndex) (kitties.AccountID, bool, error) {
	owner, ok := m.owners[id]
	return owner, ok, nil
}

func (m *memState) PutKitty(_ context.Context, id kitties.KittyIndex, k kitties.Kitty) error {
	m.kitties[id] = k
	return nil
}

func (m *memState) PutOwner(_ context.Context, id kitties.KittyIndex, owner kitties.AccountID) error {
	m.owners[id] = owner
	return nil
}

func (m *memState) SetKittiesCount(_ context.Context, count kitties.KittyIndex) error {
	m.count = &count
	return nil
}

func (m *memState) clone() *memState {
	c := &memState{
		kitties: maps.Clone(m.kitties),
		owners:  maps.Clone(m.owners),
	}
	if m.count != nil {
		count := *m.count
		c.count = &count
	}
	return c
}

func (m *memState) snapshot() *LedgerState {
	c := m.clone()
	l := &LedgerState{
		Count:   c.count,
		Kitties: make(map[kitties.KittyIndex]kitties.DNA, len(c.kitties)),
		Owners:  c.owners,
	}
	for id, k := range c.kitties {
		l.Kitties[id] = k.DNA
	}
	return l
}

func stateFromSnapshot(l *LedgerState) *memState {
	m := newMemState()
	if l.Count != nil {
		count := *l.Count
		m.count = &count
	}
	for id, dna := range l.Kitties {
		m.kitties[id] = kitties.Kitty{DNA: dna}
	}
	for id, owner := range l.Owners {
		m.owners[id] = owner
	}
	return m
}

// MemStore is an in-memory Ledger. It is safe for concurrent use.
type MemStore struct {
	mu    sync.RWMutex
	state *memState
}

func NewMemStore() *MemStore {
	return &MemStore{state: newMemState()}
}

func (s *MemStore) KittiesCount(ctx context.Context) (kitties.KittyIndex, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.KittiesCount(ctx)
}

func (s *MemStore) Kitty(ctx context.Context, id kitties.KittyIndex) (kitties.Kitty, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Kitty(ctx, id)
}

func (s *MemStore) Owner(ctx context.Context, id kitties.KittyIndex) (kitties.AccountID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Owner(ctx, id)
}

func (s *MemStore) PutKitty(ctx context.Context, id kitties.KittyIndex, k kitties.Kitty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.PutKitty(ctx, id, k)
}

func (s *MemStore) PutOwner(ctx context.Context, id kitties.KittyIndex, owner kitties.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.PutOwner(ctx, id, owner)
}

func (s *MemStore) SetKittiesCount(ctx context.Context, count kitties.KittyIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SetKittiesCount(ctx, count)
}

// Atomic runs fn against an overlay and applies its writes only if fn succeeds.
// fn must use the store it is given, not s, or it will deadlock.
func (s *MemStore) Atomic(ctx context.Context, fn func(context.Context, kitties.Store) error) error {
	return s.atomic(ctx, fn, nil)
}

// atomic applies the overlay to a copy of the state and swaps it in once
// persist (if any) has accepted it.
func (s *MemStore) atomic(ctx context.Context, fn func(context.Context, kitties.Store) error, persist func(*LedgerState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ov := NewOverlay(s.state)
	if err := fn(ctx, ov); err != nil {
		return err
	}
	if ov.Pending() == 0 {
		return nil
	}

	next := s.state.clone()
	if err := ov.flush(ctx, next); err != nil {
		return err
	}
	if persist != nil {
		if err := persist(next.snapshot()); err != nil {
			return err
		}
	}

	s.state = next
	return nil
}

// Snapshot returns a copy of the current state.
func (s *MemStore) Snapshot() *LedgerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.snapshot()
}

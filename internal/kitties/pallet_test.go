package kitties

import (
	"context"
	"errors"
	"testing"

	"github.com/pixil98/go-testutil"
)

// mockStore implements Store over plain maps for testing
type mockStore struct {
	count   *KittyIndex
	kitties map[KittyIndex]Kitty
	owners  map[KittyIndex]AccountID
	writes  int
}

func newMockStore() *mockStore {
	return &mockStore{
		kitties: map[KittyIndex]Kitty{},
		owners:  map[KittyIndex]AccountID{},
	}
}

func (m *mockStore) KittiesCount(context.Context) (KittyIndex, bool, error) {
	if m.count == nil {
		return 0, false, nil
	}
	return *m.count, true, nil
}

func (m *mockStore) Kitty(_ context.Context, id KittyIndex) (Kitty, bool, error) {
	k, ok := m.kitties[id]
	return k, ok, nil
}

func (m *mockStore) Owner(_ context.Context, id KittyIndex) (AccountID, bool, error) {
	o, ok := m.owners[id]
	return o, ok, nil
}

func (m *mockStore) PutKitty(_ context.Context, id KittyIndex, k Kitty) error {
	m.writes++
	m.kitties[id] = k
	return nil
}

func (m *mockStore) PutOwner(_ context.Context, id KittyIndex, owner AccountID) error {
	m.writes++
	m.owners[id] = owner
	return nil
}

func (m *mockStore) SetKittiesCount(_ context.Context, count KittyIndex) error {
	m.writes++
	m.count = &count
	return nil
}

// mockEntropy hands out queued values in order and records its inputs
type mockEntropy struct {
	values []DNA
	err    error
	calls  []uint32
}

func (m *mockEntropy) Derive(_ Seed, _ AccountID, index uint32) (DNA, error) {
	m.calls = append(m.calls, index)
	if m.err != nil {
		return DNA{}, m.err
	}
	if len(m.values) == 0 {
		return DNA{}, nil
	}
	v := m.values[0]
	m.values = m.values[1:]
	return v, nil
}

func filledDNA(b byte) DNA {
	var d DNA
	for i := range d {
		d[i] = b
	}
	return d
}

func newTx(caller AccountID, st Store) (*Tx, *EventBuffer) {
	events := &EventBuffer{}
	return &Tx{Caller: caller, Store: st, Events: events}, events
}

func TestPallet_CreateAssignsSequentialIds(t *testing.T) {
	ctx := context.Background()
	st := newMockStore()
	entropy := &mockEntropy{values: []DNA{filledDNA(0x01), filledDNA(0x02), filledDNA(0x03)}}
	p := NewPallet(entropy)

	callers := []AccountID{"alice", "bob", "alice"}
	for i, caller := range callers {
		tx, events := newTx(caller, st)
		tx.ExtrinsicIndex = uint32(i)

		id, err := p.Create(ctx, tx)
		if err != nil {
			t.Fatalf("create %d: unexpected error: %v", i, err)
		}

		testutil.AssertEqual(t, "id", id, KittyIndex(i+1))
		testutil.AssertEqual(t, "owner", st.owners[id], caller)
		testutil.AssertEqual(t, "dna", st.kitties[id].DNA, filledDNA(byte(i+1)))
		testutil.AssertEqual(t, "count", *st.count, id)
		testutil.AssertEqual(t, "events", len(events.Events()), 1)
		testutil.AssertEqual(t, "event", events.Events()[0], Created(caller, id))
	}

	testutil.AssertEqual(t, "entropy calls", len(entropy.calls), 3)
	testutil.AssertEqual(t, "extrinsic index passed", entropy.calls[2], uint32(2))
}

func TestPallet_CreateOverflow(t *testing.T) {
	ctx := context.Background()
	st := newMockStore()
	full := MaxKittyIndex
	st.count = &full
	p := NewPallet(&mockEntropy{})

	tx, events := newTx("alice", st)
	_, err := p.Create(ctx, tx)

	if !errors.Is(err, ErrCountOverflow) {
		t.Fatalf("expected ErrCountOverflow, got %v", err)
	}
	testutil.AssertEqual(t, "count", *st.count, MaxKittyIndex)
	testutil.AssertEqual(t, "writes", st.writes, 0)
	testutil.AssertEqual(t, "events", len(events.Events()), 0)
}

func TestPallet_CreateUpToMaxThenOverflow(t *testing.T) {
	ctx := context.Background()
	st := newMockStore()
	almost := MaxKittyIndex - 1
	st.count = &almost
	p := NewPallet(&mockEntropy{})

	tx, _ := newTx("alice", st)
	id, err := p.Create(ctx, tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "last id", id, MaxKittyIndex)

	_, err = p.Create(ctx, tx)
	if !errors.Is(err, ErrCountOverflow) {
		t.Fatalf("expected ErrCountOverflow, got %v", err)
	}
	testutil.AssertEqual(t, "count", *st.count, MaxKittyIndex)
}

func TestPallet_CreateEntropyFailureWritesNothing(t *testing.T) {
	st := newMockStore()
	p := NewPallet(&mockEntropy{err: errors.New("no randomness")})

	tx, events := newTx("alice", st)
	_, err := p.Create(context.Background(), tx)

	testutil.AssertErrorContains(t, err, "deriving dna")
	testutil.AssertEqual(t, "writes", st.writes, 0)
	testutil.AssertEqual(t, "events", len(events.Events()), 0)
}

func TestPallet_Transfer(t *testing.T) {
	ctx := context.Background()
	st := newMockStore()
	p := NewPallet(&mockEntropy{values: []DNA{filledDNA(0xab)}})

	alice, _ := newTx("alice", st)
	id, err := p.Create(ctx, alice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := &EventBuffer{}
	alice.Events = events
	err = p.Transfer(ctx, alice, "bob", id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "owner", st.owners[id], AccountID("bob"))
	testutil.AssertEqual(t, "dna unchanged", st.kitties[id].DNA, filledDNA(0xab))
	testutil.AssertEqual(t, "event", events.Events()[0], Transferred("alice", "bob", id))

	err = p.Transfer(ctx, alice, "carol", id)
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	testutil.AssertEqual(t, "owner after rejected transfer", st.owners[id], AccountID("bob"))
	testutil.AssertEqual(t, "events", len(events.Events()), 1)
}

func TestPallet_TransferRejected(t *testing.T) {
	tests := map[string]struct {
		caller AccountID
		id     KittyIndex
	}{
		"unknown kitty": {
			caller: "alice",
			id:     42,
		},
		"not the owner": {
			caller: "mallory",
			id:     1,
		},
		"empty caller": {
			caller: "",
			id:     7,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			st := newMockStore()
			st.kitties[1] = Kitty{}
			st.owners[1] = "alice"
			p := NewPallet(&mockEntropy{})

			tx, events := newTx(tt.caller, st)
			err := p.Transfer(context.Background(), tx, "bob", tt.id)

			if !errors.Is(err, ErrNotOwner) {
				t.Fatalf("expected ErrNotOwner, got %v", err)
			}
			testutil.AssertEqual(t, "writes", st.writes, 0)
			testutil.AssertEqual(t, "events", len(events.Events()), 0)
		})
	}
}

func TestPallet_Breed(t *testing.T) {
	parent1 := DNA{0xff, 0x00, 0xf0, 0x0f, 0xaa, 0x55, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x01, 0x02}
	parent2 := DNA{0x00, 0xff, 0x0f, 0xf0, 0x55, 0xaa, 0x21, 0x43, 0x65, 0x87, 0xa9, 0xcb, 0xed, 0x0f, 0x10, 0x20}
	selector := DNA{0xf0, 0xf0, 0xff, 0x00, 0x0f, 0x0f, 0x00, 0xff, 0x33, 0xcc, 0xff, 0x00, 0x80, 0x01, 0xff, 0x00}

	tests := map[string]struct {
		parent1 KittyIndex
		parent2 KittyIndex
		expErr  error
		expDNA  DNA
	}{
		"same parent that exists": {
			parent1: 1,
			parent2: 1,
			expErr:  ErrSameParentIndex,
		},
		"same parent that does not exist": {
			parent1: 9,
			parent2: 9,
			expErr:  ErrSameParentIndex,
		},
		"second parent missing": {
			parent1: 1,
			parent2: 999,
			expErr:  ErrInvalidKittyIndex,
		},
		"first parent missing": {
			parent1: 999,
			parent2: 2,
			expErr:  ErrInvalidKittyIndex,
		},
		"valid parents": {
			parent1: 1,
			parent2: 2,
			expDNA:  Crossover(selector, parent1, parent2),
		},
		"valid parents swapped": {
			parent1: 2,
			parent2: 1,
			expDNA:  Crossover(selector, parent2, parent1),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := newMockStore()
			two := KittyIndex(2)
			st.count = &two
			st.kitties[1] = Kitty{DNA: parent1}
			st.kitties[2] = Kitty{DNA: parent2}
			st.owners[1] = "alice"
			st.owners[2] = "bob"
			p := NewPallet(&mockEntropy{values: []DNA{selector}})

			tx, events := newTx("carol", st)
			id, err := p.Breed(ctx, tx, tt.parent1, tt.parent2)

			if tt.expErr != nil {
				if !errors.Is(err, tt.expErr) {
					t.Fatalf("expected %v, got %v", tt.expErr, err)
				}
				testutil.AssertEqual(t, "writes", st.writes, 0)
				testutil.AssertEqual(t, "count", *st.count, KittyIndex(2))
				testutil.AssertEqual(t, "events", len(events.Events()), 0)
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "id", id, KittyIndex(3))
			testutil.AssertEqual(t, "dna", st.kitties[id].DNA, tt.expDNA)
			testutil.AssertEqual(t, "owner", st.owners[id], AccountID("carol"))
			testutil.AssertEqual(t, "count", *st.count, KittyIndex(3))
			testutil.AssertEqual(t, "event", events.Events()[0], Created("carol", 3))
		})
	}
}

func TestPallet_BreedOverflow(t *testing.T) {
	st := newMockStore()
	full := MaxKittyIndex
	st.count = &full
	st.kitties[1] = Kitty{DNA: filledDNA(1)}
	st.kitties[2] = Kitty{DNA: filledDNA(2)}

	tx, _ := newTx("alice", st)
	_, err := NewPallet(&mockEntropy{}).Breed(context.Background(), tx, 1, 2)

	if !errors.Is(err, ErrCountOverflow) {
		t.Fatalf("expected ErrCountOverflow, got %v", err)
	}
	testutil.AssertEqual(t, "writes", st.writes, 0)
}

func TestPallet_Dispatch(t *testing.T) {
	tests := map[string]struct {
		call     Call
		expErr   string
		expCount KittyIndex
	}{
		"create": {
			call:     CreateCall(),
			expCount: 2,
		},
		"transfer": {
			call:     TransferCall("bob", 1),
			expCount: 1,
		},
		"breed": {
			call:   BreedCall(1, 1),
			expErr: ErrSameParentIndex.Error(),
		},
		"unknown": {
			call:   Call{Kind: "burn"},
			expErr: `unknown call "burn"`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			st := newMockStore()
			one := KittyIndex(1)
			st.count = &one
			st.kitties[1] = Kitty{}
			st.owners[1] = "alice"

			tx, _ := newTx("alice", st)
			err := NewPallet(&mockEntropy{}).Dispatch(context.Background(), tx, tt.call)

			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "count", *st.count, tt.expCount)
		})
	}
}

func TestCrossover(t *testing.T) {
	a := DNA{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x0f, 0xed, 0xcb, 0xa9, 0x87, 0x65, 0x43, 0x21}
	b := DNA{0xf0, 0xe1, 0xd2, 0xc3, 0xb4, 0xa5, 0x96, 0x87, 0x78, 0x69, 0x5a, 0x4b, 0x3c, 0x2d, 0x1e, 0x0f}

	tests := map[string]struct {
		selector DNA
		exp      DNA
	}{
		"all ones takes first parent": {
			selector: filledDNA(0xff),
			exp:      a,
		},
		"all zeros takes second parent": {
			selector: filledDNA(0x00),
			exp:      b,
		},
		"high nibble from first parent": {
			selector: filledDNA(0xf0),
			exp:      DNA{0x10, 0x31, 0x52, 0x73, 0x94, 0xb5, 0xd6, 0xf7, 0x08, 0xe9, 0xca, 0xab, 0x8c, 0x6d, 0x4e, 0x2f},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "child", Crossover(tt.selector, a, b), tt.exp)
		})
	}
}

func TestCrossover_NotCommutative(t *testing.T) {
	a := filledDNA(0xaa)
	b := filledDNA(0x55)
	sel := filledDNA(0x0f)

	ab := Crossover(sel, a, b)
	ba := Crossover(sel, b, a)
	if ab == ba {
		t.Errorf("expected swapped parents to give a different child, both %s", ab)
	}
	testutil.AssertEqual(t, "ab", ab, filledDNA(0x5a))
	testutil.AssertEqual(t, "ba", ba, filledDNA(0xa5))
}

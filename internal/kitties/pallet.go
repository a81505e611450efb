package kitties

import (
	"context"
	"fmt"
)

// Tx is everything the host hands a transition: the authenticated caller, the
// block randomness and transaction position, and the state and event capabilities.
type Tx struct {
	Caller         AccountID
	Seed           Seed
	ExtrinsicIndex uint32
	Store          Store
	Events         EventSink
}

func (tx *Tx) deposit(e Event) {
	if tx.Events != nil {
		tx.Events.Deposit(e)
	}
}

// Pallet implements the kitty transitions. It keeps no state of its own; all
// state lives in the Store passed with each Tx.
type Pallet struct {
	entropy Entropy
}

func NewPallet(entropy Entropy) *Pallet {
	return &Pallet{entropy: entropy}
}

// Dispatch routes a call to its transition.
func (p *Pallet) Dispatch(ctx context.Context, tx *Tx, call Call) error {
	switch call.Kind {
	case CallCreate:
		_, err := p.Create(ctx, tx)
		return err
	case CallTransfer:
		return p.Transfer(ctx, tx, call.To, call.ID)
	case CallBreed:
		_, err := p.Breed(ctx, tx, call.Parent1, call.Parent2)
		return err
	default:
		return fmt.Errorf("unknown call %q", call.Kind)
	}
}

// Create mints a kitty with random DNA owned by the caller.
func (p *Pallet) Create(ctx context.Context, tx *Tx) (KittyIndex, error) {
	id, err := nextKittyID(ctx, tx.Store)
	if err != nil {
		return 0, err
	}

	dna, err := p.entropy.Derive(tx.Seed, tx.Caller, tx.ExtrinsicIndex)
	if err != nil {
		return 0, fmt.Errorf("deriving dna: %w", err)
	}

	err = commitKitty(ctx, tx.Store, id, Kitty{DNA: dna}, tx.Caller)
	if err != nil {
		return 0, err
	}

	tx.deposit(Created(tx.Caller, id))
	return id, nil
}

// Transfer hands a kitty owned by the caller to another account.
func (p *Pallet) Transfer(ctx context.Context, tx *Tx, to AccountID, id KittyIndex) error {
	owner, ok, err := tx.Store.Owner(ctx, id)
	if err != nil {
		return fmt.Errorf("reading owner of kitty %d: %w", id, err)
	}
	if !ok || owner != tx.Caller {
		return ErrNotOwner
	}

	err = tx.Store.PutOwner(ctx, id, to)
	if err != nil {
		return fmt.Errorf("writing owner of kitty %d: %w", id, err)
	}

	tx.deposit(Transferred(tx.Caller, to, id))
	return nil
}

// Breed creates a child of two existing kitties, owned by the caller. Each
// bit of the child comes from one parent, picked by a random selector.
func (p *Pallet) Breed(ctx context.Context, tx *Tx, parent1, parent2 KittyIndex) (KittyIndex, error) {
	if parent1 == parent2 {
		return 0, ErrSameParentIndex
	}

	kitty1, err := mustKitty(ctx, tx.Store, parent1)
	if err != nil {
		return 0, err
	}
	kitty2, err := mustKitty(ctx, tx.Store, parent2)
	if err != nil {
		return 0, err
	}

	id, err := nextKittyID(ctx, tx.Store)
	if err != nil {
		return 0, err
	}

	selector, err := p.entropy.Derive(tx.Seed, tx.Caller, tx.ExtrinsicIndex)
	if err != nil {
		return 0, fmt.Errorf("deriving selector: %w", err)
	}

	child := Kitty{DNA: Crossover(selector, kitty1.DNA, kitty2.DNA)}
	err = commitKitty(ctx, tx.Store, id, child, tx.Caller)
	if err != nil {
		return 0, err
	}

	tx.deposit(Created(tx.Caller, id))
	return id, nil
}

// KittiesCount returns the number of kitties created so far.
func (p *Pallet) KittiesCount(ctx context.Context, st Store) (KittyIndex, error) {
	count, _, err := st.KittiesCount(ctx)
	return count, err
}

func (p *Pallet) Kitty(ctx context.Context, st Store, id KittyIndex) (Kitty, bool, error) {
	return st.Kitty(ctx, id)
}

func (p *Pallet) Owner(ctx context.Context, st Store, id KittyIndex) (AccountID, bool, error) {
	return st.Owner(ctx, id)
}

// nextKittyID returns the id the next kitty will get. It refuses to wrap.
func nextKittyID(ctx context.Context, st Store) (KittyIndex, error) {
	count, ok, err := st.KittiesCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading kitties count: %w", err)
	}
	if !ok {
		return 1, nil
	}
	if count == MaxKittyIndex {
		return 0, ErrCountOverflow
	}
	return count + 1, nil
}

func mustKitty(ctx context.Context, st Store, id KittyIndex) (Kitty, error) {
	k, ok, err := st.Kitty(ctx, id)
	if err != nil {
		return Kitty{}, fmt.Errorf("reading kitty %d: %w", id, err)
	}
	if !ok {
		return Kitty{}, ErrInvalidKittyIndex
	}
	return k, nil
}

// commitKitty is the single write step of create and breed. Every check has
// already passed by the time it runs.
func commitKitty(ctx context.Context, st Store, id KittyIndex, k Kitty, owner AccountID) error {
	if err := st.PutKitty(ctx, id, k); err != nil {
		return fmt.Errorf("writing kitty %d: %w", id, err)
	}
	if err := st.PutOwner(ctx, id, owner); err != nil {
		return fmt.Errorf("writing owner of kitty %d: %w", id, err)
	}
	if err := st.SetKittiesCount(ctx, id); err != nil {
		return fmt.Errorf("writing kitties count: %w", err)
	}
	return nil
}

package kitties

import "context"

// Store holds all persisted registry state. Writes are unconditional; callers
// keep the invariants between kitties, owners and the count.
type Store interface {
	// KittiesCount returns the number of kitties created so far. ok is false
	// when no kitty was ever created.
	KittiesCount(ctx context.Context) (count KittyIndex, ok bool, err error)
	Kitty(ctx context.Context, id KittyIndex) (Kitty, bool, error)
	Owner(ctx context.Context, id KittyIndex) (AccountID, bool, error)

	PutKitty(ctx context.Context, id KittyIndex, k Kitty) error
	PutOwner(ctx context.Context, id KittyIndex, owner AccountID) error
	SetKittiesCount(ctx context.Context, count KittyIndex) error
}

// Ledger is a Store that can apply a group of writes all at once.
type Ledger interface {
	Store

	// Atomic runs fn against a transactional view of the ledger. Writes made
	// through the view are committed only if fn returns nil.
	Atomic(ctx context.Context, fn func(context.Context, Store) error) error
}

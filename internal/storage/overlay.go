package storage

import (
	"context"
	"maps"
	"slices"

	"github.com/pixil98/go-kitties/internal/kitties"
)

// Overlay buffers writes on top of a parent store. Reads see buffered values
// first. Nothing reaches the parent until Commit.
type Overlay struct {
	parent kitties.Store

	count   *kitties.KittyIndex
	kitties map[kitties.KittyIndex]kitties.Kitty
	owners  map[kitties.KittyIndex]kitties.AccountID
}

func NewOverlay(parent kitties.Store) *Overlay {
	return &Overlay{
		parent:  parent,
		kitties: map[kitties.KittyIndex]kitties.Kitty{},
		owners:  map[kitties.KittyIndex]kitties.AccountID{},
	}
}

func (o *Overlay) KittiesCount(ctx context.Context) (kitties.KittyIndex, bool, error) {
	if o.count != nil {
		return *o.count, true, nil
	}
	return o.parent.KittiesCount(ctx)
}

func (o *Overlay) Kitty(ctx context.Context, id kitties.KittyIndex) (kitties.Kitty, bool, error) {
	if k, ok := o.kitties[id]; ok {
		return k, true, nil
	}
	return o.parent.Kitty(ctx, id)
}

func (o *Overlay) Owner(ctx context.Context, id kitties.KittyIndex) (kitties.AccountID, bool, error) {
	if owner, ok := o.owners[id]; ok {
		return owner, true, nil
	}
	return o.parent.Owner(ctx, id)
}

func (o *Overlay) PutKitty(_ context.Context, id kitties.KittyIndex, k kitties.Kitty) error {
	o.kitties[id] = k
	return nil
}

func (o *Overlay) PutOwner(_ context.Context, id kitties.KittyIndex, owner kitties.AccountID) error {
	o.owners[id] = owner
	return nil
}

func (o *Overlay) SetKittiesCount(_ context.Context, count kitties.KittyIndex) error {
	o.count = &count
	return nil
}

// Pending returns the number of buffered writes.
func (o *Overlay) Pending() int {
	n := len(o.kitties) + len(o.owners)
	if o.count != nil {
		n++
	}
	return n
}

// Commit flushes buffered writes to the parent and clears the buffer.
func (o *Overlay) Commit(ctx context.Context) error {
	return o.flush(ctx, o.parent)
}

// Discard drops all buffered writes.
func (o *Overlay) Discard() {
	o.count = nil
	clear(o.kitties)
	clear(o.owners)
}

func (o *Overlay) flush(ctx context.Context, dst kitties.Store) error {
	for _, id := range slices.Sorted(maps.Keys(o.kitties)) {
		if err := dst.PutKitty(ctx, id, o.kitties[id]); err != nil {
			return err
		}
	}
	for _, id := range slices.Sorted(maps.Keys(o.owners)) {
		if err := dst.PutOwner(ctx, id, o.owners[id]); err != nil {
			return err
		}
	}
	if o.count != nil {
		if err := dst.SetKittiesCount(ctx, *o.count); err != nil {
			return err
		}
	}
	o.Discard()
	return nil
}

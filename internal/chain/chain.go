package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pixil98/go-kitties/internal/kitties"
)

// ErrInternal is the receipt error name for failures that are not dispatch errors.
const ErrInternal = "Internal"

// Extrinsic is one signed transaction. The caller has been authenticated
// before it reaches the chain.
type Extrinsic struct {
	Caller kitties.AccountID `json:"caller" msgpack:"caller"`
	Call   kitties.Call      `json:"call" msgpack:"call"`
}

// Receipt records the outcome of an extrinsic.
type Receipt struct {
	ID     string            `json:"id" msgpack:"id"`
	Block  uint64            `json:"block" msgpack:"block"`
	Index  uint32            `json:"index" msgpack:"index"`
	Caller kitties.AccountID `json:"caller" msgpack:"caller"`
	Call   kitties.Call      `json:"call" msgpack:"call"`
	Events []kitties.Event   `json:"events,omitempty" msgpack:"events,omitempty"`

	// Error is the dispatch error name, ErrInternal, or empty on success.
	Error   string `json:"error,omitempty" msgpack:"error,omitempty"`
	Message string `json:"message,omitempty" msgpack:"message,omitempty"`
}

// Success reports whether the extrinsic was applied.
func (r *Receipt) Success() bool {
	return r.Error == ""
}

// Err rebuilds the error the extrinsic failed with.
func (r *Receipt) Err() error {
	if r.Success() {
		return nil
	}
	if de := kitties.ErrorByName(r.Error); de != nil {
		return de
	}
	return errors.New(r.Message)
}

// EventPublisher is told about every committed extrinsic.
type EventPublisher interface {
	PublishReceipt(ctx context.Context, r *Receipt) error
}

// Chain executes extrinsics one at a time against a ledger, the way a block
// producing runtime would.
type Chain struct {
	mu sync.Mutex

	ledger     kitties.Ledger
	pallet     *kitties.Pallet
	randomness Randomness
	publisher  EventPublisher

	block          uint64
	seed           kitties.Seed
	extrinsicIndex uint32
}

func NewChain(ledger kitties.Ledger, pallet *kitties.Pallet, genesisSeed kitties.Seed, opts ...ChainOpt) *Chain {
	c := &Chain{
		ledger:     ledger,
		pallet:     pallet,
		randomness: HashRandomness{},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.block = 1
	c.seed = c.randomness.Next(genesisSeed, c.block)

	return c
}

// Apply executes one extrinsic. All of its writes commit or none do. The
// extrinsic index is used up either way. Dispatch errors are returned as is
// and also recorded in the receipt.
func (c *Chain) Apply(ctx context.Context, xt Extrinsic) (*Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := &Receipt{
		ID:     uuid.New().String(),
		Block:  c.block,
		Index:  c.extrinsicIndex,
		Caller: xt.Caller,
		Call:   xt.Call,
	}
	c.extrinsicIndex++

	events := &kitties.EventBuffer{}
	err := c.ledger.Atomic(ctx, func(ctx context.Context, st kitties.Store) error {
		tx := &kitties.Tx{
			Caller:         xt.Caller,
			Seed:           c.seed,
			ExtrinsicIndex: r.Index,
			Store:          st,
			Events:         events,
		}
		return c.pallet.Dispatch(ctx, tx, xt.Call)
	})
	if err != nil {
		var de *kitties.DispatchError
		if errors.As(err, &de) {
			r.Error = de.Name
		} else {
			r.Error = ErrInternal
		}
		r.Message = err.Error()

		slog.InfoContext(ctx, "extrinsic rejected", "block", r.Block, "index", r.Index, "caller", xt.Caller, "call", xt.Call.String(), "error", r.Error)
		return r, err
	}

	r.Events = events.Events()
	slog.DebugContext(ctx, "extrinsic applied", "block", r.Block, "index", r.Index, "caller", xt.Caller, "call", xt.Call.String())

	if c.publisher != nil {
		if err := c.publisher.PublishReceipt(ctx, r); err != nil {
			slog.WarnContext(ctx, "publishing receipt", "id", r.ID, "error", err)
		}
	}

	return r, nil
}

// FinalizeBlock closes the current block: the block number advances, a new
// seed is derived and the extrinsic index starts over.
func (c *Chain) FinalizeBlock(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slog.DebugContext(ctx, "block finalized", "block", c.block, "extrinsics", c.extrinsicIndex)

	c.block++
	c.seed = c.randomness.Next(c.seed, c.block)
	c.extrinsicIndex = 0
}

// Tick finalizes the current block.
func (c *Chain) Tick(ctx context.Context) error {
	c.FinalizeBlock(ctx)
	return nil
}

// Head returns the open block, its seed and the next extrinsic index.
func (c *Chain) Head() (block uint64, seed kitties.Seed, index uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block, c.seed, c.extrinsicIndex
}

// KittiesCount returns the number of kitties created so far.
func (c *Chain) KittiesCount(ctx context.Context) (kitties.KittyIndex, error) {
	return c.pallet.KittiesCount(ctx, c.ledger)
}

// Kitty returns a kitty and its owner.
func (c *Chain) Kitty(ctx context.Context, id kitties.KittyIndex) (kitties.Kitty, kitties.AccountID, bool, error) {
	k, ok, err := c.pallet.Kitty(ctx, c.ledger, id)
	if err != nil || !ok {
		return k, "", ok, err
	}

	owner, ok, err := c.pallet.Owner(ctx, c.ledger, id)
	if err != nil {
		return k, "", false, err
	}
	if !ok {
		return k, "", false, fmt.Errorf("kitty %d has no owner", id)
	}
	return k, owner, true, nil
}

type ChainOpt func(*Chain)

// WithRandomness replaces the block seed source
func WithRandomness(r Randomness) ChainOpt {
	return func(c *Chain) {
		c.randomness = r
	}
}

// WithPublisher publishes receipts of applied extrinsics
func WithPublisher(p EventPublisher) ChainOpt {
	return func(c *Chain) {
		c.publisher = p
	}
}

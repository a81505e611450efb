package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-kitties/internal/chain"
	"github.com/pixil98/go-kitties/internal/kitties"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	SubmitSubject = "kitties.submit"
	QuerySubject  = "kitties.query"

	// ErrBadRequest is the receipt error name for undecodable submissions.
	ErrBadRequest = "BadRequest"
)

// QueryRequest asks for one kitty. ID 0 only returns the count.
type QueryRequest struct {
	ID kitties.KittyIndex `msgpack:"id"`
}

type QueryResponse struct {
	Count kitties.KittyIndex `msgpack:"count"`
	Found bool               `msgpack:"found"`
	DNA   string             `msgpack:"dna,omitempty"`
	Owner kitties.AccountID  `msgpack:"owner,omitempty"`
	Error string             `msgpack:"error,omitempty"`
}

// Runtime is the part of the chain the gateway serves.
type Runtime interface {
	Apply(ctx context.Context, xt chain.Extrinsic) (*chain.Receipt, error)
	KittiesCount(ctx context.Context) (kitties.KittyIndex, error)
	Kitty(ctx context.Context, id kitties.KittyIndex) (kitties.Kitty, kitties.AccountID, bool, error)
}

// Handler serves request/reply subjects.
type Handler interface {
	WaitReady(ctx context.Context) error
	Handle(subject string, handler func(data []byte) []byte) (func(), error)
}

// Gateway accepts msgpack encoded extrinsics and queries over NATS. Callers
// are authenticated before their messages reach the broker.
type Gateway struct {
	server  Handler
	runtime Runtime
}

func NewGateway(server Handler, runtime Runtime) *Gateway {
	return &Gateway{server: server, runtime: runtime}
}

func (g *Gateway) Start(ctx context.Context) error {
	err := g.server.WaitReady(ctx)
	if err != nil {
		return fmt.Errorf("waiting for nats: %w", err)
	}

	unsubSubmit, err := g.server.Handle(SubmitSubject, func(data []byte) []byte {
		return g.handleSubmit(ctx, data)
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", SubmitSubject, err)
	}
	defer unsubSubmit()

	unsubQuery, err := g.server.Handle(QuerySubject, func(data []byte) []byte {
		return g.handleQuery(ctx, data)
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", QuerySubject, err)
	}
	defer unsubQuery()

	slog.InfoContext(ctx, "gateway serving", "submit", SubmitSubject, "query", QuerySubject)

	<-ctx.Done()
	return nil
}

func (g *Gateway) handleSubmit(ctx context.Context, data []byte) []byte {
	var xt chain.Extrinsic
	if err := msgpack.Unmarshal(data, &xt); err != nil {
		return encodeReply(&chain.Receipt{Error: ErrBadRequest, Message: fmt.Sprintf("decoding extrinsic: %v", err)})
	}
	if xt.Caller == "" {
		return encodeReply(&chain.Receipt{Error: ErrBadRequest, Message: "caller is required"})
	}

	// The receipt already carries any dispatch error.
	r, _ := g.runtime.Apply(ctx, xt)
	return encodeReply(r)
}

func (g *Gateway) handleQuery(ctx context.Context, data []byte) []byte {
	var req QueryRequest
	if err := msgpack.Unmarshal(data, &req); err != nil {
		return encodeReply(&QueryResponse{Error: fmt.Sprintf("decoding query: %v", err)})
	}

	count, err := g.runtime.KittiesCount(ctx)
	if err != nil {
		return encodeReply(&QueryResponse{Error: err.Error()})
	}

	resp := &QueryResponse{Count: count}
	if req.ID == 0 {
		return encodeReply(resp)
	}

	k, owner, ok, err := g.runtime.Kitty(ctx, req.ID)
	if err != nil {
		resp.Error = err.Error()
		return encodeReply(resp)
	}
	if ok {
		resp.Found = true
		resp.DNA = k.DNA.String()
		resp.Owner = owner
	}
	return encodeReply(resp)
}

func encodeReply(v any) []byte {
	data, err := msgpack.Marshal(v)
	if err != nil {
		slog.Error("encoding reply", "error", err)
		return nil
	}
	return data
}

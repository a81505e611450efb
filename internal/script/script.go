package script

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-kitties/internal/chain"
	"github.com/pixil98/go-kitties/internal/kitties"
)

// ExpectOK marks a statement that must succeed. It is the default.
const ExpectOK = "ok"

// Script is a parsed scenario.
type Script struct {
	Name       string
	Statements []*Statement
}

// Parse reads a scenario. Every expectation must name a known error.
func Parse(name string, src string) (*Script, error) {
	f, err := parser.ParseString(name, src)
	if err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	s := &Script{Name: name, Statements: f.Statements}

	el := errors.NewErrorList()
	for _, st := range s.Statements {
		if st.Call == nil || st.Call.Expect == "" || st.Call.Expect == ExpectOK {
			continue
		}
		if st.Call.Expect == chain.ErrInternal || kitties.ErrorByName(st.Call.Expect) != nil {
			continue
		}
		el.Add(fmt.Errorf("%s: unknown error %q", st.Pos, st.Call.Expect))
	}
	if err := el.Err(); err != nil {
		return nil, err
	}

	return s, nil
}

// ParseFile reads a scenario from disk.
func ParseFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return Parse(path, string(data))
}

// Runtime is what a script drives.
type Runtime interface {
	Apply(ctx context.Context, xt chain.Extrinsic) (*chain.Receipt, error)
	FinalizeBlock(ctx context.Context)
}

// Result is the outcome of one call statement.
type Result struct {
	Line    int
	Receipt *chain.Receipt
}

// Run executes the statements in order and stops at the first outcome that
// differs from its expectation. The results up to that point are returned.
func Run(ctx context.Context, rt Runtime, s *Script) ([]Result, error) {
	var results []Result

	for _, st := range s.Statements {
		if st.Block {
			rt.FinalizeBlock(ctx)
			continue
		}

		r, _ := rt.Apply(ctx, chain.Extrinsic{
			Caller: kitties.AccountID(st.Call.Caller),
			Call:   st.Call.Call(),
		})
		results = append(results, Result{Line: st.Pos.Line, Receipt: r})

		want := st.Call.Expect
		if want == "" {
			want = ExpectOK
		}
		got := r.Error
		if got == "" {
			got = ExpectOK
		}
		if want != got {
			return results, fmt.Errorf("%s: %s as %s: expected %s, got %s", st.Pos, st.Call.Call(), st.Call.Caller, want, got)
		}

		slog.DebugContext(ctx, "script statement", "script", s.Name, "line", st.Pos.Line, "outcome", got)
	}

	return results, nil
}

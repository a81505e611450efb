package script

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pixil98/go-kitties/internal/kitties"
)

// scriptFile is the top-level grammar.
type scriptFile struct {
	Statements []*Statement `parser:"@@*"`
}

// Statement is either a block boundary or one extrinsic.
type Statement struct {
	Pos lexer.Position

	Block bool      `parser:"  @'block'"`
	Call  *CallStmt `parser:"| @@"`
}

// CallStmt parses: as <caller> <call> [expect <error>]
type CallStmt struct {
	Caller   string        `parser:"'as' @Ident"`
	Create   bool          `parser:"( @'create'"`
	Transfer *TransferArgs `parser:"| 'transfer' @@"`
	Breed    *BreedArgs    `parser:"| 'breed' @@ )"`
	Expect   string        `parser:"( 'expect' @Ident )?"`
}

// TransferArgs parses: <to> <id>
type TransferArgs struct {
	To string             `parser:"@Ident"`
	ID kitties.KittyIndex `parser:"@Int"`
}

// BreedArgs parses: <parent1> <parent2>
type BreedArgs struct {
	Parent1 kitties.KittyIndex `parser:"@Int"`
	Parent2 kitties.KittyIndex `parser:"@Int"`
}

var scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s]+`},
	{Name: "Keyword", Pattern: `\b(as|create|transfer|breed|expect|block)\b`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.-]*`},
})

var parser = participle.MustBuild[scriptFile](
	participle.Lexer(scriptLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.UseLookahead(2),
)

// Call converts the statement into a pallet call.
func (c *CallStmt) Call() kitties.Call {
	switch {
	case c.Transfer != nil:
		return kitties.TransferCall(kitties.AccountID(c.Transfer.To), c.Transfer.ID)
	case c.Breed != nil:
		return kitties.BreedCall(c.Breed.Parent1, c.Breed.Parent2)
	default:
		return kitties.CreateCall()
	}
}

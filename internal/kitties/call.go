package kitties

import "fmt"

// CallKind selects one of the pallet's transitions.
type CallKind string

const (
	CallCreate   CallKind = "create"
	CallTransfer CallKind = "transfer"
	CallBreed    CallKind = "breed"
)

// Call is a transition request with its arguments. Only the fields used by
// Kind are meaningful.
type Call struct {
	Kind CallKind `json:"kind" msgpack:"kind"`

	// transfer
	To AccountID  `json:"to,omitempty" msgpack:"to,omitempty"`
	ID KittyIndex `json:"id,omitempty" msgpack:"id,omitempty"`

	// breed
	Parent1 KittyIndex `json:"parent_1,omitempty" msgpack:"parent_1,omitempty"`
	Parent2 KittyIndex `json:"parent_2,omitempty" msgpack:"parent_2,omitempty"`
}

func CreateCall() Call {
	return Call{Kind: CallCreate}
}

func TransferCall(to AccountID, id KittyIndex) Call {
	return Call{Kind: CallTransfer, To: to, ID: id}
}

func BreedCall(parent1, parent2 KittyIndex) Call {
	return Call{Kind: CallBreed, Parent1: parent1, Parent2: parent2}
}

func (c Call) String() string {
	switch c.Kind {
	case CallCreate:
		return "create()"
	case CallTransfer:
		return fmt.Sprintf("transfer(%s, %d)", c.To, c.ID)
	case CallBreed:
		return fmt.Sprintf("breed(%d, %d)", c.Parent1, c.Parent2)
	default:
		return fmt.Sprintf("unknown(%q)", c.Kind)
	}
}

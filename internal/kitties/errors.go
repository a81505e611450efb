package kitties

// DispatchError is a rejected transition. It is reported to the caller and
// no state is changed.
type DispatchError struct {
	Name    string
	Message string
}

func (e *DispatchError) Error() string {
	return e.Message
}

var (
	ErrCountOverflow     = &DispatchError{Name: "CountOverflow", Message: "kitties count overflow"}
	ErrNotOwner          = &DispatchError{Name: "NotOwner", Message: "caller is not the kitty owner"}
	ErrSameParentIndex   = &DispatchError{Name: "SameParentIndex", Message: "parents must be different kitties"}
	ErrInvalidKittyIndex = &DispatchError{Name: "InvalidKittyIndex", Message: "kitty does not exist"}
)

var dispatchErrors = map[string]*DispatchError{
	ErrCountOverflow.Name:     ErrCountOverflow,
	ErrNotOwner.Name:          ErrNotOwner,
	ErrSameParentIndex.Name:   ErrSameParentIndex,
	ErrInvalidKittyIndex.Name: ErrInvalidKittyIndex,
}

// ErrorByName returns the dispatch error with the given name, or nil.
func ErrorByName(name string) *DispatchError {
	return dispatchErrors[name]
}

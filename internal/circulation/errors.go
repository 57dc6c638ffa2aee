package circulation

import "errors"

// Sentinel errors for the lifecycle operations. Handlers map these to HTTP
// status codes; the store returns them from guarded conditional updates.
var (
	ErrNotFound        = errors.New("record not found")
	ErrOutOfStock      = errors.New("book is out of stock")
	ErrNoCopyOut       = errors.New("book has no outstanding copies")
	ErrCopiesBelowOut  = errors.New("total copies cannot be lower than copies on loan")
	ErrStudentNotFound = errors.New("student not found")
	ErrNotStudent      = errors.New("user is not a student")
	ErrLoanLimit       = errors.New("loan limit reached")
	ErrLoanClosed      = errors.New("loan already returned")
	ErrFineNotEligible = errors.New("fine not eligible for this transition")
	ErrNotFineOwner    = errors.New("fine belongs to another user")
	ErrTransactionID   = errors.New("transaction id required for online payment")
	ErrBookInStock     = errors.New("book still has available copies")
	ErrAlreadyReserved = errors.New("book already reserved by this user")
)

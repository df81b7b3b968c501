package transaction

import (
	"errors"
	"math"
	"time"
)

// Transaction types
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// DefaultCategory is the bucket used when an entry carries no category
// (income entries usually don't).
const DefaultCategory = "Outros"

// Domain errors
var (
	ErrNotFound            = errors.New("transaction not found")
	ErrDeleteWindowExpired = errors.New("delete window expired")
	ErrInvalidType         = errors.New("invalid transaction type")
)

// Transaction is a single financial event owned by one user.
// Date is the user-supplied date of the event; CreatedAt is the
// store-assigned insertion instant and only drives the delete window.
type Transaction struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Value       float64   `json:"value"` // non-negative magnitude, sign implied by Type
	Type        string    `json:"type"`
	Category    string    `json:"category,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AddParams contains parameters for recording a new transaction.
// The store assigns ID and CreatedAt on insert.
type AddParams struct {
	Date        time.Time
	Description string
	Value       float64
	Type        string
	Category    string
}

// Validate validates the add parameters
func (p AddParams) Validate() error {
	if p.Description == "" {
		return errors.New("description is required")
	}
	if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) || p.Value <= 0 {
		return errors.New("value must be a positive amount")
	}
	if p.Type != TypeIncome && p.Type != TypeExpense {
		return ErrInvalidType
	}
	if p.Type == TypeExpense && p.Category == "" {
		return errors.New("category is required for expenses")
	}
	if p.Date.IsZero() {
		return errors.New("date is required")
	}
	return nil
}

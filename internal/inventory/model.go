package inventory

import "time"

// Inventory is the stock ledger record for one product. Reserved never
// exceeds Quantity; both are mutated only through conditional updates in the
// repository.
type Inventory struct {
	ProductID int64     `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Reserved  int       `json:"reserved" db:"reserved"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Available is the quantity eligible for new reservations. Derived, never
// persisted on its own.
func (i *Inventory) Available() int {
	return i.Quantity - i.Reserved
}

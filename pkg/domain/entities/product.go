package entities

// ProductID represents a unique product identifier
type ProductID string

// StorageState represents the storage state of an inventory cohort
type StorageState int

const (
	StateAmbient StorageState = iota
	StateFrozen
	StateThawed
)

// String method for StorageState enum
func (s StorageState) String() string {
	switch s {
	case StateAmbient:
		return "Ambient"
	case StateFrozen:
		return "Frozen"
	case StateThawed:
		return "Thawed"
	default:
		return "Unknown"
	}
}

// Product represents a perishable SKU with its shelf-life limits and
// indivisible batch size
type Product struct {
	ID                   ProductID `validate:"required"`
	Name                 string
	ShelfLifeAmbientDays int   `validate:"gt=0"`
	ShelfLifeFrozenDays  int   `validate:"gte=0"`
	ShelfLifeThawedDays  int   `validate:"gte=0"`
	UnitsPerMix          int64 `validate:"gt=0"`
}

// NewProduct validates and returns an immutable Product.
func NewProduct(p Product) (*Product, error) {
	if err := checkStruct("product", p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ShelfLifeDays returns the shelf-life limit, in days, applicable to a
// cohort of this product in the given storage state.
func (p *Product) ShelfLifeDays(state StorageState) int {
	switch state {
	case StateFrozen:
		return p.ShelfLifeFrozenDays
	case StateThawed:
		return p.ShelfLifeThawedDays
	default:
		return p.ShelfLifeAmbientDays
	}
}

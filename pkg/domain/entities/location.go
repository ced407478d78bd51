package entities

// LocationID represents a unique network node identifier
type LocationID string

// LocationType represents the role of a node in the network
type LocationType int

const (
	Manufacturing LocationType = iota
	Storage
	Breadroom
)

// String method for LocationType enum
func (t LocationType) String() string {
	switch t {
	case Manufacturing:
		return "Manufacturing"
	case Storage:
		return "Storage"
	case Breadroom:
		return "Breadroom"
	default:
		return "Unknown"
	}
}

// StorageCapability represents which storage states a node supports
type StorageCapability int

const (
	AmbientOnly StorageCapability = iota
	FrozenOnly
	AmbientAndFrozen
)

// String method for StorageCapability enum
func (c StorageCapability) String() string {
	switch c {
	case AmbientOnly:
		return "Ambient"
	case FrozenOnly:
		return "Frozen"
	case AmbientAndFrozen:
		return "AmbientAndFrozen"
	default:
		return "Unknown"
	}
}

// SupportsFrozen reports whether frozen cohorts may be held here.
func (c StorageCapability) SupportsFrozen() bool {
	return c == FrozenOnly || c == AmbientAndFrozen
}

// SupportsAmbient reports whether ambient or thawed cohorts may be held here.
func (c StorageCapability) SupportsAmbient() bool {
	return c == AmbientOnly || c == AmbientAndFrozen
}

// ChangeoverKey identifies a product-to-product changeover
type ChangeoverKey struct {
	From ProductID
	To   ProductID
}

// ManufacturingSpec holds the production parameters of a manufacturing site
type ManufacturingSpec struct {
	RateUnitsPerHour       float64 `validate:"gt=0"`
	MaxDailyUnits          float64 `validate:"gt=0"`
	StartupHours           float64 `validate:"gte=0"`
	ShutdownHours          float64 `validate:"gte=0"`
	DefaultChangeoverHours float64 `validate:"gte=0"`
	ChangeoverHours        map[ChangeoverKey]float64
	MaxProductsPerDay      int `validate:"gt=0"`
}

// ChangeoverFor returns the changeover time for a specific product
// transition, falling back to the site default when no explicit entry
// exists.
func (m *ManufacturingSpec) ChangeoverFor(from, to ProductID) float64 {
	if h, ok := m.ChangeoverHours[ChangeoverKey{From: from, To: to}]; ok {
		return h
	}
	return m.DefaultChangeoverHours
}

// Location represents a network node. Manufacturing locations carry a
// ManufacturingSpec; all others leave it nil.
type Location struct {
	ID            LocationID `validate:"required"`
	Name          string
	Type          LocationType
	Storage       StorageCapability
	CapacityUnits float64 `validate:"gte=0"` // 0 = uncapped
	Manufacturing *ManufacturingSpec
}

// NewLocation validates and returns an immutable Location.
func NewLocation(l Location) (*Location, error) {
	if err := checkStruct("location", l); err != nil {
		return nil, err
	}
	if l.Type == Manufacturing {
		if l.Manufacturing == nil {
			return nil, NewDataError("location", "Manufacturing", "manufacturing location requires a manufacturing spec")
		}
		if err := checkStruct("location.manufacturing", *l.Manufacturing); err != nil {
			return nil, err
		}
	} else if l.Manufacturing != nil {
		return nil, NewDataError("location", "Manufacturing", "only manufacturing locations may carry a manufacturing spec")
	}
	return &l, nil
}

// IsManufacturing reports whether this node produces.
func (l *Location) IsManufacturing() bool {
	return l.Type == Manufacturing
}

package entities

import "time"

// ForecastEntry represents forecast demand for one (location, product,
// date). Multiple entries accumulate per key. A location's forecast is
// independent: a hub's own figure never implicitly includes its spokes.
type ForecastEntry struct {
	Location   LocationID `validate:"required"`
	Product    ProductID  `validate:"required"`
	Date       time.Time  `validate:"required"`
	Units      float64    `validate:"gte=0"`
	Confidence float64    `validate:"gte=0,lte=1"` // 0 = unspecified
}

// NewForecastEntry validates and returns an immutable ForecastEntry,
// with the date normalized to midnight UTC.
func NewForecastEntry(f ForecastEntry) (*ForecastEntry, error) {
	if err := checkStruct("forecast_entry", f); err != nil {
		return nil, err
	}
	f.Date = Day(f.Date)
	return &f, nil
}

// ForecastKey identifies an accumulated demand bucket
type ForecastKey struct {
	Location LocationID
	Product  ProductID
	Date     time.Time
}

// Key returns the accumulation key for this entry.
func (f *ForecastEntry) Key() ForecastKey {
	return ForecastKey{Location: f.Location, Product: f.Product, Date: Day(f.Date)}
}

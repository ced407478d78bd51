package memory

import (
	"fmt"
	"sort"
	"time"

	"github.com/bakeplan/bakeplan/pkg/domain/entities"
)

// CalendarRepository provides in-memory labor calendar storage. Each
// calendar date holds exactly one labor day.
type CalendarRepository struct {
	days map[time.Time]entities.LaborDay
}

// NewCalendarRepository creates a new in-memory calendar repository
func NewCalendarRepository() *CalendarRepository {
	return &CalendarRepository{
		days: make(map[time.Time]entities.LaborDay),
	}
}

// Put stores a labor day; a second entry for the same date is a data
// error, never a silent overwrite.
func (r *CalendarRepository) Put(day *entities.LaborDay) error {
	key := entities.Day(day.Date)
	if _, exists := r.days[key]; exists {
		return entities.NewDataError("labor_day", "Date", fmt.Sprintf("duplicate labor day %s", key.Format("2006-01-02")))
	}
	r.days[key] = *day
	return nil
}

// Get returns the labor day covering a date, if any
func (r *CalendarRepository) Get(date time.Time) (*entities.LaborDay, bool) {
	d, ok := r.days[entities.Day(date)]
	if !ok {
		return nil, false
	}
	return &d, true
}

// All returns every stored labor day in date order
func (r *CalendarRepository) All() []*entities.LaborDay {
	var out []*entities.LaborDay
	for key := range r.days {
		d := r.days[key]
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

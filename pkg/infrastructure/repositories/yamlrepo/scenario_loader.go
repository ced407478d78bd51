// Package yamlrepo loads a full planning scenario from a single YAML
// document. Enums and money amounts travel as strings and are parsed
// through the entity constructors so a bad file fails with the same
// errors a bad in-memory scenario would.
package yamlrepo

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/bakeplan/bakeplan/pkg/domain/entities"
	"github.com/bakeplan/bakeplan/pkg/planner"
)

const dateLayout = "2006-01-02"

// Loader handles loading scenario files
type Loader struct{}

// NewLoader creates a new YAML scenario loader
func NewLoader() *Loader {
	return &Loader{}
}

type rawScenario struct {
	Products  []rawProduct  `yaml:"products"`
	Locations []rawLocation `yaml:"locations"`
	Routes    []rawRoute    `yaml:"routes"`
	Calendar  []rawLaborDay `yaml:"calendar"`
	Trucks    []rawTruck    `yaml:"trucks"`
	Forecast  []rawForecast `yaml:"forecast"`
	Costs     *rawCosts     `yaml:"costs"`
}

type rawProduct struct {
	ID                   string `yaml:"id"`
	Name                 string `yaml:"name"`
	ShelfLifeAmbientDays int    `yaml:"shelf_life_ambient_days"`
	ShelfLifeFrozenDays  int    `yaml:"shelf_life_frozen_days"`
	ShelfLifeThawedDays  int    `yaml:"shelf_life_thawed_days"`
	UnitsPerMix          int64  `yaml:"units_per_mix"`
}

type rawChangeover struct {
	From  string  `yaml:"from"`
	To    string  `yaml:"to"`
	Hours float64 `yaml:"hours"`
}

type rawManufacturing struct {
	RateUnitsPerHour       float64         `yaml:"rate_units_per_hour"`
	MaxDailyUnits          float64         `yaml:"max_daily_units"`
	StartupHours           float64         `yaml:"startup_hours"`
	ShutdownHours          float64         `yaml:"shutdown_hours"`
	DefaultChangeoverHours float64         `yaml:"default_changeover_hours"`
	Changeovers            []rawChangeover `yaml:"changeovers"`
	MaxProductsPerDay      int             `yaml:"max_products_per_day"`
}

type rawLocation struct {
	ID            string            `yaml:"id"`
	Name          string            `yaml:"name"`
	Type          string            `yaml:"type"`
	Storage       string            `yaml:"storage"`
	CapacityUnits float64           `yaml:"capacity_units"`
	Manufacturing *rawManufacturing `yaml:"manufacturing"`
}

type rawRoute struct {
	ID            string  `yaml:"id"`
	Origin        string  `yaml:"origin"`
	Destination   string  `yaml:"destination"`
	Mode          string  `yaml:"mode"`
	TransitDays   int     `yaml:"transit_days"`
	CostPerUnit   string  `yaml:"cost_per_unit"`
	CapacityUnits float64 `yaml:"capacity_units"`
}

type rawLaborDay struct {
	Date             string  `yaml:"date"`
	FixedHours       float64 `yaml:"fixed_hours"`
	MaxOvertimeHours float64 `yaml:"max_overtime_hours"`
	RegularRate      string  `yaml:"regular_rate"`
	OvertimeRate     string  `yaml:"overtime_rate"`
	NonFixedRate     string  `yaml:"non_fixed_rate"`
	MinHoursNonFixed float64 `yaml:"min_hours_non_fixed"`
	FixedDay         bool    `yaml:"fixed_day"`
}

type rawTruck struct {
	ID             string  `yaml:"id"`
	Origin         string  `yaml:"origin"`
	Destination    string  `yaml:"destination"`
	DayOfWeek      string  `yaml:"day_of_week"`
	Date           string  `yaml:"date"`
	Slot           string  `yaml:"slot"`
	UnitCapacity   float64 `yaml:"unit_capacity"`
	PalletCapacity int     `yaml:"pallet_capacity"`
	UnitsPerPallet int     `yaml:"units_per_pallet"`
	UnitsPerCase   int     `yaml:"units_per_case"`
}

type rawForecast struct {
	Location   string  `yaml:"location"`
	Product    string  `yaml:"product"`
	Date       string  `yaml:"date"`
	Units      float64 `yaml:"units"`
	Confidence float64 `yaml:"confidence"`
}

type rawCosts struct {
	ProductionPerUnit   string `yaml:"production_per_unit"`
	ShortagePerUnit     string `yaml:"shortage_per_unit"`
	WastePerUnit        string `yaml:"waste_per_unit"`
	FreshnessPerUnitDay string `yaml:"freshness_per_unit_day"`
}

// LoadScenario reads and validates a scenario file.
func (l *Loader) LoadScenario(filename string) (*planner.Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenario file %s: %w", filename, err)
	}
	return l.ParseScenario(data)
}

// ParseScenario validates an in-memory scenario document.
func (l *Loader) ParseScenario(data []byte) (*planner.Scenario, error) {
	var raw rawScenario
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	sc := &planner.Scenario{}

	for i, rp := range raw.Products {
		p, err := entities.NewProduct(entities.Product{
			ID:                   entities.ProductID(rp.ID),
			Name:                 rp.Name,
			ShelfLifeAmbientDays: rp.ShelfLifeAmbientDays,
			ShelfLifeFrozenDays:  rp.ShelfLifeFrozenDays,
			ShelfLifeThawedDays:  rp.ShelfLifeThawedDays,
			UnitsPerMix:          rp.UnitsPerMix,
		})
		if err != nil {
			return nil, fmt.Errorf("products[%d]: %w", i, err)
		}
		sc.Products = append(sc.Products, p)
	}

	for i, rl := range raw.Locations {
		loc, err := parseLocation(rl)
		if err != nil {
			return nil, fmt.Errorf("locations[%d]: %w", i, err)
		}
		sc.Locations = append(sc.Locations, loc)
	}

	for i, rr := range raw.Routes {
		mode, err := parseMode(rr.Mode)
		if err != nil {
			return nil, fmt.Errorf("routes[%d]: %w", i, err)
		}
		cost, err := parseDecimal(rr.CostPerUnit)
		if err != nil {
			return nil, fmt.Errorf("routes[%d]: cost_per_unit: %w", i, err)
		}
		leg, err := entities.NewRouteLeg(entities.RouteLeg{
			ID:            rr.ID,
			Origin:        entities.LocationID(rr.Origin),
			Destination:   entities.LocationID(rr.Destination),
			Mode:          mode,
			TransitDays:   rr.TransitDays,
			CostPerUnit:   cost,
			CapacityUnits: rr.CapacityUnits,
		})
		if err != nil {
			return nil, fmt.Errorf("routes[%d]: %w", i, err)
		}
		sc.Routes = append(sc.Routes, leg)
	}

	for i, rd := range raw.Calendar {
		day, err := parseLaborDay(rd)
		if err != nil {
			return nil, fmt.Errorf("calendar[%d]: %w", i, err)
		}
		sc.Calendar = append(sc.Calendar, day)
	}

	for i, rt := range raw.Trucks {
		truck, err := parseTruck(rt)
		if err != nil {
			return nil, fmt.Errorf("trucks[%d]: %w", i, err)
		}
		sc.Trucks = append(sc.Trucks, truck)
	}

	for i, rf := range raw.Forecast {
		date, err := parseDate(rf.Date)
		if err != nil {
			return nil, fmt.Errorf("forecast[%d]: %w", i, err)
		}
		entry, err := entities.NewForecastEntry(entities.ForecastEntry{
			Location:   entities.LocationID(rf.Location),
			Product:    entities.ProductID(rf.Product),
			Date:       date,
			Units:      rf.Units,
			Confidence: rf.Confidence,
		})
		if err != nil {
			return nil, fmt.Errorf("forecast[%d]: %w", i, err)
		}
		sc.Forecast = append(sc.Forecast, entry)
	}

	if raw.Costs != nil {
		costs, err := parseCosts(*raw.Costs)
		if err != nil {
			return nil, fmt.Errorf("costs: %w", err)
		}
		sc.Costs = costs
	}

	return sc, nil
}

func parseLocation(rl rawLocation) (*entities.Location, error) {
	locType, err := parseLocationType(rl.Type)
	if err != nil {
		return nil, err
	}
	storage, err := parseStorage(rl.Storage)
	if err != nil {
		return nil, err
	}
	var spec *entities.ManufacturingSpec
	if rl.Manufacturing != nil {
		rm := rl.Manufacturing
		spec = &entities.ManufacturingSpec{
			RateUnitsPerHour:       rm.RateUnitsPerHour,
			MaxDailyUnits:          rm.MaxDailyUnits,
			StartupHours:           rm.StartupHours,
			ShutdownHours:          rm.ShutdownHours,
			DefaultChangeoverHours: rm.DefaultChangeoverHours,
			MaxProductsPerDay:      rm.MaxProductsPerDay,
		}
		if len(rm.Changeovers) > 0 {
			spec.ChangeoverHours = make(map[entities.ChangeoverKey]float64, len(rm.Changeovers))
			for _, co := range rm.Changeovers {
				key := entities.ChangeoverKey{
					From: entities.ProductID(co.From),
					To:   entities.ProductID(co.To),
				}
				spec.ChangeoverHours[key] = co.Hours
			}
		}
	}
	return entities.NewLocation(entities.Location{
		ID:            entities.LocationID(rl.ID),
		Name:          rl.Name,
		Type:          locType,
		Storage:       storage,
		CapacityUnits: rl.CapacityUnits,
		Manufacturing: spec,
	})
}

func parseLaborDay(rd rawLaborDay) (*entities.LaborDay, error) {
	date, err := parseDate(rd.Date)
	if err != nil {
		return nil, err
	}
	regular, err := parseDecimal(rd.RegularRate)
	if err != nil {
		return nil, fmt.Errorf("regular_rate: %w", err)
	}
	overtime, err := parseDecimal(rd.OvertimeRate)
	if err != nil {
		return nil, fmt.Errorf("overtime_rate: %w", err)
	}
	nonFixed, err := parseDecimal(rd.NonFixedRate)
	if err != nil {
		return nil, fmt.Errorf("non_fixed_rate: %w", err)
	}
	return entities.NewLaborDay(entities.LaborDay{
		Date:             date,
		FixedHours:       rd.FixedHours,
		MaxOvertimeHours: rd.MaxOvertimeHours,
		RegularRate:      regular,
		OvertimeRate:     overtime,
		NonFixedRate:     nonFixed,
		MinHoursNonFixed: rd.MinHoursNonFixed,
		IsFixedDay:       rd.FixedDay,
	})
}

func parseTruck(rt rawTruck) (*entities.TruckDeparture, error) {
	slot, err := parseSlot(rt.Slot)
	if err != nil {
		return nil, err
	}
	var date time.Time
	if rt.Date != "" {
		date, err = parseDate(rt.Date)
		if err != nil {
			return nil, err
		}
	}
	dow, err := parseWeekday(rt.DayOfWeek)
	if err != nil {
		return nil, err
	}
	if date.IsZero() && rt.DayOfWeek == "" {
		return nil, fmt.Errorf("truck %s: either date or day_of_week is required", rt.ID)
	}
	return entities.NewTruckDeparture(entities.TruckDeparture{
		ID:             rt.ID,
		Origin:         entities.LocationID(rt.Origin),
		Destination:    entities.LocationID(rt.Destination),
		DayOfWeek:      dow,
		Date:           date,
		Slot:           slot,
		UnitCapacity:   rt.UnitCapacity,
		PalletCapacity: rt.PalletCapacity,
		UnitsPerPallet: rt.UnitsPerPallet,
		UnitsPerCase:   rt.UnitsPerCase,
	})
}

func parseCosts(rc rawCosts) (*entities.CostRates, error) {
	production, err := parseDecimal(rc.ProductionPerUnit)
	if err != nil {
		return nil, fmt.Errorf("production_per_unit: %w", err)
	}
	shortage, err := parseDecimal(rc.ShortagePerUnit)
	if err != nil {
		return nil, fmt.Errorf("shortage_per_unit: %w", err)
	}
	waste, err := parseDecimal(rc.WastePerUnit)
	if err != nil {
		return nil, fmt.Errorf("waste_per_unit: %w", err)
	}
	freshness, err := parseDecimal(rc.FreshnessPerUnitDay)
	if err != nil {
		return nil, fmt.Errorf("freshness_per_unit_day: %w", err)
	}
	return entities.NewCostRates(entities.CostRates{
		ProductionPerUnit:   production,
		ShortagePerUnit:     shortage,
		WastePerUnit:        waste,
		FreshnessPerUnitDay: freshness,
	})
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// parseDecimal treats an absent amount as zero.
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

func parseLocationType(s string) (entities.LocationType, error) {
	switch strings.ToLower(s) {
	case "manufacturing":
		return entities.Manufacturing, nil
	case "storage":
		return entities.Storage, nil
	case "breadroom":
		return entities.Breadroom, nil
	default:
		return 0, fmt.Errorf("invalid location type %q", s)
	}
}

func parseStorage(s string) (entities.StorageCapability, error) {
	switch strings.ToLower(s) {
	case "", "ambient":
		return entities.AmbientOnly, nil
	case "frozen":
		return entities.FrozenOnly, nil
	case "ambient_and_frozen":
		return entities.AmbientAndFrozen, nil
	default:
		return 0, fmt.Errorf("invalid storage capability %q", s)
	}
}

func parseMode(s string) (entities.TransportMode, error) {
	switch strings.ToLower(s) {
	case "", "ambient":
		return entities.ModeAmbient, nil
	case "frozen":
		return entities.ModeFrozen, nil
	default:
		return 0, fmt.Errorf("invalid transport mode %q", s)
	}
}

func parseSlot(s string) (entities.DepartureSlot, error) {
	switch strings.ToLower(s) {
	case "", "morning":
		return entities.Morning, nil
	case "afternoon":
		return entities.Afternoon, nil
	default:
		return 0, fmt.Errorf("invalid departure slot %q", s)
	}
}

func parseWeekday(s string) (time.Weekday, error) {
	if s == "" {
		return time.Sunday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid day of week %q", s)
}

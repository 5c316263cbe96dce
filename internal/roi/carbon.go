package roi

import (
	"sort"
	"strings"
)

// GlobalCarbonIntensityKgPerKWh is used when no country figure is known
const GlobalCarbonIntensityKgPerKWh = 0.475

// Carbon intensity sources
const (
	SourceCountry        = "country"
	SourceGlobalFallback = "global_fallback"
)

// CarbonIntensity is the kgCO2 emitted per kWh for a country and year
type CarbonIntensity struct {
	Country  string  `json:"country,omitempty" yaml:"country"`
	Year     int     `json:"year,omitempty" yaml:"year"`
	KgPerKWh float64 `json:"kg_per_kwh" yaml:"kg_per_kwh"`
	Source   string  `json:"source" yaml:"-"`
}

// GlobalCarbonIntensity returns the fallback figure
func GlobalCarbonIntensity() CarbonIntensity {
	return CarbonIntensity{KgPerKWh: GlobalCarbonIntensityKgPerKWh, Source: SourceGlobalFallback}
}

// IntensityTable indexes carbon intensities by country code and year
type IntensityTable struct {
	byCountry map[string][]CarbonIntensity
}

// NewIntensityTable builds a table from entries. Later duplicates win
func NewIntensityTable(entries []CarbonIntensity) *IntensityTable {
	t := &IntensityTable{byCountry: make(map[string][]CarbonIntensity)}
	for _, e := range entries {
		t.Add(e)
	}
	return t
}

// Add inserts or replaces the figure for e.Country/e.Year
func (t *IntensityTable) Add(e CarbonIntensity) {
	key := normalizeCountry(e.Country)
	if key == "" || e.KgPerKWh < 0 {
		return
	}
	e.Country = key
	e.Source = SourceCountry

	rows := t.byCountry[key]
	for i := range rows {
		if rows[i].Year == e.Year {
			rows[i] = e
			return
		}
	}
	rows = append(rows, e)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })
	t.byCountry[key] = rows
}

// Len returns the number of stored figures
func (t *IntensityTable) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, rows := range t.byCountry {
		n += len(rows)
	}
	return n
}

// Lookup returns the figure for country in year, else the latest earlier
// year, else the earliest known year, else the global fallback. A year of 0
// selects the latest figure for the country
func (t *IntensityTable) Lookup(country string, year int) CarbonIntensity {
	if t == nil {
		return GlobalCarbonIntensity()
	}
	rows := t.byCountry[normalizeCountry(country)]
	if len(rows) == 0 {
		return GlobalCarbonIntensity()
	}
	if year == 0 {
		return rows[len(rows)-1]
	}

	best := rows[0]
	for _, r := range rows {
		if r.Year > year {
			break
		}
		best = r
	}
	return best
}

func normalizeCountry(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}

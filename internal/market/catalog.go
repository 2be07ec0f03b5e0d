// Package market holds the district price store, the state and nationwide
// index computers and the engine that ties them into one tick.
package market

import (
	"sort"

	zerrors "zonix/internal/errors"
)

// DistrictKey identifies a district token. A district belongs to exactly one
// state, the one whose code matches StateCode.
type DistrictKey struct {
	StateCode string `json:"state_code"`
	Name      string `json:"name"`
}

func (k DistrictKey) String() string {
	return k.StateCode + "/" + k.Name
}

// State is a catalogue entry for a state index.
type State struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Catalog lists the states and districts simulated in a session.
type Catalog struct {
	States    []State       `json:"states"`
	Districts []DistrictKey `json:"districts"`
}

// Validate checks codes are unique and every district points at a known state.
func (c Catalog) Validate() error {
	if len(c.States) == 0 {
		return zerrors.NewValidationErrorFor(zerrors.ErrConfigInvalid, "states", 0, "catalog has no states")
	}
	if len(c.Districts) == 0 {
		return zerrors.ErrEmptyCatalog
	}
	codes := make(map[string]bool, len(c.States))
	for _, s := range c.States {
		if s.Code == "" {
			return zerrors.NewValidationErrorFor(zerrors.ErrConfigInvalid, "state.code", s.Name, "empty state code")
		}
		if codes[s.Code] {
			return zerrors.NewValidationErrorFor(zerrors.ErrConfigInvalid, "state.code", s.Code, "duplicate state code")
		}
		codes[s.Code] = true
	}
	seen := make(map[DistrictKey]bool, len(c.Districts))
	for _, d := range c.Districts {
		if !codes[d.StateCode] {
			return zerrors.NewValidationErrorFor(zerrors.ErrUnknownState, "district.state_code", d.String(), "district references unknown state")
		}
		if seen[d] {
			return zerrors.NewValidationErrorFor(zerrors.ErrConfigInvalid, "district", d.String(), "duplicate district")
		}
		seen[d] = true
	}
	return nil
}

// HasState reports whether code is a catalogued state.
func (c Catalog) HasState(code string) bool {
	for _, s := range c.States {
		if s.Code == code {
			return true
		}
	}
	return false
}

// DistrictsOf returns the districts of a state in catalogue order.
func (c Catalog) DistrictsOf(code string) []DistrictKey {
	var out []DistrictKey
	for _, d := range c.Districts {
		if d.StateCode == code {
			out = append(out, d)
		}
	}
	return out
}

// sortedKeys returns map keys ordered by state code, then district name.
func sortedKeys(prices map[DistrictKey]float64) []DistrictKey {
	keys := make([]DistrictKey, 0, len(prices))
	for k := range prices {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].StateCode != keys[j].StateCode {
			return keys[i].StateCode < keys[j].StateCode
		}
		return keys[i].Name < keys[j].Name
	})
	return keys
}

// DefaultCatalog returns the states and district tokens listed on the
// dashboards.
func DefaultCatalog() Catalog {
	entries := []struct {
		code, name string
		districts  []string
	}{
		{"MH", "Maharashtra", []string{"Mumbai", "Pune", "Nagpur", "Nashik", "Aurangabad"}},
		{"KA", "Karnataka", []string{"Bengaluru Urban", "Mysuru", "Mangaluru", "Hubballi-Dharwad"}},
		{"TN", "Tamil Nadu", []string{"Chennai", "Coimbatore", "Madurai", "Tiruchirappalli"}},
		{"GJ", "Gujarat", []string{"Ahmedabad", "Surat", "Vadodara", "Rajkot"}},
		{"UP", "Uttar Pradesh", []string{"Lucknow", "Kanpur Nagar", "Varanasi", "Agra", "Gautam Buddh Nagar"}},
		{"DL", "Delhi", []string{"New Delhi", "South Delhi", "North West Delhi"}},
		{"WB", "West Bengal", []string{"Kolkata", "Howrah", "Darjeeling"}},
		{"RJ", "Rajasthan", []string{"Jaipur", "Jodhpur", "Udaipur", "Kota"}},
		{"TG", "Telangana", []string{"Hyderabad", "Rangareddy", "Warangal"}},
		{"KL", "Kerala", []string{"Thiruvananthapuram", "Ernakulam", "Kozhikode"}},
		{"PB", "Punjab", []string{"Ludhiana", "Amritsar", "Jalandhar"}},
		{"MP", "Madhya Pradesh", []string{"Indore", "Bhopal", "Gwalior", "Jabalpur"}},
		{"AP", "Andhra Pradesh", []string{"Visakhapatnam", "Vijayawada", "Guntur"}},
		{"HR", "Haryana", []string{"Gurugram", "Faridabad", "Panipat"}},
		{"BR", "Bihar", []string{"Patna", "Gaya", "Muzaffarpur"}},
		{"OD", "Odisha", []string{"Khordha", "Cuttack", "Ganjam"}},
	}

	var c Catalog
	for _, e := range entries {
		c.States = append(c.States, State{Code: e.code, Name: e.name})
		for _, d := range e.districts {
			c.Districts = append(c.Districts, DistrictKey{StateCode: e.code, Name: d})
		}
	}
	return c
}

package model

import "time"

// ThermoRecord is a completed NASA polynomial fit for one species, keyed on
// its identifier. Later runs of the same species replace earlier records.
type ThermoRecord struct {
	Identifier string     `json:"identifier"`
	Name       string     `json:"name"`
	Formula    string     `json:"formula"`
	RunID      string     `json:"run_id,omitempty"`
	ZPE        float64    `json:"zpe"`
	DeltaH     float64    `json:"delta_h"`
	TMin       float64    `json:"tmin"`
	TMid       float64    `json:"tmid"`
	TMax       float64    `json:"tmax"`
	Low        [7]float64 `json:"low"`
	High       [7]float64 `json:"high"`
	Chemkin    string     `json:"chemkin"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

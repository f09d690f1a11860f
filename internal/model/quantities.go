package model

// ThermoQuantities holds what a QC log yielded for the thermo path. Every
// field is independently present or absent: nil slices and nil pointers
// mean the parser did not find the quantity.
type ThermoQuantities struct {
	Geometry              []Atom      `json:"geometry,omitempty" yaml:"geometry,omitempty"`
	Frequencies           []float64   `json:"frequencies,omitempty" yaml:"frequencies,omitempty"`
	ZPE                   *float64    `json:"zpe,omitempty" yaml:"zpe,omitempty"`     // kcal/mol
	DeltaH                *float64    `json:"delta_h,omitempty" yaml:"delta_h,omitempty"` // kcal/mol
	AnharmonicFrequencies []float64   `json:"anharmonic_frequencies,omitempty" yaml:"anharmonic_frequencies,omitempty"`
	XMatrix               [][]float64 `json:"x_matrix,omitempty" yaml:"x_matrix,omitempty"` // cm-1
}

// HasGeometry reports whether an optimized geometry was found.
func (q ThermoQuantities) HasGeometry() bool { return len(q.Geometry) > 0 }

// HasFrequencies reports whether harmonic frequencies were found.
func (q ThermoQuantities) HasFrequencies() bool { return len(q.Frequencies) > 0 }

// HasZPE reports whether a non-zero zero-point energy was found. A zero
// ZPE is treated as missing.
func (q ThermoQuantities) HasZPE() bool { return q.ZPE != nil && *q.ZPE != 0 }

// HasDeltaH reports whether an enthalpy change was found. Zero is a valid
// enthalpy change.
func (q ThermoQuantities) HasDeltaH() bool { return q.DeltaH != nil }

// HasAnharmonicFrequencies reports whether anharmonic frequencies were found.
func (q ThermoQuantities) HasAnharmonicFrequencies() bool { return len(q.AnharmonicFrequencies) > 0 }

// HasXMatrix reports whether the anharmonic X-matrix was found.
func (q ThermoQuantities) HasXMatrix() bool { return len(q.XMatrix) > 0 }

// CanRunThermo reports whether the polynomial fit has all of its inputs.
func (q ThermoQuantities) CanRunThermo() bool {
	return q.HasGeometry() && q.HasFrequencies() && q.HasZPE() && q.HasDeltaH()
}

// CanRunAnharmonic reports whether the anharmonic correction has its inputs.
func (q ThermoQuantities) CanRunAnharmonic() bool {
	return q.HasAnharmonicFrequencies() && q.HasXMatrix()
}

// Float returns a pointer to v, for building quantities in parsers and tests.
func Float(v float64) *float64 { return &v }

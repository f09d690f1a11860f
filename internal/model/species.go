package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Atom is a single atom of a molecule with Cartesian coordinates in Angstrom.
type Atom struct {
	Symbol string     `json:"symbol" yaml:"symbol"`
	Coord  [3]float64 `json:"coord" yaml:"coord"`
}

// Molecule is the internal representation of a species' structure.
type Molecule struct {
	Formula      string `json:"formula"`
	Charge       int    `json:"charge"`
	Multiplicity int    `json:"multiplicity"`
	Atoms        []Atom `json:"atoms,omitempty"`
}

// HasGeometry reports whether the molecule carries Cartesian coordinates.
// Molecules built from an identifier alone only know their formula.
func (m Molecule) HasGeometry() bool {
	return len(m.Atoms) > 0
}

// SetGeometry returns a copy of m whose atoms are replaced by coords.
// When m already lists atoms, coords must describe the same composition.
func (m Molecule) SetGeometry(coords []Atom) (Molecule, error) {
	if len(coords) == 0 {
		return m, eris.New("model: empty geometry")
	}
	if m.Formula != "" && HillFormula(coords) != m.Formula {
		return m, eris.Errorf("model: geometry formula %s does not match %s",
			HillFormula(coords), m.Formula)
	}
	out := m
	out.Atoms = make([]Atom, len(coords))
	copy(out.Atoms, coords)
	if out.Formula == "" {
		out.Formula = HillFormula(coords)
	}
	return out, nil
}

// XYZ renders the molecule as an XYZ block.
func (m Molecule) XYZ(comment string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\n%s\n", len(m.Atoms), comment)
	for _, a := range m.Atoms {
		fmt.Fprintf(&b, "%-2s %14.8f %14.8f %14.8f\n", a.Symbol, a.Coord[0], a.Coord[1], a.Coord[2])
	}
	return b.String()
}

// Geo renders the coordinate lines only, one atom per line, the form QC
// templates and script packages consume.
func (m Molecule) Geo() string {
	var b strings.Builder
	for _, a := range m.Atoms {
		fmt.Fprintf(&b, "%-2s %14.8f %14.8f %14.8f\n", a.Symbol, a.Coord[0], a.Coord[1], a.Coord[2])
	}
	return b.String()
}

// Species is a single molecular entity processed by one pipeline run.
type Species struct {
	Identifier   string   `json:"identifier"`
	Multiplicity int      `json:"multiplicity"`
	Molecule     Molecule `json:"molecule"`
	Name         string   `json:"name"`
	Dir          string   `json:"dir"`
}

// LogName returns the deterministic QC log artifact name for pkg.
func (s Species) LogName(pkg string) string {
	return s.Name + "_" + pkg + ".out"
}

// HillFormula returns the molecular formula of atoms in Hill order.
func HillFormula(atoms []Atom) string {
	counts := make(map[string]int)
	for _, a := range atoms {
		counts[a.Symbol]++
	}
	return FormulaFromCounts(counts)
}

// FormulaFromCounts renders element counts in Hill order: C, H, then the
// rest alphabetically. Without carbon everything is alphabetical.
func FormulaFromCounts(counts map[string]int) string {
	var b strings.Builder
	write := func(sym string) {
		n := counts[sym]
		if n == 0 {
			return
		}
		b.WriteString(sym)
		if n > 1 {
			fmt.Fprintf(&b, "%d", n)
		}
	}
	var rest []string
	for sym := range counts {
		rest = append(rest, sym)
	}
	sort.Strings(rest)
	if counts["C"] > 0 {
		write("C")
		write("H")
		for _, sym := range rest {
			if sym != "C" && sym != "H" {
				write(sym)
			}
		}
		return b.String()
	}
	for _, sym := range rest {
		write(sym)
	}
	return b.String()
}

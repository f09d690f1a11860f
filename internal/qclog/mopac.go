package qclog

import (
	"strings"

	"github.com/sells-group/qtc/internal/model"
)

// parseMopac reads the last CARTESIAN COORDINATES block, FREQ. lines of the
// vibration description, ZERO POINT ENERGY, FINAL HEAT OF FORMATION (used
// as deltaH) and TOTAL ENERGY.
func parseMopac(text string) *Summary {
	s := &Summary{}
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case strings.Contains(line, "CARTESIAN COORDINATES"):
			if geo, next := mopacCoordinates(lines, i+1); len(geo) > 0 {
				s.Geometry = geo
				i = next - 1
			}
		case strings.Contains(line, "DESCRIPTION OF VIBRATIONS"):
			s.Frequencies = nil
		case len(strings.Fields(line)) >= 2 && strings.Fields(line)[0] == "FREQ.":
			if v, ok := number(strings.Fields(line)[1]); ok {
				s.Frequencies = append(s.Frequencies, v)
			}
		case strings.Contains(line, "ZERO POINT ENERGY"):
			if v, ok := numberAfter(line, "ZERO POINT ENERGY"); ok {
				s.ZPE = model.Float(v)
			}
		case strings.Contains(line, "FINAL HEAT OF FORMATION"):
			if v, ok := numberAfter(line, "FINAL HEAT OF FORMATION"); ok {
				s.DeltaH = model.Float(v)
			}
		case strings.Contains(line, "TOTAL ENERGY"):
			if v, ok := numberAfter(line, "TOTAL ENERGY"); ok {
				s.Energy = model.Float(v * EVToHartree)
			}
		}
	}
	return s
}

// mopacCoordinates reads "index symbol x y z" rows starting at or after
// lines[start], tolerating header and blank lines before the first row.
func mopacCoordinates(lines []string, start int) ([]model.Atom, int) {
	var atoms []model.Atom
	for i := start; i < len(lines); i++ {
		f := strings.Fields(lines[i])
		ok := len(f) >= 5
		var a model.Atom
		if ok {
			_, ok = integer(f[0])
		}
		if ok {
			a, ok = atomAt(symbol(f[1]), f[2:5])
		}
		if ok {
			atoms = append(atoms, a)
			continue
		}
		if len(atoms) > 0 || i-start > 4 {
			return atoms, i
		}
	}
	return atoms, len(lines)
}

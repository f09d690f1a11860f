package qclog

import (
	"math"
	"strings"

	"github.com/sells-group/qtc/internal/model"
)

// nwchemMinFrequency drops the near-zero translational and rotational modes
// NWChem prints among the projected frequencies.
const nwchemMinFrequency = 20.0

func parseNWChem(text string) *Summary {
	s := &Summary{}
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case strings.Contains(line, "Output coordinates in angstroms"):
			if geo, next := nwchemCoordinates(lines, i+1); len(geo) > 0 {
				s.Geometry = geo
				i = next - 1
			}
		case strings.Contains(line, "Projected Frequencies expressed in cm-1"):
			s.Frequencies = nil
		case strings.HasPrefix(strings.TrimSpace(line), "P.Frequency"):
			for _, v := range numbers(strings.Fields(line)[1:]) {
				if math.Abs(v) >= nwchemMinFrequency {
					s.Frequencies = append(s.Frequencies, v)
				}
			}
		case strings.Contains(line, "Zero-Point correction to Energy"):
			if v, ok := numberAfter(line, "Zero-Point correction to Energy"); ok {
				s.ZPE = model.Float(v)
			}
		case strings.Contains(line, "Total DFT energy") || strings.Contains(line, "Total SCF energy"):
			if v, ok := numberAfter(line, "energy"); ok {
				s.Energy = model.Float(v)
			}
		}
	}
	return s
}

// nwchemCoordinates reads "no tag charge x y z" rows after the dashed rule.
func nwchemCoordinates(lines []string, start int) ([]model.Atom, int) {
	var atoms []model.Atom
	seenRule := false
	for i := start; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "----") {
			seenRule = true
			continue
		}
		if !seenRule {
			continue
		}
		f := strings.Fields(trimmed)
		if len(f) < 6 {
			return atoms, i
		}
		if _, ok := integer(f[0]); !ok {
			return atoms, i
		}
		a, ok := atomAt(symbol(f[1]), f[3:6])
		if !ok {
			return atoms, i
		}
		atoms = append(atoms, a)
	}
	return atoms, len(lines)
}

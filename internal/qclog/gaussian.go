package qclog

import (
	"strings"

	"github.com/sells-group/qtc/internal/model"
)

func parseGaussian(text string) *Summary {
	s := &Summary{}
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case strings.Contains(line, "Standard orientation:") || strings.Contains(line, "Input orientation:"):
			if geo, next := gaussianOrientation(lines, i+1); len(geo) > 0 {
				if strings.Contains(line, "Standard") || s.Geometry == nil {
					s.Geometry = geo
				}
				i = next - 1
			}
		case strings.Contains(line, "SCF Done:"):
			if v, ok := numberAfter(line, "="); ok {
				s.Energy = model.Float(v)
			}
		case strings.Contains(line, "Harmonic frequencies (cm**-1)"):
			s.Frequencies = nil
		case strings.HasPrefix(strings.TrimSpace(line), "Frequencies --"):
			s.Frequencies = append(s.Frequencies, numbers(strings.Fields(line)[2:])...)
		case strings.Contains(line, "Zero-point correction="):
			if v, ok := numberAfter(line, "Zero-point correction="); ok {
				s.ZPE = model.Float(v * HartreeToKcal)
			}
		case strings.Contains(line, "Fundamental Bands"):
			if freqs, next := gaussianFundamentals(lines, i+1); len(freqs) > 0 {
				s.AnharmonicFrequencies = freqs
				i = next - 1
			}
		case strings.Contains(line, "X matrix of Anharmonic Constants"):
			if x, next := gaussianXMatrix(lines, i+1); len(x) > 0 {
				s.XMatrix = x
				i = next - 1
			}
		}
	}
	return s
}

// gaussianOrientation reads "center Z type x y z" rows between the dashed
// rules that follow an orientation header.
func gaussianOrientation(lines []string, start int) ([]model.Atom, int) {
	var atoms []model.Atom
	rules := 0
	for i := start; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "-----") {
			rules++
			if rules == 3 {
				return atoms, i + 1
			}
			continue
		}
		if rules < 2 {
			continue
		}
		f := strings.Fields(trimmed)
		if len(f) < 6 {
			return atoms, i
		}
		z, ok := integer(f[1])
		if !ok {
			return atoms, i
		}
		a, ok := atomAt(model.SymbolFor(z), f[3:6])
		if !ok {
			return atoms, i
		}
		atoms = append(atoms, a)
	}
	return atoms, len(lines)
}

// gaussianFundamentals reads "mode(1) E(harm) E(anharm) ..." rows and
// returns the anharmonic energies.
func gaussianFundamentals(lines []string, start int) ([]float64, int) {
	var freqs []float64
	for i := start; i < len(lines); i++ {
		f := strings.Fields(lines[i])
		if len(f) >= 3 && strings.HasSuffix(f[0], "(1)") {
			if v, ok := number(f[2]); ok {
				freqs = append(freqs, v)
				continue
			}
		}
		if len(freqs) > 0 {
			return freqs, i
		}
		if i-start > 6 {
			break
		}
	}
	return freqs, start
}

// gaussianXMatrix reads a lower-triangular matrix printed in column blocks:
// a header row of column indices, then "row value..." rows.
func gaussianXMatrix(lines []string, start int) ([][]float64, int) {
	entries := make(map[[2]int]float64)
	n := 0
	var cols []int
	i := start
	for ; i < len(lines); i++ {
		f := strings.Fields(lines[i])
		if len(f) == 0 {
			if len(entries) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(f[0], "---") {
			continue
		}
		if header, ok := allIntegers(f); ok && !strings.Contains(lines[i], ".") {
			cols = header
			continue
		}
		row, ok := integer(f[0])
		if !ok || cols == nil {
			break
		}
		for k, raw := range f[1:] {
			if k >= len(cols) {
				break
			}
			v, ok := number(raw)
			if !ok {
				break
			}
			entries[[2]int{row, cols[k]}] = v
		}
		if row > n {
			n = row
		}
	}
	if n == 0 {
		return nil, start
	}
	x := make([][]float64, n)
	for r := range x {
		x[r] = make([]float64, n)
	}
	for rc, v := range entries {
		r, c := rc[0]-1, rc[1]-1
		if r < n && c < n && r >= 0 && c >= 0 {
			x[r][c] = v
			x[c][r] = v
		}
	}
	return x, i
}

func allIntegers(f []string) ([]int, bool) {
	out := make([]int, 0, len(f))
	for _, s := range f {
		v, ok := integer(s)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

package qclog

import (
	"strconv"
	"strings"

	"github.com/sells-group/qtc/internal/model"
)

// number parses a float, accepting Fortran "D" exponents.
func number(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.NewReplacer("D", "E", "d", "e").Replace(s), 64)
	return v, err == nil
}

func integer(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	return v, err == nil
}

// numberAfter returns the first number following marker on line.
func numberAfter(line, marker string) (float64, bool) {
	i := strings.Index(line, marker)
	if i < 0 {
		return 0, false
	}
	for _, f := range strings.Fields(strings.NewReplacer("=", " ", ":", " ").Replace(line[i+len(marker):])) {
		if v, ok := number(f); ok {
			return v, true
		}
	}
	return 0, false
}

// numbers returns every number in fields, skipping non-numeric tokens.
func numbers(fields []string) []float64 {
	var out []float64
	for _, f := range fields {
		if v, ok := number(f); ok {
			out = append(out, v)
		}
	}
	return out
}

// symbol normalises an atom label ("O1", "CL", "h") to an element symbol.
func symbol(label string) string {
	label = strings.TrimRightFunc(label, func(r rune) bool { return r >= '0' && r <= '9' || r == '_' })
	if label == "" {
		return ""
	}
	if len(label) > 1 {
		two := strings.ToUpper(label[:1]) + strings.ToLower(label[1:2])
		if model.IsElement(two) {
			return two
		}
	}
	return strings.ToUpper(label[:1])
}

func atomAt(sym string, xyz []string) (model.Atom, bool) {
	a := model.Atom{Symbol: sym}
	if !model.IsElement(sym) || len(xyz) < 3 {
		return a, false
	}
	for k := 0; k < 3; k++ {
		v, ok := number(xyz[k])
		if !ok {
			return a, false
		}
		a.Coord[k] = v
	}
	return a, true
}

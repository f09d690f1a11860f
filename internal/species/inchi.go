package species

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/sells-group/qtc/internal/model"
)

const inchiPrefix = "InChI="

// IsInChI reports whether identifier is an InChI string.
func IsInChI(identifier string) bool {
	return strings.HasPrefix(identifier, inchiPrefix)
}

// parseInChI reads the formula, charge (/q) and proton (/p) layers.
// InChI does not mark radicals, so unpaired is left for the caller to
// derive from the electron count.
func parseInChI(s string) (composition, error) {
	layers := strings.Split(strings.TrimPrefix(s, inchiPrefix), "/")
	if len(layers) < 2 || layers[1] == "" {
		return composition{}, eris.Errorf("species: no formula layer in %q", s)
	}

	comp := composition{counts: make(map[string]int)}
	for _, part := range strings.Split(layers[1], ".") {
		mult := 1
		i := 0
		for i < len(part) && unicode.IsDigit(rune(part[i])) {
			i++
		}
		if i > 0 {
			mult, _ = strconv.Atoi(part[:i])
		}
		counts, err := parseFormula(part[i:])
		if err != nil {
			return composition{}, eris.Wrapf(err, "species: formula layer of %q", s)
		}
		for sym, n := range counts {
			comp.counts[sym] += n * mult
		}
	}

	for _, layer := range layers[2:] {
		if layer == "" {
			continue
		}
		switch layer[0] {
		case 'q':
			for _, q := range strings.Split(layer[1:], ";") {
				n, err := strconv.Atoi(q)
				if err == nil {
					comp.charge += n
				}
			}
		case 'p':
			n, err := strconv.Atoi(layer[1:])
			if err == nil {
				comp.counts["H"] += n
				comp.charge += n
				if comp.counts["H"] <= 0 {
					delete(comp.counts, "H")
				}
			}
		}
	}
	return comp, nil
}

func parseFormula(f string) (map[string]int, error) {
	counts := make(map[string]int)
	for i := 0; i < len(f); {
		if !unicode.IsUpper(rune(f[i])) {
			return nil, eris.Errorf("species: bad formula %q", f)
		}
		j := i + 1
		for j < len(f) && unicode.IsLower(rune(f[j])) {
			j++
		}
		sym := f[i:j]
		if !model.IsElement(sym) {
			return nil, eris.Errorf("species: unknown element %q in %q", sym, f)
		}
		k := j
		for k < len(f) && unicode.IsDigit(rune(f[k])) {
			k++
		}
		n := 1
		if k > j {
			n, _ = strconv.Atoi(f[j:k])
		}
		counts[sym] += n
		i = k
	}
	return counts, nil
}

package species

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/sells-group/qtc/internal/model"
)

// composition is what the identifier alone tells us about a molecule.
type composition struct {
	counts   map[string]int
	charge   int
	unpaired int
}

type smilesAtom struct {
	symbol   string
	aromatic bool
	bracket  bool
	hcount   int
	charge   int
	bonds    float64
}

var organicSubset = []string{"Cl", "Br", "B", "C", "N", "O", "P", "S", "F", "I"}

var aromaticSubset = map[byte]string{'b': "B", 'c': "C", 'n': "N", 'o': "O", 'p': "P", 's': "S"}

var normalValences = map[string][]int{
	"B": {3}, "C": {4}, "N": {3, 5}, "O": {2}, "P": {3, 5}, "S": {2, 4, 6},
	"F": {1}, "Cl": {1}, "Br": {1}, "I": {1}, "H": {1}, "Si": {4},
}

// parseSMILES derives element counts, net charge and the number of unpaired
// electrons from a SMILES string. It understands the organic subset,
// bracket atoms, branches, ring closures and disconnected components, which
// is enough to name and stage species; stereo markers are ignored.
func parseSMILES(s string) (composition, error) {
	var atoms []*smilesAtom
	var stack []int
	rings := make(map[int]struct {
		atom  int
		order float64
	})
	prev := -1
	pendingOrder := 0.0

	bond := func(a, b int, order float64) {
		if order == 0 {
			order = 1
			if atoms[a].aromatic && atoms[b].aromatic {
				order = 1.5
			}
		}
		atoms[a].bonds += order
		atoms[b].bonds += order
	}
	addAtom := func(at *smilesAtom) {
		atoms = append(atoms, at)
		idx := len(atoms) - 1
		if prev >= 0 {
			bond(prev, idx, pendingOrder)
		}
		pendingOrder = 0
		prev = idx
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return composition{}, eris.Errorf("species: unclosed bracket atom in %q", s)
			}
			at, err := parseBracketAtom(s[i+1 : i+end])
			if err != nil {
				return composition{}, err
			}
			addAtom(at)
			i += end + 1
		case c == '(':
			stack = append(stack, prev)
			i++
		case c == ')':
			if len(stack) == 0 {
				return composition{}, eris.Errorf("species: unbalanced branch in %q", s)
			}
			prev = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			i++
		case c == '.':
			prev = -1
			i++
		case c == '-' || c == '/' || c == '\\':
			pendingOrder = 1
			i++
		case c == '=':
			pendingOrder = 2
			i++
		case c == '#':
			pendingOrder = 3
			i++
		case c == '$':
			pendingOrder = 4
			i++
		case c == ':':
			pendingOrder = 1.5
			i++
		case c == '%' || unicode.IsDigit(rune(c)):
			n := int(c - '0')
			width := 1
			if c == '%' {
				if i+2 >= len(s) {
					return composition{}, eris.Errorf("species: bad ring closure in %q", s)
				}
				v, err := strconv.Atoi(s[i+1 : i+3])
				if err != nil {
					return composition{}, eris.Errorf("species: bad ring closure in %q", s)
				}
				n, width = v, 3
			}
			if prev < 0 {
				return composition{}, eris.Errorf("species: ring closure without atom in %q", s)
			}
			if open, ok := rings[n]; ok {
				order := pendingOrder
				if order == 0 {
					order = open.order
				}
				bond(open.atom, prev, order)
				delete(rings, n)
			} else {
				rings[n] = struct {
					atom  int
					order float64
				}{prev, pendingOrder}
			}
			pendingOrder = 0
			i += width
		case c == '*':
			addAtom(&smilesAtom{symbol: "*"})
			i++
		default:
			if sym, ok := aromaticSubset[c]; ok {
				addAtom(&smilesAtom{symbol: sym, aromatic: true})
				i++
				continue
			}
			matched := false
			for _, sym := range organicSubset {
				if strings.HasPrefix(s[i:], sym) {
					addAtom(&smilesAtom{symbol: sym})
					i += len(sym)
					matched = true
					break
				}
			}
			if !matched {
				return composition{}, eris.Errorf("species: unexpected %q at %d in %q", c, i, s)
			}
		}
	}
	if len(stack) > 0 {
		return composition{}, eris.Errorf("species: unbalanced branch in %q", s)
	}
	if len(rings) > 0 {
		return composition{}, eris.Errorf("species: unclosed ring in %q", s)
	}
	if len(atoms) == 0 {
		return composition{}, eris.Errorf("species: no atoms in %q", s)
	}

	comp := composition{counts: make(map[string]int)}
	for _, at := range atoms {
		if at.symbol == "*" {
			continue
		}
		comp.counts[at.symbol]++
		comp.charge += at.charge
		bonds := at.bonds
		if at.aromatic {
			bonds = math.Floor(bonds)
		}
		used := int(math.Round(bonds))
		if at.bracket {
			if at.hcount > 0 {
				comp.counts["H"] += at.hcount
			}
			if v := bracketValence(at); v > 0 {
				if free := v - used - at.hcount; free > 0 {
					comp.unpaired += free
				}
			}
			continue
		}
		comp.counts["H"] += implicitHydrogens(at.symbol, used)
	}
	return comp, nil
}

func parseBracketAtom(body string) (*smilesAtom, error) {
	at := &smilesAtom{bracket: true}
	i := 0
	for i < len(body) && unicode.IsDigit(rune(body[i])) {
		i++
	}
	if i >= len(body) {
		return nil, eris.Errorf("species: empty bracket atom [%s]", body)
	}
	rest := body[i:]
	switch {
	case len(rest) >= 2 && unicode.IsUpper(rune(rest[0])) && unicode.IsLower(rune(rest[1])) && model.IsElement(rest[:2]):
		at.symbol = rest[:2]
		rest = rest[2:]
	case unicode.IsUpper(rune(rest[0])):
		at.symbol = rest[:1]
		rest = rest[1:]
	default:
		if len(rest) >= 2 && rest[:2] == "se" {
			at.symbol, at.aromatic, rest = "Se", true, rest[2:]
		} else if sym, ok := aromaticSubset[rest[0]]; ok {
			at.symbol, at.aromatic, rest = sym, true, rest[1:]
		} else {
			return nil, eris.Errorf("species: bad element in [%s]", body)
		}
	}
	if !model.IsElement(at.symbol) {
		return nil, eris.Errorf("species: unknown element in [%s]", body)
	}
	for len(rest) > 0 && rest[0] == '@' {
		rest = rest[1:]
	}
	if len(rest) > 0 && rest[0] == 'H' {
		rest = rest[1:]
		at.hcount = 1
		j := 0
		for j < len(rest) && unicode.IsDigit(rune(rest[j])) {
			j++
		}
		if j > 0 {
			at.hcount, _ = strconv.Atoi(rest[:j])
			rest = rest[j:]
		}
	}
	if len(rest) > 0 && (rest[0] == '+' || rest[0] == '-') {
		sign := 1
		if rest[0] == '-' {
			sign = -1
		}
		sym := rest[0]
		n := 0
		for len(rest) > 0 && rest[0] == sym {
			n++
			rest = rest[1:]
		}
		j := 0
		for j < len(rest) && unicode.IsDigit(rune(rest[j])) {
			j++
		}
		if j > 0 {
			n, _ = strconv.Atoi(rest[:j])
			rest = rest[j:]
		}
		at.charge = sign * n
	}
	if len(rest) > 0 && rest[0] != ':' {
		return nil, eris.Errorf("species: unexpected %q in [%s]", rest, body)
	}
	return at, nil
}

// bracketValence is the valence an explicit atom would have without
// radicals, adjusted for its charge. Zero means unknown (no radical count).
func bracketValence(at *smilesAtom) int {
	vs, ok := normalValences[at.symbol]
	if !ok {
		return 0
	}
	v := vs[0]
	switch at.symbol {
	case "B", "C", "Si":
		if at.charge != 0 {
			v--
		}
	default:
		v += at.charge
	}
	if v < 0 {
		return 0
	}
	return v
}

func implicitHydrogens(symbol string, used int) int {
	for _, v := range normalValences[symbol] {
		if v >= used {
			return v - used
		}
	}
	return 0
}

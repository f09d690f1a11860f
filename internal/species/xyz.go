package species

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/qtc/internal/model"
)

// ReadXYZFile reads the first frame of an XYZ file.
func ReadXYZFile(path string) ([]model.Atom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "species: open xyz %s", path)
	}
	defer f.Close() //nolint:errcheck

	atoms, err := ReadXYZ(f)
	if err != nil {
		return nil, eris.Wrapf(err, "species: read xyz %s", path)
	}
	return atoms, nil
}

// ReadXYZ reads the first frame of an XYZ stream: an atom count, a comment
// line, then one "symbol x y z" line per atom. Symbols are normalised to
// element case ("CL" -> "Cl").
func ReadXYZ(r io.Reader) ([]model.Atom, error) {
	sc := bufio.NewScanner(r)

	var header string
	for sc.Scan() {
		header = strings.TrimSpace(sc.Text())
		if header != "" {
			break
		}
	}
	if header == "" {
		return nil, eris.New("species: empty xyz")
	}
	n, err := strconv.Atoi(strings.Fields(header)[0])
	if err != nil || n <= 0 {
		return nil, eris.Errorf("species: bad atom count %q", header)
	}
	if !sc.Scan() {
		return nil, eris.New("species: missing xyz comment line")
	}

	atoms := make([]model.Atom, 0, n)
	for len(atoms) < n && sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			return nil, eris.Errorf("species: bad xyz line %q", sc.Text())
		}
		a := model.Atom{Symbol: normaliseSymbol(fields[0])}
		if !model.IsElement(a.Symbol) {
			return nil, eris.Errorf("species: unknown element %q", fields[0])
		}
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(fields[k+1], 64)
			if err != nil {
				return nil, eris.Wrapf(err, "species: bad coordinate in %q", sc.Text())
			}
			a.Coord[k] = v
		}
		atoms = append(atoms, a)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "species: scan xyz")
	}
	if len(atoms) != n {
		return nil, eris.Errorf("species: expected %d atoms, got %d", n, len(atoms))
	}
	return atoms, nil
}

func normaliseSymbol(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

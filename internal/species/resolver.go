// Package species turns molecular identifiers (SMILES or InChI) into
// species records: formula, charge, multiplicity, a filesystem-safe name,
// the species directory and, when Open Babel is available, a 3D geometry.
package species

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/qtc/internal/model"
)

// Resolver builds the species record for one identifier.
type Resolver interface {
	Resolve(ctx context.Context, identifier string) (model.Species, error)
}

// LocalResolver derives species from the identifier text and lays species
// directories out under Root as <formula>/<name>/<multiplicity>.
type LocalResolver struct {
	Root string
	// OBabel is the Open Babel executable used to generate 3D coordinates.
	// Empty disables geometry generation.
	OBabel string
}

// NewLocalResolver creates a LocalResolver.
func NewLocalResolver(root, obabel string) *LocalResolver {
	return &LocalResolver{Root: root, OBabel: obabel}
}

// Resolve implements Resolver.
func (r *LocalResolver) Resolve(ctx context.Context, identifier string) (model.Species, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return model.Species{}, eris.New("species: empty identifier")
	}

	var comp composition
	var err error
	if IsInChI(identifier) {
		comp, err = parseInChI(identifier)
	} else {
		comp, err = parseSMILES(identifier)
	}
	if err != nil {
		return model.Species{}, err
	}

	mult := multiplicity(comp, IsInChI(identifier))
	mol := model.Molecule{
		Formula:      model.FormulaFromCounts(comp.counts),
		Charge:       comp.charge,
		Multiplicity: mult,
	}
	name := SafeName(identifier)

	root, err := filepath.Abs(r.Root)
	if err != nil {
		return model.Species{}, eris.Wrapf(err, "species: resolve root %s", r.Root)
	}

	sp := model.Species{
		Identifier:   identifier,
		Multiplicity: mult,
		Molecule:     mol,
		Name:         name,
		Dir:          filepath.Join(root, mol.Formula, name, strconv.Itoa(mult)),
	}

	if r.OBabel != "" {
		if atoms, err := r.generate3D(ctx, identifier); err != nil {
			zap.L().Debug("species: no generated geometry",
				zap.String("species", identifier), zap.Error(err))
		} else if withGeo, err := mol.SetGeometry(atoms); err != nil {
			zap.L().Warn("species: generated geometry rejected",
				zap.String("species", identifier), zap.Error(err))
		} else {
			sp.Molecule = withGeo
		}
	}
	return sp, nil
}

func (r *LocalResolver) generate3D(ctx context.Context, identifier string) ([]model.Atom, error) {
	exe, err := exec.LookPath(r.OBabel)
	if err != nil {
		return nil, eris.Wrapf(err, "species: obabel %s", r.OBabel)
	}
	format := "-ismi"
	if IsInChI(identifier) {
		format = "-iinchi"
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, exe, format, "-:"+identifier, "-oxyz", "--gen3d")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, eris.Wrapf(err, "species: obabel: %s", strings.TrimSpace(stderr.String()))
	}
	return ReadXYZ(&stdout)
}

// multiplicity is high-spin: unpaired electrons + 1. Without explicit
// radical information it falls back to electron-count parity.
func multiplicity(c composition, inchi bool) int {
	if !inchi && c.unpaired > 0 {
		return c.unpaired + 1
	}
	electrons := -c.charge
	for sym, n := range c.counts {
		electrons += model.AtomicNumber(sym) * n
	}
	if electrons%2 != 0 {
		return 2
	}
	return 1
}

var nameReplacer = strings.NewReplacer(
	"/", "_s",
	"\\", "_b",
	"#", "_t",
	"*", "_a",
	":", "_c",
	"?", "_q",
	"<", "_l",
	">", "_g",
	"|", "_p",
	"\"", "",
	"'", "",
	" ", "",
	"=", "_e",
	"@", "_r",
	"$", "_d",
	"%", "_o",
	"[", "_j",
	"]", "_k",
	"(", "_m",
	")", "_n",
	"+", "_u",
	",", "_v",
)

// SafeName maps an identifier to a name usable as a file name. Distinct
// characters map to distinct escapes so different identifiers stay apart.
// The InChI prefix is dropped.
func SafeName(identifier string) string {
	id := strings.TrimPrefix(strings.TrimSpace(identifier), inchiPrefix)
	return nameReplacer.Replace(id)
}

package qc

import (
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/qtc/internal/model"
)

// Placeholders substituted in templates:
//
//	QTC(NAME)     species file name
//	QTC(FORMULA)  molecular formula
//	QTC(CHARGE)   net charge
//	QTC(MULT)     spin multiplicity
//	QTC(SPIN)     MOPAC spin keyword (SINGLET, DOUBLET, ...)
//	QTC(SPIN2)    number of unpaired electrons (Molpro spin)
//	QTC(NPROC)    processors per QC job
//	QTC(GEO)      Cartesian geometry, one "symbol x y z" line per atom
//	QTC(GEOCOUNT) number of atoms
const placeholderPrefix = "QTC("

var defaultTemplates = map[string]string{
	Mopac: `PM7 XYZ PRECISE FORCE THERMO LET CHARGE=QTC(CHARGE) QTC(SPIN)
QTC(NAME)
QTC(FORMULA)
QTC(GEO)
`,
	Gaussian: `%nprocshared=QTC(NPROC)
#P B3LYP/6-31G(d) opt freq

QTC(NAME)

QTC(CHARGE) QTC(MULT)
QTC(GEO)
`,
	NWChem: `start QTC(NAME)
title "QTC(NAME) QTC(FORMULA)"
charge QTC(CHARGE)
geometry units angstroms
QTC(GEO)end
basis
 * library 6-31G*
end
dft
 xc b3lyp
 mult QTC(MULT)
end
task dft optimize
task dft freq
`,
	Molpro: `***,QTC(NAME)
geomtyp=xyz
geometry={
QTC(GEOCOUNT)
QTC(FORMULA)
QTC(GEO)}
set,charge=QTC(CHARGE)
set,spin=QTC(SPIN2)
basis=vdz
hf
optg
frequencies
`,
}

var spinKeywords = []string{"", "SINGLET", "DOUBLET", "TRIPLET", "QUARTET", "QUINTET", "SEXTET", "SEPTET", "OCTET", "NONET"}

// LoadTemplate reads a template file, or returns the built-in template for
// pkg when path is empty.
func LoadTemplate(path, pkg string) (string, error) {
	if path == "" {
		t, ok := defaultTemplates[pkg]
		if !ok {
			return "", eris.Errorf("qc: no built-in template for %s", pkg)
		}
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "qc: read template %s", path)
	}
	return string(data), nil
}

// Render substitutes species values into a template. The molecule must
// carry a geometry. Unknown QTC(...) placeholders are an error.
func Render(tmpl string, sp model.Species, nproc int) (string, error) {
	mol := sp.Molecule
	if !mol.HasGeometry() {
		return "", eris.Errorf("qc: no geometry for %s; provide an xyz path or install Open Babel", sp.Name)
	}
	if nproc < 1 {
		nproc = 1
	}
	spin := ""
	if mol.Multiplicity > 0 && mol.Multiplicity < len(spinKeywords) {
		spin = spinKeywords[mol.Multiplicity]
	}

	out := strings.NewReplacer(
		"QTC(NAME)", sp.Name,
		"QTC(FORMULA)", mol.Formula,
		"QTC(CHARGE)", strconv.Itoa(mol.Charge),
		"QTC(MULT)", strconv.Itoa(mol.Multiplicity),
		"QTC(SPIN2)", strconv.Itoa(mol.Multiplicity-1),
		"QTC(SPIN)", spin,
		"QTC(NPROC)", strconv.Itoa(nproc),
		"QTC(GEOCOUNT)", strconv.Itoa(len(mol.Atoms)),
		"QTC(GEO)", mol.Geo(),
	).Replace(tmpl)

	if i := strings.Index(out, placeholderPrefix); i >= 0 {
		end := strings.IndexByte(out[i:], ')')
		if end < 0 {
			end = len(out) - i - 1
		}
		return "", eris.Errorf("qc: unknown placeholder %s", out[i:i+end+1])
	}
	return out, nil
}

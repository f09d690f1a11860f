// Package qclog reads quantum-chemistry program logs.
package qclog

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/qtc/internal/model"
)

// Unit conversions.
const (
	HartreeToKcal = 627.509474
	EVToHartree   = 1 / 27.211386246
)

// Summary is everything a log yields, for inspection and file output.
type Summary struct {
	Package               string       `yaml:"package"`
	Name                  string       `yaml:"name"`
	Formula               string       `yaml:"formula,omitempty"`
	Energy                *float64     `yaml:"energy,omitempty"` // Hartree
	Geometry              []model.Atom `yaml:"-"`
	XYZ                   string       `yaml:"xyz,omitempty"`
	Frequencies           []float64    `yaml:"frequencies,omitempty,flow"`
	ZPE                   *float64     `yaml:"zpe,omitempty"`     // kcal/mol
	DeltaH                *float64     `yaml:"delta_h,omitempty"` // kcal/mol
	AnharmonicFrequencies []float64    `yaml:"anharmonic_frequencies,omitempty,flow"`
	XMatrix               [][]float64  `yaml:"x_matrix,omitempty"`
}

// Detect identifies the program that wrote a log, or returns "".
func Detect(text string) string {
	head := text
	if len(head) > 20000 {
		head = head[:20000]
	}
	switch {
	case strings.Contains(head, "Gaussian, Inc.") || strings.Contains(head, "Entering Gaussian System"):
		return "gaussian"
	case strings.Contains(head, "Northwest Computational Chemistry Package") || strings.Contains(head, "NWChem"):
		return "nwchem"
	case strings.Contains(head, "PROGRAM SYSTEM MOLPRO") || strings.Contains(head, "Molpro"):
		return "molpro"
	case strings.Contains(head, "MOPAC"):
		return "mopac"
	}
	return ""
}

// Parse extracts a Summary from log text, detecting the program.
func Parse(text, name string) (*Summary, error) {
	pkg := Detect(text)
	if pkg == "" {
		return nil, eris.Errorf("qclog: unrecognised log for %s", name)
	}
	s, err := parseAs(text, pkg)
	if err != nil {
		return nil, err
	}
	s.Name = name
	return s, nil
}

func parseAs(text, pkg string) (*Summary, error) {
	var s *Summary
	switch pkg {
	case "mopac":
		s = parseMopac(text)
	case "gaussian":
		s = parseGaussian(text)
	case "nwchem":
		s = parseNWChem(text)
	case "molpro":
		s = parseMolpro(text)
	default:
		return nil, eris.Errorf("qclog: no parser for %q", pkg)
	}
	s.Package = pkg
	if len(s.Geometry) > 0 {
		s.Formula = model.HillFormula(s.Geometry)
		s.XYZ = model.Molecule{Atoms: s.Geometry}.Geo()
	}
	return s, nil
}

// YAML renders the summary for display.
func (s *Summary) YAML() (string, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return "", eris.Wrap(err, "qclog: marshal summary")
	}
	return string(out), nil
}

// WriteFiles writes <name>.xyz (geometry) and <name>.ene (energy) into dir
// for whichever of the two the log provided. It returns the written paths.
func (s *Summary) WriteFiles(dir string) ([]string, error) {
	var written []string
	if len(s.Geometry) > 0 {
		path := filepath.Join(dir, s.Name+".xyz")
		mol := model.Molecule{Atoms: s.Geometry}
		comment := s.Package
		if s.Energy != nil {
			comment += " energy " + strconv.FormatFloat(*s.Energy, 'f', 8, 64)
		}
		if err := os.WriteFile(path, []byte(mol.XYZ(comment)), 0o644); err != nil {
			return written, eris.Wrapf(err, "qclog: write %s", path)
		}
		written = append(written, path)
	}
	if s.Energy != nil {
		path := filepath.Join(dir, s.Name+".ene")
		if err := os.WriteFile(path, []byte(strconv.FormatFloat(*s.Energy, 'f', 8, 64)+"\n"), 0o644); err != nil {
			return written, eris.Wrapf(err, "qclog: write %s", path)
		}
		written = append(written, path)
	}
	return written, nil
}

// Quantities returns the thermo inputs held by the summary. Anharmonic
// data is dropped unless anharmonic is set.
func (s *Summary) Quantities(anharmonic bool) model.ThermoQuantities {
	q := model.ThermoQuantities{
		Geometry:    s.Geometry,
		Frequencies: s.Frequencies,
		ZPE:         s.ZPE,
		DeltaH:      s.DeltaH,
	}
	if anharmonic {
		q.AnharmonicFrequencies = s.AnharmonicFrequencies
		q.XMatrix = s.XMatrix
	}
	return q
}

// Package thermo fits NASA 7-coefficient polynomials to rigid-rotor /
// harmonic-oscillator thermochemistry and writes them as CHEMKIN files.
package thermo

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/qtc/internal/model"
)

// Options configures WritePolynomial.
type Options struct {
	Name       string // output file stem
	Dir        string
	Identifier string

	TMin, TMid, TMax float64
	Plot             bool

	// Anharmonic replaces the harmonic frequencies with
	// AnharmonicFrequencies and corrects the ZPE with XMatrix.
	Anharmonic            bool
	AnharmonicFrequencies []float64
	XMatrix               [][]float64 // cm-1
}

// Result lists what WritePolynomial produced.
type Result struct {
	Polynomial Polynomial
	ZPE        float64 // kcal/mol, after any anharmonic correction
	Files      []string
}

// AnharmonicZPE corrects a harmonic ZPE (kcal/mol) with the X-matrix
// (cm-1): ZPE + sum over i<=j of x_ij/4.
func AnharmonicZPE(zpe float64, xmat [][]float64) float64 {
	var sum float64
	for i := range xmat {
		for j := 0; j <= i && j < len(xmat[i]); j++ {
			sum += xmat[i][j]
		}
	}
	return zpe + sum/4*cmToKcal
}

// WritePolynomial computes Cp, H and S for the species from its geometry
// (Å), frequencies (cm-1), zero-point energy and enthalpy change at
// 298.15 K (kcal/mol), fits the NASA polynomial and writes
// <name>.ckin (and <name>_cp.png with Plot). It returns a progress message.
func WritePolynomial(mol model.Molecule, zpe float64, geometry []model.Atom, freqs []float64, deltaH float64, opts Options) (string, Result, error) {
	if opts.Name == "" {
		return "", Result{}, eris.New("thermo: no output name")
	}
	var msg strings.Builder

	if opts.Anharmonic && len(opts.AnharmonicFrequencies) > 0 && len(opts.XMatrix) > 0 {
		freqs = opts.AnharmonicFrequencies
		zpe = AnharmonicZPE(zpe, opts.XMatrix)
		fmt.Fprintf(&msg, "Anharmonic ZPE = %.4f kcal/mol\n", zpe)
	}

	r, err := newRRHO(geometry, freqs, mol.Multiplicity)
	if err != nil {
		return "", Result{}, err
	}
	if harmonic := r.ZPE(); zpe != 0 && math.Abs(harmonic-zpe)/math.Abs(zpe) > 0.1 {
		fmt.Fprintf(&msg, "Warning: ZPE from frequencies (%.4f kcal/mol) differs from log ZPE (%.4f kcal/mol)\n", harmonic, zpe)
	}

	poly, err := fitPolynomial(r, deltaH, opts.TMin, opts.TMid, opts.TMax)
	if err != nil {
		return "", Result{}, err
	}
	res := Result{Polynomial: poly, ZPE: zpe}

	counts := make(map[string]int)
	for _, a := range geometry {
		counts[a.Symbol]++
	}

	var ck strings.Builder
	fmt.Fprintf(&ck, "! %s %s multiplicity %d\n", opts.Identifier, model.FormulaFromCounts(counts), mol.Multiplicity)
	fmt.Fprintf(&ck, "! deltaH(298.15 K) = %.4f kcal/mol, ZPE = %.4f kcal/mol, H298-H0 = %.4f kcal/mol\n",
		deltaH, zpe, r.H(tRef)*gasConstant/1000)
	fmt.Fprintf(&ck, "THERMO\n%10.3f%10.3f%10.3f\n", poly.TMin, poly.TMid, poly.TMax)
	ck.WriteString(poly.Chemkin(opts.Name, counts))
	ck.WriteString("END\n")

	ckin := filepath.Join(opts.Dir, opts.Name+".ckin")
	if err := os.WriteFile(ckin, []byte(ck.String()), 0o644); err != nil {
		return "", Result{}, eris.Wrapf(err, "thermo: write %s", ckin)
	}
	res.Files = append(res.Files, ckin)

	fmt.Fprintf(&msg, "Cp(298.15) = %.3f cal/mol/K, S(298.15) = %.3f cal/mol/K, H298-H0 = %.3f kcal/mol\n",
		r.Cp(tRef)*gasConstant, r.S(tRef)*gasConstant, r.H(tRef)*gasConstant/1000)
	fmt.Fprintf(&msg, "NASA polynomial written to '%s'\n", ckin)

	if opts.Plot {
		png := filepath.Join(opts.Dir, opts.Name+"_cp.png")
		if err := writeCpPlot(png, opts.Name, r, poly); err != nil {
			return msg.String(), res, err
		}
		res.Files = append(res.Files, png)
		fmt.Fprintf(&msg, "Cp plot written to '%s'\n", png)
	}
	return msg.String(), res, nil
}

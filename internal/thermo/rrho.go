package thermo

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"

	"github.com/sells-group/qtc/internal/model"
)

// Physical constants, SI unless noted.
const (
	planck      = 6.62607015e-34
	boltzmann   = 1.380649e-23
	amu         = 1.66053906660e-27
	angstrom    = 1e-10
	standardP   = 1e5                 // Pa
	gasConstant = 1.987204258640832   // cal/(mol K)
	c2          = 1.438776877         // second radiation constant, cm K
	cmToKcal    = 2.859144e-3         // 1 cm-1 in kcal/mol
	tRef        = 298.15              // K
	linearTol   = 1e-3                // amu Å², smallest principal moment of a linear molecule
)

// rrho evaluates rigid-rotor / harmonic-oscillator functions in reduced
// units: Cp/R, (H(T)-H(0))/R in K excluding ZPE, S/R.
type rrho struct {
	mass       float64   // kg
	rotTemps   []float64 // K; nil for atoms, one for linear molecules
	symmetry   float64
	vibTemps   []float64 // K
	degeneracy float64
}

// newRRHO builds the model for a geometry and its vibrational frequencies
// (cm-1). Non-positive frequencies are ignored.
func newRRHO(geometry []model.Atom, freqs []float64, multiplicity int) (*rrho, error) {
	if len(geometry) == 0 {
		return nil, eris.New("thermo: empty geometry")
	}
	r := &rrho{symmetry: 1, degeneracy: float64(max(multiplicity, 1))}

	var total float64
	for _, a := range geometry {
		m := model.AtomicMass(a.Symbol)
		if m == 0 {
			return nil, eris.Errorf("thermo: no mass for element %q", a.Symbol)
		}
		total += m
	}
	r.mass = total * amu

	if len(geometry) > 1 {
		moments, err := principalMoments(geometry)
		if err != nil {
			return nil, err
		}
		if moments[2] < linearTol {
			return nil, eris.New("thermo: degenerate geometry")
		}
		if moments[0] < linearTol {
			moments = moments[2:]
		}
		for _, m := range moments {
			r.rotTemps = append(r.rotTemps, rotationalTemperature(m))
		}
	}

	for _, f := range freqs {
		if f > 0 {
			r.vibTemps = append(r.vibTemps, c2*f)
		}
	}
	return r, nil
}

// rotationalTemperature converts a principal moment in amu Å² to K.
func rotationalTemperature(moment float64) float64 {
	return planck * planck / (8 * math.Pi * math.Pi * moment * amu * angstrom * angstrom * boltzmann)
}

// principalMoments returns the eigenvalues of the inertia tensor about the
// center of mass, ascending, in amu Å².
func principalMoments(geometry []model.Atom) ([]float64, error) {
	var com [3]float64
	var total float64
	for _, a := range geometry {
		m := model.AtomicMass(a.Symbol)
		total += m
		for k := 0; k < 3; k++ {
			com[k] += m * a.Coord[k]
		}
	}
	for k := range com {
		com[k] /= total
	}

	inertia := mat.NewSymDense(3, nil)
	for _, a := range geometry {
		m := model.AtomicMass(a.Symbol)
		x, y, z := a.Coord[0]-com[0], a.Coord[1]-com[1], a.Coord[2]-com[2]
		inertia.SetSym(0, 0, inertia.At(0, 0)+m*(y*y+z*z))
		inertia.SetSym(1, 1, inertia.At(1, 1)+m*(x*x+z*z))
		inertia.SetSym(2, 2, inertia.At(2, 2)+m*(x*x+y*y))
		inertia.SetSym(0, 1, inertia.At(0, 1)-m*x*y)
		inertia.SetSym(0, 2, inertia.At(0, 2)-m*x*z)
		inertia.SetSym(1, 2, inertia.At(1, 2)-m*y*z)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(inertia, false); !ok {
		return nil, eris.New("thermo: inertia tensor factorization failed")
	}
	vals := eig.Values(nil)
	sort.Float64s(vals)
	return vals, nil
}

// ZPE returns the harmonic zero-point energy in kcal/mol.
func (r *rrho) ZPE() float64 {
	var sum float64
	for _, th := range r.vibTemps {
		sum += th / c2
	}
	return sum / 2 * cmToKcal
}

// Cp returns Cp/R at t.
func (r *rrho) Cp(t float64) float64 {
	cp := 2.5
	switch len(r.rotTemps) {
	case 0:
	case 1:
		cp += 1
	default:
		cp += 1.5
	}
	for _, th := range r.vibTemps {
		x := th / t
		ex := math.Exp(x)
		cp += x * x * ex / ((ex - 1) * (ex - 1))
	}
	return cp
}

// H returns the thermal enthalpy (H(T)-H(0))/R in K, ZPE excluded.
func (r *rrho) H(t float64) float64 {
	h := 2.5 * t
	switch len(r.rotTemps) {
	case 0:
	case 1:
		h += t
	default:
		h += 1.5 * t
	}
	for _, th := range r.vibTemps {
		h += th / math.Expm1(th/t)
	}
	return h
}

// S returns S/R at t and standard pressure.
func (r *rrho) S(t float64) float64 {
	kt := boltzmann * t
	s := 2.5 + math.Log(math.Pow(2*math.Pi*r.mass*kt/(planck*planck), 1.5)*kt/standardP)

	switch len(r.rotTemps) {
	case 0:
	case 1:
		s += math.Log(t/(r.symmetry*r.rotTemps[0])) + 1
	default:
		prod := 1.0
		for _, th := range r.rotTemps {
			prod *= th
		}
		s += math.Log(math.Sqrt(math.Pi)/r.symmetry*math.Pow(t, 1.5)/math.Sqrt(prod)) + 1.5
	}

	for _, th := range r.vibTemps {
		x := th / t
		s += x/math.Expm1(x) - math.Log1p(-math.Exp(-x))
	}
	return s + math.Log(r.degeneracy)
}

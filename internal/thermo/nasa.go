package thermo

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
)

// Polynomial is a two-range NASA 7-coefficient fit:
//
//	Cp/R = a1 + a2 T + a3 T^2 + a4 T^3 + a5 T^4
//	H/RT = a1 + a2 T/2 + a3 T^2/3 + a4 T^3/4 + a5 T^4/5 + a6/T
//	S/R  = a1 ln T + a2 T + a3 T^2/2 + a4 T^3/3 + a5 T^4/4 + a7
type Polynomial struct {
	TMin, TMid, TMax float64
	Low, High        [7]float64
}

const fitPoints = 71

// fitPolynomial fits Cp on [tmin,tmid] and [tmid,tmax]. The enthalpy
// constants place H(298.15) at deltaH (kcal/mol) and follow the model's
// thermal enthalpy elsewhere.
func fitPolynomial(r *rrho, deltaH, tmin, tmid, tmax float64) (Polynomial, error) {
	if !(tmin < tmid && tmid < tmax) {
		return Polynomial{}, eris.Errorf("thermo: bad temperature ranges %g/%g/%g", tmin, tmid, tmax)
	}
	p := Polynomial{TMin: tmin, TMid: tmid, TMax: tmax}

	h0 := deltaH*1000/gasConstant - r.H(tRef) // H(0)/R in K
	enthalpy := func(t float64) float64 { return h0 + r.H(t) }

	low, err := fitCp(r, math.Min(tmin, tRef), tmid)
	if err != nil {
		return Polynomial{}, err
	}
	high, err := fitCp(r, tmid, tmax)
	if err != nil {
		return Polynomial{}, err
	}

	p.Low = anchor(low, tRef, enthalpy(tRef), r.S(tRef))
	p.High = anchor(high, tmid, enthalpy(tmid), r.S(tmid))
	return p, nil
}

// fitCp least-squares fits Cp/R on [t0,t1] in reduced temperature T/1000
// for conditioning, then rescales the coefficients.
func fitCp(r *rrho, t0, t1 float64) ([5]float64, error) {
	a := mat.NewDense(fitPoints, 5, nil)
	b := mat.NewVecDense(fitPoints, nil)
	for i := 0; i < fitPoints; i++ {
		t := t0 + (t1-t0)*float64(i)/float64(fitPoints-1)
		x := t / 1000
		v := 1.0
		for k := 0; k < 5; k++ {
			a.Set(i, k, v)
			v *= x
		}
		b.SetVec(i, r.Cp(t))
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return [5]float64{}, eris.Wrap(err, "thermo: least squares fit")
	}
	var coeffs [5]float64
	scale := 1.0
	for k := 0; k < 5; k++ {
		coeffs[k] = sol.AtVec(k) / scale
		scale *= 1000
	}
	return coeffs, nil
}

// anchor completes Cp coefficients with a6 and a7 so that H/R and S/R
// match hr and sr at t.
func anchor(cp [5]float64, t, hr, sr float64) [7]float64 {
	var c [7]float64
	copy(c[:5], cp[:])
	c[5] = hr - t*reducedH(c, t)
	c[6] = sr - reducedS(c, t)
	return c
}

// reducedH is H/RT without the a6 term.
func reducedH(c [7]float64, t float64) float64 {
	return c[0] + c[1]*t/2 + c[2]*t*t/3 + c[3]*t*t*t/4 + c[4]*t*t*t*t/5
}

// reducedS is S/R without the a7 term.
func reducedS(c [7]float64, t float64) float64 {
	return c[0]*math.Log(t) + c[1]*t + c[2]*t*t/2 + c[3]*t*t*t/3 + c[4]*t*t*t*t/4
}

func (p Polynomial) coeffs(t float64) [7]float64 {
	if t < p.TMid {
		return p.Low
	}
	return p.High
}

// Cp returns Cp/R at t.
func (p Polynomial) Cp(t float64) float64 {
	c := p.coeffs(t)
	return c[0] + c[1]*t + c[2]*t*t + c[3]*t*t*t + c[4]*t*t*t*t
}

// H returns H/RT at t.
func (p Polynomial) H(t float64) float64 {
	c := p.coeffs(t)
	return reducedH(c, t) + c[5]/t
}

// S returns S/R at t.
func (p Polynomial) S(t float64) float64 {
	c := p.coeffs(t)
	return reducedS(c, t) + c[6]
}

// Chemkin renders the fit as a CHEMKIN THERMO entry. counts is the
// elemental composition; at most four elements fit on the header card.
func (p Polynomial) Chemkin(name string, counts map[string]int) string {
	if len(name) > 18 {
		name = name[:18]
	}

	var elems strings.Builder
	for i, sym := range hillOrder(counts) {
		if i == 4 {
			break
		}
		fmt.Fprintf(&elems, "%-2s%3d", strings.ToUpper(sym), counts[sym])
	}
	for elems.Len() < 20 {
		elems.WriteString(" ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-18s%-6s%s%s%10.3f%10.3f%8.3f%6s%d\n", name, "QTC", elems.String(), "G", p.TMin, p.TMax, p.TMid, "", 1)
	card := func(line int, vals ...float64) {
		for _, v := range vals {
			fmt.Fprintf(&b, "%15.8E", v)
		}
		fmt.Fprintf(&b, "%*s%d\n", 79-15*len(vals), "", line)
	}
	card(2, p.High[0], p.High[1], p.High[2], p.High[3], p.High[4])
	card(3, p.High[5], p.High[6], p.Low[0], p.Low[1], p.Low[2])
	card(4, p.Low[3], p.Low[4], p.Low[5], p.Low[6])
	return b.String()
}

func hillOrder(counts map[string]int) []string {
	var syms []string
	for sym, n := range counts {
		if n > 0 {
			syms = append(syms, sym)
		}
	}
	sort.Slice(syms, func(i, j int) bool {
		rank := func(s string) int {
			if counts["C"] == 0 {
				return 2
			}
			switch s {
			case "C":
				return 0
			case "H":
				return 1
			}
			return 2
		}
		ri, rj := rank(syms[i]), rank(syms[j])
		if ri != rj {
			return ri < rj
		}
		return syms[i] < syms[j]
	})
	return syms
}

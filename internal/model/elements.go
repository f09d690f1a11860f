package model

type element struct {
	number int
	mass   float64 // most abundant isotope, amu
}

var elements = map[string]element{
	"H":  {1, 1.00782503},
	"He": {2, 4.00260325},
	"Li": {3, 7.01600455},
	"Be": {4, 9.0121822},
	"B":  {5, 11.0093054},
	"C":  {6, 12.0},
	"N":  {7, 14.0030740},
	"O":  {8, 15.9949146},
	"F":  {9, 18.9984032},
	"Ne": {10, 19.9924402},
	"Na": {11, 22.9897693},
	"Mg": {12, 23.9850419},
	"Al": {13, 26.9815386},
	"Si": {14, 27.9769265},
	"P":  {15, 30.9737615},
	"S":  {16, 31.9720710},
	"Cl": {17, 34.9688527},
	"Ar": {18, 39.9623831},
	"K":  {19, 38.9637067},
	"Ca": {20, 39.9625909},
	"Se": {34, 79.9165213},
	"Br": {35, 78.9183371},
	"Kr": {36, 83.9115070},
	"I":  {53, 126.904473},
	"Xe": {54, 131.904154},
}

// IsElement reports whether sym is a known element symbol.
func IsElement(sym string) bool {
	_, ok := elements[sym]
	return ok
}

// AtomicNumber returns the atomic number of sym, or 0 if unknown.
func AtomicNumber(sym string) int {
	return elements[sym].number
}

// AtomicMass returns the mass in amu of the most abundant isotope of sym,
// or 0 if unknown.
func AtomicMass(sym string) float64 {
	return elements[sym].mass
}

// SymbolFor returns the element symbol with atomic number z, or "" if
// unknown.
func SymbolFor(z int) string {
	for sym, e := range elements {
		if e.number == z {
			return sym
		}
	}
	return ""
}

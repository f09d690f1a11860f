// Package qc prepares inputs for and runs external quantum-chemistry
// programs inside a species workspace.
package qc

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Package names.
const (
	Mopac         = "mopac"
	NWChem        = "nwchem"
	Molpro        = "molpro"
	Gaussian      = "gaussian"
	Extrapolation = "extrapolation"
	Script        = "qcscript"
)

// Available lists the packages handled by Runner, in display order.
var Available = []string{NWChem, Molpro, Mopac, Gaussian, Extrapolation}

// IsAvailable reports whether pkg is handled by Runner.
func IsAvailable(pkg string) bool {
	return slices.Contains(Available, pkg)
}

// Runnable reports whether pkg has an executable to launch. Extrapolation
// combines results of other runs and is never launched.
func Runnable(pkg string) bool {
	return IsAvailable(pkg) && pkg != Extrapolation
}

// spec describes how one package is invoked.
type spec struct {
	inputExt string
	// args builds the argument list from the input and log file names.
	args func(input, log string) []string
	// stdout is true when the program writes its log to standard output.
	stdout bool
}

var specs = map[string]spec{
	Mopac: {
		inputExt: ".mop",
		// MOPAC writes <input stem>.out next to the input.
		args: func(input, _ string) []string { return []string{input} },
	},
	NWChem: {
		inputExt: ".nw",
		args:     func(input, _ string) []string { return []string{input} },
		stdout:   true,
	},
	Gaussian: {
		inputExt: ".com",
		args:     func(input, log string) []string { return []string{input, log} },
	},
	Molpro: {
		inputExt: ".mp",
		args:     func(input, log string) []string { return []string{"-o", log, input} },
	},
}

// InputName returns the input file name for a species log name, so that
// programs deriving their output from the input stem produce the log.
func InputName(logName, pkg string) string {
	return strings.TrimSuffix(logName, ".out") + specs[pkg].inputExt
}

// InferPackage guesses the package from a template file name and, failing
// that, from its contents. It returns "" when nothing matches.
func InferPackage(template string) string {
	switch strings.ToLower(filepath.Ext(template)) {
	case ".mop":
		return Mopac
	case ".nw":
		return NWChem
	case ".gau", ".com", ".gjf":
		return Gaussian
	case ".mp", ".molpro":
		return Molpro
	}

	data, err := os.ReadFile(template)
	if err != nil {
		return ""
	}
	text := strings.ToLower(string(data))
	switch {
	case strings.Contains(text, "%nproc") || strings.Contains(text, "%chk") || strings.Contains(text, "#p "):
		return Gaussian
	case strings.Contains(text, "geometry units") || strings.Contains(text, "task "):
		return NWChem
	case strings.Contains(text, "1scf") || strings.Contains(text, "precise") || strings.Contains(text, "pm3") || strings.Contains(text, "pm7"):
		return Mopac
	case strings.Contains(text, "geometry={") || strings.Contains(text, "basis="):
		return Molpro
	}
	return ""
}

package pipeline

import (
	"fmt"
	"strings"

	"github.com/sells-group/qtc/internal/config"
	"github.com/sells-group/qtc/internal/model"
)

// Gate holds the stage switches of one species run. The batch config seeds
// it; Degrade narrows it per species.
type Gate struct {
	RunQC      bool `json:"runqc"`
	ParseQC    bool `json:"parseqc"`
	RunThermo  bool `json:"runthermo"`
	Anharmonic bool `json:"anharmonic"`
}

// GateFromConfig reads the stage switches from the pipeline config.
func GateFromConfig(c config.QTCConfig) Gate {
	return Gate{
		RunQC:      c.RunQC,
		ParseQC:    c.ParseQC || c.WriteFiles,
		RunThermo:  c.RunThermo,
		Anharmonic: c.Anharmonic,
	}
}

// Degrade turns off the thermo and anharmonic stages when the parsed
// quantities cannot feed them. Every check runs, in the order geometry,
// frequencies, anharmonic frequencies, ZPE, deltaH, X-matrix, whatever the
// gate, and the returned message reports each present and missing value.
func Degrade(g Gate, q model.ThermoQuantities) (Gate, string) {
	var msg strings.Builder

	if q.HasGeometry() {
		fmt.Fprintf(&msg, "Optimized xyz in Angstroms:\n%s", model.Molecule{Atoms: q.Geometry}.Geo())
	} else {
		msg.WriteString("Optimized geometry not found\n")
	}
	if q.HasFrequencies() {
		fmt.Fprintf(&msg, "Harmonic frequencies in cm-1:\n %s\n", formatFloats(q.Frequencies))
	} else {
		msg.WriteString("Harmonic frequencies not found\n")
	}
	if q.HasAnharmonicFrequencies() {
		fmt.Fprintf(&msg, "Anharmonic frequencies in cm-1:\n %s\n", formatFloats(q.AnharmonicFrequencies))
	} else {
		msg.WriteString("Anharmonic frequencies not found\n")
	}
	if q.HasZPE() {
		fmt.Fprintf(&msg, "ZPE = %s kcal/mol\n", formatFloat(*q.ZPE))
	} else {
		msg.WriteString("ZPE not found\n")
	}
	if q.HasDeltaH() {
		fmt.Fprintf(&msg, "deltaH = %s kcal/mol\n", formatFloat(*q.DeltaH))
	} else {
		msg.WriteString("deltaH not found\n")
	}
	if q.HasXMatrix() {
		rows := make([]string, len(q.XMatrix))
		for i, row := range q.XMatrix {
			rows[i] = formatFloats(row)
		}
		fmt.Fprintf(&msg, "Xmat = [%s] cm-1\n", strings.Join(rows, ", "))
	} else {
		msg.WriteString("X matrix not found\n")
	}

	out := g
	out.RunThermo = g.RunThermo && q.CanRunThermo()
	out.Anharmonic = g.Anharmonic && q.CanRunAnharmonic()
	if g.RunThermo && !out.RunThermo {
		msg.WriteString("Skipping thermochemistry, missing quantities\n")
	}
	if g.Anharmonic && !out.Anharmonic {
		msg.WriteString("Skipping anharmonic correction, missing quantities\n")
	}
	return out, msg.String()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func formatFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

package qclog

import (
	"fmt"

	"github.com/sells-group/qtc/internal/model"
)

// ParseForThermo reads the log at path written by pkg and returns a
// progress message and the thermo quantities it holds. A missing log
// yields empty quantities and no error. Anharmonic data is only returned
// when anharmonic is set.
func ParseForThermo(path, pkg string, anharmonic bool) (string, model.ThermoQuantities, error) {
	if !Exists(path) {
		return fmt.Sprintf("QC log '%s' not found\n", path), model.ThermoQuantities{}, nil
	}
	data, err := ReadLog(path)
	if err != nil {
		return "", model.ThermoQuantities{}, err
	}

	text := string(data)
	if detected := Detect(text); detected != "" {
		pkg = detected
	}
	s, err := parseAs(text, pkg)
	if err != nil {
		return "", model.ThermoQuantities{}, err
	}

	msg := fmt.Sprintf("Parsed %s log\n", pkg)
	if s.Energy != nil {
		msg += fmt.Sprintf("Energy = %.8f Hartree\n", *s.Energy)
	}
	return msg, s.Quantities(anharmonic), nil
}

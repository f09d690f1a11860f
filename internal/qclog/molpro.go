package qclog

import (
	"strings"

	"github.com/sells-group/qtc/internal/model"
)

// parseMolpro reads the last "!... energy" line. Molpro logs feed no
// thermo quantities.
func parseMolpro(text string) *Summary {
	s := &Summary{}
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(lower, "!") && strings.Contains(lower, "energy") {
			if v, ok := numberAfter(lower, "energy"); ok {
				s.Energy = model.Float(v)
			}
		}
	}
	return s
}

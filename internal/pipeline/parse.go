package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/qtc/internal/model"
	"github.com/sells-group/qtc/internal/qclog"
	"github.com/sells-group/qtc/internal/workspace"
)

// inspect parses the QC log for display and, with writefiles, writes the
// geometry and energy files. A missing log skips the phase.
func (sr *speciesRun) inspect(sp model.Species, ws *workspace.Workspace, logPath string) (*model.PhaseResult, error) {
	if !qclog.Exists(logPath) {
		return &model.PhaseResult{
			Status:   model.PhaseStatusSkipped,
			Metadata: map[string]any{"reason": "no log"},
		}, nil
	}
	data, err := qclog.ReadLog(logPath)
	if err != nil {
		return nil, err
	}
	summary, err := sr.p.parser.Parse(string(data), sp.Name)
	if err != nil {
		return nil, err
	}
	text, err := summary.YAML()
	if err != nil {
		return nil, err
	}
	sr.say(text)

	meta := map[string]any{"package": summary.Package}
	if summary.Energy != nil {
		meta["energy"] = *summary.Energy
	}
	if sr.p.cfg.WriteFiles {
		files, err := summary.WriteFiles(ws.Dir())
		sr.result.OutputFiles = append(sr.result.OutputFiles, files...)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			sr.say(fmt.Sprintf("Wrote '%s'\n", f))
		}
		meta["files"] = files
	}
	sr.log.Debug("pipeline: parsed log", zap.String("package", summary.Package))
	return &model.PhaseResult{Metadata: meta}, nil
}

// parseForThermo extracts the thermo quantities from the QC log. A
// configured deltaH fills in for logs that carry no heat of formation.
func (sr *speciesRun) parseForThermo(sp model.Species, logPath string) (model.ThermoQuantities, error) {
	sr.say(fmt.Sprintf("Parsing qc logfile '%s'\n", logPath))
	msg, q, err := sr.p.parser.ParseForThermo(logPath, sr.p.cfg.QCPackage, sr.p.gate.Anharmonic)
	sr.say(msg)
	if err != nil {
		return q, err
	}
	if q.DeltaH == nil {
		if dh, ok := sr.p.thermo.DeltaHFor(sp.Identifier); ok {
			q.DeltaH = model.Float(dh)
			sr.say(fmt.Sprintf("Using configured deltaH for %s\n", sp.Identifier))
		}
	}
	return q, nil
}

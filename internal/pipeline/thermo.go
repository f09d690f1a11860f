package pipeline

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/qtc/internal/model"
	"github.com/sells-group/qtc/internal/thermo"
	"github.com/sells-group/qtc/internal/workspace"
)

const groupsFile = "new.groups"

// writeThermo writes new.groups and the NASA polynomial for sp, then
// records the fit in the store.
func (sr *speciesRun) writeThermo(sp model.Species, ws *workspace.Workspace, q model.ThermoQuantities, gate Gate) (*model.PhaseResult, error) {
	p := sr.p
	if !q.CanRunThermo() {
		return nil, eris.Errorf("pipeline: thermo quantities incomplete for %s", sp.Identifier)
	}
	if err := ws.WriteFile(groupsFile, []byte(p.writer.GroupDefinitions())); err != nil {
		return nil, err
	}
	sr.result.OutputFiles = append(sr.result.OutputFiles, ws.Path(groupsFile))

	opts := thermo.Options{
		Name:       sp.Name,
		Dir:        ws.Dir(),
		Identifier: sp.Identifier,
		TMin:       p.thermo.TMin,
		TMid:       p.thermo.TMid,
		TMax:       p.thermo.TMax,
		Plot:       p.thermo.Plot,
	}
	if gate.Anharmonic {
		opts.Anharmonic = true
		opts.AnharmonicFrequencies = q.AnharmonicFrequencies
		opts.XMatrix = q.XMatrix
	}

	msg, res, err := p.writer.WritePolynomial(sp.Molecule, *q.ZPE, q.Geometry, q.Frequencies, *q.DeltaH, opts)
	sr.say(msg)
	sr.result.OutputFiles = append(sr.result.OutputFiles, res.Files...)
	if err != nil {
		return nil, err
	}

	rec := model.ThermoRecord{
		Identifier: sp.Identifier,
		Name:       sp.Name,
		Formula:    sp.Molecule.Formula,
		RunID:      sr.runID,
		ZPE:        res.ZPE,
		DeltaH:     *q.DeltaH,
		TMin:       res.Polynomial.TMin,
		TMid:       res.Polynomial.TMid,
		TMax:       res.Polynomial.TMax,
		Low:        res.Polynomial.Low,
		High:       res.Polynomial.High,
	}
	if len(res.Files) > 0 {
		ckin, err := os.ReadFile(res.Files[0])
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: read %s", res.Files[0])
		}
		rec.Chemkin = string(ckin)
	}
	if err := p.store.SaveThermo(sr.ctx, rec); err != nil {
		sr.log.Warn("pipeline: failed to save thermo record", zap.Error(err))
	}

	return &model.PhaseResult{Metadata: map[string]any{
		"zpe":        res.ZPE,
		"anharmonic": gate.Anharmonic,
		"files":      res.Files,
	}}, nil
}

package pipeline

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/qtc/internal/model"
	"github.com/sells-group/qtc/internal/resolve"
	"github.com/sells-group/qtc/internal/species"
	"github.com/sells-group/qtc/internal/workspace"
)

// resolveSpecies builds the species and applies the seed geometry named by
// xyzpath. A directory without xyz files is reported and ignored; a path
// that does not exist stops the species.
func (sr *speciesRun) resolveSpecies() (model.Species, error) {
	p := sr.p
	sp, err := p.resolver.Resolve(sr.ctx, sr.result.Identifier)
	if err != nil {
		sr.say(fmt.Sprintf("Could not resolve '%s': %v\n", sr.result.Identifier, err))
		return sp, err
	}
	sr.result.Name = sp.Name

	res, err := resolve.XYZ(sp.Dir, p.cfg.XYZPath)
	switch {
	case errors.Is(err, resolve.ErrNoXYZInDir):
		sr.say(fmt.Sprintf("xyz file not found in %s\n", res.Dir))
		return sp, nil
	case errors.Is(err, resolve.ErrPathNotFound):
		sr.say(fmt.Sprintf("xyz path not found %s\n", p.cfg.XYZPath))
		return sp, err
	case err != nil:
		return sp, err
	case !res.Found():
		return sp, nil
	}

	atoms, err := species.ReadXYZFile(res.File)
	if err != nil {
		sr.say(fmt.Sprintf("Could not read xyz file '%s'\n", res.File))
		return sp, err
	}
	mol, err := sp.Molecule.SetGeometry(atoms)
	if err != nil {
		sr.say(fmt.Sprintf("xyz file '%s' does not match %s\n", res.File, sp.Molecule.Formula))
		return sp, err
	}
	sp.Molecule = mol
	sr.say(fmt.Sprintf("Using xyz file in '%s'\n", res.File))
	sr.log.Debug("pipeline: seed geometry",
		zap.String("file", res.File), zap.String("rule", res.Rule.String()))
	return sp, nil
}

// enterWorkspace creates and enters the species QC directory.
func (sr *speciesRun) enterWorkspace(dir string, chdir bool) (*workspace.Workspace, *model.PhaseResult) {
	var ws *workspace.Workspace
	pr := sr.trackPhase(PhaseWorkspace, func() (*model.PhaseResult, error) {
		var err error
		ws, err = workspace.Enter(dir, workspace.WithChdir(chdir))
		if err != nil {
			if eris.Is(err, workspace.ErrDirectory) {
				sr.say(fmt.Sprintf("I/O error, %s directory not found.\n", dir))
			}
			return nil, err
		}
		if chdir {
			sr.say(fmt.Sprintf("cd '%s'\n", ws.Dir()))
		} else {
			sr.say(fmt.Sprintf("Working in '%s'\n", ws.Dir()))
		}
		return &model.PhaseResult{Metadata: map[string]any{
			"dir":   ws.Dir(),
			"chdir": chdir,
		}}, nil
	})
	return ws, pr
}

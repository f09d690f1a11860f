package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/qtc/internal/model"
	"github.com/sells-group/qtc/internal/qc"
	"github.com/sells-group/qtc/internal/workspace"
)

// ErrUnsupportedPackage means the configured QC package is neither a known
// package nor qcscript. The species fails; in strict mode the batch aborts.
var ErrUnsupportedPackage = eris.New("unsupported qc package")

// runQC runs the configured package for sp inside ws.
func (p *Pipeline) runQC(ctx context.Context, sp model.Species, ws *workspace.Workspace) (string, error) {
	pkg := p.cfg.QCPackage
	switch {
	case qc.IsAvailable(pkg):
		return p.exec.Run(ctx, qc.Job{
			Package:    pkg,
			Template:   p.cfg.QCTemplate,
			Executable: p.cfg.QCExe,
			Species:    sp,
			Dir:        ws.Dir(),
			NProc:      p.cfg.NProcQC,
			Overwrite:  p.cfg.Overwrite,
		})

	case pkg == qc.Script:
		msg := "Running qcscript...\n"
		if !sp.Molecule.HasGeometry() {
			return msg, eris.Errorf("pipeline: no geometry to write for %s", sp.Identifier)
		}
		geofile := sp.Name + ".geo"
		if err := ws.WriteFile(geofile, []byte(sp.Molecule.Geo())); err != nil {
			return msg, err
		}
		if !ws.Exists(geofile) {
			return msg, eris.Errorf("pipeline: geometry file %s not written", geofile)
		}
		out, err := p.exec.RunScript(ctx, qc.ScriptJob{
			Script:       p.cfg.Executables.QCScript,
			Template:     p.cfg.QCTemplate,
			GeoFile:      geofile,
			Multiplicity: sp.Multiplicity,
			Dir:          ws.Dir(),
		})
		return msg + out, err

	default:
		msg := fmt.Sprintf("%s package not implemented\nAvailable packages are [%s]\n",
			pkg, strings.Join(qc.Available, ", "))
		return msg, eris.Wrapf(ErrUnsupportedPackage, "pipeline: %q", pkg)
	}
}

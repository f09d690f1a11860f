// Package pipeline runs the per-species workflow: resolve the species,
// stage its workspace, run the QC package, parse the log and write the
// NASA polynomial, gating each stage on configuration and parsed results.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/qtc/internal/config"
	"github.com/sells-group/qtc/internal/model"
	"github.com/sells-group/qtc/internal/qc"
	"github.com/sells-group/qtc/internal/qclog"
	"github.com/sells-group/qtc/internal/species"
	"github.com/sells-group/qtc/internal/store"
	"github.com/sells-group/qtc/internal/thermo"
)

// Phase names recorded in the run store.
const (
	PhaseResolve     = "1_resolve"
	PhaseWorkspace   = "2_workspace"
	PhaseExecute     = "3_execute"
	PhaseParse       = "4_parse"
	PhaseThermoParse = "5_thermo_parse"
	PhaseThermo      = "6_thermo"
)

const banner = "***************************************\n"

// Executor runs QC packages and qcscripts in a workspace.
type Executor interface {
	qc.Runner
	qc.ScriptRunner
}

// Parser reads QC logs.
type Parser interface {
	Parse(text, name string) (*qclog.Summary, error)
	ParseForThermo(path, pkg string, anharmonic bool) (string, model.ThermoQuantities, error)
}

// ThermoWriter produces the thermochemistry output files.
type ThermoWriter interface {
	GroupDefinitions() string
	WritePolynomial(mol model.Molecule, zpe float64, geometry []model.Atom, freqs []float64, deltaH float64, opts thermo.Options) (string, thermo.Result, error)
}

type logParser struct{}

func (logParser) Parse(text, name string) (*qclog.Summary, error) { return qclog.Parse(text, name) }

func (logParser) ParseForThermo(path, pkg string, anharmonic bool) (string, model.ThermoQuantities, error) {
	return qclog.ParseForThermo(path, pkg, anharmonic)
}

type polynomialWriter struct{}

func (polynomialWriter) GroupDefinitions() string { return thermo.GroupDefinitions() }

func (polynomialWriter) WritePolynomial(mol model.Molecule, zpe float64, geometry []model.Atom, freqs []float64, deltaH float64, opts thermo.Options) (string, thermo.Result, error) {
	return thermo.WritePolynomial(mol, zpe, geometry, freqs, deltaH, opts)
}

// Pipeline runs species through the QC and thermo stages. The config is
// read once by New and shared read-only by every species.
type Pipeline struct {
	cfg      config.QTCConfig
	thermo   config.ThermoConfig
	gate     Gate
	store    store.Store
	resolver species.Resolver
	exec     Executor
	parser   Parser
	writer   ThermoWriter

	outMu sync.Mutex
	out   io.Writer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithParser replaces the QC log parser.
func WithParser(p Parser) Option {
	return func(pl *Pipeline) { pl.parser = p }
}

// WithThermoWriter replaces the polynomial writer.
func WithThermoWriter(w ThermoWriter) Option {
	return func(pl *Pipeline) { pl.writer = w }
}

// WithOutput sets where progress messages are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(pl *Pipeline) { pl.out = w }
}

// New creates a Pipeline. Relative template and script paths are made
// absolute so they stay valid inside species workspaces.
func New(cfg *config.Config, st store.Store, resolver species.Resolver, exec Executor, opts ...Option) *Pipeline {
	qcfg := Normalize(cfg.QTC)
	p := &Pipeline{
		cfg:      qcfg,
		thermo:   cfg.Thermo,
		gate:     GateFromConfig(qcfg),
		store:    st,
		resolver: resolver,
		exec:     exec,
		parser:   logParser{},
		writer:   polynomialWriter{},
		out:      os.Stdout,
	}
	if p.store == nil {
		p.store = store.NoopStore{}
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Normalize fills the derived pipeline settings: the package inferred from
// the template, the default executable for the package, parseqc implied by
// writefiles, and absolute template and script paths.
func Normalize(c config.QTCConfig) config.QTCConfig {
	if c.QCPackage == "" && c.QCTemplate != "" {
		c.QCPackage = qc.InferPackage(c.QCTemplate)
	}
	if c.QCExe == "" {
		c.QCExe = c.Executables.ForPackage(c.QCPackage)
	}
	if c.WriteFiles {
		c.ParseQC = true
	}
	c.QCTemplate = absPath(c.QCTemplate)
	c.Executables.QCScript = absPath(c.Executables.QCScript)
	if strings.ContainsRune(c.QCExe, filepath.Separator) {
		c.QCExe = absPath(c.QCExe)
	}
	return c
}

func absPath(p string) string {
	if p == "" {
		return p
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

// Config returns the normalized pipeline config.
func (p *Pipeline) Config() config.QTCConfig { return p.cfg }

// Run processes one species in sequential mode, changing the process
// working directory into its workspace for the duration of the run. The
// returned error is non-nil only for failures that must abort a batch.
func (p *Pipeline) Run(ctx context.Context, identifier string) (model.SpeciesResult, error) {
	return p.run(ctx, identifier, true)
}

// speciesRun carries the state of one species through the stages.
type speciesRun struct {
	p      *Pipeline
	ctx    context.Context
	log    *zap.Logger
	runID  string
	result *model.SpeciesResult
	msg    strings.Builder
}

func (p *Pipeline) run(ctx context.Context, identifier string, chdir bool) (model.SpeciesResult, error) {
	log := zap.L().With(zap.String("species", identifier))
	log.Info("pipeline: starting species")

	result := &model.SpeciesResult{
		Identifier: identifier,
		Status:     model.RunStatusQueued,
	}
	sr := &speciesRun{p: p, ctx: ctx, log: log, result: result}

	run, err := p.store.CreateRun(ctx, identifier)
	if err != nil {
		log.Warn("pipeline: failed to create run", zap.Error(err))
	} else {
		sr.runID = run.ID
		result.RunID = run.ID
	}

	abortErr := sr.execute(chdir)
	if result.Status != model.RunStatusFailed {
		result.Status = model.RunStatusComplete
	}
	sr.finish()

	log.Info("pipeline: species done",
		zap.String("name", result.Name),
		zap.String("status", string(result.Status)),
		zap.Int("files", len(result.OutputFiles)),
	)
	return *result, abortErr
}

// execute runs the stages in order. Returning ends the species run; the
// deferred Leave restores the working directory on every path.
func (sr *speciesRun) execute(chdir bool) error {
	p := sr.p
	sr.say(banner + sr.result.Identifier + "\n")

	var sp model.Species
	pr := sr.trackPhase(PhaseResolve, func() (*model.PhaseResult, error) {
		sr.setStatus(model.RunStatusResolving)
		var err error
		sp, err = sr.resolveSpecies()
		if err != nil {
			return nil, err
		}
		return &model.PhaseResult{Metadata: map[string]any{
			"name":         sp.Name,
			"formula":      sp.Molecule.Formula,
			"multiplicity": sp.Multiplicity,
			"geometry":     sp.Molecule.HasGeometry(),
		}}, nil
	})
	sr.flush()
	if pr.Status == model.PhaseStatusFailed {
		sr.fail(pr.Error)
		return nil
	}
	sr.log = sr.log.With(zap.String("name", sp.Name))

	qcdir := filepath.Join(sp.Dir, p.cfg.QCDirectory)
	ws, pr := sr.enterWorkspace(qcdir, chdir)
	sr.flush()
	if pr.Status == model.PhaseStatusFailed {
		sr.fail(pr.Error)
		return nil
	}
	defer func() {
		if err := ws.Leave(); err != nil {
			sr.log.Error("pipeline: failed to restore working directory", zap.Error(err))
		}
	}()

	logPath := ws.Path(sp.LogName(p.cfg.QCPackage))

	if p.gate.RunQC {
		var unsupported error
		pr = sr.trackPhase(PhaseExecute, func() (*model.PhaseResult, error) {
			sr.setStatus(model.RunStatusRunningQC)
			msg, err := p.runQC(sr.ctx, sp, ws)
			sr.say(msg)
			if eris.Is(err, ErrUnsupportedPackage) {
				unsupported = err
				return nil, err
			}
			if err != nil {
				// A failed package run is an absent result, not a species failure.
				sr.say(fmt.Sprintf("%s failed: %v\n", p.cfg.QCPackage, err))
				return &model.PhaseResult{
					Status: model.PhaseStatusFailed,
					Error:  err.Error(),
				}, nil
			}
			return &model.PhaseResult{Metadata: map[string]any{"log": logPath}}, nil
		})
		sr.flush()
		if unsupported != nil {
			sr.fail(pr.Error)
			if p.cfg.Strict {
				return unsupported
			}
			return nil
		}
	} else {
		sr.skipPhase(PhaseExecute, "runqc off")
	}

	if p.gate.ParseQC {
		sr.trackPhase(PhaseParse, func() (*model.PhaseResult, error) {
			sr.setStatus(model.RunStatusParsing)
			return sr.inspect(sp, ws, logPath)
		})
	} else {
		sr.skipPhase(PhaseParse, "parseqc off")
	}

	if !p.gate.RunThermo {
		sr.skipPhase(PhaseThermoParse, "runthermo off")
		sr.skipPhase(PhaseThermo, "runthermo off")
		sr.archive(logPath)
		sr.flush()
		return nil
	}

	var q model.ThermoQuantities
	gate := p.gate
	sr.trackPhase(PhaseThermoParse, func() (*model.PhaseResult, error) {
		sr.setStatus(model.RunStatusThermo)
		var err error
		q, err = sr.parseForThermo(sp, logPath)
		if err != nil {
			// An unreadable log leaves nothing to fit.
			q = model.ThermoQuantities{}
			gate.RunThermo, gate.Anharmonic = false, false
			sr.say(fmt.Sprintf("Could not parse qc logfile '%s': %v\nSkipping thermochemistry\n", logPath, err))
			return nil, err
		}
		var msg string
		gate, msg = Degrade(p.gate, q)
		sr.say(msg)
		return &model.PhaseResult{Metadata: map[string]any{
			"runthermo":  gate.RunThermo,
			"anharmonic": gate.Anharmonic,
		}}, nil
	})

	if gate.RunThermo && q.CanRunThermo() {
		sr.trackPhase(PhaseThermo, func() (*model.PhaseResult, error) {
			return sr.writeThermo(sp, ws, q, gate)
		})
	} else {
		sr.skipPhase(PhaseThermo, "missing thermo quantities")
	}
	sr.archive(logPath)
	sr.flush()
	return nil
}

func (sr *speciesRun) archive(logPath string) {
	if !sr.p.cfg.ArchiveLogs {
		return
	}
	if _, err := os.Stat(logPath); err != nil {
		return
	}
	archived, err := qclog.Archive(logPath)
	if err != nil {
		sr.say(fmt.Sprintf("Could not archive '%s': %v\n", logPath, err))
		sr.log.Warn("pipeline: archive log failed", zap.Error(err))
		return
	}
	sr.say(fmt.Sprintf("Archived log to '%s'\n", archived))
	sr.result.OutputFiles = append(sr.result.OutputFiles, archived)
}

// trackPhase runs fn as a named phase, recording it in the store and on the
// species result. fn may set Status to skipped or failed itself.
func (sr *speciesRun) trackPhase(name string, fn func() (*model.PhaseResult, error)) *model.PhaseResult {
	phase, phaseErr := sr.p.store.CreatePhase(sr.ctx, sr.runID, name)
	if phaseErr != nil && sr.runID != "" {
		sr.log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(phaseErr))
	}

	start := time.Now()
	phaseResult, fnErr := fn()
	duration := time.Since(start).Milliseconds()

	if phaseResult == nil {
		phaseResult = &model.PhaseResult{}
	}
	phaseResult.Name = name
	phaseResult.Duration = duration

	switch {
	case fnErr != nil:
		phaseResult.Status = model.PhaseStatusFailed
		phaseResult.Error = fnErr.Error()
		sr.log.Error("pipeline: phase failed",
			zap.String("phase", name),
			zap.Int64("duration_ms", duration),
			zap.Error(fnErr),
		)
	case phaseResult.Status == "":
		phaseResult.Status = model.PhaseStatusComplete
		sr.log.Info("pipeline: phase complete",
			zap.String("phase", name),
			zap.Int64("duration_ms", duration),
		)
	default:
		sr.log.Info("pipeline: phase ended",
			zap.String("phase", name),
			zap.String("status", string(phaseResult.Status)),
			zap.Int64("duration_ms", duration),
		)
	}

	if phase != nil && phaseErr == nil {
		if err := sr.p.store.CompletePhase(sr.ctx, phase.ID, phaseResult); err != nil {
			sr.log.Warn("pipeline: failed to complete phase", zap.String("phase", name), zap.Error(err))
		}
	}
	sr.result.Phases = append(sr.result.Phases, *phaseResult)
	return phaseResult
}

func (sr *speciesRun) skipPhase(name, reason string) {
	sr.trackPhase(name, func() (*model.PhaseResult, error) {
		return &model.PhaseResult{
			Status:   model.PhaseStatusSkipped,
			Metadata: map[string]any{"reason": reason},
		}, nil
	})
}

func (sr *speciesRun) setStatus(status model.RunStatus) {
	sr.result.Status = status
	if sr.runID == "" {
		return
	}
	if err := sr.p.store.UpdateRunStatus(sr.ctx, sr.runID, status); err != nil {
		sr.log.Warn("pipeline: failed to update status", zap.Error(err))
	}
}

func (sr *speciesRun) fail(reason string) {
	sr.result.Status = model.RunStatusFailed
	sr.result.Error = reason
}

// say appends to the species message and the pending console block.
func (sr *speciesRun) say(s string) {
	sr.msg.WriteString(s)
	sr.result.Message += s
}

// flush prints the pending console block as one write so parallel species
// do not interleave within a block.
func (sr *speciesRun) flush() {
	if sr.msg.Len() == 0 {
		return
	}
	sr.p.outMu.Lock()
	fmt.Fprintln(sr.p.out, sr.msg.String())
	sr.p.outMu.Unlock()
	sr.msg.Reset()
}

// finish persists the species outcome. It uses a fresh context so a
// cancelled batch still records why each species stopped.
func (sr *speciesRun) finish() {
	if sr.runID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(sr.ctx), 10*time.Second)
	defer cancel()

	res := &model.RunResult{
		Name:        sr.result.Name,
		Message:     sr.result.Message,
		Phases:      sr.result.Phases,
		OutputFiles: sr.result.OutputFiles,
		Error:       sr.result.Error,
	}
	if err := sr.p.store.UpdateRunResult(ctx, sr.runID, sr.result.Status, res); err != nil {
		sr.log.Warn("pipeline: failed to save run result", zap.Error(err))
	}
}

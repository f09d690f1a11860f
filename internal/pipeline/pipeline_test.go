package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/qtc/internal/config"
	"github.com/sells-group/qtc/internal/model"
	"github.com/sells-group/qtc/internal/qc"
	"github.com/sells-group/qtc/internal/qclog"
	"github.com/sells-group/qtc/internal/store"
	"github.com/sells-group/qtc/internal/thermo"
)

func TestNormalize(t *testing.T) {
	c := Normalize(config.QTCConfig{
		QCTemplate:  "pm3.mop",
		WriteFiles:  true,
		Executables: config.ExecutablesConfig{Mopac: "MOPAC2016.exe"},
	})
	assert.Equal(t, "mopac", c.QCPackage)
	assert.Equal(t, "MOPAC2016.exe", c.QCExe)
	assert.True(t, c.ParseQC)
	assert.True(t, filepath.IsAbs(c.QCTemplate))

	c = Normalize(config.QTCConfig{QCPackage: "gaussian", QCExe: "./bin/g16"})
	assert.True(t, filepath.IsAbs(c.QCExe))
	assert.Empty(t, c.QCTemplate)
}

func TestRun_UnsupportedPackage(t *testing.T) {
	for _, strict := range []bool{false, true} {
		name := "lenient"
		if strict {
			name = "strict"
		}
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, func(c *config.QTCConfig) {
				c.RunQC = true
				c.RunThermo = true
				c.QCPackage = "psi4"
				c.Strict = strict
			})
			h.expectWater()

			res, err := h.pipeline().Run(context.Background(), "O")
			if strict {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnsupportedPackage)
			} else {
				require.NoError(t, err)
			}

			assert.True(t, res.Failed())
			assert.Contains(t, res.Message, "psi4 package not implemented")
			assert.Contains(t, res.Message, "Available packages are [nwchem, molpro, mopac, gaussian, extrapolation]")
			assert.Equal(t, model.PhaseStatusFailed, phase(t, res, PhaseExecute).Status)
			assert.NoFileExists(t, filepath.Join(h.qcdir(), "O_psi4.out"))
			h.exec.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
			h.parser.AssertNotCalled(t, "ParseForThermo", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRun_MissingQuantitySkipsThermo(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *model.ThermoQuantities)
	}{
		{"geometry", func(q *model.ThermoQuantities) { q.Geometry = nil }},
		{"frequencies", func(q *model.ThermoQuantities) { q.Frequencies = nil }},
		{"zpe", func(q *model.ThermoQuantities) { q.ZPE = nil }},
		{"deltaH", func(q *model.ThermoQuantities) { q.DeltaH = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(c *config.QTCConfig) { c.RunThermo = true })
			h.expectWater()
			q := fullQuantities()
			tt.mutate(&q)
			h.parser.On("ParseForThermo", mock.Anything, "mopac", false).Return("Parsed mopac log\n", q, nil)

			res, err := h.pipeline().Run(context.Background(), "O")
			require.NoError(t, err)

			assert.False(t, res.Failed())
			assert.Equal(t, model.PhaseStatusSkipped, phase(t, res, PhaseThermo).Status)
			assert.Contains(t, res.Message, "not found")
			assert.NoFileExists(t, filepath.Join(h.qcdir(), "new.groups"))
			h.writer.AssertNotCalled(t, "WritePolynomial",
				mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRun_WritesPolynomial(t *testing.T) {
	h := newHarness(t, func(c *config.QTCConfig) { c.RunThermo = true })
	sp := h.expectWater()
	q := fullQuantities()
	h.parser.On("ParseForThermo", filepath.Join(h.qcdir(), "O_mopac.out"), "mopac", false).
		Return("Parsed mopac log\n", q, nil)
	h.writer.On("GroupDefinitions").Return("END\n")
	h.writer.On("WritePolynomial", sp.Molecule, 12.88, q.Geometry, q.Frequencies, -57.8,
		mock.MatchedBy(func(o thermo.Options) bool {
			return o.Name == "O" && o.Dir == h.qcdir() && !o.Anharmonic && o.TMid == 1000
		})).
		Return("NASA polynomial written\n", thermo.Result{ZPE: 12.88}, nil)

	res, err := h.pipeline().Run(context.Background(), "O")
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusComplete, res.Status)
	assert.Equal(t, "O", res.Name)
	assert.Contains(t, res.Message, "ZPE = ")
	assert.Contains(t, res.Message, "deltaH = ")
	assert.Contains(t, res.Message, "NASA polynomial written")
	assert.FileExists(t, filepath.Join(h.qcdir(), "new.groups"))
	assert.Contains(t, res.OutputFiles, filepath.Join(h.qcdir(), "new.groups"))
	assert.Equal(t, model.PhaseStatusSkipped, phase(t, res, PhaseExecute).Status)
	assert.Equal(t, model.PhaseStatusComplete, phase(t, res, PhaseThermo).Status)
	assert.Contains(t, h.out.String(), "NASA polynomial written")
}

func TestRun_AnharmonicGate(t *testing.T) {
	tests := []struct {
		name  string
		xmat  [][]float64
		wantA bool
	}{
		{"x matrix present", [][]float64{{-17}, {-20, -42}, {-20, -160, -47}}, true},
		{"x matrix missing", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(c *config.QTCConfig) {
				c.RunThermo = true
				c.Anharmonic = true
			})
			h.expectWater()
			q := fullQuantities()
			q.AnharmonicFrequencies = []float64{1550, 3480, 3570}
			q.XMatrix = tt.xmat
			h.parser.On("ParseForThermo", mock.Anything, "mopac", true).Return("", q, nil)
			h.writer.On("GroupDefinitions").Return("END\n")
			h.writer.On("WritePolynomial", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything,
				mock.MatchedBy(func(o thermo.Options) bool {
					return o.Anharmonic == tt.wantA && (len(o.XMatrix) > 0) == tt.wantA
				})).
				Return("", thermo.Result{}, nil)

			res, err := h.pipeline().Run(context.Background(), "O")
			require.NoError(t, err)
			assert.Equal(t, model.PhaseStatusComplete, phase(t, res, PhaseThermo).Status)
			assert.Equal(t, tt.wantA, phase(t, res, PhaseThermoParse).Metadata["anharmonic"])
		})
	}
}

func TestRun_ConfiguredDeltaH(t *testing.T) {
	h := newHarness(t, func(c *config.QTCConfig) { c.RunThermo = true })
	h.cfg.Thermo.DeltaH = []config.DeltaHEntry{{Species: "O", Value: -57.1}}
	h.expectWater()
	q := fullQuantities()
	q.DeltaH = nil
	h.parser.On("ParseForThermo", mock.Anything, "mopac", false).Return("", q, nil)
	h.writer.On("GroupDefinitions").Return("END\n")
	h.writer.On("WritePolynomial", mock.Anything, mock.Anything, mock.Anything, mock.Anything, -57.1, mock.Anything).
		Return("", thermo.Result{}, nil)

	res, err := h.pipeline().Run(context.Background(), "O")
	require.NoError(t, err)
	assert.Contains(t, res.Message, "Using configured deltaH for O")
	assert.Contains(t, res.Message, "deltaH = -57.1000 kcal/mol")
}

func TestRun_XYZPathNotFound(t *testing.T) {
	h := newHarness(t, func(c *config.QTCConfig) {
		c.RunQC = true
		c.RunThermo = true
		c.XYZPath = "/nonexistent/seed.xyz"
	})
	sp := waterSpecies(h.root)
	sp.Identifier = "X"
	h.resolver.On("Resolve", mock.Anything, "X").Return(sp, nil)

	res, err := h.pipeline().Run(context.Background(), "X")
	require.NoError(t, err)

	assert.True(t, res.Failed())
	assert.Contains(t, res.Message, "xyz path not found /nonexistent/seed.xyz")
	assert.Len(t, res.Phases, 1)
	assert.Equal(t, model.PhaseStatusFailed, phase(t, res, PhaseResolve).Status)
	assert.NoDirExists(t, sp.Dir)
	h.exec.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestRun_XYZDirectoryWithoutFiles(t *testing.T) {
	seeds := t.TempDir()
	h := newHarness(t, func(c *config.QTCConfig) { c.XYZPath = seeds })
	h.expectWater()

	res, err := h.pipeline().Run(context.Background(), "O")
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.Contains(t, res.Message, "xyz file not found in "+seeds)
	assert.Equal(t, model.PhaseStatusComplete, phase(t, res, PhaseWorkspace).Status)
}

func TestRun_XYZFileSeedsGeometry(t *testing.T) {
	h := newHarness(t, func(c *config.QTCConfig) {
		c.RunQC = true
		c.XYZPath = "seed.xyz"
	})
	sp := waterSpecies(h.root)
	sp.Molecule.Atoms = nil
	h.resolver.On("Resolve", mock.Anything, "O").Return(sp, nil)

	require.NoError(t, os.MkdirAll(sp.Dir, 0o755))
	seed := "3\nseed\nO 0.0 0.0 0.0\nH 0.0 0.0 0.96\nH 0.93 0.0 -0.24\n"
	require.NoError(t, os.WriteFile(filepath.Join(sp.Dir, "seed.xyz"), []byte(seed), 0o644))

	h.exec.On("Run", mock.Anything, mock.MatchedBy(func(j qc.Job) bool {
		return j.Package == "mopac" && j.Executable == "mopac" && j.Dir == h.qcdir() &&
			len(j.Species.Molecule.Atoms) == 3 && j.Species.Molecule.Atoms[1].Coord[2] == 0.96
	})).Return("Running mopac\n", nil)

	res, err := h.pipeline().Run(context.Background(), "O")
	require.NoError(t, err)
	assert.Contains(t, res.Message, "Using xyz file in '"+filepath.Join(sp.Dir, "seed.xyz")+"'")
	assert.Equal(t, model.PhaseStatusComplete, phase(t, res, PhaseExecute).Status)
}

func TestRun_QCScript(t *testing.T) {
	h := newHarness(t, func(c *config.QTCConfig) {
		c.RunQC = true
		c.QCPackage = qc.Script
		c.QCTemplate = "/templates/opt.tmpl"
		c.Executables.QCScript = "/opt/bin/runqc.sh"
	})
	h.expectWater()
	h.exec.On("RunScript", mock.Anything, qc.ScriptJob{
		Script:       "/opt/bin/runqc.sh",
		Template:     "/templates/opt.tmpl",
		GeoFile:      "O.geo",
		Multiplicity: 1,
		Dir:          h.qcdir(),
	}).Return("script ran\n", nil)

	res, err := h.pipeline().Run(context.Background(), "O")
	require.NoError(t, err)
	assert.Contains(t, res.Message, "Running qcscript...")
	assert.Contains(t, res.Message, "script ran")

	geo, err := os.ReadFile(filepath.Join(h.qcdir(), "O.geo"))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(geo), "\n"))
}

func TestRun_ExecutorFailureIsAbsentResult(t *testing.T) {
	h := newHarness(t, func(c *config.QTCConfig) {
		c.RunQC = true
		c.RunThermo = true
	})
	h.expectWater()
	h.exec.On("Run", mock.Anything, mock.Anything).Return("Running mopac\n", errors.New("exit status 1"))
	h.parser.On("ParseForThermo", mock.Anything, "mopac", false).
		Return("QC log not found\n", model.ThermoQuantities{}, nil)

	res, err := h.pipeline().Run(context.Background(), "O")
	require.NoError(t, err)

	assert.False(t, res.Failed())
	assert.Contains(t, res.Message, "mopac failed: exit status 1")
	assert.Equal(t, model.PhaseStatusFailed, phase(t, res, PhaseExecute).Status)
	assert.Equal(t, model.PhaseStatusSkipped, phase(t, res, PhaseThermo).Status)
}

func TestRun_InspectionParse(t *testing.T) {
	t.Run("log present", func(t *testing.T) {
		h := newHarness(t, func(c *config.QTCConfig) { c.WriteFiles = true })
		h.expectWater()
		require.NoError(t, os.MkdirAll(h.qcdir(), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(h.qcdir(), "O_mopac.out"), []byte("log text"), 0o644))

		energy := -0.0921
		h.parser.On("Parse", "log text", "O").Return(&qclog.Summary{
			Package:  "mopac",
			Name:     "O",
			Energy:   &energy,
			Geometry: waterAtoms,
		}, nil)

		res, err := h.pipeline().Run(context.Background(), "O")
		require.NoError(t, err)
		assert.Contains(t, res.Message, "package: mopac")
		assert.FileExists(t, filepath.Join(h.qcdir(), "O.xyz"))
		assert.FileExists(t, filepath.Join(h.qcdir(), "O.ene"))
		assert.Contains(t, res.OutputFiles, filepath.Join(h.qcdir(), "O.xyz"))
	})

	t.Run("log absent", func(t *testing.T) {
		h := newHarness(t, func(c *config.QTCConfig) { c.ParseQC = true })
		h.expectWater()

		res, err := h.pipeline().Run(context.Background(), "O")
		require.NoError(t, err)
		assert.Equal(t, model.PhaseStatusSkipped, phase(t, res, PhaseParse).Status)
		h.parser.AssertNotCalled(t, "Parse", mock.Anything, mock.Anything)
	})
}

func TestRun_ArchivesLog(t *testing.T) {
	h := newHarness(t, func(c *config.QTCConfig) { c.ArchiveLogs = true })
	h.expectWater()
	require.NoError(t, os.MkdirAll(h.qcdir(), 0o755))
	logPath := filepath.Join(h.qcdir(), "O_mopac.out")
	require.NoError(t, os.WriteFile(logPath, []byte("log text"), 0o644))

	res, err := h.pipeline().Run(context.Background(), "O")
	require.NoError(t, err)
	assert.NoFileExists(t, logPath)
	assert.FileExists(t, logPath+qclog.ArchiveExt)
	assert.Contains(t, res.OutputFiles, logPath+qclog.ArchiveExt)
}

func TestRun_RestoresWorkingDirectory(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
	}{
		{"success", func(h *harness) {
			h.expectWater()
			h.parser.On("ParseForThermo", mock.Anything, mock.Anything, mock.Anything).
				Return("", model.ThermoQuantities{}, nil)
		}},
		{"parse error", func(h *harness) {
			h.expectWater()
			h.parser.On("ParseForThermo", mock.Anything, mock.Anything, mock.Anything).
				Return("", model.ThermoQuantities{}, errors.New("corrupt log"))
		}},
		{"resolve error", func(h *harness) {
			h.resolver.On("Resolve", mock.Anything, "O").Return(model.Species{}, errors.New("bad smiles"))
		}},
		{"unsupported package", func(h *harness) {
			h.cfg.QTC.RunQC = true
			h.cfg.QTC.QCPackage = "psi4"
			h.expectWater()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(c *config.QTCConfig) { c.RunThermo = true })
			tt.setup(h)

			before := getwd(t)
			_, _ = h.pipeline().Run(context.Background(), "O")
			assert.Equal(t, before, getwd(t))
		})
	}
}

func TestRun_WorkspaceFailure(t *testing.T) {
	h := newHarness(t, nil)
	sp := waterSpecies(h.root)
	// A file where the species directory should be.
	require.NoError(t, os.MkdirAll(filepath.Dir(sp.Dir), 0o755))
	require.NoError(t, os.WriteFile(sp.Dir, []byte("x"), 0o644))
	h.resolver.On("Resolve", mock.Anything, "O").Return(sp, nil)

	res, err := h.pipeline().Run(context.Background(), "O")
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Message, "I/O error, "+sp.Dir+" directory not found.")
	assert.Len(t, res.Phases, 2)
}

func TestRun_RecordsRunHistory(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	h := newHarness(t, func(c *config.QTCConfig) { c.RunThermo = true })
	h.store = st
	h.expectWater()
	h.parser.On("ParseForThermo", mock.Anything, "mopac", false).Return("", fullQuantities(), nil)
	h.writer.On("GroupDefinitions").Return("END\n")
	h.writer.On("WritePolynomial", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", thermo.Result{ZPE: 12.88, Polynomial: thermo.Polynomial{TMin: 300, TMid: 1000, TMax: 3000}}, nil)

	res, err := h.pipeline().Run(context.Background(), "O")
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)

	run, err := st.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, "O", run.Name)
	require.NotNil(t, run.Result)
	assert.Len(t, run.Result.Phases, 6)

	phases, err := st.ListPhases(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Len(t, phases, 6)

	rec, err := st.GetThermo(context.Background(), "O")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, res.RunID, rec.RunID)
	assert.InDelta(t, 12.88, rec.ZPE, 1e-9)
}

func TestRun_ThermoParseErrorSkipsThermo(t *testing.T) {
	h := newHarness(t, func(c *config.QTCConfig) {
		c.RunThermo = true
		c.Anharmonic = true
	})
	h.expectWater()
	h.parser.On("ParseForThermo", mock.Anything, "mopac", true).
		Return("", model.ThermoQuantities{}, errors.New("qclog: no parser"))

	before := getwd(t)
	res, err := h.pipeline().Run(context.Background(), "O")
	require.NoError(t, err)

	assert.Equal(t, before, getwd(t))
	assert.False(t, res.Failed())
	assert.Contains(t, res.Message, "Could not parse qc logfile")
	assert.Contains(t, res.Message, "Skipping thermochemistry")
	assert.Equal(t, model.PhaseStatusFailed, phase(t, res, PhaseThermoParse).Status)
	assert.Equal(t, model.PhaseStatusSkipped, phase(t, res, PhaseThermo).Status)
	assert.NoFileExists(t, filepath.Join(h.qcdir(), "new.groups"))
	h.writer.AssertNotCalled(t, "WritePolynomial",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_UnreadableLogWithLogParser(t *testing.T) {
	tests := []struct {
		name  string
		pkg   string
		setup func(t *testing.T, h *harness)
	}{
		{
			name: "qcscript log of unknown origin",
			pkg:  qc.Script,
			setup: func(t *testing.T, h *harness) {
				h.cfg.QTC.RunQC = true
				h.cfg.QTC.QCTemplate = "/templates/opt.tmpl"
				h.cfg.QTC.Executables.QCScript = "/opt/bin/runqc.sh"
				h.exec.On("RunScript", mock.Anything, mock.Anything).
					Run(func(args mock.Arguments) {
						job := args.Get(1).(qc.ScriptJob)
						require.NoError(t, os.WriteFile(filepath.Join(job.Dir, "O_qcscript.out"),
							[]byte("some home-grown program\nE = -76.0\n"), 0o644))
					}).
					Return("script ran\n", nil)
			},
		},
		{
			name: "log path is a directory",
			pkg:  qc.Mopac,
			setup: func(t *testing.T, h *harness) {
				require.NoError(t, os.MkdirAll(filepath.Join(h.qcdir(), "O_mopac.out"), 0o755))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(c *config.QTCConfig) {
				c.RunThermo = true
				c.QCPackage = tt.pkg
			})
			h.expectWater()
			tt.setup(t, h)
			p := New(h.cfg, h.store, h.resolver, h.exec, WithThermoWriter(h.writer), WithOutput(h.out))

			before := getwd(t)
			res, err := p.Run(context.Background(), "O")
			require.NoError(t, err)

			assert.Equal(t, before, getwd(t))
			assert.False(t, res.Failed())
			assert.Equal(t, model.PhaseStatusFailed, phase(t, res, PhaseThermoParse).Status)
			assert.Equal(t, model.PhaseStatusSkipped, phase(t, res, PhaseThermo).Status)
			h.writer.AssertNotCalled(t, "WritePolynomial",
				mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

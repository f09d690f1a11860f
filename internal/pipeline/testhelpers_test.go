package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/qtc/internal/config"
	"github.com/sells-group/qtc/internal/model"
	"github.com/sells-group/qtc/internal/store"
)

var waterAtoms = []model.Atom{
	{Symbol: "O", Coord: [3]float64{0, 0, 0.1173}},
	{Symbol: "H", Coord: [3]float64{0, 0.7572, -0.4692}},
	{Symbol: "H", Coord: [3]float64{0, -0.7572, -0.4692}},
}

func waterSpecies(root string) model.Species {
	return model.Species{
		Identifier:   "O",
		Multiplicity: 1,
		Name:         "O",
		Dir:          filepath.Join(root, "H2O", "O", "1"),
		Molecule: model.Molecule{
			Formula:      "H2O",
			Multiplicity: 1,
			Atoms:        waterAtoms,
		},
	}
}

func fullQuantities() model.ThermoQuantities {
	return model.ThermoQuantities{
		Geometry:    waterAtoms,
		Frequencies: []float64{1595.0, 3657.0, 3756.0},
		ZPE:         model.Float(12.88),
		DeltaH:      model.Float(-57.8),
	}
}

type harness struct {
	root     string
	cfg      *config.Config
	store    store.Store
	resolver *mockResolver
	exec     *mockExecutor
	parser   *mockParser
	writer   *mockThermoWriter
	out      *bytes.Buffer
}

func newHarness(t *testing.T, mutate func(c *config.QTCConfig)) *harness {
	t.Helper()
	h := &harness{
		root:     t.TempDir(),
		store:    store.NoopStore{},
		resolver: &mockResolver{},
		exec:     &mockExecutor{},
		parser:   &mockParser{},
		writer:   &mockThermoWriter{},
		out:      &bytes.Buffer{},
	}
	h.cfg = &config.Config{
		QTC: config.QTCConfig{
			Root:      h.root,
			QCPackage: "mopac",
			NProcQC:   1,
			Executables: config.ExecutablesConfig{
				Mopac: "mopac",
			},
		},
		Batch:  config.BatchConfig{NProc: 1},
		Thermo: config.ThermoConfig{TMin: 300, TMid: 1000, TMax: 3000},
	}
	if mutate != nil {
		mutate(&h.cfg.QTC)
	}
	t.Cleanup(func() {
		h.resolver.AssertExpectations(t)
		h.exec.AssertExpectations(t)
		h.parser.AssertExpectations(t)
		h.writer.AssertExpectations(t)
	})
	return h
}

func (h *harness) pipeline() *Pipeline {
	return New(h.cfg, h.store, h.resolver, h.exec,
		WithParser(h.parser), WithThermoWriter(h.writer), WithOutput(h.out))
}

func (h *harness) expectWater() model.Species {
	sp := waterSpecies(h.root)
	h.resolver.On("Resolve", mock.Anything, "O").Return(sp, nil)
	return sp
}

func (h *harness) qcdir() string {
	return filepath.Join(h.root, "H2O", "O", "1", h.cfg.QTC.QCDirectory)
}

func getwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	return wd
}

func phase(t *testing.T, r model.SpeciesResult, name string) model.PhaseResult {
	t.Helper()
	for _, p := range r.Phases {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("phase %s not recorded", name)
	return model.PhaseResult{}
}

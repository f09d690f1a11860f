package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/qtc/internal/model"
	"github.com/sells-group/qtc/internal/qc"
	"github.com/sells-group/qtc/internal/qclog"
	"github.com/sells-group/qtc/internal/thermo"
)

// --- Resolver Mock ---

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, identifier string) (model.Species, error) {
	args := m.Called(ctx, identifier)
	return args.Get(0).(model.Species), args.Error(1)
}

// --- Executor Mock ---

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) Run(ctx context.Context, job qc.Job) (string, error) {
	args := m.Called(ctx, job)
	return args.String(0), args.Error(1)
}

func (m *mockExecutor) RunScript(ctx context.Context, job qc.ScriptJob) (string, error) {
	args := m.Called(ctx, job)
	return args.String(0), args.Error(1)
}

// --- Parser Mock ---

type mockParser struct {
	mock.Mock
}

func (m *mockParser) Parse(text, name string) (*qclog.Summary, error) {
	args := m.Called(text, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*qclog.Summary), args.Error(1)
}

func (m *mockParser) ParseForThermo(path, pkg string, anharmonic bool) (string, model.ThermoQuantities, error) {
	args := m.Called(path, pkg, anharmonic)
	return args.String(0), args.Get(1).(model.ThermoQuantities), args.Error(2)
}

// --- ThermoWriter Mock ---

type mockThermoWriter struct {
	mock.Mock
}

func (m *mockThermoWriter) GroupDefinitions() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockThermoWriter) WritePolynomial(mol model.Molecule, zpe float64, geometry []model.Atom, freqs []float64, deltaH float64, opts thermo.Options) (string, thermo.Result, error) {
	args := m.Called(mol, zpe, geometry, freqs, deltaH, opts)
	return args.String(0), args.Get(1).(thermo.Result), args.Error(2)
}

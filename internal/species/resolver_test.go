package species

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/qtc/internal/model"
)

func TestParseSMILES(t *testing.T) {
	tests := []struct {
		smiles   string
		formula  string
		charge   int
		unpaired int
	}{
		{"O", "H2O", 0, 0},
		{"C", "CH4", 0, 0},
		{"CCO", "C2H6O", 0, 0},
		{"C=O", "CH2O", 0, 0},
		{"C#N", "CHN", 0, 0},
		{"c1ccccc1", "C6H6", 0, 0},
		{"c1cc[nH]c1", "C4H5N", 0, 0},
		{"c1ccncc1", "C5H5N", 0, 0},
		{"CC(C)C", "C4H10", 0, 0},
		{"C1CC1", "C3H6", 0, 0},
		{"[CH3]", "CH3", 0, 1},
		{"[OH]", "HO", 0, 1},
		{"[O][O]", "O2", 0, 2},
		{"[NH4+]", "H4N", 1, 0},
		{"[O-]C=O", "CHO2", -1, 0},
		{"ClCCl", "CH2Cl2", 0, 0},
		{"O.O", "H4O2", 0, 0},
		{"F/C=C/F", "C2H2F2", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.smiles, func(t *testing.T) {
			comp, err := parseSMILES(tt.smiles)
			require.NoError(t, err)
			assert.Equal(t, tt.formula, formulaOf(comp))
			assert.Equal(t, tt.charge, comp.charge)
			assert.Equal(t, tt.unpaired, comp.unpaired)
		})
	}
}

func TestParseSMILES_Errors(t *testing.T) {
	for _, s := range []string{"", "C(C", "C)C", "C1CC", "[CH3", "Xx", "[Qq]"} {
		t.Run(s, func(t *testing.T) {
			_, err := parseSMILES(s)
			assert.Error(t, err)
		})
	}
}

func TestParseInChI(t *testing.T) {
	tests := []struct {
		inchi   string
		formula string
		charge  int
	}{
		{"InChI=1S/H2O/h1H2", "H2O", 0},
		{"InChI=1S/CH4/h1H4", "CH4", 0},
		{"InChI=1S/C2H6O/c1-2-3/h3H,2H2,1H3", "C2H6O", 0},
		{"InChI=1S/H3N/h1H3/p+1", "H4N", 1},
		{"InChI=1S/2H2O/h2*1H2", "H4O2", 0},
		{"InChI=1S/CH3/h1H3", "CH3", 0},
	}
	for _, tt := range tests {
		t.Run(tt.inchi, func(t *testing.T) {
			comp, err := parseInChI(tt.inchi)
			require.NoError(t, err)
			assert.Equal(t, tt.formula, formulaOf(comp))
			assert.Equal(t, tt.charge, comp.charge)
		})
	}

	_, err := parseInChI("InChI=1S")
	assert.Error(t, err)
	_, err = parseInChI("InChI=1S/Qz2")
	assert.Error(t, err)
}

func TestMultiplicity(t *testing.T) {
	tests := []struct {
		id   string
		want int
	}{
		{"O", 1},
		{"[CH3]", 2},
		{"[O][O]", 3},
		{"[CH2]", 3},
		{"InChI=1S/H2O/h1H2", 1},
		{"InChI=1S/CH3/h1H3", 2},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			var comp composition
			var err error
			if IsInChI(tt.id) {
				comp, err = parseInChI(tt.id)
			} else {
				comp, err = parseSMILES(tt.id)
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, multiplicity(comp, IsInChI(tt.id)))
		})
	}
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "O", SafeName("O"))
	assert.Equal(t, "C_eO", SafeName("C=O"))
	assert.Equal(t, "F_sC_eC_sF", SafeName("F/C=C/F"))
	assert.Equal(t, "F_bC_eC_sF", SafeName("F\\C=C/F"))
	assert.Equal(t, "_jCH3_k", SafeName("[CH3]"))
	assert.Equal(t, "1S_sH2O_sh1H2", SafeName("InChI=1S/H2O/h1H2"))
	assert.NotContains(t, SafeName("C[C@@H](O)C#N"), "/")
	assert.NotEqual(t, SafeName("F/C=C/F"), SafeName("F\\C=C\\F"))
}

func TestLocalResolver_Resolve(t *testing.T) {
	root := t.TempDir()
	r := NewLocalResolver(root, "")

	sp, err := r.Resolve(context.Background(), " O ")
	require.NoError(t, err)

	assert.Equal(t, "O", sp.Identifier)
	assert.Equal(t, "O", sp.Name)
	assert.Equal(t, 1, sp.Multiplicity)
	assert.Equal(t, "H2O", sp.Molecule.Formula)
	assert.Equal(t, 1, sp.Molecule.Multiplicity)
	assert.False(t, sp.Molecule.HasGeometry())
	assert.Equal(t, filepath.Join(root, "H2O", "O", "1"), sp.Dir)
	assert.Equal(t, "O_mopac.out", sp.LogName("mopac"))

	sp, err = r.Resolve(context.Background(), "[CH3]")
	require.NoError(t, err)
	assert.Equal(t, 2, sp.Multiplicity)
	assert.Equal(t, filepath.Join(root, "CH3", "_jCH3_k", "2"), sp.Dir)
}

func TestLocalResolver_Errors(t *testing.T) {
	r := NewLocalResolver(t.TempDir(), "")
	_, err := r.Resolve(context.Background(), "   ")
	assert.Error(t, err)
	_, err = r.Resolve(context.Background(), "C(")
	assert.Error(t, err)
}

func TestLocalResolver_MissingOBabel(t *testing.T) {
	r := NewLocalResolver(t.TempDir(), "definitely-not-obabel-on-path")
	sp, err := r.Resolve(context.Background(), "O")
	require.NoError(t, err)
	assert.False(t, sp.Molecule.HasGeometry())
}

func TestLocalResolver_FakeOBabel(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "obabel")
	body := "#!/bin/sh\nprintf '3\\n\\nO 0.0 0.0 0.117\\nH 0.0 0.757 -0.467\\nH 0.0 -0.757 -0.467\\n'\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	r := NewLocalResolver(t.TempDir(), script)
	sp, err := r.Resolve(context.Background(), "O")
	require.NoError(t, err)
	require.True(t, sp.Molecule.HasGeometry())
	assert.Len(t, sp.Molecule.Atoms, 3)
	assert.Equal(t, "H2O", sp.Molecule.Formula)

	// Wrong composition from the generator is rejected.
	sp, err = r.Resolve(context.Background(), "C")
	require.NoError(t, err)
	assert.False(t, sp.Molecule.HasGeometry())
}

func TestReadXYZ(t *testing.T) {
	in := "\n3\nwater\nO 0.0 0.0 0.117\nh 0.0 0.757 -0.467\nH 0.0 -0.757 -0.467\ntrailing frame ignored\n"
	atoms, err := ReadXYZ(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, atoms, 3)
	assert.Equal(t, "O", atoms[0].Symbol)
	assert.Equal(t, "H", atoms[1].Symbol)
	assert.InDelta(t, 0.757, atoms[1].Coord[1], 1e-12)
	assert.InDelta(t, -0.467, atoms[2].Coord[2], 1e-12)
}

func TestReadXYZ_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":       "",
		"bad count":   "three\nx\n",
		"no comment":  "1\n",
		"short line":  "1\n\nO 0.0 0.0\n",
		"bad element": "1\n\nQq 0 0 0\n",
		"bad coord":   "1\n\nO 0 zero 0\n",
		"truncated":   "2\n\nO 0 0 0\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadXYZ(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestReadXYZFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.xyz")
	require.NoError(t, os.WriteFile(path, []byte("1\n\nO 1 2 3\n"), 0o644))
	atoms, err := ReadXYZFile(path)
	require.NoError(t, err)
	assert.Equal(t, [3]float64{1, 2, 3}, atoms[0].Coord)

	_, err = ReadXYZFile(filepath.Join(t.TempDir(), "missing.xyz"))
	assert.Error(t, err)
}

func formulaOf(c composition) string {
	return model.FormulaFromCounts(c.counts)
}

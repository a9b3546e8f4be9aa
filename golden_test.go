package treestats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type goldenData struct {
	Tables           string      `yaml:"tables"`
	DiversitySite    float64     `yaml:"diversity_site"`
	DiversityBranch  float64     `yaml:"diversity_branch"`
	SegregatingSites float64     `yaml:"segregating_sites"`
	InfiniteSites    bool        `yaml:"infinite_sites"`
	R2Matrix         [][]float64 `yaml:"r2_matrix"`
}

const goldenTolerance = 1e-10

func loadGoldenFile(t *testing.T, path string) []goldenData {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var golden []goldenData
	require.NoError(t, yaml.Unmarshal(raw, &golden))
	require.NotEmpty(t, golden)
	return golden
}

// compareFloat64Slices reports mismatches between golden and actual values,
// logging up to 5 individual errors.
func compareFloat64Slices(t *testing.T, name string, golden, actual []float64, tol float64) {
	t.Helper()
	require.Len(t, actual, len(golden), name)
	mismatches := 0
	for i := range golden {
		if !almostEqual(golden[i], actual[i], tol) {
			mismatches++
			if mismatches <= 5 {
				t.Errorf("%s[%d]: golden=%g, got=%g", name, i, golden[i], actual[i])
			}
		}
	}
	if mismatches > 5 {
		t.Errorf("... and %d more %s mismatches beyond tolerance %g", mismatches-5, name, tol)
	}
}

func TestGoldenStatistics(t *testing.T) {
	for _, g := range loadGoldenFile(t, filepath.Join("testdata", "golden.yaml")) {
		t.Run(g.Tables, func(t *testing.T) {
			ts := loadFixture(t, g.Tables)
			all := [][]NodeID{allSamples(ts)}

			site, err := Diversity(ts, all, StatConfig{Mode: ModeSite})
			require.NoError(t, err)
			compareFloat64Slices(t, "diversity_site", []float64{g.DiversitySite}, []float64{site.At(0, 0)}, goldenTolerance)

			branch, err := Diversity(ts, all, StatConfig{Mode: ModeBranch})
			require.NoError(t, err)
			compareFloat64Slices(t, "diversity_branch", []float64{g.DiversityBranch}, []float64{branch.At(0, 0)}, goldenTolerance)

			seg, err := SegregatingSites(ts, all, StatConfig{Mode: ModeSite})
			require.NoError(t, err)
			compareFloat64Slices(t, "segregating_sites", []float64{g.SegregatingSites}, []float64{seg.At(0, 0)}, goldenTolerance)

			m, err := R2Matrix(ts, 2)
			if !g.InfiniteSites {
				require.ErrorIs(t, err, ErrOnlyInfiniteSites)
				return
			}
			require.NoError(t, err)
			for i, row := range g.R2Matrix {
				compareFloat64Slices(t, "r2_matrix row", row, m.RawRowView(i), goldenTolerance)
			}
		})
	}
}

package vm_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// scenario is one table-driven end-to-end case loaded from
// testdata/scenarios.yaml.
type scenario struct {
	Name    string `yaml:"name"`
	Src     string `yaml:"src"`
	Want    string `yaml:"want"`
	WantErr bool   `yaml:"wantErr"`
}

func loadScenarios(t *testing.T, path string) []scenario {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var scenarios []scenario
	require.NoError(t, yaml.Unmarshal(data, &scenarios))
	return scenarios
}

// TestScenariosFromYAML runs every parse-compile-execute case in
// testdata/scenarios.yaml, the table-driven VM fixture format sketched
// in SPEC_FULL.md §3.
func TestScenariosFromYAML(t *testing.T) {
	for _, sc := range loadScenarios(t, "testdata/scenarios.yaml") {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			v, err := run(t, sc.Src)
			if sc.WantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, sc.Want, v.String())
		})
	}
}

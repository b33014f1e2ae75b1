// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRegistry(t *testing.T) {
	path := writeRegistry(t, `{
		"version": "1.0.0",
		"lastUpdated": "2026-08-01",
		"activities": [
			{"id": "rank-candidates", "taskType": "rank-candidates", "category": "scoring"},
			{"id": "generate-bias-report", "taskType": "generate-bias-report", "category": "bias"}
		]
	}`)

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", reg.Version)
	require.Len(t, reg.Activities, 2)

	found := reg.FindByTaskType("generate-bias-report")
	require.NotNil(t, found)
	assert.Equal(t, "bias", found.Category)

	assert.Nil(t, reg.FindByTaskType("no-such-task"))
}

func TestLoadRegistryMissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	reg := &ActivityRegistry{Activities: []Activity{
		{ID: "rank-candidates", TaskType: "rank-candidates"},
		{ID: "train-models", TaskType: "train-models"},
	}}
	assert.NoError(t, reg.Validate())

	reg.Activities = append(reg.Activities, Activity{ID: "rank-candidates", TaskType: "rank-candidates"})
	assert.Error(t, reg.Validate())

	reg.Activities = []Activity{{ID: "", TaskType: "x"}}
	assert.Error(t, reg.Validate())
}

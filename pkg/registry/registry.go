// pkg/registry/registry.go

// Package registry describes the BPMN service tasks this worker fleet
// serves. The worker manager cross-checks enabled workers against it at
// startup, and the registry-updater tool maintains it.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultPath is where the worker manager looks for the registry file,
// relative to the working directory.
const DefaultPath = "configs/activity-registry.json"

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// FindByTaskType returns the activity serving the given Zeebe task type, or
// nil when none is registered.
func (r *ActivityRegistry) FindByTaskType(taskType string) *Activity {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i]
		}
	}
	return nil
}

// Validate checks the registry for duplicate IDs and missing required
// fields.
func (r *ActivityRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Activities))
	for _, a := range r.Activities {
		if a.ID == "" || a.TaskType == "" {
			return fmt.Errorf("activity %q: id and taskType are required", a.ID)
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate activity id %q", a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

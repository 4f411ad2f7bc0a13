package config

import (
	"fmt"

	"github.com/andrej220/taskrun/internal/registry"
	"github.com/andrej220/taskrun/pkg/config/configstore"
)

// ActionSpec declares the external invocation of a task.
type ActionSpec struct {
	Program string   `yaml:"program" json:"program" bson:"program" validate:"required"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty" bson:"args,omitempty"`
}

// TaskSpec is one task record in a manifest. Run is absent for aggregate
// tasks that only group dependencies.
type TaskSpec struct {
	Name string      `yaml:"name" json:"name" bson:"name" validate:"required"`
	Run  *ActionSpec `yaml:"run,omitempty" json:"run,omitempty" bson:"run,omitempty"`
	Deps []string    `yaml:"deps,omitempty" json:"deps,omitempty" bson:"deps,omitempty"`
}

// Manifest is the on-disk (or in-database) declaration of a task table.
// Declaration order of tasks and of each task's deps is significant and
// preserved.
type Manifest struct {
	Version string     `yaml:"version,omitempty" json:"version,omitempty" bson:"version,omitempty"`
	Tasks   []TaskSpec `yaml:"tasks" json:"tasks" bson:"tasks" validate:"required"`
}

// LoadManifest reads a manifest from the given store.
func LoadManifest(store configstore.ConfigStore) (*Manifest, error) {
	var m Manifest
	if err := store.Load(&m); err != nil {
		return nil, err
	}
	if len(m.Tasks) == 0 {
		return nil, fmt.Errorf("manifest declares no tasks")
	}
	return &m, nil
}

// BuildRegistry registers every declared task and freezes the registry.
// Duplicate names and malformed task records surface here, before any
// execution can start.
func (m *Manifest) BuildRegistry() (*registry.Registry, error) {
	reg := registry.New()
	for _, spec := range m.Tasks {
		task := registry.Task{
			Name: spec.Name,
			Deps: spec.Deps,
		}
		if spec.Run != nil {
			task.Action = &registry.Action{
				Program: spec.Run.Program,
				Args:    spec.Run.Args,
			}
		}
		if err := reg.Register(task); err != nil {
			return nil, fmt.Errorf("loading manifest: %w", err)
		}
	}
	reg.Freeze()
	return reg, nil
}

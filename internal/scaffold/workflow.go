package scaffold

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// The CI workflow is built as a document rather than a template so the
// output stays valid YAML whatever the project is called.

type workflowDoc struct {
	Name string         `yaml:"name"`
	On   map[string]any `yaml:"on"`
	Jobs map[string]job `yaml:"jobs"`
}

type job struct {
	RunsOn string `yaml:"runs-on"`
	Steps  []step `yaml:"steps"`
}

type step struct {
	Name string            `yaml:"name,omitempty"`
	Uses string            `yaml:"uses,omitempty"`
	Run  string            `yaml:"run,omitempty"`
	With map[string]string `yaml:"with,omitempty"`
}

func ciWorkflow() ([]byte, error) {
	doc := workflowDoc{
		Name: "Tests",
		On: map[string]any{
			"push":         map[string]any{"branches": []string{"main"}},
			"pull_request": nil,
		},
		Jobs: map[string]job{
			"tests": {
				RunsOn: "ubuntu-latest",
				Steps: []step{
					{Uses: "actions/checkout@v4"},
					{
						Name: "Install toolchain",
						Uses: "aiken-lang/setup-aiken@v1",
						With: map[string]string{"version": "latest"},
					},
					{Name: "Check formatting and run tests", Run: "aiken check"},
					{Name: "Build", Run: "aiken build"},
				},
			},
		},
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("scaffold: marshal workflow: %w", err)
	}
	return out, nil
}

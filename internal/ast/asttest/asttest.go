// Package asttest holds the program fixtures both backends are tested against.
package asttest

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/hog/internal/ast"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

// Case is one fixture program with its expected outcome.
type Case struct {
	Name    string
	Program *ast.Program
	Fields  map[string]any
	Want    any
	Stdout  string
}

type rawCase struct {
	Name    string         `yaml:"name"`
	Program map[string]any `yaml:"program"`
	Fields  map[string]any `yaml:"fields"`
	Want    any            `yaml:"want"`
	Stdout  string         `yaml:"stdout"`
}

// Load decodes every fixture. The AST goes through the same JSON boundary
// the external parser uses.
func Load() ([]Case, error) {
	var raw []rawCase
	if err := yaml.Unmarshal(fixturesYAML, &raw); err != nil {
		return nil, fmt.Errorf("asttest: %w", err)
	}
	cases := make([]Case, 0, len(raw))
	for _, r := range raw {
		doc, err := json.Marshal(r.Program)
		if err != nil {
			return nil, fmt.Errorf("asttest: %s: %w", r.Name, err)
		}
		p, err := ast.DecodeProgram(doc)
		if err != nil {
			return nil, fmt.Errorf("asttest: %s: %w", r.Name, err)
		}
		cases = append(cases, Case{Name: r.Name, Program: p, Fields: r.Fields, Want: r.Want, Stdout: r.Stdout})
	}
	return cases, nil
}

// MustLoad is Load for tests.
func MustLoad() []Case {
	cases, err := Load()
	if err != nil {
		panic(err)
	}
	return cases
}

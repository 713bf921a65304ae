package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/extcheck/internal/diag"
)

// Expected analysis statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Scenario defines a conformance test scenario.
// A scenario analyzes one unit and asserts on the diagnostics, the
// resolved names and the transformed output.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Source is the CUE text of the unit under test.
	Source string `yaml:"source,omitempty"`

	// File is a CUE file holding the unit, used instead of Source.
	// Relative paths are resolved against the scenario file location.
	File string `yaml:"file,omitempty"`

	// Unit selects a unit when the source declares more than one.
	Unit string `yaml:"unit,omitempty"`

	// Workers bounds the number of bodies resolved at once. Zero means 1.
	Workers int `yaml:"workers,omitempty"`

	// Expect is the expected status: "ok" or "failed".
	Expect string `yaml:"expect"`

	// Assertions validate the diagnostics, bindings and output.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Assertion validates one aspect of the analysis result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "diagnostic": a diagnostic of Kind was reported (Line, Message optional)
	// - "diagnostic_count": exactly Count diagnostics (of Kind, if set)
	// - "binding": a binding named Name in Func matches Flat, State and Value
	// - "output_contains": the printed output contains Text
	// - "output_excludes": the printed output does not contain Text
	// - "order": the expansion order equals Functions
	// - "splices": exactly Count call sites were expanded
	Type string `yaml:"type"`

	// Kind is a diagnostic kind name or code, e.g. "NotFound" or "E202".
	Kind string `yaml:"kind,omitempty"`

	// Line is the expected diagnostic line (used by diagnostic).
	Line int `yaml:"line,omitempty"`

	// Message is a substring of the diagnostic message (used by diagnostic).
	Message string `yaml:"message,omitempty"`

	// Func is the function holding the binding. Empty means unit scope.
	Func string `yaml:"func,omitempty"`

	// Name is the source name of the binding.
	Name string `yaml:"name,omitempty"`

	// Flat is the expected flattened name.
	Flat string `yaml:"flat,omitempty"`

	// State is the expected final binding state: active, shadowed or undeclared.
	State string `yaml:"state,omitempty"`

	// Value is the expected constant-folded value.
	Value *int64 `yaml:"value,omitempty"`

	// Text is the output fragment (used by output_contains, output_excludes).
	Text string `yaml:"text,omitempty"`

	// Functions is the expected expansion order (used by order).
	Functions []string `yaml:"functions,omitempty"`

	// Count is the expected number (used by diagnostic_count, splices).
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertDiagnostic      = "diagnostic"
	AssertDiagnosticCount = "diagnostic_count"
	AssertBinding         = "binding"
	AssertOutputContains  = "output_contains"
	AssertOutputExcludes  = "output_excludes"
	AssertOrder           = "order"
	AssertSplices         = "splices"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
//
// A relative File is resolved against the directory of path.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve the unit file relative to the scenario BEFORE validation
	if scenario.File != "" && !filepath.IsAbs(scenario.File) {
		scenario.File = filepath.Join(filepath.Dir(path), scenario.File)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML without validating file references.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Source == "" && s.File == "":
		return fmt.Errorf("one of source or file is required")
	case s.Source != "" && s.File != "":
		return fmt.Errorf("source and file are mutually exclusive")
	}

	if s.File != "" {
		if _, err := os.Stat(s.File); os.IsNotExist(err) {
			return fmt.Errorf("unit file not found: %s", s.File)
		}
	}

	if s.Expect != StatusOK && s.Expect != StatusFailed {
		return fmt.Errorf("expect must be %q or %q, got %q", StatusOK, StatusFailed, s.Expect)
	}

	if s.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertDiagnostic:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for diagnostic", index)
		}
	case AssertDiagnosticCount, AssertSplices:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertBinding:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for binding", index)
		}
		if a.Flat == "" && a.State == "" && a.Value == nil {
			return fmt.Errorf("assertions[%d]: binding needs at least one of flat, state or value", index)
		}
	case AssertOutputContains, AssertOutputExcludes:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertOrder:
		if a.Functions == nil {
			return fmt.Errorf("assertions[%d]: functions list is required for order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Kind != "" {
		if _, err := diag.ParseKind(a.Kind); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	}

	return nil
}

// Package harness provides conformance testing for the extcheck analyzer.
//
// The harness compiles a CUE unit, runs the full analysis on it and checks
// the outcome against the scenario's expectations.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	source: |
//	  unit: demo: func: main: {...}
//	expect: ok
//	assertions:
//	  - type: binding
//	    func: main
//	    name: x
//	    value: 2
//	  - type: output_contains
//	    text: "int x_2 = 2;"
//
// Instead of an inline source a scenario may name a CUE file relative to
// the scenario file:
//
//	file: units/shadow.cue
//	unit: shadow
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - diagnostic: a diagnostic of the kind (name or code) was reported,
//     optionally at a line and with a message substring
//   - diagnostic_count: exactly N diagnostics were reported, optionally of one kind
//   - binding: a parameter, local or global has the flattened name, state
//     or folded value given
//   - output_contains / output_excludes: the printed transformed unit
//     contains or lacks a text
//   - order: the always-inline expansion order is exactly the list given
//   - splices: exactly N call sites were expanded
//
// # Deterministic Testing
//
// Analysis output does not depend on the worker count, so scenarios run
// with the worker count they declare (default 1) and snapshots are
// byte-identical across runs. When a store is supplied the run is recorded
// in it; tests use testutil.SequentialIDs for predictable run IDs.
//
// # Suites
//
// FindScenarios collects the scenario files of a directory and RunSuite
// runs them. A scenario with a golden file at golden/<name>.golden next to
// it must also reproduce that snapshot; SuiteOptions.Update rewrites the
// golden files instead of comparing them.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/shadow.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(ctx, scenario, harness.Options{})
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness

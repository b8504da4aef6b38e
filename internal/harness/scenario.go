package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/framesynth/internal/engine"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is the CUE file or directory to analyze.
	// Relative paths are resolved against the scenario file's directory.
	Program string `yaml:"program"`

	// Disambiguator selects nested marker naming: "sequence" (default) or
	// "hash".
	Disambiguator string `yaml:"disambiguator,omitempty"`

	// TokenPackage overrides the package of pass-allocated root tokens.
	TokenPackage string `yaml:"token_package,omitempty"`

	// Assertions validate the pass outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of the pass outcome.
type Assertion struct {
	// Type specifies the assertion type:
	// - "status": Call outcome status (and optionally its skip reason)
	// - "members": Property names reachable at path from a call's marker
	// - "resolve": Element and container type of the property at path
	// - "scopes": Number of associated scopes of a call's root marker
	// - "diagnostic": A diagnostic was reported for a call
	// - "diagnostic_count": Total number of diagnostics
	// - "recorded_scopes": Number of scope rows in the trace store
	Type string `yaml:"type"`

	// Call is the call ID (all types except diagnostic_count and
	// recorded_scopes).
	Call string `yaml:"call,omitempty"`

	// Status is the expected call status (status).
	Status string `yaml:"status,omitempty"`

	// Reason is the expected skip reason (status, optional).
	Reason string `yaml:"reason,omitempty"`

	// Path is the member access chain below the call's marker (members,
	// resolve). An empty path lists the marker's own members.
	Path []string `yaml:"path,omitempty"`

	// Names is the expected ordered property list (members).
	Names []string `yaml:"names,omitempty"`

	// Element and Container are the expected property types (resolve).
	Element   string `yaml:"element,omitempty"`
	Container string `yaml:"container,omitempty"`

	// Code is the expected diagnostic code (diagnostic).
	Code string `yaml:"code,omitempty"`

	// Contains is a substring of the expected diagnostic message
	// (diagnostic, optional).
	Contains string `yaml:"contains,omitempty"`

	// Count is the expected number (scopes, diagnostic_count,
	// recorded_scopes).
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertStatus          = "status"
	AssertMembers         = "members"
	AssertResolve         = "resolve"
	AssertScopes          = "scopes"
	AssertDiagnostic      = "diagnostic"
	AssertDiagnosticCount = "diagnostic_count"
	AssertRecordedScopes  = "recorded_scopes"
)

// Disambiguator names accepted in scenarios.
const (
	DisambiguatorSequence = "sequence"
	DisambiguatorHash     = "hash"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// The program path is resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Program != "" && !filepath.IsAbs(scenario.Program) {
		scenario.Program = filepath.Join(filepath.Dir(path), scenario.Program)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
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
	if s.Program == "" {
		return fmt.Errorf("program is required")
	}
	if _, err := os.Stat(s.Program); os.IsNotExist(err) {
		return fmt.Errorf("program not found: %s", s.Program)
	}
	switch s.Disambiguator {
	case "", DisambiguatorSequence, DisambiguatorHash:
	default:
		return fmt.Errorf("unknown disambiguator %q", s.Disambiguator)
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
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

	needsCall := func() error {
		if a.Call == "" {
			return fmt.Errorf("assertions[%d]: call is required for %s", index, a.Type)
		}
		return nil
	}
	needsCount := func() error {
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertStatus:
		if err := needsCall(); err != nil {
			return err
		}
		switch engine.CallStatus(a.Status) {
		case engine.StatusSynthesized, engine.StatusSkipped, engine.StatusFailed:
		default:
			return fmt.Errorf("assertions[%d]: unknown status %q", index, a.Status)
		}
	case AssertMembers:
		return needsCall()
	case AssertResolve:
		if err := needsCall(); err != nil {
			return err
		}
		if len(a.Path) == 0 {
			return fmt.Errorf("assertions[%d]: path is required for resolve", index)
		}
		if a.Element == "" && a.Container == "" {
			return fmt.Errorf("assertions[%d]: element or container is required for resolve", index)
		}
	case AssertScopes:
		if err := needsCall(); err != nil {
			return err
		}
		return needsCount()
	case AssertDiagnostic:
		if err := needsCall(); err != nil {
			return err
		}
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for diagnostic", index)
		}
	case AssertDiagnosticCount, AssertRecordedScopes:
		return needsCount()
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// DiscoverScenarios returns the scenario files directly inside dir, sorted
// by name.
func DiscoverScenarios(dir string) ([]string, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("scenario directory: %w", err)
		}
	}
	slices.Sort(paths)
	return paths, nil
}

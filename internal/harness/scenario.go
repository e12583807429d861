package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a fetch scenario: a schema, setup SQL and cases.
type Scenario struct {
	// Name uniquely identifies this scenario. Also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the directory of CUE entity definitions.
	// Relative paths are resolved against the scenario file location.
	Schema string `yaml:"schema"`

	// Setup lists SQL scripts applied in order to a fresh database.
	Setup []string `yaml:"setup"`

	// Cases are executed in order against the same database.
	Cases []Case `yaml:"cases"`
}

// Case is one request and its expected outcome.
type Case struct {
	Name    string       `yaml:"name"`
	Request RequestDoc   `yaml:"request"`
	Expect  ExpectClause `yaml:"expect"`
}

// ExpectClause specifies the expected outcome of a case.
type ExpectClause struct {
	// Rows are the expected hydrated root entities, in order.
	// A unique request expects zero or one row.
	Rows []any `yaml:"rows,omitempty"`

	// Total is the expected count of matching roots. Requires count: true.
	Total *int64 `yaml:"total,omitempty"`

	// Error is the expected error code (see ErrorCode). When set, rows and
	// total are not checked.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "case:" vs "cases:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the schema path relative to the scenario BEFORE validation
	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
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

	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if info, err := os.Stat(s.Schema); err != nil || !info.IsDir() {
		return fmt.Errorf("schema directory not found: %s", s.Schema)
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true

		if c.Request.Entity == "" {
			return fmt.Errorf("cases[%d]: request.entity is required", i)
		}
		if c.Expect.Error != "" && (c.Expect.Rows != nil || c.Expect.Total != nil) {
			return fmt.Errorf("cases[%d]: expect.error cannot be combined with rows or total", i)
		}
		if c.Expect.Error != "" && !validErrorCode(c.Expect.Error) {
			return fmt.Errorf("cases[%d]: unknown error code %q", i, c.Expect.Error)
		}
		if c.Expect.Total != nil && !c.Request.Count {
			return fmt.Errorf("cases[%d]: expect.total requires request.count", i)
		}
	}

	return nil
}

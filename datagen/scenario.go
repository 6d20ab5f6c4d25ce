package datagen

import "fmt"

// Scenario is a test intent tag. The tag values are fixed wire vocabulary
// and must not change.
type Scenario string

const (
	// ScenarioValid data must satisfy all known constraints.
	ScenarioValid Scenario = "valid"
	// ScenarioInvalid data must violate at least one known constraint, or be
	// the best-effort invalid shape when no constraint exists.
	ScenarioInvalid Scenario = "invalid"
	// ScenarioEdgeCase data is technically valid but atypical.
	ScenarioEdgeCase Scenario = "edge_case"
	// ScenarioBoundary data sits exactly at constraint limits.
	ScenarioBoundary Scenario = "boundary"
)

// AllScenarios returns every scenario in canonical order.
func AllScenarios() []Scenario {
	return []Scenario{ScenarioValid, ScenarioInvalid, ScenarioEdgeCase, ScenarioBoundary}
}

// Known reports whether s is a recognized scenario tag.
func (s Scenario) Known() bool {
	switch s {
	case ScenarioValid, ScenarioInvalid, ScenarioEdgeCase, ScenarioBoundary:
		return true
	}
	return false
}

// ParseScenario converts a wire tag to a Scenario.
func ParseScenario(s string) (Scenario, error) {
	sc := Scenario(s)
	if !sc.Known() {
		return "", fmt.Errorf("unknown scenario %q", s)
	}
	return sc, nil
}

// ParseScenarios converts a list of wire tags, rejecting duplicates.
func ParseScenarios(tags []string) ([]Scenario, error) {
	out := make([]Scenario, 0, len(tags))
	seen := make(map[Scenario]bool, len(tags))
	for _, tag := range tags {
		sc, err := ParseScenario(tag)
		if err != nil {
			return nil, err
		}
		if seen[sc] {
			return nil, fmt.Errorf("duplicate scenario %q", tag)
		}
		seen[sc] = true
		out = append(out, sc)
	}
	return out, nil
}

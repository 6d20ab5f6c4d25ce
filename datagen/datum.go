package datagen

import (
	"time"

	"formprobe/metadata"
)

// MethodPattern tags data produced by the built-in pattern rules.
const MethodPattern = "pattern"

// Datum is one synthesized test value. Data is immutable once created; the
// fill layer consumes it as-is. The value is always text, even for numeric,
// boolean, and date fields, which keeps the fill layer type-agnostic.
type Datum struct {
	FieldID   string             `json:"field_id"`
	Label     string             `json:"label"`
	FieldType metadata.FieldType `json:"type"`
	Scenario  Scenario           `json:"scenario"`
	Value     string             `json:"value"`
	// IsValid is the generator's own self-assessment, not verified against
	// the live page.
	IsValid     bool      `json:"is_valid"`
	Method      string    `json:"method"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Batch holds generated data grouped by scenario.
type Batch map[Scenario][]Datum

// Total returns the number of data items across all scenarios.
func (b Batch) Total() int {
	n := 0
	for _, items := range b {
		n += len(items)
	}
	return n
}

// Scenarios returns the non-empty scenarios of the batch in canonical order.
func (b Batch) Scenarios() []Scenario {
	out := make([]Scenario, 0, len(b))
	for _, sc := range AllScenarios() {
		if len(b[sc]) > 0 {
			out = append(out, sc)
		}
	}
	return out
}

// FirstForField returns the first datum generated for the given field under
// the given scenario. Execution applies one value per field per scenario.
func (b Batch) FirstForField(sc Scenario, fieldID string) (Datum, bool) {
	for _, d := range b[sc] {
		if d.FieldID == fieldID {
			return d, true
		}
	}
	return Datum{}, false
}

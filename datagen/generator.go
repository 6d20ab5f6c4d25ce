// Package datagen synthesizes scenario-conditioned test data for form
// fields.
//
// A Generator is an explicit dependency: construct one and pass it to
// whatever needs data. Dispatch is by semantic field type through a rule
// Registry, with one behavior per scenario.
//
// Example usage:
//
//	gen := datagen.New(logger, datagen.WithSeed(42))
//	batch := gen.Generate(fields, datagen.AllScenarios(), 3)
//	for sc, items := range batch {
//		...
//	}
package datagen

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"formprobe/metadata"
)

// maxDistinctAttempts bounds the redraws used to keep values within one
// field's batch distinct. Small value spaces (booleans, fixed catalogs) are
// allowed to repeat once the attempts are exhausted.
const maxDistinctAttempts = 4

// Generator produces scenario-conditioned data batches.
// Safe for concurrent use.
type Generator struct {
	registry *Registry
	logger   *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes generation deterministic for a given seed.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRegistry replaces the default rule registry.
func WithRegistry(r *Registry) Option {
	return func(g *Generator) {
		g.registry = r
	}
}

// New creates a Generator with the built-in rules.
func New(logger *slog.Logger, opts ...Option) *Generator {
	g := &Generator{
		registry: DefaultRegistry(),
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces countPerScenario values per field for every requested
// scenario. A field whose rule fails is logged and skipped for that
// scenario; the batch is never aborted.
func (g *Generator) Generate(fields []metadata.Field, scenarios []Scenario, countPerScenario int) Batch {
	if countPerScenario < 1 {
		countPerScenario = 1
	}

	batch := make(Batch, len(scenarios))
	for _, sc := range scenarios {
		items := make([]Datum, 0, len(fields)*countPerScenario)
		for i := range fields {
			data, err := g.fieldData(fields[i], sc, countPerScenario)
			if err != nil {
				g.logger.Error("generating data for field",
					"field_id", fields[i].ID,
					"scenario", sc,
					"error", err,
				)
				continue
			}
			items = append(items, data...)
		}
		batch[sc] = items
	}
	return batch
}

// FieldData produces count values for a single field under one scenario.
func (g *Generator) FieldData(field metadata.Field, sc Scenario, count int) ([]Datum, error) {
	if count < 1 {
		count = 1
	}
	return g.fieldData(field, sc, count)
}

func (g *Generator) fieldData(field metadata.Field, sc Scenario, count int) ([]Datum, error) {
	rule, ok := g.registry.Rule(field.Type)
	if !ok {
		// Unknown types fall back to the generic text rule, mirroring how
		// the extractor treats unclassified controls.
		g.logger.Warn("no rule for field type, using text rule",
			"field_id", field.ID,
			"type", field.Type,
		)
		rule = RuleFunc(textRule)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Datum, 0, count)
	seen := make(map[string]bool, count)
	for i := 0; i < count; i++ {
		value, err := rule.Generate(g.rng, field, sc)
		if err != nil {
			return nil, err
		}
		for attempt := 0; seen[value] && attempt < maxDistinctAttempts; attempt++ {
			value, err = rule.Generate(g.rng, field, sc)
			if err != nil {
				return nil, err
			}
		}
		seen[value] = true

		out = append(out, Datum{
			FieldID:     field.ID,
			Label:       field.Label,
			FieldType:   field.Type,
			Scenario:    sc,
			Value:       value,
			IsValid:     sc == ScenarioValid,
			Method:      MethodPattern,
			GeneratedAt: time.Now().UTC(),
		})
	}
	return out, nil
}

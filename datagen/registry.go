package datagen

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"formprobe/metadata"
)

// Rule produces one value for a field under a scenario. Implementations must
// be stateless; the random source is supplied per call.
type Rule interface {
	Generate(rng *rand.Rand, field metadata.Field, scenario Scenario) (string, error)
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc func(rng *rand.Rand, field metadata.Field, scenario Scenario) (string, error)

// Generate implements Rule.
func (f RuleFunc) Generate(rng *rand.Rand, field metadata.Field, scenario Scenario) (string, error) {
	return f(rng, field, scenario)
}

// Registry maps semantic field types to generation rules. Adding a field
// type means registering a rule; dispatch sites stay untouched.
type Registry struct {
	mu    sync.RWMutex
	rules map[metadata.FieldType]Rule
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[metadata.FieldType]Rule),
	}
}

// Register adds a rule for a field type. Registering the same type twice or
// a nil rule is an error.
func (r *Registry) Register(t metadata.FieldType, rule Rule) error {
	if rule == nil {
		return fmt.Errorf("rule for %q is nil", t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[t]; exists {
		return fmt.Errorf("rule for %q already registered", t)
	}
	r.rules[t] = rule
	return nil
}

// MustRegister is like Register but panics on error. Intended for
// package-level default wiring.
func (r *Registry) MustRegister(t metadata.FieldType, rule Rule) {
	if err := r.Register(t, rule); err != nil {
		panic(err)
	}
}

// Rule returns the rule registered for a field type.
func (r *Registry) Rule(t metadata.FieldType) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[t]
	return rule, ok
}

// Types returns the registered field types in sorted order.
func (r *Registry) Types() []metadata.FieldType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]metadata.FieldType, 0, len(r.rules))
	for t := range r.rules {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DefaultRegistry returns a registry with the built-in pattern rules for all
// known field types. Hidden fields share the context-sensitive text rule.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(metadata.FieldText, RuleFunc(textRule))
	r.MustRegister(metadata.FieldPassword, RuleFunc(passwordRule))
	r.MustRegister(metadata.FieldEmail, RuleFunc(emailRule))
	r.MustRegister(metadata.FieldNumber, RuleFunc(numberRule))
	r.MustRegister(metadata.FieldCheckbox, RuleFunc(checkboxRule))
	r.MustRegister(metadata.FieldRadio, RuleFunc(choiceRule))
	r.MustRegister(metadata.FieldSelect, RuleFunc(choiceRule))
	r.MustRegister(metadata.FieldTextarea, RuleFunc(textareaRule))
	r.MustRegister(metadata.FieldDate, RuleFunc(dateRule))
	r.MustRegister(metadata.FieldTime, RuleFunc(timeRule))
	r.MustRegister(metadata.FieldDatetime, RuleFunc(datetimeRule))
	r.MustRegister(metadata.FieldURL, RuleFunc(urlRule))
	r.MustRegister(metadata.FieldPhone, RuleFunc(phoneRule))
	r.MustRegister(metadata.FieldFile, RuleFunc(fileRule))
	r.MustRegister(metadata.FieldHidden, RuleFunc(textRule))
	return r
}

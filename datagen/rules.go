package datagen

import (
	"fmt"
	"math/rand"
	"slices"
	"strconv"
	"strings"
	"time"

	"formprobe/metadata"
)

const (
	defaultPasswordMin = 8
	defaultPasswordMax = 20
	defaultNumberMin   = 0
	defaultNumberMax   = 1000
)

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

// randomInt returns a random integer in [lo, hi].
func randomInt(rng *rand.Rand, lo, hi int) (int, error) {
	if hi < lo {
		return 0, fmt.Errorf("empty range [%d, %d]", lo, hi)
	}
	return lo + rng.Intn(hi-lo+1), nil
}

func emailRule(rng *rand.Rand, _ metadata.Field, sc Scenario) (string, error) {
	switch sc {
	case ScenarioValid:
		first := strings.ToLower(pick(rng, firstNames))
		last := strings.ToLower(pick(rng, lastNames))
		return first + "." + last + "@" + pick(rng, emailDomains), nil
	case ScenarioInvalid:
		return pick(rng, invalidEmails), nil
	case ScenarioEdgeCase:
		return pick(rng, edgeEmails), nil
	default: // boundary
		return strings.Repeat("x", 50) + "@" + strings.Repeat("y", 50) + ".com", nil
	}
}

// passwordLengthBounds extracts min/max length from the field's constraints,
// falling back to the 8/20 defaults when absent or zero.
func passwordLengthBounds(f metadata.Field) (int, int) {
	min, max := defaultPasswordMin, defaultPasswordMax
	if v := f.Validation; v != nil {
		if v.MinLength != nil && *v.MinLength != 0 {
			min = *v.MinLength
		}
		if v.MaxLength != nil && *v.MaxLength != 0 {
			max = *v.MaxLength
		}
	}
	return min, max
}

func passwordRule(rng *rand.Rand, f metadata.Field, sc Scenario) (string, error) {
	min, max := passwordLengthBounds(f)

	switch sc {
	case ScenarioValid:
		length, err := randomInt(rng, min, max)
		if err != nil {
			return "", fmt.Errorf("password constraints: %w", err)
		}
		var b strings.Builder
		b.Grow(length)
		for i := 0; i < length; i++ {
			b.WriteByte(passwordAlphabet[rng.Intn(len(passwordAlphabet))])
		}
		pw := b.String()
		// Force upper/digit/symbol/lower presence without changing length.
		if length >= 4 {
			pw = pw[:length-4] + "A1!a"
		}
		return pw, nil
	case ScenarioInvalid:
		if min > 1 {
			return strings.Repeat("x", min-1), nil
		}
		return "", nil
	case ScenarioEdgeCase:
		return strings.Repeat("x", min), nil
	default: // boundary
		return strings.Repeat("x", max), nil
	}
}

func phoneRule(rng *rand.Rand, _ metadata.Field, sc Scenario) (string, error) {
	switch sc {
	case ScenarioValid:
		return pick(rng, validPhones), nil
	case ScenarioInvalid:
		return pick(rng, invalidPhones), nil
	default:
		return "+1 (555) 123-4567", nil
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// textRule is context-sensitive: the field's label and identifier are
// scanned for keywords and matched to a corpus. Corpus-backed branches
// ignore the scenario except for name fields, where INVALID yields a
// numeric token. Branch order matters: "name" wins over "last"/"surname".
func textRule(rng *rand.Rand, f metadata.Field, sc Scenario) (string, error) {
	ctx := strings.ToLower(f.Label + " " + f.ID)

	switch {
	case containsAny(ctx, "name", "first", "given"):
		return nameValue(rng, firstNames, sc), nil
	case containsAny(ctx, "last", "family", "surname"):
		return nameValue(rng, lastNames, sc), nil
	case containsAny(ctx, "city", "town"):
		return pick(rng, cities), nil
	case containsAny(ctx, "state", "province"):
		return pick(rng, states), nil
	case containsAny(ctx, "address", "street"):
		num, _ := randomInt(rng, 100, 9999)
		return fmt.Sprintf("%d %s St", num, pick(rng, streetNames)), nil
	case containsAny(ctx, "zip", "postal"):
		num, _ := randomInt(rng, 10000, 99999)
		return strconv.Itoa(num), nil
	case containsAny(ctx, "company", "organization"):
		return pick(rng, companies), nil
	}

	switch sc {
	case ScenarioValid:
		num, _ := randomInt(rng, 1, 1000)
		return fmt.Sprintf("Sample text %d", num), nil
	case ScenarioInvalid:
		return "", nil
	default:
		return strings.Repeat("A", 100), nil
	}
}

func nameValue(rng *rand.Rand, names []string, sc Scenario) string {
	if sc == ScenarioInvalid {
		return "123"
	}
	return pick(rng, names)
}

// numberBounds extracts min/max from the field's constraints, falling back
// to the 0/1000 defaults when absent or zero.
func numberBounds(f metadata.Field) (float64, float64) {
	min, max := float64(defaultNumberMin), float64(defaultNumberMax)
	if v := f.Validation; v != nil {
		if v.MinValue != nil && *v.MinValue != 0 {
			min = *v.MinValue
		}
		if v.MaxValue != nil && *v.MaxValue != 0 {
			max = *v.MaxValue
		}
	}
	return min, max
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func numberRule(rng *rand.Rand, f metadata.Field, sc Scenario) (string, error) {
	min, max := numberBounds(f)

	switch sc {
	case ScenarioValid:
		n, err := randomInt(rng, int(min), int(max))
		if err != nil {
			return "", fmt.Errorf("number constraints: %w", err)
		}
		return strconv.Itoa(n), nil
	case ScenarioInvalid:
		return "not_a_number", nil
	case ScenarioEdgeCase:
		return formatNumber(min), nil
	default: // boundary
		return formatNumber(max), nil
	}
}

func dateRule(rng *rand.Rand, _ metadata.Field, sc Scenario) (string, error) {
	switch sc {
	case ScenarioValid:
		days, _ := randomInt(rng, -365, 365)
		return time.Now().AddDate(0, 0, days).Format("2006-01-02"), nil
	case ScenarioInvalid:
		return "2023-13-45", nil
	default:
		return "1900-01-01", nil
	}
}

func timeRule(rng *rand.Rand, _ metadata.Field, sc Scenario) (string, error) {
	switch sc {
	case ScenarioValid:
		return fmt.Sprintf("%02d:%02d", rng.Intn(24), rng.Intn(60)), nil
	case ScenarioInvalid:
		return "25:70", nil
	default:
		return "00:00", nil
	}
}

func datetimeRule(rng *rand.Rand, f metadata.Field, sc Scenario) (string, error) {
	date, err := dateRule(rng, f, sc)
	if err != nil {
		return "", err
	}
	clock, err := timeRule(rng, f, sc)
	if err != nil {
		return "", err
	}
	return date + "T" + clock, nil
}

func urlRule(rng *rand.Rand, _ metadata.Field, sc Scenario) (string, error) {
	switch sc {
	case ScenarioValid:
		return "https://www." + pick(rng, urlDomains) + "/page", nil
	case ScenarioInvalid:
		return "not-a-url", nil
	default:
		return "https://example.com", nil
	}
}

// checkboxRule ignores the scenario and returns a random boolean token.
func checkboxRule(rng *rand.Rand, _ metadata.Field, _ Scenario) (string, error) {
	if rng.Intn(2) == 0 {
		return "true", nil
	}
	return "false", nil
}

// choiceRule serves radio and select fields. INVALID values are guaranteed
// absent from the declared option set; an empty option set falls back to the
// "option1" placeholder.
func choiceRule(rng *rand.Rand, f metadata.Field, sc Scenario) (string, error) {
	switch {
	case sc == ScenarioValid && len(f.Options) > 0:
		return pick(rng, f.Options), nil
	case sc == ScenarioInvalid:
		token := "invalid_option"
		for slices.Contains(f.Options, token) {
			token += "_x"
		}
		return token, nil
	case len(f.Options) > 0:
		return f.Options[0], nil
	default:
		return "option1", nil
	}
}

func textareaRule(_ *rand.Rand, _ metadata.Field, sc Scenario) (string, error) {
	switch sc {
	case ScenarioValid:
		return "This is a sample textarea content with multiple lines.\nIt contains realistic text for testing purposes.", nil
	case ScenarioInvalid:
		return "", nil
	default:
		return strings.Repeat("A", 500), nil
	}
}

func fileRule(rng *rand.Rand, _ metadata.Field, sc Scenario) (string, error) {
	switch sc {
	case ScenarioValid:
		return "sample_file" + pick(rng, fileExtensions), nil
	case ScenarioInvalid:
		return "file_without_extension", nil
	default:
		return "test.txt", nil
	}
}

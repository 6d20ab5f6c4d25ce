package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formprobe/browser"
	"formprobe/datagen"
	"formprobe/evidence"
	"formprobe/metadata"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePage scripts browser behavior without a browser binary.
type fakePage struct {
	failNavOn     int // 1-based navigation index to fail on, 0 never
	navCount      int
	unresolved    map[string]bool
	fillErrs      map[string]string
	screenshotErr error
	closed        bool
}

func (p *fakePage) Navigate(context.Context, string) error {
	p.navCount++
	if p.failNavOn != 0 && p.navCount == p.failNavOn {
		return errors.New("navigation timed out")
	}
	return nil
}

func (p *fakePage) Resolve(_ context.Context, field metadata.Field) (browser.Element, bool) {
	if p.unresolved[field.ID] {
		return browser.Element{Attempts: 3}, false
	}
	return browser.Element{NodeID: 1, MatchedBy: browser.StrategyXPath, Attempts: 1}, true
}

func (p *fakePage) Fill(_ context.Context, _ browser.Element, field metadata.Field, _ string) error {
	if msg, ok := p.fillErrs[field.ID]; ok {
		return errors.New(msg)
	}
	return nil
}

func (p *fakePage) Screenshot(context.Context) ([]byte, error) {
	if p.screenshotErr != nil {
		return nil, p.screenshotErr
	}
	return []byte("png bytes"), nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

func pageFactory(page Page) SessionFactory {
	return func(context.Context) (Page, error) { return page, nil }
}

func signupForm() *metadata.Document {
	return &metadata.Document{
		FormID:  "signup",
		PageURL: "https://example.com/signup",
		Fields: []metadata.Field{
			{ID: "email", Type: metadata.FieldEmail, Visible: true},
			{ID: "newsletter", Type: metadata.FieldCheckbox, Visible: true},
		},
	}
}

func signupBatch() datagen.Batch {
	return datagen.Batch{
		datagen.ScenarioValid: {
			{FieldID: "email", FieldType: "email", Scenario: datagen.ScenarioValid, Value: "jane.doe@example.com"},
			{FieldID: "newsletter", FieldType: "checkbox", Scenario: datagen.ScenarioValid, Value: "true"},
		},
		datagen.ScenarioInvalid: {
			{FieldID: "email", FieldType: "email", Scenario: datagen.ScenarioInvalid, Value: "not-an-email"},
		},
	}
}

func seedRun(t *testing.T, store *MemoryStore) *Run {
	t.Helper()
	require.NoError(t, store.CreateForm(signupForm()))
	run := NewRun("signup", "https://example.com/signup")
	run.Data = signupBatch()
	require.NoError(t, store.CreateRun(run))
	return run
}

func TestExecutor_Execute_Completed(t *testing.T) {
	store := NewMemoryStore()
	run := seedRun(t, store)
	page := &fakePage{}
	exec := NewExecutor(testLogger(), store, store, pageFactory(page), WithFieldPause(0))

	require.NoError(t, exec.Execute(context.Background(), run.ID))

	got, err := store.Run(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.CompletedAt)
	assert.Empty(t, got.Error)

	// Two fields in the valid scenario, one in the invalid scenario.
	require.Len(t, got.Results, 3)
	require.NotNil(t, got.Summary)
	assert.Equal(t, 3, got.Summary.Total)
	assert.Equal(t, got.Summary.Total, got.Summary.Passed+got.Summary.Failed)
	assert.Equal(t, 3, got.Summary.Passed)

	assert.True(t, page.closed)
	// One navigation per scenario.
	assert.Equal(t, 2, page.navCount)
}

func TestExecutor_Execute_FieldFailuresAreAbsorbed(t *testing.T) {
	store := NewMemoryStore()
	run := seedRun(t, store)
	page := &fakePage{unresolved: map[string]bool{"newsletter": true}}
	exec := NewExecutor(testLogger(), store, store, pageFactory(page), WithFieldPause(0))

	require.NoError(t, exec.Execute(context.Background(), run.ID))

	got, err := store.Run(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	var failed *Result
	for i := range got.Results {
		if got.Results[i].FieldID == "newsletter" {
			failed = &got.Results[i]
		}
	}
	require.NotNil(t, failed)
	assert.False(t, failed.Success)
	assert.Equal(t, "element not found", failed.Error)
	assert.Equal(t, 1, got.Summary.Failed)
}

func TestExecutor_Execute_FillErrorRecorded(t *testing.T) {
	store := NewMemoryStore()
	run := seedRun(t, store)
	page := &fakePage{fillErrs: map[string]string{"email": "value not among options"}}
	exec := NewExecutor(testLogger(), store, store, pageFactory(page), WithFieldPause(0))

	require.NoError(t, exec.Execute(context.Background(), run.ID))

	got, err := store.Run(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 2, got.Summary.Failed)
	for _, res := range got.Results {
		if res.FieldID == "email" {
			assert.Equal(t, "value not among options", res.Error)
		}
	}
}

func TestExecutor_Execute_NavigationFailureFailsRun(t *testing.T) {
	store := NewMemoryStore()
	run := seedRun(t, store)
	// First scenario completes, second navigation blows up.
	page := &fakePage{failNavOn: 2}
	mgr, err := evidence.NewManager(t.TempDir(), testLogger())
	require.NoError(t, err)
	exec := NewExecutor(testLogger(), store, store, pageFactory(page),
		WithFieldPause(0), WithEvidenceManager(mgr))

	execErr := exec.Execute(context.Background(), run.ID)
	require.Error(t, execErr)

	got, err := store.Run(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Contains(t, got.Error, "navigation timed out")

	// Partial results from the first scenario plus the synthetic failure.
	require.Len(t, got.Results, 3)
	last := got.Results[len(got.Results)-1]
	assert.Equal(t, ErrFieldRunError, last.FieldID)
	assert.False(t, last.Success)

	// Evidence from the first scenario and the error capture are retained.
	recs, err := store.EvidenceByRun(run.ID)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	kinds := []evidence.Kind{recs[0].Kind, recs[1].Kind, recs[2].Kind}
	assert.Equal(t, []evidence.Kind{evidence.KindBefore, evidence.KindAfter, evidence.KindError}, kinds)
}

func TestExecutor_Execute_SessionFailureFailsRun(t *testing.T) {
	store := NewMemoryStore()
	run := seedRun(t, store)
	factory := func(context.Context) (Page, error) {
		return nil, errors.New("chrome not found")
	}
	exec := NewExecutor(testLogger(), store, store, factory, WithFieldPause(0))

	require.Error(t, exec.Execute(context.Background(), run.ID))

	got, err := store.Run(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Contains(t, got.Error, "chrome not found")
}

func TestExecutor_Execute_RunNotFound(t *testing.T) {
	store := NewMemoryStore()
	exec := NewExecutor(testLogger(), store, store, pageFactory(&fakePage{}), WithFieldPause(0))

	err := exec.Execute(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestExecutor_Execute_GeneratesBatchWhenAbsent(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.CreateForm(signupForm()))
	run := NewRun("signup", "")
	require.NoError(t, store.CreateRun(run))
	page := &fakePage{}
	exec := NewExecutor(testLogger(), store, store, pageFactory(page),
		WithFieldPause(0),
		WithDefaultScenarios([]datagen.Scenario{datagen.ScenarioValid, datagen.ScenarioBoundary}, 1))

	require.NoError(t, exec.Execute(context.Background(), run.ID))

	got, err := store.Run(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	// Two fields across two generated scenarios.
	assert.Equal(t, 4, got.Data.Total())
	assert.Len(t, got.Results, 4)
	// Target URL falls back to the form's page URL.
	assert.Equal(t, "https://example.com/signup", got.TargetURL)
}

func TestExecutor_Execute_EvidencePerScenario(t *testing.T) {
	store := NewMemoryStore()
	run := seedRun(t, store)
	mgr, err := evidence.NewManager(t.TempDir(), testLogger())
	require.NoError(t, err)
	exec := NewExecutor(testLogger(), store, store, pageFactory(&fakePage{}),
		WithFieldPause(0), WithEvidenceManager(mgr))

	require.NoError(t, exec.Execute(context.Background(), run.ID))

	recs, err := store.EvidenceByRun(run.ID)
	require.NoError(t, err)
	// before and after for each of the two scenarios.
	require.Len(t, recs, 4)
	assert.Equal(t, evidence.KindBefore, recs[0].Kind)
	assert.Equal(t, evidence.KindAfter, recs[1].Kind)
	assert.Equal(t, evidence.KindBefore, recs[2].Kind)
	assert.Equal(t, evidence.KindAfter, recs[3].Kind)
}

func TestExecutor_Execute_CaptureFailureDoesNotBlockRun(t *testing.T) {
	store := NewMemoryStore()
	run := seedRun(t, store)
	mgr, err := evidence.NewManager(t.TempDir(), testLogger())
	require.NoError(t, err)
	page := &fakePage{screenshotErr: errors.New("render crashed")}
	exec := NewExecutor(testLogger(), store, store, pageFactory(page),
		WithFieldPause(0), WithEvidenceManager(mgr))

	require.NoError(t, exec.Execute(context.Background(), run.ID))

	got, err := store.Run(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	recs, err := store.EvidenceByRun(run.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestExecutor_Execute_ProgressCallback(t *testing.T) {
	store := NewMemoryStore()
	run := seedRun(t, store)
	var seen []string
	exec := NewExecutor(testLogger(), store, store, pageFactory(&fakePage{}),
		WithFieldPause(0),
		WithProgress(func(sc datagen.Scenario, field metadata.Field, res Result) {
			seen = append(seen, string(sc)+"/"+field.ID)
		}))

	require.NoError(t, exec.Execute(context.Background(), run.ID))

	assert.Equal(t, []string{"valid/email", "valid/newsletter", "invalid/email"}, seen)
}

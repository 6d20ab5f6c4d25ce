package server

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formprobe/datagen"
	"formprobe/metadata"
	"formprobe/runner"
)

func writeTestConfig(t *testing.T, queueCapacity int) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
server:
  listen_addr: "127.0.0.1:0"
generator:
  seed: 42
queue:
  workers: 1
  capacity: %d
evidence:
  dir: %q
logging:
  level: error
  output: stderr
`, queueCapacity, filepath.Join(dir, "evidence"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestServer(t *testing.T, queueCapacity int) *Server {
	t.Helper()

	s, err := New(writeTestConfig(t, queueCapacity))
	require.NoError(t, err)
	return s
}

func registerSignupForm(t *testing.T, s *Server) {
	t.Helper()

	require.NoError(t, s.forms.CreateForm(&metadata.Document{
		FormID:  "signup",
		PageURL: "https://example.com/signup",
		Fields: []metadata.Field{
			{ID: "email", Label: "Email", Type: metadata.FieldEmail, CSSSelector: "#email", Visible: true},
		},
	}))
}

func TestNew(t *testing.T) {
	s := newTestServer(t, 4)

	assert.Equal(t, "127.0.0.1:0", s.addr)
	assert.Equal(t, int64(42), s.Config().Generator.Seed)
	assert.Equal(t, 1, s.Workers())
	assert.Zero(t, s.QueueDepth())
	assert.NotNil(t, s.NextSweep())
}

func TestNew_MissingConfig(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestServer_SubmitRun(t *testing.T) {
	s := newTestServer(t, 4)
	registerSignupForm(t, s)

	run, err := s.SubmitRun("signup", "", nil, 0)
	require.NoError(t, err)

	assert.Equal(t, runner.StatusPending, run.Status)
	assert.Equal(t, "https://example.com/signup", run.TargetURL)
	// Defaults: four scenarios, three values each, one field.
	assert.Len(t, run.Data, 4)
	assert.Equal(t, 12, run.Data.Total())
	assert.Equal(t, 1, s.QueueDepth())

	stored, err := s.store.Run(run.ID)
	require.NoError(t, err)
	assert.Equal(t, runner.StatusPending, stored.Status)
}

func TestServer_SubmitRun_ScenarioSubset(t *testing.T) {
	s := newTestServer(t, 4)
	registerSignupForm(t, s)

	run, err := s.SubmitRun("signup", "https://staging.example.com/signup", []datagen.Scenario{datagen.ScenarioValid}, 2)
	require.NoError(t, err)

	assert.Equal(t, "https://staging.example.com/signup", run.TargetURL)
	assert.Len(t, run.Data, 1)
	assert.Len(t, run.Data[datagen.ScenarioValid], 2)
}

func TestServer_SubmitRun_FormNotFound(t *testing.T) {
	s := newTestServer(t, 4)

	_, err := s.SubmitRun("ghost", "", nil, 0)
	assert.ErrorIs(t, err, runner.ErrFormNotFound)
}

func TestServer_SubmitRun_NoTargetURL(t *testing.T) {
	s := newTestServer(t, 4)
	require.NoError(t, s.forms.CreateForm(&metadata.Document{
		FormID: "bare",
		Fields: []metadata.Field{
			{ID: "email", Type: metadata.FieldEmail, CSSSelector: "#email", Visible: true},
		},
	}))

	_, err := s.SubmitRun("bare", "", nil, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page_url")
}

func TestServer_SubmitRun_QueueFull(t *testing.T) {
	s := newTestServer(t, 2)
	registerSignupForm(t, s)

	// Workers are not started, so submissions stay queued.
	_, err := s.SubmitRun("signup", "", nil, 0)
	require.NoError(t, err)
	_, err = s.SubmitRun("signup", "", nil, 0)
	require.NoError(t, err)

	run, err := s.SubmitRun("signup", "", nil, 0)
	assert.ErrorIs(t, err, runner.ErrQueueFull)
	assert.Nil(t, run)

	// The rejected run is kept as a failed record.
	runs, err := s.store.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 3)

	counts, err := s.RunCounts()
	require.NoError(t, err)
	assert.Equal(t, 2, counts[runner.StatusPending])
	assert.Equal(t, 1, counts[runner.StatusFailed])
}

func TestServer_DeleteRun_Pending(t *testing.T) {
	s := newTestServer(t, 4)
	registerSignupForm(t, s)

	run, err := s.SubmitRun("signup", "", nil, 0)
	require.NoError(t, err)

	err = s.DeleteRun(run.ID)
	assert.ErrorIs(t, err, runner.ErrRunActive)
}

func TestServer_DeleteRun_NotFound(t *testing.T) {
	s := newTestServer(t, 4)

	err := s.DeleteRun("ghost")
	assert.ErrorIs(t, err, runner.ErrRunNotFound)
}

func TestServer_Reload(t *testing.T) {
	path := writeTestConfig(t, 4)
	s, err := New(path)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Config().Generator.CountPerScenario)

	content := `
generator:
  count_per_scenario: 7
logging:
  level: error
  output: stderr
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, s.Reload())

	assert.Equal(t, 7, s.Config().Generator.CountPerScenario)
}

func TestServer_Reload_InvalidConfig(t *testing.T) {
	path := writeTestConfig(t, 4)
	s, err := New(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: sqlite\n"), 0o644))

	assert.Error(t, s.Reload())
	// The previous configuration stays live.
	assert.Equal(t, 4, s.Config().Queue.Capacity)
}

func TestServer_Properties(t *testing.T) {
	s := newTestServer(t, 4)

	props := s.Properties()
	assert.False(t, props.StartedAt.IsZero())
	assert.Equal(t, "unknown", props.Build.GitCommit)
}

func TestServer_FieldTypes(t *testing.T) {
	s := newTestServer(t, 4)

	types := s.FieldTypes()
	assert.Contains(t, types, metadata.FieldEmail)
	assert.Contains(t, types, metadata.FieldCheckbox)
}

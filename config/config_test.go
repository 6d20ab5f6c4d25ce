package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"formprobe/datagen"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing listen address",
			mutate:  func(c *Config) { c.Server.ListenAddr = "" },
			wantErr: true,
		},
		{
			name:    "negative nav timeout",
			mutate:  func(c *Config) { c.Browser.NavTimeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "unknown scenario",
			mutate:  func(c *Config) { c.Generator.Scenarios = []string{"chaotic"} },
			wantErr: true,
		},
		{
			name:    "duplicate scenario",
			mutate:  func(c *Config) { c.Generator.Scenarios = []string{"valid", "valid"} },
			wantErr: true,
		},
		{
			name:    "negative count per scenario",
			mutate:  func(c *Config) { c.Generator.CountPerScenario = -1 },
			wantErr: true,
		},
		{
			name:    "negative workers",
			mutate:  func(c *Config) { c.Queue.Workers = -1 },
			wantErr: true,
		},
		{
			name:    "negative queue capacity",
			mutate:  func(c *Config) { c.Queue.Capacity = -1 },
			wantErr: true,
		},
		{
			name:    "unknown storage driver",
			mutate:  func(c *Config) { c.Storage.Driver = "sqlite" },
			wantErr: true,
		},
		{
			name:    "negative retention",
			mutate:  func(c *Config) { c.Evidence.Retention = -time.Hour },
			wantErr: true,
		},
		{
			name:    "malformed sweep schedule",
			mutate:  func(c *Config) { c.Evidence.SweepSchedule = "every day at noon" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{}
			cfg.SetDefaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr default = %v, want %v", cfg.Server.ListenAddr, ":8080")
	}
	if cfg.Browser.Headless == nil || !*cfg.Browser.Headless {
		t.Errorf("Headless default = %v, want true", cfg.Browser.Headless)
	}
	if cfg.Browser.NavTimeout != 30*time.Second {
		t.Errorf("NavTimeout default = %v, want %v", cfg.Browser.NavTimeout, 30*time.Second)
	}
	if cfg.Browser.FieldPause != 500*time.Millisecond {
		t.Errorf("FieldPause default = %v, want %v", cfg.Browser.FieldPause, 500*time.Millisecond)
	}
	if cfg.Generator.CountPerScenario != 3 {
		t.Errorf("CountPerScenario default = %v, want %v", cfg.Generator.CountPerScenario, 3)
	}
	if cfg.Queue.Workers != 2 {
		t.Errorf("Workers default = %v, want %v", cfg.Queue.Workers, 2)
	}
	if cfg.Queue.Capacity != 32 {
		t.Errorf("Capacity default = %v, want %v", cfg.Queue.Capacity, 32)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("Driver default = %v, want %v", cfg.Storage.Driver, DriverMemory)
	}
	if cfg.Evidence.Retention != 14*24*time.Hour {
		t.Errorf("Retention default = %v, want %v", cfg.Evidence.Retention, 14*24*time.Hour)
	}
	if cfg.Monitoring.JobName != "formprobe" {
		t.Errorf("JobName default = %v, want %v", cfg.Monitoring.JobName, "formprobe")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format default = %v, want %v", cfg.Logging.Format, "json")
	}
}

func TestConfig_SetDefaults_HeadlessExplicitFalse(t *testing.T) {
	headless := false
	cfg := Config{Browser: BrowserConfig{Headless: &headless}}
	cfg.SetDefaults()

	assert.NotNil(t, cfg.Browser.Headless)
	assert.False(t, *cfg.Browser.Headless)
	assert.False(t, cfg.Browser.SessionConfig().Headless)
}

func TestBrowserConfig_SessionConfig(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()

	sc := cfg.Browser.SessionConfig()
	assert.True(t, sc.Headless)
	assert.Equal(t, 5*time.Second, sc.LocateTimeout)
	assert.Equal(t, 30*time.Second, sc.NavTimeout)
	assert.Equal(t, 10*time.Second, sc.ActionTimeout)
	assert.Equal(t, 1280, sc.WindowWidth)
	assert.Equal(t, 720, sc.WindowHeight)
}

func TestGeneratorConfig_ScenarioList(t *testing.T) {
	empty := GeneratorConfig{}
	all, err := empty.ScenarioList()
	assert.NoError(t, err)
	assert.Equal(t, datagen.AllScenarios(), all)

	named := GeneratorConfig{Scenarios: []string{"boundary", "valid"}}
	list, err := named.ScenarioList()
	assert.NoError(t, err)
	assert.Equal(t, []datagen.Scenario{datagen.ScenarioBoundary, datagen.ScenarioValid}, list)

	bad := GeneratorConfig{Scenarios: []string{"fuzzy"}}
	_, err = bad.ScenarioList()
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "formprobe_config_test.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpfile.Name())

	content := `server:
  listen_addr: ":9090"
browser:
  headless: false
  nav_timeout: 45s
  field_pause: 250ms
generator:
  scenarios: [valid, invalid]
  count_per_scenario: 5
  seed: 42
queue:
  workers: 4
  capacity: 64
storage:
  driver: mysql
  dsn: "probe:secret@tcp(db:3306)/formprobe"
evidence:
  dir: /var/lib/formprobe/evidence
  retention: 72h
  sweep_schedule: "30 2 * * *"
monitoring:
  push_url: http://vm:8428/api/v1/write
logging:
  level: debug
`
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	tmpfile.Close()

	cfg, err := LoadConfig(tmpfile.Name())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %v, want %v", cfg.Server.ListenAddr, ":9090")
	}
	if cfg.Browser.Headless == nil || *cfg.Browser.Headless {
		t.Errorf("Headless = %v, want false", cfg.Browser.Headless)
	}
	if cfg.Browser.NavTimeout != 45*time.Second {
		t.Errorf("NavTimeout = %v, want %v", cfg.Browser.NavTimeout, 45*time.Second)
	}
	if cfg.Browser.LocateTimeout != 5*time.Second {
		t.Errorf("LocateTimeout = %v, want default %v", cfg.Browser.LocateTimeout, 5*time.Second)
	}
	if cfg.Browser.FieldPause != 250*time.Millisecond {
		t.Errorf("FieldPause = %v, want %v", cfg.Browser.FieldPause, 250*time.Millisecond)
	}
	if cfg.Generator.CountPerScenario != 5 {
		t.Errorf("CountPerScenario = %v, want %v", cfg.Generator.CountPerScenario, 5)
	}
	if cfg.Generator.Seed != 42 {
		t.Errorf("Seed = %v, want %v", cfg.Generator.Seed, 42)
	}
	if cfg.Queue.Workers != 4 {
		t.Errorf("Workers = %v, want %v", cfg.Queue.Workers, 4)
	}
	if cfg.Storage.Driver != DriverMySQL {
		t.Errorf("Driver = %v, want %v", cfg.Storage.Driver, DriverMySQL)
	}
	if cfg.Evidence.Retention != 72*time.Hour {
		t.Errorf("Retention = %v, want %v", cfg.Evidence.Retention, 72*time.Hour)
	}
	if cfg.Monitoring.PushURL != "http://vm:8428/api/v1/write" {
		t.Errorf("PushURL = %v, want %v", cfg.Monitoring.PushURL, "http://vm:8428/api/v1/write")
	}
	if cfg.Monitoring.MetricsPrefix != "formprobe" {
		t.Errorf("MetricsPrefix = %v, want default %v", cfg.Monitoring.MetricsPrefix, "formprobe")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %v, want %v", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format = %v, want default %v", cfg.Logging.Format, "json")
	}

	scenarios, err := cfg.Generator.ScenarioList()
	assert.NoError(t, err)
	assert.Equal(t, []datagen.Scenario{datagen.ScenarioValid, datagen.ScenarioInvalid}, scenarios)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "formprobe_config_test.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpfile.Name())

	content := `storage:
  driver: sqlite
`
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	tmpfile.Close()

	_, err = LoadConfig(tmpfile.Name())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "storage driver")
}

func clearDBEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DB_HOST", "DB_PORT", "DB_USERNAME", "DB_PASSWORD", "DB_DATABASE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestStorageConfig_ResolveDSN_Explicit(t *testing.T) {
	cfg := StorageConfig{DSN: "user:pw@tcp(example:3306)/db"}
	assert.Equal(t, "user:pw@tcp(example:3306)/db", cfg.ResolveDSN())
}

func TestStorageConfig_ResolveDSN_FromEnvironment(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_USERNAME", "probe")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_DATABASE", "forms")

	cfg := StorageConfig{}
	assert.Equal(t, "probe:secret@tcp(db.internal:3307)/forms", cfg.ResolveDSN())
}

func TestStorageConfig_ResolveDSN_Defaults(t *testing.T) {
	clearDBEnv(t)

	cfg := StorageConfig{}
	assert.Equal(t, "root:@tcp(127.0.0.1:3306)/formprobe", cfg.ResolveDSN())
}

func TestStorageConfig_ResolveDSN_EnvFile(t *testing.T) {
	clearDBEnv(t)

	tmpfile, err := os.CreateTemp("", "formprobe_test.env")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpfile.Name())

	content := "DB_HOST=filehost\nDB_USERNAME=fileuser\nDB_DATABASE=filedb\n"
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write temp env file: %v", err)
	}
	tmpfile.Close()

	cfg := StorageConfig{EnvFile: tmpfile.Name()}
	assert.Equal(t, "fileuser:@tcp(filehost:3306)/filedb", cfg.ResolveDSN())
}

func TestConfig_Redacted(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	cfg.Storage.DSN = "probe:secret@tcp(db:3306)/formprobe"

	redacted := cfg.Redacted()
	assert.Equal(t, "REDACTED", redacted.Storage.DSN)
	assert.Equal(t, "probe:secret@tcp(db:3306)/formprobe", cfg.Storage.DSN)
	assert.Equal(t, cfg.Server.ListenAddr, redacted.Server.ListenAddr)

	empty := Config{}
	empty.SetDefaults()
	assert.Equal(t, "", empty.Redacted().Storage.DSN)
}

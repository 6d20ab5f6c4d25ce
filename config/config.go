package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"formprobe/browser"
	"formprobe/datagen"
)

const (
	// Default server settings
	defaultListenAddr = ":8080"

	// Default browser settings
	defaultLocateTimeout = 5 * time.Second
	defaultNavTimeout    = 30 * time.Second
	defaultActionTimeout = 10 * time.Second
	defaultFieldPause    = 500 * time.Millisecond
	defaultWindowWidth   = 1280
	defaultWindowHeight  = 720

	// Default generator settings
	defaultCountPerScenario = 3

	// Default queue settings
	defaultWorkers       = 2
	defaultQueueCapacity = 32

	// Default storage settings
	defaultDriver     = DriverMemory
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = "3306"
	defaultDBUsername = "root"
	defaultDBName     = "formprobe"

	// Default evidence settings
	defaultEvidenceDir   = "evidence"
	defaultRetention     = 14 * 24 * time.Hour
	defaultSweepSchedule = "0 3 * * *" // daily at 03:00

	// Default monitoring settings
	defaultMetricsPrefix = "formprobe"
	defaultJobName       = "formprobe"

	// Default logging settings
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
	defaultLogOutput = "stdout"
)

// Storage driver names accepted in StorageConfig.Driver.
const (
	DriverMemory = "memory"
	DriverMySQL  = "mysql"
)

// redactedPlaceholder replaces credential-bearing values in Redacted output.
const redactedPlaceholder = "REDACTED"

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Browser    BrowserConfig    `yaml:"browser"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Queue      QueueConfig      `yaml:"queue"`
	Storage    StorageConfig    `yaml:"storage"`
	Evidence   EvidenceConfig   `yaml:"evidence"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// BrowserConfig holds browser session settings
type BrowserConfig struct {
	// Headless launches Chrome without a visible window. Absent means true;
	// set to false explicitly to watch runs locally.
	Headless *bool `yaml:"headless"`

	LocateTimeout time.Duration `yaml:"locate_timeout"`
	NavTimeout    time.Duration `yaml:"nav_timeout"`
	ActionTimeout time.Duration `yaml:"action_timeout"`

	// FieldPause is the settle time between individual field fills.
	FieldPause time.Duration `yaml:"field_pause"`

	WindowWidth  int    `yaml:"window_width"`
	WindowHeight int    `yaml:"window_height"`
	UserAgent    string `yaml:"user_agent"`
}

// SessionConfig resolves the section into the browser package's config.
func (c BrowserConfig) SessionConfig() browser.Config {
	return browser.Config{
		Headless:      c.Headless == nil || *c.Headless,
		LocateTimeout: c.LocateTimeout,
		NavTimeout:    c.NavTimeout,
		ActionTimeout: c.ActionTimeout,
		WindowWidth:   c.WindowWidth,
		WindowHeight:  c.WindowHeight,
		UserAgent:     c.UserAgent,
	}
}

// GeneratorConfig controls data generation for queued runs
type GeneratorConfig struct {
	// Scenarios are the scenario names exercised when a run request does not
	// name its own. Empty means all known scenarios.
	Scenarios []string `yaml:"scenarios"`

	// CountPerScenario is how many values to generate per field and scenario.
	CountPerScenario int `yaml:"count_per_scenario"`

	// Seed fixes the random source for reproducible batches. Zero seeds from
	// the clock.
	Seed int64 `yaml:"seed"`
}

// ScenarioList parses the configured scenario names.
func (c GeneratorConfig) ScenarioList() ([]datagen.Scenario, error) {
	if len(c.Scenarios) == 0 {
		return datagen.AllScenarios(), nil
	}
	return datagen.ParseScenarios(c.Scenarios)
}

// QueueConfig sizes the run worker pool
type QueueConfig struct {
	Workers  int `yaml:"workers"`
	Capacity int `yaml:"capacity"`
}

// StorageConfig selects and configures the run store
type StorageConfig struct {
	// Driver selects the store backend: "memory" or "mysql".
	Driver string `yaml:"driver"`

	// DSN is the MySQL data source name. When empty it is composed from the
	// DB_* environment variables.
	DSN string `yaml:"dsn"`

	// EnvFile is an optional dotenv file consulted before the environment.
	EnvFile string `yaml:"env_file"`
}

// ResolveDSN returns the configured DSN, composing one from DB_HOST, DB_PORT,
// DB_USERNAME, DB_PASSWORD and DB_DATABASE when the config file does not
// carry one. A missing env file is not an error; the process environment
// still applies.
func (c StorageConfig) ResolveDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.EnvFile != "" {
		_ = godotenv.Load(c.EnvFile)
	} else {
		_ = godotenv.Load()
	}
	user := envOr("DB_USERNAME", defaultDBUsername)
	pass := os.Getenv("DB_PASSWORD")
	host := envOr("DB_HOST", defaultDBHost)
	port := envOr("DB_PORT", defaultDBPort)
	name := envOr("DB_DATABASE", defaultDBName)
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", user, pass, host, port, name)
}

// EvidenceConfig controls screenshot storage and retention
type EvidenceConfig struct {
	// Dir is where screenshots are written.
	Dir string `yaml:"dir"`

	// Retention is how long evidence for finished runs is kept.
	Retention time.Duration `yaml:"retention"`

	// SweepSchedule is a cron expression for the retention sweep.
	SweepSchedule string `yaml:"sweep_schedule"`
}

// MonitoringConfig holds metrics and monitoring settings
type MonitoringConfig struct {
	// PushURL is a Prometheus remote write endpoint. Empty disables pushing;
	// the scrape endpoint stays available either way.
	PushURL       string `yaml:"push_url"`
	MetricsPrefix string `yaml:"metrics_prefix"`
	JobName       string `yaml:"jobname"`
	Instance      string `yaml:"instance"`
}

// LoggingConfig defines logging behavior settings
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	Output    string `yaml:"output"`
	AddSource bool   `yaml:"add_source"`
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}
	if c.Browser.LocateTimeout <= 0 {
		return fmt.Errorf("browser locate timeout must be positive")
	}
	if c.Browser.NavTimeout <= 0 {
		return fmt.Errorf("browser nav timeout must be positive")
	}
	if c.Browser.ActionTimeout <= 0 {
		return fmt.Errorf("browser action timeout must be positive")
	}
	if _, err := c.Generator.ScenarioList(); err != nil {
		return fmt.Errorf("generator scenarios: %w", err)
	}
	if c.Generator.CountPerScenario <= 0 {
		return fmt.Errorf("generator count per scenario must be positive")
	}
	if c.Queue.Workers <= 0 {
		return fmt.Errorf("queue workers must be positive")
	}
	if c.Queue.Capacity <= 0 {
		return fmt.Errorf("queue capacity must be positive")
	}
	if c.Storage.Driver != DriverMemory && c.Storage.Driver != DriverMySQL {
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Evidence.Retention <= 0 {
		return fmt.Errorf("evidence retention must be positive")
	}
	if _, err := cron.ParseStandard(c.Evidence.SweepSchedule); err != nil {
		return fmt.Errorf("evidence sweep schedule: %w", err)
	}
	return nil
}

// SetDefaults sets reasonable default values for optional fields
func (c *Config) SetDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaultListenAddr
	}
	if c.Browser.Headless == nil {
		headless := true
		c.Browser.Headless = &headless
	}
	if c.Browser.LocateTimeout == 0 {
		c.Browser.LocateTimeout = defaultLocateTimeout
	}
	if c.Browser.NavTimeout == 0 {
		c.Browser.NavTimeout = defaultNavTimeout
	}
	if c.Browser.ActionTimeout == 0 {
		c.Browser.ActionTimeout = defaultActionTimeout
	}
	if c.Browser.FieldPause == 0 {
		c.Browser.FieldPause = defaultFieldPause
	}
	if c.Browser.WindowWidth == 0 {
		c.Browser.WindowWidth = defaultWindowWidth
	}
	if c.Browser.WindowHeight == 0 {
		c.Browser.WindowHeight = defaultWindowHeight
	}
	if c.Generator.CountPerScenario == 0 {
		c.Generator.CountPerScenario = defaultCountPerScenario
	}
	if c.Queue.Workers == 0 {
		c.Queue.Workers = defaultWorkers
	}
	if c.Queue.Capacity == 0 {
		c.Queue.Capacity = defaultQueueCapacity
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = defaultDriver
	}
	if c.Evidence.Dir == "" {
		c.Evidence.Dir = defaultEvidenceDir
	}
	if c.Evidence.Retention == 0 {
		c.Evidence.Retention = defaultRetention
	}
	if c.Evidence.SweepSchedule == "" {
		c.Evidence.SweepSchedule = defaultSweepSchedule
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
	// Set logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = defaultLogOutput
	}
}

// Redacted returns a copy of the configuration safe for display, with
// credential-bearing values masked.
func (c Config) Redacted() Config {
	out := c
	if out.Storage.DSN != "" {
		out.Storage.DSN = redactedPlaceholder
	}
	return out
}

// LoadConfig reads the YAML config file at the given path and returns a Config struct
func LoadConfig(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultPath = "./config/config.toml"
	PathEnvVar  = "HOSPITAL_REPORT_CONFIG"
)

// Write modes of the archive store.
const (
	WriteModePerEntry = "per_entry"
	WriteModeBatch    = "batch"
)

var (
	Engines    = []string{"sqlserver", "postgres", "mysql", "sqlite"}
	WriteModes = []string{WriteModePerEntry, WriteModeBatch}
	logLevels  = []string{"debug", "info", "warn", "error"}
)

type Database struct {
	Engine   string `toml:"engine"`
	Host     string `toml:"host"`
	Port     uint16 `toml:"port"`
	Database string `toml:"database"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	// SSLMode maps to sslmode (postgres), encrypt (sqlserver) and tls (mysql).
	SSLMode string `toml:"sslmode"`
}

type ArchiveConfig struct {
	Path      string `toml:"path"`
	WriteMode string `toml:"write_mode"`
}

type ScheduleConfig struct {
	Cron string `toml:"cron"`
}

type LoggerConfigs struct {
	ConsoleLevel  string `toml:"console_level"`
	ConsoleOutput string `toml:"console_output"`
	FileLevel     string `toml:"file_level"`
	FileOutput    string `toml:"file_output"`
}

type Config struct {
	Locale     string         `toml:"locale"`
	MaxRetries uint8          `toml:"max_retries"`
	Timeout    uint16         `toml:"timeout"`
	Database   Database       `toml:"database"`
	Archive    ArchiveConfig  `toml:"archive"`
	Schedule   ScheduleConfig `toml:"schedule"`
	Logging    LoggerConfigs  `toml:"logger"`
}

// NewConfig returns a configuration holding the defaults every file
// setting falls back to.
func NewConfig() *Config {
	return &Config{
		Locale:     "auto",
		MaxRetries: 3,
		Timeout:    30,
		Database: Database{
			Engine: "sqlserver",
			Port:   1433,
		},
		Archive: ArchiveConfig{
			Path:      "./output/query_results.json",
			WriteMode: WriteModePerEntry,
		},
		Schedule: ScheduleConfig{Cron: "@daily"},
		Logging: LoggerConfigs{
			ConsoleLevel:  "info",
			ConsoleOutput: "stderr",
			FileLevel:     "debug",
		},
	}
}

// Path returns the configuration path from the environment, or the default.
func Path() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the .env file (if any) and the TOML configuration at path.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("Error loading .env file: %w", err)
	}

	conf := NewConfig()
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return nil, fmt.Errorf("Error loading config TOML: %w", err)
	}

	conf.Database.Password = getPasswordFromEnv(conf.Database.Password)
	conf.Database.Engine = strings.ToLower(conf.Database.Engine)
	conf.Archive.WriteMode = strings.ToLower(conf.Archive.WriteMode)

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

// QueryTimeout is the per-query deadline; zero disables it.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c *Config) Validate() error {
	if !slices.Contains(Engines, c.Database.Engine) {
		return fmt.Errorf("%q is not a supported engine %v", c.Database.Engine, Engines)
	}
	if c.Database.Engine != "sqlite" && c.Database.Host == "" {
		return fmt.Errorf("database host is required for engine %s", c.Database.Engine)
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Archive.Path == "" {
		return fmt.Errorf("archive path is required")
	}
	if !slices.Contains(WriteModes, c.Archive.WriteMode) {
		return fmt.Errorf("%q is not a valid write mode %v", c.Archive.WriteMode, WriteModes)
	}

	return c.validateLoggerConfig()
}

func (c *Config) validateLoggerConfig() error {
	consoleOutputs := []string{"stderr", "stdout"}

	if !slices.Contains(consoleOutputs, c.Logging.ConsoleOutput) {
		return fmt.Errorf("%s is not in valid console outputs %v", c.Logging.ConsoleOutput, consoleOutputs)
	}
	for _, level := range []string{c.Logging.ConsoleLevel, c.Logging.FileLevel} {
		if level != "" && !slices.Contains(logLevels, strings.ToLower(level)) {
			return fmt.Errorf("%s is not in valid log levels %v", level, logLevels)
		}
	}

	return nil
}

// Values of the form ${NAME} are read from the environment.
func getPasswordFromEnv(password string) string {
	if strings.HasPrefix(password, "${") && strings.HasSuffix(password, "}") {
		envVar := strings.TrimPrefix(strings.TrimSuffix(password, "}"), "${")
		return os.Getenv(envVar)
	}
	return password
}

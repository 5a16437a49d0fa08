// Package dbconf loads the database configuration record spec.md §6
// requires — driver choice, connection-pool bounds, optional log-level
// knobs — from a weldorm.toml/weldorm.yaml file, the way BeadsLog's
// internal/config locates and loads its own config.yaml through
// github.com/spf13/viper: walk up from the working directory looking for
// the file, falling back to the user config directory.
package dbconf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"weldorm/dialect"
)

// Driver is the closed set of supported database backends, spec.md §6's
// `SQLite{filename} | MySQL{name,host,port,user,password} |
// Postgres{name,host,port,user,password}` tagged variant, flattened into
// one struct since Go has no sum types.
type Driver struct {
	Type dialect.Type

	// Filename is used by SQLite only.
	Filename string

	// Name, Host, Port, User, Password are used by MySQL/Postgres only.
	Name     string
	Host     string
	Port     int
	User     string
	Password string
}

// DSN renders d into the data-source-name string database/sql.Open expects
// for d.Type's registered driver.
func (d Driver) DSN() (string, error) {
	switch d.Type {
	case dialect.SQLite:
		if d.Filename == "" {
			return "", fmt.Errorf("dbconf: sqlite driver requires a filename")
		}
		return d.Filename, nil
	case dialect.MySQL:
		if d.Name == "" {
			return "", fmt.Errorf("dbconf: mysql driver requires a database name")
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", d.User, d.Password, d.Host, d.Port, d.Name), nil
	case dialect.PostgreSQL:
		if d.Name == "" {
			return "", fmt.Errorf("dbconf: postgres driver requires a database name")
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", d.Host, d.Port, d.User, d.Password, d.Name), nil
	default:
		return "", fmt.Errorf("dbconf: unknown driver type %q", d.Type)
	}
}

// LogLevel names the logging verbosity knobs spec.md §6 leaves optional.
type LogLevel string

const (
	LogLevelOff   LogLevel = "off"
	LogLevelInfo  LogLevel = "info"
	LogLevelDebug LogLevel = "debug"
)

// Config is the database configuration record of spec.md §6.
type Config struct {
	Driver Driver

	MinConnections int
	MaxConnections int

	LogLevel     LogLevel
	SlowLogLevel LogLevel // level a statement crossing the 300ms threshold (§5) is logged at

	// LogFile is the rotating log file obslog.New sinks slog records to.
	LogFile string
}

// ConfigurationError tags spec.md §7's ConfigurationError category: invalid
// pool bounds, an empty database name, an invalid file name.
type ConfigurationError struct {
	msg string
}

func (e *ConfigurationError) Error() string { return e.msg }

func newConfigError(format string, args ...any) error {
	return &ConfigurationError{msg: fmt.Sprintf("dbconf: %s", fmt.Sprintf(format, args...))}
}

// Validate checks Config against spec.md §5's pool-bound invariants (both
// positive, min <= max) and §6's driver field requirements.
func (c Config) Validate() error {
	if c.MinConnections <= 0 || c.MaxConnections <= 0 {
		return newConfigError("min/max connections must both be positive (got min=%d, max=%d)", c.MinConnections, c.MaxConnections)
	}
	if c.MinConnections > c.MaxConnections {
		return newConfigError("min connections (%d) exceeds max connections (%d)", c.MinConnections, c.MaxConnections)
	}
	if _, err := c.Driver.DSN(); err != nil {
		return newConfigError("%s", err)
	}
	return nil
}

// Load locates and parses a weldorm.toml/weldorm.yaml configuration file,
// walking up from the working directory and falling back to the user
// config directory — the same search order BeadsLog's config.Initialize
// uses for its own config.yaml.
func Load() (*Config, error) {
	path, err := locate()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("min_connections", 1)
	v.SetDefault("max_connections", 10)
	v.SetDefault("log_level", string(LogLevelOff))
	v.SetDefault("slow_log_level", string(LogLevelInfo))
	v.SetDefault("log_file", "weldorm.log")
	v.SetEnvPrefix("WELDORM")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("dbconf: reading %q: %w", path, err)
	}

	cfg := &Config{
		Driver: Driver{
			Type:     dialect.Type(v.GetString("driver.type")),
			Filename: v.GetString("driver.filename"),
			Name:     v.GetString("driver.name"),
			Host:     v.GetString("driver.host"),
			Port:     v.GetInt("driver.port"),
			User:     v.GetString("driver.user"),
			Password: v.GetString("driver.password"),
		},
		MinConnections: v.GetInt("min_connections"),
		MaxConnections: v.GetInt("max_connections"),
		LogLevel:       LogLevel(v.GetString("log_level")),
		SlowLogLevel:   LogLevel(v.GetString("slow_log_level")),
		LogFile:        v.GetString("log_file"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func locate() (string, error) {
	for _, name := range []string{"weldorm.toml", "weldorm.yaml", "weldorm.yml"} {
		if found, ok := walkUp(name); ok {
			return found, nil
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		for _, name := range []string{"weldorm.toml", "weldorm.yaml", "weldorm.yml"} {
			path := filepath.Join(configDir, "weldorm", name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", fmt.Errorf("dbconf: no weldorm.toml/weldorm.yaml found in the working directory tree or the user config directory")
}

func walkUp(name string) (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for dir := cwd; ; {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

package ygggo_db

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	// DriverMySQL is the default driver.
	DriverMySQL = "mysql"
	// DriverSQLite selects modernc.org/sqlite; Config.Name is the file path.
	DriverSQLite = "sqlite"

	defaultMySQLPort = 3306

	// EnvPrefix is the prefix LoadConfig uses for environment overrides,
	// e.g. YGGGO_DB_HOST or YGGGO_DB_CONNECT_RETRY_MAX_ATTEMPTS.
	EnvPrefix = "YGGGO_DB"
)

// Config holds the connection settings consumed once by Accessor.Setup.
type Config struct {
	// Driver is the database/sql driver name. Empty means "mysql".
	Driver string `mapstructure:"driver"`
	// DSN, when set, is used verbatim and the field-based settings are ignored.
	DSN string `mapstructure:"dsn"`

	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	Name     string            `mapstructure:"name"`
	User     string            `mapstructure:"user"`
	Password string            `mapstructure:"password"`
	Params   map[string]string `mapstructure:"params"`

	// Debug turns on one Trace per query call.
	Debug bool `mapstructure:"debug"`
	// Timeout bounds each statement and the connect attempt. Zero means no limit.
	Timeout time.Duration `mapstructure:"timeout"`
	// SlowQueryThreshold raises the operational log record of a statement
	// that took at least this long to warn level.
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold"`

	ConnectRetry RetryPolicy     `mapstructure:"connect_retry"`
	Telemetry    TelemetryConfig `mapstructure:"telemetry"`
	Metrics      MetricsConfig   `mapstructure:"metrics"`
}

func (c Config) driverName() string {
	if d := strings.TrimSpace(c.Driver); d != "" {
		return d
	}
	return DriverMySQL
}

// validate reports missing settings before any connection attempt.
func (c Config) validate() error {
	if strings.TrimSpace(c.DSN) != "" {
		return nil
	}
	switch c.driverName() {
	case DriverMySQL:
		if c.Host == "" {
			return errors.New("config: host is required")
		}
		if c.Name == "" {
			return errors.New("config: database name is required")
		}
	case DriverSQLite:
		if c.Name == "" {
			return errors.New("config: sqlite path (name) is required")
		}
	default:
		return fmt.Errorf("config: driver %q requires an explicit DSN", c.driverName())
	}
	return nil
}

// dsnFromConfig returns a DSN string.
// Priority: if Config.DSN is non-empty, return it unchanged.
// Otherwise build it from the field-based settings for the selected driver.
func dsnFromConfig(c Config) (string, error) {
	if strings.TrimSpace(c.DSN) != "" {
		return c.DSN, nil
	}
	if err := c.validate(); err != nil {
		return "", err
	}
	switch c.driverName() {
	case DriverSQLite:
		return sqliteDSN(c), nil
	default:
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		port := c.Port
		if port <= 0 {
			port = defaultMySQLPort
		}
		mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(port))
		mc.DBName = c.Name
		if c.Timeout > 0 {
			mc.Timeout = c.Timeout
		}
		if len(c.Params) > 0 {
			mc.Params = make(map[string]string, len(c.Params))
			for k, v := range c.Params {
				mc.Params[k] = v
			}
		}
		return mc.FormatDSN(), nil
	}
}

// ConfigFromMap reads the legacy setup keys db_host, db_name, db_user, db_pass
// and the optional db_debug, db_port and db_driver. Other keys are ignored.
func ConfigFromMap(m map[string]any) (Config, error) {
	var cfg Config
	var err error
	str := func(key string, dst *string) {
		v, ok := m[key]
		if !ok || err != nil {
			return
		}
		if *dst, err = cast.ToStringE(v); err != nil {
			err = fmt.Errorf("config: %s: %w", key, err)
		}
	}
	str("db_driver", &cfg.Driver)
	str("db_host", &cfg.Host)
	str("db_name", &cfg.Name)
	str("db_user", &cfg.User)
	str("db_pass", &cfg.Password)
	if err != nil {
		return Config{}, err
	}
	if v, ok := m["db_port"]; ok {
		if cfg.Port, err = cast.ToIntE(v); err != nil {
			return Config{}, fmt.Errorf("config: db_port: %w", err)
		}
	}
	if v, ok := m["db_debug"]; ok {
		if cfg.Debug, err = cast.ToBoolE(v); err != nil {
			return Config{}, fmt.Errorf("config: db_debug: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfig reads a Config from an optional file (any format viper
// understands) and applies YGGGO_DB_* environment overrides on top.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults register every key so AutomaticEnv can see it during Unmarshal.
	v.SetDefault("driver", DriverMySQL)
	v.SetDefault("dsn", "")
	v.SetDefault("host", "localhost")
	v.SetDefault("port", defaultMySQLPort)
	v.SetDefault("name", "")
	v.SetDefault("user", "")
	v.SetDefault("password", "")
	v.SetDefault("debug", false)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("slow_query_threshold", time.Duration(0))
	v.SetDefault("connect_retry.max_attempts", 1)
	v.SetDefault("connect_retry.base_backoff", 100*time.Millisecond)
	v.SetDefault("connect_retry.max_backoff", time.Second)
	v.SetDefault("connect_retry.max_elapsed", time.Duration(0))
	v.SetDefault("connect_retry.jitter", false)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("metrics.enabled", false)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

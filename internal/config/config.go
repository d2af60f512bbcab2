package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const envPrefix = "MIGRATOR_"

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

type Database struct {
	Driver           string
	Host             string
	Port             int
	Name             string
	User             string
	Password         string
	SSLMode          string
	SQLitePath       string
	StatementTimeout time.Duration
	ConnectRetries   int
	RetryDelay       time.Duration
}

type Config struct {
	DB        Database
	LogFormat string
	LogLevel  string
	BatchDir  string
}

func Default() Config {
	return Config{
		DB: Database{
			Driver:         DriverPostgres,
			Host:           "localhost",
			Port:           5432,
			Name:           "prices",
			User:           "postgres",
			SSLMode:        "disable",
			SQLitePath:     "data/prices.db",
			ConnectRetries: 5,
			RetryDelay:     time.Second,
		},
		LogFormat: "json",
		LogLevel:  "info",
		BatchDir:  "migrations",
	}
}

// LoadEnvFile loads a dotenv file into the process environment. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && os.IsNotExist(errors.Cause(err)) {
		return nil
	}
	return errors.Wrapf(err, "load %s", path)
}

// FromEnv overlays MIGRATOR_* variables on top of the defaults.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	get := func(key string) (string, bool) {
		v, ok := lookup(envPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}
	strVars := map[string]*string{
		"DB_DRIVER":   &cfg.DB.Driver,
		"DB_HOST":     &cfg.DB.Host,
		"DB_NAME":     &cfg.DB.Name,
		"DB_USER":     &cfg.DB.User,
		"DB_PASSWORD": &cfg.DB.Password,
		"DB_SSLMODE":  &cfg.DB.SSLMode,
		"SQLITE_PATH": &cfg.DB.SQLitePath,
		"LOG_FORMAT":  &cfg.LogFormat,
		"LOG_LEVEL":   &cfg.LogLevel,
		"BATCH_DIR":   &cfg.BatchDir,
	}
	for key, dst := range strVars {
		if v, ok := get(key); ok {
			*dst = v
		}
	}
	intVars := map[string]*int{
		"DB_PORT":         &cfg.DB.Port,
		"CONNECT_RETRIES": &cfg.DB.ConnectRetries,
	}
	for key, dst := range intVars {
		if v, ok := get(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return cfg, errors.Wrapf(err, "%s%s", envPrefix, key)
			}
			*dst = n
		}
	}
	durVars := map[string]*time.Duration{
		"STATEMENT_TIMEOUT": &cfg.DB.StatementTimeout,
		"RETRY_DELAY":       &cfg.DB.RetryDelay,
	}
	for key, dst := range durVars {
		if v, ok := get(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return cfg, errors.Wrapf(err, "%s%s", envPrefix, key)
			}
			*dst = d
		}
	}
	return cfg, nil
}

// RegisterFlags binds flags to cfg so that command-line values override the
// environment.
func RegisterFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.DB.Driver, "driver", cfg.DB.Driver, "database driver: postgres, pgx or sqlite")
	fs.StringVar(&cfg.DB.Host, "host", cfg.DB.Host, "db host")
	fs.IntVar(&cfg.DB.Port, "port", cfg.DB.Port, "db port")
	fs.StringVar(&cfg.DB.Name, "dbName", cfg.DB.Name, "db name")
	fs.StringVar(&cfg.DB.User, "dbUser", cfg.DB.User, "db user")
	fs.StringVar(&cfg.DB.Password, "dbPassword", cfg.DB.Password, "db password")
	fs.StringVar(&cfg.DB.SSLMode, "sslmode", cfg.DB.SSLMode, "postgres sslmode")
	fs.StringVar(&cfg.DB.SQLitePath, "sqlitePath", cfg.DB.SQLitePath, "sqlite database file")
	fs.DurationVar(&cfg.DB.StatementTimeout, "statementTimeout", cfg.DB.StatementTimeout, "server side statement timeout, 0 disables")
	fs.IntVar(&cfg.DB.ConnectRetries, "connectRetries", cfg.DB.ConnectRetries, "ping attempts before giving up")
	fs.StringVar(&cfg.LogFormat, "logFormat", cfg.LogFormat, "json or text")
	fs.StringVar(&cfg.LogLevel, "logLevel", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.BatchDir, "batchDir", cfg.BatchDir, "directory for batch files")
}

func (c Config) Validate() error {
	switch c.DB.Driver {
	case DriverPostgres, DriverPgx:
		if c.DB.Host == "" || c.DB.Name == "" {
			return errors.New("host and dbName are required")
		}
	case DriverSQLite:
		if c.DB.SQLitePath == "" {
			return errors.New("sqlitePath is required")
		}
	default:
		return errors.Errorf("unsupported driver %q", c.DB.Driver)
	}
	if c.DB.ConnectRetries < 1 {
		return errors.New("connectRetries must be at least 1")
	}
	return nil
}

// DSN renders a key/value connection string understood by both lib/pq and pgx.
func (d Database) DSN() string {
	parts := []string{
		fmt.Sprintf("host=%s", quoteDSN(d.Host)),
		fmt.Sprintf("port=%d", d.Port),
		fmt.Sprintf("user=%s", quoteDSN(d.User)),
		fmt.Sprintf("dbname=%s", quoteDSN(d.Name)),
	}
	if d.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", quoteDSN(d.Password)))
	}
	if d.SSLMode != "" {
		parts = append(parts, fmt.Sprintf("sslmode=%s", d.SSLMode))
	}
	if d.StatementTimeout > 0 {
		parts = append(parts, fmt.Sprintf("statement_timeout=%d", d.StatementTimeout.Milliseconds()))
	}
	return strings.Join(parts, " ")
}

func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	// Bureau gateway credentials. All four must be present for the gateway
	// client to be configured; otherwise it reports not_configured.
	BureauBaseURL   string
	BureauUsername  string
	BureauPassword  string
	BureauCompanyID string

	// 64-char hex AES-256 key for field-level PII encryption.
	FieldEncKey string

	IdempTTLSecs int
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func Load() *Config {
	c := &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "prescreen"),
		MySQLUser: getenv("MYSQL_USER", "prescreen"),
		MySQLPass: getenv("MYSQL_PASS", "prescreen"),

		RedisAddr: getenv("REDIS_ADDR", "redis:6379"),

		BureauBaseURL:   os.Getenv("BUREAU_BASE_URL"),
		BureauUsername:  os.Getenv("BUREAU_USERNAME"),
		BureauPassword:  os.Getenv("BUREAU_PASSWORD"),
		BureauCompanyID: os.Getenv("BUREAU_COMPANY_ID"),

		FieldEncKey: os.Getenv("FIELD_ENC_KEY"),

		IdempTTLSecs: 300,
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := os.Getenv("IDEMPOTENCY_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.IdempTTLSecs = n
		}
	}
	return c
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.FieldEncKey == "" {
		return errors.New("missing FIELD_ENC_KEY")
	}
	return nil
}

// BureauConfigured reports whether the gateway credentials are complete.
// An incomplete set is not a startup error; the gateway client runs in a
// not_configured state and the connectivity check surfaces it.
func (c *Config) BureauConfigured() bool {
	return c.BureauBaseURL != "" && c.BureauUsername != "" && c.BureauPassword != "" && c.BureauCompanyID != ""
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

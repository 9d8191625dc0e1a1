package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/go-ozzo/ozzo-validation/v3"
	"github.com/go-ozzo/ozzo-validation/v3/is"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"strings"
)

const (
	DriverOracle = "godror"
	DriverSQLite = "sqlite"
)

type OracleConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	SID      string `json:"sid"`
}

func (c *OracleConfig) ConnectionString() string {
	return fmt.Sprintf("%s/%s@%s:%s/%s", c.Username, c.Password, c.Host, c.Port, c.SID)
}

func (c *OracleConfig) Validate() error {
	return validation.ValidateStruct(
		c,
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.Password, validation.Required),
		validation.Field(&c.Host, validation.Required, is.Host),
		validation.Field(&c.Port, validation.Required, is.Port),
		validation.Field(&c.SID, validation.Required),
	)
}

// DBConfig selects a driver. Oracle databases are described by Oracle,
// everything else by a driver specific DSN.
type DBConfig struct {
	Driver string       `json:"driver"`
	Oracle OracleConfig `json:"oracle"`
	DSN    string       `json:"dsn"`
}

func (c *DBConfig) DriverName() string {
	if c.Driver == "" {
		return DriverOracle
	}
	return c.Driver
}

func (c *DBConfig) ConnectionString() string {
	if c.DriverName() == DriverOracle {
		return c.Oracle.ConnectionString()
	}
	return c.DSN
}

func (c *DBConfig) Validate() error {
	if err := validation.Validate(c.Driver, validation.In(DriverOracle, DriverSQLite)); err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	if c.DriverName() == DriverOracle {
		return c.Oracle.Validate()
	}
	return validation.Validate(c.DSN, validation.Required)
}

type SandboxDBConfig struct {
	Name   string   `json:"name"`
	Config DBConfig `json:"config"`
}

func (c *SandboxDBConfig) Validate() error {
	if err := validation.Validate(c.Name, validation.Required); err != nil {
		return fmt.Errorf("sandbox DB name: %w", err)
	}
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.Config.DriverName() == DriverOracle && c.Config.Oracle.Username != "JUDGE_"+c.Name {
		return errors.New("invalid sandbox DB username")
	}
	return nil
}

const (
	minFetchPeriod   = 100
	minReviewerCount = 0
)

type CaptureJudgeConfig struct {
	DBConfigs []SandboxDBConfig `json:"dbs"`

	FetchPeriod   int `json:"fetch_period"`
	ReviewerCount int `json:"reviewer_count"`
}

func (c *CaptureJudgeConfig) Validate() error {
	for _, sc := range c.DBConfigs {
		if err := sc.Validate(); err != nil {
			return err
		}
	}
	return validation.ValidateStruct(
		c,
		validation.Field(&c.FetchPeriod, validation.Required, validation.Min(minFetchPeriod)),
		validation.Field(&c.ReviewerCount, validation.Min(minReviewerCount)),
	)
}

type HTTPConfig struct {
	ListenAddrs     []string `json:"listen_addrs"`
	AllowedFrontend string   `json:"allowed_frontend"`
}

func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(
		c,
		validation.Field(&c.ListenAddrs, validation.Required, validation.By(validListenAddrs)),
		validation.Field(&c.AllowedFrontend, is.URL),
	)
}

func validListenAddrs(value interface{}) error {
	addrs, _ := value.([]string)
	for _, addr := range addrs {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("invalid listen address %q", addr)
		}
	}
	return nil
}

type JudgeConfig struct {
	LoggerConfig zap.Config `json:"logger"`

	MainDBConfig DBConfig   `json:"main_db"`
	HTTPConfig   HTTPConfig `json:"http"`

	CaptureJudgeConfig CaptureJudgeConfig `json:"capture_judge"`
}

func (c *JudgeConfig) Validate() error {
	if err := c.MainDBConfig.Validate(); err != nil {
		return fmt.Errorf("main_db: %w", err)
	}
	if err := c.HTTPConfig.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := c.CaptureJudgeConfig.Validate(); err != nil {
		return fmt.Errorf("capture_judge: %w", err)
	}
	return nil
}

func (c *JudgeConfig) LoadFromFile(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}

	switch ext := filepath.Ext(path); ext {
	case ".json":
		if err := c.loadFromJSON(data); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown configuration file extension: %s", ext)
	}

	if err := c.loadFromEnv(); err != nil {
		return err
	}
	return c.Validate()
}

func (c *JudgeConfig) loadFromJSON(data []byte) error {
	return json.Unmarshal(data, c)
}

const envPrefix = "UDB_"

// loadFromEnv applies UDB_* overrides, reading .env first when present.
// Variables already set in the environment win over .env entries.
func (c *JudgeConfig) loadFromEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return err
	}

	if v, ok := lookupEnv("MAIN_DB_DRIVER"); ok {
		c.MainDBConfig.Driver = v
	}
	if v, ok := lookupEnv("MAIN_DB_DSN"); ok {
		c.MainDBConfig.DSN = v
	}
	if v, ok := lookupEnv("MAIN_DB_PASSWORD"); ok {
		c.MainDBConfig.Oracle.Password = v
	}
	if v, ok := lookupEnv("LISTEN_ADDRS"); ok {
		c.HTTPConfig.ListenAddrs = splitList(v)
	}
	if v, ok := lookupEnv("ALLOWED_FRONTEND"); ok {
		c.HTTPConfig.AllowedFrontend = v
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		level, err := zap.ParseAtomicLevel(v)
		if err != nil {
			return err
		}
		c.LoggerConfig.Level = level
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	return os.LookupEnv(envPrefix + key)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

const defaultConfigFile = "config.json"

func (c *JudgeConfig) LoadDefault() error {
	return c.LoadFromFile(defaultConfigFile)
}

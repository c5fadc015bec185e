// Package config loads the settings of the repositories API from an
// optional config.yaml and the environment.
//
// Environment variables use the DJANGO_LIKE_REPOSITORIES prefix and a
// double underscore between nested keys:
//
//	DJANGO_LIKE_REPOSITORIES__DB__HOST=localhost
//	DJANGO_LIKE_REPOSITORIES__HTTP__ADDR=:8000
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/Nigel2392/go-django/src/core/logger"
	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "DJANGO_LIKE_REPOSITORIES"
	EnvKeyDelim    = "__"
	ConfigFileName = "config"
)

type DatabaseConfig struct {
	DriverName string `mapstructure:"drivername"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
}

type HTTPConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

type Config struct {
	DB   DatabaseConfig `mapstructure:"db"`
	HTTP HTTPConfig     `mapstructure:"http"`
	Log  LogConfig      `mapstructure:"log"`
}

func DefaultConfig() Config {
	return Config{
		DB: DatabaseConfig{
			DriverName: "postgres",
			Host:       "localhost",
			Port:       5432,
			Username:   "postgres",
			Password:   "postgres",
			Name:       "repositories",
		},
		HTTP: HTTPConfig{
			Addr:        ":8000",
			CORSOrigins: []string{"*"},
		},
	}
}

// Load reads config.yaml from configPath if it exists and applies
// the environment on top of it.
func Load(configPath string) (Config, error) {
	var cfg = DefaultConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.SetEnvPrefix(EnvPrefix + "_")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", EnvKeyDelim))
	v.AutomaticEnv()

	// every key needs a default for the environment to be seen by Unmarshal
	v.SetDefault("db.drivername", cfg.DB.DriverName)
	v.SetDefault("db.host", cfg.DB.Host)
	v.SetDefault("db.port", cfg.DB.Port)
	v.SetDefault("db.username", cfg.DB.Username)
	v.SetDefault("db.password", cfg.DB.Password)
	v.SetDefault("db.name", cfg.DB.Name)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("http.cors_origins", cfg.HTTP.CORSOrigins)
	v.SetDefault("log.debug", cfg.Log.Debug)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		logger.Debugf("No %s.yaml found in %s, using defaults and environment", ConfigFileName, configPath)
	} else {
		logger.Debugf("Loaded %s", v.ConfigFileUsed())
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Driver returns the database/sql driver name for the configured database.
func (c DatabaseConfig) Driver() (string, error) {
	switch strings.ToLower(c.DriverName) {
	case "postgres", "postgresql", "pgx":
		return "pgx", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	}
	return "", fmt.Errorf("unsupported database driver %q", c.DriverName)
}

// DSN returns the connection string for the configured database.
//
// For sqlite the name is the path of the database file.
func (c DatabaseConfig) DSN() (string, error) {
	var driverName, err = c.Driver()
	if err != nil {
		return "", err
	}

	var addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	switch driverName {
	case "pgx":
		var u = url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.Username, c.Password),
			Host:   addr,
			Path:   "/" + c.Name,
		}
		return u.String(), nil
	case "mysql":
		var cfg = mysql.NewConfig()
		cfg.User = c.Username
		cfg.Passwd = c.Password
		cfg.Net = "tcp"
		cfg.Addr = addr
		cfg.DBName = c.Name
		cfg.ParseTime = true
		return cfg.FormatDSN(), nil
	}
	return c.Name, nil
}

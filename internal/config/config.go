// Package config loads the server's runtime configuration: environment
// variables via godotenv, then a YAML settings file, mirroring the
// teacher's cmd/api/main.go load sequence (.env first, then a parsed YAML
// config struct).
package config

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Server holds the HTTP server's tunables. Fields left zero in the YAML
// file fall back to the Default* constants below.
type Server struct {
	Port                string `yaml:"port"`
	MaxIterationsPerRun  int    `yaml:"max_iterations_per_run"`
	DefaultNumPeriods    int    `yaml:"default_num_periods"`
	EnableNarrative      bool   `yaml:"enable_narrative"`
	EnableReportCache    bool   `yaml:"enable_report_cache"`
}

const (
	DefaultPort                = "8080"
	DefaultMaxIterationsPerRun = 200000
	DefaultNumPeriods          = 8
)

// Load reads .env (if present, never fatal when absent) then the YAML
// server config at path (also never fatal when absent — defaults apply).
func Load(path string) *Server {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("[CONFIG] no .env file loaded: %v\n", err)
	}

	srv := &Server{
		Port:                DefaultPort,
		MaxIterationsPerRun: DefaultMaxIterationsPerRun,
		DefaultNumPeriods:   DefaultNumPeriods,
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		fmt.Printf("[CONFIG] no server config at %s, using defaults\n", path)
		return srv
	}
	if err := yaml.Unmarshal(data, srv); err != nil {
		fmt.Printf("[WARNING] failed to parse %s: %v, using defaults\n", path, err)
		return &Server{Port: DefaultPort, MaxIterationsPerRun: DefaultMaxIterationsPerRun, DefaultNumPeriods: DefaultNumPeriods}
	}
	if srv.Port == "" {
		srv.Port = DefaultPort
	}
	if srv.MaxIterationsPerRun == 0 {
		srv.MaxIterationsPerRun = DefaultMaxIterationsPerRun
	}
	if srv.DefaultNumPeriods == 0 {
		srv.DefaultNumPeriods = DefaultNumPeriods
	}
	return srv
}

// DatabaseURL reads the Postgres DSN the report cache uses, mirroring the
// teacher's store.InitDB: absent means the cache runs in its nil-pool,
// file-fallback mode.
func DatabaseURL() string { return os.Getenv("DATABASE_URL") }

// GeminiAPIKey reads the narrative provider's API key; absent means
// narrative generation is skipped, never fatal to a request.
func GeminiAPIKey() string { return os.Getenv("GEMINI_API_KEY") }

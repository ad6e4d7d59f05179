// Package config builds runtime configuration from environment variables so
// main stays lean. Every knob has a stated default and is overridable per
// deployment.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Database captures PostgreSQL connection settings.
type Database struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

// Server captures HTTP server level configuration for the read API.
type Server struct {
	Addr string
}

// Pipeline captures reconciliation pipeline settings. Strategy order and the
// acceptance threshold are configurable so a source format change does not
// require a code change; the run log records which strategy actually won.
type Pipeline struct {
	DataDir          string
	MatchIterationID int64
	IDStrategies     []string
	IDMinRate        float64
	SectionBatchSize int
}

// Config is everything the binaries need.
type Config struct {
	Database Database
	Server   Server
	Pipeline Pipeline
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Database: Database{
			Host:     getenv("POSTGRES_HOST", "localhost"),
			Port:     getenvInt("POSTGRES_PORT", 5432),
			User:     getenv("POSTGRES_USER", "carms"),
			Password: getenv("POSTGRES_PASSWORD", "carms"),
			Name:     getenv("POSTGRES_DB", "carms"),
		},
		Server: Server{
			Addr: getenv("CATALOG_ADDR", ":8080"),
		},
		Pipeline: Pipeline{
			DataDir:          getenv("PIPELINE_DATA_DIR", "data/raw"),
			MatchIterationID: int64(getenvInt("PIPELINE_MATCH_ITERATION_ID", 1503)),
			IDStrategies:     getenvList("PIPELINE_ID_STRATEGIES", []string{"document_id", "source_url"}),
			IDMinRate:        getenvFloat("PIPELINE_ID_MIN_RATE", 0.95),
			SectionBatchSize: getenvInt("PIPELINE_SECTION_BATCH_SIZE", 5000),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

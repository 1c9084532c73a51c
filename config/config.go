// Package config loads moss's ambient runtime configuration from
// environment variables (optionally seeded by a .env file), following the
// teacher's MORFX_*-prefixed LoadConfig pattern.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds process-wide ambient settings: refresh concurrency,
// default trace depth, and the rule-source directories rules.Load reads
// in precedence order.
type Config struct {
	// Workers is the configured walker/refresh concurrency; 0 means unset.
	// No package in this module reads it: index refreshes always size
	// their walker with walk.New() (NumCPU()*2).
	Workers int

	// TraceMaxDepth is the default max_depth passed to trace.Trace when a
	// caller doesn't specify one.
	TraceMaxDepth int

	// RulesUserGlobalDir and RulesBuiltinDir are additional rule-source
	// directories layered before the project's own .moss/rules.
	RulesBuiltinDir    string
	RulesUserGlobalDir string
}

const (
	envWorkers            = "MOSS_WORKERS"
	envTraceMaxDepth      = "MOSS_TRACE_MAX_DEPTH"
	envRulesBuiltinDir    = "MOSS_RULES_BUILTIN_DIR"
	envRulesUserGlobalDir = "MOSS_RULES_USER_GLOBAL_DIR"

	defaultTraceMaxDepth = 50
)

// Load reads a .env file if present (ignoring its absence, matching the
// teacher's "godotenv.Load() but ignore errors" convention) and then
// layers MOSS_*-prefixed environment variables over the defaults.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		TraceMaxDepth:      defaultTraceMaxDepth,
		RulesBuiltinDir:    os.Getenv(envRulesBuiltinDir),
		RulesUserGlobalDir: os.Getenv(envRulesUserGlobalDir),
	}

	if v := os.Getenv(envWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv(envTraceMaxDepth); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TraceMaxDepth = n
		}
	}

	return cfg
}

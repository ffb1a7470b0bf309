package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SURVEY_"

// EnvString returns the trimmed value of an environment variable and whether it was set.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses an integer environment variable.
func EnvInt(key string) (int, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// EnvBool parses a boolean environment variable.
func EnvBool(key string) (bool, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// ApplyEnv overlays SURVEY_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	if v, ok := EnvString(EnvPrefix + "QUERY_URL"); ok {
		c.QueryURL = v
	}
	if v, ok := EnvString(EnvPrefix + "WHERE"); ok {
		c.Where = v
	}
	if v, ok, err := EnvInt(EnvPrefix + "PAGE_SIZE"); err != nil {
		return err
	} else if ok {
		c.PageSize = v
	}
	if v, ok := EnvString(EnvPrefix + "OUTPUT"); ok {
		c.OutputFile = v
	}
	if v, ok := EnvString(EnvPrefix + "PROCESS_COMMAND"); ok {
		c.ProcessCommand = strings.Fields(v)
	}
	if v, ok, err := EnvBool(EnvPrefix + "SKIP_PROCESS"); err != nil {
		return err
	} else if ok {
		c.SkipProcess = v
	}
	if v, ok := EnvString(EnvPrefix + "METRICS_ADDR"); ok {
		c.MetricsAddr = v
	}
	if v, ok := EnvString(EnvPrefix + "LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	return nil
}

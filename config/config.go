package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultQueryURL is the survey layer's FeatureServer query endpoint.
	DefaultQueryURL = "https://services1.arcgis.com/YZCmUqbcsUpOKfj7/arcgis/rest/services/" +
		"survey123_74576e994b99487e87a7bb2dedebcfbc/FeatureServer/0/query"

	// DefaultWhere restricts the export to submissions made after the survey opened.
	DefaultWhere = "CreationDate>=timestamp'2025-09-10 00:00:00'"

	// WhereAll selects every feature.
	WhereAll = "1=1"

	// DefaultPageSize is the number of records requested per query.
	DefaultPageSize = 2000

	// DefaultOutputFile is where the raw CSV is written for the downstream processor.
	DefaultOutputFile = "data/raw-survey.csv"
)

// DefaultProcessCommand runs the downstream survey processor.
var DefaultProcessCommand = []string{"node", "data/process_survey.js"}

// Config holds build configuration.
type Config struct {
	QueryURL       string        `yaml:"query_url"`
	Where          string        `yaml:"where"`
	PageSize       int           `yaml:"page_size"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxBodySize    int           `yaml:"max_body_size"` // bytes per response; longer bodies are truncated, 0 disables
	UserAgent      string        `yaml:"user_agent"`
	OutputFile     string        `yaml:"output_file"`
	ProcessCommand []string      `yaml:"process_command"`
	SkipProcess    bool          `yaml:"skip_process"`
	SummaryFile    string        `yaml:"summary_file"`
	MetricsAddr    string        `yaml:"metrics_addr"`
	LogLevel       string        `yaml:"log_level"`
	LogPretty      bool          `yaml:"log_pretty"`
}

// DefaultConfig returns the configuration of the production survey export.
func DefaultConfig() *Config {
	return &Config{
		QueryURL:       DefaultQueryURL,
		Where:          DefaultWhere,
		PageSize:       DefaultPageSize,
		Timeout:        60 * time.Second,
		MaxBodySize:    64 * 1024 * 1024,
		UserAgent:      "go-survey-build/1.0",
		OutputFile:     DefaultOutputFile,
		ProcessCommand: append([]string(nil), DefaultProcessCommand...),
		LogLevel:       "info",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.QueryURL == "" {
		return ErrEmptyQueryURL
	}

	parsedURL, err := url.Parse(c.QueryURL)
	if err != nil {
		return fmt.Errorf("invalid query URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("query URL must include a host")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("query URL scheme must be http or https, got %q", parsedURL.Scheme)
	}

	if strings.TrimSpace(c.Where) == "" {
		return ErrEmptyWhere
	}
	if c.PageSize <= 0 {
		return ErrInvalidPageSize
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize < 0 {
		return fmt.Errorf("max body size cannot be negative")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.OutputFile == "" {
		return ErrEmptyOutputFile
	}
	if !c.SkipProcess && len(c.ProcessCommand) == 0 {
		return ErrNoProcessCommand
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn, or error")
	}

	return nil
}

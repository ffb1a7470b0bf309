// Package models defines data structures for the survey build.
package models

import "time"

// Record is one surveyed entity flattened from a feature's attributes.
// Missing attributes are empty strings.
type Record struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Neighborhood string `json:"neighborhood"`
}

// Feature is a single feature as returned by the feature-service query API.
type Feature struct {
	Attributes map[string]any `json:"attributes"`
}

// APIError is the error object the feature service embeds in a 200 response
// when it rejects a query.
type APIError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

// FeaturePage is one decoded query response.
type FeaturePage struct {
	Features              []Feature `json:"features"`
	ExceededTransferLimit bool      `json:"exceededTransferLimit"`
	Error                 *APIError `json:"error"`
}

// PageStat describes one fetched page.
type PageStat struct {
	Offset int
	Count  int
}

// FetchResult holds the overall result of a fetch run.
type FetchResult struct {
	Records      []Record
	Pages        []PageStat
	StartTime    time.Time
	EndTime      time.Time
	RequestCount int
}

// BuildResult summarizes a complete build run.
type BuildResult struct {
	Fetch      *FetchResult
	OutputFile string
	Processed  bool
	StartTime  time.Time
	EndTime    time.Time
}

// Duration returns the wall time of the build.
func (b *BuildResult) Duration() time.Duration {
	return b.EndTime.Sub(b.StartTime)
}

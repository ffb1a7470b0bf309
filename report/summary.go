// Package report renders a Markdown summary of a completed build.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aluiziolira/go-survey-build/models"
	"github.com/nao1215/markdown"
)

// ErrNoResult is returned when there is nothing to summarize.
var ErrNoResult = errors.New("report: no build result")

// WriteSummary writes the Markdown summary of result to w.
func WriteSummary(w io.Writer, result *models.BuildResult) error {
	if result == nil || result.Fetch == nil {
		return ErrNoResult
	}
	fetch := result.Fetch

	md := markdown.NewMarkdown(w)
	md.H1("Survey Build Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", result.StartTime.Format(time.RFC3339)},
			{"Duration", result.Duration().Round(time.Millisecond).String()},
			{"Records", strconv.Itoa(len(fetch.Records))},
			{"Requests", strconv.Itoa(fetch.RequestCount)},
			{"Output file", "`" + result.OutputFile + "`"},
			{"Processed", processedText(result.Processed)},
		},
	})
	md.PlainText("")

	md.H2("Pages")
	md.PlainText("")
	rows := make([][]string, 0, len(fetch.Pages))
	for _, page := range fetch.Pages {
		rows = append(rows, []string{strconv.Itoa(page.Offset), strconv.Itoa(page.Count)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Offset", "Count"},
		Rows:   rows,
	})

	return md.Build()
}

// WriteSummaryFile writes the summary to path, creating parent directories.
func WriteSummaryFile(path string, result *models.BuildResult) (err error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create summary directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return WriteSummary(file, result)
}

func processedText(processed bool) string {
	if processed {
		return "yes"
	}
	return "skipped"
}

package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aluiziolira/go-survey-build/models"
)

// Header is the column layout the downstream processor reads.
var Header = []string{"Username", "Email address", "Neighborhood"}

// CSVWriter writes records to CSV with \n line endings.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	rows   int
}

// NewCSVWriter truncates or creates filename, creating parent directories, and
// writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	writer.UseCRLF = false
	if err := writer.Write(Header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Write appends records in order.
func (cw *CSVWriter) Write(records []models.Record) error {
	for _, rec := range records {
		row := []string{rec.Name, rec.Email, rec.Neighborhood}
		if err := cw.writer.Write(row); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
		cw.rows++
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Rows returns the number of data rows written so far.
func (cw *CSVWriter) Rows() int {
	return cw.rows
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		cw.file.Close()
		return fmt.Errorf("flush csv writer: %w", err)
	}
	if err := cw.file.Close(); err != nil {
		return fmt.Errorf("close csv file: %w", err)
	}
	return nil
}

// WriteRecords writes the header and every record to path, replacing any
// existing file.
func WriteRecords(records []models.Record, path string) error {
	w, err := NewCSVWriter(path)
	if err != nil {
		return err
	}
	if err := w.Write(records); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

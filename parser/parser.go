// Package parser decodes feature-service query responses into records.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/aluiziolira/go-survey-build/models"
)

// Attribute names requested from the feature service.
const (
	FieldName         = "name"
	FieldEmail        = "email"
	FieldNeighborhood = "neighborhood"
)

// OutFields lists the attributes a query asks for, in column order.
var OutFields = []string{FieldName, FieldEmail, FieldNeighborhood}

// DecodePage parses one query response body. The body must be a single JSON
// object; numbers are kept in their original spelling.
func DecodePage(body []byte) (*models.FeaturePage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("response body is not a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var page models.FeaturePage
	if err := dec.Decode(&page); err != nil {
		return nil, fmt.Errorf("decode feature page: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after feature page")
	}
	return &page, nil
}

// RecordFromFeature flattens a feature's attributes into a Record.
func RecordFromFeature(f models.Feature) models.Record {
	return models.Record{
		Name:         AttributeString(f.Attributes[FieldName]),
		Email:        AttributeString(f.Attributes[FieldEmail]),
		Neighborhood: AttributeString(f.Attributes[FieldNeighborhood]),
	}
}

// RecordsFromPage flattens every feature of a page, preserving order.
func RecordsFromPage(page *models.FeaturePage) []models.Record {
	if page == nil {
		return nil
	}
	records := make([]models.Record, 0, len(page.Features))
	for _, f := range page.Features {
		records = append(records, RecordFromFeature(f))
	}
	return records
}

// AttributeString renders an attribute value as CSV cell text.
// Absent and null values render as the empty string.
func AttributeString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(encoded)
	}
}

package parser

import (
	"encoding/json"
	"testing"

	"github.com/aluiziolira/go-survey-build/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePage(t *testing.T) {
	body := []byte(`{
		"objectIdFieldName": "objectid",
		"exceededTransferLimit": true,
		"features": [
			{"attributes": {"name": "A", "email": "a@x.com", "neighborhood": "N1"}},
			{"attributes": {}},
			{"attributes": {"name": null, "email": "b@x.com"}}
		]
	}`)

	page, err := DecodePage(body)
	require.NoError(t, err)
	require.Len(t, page.Features, 3)
	assert.True(t, page.ExceededTransferLimit)
	assert.Nil(t, page.Error)

	records := RecordsFromPage(page)
	assert.Equal(t, []models.Record{
		{Name: "A", Email: "a@x.com", Neighborhood: "N1"},
		{},
		{Email: "b@x.com"},
	}, records)
}

func TestDecodePageMissingFeatures(t *testing.T) {
	page, err := DecodePage([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, page.Features)
	assert.Empty(t, RecordsFromPage(page))
}

func TestDecodePageAPIError(t *testing.T) {
	page, err := DecodePage([]byte(`{"error":{"code":400,"message":"Cannot perform query. Invalid query parameters.","details":["'where' parameter is invalid"]}}`))
	require.NoError(t, err)
	require.NotNil(t, page.Error)
	assert.Equal(t, 400, page.Error.Code)
	assert.Equal(t, []string{"'where' parameter is invalid"}, page.Error.Details)
}

func TestDecodePageMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: ""},
		{name: "html", body: "<html><body>Service Unavailable</body></html>"},
		{name: "truncated", body: `{"features": [{"attributes": {"name": "A"`},
		{name: "array", body: `[{"attributes": {}}]`},
		{name: "null", body: "null"},
		{name: "features not a list", body: `{"features": {"attributes": {}}}`},
		{name: "trailing data", body: `{"features": []} {"features": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePage([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestAttributeString(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{name: "nil", input: nil, expected: ""},
		{name: "string", input: "Doe, Jane", expected: "Doe, Jane"},
		{name: "empty string", input: "", expected: ""},
		{name: "json number int", input: json.Number("15213"), expected: "15213"},
		{name: "json number float", input: json.Number("1.50"), expected: "1.50"},
		{name: "float64", input: float64(2.5), expected: "2.5"},
		{name: "bool", input: true, expected: "true"},
		{name: "object", input: map[string]any{"a": "b"}, expected: `{"a":"b"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AttributeString(tt.input))
		})
	}
}

func TestRecordFromFeatureIgnoresExtraAttributes(t *testing.T) {
	rec := RecordFromFeature(models.Feature{Attributes: map[string]any{
		"name":         "A",
		"objectid":     json.Number("7"),
		"neighborhood": "Bloomfield",
	}})
	assert.Equal(t, models.Record{Name: "A", Neighborhood: "Bloomfield"}, rec)
}

func TestRecordFromFeatureNilAttributes(t *testing.T) {
	assert.Equal(t, models.Record{}, RecordFromFeature(models.Feature{}))
}

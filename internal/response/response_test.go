package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-data-connector/backend/internal/connector"
)

func TestAssembleNilDataBecomesEmptyArray(t *testing.T) {
	envelope := Assemble(Input{
		Source:   "crm",
		DataType: "empty",
	})

	require.NotNil(t, envelope.Data)
	assert.Empty(t, envelope.Data)

	body, err := json.Marshal(envelope)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"data":[]`)
}

func TestAssemblePaginationTruncated(t *testing.T) {
	data := []connector.Record{
		{"customer_id": int64(1)},
		{"customer_id": int64(2)},
	}

	envelope := Assemble(Input{
		Source:       "crm",
		DataType:     "tabular_crm",
		Data:         data,
		TotalRecords: 23,
		PageSize:     2,
	})

	p := envelope.Metadata.Pagination
	assert.Equal(t, 23, p.TotalRecords)
	assert.Equal(t, 2, p.ReturnedRecords)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 2, p.PageSize)
	assert.True(t, p.HasMore)
}

func TestAssemblePaginationComplete(t *testing.T) {
	data := []connector.Record{{"ticket_id": int64(1)}}

	envelope := Assemble(Input{
		Source:       "support",
		DataType:     "tabular_support",
		Data:         data,
		TotalRecords: 1,
		PageSize:     5,
	})

	p := envelope.Metadata.Pagination
	assert.Equal(t, 1, p.ReturnedRecords)
	assert.False(t, p.HasMore)
}

func TestAssembleAggregatedNeverHasMore(t *testing.T) {
	data := []connector.Record{
		{"metric": "revenue_usd", "average": 100.0, "_aggregated": true},
	}

	envelope := Assemble(Input{
		Source:       "analytics",
		DataType:     "aggregated",
		Data:         data,
		TotalRecords: 1,
		PageSize:     5,
		Aggregated:   true,
	})

	p := envelope.Metadata.Pagination
	assert.False(t, p.HasMore)
	assert.Equal(t, 1, p.PageSize)
	assert.Equal(t, 1, p.ReturnedRecords)
}

func TestAssembleStripsSyntheticFilters(t *testing.T) {
	envelope := Assemble(Input{
		Source:   "analytics",
		DataType: "aggregated",
		Data:     []connector.Record{{"_aggregated": true}},
		Filters: map[string]any{
			"metric":    "churn_rate",
			"aggregate": true,
			"_avg":      2.5,
			"_min":      1.0,
			"_max":      4.0,
			"_days":     30,
			"date_from": nil,
		},
		TotalRecords: 1,
		PageSize:     1,
		Aggregated:   true,
	})

	filters := envelope.Metadata.AppliedFilters
	assert.Equal(t, map[string]any{
		"metric":    "churn_rate",
		"aggregate": true,
	}, filters)
}

func TestVisibleFiltersEmptyInput(t *testing.T) {
	assert.Empty(t, VisibleFilters(nil))
	assert.Empty(t, VisibleFilters(map[string]any{"_hidden": 1, "gone": nil}))
}

func TestErrorBodyOmitsEmptyDetail(t *testing.T) {
	body, err := json.Marshal(ErrorBody{Error: "unknown_function"})
	require.NoError(t, err)
	assert.Equal(t, `{"error":"unknown_function"}`, string(body))
}

// Package shape labels the semantic shape of a result set so summary
// phrasing and the caller can branch on it without source-specific logic.
package shape

import "github.com/universal-data-connector/backend/internal/connector"

const (
	Empty          = "empty"
	Aggregated     = "aggregated"
	TimeSeries     = "time_series"
	TabularSupport = "tabular_support"
	TabularCRM     = "tabular_crm"
	Unknown        = "unknown"
)

// Identify infers the data-type label from the first record only; result
// sets are schema-homogeneous so this stays O(1). Classification is over the
// returned (post-cap) set — an empty set is always "empty" regardless of why.
func Identify(records []connector.Record) string {
	if len(records) == 0 {
		return Empty
	}

	first := records[0]

	if agg, ok := first[connector.AggregatedKey].(bool); ok && agg {
		return Aggregated
	}

	_, hasMetric := first["metric"]
	_, hasDate := first["date"]
	_, hasValue := first["value"]
	if hasMetric && hasDate && hasValue {
		return TimeSeries
	}

	if _, ok := first["ticket_id"]; ok {
		return TabularSupport
	}

	if _, ok := first["customer_id"]; ok {
		return TabularCRM
	}

	return Unknown
}

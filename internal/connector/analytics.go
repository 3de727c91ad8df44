package connector

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/universal-data-connector/backend/pkg/logger"
)

const SourceAnalytics = "analytics"

// AggregatedKey marks the synthetic single-record summary an aggregate query
// produces; the classifier keys off it.
const AggregatedKey = "_aggregated"

// AnalyticsConnector serves daily metric observations. Filters: metric name
// and an inclusive ISO-date range. With aggregate=true the filtered series
// collapses into one min/average/max summary record.
type AnalyticsConnector struct {
	loader Loader
}

func NewAnalytics(loader Loader) *AnalyticsConnector {
	return &AnalyticsConnector{loader: loader}
}

func (c *AnalyticsConnector) Source() string {
	return SourceAnalytics
}

func (c *AnalyticsConnector) Fetch(ctx context.Context, args map[string]any) ([]Record, error) {
	metric, _ := stringArg(args, "metric")
	dateFrom, _ := stringArg(args, "date_from")
	dateTo, _ := stringArg(args, "date_to")
	aggregate := boolArg(args, "aggregate", false)
	sortDesc := boolArg(args, "sort_desc", true)

	logger.Info("Analytics fetch",
		zap.String("metric", metric),
		zap.String("date_from", dateFrom),
		zap.String("date_to", dateTo),
		zap.Bool("aggregate", aggregate),
	)

	records, err := c.loader.Load(ctx, SourceAnalytics)
	if err != nil {
		return nil, err
	}

	if metric != "" {
		records = filterEqualString(records, "metric", metric)
	}
	if dateFrom != "" {
		filtered := records[:0:0]
		for _, r := range records {
			if d, _ := r["date"].(string); d >= dateFrom {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	if dateTo != "" {
		filtered := records[:0:0]
		for _, r := range records {
			if d, _ := r["date"].(string); d <= dateTo {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	// Always date-ordered so capping is meaningful
	sortRecords(records, "date", sortDesc)

	// Never aggregate an empty set; return the empty collection instead
	if aggregate && len(records) > 0 {
		summary := c.aggregate(records)
		logger.Info("Analytics returning aggregated summary",
			zap.Int("data_points", len(records)))
		return []Record{summary}, nil
	}

	logger.Info("Analytics fetch returned records", zap.Int("count", len(records)))
	return records, nil
}

func (c *AnalyticsConnector) aggregate(records []Record) Record {
	metricName, _ := records[0]["metric"].(string)
	if metricName == "" {
		metricName = "unknown"
	}

	var sum, minVal, maxVal float64
	periodStart, _ := records[0]["date"].(string)
	periodEnd := periodStart

	for i, r := range records {
		v, _ := toFloat(r["value"])
		sum += v
		if i == 0 || v < minVal {
			minVal = v
		}
		if i == 0 || v > maxVal {
			maxVal = v
		}
		if d, _ := r["date"].(string); d != "" {
			if d < periodStart || periodStart == "" {
				periodStart = d
			}
			if d > periodEnd {
				periodEnd = d
			}
		}
	}

	return Record{
		"metric":            metricName,
		"period_start":      periodStart,
		"period_end":        periodEnd,
		"average":           round2(sum / float64(len(records))),
		"minimum":           round2(minVal),
		"maximum":           round2(maxVal),
		"total_data_points": len(records),
		AggregatedKey:       true,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (c *AnalyticsConnector) Schema() FunctionSchema {
	return FunctionSchema{
		Name: "get_analytics_metrics",
		Description: "Retrieve product analytics and business metrics. " +
			"Use this when the user asks about usage trends, active users, " +
			"revenue, signups, or any numeric KPI over time.",
		Parameters: ObjectSchema{
			Type: "object",
			Properties: map[string]ParameterSpec{
				"metric": {
					Type:        "string",
					Enum:        []string{"daily_active_users", "new_signups", "churn_rate", "revenue_usd"},
					Description: "Which metric to query. Omit to return all metrics.",
				},
				"date_from": {
					Type:        "string",
					Description: "Start of date range in YYYY-MM-DD format (inclusive).",
				},
				"date_to": {
					Type:        "string",
					Description: "End of date range in YYYY-MM-DD format (inclusive).",
				},
				"aggregate": {
					Type: "boolean",
					Description: "When true, return a single summary record with min/max/average " +
						"instead of the raw day-by-day data. Set to true for voice responses.",
				},
				"limit": {
					Type:        "integer",
					Description: "Maximum number of records to return (applies before aggregation).",
				},
			},
			Required: []string{},
		},
	}
}

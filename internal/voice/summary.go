// Package voice composes the one-sentence spoken summary attached to every
// response envelope. Summaries are template-filled, never model-generated;
// the LLM reads them out verbatim and keeps the raw records for follow-ups.
package voice

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/universal-data-connector/backend/internal/shape"
)

// BuildSummary maps (source, data type, counts, applied filters) to a single
// natural sentence. Read-only over filters; missing keys collapse to empty
// phrase fragments rather than failing. Aggregated analytics read the
// synthetic _avg/_min/_max/_days keys the dispatch layer injects.
func BuildSummary(source, dataType string, returned, total int, filters map[string]any) string {
	if filters == nil {
		filters = map[string]any{}
	}

	switch {
	case source == "support":
		return supportSummary(returned, total, filters)
	case source == "crm":
		return crmSummary(returned, total, filters)
	case source == "analytics" && dataType == shape.Aggregated:
		return aggregatedSummary(filters)
	case source == "analytics":
		return analyticsSummary(returned, total, filters)
	default:
		return fmt.Sprintf("Returning %d of %d records from the %s data source.", returned, total, source)
	}
}

func supportSummary(returned, total int, filters map[string]any) string {
	statusPhrase := phrase(filters, "status", "", " ")
	priorityPhrase := phrase(filters, "priority", "", "-priority ")
	noun := pluralize(returned, "ticket", "tickets")

	if total == returned {
		return fmt.Sprintf("Here are %d %s%ssupport %s.", returned, priorityPhrase, statusPhrase, noun)
	}
	return fmt.Sprintf("Showing the %d most recent %s%ssupport %s out of %d total.",
		returned, priorityPhrase, statusPhrase, noun, total)
}

func crmSummary(returned, total int, filters map[string]any) string {
	statusPhrase := phrase(filters, "status", "", " ")
	planPhrase := phrase(filters, "plan", "", "-plan ")
	noun := pluralize(returned, "customer", "customers")

	if total == returned {
		return fmt.Sprintf("Here are %d %s%s%s.", returned, planPhrase, statusPhrase, noun)
	}
	return fmt.Sprintf("Showing %d of %d %s%s%s.", returned, total, planPhrase, statusPhrase, noun)
}

func aggregatedSummary(filters map[string]any) string {
	metricName := "the requested metric"
	if m, ok := filters["metric"].(string); ok && m != "" {
		metricName = spacedMetric(m)
	}

	period := ""
	if days := fmt.Sprint(filters["_days"]); filters["_days"] != nil && days != "" && days != "0" {
		period = fmt.Sprintf(" over the last %s days", days)
	}

	avg, haveAvg := numberFilter(filters, "_avg")
	low, _ := numberFilter(filters, "_min")
	high, _ := numberFilter(filters, "_max")
	if haveAvg {
		return fmt.Sprintf("Here's the summary for %s%s: average %s, lowest %s, highest %s.",
			metricName, period, spoken(avg), spoken(low), spoken(high))
	}
	return fmt.Sprintf("Here is the aggregated summary for %s%s.", metricName, period)
}

func analyticsSummary(returned, total int, filters map[string]any) string {
	metricPhrase := phrase(filters, "metric", "for ", " ")
	noun := pluralize(returned, "data point", "data points")

	if total == returned {
		return fmt.Sprintf("Here are %d %s %sfrom the analytics system.", returned, noun, metricPhrase)
	}
	return fmt.Sprintf("Showing the %d most recent %s %sout of %d total.", returned, noun, metricPhrase, total)
}

// phrase renders an optional filter value wrapped in prefix/suffix, or the
// empty string when the filter is absent.
func phrase(filters map[string]any, key, prefix, suffix string) string {
	v, ok := filters[key]
	if !ok || v == nil {
		return ""
	}
	s := fmt.Sprint(v)
	if s == "" {
		return ""
	}
	return prefix + s + suffix
}

func numberFilter(filters map[string]any, key string) (float64, bool) {
	switch n := filters[key].(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// spoken formats a number the way it should be read aloud: zero decimal
// places, thousands separators.
func spoken(v float64) string {
	return humanize.Commaf(math.Round(v))
}

func spacedMetric(metric string) string {
	return strings.ReplaceAll(metric, "_", " ")
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

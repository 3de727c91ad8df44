// Package rules holds the delivery-policy business rules: urgency
// prioritization for tickets and the mode-dependent result cap. The pipeline
// order is fixed — prioritize, then cap — because reversing it changes
// observable output.
package rules

import (
	"fmt"
	"sort"
	"time"

	"github.com/universal-data-connector/backend/internal/connector"
)

var priorityRank = map[string]int{"high": 0, "medium": 1, "low": 2}

// PrioritizeTickets reorders tickets so open and in_progress ones lead,
// ranked high before medium before low within each tier. Stable, never
// drops records.
func PrioritizeTickets(records []connector.Record) []connector.Record {
	out := make([]connector.Record, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		si, pi := ticketRank(out[i])
		sj, pj := ticketRank(out[j])
		if si != sj {
			return si < sj
		}
		return pi < pj
	})
	return out
}

func ticketRank(r connector.Record) (statusScore, priorityScore int) {
	status, _ := r["status"].(string)
	if status == "open" || status == "in_progress" {
		statusScore = 0
	} else {
		statusScore = 1
	}

	priority, _ := r["priority"].(string)
	rank, ok := priorityRank[priority]
	if !ok {
		rank = priorityRank["low"]
	}
	return statusScore, rank
}

// EffectiveCap computes the result-count cap for one request. Voice mode
// hard-caps at maxVoiceResults no matter what limit the caller asked for;
// normal mode honours the caller's limit up to maxResults.
func EffectiveCap(limit *int, voiceMode bool, maxResults, maxVoiceResults int) int {
	var cap int
	switch {
	case voiceMode:
		cap = maxVoiceResults
		if limit != nil && *limit < cap {
			cap = *limit
		}
	case limit != nil:
		cap = maxResults
		if *limit < cap {
			cap = *limit
		}
	default:
		cap = maxResults
	}

	if cap < 0 {
		cap = 0
	}
	return cap
}

// ApplyLimit truncates records to the first EffectiveCap elements.
// Truncation only, never a reorder.
func ApplyLimit(records []connector.Record, limit *int, voiceMode bool, maxResults, maxVoiceResults int) []connector.Record {
	cap := EffectiveCap(limit, voiceMode, maxResults, maxVoiceResults)
	if len(records) <= cap {
		return records
	}
	return records[:cap]
}

// FreshnessLabel renders the metadata staleness string. The store is seeded
// rather than live, so callers pass zero elapsed today; a last-modified
// aware source can pass a real duration without any other change.
func FreshnessLabel(elapsed time.Duration) string {
	seconds := int(elapsed.Seconds())
	switch {
	case seconds < 60:
		return "Data as of just now"
	case seconds < 3600:
		minutes := seconds / 60
		return fmt.Sprintf("Data as of %d minute%s ago", minutes, plural(minutes))
	default:
		hours := seconds / 3600
		return fmt.Sprintf("Data as of %d hour%s ago", hours, plural(hours))
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

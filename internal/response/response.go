// Package response defines the standard envelope every query answer uses,
// and the assembler that enforces its pagination invariants.
package response

import (
	"strings"

	"github.com/universal-data-connector/backend/internal/connector"
)

// Pagination tracks where we are in a potentially large result set. There is
// no real cursor; page is always 1 and has_more just tells the caller the
// cap dropped records.
type Pagination struct {
	TotalRecords    int  `json:"total_records"`
	ReturnedRecords int  `json:"returned_records"`
	Page            int  `json:"page"`
	PageSize        int  `json:"page_size"`
	HasMore         bool `json:"has_more"`
}

// Metadata is what the LLM needs to craft a spoken reply, e.g. "Here are the
// 5 most recent open tickets out of 23 total."
type Metadata struct {
	Source         string         `json:"source"`
	DataType       string         `json:"data_type"`
	VoiceSummary   string         `json:"voice_summary"`
	DataFreshness  string         `json:"data_freshness"`
	AppliedFilters map[string]any `json:"applied_filters"`
	Pagination     Pagination     `json:"pagination"`
}

// Envelope is the response shape shared by every data endpoint.
type Envelope struct {
	Data     []connector.Record `json:"data"`
	Metadata Metadata           `json:"metadata"`
}

// ErrorBody is the structured error shape returned to callers; never a raw
// internal error.
type ErrorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Input carries everything the pipeline produced for one request.
type Input struct {
	Source       string
	DataType     string
	Data         []connector.Record
	TotalRecords int
	PageSize     int
	Aggregated   bool
	Filters      map[string]any
	Freshness    string
	Summary      string
}

// Assemble builds the envelope. Synthetic underscore-prefixed filter keys
// exist only to feed numbers into the summary composer and are stripped
// here; aggregated responses always report has_more=false and a page size
// equal to the collapsed total, since no further rows exist for the caller.
func Assemble(in Input) *Envelope {
	data := in.Data
	if data == nil {
		data = []connector.Record{}
	}

	pagination := Pagination{
		TotalRecords:    in.TotalRecords,
		ReturnedRecords: len(data),
		Page:            1,
		PageSize:        in.PageSize,
		HasMore:         in.TotalRecords > len(data),
	}
	if in.Aggregated {
		pagination.HasMore = false
		pagination.PageSize = in.TotalRecords
	}

	return &Envelope{
		Data: data,
		Metadata: Metadata{
			Source:         in.Source,
			DataType:       in.DataType,
			VoiceSummary:   in.Summary,
			DataFreshness:  in.Freshness,
			AppliedFilters: VisibleFilters(in.Filters),
			Pagination:     pagination,
		},
	}
}

// VisibleFilters drops synthetic keys and nil values from the filters map
// before it leaves the process.
func VisibleFilters(filters map[string]any) map[string]any {
	visible := make(map[string]any, len(filters))
	for k, v := range filters {
		if strings.HasPrefix(k, "_") || v == nil {
			continue
		}
		visible[k] = v
	}
	return visible
}

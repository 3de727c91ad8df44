package models

import "time"

// CallRecord is one row of the call-history log: a single function call
// dispatched through the engine, with the shape of what it returned.
type CallRecord struct {
	ID              string
	FunctionName    string
	Arguments       string
	Source          string
	DataType        string
	ReturnedRecords int
	TotalRecords    int
	VoiceMode       bool
	LatencyMS       int
	CreatedAt       time.Time
}

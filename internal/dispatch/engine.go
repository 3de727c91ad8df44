// Package dispatch runs the query-response shaping pipeline: fetch filtered
// records from a connector, apply the delivery-policy rules, classify the
// result shape, compose the voice summary, and assemble the envelope. The
// rule order (prioritize, then cap) is fixed.
package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/universal-data-connector/backend/internal/connector"
	"github.com/universal-data-connector/backend/internal/metrics"
	"github.com/universal-data-connector/backend/internal/response"
	"github.com/universal-data-connector/backend/internal/rules"
	"github.com/universal-data-connector/backend/internal/shape"
	"github.com/universal-data-connector/backend/internal/storage/models"
	"github.com/universal-data-connector/backend/internal/voice"
	"github.com/universal-data-connector/backend/pkg/logger"
)

// CallLog records dispatched function calls; the sqlite store implements it.
type CallLog interface {
	InsertCallRecord(record *models.CallRecord) error
}

type Engine struct {
	registry        *connector.Registry
	callLog         CallLog
	maxResults      int
	maxVoiceResults int
}

// NewEngine wires the connector registry and the configured caps. callLog
// may be nil to disable call-history recording (tests do this).
func NewEngine(registry *connector.Registry, callLog CallLog, maxResults, maxVoiceResults int) *Engine {
	return &Engine{
		registry:        registry,
		callLog:         callLog,
		maxResults:      maxResults,
		maxVoiceResults: maxVoiceResults,
	}
}

func (e *Engine) Registry() *connector.Registry {
	return e.registry
}

// Request is one pipeline invocation. Args go to the connector as filter
// arguments; Applied is the filter map surfaced in response metadata (the
// transport layer decides which filters are externally visible).
type Request struct {
	Source    string
	Connector connector.Connector
	Args      map[string]any
	Applied   map[string]any
	Limit     *int
	VoiceMode bool
}

// Execute runs the fixed pipeline for an already-resolved connector.
func (e *Engine) Execute(ctx context.Context, req Request) (*response.Envelope, error) {
	start := time.Now()

	raw, err := req.Connector.Fetch(ctx, req.Args)
	if err != nil {
		metrics.QueryTotal.WithLabelValues(req.Source, "error").Inc()
		return nil, err
	}
	total := len(raw)

	// Business rule: urgent open tickets lead the response
	if req.Source == connector.SourceSupport {
		raw = rules.PrioritizeTickets(raw)
	}

	aggregated := isAggregated(raw)

	// Aggregate summaries are single-element by construction and bypass
	// capping entirely.
	paged := raw
	if !aggregated {
		paged = rules.ApplyLimit(raw, req.Limit, req.VoiceMode, e.maxResults, e.maxVoiceResults)
	}

	dataType := shape.Identify(paged)

	filters := make(map[string]any, len(req.Applied)+4)
	for k, v := range req.Applied {
		filters[k] = v
	}
	if dataType == shape.Aggregated {
		// Pull the aggregate numbers into the filter map so the summary can
		// speak them; the assembler strips these synthetic keys again.
		agg := paged[0]
		filters["_avg"] = agg["average"]
		filters["_min"] = agg["minimum"]
		filters["_max"] = agg["maximum"]
		filters["_days"] = agg["total_data_points"]
		metrics.AggregatedResponses.Inc()
	}

	envelope := response.Assemble(response.Input{
		Source:       req.Source,
		DataType:     dataType,
		Data:         paged,
		TotalRecords: total,
		PageSize:     rules.EffectiveCap(req.Limit, req.VoiceMode, e.maxResults, e.maxVoiceResults),
		Aggregated:   dataType == shape.Aggregated,
		Filters:      filters,
		Freshness:    rules.FreshnessLabel(0),
		Summary:      voice.BuildSummary(req.Source, dataType, len(paged), total, filters),
	})

	metrics.QueryTotal.WithLabelValues(req.Source, "success").Inc()
	metrics.QueryDuration.WithLabelValues(req.Source).Observe(time.Since(start).Seconds())
	metrics.RecordsReturned.WithLabelValues(req.Source).Observe(float64(len(paged)))
	if req.VoiceMode {
		metrics.VoiceModeQueries.Inc()
	}

	return envelope, nil
}

// ExecuteFunction routes an LLM function call to the matching connector,
// runs the pipeline, and records the call. Voice mode defaults to true on
// this path: function calls come from an agent that will narrate the result.
func (e *Engine) ExecuteFunction(ctx context.Context, functionName string, args map[string]any) (*response.Envelope, error) {
	conn, err := e.registry.ByFunction(functionName)
	if err != nil {
		metrics.UnknownFunctionCalls.Inc()
		return nil, err
	}

	callID := uuid.New().String()
	start := time.Now()

	if args == nil {
		args = map[string]any{}
	}

	limit := popLimit(args)
	voiceMode := popBool(args, "voice_mode", true)

	// Every remaining non-nil argument is an externally visible filter on
	// this path, sort and aggregate flags included.
	applied := make(map[string]any, len(args))
	for k, v := range args {
		if v != nil {
			applied[k] = v
		}
	}

	logger.Info("Dispatching function call",
		zap.String("call_id", callID),
		zap.String("function", functionName),
		zap.String("source", conn.Source()),
		zap.Bool("voice_mode", voiceMode),
	)

	envelope, err := e.Execute(ctx, Request{
		Source:    conn.Source(),
		Connector: conn,
		Args:      args,
		Applied:   applied,
		Limit:     limit,
		VoiceMode: voiceMode,
	})
	if err != nil {
		return nil, err
	}

	e.recordCall(callID, functionName, args, envelope, voiceMode, time.Since(start))

	return envelope, nil
}

func (e *Engine) recordCall(callID, functionName string, args map[string]any, envelope *response.Envelope, voiceMode bool, latency time.Duration) {
	if e.callLog == nil {
		return
	}

	argsJSON, err := json.Marshal(args)
	if err != nil {
		argsJSON = []byte("{}")
	}

	record := &models.CallRecord{
		ID:              callID,
		FunctionName:    functionName,
		Arguments:       string(argsJSON),
		Source:          envelope.Metadata.Source,
		DataType:        envelope.Metadata.DataType,
		ReturnedRecords: envelope.Metadata.Pagination.ReturnedRecords,
		TotalRecords:    envelope.Metadata.Pagination.TotalRecords,
		VoiceMode:       voiceMode,
		LatencyMS:       int(latency.Milliseconds()),
		CreatedAt:       time.Now().UTC(),
	}
	if err := e.callLog.InsertCallRecord(record); err != nil {
		logger.Warn("Failed to record call", zap.String("call_id", callID), zap.Error(err))
	}
}

func isAggregated(records []connector.Record) bool {
	if len(records) != 1 {
		return false
	}
	agg, ok := records[0][connector.AggregatedKey].(bool)
	return ok && agg
}

func popLimit(args map[string]any) *int {
	v, ok := args["limit"]
	delete(args, "limit")
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		limit := int(n)
		return &limit
	case int:
		limit := n
		return &limit
	case int64:
		limit := int(n)
		return &limit
	default:
		return nil
	}
}

func popBool(args map[string]any, key string, def bool) bool {
	v, ok := args[key]
	delete(args, key)
	if !ok || v == nil {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

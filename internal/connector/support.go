package connector

import (
	"context"

	"go.uber.org/zap"

	"github.com/universal-data-connector/backend/pkg/logger"
)

const SourceSupport = "support"

// SupportConnector serves help-desk ticket records. Filters: status,
// priority, and a numeric customer_id equality match.
type SupportConnector struct {
	loader Loader
}

func NewSupport(loader Loader) *SupportConnector {
	return &SupportConnector{loader: loader}
}

func (c *SupportConnector) Source() string {
	return SourceSupport
}

func (c *SupportConnector) Fetch(ctx context.Context, args map[string]any) ([]Record, error) {
	status, _ := stringArg(args, "status")
	priority, _ := stringArg(args, "priority")
	customerID, hasCustomerID := numberArg(args, "customer_id")
	sortBy, ok := stringArg(args, "sort_by")
	if !ok {
		sortBy = "created_at"
	}
	sortDesc := boolArg(args, "sort_desc", true)

	logger.Info("Support fetch",
		zap.String("status", status),
		zap.String("priority", priority),
		zap.Bool("customer_id_set", hasCustomerID),
		zap.String("sort_by", sortBy),
		zap.Bool("sort_desc", sortDesc),
	)

	records, err := c.loader.Load(ctx, SourceSupport)
	if err != nil {
		return nil, err
	}

	if status != "" {
		records = filterEqualString(records, "status", status)
	}
	if priority != "" {
		records = filterEqualString(records, "priority", priority)
	}
	if hasCustomerID {
		filtered := records[:0:0]
		for _, r := range records {
			if id, ok := toFloat(r["customer_id"]); ok && id == customerID {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	sortRecords(records, sortBy, sortDesc)

	logger.Info("Support fetch returned records", zap.Int("count", len(records)))
	return records, nil
}

func (c *SupportConnector) Schema() FunctionSchema {
	return FunctionSchema{
		Name: "get_support_tickets",
		Description: "Retrieve support tickets from the help-desk system. " +
			"Use this when the user asks about issues, tickets, bugs, or customer complaints.",
		Parameters: ObjectSchema{
			Type: "object",
			Properties: map[string]ParameterSpec{
				"status": {
					Type:        "string",
					Enum:        []string{"open", "in_progress", "closed"},
					Description: "Filter tickets by their current status.",
				},
				"priority": {
					Type:        "string",
					Enum:        []string{"low", "medium", "high"},
					Description: "Filter tickets by priority.",
				},
				"customer_id": {
					Type:        "integer",
					Description: "Return only tickets for this specific customer.",
				},
				"sort_by": {
					Type:        "string",
					Enum:        []string{"created_at", "updated_at", "priority"},
					Description: "Field to sort results by. Defaults to created_at.",
				},
				"sort_desc": {
					Type:        "boolean",
					Description: "Sort descending (newest first) when true.",
				},
				"limit": {
					Type:        "integer",
					Description: "Maximum number of records to return.",
				},
			},
			Required: []string{},
		},
	}
}

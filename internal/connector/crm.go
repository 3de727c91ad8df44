package connector

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/universal-data-connector/backend/pkg/logger"
)

const SourceCRM = "crm"

// CRMConnector serves customer account records. Filters: status, plan, and a
// case-insensitive substring search on the customer name.
type CRMConnector struct {
	loader Loader
}

func NewCRM(loader Loader) *CRMConnector {
	return &CRMConnector{loader: loader}
}

func (c *CRMConnector) Source() string {
	return SourceCRM
}

func (c *CRMConnector) Fetch(ctx context.Context, args map[string]any) ([]Record, error) {
	status, _ := stringArg(args, "status")
	plan, _ := stringArg(args, "plan")
	nameSearch, _ := stringArg(args, "name_search")
	sortBy, ok := stringArg(args, "sort_by")
	if !ok {
		sortBy = "created_at"
	}
	sortDesc := boolArg(args, "sort_desc", true)

	logger.Info("CRM fetch",
		zap.String("status", status),
		zap.String("plan", plan),
		zap.String("name_search", nameSearch),
		zap.String("sort_by", sortBy),
		zap.Bool("sort_desc", sortDesc),
	)

	records, err := c.loader.Load(ctx, SourceCRM)
	if err != nil {
		return nil, err
	}

	if status != "" {
		records = filterEqualString(records, "status", status)
	}
	if plan != "" {
		records = filterEqualString(records, "plan", plan)
	}
	if nameSearch != "" {
		needle := strings.ToLower(nameSearch)
		filtered := records[:0:0]
		for _, r := range records {
			name, _ := r["name"].(string)
			if strings.Contains(strings.ToLower(name), needle) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	sortRecords(records, sortBy, sortDesc)

	logger.Info("CRM fetch returned records", zap.Int("count", len(records)))
	return records, nil
}

func (c *CRMConnector) Schema() FunctionSchema {
	return FunctionSchema{
		Name: "get_crm_customers",
		Description: "Retrieve customer records from the CRM system. " +
			"Use this when the user asks about customers, accounts, subscriptions, or churn.",
		Parameters: ObjectSchema{
			Type: "object",
			Properties: map[string]ParameterSpec{
				"status": {
					Type:        "string",
					Enum:        []string{"active", "inactive", "churned"},
					Description: "Filter customers by their account status.",
				},
				"plan": {
					Type:        "string",
					Enum:        []string{"free", "starter", "pro", "enterprise"},
					Description: "Filter customers by their subscription plan.",
				},
				"name_search": {
					Type:        "string",
					Description: "Case-insensitive substring to search within customer names.",
				},
				"sort_by": {
					Type:        "string",
					Enum:        []string{"created_at", "name", "mrr_usd"},
					Description: "Field to sort results by. Defaults to created_at.",
				},
				"sort_desc": {
					Type:        "boolean",
					Description: "Sort descending (newest first) when true.",
				},
				"limit": {
					Type:        "integer",
					Description: "Maximum number of records to return. Defaults to 10 for voice contexts.",
				},
			},
			Required: []string{},
		},
	}
}

func filterEqualString(records []Record, field, want string) []Record {
	filtered := records[:0:0]
	for _, r := range records {
		if s, _ := r[field].(string); s == want {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

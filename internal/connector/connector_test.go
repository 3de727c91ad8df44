package connector_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-data-connector/backend/internal/connector"
)

// fakeLoader serves in-memory fixtures, returning a fresh copy on every call
// the way the sqlite store returns fresh scan results.
type fakeLoader struct {
	records map[string][]connector.Record
	err     error
}

func (f *fakeLoader) Load(_ context.Context, source string) ([]connector.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]connector.Record(nil), f.records[source]...), nil
}

func crmFixtures() []connector.Record {
	return []connector.Record{
		{"customer_id": int64(1), "name": "Acme Corp", "status": "active", "plan": "enterprise", "mrr_usd": 4000.0, "created_at": "2026-01-03T10:00:00"},
		{"customer_id": int64(2), "name": "Beta Labs", "status": "churned", "plan": "pro", "mrr_usd": 300.0, "created_at": "2026-01-01T10:00:00"},
		{"customer_id": int64(3), "name": "Gamma Industries", "status": "active", "plan": "pro", "mrr_usd": 250.0, "created_at": "2026-01-05T10:00:00"},
		{"customer_id": int64(4), "name": "acme subsidiaries", "status": "inactive", "plan": "free", "mrr_usd": 0.0, "created_at": "2026-01-02T10:00:00"},
	}
}

func supportFixtures() []connector.Record {
	return []connector.Record{
		{"ticket_id": int64(10), "customer_id": int64(1), "status": "open", "priority": "high", "created_at": "2026-02-01T09:00:00"},
		{"ticket_id": int64(11), "customer_id": int64(2), "status": "closed", "priority": "low", "created_at": "2026-02-02T09:00:00"},
		{"ticket_id": int64(12), "customer_id": int64(1), "status": "in_progress", "priority": "medium", "created_at": "2026-02-03T09:00:00"},
		{"ticket_id": int64(13), "customer_id": int64(3), "status": "open", "priority": "low", "created_at": "2026-02-04T09:00:00"},
	}
}

func analyticsFixtures() []connector.Record {
	return []connector.Record{
		{"metric": "daily_active_users", "date": "2026-03-01", "value": 100.0},
		{"metric": "daily_active_users", "date": "2026-03-02", "value": 200.0},
		{"metric": "daily_active_users", "date": "2026-03-03", "value": 150.0},
		{"metric": "new_signups", "date": "2026-03-01", "value": 12.0},
		{"metric": "new_signups", "date": "2026-03-02", "value": 7.0},
	}
}

func newLoader() *fakeLoader {
	return &fakeLoader{records: map[string][]connector.Record{
		connector.SourceCRM:       crmFixtures(),
		connector.SourceSupport:   supportFixtures(),
		connector.SourceAnalytics: analyticsFixtures(),
	}}
}

func TestCRMDefaultSortNewestFirst(t *testing.T) {
	crm := connector.NewCRM(newLoader())

	got, err := crm.Fetch(context.Background(), map[string]any{})
	require.NoError(t, err)
	require.Len(t, got, 4)

	var ids []int64
	for _, r := range got {
		ids = append(ids, r["customer_id"].(int64))
	}
	assert.Equal(t, []int64{3, 1, 4, 2}, ids)
}

func TestCRMFilters(t *testing.T) {
	crm := connector.NewCRM(newLoader())

	got, err := crm.Fetch(context.Background(), map[string]any{"status": "active"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, "active", r["status"])
	}

	got, err = crm.Fetch(context.Background(), map[string]any{"status": "active", "plan": "pro"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Gamma Industries", got[0]["name"])

	got, err = crm.Fetch(context.Background(), map[string]any{"status": "churned", "plan": "free"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCRMNameSearchCaseInsensitive(t *testing.T) {
	crm := connector.NewCRM(newLoader())

	got, err := crm.Fetch(context.Background(), map[string]any{"name_search": "ACME"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Contains(t, []any{"Acme Corp", "acme subsidiaries"}, r["name"])
	}
}

func TestCRMSortByNumericFieldAscending(t *testing.T) {
	crm := connector.NewCRM(newLoader())

	got, err := crm.Fetch(context.Background(), map[string]any{
		"sort_by":   "mrr_usd",
		"sort_desc": false,
	})
	require.NoError(t, err)
	require.Len(t, got, 4)

	var prev float64 = -1
	for _, r := range got {
		v := r["mrr_usd"].(float64)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestCRMMissingSortFieldKeepsAllRecords(t *testing.T) {
	crm := connector.NewCRM(newLoader())

	got, err := crm.Fetch(context.Background(), map[string]any{"sort_by": "no_such_field"})
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestCRMLoaderErrorPropagates(t *testing.T) {
	loader := &fakeLoader{err: errors.New("db gone")}
	crm := connector.NewCRM(loader)

	_, err := crm.Fetch(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestSupportFilters(t *testing.T) {
	support := connector.NewSupport(newLoader())

	got, err := support.Fetch(context.Background(), map[string]any{"status": "open"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = support.Fetch(context.Background(), map[string]any{"status": "open", "priority": "high"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(10), got[0]["ticket_id"])
}

func TestSupportCustomerIDMatchesAcrossNumericTypes(t *testing.T) {
	support := connector.NewSupport(newLoader())

	// JSON bodies decode integers as float64; stored ids are int64
	got, err := support.Fetch(context.Background(), map[string]any{"customer_id": float64(1)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, int64(1), r["customer_id"])
	}

	got, err = support.Fetch(context.Background(), map[string]any{"customer_id": 3})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(13), got[0]["ticket_id"])
}

func TestSupportDefaultSortNewestFirst(t *testing.T) {
	support := connector.NewSupport(newLoader())

	got, err := support.Fetch(context.Background(), map[string]any{})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, int64(13), got[0]["ticket_id"])
	assert.Equal(t, int64(10), got[3]["ticket_id"])
}

func TestAnalyticsMetricAndDateRangeInclusive(t *testing.T) {
	analytics := connector.NewAnalytics(newLoader())

	got, err := analytics.Fetch(context.Background(), map[string]any{
		"metric":    "daily_active_users",
		"date_from": "2026-03-02",
		"date_to":   "2026-03-03",
		"sort_desc": false,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-03-02", got[0]["date"])
	assert.Equal(t, "2026-03-03", got[1]["date"])
}

func TestAnalyticsDefaultSortNewestFirst(t *testing.T) {
	analytics := connector.NewAnalytics(newLoader())

	got, err := analytics.Fetch(context.Background(), map[string]any{"metric": "daily_active_users"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2026-03-03", got[0]["date"])
	assert.Equal(t, "2026-03-01", got[2]["date"])
}

func TestAnalyticsAggregate(t *testing.T) {
	analytics := connector.NewAnalytics(newLoader())

	got, err := analytics.Fetch(context.Background(), map[string]any{
		"metric":    "daily_active_users",
		"aggregate": true,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)

	summary := got[0]
	assert.Equal(t, true, summary[connector.AggregatedKey])
	assert.Equal(t, "daily_active_users", summary["metric"])
	assert.Equal(t, "2026-03-01", summary["period_start"])
	assert.Equal(t, "2026-03-03", summary["period_end"])
	assert.Equal(t, 150.0, summary["average"])
	assert.Equal(t, 100.0, summary["minimum"])
	assert.Equal(t, 200.0, summary["maximum"])
	assert.Equal(t, 3, summary["total_data_points"])
}

func TestAnalyticsAggregateRoundsToTwoDecimals(t *testing.T) {
	loader := &fakeLoader{records: map[string][]connector.Record{
		connector.SourceAnalytics: {
			{"metric": "churn_rate", "date": "2026-03-01", "value": 1.0},
			{"metric": "churn_rate", "date": "2026-03-02", "value": 2.0},
			{"metric": "churn_rate", "date": "2026-03-03", "value": 2.0},
		},
	}}
	analytics := connector.NewAnalytics(loader)

	got, err := analytics.Fetch(context.Background(), map[string]any{"aggregate": true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1.67, got[0]["average"])
}

func TestAnalyticsAggregateEmptySetSkipped(t *testing.T) {
	analytics := connector.NewAnalytics(newLoader())

	got, err := analytics.Fetch(context.Background(), map[string]any{
		"metric":    "daily_active_users",
		"date_from": "2030-01-01",
		"aggregate": true,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRegistryLookup(t *testing.T) {
	registry := connector.NewRegistry(newLoader())

	bySource, err := registry.BySource("crm")
	require.NoError(t, err)
	assert.Equal(t, "crm", bySource.Source())

	byFunction, err := registry.ByFunction("get_support_tickets")
	require.NoError(t, err)
	assert.Equal(t, "support", byFunction.Source())
}

func TestRegistryUnknownSource(t *testing.T) {
	registry := connector.NewRegistry(newLoader())

	_, err := registry.BySource("inventory")
	require.Error(t, err)

	var unknownSource *connector.UnknownSourceError
	require.ErrorAs(t, err, &unknownSource)
	assert.Equal(t, "inventory", unknownSource.Name)
	assert.Equal(t, []string{"crm", "support", "analytics"}, unknownSource.Valid)
}

func TestRegistryUnknownFunction(t *testing.T) {
	registry := connector.NewRegistry(newLoader())

	_, err := registry.ByFunction("get_weather")
	require.Error(t, err)

	var unknownFunction *connector.UnknownFunctionError
	require.ErrorAs(t, err, &unknownFunction)
	assert.Equal(t, []string{"get_crm_customers", "get_support_tickets", "get_analytics_metrics"}, unknownFunction.Valid)
	assert.Contains(t, unknownFunction.Error(), "get_crm_customers")
}

func TestRegistrySchemasInRegistrationOrder(t *testing.T) {
	registry := connector.NewRegistry(newLoader())

	schemas := registry.Schemas()
	require.Len(t, schemas, 3)
	assert.Equal(t, "get_crm_customers", schemas[0].Name)
	assert.Equal(t, "get_support_tickets", schemas[1].Name)
	assert.Equal(t, "get_analytics_metrics", schemas[2].Name)
	for _, s := range schemas {
		assert.Equal(t, "object", s.Parameters.Type)
		assert.NotEmpty(t, s.Description)
	}
}

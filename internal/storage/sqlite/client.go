package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/universal-data-connector/backend/internal/connector"
	"github.com/universal-data-connector/backend/internal/storage/models"
	"github.com/universal-data-connector/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS customers (
		customer_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		plan TEXT NOT NULL,
		mrr_usd REAL NOT NULL,
		created_at TEXT NOT NULL,
		status TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_customers_status ON customers(status);
	CREATE INDEX IF NOT EXISTS idx_customers_plan ON customers(plan);

	CREATE TABLE IF NOT EXISTS support_tickets (
		ticket_id INTEGER PRIMARY KEY,
		customer_id INTEGER NOT NULL,
		subject TEXT NOT NULL,
		priority TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		status TEXT NOT NULL,
		assigned_agent TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_tickets_status ON support_tickets(status);
	CREATE INDEX IF NOT EXISTS idx_tickets_priority ON support_tickets(priority);
	CREATE INDEX IF NOT EXISTS idx_tickets_customer ON support_tickets(customer_id);

	CREATE TABLE IF NOT EXISTS analytics_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		metric TEXT NOT NULL,
		date TEXT NOT NULL,
		value REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_metrics_metric ON analytics_metrics(metric);
	CREATE INDEX IF NOT EXISTS idx_metrics_date ON analytics_metrics(date);

	CREATE TABLE IF NOT EXISTS call_history (
		id TEXT PRIMARY KEY,
		function_name TEXT NOT NULL,
		arguments TEXT,
		source TEXT NOT NULL,
		data_type TEXT NOT NULL,
		returned_records INTEGER NOT NULL,
		total_records INTEGER NOT NULL,
		voice_mode INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_calls_created ON call_history(created_at);
	CREATE INDEX IF NOT EXISTS idx_calls_function ON call_history(function_name);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// Load returns the full record collection for a source, ordered by primary
// key so repeated loads see an identical order (the stable tie-break the
// sort contract relies on).
func (c *Client) Load(ctx context.Context, source string) ([]connector.Record, error) {
	switch source {
	case connector.SourceCRM:
		return c.loadCustomers(ctx)
	case connector.SourceSupport:
		return c.loadTickets(ctx)
	case connector.SourceAnalytics:
		return c.loadMetrics(ctx)
	default:
		return nil, fmt.Errorf("no backing table for source %q", source)
	}
}

func (c *Client) loadCustomers(ctx context.Context) ([]connector.Record, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT customer_id, name, email, plan, mrr_usd, created_at, status
		FROM customers ORDER BY customer_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}
	defer rows.Close()

	var records []connector.Record
	for rows.Next() {
		var (
			id             int64
			name, email    string
			plan, created  string
			status         string
			mrr            float64
		)
		if err := rows.Scan(&id, &name, &email, &plan, &mrr, &created, &status); err != nil {
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}
		records = append(records, connector.Record{
			"customer_id": id,
			"name":        name,
			"email":       email,
			"plan":        plan,
			"mrr_usd":     mrr,
			"created_at":  created,
			"status":      status,
		})
	}
	return records, rows.Err()
}

func (c *Client) loadTickets(ctx context.Context) ([]connector.Record, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT ticket_id, customer_id, subject, priority, created_at, updated_at, status, assigned_agent
		FROM support_tickets ORDER BY ticket_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets: %w", err)
	}
	defer rows.Close()

	var records []connector.Record
	for rows.Next() {
		var (
			ticketID, customerID       int64
			subject, priority          string
			created, updated, status   string
			agent                      sql.NullString
		)
		if err := rows.Scan(&ticketID, &customerID, &subject, &priority, &created, &updated, &status, &agent); err != nil {
			return nil, fmt.Errorf("failed to scan ticket row: %w", err)
		}
		record := connector.Record{
			"ticket_id":      ticketID,
			"customer_id":    customerID,
			"subject":        subject,
			"priority":       priority,
			"created_at":     created,
			"updated_at":     updated,
			"status":         status,
			"assigned_agent": nil,
		}
		if agent.Valid {
			record["assigned_agent"] = agent.String
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (c *Client) loadMetrics(ctx context.Context) ([]connector.Record, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT metric, date, value FROM analytics_metrics ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load metrics: %w", err)
	}
	defer rows.Close()

	var records []connector.Record
	for rows.Next() {
		var (
			metric, date string
			value        float64
		)
		if err := rows.Scan(&metric, &date, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metric row: %w", err)
		}
		records = append(records, connector.Record{
			"metric": metric,
			"date":   date,
			"value":  value,
		})
	}
	return records, rows.Err()
}

func (c *Client) InsertCallRecord(record *models.CallRecord) error {
	query := `
		INSERT INTO call_history (id, function_name, arguments, source, data_type,
			returned_records, total_records, voice_mode, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	voiceMode := 0
	if record.VoiceMode {
		voiceMode = 1
	}

	_, err := c.db.Exec(
		query,
		record.ID,
		record.FunctionName,
		record.Arguments,
		record.Source,
		record.DataType,
		record.ReturnedRecords,
		record.TotalRecords,
		voiceMode,
		record.LatencyMS,
		record.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert call record: %w", err)
	}

	logger.Debug("Call recorded",
		zap.String("call_id", record.ID),
		zap.String("function", record.FunctionName),
	)

	return nil
}

func (c *Client) GetCallHistory(limit int) ([]models.CallRecord, error) {
	query := `
		SELECT id, function_name, arguments, source, data_type,
			returned_records, total_records, voice_mode, latency_ms, created_at
		FROM call_history
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get call history: %w", err)
	}
	defer rows.Close()

	var records []models.CallRecord
	for rows.Next() {
		var (
			r         models.CallRecord
			voiceMode int
			createdAt int64
		)
		err := rows.Scan(&r.ID, &r.FunctionName, &r.Arguments, &r.Source, &r.DataType,
			&r.ReturnedRecords, &r.TotalRecords, &voiceMode, &r.LatencyMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call row: %w", err)
		}
		r.VoiceMode = voiceMode == 1
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	return records, rows.Err()
}

package sqlite

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/universal-data-connector/backend/pkg/config"
	"github.com/universal-data-connector/backend/pkg/logger"
)

// Mock-data vocabularies. Fixed lists plus a fixed seed keep every generated
// store identical, which keeps tests and repeated queries deterministic.
var (
	firstNames = []string{
		"Alice", "Bob", "Carol", "David", "Eve", "Frank", "Grace", "Henry",
		"Iris", "Jack", "Karen", "Liam", "Mia", "Noah", "Olivia", "Paul",
		"Quinn", "Rachel", "Sam", "Tara",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Martinez",
		"Anderson", "Taylor", "Thomas", "Moore", "Jackson", "Martin", "Lee",
		"Perez", "Thompson", "White", "Harris", "Sanchez", "Clark",
	}
	emailDomains = []string{"gmail.com", "yahoo.com", "outlook.com", "company.io", "corp.net"}

	ticketSubjects = []string{
		"Login page not loading",
		"Cannot export to CSV",
		"Billing discrepancy this month",
		"API returning 500 errors",
		"Password reset email not arriving",
		"Dashboard shows wrong date range",
		"Slow response times on search",
		"Feature request: dark mode",
		"Integration with Salesforce failing",
		"Two-factor auth keeps locking account",
	}

	metricNames = []string{"daily_active_users", "new_signups", "churn_rate", "revenue_usd"}

	customerStatuses = []string{"active", "inactive", "churned"}
	customerPlans    = []string{"free", "starter", "pro", "enterprise"}
	ticketStatuses   = []string{"open", "in_progress", "closed"}
	ticketPriorities = []string{"low", "medium", "high"}
	agents           = []string{"agent_a", "agent_b", "agent_c", ""}
)

// SeedIfEmpty populates the record store with generated data when the
// customers table is empty. The connectors assume data is always loadable,
// so this runs before the server accepts its first query.
func (c *Client) SeedIfEmpty(cfg config.SeedConfig) error {
	var count int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM customers").Scan(&count); err != nil {
		return fmt.Errorf("failed to count customers: %w", err)
	}
	if count > 0 {
		logger.Info("Record store already seeded", zap.Int("customers", count))
		return nil
	}

	logger.Warn("Record store empty, seeding mock data",
		zap.Int("customers", cfg.Customers),
		zap.Int("tickets", cfg.Tickets),
		zap.Int("metric_days", cfg.MetricDays),
	)

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	rng := rand.New(rand.NewSource(cfg.Seed))

	for i := 1; i <= cfg.Customers; i++ {
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]
		domain := emailDomains[rng.Intn(len(emailDomains))]
		created := now.AddDate(0, 0, -rng.Intn(366)).Format("2006-01-02T15:04:05")

		_, err := tx.Exec(`
			INSERT INTO customers (customer_id, name, email, plan, mrr_usd, created_at, status)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i,
			first+" "+last,
			fmt.Sprintf("%s.%s@%s", strings.ToLower(first), strings.ToLower(last), domain),
			customerPlans[rng.Intn(len(customerPlans))],
			round2(rng.Float64()*2000),
			created,
			customerStatuses[rng.Intn(len(customerStatuses))],
		)
		if err != nil {
			return fmt.Errorf("failed to seed customer: %w", err)
		}
	}

	for i := 1; i <= cfg.Tickets; i++ {
		created := now.AddDate(0, 0, -rng.Intn(61))
		updated := created.Add(time.Duration(1+rng.Intn(48)) * time.Hour)

		var agent any
		if a := agents[rng.Intn(len(agents))]; a != "" {
			agent = a
		}

		_, err := tx.Exec(`
			INSERT INTO support_tickets (ticket_id, customer_id, subject, priority, created_at, updated_at, status, assigned_agent)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			i,
			1+rng.Intn(cfg.Customers),
			ticketSubjects[rng.Intn(len(ticketSubjects))],
			ticketPriorities[rng.Intn(len(ticketPriorities))],
			created.Format("2006-01-02T15:04:05"),
			updated.Format("2006-01-02T15:04:05"),
			ticketStatuses[rng.Intn(len(ticketStatuses))],
			agent,
		)
		if err != nil {
			return fmt.Errorf("failed to seed ticket: %w", err)
		}
	}

	for dayOffset := 0; dayOffset < cfg.MetricDays; dayOffset++ {
		date := now.AddDate(0, 0, -dayOffset).Format("2006-01-02")
		for _, metric := range metricNames {
			var value float64
			switch metric {
			case "daily_active_users":
				value = float64(100 + rng.Intn(901))
			case "new_signups":
				value = float64(5 + rng.Intn(146))
			case "churn_rate":
				value = round2(0.5 + rng.Float64()*7.5)
			default:
				value = round2(500 + rng.Float64()*49500)
			}

			_, err := tx.Exec(`
				INSERT INTO analytics_metrics (metric, date, value) VALUES (?, ?, ?)`,
				metric, date, value,
			)
			if err != nil {
				return fmt.Errorf("failed to seed metric: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	logger.Info("Mock data seeded")
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

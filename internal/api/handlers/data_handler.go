package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/universal-data-connector/backend/internal/connector"
	"github.com/universal-data-connector/backend/internal/dispatch"
	"github.com/universal-data-connector/backend/internal/response"
	"github.com/universal-data-connector/backend/pkg/logger"
)

// DataHandler serves the per-source query routes. Each route parses its own
// filters, decides which of them are externally visible, and hands off to
// the pipeline engine.
type DataHandler struct {
	engine *dispatch.Engine
}

func NewDataHandler(engine *dispatch.Engine) *DataHandler {
	return &DataHandler{engine: engine}
}

func (h *DataHandler) GetCRM(c *fiber.Ctx) error {
	status := c.Query("status")
	plan := c.Query("plan")
	nameSearch := c.Query("name_search")
	sortBy := c.Query("sort_by", "created_at")
	sortDesc := c.QueryBool("sort_desc", true)
	voiceMode := c.QueryBool("voice_mode", false)

	limit, err := parseLimit(c)
	if err != nil {
		return badRequest(c, "invalid_limit", err.Error())
	}

	logger.Info("GET /data/crm",
		zap.String("status", status),
		zap.String("plan", plan),
		zap.String("name_search", nameSearch),
		zap.Int("limit", limit),
		zap.Bool("voice_mode", voiceMode),
	)

	conn, err := h.engine.Registry().BySource(connector.SourceCRM)
	if err != nil {
		return serverError(c, err)
	}

	args := map[string]any{
		"status":      status,
		"plan":        plan,
		"name_search": nameSearch,
		"sort_by":     sortBy,
		"sort_desc":   sortDesc,
	}

	applied := map[string]any{}
	if status != "" {
		applied["status"] = status
	}
	if plan != "" {
		applied["plan"] = plan
	}

	envelope, err := h.engine.Execute(c.Context(), dispatch.Request{
		Source:    connector.SourceCRM,
		Connector: conn,
		Args:      args,
		Applied:   applied,
		Limit:     &limit,
		VoiceMode: voiceMode,
	})
	if err != nil {
		return serverError(c, err)
	}

	return c.JSON(envelope)
}

func (h *DataHandler) GetSupport(c *fiber.Ctx) error {
	status := c.Query("status")
	priority := c.Query("priority")
	sortDesc := c.QueryBool("sort_desc", true)
	voiceMode := c.QueryBool("voice_mode", false)

	limit, err := parseLimit(c)
	if err != nil {
		return badRequest(c, "invalid_limit", err.Error())
	}

	args := map[string]any{
		"status":    status,
		"priority":  priority,
		"sort_desc": sortDesc,
	}

	applied := map[string]any{}
	if status != "" {
		applied["status"] = status
	}
	if priority != "" {
		applied["priority"] = priority
	}

	if raw := c.Query("customer_id"); raw != "" {
		customerID, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "invalid_customer_id", "customer_id must be an integer")
		}
		args["customer_id"] = customerID
		applied["customer_id"] = customerID
	}

	logger.Info("GET /data/support",
		zap.String("status", status),
		zap.String("priority", priority),
		zap.Int("limit", limit),
		zap.Bool("voice_mode", voiceMode),
	)

	conn, err := h.engine.Registry().BySource(connector.SourceSupport)
	if err != nil {
		return serverError(c, err)
	}

	envelope, err := h.engine.Execute(c.Context(), dispatch.Request{
		Source:    connector.SourceSupport,
		Connector: conn,
		Args:      args,
		Applied:   applied,
		Limit:     &limit,
		VoiceMode: voiceMode,
	})
	if err != nil {
		return serverError(c, err)
	}

	return c.JSON(envelope)
}

func (h *DataHandler) GetAnalytics(c *fiber.Ctx) error {
	metric := c.Query("metric")
	dateFrom := c.Query("date_from")
	dateTo := c.Query("date_to")
	aggregate := c.QueryBool("aggregate", false)
	voiceMode := c.QueryBool("voice_mode", false)

	limit, err := parseLimit(c)
	if err != nil {
		return badRequest(c, "invalid_limit", err.Error())
	}

	logger.Info("GET /data/analytics",
		zap.String("metric", metric),
		zap.String("date_from", dateFrom),
		zap.String("date_to", dateTo),
		zap.Bool("aggregate", aggregate),
		zap.Int("limit", limit),
		zap.Bool("voice_mode", voiceMode),
	)

	conn, err := h.engine.Registry().BySource(connector.SourceAnalytics)
	if err != nil {
		return serverError(c, err)
	}

	args := map[string]any{
		"metric":    metric,
		"date_from": dateFrom,
		"date_to":   dateTo,
		"aggregate": aggregate,
	}

	applied := map[string]any{}
	if metric != "" {
		applied["metric"] = metric
	}
	if dateFrom != "" {
		applied["date_from"] = dateFrom
	}
	if dateTo != "" {
		applied["date_to"] = dateTo
	}

	envelope, err := h.engine.Execute(c.Context(), dispatch.Request{
		Source:    connector.SourceAnalytics,
		Connector: conn,
		Args:      args,
		Applied:   applied,
		Limit:     &limit,
		VoiceMode: voiceMode,
	})
	if err != nil {
		return serverError(c, err)
	}

	return c.JSON(envelope)
}

// GetGeneric dispatches by source name for callers that address sources
// directly instead of the named routes. No filters beyond limit/voice_mode.
func (h *DataHandler) GetGeneric(c *fiber.Ctx) error {
	source := c.Params("source")
	voiceMode := c.QueryBool("voice_mode", false)

	limit, err := parseLimit(c)
	if err != nil {
		return badRequest(c, "invalid_limit", err.Error())
	}

	conn, err := h.engine.Registry().BySource(source)
	if err != nil {
		var unknown *connector.UnknownSourceError
		if errors.As(err, &unknown) {
			return c.Status(fiber.StatusNotFound).JSON(response.ErrorBody{
				Error:  "unknown_source",
				Detail: unknown.Error(),
			})
		}
		return serverError(c, err)
	}

	envelope, err := h.engine.Execute(c.Context(), dispatch.Request{
		Source:    source,
		Connector: conn,
		Args:      map[string]any{},
		Applied:   map[string]any{},
		Limit:     &limit,
		VoiceMode: voiceMode,
	})
	if err != nil {
		return serverError(c, err)
	}

	return c.JSON(envelope)
}

func parseLimit(c *fiber.Ctx) (int, error) {
	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > 100 {
		return 0, errors.New("limit must be between 1 and 100")
	}
	return limit, nil
}

func badRequest(c *fiber.Ctx, kind, detail string) error {
	return c.Status(fiber.StatusBadRequest).JSON(response.ErrorBody{
		Error:  kind,
		Detail: detail,
	})
}

func serverError(c *fiber.Ctx, err error) error {
	logger.Error("Failed to process data query", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(response.ErrorBody{
		Error:  "internal_error",
		Detail: "Failed to process query",
	})
}

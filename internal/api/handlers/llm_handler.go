package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/universal-data-connector/backend/internal/connector"
	"github.com/universal-data-connector/backend/internal/dispatch"
	"github.com/universal-data-connector/backend/internal/llm"
	"github.com/universal-data-connector/backend/internal/response"
	"github.com/universal-data-connector/backend/internal/storage/models"
	"github.com/universal-data-connector/backend/pkg/logger"
)

// CallHistory lists recent dispatched calls; the sqlite store implements it.
type CallHistory interface {
	GetCallHistory(limit int) ([]models.CallRecord, error)
}

// LLMHandler serves the function-calling surface: the catalog, the dispatch
// endpoint, the call history, and the optional in-process chat orchestrator.
type LLMHandler struct {
	engine  *dispatch.Engine
	history CallHistory
	chat    *llm.Client
}

// NewLLMHandler wires the handler; chat may be nil when no LLM API key is
// configured.
func NewLLMHandler(engine *dispatch.Engine, history CallHistory, chat *llm.Client) *LLMHandler {
	return &LLMHandler{engine: engine, history: history, chat: chat}
}

// ListFunctions returns every connector schema in OpenAI function-calling
// format so an agent can populate its tools list at session start.
func (h *LLMHandler) ListFunctions(c *fiber.Ctx) error {
	schemas := h.engine.Registry().Schemas()
	logger.Info("LLM functions listed", zap.Int("count", len(schemas)))

	return c.JSON(fiber.Map{
		"functions": schemas,
		"usage_note": "Call POST /llm/call with function_name + arguments to execute any of these functions. " +
			"All responses follow the standard envelope with a voice_summary field.",
	})
}

type functionCallRequest struct {
	FunctionName string         `json:"function_name"`
	Arguments    map[string]any `json:"arguments"`
}

// Call executes a function call as produced by an LLM's tool-use output.
func (h *LLMHandler) Call(c *fiber.Ctx) error {
	var req functionCallRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Request body must be JSON with function_name and arguments")
	}
	if req.FunctionName == "" {
		return badRequest(c, "missing_function_name", "function_name is required")
	}

	envelope, err := h.engine.ExecuteFunction(c.Context(), req.FunctionName, req.Arguments)
	if err != nil {
		var unknown *connector.UnknownFunctionError
		if errors.As(err, &unknown) {
			return c.Status(fiber.StatusBadRequest).JSON(response.ErrorBody{
				Error:  "unknown_function",
				Detail: unknown.Error(),
			})
		}
		logger.Error("Function call failed", zap.String("function", req.FunctionName), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(response.ErrorBody{
			Error:  "internal_error",
			Detail: "Failed to execute function call",
		})
	}

	return c.JSON(envelope)
}

// History returns recent dispatched calls, newest first.
func (h *LLMHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 200 {
		return badRequest(c, "invalid_limit", "limit must be between 1 and 200")
	}

	records, err := h.history.GetCallHistory(limit)
	if err != nil {
		return serverError(c, err)
	}

	history := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		history = append(history, fiber.Map{
			"id":               r.ID,
			"function_name":    r.FunctionName,
			"arguments":        r.Arguments,
			"source":           r.Source,
			"data_type":        r.DataType,
			"returned_records": r.ReturnedRecords,
			"total_records":    r.TotalRecords,
			"voice_mode":       r.VoiceMode,
			"latency_ms":       r.LatencyMS,
			"created_at":       r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	return c.JSON(fiber.Map{"history": history})
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// Chat runs one user message through the LLM with the function catalog as
// tools, dispatching any tool calls through the engine.
func (h *LLMHandler) Chat(c *fiber.Ctx) error {
	if h.chat == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response.ErrorBody{
			Error:  "chat_disabled",
			Detail: "No LLM API key is configured",
		})
	}

	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Request body must be JSON with a message field")
	}
	if req.Message == "" {
		return badRequest(c, "missing_message", "message is required")
	}

	result, err := h.chat.Chat(c.Context(), req.Message)
	if err != nil {
		logger.Error("Chat orchestration failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(response.ErrorBody{
			Error:  "llm_error",
			Detail: "The language model request failed",
		})
	}

	return c.JSON(result)
}

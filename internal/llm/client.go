// Package llm is the optional in-process orchestration layer: it forwards a
// user message to the model with the function catalog as tools, executes the
// tool calls the model asks for through the dispatch engine, and returns the
// model's final spoken reply.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/universal-data-connector/backend/internal/dispatch"
	"github.com/universal-data-connector/backend/internal/response"
	"github.com/universal-data-connector/backend/pkg/config"
	"github.com/universal-data-connector/backend/pkg/logger"
	"github.com/universal-data-connector/backend/pkg/retry"
)

// Bounded tool loop: the model gets at most this many rounds of tool calls
// before we return whatever it last said.
const maxToolRounds = 3

const systemPrompt = "You are a voice assistant with access to CRM, support ticket, and analytics data. " +
	"Use the provided functions to answer questions about customers, tickets, and metrics. " +
	"Each function response includes a voice_summary you can read out verbatim. " +
	"Keep answers to one or two short spoken sentences."

type Client struct {
	client      *openai.Client
	engine      *dispatch.Engine
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	retryConfig retry.Config
}

type ChatResult struct {
	Reply string         `json:"reply"`
	Calls []ExecutedCall `json:"calls"`
}

// ExecutedCall records one tool call the model made during the conversation
// turn, with the envelope it received back.
type ExecutedCall struct {
	Function  string             `json:"function"`
	Arguments map[string]any     `json:"arguments"`
	Response  *response.Envelope `json:"response,omitempty"`
	Error     string             `json:"error,omitempty"`
}

func NewClient(cfg config.LLMConfig, engine *dispatch.Engine) *Client {
	retryConfig := retry.DefaultConfig()
	retryConfig.Logger = logger.GetLogger()

	logger.Info("LLM client initialized", zap.String("model", cfg.Model))

	return &Client{
		client:      openai.NewClient(cfg.APIKey),
		engine:      engine,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     time.Duration(cfg.TimeoutSec) * time.Second,
		retryConfig: retryConfig,
	}
}

func (c *Client) Chat(ctx context.Context, message string) (*ChatResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: message},
	}

	result := &ChatResult{Calls: []ExecutedCall{}}

	for round := 0; round <= maxToolRounds; round++ {
		resp, err := c.complete(ctx, messages)
		if err != nil {
			return nil, err
		}

		msg := resp.Choices[0].Message
		messages = append(messages, msg)

		if len(msg.ToolCalls) == 0 || round == maxToolRounds {
			result.Reply = msg.Content
			return result, nil
		}

		for _, toolCall := range msg.ToolCalls {
			messages = append(messages, c.executeToolCall(ctx, toolCall, result))
		}
	}

	return result, nil
}

func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (*openai.ChatCompletionResponse, error) {
	var result *openai.ChatCompletionResponse

	err := retry.Do(ctx, c.retryConfig, func() error {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
			Tools:       c.tools(),
		})
		if err != nil {
			return fmt.Errorf("failed to create completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("completion returned no choices")
		}

		logger.Debug("LLM completion generated",
			zap.Int("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		)

		result = &resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Client) tools() []openai.Tool {
	schemas := c.engine.Registry().Schemas()
	tools := make([]openai.Tool, 0, len(schemas))
	for _, schema := range schemas {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionDefinition{
				Name:        schema.Name,
				Description: schema.Description,
				Parameters:  schema.Parameters,
			},
		})
	}
	return tools
}

// executeToolCall dispatches one tool call and renders its outcome as the
// tool message fed back to the model.
func (c *Client) executeToolCall(ctx context.Context, toolCall openai.ToolCall, result *ChatResult) openai.ChatCompletionMessage {
	call := ExecutedCall{Function: toolCall.Function.Name}

	var args map[string]any
	if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
		call.Error = fmt.Sprintf("invalid arguments: %v", err)
	} else {
		call.Arguments = args
		envelope, err := c.engine.ExecuteFunction(ctx, toolCall.Function.Name, args)
		if err != nil {
			call.Error = err.Error()
		} else {
			call.Response = envelope
		}
	}

	result.Calls = append(result.Calls, call)

	var content string
	if call.Error != "" {
		body, _ := json.Marshal(response.ErrorBody{Error: "call_failed", Detail: call.Error})
		content = string(body)
	} else {
		body, _ := json.Marshal(call.Response)
		content = string(body)
	}

	return openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Content:    content,
		ToolCallID: toolCall.ID,
	}
}

package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
	gopenai "github.com/sashabaranov/go-openai"
)

// ErrAPI marks failures of the chat call itself (transport, status, empty choices).
var ErrAPI = errors.New("llm api")

// ExtractFields implements llm.FieldExtractor over chat/completions.
func (c *Client) ExtractFields(ctx context.Context, text string) (llm.Record, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"max_tokens", c.cfg.MaxTokens,
		"text_len", len(text),
	)

	req := gopenai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleSystem, Content: llm.SystemPrompt},
			{Role: gopenai.ChatMessageRoleUser, Content: llm.BuildUserPrompt(text)},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, fmt.Errorf("%w: %v", ErrAPI, describe(err))
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, fmt.Errorf("%w: no choices in response", ErrAPI)
	}

	content := resp.Choices[0].Message.Content
	rec, raw, err := llm.ParseRecord(content)
	if err != nil {
		c.logger.Error("llm.extract.parse_failed",
			"req_id", rid, "error", err, "content_len", len(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, err
	}

	if vErr := llm.ValidateInvoice(raw); vErr != nil {
		c.logger.Warn("llm.extract.schema_mismatch",
			"req_id", rid, "error", vErr,
		)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"fields", len(rec),
		"vendor", rec["Vendor Name"],
		"invoice_number", rec["Invoice Number"],
		"total", rec["Total Amount"],
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, raw, nil
}

// Extract implements llm.Extractor. Every failure becomes an error record.
func (c *Client) Extract(ctx context.Context, text string) llm.Record {
	rec, _, err := c.ExtractFields(ctx, text)
	if err == nil {
		return rec
	}
	return llm.ErrorRecord(errorMessage(err))
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, llm.ErrNoJSON):
		return "No valid JSON found in response"
	case errors.Is(err, llm.ErrInvalidJSON):
		return err.Error()
	case errors.Is(err, ErrAPI):
		return "LLM API error: " + strings.TrimPrefix(err.Error(), ErrAPI.Error()+": ")
	default:
		return "LLM API error: " + err.Error()
	}
}

func describe(err error) string {
	var apiErr *gopenai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	return err.Error()
}

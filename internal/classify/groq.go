package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultEndpoint = "https://api.groq.com/openai/v1/chat/completions"
	defaultModel    = "llama3-8b-8192"
)

// Config configures the Groq chat-completions client.
type Config struct {
	APIKey   string
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// Groq classifies screenshots through the Groq OpenAI-compatible
// chat-completions endpoint. It implements Client.
type Groq struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func NewGroq(cfg Config, logger *slog.Logger) *Groq {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Groq{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (g *Groq) CheckScreenshot(ctx context.Context, ocrText, contextLabel string) Verdict {
	raw, err := g.complete(ctx, screenshotPrompt(ocrText, contextLabel), 0.1, 150)
	if err != nil {
		g.logger.Error("classifier call failed", "context", contextLabel, "error", err)
		return Verdict{Error: true, Message: fmt.Sprintf("Error analyzing OCR text: %v", err)}
	}

	var v Verdict
	if err := decodeInto(raw, verdictSchema, &v); err != nil {
		g.logger.Error("classifier response unparsable", "context", contextLabel, "error", err, "raw", truncate(raw, 200))
		return Verdict{
			Error:   true,
			Message: fmt.Sprintf("Failed to parse LLM response as JSON: %v. Raw response: %s", err, truncate(raw, 200)),
		}
	}
	return v
}

func (g *Groq) CheckFinalState(ctx context.Context, ocrText string) FinalVerdict {
	raw, err := g.complete(ctx, finalStatePrompt(ocrText), 0.1, 200)
	if err != nil {
		g.logger.Error("final-state classifier call failed", "error", err)
		return FinalVerdict{Error: true, Message: fmt.Sprintf("Error analyzing final state: %v", err)}
	}

	var v FinalVerdict
	if err := decodeInto(raw, finalVerdictSchema, &v); err != nil {
		g.logger.Error("final-state response unparsable", "error", err, "raw", truncate(raw, 200))
		return FinalVerdict{
			Error:   true,
			Message: fmt.Sprintf("Failed to parse LLM response as JSON: %v. Raw response: %s", err, truncate(raw, 200)),
		}
	}
	return v
}

func (g *Groq) Summarize(ctx context.Context, stages map[string]string) Summary {
	raw, err := g.complete(ctx, summaryPrompt(stages), 0.2, 1024)
	if err != nil {
		g.logger.Error("summary call failed", "error", err)
		return Summary{
			Analysis:        fmt.Sprintf("Error during analysis: %v", err),
			Troubleshooting: "Please check the logs for more information.",
		}
	}

	var s Summary
	if err := decodeInto(raw, summarySchema, &s); err != nil {
		g.logger.Error("summary response unparsable", "error", err, "raw", truncate(raw, 200))
		return Summary{
			Analysis:        fmt.Sprintf("Error during analysis: Failed to parse LLM response as JSON: %v", err),
			Troubleshooting: "Check the logs for the raw LLM response and refine the prompt to ensure valid JSON output.",
		}
	}
	return s
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete issues one blocking round-trip. No retry: a transport failure
// degrades to a fail-closed verdict at the call site.
func (g *Groq) complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       g.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("completion endpoint returned status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decoding completion envelope: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

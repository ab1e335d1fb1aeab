package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ludo-technologies/ariscan/domain"
	"github.com/ludo-technologies/ariscan/internal/config"
)

// systemInstruction constrains the model to explain, never re-score
const systemInstruction = `You explain an already-computed Application Readiness Index (ARI) score for a source repository.
Rules:
- Never invent findings beyond the supplied metrics.
- Never recompute, adjust, or second-guess the score or its risk status.
- Respond with a single JSON object and nothing else, using exactly these keys:
  "summary" (string),
  "top_risks" (array of strings),
  "why_score_is_low_or_high" (array of strings),
  "improvement_suggestions" (array of strings).`

// OpenAIExplanationService implements domain.ExplanationService with a
// chat-completion call. Strictly advisory: every failure mode yields nil,
// never an error to the pipeline.
type OpenAIExplanationService struct {
	client *openai.Client
	cfg    *config.ExplanationConfig
}

// NewOpenAIExplanationService creates an explanation service. With no API
// key configured the service is inert and every Explain call returns nil.
func NewOpenAIExplanationService(cfg *config.ExplanationConfig) *OpenAIExplanationService {
	svc := &OpenAIExplanationService{cfg: cfg}
	if cfg.APIKey == "" {
		return svc
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	svc.client = openai.NewClientWithConfig(clientConfig)
	return svc
}

// Explain asks the model for structured commentary on the score. Returns nil
// on any failure: missing credentials, transport errors, empty or non-JSON
// responses.
func (s *OpenAIExplanationService) Explain(ctx context.Context, score domain.ScoreResult, ec domain.ExplanationContext) *domain.Explanation {
	if s.client == nil || !s.cfg.Enabled {
		slog.Debug("explanation skipped", "configured", s.client != nil, "enabled", s.cfg.Enabled)
		return nil
	}

	timeout := time.Duration(s.cfg.TimeoutSeconds) * time.Second
	explainCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(explainCtx, openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(score, ec)},
		},
	})
	if err != nil {
		slog.Debug("explanation call failed", "error", err)
		return nil
	}
	if len(resp.Choices) == 0 {
		slog.Debug("explanation response had no choices")
		return nil
	}

	var explanation domain.Explanation
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &explanation); err != nil {
		slog.Debug("explanation response was not valid JSON", "error", err)
		return nil
	}
	return &explanation
}

// buildUserPrompt templates the score, metrics and repository context
func buildUserPrompt(score domain.ScoreResult, ec domain.ExplanationContext) string {
	return fmt.Sprintf(`Explain this Application Readiness Index result.

ARI score: %d (out of 100)
Risk status: %s

Metrics:
- lint errors: %d
- lint warnings: %d
- critical dependency vulnerabilities: %d
- high dependency vulnerabilities: %d
- lint tool completed: %t

Repository context:
- declares a test script: %t
- lint counts are a substituted penalty (lint tool could not run): %t`,
		score.ARIScore, score.Status,
		score.Metrics.LintErrors, score.Metrics.LintWarnings,
		score.Metrics.CriticalVulns, score.Metrics.HighVulns,
		!score.Metrics.LintFailed,
		ec.HasTests, ec.LintFailed)
}

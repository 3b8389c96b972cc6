// Package assistant wraps the generative-text API with role-specific
// system instructions and bounded retry.
package assistant

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vantage-os/vantage-cli/internal/resilience"
	"github.com/vantage-os/vantage-cli/pkg/gemini"
)

// Role selects the system instruction for a generation call.
type Role string

const (
	RoleGeneral   Role = "general"
	RolePolitical Role = "political"
	RolePolicy    Role = "policy"
	RoleWriter    Role = "writer"
)

// analyzeClamp bounds pasted document text fed to AnalyzeDocument.
const analyzeClamp = 5000

var systemPrompts = map[Role]string{
	RoleGeneral:   "You are Vantage, a legislative Chief of Staff. Be professional, strategic, and concise.",
	RolePolitical: "You are a political strategist. Focus on public perception, polling impact, and media narrative.",
	RolePolicy:    "You are a legislative analyst. Focus on statutory interpretation, fiscal impact, and legal nuance. Use provided document text to answer questions.",
	RoleWriter:    "You are a legislative speechwriter. Draft clear, persuasive text in the member's voice.",
}

// systemPrompt resolves a role to its instruction; unknown roles fall back
// to general.
func systemPrompt(role Role) string {
	if p, ok := systemPrompts[role]; ok {
		return p
	}
	return systemPrompts[RoleGeneral]
}

// Gateway sends prompts to the generative-text API. Every call is retried
// up to the configured attempt budget with exponential backoff; after the
// budget is spent the last error is returned, and callers surface it as
// "assistant unavailable" rather than an empty answer.
type Gateway struct {
	client gemini.Client
	retry  resilience.RetryConfig
}

// New creates a Gateway. maxAttempts <= 0 selects 3; backoff <= 0 selects
// a 1s base delay, doubling each attempt.
func New(client gemini.Client, maxAttempts int, backoff time.Duration) *Gateway {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Gateway{
		client: client,
		retry: resilience.RetryConfig{
			MaxAttempts:    maxAttempts,
			InitialBackoff: backoff,
			Multiplier:     2.0,
			// The API surfaces overload as plain HTTP failures; every
			// error is worth the bounded retry.
			ShouldRetry: func(error) bool { return true },
			OnRetry:     resilience.RetryLogger("gemini", "generate"),
		},
	}
}

// Generate sends the prompt with the role's system instruction.
func (g *Gateway) Generate(ctx context.Context, prompt string, role Role) (string, error) {
	text, err := resilience.DoVal(ctx, g.retry, func(ctx context.Context) (string, error) {
		return g.client.GenerateContent(ctx, gemini.NewGenerateRequest(prompt, systemPrompt(role)))
	})
	if err != nil {
		zap.L().Warn("assistant: generation failed after retries",
			zap.String("role", string(role)),
			zap.Error(err),
		)
		return "", eris.Wrap(err, "assistant: generate")
	}
	return text, nil
}

// AnalyzeDocument runs the committee-prep analysis over pasted document
// text: executive summary, fiscal risks, and hearing questions.
func (g *Gateway) AnalyzeDocument(ctx context.Context, text string) (string, error) {
	if len(text) > analyzeClamp {
		text = text[:analyzeClamp]
	}
	prompt := "Analyze this legislative document content: \"" + text + "\"\n" +
		"1. Executive Summary (2 sentences).\n" +
		"2. Fiscal Risks for the state.\n" +
		"3. 3 Strategic Questions for the Committee Hearing."
	return g.Generate(ctx, prompt, RolePolicy)
}

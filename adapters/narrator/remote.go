package narrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"wayfarer/internal/logging"
	"wayfarer/internal/persona"
	"wayfarer/internal/sim"
)

const defaultRemoteModel = "gpt-4o-mini"

// RemoteNarrator rewrites the template draft through an OpenAI-compatible
// chat endpoint. Calls are rate limited here so the simulation core never
// carries a limiter.
type RemoteNarrator struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// RemoteOption configures a RemoteNarrator.
type RemoteOption func(*RemoteNarrator)

// WithModel overrides the chat model.
func WithModel(model string) RemoteOption {
	return func(n *RemoteNarrator) { n.model = model }
}

// WithRateLimit sets requests per second and burst for outbound calls.
func WithRateLimit(rps float64, burst int) RemoteOption {
	return func(n *RemoteNarrator) { n.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewRemoteNarrator builds a narrator talking to the OpenAI API with the
// given key. Defaults: gpt-4o-mini, one request per second.
func NewRemoteNarrator(apiKey string, opts ...RemoteOption) (*RemoteNarrator, error) {
	if apiKey == "" {
		return nil, errors.New("narrator: api key required")
	}
	n := &RemoteNarrator{
		client:  openai.NewClient(apiKey),
		model:   defaultRemoteModel,
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		logger:  logging.New("narrator"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

func (n *RemoteNarrator) Narrate(ctx context.Context, p persona.Profile, tr *sim.Trace) (string, error) {
	draft, err := TemplateNarrator{}.Narrate(ctx, p, tr)
	if err != nil {
		return "", err
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("narrator rate limit: %w", err)
	}

	n.logger.Debug("rewriting narrative", "session", tr.SessionID, "model", n.model)
	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: n.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(p)},
			{Role: openai.ChatMessageRoleUser, Content: draft},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("narrator completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("narrator: empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func systemPrompt(p persona.Profile) string {
	var b strings.Builder
	b.WriteString("You rewrite a navigation log as the inner monologue of the visitor who lived it. ")
	b.WriteString("Keep one line per input line and keep every fact (clicks, screens, outcome) intact. ")
	fmt.Fprintf(&b, "The visitor is %q: openness %.1f, conscientiousness %.1f, neuroticism %.1f, %s risk appetite, %s experience. ",
		p.Name, p.Openness, p.Conscientiousness, p.Neuroticism, p.RiskAppetite, p.Experience)
	fmt.Fprintf(&b, "Write in a %s register.", p.Communication)
	return b.String()
}

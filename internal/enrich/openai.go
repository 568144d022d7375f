// # internal/enrich/openai.go
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are a senior software engineer reviewing the blast radius of a code change.
You are given one changed module and one module that transitively depends on it.
Respond with ONLY a JSON object, no markdown fences, with exactly these keys:
  "reason": one sentence, why the affected module is impacted,
  "potential_issue": one sentence, the most likely failure mode,
  "risk": one of "LOW", "MEDIUM", "HIGH".`

// OpenAI calls a chat-completion endpoint to justify each impact pair.
// Any compatible endpoint works; BaseURL covers local gateways.
type OpenAI struct {
	client *openai.Client
	model  string
}

type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, errors.New("enrich: missing API key")
	}
	if opts.Model == "" {
		return nil, errors.New("enrich: missing model name")
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  opts.Model,
	}, nil
}

func (o *OpenAI) Explain(ctx context.Context, req Request) (Enrichment, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(req)},
		},
		MaxTokens:   256,
		Temperature: 0.1,
	})
	if err != nil {
		return Enrichment{}, o.fail(req, err)
	}
	if len(resp.Choices) == 0 {
		return Enrichment{}, o.fail(req, errors.New("empty completion"))
	}

	enr, err := parseCompletion(resp.Choices[0].Message.Content)
	if err != nil {
		return Enrichment{}, o.fail(req, err)
	}
	return enr, nil
}

func (o *OpenAI) fail(req Request, err error) error {
	return &Error{
		ChangedModule:  req.ChangedModule,
		AffectedModule: req.AffectedModule,
		Err:            err,
	}
}

func userPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Changed module: %s\n", req.ChangedModule)
	fmt.Fprintf(&b, "Affected module: %s (dependency distance %d)\n", req.AffectedModule, req.Depth)
	fmt.Fprintf(&b, "Structural risk estimate: %s\n", req.StructuralRisk)
	if req.DiffContext != "" {
		fmt.Fprintf(&b, "Change summary: %s\n", req.DiffContext)
	}
	return b.String()
}

// parseCompletion is tolerant of models that wrap JSON in markdown fences
// despite being told not to.
func parseCompletion(content string) (Enrichment, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var enr Enrichment
	if err := json.Unmarshal([]byte(content), &enr); err != nil {
		return Enrichment{}, fmt.Errorf("malformed completion: %w", err)
	}

	enr.Risk = strings.ToUpper(strings.TrimSpace(enr.Risk))
	switch enr.Risk {
	case "LOW", "MEDIUM", "HIGH":
	default:
		return Enrichment{}, fmt.Errorf("completion carries unknown risk %q", enr.Risk)
	}
	if enr.Reason == "" {
		return Enrichment{}, errors.New("completion missing reason")
	}
	return enr, nil
}

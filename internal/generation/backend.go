package generation

import (
	"context"
	"strings"

	"reelpress/internal/config"
	"reelpress/internal/services"
	"reelpress/internal/services/box"
	"reelpress/internal/services/llm"
)

// AIClient is the content platform's AI surface.
type AIClient interface {
	AskAI(ctx context.Context, req box.AskRequest) (string, error)
	ExtractStructured(ctx context.Context, fileID, content, templateKey string) (map[string]any, error)
}

// BoxBackend routes calls to the content platform's AI agents.
type BoxBackend struct {
	Client      AIClient
	FileID      string
	TemplateKey string
	Agents      map[Call]string
}

// NewBoxBackend builds a BoxBackend from the generation settings.
func NewBoxBackend(client AIClient, cfg config.Generation) *BoxBackend {
	return &BoxBackend{
		Client:      client,
		FileID:      cfg.AIFileID,
		TemplateKey: cfg.MetadataTemplateKey,
		Agents: map[Call]string{
			CallBlog:     cfg.BlogAgentID,
			CallTweet:    cfg.TweetAgentID,
			CallLinkedIn: cfg.LinkedInAgentID,
			CallYouTube:  cfg.YouTubeAgentID,
		},
	}
}

// Ask implements Backend.
func (b *BoxBackend) Ask(ctx context.Context, call Call, content string) (string, error) {
	answer, err := b.Client.AskAI(ctx, box.AskRequest{
		Prompt:  PromptFor(call),
		Content: content,
		FileID:  b.FileID,
		AgentID: b.Agents[call],
	})
	if err != nil {
		return "", wrapCall(call, err)
	}
	return answer, nil
}

// Extract implements Backend.
func (b *BoxBackend) Extract(ctx context.Context, content string) (map[string]any, error) {
	fields, err := b.Client.ExtractStructured(ctx, b.FileID, content, b.TemplateKey)
	if err != nil {
		return nil, wrapCall(CallMetadata, err)
	}
	return fields, nil
}

// Completer is the chat model surface.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMBackend routes calls to a chat model.
type LLMBackend struct {
	Client Completer
}

// Ask implements Backend.
func (b *LLMBackend) Ask(ctx context.Context, call Call, content string) (string, error) {
	text, err := b.Client.Complete(ctx, writerSystemPrompt, userPrompt(PromptFor(call), content))
	if err != nil {
		return "", wrapCall(call, err)
	}
	return strings.TrimSpace(text), nil
}

// Extract implements Backend.
func (b *LLMBackend) Extract(ctx context.Context, content string) (map[string]any, error) {
	raw, err := b.Client.CompleteJSON(ctx, metadataSystemPrompt, "Transcription:\n"+content)
	if err != nil {
		return nil, wrapCall(CallMetadata, err)
	}
	fields := map[string]any{}
	if err := llm.DecodeLLMJSON(raw, &fields); err != nil {
		return nil, wrapCall(CallMetadata, err)
	}
	return fields, nil
}

func userPrompt(instruction, content string) string {
	return instruction + "\n\nTranscription:\n" + content
}

// NewBackend selects the configured backend. boxClient is used for the box
// backend and may be nil otherwise.
func NewBackend(cfg *config.Config, boxClient AIClient) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Generation.Backend)) {
	case config.GenerationBackendBox, "":
		if boxClient == nil {
			return nil, services.Wrap(services.ErrConfiguration, "generation", "backend", "content client required for box backend", nil)
		}
		return NewBoxBackend(boxClient, cfg.Generation), nil
	case config.GenerationBackendLLM:
		llmCfg := cfg.GetLLM()
		return &LLMBackend{Client: llm.NewClient(llm.Config{
			APIKey:         llmCfg.APIKey,
			BaseURL:        llmCfg.BaseURL,
			Model:          llmCfg.Model,
			Referer:        llmCfg.Referer,
			Title:          llmCfg.Title,
			TimeoutSeconds: llmCfg.TimeoutSeconds,
		})}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "generation", "backend", "unknown backend "+cfg.Generation.Backend, nil)
	}
}

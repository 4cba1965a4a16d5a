package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/linebot-relay/internal/config"
)

// DefaultPersona is the system instruction used when none is configured.
const DefaultPersona = "你是一位講繁體中文的 LINE 皮卡丘，請用皮卡丘的語氣自然回應使用者。"

// FallbackReply replaces any reply that could not be generated.
const FallbackReply = "AI 回應失敗，請稍後再試～"

// ErrEmptyReply is returned when the model answers with no content.
var ErrEmptyReply = errors.New("model returned an empty reply")

// Service generates persona replies through an eino chain.
type Service struct {
	chatModel model.ChatModel
	persona   string
	timeout   time.Duration
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the Ark-backed generation service.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, cfg.Persona, cfg.Timeout)
}

// NewServiceWithModel compiles the prompt chain around an existing chat model.
// An empty persona falls back to DefaultPersona; timeout <= 0 disables the per-call deadline.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel, persona string, timeout time.Duration) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if strings.TrimSpace(persona) == "" {
		persona = DefaultPersona
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		persona:   persona,
		timeout:   timeout,
		chain:     runnable,
	}, nil
}

// Persona returns the system instruction sent with every prompt.
func (s *Service) Persona() string {
	return s.persona
}

// Generate sends prompt to the model under the configured persona.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	response, err := s.chain.Invoke(ctx, map[string]any{
		"system": s.persona,
		"query":  prompt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	content := strings.TrimSpace(response.Content)
	if content == "" {
		return "", ErrEmptyReply
	}

	log.Printf("[ai] generated reply, length=%d", len(content))
	return content, nil
}

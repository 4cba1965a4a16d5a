package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	reply string
	err   error
	seen  []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.seen = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

func TestGenerateSendsPersonaAndPrompt(t *testing.T) {
	fake := &fakeChatModel{reply: "  皮卡皮卡！ "}
	svc, err := NewServiceWithModel(context.Background(), fake, "", time.Second)
	require.NoError(t, err)

	got, err := svc.Generate(context.Background(), "使用者說：「{hello}」，請自然回覆。")
	require.NoError(t, err)
	assert.Equal(t, "皮卡皮卡！", got)

	require.Len(t, fake.seen, 2)
	assert.Equal(t, schema.System, fake.seen[0].Role)
	assert.Equal(t, DefaultPersona, fake.seen[0].Content)
	assert.Equal(t, schema.User, fake.seen[1].Role)
	assert.Equal(t, "使用者說：「{hello}」，請自然回覆。", fake.seen[1].Content)
}

func TestGenerateCustomPersona(t *testing.T) {
	fake := &fakeChatModel{reply: "ok"}
	svc, err := NewServiceWithModel(context.Background(), fake, "你是一隻貓。", 0)
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "你是一隻貓。", svc.Persona())
	assert.Equal(t, "你是一隻貓。", fake.seen[0].Content)
}

func TestGenerateModelError(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("quota exceeded")}
	svc, err := NewServiceWithModel(context.Background(), fake, "", time.Second)
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "hi")
	assert.Error(t, err)
}

func TestGenerateEmptyReply(t *testing.T) {
	fake := &fakeChatModel{reply: "   "}
	svc, err := NewServiceWithModel(context.Background(), fake, "", time.Second)
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestNewServiceWithModelRequiresModel(t *testing.T) {
	_, err := NewServiceWithModel(context.Background(), nil, "", 0)
	assert.Error(t, err)
}

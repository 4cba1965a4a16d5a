package webhook

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	linewebhook "github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/zhouzirui/linebot-relay/internal/model/event"
	"github.com/zhouzirui/linebot-relay/internal/model/reply"
	"github.com/zhouzirui/linebot-relay/internal/service/line"
	"github.com/zhouzirui/linebot-relay/pkg/utils"
)

// Router composes replies for an inbound event.
type Router interface {
	Route(ctx context.Context, ev event.Inbound) []reply.Message
}

// Deliverer sends composed replies back to the conversation.
type Deliverer interface {
	Reply(replyToken string, msgs []reply.Message) error
}

// Handler LINE webhook 的 HTTP 处理器
type Handler struct {
	channelSecret string
	router        Router
	delivery      Deliverer
}

// New 创建 webhook 处理器
func New(channelSecret string, router Router, delivery Deliverer) *Handler {
	return &Handler{
		channelSecret: channelSecret,
		router:        router,
		delivery:      delivery,
	}
}

// RegisterRoutes 注册 webhook 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/callback", h.handleCallback)
}

// handleCallback 校验签名后逐个处理事件，全部处理完才返回 200。
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	cb, err := linewebhook.ParseRequest(h.channelSecret, r)
	if err != nil {
		if errors.Is(err, linewebhook.ErrInvalidSignature) {
			log.Printf("[webhook] rejected request with invalid signature")
			utils.RespondError(w, http.StatusBadRequest, "invalid signature")
			return
		}
		log.Printf("[webhook] failed to parse request: %v", err)
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	for _, raw := range cb.Events {
		ev, ok := line.DecodeEvent(raw)
		if !ok {
			continue
		}

		msgs := h.router.Route(r.Context(), ev)
		if err := h.delivery.Reply(ev.ReplyToken, msgs); err != nil {
			log.Printf("[webhook] failed to deliver reply sender=%s: %v", ev.SenderID, err)
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

package history

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/linebot-relay/internal/model/history"
	"github.com/zhouzirui/linebot-relay/pkg/utils"
)

// Log is the history store exposed by the maintenance endpoints.
type Log interface {
	ListAll(ctx context.Context) []history.Entry
	ClearAll(ctx context.Context)
	Subscribe(buffer int) (<-chan history.Entry, func())
}

// Handler 对话记录维护接口
type Handler struct {
	log      Log
	upgrader websocket.Upgrader
}

// New 创建对话记录处理器
func New(log Log) *Handler {
	return &Handler{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册对话记录相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/history", h.handleList)
	r.Delete("/history", h.handleClear)
	r.Get("/history/stream", h.handleStream)
}

// handleList 返回所有用户的对话记录
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.log.ListAll(r.Context()))
}

// handleClear 清空所有对话记录
func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	h.log.ClearAll(r.Context())
	utils.RespondMessage(w, http.StatusOK, "All conversation history deleted.")
}

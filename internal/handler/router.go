package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/linebot-relay/internal/config"
	"github.com/zhouzirui/linebot-relay/internal/handler/history"
	"github.com/zhouzirui/linebot-relay/internal/handler/webhook"
	middlewarePkg "github.com/zhouzirui/linebot-relay/internal/middleware"
	"github.com/zhouzirui/linebot-relay/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(cfg *config.Config, relaySvc webhook.Router, delivery webhook.Deliverer, historyLog history.Log) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	webhook.New(cfg.LINE.ChannelSecret, relaySvc, delivery).RegisterRoutes(r)

	if cfg.History.Enabled {
		r.Group(func(maint chi.Router) {
			maint.Use(middlewarePkg.BearerToken(cfg.History.Token))
			history.New(historyLog).RegisterRoutes(maint)
		})
		if cfg.History.Token == "" {
			log.Println("[router] history endpoints enabled without HISTORY_TOKEN")
		}
	} else {
		log.Println("[router] history endpoints disabled, set HISTORY_ENABLED=true to expose them")
	}

	return r
}

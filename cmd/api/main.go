package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/linebot-relay/internal/config"
	"github.com/zhouzirui/linebot-relay/internal/handler"
	"github.com/zhouzirui/linebot-relay/internal/service/ai"
	"github.com/zhouzirui/linebot-relay/internal/service/geo"
	"github.com/zhouzirui/linebot-relay/internal/service/history"
	"github.com/zhouzirui/linebot-relay/internal/service/line"
	"github.com/zhouzirui/linebot-relay/internal/service/relay"
	"github.com/zhouzirui/linebot-relay/internal/service/weather"
)

var version = "dev"

func main() {
	var configPath, envFile string

	root := &cobra.Command{
		Use:           "linebot-relay",
		Short:         "LINE webhook relay with generated replies and weather lookups",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath, envFile)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("RELAY_CONFIG"), "path to an optional YAML config file")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Printf("error: %v", err)
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, configPath, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf("warning: failed to load %s: %v", envFile, err)
			log.Println("continuing with system environment variables only")
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// A nil generator makes the relay answer with the fallback text.
	var generator relay.Generator
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
		} else {
			generator = aiService
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("Ark 凭证未配置，所有生成回复将使用备用文字")
	}

	if cfg.Weather.APIKey == "" {
		log.Println("warning: CWA_API_KEY is empty, weather lookups will fail")
	}

	historyService := history.NewService()
	relayService := relay.NewService(
		generator,
		weather.NewService(cfg.Weather),
		geo.NewService(cfg.Geocoder),
		historyService,
		cfg.Weather.DefaultCity,
	)

	lineClient, err := line.NewClient(cfg.LINE.ChannelAccessToken)
	if err != nil {
		return err
	}

	router := handler.NewRouter(cfg, relayService, lineClient, historyService)
	return startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("LINE relay listening on %s", serverCfg.Addr)
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

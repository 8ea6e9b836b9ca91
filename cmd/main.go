package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pagechat-backend/internal/browser"
	"pagechat-backend/internal/config"
	"pagechat-backend/internal/extractor"
	"pagechat-backend/internal/handler"
	"pagechat-backend/internal/model"
	"pagechat-backend/internal/service"
	"pagechat-backend/internal/storage"
	"pagechat-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	chatModel, err := model.NewChatModel(ctx, cfg.LLM)
	if err != nil {
		logger.Fatalf("Failed to create chat model: %v", err)
	}

	tabs, err := browser.New(cfg.Browser, cfg.Extract.MaxHTMLBytes)
	if err != nil {
		logger.Fatalf("Failed to start browser: %v", err)
	}
	defer tabs.Close()

	ext := extractor.New(tabs, storage.NewMemoryContentCache(), cfg.Extract)
	go ext.Run(ctx)

	chatService := service.NewChatService(
		chatModel,
		storage.NewMemoryTranscript(),
		storage.NewFIFOResponseCache(cfg.Chat.ResponseCacheSize),
		cfg,
	)
	defer chatService.Close()
	pageService := service.NewPageService(tabs, ext, chatService)

	if !logger.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(cfg,
		handler.NewPageHandler(pageService, chatService),
		handler.NewChatHandler(chatService, pageService),
	)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		// streams end when ctx is cancelled on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.WithFields(logger.Fields{
			"port":     cfg.Server.Port,
			"provider": cfg.LLM.Provider,
			"model":    cfg.LLM.Model,
			"browser":  cfg.Browser.Mode,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}

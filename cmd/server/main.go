package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"spell_fulfillment_v1_202601/internal/config"
	"spell_fulfillment_v1_202601/internal/controller"
	"spell_fulfillment_v1_202601/internal/model"
	"spell_fulfillment_v1_202601/internal/repository"
	"spell_fulfillment_v1_202601/internal/router"
	"spell_fulfillment_v1_202601/internal/service"
	"spell_fulfillment_v1_202601/internal/task"
	"spell_fulfillment_v1_202601/pkg/database"
	"spell_fulfillment_v1_202601/pkg/etsy"
)

func main() {
	// 1. 配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	// 2. 数据库
	db, err := database.InitDB(cfg.DatabaseURL, &model.EtsyToken{}, &model.Order{})
	if err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}

	// 3. 组装依赖（所有实例由这里显式持有，不使用包级单例）
	tokenRepo := repository.NewTokenRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	oauthService := service.NewOAuthService(service.OAuthConfig{
		APIKey:      cfg.Etsy.APIKey,
		RedirectURI: cfg.Etsy.RedirectURI,
		Scopes:      cfg.Etsy.Scopes,
	}, tokenRepo)

	limiter := etsy.NewRateLimiter()
	client := etsy.NewClient(etsy.ClientConfig{APIKey: cfg.Etsy.APIKey}, limiter, oauthService)
	syncService := service.NewOrderSyncService(orderRepo, tokenRepo, client)

	// 4. 后台轮询
	pollTask := task.NewOrderPollTask(syncService, cfg.Etsy.PollIntervalMinutes)
	pollTask.Start()

	// 5. HTTP 服务
	r := gin.Default()
	etsyCtl := controller.NewEtsyController(oauthService, syncService, limiter)
	router.InitRoutes(r, etsyCtl)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP 服务启动失败: %v", err)
		}
	}()
	log.Printf("[Server] 服务已启动，监听 %s", cfg.ListenAddr)

	// 6. 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Server] 正在关闭...")
	pollTask.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] HTTP 服务关闭异常: %v", err)
	}
	log.Println("[Server] 已退出")
}

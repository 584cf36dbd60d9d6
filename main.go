package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-web/api"
	"github.com/hoshinonyaruko/snake-web/config"
	"github.com/hoshinonyaruko/snake-web/logger"
	"github.com/hoshinonyaruko/snake-web/memimg"
	"github.com/hoshinonyaruko/snake-web/render"
	"github.com/hoshinonyaruko/snake-web/session"
	"github.com/hoshinonyaruko/snake-web/snake"
	"github.com/hoshinonyaruko/snake-web/sqlite"
)

func main() {
	configPath := flag.String("config", "./config.json", "path of the JSON config file")
	logLevel := flag.String("log-level", "", "override log_level from the config (debug, info, warn, error)")
	flag.Parse()

	// 初始化配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	if err := logger.InitLogger(level); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	appLog := logger.GetLogger()

	settings, err := cfg.ToSettings()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	EnsureFoldersExist(cfg.StaticDir)

	// 会话持久化，db_path 为空时不保存
	var store session.Store
	if cfg.DBPath != "" {
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		if ids, err := db.List(); err != nil {
			appLog.Warn("list stored sessions", "error", err)
		} else {
			appLog.Info("database opened", "path", cfg.DBPath, "stored_sessions", len(ids))
		}
		store = db
	}

	// 每个会话最新一帧保存在内存中
	frames := memimg.NewStore()
	hub := session.NewHub(session.HubOptions{
		Settings: settings,
		Store:    store,
		Logger:   appLog,
		Renderers: func(id string, s snake.Settings) []snake.Renderer {
			return []snake.Renderer{render.NewImageRenderer(frames, id, s.CellSize, appLog)}
		},
		OnDelete: frames.Delete,
	})
	defer hub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 检测配置文件并热更新，只影响之后创建的会话
	go func() {
		err := config.Watch(ctx, *configPath, func(next *config.AppConfig) {
			s, err := next.ToSettings()
			if err == nil {
				err = hub.SetSettings(s)
			}
			if err != nil {
				appLog.Warn("ignoring reloaded config", "error", err)
			}
		})
		if err != nil {
			appLog.Warn("config watcher stopped", "error", err)
		}
	}()

	router := gin.Default()
	api.Register(router, hub, frames, cfg.StaticDir)

	// 从配置单例读取端口 监听
	srv := &http.Server{Addr: ":" + config.GetConfigValue("port").(string), Handler: router}
	go func() {
		appLog.Info("listening", "addr", srv.Addr, "selfpath", cfg.SelfPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("server shutdown", "error", err)
	}
}

// EnsureFoldersExist 检查并创建静态文件目录
func EnsureFoldersExist(folders ...string) {
	for _, folder := range folders {
		if _, err := os.Stat(folder); os.IsNotExist(err) {
			// 文件夹不存在，尝试创建它
			if err := os.MkdirAll(folder, 0755); err != nil {
				log.Fatalf("Failed to create %s directory: %s", folder, err)
			}
			logger.GetLogger().Info("created directory", "path", folder)
		}
	}
}

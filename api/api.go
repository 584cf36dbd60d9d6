package api

import (
	"bytes"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-web/memimg"
	"github.com/hoshinonyaruko/snake-web/session"
	"github.com/hoshinonyaruko/snake-web/structs"
)

// Register 挂载全部路由
func Register(router *gin.Engine, hub *session.Hub, frames *memimg.Store, staticDir string) {
	// 浏览器客户端
	router.StaticFile("/", filepath.Join(staticDir, "index.html"))
	router.Static("/static", staticDir)
	// 开始新游戏
	router.GET("/new-game", NewGame(hub))
	// 处理玩家改变方向
	router.GET("/update-direction", UpdateDirection(hub))
	router.GET("/restart", Restart(hub))
	router.GET("/tap", Tap(hub))
	router.GET("/state", State(hub))
	// 返回最新一帧 PNG
	router.GET("/render-map", RenderMapHandler(hub, frames))
	// 删除会话
	router.GET("/delete-map", DeleteMapHandler(hub))
	router.GET("/ws", WebSocket(hub))
}

// lookupSession 按查询参数 session 取出会话，失败时已写好响应
func lookupSession(c *gin.Context, hub *session.Hub) (*session.Session, bool) {
	id := c.Query("session")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: session"})
		return nil, false
	}
	s, err := hub.Get(id)
	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to load session"})
		return nil, false
	}
	return s, true
}

func NewGame(hub *session.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := hub.Create()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to create game"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session_id": s.ID(), "state": s.Snapshot()})
	}
}

func UpdateDirection(hub *session.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 先校验方向，避免为无效请求恢复会话
		raw := c.Query("direction")
		if raw == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: direction"})
			return
		}
		dir, err := structs.ParseDirection(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		s, ok := lookupSession(c, hub)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"accepted": s.RequestDirection(dir)})
	}
}

func Restart(hub *session.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, hub)
		if !ok {
			return
		}
		s.Restart()
		c.JSON(http.StatusOK, gin.H{"restarted": true})
	}
}

// Tap 只在游戏结束后第一次点击时重新开始
func Tap(hub *session.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, hub)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"restarted": s.Tap()})
	}
}

func State(hub *session.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, hub)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, s.Snapshot())
	}
}

func RenderMapHandler(hub *session.Hub, frames *memimg.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, hub)
		if !ok {
			return
		}
		c.Header("Cache-Control", "no-store")

		// format=jpeg 时转码，默认直接返回缓存的 PNG
		switch c.DefaultQuery("format", "png") {
		case "png":
			frame, found := frames.Get(s.ID())
			if !found {
				c.JSON(http.StatusNotFound, gin.H{"error": "No frame rendered yet"})
				return
			}
			c.Data(http.StatusOK, "image/png", frame)
		case "jpeg", "jpg":
			img, found := frames.Image(s.ID())
			if !found {
				c.JSON(http.StatusNotFound, gin.H{"error": "No frame rendered yet"})
				return
			}
			var buf bytes.Buffer
			if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to encode frame"})
				return
			}
			c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported format, use png or jpeg"})
		}
	}
}

func DeleteMapHandler(hub *session.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Query("session")
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: session"})
			return
		}
		err := hub.Delete(id)
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
	}
}

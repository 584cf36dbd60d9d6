package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hoshinonyaruko/snake-web/input"
	"github.com/hoshinonyaruko/snake-web/session"
	"github.com/hoshinonyaruko/snake-web/snake"
	"github.com/hoshinonyaruko/snake-web/structs"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// wsMessage 客户端和服务端共用的消息格式
type wsMessage struct {
	Type  string            `json:"type"`
	Key   string            `json:"key,omitempty"`
	State *structs.Snapshot `json:"state,omitempty"`
}

// wsClient 一个浏览器连接：既是会话的渲染器，也是把按键送回会话的输入源
type wsClient struct {
	conn *websocket.Conn
	log  *slog.Logger
	send chan []byte
	done chan struct{}
	once sync.Once

	ctrl snake.Controller
}

func newWSClient(conn *websocket.Conn, log *slog.Logger) *wsClient {
	return &wsClient{
		conn: conn,
		log:  log,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *wsClient) Attach(ctrl snake.Controller) { c.ctrl = ctrl }

// Render 不阻塞会话，客户端跟不上时丢帧
func (c *wsClient) Render(snap structs.Snapshot) {
	data, err := json.Marshal(wsMessage{Type: "state", State: &snap})
	if err != nil {
		c.log.Error("encode state", "error", err)
		return
	}
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.log.Debug("client lagging, frame dropped")
	}
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *wsClient) writeLoop() {
	defer c.close()
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) readLoop() {
	defer c.close()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		c.handle(msg)
	}
}

func (c *wsClient) handle(msg wsMessage) {
	if c.ctrl == nil {
		return
	}
	switch msg.Type {
	case "key":
		if dir, ok := input.ParseKey(msg.Key); ok {
			c.ctrl.RequestDirection(dir)
		}
	case "tap":
		c.ctrl.Tap()
	case "restart":
		c.ctrl.Restart()
	}
}

// WebSocket 推送会话的每一帧并接收输入
func WebSocket(hub *session.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, hub)
		if !ok {
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("websocket upgrade", "session", s.ID(), "error", err)
			return
		}

		client := newWSClient(conn, slog.With("session", s.ID(), "remote", c.ClientIP()))
		client.Attach(s)
		remove := s.AddRenderer(client)
		defer remove()

		go client.writeLoop()
		client.readLoop()
	}
}

// Package chat 实现消息核心的实时分发层
// conn_manager.go
// 核心职责：WebSocket 连接生命周期管理
// 1. 建立 WebSocket 连接 (Upgrade)
// 2. 封装 UserConn 对象，管理读写协程 (Read/Write Loop)
// 3. 入站只接受输入提示信令；消息的发送/编辑等变更一律走 HTTP 接口，
//    WebSocket 仅承担事件下发与轻量信令
package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"edumsg_server/pkg/constants"
)

// UserConn 单个用户的 WebSocket 连接
type UserConn struct {
	Conn *websocket.Conn
	// Uuid 连接所属用户（从已验证的令牌取得，不信任客户端声明）
	Uuid string
	// SendBack 事件下发通道，Write 协程消费
	SendBack chan []byte

	// 关闭状态：trySend 与 shutdown 互斥，保证已关闭的通道上不再发送
	mu     sync.Mutex
	closed bool
}

// trySend 非阻塞投递一条下发数据
// 连接已关闭或写缓冲已满时返回 false；绝不在已关闭的通道上发送
func (c *UserConn) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.SendBack <- data:
		return true
	default:
		return false
	}
}

// shutdown 关闭下发通道，Write 协程随之退出
// 幂等：Read 协程退出与主动登出可能各触发一次注销
func (c *UserConn) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.SendBack)
}

// clientFrame 入站信令帧
// 目前只有输入提示一种；其余类型忽略
type clientFrame struct {
	Type           string `json:"type"`
	ConversationId string `json:"conversationId"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	// 检查连接的Origin头
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Read 读协程：接收前端信令并转为事件发布
func (c *UserConn) Read(broker EventBroker) {
	zap.L().Info("ws read goroutine start", zap.String("user_id", c.Uuid))
	defer func() {
		broker.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	for {
		_, jsonMessage, err := c.Conn.ReadMessage() // 阻塞状态
		if err != nil {
			zap.L().Info("ws connection closed", zap.String("user_id", c.Uuid), zap.Error(err))
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(jsonMessage, &frame); err != nil {
			zap.L().Error(err.Error())
			continue
		}

		switch frame.Type {
		case EventTyping:
			if frame.ConversationId == "" {
				continue
			}
			// SenderId 取连接归属用户，分发层会校验会话成员资格
			event := Event{
				Type:           EventTyping,
				ConversationId: frame.ConversationId,
				SenderId:       c.Uuid,
			}
			data, err := event.Encode()
			if err != nil {
				zap.L().Error(err.Error())
				continue
			}
			if err := broker.Publish(context.Background(), data); err != nil {
				zap.L().Error(err.Error())
			}
		default:
			// 其他类型入站帧一律忽略
		}
	}
}

// Write 写协程：从下发通道读取事件并写入 WebSocket
func (c *UserConn) Write() {
	zap.L().Info("ws write goroutine start", zap.String("user_id", c.Uuid))
	for data := range c.SendBack { // 阻塞状态
		if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			zap.L().Error(err.Error())
			return // 直接断开websocket
		}
	}
}

// NewClientInit 建立 WebSocket 连接并注册到事件代理
// userId 必须来自已通过认证中间件校验的令牌
func NewClientInit(c *gin.Context, userId string, broker EventBroker) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error(err.Error())
		return
	}
	client := &UserConn{
		Conn:     conn,
		Uuid:     userId,
		SendBack: make(chan []byte, constants.CHANNEL_SIZE),
	}
	broker.RegisterClient(client)
	go client.Read(broker)
	go client.Write()
	zap.L().Info("ws连接成功", zap.String("user_id", userId))
}

// ClientLogout 主动断开某用户的连接（登出、会话被吊销等场景）
// 下发通道由分发层在把连接移出注册表之后关闭，这里只提交注销并断开
// 底层连接；在注销生效前关闭通道会让并发中的投递写到已关闭的通道上
func ClientLogout(userId string, broker EventBroker) error {
	client := broker.GetClient(userId)
	if client == nil {
		return nil
	}
	broker.UnregisterClient(client)
	if err := client.Conn.Close(); err != nil {
		zap.L().Error(err.Error())
		return err
	}
	return nil
}

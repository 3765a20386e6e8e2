package service

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"game-crash-bet/server/constant"
)

// ClientConn 注册表需要的连接写入能力,*websocket.Conn天然满足
type ClientConn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
}

// Client 单个ws连接,UserId为0表示未认证(只收广播,不能下注)
type Client struct {
	Conn     ClientConn
	WriteMux sync.Mutex // websocket连接不支持并发写
	UserId   int64
	Username string
}

func (c *Client) write(msg []byte) error {
	c.WriteMux.Lock()
	defer c.WriteMux.Unlock()

	c.Conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.Conn.WriteMessage(websocket.TextMessage, msg)
}

// Registry key is conn token(远程地址),连接跨局存活,参与记录不跨局
type Registry struct {
	Mutex   sync.Mutex
	Clients map[string]*Client

	Logger *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		Clients: make(map[string]*Client, 0),
		Logger:  logger,
	}
}

func (r *Registry) ConnOnline(token string, conn ClientConn) {
	r.Mutex.Lock()
	defer r.Mutex.Unlock()

	r.Clients[token] = &Client{Conn: conn}
}

// Authenticate 绑定连接与账号,成功后定向推送余额并广播在线人数
func (r *Registry) Authenticate(token string, userId int64, username string) bool {
	r.Mutex.Lock()
	client, ok := r.Clients[token]
	if !ok {
		r.Mutex.Unlock()
		return false
	}
	client.UserId = userId
	client.Username = username
	r.Mutex.Unlock()

	r.Logger.Info("socket authenticated", zap.String("token", token), zap.String("username", username))
	r.BroadcastPlayerCount()
	return true
}

// ConnOffline 断开连接,若已认证则广播在线人数变更
func (r *Registry) ConnOffline(token string) {
	r.Mutex.Lock()
	client, ok := r.Clients[token]
	delete(r.Clients, token)
	r.Mutex.Unlock()

	if ok && client.UserId > 0 {
		r.BroadcastPlayerCount()
	}
}

// AuthenticatedUser 连接对应的账号ID,未认证返回false
func (r *Registry) AuthenticatedUser(token string) (int64, bool) {
	r.Mutex.Lock()
	defer r.Mutex.Unlock()

	client, ok := r.Clients[token]
	if !ok || client.UserId <= 0 {
		return 0, false
	}
	return client.UserId, true
}

// OnlineCount 已认证连接数
func (r *Registry) OnlineCount() int {
	r.Mutex.Lock()
	defer r.Mutex.Unlock()

	count := 0
	for token := range r.Clients {
		if r.Clients[token].UserId > 0 {
			count++
		}
	}
	return count
}

// Broadcast 广播消息通知所有连接(含未认证旁观者)
func (r *Registry) Broadcast(msg []byte) {
	r.Mutex.Lock()
	clients := make([]*Client, 0, len(r.Clients))
	for token := range r.Clients {
		clients = append(clients, r.Clients[token])
	}
	r.Mutex.Unlock()

	for index := range clients {
		if err := clients[index].write(msg); err != nil {
			r.Logger.Debug("broadcast write error", zap.Error(err))
		}
	}
}

// SendToken 发送消息->指定连接
func (r *Registry) SendToken(token string, msg []byte) {
	r.Mutex.Lock()
	client, ok := r.Clients[token]
	r.Mutex.Unlock()

	if !ok {
		return
	}
	if err := client.write(msg); err != nil {
		r.Logger.Debug("targeted write error", zap.String("token", token), zap.Error(err))
	}
}

// SendUserId 发送消息->指定用户的全部连接
func (r *Registry) SendUserId(userId int64, msg []byte) {
	r.Mutex.Lock()
	clients := make([]*Client, 0)
	for token := range r.Clients {
		if r.Clients[token].UserId == userId {
			clients = append(clients, r.Clients[token])
		}
	}
	r.Mutex.Unlock()

	for index := range clients {
		clients[index].write(msg)
	}
}

func (r *Registry) BroadcastPlayerCount() {
	countMsg := PlayerCountMessage{Count: r.OnlineCount()}
	r.Broadcast(countMsg.ToJsonStr(constant.EVENT_PLAYER_COUNT))
}

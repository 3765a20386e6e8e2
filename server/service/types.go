package service

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// ReceiveMsg 客户端请求消息
type ReceiveMsg struct {
	Type          int     `json:"type"`                    // 消息类型
	Token         string  `json:"token,omitempty"`         // 认证JWT
	Amount        float64 `json:"amount,omitempty"`        // 下注/提款金额(两位小数)
	TransactionId string  `json:"transactionId,omitempty"` // 充值交易ID
	UpiId         string  `json:"upiId,omitempty"`         // 提款UPI账号
}

type Message struct {
	MsgType int    `json:"msgType"` // 消息类型
	MsgId   string `json:"msgId"`   // 消息id,uuid全局唯一标识
}

func (m *Message) ToJsonStr(msgType int) []byte {
	m.MsgId = strings.ReplaceAll(uuid.New().String(), "-", "")
	m.MsgType = msgType
	marshal, _ := json.Marshal(m)
	return marshal
}

func newMessage(msgType int) Message {
	return Message{MsgType: msgType, MsgId: strings.ReplaceAll(uuid.New().String(), "-", "")}
}

// GameStateMessage 阶段变更:计时阶段带剩余时长,飞行阶段带当前倍数
type GameStateMessage struct {
	Message
	State      int     `json:"state"`                // 游戏阶段
	Duration   int64   `json:"duration,omitempty"`   // 剩余时长(毫秒)
	Multiplier float64 `json:"multiplier,omitempty"` // 当前倍数
}

func (g *GameStateMessage) ToJsonStr(msgType int) []byte {
	g.Message = newMessage(msgType)
	marshal, _ := json.Marshal(g)
	return marshal
}

type MultiplierMessage struct {
	Message
	Multiplier float64 `json:"multiplier"` // 当前倍数
}

func (m *MultiplierMessage) ToJsonStr(msgType int) []byte {
	m.Message = newMessage(msgType)
	marshal, _ := json.Marshal(m)
	return marshal
}

type HistoryMessage struct {
	Message
	History []float64 `json:"history"` // 最近崩盘倍数,最新在前
}

func (h *HistoryMessage) ToJsonStr(msgType int) []byte {
	h.Message = newMessage(msgType)
	marshal, _ := json.Marshal(h)
	return marshal
}

type PlayerCountMessage struct {
	Message
	Count int `json:"count"` // 在线已认证人数
}

func (p *PlayerCountMessage) ToJsonStr(msgType int) []byte {
	p.Message = newMessage(msgType)
	marshal, _ := json.Marshal(p)
	return marshal
}

type BalanceMessage struct {
	Message
	NewBalance float64 `json:"newBalance"` // 最新余额(两位小数)
}

func (b *BalanceMessage) ToJsonStr(msgType int) []byte {
	b.Message = newMessage(msgType)
	marshal, _ := json.Marshal(b)
	return marshal
}

// BetMessage 下注确认,Amount为已接受的下注金额
type BetMessage struct {
	Message
	Amount float64 `json:"amount"`
}

func (b *BetMessage) ToJsonStr(msgType int) []byte {
	b.Message = newMessage(msgType)
	marshal, _ := json.Marshal(b)
	return marshal
}

// CashOutMessage 提现确认,倍数+原始下注金额
type CashOutMessage struct {
	Message
	Multiplier float64 `json:"multiplier"`
	Amount     float64 `json:"amount"`
}

func (c *CashOutMessage) ToJsonStr(msgType int) []byte {
	c.Message = newMessage(msgType)
	marshal, _ := json.Marshal(c)
	return marshal
}

// TransferResultMessage 充值/提款申请受理结果
type TransferResultMessage struct {
	Message
	Success bool   `json:"success"`
	Pending bool   `json:"pending,omitempty"`
	Msg     string `json:"message"`
}

func (t *TransferResultMessage) ToJsonStr(msgType int) []byte {
	t.Message = newMessage(msgType)
	marshal, _ := json.Marshal(t)
	return marshal
}

type ErrorMessage struct {
	Message
	ErrorMsg string `json:"message"` // 错误消息内容
}

func (d *ErrorMessage) ToJsonStr(msgType int) []byte {
	d.Message = newMessage(msgType)
	marshal, _ := json.Marshal(d)
	return marshal
}

package websocket

import (
	"sync"

	"github.com/nicemins/connecto-backend/pkg/logger"
)

// 실시간 매칭 이벤트 이름
const (
	// client → server
	EventMatchStart  = "match:start"
	EventMatchCancel = "match:cancel"

	// server → client
	EventMatchSuccess   = "match:success"
	EventMatchError     = "match:error"
	EventMatchCancelled = "match:cancelled"
)

// EventHandler 클라이언트 이벤트를 처리하는 쪽 (매칭 소켓 서비스)
type EventHandler interface {
	OnMatchStart(userID string)
	OnMatchCancel(userID string)
	OnDisconnect(userID string)
}

// Hub WebSocket 연결 관리 및 사용자별 메시지 전송
type Hub struct {
	// 사용자별 연결 저장 (userID -> *Client)
	clients map[string]*Client
	mu      sync.RWMutex

	// 등록/해제 채널
	register   chan *Client
	unregister chan *Client

	handler EventHandler
}

// Message WebSocket 메시지
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// MatchSuccessMessage 매칭 성공 알림
type MatchSuccessMessage struct {
	SessionID string `json:"sessionId"`
	ChannelID string `json:"channelId"`
}

// MatchErrorMessage 매칭 실패 알림
type MatchErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MatchCancelledMessage 매칭 취소 확인
type MatchCancelledMessage struct {
	Success bool `json:"success"`
}

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetHandler 이벤트 핸들러 등록 (Run 호출 전에 설정)
func (h *Hub) SetHandler(handler EventHandler) {
	h.handler = handler
}

// Run Hub 실행
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// registerClient 클라이언트 등록
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// 기존 연결이 있으면 닫기
	if oldClient, exists := h.clients[client.userID]; exists {
		close(oldClient.send)
		logger.Info("Replaced existing WebSocket connection", "userId", client.userID)
	}

	h.clients[client.userID] = client
	logger.Info("WebSocket client registered",
		"userId", client.userID,
		"totalClients", len(h.clients),
	)
}

// unregisterClient 클라이언트 해제
// 같은 사용자의 새 연결이 이미 등록된 경우를 건드리지 않도록 포인터를 비교한다.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, exists := h.clients[client.userID]; exists && current == client {
		delete(h.clients, client.userID)
		close(client.send)
		logger.Info("WebSocket client unregistered",
			"userId", client.userID,
			"totalClients", len(h.clients),
		)
	}
}

// isCurrent 해당 클라이언트가 현재 등록된 연결인지 포인터로 확인
func (h *Hub) isCurrent(client *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[client.userID] == client
}

// IsConnected 사용자의 연결 존재 여부
func (h *Hub) IsConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.clients[userID]
	return exists
}

// SendToUser 특정 사용자에게 메시지 전송
// 연결이 없거나 전송 버퍼가 가득 차면 false를 반환한다.
// 락을 잡은 채로 전송한다: registerClient가 교체된 연결의 채널을 닫는 것과
// 상호 배제되어야 닫힌 채널로의 전송이 불가능하다.
func (h *Hub) SendToUser(userID string, msgType string, payload interface{}) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.clients[userID]
	if !exists {
		return false
	}

	select {
	case client.send <- &Message{Type: msgType, Payload: payload}:
		return true
	default:
		logger.Warn("Client send channel full, dropping message",
			"userId", userID,
			"type", msgType,
		)
		return false
	}
}

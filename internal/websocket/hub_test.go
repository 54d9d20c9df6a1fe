package websocket

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu          sync.Mutex
	disconnects []string
}

func (h *recordingHandler) OnMatchStart(userID string)  {}
func (h *recordingHandler) OnMatchCancel(userID string) {}

func (h *recordingHandler) OnDisconnect(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnects = append(h.disconnects, userID)
}

func (h *recordingHandler) disconnected() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.disconnects...)
}

func TestHub_SendToUser(t *testing.T) {
	hub := NewHub()
	client := NewClient(hub, nil, "u1")
	hub.registerClient(client)

	ok := hub.SendToUser("u1", EventMatchSuccess, &MatchSuccessMessage{SessionID: "s1", ChannelID: "ch1"})
	require.True(t, ok)

	msg := <-client.send
	assert.Equal(t, EventMatchSuccess, msg.Type)

	assert.False(t, hub.SendToUser("ghost", EventMatchSuccess, nil))
}

// 재연결로 기존 send 채널이 닫히는 동안 SendToUser가 호출되어도
// 닫힌 채널로 전송하지 않아야 한다.
func TestHub_SendToUserWhileReplacingConnection(t *testing.T) {
	hub := NewHub()
	hub.registerClient(NewClient(hub, nil, "u1"))

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					hub.SendToUser("u1", EventMatchSuccess, nil)
				}
			}
		}()
	}

	for i := 0; i < 2000; i++ {
		hub.registerClient(NewClient(hub, nil, "u1"))
	}

	close(done)
	wg.Wait()

	assert.True(t, hub.IsConnected("u1"))
}

func TestHub_UnregisterKeepsReplacedConnection(t *testing.T) {
	hub := NewHub()
	first := NewClient(hub, nil, "u1")
	hub.registerClient(first)

	second := NewClient(hub, nil, "u1")
	hub.registerClient(second)

	// 옛 연결의 해제가 새 연결을 지우면 안 된다
	hub.unregisterClient(first)
	assert.True(t, hub.IsConnected("u1"))

	hub.unregisterClient(second)
	assert.False(t, hub.IsConnected("u1"))
}

// 교체된 옛 연결이 끊겨도 현재 연결 사용자의 OnDisconnect가 호출되면 안 된다.
func TestClient_NotifyDisconnectSkipsReplacedConnection(t *testing.T) {
	hub := NewHub()
	handler := &recordingHandler{}
	hub.SetHandler(handler)

	first := NewClient(hub, nil, "u1")
	hub.registerClient(first)

	second := NewClient(hub, nil, "u1")
	hub.registerClient(second)

	first.notifyDisconnect()
	assert.Empty(t, handler.disconnected())

	second.notifyDisconnect()
	assert.Equal(t, []string{"u1"}, handler.disconnected())
}

package handler

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coursemarket/server/internal/dto"
	"github.com/coursemarket/server/internal/entity"
	"github.com/coursemarket/server/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatService struct {
	reply string
	err   error
}

func (s *fakeChatService) Reply(ctx context.Context, text string) (string, error) {
	return s.reply, s.err
}

func (s *fakeChatService) Close() {}

type fakeMessageService struct {
	mu   sync.Mutex
	sent []dto.CreateMessageInput
}

func (s *fakeMessageService) Send(ctx context.Context, senderID uuid.UUID, input dto.CreateMessageInput) (*entity.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, input)
	return &entity.Message{ID: uuid.New(), RoomID: input.RoomID, SenderID: senderID, Text: input.Text, Type: input.Type}, nil
}

func (s *fakeMessageService) RoomHistory(ctx context.Context, roomID string) ([]*entity.Message, error) {
	return nil, nil
}

func (s *fakeMessageService) Conversation(ctx context.Context, roomID string, userA, userB uuid.UUID) ([]*entity.Message, error) {
	return nil, nil
}

func (s *fakeMessageService) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	for i, m := range s.sent {
		out[i] = m.Text
	}
	return out
}

func (s *fakeMessageService) inputs() []dto.CreateMessageInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dto.CreateMessageInput(nil), s.sent...)
}

func dialChat(t *testing.T, chat service.ChatService, messages service.MessageService) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("user_id", uuid.New().String()) })
	router.GET("/ws", NewChatHandler(chat, messages, nil).HandleWebSocket)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestChatRelayRepliesToClient(t *testing.T) {
	messages := &fakeMessageService{}
	conn := dialChat(t, &fakeChatService{reply: "the quadratic formula is"}, messages)

	require.NoError(t, conn.WriteJSON(dto.ChatEnvelope{Event: "send_message", Text: "explain quadratics"}))

	var env dto.ChatEnvelope
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, "receive_message", env.Event)
	assert.Equal(t, "the quadratic formula is", env.Text)

	assert.Equal(t, []string{"explain quadratics", "the quadratic formula is"}, messages.texts())
	for _, m := range messages.inputs() {
		assert.Equal(t, entity.MessageTypeAI, m.Type)
	}
}

func TestChatRelayFallsBackWhenUpstreamFails(t *testing.T) {
	messages := &fakeMessageService{}
	conn := dialChat(t, &fakeChatService{err: errors.New("upstream unavailable")}, messages)

	require.NoError(t, conn.WriteJSON(dto.ChatEnvelope{Event: "send_message", Text: "hello"}))

	var env dto.ChatEnvelope
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, "receive_message", env.Event)
	assert.Equal(t, "Error: could not get response", env.Text)

	// An upstream failure must not drop the connection.
	require.NoError(t, conn.WriteJSON(dto.ChatEnvelope{Event: "send_message", Text: "still there?"}))
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, "Error: could not get response", env.Text)

	assert.Equal(t, []string{
		"hello", "Error: could not get response",
		"still there?", "Error: could not get response",
	}, messages.texts())
}

func TestChatRelayIgnoresOtherEventsAndEmptyText(t *testing.T) {
	messages := &fakeMessageService{}
	conn := dialChat(t, &fakeChatService{reply: "ok"}, messages)

	require.NoError(t, conn.WriteJSON(dto.ChatEnvelope{Event: "typing", Text: "ignored"}))
	require.NoError(t, conn.WriteJSON(dto.ChatEnvelope{Event: "send_message", Text: "   "}))
	require.NoError(t, conn.WriteJSON(dto.ChatEnvelope{Event: "send_message", Text: "real question"}))

	var env dto.ChatEnvelope
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, "ok", env.Text)

	assert.Equal(t, []string{"real question", "ok"}, messages.texts())
}

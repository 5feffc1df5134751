package controllers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"DemoHub/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsFrame struct {
	Type      string `json:"type"`
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
	Data      string `json:"data"`
	Error     string `json:"error"`
	OK        bool   `json:"ok"`
	Stopped   bool   `json:"stopped"`
}

func dialWS(t *testing.T, env *testEnv, tok string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat?token=" + tok
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	var f wsFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestChatWSNewChat(t *testing.T) {
	env := newTestEnv(t, &scriptedProvider{chunks: []string{"Go ", "channels"}})
	u, tok := env.newUser(t, "ann@example.com", false)
	conn := dialWS(t, env, tok)

	require.NoError(t, conn.WriteJSON(gin.H{"type": "start", "message": "what are channels"}))

	saved := readFrame(t, conn)
	require.Equal(t, "user_saved", saved.Type, saved.Error)
	require.NotEmpty(t, saved.ChatID)

	var text strings.Builder
	var last wsFrame
	for {
		last = readFrame(t, conn)
		if last.Type != "delta" {
			break
		}
		text.WriteString(last.Data)
	}
	assert.Equal(t, "done", last.Type)
	assert.True(t, last.OK)
	assert.False(t, last.Stopped)
	assert.Equal(t, "Go channels", text.String())

	var ch models.Chat
	require.NoError(t, env.db.Preload("Messages", orderedMessages).First(&ch, "id = ?", saved.ChatID).Error)
	assert.Equal(t, u.ID, ch.UserID)
	assert.Equal(t, "what are channels", ch.Title)
	assert.Equal(t, testDefaultModel, ch.ModelID)
	require.Len(t, ch.Messages, 2)
	assert.Equal(t, models.RoleUser, ch.Messages[0].Role)
	assert.Equal(t, saved.MessageID, ch.Messages[0].ID)
	assert.Equal(t, "Go channels", ch.Messages[1].Content)
}

func TestChatWSStopKeepsPartialReply(t *testing.T) {
	env := newTestEnv(t, &scriptedProvider{chunks: []string{"partial"}, tail: []string{" never shown"}, block: true})
	_, tok := env.newUser(t, "ann@example.com", false)
	require.Equal(t, 201, env.do(t, "POST", "/chats", tok, gin.H{"id": "c1"}).Code)
	conn := dialWS(t, env, tok)

	require.NoError(t, conn.WriteJSON(gin.H{"type": "start", "message": "long answer please", "chat_id": "c1"}))
	require.Equal(t, "user_saved", readFrame(t, conn).Type)
	delta := readFrame(t, conn)
	require.Equal(t, "delta", delta.Type)
	assert.Equal(t, "partial", delta.Data)

	require.NoError(t, conn.WriteJSON(gin.H{"type": "stop"}))
	done := readFrame(t, conn)
	assert.Equal(t, "done", done.Type)
	assert.True(t, done.Stopped)

	var msgs []models.Message
	require.NoError(t, orderedMessages(env.db.Where("chat_id = ?", "c1")).Find(&msgs).Error)
	require.Len(t, msgs, 2)
	assert.Equal(t, "partial", msgs[1].Content)
}

func TestChatWSRejects(t *testing.T) {
	env := newTestEnv(t, &scriptedProvider{chunks: []string{"ok"}})
	_, ann := env.newUser(t, "ann@example.com", false)
	_, bob := env.newUser(t, "bob@example.com", false)
	require.Equal(t, 201, env.do(t, "POST", "/chats", ann, gin.H{"id": "ann-chat"}).Code)

	t.Run("bad token", func(t *testing.T) {
		srv := httptest.NewServer(env.router)
		defer srv.Close()
		_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/chat?token=nope", nil)
		require.Error(t, err)
		assert.Equal(t, 401, resp.StatusCode)
	})

	t.Run("foreign chat", func(t *testing.T) {
		conn := dialWS(t, env, bob)
		require.NoError(t, conn.WriteJSON(gin.H{"type": "start", "message": "hi", "chat_id": "ann-chat"}))
		f := readFrame(t, conn)
		assert.Equal(t, "error", f.Type)
		assert.Equal(t, "chat not found", f.Error)
	})

	t.Run("duplicate start", func(t *testing.T) {
		first := dialWS(t, env, ann)
		require.NoError(t, first.WriteJSON(gin.H{"type": "start", "message": "same question"}))
		for readFrame(t, first).Type != "done" {
		}
		second := dialWS(t, env, ann)
		require.NoError(t, second.WriteJSON(gin.H{"type": "start", "message": "same question"}))
		f := readFrame(t, second)
		assert.Equal(t, "error", f.Type)
		assert.Equal(t, "duplicate message", f.Error)
	})

	t.Run("failed start can be retried", func(t *testing.T) {
		first := dialWS(t, env, ann)
		require.NoError(t, first.WriteJSON(gin.H{"type": "start", "message": "retry me", "chat_id": "missing"}))
		f := readFrame(t, first)
		require.Equal(t, "error", f.Type)
		require.Equal(t, "chat not found", f.Error)

		second := dialWS(t, env, ann)
		require.NoError(t, second.WriteJSON(gin.H{"type": "start", "message": "retry me"}))
		f = readFrame(t, second)
		assert.Equal(t, "user_saved", f.Type, f.Error)
	})

	t.Run("invalid payload", func(t *testing.T) {
		conn := dialWS(t, env, ann)
		require.NoError(t, conn.WriteJSON(gin.H{"type": "hello"}))
		assert.Equal(t, "error", readFrame(t, conn).Type)
	})
}

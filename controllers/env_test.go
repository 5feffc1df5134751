package controllers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"DemoHub/middleware"
	"DemoHub/models"
	"DemoHub/pkg/cache"
	"DemoHub/pkg/config"
	"DemoHub/pkg/database"
	svc "DemoHub/pkg/services"
	"DemoHub/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testDefaultModel = "ep-20251203173341-sztlm"

// scriptedProvider streams chunks, or fails with err before sending anything.
// With block set it sends the chunks, waits for ctx to end and then sends
// tail, like an upstream that is slow to notice cancellation.
type scriptedProvider struct {
	chunks []string
	tail   []string
	err    error
	block  bool
}

func (p *scriptedProvider) Generate(ctx context.Context, req svc.CompletionRequest) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return strings.Join(p.chunks, ""), nil
}

func (p *scriptedProvider) Stream(ctx context.Context, req svc.CompletionRequest, onDelta func(string)) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	var b strings.Builder
	for _, c := range p.chunks {
		b.WriteString(c)
		onDelta(c)
	}
	if p.block {
		<-ctx.Done()
		for _, c := range p.tail {
			b.WriteString(c)
			onDelta(c)
		}
		return b.String(), ctx.Err()
	}
	return b.String(), nil
}

var errUpstream = errors.New("upstream exploded")

type testEnv struct {
	db     *gorm.DB
	tm     *token.Manager
	reg    *svc.Registry
	gw     *svc.Gateway
	store  *cache.Cache
	cfg    *config.Config
	router *gin.Engine
}

func newTestEnv(t *testing.T, p svc.Provider) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetRateLimitConfig(time.Second, 1000, 2)
	middleware.SetDuplicateTTL(time.Minute)

	db, err := database.OpenMemory()
	require.NoError(t, err)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := svc.NewRegistry(db, testDefaultModel)
	require.NoError(t, reg.Seed(context.Background(), svc.BuiltinModels("http://gateway.invalid", "secret-key", "", "")))
	gw := svc.NewGateway(reg, false, log).WithLocal(p).WithRetryDelay(0)
	store := cache.New(100)
	titles := svc.NewTitleService(gw, "Doubao-lite-32k", store, time.Minute, log)
	avatars, err := svc.NewAvatarStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	env := &testEnv{
		db:    db,
		tm:    token.NewManager("test-secret", time.Hour),
		reg:   reg,
		gw:    gw,
		store: store,
		cfg:   &config.Config{AdminEmails: []string{"root@example.com"}},
	}

	r := gin.New()
	r.POST("/register", Register(db, env.cfg, store))
	r.POST("/login", Login(db, env.tm))
	r.GET("/ws/chat", ChatWS(db, WSDeps{Tokens: env.tm, Gateway: gw, Titles: titles, Timeout: 5 * time.Second, Log: log}))

	g := r.Group("/")
	g.Use(middleware.AuthMiddleware(env.tm))
	g.POST("/logout", Logout(env.tm))
	g.GET("/me", Me(db))
	g.GET("/profile", Profile(db, store))
	g.PUT("/profile", Profile(db, store))
	g.POST("/profile/avatar", UploadAvatar(db, avatars))

	g.GET("/chats", ListChats(db))
	g.POST("/chats", CreateChat(db, reg))
	g.GET("/chats/:id", GetChat(db))
	g.DELETE("/chats/:id", DeleteChat(db))
	g.PATCH("/chats/:id/title", UpdateChatTitle(db))
	g.PATCH("/chats/:id/model", UpdateChatModel(db, reg))
	g.PUT("/chats/:id/messages", SaveChatMessages(db))
	g.POST("/chats/:id/messages", AddMessage(db))
	g.DELETE("/messages/:id", DeleteMessage(db))

	g.POST("/api/chat", ChatStream(db, gw, 5*time.Second, log))
	g.POST("/api/chat/title", ChatTitle(titles))

	admin := middleware.RequireAdmin(db)
	g.GET("/api/models", ListModels(reg))
	g.POST("/api/models", admin, CreateModel(reg))
	g.PUT("/api/models/:id", admin, UpdateModel(reg))
	g.DELETE("/api/models/:id", admin, DeleteModel(reg))

	a := g.Group("/admin", admin)
	a.GET("/users", ListUsers(db))
	a.POST("/users", CreateUser(db, store))
	a.GET("/users/stats", UserStats(db, store, time.Minute))
	a.GET("/users/export", ExportUsers(db))
	a.GET("/users/:id", GetUser(db))
	a.PUT("/users/:id", UpdateUser(db, store))
	a.DELETE("/users/:id", DeleteUser(db, store))

	env.router = r
	return env
}

// newUser stores a user directly and returns it with a signed token.
func (e *testEnv) newUser(t *testing.T, email string, admin bool) (models.User, string) {
	t.Helper()
	u := models.User{Email: email, Provider: models.ProviderEmail, IsAdmin: admin}
	require.NoError(t, u.SetPassword("pass1234"))
	require.NoError(t, e.db.Create(&u).Error)
	tok, _, err := e.tm.Issue(u.ID)
	require.NoError(t, err)
	return u, tok
}

func (e *testEnv) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type sseEvent struct {
	name string
	data string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var out []sseEvent
	var cur sseEvent
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			cur.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			cur.data = strings.TrimPrefix(line, "data:")
		case line == "" && cur.name != "":
			out = append(out, cur)
			cur = sseEvent{}
		}
	}
	require.NoError(t, sc.Err())
	return out
}

func textParts(text string) json.RawMessage {
	b, _ := json.Marshal([]models.UIPart{{Type: "text", Text: text}})
	return b
}


package router

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amravatimarket/internal/adapter/api"
	"amravatimarket/internal/adapter/api/handler"
	"amravatimarket/internal/adapter/api/middleware"
	memory "amravatimarket/internal/adapter/repository"
	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/infrastructure/rabbitmq"
	"amravatimarket/internal/infrastructure/ratelimit"
	ws "amravatimarket/internal/infrastructure/websocket"
	"amravatimarket/internal/usecase"
	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/response"
)

type tokenVerifier struct{}

// Tokens in tests are "tok-<uid>".
func (tokenVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	uid, ok := strings.CutPrefix(token, "tok-")
	if !ok {
		return "", stderrors.New("bad token")
	}
	return uid, nil
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
}

type testServer struct {
	e       *echo.Echo
	store   *memory.MemoryStore
	streams *ws.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewMemoryStore()
	store.PutUser(&entity.User{ID: "buyer", Name: "Bina"})
	store.PutUser(&entity.User{ID: "seller", Name: "Sanjay"})
	store.PutUser(&entity.User{ID: "admin", Name: "Admin", Role: "admin"})
	store.PutUser(&entity.User{
		ID:                  "reader",
		PreferredLocations:  []string{"Amravati"},
		PreferredCategories: []string{"Books & Notes"},
	})
	store.PutProduct(&entity.Product{
		ID: "p1", Title: "Drafter", SellerID: "seller",
		Location: "Amravati", Category: "Books & Notes",
	})

	streams := ws.NewManager()
	conversationRepo := memory.NewMemoryConversationRepository(store)
	userRepo := memory.NewMemoryUserRepository(store)
	productRepo := memory.NewMemoryProductRepository(store)

	notifications := usecase.NewNotificationUseCase(memory.NewMemoryNotificationRepository(store), rabbitmq.Noop("test"))
	conversations := usecase.NewConversationUseCase(conversationRepo, userRepo, productRepo, nil)
	h := handler.Setup(handler.UseCases{
		Conversations: conversations,
		Messages:      usecase.NewMessageUseCase(conversationRepo, memory.NewMemoryMessageRepository(store), notifications, nil),
		Presence:      usecase.NewPresenceUseCase(conversationRepo, nil),
		Notifications: notifications,
		Approvals:     usecase.NewProductApprovalUseCase(productRepo, userRepo, notifications),
		DeviceTokens:  usecase.NewDeviceTokenUseCase(memory.NewMemoryDeviceTokenRepository(store)),
		Users:         usecase.NewUserUseCase(userRepo),
	}, streams, "memory")

	e := echo.New()
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = response.HTTPErrorHandler
	limiter := ratelimit.NewRateLimiter(map[string]ratelimit.Policy{ratelimit.ActionHTTP: ratelimit.PerMinute(1000)})
	Setup(e, h, middleware.NewAuthMiddleware(tokenVerifier{}), middleware.NewAdminMiddleware(userRepo), limiter)

	return &testServer{e: e, store: store, streams: streams}
}

func (s *testServer) do(t *testing.T, method, path, uid, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if uid != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer tok-"+uid)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (s *testServer) contact(t *testing.T) string {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/v1/conversations", "buyer", `{"product_id":"p1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[usecase.ContactResult](t, env.Data).ConversationID
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, http.MethodGet, "/metrics", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "marketplace_")
}

func TestRoutesRequireAuthentication(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/v1/conversations", "/v1/notifications", "/v1/ws/inbox"} {
		rec, env := s.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		require.NotNil(t, env.Error, path)
		assert.Equal(t, errors.CodeNotAuthenticated, env.Error.Code, path)
	}
}

func TestContactSellerIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	id := s.contact(t)

	rec, env := s.do(t, http.MethodPost, "/v1/conversations", "buyer", `{"product_id":"p1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	again := decode[usecase.ContactResult](t, env.Data)
	assert.Equal(t, id, again.ConversationID)
	assert.False(t, again.Created)

	rec, env = s.do(t, http.MethodPost, "/v1/conversations", "buyer", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeInvalidArgument, env.Error.Code)
}

func TestMessagingFlow(t *testing.T) {
	s := newTestServer(t)
	id := s.contact(t)

	rec, env := s.do(t, http.MethodPost, "/v1/conversations/"+id+"/messages", "buyer", `{"text":"Is it available?"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sent := decode[usecase.SendResult](t, env.Data)
	assert.Empty(t, sent.Degraded)

	rec, env = s.do(t, http.MethodGet, "/v1/conversations", "seller", "")
	require.Equal(t, http.StatusOK, rec.Code)
	inbox := decode[[]map[string]any](t, env.Data)
	require.Len(t, inbox, 1)
	assert.Equal(t, true, inbox[0]["unread"])
	assert.Equal(t, float64(1), inbox[0]["unread_count"])
	assert.Equal(t, "Bina", inbox[0]["counterpart_name"])

	rec, env = s.do(t, http.MethodGet, "/v1/notifications", "seller", "")
	require.Equal(t, http.StatusOK, rec.Code)
	unread := decode[[]entity.Notification](t, env.Data)
	require.Len(t, unread, 1)
	assert.Equal(t, "/messages/"+id, unread[0].Link)

	rec, _ = s.do(t, http.MethodPut, "/v1/notifications/"+unread[0].ID+"/read", "seller", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodPut, "/v1/conversations/"+id+"/read", "seller", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	_, env = s.do(t, http.MethodGet, "/v1/conversations", "seller", "")
	assert.Equal(t, float64(0), decode[[]map[string]any](t, env.Data)[0]["unread_count"])

	rec, env = s.do(t, http.MethodPost, "/v1/conversations/"+id+"/messages", "buyer", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeEmptyMessage, env.Error.Code)

	rec, env = s.do(t, http.MethodGet, "/v1/conversations/"+id, "admin", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, errors.CodeUnauthorized, env.Error.Code)
}

func TestDeleteMessage(t *testing.T) {
	s := newTestServer(t)
	id := s.contact(t)

	_, env := s.do(t, http.MethodPost, "/v1/conversations/"+id+"/messages", "buyer", `{"text":"call me"}`)
	msgID := decode[usecase.SendResult](t, env.Data).Message.ID
	path := "/v1/conversations/" + id + "/messages/" + msgID

	rec, env := s.do(t, http.MethodDelete, path+"?for=everyone", "seller", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, errors.CodeUnauthorized, env.Error.Code)

	rec, _ = s.do(t, http.MethodDelete, path+"?for=sometimes", "buyer", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(t, http.MethodDelete, path+"?for=everyone", "buyer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[entity.RenderedMessage](t, env.Data).Deleted)

	rec, env = s.do(t, http.MethodGet, path, "seller", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.DeletedPlaceholder, decode[entity.RenderedMessage](t, env.Data).Text)

	_, env = s.do(t, http.MethodGet, "/v1/conversations/"+id+"/messages", "seller", "")
	thread := decode[[]entity.RenderedMessage](t, env.Data)
	require.Len(t, thread, 1)
	assert.Equal(t, entity.DeletedPlaceholder, thread[0].Text)
}

func TestTypingAndBlocking(t *testing.T) {
	s := newTestServer(t)
	id := s.contact(t)

	rec, _ := s.do(t, http.MethodPut, "/v1/conversations/"+id+"/typing", "buyer", `{"typing":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, env := s.do(t, http.MethodGet, "/v1/conversations", "seller", "")
	assert.Equal(t, true, decode[[]map[string]any](t, env.Data)[0]["counterpart_typing"])

	rec, _ = s.do(t, http.MethodPut, "/v1/conversations/"+id+"/typing", "buyer", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(t, http.MethodPut, "/v1/admin/conversations/"+id+"/block", "buyer", `{"blocked":true}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, errors.CodeForbidden, env.Error.Code)

	rec, _ = s.do(t, http.MethodPut, "/v1/admin/conversations/"+id+"/block", "admin", `{"blocked":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodPost, "/v1/conversations/"+id+"/messages", "buyer", `{"text":"hello?"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, errors.CodeBlocked, env.Error.Code)
}

func TestApproveProductAndDeviceToken(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/v1/admin/products/p1/approve", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[usecase.ApprovalResult](t, env.Data)
	assert.True(t, result.Approved)
	assert.Equal(t, 1, result.Notified)

	_, env = s.do(t, http.MethodPost, "/v1/admin/products/p1/approve", "admin", "")
	assert.Equal(t, 0, decode[usecase.ApprovalResult](t, env.Data).Notified)

	_, env = s.do(t, http.MethodGet, "/v1/notifications", "reader", "")
	unread := decode[[]entity.Notification](t, env.Data)
	require.Len(t, unread, 1)
	assert.Equal(t, entity.NotificationTypeNewProduct, unread[0].Type)

	rec, _ = s.do(t, http.MethodPut, "/v1/me/device-token", "reader", `{"token":"fcm-123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	token, ok := s.store.DeviceToken("reader")
	require.True(t, ok)
	assert.Equal(t, "fcm-123", token.Token)
}

func TestInboxStream(t *testing.T) {
	s := newTestServer(t)
	id := s.contact(t)

	srv := httptest.NewServer(s.e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/inbox?token=tok-seller"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() ws.Frame {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var f ws.Frame
		require.NoError(t, conn.ReadJSON(&f))
		return f
	}

	first := read()
	assert.Equal(t, ws.FrameTypeSnapshot, first.Type)
	assert.Equal(t, handler.StreamInbox, first.Stream)
	assert.Len(t, first.Data, 1)

	s.do(t, http.MethodPost, "/v1/conversations/"+id+"/messages", "buyer", `{"text":"ping"}`)

	// Intermediate snapshots may be skipped or repeated; wait for the one
	// carrying the new message.
	for i := 0; ; i++ {
		require.Less(t, i, 10, "no snapshot with the new message")
		entries, ok := read().Data.([]any)
		if ok && len(entries) == 1 && entries[0].(map[string]any)["last_message"] == "ping" {
			break
		}
	}
}

func TestStreamsAreCappedPerUser(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.e)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/notifications?token=tok-seller"

	for i := 0; i < handler.MaxStreamsPerUser; i++ {
		conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()
	}
	require.Eventually(t, func() bool {
		return s.streams.Count("seller") == handler.MaxStreamsPerUser
	}, 2*time.Second, 10*time.Millisecond)

	_, resp, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, gorillaws.ErrBadHandshake)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	conn, _, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/ws/notifications?token=tok-buyer", nil)
	require.NoError(t, err, "the cap is per user")
	conn.Close()
}

func TestThreadStreamRejectsNonParticipant(t *testing.T) {
	s := newTestServer(t)
	id := s.contact(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ws/conversations/"+id+"/messages?token=tok-admin", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProfileEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/v1/me", "buyer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bina", decode[entity.User](t, env.Data).Name)

	rec, env = s.do(t, http.MethodPatch, "/v1/me", "buyer",
		`{"preferred_locations":["Amravati"],"preferred_categories":["Books & Notes"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"Amravati"}, decode[entity.User](t, env.Data).PreferredLocations)

	_, env = s.do(t, http.MethodPost, "/v1/admin/products/p1/approve", "admin", "")
	assert.Equal(t, 2, decode[usecase.ApprovalResult](t, env.Data).Notified)

	rec, _ = s.do(t, http.MethodPatch, "/v1/me", "buyer", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

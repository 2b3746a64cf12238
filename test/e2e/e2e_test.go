// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"notification-service/internal/common/logger"
	"notification-service/internal/models"
	"notification-service/internal/notification/bus"
	"notification-service/internal/notification/gateway"
	"notification-service/internal/notification/httpapi"
	"notification-service/internal/notification/publisher"
	"notification-service/internal/notification/query"
	"notification-service/internal/notification/registry"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "e2e-secret"

// stack wires the whole subsystem against miniredis and a mocked store, the
// same shape main assembles in production.
type stack struct {
	server    *httptest.Server
	publisher *publisher.Publisher
	sqlMock   sqlmock.Sqlmock
}

func newStack(t *testing.T) *stack {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)

	b := bus.NewRedis(client, "notification", log)
	reg := registry.New()
	gw := gateway.New(&gateway.Config{}, reg, b, log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, gw.Start(ctx))

	p := publisher.New(&publisher.Config{}, db, b, log, nil)
	handler := httpapi.NewHandler(query.New(db, log), log)
	router := httpapi.NewRouter(handler, gw, testSecret, log)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &stack{server: server, publisher: p, sqlMock: sqlMock}
}

func (s *stack) expectStoredRows() {
	s.sqlMock.ExpectBegin()
	s.sqlMock.ExpectExec(`INSERT INTO notification_events`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.sqlMock.ExpectExec(`INSERT INTO notifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.sqlMock.ExpectCommit()
}

func (s *stack) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws?userId=" + userID
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) (string, models.Notification) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))

	var notification models.Notification
	require.NoError(t, json.Unmarshal(env.Data, &notification))
	return env.Event, notification
}

func TestPublishDeliversToConnectedClients(t *testing.T) {
	s := newStack(t)

	phone := s.dial(t, "u1")
	laptop := s.dial(t, "u1")

	// The connect path is asynchronous from the handshake response; give the
	// registry a moment before publishing.
	time.Sleep(50 * time.Millisecond)

	s.expectStoredRows()
	published, err := s.publisher.PublishImageReady(context.Background(), "u1", "gen-42")
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{phone, laptop} {
		event, notification := readFrame(t, conn)
		assert.Equal(t, gateway.EventReceiveNotification, event)
		assert.Equal(t, published.ID, notification.ID)
		assert.Equal(t, "u1", notification.ReceiverID)
		assert.Equal(t, models.TypeImageReady, notification.Event.Type)
		assert.Equal(t, "gen-42", *notification.EntityID)
		assert.Nil(t, notification.ReadAt)
	}

	assert.NoError(t, s.sqlMock.ExpectationsWereMet())
}

func TestClientSentNotificationReachesReceiver(t *testing.T) {
	s := newStack(t)

	sender := s.dial(t, "u1")
	receiver := s.dial(t, "u2")
	time.Sleep(50 * time.Millisecond)

	frame, err := json.Marshal(map[string]interface{}{
		"event": gateway.EventSendNotification,
		"data":  map[string]string{"receiver_id": "u2"},
	})
	require.NoError(t, err)
	require.NoError(t, sender.WriteMessage(websocket.TextMessage, frame))

	event, notification := readFrame(t, receiver)
	assert.Equal(t, gateway.EventReceiveNotification, event)
	assert.Equal(t, "u2", notification.ReceiverID)
}

func TestHandshakeWithoutUserIdRejected(t *testing.T) {
	s := newStack(t)

	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRestListOverTheFullStack(t *testing.T) {
	s := newStack(t)

	s.sqlMock.ExpectQuery(`SELECT id FROM users`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u1"))
	s.sqlMock.ExpectQuery(`FROM notifications n`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "sender_id", "receiver_id", "entity_id", "read_at", "created_at",
			"e_id", "e_type", "e_text", "e_created_at",
			"u_id", "u_name", "u_avatar",
		}).AddRow("n1", nil, "u1", "gen-42", nil, time.Now().UTC(),
			"e1", "image_ready", "Your latest creation is ready! Tap to view.", time.Now().UTC(),
			nil, nil, nil))

	token, err := httpapi.GenerateJWT(testSecret, "u1")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/api/notifications", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                   `json:"success"`
		Data    []*models.Notification `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "n1", body.Data[0].ID)
	assert.Equal(t, models.TypeImageReady, body.Data[0].Event.Type)

	assert.NoError(t, s.sqlMock.ExpectationsWereMet())
}

package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unihealth/care-api/internal/handler"
	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/pkg/messaging"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	client := &Client{ID: "c1", Send: make(chan []byte, 1)}
	hub.Register(client)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Broadcast([]byte(`{"event":"alert_created"}`))
	assert.Equal(t, `{"event":"alert_created"}`, string(<-client.Send))

	hub.Unregister(client)
	hub.Unregister(client)
	assert.Equal(t, 0, hub.ClientCount())
	_, open := <-client.Send
	assert.False(t, open)
}

func TestHubDropsForSlowClients(t *testing.T) {
	hub := NewHub()
	client := &Client{ID: "slow", Send: make(chan []byte, 1)}
	hub.Register(client)

	hub.Broadcast([]byte("1"))
	hub.Broadcast([]byte("2"))
	assert.Equal(t, "1", string(<-client.Send))
	assert.Len(t, client.Send, 0)
}

func newServer(t *testing.T, actor model.Actor) (*httptest.Server, *Hub, *messaging.MemoryBroker) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	broker := messaging.NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, hub.Run(ctx, broker, "alerts"))

	r := gin.New()
	ws := r.Group("/ws", func(c *gin.Context) { handler.SetActor(c, actor) })
	NewHandler(hub, []string{"*"}).RegisterRoutes(ws)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub, broker
}

func TestStaffReceivesPublishedAlerts(t *testing.T) {
	srv, hub, broker := newServer(t, model.Actor{ID: 1, Role: model.RoleNurse})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/alerts"
	conn, _, err := gorillawebsocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, broker.Publish(context.Background(), "alerts", map[string]interface{}{"event": "alert_created"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"alert_created"}`, string(msg))
}

func TestPatientsCannotSubscribe(t *testing.T) {
	srv, _, _ := newServer(t, model.Actor{ID: 2, Role: model.RolePatient})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/alerts"
	_, resp, err := gorillawebsocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

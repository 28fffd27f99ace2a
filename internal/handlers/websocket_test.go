package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/models"
	"github.com/ternarybob/narrato/internal/services/hub"
)

func newTestSocket(t *testing.T) (*hub.Hub, *WebSocketHandler, *websocket.Conn, func()) {
	t.Helper()

	logger := arbor.NewLogger()
	h := hub.NewHub(logger)
	handler := NewWebSocketHandler(h, logger)

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	cleanup := func() {
		conn.Close()
		server.Close()
	}
	return h, handler, conn, cleanup
}

func readReply(t *testing.T, conn *websocket.Conn) map[string]string {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var reply map[string]string
	require.NoError(t, json.Unmarshal(data, &reply))
	return reply
}

func TestSubscribeAck(t *testing.T) {
	h, _, conn, cleanup := newTestSocket(t)
	defer cleanup()

	err := conn.WriteJSON(map[string]string{"action": "subscribe", "jobId": "job_1"})
	require.NoError(t, err)

	reply := readReply(t, conn)
	assert.Equal(t, "subscribed", reply["type"])
	assert.Equal(t, "job_1", reply["jobId"])

	// Registration is acknowledged before the ack is written, so the hub
	// already sees the watcher here.
	assert.Equal(t, 1, h.WatcherCount("job_1"))
}

func TestSubscribedClientReceivesEvents(t *testing.T) {
	h, _, conn, cleanup := newTestSocket(t)
	defer cleanup()

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "jobId": "job_1"}))
	readReply(t, conn) // ack

	h.Publish(&models.JobEvent{
		Type:     models.PushEventProgress,
		JobID:    "job_1",
		Status:   models.JobStatusGenerating,
		Progress: 35,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event models.JobEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, models.PushEventProgress, event.Type)
	assert.Equal(t, "job_1", event.JobID)
	assert.Equal(t, 35, event.Progress)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h, _, conn, cleanup := newTestSocket(t)
	defer cleanup()

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "jobId": "job_1"}))
	readReply(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "unsubscribe", "jobId": "job_1"}))
	reply := readReply(t, conn)
	assert.Equal(t, "unsubscribed", reply["type"])
	assert.Equal(t, 0, h.WatcherCount("job_1"))
}

func TestMalformedMessageKeepsConnectionOpen(t *testing.T) {
	_, _, conn, cleanup := newTestSocket(t)
	defer cleanup()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	reply := readReply(t, conn)
	assert.Equal(t, "invalid message format", reply["error"])

	// Connection must survive the bad frame.
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "jobId": "job_2"}))
	reply = readReply(t, conn)
	assert.Equal(t, "subscribed", reply["type"])
}

func TestMissingJobID(t *testing.T) {
	_, _, conn, cleanup := newTestSocket(t)
	defer cleanup()

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe"}))
	reply := readReply(t, conn)
	assert.Equal(t, "jobId is required", reply["error"])
}

func TestUnknownAction(t *testing.T) {
	_, _, conn, cleanup := newTestSocket(t)
	defer cleanup()

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "watch", "jobId": "job_1"}))
	reply := readReply(t, conn)
	assert.Equal(t, "unknown action: watch", reply["error"])
}

func TestDisconnectRemovesWatcher(t *testing.T) {
	h, handler, conn, cleanup := newTestSocket(t)
	defer cleanup()

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "jobId": "job_1"}))
	readReply(t, conn)
	require.Equal(t, 1, h.WatcherCount("job_1"))

	conn.Close()

	assert.Eventually(t, func() bool {
		return h.WatcherCount("job_1") == 0 && handler.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

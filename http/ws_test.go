package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialPredict(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/predict"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketPredict(t *testing.T) {
	env := newTestEnv(t, false)
	conn := dialPredict(t, env)

	require.NoError(t, conn.WriteJSON(ClientMessage{
		ID:       "req-1",
		Workflow: "ship",
		Inputs:   map[string]interface{}{"Ship_Type": "Tanker", "Engine_Type": "HFO", "Maintenance_Status": "Critical"},
	}))
	msg := readMessage(t, conn)
	assert.Equal(t, MessagePrediction, msg.Type)
	assert.Equal(t, "req-1", msg.ID)
	require.NotNil(t, msg.Data)
	assert.Equal(t, "High-Cost Carriers", msg.Data.Label)

	require.NoError(t, conn.WriteJSON(ClientMessage{Workflow: "student", Inputs: map[string]interface{}{"Gender": "Robot"}}))
	msg = readMessage(t, conn)
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, "Gender", msg.Feature)
	assert.Equal(t, []string{"Female", "Male"}, msg.Allowed)

	require.NoError(t, conn.WriteJSON(ClientMessage{Workflow: "weather"}))
	msg = readMessage(t, conn)
	assert.Equal(t, MessageError, msg.Type)
	assert.Contains(t, msg.Error, "unknown workflow")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	msg = readMessage(t, conn)
	assert.Equal(t, MessageError, msg.Type)
}

func TestWebSocketFeed(t *testing.T) {
	env := newTestEnv(t, false)
	conn := dialPredict(t, env)

	// Messages from one client are handled in order, so the subscription is
	// active before the prediction is recorded.
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageSubscribe}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Workflow: "cancer"}))

	seen := make(map[MessageType]string)
	for i := 0; i < 2; i++ {
		msg := readMessage(t, conn)
		require.NotNil(t, msg.Data)
		seen[msg.Type] = msg.Data.ID
	}
	require.Contains(t, seen, MessagePrediction)
	require.Contains(t, seen, MessageFeed)
	assert.Equal(t, seen[MessagePrediction], seen[MessageFeed])
}

func TestWebSocketUnknownType(t *testing.T) {
	env := newTestEnv(t, false)
	conn := dialPredict(t, env)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "dance", ID: "x"}))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, "x", msg.ID)
}

package realtime_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"employee-poll-backend/internal/realtime"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*realtime.Hub, string) {
	hub := realtime.NewHub([]string{"*"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r)
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) realtime.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame realtime.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func join(t *testing.T, conn *websocket.Conn, questionID uuid.UUID) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "joinRoom", "questionId": questionID.String()}))
	frame := readFrame(t, conn)
	require.Equal(t, realtime.EventRoomJoined, frame.Event)
}

func TestHub_RoomBroadcast(t *testing.T) {
	hub, url := startHub(t)
	questionID := uuid.New()

	member := dial(t, url)
	outsider := dial(t, url)
	join(t, member, questionID)

	nomineeID := uuid.New()
	hub.Broadcast(realtime.QuestionRoom(questionID), realtime.EventVoteUpdate,
		realtime.VoteUpdatePayload(questionID, nomineeID, 7))

	frame := readFrame(t, member)
	assert.Equal(t, realtime.EventVoteUpdate, frame.Event)
	data, ok := frame.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, nomineeID.String(), data["nomineeId"])
	assert.Equal(t, float64(7), data["votes"])

	outsider.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := outsider.ReadMessage()
	assert.Error(t, err)
}

func TestHub_EmptyRoomReachesEveryone(t *testing.T) {
	hub, url := startHub(t)
	a := dial(t, url)
	b := dial(t, url)

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)
	hub.Broadcast("", realtime.EventImageProcessed, realtime.ImageProcessedPayload(uuid.New(), uuid.New(), "/uploads/nominees/x.jpg"))

	assert.Equal(t, realtime.EventImageProcessed, readFrame(t, a).Event)
	assert.Equal(t, realtime.EventImageProcessed, readFrame(t, b).Event)
}

func TestHub_LeaveRoom(t *testing.T) {
	hub, url := startHub(t)
	questionID := uuid.New()
	conn := dial(t, url)
	join(t, conn, questionID)
	assert.Equal(t, 1, hub.RoomSize(realtime.QuestionRoom(questionID)))

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "leaveRoom", "questionId": questionID.String()}))
	assert.Equal(t, realtime.EventRoomLeft, readFrame(t, conn).Event)
	assert.Equal(t, 0, hub.RoomSize(realtime.QuestionRoom(questionID)))
}

func TestHub_InvalidMessages(t *testing.T) {
	_, url := startHub(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, realtime.EventError, readFrame(t, conn).Event)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "joinRoom", "questionId": "nope"}))
	assert.Equal(t, realtime.EventError, readFrame(t, conn).Event)
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub, url := startHub(t)
	questionID := uuid.New()
	conn := dial(t, url)
	join(t, conn, questionID)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.RoomSize(realtime.QuestionRoom(questionID)))

	// no panic on a room without members
	hub.Broadcast(realtime.QuestionRoom(questionID), realtime.EventVoteUpdate, nil)
}

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/protocol/codec"
)

var upgrader = websocket.Upgrader{}

// fakeServer answers create_session with player_id and session_info and
// echoes everything else.
func fakeServer(t *testing.T, format codec.Format) string {
	t.Helper()
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := codec.Decode(format, data)
			if err != nil || msg.Type != protocol.MsgCreateSession {
				_ = conn.WriteMessage(mt, data)
				continue
			}
			for _, reply := range []*protocol.Message{
				codec.MustNewMessage(protocol.MsgPlayerID, protocol.PlayerIDPayload{PlayerID: "p-1"}),
				codec.MustNewMessage(protocol.MsgSessionInfo, protocol.SessionInfo{ID: "s-1", InvitationCode: 424242}),
			} {
				out, _ := codec.Encode(format, reply)
				_ = conn.WriteMessage(mt, out)
			}
		}
	}))
	t.Cleanup(s.Close)
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestClient_ConnectAndEcho(t *testing.T) {
	for _, format := range []codec.Format{codec.FormatJSON, codec.FormatProtobuf} {
		t.Run(string(format), func(t *testing.T) {
			c := NewClient(fakeServer(t, format), format)
			require.NoError(t, c.Connect(context.Background()))
			defer c.Close()
			assert.True(t, c.IsConnected())

			require.NoError(t, c.SendMessage(codec.MustNewMessage(protocol.MsgStatus, protocol.StatusPayload{Text: "hi"})))

			msg, err := c.ReceiveWithTimeout(2 * time.Second)
			require.NoError(t, err)
			assert.Equal(t, protocol.MsgStatus, msg.Type)
		})
	}
}

func TestClient_TracksSeat(t *testing.T) {
	c := NewClient(fakeServer(t, codec.FormatJSON), codec.FormatJSON)
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	assert.ErrorIs(t, c.SetReady(true), ErrNoSession)

	require.NoError(t, c.CreateSession("alice", 0))
	for range 2 {
		_, err := c.ReceiveWithTimeout(2 * time.Second)
		require.NoError(t, err)
	}

	assert.Equal(t, "p-1", c.PlayerID())
	assert.Equal(t, 424242, c.InvitationCode())
	require.NoError(t, c.SetReady(true))

	msg, err := c.ReceiveWithTimeout(2 * time.Second)
	require.NoError(t, err)
	payload, err := codec.ParsePayload[protocol.SetReadyPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "p-1", payload.PlayerID)
	assert.Equal(t, 424242, payload.InvitationCode)
	assert.True(t, payload.Ready)

	require.NoError(t, c.LeaveSession())
	assert.Zero(t, c.InvitationCode())
}

func TestClient_PongUpdatesLatency(t *testing.T) {
	c := NewClient("ws://unused", codec.FormatJSON)
	var reported int64 = -1
	c.OnLatencyUpdate = func(ms int64) { reported = ms }

	c.track(codec.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: time.Now().Add(-50 * time.Millisecond).UnixMilli(),
	}))

	assert.GreaterOrEqual(t, c.Latency(), int64(50))
	assert.Equal(t, c.Latency(), reported)
}

func TestClient_SendAfterClose(t *testing.T) {
	c := NewClient("ws://unused", codec.FormatJSON)
	c.Close()

	assert.ErrorIs(t, c.Ping(), ErrClosed)
	_, err := c.Receive()
	assert.ErrorIs(t, err, ErrClosed)
}

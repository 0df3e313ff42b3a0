package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/trivia-rush/internal/config"
	"github.com/palemoky/trivia-rush/internal/game/engine"
	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/protocol/codec"
	"github.com/palemoky/trivia-rush/internal/server/storage"
	"github.com/palemoky/trivia-rush/internal/testutil"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	srv    *Server
	engine *engine.Engine
	http   *httptest.Server
}

func newTestServer(t *testing.T, mutate func(*config.Config), opts ...Option) *testServer {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}

	var next atomic.Int64
	next.Store(300000)
	hub := NewHub()
	eng := engine.New(engine.NewRegistry(), testutil.Bank(3, 3), hub,
		engine.WithCodeGenerator(func() int { return int(next.Add(1)) }))
	srv, err := NewServer(cfg, eng, hub, opts...)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.cancel()
		srv.hub.CloseAll()
		ts.Close()
	})
	return &testServer{srv: srv, engine: eng, http: ts}
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func writeJSON(t *testing.T, conn *websocket.Conn, msgType protocol.MessageType, payload any) {
	t.Helper()
	data, err := codec.Encode(codec.FormatJSON, codec.MustNewMessage(msgType, payload))
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// readUntil reads frames until one of type want arrives.
func readUntil(t *testing.T, conn *websocket.Conn, format codec.Format, want protocol.MessageType) *protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		msg, err := codec.Decode(format, data)
		require.NoError(t, err)
		if msg.Type == want {
			return msg
		}
	}
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	var body map[string]any
	code := getJSON(t, ts.http.URL+"/health", &body)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["maintenance"])
}

func TestWebSocket_CreateSession(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)
	conn := ts.dial(t)

	writeJSON(t, conn, protocol.MsgCreateSession, protocol.CreateSessionPayload{PlayerName: "alice"})

	msg := readUntil(t, conn, codec.FormatJSON, protocol.MsgPlayerID)
	pid, err := codec.ParsePayload[protocol.PlayerIDPayload](msg)
	require.NoError(t, err)
	assert.NotEmpty(t, pid.PlayerID)

	msg = readUntil(t, conn, codec.FormatJSON, protocol.MsgSessionInfo)
	info, err := codec.ParsePayload[protocol.SessionInfo](msg)
	require.NoError(t, err)
	assert.Equal(t, 300001, info.InvitationCode)
	require.Len(t, info.Players, 1)
	assert.Equal(t, pid.PlayerID, info.Players[0].ID)

	var sessions []protocol.SessionInfo
	assert.Equal(t, http.StatusOK, getJSON(t, ts.http.URL+"/api/sessions", &sessions))
	assert.Len(t, sessions, 1)

	var one protocol.SessionInfo
	assert.Equal(t, http.StatusOK, getJSON(t, ts.http.URL+"/api/sessions/300001", &one))
	assert.Equal(t, info.ID, one.ID)
}

func TestWebSocket_ErrorReply(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)
	conn := ts.dial(t)

	writeJSON(t, conn, protocol.MsgJoinSession, protocol.JoinSessionPayload{InvitationCode: 123456, PlayerName: "bob"})

	msg := readUntil(t, conn, codec.FormatJSON, protocol.MsgError)
	payload, err := codec.ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeSessionNotFound, payload.Code)
}

func TestWebSocket_GarbageFrame(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)
	conn := ts.dial(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	msg := readUntil(t, conn, codec.FormatJSON, protocol.MsgError)
	payload, err := codec.ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeInvalidMsg, payload.Code)
}

func TestWebSocket_Protobuf(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, func(c *config.Config) { c.Server.WireFormat = "protobuf" })
	conn := ts.dial(t)

	data, err := codec.Encode(codec.FormatProtobuf,
		codec.MustNewMessage(protocol.MsgPing, protocol.PingPayload{Timestamp: 7}))
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, data))

	msg := readUntil(t, conn, codec.FormatProtobuf, protocol.MsgPong)
	pong, err := codec.ParsePayload[protocol.PongPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pong.ClientTimestamp)
}

func TestWebSocket_DisconnectReleasesPlayer(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)
	conn := ts.dial(t)

	writeJSON(t, conn, protocol.MsgCreateSession, protocol.CreateSessionPayload{PlayerName: "alice"})
	readUntil(t, conn, codec.FormatJSON, protocol.MsgSessionInfo)
	require.Equal(t, 1, ts.engine.Registry().PlayerCount())

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return ts.engine.Registry().PlayerCount() == 0 && ts.srv.GetOnlineCount() == 0
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWebSocket_MaintenanceRefused(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)
	ts.srv.EnterMaintenanceMode()

	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWebSocket_OriginRejected(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, func(c *config.Config) {
		c.Server.AllowedOrigins = []string{"https://trivia.example"}
	})

	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetSession_BadRequests(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.http.URL+"/api/sessions/abc", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.http.URL+"/api/sessions/100000", nil))
}

func TestLeaderboard_Disabled(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)

	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts.http.URL+"/api/leaderboard", nil))
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts.http.URL+"/api/players/alice", nil))
}

func TestLeaderboard(t *testing.T) {
	t.Parallel()
	lb := &testutil.MockLeaderboard{}
	lb.On("GetLeaderboard", mock.Anything, storage.BoardWeekly, 100).Return([]*storage.LeaderboardEntry{
		{Rank: 1, PlayerName: "alice", Rating: 30, Wins: 2, Games: 3},
	}, nil)
	lb.On("GetPlayerStats", mock.Anything, "alice").Return(&storage.PlayerStats{PlayerName: "alice", Wins: 2}, nil)
	lb.On("GetPlayerRank", mock.Anything, "alice").Return(int64(1), nil)
	lb.On("GetPlayerStats", mock.Anything, "nobody").Return(nil, nil)
	ts := newTestServer(t, nil, WithLeaderboard(lb))

	var board struct {
		Kind    string                     `json:"kind"`
		Entries []storage.LeaderboardEntry `json:"entries"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.http.URL+"/api/leaderboard?kind=weekly&limit=500", &board))
	assert.Equal(t, storage.BoardWeekly, board.Kind)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "alice", board.Entries[0].PlayerName)

	var player struct {
		Stats storage.PlayerStats `json:"stats"`
		Rank  int64               `json:"rank"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.http.URL+"/api/players/alice", &player))
	assert.Equal(t, 2, player.Stats.Wins)
	assert.Equal(t, int64(1), player.Rank)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.http.URL+"/api/players/nobody", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.http.URL+"/api/leaderboard?kind=monthly", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.http.URL+"/api/leaderboard?limit=-1", nil))
}

func TestGracefulShutdown_NoGames(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, nil)
	conn := ts.dial(t)
	require.Eventually(t, func() bool { return ts.srv.GetOnlineCount() == 1 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, ts.srv.GracefulShutdown(t.Context()))

	assert.True(t, ts.srv.IsMaintenanceMode())
	msg := readUntil(t, conn, codec.FormatJSON, protocol.MsgError)
	payload, err := codec.ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeServerShutdown, payload.Code)
}

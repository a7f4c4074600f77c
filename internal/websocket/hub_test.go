package websocket

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

	"github.com/rzzdr/quant-analytics/internal/montecarlo"
	"github.com/rzzdr/quant-analytics/pkg/models"
	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
)

type linearSource struct{}

func (linearSource) Simulate(h montecarlo.Handle, index int, _ string) (montecarlo.Path, error) {
	if h != 0 {
		return nil, errors.NotFound("term structure is not allocated")
	}
	path := make(montecarlo.Path, montecarlo.MaxAssets)
	for i := range path {
		path[i] = montecarlo.UnsetLevel
	}
	path[0] = float64(index)
	path[1] = 2 * float64(index)
	return path, nil
}

type received struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Error string `json:"error"`
	Data  struct {
		Handle int       `json:"handle"`
		Index  int       `json:"index"`
		Levels []float64 `json:"levels"`
		Paths  int       `json:"paths"`
	} `json:"data"`
}

func startHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(linearSource{})
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		srv.Close()
		cancel()
	})

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	return hub, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg received
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestStreamSendsRequestedPaths(t *testing.T) {
	_, conn := startHub(t)

	require.NoError(t, conn.WriteJSON(Request{Type: "stream", Handle: 0, From: 5, Count: 3, ID: "s1"}))

	for i := 5; i < 8; i++ {
		msg := readMessage(t, conn)
		require.Equal(t, "path", msg.Type)
		assert.Equal(t, "s1", msg.ID)
		assert.Equal(t, i, msg.Data.Index)
		assert.Equal(t, []float64{float64(i), 2 * float64(i)}, msg.Data.Levels)
	}

	done := readMessage(t, conn)
	assert.Equal(t, "stream_complete", done.Type)
	assert.Equal(t, 3, done.Data.Paths)
}

func TestStreamStopsAtEndOfPopulation(t *testing.T) {
	_, conn := startHub(t)

	require.NoError(t, conn.WriteJSON(Request{Type: "stream", From: montecarlo.TotalPaths - 2, Count: 10}))

	assert.Equal(t, montecarlo.TotalPaths-2, readMessage(t, conn).Data.Index)
	assert.Equal(t, montecarlo.TotalPaths-1, readMessage(t, conn).Data.Index)
	assert.Equal(t, 2, readMessage(t, conn).Data.Paths)
}

func TestStreamReportsSimulationError(t *testing.T) {
	_, conn := startHub(t)

	require.NoError(t, conn.WriteJSON(Request{Type: "stream", Handle: 3, Count: 1, ID: "bad"}))

	msg := readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "bad", msg.ID)
	assert.Contains(t, msg.Error, "not allocated")
}

func TestPingAndUnknownMessages(t *testing.T) {
	_, conn := startHub(t)

	require.NoError(t, conn.WriteJSON(Request{Type: "ping", ID: "p"}))
	pong := readMessage(t, conn)
	assert.Equal(t, "pong", pong.Type)
	assert.Equal(t, "p", pong.ID)

	require.NoError(t, conn.WriteJSON(Request{Type: "subscribe"}))
	assert.Equal(t, "error", readMessage(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, "invalid message format", readMessage(t, conn).Error)
}

func TestPublishCalibrationBroadcasts(t *testing.T) {
	hub, conn := startHub(t)

	event := &models.CalibrationEvent{ID: "cal-1", Handle: 0, Assets: 2}
	require.NoError(t, hub.PublishCalibration(context.Background(), event))

	msg := readMessage(t, conn)
	assert.Equal(t, "calibration", msg.Type)
	assert.Equal(t, "cal-1", msg.ID)
}

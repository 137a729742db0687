package api

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
)

func readFrame(t *testing.T, conn *websocket.Conn) (liveFrame, exportedLesson) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame liveFrame
	require.NoError(t, conn.ReadJSON(&frame))
	var l exportedLesson
	require.NoError(t, json.Unmarshal(frame.Lesson, &l))
	return frame, l
}

func TestLive_PushesAfterEdits(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	id := createSession(t, srv)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/" + id + "/live"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	frame, l := readFrame(t, conn)
	assert.Len(t, l.Sections, 1)
	assert.Contains(t, frame.Preview, "New Section 1")

	rec := op(t, srv, id, `{"op":"update_meta","field":"title","value":"Live Title"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	frame, l = readFrame(t, conn)
	assert.Equal(t, "Live Title", l.Meta.Title)
	assert.Contains(t, frame.Preview, "<em>Title</em>")

	rec = op(t, srv, id, `{"op":"add_section"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	_, l = readFrame(t, conn)
	assert.Len(t, l.Sections, 2)

	// Failed operations push nothing; the next frame is the next success.
	op(t, srv, id, `{"op":"remove_block","section":0,"block":5}`)
	op(t, srv, id, `{"op":"update_meta","field":"slug","value":"after"}`)
	_, l = readFrame(t, conn)
	assert.Equal(t, "after", l.Slug)

	// Deleting the session ends the stream.
	do(t, srv, http.MethodDelete, "/api/sessions/"+id, "", nil)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestLive_UnknownSession(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/missing/live"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

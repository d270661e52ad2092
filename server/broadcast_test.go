package main

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mjpegPart is the exact bytes streamMJPEG emits for one frame.
func mjpegPart(payload []byte) string {
	return fmt.Sprintf("--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n%s\r\n",
		MJPEGBoundary, len(payload), payload)
}

func TestViewUnknown(t *testing.T) {
	_, r := newTestServer()

	w := doRequest(r, http.MethodGet, "/view/unknown123", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMJPEGViewerReceivesFrames(t *testing.T) {
	_, r := newTestServer()
	srv := httptest.NewServer(r)
	defer srv.Close()

	push := func(payload string) {
		resp, err := http.Post(srv.URL+"/push/cam1", "image/jpeg", strings.NewReader(payload))
		require.NoError(t, err)
		resp.Body.Close()
	}
	push("jpeg-b1")

	resp, err := http.Get(srv.URL + "/view/cam1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "multipart/x-mixed-replace; boundary="+MJPEGBoundary, resp.Header.Get("Content-Type"))

	// The first frame is emitted once; the loop then idles until the
	// sequence advances, so reads line up with exactly one part each.
	want := mjpegPart([]byte("jpeg-b1"))
	got := make([]byte, len(want))
	_, err = io.ReadFull(resp.Body, got)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))

	push("jpeg-b2")
	want = mjpegPart([]byte("jpeg-b2"))
	got = make([]byte, len(want))
	_, err = io.ReadFull(resp.Body, got)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))
}

// TestMJPEGViewerIsolation checks that dropping one viewer leaves another
// viewer of the same stream streaming.
func TestMJPEGViewerIsolation(t *testing.T) {
	_, r := newTestServer()
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/push/cam1", "image/jpeg", strings.NewReader("jpeg-b1"))
	require.NoError(t, err)
	resp.Body.Close()

	first, err := http.Get(srv.URL + "/view/cam1")
	require.NoError(t, err)
	second, err := http.Get(srv.URL + "/view/cam1")
	require.NoError(t, err)
	defer second.Body.Close()

	// Both get the current frame, then the first disconnects.
	want := mjpegPart([]byte("jpeg-b1"))
	buf := make([]byte, len(want))
	_, err = io.ReadFull(first.Body, buf)
	require.NoError(t, err)
	_, err = io.ReadFull(second.Body, buf)
	require.NoError(t, err)
	first.Body.Close()

	resp, err = http.Post(srv.URL+"/push/cam1", "image/jpeg", strings.NewReader("jpeg-b2"))
	require.NoError(t, err)
	resp.Body.Close()

	want = mjpegPart([]byte("jpeg-b2"))
	got := make([]byte, len(want))
	_, err = io.ReadFull(second.Body, got)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))
}

// TestMJPEGViewerEndsOnRemove verifies that removing the stream terminates
// open viewer connections.
func TestMJPEGViewerEndsOnRemove(t *testing.T) {
	_, r := newTestServer()
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/push/cam1", "image/jpeg", strings.NewReader("jpeg-b1"))
	require.NoError(t, err)
	resp.Body.Close()

	view, err := http.Get(srv.URL + "/view/cam1")
	require.NoError(t, err)
	defer view.Body.Close()

	part := make([]byte, len(mjpegPart([]byte("jpeg-b1"))))
	_, err = io.ReadFull(view.Body, part)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/remove/cam1", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	done := make(chan error, 1)
	go func() {
		_, err := view.Body.Read(make([]byte, 1))
		done <- err
	}()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(2 * time.Second):
		t.Fatal("viewer connection still open after stream removal")
	}
}

func TestWebSocketViewer(t *testing.T) {
	_, r := newTestServer()
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/push/cam1", "image/jpeg", strings.NewReader("jpeg-b1"))
	require.NoError(t, err)
	resp.Body.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/cam1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	assert.Equal(t, []byte("jpeg-b1"), msg)
}

func TestWebSocketUnknownStream(t *testing.T) {
	_, r := newTestServer()
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/unknown123"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

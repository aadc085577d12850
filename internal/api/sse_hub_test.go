package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agentdash/domain/lookup"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readEvent reads one "event:/data:" frame from an SSE stream
func readEvent(t *testing.T, r *bufio.Reader) (string, ProgressEvent) {
	t.Helper()
	var name string
	var event ProgressEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if name != "ping" {
				require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event))
			}
		case line == "" && name != "":
			return name, event
		}
	}
}

func TestSSEHubStreamsSessionEvents(t *testing.T) {
	hub := NewSSEHub()
	defer hub.Close()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleSSE))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?session_id=s1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return hub.GetClientCount("s1") == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"s1"}, hub.GetActiveSessions())

	events := NewSSEEventBroadcaster(hub)
	progress := events.Progress("s1")
	require.NotNil(t, progress)

	hub.Broadcast(ProgressEvent{SessionID: "other", EventType: EventProgress, Done: 9, Total: 9})
	progress(1, 2)
	events.Finished("s1", &lookup.Batch{ID: "b-1", Rows: make([]lookup.ResultRow, 2)}, nil)

	reader := bufio.NewReader(resp.Body)
	name, ev := readEvent(t, reader)
	assert.Equal(t, EventProgress, name)
	assert.Equal(t, 1, ev.Done)
	assert.Equal(t, 2, ev.Total)
	assert.InDelta(t, 0.5, ev.Progress, 1e-9)
	assert.False(t, ev.Timestamp.IsZero())

	name, ev = readEvent(t, reader)
	assert.Equal(t, EventDone, name)
	assert.Equal(t, "b-1", ev.BatchID)
	assert.Equal(t, 2, ev.Done)

	cancel()
	require.Eventually(t, func() bool { return hub.GetClientCount("s1") == 0 }, time.Second, 5*time.Millisecond)
}

func TestSSEHubRequiresSession(t *testing.T) {
	hub := NewSSEHub()
	defer hub.Close()

	w := httptest.NewRecorder()
	hub.HandleSSE(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSSEHubCloseEndsStreams(t *testing.T) {
	hub := NewSSEHub()
	done := make(chan struct{})

	go func() {
		defer close(done)
		hub.HandleSSE(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events?session_id=s", nil))
	}()

	require.Eventually(t, func() bool { return hub.GetClientCount("s") == 1 }, time.Second, 5*time.Millisecond)
	hub.Close()
	hub.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not end after Close")
	}
}

func TestBroadcasterWithoutSession(t *testing.T) {
	hub := NewSSEHub()
	defer hub.Close()
	events := NewSSEEventBroadcaster(hub)

	assert.Nil(t, events.Progress(""))
	events.Finished("", nil, nil)

	var nilEvents *SSEEventBroadcaster
	assert.Nil(t, nilEvents.Progress("s"))
	assert.InDelta(t, 1.0, fraction(0, 0), 1e-9)
}

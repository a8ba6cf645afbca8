package integration

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wrapbeep.click/internal/audio"
	"wrapbeep.click/internal/audio/audiotest"
	"wrapbeep.click/internal/desktop"
	"wrapbeep.click/internal/tracking"
	"wrapbeep.click/internal/trigger"
	"wrapbeep.click/internal/widget"
)

// desktopStub serves the clip over HTTP and pushes events over a websocket.
type desktopStub struct {
	server     *httptest.Server
	events     chan string
	subscribed chan desktop.SubscribeRequest
	serveClip  atomic.Bool
}

func newDesktopStub(t *testing.T) *desktopStub {
	t.Helper()
	stub := &desktopStub{
		events:     make(chan string, 8),
		subscribed: make(chan desktop.SubscribeRequest, 1),
	}
	stub.serveClip.Store(true)
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	mux := http.NewServeMux()
	mux.HandleFunc("/sounds/beep.wav", func(w http.ResponseWriter, r *http.Request) {
		if !stub.serveClip.Load() {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(audiotest.Beep())
	})
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req desktop.SubscribeRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		stub.subscribed <- req

		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case msg := <-stub.events:
				if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
					return
				}
			case <-gone:
				return
			}
		}
	})

	stub.server = httptest.NewServer(mux)
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *desktopStub) clipURL() string {
	return s.server.URL + "/sounds/beep.wav"
}

func (s *desktopStub) eventsURL() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http") + "/events"
}

type endToEnd struct {
	stub    *desktopStub
	db      *sql.DB
	devices *audiotest.DeviceFactory
	client  *desktop.Client
	widget  *widget.Widget
}

func setup(t *testing.T) *endToEnd {
	t.Helper()
	stub := newDesktopStub(t)

	db, err := tracking.NewDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	devices := &audiotest.DeviceFactory{}
	w, err := widget.New(widget.Options{
		AudioPath: stub.clipURL(),
		Fetcher:   audio.NewSchemeFetcher(nil),
		NewDevice: devices.Create,
		Recorder:  tracking.NewRecorder(tracking.WithHook(tracking.NewDBHook(db).GetHook())),
	})
	require.NoError(t, err)

	client := desktop.NewClient(desktop.ClientConfig{
		URL:            stub.eventsURL(),
		Subscribe:      []string{widget.DefaultEventName},
		ReconnectDelay: 50 * time.Millisecond,
	}, nil)
	require.NoError(t, w.Connect(client))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = client.Run(ctx)
	}()
	t.Cleanup(func() {
		_ = w.Disconnect()
		cancel()
		<-done
	})

	select {
	case req := <-stub.subscribed:
		require.Equal(t, []string{widget.DefaultEventName}, req.Events)
	case <-time.After(5 * time.Second):
		t.Fatal("client never subscribed")
	}

	return &endToEnd{stub: stub, db: db, devices: devices, client: client, widget: w}
}

func (e *endToEnd) summary(t *testing.T) *tracking.Summary {
	t.Helper()
	summary, err := tracking.Summarize(e.db, tracking.QueryFilter{})
	require.NoError(t, err)
	return summary
}

func (e *endToEnd) waitForCount(t *testing.T, kind, outcome string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return e.summary(t).Count(kind, outcome) == n
	}, 5*time.Second, 10*time.Millisecond, "%s/%s never reached %d", kind, outcome, n)
}

func TestWrapupBeepsOnlyAfterEnable(t *testing.T) {
	e := setup(t)

	e.stub.events <- `{"event":"eAgentWrapup","data":{"interactionId":"i-1"}}`
	e.waitForCount(t, tracking.KindTrigger, tracking.OutcomeSkipped, 1)
	assert.Empty(t, e.devices.Devices(), "no device before the user enables audio")

	e.widget.Toggle(context.Background(), true)
	require.NoError(t, e.widget.LastError())
	require.True(t, e.widget.Armed())

	e.stub.events <- `{"event":"eAgentLogin"}`
	e.stub.events <- `{"event":"eAgentWrapup","data":{"interactionId":"i-2"}}`
	e.stub.events <- `{"event":"eAgentWrapup","data":{"interactionId":"i-3"}}`
	e.waitForCount(t, tracking.KindTrigger, tracking.OutcomePlayed, 2)

	device := e.devices.Last()
	require.NotNil(t, device)
	started := device.Started()
	require.Len(t, started, 2)
	assert.Same(t, started[0], started[1], "every beep plays the cached clip")
	assert.Equal(t, uint32(8000), started[0].SampleRate)

	summary := e.summary(t)
	assert.Equal(t, 1, summary.Instances)
	assert.Equal(t, 1, summary.Count(tracking.KindUnlock, tracking.OutcomeOK))
}

func TestDisconnectStopsBeeping(t *testing.T) {
	e := setup(t)
	e.widget.Toggle(context.Background(), true)
	require.True(t, e.widget.Armed())

	require.NoError(t, e.widget.Disconnect())
	assert.Equal(t, 1, e.devices.Last().Closes())

	marker := make(chan struct{}, 1)
	e.client.AddEventListener("eMarker", func(trigger.Event) { marker <- struct{}{} })
	e.stub.events <- `{"event":"eAgentWrapup"}`
	e.stub.events <- `{"event":"eMarker"}`

	select {
	case <-marker:
	case <-time.After(5 * time.Second):
		t.Fatal("marker event not delivered")
	}
	assert.Empty(t, e.devices.Last().Started())
	assert.Equal(t, 0, e.summary(t).Count(tracking.KindTrigger, tracking.OutcomePlayed))
}

func TestUnlockRecoversAfterFetchFailure(t *testing.T) {
	e := setup(t)
	e.stub.serveClip.Store(false)

	e.widget.Toggle(context.Background(), true)
	require.True(t, audio.IsFetchError(e.widget.LastError()))
	assert.False(t, e.widget.Armed())

	e.stub.events <- `{"event":"eAgentWrapup"}`
	e.waitForCount(t, tracking.KindTrigger, tracking.OutcomeSkipped, 1)

	e.stub.serveClip.Store(true)
	e.widget.Toggle(context.Background(), false)
	e.widget.Toggle(context.Background(), true)
	require.NoError(t, e.widget.LastError())

	e.stub.events <- `{"event":"eAgentWrapup"}`
	e.waitForCount(t, tracking.KindTrigger, tracking.OutcomePlayed, 1)

	summary := e.summary(t)
	assert.Equal(t, 1, summary.Count(tracking.KindUnlock, tracking.OutcomeFailed))
	assert.Equal(t, 1, summary.Count(tracking.KindUnlock, tracking.OutcomeOK))
	assert.Contains(t, summary.LastFailed, "status 404")
}

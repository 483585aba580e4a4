package stream_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/change"
	"github.com/corray333/backend-labs/pos/internal/service/models/notification"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/corray333/backend-labs/pos/internal/service/models/table"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpsession"
	"github.com/corray333/backend-labs/pos/internal/transport/http/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var waiter = session.Session{Token: "t", UserID: "u-1", Role: session.RoleWaiter}

type fakeWatcher struct {
	ch chan change.Change
}

func (f *fakeWatcher) Watch(change.Collection) (<-chan change.Change, func(), error) {
	return f.ch, func() {}, nil
}

type tableLister struct {
	calls atomic.Int32
}

func (l *tableLister) ListTables(context.Context, session.Session) ([]table.Table, error) {
	n := l.calls.Add(1)
	tables := []table.Table{{ID: "1", Status: table.StatusAvailable}}
	if n > 1 {
		tables[0].Status = table.StatusUnavailable
		tables[0].OrderID = "o-1"
	}

	return tables, nil
}

type fakeNotifier struct {
	ch chan notification.OrderReady
}

func (f *fakeNotifier) Subscribe(sess session.Session) (<-chan notification.OrderReady, func(), error) {
	if err := sess.Require(session.RoleWaiter); err != nil {
		return nil, nil, err
	}

	return f.ch, func() {}, nil
}

func serve(t *testing.T, sess session.Session, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h(w, r.WithContext(httpsession.WithSession(r.Context(), sess)))
	}))
	t.Cleanup(srv.Close)

	return srv
}

type event struct {
	name string
	data string
}

// next reads the next event, skipping comments.
func next(t *testing.T, r *bufio.Reader) event {
	t.Helper()
	var ev event
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func open(t *testing.T, url string) *bufio.Reader {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	return bufio.NewReader(resp.Body)
}

func TestTables(t *testing.T) {
	w := &fakeWatcher{ch: make(chan change.Change, 1)}
	lister := &tableLister{}
	srv := serve(t, waiter, func(rw http.ResponseWriter, r *http.Request) {
		stream.Tables(rw, r, w, lister)
	})

	body := open(t, srv.URL)

	first := next(t, body)
	assert.Equal(t, "snapshot", first.name)
	var tables []table.Table
	require.NoError(t, json.Unmarshal([]byte(first.data), &tables))
	require.Len(t, tables, 1)
	assert.True(t, tables[0].Available())

	w.ch <- change.Change{Collection: change.CollectionTables, Op: change.OpModified, ID: "1"}

	second := next(t, body)
	assert.Equal(t, "snapshot", second.name)
	require.NoError(t, json.Unmarshal([]byte(second.data), &tables))
	assert.Equal(t, "o-1", tables[0].OrderID)
}

func TestNotifications(t *testing.T) {
	n := &fakeNotifier{ch: make(chan notification.OrderReady, 1)}
	srv := serve(t, waiter, func(rw http.ResponseWriter, r *http.Request) {
		stream.Notifications(rw, r, n)
	})

	body := open(t, srv.URL)
	n.ch <- notification.OrderReady{OrderID: "o-1", TableID: "4", TotalCents: 1200}

	ev := next(t, body)
	assert.Equal(t, "order_ready", ev.name)
	var got notification.OrderReady
	require.NoError(t, json.Unmarshal([]byte(ev.data), &got))
	assert.Equal(t, "o-1", got.OrderID)
	assert.Equal(t, "4", got.TableID)
}

func TestNotifications_Forbidden(t *testing.T) {
	n := &fakeNotifier{ch: make(chan notification.OrderReady)}
	cook := session.Session{Token: "t", UserID: "u-2", Role: session.RoleKitchen}
	srv := serve(t, cook, func(rw http.ResponseWriter, r *http.Request) {
		stream.Notifications(rw, r, n)
	})

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

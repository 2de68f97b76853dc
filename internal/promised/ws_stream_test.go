package promised

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/promise-core/internal/metrics"
	"github.com/gorilla/websocket"
)

func TestHTTPServerEvaluationSocket(t *testing.T) {
	srv, session, _ := newTestHTTPServer(t, 0)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/evaluations/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	read := func() wsMessage {
		t.Helper()
		if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
			t.Fatal(err)
		}
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		return msg
	}

	first := read()
	if first.Type != "evaluation" || first.Evaluation == nil || first.Evaluation.ID != session.Current().ID {
		t.Fatalf("unexpected first frame: %+v", first)
	}

	ev := session.ApplyActions(metrics.SourceApply)
	next := read()
	if next.Evaluation == nil || next.Evaluation.ID != ev.ID {
		t.Fatalf("expected evaluation %s, got %+v", ev.ID, next.Evaluation)
	}
}

func TestHTTPServerEvaluationSocketRejectsPlainHTTP(t *testing.T) {
	srv, _, _ := newTestHTTPServer(t, 0)
	rr := doRequest(t, srv, http.MethodGet, "/v1/evaluations/ws", "")
	if rr.Code < 400 {
		t.Fatalf("expected an error status for a non-websocket request, got %d", rr.Code)
	}
}

package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/fieldtrack/internal/logging"
	"github.com/dukerupert/fieldtrack/internal/session"
	fws "github.com/dukerupert/fieldtrack/internal/websocket"
)

type fakeSession struct {
	mu      sync.Mutex
	status  session.Status
	err     error
	logouts int
}

func (f *fakeSession) Status() session.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeSession) Logout(_ context.Context, confirmed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !confirmed {
		return session.ErrNotConfirmed
	}
	if f.err != nil {
		return f.err
	}
	f.logouts++
	return nil
}

func newTestServer(sess *fakeSession) (*Server, *fws.Hub) {
	logger := logging.New(io.Discard, "error", "text")
	hub := fws.NewHub(logger)
	return New(sess, hub, logger), hub
}

func localRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = "127.0.0.1:40000"
	return req
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) result {
	t.Helper()
	var res result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return res
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(&fakeSession{})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestStatusReturnsSnapshot(t *testing.T) {
	sess := &fakeSession{status: session.Status{
		Text:           "Connected and Tracking",
		Indicator:      session.IndicatorConnected,
		MarketerName:   "Ann",
		ElapsedSeconds: 65,
	}}
	srv, _ := newTestServer(sess)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got session.Status
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Text != "Connected and Tracking" || got.MarketerName != "Ann" || got.ElapsedSeconds != 65 {
		t.Errorf("status = %+v", got)
	}
}

func TestLogoutConfirmed(t *testing.T) {
	sess := &fakeSession{}
	srv, _ := newTestServer(sess)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, localRequest(http.MethodPost, "/api/logout", `{"confirm":true}`))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if res := decodeResult(t, rec); !res.Success {
		t.Errorf("result = %+v", res)
	}
	if sess.logouts != 1 {
		t.Errorf("logouts = %d, want 1", sess.logouts)
	}
}

func TestLogoutErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"unconfirmed", `{"confirm":false}`, nil, http.StatusBadRequest},
		{"missing confirm", `{}`, nil, http.StatusBadRequest},
		{"bad json", `{confirm`, nil, http.StatusBadRequest},
		{"already ended", `{"confirm":true}`, session.ErrEnded, http.StatusConflict},
		{"loop gone", `{"confirm":true}`, context.DeadlineExceeded, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &fakeSession{err: tt.err}
			srv, _ := newTestServer(sess)
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, localRequest(http.MethodPost, "/api/logout", tt.body))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if res := decodeResult(t, rec); res.Success {
				t.Error("expected success=false")
			}
			if sess.logouts != 0 {
				t.Errorf("logouts = %d, want 0", sess.logouts)
			}
		})
	}
}

func TestLogoutRejectsRemoteClients(t *testing.T) {
	sess := &fakeSession{}
	srv, _ := newTestServer(sess)
	req := httptest.NewRequest(http.MethodPost, "/api/logout", strings.NewReader(`{"confirm":true}`))
	req.RemoteAddr = "10.0.0.8:5000"
	req.Header.Set("X-Real-IP", "127.0.0.1")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if sess.logouts != 0 {
		t.Errorf("logouts = %d, want 0", sess.logouts)
	}
}

func TestLogoutRateLimited(t *testing.T) {
	srv, _ := newTestServer(&fakeSession{err: session.ErrEnded})
	router := srv.Router()

	for i := 0; i < logoutLimit; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, localRequest(http.MethodPost, "/api/logout", `{"confirm":true}`))
		if rec.Code != http.StatusConflict {
			t.Fatalf("request %d: status = %d, want 409", i+1, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, localRequest(http.MethodPost, "/api/logout", `{"confirm":true}`))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestLogoutMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(&fakeSession{})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, localRequest(http.MethodGet, "/api/logout", ""))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(&fakeSession{})
	router := srv.Router()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fieldtrack_http_requests_total") {
		t.Error("expected fieldtrack_http_requests_total in metrics output")
	}
}

func TestWebSocketReceivesStatus(t *testing.T) {
	srv, hub := newTestServer(&fakeSession{})
	hub.Publish(session.Status{Text: "Acquiring GPS..."})

	httpSrv := httptest.NewServer(srv.Router())
	defer httpSrv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(httpSrv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg fws.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != fws.TypeStatus || msg.Status.Text != "Acquiring GPS..." {
		t.Errorf("message = %+v", msg)
	}
}

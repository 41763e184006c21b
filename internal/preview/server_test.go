package preview

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/domsync/pkg/dom"
	"github.com/vango-dev/domsync/pkg/middleware"
	"github.com/vango-dev/domsync/pkg/morph"
)

func newTestServer(t *testing.T, page string, opts Options) *Server {
	t.Helper()
	doc, err := dom.ParseString(page)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return NewServer(doc, opts)
}

func post(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/sync", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body %q: %v", rec.Body.String(), err)
	}
	return body.Code
}

func TestServerDocument(t *testing.T) {
	s := newTestServer(t, `<p>hi</p>`, Options{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<p>hi</p>") {
		t.Errorf("body should contain the document, got %q", body)
	}
	if !strings.Contains(body, "/_domsync/ws") || strings.Index(body, "<script>") > strings.Index(body, "</body>") {
		t.Error("reload script should be injected before </body>")
	}
	if strings.Contains(s.Document(), "<script>") {
		t.Error("stored document must not contain the reload script")
	}
}

func TestServerDocumentMinified(t *testing.T) {
	s := newTestServer(t, "<body>\n  <p>hi</p>\n  <!--keep-->\n</body>", Options{Minify: true})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "<!--keep-->") {
		t.Errorf("comments should survive minification, got %q", body)
	}
	if strings.Contains(body, "\n  <p>") {
		t.Errorf("whitespace should be collapsed, got %q", body)
	}
}

func TestServerSync(t *testing.T) {
	s := newTestServer(t, `<p>hi</p>`, Options{})
	para := s.doc.FirstChild.LastChild.FirstChild // html > body > p

	rec := post(t, s, `<p>bye</p><ul></ul>`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}

	var stats morph.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TextUpdated != 1 || stats.Inserted != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if got := s.Document(); !strings.Contains(got, "<body><p>bye</p><ul></ul></body>") {
		t.Errorf("Document() = %q", got)
	}
	if s.doc.FirstChild.LastChild.FirstChild != para {
		t.Error("the existing paragraph should be kept")
	}
}

func TestServerSyncTooLarge(t *testing.T) {
	s := newTestServer(t, ``, Options{MaxBodyBytes: 8})

	rec := post(t, s, `<p>this body is too long</p>`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "D041" {
		t.Errorf("code = %q, want D041", code)
	}
}

func TestServerSyncPassError(t *testing.T) {
	s := newTestServer(t, `<p></p>`, Options{Markers: morph.JSONMarkers{}})

	rec := post(t, s, `<p></p><!--island:{"id":"a"}--><b></b>`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if code := errorCode(t, rec); code != "D002" {
		t.Errorf("code = %q, want D002", code)
	}
}

func TestServerKeepsIslands(t *testing.T) {
	island := func(content string) string {
		return `<!--island:{"id":"w1","type":"wasm"}-->` + content + `<!--island:{"id":"w1","type":"wasm"}-->`
	}
	s := newTestServer(t, `<h1>a</h1>`+island(`<canvas data-mounted="yes"></canvas>`), Options{Markers: morph.JSONMarkers{}})

	rec := post(t, s, `<h1>b</h1>`+island(`<div>placeholder</div>`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	got := s.Document()
	if !strings.Contains(got, `<canvas data-mounted="yes"></canvas>`) || strings.Contains(got, "placeholder") {
		t.Errorf("island content should be kept, got %q", got)
	}
	if !strings.Contains(got, "<h1>b</h1>") {
		t.Errorf("content around the island should sync, got %q", got)
	}
}

// subscribe connects a feed client and waits until the server has
// registered it.
func subscribe(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/_domsync/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for s.Feed().ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestServerFeed(t *testing.T) {
	s := newTestServer(t, `<p>hi</p>`, Options{})
	conn := subscribe(t, s)

	if _, err := s.Sync(t.Context(), strings.NewReader(`<p>there</p>`)); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Seq != 1 || msg.Type != MessagePass || msg.Stats == nil || msg.Stats.TextUpdated != 1 {
		t.Errorf("message = %+v", msg)
	}
	if !strings.Contains(msg.HTML, "<p>there</p>") {
		t.Errorf("message HTML = %q", msg.HTML)
	}
}

func TestServerConcurrentSyncFeed(t *testing.T) {
	const workers, perWorker = 4, 8
	s := newTestServer(t, `<p>start</p>`, Options{})
	conn := subscribe(t, s)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				page := fmt.Sprintf(`<p>%d</p><ul><li>%d</li></ul>`, w, i)
				if _, err := s.Sync(t.Context(), strings.NewReader(page)); err != nil {
					t.Errorf("Sync() error = %v", err)
				}
			}
		}()
	}
	wg.Wait()

	var last Message
	for want := uint64(1); want <= workers*perWorker; want++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read message %d: %v", want, err)
		}
		if err := json.Unmarshal(data, &last); err != nil {
			t.Fatal(err)
		}
		if last.Seq != want || last.Type != MessagePass {
			t.Fatalf("message %d = seq %d type %q", want, last.Seq, last.Type)
		}
	}
	if last.HTML != s.Document() {
		t.Errorf("last message HTML = %q, want current document %q", last.HTML, s.Document())
	}
	if got := s.Totals().Passes; got != workers*perWorker {
		t.Errorf("Totals().Passes = %d, want %d", got, workers*perWorker)
	}
}

func TestServerStats(t *testing.T) {
	s := newTestServer(t, `<p>a</p>`, Options{})

	if rec := post(t, s, `<p>b</p><p>c</p>`); rec.Code != http.StatusOK {
		t.Fatalf("sync status = %d", rec.Code)
	}
	if rec := post(t, s, `<p>b</p>`); rec.Code != http.StatusOK {
		t.Fatalf("sync status = %d", rec.Code)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	var totals Totals
	if err := json.Unmarshal(rec.Body.Bytes(), &totals); err != nil {
		t.Fatalf("stats body %q: %v", rec.Body.String(), err)
	}

	want := Totals{Passes: 2, Stats: morph.Stats{Inserted: 1, Removed: 1, TextUpdated: 1}}
	want.Stats.ElementsVisited = totals.Stats.ElementsVisited
	if totals != want {
		t.Errorf("totals = %+v, want %+v", totals, want)
	}
}

func TestServerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := newTestServer(t, ``, Options{
		Registry:   reg,
		Middleware: []morph.Middleware{middleware.Prometheus(middleware.WithRegistry(reg))},
	})

	if rec := post(t, s, `<p>x</p>`); rec.Code != http.StatusOK {
		t.Fatalf("sync status = %d", rec.Code)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `domsync_passes_total{range="Physical",status="success"} 1`) {
		t.Errorf("metrics output missing pass counter:\n%s", body)
	}
}

func TestServerHealthz(t *testing.T) {
	s := newTestServer(t, ``, Options{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestNewServerNilDocument(t *testing.T) {
	s := NewServer(nil, Options{Logger: slog.New(slog.DiscardHandler)})
	if got := s.Document(); got != "<html><head></head><body></body></html>" {
		t.Errorf("Document() = %q", got)
	}
}

package httpapi

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-sentiment-backend/internal/classifier"
	"github.com/tbourn/go-sentiment-backend/internal/config"
	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/http/middleware"
	"github.com/tbourn/go-sentiment-backend/internal/repo"
)

// --- test plumbing ---

func newTestStore(t *testing.T) *repo.Gateway {
	t.Helper()
	g := repo.NewGateway()
	if err := g.Connect(context.Background(), filepath.Join(t.TempDir(), "router.db"), 5*time.Second); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func newFallbackClassifier(t *testing.T) classifier.Classifier {
	t.Helper()
	a, err := classifier.NewAnalyzer(classifier.Options{})
	if err != nil {
		t.Fatalf("analyzer: %v", err)
	}
	return a
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:    "/api",
		DBPath:         "router.db",
		RateRPS:        100,
		RateBurst:      50,
		IdempotencyTTL: time.Hour,
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newRouter(t *testing.T, store *repo.Gateway, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, store, newFallbackClassifier(t), cfg)
	return r
}

func do(r http.Handler, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func webhookForm(body, from, sid string) (io.Reader, map[string]string) {
	form := url.Values{"Body": {body}, "From": {from}, "MessageSid": {sid}}
	return strings.NewReader(form.Encode()), map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
}

// --- tests ---

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: nil}
	r := newRouter(t, newTestStore(t), cfg)

	w := do(r, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}

	w = do(r, http.MethodGet, "/metrics", nil, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	if w = do(r, http.MethodGet, "/nope", nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	if w = do(r, http.MethodPost, "/health", nil, nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
	if w = do(r, http.MethodGet, "/swagger/index.html", nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger must be off by default, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}}
	r := newRouter(t, newTestStore(t), cfg)

	w := do(r, http.MethodGet, "/health", nil, map[string]string{"Origin": "http://localhost:3000"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
	if exp := w.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(exp, "X-Total-Count") {
		t.Fatalf("X-Total-Count must be exposed, got %q", exp)
	}

	w = do(r, http.MethodGet, "/health", nil, map[string]string{"Origin": "http://evil.example"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("disallowed origin expected 403, got %d", w.Code)
	}
}

func TestRegisterRoutes_WebhookToStats_EndToEnd(t *testing.T) {
	store := newTestStore(t)
	r := newRouter(t, store, testConfig())

	body, hdr := webhookForm("La comida estaba fría y el servicio muy lento", "whatsapp:+5215550001111", "SM001")
	w := do(r, http.MethodPost, "/webhook/whatsapp", body, hdr)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<Response></Response>") {
		t.Fatalf("webhook: %d %s", w.Code, w.Body.String())
	}

	// Redelivery of the same MessageSid is acknowledged without a second save.
	body, hdr = webhookForm("La comida estaba fría y el servicio muy lento", "whatsapp:+5215550001111", "SM001")
	if w = do(r, http.MethodPost, "/webhook/whatsapp", body, hdr); w.Code != http.StatusOK {
		t.Fatalf("redelivery: %d", w.Code)
	}

	w = do(r, http.MethodGet, "/api/messages", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Total-Count"); got != "1" {
		t.Fatalf("X-Total-Count=%q", got)
	}
	var msgs []domain.MessageView
	if err := json.Unmarshal(w.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Sentiment != "negative" || msgs[0].Topic != "Customer Service" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}

	etag := w.Header().Get("ETag")
	if w = do(r, http.MethodGet, "/api/messages", nil, map[string]string{"If-None-Match": etag}); w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}

	w = do(r, http.MethodGet, "/api/messages/"+msgs[0].ID, nil, nil)
	var one domain.MessageView
	if err := json.Unmarshal(w.Body.Bytes(), &one); err != nil || w.Code != http.StatusOK || one.ExternalRef != "SM001" {
		t.Fatalf("get by id: %d %+v err=%v", w.Code, one, err)
	}
	if w = do(r, http.MethodGet, "/api/messages/nope", nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown id: expected 404, got %d", w.Code)
	}

	w = do(r, http.MethodGet, "/api/sentiments", nil, nil)
	var st domain.SentimentStats
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("json: %v", err)
	}
	if st.Negative != 1 || st.Total != 1 || st.Pending != 0 {
		t.Fatalf("unexpected stats: %+v", st)
	}

	for _, p := range []string{"/api/topics", "/api/themes"} {
		w = do(r, http.MethodGet, p, nil, nil)
		var tc []domain.TopicCount
		if err := json.Unmarshal(w.Body.Bytes(), &tc); err != nil {
			t.Fatalf("%s json: %v", p, err)
		}
		if len(tc) != 1 || tc[0].Topic != "Customer Service" || tc[0].Count != 1 {
			t.Fatalf("%s unexpected: %+v", p, tc)
		}
	}
}

func TestRegisterRoutes_TestMessage_IdempotencyReplay(t *testing.T) {
	r := newRouter(t, newTestStore(t), testConfig())
	form := url.Values{"message": {"Todo excelente, gracias"}, "sender": {"tester"}}.Encode()
	hdr := map[string]string{
		"Content-Type":                  "application/x-www-form-urlencoded",
		middleware.HeaderIdempotencyKey: "retry-42",
	}

	w := do(r, http.MethodPost, "/api/test-message", strings.NewReader(form), hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("first: %d %s", w.Code, w.Body.String())
	}
	var first map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &first)
	if first["id"] == "" || w.Header().Get(middleware.HeaderIdempotencyReplayed) != "" {
		t.Fatalf("unexpected first response: %v", first)
	}

	w = do(r, http.MethodPost, "/api/test-message", strings.NewReader(form), hdr)
	var second map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &second)
	if w.Code != http.StatusOK || second["id"] != first["id"] {
		t.Fatalf("replay: %d %v", w.Code, second)
	}
	if w.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("missing replay header")
	}

	hdr[middleware.HeaderIdempotencyKey] = "bad key!"
	if w = do(r, http.MethodPost, "/api/test-message", strings.NewReader(form), hdr); w.Code != http.StatusBadRequest {
		t.Fatalf("bad key expected 400, got %d", w.Code)
	}
}

func TestRegisterRoutes_Gzip_And_StoreClosed(t *testing.T) {
	store := newTestStore(t)
	r := newRouter(t, store, testConfig())

	w := do(r, http.MethodGet, "/api/sentiments", nil, map[string]string{"Accept-Encoding": "gzip"})
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip, headers=%v", w.Header())
	}
	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	raw, _ := io.ReadAll(zr)
	if !bytes.Contains(raw, []byte(`"total":0`)) {
		t.Fatalf("unexpected body: %s", raw)
	}

	_ = store.Close()
	if w = do(r, http.MethodGet, "/api/messages", nil, nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("closed store list expected 503, got %d", w.Code)
	}
	if w = do(r, http.MethodGet, "/health", nil, nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("closed store health expected 503, got %d", w.Code)
	}
	w = do(r, http.MethodGet, "/config/check", nil, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"connected":false`) {
		t.Fatalf("config check: %d %s", w.Code, w.Body.String())
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := do(r, http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB"), nil) // 12 bytes
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := do(r, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

func Test_idempotencyLookup(t *testing.T) {
	store := newTestStore(t)
	lookup := idempotencyLookup(store)
	ctx := context.Background()

	if id, err := lookup(ctx, domain.ScopeAPI, "k1", time.Now()); id != "" || err != nil {
		t.Fatalf("miss: id=%q err=%v", id, err)
	}
	claimed, _, err := store.ClaimMessage(ctx, domain.ScopeAPI, "k1", time.Hour, "hola", "s", "", time.Now())
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if id, err := lookup(ctx, domain.ScopeAPI, "k1", time.Now()); id != claimed || err != nil {
		t.Fatalf("hit: id=%q want %q err=%v", id, claimed, err)
	}
	_ = store.Close()
	if id, err := lookup(ctx, domain.ScopeAPI, "k1", time.Now()); id != "" || err == nil {
		t.Fatalf("closed store: id=%q err=%v", id, err)
	}
}

//go:build !integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"telegram-itmo-schedule/internal/domain/model"
)

func updatePayload(n int) []byte {
	return []byte(fmt.Sprintf(`{"update_id":%d,"message":{"message_id":%d,"chat":{"id":7},"text":"hi"}}`, n, n))
}

func TestPublicPages(t *testing.T) {
	_, router, _ := newTestServer(testConfig(""))

	t.Run("root page announces the bot", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if got := rr.Body.String(); got != "🤖 ITMO Schedule Bot is running!" {
			t.Errorf("unexpected body %q", got)
		}
	})

	t.Run("favicon returns no content", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/favicon.ico", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rr.Code)
		}
	})

	t.Run("unknown path -> 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})

	t.Run("webhook rejects non-POST", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rr.Code)
		}
	})
}

func TestHealthAndStatus(t *testing.T) {
	_, router, deps := newTestServer(testConfig(""))
	deps.statusUC.MarkRunning()
	deps.statusUC.MarkWebhook(true)

	t.Run("health reports the pipeline state", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var resp struct {
			Status         string `json:"status"`
			Timestamp      string `json:"timestamp"`
			BotRunning     bool   `json:"bot_running"`
			WebhookSet     bool   `json:"webhook_set"`
			QueueSize      int    `json:"queue_size"`
			ProcessorAlive bool   `json:"processor_alive"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != "healthy" || !resp.BotRunning || !resp.WebhookSet || !resp.ProcessorAlive {
			t.Errorf("unexpected health payload: %+v", resp)
		}
		if resp.Timestamp == "" {
			t.Error("expected a timestamp")
		}
	})

	t.Run("status serves the full snapshot", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var st model.BotStatus
		if err := json.NewDecoder(rr.Body).Decode(&st); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !st.Running || !st.WebhookSet || !st.ProcessorAlive {
			t.Errorf("unexpected status payload: %+v", st)
		}
		if !st.Environment.TokenPresent {
			t.Error("expected the environment report to flag the token")
		}
		if st.Environment.Schedule != "static" {
			t.Errorf("unexpected schedule source %q", st.Environment.Schedule)
		}
	})
}

func TestCheckWebhook(t *testing.T) {
	cfg := testConfig("")
	_, router, deps := newTestServer(cfg)

	get := func() (int, map[string]any) {
		req := httptest.NewRequest(http.MethodGet, "/check-webhook", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		var body map[string]any
		_ = json.NewDecoder(rr.Body).Decode(&body)
		return rr.Code, body
	}

	t.Run("reports a mismatch before registration", func(t *testing.T) {
		code, body := get()
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
		if body["ok"] != true {
			t.Errorf("expected ok=true, got %v", body["ok"])
		}
		if body["matches_expected"] != false {
			t.Errorf("expected matches_expected=false, got %v", body["matches_expected"])
		}
	})

	t.Run("matches once the webhook is registered", func(t *testing.T) {
		if err := deps.bot.SetWebhook(context.Background(), cfg.Bot.WebhookURL(), ""); err != nil {
			t.Fatalf("set webhook: %v", err)
		}
		code, body := get()
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
		if body["matches_expected"] != true {
			t.Errorf("expected matches_expected=true, got %v", body["matches_expected"])
		}
		if body["webhook_url"] != cfg.Bot.WebhookURL() {
			t.Errorf("unexpected webhook_url %v", body["webhook_url"])
		}
	})
}

func TestWebhookSink(t *testing.T) {
	const secret = "hook-secret"
	cfg := testConfig("")
	cfg.Bot.WebhookSecret = secret
	_, router, deps := newTestServer(cfg)

	post := func(body []byte, withSecret bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if withSecret {
			req.Header.Set("X-Telegram-Bot-Api-Secret-Token", secret)
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("rejects a missing secret", func(t *testing.T) {
		rr := post(updatePayload(1), false)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
		if deps.bot.QueueLen() != 0 {
			t.Errorf("expected nothing queued, got %d", deps.bot.QueueLen())
		}
	})

	t.Run("accepts a valid update and acknowledges before processing", func(t *testing.T) {
		rr := post(updatePayload(1), true)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if got := rr.Body.String(); got != "OK" {
			t.Errorf("unexpected body %q", got)
		}
		if deps.bot.QueueLen() != 1 {
			t.Errorf("expected 1 queued update, got %d", deps.bot.QueueLen())
		}
		st := deps.statusUC.Snapshot(context.Background())
		if st.LastUpdateAt == nil {
			t.Error("expected last_update_at to be set")
		}
		if st.UpdatesHandled != 1 {
			t.Errorf("expected 1 handled update, got %d", st.UpdatesHandled)
		}
	})

	t.Run("acknowledges an irrelevant update without queuing", func(t *testing.T) {
		before := deps.bot.QueueLen()
		rr := post([]byte(`{"update_id":99}`), true)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if deps.bot.QueueLen() != before {
			t.Errorf("expected queue unchanged at %d, got %d", before, deps.bot.QueueLen())
		}
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		rr := post([]byte(`{"update_id":`), true)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("returns 503 when the queue is full", func(t *testing.T) {
		for i := 2; i <= 4; i++ {
			if rr := post(updatePayload(i), true); rr.Code != http.StatusOK {
				t.Fatalf("fill enqueue %d failed with %d", i, rr.Code)
			}
		}
		rr := post(updatePayload(5), true)
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rr.Code)
		}
	})

	t.Run("returns 500 when the processor is down", func(t *testing.T) {
		deps.bot.StopProcessor()
		rr := post(updatePayload(6), true)
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rr.Code)
		}
		if got := rr.Body.String(); got != "Update processor not running\n" {
			t.Errorf("unexpected body %q", got)
		}
	})
}

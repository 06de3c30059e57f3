package web

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"telegram-itmo-schedule/internal/domain"
	"telegram-itmo-schedule/internal/domain/model"
)

// maxWebhookBody caps webhook payload reads. Telegram updates are a few KB;
// anything near the cap is garbage.
const maxWebhookBody = 1 << 20

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("🤖 ITMO Schedule Bot is running!"))
}

func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.statusUC.Snapshot(r.Context())
	writeJSON(w, http.StatusOK, struct {
		Status         string `json:"status"`
		Timestamp      string `json:"timestamp"`
		BotRunning     bool   `json:"bot_running"`
		WebhookSet     bool   `json:"webhook_set"`
		QueueSize      int    `json:"queue_size"`
		ProcessorAlive bool   `json:"processor_alive"`
	}{
		Status:         "healthy",
		Timestamp:      model.Now().Format(time.RFC3339),
		BotRunning:     st.Running,
		WebhookSet:     st.WebhookSet,
		QueueSize:      st.QueueSize,
		ProcessorAlive: st.ProcessorAlive,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.statusUC.Snapshot(r.Context()))
}

// handleCheckWebhook asks Telegram what it currently has registered and
// compares it against the configured public URL.
func (s *Server) handleCheckWebhook(w http.ResponseWriter, r *http.Request) {
	info, err := s.bot.WebhookInfo(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, struct {
			OK    bool   `json:"ok"`
			Error string `json:"error"`
		}{OK: false, Error: err.Error()})
		return
	}

	expected := s.cfg.Bot.WebhookURL()
	writeJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
		model.WebhookStatus
		ExpectedURL     string `json:"expected_url"`
		MatchesExpected bool   `json:"matches_expected"`
	}{
		OK:              true,
		WebhookStatus:   *info,
		ExpectedURL:     expected,
		MatchesExpected: info.URL == expected,
	})
}

// handleWebhook is the Telegram ingress. It acknowledges fast: the update is
// parsed and queued, never processed inline.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if secret := s.cfg.Bot.WebhookSecret; secret != "" {
		got := r.Header.Get("X-Telegram-Bot-Api-Secret-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := s.bot.EnqueueUpdate(body); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "Bad Request", http.StatusBadRequest)
		case errors.Is(err, domain.ErrProcessorStopped):
			http.Error(w, "Update processor not running", http.StatusInternalServerError)
		case errors.Is(err, domain.ErrQueueFull):
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		default:
			s.log.Error().Err(err).Msg("webhook enqueue failed")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	s.statusUC.TouchUpdate()
	s.statusUC.IncHandled()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

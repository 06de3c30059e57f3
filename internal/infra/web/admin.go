package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/infra/metrics"
)

// adminMetrics counts every admin API request by route pattern and status.
func (s *Server) adminMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := &respWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		metrics.IncAdminRequest(route, strconv.Itoa(ww.status))
	})
}

// adminAuth guards the protected admin subtree. Without a configured admin
// key the surface pretends not to exist.
func (s *Server) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Admin.Key == "" || s.auth == nil {
			http.NotFound(w, r)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Admin.Key == "" || s.auth == nil {
		http.NotFound(w, r)
		return
	}

	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Key), []byte(s.cfg.Admin.Key)) != 1 {
		s.log.Warn().Msg("admin login rejected")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if _, err := s.auth.Mint(w); err != nil {
		s.log.Error().Err(err).Msg("failed to mint admin session")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Admin.Key == "" || s.auth == nil {
		http.NotFound(w, r)
		return
	}
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

type adminUser struct {
	ID           string    `json:"id"`
	TelegramID   int64     `json:"telegram_id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	IsAdmin      bool      `json:"is_admin"`
}

// handleAdminUsers returns a page of registered users.
func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.userUC.List(ctx, offset, limit)
	if err != nil {
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	total, err := s.userUC.Count(ctx)
	if err != nil {
		http.Error(w, "Failed to count users", http.StatusInternalServerError)
		return
	}

	out := make([]adminUser, 0, len(users))
	for _, u := range users {
		out = append(out, adminUser{
			ID:           u.ID,
			TelegramID:   u.TelegramID,
			Username:     u.Username,
			FirstName:    u.FirstName,
			RegisteredAt: u.RegisteredAt,
			LastActiveAt: u.LastActiveAt,
			IsAdmin:      u.IsAdmin,
		})
	}

	writeJSON(w, http.StatusOK, struct {
		Total  int         `json:"total"`
		Users  []adminUser `json:"users"`
		Limit  int         `json:"limit"`
		Offset int         `json:"offset"`
	}{
		Total:  total,
		Users:  out,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := s.userUC.Count(ctx)
	if err != nil {
		http.Error(w, "Failed to count users", http.StatusInternalServerError)
		return
	}
	st := s.statusUC.Snapshot(ctx)

	anchor, err := s.cfg.ParityAnchorDate()
	if err != nil {
		anchor = model.DefaultParityAnchor
	}
	parity := "odd"
	if model.WeekParity(model.Now(), anchor) == model.EvenWeek {
		parity = "even"
	}

	writeJSON(w, http.StatusOK, struct {
		TotalUsers     int    `json:"total_users"`
		UpdatesHandled int64  `json:"updates_handled"`
		UptimeSeconds  int64  `json:"uptime_seconds"`
		ScheduleSource string `json:"schedule_source"`
		WeekParity     string `json:"week_parity"`
	}{
		TotalUsers:     total,
		UpdatesHandled: st.UpdatesHandled,
		UptimeSeconds:  st.UptimeSeconds,
		ScheduleSource: s.scheduleUC.SourceName(),
		WeekParity:     parity,
	})
}

// handleAdminBroadcast queues a message for every non-admin user.
func (s *Server) handleAdminBroadcast(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	queued, err := s.broadcastUC.BroadcastMessage(r.Context(), req.Text)
	if err != nil {
		http.Error(w, "Failed to queue broadcast", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, struct {
		Queued int `json:"queued"`
	}{Queued: queued})
}

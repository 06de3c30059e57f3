package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-itmo-schedule/internal/config"
	"telegram-itmo-schedule/internal/domain/ports/adapter"
	"telegram-itmo-schedule/internal/usecase"
)

// Server is the single HTTP surface of the service: the public landing page,
// ops endpoints, the Telegram webhook sink, Prometheus metrics and the
// JWT-gated admin API.
type Server struct {
	cfg         *config.Config
	bot         adapter.TelegramBotAdapter
	statusUC    usecase.StatusUseCase
	userUC      usecase.UserUseCase
	scheduleUC  usecase.ScheduleUseCase
	broadcastUC usecase.BroadcastUseCase
	auth        *AuthManager
	log         *zerolog.Logger

	httpSrv *http.Server
}

func NewServer(
	cfg *config.Config,
	bot adapter.TelegramBotAdapter,
	statusUC usecase.StatusUseCase,
	userUC usecase.UserUseCase,
	scheduleUC usecase.ScheduleUseCase,
	broadcastUC usecase.BroadcastUseCase,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		cfg:         cfg,
		bot:         bot,
		statusUC:    statusUC,
		userUC:      userUC,
		scheduleUC:  scheduleUC,
		broadcastUC: broadcastUC,
		auth:        auth,
		log:         &l,
	}
}

// Routes assembles the router. Split out from Start so tests can drive the
// full stack through httptest.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(TraceID(s.log), RequestLog(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/favicon.ico", s.handleFavicon)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/check-webhook", s.handleCheckWebhook)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/webhook", s.handleWebhook)

	r.Route("/api/v1/admin", func(ar chi.Router) {
		ar.Use(Timeout(10*time.Second), s.adminMetrics)
		ar.Post("/login", s.handleAdminLogin)
		ar.Post("/logout", s.handleAdminLogout)
		ar.Group(func(pr chi.Router) {
			pr.Use(s.adminAuth)
			pr.Get("/users", s.handleAdminUsers)
			pr.Get("/stats", s.handleAdminStats)
			pr.Post("/broadcast", s.handleAdminBroadcast)
		})
	})
	return r
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Bot.Port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("http server listening")
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

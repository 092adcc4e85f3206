package api

import (
	"context"
	"github.com/gorilla/mux"
	"github.com/maxaizer/campus-job-board/internal/config"
	"github.com/maxaizer/campus-job-board/internal/metrics"
	"github.com/maxaizer/campus-job-board/internal/services"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	board        *services.JobBoard
	cfg          config.ServerConfig
	loginLimiter *ipRateLimiter
	handler      http.Handler
}

func NewServer(board *services.JobBoard, cfg config.ServerConfig) (*Server, error) {

	if board == nil {
		return nil, errors.New("job board is nil")
	}

	s := &Server{
		board:        board,
		cfg:          cfg,
		loginLimiter: newIPRateLimiter(cfg.LoginRatePerMinute),
	}
	s.handler = recoverMiddleware(loggingMiddleware(corsMiddleware(s.routes())))
	return s, nil
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "error", "Not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "error", "Method not allowed")
	})
	router.Use(metricsMiddleware)

	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router
	if s.cfg.BasePath != "" {
		api = router.PathPrefix(s.cfg.BasePath).Subrouter()
	}

	api.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api.HandleFunc("/register", s.register).Methods(http.MethodPost)
	api.HandleFunc("/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/logout", s.logout).Methods(http.MethodPost)
	api.HandleFunc("/me", s.me).Methods(http.MethodGet)

	api.HandleFunc("/jobs", s.approvedJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs", s.postJob).Methods(http.MethodPost)
	api.HandleFunc("/jobs/my", s.companyJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id:[0-9]+}", s.job).Methods(http.MethodGet)

	api.HandleFunc("/applications", s.apply).Methods(http.MethodPost)
	api.HandleFunc("/applications/my", s.myApplications).Methods(http.MethodGet)
	api.HandleFunc("/applications/{id:[0-9]+}/status", s.updateApplicationStatus).Methods(http.MethodPut)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/companies", s.unverifiedCompanies).Methods(http.MethodGet)
	admin.HandleFunc("/companies/{id:[0-9]+}/verify", s.verifyCompany).Methods(http.MethodPost)
	admin.HandleFunc("/jobs", s.pendingJobs).Methods(http.MethodGet)
	admin.HandleFunc("/jobs/{id:[0-9]+}/approve", s.reviewJob).Methods(http.MethodPost)
	admin.HandleFunc("/applications", s.allApplications).Methods(http.MethodGet)
	admin.HandleFunc("/backup", s.backup).Methods(http.MethodPost)

	return router
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Listen serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context) error {

	server := &http.Server{
		Addr:         s.cfg.Address(),
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("HTTP server listening on %s%s", server.Addr, s.cfg.BasePath)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down HTTP server")
		return server.Shutdown(shutdownCtx)
	}
}

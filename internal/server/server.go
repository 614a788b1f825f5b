package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"lottery/internal/logger"
	"lottery/internal/lottery"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Engine is the set of lottery calls the HTTP surface dispatches to.
type Engine interface {
	State(ctx context.Context) (*lottery.State, error)
	DepositPrizePool(ctx context.Context, operator solana.PublicKey, amount uint64) error
	Play(ctx context.Context, player, operator solana.PublicKey) (*lottery.PlayResult, error)
	FreePlay(ctx context.Context, player solana.PublicKey, referralCount uint8) (*lottery.PlayResult, error)
	Balance(ctx context.Context, address solana.PublicKey) (uint64, error)
	Airdrop(ctx context.Context, to solana.PublicKey, amount uint64) error
	Plays(ctx context.Context, player solana.PublicKey) ([]*lottery.PlayResult, error)
}

type Config struct {
	Engine       Engine
	Authorizer   Authorizer
	ListenAddr   string
	AllowAirdrop bool
}

func (cfg *Config) Validate() error {
	if cfg.Engine == nil {
		return errors.New("engine is required")
	}
	if cfg.ListenAddr == "" {
		return errors.New("listen address is required")
	}
	if cfg.Authorizer == nil {
		cfg.Authorizer = NewSignatureAuthorizer(nil, DefaultSignatureMaxAge)
	}
	return nil
}

type Server struct {
	cfg    Config
	router *chi.Mux
	srv    *http.Server
}

func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
	}
	s.setupRoutes()

	s.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost*", "http://127.0.0.1*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", SignatureHeader, TimestampHeader},
		MaxAge:         300,
	}))

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleGetState)
		r.Post("/deposit", s.handleDeposit)
		r.Post("/play", s.handlePlay)
		r.Post("/free-play", s.handleFreePlay)
		r.Get("/accounts/{address}/balance", s.handleGetBalance)
		r.Post("/accounts/{address}/airdrop", s.handleAirdrop)
		r.Get("/players/{address}/plays", s.handleGetPlays)
	})
	s.router.Handle("/metrics", promhttp.Handler())
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: listening", zap.String("address", s.cfg.ListenAddr))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("server: shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("server: shutting down... done")
		return nil
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(started)),
			zap.String("request id", middleware.GetReqID(r.Context())),
		)
	})
}

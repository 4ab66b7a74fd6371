package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/config"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/db"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/handlers"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/mq"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/notify"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/otp"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/services"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/storage"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/store"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/token"
	"github.com/redis/go-redis/v9"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
}

// New constructs a Server with all services wired from config.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if cfg.JWT.AccessSecret == "" || cfg.JWT.RefreshSecret == "" {
		return nil, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	srv := &Server{db: dbConn}
	if err := srv.wire(ctx, cfg); err != nil {
		_ = srv.Shutdown()
		return nil, err
	}
	return srv, nil
}

func (s *Server) wire(ctx context.Context, cfg config.Config) error {
	tokens := token.NewService(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret)

	ledger, err := newLedger(cfg.OTP)
	if err != nil {
		return err
	}
	phoneOTP := otp.NewChannelService("phone", ledger)
	emailOTP := otp.NewChannelService("email", ledger)

	sms, err := s.newSMSSender(ctx, cfg)
	if err != nil {
		return err
	}
	mail, err := notify.NewSMTPMailSender(cfg.SMTP)
	if err != nil {
		return err
	}

	objectBackend, err := storage.NewBackend(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	objects := storage.NewStorage(objectBackend)
	if err := objects.EnsureBucket(ctx); err != nil {
		return err
	}

	userRepo := store.NewUserRepository(s.db)
	productRepo := store.NewProductRepository(s.db)
	cartRepo := store.NewCartRepository(s.db)

	authService := services.NewAuthService(userRepo, phoneOTP, emailOTP, sms, mail, tokens, cfg.Admin)
	productService := services.NewProductService(productRepo, objects)
	cartService := services.NewCartService(cartRepo, productRepo)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService, tokens, cfg.IsProduction())
	})
	router.Route("/products", func(r chi.Router) {
		handlers.ProductRouter(r, productService, tokens)
	})
	router.Route("/cart", func(r chi.Router) {
		handlers.CartRouter(r, cartService, tokens)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.router = router
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return nil
}

// newSMSSender builds the outbound SMS path. In queue mode messages are
// published to the broker and drained by the sms-worker command.
func (s *Server) newSMSSender(ctx context.Context, cfg config.Config) (notify.SMSSender, error) {
	switch cfg.SMS.Mode {
	case "queue":
		backend, err := mq.NewBackend(ctx, cfg.MQ)
		if err != nil {
			return nil, err
		}
		s.queue = mq.New(backend)
		return notify.NewQueueSMSSender(s.queue, cfg.SMS.QueueChannel), nil
	case "gateway", "":
		return notify.NewGatewaySMSSender(cfg.SMS)
	default:
		return nil, fmt.Errorf("unknown sms mode %q", cfg.SMS.Mode)
	}
}

func newLedger(cfg config.OTPConfig) (otp.Ledger, error) {
	switch cfg.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return otp.NewRedisLedger(client, "otp"), nil
	case "memory", "":
		return otp.NewMemoryLedger(), nil
	default:
		return nil, fmt.Errorf("unknown otp store %q", cfg.Store)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}
